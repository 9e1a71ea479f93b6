package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransient(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("failed to list participants: %w", Transient(cause))

	assert.True(t, errors.Is(err, ErrTransient))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, Expected(err))
	assert.Nil(t, Transient(nil))

	twice := Transient(Transient(cause))
	var te *transientError
	assert.True(t, errors.As(twice, &te))
	assert.Same(t, cause, te.err)
}

func TestExpected(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{"not found", NotFoundf("event %d", 3), true},
		{"window closed", ErrWindowClosed, true},
		{"validation", Validationf("bad time %q", "25:00"), true},
		{"permission", fmt.Errorf("open: %w", ErrPermissionDenied), true},
		{"transient", Transient(errors.New("boom")), false},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Expected(tc.err))
		})
	}
}
