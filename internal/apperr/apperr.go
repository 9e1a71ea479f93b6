// Package apperr defines the outcome taxonomy shared by the engine packages.
//
// NotFound, WindowClosed, Validation and PermissionDenied are expected
// outcomes that end up as short user messages. Transient marks I/O failures
// of a collaborator; those are logged and surfaced as a generic failure.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrWindowClosed     = errors.New("registration window is closed")
	ErrValidation       = errors.New("validation failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrTransient        = errors.New("transient failure")
)

// Validationf returns an error matching ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf returns an error matching ErrNotFound.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

type transientError struct {
	err error
}

func (e *transientError) Error() string {
	return "transient failure: " + e.err.Error()
}

func (e *transientError) Unwrap() []error {
	return []error{ErrTransient, e.err}
}

// Transient wraps an I/O error so that it matches ErrTransient while the
// cause stays reachable through errors.Is and errors.As. A nil error stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	var te *transientError
	if errors.As(err, &te) {
		return err
	}
	return &transientError{err: err}
}

// Expected reports whether err is one of the outcomes that should be shown to
// the user as is and not logged as a failure.
func Expected(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrWindowClosed) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrPermissionDenied)
}
