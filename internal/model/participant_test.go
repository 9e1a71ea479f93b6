package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParticipant_DisplayName(t *testing.T) {
	assert.Equal(t, "@ann", Participant{Username: "ann", FirstName: "Ann"}.DisplayName())
	assert.Equal(t, "Ann", Participant{FirstName: "Ann"}.DisplayName())
	assert.Equal(t, "?", Participant{}.DisplayName())
}

func TestParticipant_MainSlots(t *testing.T) {
	p := Participant{PlusCount: 3, ReserveCount: 1}
	assert.Equal(t, 2, p.MainSlots())
}

func TestEvent_HasCapacity(t *testing.T) {
	zero, two := 0, 2
	assert.False(t, Event{}.HasCapacity())
	assert.False(t, Event{Capacity: &zero}.HasCapacity())
	assert.True(t, Event{Capacity: &two}.HasCapacity())
}
