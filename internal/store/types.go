package store

import "time"

// ParticipantInput carries the identity of a joining user.
type ParticipantInput struct {
	UserID    int64
	Username  string
	FirstName string
	JoinedAt  time.Time
}

// JoinResult is the outcome of an accepted join.
type JoinResult struct {
	Created   bool `json:"created"`
	PlusCount int  `json:"plus_count"`
	// Reserve is true when the slot added by this join went to the reserve.
	Reserve bool `json:"reserve"`
}

// Stats are the derived roster aggregates of an event.
type Stats struct {
	Participants       int64 `json:"participants"`
	TotalRegistrations int64 `json:"total_registrations"`
	MainSlots          int64 `json:"main_slots"`
	ReserveCount       int64 `json:"reserve_count"`
}
