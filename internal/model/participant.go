package model

import "time"

// Participant is one user's registration for an event. PlusCount counts the
// user and every guest they brought; ReserveCount is the part of PlusCount
// that did not fit into the event capacity.
type Participant struct {
	ID           int64     `gorm:"primaryKey"`
	EventID      int64     `gorm:"not null;uniqueIndex:idx_participant_event_user,priority:1"`
	UserID       int64     `gorm:"not null;uniqueIndex:idx_participant_event_user,priority:2"`
	Username     string    `gorm:"size:64"`
	FirstName    string    `gorm:"size:256"`
	PlusCount    int       `gorm:"not null;default:1;check:plus_count >= 1"`
	ReserveCount int       `gorm:"not null;default:0"`
	IsReserve    bool      `gorm:"not null;default:false"`
	JoinedAt     time.Time `gorm:"not null;index"`
}

// DisplayName prefers the handle over the first name.
func (p Participant) DisplayName() string {
	if p.Username != "" {
		return "@" + p.Username
	}
	if p.FirstName != "" {
		return p.FirstName
	}
	return "?"
}

// MainSlots is the number of slots counted against the capacity.
func (p Participant) MainSlots() int {
	return p.PlusCount - p.ReserveCount
}
