package model

import "time"

// Event is the current definition of a chat's recurring event. Re-authoring
// overwrites the row for the chat, so the roster survives edits.
type Event struct {
	ID             int64  `gorm:"primaryKey"`
	ExternalID     string `gorm:"uniqueIndex;size:36;not null"`
	ChatID         int64  `gorm:"uniqueIndex;not null"`
	Name           string `gorm:"size:256;not null"`
	Weekdays       string `gorm:"size:128;not null"` // comma separated english names
	StartTime      string `gorm:"size:5;not null"`   // local HH:MM
	TimezoneOffset int    `gorm:"not null;default:0"` // minutes east of UTC
	// DurationMinutes is only used for calendar export.
	DurationMinutes int `gorm:"not null;default:120"`

	PollStartValue    int
	PollStartUnit     string `gorm:"size:16"`
	PollEndValue      int
	PollEndUnit       string `gorm:"size:16"`
	PollEndAfterStart bool   `gorm:"not null;default:false"`

	Capacity *int
	Location string `gorm:"size:256"`
	Comment  string `gorm:"size:1024"`
	Language string `gorm:"size:8"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// HasCapacity reports whether a positive participant limit is set.
func (e Event) HasCapacity() bool {
	return e.Capacity != nil && *e.Capacity > 0
}
