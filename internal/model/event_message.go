package model

import "time"

// EventMessage points at the chat message that renders an event's live view.
// The most recent row for (event, chat) is the one that gets edited.
type EventMessage struct {
	ID        int64     `gorm:"primaryKey"`
	EventID   int64     `gorm:"not null;index:idx_event_message_event_chat,priority:1"`
	ChatID    int64     `gorm:"not null;index:idx_event_message_event_chat,priority:2"`
	MessageID int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}
