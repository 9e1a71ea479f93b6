package model

import "time"

// TeamSplitSession records that a chat administrator asked for a team split
// and the bot is waiting for the number of teams. At most one session per
// (chat, user) is waiting at a time.
type TeamSplitSession struct {
	ID              int64     `gorm:"primaryKey"`
	EventID         int64     `gorm:"not null;index"`
	ChatID          int64     `gorm:"not null;index:idx_session_chat_user,priority:1;uniqueIndex:idx_session_waiting,priority:1,where:waiting_for_teams = true"`
	UserID          int64     `gorm:"not null;index:idx_session_chat_user,priority:2;uniqueIndex:idx_session_waiting,priority:2,where:waiting_for_teams = true"`
	WaitingForTeams bool      `gorm:"not null"`
	CreatedAt       time.Time `gorm:"not null;index"`
}
