// Package roster manages event registrations: joins with plus-one counting,
// capacity overflow into the reserve, leaves and resets.
package roster

import (
	"context"
	"fmt"
	"time"

	"teamup-bot/internal/apperr"
	"teamup-bot/internal/model"
	"teamup-bot/internal/schedule"
	"teamup-bot/internal/store"
)

// User identifies the chat member acting on a roster.
type User struct {
	ID        int64
	Username  string
	FirstName string
}

// Entry is one roster line.
type Entry struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	PlusCount   int    `json:"plus_count"`
	Reserve     bool   `json:"reserve"`
}

// Manager applies roster mutations for events.
type Manager struct {
	store store.Store
	now   func() time.Time
}

// NewManager creates a roster manager. A nil clock means time.Now.
func NewManager(s store.Store, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{store: s, now: now}
}

// Join registers one more slot for the user. The first join creates the
// registration; each further join increments its plus-count.
func (m *Manager) Join(ctx context.Context, eventID int64, u User) (store.JoinResult, error) {
	ev, err := m.store.GetEvent(ctx, eventID)
	if err != nil {
		return store.JoinResult{}, err
	}
	now := m.now().UTC()
	if !schedule.IsRegistrationOpen(ev, now) {
		return store.JoinResult{}, fmt.Errorf("join event %d: %w", eventID, apperr.ErrWindowClosed)
	}

	capacity := 0
	if ev.HasCapacity() {
		capacity = *ev.Capacity
	}
	return m.store.UpsertParticipant(ctx, eventID, store.ParticipantInput{
		UserID:    u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		JoinedAt:  now,
	}, capacity)
}

// Leave removes the user's registration and all of their guests. It is
// allowed while registration is closed and reports whether anything was
// removed.
func (m *Manager) Leave(ctx context.Context, eventID, userID int64) (bool, error) {
	if _, err := m.store.GetEvent(ctx, eventID); err != nil {
		return false, err
	}
	return m.store.DeleteParticipant(ctx, eventID, userID)
}

// Reset clears the roster. Resetting an empty roster is a no-op.
func (m *Manager) Reset(ctx context.Context, eventID int64) error {
	if _, err := m.store.GetEvent(ctx, eventID); err != nil {
		return err
	}
	_, err := m.store.DeleteAllParticipants(ctx, eventID)
	return err
}

// Participants returns the raw roster in join order.
func (m *Manager) Participants(ctx context.Context, eventID int64) ([]model.Participant, error) {
	return m.store.ListParticipants(ctx, eventID)
}

// List returns the roster in join order.
func (m *Manager) List(ctx context.Context, eventID int64) ([]Entry, error) {
	participants, err := m.store.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return Entries(participants), nil
}

// Aggregate returns the roster totals.
func (m *Manager) Aggregate(ctx context.Context, eventID int64) (store.Stats, error) {
	return m.store.Stats(ctx, eventID)
}

// Leaderboard returns the top participants by plus-count.
func (m *Manager) Leaderboard(ctx context.Context, eventID int64, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	participants, err := m.store.Leaderboard(ctx, eventID, limit)
	if err != nil {
		return nil, err
	}
	return Entries(participants), nil
}

// Entries converts stored participants into roster lines.
func Entries(participants []model.Participant) []Entry {
	out := make([]Entry, len(participants))
	for i, p := range participants {
		out[i] = Entry{
			UserID:      p.UserID,
			DisplayName: p.DisplayName(),
			PlusCount:   p.PlusCount,
			Reserve:     p.IsReserve,
		}
	}
	return out
}
