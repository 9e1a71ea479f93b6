package view

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"teamup-bot/internal/apperr"
	"teamup-bot/internal/model"
	"teamup-bot/internal/notification"
	"teamup-bot/internal/schedule"
	"teamup-bot/internal/store"
)

type refreshKey struct {
	eventID int64
	chatID  int64
}

// refreshState tracks a refresh in progress. dirty is set when another
// refresh was requested meanwhile and the view must be rendered again.
type refreshState struct {
	dirty bool
}

// Synchronizer keeps the live event message of each (event, chat) up to date.
// Refreshes of the same key never overlap: a refresh requested while one is
// running makes the running one render again with the latest state.
type Synchronizer struct {
	store     store.Store
	renderer  *Renderer
	messenger notification.Messenger
	now       func() time.Time

	mu      sync.Mutex
	pending map[refreshKey]*refreshState
}

// NewSynchronizer creates a synchronizer. A nil clock means time.Now.
func NewSynchronizer(s store.Store, r *Renderer, m notification.Messenger, now func() time.Time) *Synchronizer {
	if now == nil {
		now = time.Now
	}
	return &Synchronizer{
		store:     s,
		renderer:  r,
		messenger: m,
		now:       now,
		pending:   make(map[refreshKey]*refreshState),
	}
}

// Summary loads the current state of an event.
func (s *Synchronizer) Summary(ctx context.Context, eventID int64) (Summary, error) {
	ev, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return Summary{}, err
	}
	participants, err := s.store.ListParticipants(ctx, eventID)
	if err != nil {
		return Summary{}, err
	}
	stats, err := s.store.Stats(ctx, eventID)
	if err != nil {
		return Summary{}, err
	}
	now := s.now().UTC()
	return Summary{
		Event:        ev,
		Participants: participants,
		Stats:        stats,
		Window:       schedule.StateOf(ev, now),
		Now:          now,
	}, nil
}

// Refresh re-renders the event message shown in chatID. It does nothing when
// no message has been recorded for the pair. Delivery failures are logged and
// not returned.
func (s *Synchronizer) Refresh(ctx context.Context, eventID, chatID int64) error {
	key := refreshKey{eventID: eventID, chatID: chatID}

	s.mu.Lock()
	if st, ok := s.pending[key]; ok {
		st.dirty = true
		s.mu.Unlock()
		return nil
	}
	st := &refreshState{}
	s.pending[key] = st
	s.mu.Unlock()

	for {
		err := s.refreshOnce(ctx, eventID, chatID)

		s.mu.Lock()
		if !st.dirty {
			delete(s.pending, key)
			s.mu.Unlock()
			return err
		}
		st.dirty = false
		s.mu.Unlock()
	}
}

func (s *Synchronizer) refreshOnce(ctx context.Context, eventID, chatID int64) error {
	ref, err := s.store.LatestMessageRef(ctx, eventID, chatID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	summary, err := s.Summary(ctx, eventID)
	if err != nil {
		return err
	}
	text, kb := s.renderer.Event(summary)
	if err := s.messenger.Edit(ctx, chatID, ref.MessageID, text, kb); err != nil {
		log.Printf("failed to edit message %d of event %d in chat %d: %v", ref.MessageID, eventID, chatID, err)
	}
	return nil
}

// Announce posts a new event message to the event's chat and makes it the
// message that later refreshes edit.
func (s *Synchronizer) Announce(ctx context.Context, eventID int64) error {
	summary, err := s.Summary(ctx, eventID)
	if err != nil {
		return err
	}
	ev := summary.Event
	text, kb := s.renderer.Event(summary)

	messageID, err := s.messenger.Send(ctx, ev.ChatID, text, kb)
	if err != nil {
		return fmt.Errorf("failed to send event %d to chat %d: %w", eventID, ev.ChatID, apperr.Transient(err))
	}
	return s.store.PutMessageRef(ctx, &model.EventMessage{
		EventID:   eventID,
		ChatID:    ev.ChatID,
		MessageID: messageID,
		CreatedAt: s.now().UTC(),
	})
}
