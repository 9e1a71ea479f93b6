// Package teams runs the interactive team split: an administrator asks for
// teams, the bot waits for a team count from that user, then partitions the
// roster.
package teams

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"teamup-bot/internal/apperr"
	"teamup-bot/internal/model"
	"teamup-bot/internal/store"
)

// MinTeams is the smallest team count accepted.
const MinTeams = 2

var (
	// ErrNoSession means the input is not an answer to a pending team split.
	ErrNoSession = errors.New("no team split awaiting a count")
	// ErrTooFewParticipants rejects a split of a roster with fewer than two people.
	ErrTooFewParticipants = fmt.Errorf("%w: at least %d participants are needed", apperr.ErrValidation, MinTeams)
)

// CountError rejects a team count outside [MinTeams, headcount]. Limit is
// the bound that was violated.
type CountError struct {
	Count  int
	Limit  int
	TooFew bool
}

func (e *CountError) Error() string {
	if e.TooFew {
		return fmt.Sprintf("team count %d is below the minimum of %d", e.Count, e.Limit)
	}
	return fmt.Sprintf("team count %d exceeds the headcount of %d", e.Count, e.Limit)
}

func (e *CountError) Is(target error) bool {
	return target == apperr.ErrValidation
}

// AdminChecker answers whether a user administers a chat. Implementations
// treat lookup failures as "not an administrator".
type AdminChecker interface {
	IsAdmin(ctx context.Context, chatID, userID int64) bool
}

// Result is a completed team split.
type Result struct {
	EventID   int64
	Teams     []Team
	Headcount int
}

// Service keeps team split sessions.
type Service struct {
	store  store.Store
	admins AdminChecker
	ttl    time.Duration
	now    func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewService creates a team split service. Sessions older than ttl are
// ignored. A nil clock means time.Now and a nil rng is seeded from the clock.
func NewService(s store.Store, admins AdminChecker, ttl time.Duration, now func() time.Time, rng *rand.Rand) *Service {
	if now == nil {
		now = time.Now
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(now().UnixNano()))
	}
	return &Service{store: s, admins: admins, ttl: ttl, now: now, rng: rng}
}

// Open starts waiting for a team count from userID in chatID, replacing any
// session that user had pending in the chat.
func (s *Service) Open(ctx context.Context, eventID, chatID, userID int64) (model.TeamSplitSession, error) {
	if !s.admins.IsAdmin(ctx, chatID, userID) {
		return model.TeamSplitSession{}, fmt.Errorf("team split by user %d in chat %d: %w", userID, chatID, apperr.ErrPermissionDenied)
	}
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return model.TeamSplitSession{}, err
	}
	participants, err := s.store.ListParticipants(ctx, eventID)
	if err != nil {
		return model.TeamSplitSession{}, err
	}
	if len(participants) < MinTeams {
		return model.TeamSplitSession{}, ErrTooFewParticipants
	}

	sess := model.TeamSplitSession{
		EventID:   eventID,
		ChatID:    chatID,
		UserID:    userID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.PutSession(ctx, &sess); err != nil {
		return model.TeamSplitSession{}, err
	}
	return sess, nil
}

// Submit answers a pending session with raw. It returns ErrNoSession when
// there is no live session for the user or raw is not an integer, and a
// *CountError when the count is out of range; in both cases the session stays
// pending.
func (s *Service) Submit(ctx context.Context, chatID, userID int64, raw string) (Result, error) {
	count, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return Result{}, ErrNoSession
	}

	sess, err := s.store.ActiveSession(ctx, chatID, userID, s.now().UTC().Add(-s.ttl))
	if errors.Is(err, apperr.ErrNotFound) {
		return Result{}, ErrNoSession
	}
	if err != nil {
		return Result{}, err
	}

	participants, err := s.store.ListParticipants(ctx, sess.EventID)
	if err != nil {
		return Result{}, err
	}
	headcount := ExpandedCount(participants)
	if count < MinTeams {
		return Result{}, &CountError{Count: count, Limit: MinTeams, TooFew: true}
	}
	if count > headcount {
		return Result{}, &CountError{Count: count, Limit: headcount}
	}

	completed, err := s.store.CompleteSession(ctx, sess.ID)
	if err != nil {
		return Result{}, err
	}
	if !completed {
		return Result{}, ErrNoSession
	}

	s.mu.Lock()
	teams := Split(participants, count, s.rng)
	s.mu.Unlock()

	return Result{EventID: sess.EventID, Teams: teams, Headcount: headcount}, nil
}

// Cleanup deletes sessions that have outlived the TTL.
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	return s.store.DeleteSessionsBefore(ctx, s.now().UTC().Add(-s.ttl))
}
