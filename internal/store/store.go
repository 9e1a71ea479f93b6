package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"teamup-bot/internal/apperr"
	"teamup-bot/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	GetEvent(ctx context.Context, id int64) (model.Event, error)
	GetEventByChat(ctx context.Context, chatID int64) (model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	SaveEvent(ctx context.Context, ev *model.Event) error
	DeleteEvent(ctx context.Context, id int64) error

	UpsertParticipant(ctx context.Context, eventID int64, in ParticipantInput, capacity int) (JoinResult, error)
	DeleteParticipant(ctx context.Context, eventID, userID int64) (bool, error)
	DeleteAllParticipants(ctx context.Context, eventID int64) (int64, error)
	ListParticipants(ctx context.Context, eventID int64) ([]model.Participant, error)
	Leaderboard(ctx context.Context, eventID int64, limit int) ([]model.Participant, error)
	Stats(ctx context.Context, eventID int64) (Stats, error)

	PutSession(ctx context.Context, sess *model.TeamSplitSession) error
	ActiveSession(ctx context.Context, chatID, userID int64, notBefore time.Time) (model.TeamSplitSession, error)
	CompleteSession(ctx context.Context, id int64) (bool, error)
	DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	PutMessageRef(ctx context.Context, ref *model.EventMessage) error
	LatestMessageRef(ctx context.Context, eventID, chatID int64) (model.EventMessage, error)

	SaveSubscription(ctx context.Context, sub *model.PushSubscription, eventIDs []int64) error
	GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionsForEvent(ctx context.Context, eventID int64) ([]model.PushSubscription, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// wrapErr maps a database error onto the error taxonomy: a missing record
// becomes ErrNotFound, anything else is transient.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return fmt.Errorf("failed to %s: %w", op, apperr.Transient(err))
}

// --- Events ---

func (s *gormStore) GetEvent(ctx context.Context, id int64) (model.Event, error) {
	var ev model.Event
	err := s.db.WithContext(ctx).First(&ev, id).Error
	return ev, wrapErr(fmt.Sprintf("get event %d", id), err)
}

func (s *gormStore) GetEventByChat(ctx context.Context, chatID int64) (model.Event, error) {
	var ev model.Event
	err := s.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&ev).Error
	return ev, wrapErr(fmt.Sprintf("get event for chat %d", chatID), err)
}

func (s *gormStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	err := s.db.WithContext(ctx).Order("id").Find(&events).Error
	return events, wrapErr("list events", err)
}

// definitionColumns are overwritten when a chat re-authors its event.
var definitionColumns = []string{
	"name", "weekdays", "start_time", "timezone_offset", "duration_minutes",
	"poll_start_value", "poll_start_unit", "poll_end_value", "poll_end_unit",
	"poll_end_after_start", "capacity", "location", "comment", "language", "updated_at",
}

// SaveEvent stores the definition for ev.ChatID, replacing any previous one.
// The event keeps its id and external id across re-authoring.
func (s *gormStore) SaveEvent(ctx context.Context, ev *model.Event) error {
	if ev.ExternalID == "" {
		ev.ExternalID = uuid.NewString()
	}
	// The row is addressed by chat; a caller-held id must not reach the insert.
	row := *ev
	row.ID = 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}},
			DoUpdates: clause.AssignmentColumns(definitionColumns),
		}).Create(&row).Error; err != nil {
			return err
		}
		var stored model.Event
		if err := tx.Where("chat_id = ?", ev.ChatID).First(&stored).Error; err != nil {
			return err
		}
		*ev = stored
		return nil
	})
	return wrapErr(fmt.Sprintf("save event for chat %d", ev.ChatID), err)
}

// DeleteEvent removes an event together with its roster, sessions, message
// references and push subscription links.
func (s *gormStore) DeleteEvent(ctx context.Context, id int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&model.Participant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", id).Delete(&model.TeamSplitSession{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", id).Delete(&model.EventMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM subscription_event_mapping WHERE event_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Event{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return wrapErr(fmt.Sprintf("delete event %d", id), err)
}

// --- Participants ---

// UpsertParticipant registers one more slot for the user. The event row is
// locked for the duration of the transaction so that concurrent joins see a
// consistent count of main slots; the row itself is created or incremented by
// a single INSERT ... ON CONFLICT statement.
func (s *gormStore) UpsertParticipant(ctx context.Context, eventID int64, in ParticipantInput, capacity int) (JoinResult, error) {
	var res JoinResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ev model.Event
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&ev, eventID).Error; err != nil {
			return err
		}

		reserve := 0
		if capacity > 0 {
			var mainSlots int64
			if err := tx.Model(&model.Participant{}).
				Where("event_id = ?", eventID).
				Select("COALESCE(SUM(plus_count - reserve_count), 0)").
				Scan(&mainSlots).Error; err != nil {
				return err
			}
			if mainSlots >= int64(capacity) {
				reserve = 1
			}
		}

		p := model.Participant{
			EventID:      eventID,
			UserID:       in.UserID,
			Username:     in.Username,
			FirstName:    in.FirstName,
			PlusCount:    1,
			ReserveCount: reserve,
			IsReserve:    reserve == 1,
			JoinedAt:     in.JoinedAt,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "event_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"plus_count":    gorm.Expr("participants.plus_count + 1"),
				"reserve_count": gorm.Expr("participants.reserve_count + ?", reserve),
				"is_reserve":    gorm.Expr("participants.reserve_count + ? = participants.plus_count + 1", reserve),
				"username":      in.Username,
				"first_name":    in.FirstName,
			}),
		}).Create(&p).Error; err != nil {
			return err
		}

		var stored model.Participant
		if err := tx.Where("event_id = ? AND user_id = ?", eventID, in.UserID).First(&stored).Error; err != nil {
			return err
		}
		res = JoinResult{
			Created:   stored.PlusCount == 1,
			PlusCount: stored.PlusCount,
			Reserve:   reserve == 1,
		}
		return nil
	})
	return res, wrapErr(fmt.Sprintf("join user %d to event %d", in.UserID, eventID), err)
}

// DeleteParticipant removes the user's registration whatever its plus-count
// and moves the oldest reserve slots into the main slots it freed.
func (s *gormStore) DeleteParticipant(ctx context.Context, eventID, userID int64) (bool, error) {
	var existed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ev model.Event
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id", "capacity").First(&ev, eventID).Error; err != nil {
			return err
		}
		res := tx.Where("event_id = ? AND user_id = ?", eventID, userID).Delete(&model.Participant{})
		if res.Error != nil {
			return res.Error
		}
		existed = res.RowsAffected > 0
		if !existed || !ev.HasCapacity() {
			return nil
		}
		return promoteReserve(tx, eventID, *ev.Capacity)
	})
	return existed, wrapErr(fmt.Sprintf("remove user %d from event %d", userID, eventID), err)
}

// promoteReserve fills free main slots with reserve slots in join order.
func promoteReserve(tx *gorm.DB, eventID int64, capacity int) error {
	var mainSlots int64
	if err := tx.Model(&model.Participant{}).
		Where("event_id = ?", eventID).
		Select("COALESCE(SUM(plus_count - reserve_count), 0)").
		Scan(&mainSlots).Error; err != nil {
		return err
	}
	free := int64(capacity) - mainSlots
	if free <= 0 {
		return nil
	}

	var waiting []model.Participant
	if err := tx.Where("event_id = ? AND reserve_count > 0", eventID).
		Order("joined_at, id").
		Find(&waiting).Error; err != nil {
		return err
	}
	for _, p := range waiting {
		if free == 0 {
			break
		}
		n := min(free, int64(p.ReserveCount))
		if err := tx.Model(&model.Participant{}).Where("id = ?", p.ID).Updates(map[string]any{
			"reserve_count": p.ReserveCount - int(n),
			"is_reserve":    false,
		}).Error; err != nil {
			return err
		}
		free -= n
	}
	return nil
}

func (s *gormStore) DeleteAllParticipants(ctx context.Context, eventID int64) (int64, error) {
	res := s.db.WithContext(ctx).Where("event_id = ?", eventID).Delete(&model.Participant{})
	if res.Error != nil {
		return 0, wrapErr(fmt.Sprintf("reset event %d", eventID), res.Error)
	}
	return res.RowsAffected, nil
}

// ListParticipants returns the roster in join order.
func (s *gormStore) ListParticipants(ctx context.Context, eventID int64) ([]model.Participant, error) {
	var participants []model.Participant
	err := s.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("joined_at ASC, id ASC").
		Find(&participants).Error
	return participants, wrapErr(fmt.Sprintf("list participants of event %d", eventID), err)
}

// Leaderboard ranks participants by plus-count, earlier joins first on ties.
func (s *gormStore) Leaderboard(ctx context.Context, eventID int64, limit int) ([]model.Participant, error) {
	var participants []model.Participant
	err := s.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("plus_count DESC, joined_at ASC, id ASC").
		Limit(limit).
		Find(&participants).Error
	return participants, wrapErr(fmt.Sprintf("rank participants of event %d", eventID), err)
}

func (s *gormStore) Stats(ctx context.Context, eventID int64) (Stats, error) {
	var st Stats
	err := s.db.WithContext(ctx).Model(&model.Participant{}).
		Select(`COUNT(*) AS participants,
			COALESCE(SUM(plus_count), 0) AS total_registrations,
			COALESCE(SUM(plus_count - reserve_count), 0) AS main_slots,
			COALESCE(SUM(CASE WHEN is_reserve THEN 1 ELSE 0 END), 0) AS reserve_count`).
		Where("event_id = ?", eventID).
		Scan(&st).Error
	return st, wrapErr(fmt.Sprintf("aggregate event %d", eventID), err)
}

// --- Team split sessions ---

// PutSession completes any session still waiting for the same (chat, user)
// and stores sess as the awaiting one. The event row lock serializes
// concurrent requests for the chat.
func (s *gormStore) PutSession(ctx context.Context, sess *model.TeamSplitSession) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ev model.Event
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&ev, sess.EventID).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.TeamSplitSession{}).
			Where("chat_id = ? AND user_id = ? AND waiting_for_teams = ?", sess.ChatID, sess.UserID, true).
			Update("waiting_for_teams", false).Error; err != nil {
			return err
		}
		sess.WaitingForTeams = true
		return tx.Create(sess).Error
	})
	return wrapErr(fmt.Sprintf("open team split for user %d in chat %d", sess.UserID, sess.ChatID), err)
}

// ActiveSession returns the awaiting session for (chat, user) created at or
// after notBefore.
func (s *gormStore) ActiveSession(ctx context.Context, chatID, userID int64, notBefore time.Time) (model.TeamSplitSession, error) {
	var sess model.TeamSplitSession
	err := s.db.WithContext(ctx).
		Where("chat_id = ? AND user_id = ? AND waiting_for_teams = ? AND created_at >= ?", chatID, userID, true, notBefore).
		Order("created_at DESC, id DESC").
		First(&sess).Error
	return sess, wrapErr(fmt.Sprintf("find team split for user %d in chat %d", userID, chatID), err)
}

// CompleteSession marks an awaiting session completed. It reports false when
// the session was already completed, e.g. by a concurrent submission.
func (s *gormStore) CompleteSession(ctx context.Context, id int64) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.TeamSplitSession{}).
		Where("id = ? AND waiting_for_teams = ?", id, true).
		Update("waiting_for_teams", false)
	if res.Error != nil {
		return false, wrapErr(fmt.Sprintf("complete team split %d", id), res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *gormStore) DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&model.TeamSplitSession{})
	if res.Error != nil {
		return 0, wrapErr("delete stale team splits", res.Error)
	}
	return res.RowsAffected, nil
}

// --- Event message references ---

func (s *gormStore) PutMessageRef(ctx context.Context, ref *model.EventMessage) error {
	err := s.db.WithContext(ctx).Create(ref).Error
	return wrapErr(fmt.Sprintf("record message of event %d in chat %d", ref.EventID, ref.ChatID), err)
}

// LatestMessageRef returns the most recently recorded message for (event, chat).
func (s *gormStore) LatestMessageRef(ctx context.Context, eventID, chatID int64) (model.EventMessage, error) {
	var ref model.EventMessage
	err := s.db.WithContext(ctx).
		Where("event_id = ? AND chat_id = ?", eventID, chatID).
		Order("created_at DESC, id DESC").
		First(&ref).Error
	return ref, wrapErr(fmt.Sprintf("find message of event %d in chat %d", eventID, chatID), err)
}
