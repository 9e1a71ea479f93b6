package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"teamup-bot/internal/model"
)

// SaveSubscription creates or refreshes a push subscription and replaces the
// set of events it follows.
func (s *gormStore) SaveSubscription(ctx context.Context, sub *model.PushSubscription, eventIDs []int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Omit("Events").Create(sub).Error; err != nil {
			return err
		}

		var events []*model.Event
		if len(eventIDs) > 0 {
			if err := tx.Find(&events, eventIDs).Error; err != nil {
				return err
			}
		}

		return tx.Model(sub).Association("Events").Replace(events)
	})
	return wrapErr("save push subscription", err)
}

func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).Preload("Events").First(&sub, "endpoint = ?", endpoint).Error
	return sub, wrapErr("get push subscription", err)
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := model.PushSubscription{Endpoint: endpoint}
		if err := tx.Model(&sub).Association("Events").Clear(); err != nil {
			return err
		}
		return tx.Delete(&sub).Error
	})
	return wrapErr("delete push subscription", err)
}

// SubscriptionsForEvent lists the browsers following an event.
func (s *gormStore) SubscriptionsForEvent(ctx context.Context, eventID int64) ([]model.PushSubscription, error) {
	var subscriptions []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN subscription_event_mapping sem ON sem.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("sem.event_id = ?", eventID).
		Find(&subscriptions).Error
	return subscriptions, wrapErr(fmt.Sprintf("list push subscriptions of event %d", eventID), err)
}
