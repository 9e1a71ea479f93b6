package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamup-bot/config"
	"teamup-bot/internal/dbtest"
	"teamup-bot/internal/model"
	"teamup-bot/internal/store"
)

type recordingDispatcher struct {
	mu  sync.Mutex
	ids []int64
	err error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, eventID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.ids = append(d.ids, eventID)
	return nil
}

func (d *recordingDispatcher) take() []int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := d.ids
	d.ids = nil
	return ids
}

type cleanerFunc func(ctx context.Context) (int64, error)

func (f cleanerFunc) Cleanup(ctx context.Context) (int64, error) { return f(ctx) }

// Friday 2024-01-05, events start at 19:00 UTC.
var friday = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return friday.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func TestService_AnnounceDue(t *testing.T) {
	ctx := context.Background()
	s := store.NewGormStore(dbtest.SQLite(t))

	hourBefore := model.Event{ChatID: -1, Name: "Football", Weekdays: "friday", StartTime: "19:00", PollStartValue: 1, PollStartUnit: "hour"}
	atStart := model.Event{ChatID: -2, Name: "Basketball", Weekdays: "friday", StartTime: "19:00"}
	broken := model.Event{ChatID: -3, Name: "Broken", Weekdays: "someday", StartTime: "19:00"}
	for _, ev := range []*model.Event{&hourBefore, &atStart, &broken} {
		require.NoError(t, s.SaveEvent(ctx, ev))
	}

	now := at(17, 30)
	dispatcher := &recordingDispatcher{}
	svc := NewService(config.SchedulerConfig{}, s, dispatcher, nil, func() time.Time { return now })

	now = at(17, 59)
	assert.Equal(t, 0, svc.AnnounceDue(ctx))

	now = at(18, 0)
	assert.Equal(t, 1, svc.AnnounceDue(ctx))
	assert.Equal(t, []int64{hourBefore.ID}, dispatcher.take())

	// Each opening is announced once.
	now = at(18, 1)
	assert.Equal(t, 0, svc.AnnounceDue(ctx))

	// A missed tick is caught up by the next one.
	now = at(19, 5)
	assert.Equal(t, 1, svc.AnnounceDue(ctx))
	assert.Equal(t, []int64{atStart.ID}, dispatcher.take())

	now = at(19, 6)
	assert.Equal(t, 0, svc.AnnounceDue(ctx))
	assert.Empty(t, dispatcher.take())
}

func TestService_AnnounceDue_CountsOnlyQueued(t *testing.T) {
	ctx := context.Background()
	s := store.NewGormStore(dbtest.SQLite(t))
	require.NoError(t, s.SaveEvent(ctx, &model.Event{ChatID: -1, Name: "Football", Weekdays: "friday", StartTime: "19:00"}))

	now := at(18, 0)
	dispatcher := &recordingDispatcher{err: errors.New("worker pool stopped")}
	svc := NewService(config.SchedulerConfig{}, s, dispatcher, nil, func() time.Time { return now })

	now = at(19, 0)
	assert.Equal(t, 0, svc.AnnounceDue(ctx))
	assert.Empty(t, dispatcher.take())
}

func TestService_CleanupSessions(t *testing.T) {
	calls := 0
	svc := NewService(config.SchedulerConfig{}, nil, nil, cleanerFunc(func(context.Context) (int64, error) {
		calls++
		if calls == 2 {
			return 0, errors.New("database is locked")
		}
		return 3, nil
	}), time.Now)

	svc.CleanupSessions(context.Background())
	svc.CleanupSessions(context.Background())
	assert.Equal(t, 2, calls)
}

func TestService_Run(t *testing.T) {
	svc := NewService(config.SchedulerConfig{Enabled: false}, nil, nil, nil, time.Now)
	assert.NoError(t, svc.Run(context.Background()))

	svc = NewService(config.SchedulerConfig{Enabled: true, AnnounceCron: "not a cron", CleanupCron: "@hourly"}, nil, nil, nil, time.Now)
	assert.Error(t, svc.Run(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	svc = NewService(config.SchedulerConfig{Enabled: true, AnnounceCron: "@every 1h", CleanupCron: "@hourly"}, nil, nil, nil, time.Now)
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
