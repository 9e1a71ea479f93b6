package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"teamup-bot/config"
	"teamup-bot/internal/schedule"
	"teamup-bot/internal/store"
)

// Dispatcher queues an event announcement.
type Dispatcher interface {
	Dispatch(ctx context.Context, eventID int64) error
}

// SessionCleaner drops expired team split sessions.
type SessionCleaner interface {
	Cleanup(ctx context.Context) (int64, error)
}

// Service runs the periodic jobs: announcing events whose registration just
// opened and pruning stale team split sessions.
type Service struct {
	cfg        config.SchedulerConfig
	store      store.Store
	dispatcher Dispatcher
	sessions   SessionCleaner
	now        func() time.Time

	mu      sync.Mutex
	lastRun time.Time
}

// NewService creates the scheduler. Announcements cover registration windows
// opening after the moment of construction.
func NewService(cfg config.SchedulerConfig, s store.Store, dispatcher Dispatcher, sessions SessionCleaner, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		cfg:        cfg,
		store:      s,
		dispatcher: dispatcher,
		sessions:   sessions,
		now:        now,
		lastRun:    now().UTC(),
	}
}

// Run starts the cron jobs and blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if !s.cfg.Enabled {
		log.Println("Scheduler is disabled. Not starting.")
		return nil
	}
	log.Println("Starting scheduler service...")

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(s.cfg.AnnounceCron, func() { s.AnnounceDue(ctx) }); err != nil {
		return err
	}
	if _, err := c.AddFunc(s.cfg.CleanupCron, func() { s.CleanupSessions(ctx) }); err != nil {
		return err
	}
	c.Start()

	<-ctx.Done()
	log.Println("Scheduler service shutting down.")
	<-c.Stop().Done()
	return nil
}

// AnnounceDue dispatches every event whose registration opened since the
// previous run. It returns the number of dispatched events.
func (s *Service) AnnounceDue(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	from := s.lastRun

	events, err := s.store.ListEvents(ctx)
	if err != nil {
		// lastRun stays put so the next run catches up.
		log.Printf("Error listing events for announcements: %v", err)
		return 0
	}

	dispatched := 0
	for _, ev := range events {
		occ, ok, err := schedule.NextOccurrence(ev, from)
		if err != nil {
			log.Printf("Skipping announcement of event %d: %v", ev.ID, err)
			continue
		}
		if !ok || occ.NotifyAt.After(now) {
			continue
		}
		log.Printf("Registration for event %d (%s) opened at %s, announcing.", ev.ID, ev.Name, occ.NotifyAt.Format(time.RFC3339))
		if err := s.dispatcher.Dispatch(ctx, ev.ID); err != nil {
			log.Printf("Error queueing announcement of event %d: %v", ev.ID, err)
			continue
		}
		dispatched++
	}
	s.lastRun = now
	return dispatched
}

// CleanupSessions prunes expired team split sessions.
func (s *Service) CleanupSessions(ctx context.Context) {
	n, err := s.sessions.Cleanup(ctx)
	if err != nil {
		log.Printf("Error cleaning up team split sessions: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Removed %d expired team split sessions.", n)
	}
}
