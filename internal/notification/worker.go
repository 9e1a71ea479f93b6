package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/SherClockHolmes/webpush-go"

	"teamup-bot/internal/model"
	"teamup-bot/internal/store"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// ErrStopped is returned by Dispatch once the pool has shut down.
var ErrStopped = errors.New("worker pool stopped")

// Announcer posts a fresh event message to the event's chat.
type Announcer interface {
	Announce(ctx context.Context, eventID int64) error
}

// WorkerPool announces events whose registration opened: it posts the event
// message to the chat and sends one push to every browser following the event.
type WorkerPool struct {
	size      int
	jobs      chan int64
	store     store.Store
	announcer Announcer
	webpush   *webpush.Options
	sender    NotificationSender

	stopOnce sync.Once
	stopped  chan struct{}
}

// NewWorkerPool creates a new worker pool. A nil webpushOptions disables
// browser pushes.
func NewWorkerPool(size int, s store.Store, announcer Announcer, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:      size,
		jobs:      make(chan int64, size), // Buffered channel
		store:     s,
		announcer: announcer,
		webpush:   webpushOptions,
		sender:    &WebPushSender{}, // Use the real sender by default
		stopped:   make(chan struct{}),
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
	go func() {
		<-ctx.Done()
		wp.stopOnce.Do(func() { close(wp.stopped) })
	}()
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case eventID := <-wp.jobs:
			log.Printf("Worker %d announcing event %d", id, eventID)
			wp.announce(ctx, eventID)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues an announcement. It waits for a free buffer slot until
// ctx is done or the pool stops, and refuses jobs once the pool stopped.
func (wp *WorkerPool) Dispatch(ctx context.Context, eventID int64) error {
	select {
	case <-wp.stopped:
		return fmt.Errorf("dispatch event %d: %w", eventID, ErrStopped)
	default:
	}
	select {
	case wp.jobs <- eventID:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatch event %d: %w", eventID, ctx.Err())
	case <-wp.stopped:
		return fmt.Errorf("dispatch event %d: %w", eventID, ErrStopped)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan int64 {
	return wp.jobs
}

func (wp *WorkerPool) announce(ctx context.Context, eventID int64) {
	if err := wp.announcer.Announce(ctx, eventID); err != nil {
		log.Printf("Error announcing event %d: %v", eventID, err)
	}
	wp.sendNotificationsForEvent(ctx, eventID)
}

// sendNotificationsForEvent pushes a single best-effort notification to each
// subscriber of the event.
func (wp *WorkerPool) sendNotificationsForEvent(ctx context.Context, eventID int64) {
	if wp.webpush == nil || wp.webpush.VAPIDPrivateKey == "" {
		return
	}

	subscriptions, err := wp.store.SubscriptionsForEvent(ctx, eventID)
	if err != nil {
		log.Printf("Error fetching subscriptions for event %d: %v", eventID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	label := fmt.Sprintf("#%d", eventID)
	if ev, err := wp.store.GetEvent(ctx, eventID); err != nil {
		log.Printf("Error fetching event %d: %v", eventID, err)
	} else if ev.Name != "" {
		label = ev.Name
	}

	log.Printf("Sending %d notifications for event %d", len(subscriptions), eventID)
	message := fmt.Sprintf("%s: registration is open", label)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
