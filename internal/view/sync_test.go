package view

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamup-bot/internal/dbtest"
	"teamup-bot/internal/model"
	"teamup-bot/internal/notification"
	"teamup-bot/internal/store"
)

type edit struct {
	chatID    int64
	messageID int
	text      string
}

// fakeMessenger records deliveries. When gate is set, the first Edit signals
// entered and blocks until gate is closed.
type fakeMessenger struct {
	mu      sync.Mutex
	sent    []edit
	edits   []edit
	nextID  int
	editErr error
	sendErr error

	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeMessenger) Send(_ context.Context, chatID int64, text string, _ notification.Keyboard) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.nextID++
	f.sent = append(f.sent, edit{chatID: chatID, messageID: f.nextID, text: text})
	return f.nextID, nil
}

func (f *fakeMessenger) Edit(_ context.Context, chatID int64, messageID int, text string, _ notification.Keyboard) error {
	f.mu.Lock()
	f.edits = append(f.edits, edit{chatID: chatID, messageID: messageID, text: text})
	first := len(f.edits) == 1
	f.mu.Unlock()

	if first && f.gate != nil {
		close(f.entered)
		<-f.gate
	}
	return f.editErr
}

func (f *fakeMessenger) editCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.edits)
}

var now = time.Date(2024, 1, 5, 18, 0, 0, 0, time.UTC)

func newSync(t *testing.T, m *fakeMessenger) (*Synchronizer, store.Store, model.Event) {
	t.Helper()
	s := store.NewGormStore(dbtest.SQLite(t))
	ev := model.Event{ChatID: -1, Name: "Football", Weekdays: "friday", StartTime: "19:00", Language: "en"}
	require.NoError(t, s.SaveEvent(context.Background(), &ev))
	return NewSynchronizer(s, NewRenderer("en"), m, func() time.Time { return now }), s, ev
}

func addUser(t *testing.T, s store.Store, eventID int64, userID int64, name string) {
	t.Helper()
	_, err := s.UpsertParticipant(context.Background(), eventID, store.ParticipantInput{UserID: userID, FirstName: name, JoinedAt: now}, 0)
	require.NoError(t, err)
}

func TestSynchronizer_RefreshWithoutMessageIsNoop(t *testing.T) {
	m := &fakeMessenger{}
	syncer, _, ev := newSync(t, m)

	require.NoError(t, syncer.Refresh(context.Background(), ev.ID, ev.ChatID))
	assert.Zero(t, m.editCount())
}

func TestSynchronizer_AnnounceThenRefresh(t *testing.T) {
	ctx := context.Background()
	m := &fakeMessenger{}
	syncer, s, ev := newSync(t, m)

	require.NoError(t, syncer.Announce(ctx, ev.ID))
	require.Len(t, m.sent, 1)
	assert.Equal(t, ev.ChatID, m.sent[0].chatID)
	assert.Contains(t, m.sent[0].text, "Nobody has signed up yet")

	addUser(t, s, ev.ID, 1, "Ann")
	require.NoError(t, syncer.Refresh(ctx, ev.ID, ev.ChatID))

	require.Equal(t, 1, m.editCount())
	assert.Equal(t, m.sent[0].messageID, m.edits[0].messageID)
	assert.Contains(t, m.edits[0].text, "1. Ann")

	// A newer announcement becomes the edit target.
	require.NoError(t, syncer.Announce(ctx, ev.ID))
	require.NoError(t, syncer.Refresh(ctx, ev.ID, ev.ChatID))
	assert.Equal(t, m.sent[1].messageID, m.edits[1].messageID)
}

func TestSynchronizer_EditFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	m := &fakeMessenger{editErr: errors.New("message to edit not found")}
	syncer, _, ev := newSync(t, m)
	require.NoError(t, syncer.Announce(ctx, ev.ID))

	assert.NoError(t, syncer.Refresh(ctx, ev.ID, ev.ChatID))
	assert.Equal(t, 1, m.editCount())
}

func TestSynchronizer_AnnounceFailure(t *testing.T) {
	m := &fakeMessenger{sendErr: errors.New("chat not found")}
	syncer, s, ev := newSync(t, m)

	assert.Error(t, syncer.Announce(context.Background(), ev.ID))
	_, err := s.LatestMessageRef(context.Background(), ev.ID, ev.ChatID)
	assert.Error(t, err)
}

func TestSynchronizer_ConcurrentRefreshesCollapse(t *testing.T) {
	ctx := context.Background()
	m := &fakeMessenger{gate: make(chan struct{}), entered: make(chan struct{})}
	syncer, s, ev := newSync(t, m)
	require.NoError(t, syncer.Announce(ctx, ev.ID))

	done := make(chan error)
	go func() { done <- syncer.Refresh(ctx, ev.ID, ev.ChatID) }()
	<-m.entered

	// While the first edit is in flight, the roster changes several times.
	for i, name := range []string{"Ann", "Bob", "Cid"} {
		addUser(t, s, ev.ID, int64(i+1), name)
		require.NoError(t, syncer.Refresh(ctx, ev.ID, ev.ChatID))
	}
	close(m.gate)
	require.NoError(t, <-done)

	require.Equal(t, 2, m.editCount(), "queued refreshes collapse into one")
	last := m.edits[len(m.edits)-1].text
	assert.True(t, strings.Contains(last, "3. Cid"), "last edit shows the latest roster")

	// A refresh on another chat is independent.
	require.NoError(t, syncer.Refresh(ctx, ev.ID, -999))
	assert.Equal(t, 2, m.editCount())
}
