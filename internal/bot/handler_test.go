package bot

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamup-bot/internal/dbtest"
	"teamup-bot/internal/model"
	"teamup-bot/internal/roster"
	"teamup-bot/internal/store"
	"teamup-bot/internal/teams"
	"teamup-bot/internal/view"
)

const (
	chatID  = int64(-42)
	adminID = int64(1)
)

type fakeAdmins map[int64]bool

func (f fakeAdmins) IsAdmin(_ context.Context, _ int64, userID int64) bool {
	return f[userID]
}

type fakeRefresher struct {
	mu    sync.Mutex
	calls []int64
	err   error
}

func (f *fakeRefresher) Refresh(_ context.Context, eventID, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, eventID)
	return f.err
}

type fixture struct {
	store   store.Store
	handler *Handler
	sync    *fakeRefresher
	now     time.Time
	event   model.Event
}

// newFixture creates an English event with an always open registration.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: store.NewGormStore(dbtest.SQLite(t)),
		sync:  &fakeRefresher{},
		now:   time.Date(2024, 1, 5, 18, 0, 0, 0, time.UTC),
	}
	now := func() time.Time { return f.now }
	admins := fakeAdmins{adminID: true}
	f.handler = NewHandler(
		f.store,
		roster.NewManager(f.store, now),
		teams.NewService(f.store, admins, time.Hour, now, rand.New(rand.NewSource(1))),
		f.sync,
		view.NewRenderer("ru"),
		admins,
	)

	f.event = model.Event{ChatID: chatID, Name: "Football", Weekdays: "friday", StartTime: "19:00", Language: "en"}
	require.NoError(t, f.store.SaveEvent(context.Background(), &f.event))
	return f
}

func TestHandler_JoinAndLeave(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ann := roster.User{ID: 10, Username: "ann"}

	assert.Equal(t, "@ann, you are in", f.handler.Join(ctx, chatID, 0, ann))
	assert.Equal(t, "@ann, you are in with 2", f.handler.Join(ctx, chatID, f.event.ID, ann))
	assert.Equal(t, "@ann, you are out", f.handler.Leave(ctx, chatID, 0, ann))
	assert.Equal(t, "@ann, you were not registered", f.handler.Leave(ctx, chatID, 0, ann))

	// The idle leave does not refresh the message.
	assert.Equal(t, []int64{f.event.ID, f.event.ID, f.event.ID}, f.sync.calls)
}

func TestHandler_JoinReserve(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	capacity := 1
	f.event.Capacity = &capacity
	require.NoError(t, f.store.SaveEvent(ctx, &f.event))

	assert.Equal(t, "Ann, you are in", f.handler.Join(ctx, chatID, 0, roster.User{ID: 10, FirstName: "Ann"}))
	assert.Equal(t, "Bob, you are on the reserve list", f.handler.Join(ctx, chatID, 0, roster.User{ID: 11, FirstName: "Bob"}))
}

func TestHandler_EscapesDisplayName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tom := roster.User{ID: 12, FirstName: "Tom <& Jerry>"}

	assert.Equal(t, "Tom &lt;&amp; Jerry&gt;, you are in", f.handler.Join(ctx, chatID, 0, tom))
	assert.Equal(t, "Tom &lt;&amp; Jerry&gt;, you are out", f.handler.Leave(ctx, chatID, 0, tom))
	assert.Equal(t, "Tom &lt;&amp; Jerry&gt;, you were not registered", f.handler.Leave(ctx, chatID, 0, tom))
}

func TestHandler_RefreshFailureDoesNotFailJoin(t *testing.T) {
	f := newFixture(t)
	f.sync.err = errors.New("telegram is down")

	assert.Equal(t, "Ann, you are in", f.handler.Join(context.Background(), chatID, 0, roster.User{ID: 10, FirstName: "Ann"}))
}

func TestHandler_JoinClosedWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.event.PollStartValue = 60
	f.event.PollStartUnit = "minutes"
	f.event.PollEndValue = 0
	f.event.PollEndUnit = "minutes"
	require.NoError(t, f.store.SaveEvent(ctx, &f.event))

	f.now = time.Date(2024, 1, 5, 17, 0, 0, 0, time.UTC)
	assert.Equal(t, "Registration is closed right now", f.handler.Join(ctx, chatID, 0, roster.User{ID: 10}))
	assert.Empty(t, f.sync.calls)
}

func TestHandler_UnknownEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// Without an event the default language answers.
	assert.Equal(t, "В этом чате нет события", f.handler.Join(ctx, -1, 0, roster.User{ID: 10}))
	// A button of this chat's event pressed in another chat.
	assert.Equal(t, "В этом чате нет события", f.handler.Leave(ctx, -1, f.event.ID, roster.User{ID: 10}))
	assert.Equal(t, "В этом чате нет события", f.handler.List(ctx, chatID, f.event.ID+100))
}

func TestHandler_List(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.handler.Join(ctx, chatID, 0, roster.User{ID: 10, FirstName: "Ann"})
	f.handler.Join(ctx, chatID, 0, roster.User{ID: 10, FirstName: "Ann"})
	f.handler.Join(ctx, chatID, 0, roster.User{ID: 11, FirstName: "<Bob>"})

	text := f.handler.List(ctx, chatID, 0)
	assert.Equal(t, "<b>Football</b>\nParticipants:\n1. Ann (+1)\n2. &lt;Bob&gt;", text)
}

func TestHandler_TeamSplit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := roster.User{ID: adminID, FirstName: "Admin"}

	assert.Equal(t, "At least 2 participants are needed to split teams", f.handler.RequestTeams(ctx, chatID, 0, admin))

	for _, id := range []int64{10, 10, 11, 12} {
		f.handler.Join(ctx, chatID, 0, roster.User{ID: id, FirstName: "P"})
	}

	assert.Equal(t, "Only chat administrators can do this", f.handler.RequestTeams(ctx, chatID, 0, roster.User{ID: 10}))
	assert.Equal(t, "How many teams? Send a number from 2 to 4", f.handler.RequestTeams(ctx, chatID, f.event.ID, admin))

	// Chatter from other users is not for the bot.
	reply, handled := f.handler.SubmitTeams(ctx, chatID, roster.User{ID: 10}, "3")
	assert.False(t, handled)
	assert.Empty(t, reply)

	reply, handled = f.handler.SubmitTeams(ctx, chatID, admin, "1")
	assert.True(t, handled)
	assert.Equal(t, "At least 2 teams", reply)

	reply, handled = f.handler.SubmitTeams(ctx, chatID, admin, "5")
	assert.True(t, handled)
	assert.Equal(t, "At most 4 teams: that is the number of players", reply)

	reply, handled = f.handler.SubmitTeams(ctx, chatID, admin, "2")
	assert.True(t, handled)
	assert.True(t, strings.HasPrefix(reply, "Teams for \"Football\" (4 players):"), reply)
	assert.Contains(t, reply, "Team 1")
	assert.Contains(t, reply, "Team 2")

	// The session is spent.
	_, handled = f.handler.SubmitTeams(ctx, chatID, admin, "2")
	assert.False(t, handled)
}

func TestHandler_ResetAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.handler.Join(ctx, chatID, 0, roster.User{ID: 10, FirstName: "Ann"})
	f.sync.calls = nil

	assert.Equal(t, "Only chat administrators can do this", f.handler.Reset(ctx, chatID, 0, roster.User{ID: 10}))
	assert.Empty(t, f.sync.calls)

	assert.Equal(t, "The list has been cleared", f.handler.Reset(ctx, chatID, f.event.ID, roster.User{ID: adminID}))
	assert.Equal(t, []int64{f.event.ID}, f.sync.calls)
	participants, err := f.store.ListParticipants(ctx, f.event.ID)
	require.NoError(t, err)
	assert.Empty(t, participants)

	assert.Equal(t, "Only chat administrators can do this", f.handler.DeleteEvent(ctx, chatID, 0, roster.User{ID: 10}))
	assert.Equal(t, "The event has been deleted", f.handler.DeleteEvent(ctx, chatID, 0, roster.User{ID: adminID}))
	assert.Equal(t, "В этом чате нет события", f.handler.List(ctx, chatID, 0))
}

func TestHandler_Help(t *testing.T) {
	f := newFixture(t)

	assert.True(t, strings.HasPrefix(f.handler.Help(context.Background(), chatID), "Send + to sign up"))
	assert.True(t, strings.HasPrefix(f.handler.Help(context.Background(), -1), "Напишите +"))
}
