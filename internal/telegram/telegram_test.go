package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamup-bot/internal/notification"
	"teamup-bot/internal/roster"
	"teamup-bot/internal/view"
)

type fakeAPI struct {
	mu         sync.Mutex
	sent       []tgbotapi.MessageConfig
	edits      []tgbotapi.EditMessageTextConfig
	callbacks  []tgbotapi.CallbackConfig
	requestErr error
	status     string
	memberErr  error
	lookups    int
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable")
	}
	f.sent = append(f.sent, msg)
	return tgbotapi.Message{MessageID: 100 + len(f.sent)}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := c.(type) {
	case tgbotapi.EditMessageTextConfig:
		f.edits = append(f.edits, v)
	case tgbotapi.CallbackConfig:
		f.callbacks = append(f.callbacks, v)
	}
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetChatMember(tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.memberErr != nil {
		return tgbotapi.ChatMember{}, f.memberErr
	}
	return tgbotapi.ChatMember{Status: f.status}, nil
}

func TestMessenger_Send(t *testing.T) {
	api := &fakeAPI{}
	m := NewMessenger(api, 100)

	kb := notification.Keyboard{{{Text: "In", Data: "join:1"}, {Text: "Out", Data: "leave:1"}}}
	id, err := m.Send(context.Background(), -5, "<b>Football</b>", kb)
	require.NoError(t, err)
	assert.Equal(t, 101, id)

	require.Len(t, api.sent, 1)
	msg := api.sent[0]
	assert.Equal(t, int64(-5), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 1)
	require.Len(t, markup.InlineKeyboard[0], 2)
	assert.Equal(t, "leave:1", *markup.InlineKeyboard[0][1].CallbackData)
}

func TestMessenger_Edit(t *testing.T) {
	api := &fakeAPI{}
	m := NewMessenger(api, 100)

	require.NoError(t, m.Edit(context.Background(), -5, 7, "text", nil))
	require.Len(t, api.edits, 1)
	assert.Equal(t, 7, api.edits[0].MessageID)
	assert.Nil(t, api.edits[0].ReplyMarkup)

	api.requestErr = errors.New("Bad Request: message is not modified: specified new message content and reply markup are exactly the same")
	assert.NoError(t, m.Edit(context.Background(), -5, 7, "text", nil))

	api.requestErr = errors.New("Bad Request: message to edit not found")
	assert.Error(t, m.Edit(context.Background(), -5, 7, "text", nil))
}

func TestMessenger_SendHonoursContext(t *testing.T) {
	m := NewMessenger(&fakeAPI{}, 1)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := m.Send(ctx, 1, "first", nil)
	require.NoError(t, err)
	cancel()
	_, err = m.Send(ctx, 1, "second", nil)
	assert.Error(t, err)
}

func TestAdminChecker(t *testing.T) {
	api := &fakeAPI{status: "administrator"}
	checker := NewAdminChecker(api, time.Minute)

	assert.True(t, checker.IsAdmin(context.Background(), -5, 1))
	assert.True(t, checker.IsAdmin(context.Background(), -5, 1))
	assert.Equal(t, 1, api.lookups)

	api.status = "member"
	assert.False(t, checker.IsAdmin(context.Background(), -5, 2))

	api.status = "creator"
	assert.True(t, checker.IsAdmin(context.Background(), -5, 3))
}

func TestAdminChecker_FailsClosed(t *testing.T) {
	api := &fakeAPI{status: "administrator", memberErr: errors.New("timeout")}
	checker := NewAdminChecker(api, time.Minute)

	assert.False(t, checker.IsAdmin(context.Background(), -5, 1))

	// Failures are not cached.
	api.memberErr = nil
	assert.True(t, checker.IsAdmin(context.Background(), -5, 1))
	assert.Equal(t, 2, api.lookups)
}

type call struct {
	intent  string
	chatID  int64
	eventID int64
	userID  int64
	text    string
}

type fakeIntents struct {
	calls   []call
	pending bool
}

func (f *fakeIntents) record(c call) string {
	f.calls = append(f.calls, c)
	return c.intent + " reply"
}

func (f *fakeIntents) Join(_ context.Context, chatID, eventID int64, u roster.User) string {
	return f.record(call{intent: "join", chatID: chatID, eventID: eventID, userID: u.ID})
}

func (f *fakeIntents) Leave(_ context.Context, chatID, eventID int64, u roster.User) string {
	return f.record(call{intent: "leave", chatID: chatID, eventID: eventID, userID: u.ID})
}

func (f *fakeIntents) List(_ context.Context, chatID, eventID int64) string {
	return f.record(call{intent: "list", chatID: chatID, eventID: eventID})
}

func (f *fakeIntents) RequestTeams(_ context.Context, chatID, eventID int64, u roster.User) string {
	return f.record(call{intent: "teams", chatID: chatID, eventID: eventID, userID: u.ID})
}

func (f *fakeIntents) SubmitTeams(_ context.Context, chatID int64, u roster.User, text string) (string, bool) {
	if !f.pending {
		return "", false
	}
	return f.record(call{intent: "submit", chatID: chatID, userID: u.ID, text: text}), true
}

func (f *fakeIntents) Reset(_ context.Context, chatID, eventID int64, u roster.User) string {
	return f.record(call{intent: "reset", chatID: chatID, eventID: eventID, userID: u.ID})
}

func (f *fakeIntents) DeleteEvent(_ context.Context, chatID, eventID int64, u roster.User) string {
	return f.record(call{intent: "delete", chatID: chatID, eventID: eventID, userID: u.ID})
}

func (f *fakeIntents) Help(_ context.Context, chatID int64) string {
	return f.record(call{intent: "help", chatID: chatID})
}

func newTestBot() (*Bot, *fakeAPI, *fakeIntents) {
	api := &fakeAPI{}
	intents := &fakeIntents{}
	return &Bot{intents: intents, messenger: NewMessenger(api, 1000)}, api, intents
}

func textUpdate(chatType, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: 7, FirstName: "Ann"},
		Chat: &tgbotapi.Chat{ID: -5, Type: chatType},
		Text: text,
	}
	if len(text) > 0 && text[0] == '/' {
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}}
	}
	return tgbotapi.Update{Message: msg}
}

func TestBot_TextRouting(t *testing.T) {
	cases := []struct {
		chatType string
		text     string
		intent   string
	}{
		{"group", "+", "join"},
		{"supergroup", " - ", "leave"},
		{"group", "/list", "list"},
		{"group", "/list@teamup_bot", "list"},
		{"group", "/teams", "teams"},
		{"group", "/reset", "reset"},
		{"private", "/start", "help"},
		{"group", "/help", "help"},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			bot, api, intents := newTestBot()
			bot.HandleUpdate(context.Background(), textUpdate(tc.chatType, tc.text))

			require.Len(t, intents.calls, 1)
			assert.Equal(t, tc.intent, intents.calls[0].intent)
			assert.Equal(t, int64(0), intents.calls[0].eventID)
			require.Len(t, api.sent, 1)
			assert.Equal(t, tc.intent+" reply", api.sent[0].Text)
		})
	}
}

func TestBot_IgnoresChatter(t *testing.T) {
	bot, api, intents := newTestBot()

	bot.HandleUpdate(context.Background(), textUpdate("group", "hello"))
	bot.HandleUpdate(context.Background(), textUpdate("private", "+"))
	bot.HandleUpdate(context.Background(), textUpdate("group", "/unknown"))

	assert.Empty(t, intents.calls)
	assert.Empty(t, api.sent)
}

func TestBot_SubmitTeams(t *testing.T) {
	bot, api, intents := newTestBot()
	intents.pending = true

	bot.HandleUpdate(context.Background(), textUpdate("group", "3"))

	require.Len(t, intents.calls, 1)
	assert.Equal(t, call{intent: "submit", chatID: -5, userID: 7, text: "3"}, intents.calls[0])
	require.Len(t, api.sent, 1)
}

func callbackUpdate(data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: 7},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: -5, Type: "group"}},
		Data:    data,
	}}
}

func TestBot_CallbackRouting(t *testing.T) {
	cases := []struct {
		action string
		toast  bool
	}{
		{view.ActionJoin, true},
		{view.ActionLeave, true},
		{view.ActionReset, true},
		{view.ActionDelete, true},
		{view.ActionList, false},
		{view.ActionTeams, false},
	}
	for _, tc := range cases {
		t.Run(tc.action, func(t *testing.T) {
			bot, api, intents := newTestBot()
			bot.HandleUpdate(context.Background(), callbackUpdate(view.CallbackData(tc.action, 9)))

			require.Len(t, intents.calls, 1)
			assert.Equal(t, int64(9), intents.calls[0].eventID)
			assert.Equal(t, int64(-5), intents.calls[0].chatID)
			require.Len(t, api.callbacks, 1)
			assert.Equal(t, "cb", api.callbacks[0].CallbackQueryID)
			if tc.toast {
				assert.NotEmpty(t, api.callbacks[0].Text)
				assert.Empty(t, api.sent)
			} else {
				assert.Empty(t, api.callbacks[0].Text)
				require.Len(t, api.sent, 1)
			}
		})
	}
}

func TestBot_MalformedCallback(t *testing.T) {
	bot, api, intents := newTestBot()
	bot.HandleUpdate(context.Background(), callbackUpdate("bogus"))

	assert.Empty(t, intents.calls)
	require.Len(t, api.callbacks, 1)
	assert.Empty(t, api.callbacks[0].Text)
}
