package telegram

import (
	"context"
	"log"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"teamup-bot/internal/roster"
	"teamup-bot/internal/view"
)

// Intents is the transport-independent bot behaviour.
type Intents interface {
	Join(ctx context.Context, chatID, eventID int64, u roster.User) string
	Leave(ctx context.Context, chatID, eventID int64, u roster.User) string
	List(ctx context.Context, chatID, eventID int64) string
	RequestTeams(ctx context.Context, chatID, eventID int64, u roster.User) string
	SubmitTeams(ctx context.Context, chatID int64, u roster.User, text string) (string, bool)
	Reset(ctx context.Context, chatID, eventID int64, u roster.User) string
	DeleteEvent(ctx context.Context, chatID, eventID int64, u roster.User) string
	Help(ctx context.Context, chatID int64) string
}

// Bot long-polls for updates and handles each one in its own goroutine.
type Bot struct {
	api       *tgbotapi.BotAPI
	intents   Intents
	messenger *Messenger
	timeout   int
	wg        sync.WaitGroup
}

func NewBot(api *tgbotapi.BotAPI, intents Intents, messenger *Messenger, pollTimeoutSeconds int) *Bot {
	return &Bot{api: api, intents: intents, messenger: messenger, timeout: pollTimeoutSeconds}
}

// Run receives updates until ctx is cancelled, then waits for in-flight
// handlers.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.timeout
	updates := b.api.GetUpdatesChan(u)
	log.Printf("Authorized on account %s", b.api.Self.UserName)

	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.HandleUpdate(ctx, update)
			}()
		}
	}
}

// HandleUpdate routes a single update.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic while handling update %d: %v", update.UpdateID, r)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil || msg.From.IsBot {
		return
	}
	chatID := msg.Chat.ID
	user := userOf(msg.From)

	var reply string
	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			reply = b.intents.Help(ctx, chatID)
		case "list":
			reply = b.intents.List(ctx, chatID, 0)
		case "teams":
			reply = b.intents.RequestTeams(ctx, chatID, 0, user)
		case "reset":
			reply = b.intents.Reset(ctx, chatID, 0, user)
		default:
			return
		}
	} else {
		text := strings.TrimSpace(msg.Text)
		group := msg.Chat.IsGroup() || msg.Chat.IsSuperGroup()
		switch {
		case group && text == "+":
			reply = b.intents.Join(ctx, chatID, 0, user)
		case group && text == "-":
			reply = b.intents.Leave(ctx, chatID, 0, user)
		default:
			var handled bool
			if reply, handled = b.intents.SubmitTeams(ctx, chatID, user, text); !handled {
				return
			}
		}
	}
	b.send(ctx, chatID, reply)
}

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if q.From == nil || q.Message == nil || q.Message.Chat == nil {
		b.answer(q.ID, "")
		return
	}
	action, eventID, ok := view.ParseCallback(q.Data)
	if !ok {
		b.answer(q.ID, "")
		return
	}
	chatID := q.Message.Chat.ID
	user := userOf(q.From)

	switch action {
	case view.ActionJoin:
		b.answer(q.ID, b.intents.Join(ctx, chatID, eventID, user))
	case view.ActionLeave:
		b.answer(q.ID, b.intents.Leave(ctx, chatID, eventID, user))
	case view.ActionReset:
		b.answer(q.ID, b.intents.Reset(ctx, chatID, eventID, user))
	case view.ActionDelete:
		b.answer(q.ID, b.intents.DeleteEvent(ctx, chatID, eventID, user))
	case view.ActionList:
		// Rosters outgrow a callback toast.
		b.answer(q.ID, "")
		b.send(ctx, chatID, b.intents.List(ctx, chatID, eventID))
	case view.ActionTeams:
		b.answer(q.ID, "")
		b.send(ctx, chatID, b.intents.RequestTeams(ctx, chatID, eventID, user))
	default:
		b.answer(q.ID, "")
	}
}

func (b *Bot) send(ctx context.Context, chatID int64, text string) {
	if text == "" {
		return
	}
	if _, err := b.messenger.Send(ctx, chatID, text, nil); err != nil {
		log.Printf("failed to send reply to chat %d: %v", chatID, err)
	}
}

func (b *Bot) answer(callbackID, text string) {
	if err := b.messenger.answer(callbackID, text); err != nil {
		log.Printf("failed to answer callback %s: %v", callbackID, err)
	}
}

func userOf(u *tgbotapi.User) roster.User {
	return roster.User{ID: u.ID, Username: u.UserName, FirstName: u.FirstName}
}
