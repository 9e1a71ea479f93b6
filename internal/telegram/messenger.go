package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"teamup-bot/internal/notification"
)

// Messenger delivers HTML messages, keeping under the Bot API send rate.
type Messenger struct {
	api     botAPI
	limiter *rate.Limiter
}

// NewMessenger allows perSec messages per second with a burst of one second's
// worth.
func NewMessenger(api botAPI, perSec float64) *Messenger {
	burst := int(perSec)
	if burst < 1 {
		burst = 1
	}
	return &Messenger{api: api, limiter: rate.NewLimiter(rate.Limit(perSec), burst)}
}

func (m *Messenger) Send(ctx context.Context, chatID int64, text string, kb notification.Keyboard) (int, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if len(kb) > 0 {
		msg.ReplyMarkup = inlineMarkup(kb)
	}
	sent, err := m.api.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// Edit replaces the text and keyboard of a sent message. An edit that
// would not change anything succeeds.
func (m *Messenger) Edit(ctx context.Context, chatID int64, messageID int, text string, kb notification.Keyboard) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return err
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true
	if len(kb) > 0 {
		markup := inlineMarkup(kb)
		edit.ReplyMarkup = &markup
	}
	if _, err := m.api.Request(edit); err != nil && !isNotModified(err) {
		return err
	}
	return nil
}

// answer acknowledges a button press, optionally with a toast.
func (m *Messenger) answer(callbackID, text string) error {
	_, err := m.api.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}
