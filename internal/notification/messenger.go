package notification

import "context"

// Button is an inline control. Data is returned to the bot when pressed.
type Button struct {
	Text string
	Data string
}

// Keyboard is a layout of inline controls, one slice per row.
type Keyboard [][]Button

// Messenger delivers chat messages. Send returns the handle of the new
// message, which Edit later rewrites in place.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string, kb Keyboard) (int, error)
	Edit(ctx context.Context, chatID int64, messageID int, text string, kb Keyboard) error
}
