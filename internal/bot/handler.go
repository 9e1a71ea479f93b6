// Package bot maps chat intents onto the roster, team split and view
// services and turns their outcomes into user-facing replies.
package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"

	"teamup-bot/internal/apperr"
	"teamup-bot/internal/model"
	"teamup-bot/internal/roster"
	"teamup-bot/internal/store"
	"teamup-bot/internal/teams"
	"teamup-bot/internal/view"
)

// Refresher updates the live event message after a roster change.
type Refresher interface {
	Refresh(ctx context.Context, eventID, chatID int64) error
}

// Handler serves chat intents. Every method returns the reply to show; an
// empty reply means there is nothing to say.
type Handler struct {
	store    store.Store
	roster   *roster.Manager
	teams    *teams.Service
	sync     Refresher
	renderer *view.Renderer
	admins   teams.AdminChecker
}

// NewHandler wires the intent handlers.
func NewHandler(s store.Store, r *roster.Manager, t *teams.Service, sync Refresher, renderer *view.Renderer, admins teams.AdminChecker) *Handler {
	return &Handler{
		store:    s,
		roster:   r,
		teams:    t,
		sync:     sync,
		renderer: renderer,
		admins:   admins,
	}
}

// resolveEvent finds the event an intent refers to: by id for button presses,
// by chat for text commands. Buttons of another chat's event are ignored.
func (h *Handler) resolveEvent(ctx context.Context, chatID, eventID int64) (model.Event, error) {
	if eventID == 0 {
		return h.store.GetEventByChat(ctx, chatID)
	}
	ev, err := h.store.GetEvent(ctx, eventID)
	if err != nil {
		return model.Event{}, err
	}
	if ev.ChatID != chatID {
		return model.Event{}, apperr.NotFoundf("event %d in chat %d", eventID, chatID)
	}
	return ev, nil
}

// Join registers the user, or one more guest of theirs.
func (h *Handler) Join(ctx context.Context, chatID, eventID int64, u roster.User) string {
	ev, err := h.resolveEvent(ctx, chatID, eventID)
	if err != nil {
		return h.errorText("", err, fmt.Sprintf("join chat %d", chatID))
	}
	res, err := h.roster.Join(ctx, ev.ID, u)
	if err != nil {
		return h.errorText(ev.Language, err, fmt.Sprintf("join event %d by user %d", ev.ID, u.ID))
	}
	h.refresh(ctx, ev.ID, chatID)

	name := displayName(u)
	switch {
	case res.Reserve:
		return h.renderer.Text(ev.Language, view.MsgJoinedReserve, name)
	case res.PlusCount > 1:
		return h.renderer.Text(ev.Language, view.MsgJoinedMore, name, res.PlusCount)
	default:
		return h.renderer.Text(ev.Language, view.MsgJoined, name)
	}
}

// Leave drops the user and all their guests.
func (h *Handler) Leave(ctx context.Context, chatID, eventID int64, u roster.User) string {
	ev, err := h.resolveEvent(ctx, chatID, eventID)
	if err != nil {
		return h.errorText("", err, fmt.Sprintf("leave chat %d", chatID))
	}
	existed, err := h.roster.Leave(ctx, ev.ID, u.ID)
	if err != nil {
		return h.errorText(ev.Language, err, fmt.Sprintf("leave event %d by user %d", ev.ID, u.ID))
	}
	if !existed {
		return h.renderer.Text(ev.Language, view.MsgNotRegistered, displayName(u))
	}
	h.refresh(ctx, ev.ID, chatID)
	return h.renderer.Text(ev.Language, view.MsgLeft, displayName(u))
}

// List renders the roster.
func (h *Handler) List(ctx context.Context, chatID, eventID int64) string {
	ev, err := h.resolveEvent(ctx, chatID, eventID)
	if err != nil {
		return h.errorText("", err, fmt.Sprintf("list chat %d", chatID))
	}
	participants, err := h.roster.Participants(ctx, ev.ID)
	if err != nil {
		return h.errorText(ev.Language, err, fmt.Sprintf("list event %d", ev.ID))
	}
	return h.renderer.Roster(ev, participants)
}

// RequestTeams starts a team split and asks the administrator for a count.
func (h *Handler) RequestTeams(ctx context.Context, chatID, eventID int64, u roster.User) string {
	ev, err := h.resolveEvent(ctx, chatID, eventID)
	if err != nil {
		return h.errorText("", err, fmt.Sprintf("teams in chat %d", chatID))
	}
	if _, err := h.teams.Open(ctx, ev.ID, chatID, u.ID); err != nil {
		return h.errorText(ev.Language, err, fmt.Sprintf("open team split of event %d", ev.ID))
	}
	participants, err := h.roster.Participants(ctx, ev.ID)
	if err != nil {
		return h.errorText(ev.Language, err, fmt.Sprintf("count participants of event %d", ev.ID))
	}
	return h.renderer.Text(ev.Language, view.MsgAskTeams, teams.ExpandedCount(participants))
}

// SubmitTeams treats text as the answer to a pending team split. It reports
// false when the text was not meant for the bot.
func (h *Handler) SubmitTeams(ctx context.Context, chatID int64, u roster.User, text string) (string, bool) {
	res, err := h.teams.Submit(ctx, chatID, u.ID, text)
	if errors.Is(err, teams.ErrNoSession) {
		return "", false
	}

	lang := ""
	if ev, evErr := h.store.GetEventByChat(ctx, chatID); evErr == nil {
		lang = ev.Language
	}
	var countErr *teams.CountError
	if errors.As(err, &countErr) {
		if countErr.TooFew {
			return h.renderer.Text(lang, view.MsgTeamsBelowMin, countErr.Limit), true
		}
		return h.renderer.Text(lang, view.MsgTeamsAboveLimit, countErr.Limit), true
	}
	if err != nil {
		return h.errorText(lang, err, fmt.Sprintf("submit team count in chat %d", chatID)), true
	}

	ev, err := h.store.GetEvent(ctx, res.EventID)
	if err != nil {
		return h.errorText(lang, err, fmt.Sprintf("render teams of event %d", res.EventID)), true
	}
	return h.renderer.Teams(ev, res), true
}

// Reset clears the roster. Administrators only.
func (h *Handler) Reset(ctx context.Context, chatID, eventID int64, u roster.User) string {
	ev, err := h.resolveEvent(ctx, chatID, eventID)
	if err != nil {
		return h.errorText("", err, fmt.Sprintf("reset chat %d", chatID))
	}
	if !h.admins.IsAdmin(ctx, chatID, u.ID) {
		return h.errorText(ev.Language, apperr.ErrPermissionDenied, "")
	}
	if err := h.roster.Reset(ctx, ev.ID); err != nil {
		return h.errorText(ev.Language, err, fmt.Sprintf("reset event %d", ev.ID))
	}
	h.refresh(ctx, ev.ID, chatID)
	return h.renderer.Text(ev.Language, view.MsgReset)
}

// DeleteEvent removes the event with its roster. Administrators only.
func (h *Handler) DeleteEvent(ctx context.Context, chatID, eventID int64, u roster.User) string {
	ev, err := h.resolveEvent(ctx, chatID, eventID)
	if err != nil {
		return h.errorText("", err, fmt.Sprintf("delete in chat %d", chatID))
	}
	if !h.admins.IsAdmin(ctx, chatID, u.ID) {
		return h.errorText(ev.Language, apperr.ErrPermissionDenied, "")
	}
	if err := h.store.DeleteEvent(ctx, ev.ID); err != nil {
		return h.errorText(ev.Language, err, fmt.Sprintf("delete event %d", ev.ID))
	}
	return h.renderer.Text(ev.Language, view.MsgDeleted)
}

// Help explains the chat commands in the chat's event language.
func (h *Handler) Help(ctx context.Context, chatID int64) string {
	lang := ""
	if ev, err := h.store.GetEventByChat(ctx, chatID); err == nil {
		lang = ev.Language
	}
	return h.renderer.Text(lang, view.MsgHelp)
}

func (h *Handler) refresh(ctx context.Context, eventID, chatID int64) {
	if err := h.sync.Refresh(ctx, eventID, chatID); err != nil {
		log.Printf("failed to refresh event %d in chat %d: %v", eventID, chatID, err)
	}
}

// errorText maps an outcome onto a reply. Expected outcomes are not logged.
func (h *Handler) errorText(lang string, err error, op string) string {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return h.renderer.Text(lang, view.MsgNoEvent)
	case errors.Is(err, apperr.ErrWindowClosed):
		return h.renderer.Text(lang, view.MsgWindowClosed)
	case errors.Is(err, apperr.ErrPermissionDenied):
		return h.renderer.Text(lang, view.MsgNotAdmin)
	case errors.Is(err, teams.ErrTooFewParticipants):
		return h.renderer.Text(lang, view.MsgTooFew)
	case errors.Is(err, apperr.ErrValidation):
		return h.renderer.Text(lang, view.MsgInvalid)
	default:
		log.Printf("%s: %v", op, err)
		return h.renderer.Text(lang, view.MsgFailure)
	}
}

// displayName is escaped for the HTML reply mode.
func displayName(u roster.User) string {
	return html.EscapeString(model.Participant{Username: u.Username, FirstName: u.FirstName}.DisplayName())
}
