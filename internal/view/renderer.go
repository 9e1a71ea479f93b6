// Package view renders events for the chat and keeps the live event message
// in sync with the roster.
package view

import (
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"teamup-bot/internal/model"
	"teamup-bot/internal/notification"
	"teamup-bot/internal/schedule"
	"teamup-bot/internal/store"
	"teamup-bot/internal/teams"
)

// Callback actions carried by the event keyboard as "<action>:<event id>".
const (
	ActionJoin   = "join"
	ActionLeave  = "leave"
	ActionList   = "list"
	ActionTeams  = "teams"
	ActionReset  = "reset"
	ActionDelete = "delete"
)

// CallbackData builds the payload of an event button.
func CallbackData(action string, eventID int64) string {
	return action + ":" + strconv.FormatInt(eventID, 10)
}

// ParseCallback splits a button payload into action and event id.
func ParseCallback(data string) (string, int64, bool) {
	action, rawID, ok := strings.Cut(data, ":")
	if !ok {
		return "", 0, false
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return "", 0, false
	}
	switch action {
	case ActionJoin, ActionLeave, ActionList, ActionTeams, ActionReset, ActionDelete:
		return action, id, true
	}
	return "", 0, false
}

const timeLayout = "02.01 15:04"

// Summary is everything the event message shows.
type Summary struct {
	Event        model.Event
	Participants []model.Participant
	Stats        store.Stats
	Window       schedule.WindowState
	Now          time.Time
}

// Renderer produces localized chat text. Unknown languages fall back to the
// default language.
type Renderer struct {
	supported []language.Tag
	matcher   language.Matcher
	catalog   *catalog.Builder
}

// NewRenderer creates a renderer whose fallback is defaultLang ("ru" or "en").
func NewRenderer(defaultLang string) *Renderer {
	supported := []language.Tag{language.Russian, language.English}
	if base, _ := language.Make(defaultLang).Base(); base.String() == "en" {
		supported = []language.Tag{language.English, language.Russian}
	}

	cat := catalog.NewBuilder(catalog.Fallback(supported[0]))
	for tag, msgs := range translations {
		for key, text := range msgs {
			if err := cat.SetString(tag, key, text); err != nil {
				log.Printf("invalid translation %s/%s: %v", tag, key, err)
			}
		}
	}

	return &Renderer{
		supported: supported,
		matcher:   language.NewMatcher(supported),
		catalog:   cat,
	}
}

func (r *Renderer) printer(lang string) *message.Printer {
	_, idx, conf := r.matcher.Match(language.Make(lang))
	if conf == language.No {
		idx = 0
	}
	return message.NewPrinter(r.supported[idx], message.Catalog(r.catalog))
}

// Text renders a reply message in the given language.
func (r *Renderer) Text(lang, key string, args ...any) string {
	return r.printer(lang).Sprintf(key, args...)
}

// Event renders the live event message and its controls.
func (r *Renderer) Event(s Summary) (string, notification.Keyboard) {
	ev := s.Event
	p := r.printer(ev.Language)

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(ev.Name))

	if rec, err := schedule.RecurrenceOf(ev); err == nil {
		zone := rec.Zone()
		days := make([]string, len(rec.Weekdays))
		for i, d := range rec.Weekdays {
			days[i] = p.Sprintf(weekdayKeys[d])
		}
		b.WriteString(p.Sprintf(keyWhen, strings.Join(days, ", "), rec.Clock.String(), zone.String()))
		b.WriteByte('\n')
		if next, ok := rec.NextAfter(s.Now); ok {
			b.WriteString(p.Sprintf(keyNext, next.In(zone).Format(timeLayout)))
			b.WriteByte('\n')
		}
		b.WriteString(r.windowLine(p, s.Window, zone))
		b.WriteByte('\n')
	}

	if ev.Location != "" {
		b.WriteString(p.Sprintf(keyWhere, html.EscapeString(ev.Location)))
		b.WriteByte('\n')
	}
	if ev.Comment != "" {
		b.WriteString("<i>" + html.EscapeString(ev.Comment) + "</i>\n")
	}

	b.WriteByte('\n')
	if ev.HasCapacity() {
		b.WriteString(p.Sprintf(keySlotsCapacity, s.Stats.MainSlots, *ev.Capacity))
	} else {
		b.WriteString(p.Sprintf(keySlots, s.Stats.TotalRegistrations))
	}
	b.WriteByte('\n')
	if s.Stats.ReserveCount > 0 {
		b.WriteString(p.Sprintf(keyReserveCount, s.Stats.ReserveCount))
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	b.WriteString(r.rosterBody(p, s.Participants))

	return strings.TrimRight(b.String(), "\n"), r.keyboard(p, ev.ID, s.Window.Open)
}

func (r *Renderer) windowLine(p *message.Printer, w schedule.WindowState, zone *time.Location) string {
	switch {
	case w.AlwaysOpen:
		return p.Sprintf(keyOpenAlways)
	case w.Open:
		return p.Sprintf(keyOpenUntil, w.ClosesAt.In(zone).Format(timeLayout))
	case !w.OpensAt.IsZero():
		return p.Sprintf(keyOpensAt, w.OpensAt.In(zone).Format(timeLayout))
	default:
		return p.Sprintf(keyClosed)
	}
}

// Roster renders the participant list with the event name as a header.
func (r *Renderer) Roster(ev model.Event, participants []model.Participant) string {
	p := r.printer(ev.Language)
	return fmt.Sprintf("<b>%s</b>\n", html.EscapeString(ev.Name)) + r.rosterBody(p, participants)
}

func (r *Renderer) rosterBody(p *message.Printer, participants []model.Participant) string {
	if len(participants) == 0 {
		return p.Sprintf(keyRosterEmpty)
	}

	var main, reserve []model.Participant
	for _, pt := range participants {
		if pt.IsReserve {
			reserve = append(reserve, pt)
		} else {
			main = append(main, pt)
		}
	}

	var b strings.Builder
	if len(main) > 0 {
		b.WriteString(p.Sprintf(keyRosterHeader))
		b.WriteByte('\n')
		for i, pt := range main {
			fmt.Fprintf(&b, "%d. %s%s\n", i+1, html.EscapeString(pt.DisplayName()), guests(pt.PlusCount-1))
		}
	}
	if len(reserve) > 0 {
		b.WriteString(p.Sprintf(keyReserveHeader))
		b.WriteByte('\n')
		for i, pt := range reserve {
			fmt.Fprintf(&b, "%d. %s%s\n", i+1, html.EscapeString(pt.DisplayName()), guests(pt.PlusCount-1))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Teams renders a completed team split.
func (r *Renderer) Teams(ev model.Event, res teams.Result) string {
	p := r.printer(ev.Language)

	var b strings.Builder
	b.WriteString(p.Sprintf(keyTeamsHeader, html.EscapeString(ev.Name), res.Headcount))
	for _, team := range res.Teams {
		b.WriteString("\n\n<b>" + p.Sprintf(keyTeam, team.Number) + "</b>")
		for _, m := range team.Members {
			fmt.Fprintf(&b, "\n• %s%s", html.EscapeString(m.Participant.DisplayName()), guests(m.Guests()))
		}
	}
	return b.String()
}

func guests(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf(" (+%d)", n)
}

func (r *Renderer) keyboard(p *message.Printer, eventID int64, open bool) notification.Keyboard {
	var first []notification.Button
	if open {
		first = append(first, notification.Button{Text: p.Sprintf(keyBtnJoin), Data: CallbackData(ActionJoin, eventID)})
	}
	first = append(first, notification.Button{Text: p.Sprintf(keyBtnLeave), Data: CallbackData(ActionLeave, eventID)})

	kb := notification.Keyboard{first}
	kb = append(kb,
		[]notification.Button{
			{Text: p.Sprintf(keyBtnList), Data: CallbackData(ActionList, eventID)},
			{Text: p.Sprintf(keyBtnTeams), Data: CallbackData(ActionTeams, eventID)},
		},
		[]notification.Button{
			{Text: p.Sprintf(keyBtnReset), Data: CallbackData(ActionReset, eventID)},
			{Text: p.Sprintf(keyBtnDelete), Data: CallbackData(ActionDelete, eventID)},
		},
	)
	return kb
}
