// Package schedule turns weekly event definitions into absolute instants:
// the next occurrence, its notification time and the registration window.
package schedule

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"teamup-bot/internal/apperr"
	"teamup-bot/internal/model"
	"teamup-bot/internal/parse"
)

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// Recurrence is a weekly schedule expressed in the event's local frame.
type Recurrence struct {
	Weekdays      []time.Weekday
	Clock         parse.Clock
	OffsetMinutes int
}

// Occurrence is a resolved occurrence of a recurring event. Instants are UTC;
// Weekday is the local weekday that produced the occurrence.
type Occurrence struct {
	At       time.Time
	NotifyAt time.Time
	Weekday  time.Weekday
}

// RecurrenceOf validates the schedule fields of an event.
func RecurrenceOf(ev model.Event) (Recurrence, error) {
	days, err := parse.ParseWeekdays(ev.Weekdays)
	if err != nil {
		return Recurrence{}, apperr.Validationf("event %d: %v", ev.ID, err)
	}
	clock, err := parse.ParseClock(ev.StartTime)
	if err != nil {
		return Recurrence{}, apperr.Validationf("event %d: %v", ev.ID, err)
	}
	if err := parse.ValidateOffset(ev.TimezoneOffset); err != nil {
		return Recurrence{}, apperr.Validationf("event %d: %v", ev.ID, err)
	}
	return Recurrence{Weekdays: days, Clock: clock, OffsetMinutes: ev.TimezoneOffset}, nil
}

// Zone returns the fixed zone of the recurrence offset.
func (r Recurrence) Zone() *time.Location {
	off := r.OffsetMinutes
	sign := '+'
	if off < 0 {
		sign = '-'
		off = -off
	}
	return time.FixedZone(fmt.Sprintf("UTC%c%02d:%02d", sign, off/60, off%60), r.OffsetMinutes*60)
}

// rule builds a weekly rule anchored at local midnight one week before t so
// that every occurrence after t is generated.
func (r Recurrence) rule(t time.Time) (*rrule.RRule, error) {
	zone := r.Zone()
	local := t.In(zone)
	anchor := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, zone).AddDate(0, 0, -7)

	days := make([]rrule.Weekday, 0, len(r.Weekdays))
	for _, d := range r.Weekdays {
		days = append(days, rruleWeekdays[d])
	}
	return rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   anchor,
		Byweekday: days,
		Byhour:    []int{r.Clock.Hour},
		Byminute:  []int{r.Clock.Minute},
		Bysecond:  []int{0},
	})
}

// NextAfter returns the first occurrence strictly after t.
func (r Recurrence) NextAfter(t time.Time) (time.Time, bool) {
	if len(r.Weekdays) == 0 {
		return time.Time{}, false
	}
	rule, err := r.rule(t)
	if err != nil {
		return time.Time{}, false
	}
	next := rule.After(t, false)
	if next.IsZero() {
		return time.Time{}, false
	}
	return next.UTC(), true
}

// Upcoming lists the next count occurrences strictly after from.
func (r Recurrence) Upcoming(from time.Time, count int) []time.Time {
	out := make([]time.Time, 0, count)
	cursor := from
	for len(out) < count {
		next, ok := r.NextAfter(cursor)
		if !ok {
			break
		}
		out = append(out, next)
		cursor = next
	}
	return out
}

// ResolveNextOccurrence finds the occurrence whose notification instant is
// the nearest one strictly after now. Notification is leadMinutes before the
// occurrence; a non-positive lead notifies at the occurrence itself. It
// reports false when the weekday set is empty.
func ResolveNextOccurrence(r Recurrence, leadMinutes int, now time.Time) (Occurrence, bool) {
	if leadMinutes < 0 {
		leadMinutes = 0
	}
	lead := time.Duration(leadMinutes) * time.Minute

	at, ok := r.NextAfter(now)
	for ok && !at.Add(-lead).After(now) {
		at, ok = r.NextAfter(at)
	}
	if !ok {
		return Occurrence{}, false
	}
	return Occurrence{
		At:       at,
		NotifyAt: at.Add(-lead),
		Weekday:  at.In(r.Zone()).Weekday(),
	}, true
}

// NextOccurrence resolves the next occurrence of an event, notifying when its
// registration window opens.
func NextOccurrence(ev model.Event, now time.Time) (Occurrence, bool, error) {
	rec, err := RecurrenceOf(ev)
	if err != nil {
		return Occurrence{}, false, err
	}
	occ, ok := ResolveNextOccurrence(rec, LeadMinutes(ev.PollStartValue, ev.PollStartUnit), now)
	return occ, ok, nil
}
