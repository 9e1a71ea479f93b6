package schedule

import (
	"time"

	"teamup-bot/internal/model"
)

// Window describes when registration is open relative to each occurrence:
// from OpenLead before the start until CloseLead before it. A negative
// CloseLead closes registration after the start.
type Window struct {
	AlwaysOpen bool
	OpenLead   time.Duration
	CloseLead  time.Duration
}

// WindowOf derives the registration window of an event. A missing or invalid
// lead keeps registration always open. A close lead of exactly zero in a
// known unit closes registration at the start.
func WindowOf(ev model.Event) Window {
	open := LeadMinutes(ev.PollStartValue, ev.PollStartUnit)
	if open == 0 || !KnownUnit(ev.PollEndUnit) {
		return Window{AlwaysOpen: true}
	}
	closeMinutes := 0
	if ev.PollEndValue != 0 {
		closeMinutes = LeadMinutes(ev.PollEndValue, ev.PollEndUnit)
		if closeMinutes == 0 {
			return Window{AlwaysOpen: true}
		}
	}
	if ev.PollEndAfterStart {
		closeMinutes = -closeMinutes
	}
	return Window{
		OpenLead:  time.Duration(open) * time.Minute,
		CloseLead: time.Duration(closeMinutes) * time.Minute,
	}
}

// WindowState is the registration state at a given instant together with the
// occurrence it refers to.
type WindowState struct {
	Open       bool
	AlwaysOpen bool
	Occurrence time.Time
	OpensAt    time.Time
	ClosesAt   time.Time
}

// Evaluate reports the window state at now. The occurrence considered is the
// first one whose window has not closed yet.
func Evaluate(r Recurrence, w Window, now time.Time) WindowState {
	if w.AlwaysOpen {
		st := WindowState{Open: true, AlwaysOpen: true}
		if at, ok := r.NextAfter(now); ok {
			st.Occurrence = at
		}
		return st
	}
	if w.OpenLead <= w.CloseLead {
		return WindowState{}
	}
	at, ok := r.NextAfter(now.Add(w.CloseLead))
	if !ok {
		return WindowState{}
	}
	st := WindowState{
		Occurrence: at,
		OpensAt:    at.Add(-w.OpenLead),
		ClosesAt:   at.Add(-w.CloseLead),
	}
	st.Open = !now.Before(st.OpensAt)
	return st
}

// IsRegistrationOpen reports whether joins are accepted for ev at now. An
// event with a bounded window but an unusable schedule is closed.
func IsRegistrationOpen(ev model.Event, now time.Time) bool {
	return StateOf(ev, now).Open
}

// StateOf evaluates the registration window of ev at now.
func StateOf(ev model.Event, now time.Time) WindowState {
	w := WindowOf(ev)
	rec, err := RecurrenceOf(ev)
	if err != nil {
		return WindowState{Open: w.AlwaysOpen, AlwaysOpen: w.AlwaysOpen}
	}
	return Evaluate(rec, w, now)
}
