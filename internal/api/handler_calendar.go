package api

import (
	"fmt"
	"net/http"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/gin-gonic/gin"

	"teamup-bot/internal/schedule"
)

const calendarOccurrences = 8

// GetCalendar exports the upcoming occurrences of an event as iCalendar.
func (h *Handler) GetCalendar(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	ev, err := h.store.GetEvent(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	rec, err := schedule.RecurrenceOf(ev)
	if err != nil {
		respondError(c, err)
		return
	}

	now := h.now().UTC()
	duration := time.Duration(ev.DurationMinutes) * time.Minute

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//teamup-bot//events//EN")
	cal.SetName(ev.Name)
	for _, at := range rec.Upcoming(now, calendarOccurrences) {
		vevent := cal.AddEvent(fmt.Sprintf("%s-%d@teamup-bot", ev.ExternalID, at.Unix()))
		vevent.SetDtStampTime(now)
		vevent.SetStartAt(at.UTC())
		vevent.SetEndAt(at.Add(duration).UTC())
		vevent.SetSummary(ev.Name)
		if ev.Location != "" {
			vevent.SetLocation(ev.Location)
		}
		if ev.Comment != "" {
			vevent.SetDescription(ev.Comment)
		}
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=event-%d.ics", ev.ID))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(cal.Serialize()))
}
