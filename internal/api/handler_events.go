package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"teamup-bot/internal/apperr"
	"teamup-bot/internal/model"
	"teamup-bot/internal/parse"
	"teamup-bot/internal/schedule"
)

type leadJSON struct {
	Value int    `json:"value"`
	Unit  string `json:"unit"`
}

type pollEndJSON struct {
	Value      int    `json:"value"`
	Unit       string `json:"unit"`
	AfterStart bool   `json:"after_start"`
}

type eventRequest struct {
	ChatID          int64       `json:"chat_id" binding:"required"`
	Name            string      `json:"name" binding:"required"`
	Weekdays        []string    `json:"weekdays" binding:"required"`
	StartTime       string      `json:"start_time" binding:"required"`
	TimezoneOffset  int         `json:"timezone_offset"`
	DurationMinutes int         `json:"duration_minutes"`
	PollStart       leadJSON    `json:"poll_start"`
	PollEnd         pollEndJSON `json:"poll_end"`
	Capacity        *int        `json:"capacity"`
	Location        string      `json:"location"`
	Comment         string      `json:"comment"`
	Language        string      `json:"language"`
}

type windowJSON struct {
	Open       bool       `json:"open"`
	AlwaysOpen bool       `json:"always_open"`
	OpensAt    *time.Time `json:"opens_at,omitempty"`
	ClosesAt   *time.Time `json:"closes_at,omitempty"`
}

type eventResponse struct {
	ID              int64       `json:"id"`
	ExternalID      string      `json:"external_id"`
	ChatID          int64       `json:"chat_id"`
	Name            string      `json:"name"`
	Weekdays        []string    `json:"weekdays"`
	StartTime       string      `json:"start_time"`
	TimezoneOffset  int         `json:"timezone_offset"`
	DurationMinutes int         `json:"duration_minutes"`
	PollStart       leadJSON    `json:"poll_start"`
	PollEnd         pollEndJSON `json:"poll_end"`
	Capacity        *int        `json:"capacity"`
	Location        string      `json:"location,omitempty"`
	Comment         string      `json:"comment,omitempty"`
	Language        string      `json:"language,omitempty"`

	NextOccurrence   *time.Time `json:"next_occurrence,omitempty"`
	NotifyAt         *time.Time `json:"notify_at,omitempty"`
	RegistrationOpen bool       `json:"registration_open"`
	Window           windowJSON `json:"window"`
}

// toModel validates the request and normalizes it into an event definition.
func (r eventRequest) toModel() (model.Event, error) {
	if strings.TrimSpace(r.Name) == "" {
		return model.Event{}, apperr.Validationf("name is required")
	}
	days, err := parse.ParseWeekdayList(r.Weekdays)
	if err != nil {
		return model.Event{}, apperr.Validationf("%v", err)
	}
	if len(days) == 0 {
		return model.Event{}, apperr.Validationf("at least one weekday is required")
	}
	clock, err := parse.ParseClock(r.StartTime)
	if err != nil {
		return model.Event{}, apperr.Validationf("%v", err)
	}
	if err := parse.ValidateOffset(r.TimezoneOffset); err != nil {
		return model.Event{}, apperr.Validationf("%v", err)
	}
	for _, unit := range []string{r.PollStart.Unit, r.PollEnd.Unit} {
		if unit != "" && !schedule.KnownUnit(unit) {
			return model.Event{}, apperr.Validationf("unknown lead time unit %q", unit)
		}
	}
	if r.Capacity != nil && *r.Capacity < 0 {
		return model.Event{}, apperr.Validationf("capacity must not be negative")
	}
	if r.DurationMinutes < 0 {
		return model.Event{}, apperr.Validationf("duration must not be negative")
	}
	duration := r.DurationMinutes
	if duration == 0 {
		duration = 120
	}

	return model.Event{
		ChatID:            r.ChatID,
		Name:              strings.TrimSpace(r.Name),
		Weekdays:          parse.FormatWeekdays(days),
		StartTime:         clock.String(),
		TimezoneOffset:    r.TimezoneOffset,
		DurationMinutes:   duration,
		PollStartValue:    r.PollStart.Value,
		PollStartUnit:     strings.ToLower(r.PollStart.Unit),
		PollEndValue:      r.PollEnd.Value,
		PollEndUnit:       strings.ToLower(r.PollEnd.Unit),
		PollEndAfterStart: r.PollEnd.AfterStart,
		Capacity:          r.Capacity,
		Location:          r.Location,
		Comment:           r.Comment,
		Language:          r.Language,
	}, nil
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

func (h *Handler) toResponse(ev model.Event) eventResponse {
	resp := eventResponse{
		ID:              ev.ID,
		ExternalID:      ev.ExternalID,
		ChatID:          ev.ChatID,
		Name:            ev.Name,
		Weekdays:        []string{},
		StartTime:       ev.StartTime,
		TimezoneOffset:  ev.TimezoneOffset,
		DurationMinutes: ev.DurationMinutes,
		PollStart:       leadJSON{Value: ev.PollStartValue, Unit: ev.PollStartUnit},
		PollEnd:         pollEndJSON{Value: ev.PollEndValue, Unit: ev.PollEndUnit, AfterStart: ev.PollEndAfterStart},
		Capacity:        ev.Capacity,
		Location:        ev.Location,
		Comment:         ev.Comment,
		Language:        ev.Language,
	}
	if ev.Weekdays != "" {
		resp.Weekdays = strings.Split(ev.Weekdays, ",")
	}

	now := h.now()
	if occ, ok, err := schedule.NextOccurrence(ev, now); err == nil && ok {
		resp.NextOccurrence = timePtr(occ.At)
		resp.NotifyAt = timePtr(occ.NotifyAt)
	}
	state := schedule.StateOf(ev, now)
	resp.RegistrationOpen = state.Open
	resp.Window = windowJSON{
		Open:       state.Open,
		AlwaysOpen: state.AlwaysOpen,
		OpensAt:    timePtr(state.OpensAt),
		ClosesAt:   timePtr(state.ClosesAt),
	}
	return resp
}

func eventID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return 0, false
	}
	return id, true
}

// ListEvents returns every event with its next occurrence.
func (h *Handler) ListEvents(c *gin.Context) {
	events, err := h.store.ListEvents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]eventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, h.toResponse(ev))
	}
	c.JSON(http.StatusOK, out)
}

// GetEvent returns a single event.
func (h *Handler) GetEvent(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	ev, err := h.store.GetEvent(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toResponse(ev))
}

// PutEvent creates the event of a chat or replaces its definition. The roster
// of a re-authored event is kept.
func (h *Handler) PutEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	ev, err := req.toModel()
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.store.SaveEvent(c.Request.Context(), &ev); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toResponse(ev))
}

// DeleteEvent removes an event with its roster.
func (h *Handler) DeleteEvent(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteEvent(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetParticipants returns the roster and its aggregates.
func (h *Handler) GetParticipants(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.store.GetEvent(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	entries, err := h.roster.List(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	stats, err := h.roster.Aggregate(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": entries, "stats": stats})
}

// GetLeaderboard ranks participants by registrations.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	ctx := c.Request.Context()
	if _, err := h.store.GetEvent(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	entries, err := h.roster.Leaderboard(ctx, id, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

// PostNotify queues an announcement of the event.
func (h *Handler) PostNotify(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	if _, err := h.store.GetEvent(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	if err := h.dispatcher.Dispatch(c.Request.Context(), id); err != nil {
		respondError(c, apperr.Transient(err))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
