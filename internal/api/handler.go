package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"teamup-bot/internal/apperr"
	"teamup-bot/internal/roster"
	"teamup-bot/internal/store"
)

// Dispatcher queues an event announcement.
type Dispatcher interface {
	Dispatch(ctx context.Context, eventID int64) error
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	roster     *roster.Manager
	dispatcher Dispatcher
	webpush    *webpush.Options
	now        func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, r *roster.Manager, dispatcher Dispatcher, webpushOptions *webpush.Options, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{
		store:      s,
		roster:     r,
		dispatcher: dispatcher,
		webpush:    webpushOptions,
		now:        now,
	}
}

// respondError writes the status matching err. Unexpected errors are logged
// and hidden from the client.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrWindowClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
