package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"teamup-bot/config"
	"teamup-bot/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg config.ServerConfig, handler *Handler) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, cfg.RequestIPHeader)

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)
	invalidate := mw.Invalidate(cacheStore)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/events", caching, handler.ListEvents)
		api.PUT("/events", invalidate, handler.PutEvent)
		api.GET("/events/:id", handler.GetEvent)
		api.DELETE("/events/:id", invalidate, handler.DeleteEvent)
		api.GET("/events/:id/participants", handler.GetParticipants)
		api.GET("/events/:id/leaderboard", handler.GetLeaderboard)
		api.GET("/events/:id/calendar.ics", caching, handler.GetCalendar)
		api.POST("/events/:id/notify", handler.PostNotify)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
