// Package http provides HTTP handlers for service status endpoints.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quantboard/telemetry/internal/api/ws"
)

const serviceVersion = "0.3.0"

// Handlers holds dependencies for status endpoints
type Handlers struct {
	feed    *ws.Feed
	tracing bool
	started time.Time
}

// NewHandlers creates status handlers
func NewHandlers(feed *ws.Feed, tracingEnabled bool) *Handlers {
	return &Handlers{
		feed:    feed,
		tracing: tracingEnabled,
		started: time.Now(),
	}
}

// Root handles simple status check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Browser Telemetry Service (Go)",
		"version": serviceVersion,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"span_export":    gin.H{"enabled": h.tracing},
		"stream":         gin.H{"subscribers": h.feed.SubscriberCount()},
	})
}
