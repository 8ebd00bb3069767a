package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kubo-market/batch-dashboard/internal/monitor"
)

const pingTimeout = 3 * time.Second

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check and metrics endpoints.
type HealthHandler struct {
	db       Pinger
	metrics  *monitor.Metrics
	flagRate *monitor.FlagRateMonitor
	version  string
	now      func() time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db Pinger, metrics *monitor.Metrics, flagRate *monitor.FlagRateMonitor, version string) *HealthHandler {
	return &HealthHandler{db: db, metrics: metrics, flagRate: flagRate, version: version, now: time.Now}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "disconnected",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "connected",
	})
}

// Service handles the per-API liveness probes. It does not touch the database.
func (h *HealthHandler) Service(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   name,
			"version":   h.version,
			"timestamp": h.now().UTC(),
		})
	}
}

// Metrics handles GET /api/metrics
func (h *HealthHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"metrics":     h.metrics.Snapshot(),
		"anomalyRate": h.flagRate.Report(),
	})
}
