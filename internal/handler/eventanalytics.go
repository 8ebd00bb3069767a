package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kubo-market/batch-dashboard/internal/service"
)

// EventAnalyticsHandler serves the /api/eventanalytics views.
type EventAnalyticsHandler struct {
	svc *service.EventAnalyticsService
}

// NewEventAnalyticsHandler creates a new EventAnalyticsHandler.
func NewEventAnalyticsHandler(svc *service.EventAnalyticsService) *EventAnalyticsHandler {
	return &EventAnalyticsHandler{svc: svc}
}

// Summary handles GET /api/eventanalytics/summary?days=
func (h *EventAnalyticsHandler) Summary(c *gin.Context) {
	days, err := queryDays(c)
	if err != nil {
		respond[any](c, "event summary", nil, err)
		return
	}
	s, err := h.svc.EventSummary(c.Request.Context(), days)
	respond(c, "event summary", s, err)
}

// Downtime handles GET /api/eventanalytics/downtime?processCell=
func (h *EventAnalyticsHandler) Downtime(c *gin.Context) {
	d, err := h.svc.DowntimeAnalysis(c.Request.Context(), c.Query("processCell"))
	respond(c, "downtime analysis", d, err)
}

// ShiftChangeImpact handles GET /api/eventanalytics/shift-change-impact
func (h *EventAnalyticsHandler) ShiftChangeImpact(c *gin.Context) {
	r, err := h.svc.ShiftChangeImpact(c.Request.Context())
	respond(c, "shift change impact", r, err)
}
