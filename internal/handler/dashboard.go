package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kubo-market/batch-dashboard/internal/domain"
	"github.com/kubo-market/batch-dashboard/internal/service"
)

type errorResp struct {
	Error string `json:"error"`
}

// DashboardHandler serves the /api/dashboard views.
type DashboardHandler struct {
	svc *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Summary handles GET /api/dashboard/summary?processCell=
func (h *DashboardHandler) Summary(c *gin.Context) {
	s, err := h.svc.Summary(c.Request.Context(), c.Query("processCell"))
	respond(c, "dashboard summary", s, err)
}

// Batches handles GET /api/dashboard/batches?processCell=&subLine=
func (h *DashboardHandler) Batches(c *gin.Context) {
	rows, err := h.svc.Batches(c.Request.Context(), c.Query("processCell"), c.Query("subLine"))
	respond(c, "batch data", rows, err)
}

// BatchTable handles GET /api/dashboard/batchtable?processCell=&days=
func (h *DashboardHandler) BatchTable(c *gin.Context) {
	days, err := queryDays(c)
	if err != nil {
		respond[any](c, "batch table", nil, err)
		return
	}
	rows, err := h.svc.BatchTable(c.Request.Context(), c.Query("processCell"), days)
	respond(c, "batch table", rows, err)
}

// Events handles GET /api/dashboard/events?processCell=&eventType=&days=
func (h *DashboardHandler) Events(c *gin.Context) {
	days, err := queryDays(c)
	if err != nil {
		respond[any](c, "events", nil, err)
		return
	}
	rows, err := h.svc.Events(c.Request.Context(), c.Query("processCell"), c.Query("eventType"), days)
	respond(c, "events", rows, err)
}

// Cleaning handles GET /api/dashboard/cleaning?processCell=&days=
func (h *DashboardHandler) Cleaning(c *gin.Context) {
	days, err := queryDays(c)
	if err != nil {
		respond[any](c, "cleaning activities", nil, err)
		return
	}
	rows, err := h.svc.Cleaning(c.Request.Context(), c.Query("processCell"), days)
	respond(c, "cleaning activities", rows, err)
}

// Performance handles GET /api/dashboard/performance
func (h *DashboardHandler) Performance(c *gin.Context) {
	p, err := h.svc.Performance(c.Request.Context())
	respond(c, "performance metrics", p, err)
}

// ProcessCells handles GET /api/dashboard/process-cells
func (h *DashboardHandler) ProcessCells(c *gin.Context) {
	cells, err := h.svc.ProcessCells(c.Request.Context())
	respond(c, "process cells", cells, err)
}

// Analytics handles GET /api/dashboard/analytics
func (h *DashboardHandler) Analytics(c *gin.Context) {
	a, err := h.svc.Analytics(c.Request.Context())
	respond(c, "analytics", a, err)
}

// Downtime handles GET /api/dashboard/downtime?processCell=&days=
func (h *DashboardHandler) Downtime(c *gin.Context) {
	days, err := queryDays(c)
	if err != nil {
		respond[any](c, "downtime analysis", nil, err)
		return
	}
	d, err := h.svc.Downtime(c.Request.Context(), c.Query("processCell"), days)
	respond(c, "downtime analysis", d, err)
}

// Realtime handles GET /api/dashboard/realtime?processCell=
func (h *DashboardHandler) Realtime(c *gin.Context) {
	rows, err := h.svc.Realtime(c.Request.Context(), c.Query("processCell"))
	respond(c, "real-time data", rows, err)
}

// ProductBaselines handles GET /api/dashboard/product-baselines
func (h *DashboardHandler) ProductBaselines(c *gin.Context) {
	rows, err := h.svc.ProductBaselines(c.Request.Context())
	respond(c, "product baselines", rows, err)
}

// queryDays reads the optional days parameter. Range checks are left to the
// service so that 0 picks the view's default.
func queryDays(c *gin.Context) (int, error) {
	raw := c.Query("days")
	if raw == "" {
		return 0, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("days must be a whole number: %w", domain.ErrInvalidParameter)
	}
	if days == 0 {
		return 0, fmt.Errorf("days must be between 1 and 90: %w", domain.ErrInvalidParameter)
	}
	return days, nil
}

// respond writes v, or maps err to a status. Bad parameters echo their
// message; anything else is reported as a failure to load view.
func respond[T any](c *gin.Context, view string, v T, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, v)
	case errors.Is(err, domain.ErrInvalidParameter), errors.Is(err, domain.ErrUnknownSubLine):
		c.JSON(http.StatusBadRequest, errorResp{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, errorResp{Error: "Failed to load " + view})
	}
}
