package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kubo-market/batch-dashboard/internal/monitor"
	"github.com/kubo-market/batch-dashboard/internal/service"
)

// Options wires the router's collaborators.
type Options struct {
	Dashboard      *service.DashboardService
	Events         *service.EventAnalyticsService
	DB             Pinger
	Metrics        *monitor.Metrics
	FlagRate       *monitor.FlagRateMonitor
	Logger         *slog.Logger
	AllowedOrigins []string
	Version        string
}

// NewRouter builds the HTTP API.
func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(observe(opts.Metrics))

	dash := NewDashboardHandler(opts.Dashboard)
	events := NewEventAnalyticsHandler(opts.Events)
	health := NewHealthHandler(opts.DB, opts.Metrics, opts.FlagRate, opts.Version)
	check := NewAnomalyHandler(opts.Metrics)

	d := r.Group("/api/dashboard")
	d.GET("/summary", dash.Summary)
	d.GET("/batches", dash.Batches)
	d.GET("/batchtable", dash.BatchTable)
	d.GET("/events", dash.Events)
	d.GET("/cleaning", dash.Cleaning)
	d.GET("/performance", dash.Performance)
	d.GET("/process-cells", dash.ProcessCells)
	d.GET("/analytics", dash.Analytics)
	d.GET("/downtime", dash.Downtime)
	d.GET("/realtime", dash.Realtime)
	d.GET("/product-baselines", dash.ProductBaselines)
	d.GET("/health", health.Service("dashboard"))

	e := r.Group("/api/eventanalytics")
	e.GET("/summary", events.Summary)
	e.GET("/downtime", events.Downtime)
	e.GET("/shift-change-impact", events.ShiftChangeImpact)
	e.GET("/health", health.Service("eventanalytics"))

	r.POST("/api/anomaly/check", check.Check)
	r.GET("/api/metrics", health.Metrics)
	r.GET("/health", health.Health)
	r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))

	var h http.Handler = r
	h = CORS(opts.AllowedOrigins)(h)
	h = RequestID(h)
	h = Logging(logger)(h)
	h = Recovery(logger)(h)
	return h
}
