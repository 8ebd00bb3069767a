package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kubo-market/batch-dashboard/internal/cache"
	"github.com/kubo-market/batch-dashboard/internal/domain"
	"github.com/kubo-market/batch-dashboard/internal/storage"
)

// Windows and caps of the dashboard views.
const (
	summaryWindowDays     = 3
	performanceWindowDays = 30
	eventWindowDays       = 30
	baselineWindowDays    = 90
	shiftChangeWindowDays = 90

	defaultTableDays    = 3
	defaultDowntimeDays = 7
	defaultSummaryDays  = 30
	maxDays             = 90

	tableLimit    = 100
	realtimeLimit = 50
	// historyLimit bounds the wide windows that feed aggregates.
	historyLimit = 20000

	estimatedRemaining = 60 * time.Minute
)

// Texas is split over several cells sharing the TX prefix.
const (
	texasCell   = "Texas"
	texasPrefix = "TX"
)

// completeStatus is the raw BatchStatus of a finished batch.
const completeStatus = "Complete"

// AnomalyRecorder receives the number of rows checked and flagged per scope.
type AnomalyRecorder interface {
	RowsChecked(scope string, n int)
	AnomaliesFlagged(scope string, n int)
}

// Option configures a service.
type Option func(*deps)

type deps struct {
	cache    cache.Cache
	logger   *slog.Logger
	now      func() time.Time
	recorder AnomalyRecorder
}

// WithCache sets the view cache. Without one every call recomputes.
func WithCache(c cache.Cache) Option { return func(d *deps) { d.cache = c } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(d *deps) { d.logger = l } }

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(d *deps) { d.now = now } }

// WithAnomalyRecorder reports flagged rows to r.
func WithAnomalyRecorder(r AnomalyRecorder) Option { return func(d *deps) { d.recorder = r } }

func newDeps(opts []Option) deps {
	d := deps{
		cache:  noCache{},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func (d deps) recordChecks(scope string, checked, flagged int) {
	if d.recorder != nil {
		d.recorder.RowsChecked(scope, checked)
		d.recorder.AnomaliesFlagged(scope, flagged)
	}
}

type noCache struct{}

func (noCache) Get(string) (any, bool)         { return nil, false }
func (noCache) Set(string, any, time.Duration) {}

// resolveDays applies the default for 0 and rejects values outside 1..maxDays.
func resolveDays(days, def int) (int, error) {
	if days == 0 {
		return def, nil
	}
	if days < 1 || days > maxDays {
		return 0, fmt.Errorf("days must be between 1 and %d: %w", maxDays, domain.ErrInvalidParameter)
	}
	return days, nil
}

// cellQuery maps the line selector onto a row-source filter.
func cellQuery(q storage.Query, cell string) storage.Query {
	if cell == texasCell {
		q.ProcessCell, q.CellPrefix = texasPrefix, true
		return q
	}
	q.ProcessCell = cell
	return q
}

func since(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}
