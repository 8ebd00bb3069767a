package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kubo-market/batch-dashboard/internal/domain"
	"github.com/kubo-market/batch-dashboard/internal/logging"
	"github.com/kubo-market/batch-dashboard/internal/storage"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

var errBoom = errors.New("connection reset")

// fakeRepo serves canned rows and records the queries it receives.
type fakeRepo struct {
	mu         sync.Mutex
	batches    []domain.BatchRecord
	events     []domain.EventRecord
	cleaning   []domain.CleaningRecord
	baselines  []domain.ProductBaseline
	efficiency []domain.ProcessCellEfficiency
	cells      []string
	err        error

	batchQueries []storage.Query
	eventQueries []storage.Query
	cleanQueries []storage.Query
}

func (f *fakeRepo) Batches(_ context.Context, q storage.Query) ([]domain.BatchRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchQueries = append(f.batchQueries, q)
	return f.batches, f.err
}

func (f *fakeRepo) Events(_ context.Context, q storage.Query) ([]domain.EventRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.eventQueries = append(f.eventQueries, q)
	return f.events, f.err
}

func (f *fakeRepo) Cleaning(_ context.Context, q storage.Query) ([]domain.CleaningRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanQueries = append(f.cleanQueries, q)
	return f.cleaning, f.err
}

func (f *fakeRepo) ProductBaselines(context.Context) ([]domain.ProductBaseline, error) {
	return f.baselines, f.err
}

func (f *fakeRepo) ProcessCellEfficiency(context.Context) ([]domain.ProcessCellEfficiency, error) {
	return f.efficiency, f.err
}

func (f *fakeRepo) ProcessCells(context.Context) ([]string, error) { return f.cells, f.err }

func (f *fakeRepo) Ping(context.Context) error { return f.err }

func (f *fakeRepo) batchCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batchQueries)
}

type recorder struct {
	checked map[string]int
	flagged map[string]int
}

func newRecorder() *recorder {
	return &recorder{checked: make(map[string]int), flagged: make(map[string]int)}
}

func (r *recorder) RowsChecked(scope string, n int)      { r.checked[scope] += n }
func (r *recorder) AnomaliesFlagged(scope string, n int) { r.flagged[scope] += n }

func testOpts(extra ...Option) []Option {
	return append([]Option{
		WithClock(func() time.Time { return now }),
		WithLogger(logging.Discard()),
	}, extra...)
}

func strp(s string) *string        { return &s }
func intp(n int) *int              { return &n }
func floatp(f float64) *float64    { return &f }
func timep(t time.Time) *time.Time { return &t }

func hoursAgo(h float64) *time.Time {
	return timep(now.Add(-time.Duration(h * float64(time.Hour))))
}

func day(y int, m time.Month, d int) *time.Time {
	return timep(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// batch returns a completed batch that started h hours ago.
func batch(no, cell string, h float64) domain.BatchRecord {
	start := hoursAgo(h)
	return domain.BatchRecord{
		BatchNo:     no,
		ProcessCell: cell,
		StartTime:   start,
		StartBatch:  start,
		BatchDate:   day(start.Year(), start.Month(), start.Day()),
		BatchStatus: "Complete",
	}
}
