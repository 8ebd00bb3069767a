package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/kubo-market/batch-dashboard/internal/aggregate"
	"github.com/kubo-market/batch-dashboard/internal/anomaly"
	"github.com/kubo-market/batch-dashboard/internal/cache"
	"github.com/kubo-market/batch-dashboard/internal/domain"
	"github.com/kubo-market/batch-dashboard/internal/storage"
)

// DashboardService serves the production dashboard views.
type DashboardService struct {
	repo storage.Repository
	deps
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(repo storage.Repository, opts ...Option) *DashboardService {
	return &DashboardService{repo: repo, deps: newDeps(opts)}
}

// Summary is the headline rollup of the last three days, optionally for one line.
func (s *DashboardService) Summary(ctx context.Context, cell string) (domain.Summary, error) {
	return cache.Load(s.cache, cache.SummaryKey(cell), cache.SummaryTTL, func() (domain.Summary, error) {
		now := s.now()
		rows, err := s.repo.Batches(ctx, storage.Query{
			Since:          since(now, summaryWindowDays),
			ProcessCell:    cell,
			ExcludeBatchNo: domain.SentinelBatchNo,
		})
		if err != nil {
			s.logger.Error("failed to load summary", slog.String("process_cell", cell), slog.Any("error", err))
			return domain.Summary{}, err
		}
		return aggregate.Summarize(rows, now, summaryWindowDays, cell), nil
	})
}

// Batches lists the batches of the last three days. Texas selects every TX
// line. subLine narrows the rows to one activity, see the SubLine constants.
func (s *DashboardService) Batches(ctx context.Context, cell, subLine string) ([]domain.BatchRow, error) {
	q, keep, err := subLineFilter(subLine, cellQuery(storage.Query{}, cell))
	if err != nil {
		return nil, err
	}
	key := cache.BatchesKey(cell, strings.ToUpper(strings.TrimSpace(subLine)))
	return cache.Load(s.cache, key, cache.BatchesTTL, func() ([]domain.BatchRow, error) {
		q.Since = since(s.now(), summaryWindowDays)
		rows, err := s.repo.Batches(ctx, q)
		if err != nil {
			s.logger.Error("failed to load batches", slog.String("process_cell", cell), slog.Any("error", err))
			return nil, err
		}
		out := make([]domain.BatchRow, 0, len(rows))
		for _, b := range rows {
			if keep != nil && !keep(b) {
				continue
			}
			out = append(out, buildBatchRow(b))
		}
		return out, nil
	})
}

// BatchTable lists recent batches with their anomaly annotation.
func (s *DashboardService) BatchTable(ctx context.Context, cell string, days int) ([]domain.BatchTableRow, error) {
	days, err := resolveDays(days, defaultTableDays)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Batches(ctx, storage.Query{
		Since:       since(s.now(), days),
		ProcessCell: cell,
		Limit:       tableLimit,
	})
	if err != nil {
		s.logger.Error("failed to load batch table", slog.String("process_cell", cell), slog.Any("error", err))
		return nil, err
	}
	baselines, err := s.repo.ProductBaselines(ctx)
	if err != nil {
		s.logger.Error("failed to load product baselines", slog.Any("error", err))
		return nil, err
	}

	out := make([]domain.BatchTableRow, len(rows))
	checked, flagged := 0, 0
	for i, b := range rows {
		out[i] = buildBatchTableRow(b, baselines)
		if checkable(b) {
			checked++
		}
		if out[i].IsAbnormal {
			flagged++
		}
	}
	s.recordChecks("batch", checked, flagged)
	return out, nil
}

// Events lists recent production events, optionally of one type.
func (s *DashboardService) Events(ctx context.Context, cell, eventType string, days int) ([]domain.EventRow, error) {
	days, err := resolveDays(days, defaultTableDays)
	if err != nil {
		return nil, err
	}
	events, err := s.repo.Events(ctx, storage.Query{
		Since:       since(s.now(), days),
		ProcessCell: cell,
		EventType:   eventType,
	})
	if err != nil {
		s.logger.Error("failed to load events", slog.String("process_cell", cell), slog.Any("error", err))
		return nil, err
	}

	out := make([]domain.EventRow, 0, tableLimit)
	for _, e := range events {
		if len(out) == tableLimit {
			break
		}
		if e.BatchNo == nil || e.ProcessCell == nil || e.EventType == nil {
			continue
		}
		out = append(out, buildEventRow(e))
	}
	return out, nil
}

// Cleaning lists recent cleaning activities.
func (s *DashboardService) Cleaning(ctx context.Context, cell string, days int) ([]domain.CleaningRow, error) {
	days, err := resolveDays(days, defaultTableDays)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Cleaning(ctx, storage.Query{
		Since:       since(s.now(), days),
		ProcessCell: cell,
		Limit:       tableLimit,
	})
	if err != nil {
		s.logger.Error("failed to load cleaning", slog.String("process_cell", cell), slog.Any("error", err))
		return nil, err
	}
	out := make([]domain.CleaningRow, len(rows))
	for i, c := range rows {
		out[i] = buildCleaningRow(c)
	}
	return out, nil
}

// Performance is the 30-day production and per-line efficiency view.
func (s *DashboardService) Performance(ctx context.Context) (domain.PerformanceMetrics, error) {
	return cache.Load(s.cache, cache.PerformanceKey(), cache.PerformanceTTL, func() (domain.PerformanceMetrics, error) {
		now := s.now()
		rows, err := s.repo.Batches(ctx, storage.Query{
			Since: since(now, performanceWindowDays),
			Limit: historyLimit,
		})
		if err != nil {
			s.logger.Error("failed to load performance", slog.Any("error", err))
			return domain.PerformanceMetrics{}, err
		}
		return buildPerformance(rows, now), nil
	})
}

// ProcessCells lists the distinct process cells.
func (s *DashboardService) ProcessCells(ctx context.Context) ([]string, error) {
	return cache.Load(s.cache, cache.ProcessCellsKey(), cache.ProcessCellsTTL, func() ([]string, error) {
		cells, err := s.repo.ProcessCells(ctx)
		if err != nil {
			s.logger.Error("failed to load process cells", slog.Any("error", err))
			return nil, err
		}
		return cells, nil
	})
}

// Analytics combines line efficiency, annotated product performance and
// event statistics.
func (s *DashboardService) Analytics(ctx context.Context) (domain.Analytics, error) {
	now := s.now()

	efficiency, err := s.repo.ProcessCellEfficiency(ctx)
	if err != nil {
		s.logger.Error("failed to load process cell efficiency", slog.Any("error", err))
		return domain.Analytics{}, err
	}
	products, err := s.repo.ProductBaselines(ctx)
	if err != nil {
		s.logger.Error("failed to load product performance", slog.Any("error", err))
		return domain.Analytics{}, err
	}
	history, err := s.repo.Batches(ctx, storage.Query{
		Since: since(now, baselineWindowDays),
		Limit: historyLimit,
	})
	if err != nil {
		s.logger.Error("failed to load batch history", slog.Any("error", err))
		return domain.Analytics{}, err
	}
	events, err := s.repo.Events(ctx, storage.Query{
		Since: since(now, eventWindowDays),
		Limit: historyLimit,
	})
	if err != nil {
		s.logger.Error("failed to load event history", slog.Any("error", err))
		return domain.Analytics{}, err
	}

	recent := anomaly.BuildBaselines(history)
	deduped := dedupeProducts(products)
	perf := make([]domain.ProductPerformance, len(deduped))
	flagged := 0
	for i, p := range deduped {
		perf[i] = buildProductPerformance(p, recent)
		if perf[i].IsAbnormal {
			flagged++
		}
	}
	s.recordChecks("product", len(perf), flagged)

	if efficiency == nil {
		efficiency = []domain.ProcessCellEfficiency{}
	}
	return domain.Analytics{
		ProcessCellEfficiency: efficiency,
		ProductPerformance:    perf,
		EventAnalytics:        buildEventAnalytics(events),
	}, nil
}

// Downtime breaks event downtime down by type and by day.
func (s *DashboardService) Downtime(ctx context.Context, cell string, days int) (domain.DowntimeBreakdown, error) {
	days, err := resolveDays(days, defaultDowntimeDays)
	if err != nil {
		return domain.DowntimeBreakdown{}, err
	}
	events, err := s.repo.Events(ctx, storage.Query{
		Since:       since(s.now(), days),
		ProcessCell: cell,
		Limit:       historyLimit,
	})
	if err != nil {
		s.logger.Error("failed to load downtime", slog.String("process_cell", cell), slog.Any("error", err))
		return domain.DowntimeBreakdown{}, err
	}
	return buildDowntimeBreakdown(events, days), nil
}

// Realtime lists the batches still running, however long ago they started.
func (s *DashboardService) Realtime(ctx context.Context, cell string) ([]domain.RealtimeBatch, error) {
	rows, err := s.repo.Batches(ctx, storage.Query{
		ProcessCell:    cell,
		ExcludeBatchNo: domain.SentinelBatchNo,
		ExcludeStatus:  completeStatus,
		Limit:          realtimeLimit,
	})
	if err != nil {
		s.logger.Error("failed to load realtime batches", slog.String("process_cell", cell), slog.Any("error", err))
		return nil, err
	}
	out := make([]domain.RealtimeBatch, 0, realtimeLimit)
	for _, b := range rows {
		if len(out) == realtimeLimit {
			break
		}
		if b.IsSentinel() || b.Status() == domain.BatchStatusComplete {
			continue
		}
		out = append(out, buildRealtimeBatch(b))
	}
	return out, nil
}

// ProductBaselines lists the view baselines for client-side checks, by line
// and then by batch count.
func (s *DashboardService) ProductBaselines(ctx context.Context) ([]domain.BaselineRow, error) {
	baselines, err := s.repo.ProductBaselines(ctx)
	if err != nil {
		s.logger.Error("failed to load product baselines", slog.Any("error", err))
		return nil, err
	}
	kept := make([]domain.ProductBaseline, 0, len(baselines))
	for _, b := range baselines {
		if b.ProductName != "" && b.ProcessCell != "" {
			kept = append(kept, b)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].ProcessCell != kept[j].ProcessCell {
			return kept[i].ProcessCell < kept[j].ProcessCell
		}
		return kept[i].SampleCount > kept[j].SampleCount
	})
	out := make([]domain.BaselineRow, len(kept))
	for i, b := range kept {
		out[i] = buildBaselineRow(b)
	}
	return out, nil
}
