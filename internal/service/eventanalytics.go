package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/kubo-market/batch-dashboard/internal/aggregate"
	"github.com/kubo-market/batch-dashboard/internal/cache"
	"github.com/kubo-market/batch-dashboard/internal/domain"
	"github.com/kubo-market/batch-dashboard/internal/storage"
)

// EventAnalyticsService rolls the downtime columns of recent batches up.
type EventAnalyticsService struct {
	repo storage.Repository
	deps
}

// NewEventAnalyticsService creates a new EventAnalyticsService.
func NewEventAnalyticsService(repo storage.Repository, opts ...Option) *EventAnalyticsService {
	return &EventAnalyticsService{repo: repo, deps: newDeps(opts)}
}

// EventSummary sums the downtime categories of the last three days of
// batches. days only scopes the cache entry.
func (s *EventAnalyticsService) EventSummary(ctx context.Context, days int) (domain.EventSummary, error) {
	days, err := resolveDays(days, defaultSummaryDays)
	if err != nil {
		return domain.EventSummary{}, err
	}
	return cache.Load(s.cache, cache.EventSummaryKey(days), cache.EventSummaryTTL, func() (domain.EventSummary, error) {
		now := s.now()
		rows, err := s.recentBatches(ctx, now, "")
		if err != nil {
			s.logger.Error("failed to load event summary", slog.Int("days", days), slog.Any("error", err))
			return domain.EventSummary{}, err
		}
		return buildEventSummary(rows, now), nil
	})
}

// DowntimeAnalysis breaks recent batch downtime down by type and by day.
func (s *EventAnalyticsService) DowntimeAnalysis(ctx context.Context, cell string) (domain.DowntimeAnalysis, error) {
	return cache.Load(s.cache, cache.DowntimeAnalysisKey(cell), cache.DowntimeAnalysisTTL, func() (domain.DowntimeAnalysis, error) {
		now := s.now()
		rows, err := s.recentBatches(ctx, now, cell)
		if err != nil {
			s.logger.Error("failed to load downtime analysis", slog.String("process_cell", cell), slog.Any("error", err))
			return domain.DowntimeAnalysis{}, err
		}
		return buildDowntimeAnalysis(rows, cell, now), nil
	})
}

// ShiftChangeImpact compares shift-change and normal batches per line over
// the last 90 days.
func (s *EventAnalyticsService) ShiftChangeImpact(ctx context.Context) (domain.ShiftChangeImpact, error) {
	return cache.Load(s.cache, cache.ShiftChangeKey(), cache.ShiftChangeTTL, func() (domain.ShiftChangeImpact, error) {
		now := s.now()
		rows, err := s.repo.Batches(ctx, storage.Query{
			Since: since(now, shiftChangeWindowDays),
			Limit: historyLimit,
		})
		if err != nil {
			s.logger.Error("failed to load shift change impact", slog.Any("error", err))
			return domain.ShiftChangeImpact{}, err
		}
		return buildShiftChangeImpact(rows, now), nil
	})
}

func (s *EventAnalyticsService) recentBatches(ctx context.Context, now time.Time, cell string) ([]domain.BatchRecord, error) {
	rows, err := s.repo.Batches(ctx, storage.Query{
		Since:       since(now, summaryWindowDays),
		ProcessCell: cell,
		Limit:       historyLimit,
	})
	if err != nil {
		return nil, err
	}
	return aggregate.MainProcess(rows, now, summaryWindowDays, cell), nil
}
