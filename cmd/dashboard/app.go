package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kubo-market/batch-dashboard/internal/cache"
	"github.com/kubo-market/batch-dashboard/internal/config"
	"github.com/kubo-market/batch-dashboard/internal/logging"
	"github.com/kubo-market/batch-dashboard/internal/monitor"
	"github.com/kubo-market/batch-dashboard/internal/seed"
	"github.com/kubo-market/batch-dashboard/internal/service"
	"github.com/kubo-market/batch-dashboard/internal/storage"
)

// app is the wired service graph shared by the commands.
type app struct {
	cfg       config.Config
	logger    *slog.Logger
	repo      *storage.SQLRepository
	metrics   *monitor.Metrics
	flagRate  *monitor.FlagRateMonitor
	dashboard *service.DashboardService
	events    *service.EventAnalyticsService
	views     *cache.Memory
	logCloser io.Closer
}

func loadConfig(flags *rootFlags) (config.Config, error) {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if flags.DSN != "" {
		cfg.Database.DSN = flags.DSN
	}
	if flags.Driver != "" {
		cfg.Database.Driver = flags.Driver
	}
	return cfg, nil
}

func openRepository(ctx context.Context, cfg config.Config) (*storage.SQLRepository, error) {
	return storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, storage.Options{
		MaxOpenConns:   cfg.Database.MaxOpenConns,
		MaxIdleConns:   cfg.Database.MaxIdleConns,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	})
}

func newApp(ctx context.Context, flags *rootFlags) (*app, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	logCloser := logging.Init(logging.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	logger := slog.Default()

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		logCloser.Close()
		return nil, err
	}
	logger.Info("connected to row source", slog.String("driver", repo.Driver()))

	if repo.Driver() == storage.DriverSQLite {
		if err := repo.EnsureSchema(ctx); err != nil {
			repo.Close()
			logCloser.Close()
			return nil, err
		}
		if cfg.SeedDemoData {
			if err := repo.LoadSeed(ctx, seed.Statements()); err != nil {
				repo.Close()
				logCloser.Close()
				return nil, fmt.Errorf("seed demo data: %w", err)
			}
			logger.Info("demo data loaded")
		}
	}

	metrics, err := monitor.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		repo.Close()
		logCloser.Close()
		return nil, err
	}

	views := cache.NewMemory()
	opts := []service.Option{
		service.WithCache(cache.NewInstrumented(views, metrics)),
		service.WithLogger(logger),
		service.WithAnomalyRecorder(metrics),
	}
	return &app{
		cfg:       cfg,
		logger:    logger,
		repo:      repo,
		metrics:   metrics,
		flagRate:  monitor.NewFlagRateMonitor(metrics, cfg.AnomalyAlertThreshold),
		dashboard: service.NewDashboardService(repo, opts...),
		events:    service.NewEventAnalyticsService(repo, opts...),
		views:     views,
		logCloser: logCloser,
	}, nil
}

// purgeViews drops expired cache entries every interval until ctx is done.
func (a *app) purgeViews(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.views.Purge(); n > 0 {
				a.logger.Debug("purged expired views", slog.Int("entries", n))
			}
		}
	}
}

func (a *app) Close() error {
	err := a.repo.Close()
	a.logCloser.Close()
	return err
}
