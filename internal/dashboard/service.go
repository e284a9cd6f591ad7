package dashboard

import (
	"context"
	"time"

	"github.com/wonny/presence/backend/internal/aggregate"
	"github.com/wonny/presence/backend/internal/contracts"
	"github.com/wonny/presence/backend/internal/filter"
	"github.com/wonny/presence/backend/internal/settings"
	"github.com/wonny/presence/backend/pkg/logger"
	"github.com/wonny/presence/backend/pkg/redis"
)

// Service answers the page and API requests from the cached snapshot
// ⭐ SSOT: every request goes load-if-stale -> filter -> aggregate here
type Service struct {
	loader     contracts.RawLoader
	cache      *SnapshotCache
	aggregator *aggregate.Aggregator
	settings   *settings.Settings
	reports    *redis.Cache
	now        func() time.Time
	logger     *logger.Logger
}

// NewService creates a service reading through loader into cache
func NewService(loader contracts.RawLoader, cache *SnapshotCache, s *settings.Settings, log *logger.Logger) *Service {
	return &Service{
		loader:     loader,
		cache:      cache,
		aggregator: aggregate.NewAggregator(LimitsFrom(s.Limits), log),
		settings:   s,
		now:        time.Now,
		logger:     log.WithComponent("dashboard"),
	}
}

// WithReportCache shares computed reports through Redis
func (s *Service) WithReportCache(c *redis.Cache) *Service {
	s.reports = c
	return s
}

// WithClock replaces the wall clock used to age the snapshot
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Settings returns the dashboard settings
func (s *Service) Settings() *settings.Settings {
	return s.settings
}

// LimitsFrom converts the configured view caps
func LimitsFrom(l settings.Limits) aggregate.Limits {
	return aggregate.Limits{
		TopBrands:      l.TopBrands,
		TopProducts:    l.TopProducts,
		BottomProducts: l.BottomProducts,
	}
}

// Snapshot returns the current enriched table, loading it if stale
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap, err := s.cache.GetOrRefresh(ctx, s.loader, s.now())
	if err != nil {
		s.logger.WithError(err).Error("Failed to load snapshot")
		return nil, err
	}
	return snap, nil
}

// Refresh reloads the snapshot now. The previous snapshot is kept when
// loading fails.
func (s *Service) Refresh(ctx context.Context) (*Snapshot, error) {
	start := time.Now()

	snap, err := s.cache.Reload(ctx, s.loader, s.now())
	if err != nil {
		s.logger.WithError(err).Error("Failed to refresh snapshot")
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"rows":     snap.Table.Len(),
		"columns":  len(snap.Table.Columns),
		"duration": time.Since(start).String(),
	}).Info("Snapshot refreshed")

	return snap, nil
}

// Options lists what the sidebar offers
func (s *Service) Options(ctx context.Context) (contracts.FilterOptions, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return contracts.FilterOptions{}, err
	}
	return filter.Options(snap.Table), nil
}

// Defaults returns the selection applied when the user has not picked one
func (s *Service) Defaults(ctx context.Context) (contracts.Filter, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return contracts.Filter{}, err
	}
	return filter.Defaults(snap.Table, s.settings.Filters.DefaultBrandCount), nil
}

// Report recomputes the KPIs and every view for f
func (s *Service) Report(ctx context.Context, f contracts.Filter) (*contracts.Report, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	compute := func() *contracts.Report {
		report := Summarize(snap.Table, f, s.aggregator)
		report.LoadedAt = snap.LoadedAt
		return report
	}

	if s.reports == nil {
		return compute(), nil
	}

	var report contracts.Report
	key := redis.ReportKey(snap.LoadedAt, f.Key())
	err = s.reports.GetOrSet(ctx, key, &report, s.remaining(snap), func() (interface{}, error) {
		return compute(), nil
	})
	if err != nil {
		s.logger.WithError(err).Warn("Report cache unavailable")
		return compute(), nil
	}
	return &report, nil
}

// Overview summarises the whole table and the selection
func (s *Service) Overview(ctx context.Context, f contracts.Filter) (*contracts.Overview, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	compute := func() *contracts.Overview {
		ov := BuildOverview(snap.Table, f, s.settings.Limits.PreviewRows)
		ov.LoadedAt = snap.LoadedAt
		return ov
	}

	if s.reports == nil {
		return compute(), nil
	}

	var ov contracts.Overview
	key := redis.OverviewKey(snap.LoadedAt, f.Key())
	err = s.reports.GetOrSet(ctx, key, &ov, s.remaining(snap), func() (interface{}, error) {
		return compute(), nil
	})
	if err != nil {
		s.logger.WithError(err).Warn("Report cache unavailable")
		return compute(), nil
	}
	return &ov, nil
}

// remaining is how long a report computed from snap stays valid
func (s *Service) remaining(snap *Snapshot) time.Duration {
	return s.cache.TTL() - snap.Age(s.now())
}

// Cached returns the snapshot currently held, without loading
func (s *Service) Cached() (*Snapshot, bool) {
	return s.cache.Peek()
}

// TTL returns the snapshot lifetime
func (s *Service) TTL() time.Duration {
	return s.cache.TTL()
}
