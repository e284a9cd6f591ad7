package handlers

import (
	"context"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/wonny/presence/backend/internal/contracts"
	"github.com/wonny/presence/backend/internal/dashboard"
	"github.com/wonny/presence/backend/internal/filter"
	"github.com/wonny/presence/backend/pkg/database"
	"github.com/wonny/presence/backend/pkg/logger"
	"github.com/wonny/presence/backend/pkg/redis"
)

// HealthFunc probes the data store
type HealthFunc func(ctx context.Context) (*database.HealthStatus, error)

// DashboardHandler serves the pages, the JSON API and the CSV exports
// ⭐ SSOT: every HTTP entry point of the dashboard lives on this struct
type DashboardHandler struct {
	service *dashboard.Service
	health  HealthFunc
	logger  *logger.Logger

	refreshLimiter *rate.Limiter
	sharedLimiter  *redis.RateLimiter
	sharedLimit    redis.RateLimitConfig
}

// NewDashboardHandler creates a new dashboard handler. limiter bounds
// manual refreshes within this process.
func NewDashboardHandler(service *dashboard.Service, health HealthFunc, limiter *rate.Limiter, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		service:        service,
		health:         health,
		logger:         log.WithComponent("api"),
		refreshLimiter: limiter,
	}
}

// WithSharedLimiter also bounds refreshes across every instance sharing
// the same Redis
func (h *DashboardHandler) WithSharedLimiter(l *redis.RateLimiter, cfg redis.RateLimitConfig) *DashboardHandler {
	h.sharedLimiter = l
	h.sharedLimit = cfg
	return h
}

// resolveFilter reads the filter from the query string, falling back to
// the defaults of the current snapshot for absent parameters
func (h *DashboardHandler) resolveFilter(r *http.Request) (contracts.Filter, error) {
	defaults, err := h.service.Defaults(r.Context())
	if err != nil {
		return contracts.Filter{}, err
	}

	f, err := filter.FromQuery(r.URL.Query(), defaults)
	if err != nil {
		return contracts.Filter{}, &paramError{err: err}
	}
	return f, nil
}
