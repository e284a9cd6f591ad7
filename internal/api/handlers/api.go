package handlers

import (
	"net/http"
	"time"

	"github.com/wonny/presence/backend/internal/contracts"
)

// GetReport returns the KPIs and every view for the requested filter
// GET /api/report
func (h *DashboardHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	f, err := h.resolveFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	report, err := h.service.Report(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// GetOverview returns the summary of the whole table and the selection
// GET /api/overview
func (h *DashboardHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	f, err := h.resolveFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ov, err := h.service.Overview(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, ov)
}

// FiltersResponse lists the sidebar choices and the default selection
type FiltersResponse struct {
	Options  contracts.FilterOptions `json:"options"`
	Defaults contracts.Filter        `json:"defaults"`
}

// GetFilters returns what the sidebar can offer
// GET /api/filters
func (h *DashboardHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	opts, err := h.service.Options(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defaults, err := h.service.Defaults(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, FiltersResponse{Options: opts, Defaults: defaults})
}

// RefreshResponse describes the snapshot after a manual reload
type RefreshResponse struct {
	Status   string    `json:"status"`
	LoadedAt time.Time `json:"loaded_at"`
	Rows     int       `json:"rows"`
}

// Refresh reloads the tables now instead of waiting for the TTL
// POST /api/refresh
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.refreshLimiter != nil && !h.refreshLimiter.Allow() {
		respondError(w, http.StatusTooManyRequests, "Refresh rate limit exceeded")
		return
	}
	if h.sharedLimiter != nil {
		allowed, _, err := h.sharedLimiter.Allow(ctx, h.sharedLimit)
		if err != nil {
			h.logger.WithError(err).Warn("Shared rate limiter unavailable")
		} else if !allowed {
			respondError(w, http.StatusTooManyRequests, "Refresh rate limit exceeded")
			return
		}
	}

	snap, err := h.service.Refresh(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, RefreshResponse{
		Status:   "refreshed",
		LoadedAt: snap.LoadedAt,
		Rows:     snap.Table.Len(),
	})
}

// SnapshotStatus describes the cached table in health responses
type SnapshotStatus struct {
	Loaded   bool      `json:"loaded"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
	Rows     int       `json:"rows"`
	Age      string    `json:"age,omitempty"`
	Expired  bool      `json:"expired"`
}

// Health reports the data store and the cached snapshot. It never loads.
// GET /health
func (h *DashboardHandler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":  "ok",
		"service": "presence-dashboard",
	}
	status := http.StatusOK

	if h.health != nil {
		db, err := h.health(r.Context())
		body["database"] = db
		if err != nil {
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	snap := SnapshotStatus{}
	if cached, ok := h.service.Cached(); ok {
		age := cached.Age(time.Now())
		snap = SnapshotStatus{
			Loaded:   true,
			LoadedAt: cached.LoadedAt,
			Rows:     cached.Table.Len(),
			Age:      age.Round(time.Second).String(),
			Expired:  age > h.service.TTL(),
		}
	}
	body["snapshot"] = snap

	respondJSON(w, status, body)
}

// fail logs err and answers with its JSON error body
func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	log := h.logger.WithError(err).WithField("path", r.URL.Path)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed")
	} else {
		log.Warn("Request rejected")
	}
	respondError(w, status, messageFor(err))
}
