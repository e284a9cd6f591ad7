package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/wonny/presence/backend/internal/api/handlers"
	"github.com/wonny/presence/backend/internal/contracts"
	"github.com/wonny/presence/backend/internal/dashboard"
	"github.com/wonny/presence/backend/internal/settings"
	"github.com/wonny/presence/backend/internal/testhelpers"
	"github.com/wonny/presence/backend/pkg/logger"
)

type exampleLoader struct{}

func (exampleLoader) Load(context.Context) (*contracts.RawTables, error) {
	return testhelpers.ExampleTables(), nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	svc := dashboard.NewService(exampleLoader{}, dashboard.NewSnapshotCache(time.Hour), settings.Default(), logger.NewNop())
	h := handlers.NewDashboardHandler(svc, nil, rate.NewLimiter(rate.Every(time.Hour), 1), logger.NewNop())
	return NewRouter(h, logger.NewNop())
}

func do(router http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		method string
		target string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/dashboard", http.StatusOK},
		{http.MethodGet, "/analysis", http.StatusOK},
		{http.MethodGet, "/api/report", http.StatusOK},
		{http.MethodGet, "/api/overview", http.StatusOK},
		{http.MethodGet, "/api/filters", http.StatusOK},
		{http.MethodGet, "/api/export/zones.csv", http.StatusOK},
		{http.MethodGet, "/api/export/unknown.csv", http.StatusNotFound},
		{http.MethodGet, "/api/export/Brands.csv", http.StatusNotFound},
		{http.MethodPost, "/api/report", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/refresh", http.StatusMethodNotAllowed},
		{http.MethodGet, "/settings", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := do(router, tt.method, tt.target, nil)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRouter_Refresh(t *testing.T) {
	router := newTestRouter(t)

	assert.Equal(t, http.StatusOK, do(router, http.MethodPost, "/api/refresh", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(router, http.MethodPost, "/api/refresh", nil).Code)
}

func TestRouter_RequestID(t *testing.T) {
	router := newTestRouter(t)

	rec := do(router, http.MethodGet, "/health", http.Header{RequestIDHeader: []string{"abc-123"}})
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	rec = do(router, http.MethodGet, "/health", nil)
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
}

func TestRequestIDMiddleware_Context(t *testing.T) {
	var seen string
	h := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-1", seen)
	assert.Empty(t, RequestID(context.Background()))
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/report", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Internal server error", body["error"])
}

func TestLoggingMiddleware_KeepsStatus(t *testing.T) {
	h := loggingMiddleware(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}
