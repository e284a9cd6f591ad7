package handlers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/wonny/presence/backend/internal/contracts"
	"github.com/wonny/presence/backend/internal/dashboard"
	"github.com/wonny/presence/backend/internal/settings"
	"github.com/wonny/presence/backend/internal/testhelpers"
	"github.com/wonny/presence/backend/pkg/database"
	"github.com/wonny/presence/backend/pkg/logger"
)

// stubLoader serves fixed tables or a fixed error
type stubLoader struct {
	tables func() *contracts.RawTables
	err    error
}

func (l *stubLoader) Load(context.Context) (*contracts.RawTables, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.tables(), nil
}

func newHandler(t *testing.T, loader contracts.RawLoader) *DashboardHandler {
	t.Helper()
	svc := dashboard.NewService(loader, dashboard.NewSnapshotCache(time.Hour), settings.Default(), logger.NewNop())
	health := func(context.Context) (*database.HealthStatus, error) {
		return &database.HealthStatus{Healthy: true, Driver: "sqlite"}, nil
	}
	return NewDashboardHandler(svc, health, rate.NewLimiter(rate.Every(time.Hour), 1), logger.NewNop())
}

func exampleHandler(t *testing.T) *DashboardHandler {
	return newHandler(t, &stubLoader{tables: testhelpers.ExampleTables})
}

func serve(h http.HandlerFunc, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func document(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func TestGetReport_Defaults(t *testing.T) {
	h := exampleHandler(t)

	rec := serve(h.GetReport, http.MethodGet, "/api/report")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var report contracts.Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, 3, report.Rows)
	assert.False(t, report.Empty)
	assert.InDelta(t, 66.67, report.KPIs.TauxPresenceGlobal, 0.01)
	assert.Equal(t, []string{"A", "B"}, report.Filter.Brands)
	require.Len(t, report.Views.Brands, 2)
	assert.Equal(t, "B", report.Views.Brands[0].Marque.String)
	assert.Equal(t, contracts.Rate(0.5), report.Views.Brands[1].TauxPresence)
}

func TestGetReport_RateIsRoundedInJSON(t *testing.T) {
	raw := func() *contracts.RawTables {
		tables := testhelpers.ExampleTables()
		tables.Observations.Rows = append(tables.Observations.Rows,
			[]any{int64(4), int64(1), "pos1", int64(0), testhelpers.Date(2023, 1, 2)})
		return tables
	}
	h := newHandler(t, &stubLoader{tables: raw})

	rec := serve(h.GetReport, http.MethodGet, "/api/report?marque=A")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"taux_presence":0.333`)
}

func TestGetReport_Errors(t *testing.T) {
	tests := []struct {
		name   string
		loader *stubLoader
		target string
		status int
	}{
		{
			name:   "malformed date",
			loader: &stubLoader{tables: testhelpers.ExampleTables},
			target: "/api/report?from=yesterday",
			status: http.StatusBadRequest,
		},
		{
			name:   "inverted range",
			loader: &stubLoader{tables: testhelpers.ExampleTables},
			target: "/api/report?from=2023-02-01&to=2023-01-01",
			status: http.StatusBadRequest,
		},
		{
			name:   "data unavailable",
			loader: &stubLoader{err: fmt.Errorf("%w: connection refused", contracts.ErrDataUnavailable)},
			target: "/api/report",
			status: http.StatusServiceUnavailable,
		},
		{
			name: "schema mismatch",
			loader: &stubLoader{tables: func() *contracts.RawTables {
				raw := testhelpers.ExampleTables()
				raw.PointsOfSale.Columns[2] = "region"
				return raw
			}},
			target: "/api/report",
			status: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandler(t, tt.loader)

			rec := serve(h.GetReport, http.MethodGet, tt.target)
			assert.Equal(t, tt.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestGetReport_EmptySelection(t *testing.T) {
	h := exampleHandler(t)

	rec := serve(h.GetReport, http.MethodGet, "/api/report?from=2030-01-01&to=2030-12-31")
	require.Equal(t, http.StatusOK, rec.Code)

	var report contracts.Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.True(t, report.Empty)
	assert.Zero(t, report.KPIs.TauxPresenceGlobal)
	assert.Empty(t, report.Views.Brands)
}

func TestGetOverview(t *testing.T) {
	h := exampleHandler(t)

	rec := serve(h.GetOverview, http.MethodGet, "/api/overview?marque=A")
	require.Equal(t, http.StatusOK, rec.Code)

	var ov contracts.Overview
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ov))
	assert.Equal(t, 3, ov.TotalObservations)
	assert.Equal(t, 2, ov.FilteredObservations)
	assert.Len(t, ov.Preview, 2)
}

func TestGetFilters(t *testing.T) {
	h := exampleHandler(t)

	rec := serve(h.GetFilters, http.MethodGet, "/api/filters")
	require.Equal(t, http.StatusOK, rec.Code)

	var body FiltersResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, []string{"A", "B"}, body.Options.Brands)
	assert.Equal(t, []string{"Nord", "Sud"}, body.Options.Zones)
	assert.Equal(t, "2023-01-01", body.Options.MinDate.String())
	assert.Equal(t, "2023-01-02", body.Defaults.To.String())
}

func TestRefresh_RateLimited(t *testing.T) {
	h := exampleHandler(t)

	first := serve(h.Refresh, http.MethodPost, "/api/refresh")
	require.Equal(t, http.StatusOK, first.Code)

	var body RefreshResponse
	require.NoError(t, json.NewDecoder(first.Body).Decode(&body))
	assert.Equal(t, "refreshed", body.Status)
	assert.Equal(t, 3, body.Rows)

	second := serve(h.Refresh, http.MethodPost, "/api/refresh")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRefresh_Failure(t *testing.T) {
	h := newHandler(t, &stubLoader{err: fmt.Errorf("%w: timeout", contracts.ErrDataUnavailable)})

	rec := serve(h.Refresh, http.MethodPost, "/api/refresh")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth(t *testing.T) {
	h := exampleHandler(t)

	rec := serve(h.Health, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status   string                 `json:"status"`
		Database *database.HealthStatus `json:"database"`
		Snapshot SnapshotStatus         `json:"snapshot"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.True(t, body.Database.Healthy)
	assert.False(t, body.Snapshot.Loaded, "health never loads the tables")

	serve(h.GetReport, http.MethodGet, "/api/report")

	rec = serve(h.Health, http.MethodGet, "/health")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.Snapshot.Loaded)
	assert.Equal(t, 3, body.Snapshot.Rows)
	assert.False(t, body.Snapshot.Expired)
}

func TestExportCSV(t *testing.T) {
	h := exampleHandler(t)

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/export/brands.csv", nil), map[string]string{"view": "brands"})
	rec := httptest.NewRecorder()
	h.ExportCSV(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "brands.csv")

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"marque", "observations", "presences", "taux_presence", "nb_produits"},
		{"B", "1", "1", "1", "1"},
		{"A", "2", "1", "0.5", "1"},
	}, records)
}

func TestExportCSV_UnknownView(t *testing.T) {
	h := exampleHandler(t)

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/export/secrets.csv", nil), map[string]string{"view": "secrets"})
	rec := httptest.NewRecorder()
	h.ExportCSV(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecords_AllViews(t *testing.T) {
	report, err := dashboard.Compute(testhelpers.RichTables(), contracts.Filter{}, dashboard.LimitsFrom(settings.Default().Limits))
	require.NoError(t, err)

	for _, view := range exportViews {
		records := Records(view, &report.Views)
		require.NotEmpty(t, records, view)
		for _, r := range records[1:] {
			assert.Len(t, r, len(records[0]), view)
		}
	}
	assert.Nil(t, Records("unknown", &report.Views))
}

func TestDashboardPage(t *testing.T) {
	h := exampleHandler(t)

	rec := serve(h.DashboardPage, http.MethodGet, "/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	doc := document(t, rec)
	assert.Equal(t, "3", doc.Find("#kpi-observations").Text())
	assert.Equal(t, "66.7%", doc.Find("#kpi-rate").Text())
	assert.Equal(t, 1, doc.Find("#brand-chart").Length())
	assert.Equal(t, 1, doc.Find("#segment-chart").Length())
	assert.Equal(t, 1, doc.Find("#time-chart").Length())
	assert.Equal(t, 0, doc.Find("#geo-chart").Length())
	assert.Equal(t, NoGeoMessage, doc.Find("#no-geo").Text())

	assert.Equal(t, 2, doc.Find("select#marque option").Length())
	assert.Equal(t, 2, doc.Find("select#marque option[selected]").Length())
	assert.Equal(t, 0, doc.Find("#error").Length())
	assert.Contains(t, doc.Find("script").Text(), "brand-chart")
}

func TestDashboardPage_WithCoordinates(t *testing.T) {
	h := newHandler(t, &stubLoader{tables: testhelpers.RichTables})

	doc := document(t, serve(h.DashboardPage, http.MethodGet, "/dashboard"))
	assert.Equal(t, 1, doc.Find("#geo-chart").Length())
	assert.Equal(t, 0, doc.Find("#no-geo").Length())
}

func TestDashboardPage_Empty(t *testing.T) {
	h := exampleHandler(t)

	rec := serve(h.DashboardPage, http.MethodGet, "/dashboard?from=2030-01-01&to=2030-12-31")
	require.Equal(t, http.StatusOK, rec.Code)

	doc := document(t, rec)
	assert.Equal(t, EmptyMessage, doc.Find("#empty").Text())
	assert.Equal(t, 0, doc.Find("#kpis").Length())
	assert.Equal(t, 0, doc.Find("#brand-chart").Length())
}

func TestPages_ErrorBanner(t *testing.T) {
	h := newHandler(t, &stubLoader{err: fmt.Errorf("%w: connection refused", contracts.ErrDataUnavailable)})

	pages := map[string]http.HandlerFunc{
		"/":          h.OverviewPage,
		"/dashboard": h.DashboardPage,
		"/analysis":  h.AnalysisPage,
	}
	for target, page := range pages {
		t.Run(target, func(t *testing.T) {
			rec := serve(page, http.MethodGet, target)
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

			doc := document(t, rec)
			assert.Contains(t, doc.Find("#error").Text(), "connection refused")
			assert.Equal(t, 0, doc.Find("#kpis").Length(), "processing stops at the error")
		})
	}
}

func TestPages_BadParameter(t *testing.T) {
	h := exampleHandler(t)

	rec := serve(h.AnalysisPage, http.MethodGet, "/analysis?to=31-12-2023")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1, document(t, rec).Find("#error").Length())
}

func TestOverviewPage(t *testing.T) {
	h := exampleHandler(t)

	doc := document(t, serve(h.OverviewPage, http.MethodGet, "/"))
	assert.Equal(t, 3, doc.Find("#preview tbody tr").Length())
	assert.Contains(t, doc.Find("#date-sources").Text(), "100.0%")
	assert.Contains(t, doc.Find("#general").Text(), "2023-01-01 au 2023-01-02")
	assert.Contains(t, doc.Find("#span").Text(), "Nombre de jours couverts : 1")

	// navigation keeps the current selection
	href, ok := doc.Find("nav a").Eq(1).Attr("href")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(href, "/dashboard?"))
	assert.Contains(t, href, "marque=A")
}

func TestOverviewPage_Empty(t *testing.T) {
	h := exampleHandler(t)

	doc := document(t, serve(h.OverviewPage, http.MethodGet, "/?zone=Ouest"))
	assert.Equal(t, EmptyMessage, doc.Find("#empty").Text())
	assert.Contains(t, doc.Find("#general").Text(), "Nombre total d'observations : 3")
}

func TestAnalysisPage(t *testing.T) {
	h := newHandler(t, &stubLoader{tables: testhelpers.RichTables})

	doc := document(t, serve(h.AnalysisPage, http.MethodGet, "/analysis"))
	assert.Equal(t, 2, doc.Find("table.products").Length())
	assert.Equal(t, 1, doc.Find("#zone-chart").Length())
	assert.Equal(t, 2, doc.Find("#zones tbody tr").Length(), "default zones exclude rows without one")

	// an empty zone selection disables the predicate
	doc = document(t, serve(h.AnalysisPage, http.MethodGet, "/analysis?zone="))
	zones := doc.Find("#zones tbody tr")
	assert.Equal(t, 3, zones.Length(), "Nord, Sud and the null zone")
	assert.Equal(t, "null", zones.Last().Find("td").First().Text())
}
