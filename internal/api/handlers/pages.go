package handlers

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/wonny/presence/backend/internal/aggregate"
	"github.com/wonny/presence/backend/internal/contracts"
	"github.com/wonny/presence/backend/internal/dashboard"
	"github.com/wonny/presence/backend/internal/filter"
)

// EmptyMessage is shown instead of charts when the filters match nothing
const EmptyMessage = "Aucune donnée ne correspond aux filtres sélectionnés."

// NoGeoMessage replaces the map when no row carries coordinates
const NoGeoMessage = "Données de géolocalisation insuffisantes pour afficher la carte."

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"pct":   func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"pct2":  func(v float64) string { return fmt.Sprintf("%.2f%%", v) },
	"rate":  func(r contracts.Rate) string { return fmt.Sprintf("%.3f", r.Rounded()) },
	"label": aggregate.Label,
	"day": func(d *contracts.Day) string {
		if d == nil {
			return ""
		}
		return d.String()
	},
	"selected": func(values []string, v string) bool {
		for _, s := range values {
			if s == v {
				return true
			}
		}
		return false
	},
}

var pageTemplates = map[string]*template.Template{
	"overview":  mustPage("overview"),
	"dashboard": mustPage("dashboard"),
	"analysis":  mustPage("analysis"),
}

func mustPage(name string) *template.Template {
	return template.Must(template.New(name).Funcs(templateFuncs).
		ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
}

// pageData is what every page template receives
type pageData struct {
	Title   string
	Page    string
	Query   template.URL
	Options contracts.FilterOptions
	Filter  contracts.Filter
	Error   string
	Empty   bool
	Message string

	KPIs     contracts.KPIs
	Report   *contracts.Report
	Overview *contracts.Overview

	Figures template.JS
	HasGeo  bool
	NoGeo   string

	PreviewColumns []string
	PreviewRows    [][]string
}

// OverviewPage renders the summary of the data and of the selection
// GET /
func (h *DashboardHandler) OverviewPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "overview", "Accueil - Vue d'ensemble", func(ctx context.Context, data *pageData) error {
		ov, err := h.service.Overview(ctx, data.Filter)
		if err != nil {
			return err
		}
		data.Overview = ov
		data.KPIs = ov.KPIs
		data.Empty = ov.Empty

		snap, err := h.service.Snapshot(ctx)
		if err != nil {
			return err
		}
		data.PreviewColumns = snap.Table.Columns
		data.PreviewRows = make([][]string, len(ov.Preview))
		for i := range ov.Preview {
			data.PreviewRows[i] = dashboard.PreviewRecord(&ov.Preview[i], snap.Table.Columns)
		}
		return nil
	})
}

// DashboardPage renders the KPIs and the four main charts
// GET /dashboard
func (h *DashboardHandler) DashboardPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "dashboard", "Tableau de Bord Principal", func(ctx context.Context, data *pageData) error {
		report, err := h.service.Report(ctx, data.Filter)
		if err != nil {
			return err
		}
		data.Report = report
		data.KPIs = report.KPIs
		data.Empty = report.Empty
		if report.Empty {
			return nil
		}

		figures := map[string]figure{
			"brand-chart":   brandFigure(report.Views.Brands),
			"segment-chart": segmentFigure(report.Views.Segments),
			"time-chart":    timeFigure(report.Views.Daily),
		}
		if geo, ok := geoFigure(report.Views.Geo); ok {
			figures["geo-chart"] = geo
			data.HasGeo = true
		}
		data.Figures = mustJSONTemplateJS(figures)
		return nil
	})
}

// AnalysisPage renders the best and worst products and the zone breakdown
// GET /analysis
func (h *DashboardHandler) AnalysisPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "analysis", "Analyses Détaillées", func(ctx context.Context, data *pageData) error {
		report, err := h.service.Report(ctx, data.Filter)
		if err != nil {
			return err
		}
		data.Report = report
		data.KPIs = report.KPIs
		data.Empty = report.Empty
		if report.Empty {
			return nil
		}

		data.Figures = mustJSONTemplateJS(map[string]figure{
			"zone-chart": zoneFigure(report.Views.Zones),
		})
		return nil
	})
}

// renderPage loads the sidebar and the filter, then lets fill complete the
// page. Any failure replaces the content with an error banner.
func (h *DashboardHandler) renderPage(w http.ResponseWriter, r *http.Request, page, title string, fill func(ctx context.Context, data *pageData) error) {
	ctx := r.Context()
	data := &pageData{
		Title:   title,
		Page:    page,
		Message: EmptyMessage,
		NoGeo:   NoGeoMessage,
		Figures: template.JS("{}"),
	}

	status := http.StatusOK
	err := func() error {
		opts, err := h.service.Options(ctx)
		if err != nil {
			return err
		}
		data.Options = opts

		f, err := h.resolveFilter(r)
		if err != nil {
			return err
		}
		data.Filter = f
		data.Query = template.URL("?" + filter.Query(f).Encode())

		return fill(ctx, data)
	}()
	if err != nil {
		status = statusFor(err)
		data.Error = messageFor(err)
		h.logger.WithError(err).WithField("page", page).Error("Failed to render page")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplates[page].ExecuteTemplate(w, "layout", data); err != nil {
		h.logger.WithError(err).WithField("page", page).Error("Template error")
	}
}

func mustJSONTemplateJS(v any) template.JS {
	b, err := json.Marshal(v)
	if err != nil {
		return template.JS("null")
	}
	return template.JS(b)
}
