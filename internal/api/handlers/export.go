package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/presence/backend/internal/aggregate"
	"github.com/wonny/presence/backend/internal/contracts"
)

// exportViews lists the views that can be downloaded
var exportViews = []string{"brands", "segments", "zones", "products", "daily"}

// ExportCSV downloads one aggregate view for the requested filter
// GET /api/export/{view}.csv
func (h *DashboardHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	view := mux.Vars(r)["view"]
	if !knownView(view) {
		respondError(w, http.StatusNotFound, fmt.Sprintf("Unknown view %q (expected one of %v)", view, exportViews))
		return
	}

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

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", view+".csv"))

	cw := csv.NewWriter(w)
	for _, record := range Records(view, &report.Views) {
		if err := cw.Write(record); err != nil {
			h.logger.WithError(err).Error("Failed to write CSV")
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.WithError(err).Error("Failed to write CSV")
	}
}

func knownView(view string) bool {
	for _, v := range exportViews {
		if v == view {
			return true
		}
	}
	return false
}

// Records renders a view as a header row followed by one row per group.
// Rates are rounded to 3 decimals.
func Records(view string, v *contracts.Views) [][]string {
	stats := []string{"observations", "presences", "taux_presence"}

	switch view {
	case "brands":
		out := [][]string{append([]string{"marque"}, append(stats, "nb_produits")...)}
		for _, s := range v.Brands {
			out = append(out, append(append([]string{aggregate.Label(s.Marque)}, statCells(s.GroupStats)...), strconv.Itoa(s.NbProduits)))
		}
		return out
	case "segments":
		out := [][]string{append([]string{"segment"}, stats...)}
		for _, s := range v.Segments {
			out = append(out, append([]string{aggregate.Label(s.Segment)}, statCells(s.GroupStats)...))
		}
		return out
	case "zones":
		out := [][]string{append([]string{"zone"}, append(stats, "nb_points_vente")...)}
		for _, s := range v.Zones {
			out = append(out, append(append([]string{aggregate.Label(s.Zone)}, statCells(s.GroupStats)...), strconv.Itoa(s.NbPointsVente)))
		}
		return out
	case "products":
		out := [][]string{append([]string{"nom_produit", "marque"}, stats...)}
		for _, s := range v.Products {
			out = append(out, append([]string{aggregate.Label(s.NomProduit), aggregate.Label(s.Marque)}, statCells(s.GroupStats)...))
		}
		return out
	case "daily":
		out := [][]string{append([]string{"date"}, stats...)}
		for _, s := range v.Daily {
			out = append(out, append([]string{s.Date.String()}, statCells(s.GroupStats)...))
		}
		return out
	default:
		return nil
	}
}

func statCells(s contracts.GroupStats) []string {
	return []string{
		strconv.Itoa(s.Observations),
		strconv.Itoa(s.Presences),
		strconv.FormatFloat(s.TauxPresence.Rounded(), 'f', -1, 64),
	}
}
