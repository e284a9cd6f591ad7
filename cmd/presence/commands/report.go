package commands

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/presence/backend/internal/aggregate"
	"github.com/wonny/presence/backend/internal/api/handlers"
	"github.com/wonny/presence/backend/internal/contracts"
	"github.com/wonny/presence/backend/internal/dashboard"
	"github.com/wonny/presence/backend/internal/filter"
)

// Pages the report command can render
const (
	pageOverview  = "overview"
	pageDashboard = "dashboard"
	pageAnalysis  = "analysis"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Afficher une page du dashboard dans le terminal",
	Long: `Charge les tables une fois et affiche une page du dashboard.

Les filtres suivent la même logique que la barre latérale web :
un filtre absent prend sa valeur par défaut, une valeur vide
désactive le filtre (ex. --zone "").

Example:
  go run ./cmd/presence report
  go run ./cmd/presence report --page dashboard --from 2024-01-01 --to 2024-03-31
  go run ./cmd/presence report --page analysis --marque A --marque B --zone ""`,
	RunE: runReport,
}

var (
	reportPage     string
	reportFrom     string
	reportTo       string
	reportBrands   []string
	reportSegments []string
	reportZones    []string
	reportRows     int
)

func init() {
	rootCmd.AddCommand(reportCmd)

	// Flags
	reportCmd.Flags().StringVar(&reportPage, "page", pageOverview, "page to render (overview|dashboard|analysis)")
	reportCmd.Flags().StringVar(&reportFrom, filter.ParamFrom, "", "first day, YYYY-MM-DD")
	reportCmd.Flags().StringVar(&reportTo, filter.ParamTo, "", "last day, YYYY-MM-DD")
	reportCmd.Flags().StringArrayVar(&reportBrands, filter.ParamBrand, nil, "brand to keep (repeatable)")
	reportCmd.Flags().StringArrayVar(&reportSegments, filter.ParamSegment, nil, "segment to keep (repeatable)")
	reportCmd.Flags().StringArrayVar(&reportZones, filter.ParamZone, nil, "zone to keep (repeatable)")
	reportCmd.Flags().IntVar(&reportRows, "rows", 20, "preview rows shown on the overview page")
}

func runReport(cmd *cobra.Command, args []string) error {
	switch reportPage {
	case pageOverview, pageDashboard, pageAnalysis:
	default:
		return fmt.Errorf("unknown page %q (expected %s, %s or %s)", reportPage, pageOverview, pageDashboard, pageAnalysis)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	svc := a.newService()

	defaults, err := svc.Defaults(ctx)
	if err != nil {
		return err
	}
	f, err := filter.FromQuery(flagQuery(cmd), defaults)
	if err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}

	p := printer{w: cmd.OutOrStdout()}
	switch reportPage {
	case pageOverview:
		ov, err := svc.Overview(ctx, f)
		if err != nil {
			return err
		}
		snap, err := svc.Snapshot(ctx)
		if err != nil {
			return err
		}
		renderOverview(p, ov, snap.Table.Columns, reportRows)
	default:
		report, err := svc.Report(ctx, f)
		if err != nil {
			return err
		}
		if reportPage == pageDashboard {
			renderDashboard(p, report)
		} else {
			renderAnalysis(p, report)
		}
	}

	return nil
}

// flagQuery turns the filter flags that were set into the query parameters
// the web pages use, so both share filter.FromQuery
func flagQuery(cmd *cobra.Command) url.Values {
	q := url.Values{}
	flags := cmd.Flags()
	if flags.Changed(filter.ParamFrom) {
		q.Set(filter.ParamFrom, reportFrom)
	}
	if flags.Changed(filter.ParamTo) {
		q.Set(filter.ParamTo, reportTo)
	}
	if flags.Changed(filter.ParamBrand) {
		q[filter.ParamBrand] = reportBrands
	}
	if flags.Changed(filter.ParamSegment) {
		q[filter.ParamSegment] = reportSegments
	}
	if flags.Changed(filter.ParamZone) {
		q[filter.ParamZone] = reportZones
	}
	return q
}

func renderKPIs(p printer, k contracts.KPIs) {
	p.Section("Indicateurs")
	p.KeyValue("Observations", strconv.Itoa(k.TotalObservations), 16)
	p.KeyValue("Présences", strconv.Itoa(k.TotalPresences), 16)
	p.KeyValue("Taux Global", fmt.Sprintf("%.1f%%", k.TauxPresenceGlobal), 16)
	p.KeyValue("Produits", strconv.Itoa(k.NbProduits), 16)
	p.KeyValue("Points de Vente", strconv.Itoa(k.NbPointsVente), 16)
	p.KeyValue("Marques", strconv.Itoa(k.NbMarques), 16)
	p.KeyValue("Segments", strconv.Itoa(k.NbSegments), 16)
	p.KeyValue("Zones", strconv.Itoa(k.NbZones), 16)
}

func renderOverview(p printer, ov *contracts.Overview, columns []string, rows int) {
	p.Header("Accueil - Vue d'ensemble")

	p.Section("Statistiques Générales")
	if ov.Period != nil {
		p.KeyValue("Période d'analyse", fmt.Sprintf("%s au %s", ov.Period.First, ov.Period.Last), 28)
	}
	p.KeyValue("Nombre total d'observations", strconv.Itoa(ov.TotalObservations), 28)
	p.KeyValue("Taux de présence global", fmt.Sprintf("%.2f%%", ov.TauxPresenceGlobal), 28)
	p.KeyValue("Nombre de produits", strconv.Itoa(ov.NbProduits), 28)
	p.KeyValue("Nombre de points de vente", strconv.Itoa(ov.NbPointsVente), 28)

	p.Section("Données Filtrées")
	p.KeyValue("Observations filtrées", strconv.Itoa(ov.FilteredObservations), 28)
	p.KeyValue("Taux de présence filtré", fmt.Sprintf("%.2f%%", ov.TauxPresenceFiltre), 28)
	p.KeyValue("Marques sélectionnées", strconv.Itoa(ov.MarquesSelectionnees), 28)
	p.KeyValue("Segments sélectionnés", strconv.Itoa(ov.SegmentsSelectionnes), 28)
	p.KeyValue("Zones sélectionnées", strconv.Itoa(ov.ZonesSelectionnees), 28)

	if ov.Empty {
		fmt.Fprintln(p.w)
		p.Warning(handlers.EmptyMessage)
		return
	}

	if ds := ov.DateSources; ds != nil {
		p.Section("Statistiques des dates utilisées")
		p.KeyValue("Avec date d'ouverture", fmt.Sprintf("%d (%.1f%%)", ds.WithOpeningDate, ds.OpeningDatePercent), 28)
		p.KeyValue("Avec date de création", fmt.Sprintf("%d (%.1f%%)", ds.WithCreationDate, ds.CreationPercent), 28)
	}
	if s := ov.FilteredSpan; s != nil {
		p.Section("Étendue temporelle")
		p.KeyValue("Date la plus ancienne", s.First.String(), 28)
		p.KeyValue("Date la plus récente", s.Last.String(), 28)
		p.KeyValue("Nombre de jours couverts", strconv.Itoa(s.DaysCovered), 28)
	}

	preview := ov.Preview
	if rows >= 0 && len(preview) > rows {
		preview = preview[:rows]
	}
	p.Section(fmt.Sprintf("Aperçu des Données (%d/%d lignes)", len(preview), ov.FilteredObservations))
	records := [][]string{columns}
	for i := range preview {
		records = append(records, dashboard.PreviewRecord(&preview[i], columns))
	}
	p.Table(records)
}

func renderDashboard(p printer, report *contracts.Report) {
	p.Header("Tableau de Bord Principal")
	if report.Empty {
		p.Warning(handlers.EmptyMessage)
		return
	}
	renderKPIs(p, report.KPIs)

	p.Section("Taux de Présence par Marque")
	p.Table(handlers.Records("brands", &report.Views))

	p.Section("Répartition par Segment")
	p.Table(handlers.Records("segments", &report.Views))

	p.Section("Évolution Temporelle")
	p.Table(handlers.Records("daily", &report.Views))

	p.Section("Répartition Géographique")
	if len(report.Views.Geo) == 0 {
		p.Info(handlers.NoGeoMessage)
		return
	}
	records := [][]string{{"zone", "latitude", "longitude", "observations", "taux_presence"}}
	for _, g := range report.Views.Geo {
		records = append(records, []string{
			aggregate.Label(g.Zone),
			strconv.FormatFloat(g.Latitude, 'f', 4, 64),
			strconv.FormatFloat(g.Longitude, 'f', 4, 64),
			strconv.Itoa(g.Observations),
			strconv.FormatFloat(g.TauxPresence.Rounded(), 'f', -1, 64),
		})
	}
	p.Table(records)
}

func renderAnalysis(p printer, report *contracts.Report) {
	p.Header("Analyses Détaillées")
	if report.Empty {
		p.Warning(handlers.EmptyMessage)
		return
	}

	p.Section("Top - Meilleurs Produits")
	p.Table(handlers.Records("products", &contracts.Views{Products: report.Views.TopProducts}))

	p.Section("Bottom - Produits à Améliorer")
	p.Table(handlers.Records("products", &contracts.Views{Products: report.Views.BottomProducts}))

	p.Section("Analyse par Zone Géographique")
	p.Table(handlers.Records("zones", &report.Views))
}
