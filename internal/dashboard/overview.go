package dashboard

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/wonny/presence/backend/internal/aggregate"
	"github.com/wonny/presence/backend/internal/contracts"
	"github.com/wonny/presence/backend/internal/filter"
)

// BuildOverview summarises the whole table next to the filtered subset
func BuildOverview(table *contracts.EnrichedTable, f contracts.Filter, previewRows int) *contracts.Overview {
	rows := filter.Apply(table.Rows, f)
	all := aggregate.ComputeKPIs(table.Rows)
	selected := aggregate.ComputeKPIs(rows)

	ov := &contracts.Overview{
		Filter: f,
		KPIs:   selected,

		Period:             span(table.Rows),
		TotalObservations:  all.TotalObservations,
		TauxPresenceGlobal: all.TauxPresenceGlobal,
		NbProduits:         all.NbProduits,
		NbPointsVente:      all.NbPointsVente,

		FilteredObservations: selected.TotalObservations,
		TauxPresenceFiltre:   selected.TauxPresenceGlobal,
		MarquesSelectionnees: selected.NbMarques,
		SegmentsSelectionnes: selected.NbSegments,
		ZonesSelectionnees:   selected.NbZones,

		Empty:   len(rows) == 0,
		Preview: []contracts.EnrichedObservation{},
	}

	if len(rows) == 0 {
		return ov
	}

	ov.DateSources = dateSources(rows)
	ov.FilteredSpan = span(rows)

	if previewRows < 0 {
		previewRows = 0
	}
	if previewRows > len(rows) {
		previewRows = len(rows)
	}
	ov.Preview = rows[:previewRows:previewRows]

	return ov
}

// dateSources counts rows whose reference date is the opening date
// against those that fell back to the creation date
func dateSources(rows []contracts.EnrichedObservation) *contracts.DateSources {
	ds := &contracts.DateSources{}
	for i := range rows {
		if rows[i].DateOuverture.Valid {
			ds.WithOpeningDate++
		} else {
			ds.WithCreationDate++
		}
	}

	total := float64(len(rows))
	ds.OpeningDatePercent = float64(ds.WithOpeningDate) / total * 100
	ds.CreationPercent = float64(ds.WithCreationDate) / total * 100
	return ds
}

// span is the reference-date extent of rows, nil when rows is empty.
// DaysCovered counts whole days between the first and last instants.
func span(rows []contracts.EnrichedObservation) *contracts.Span {
	if len(rows) == 0 {
		return nil
	}

	first, last := rows[0].DateReference, rows[0].DateReference
	for i := range rows {
		ref := rows[i].DateReference
		if ref.Before(first) {
			first = ref
		}
		if ref.After(last) {
			last = ref
		}
	}

	return &contracts.Span{
		First:       contracts.DayOf(first),
		Last:        contracts.DayOf(last),
		DaysCovered: int(last.Sub(first) / (24 * time.Hour)),
	}
}

// PreviewRecord flattens one row into display strings keyed by column
// name, nulls rendered as empty strings
func PreviewRecord(r *contracts.EnrichedObservation, columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = cell(r, c)
	}
	return out
}

func cell(r *contracts.EnrichedObservation, column string) string {
	switch column {
	case "product_id":
		return r.ProductID
	case "value":
		return itoa(r.Value)
	case "created_on":
		return r.CreatedOn.Format(time.DateTime)
	case "nom_produit":
		return textCell(r.NomProduit)
	case "marque":
		return textCell(r.Marque)
	case "segment":
		return textCell(r.Segment)
	case "nom_point_vente":
		return textCell(r.NomPointVente)
	case "zone":
		return textCell(r.Zone)
	case "latitude":
		return floatCell(r.Latitude)
	case "longitude":
		return floatCell(r.Longitude)
	case "date_ouverture":
		if !r.DateOuverture.Valid {
			return ""
		}
		return r.DateOuverture.Time.Format(time.DateTime)
	case "date_reference":
		return r.DateReference.Format(time.DateTime)
	case "annee":
		return itoa(r.Annee)
	case "mois":
		return itoa(r.Mois)
	case "jour_semaine":
		return r.JourSemaine
	case "semaine":
		return itoa(r.Semaine)
	case "date":
		return r.Date.String()
	default:
		return anyCell(r.Extra[column])
	}
}

func textCell(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}
