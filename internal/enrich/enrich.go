package enrich

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/wonny/presence/backend/internal/contracts"
)

// Enrich joins observations with their product and point of sale and
// derives the reference date and calendar fields.
//
// Both joins are left joins driven by the observations. Keys are compared
// as text. Enrich does not modify raw and returns the same table for the
// same input.
func Enrich(raw *contracts.RawTables) (*contracts.EnrichedTable, error) {
	if raw == nil {
		return nil, &contracts.SchemaError{Table: "*", Column: "*", Reason: "no tables loaded"}
	}
	if err := requireColumns("observations", raw.Observations, observationColumns); err != nil {
		return nil, err
	}
	if err := requireColumns("products", raw.Products, productColumns); err != nil {
		return nil, err
	}
	if err := requireColumns("points_of_sale", raw.PointsOfSale, pointOfSaleColumns); err != nil {
		return nil, err
	}

	plan, err := planColumns(raw)
	if err != nil {
		return nil, err
	}

	obs := raw.Observations
	productIdx := index(raw.Products, "id")
	posIdx := index(raw.PointsOfSale, "nom")

	var (
		colProductID = obs.Index("product_id")
		colPOS       = obs.Index("id_point_de_vente")
		colValue     = obs.Index("value")
		colCreatedOn = obs.Index("created_on")
	)

	rows := make([]contracts.EnrichedObservation, 0, len(obs.Rows))
	for i, r := range obs.Rows {
		created := timeOf(r[colCreatedOn])
		if !created.Valid {
			return nil, &contracts.SchemaError{
				Table:  obs.Name,
				Column: "created_on",
				Reason: fmt.Sprintf("row %d: missing or unparseable timestamp %v", i, r[colCreatedOn]),
			}
		}

		value, _ := intOf(r[colValue])
		base := contracts.EnrichedObservation{
			ProductID: textOf(r[colProductID]).String,
			Value:     value,
			CreatedOn: created.Time,
		}

		for _, p := range matches(productIdx, textOf(r[colProductID])) {
			for _, s := range matches(posIdx, textOf(r[colPOS])) {
				row := base
				row.Extra = make(map[string]any, len(plan.columns)-len(contracts.EnrichedColumns))
				for _, c := range plan.observation {
					row.Extra[c.name] = r[c.index]
				}
				applyProduct(&row, raw.Products, p, plan.product)
				applyPointOfSale(&row, raw.PointsOfSale, s, plan.pointOfSale)
				deriveCalendar(&row)
				rows = append(rows, row)
			}
		}
	}

	return &contracts.EnrichedTable{Columns: plan.columns, Rows: rows}, nil
}

// index maps the text form of col to the rows holding it, in table order
func index(t *contracts.Table, col string) map[string][]int {
	ci := t.Index(col)
	idx := make(map[string][]int, len(t.Rows))
	for i, r := range t.Rows {
		key := textOf(r[ci])
		if !key.Valid {
			continue
		}
		idx[key.String] = append(idx[key.String], i)
	}
	return idx
}

// noMatch stands for the null side of a left join
var noMatch = []int{-1}

func matches(idx map[string][]int, key pgtype.Text) []int {
	if !key.Valid {
		return noMatch
	}
	if rows, ok := idx[key.String]; ok {
		return rows
	}
	return noMatch
}

func applyProduct(row *contracts.EnrichedObservation, t *contracts.Table, i int, extras []extraColumn) {
	if i < 0 {
		for _, c := range extras {
			row.Extra[c.name] = nil
		}
		return
	}
	r := t.Rows[i]
	row.NomProduit = textOf(r[t.Index("nom")])
	row.Marque = textOf(r[t.Index("marque")])
	row.Segment = textOf(r[t.Index("segment")])
	for _, c := range extras {
		row.Extra[c.name] = r[c.index]
	}
}

func applyPointOfSale(row *contracts.EnrichedObservation, t *contracts.Table, i int, extras []extraColumn) {
	if i < 0 {
		for _, c := range extras {
			row.Extra[c.name] = nil
		}
		return
	}
	r := t.Rows[i]
	row.NomPointVente = textOf(r[t.Index("nom")])
	row.Zone = textOf(r[t.Index("zone")])
	if ci := t.Index("latitude"); ci >= 0 {
		row.Latitude = floatOf(r[ci])
	}
	if ci := t.Index("longitude"); ci >= 0 {
		row.Longitude = floatOf(r[ci])
	}
	if ci := t.Index("date_ouverture"); ci >= 0 {
		row.DateOuverture = timeOf(r[ci])
	}
	for _, c := range extras {
		row.Extra[c.name] = r[c.index]
	}
}

// deriveCalendar sets the reference date (opening date, else creation
// date) and every field computed from it
func deriveCalendar(row *contracts.EnrichedObservation) {
	ref := row.CreatedOn
	if row.DateOuverture.Valid {
		ref = row.DateOuverture.Time
	}
	ref = ref.UTC()

	_, week := ref.ISOWeek()

	row.DateReference = ref
	row.Annee = ref.Year()
	row.Mois = int(ref.Month())
	row.JourSemaine = ref.Weekday().String()
	row.Semaine = week
	row.Date = contracts.DayOf(ref)
}
