package enrich

import (
	"fmt"

	"github.com/wonny/presence/backend/internal/contracts"
)

// Columns each table must provide
var (
	observationColumns = []string{"product_id", "id_point_de_vente", "value", "created_on"}
	productColumns     = []string{"id", "nom", "marque", "segment"}
	pointOfSaleColumns = []string{"id", "nom", "zone"}
)

// Columns consumed by the pipeline and therefore never carried as extras
var (
	observationConsumed = set("id", "product_id", "id_point_de_vente", "value", "created_on", "date_creation")
	productConsumed     = set("id", "nom", "marque", "segment", "date_creation")
	pointOfSaleConsumed = set("id", "nom", "zone", "latitude", "longitude", "date_ouverture", "date_creation")
)

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// requireColumns fails when t is absent, lacks a required column or
// repeats a column name
func requireColumns(kind string, t *contracts.Table, required []string) error {
	if t == nil {
		return &contracts.SchemaError{Table: kind, Column: "*", Reason: "table not loaded"}
	}

	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if seen[c] {
			return &contracts.SchemaError{Table: t.Name, Column: c, Reason: "duplicate column"}
		}
		seen[c] = true
	}

	for _, c := range required {
		if !seen[c] {
			return &contracts.SchemaError{Table: t.Name, Column: c, Reason: "required column is missing"}
		}
	}

	return nil
}

// extraColumn maps one source column to its name in the enriched table
type extraColumn struct {
	index int
	name  string
}

// columnPlan decides the final name of every carried extra column.
// Product and point-of-sale columns that collide with an existing name are
// suffixed; a collision that survives suffixing is a schema mismatch.
type columnPlan struct {
	observation []extraColumn
	product     []extraColumn
	pointOfSale []extraColumn
	columns     []string
}

func planColumns(raw *contracts.RawTables) (*columnPlan, error) {
	plan := &columnPlan{columns: append([]string(nil), contracts.EnrichedColumns...)}
	taken := set(contracts.EnrichedColumns...)

	for i, c := range raw.Observations.Columns {
		if observationConsumed[c] {
			continue
		}
		if taken[c] {
			return nil, &contracts.SchemaError{
				Table:  raw.Observations.Name,
				Column: c,
				Reason: "collides with a derived column",
			}
		}
		taken[c] = true
		plan.observation = append(plan.observation, extraColumn{index: i, name: c})
		plan.columns = append(plan.columns, c)
	}

	var err error
	plan.product, err = plan.suffixed(raw.Products, productConsumed, "_produit", taken)
	if err != nil {
		return nil, err
	}
	plan.pointOfSale, err = plan.suffixed(raw.PointsOfSale, pointOfSaleConsumed, "_point_vente", taken)
	if err != nil {
		return nil, err
	}

	return plan, nil
}

func (p *columnPlan) suffixed(t *contracts.Table, consumed map[string]bool, suffix string, taken map[string]bool) ([]extraColumn, error) {
	var extras []extraColumn
	for i, c := range t.Columns {
		if consumed[c] {
			continue
		}
		name := c
		if taken[name] {
			name = c + suffix
		}
		if taken[name] {
			return nil, &contracts.SchemaError{
				Table:  t.Name,
				Column: c,
				Reason: fmt.Sprintf("column name %q is ambiguous after the join", name),
			}
		}
		taken[name] = true
		extras = append(extras, extraColumn{index: i, name: name})
		p.columns = append(p.columns, name)
	}
	return extras, nil
}
