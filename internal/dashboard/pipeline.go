// Package dashboard turns the raw tables into what the pages show: it owns
// the time-boxed snapshot of the enriched table and recomputes every view
// from it for each filter.
package dashboard

import (
	"github.com/wonny/presence/backend/internal/aggregate"
	"github.com/wonny/presence/backend/internal/contracts"
	"github.com/wonny/presence/backend/internal/enrich"
	"github.com/wonny/presence/backend/internal/filter"
	"github.com/wonny/presence/backend/pkg/logger"
)

// Compute runs the whole pipeline: enrich the raw tables, apply the filter
// and derive the KPIs and every view from the filtered rows
// ⭐ SSOT: (raw tables, filter) -> (views, kpis)
func Compute(raw *contracts.RawTables, f contracts.Filter, limits aggregate.Limits) (*contracts.Report, error) {
	table, err := enrich.Enrich(raw)
	if err != nil {
		return nil, err
	}
	return Summarize(table, f, aggregate.NewAggregator(limits, logger.NewNop())), nil
}

// Summarize filters an already enriched table and aggregates the result.
// An empty selection is not an error: the report is marked Empty and its
// views are empty.
func Summarize(table *contracts.EnrichedTable, f contracts.Filter, agg *aggregate.Aggregator) *contracts.Report {
	rows := filter.Apply(table.Rows, f)

	return &contracts.Report{
		Filter: f,
		Rows:   len(rows),
		Empty:  len(rows) == 0,
		KPIs:   agg.KPIs(rows),
		Views:  agg.Build(rows),
	}
}
