// Package filter holds the sidebar semantics: which values can be picked,
// what is picked by default and how a selection narrows the table.
package filter

import (
	"slices"
	"sort"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/wonny/presence/backend/internal/contracts"
)

// DefaultBrandCount is how many brands are selected before the user picks
const DefaultBrandCount = 10

// Options lists the distinct non-null brands, segments and zones in lexical
// order, and the observed range of reference days
func Options(table *contracts.EnrichedTable) contracts.FilterOptions {
	opts := contracts.FilterOptions{
		Brands:   []string{},
		Segments: []string{},
		Zones:    []string{},
	}
	if table.Len() == 0 {
		return opts
	}

	brands := make(map[string]struct{})
	segments := make(map[string]struct{})
	zones := make(map[string]struct{})

	minDay := table.Rows[0].Date
	maxDay := minDay
	for i := range table.Rows {
		r := &table.Rows[i]
		collect(brands, r.Marque)
		collect(segments, r.Segment)
		collect(zones, r.Zone)
		if r.Date.Before(minDay.Time) {
			minDay = r.Date
		}
		if r.Date.After(maxDay.Time) {
			maxDay = r.Date
		}
	}

	opts.MinDate = &minDay
	opts.MaxDate = &maxDay
	opts.Brands = sortedKeys(brands)
	opts.Segments = sortedKeys(segments)
	opts.Zones = sortedKeys(zones)
	return opts
}

// Defaults is the selection shown on first access: the full date range,
// the first brandCount brands, every segment and every non-null zone
func Defaults(table *contracts.EnrichedTable, brandCount int) contracts.Filter {
	opts := Options(table)
	if brandCount < 0 {
		brandCount = 0
	}
	brands := opts.Brands
	if len(brands) > brandCount {
		brands = brands[:brandCount]
	}

	return contracts.Filter{
		From:     opts.MinDate,
		To:       opts.MaxDate,
		Brands:   slices.Clone(brands),
		Segments: opts.Segments,
		Zones:    opts.Zones,
	}
}

// Apply returns the rows matching every enabled predicate. A nil bound or
// an empty set disables that predicate. Dates compare by calendar day and
// both bounds are inclusive. rows is not modified.
func Apply(rows []contracts.EnrichedObservation, f contracts.Filter) []contracts.EnrichedObservation {
	brands := toSet(f.Brands)
	segments := toSet(f.Segments)
	zones := toSet(f.Zones)

	out := make([]contracts.EnrichedObservation, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		if f.From != nil && r.Date.Before(f.From.Time) {
			continue
		}
		if f.To != nil && r.Date.After(f.To.Time) {
			continue
		}
		if !member(brands, r.Marque) || !member(segments, r.Segment) || !member(zones, r.Zone) {
			continue
		}
		out = append(out, *r)
	}
	return out
}

func collect(set map[string]struct{}, t pgtype.Text) {
	if t.Valid {
		set[t.String] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// member reports whether t passes a set predicate. A nil set accepts
// everything; an active set never accepts null.
func member(set map[string]struct{}, t pgtype.Text) bool {
	if set == nil {
		return true
	}
	if !t.Valid {
		return false
	}
	_, ok := set[t.String]
	return ok
}
