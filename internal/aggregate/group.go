package aggregate

import (
	"cmp"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/wonny/presence/backend/internal/contracts"
)

// accumulator sums one group of observations
type accumulator struct {
	observations int
	presences    int
	distinct     map[string]struct{}
}

func (a *accumulator) add(r *contracts.EnrichedObservation, distinct pgtype.Text) {
	a.observations++
	a.presences += r.Value
	if distinct.Valid && distinct.String != "" {
		if a.distinct == nil {
			a.distinct = make(map[string]struct{})
		}
		a.distinct[distinct.String] = struct{}{}
	}
}

func (a *accumulator) stats() contracts.GroupStats {
	return contracts.NewGroupStats(a.observations, a.presences)
}

// bucket is one group and its key
type bucket[K comparable] struct {
	key K
	acc accumulator
}

// groupBy partitions rows by keyOf. Rows for which keyOf reports false are
// skipped. Buckets come back in key order.
func groupBy[K comparable](
	rows []contracts.EnrichedObservation,
	keyOf func(*contracts.EnrichedObservation) (K, bool),
	distinctOf func(*contracts.EnrichedObservation) pgtype.Text,
	compare func(a, b K) int,
) []*bucket[K] {
	index := make(map[K]*bucket[K])
	for i := range rows {
		r := &rows[i]
		key, ok := keyOf(r)
		if !ok {
			continue
		}
		b, found := index[key]
		if !found {
			b = &bucket[K]{key: key}
			index[key] = b
		}
		var d pgtype.Text
		if distinctOf != nil {
			d = distinctOf(r)
		}
		b.acc.add(r, d)
	}

	buckets := make([]*bucket[K], 0, len(index))
	for _, b := range index {
		buckets = append(buckets, b)
	}
	slices.SortFunc(buckets, func(a, b *bucket[K]) int { return compare(a.key, b.key) })
	return buckets
}

// compareText orders text lexically with nulls last
func compareText(a, b pgtype.Text) int {
	switch {
	case a.Valid && b.Valid:
		return strings.Compare(a.String, b.String)
	case a.Valid:
		return -1
	case b.Valid:
		return 1
	default:
		return 0
	}
}

// byRateDesc sorts stably from the best rate to the worst
func byRateDesc[T any](items []T, rate func(T) contracts.Rate) {
	slices.SortStableFunc(items, func(a, b T) int { return cmp.Compare(rate(b), rate(a)) })
}

// byRateAsc sorts stably from the worst rate to the best
func byRateAsc[T any](items []T, rate func(T) contracts.Rate) {
	slices.SortStableFunc(items, func(a, b T) int { return cmp.Compare(rate(a), rate(b)) })
}

// Label renders a group key for display, "null" for a missing value
func Label(t pgtype.Text) string {
	if !t.Valid {
		return "null"
	}
	return t.String
}
