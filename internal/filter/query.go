package filter

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/presence/backend/internal/contracts"
)

// Query parameter names shared by the pages, the JSON API and the CLI
const (
	ParamFrom    = "from"
	ParamTo      = "to"
	ParamBrand   = "marque"
	ParamSegment = "segment"
	ParamZone    = "zone"
)

// FromQuery reads a filter from query parameters. A parameter that is
// absent takes its value from defaults; a set parameter given only empty
// values selects nothing and therefore disables that predicate.
func FromQuery(q url.Values, defaults contracts.Filter) (contracts.Filter, error) {
	f := contracts.Filter{
		From:     defaults.From,
		To:       defaults.To,
		Brands:   defaults.Brands,
		Segments: defaults.Segments,
		Zones:    defaults.Zones,
	}

	if _, ok := q[ParamFrom]; ok {
		day, err := parseBound(q.Get(ParamFrom))
		if err != nil {
			return contracts.Filter{}, fmt.Errorf("%s: %w", ParamFrom, err)
		}
		f.From = day
	}
	if _, ok := q[ParamTo]; ok {
		day, err := parseBound(q.Get(ParamTo))
		if err != nil {
			return contracts.Filter{}, fmt.Errorf("%s: %w", ParamTo, err)
		}
		f.To = day
	}
	if f.From != nil && f.To != nil && f.From.After(f.To.Time) {
		return contracts.Filter{}, fmt.Errorf("%s %s is after %s %s", ParamFrom, f.From, ParamTo, f.To)
	}

	if vals, ok := q[ParamBrand]; ok {
		f.Brands = nonEmpty(vals)
	}
	if vals, ok := q[ParamSegment]; ok {
		f.Segments = nonEmpty(vals)
	}
	if vals, ok := q[ParamZone]; ok {
		f.Zones = nonEmpty(vals)
	}

	return f, nil
}

// Query renders f as query parameters understood by FromQuery
func Query(f contracts.Filter) url.Values {
	q := url.Values{}
	if f.From != nil {
		q.Set(ParamFrom, f.From.String())
	}
	if f.To != nil {
		q.Set(ParamTo, f.To.String())
	}
	setAll(q, ParamBrand, f.Brands)
	setAll(q, ParamSegment, f.Segments)
	setAll(q, ParamZone, f.Zones)
	return q
}

func setAll(q url.Values, key string, values []string) {
	if len(values) == 0 {
		q[key] = []string{""}
		return
	}
	q[key] = append([]string(nil), values...)
}

func parseBound(s string) (*contracts.Day, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	day, err := contracts.ParseDay(s)
	if err != nil {
		return nil, err
	}
	return &day, nil
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
