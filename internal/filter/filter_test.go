package filter

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/presence/backend/internal/contracts"
	"github.com/wonny/presence/backend/internal/enrich"
	"github.com/wonny/presence/backend/internal/testhelpers"
)

func richTable(t *testing.T) *contracts.EnrichedTable {
	t.Helper()
	table, err := enrich.Enrich(testhelpers.RichTables())
	require.NoError(t, err)
	return table
}

func day(t *testing.T, s string) *contracts.Day {
	t.Helper()
	d, err := contracts.ParseDay(s)
	require.NoError(t, err)
	return &d
}

func TestOptions(t *testing.T) {
	opts := Options(richTable(t))

	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, opts.Brands, "null brand is not offered")
	assert.Equal(t, []string{"Boissons", "Snacks"}, opts.Segments)
	assert.Equal(t, []string{"Nord", "Sud"}, opts.Zones, "null zone is not offered")
	require.NotNil(t, opts.MinDate)
	require.NotNil(t, opts.MaxDate)
	assert.Equal(t, "2024-02-01", opts.MinDate.String())
	assert.Equal(t, "2024-03-08", opts.MaxDate.String())
}

func TestOptions_Empty(t *testing.T) {
	opts := Options(&contracts.EnrichedTable{})
	assert.Nil(t, opts.MinDate)
	assert.Empty(t, opts.Brands)
	assert.NotNil(t, opts.Brands)
}

func TestDefaults(t *testing.T) {
	table := richTable(t)

	f := Defaults(table, 2)
	assert.Equal(t, []string{"Alpha", "Beta"}, f.Brands)
	assert.Equal(t, []string{"Boissons", "Snacks"}, f.Segments)
	assert.Equal(t, []string{"Nord", "Sud"}, f.Zones)
	assert.Equal(t, "2024-02-01", f.From.String())
	assert.Equal(t, "2024-03-08", f.To.String())

	all := Defaults(table, DefaultBrandCount)
	assert.Len(t, all.Brands, 3)
}

func TestApply_NoFilter(t *testing.T) {
	table := richTable(t)
	assert.Len(t, Apply(table.Rows, contracts.Filter{}), table.Len())
}

func TestApply_Predicates(t *testing.T) {
	table := richTable(t)

	tests := []struct {
		name   string
		filter contracts.Filter
		want   int
	}{
		{"brand", contracts.Filter{Brands: []string{"Alpha"}}, 4},
		{"brand excludes null", contracts.Filter{Brands: []string{"Alpha", "Beta", "Gamma"}}, 7},
		{"segment", contracts.Filter{Segments: []string{"Snacks"}}, 3},
		{"zone excludes null", contracts.Filter{Zones: []string{"Nord", "Sud"}}, 6},
		{"from inclusive", contracts.Filter{From: day(t, "2024-03-07")}, 2},
		{"to inclusive", contracts.Filter{To: day(t, "2024-02-01")}, 3},
		{"single day", contracts.Filter{From: day(t, "2024-03-05"), To: day(t, "2024-03-05")}, 2},
		{"composed with AND", contracts.Filter{Brands: []string{"Alpha"}, Zones: []string{"Nord"}}, 2},
		{"unknown brand", contracts.Filter{Brands: []string{"Zeta"}}, 0},
		{"range excludes everything", contracts.Filter{From: day(t, "2030-01-01")}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, Apply(table.Rows, tt.filter), tt.want)
		})
	}
}

func TestApply_DayBoundIgnoresTimeOfDay(t *testing.T) {
	raw := testhelpers.ExampleTables()
	raw.Observations.Rows[0][4] = testhelpers.Date(2023, 1, 1).Add(23*3600*1e9 + 59*60*1e9)

	table, err := enrich.Enrich(raw)
	require.NoError(t, err)

	got := Apply(table.Rows, contracts.Filter{To: day(t, "2023-01-01")})
	assert.Len(t, got, 2)
}

func TestApply_Idempotent(t *testing.T) {
	table := richTable(t)
	f := contracts.Filter{
		From:   day(t, "2024-03-01"),
		Brands: []string{"Alpha", "Beta"},
		Zones:  []string{"Sud", "Nord"},
	}

	once := Apply(table.Rows, f)
	twice := Apply(once, f)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("filter is not idempotent (-once +twice):\n%s", diff)
	}
}

func TestApply_DoesNotModifyInput(t *testing.T) {
	table := richTable(t)
	before := richTable(t)

	_ = Apply(table.Rows, contracts.Filter{Brands: []string{"Beta"}})

	if diff := cmp.Diff(before, table); diff != "" {
		t.Errorf("input modified (-before +after):\n%s", diff)
	}
}

func TestFromQuery(t *testing.T) {
	defaults := contracts.Filter{
		From:   day(t, "2024-01-01"),
		To:     day(t, "2024-12-31"),
		Brands: []string{"Alpha"},
		Zones:  []string{"Nord", "Sud"},
	}

	t.Run("absent parameters keep defaults", func(t *testing.T) {
		f, err := FromQuery(url.Values{}, defaults)
		require.NoError(t, err)
		assert.Equal(t, defaults, f)
	})

	t.Run("explicit values", func(t *testing.T) {
		q := url.Values{
			ParamFrom:    {"2024-03-01"},
			ParamTo:      {"2024-03-31"},
			ParamBrand:   {"Alpha", "Beta"},
			ParamSegment: {"Snacks"},
		}
		f, err := FromQuery(q, defaults)
		require.NoError(t, err)
		assert.Equal(t, "2024-03-01", f.From.String())
		assert.Equal(t, "2024-03-31", f.To.String())
		assert.Equal(t, []string{"Alpha", "Beta"}, f.Brands)
		assert.Equal(t, []string{"Snacks"}, f.Segments)
		assert.Equal(t, []string{"Nord", "Sud"}, f.Zones)
	})

	t.Run("empty values clear the selection", func(t *testing.T) {
		f, err := FromQuery(url.Values{ParamBrand: {""}, ParamFrom: {""}}, defaults)
		require.NoError(t, err)
		assert.Empty(t, f.Brands)
		assert.Nil(t, f.From)
	})

	t.Run("malformed date", func(t *testing.T) {
		_, err := FromQuery(url.Values{ParamFrom: {"01/03/2024"}}, defaults)
		assert.Error(t, err)
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := FromQuery(url.Values{ParamFrom: {"2024-03-02"}, ParamTo: {"2024-03-01"}}, defaults)
		assert.Error(t, err)
	})
}

func TestQuery_RoundTrip(t *testing.T) {
	f := contracts.Filter{
		From:     day(t, "2024-03-01"),
		To:       day(t, "2024-03-31"),
		Brands:   []string{"Alpha", "Beta"},
		Segments: []string{},
		Zones:    []string{"Nord"},
	}

	got, err := FromQuery(Query(f), contracts.Filter{Segments: []string{"Snacks"}})
	require.NoError(t, err)
	assert.Equal(t, f.Key(), got.Key())
	assert.Empty(t, got.Segments)
}
