package dashboard

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/presence/backend/internal/contracts"
	"github.com/wonny/presence/backend/internal/enrich"
	"github.com/wonny/presence/backend/internal/settings"
	"github.com/wonny/presence/backend/internal/testhelpers"
)

// roundTrip encodes v and decodes it into dest, the way the shared report
// cache stores and serves values
func roundTrip(t *testing.T, v, dest any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, dest))
	return data
}

func TestReport_JSONRoundTrip(t *testing.T) {
	report, err := Compute(testhelpers.RichTables(), contracts.Filter{}, LimitsFrom(settings.Default().Limits))
	require.NoError(t, err)

	var decoded contracts.Report
	data := roundTrip(t, report, &decoded)

	again, err := json.Marshal(&decoded)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again), "a cached report encodes like a fresh one")

	assert.Equal(t, report.KPIs, decoded.KPIs)
	require.Len(t, decoded.Views.Brands, len(report.Views.Brands))
	for i, b := range report.Views.Brands {
		got := decoded.Views.Brands[i]
		assert.Equal(t, b.Marque, got.Marque)
		assert.Equal(t, b.Observations, got.Observations)
		assert.InDelta(t, b.TauxPresence.Rounded(), float64(got.TauxPresence), 1e-12, "rates come back rounded")
	}

	require.Len(t, decoded.Views.Zones, len(report.Views.Zones))
	last := decoded.Views.Zones[len(decoded.Views.Zones)-1]
	assert.False(t, last.Zone.Valid, "the null zone stays null")

	require.Len(t, decoded.Views.Daily, len(report.Views.Daily))
	assert.Equal(t, report.Views.Daily[0].Date, decoded.Views.Daily[0].Date)
}

func TestOverview_JSONRoundTrip(t *testing.T) {
	table, err := enrich.Enrich(testhelpers.RichTables())
	require.NoError(t, err)
	ov := BuildOverview(table, contracts.Filter{}, 1000)

	var decoded contracts.Overview
	data := roundTrip(t, ov, &decoded)

	again, err := json.Marshal(&decoded)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))

	require.NotNil(t, decoded.DateSources)
	assert.Equal(t, *ov.DateSources, *decoded.DateSources)
	require.NotNil(t, decoded.FilteredSpan)
	assert.Equal(t, *ov.FilteredSpan, *decoded.FilteredSpan)

	require.Len(t, decoded.Preview, len(ov.Preview))
	first, orig := decoded.Preview[0], ov.Preview[0]
	assert.Equal(t, orig.Marque, first.Marque)
	assert.Equal(t, orig.Latitude, first.Latitude)
	assert.Equal(t, orig.DateOuverture.Valid, first.DateOuverture.Valid)
	assert.True(t, orig.DateOuverture.Time.Equal(first.DateOuverture.Time))
	assert.Equal(t, orig.Date, first.Date)
	assert.Equal(t, "alice", first.Extra["agent"])
	assert.Equal(t, 0.5, first.Extra["prix"])

	// preview rows render the same cells after the trip
	for i := range ov.Preview {
		assert.Equal(t, PreviewRecord(&ov.Preview[i], table.Columns), PreviewRecord(&decoded.Preview[i], table.Columns))
	}
}
