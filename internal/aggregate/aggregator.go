package aggregate

import (
	"cmp"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/wonny/presence/backend/internal/contracts"
	"github.com/wonny/presence/backend/pkg/logger"
)

// Limits caps the charted views
type Limits struct {
	TopBrands      int
	TopProducts    int
	BottomProducts int
}

// DefaultLimits are the caps used by the dashboard pages
func DefaultLimits() Limits {
	return Limits{TopBrands: 15, TopProducts: 10, BottomProducts: 10}
}

// Aggregator computes the grouped views of an enriched table.
// Every method accepts an empty slice and then returns an empty view.
type Aggregator struct {
	limits Limits
	logger *logger.Logger
}

// NewAggregator creates an aggregator
func NewAggregator(limits Limits, log *logger.Logger) *Aggregator {
	return &Aggregator{
		limits: limits,
		logger: log.WithComponent("aggregate"),
	}
}

// Build computes every view from rows
func (a *Aggregator) Build(rows []contracts.EnrichedObservation) contracts.Views {
	products := a.ByProduct(rows)
	top, bottom := TopBottom(products, a.limits.TopProducts, a.limits.BottomProducts)

	views := contracts.Views{
		Brands:         head(a.ByBrand(rows), a.limits.TopBrands),
		Segments:       a.BySegment(rows),
		Geo:            a.ByGeo(rows),
		Zones:          a.ByZone(rows),
		Daily:          a.ByDate(rows),
		Products:       products,
		TopProducts:    top,
		BottomProducts: bottom,
	}

	a.logger.WithFields(map[string]interface{}{
		"rows":     len(rows),
		"brands":   len(views.Brands),
		"segments": len(views.Segments),
		"zones":    len(views.Zones),
		"days":     len(views.Daily),
		"products": len(views.Products),
	}).Debug("Views computed")

	return views
}

// ByBrand groups by brand with the number of distinct products, best rate first
func (a *Aggregator) ByBrand(rows []contracts.EnrichedObservation) []contracts.BrandStat {
	buckets := groupBy(rows,
		func(r *contracts.EnrichedObservation) (pgtype.Text, bool) { return r.Marque, true },
		productKey,
		compareText,
	)

	stats := make([]contracts.BrandStat, 0, len(buckets))
	for _, b := range buckets {
		stats = append(stats, contracts.BrandStat{
			Marque:     b.key,
			GroupStats: b.acc.stats(),
			NbProduits: len(b.acc.distinct),
		})
	}
	byRateDesc(stats, func(s contracts.BrandStat) contracts.Rate { return s.TauxPresence })
	return stats
}

// BySegment groups by segment, worst rate first
func (a *Aggregator) BySegment(rows []contracts.EnrichedObservation) []contracts.SegmentStat {
	buckets := groupBy(rows,
		func(r *contracts.EnrichedObservation) (pgtype.Text, bool) { return r.Segment, true },
		nil,
		compareText,
	)

	stats := make([]contracts.SegmentStat, 0, len(buckets))
	for _, b := range buckets {
		stats = append(stats, contracts.SegmentStat{Segment: b.key, GroupStats: b.acc.stats()})
	}
	byRateAsc(stats, func(s contracts.SegmentStat) contracts.Rate { return s.TauxPresence })
	return stats
}

type geoKey struct {
	zone      pgtype.Text
	latitude  float64
	longitude float64
}

func compareGeo(a, b geoKey) int {
	if c := compareText(a.zone, b.zone); c != 0 {
		return c
	}
	if c := cmp.Compare(a.latitude, b.latitude); c != 0 {
		return c
	}
	return cmp.Compare(a.longitude, b.longitude)
}

// ByGeo groups located rows by zone and coordinates for the map. Rows
// without coordinates are left out.
func (a *Aggregator) ByGeo(rows []contracts.EnrichedObservation) []contracts.GeoStat {
	buckets := groupBy(rows,
		func(r *contracts.EnrichedObservation) (geoKey, bool) {
			if !r.HasCoordinates() {
				return geoKey{}, false
			}
			return geoKey{zone: r.Zone, latitude: r.Latitude.Float64, longitude: r.Longitude.Float64}, true
		},
		nil,
		compareGeo,
	)

	stats := make([]contracts.GeoStat, 0, len(buckets))
	for _, b := range buckets {
		stats = append(stats, contracts.GeoStat{
			Zone:       b.key.zone,
			Latitude:   b.key.latitude,
			Longitude:  b.key.longitude,
			GroupStats: b.acc.stats(),
		})
	}
	return stats
}

// ByZone groups by zone with the number of distinct points of sale, best
// rate first. Every row lands in exactly one group.
func (a *Aggregator) ByZone(rows []contracts.EnrichedObservation) []contracts.ZoneStat {
	buckets := groupBy(rows,
		func(r *contracts.EnrichedObservation) (pgtype.Text, bool) { return r.Zone, true },
		func(r *contracts.EnrichedObservation) pgtype.Text { return r.NomPointVente },
		compareText,
	)

	stats := make([]contracts.ZoneStat, 0, len(buckets))
	for _, b := range buckets {
		stats = append(stats, contracts.ZoneStat{
			Zone:          b.key,
			GroupStats:    b.acc.stats(),
			NbPointsVente: len(b.acc.distinct),
		})
	}
	byRateDesc(stats, func(s contracts.ZoneStat) contracts.Rate { return s.TauxPresence })
	return stats
}

// ByDate groups by calendar day in chronological order
func (a *Aggregator) ByDate(rows []contracts.EnrichedObservation) []contracts.DailyStat {
	buckets := groupBy(rows,
		func(r *contracts.EnrichedObservation) (contracts.Day, bool) { return r.Date, true },
		nil,
		func(a, b contracts.Day) int { return a.Compare(b.Time) },
	)

	stats := make([]contracts.DailyStat, 0, len(buckets))
	for _, b := range buckets {
		stats = append(stats, contracts.DailyStat{Date: b.key, GroupStats: b.acc.stats()})
	}
	return stats
}

type productGroup struct {
	nom    pgtype.Text
	marque pgtype.Text
}

// ByProduct groups by product name and brand, best rate first
func (a *Aggregator) ByProduct(rows []contracts.EnrichedObservation) []contracts.ProductStat {
	buckets := groupBy(rows,
		func(r *contracts.EnrichedObservation) (productGroup, bool) {
			return productGroup{nom: r.NomProduit, marque: r.Marque}, true
		},
		nil,
		func(a, b productGroup) int {
			if c := compareText(a.nom, b.nom); c != 0 {
				return c
			}
			return compareText(a.marque, b.marque)
		},
	)

	stats := make([]contracts.ProductStat, 0, len(buckets))
	for _, b := range buckets {
		stats = append(stats, contracts.ProductStat{
			NomProduit: b.key.nom,
			Marque:     b.key.marque,
			GroupStats: b.acc.stats(),
		})
	}
	byRateDesc(stats, func(s contracts.ProductStat) contracts.Rate { return s.TauxPresence })
	return stats
}

// TopBottom returns the first top and the last bottom products of a list
// sorted best first. The two may overlap when the list is short.
func TopBottom(products []contracts.ProductStat, top, bottom int) ([]contracts.ProductStat, []contracts.ProductStat) {
	return head(products, top), tail(products, bottom)
}

// KPIs computes the global indicators
func (a *Aggregator) KPIs(rows []contracts.EnrichedObservation) contracts.KPIs {
	return ComputeKPIs(rows)
}

// ComputeKPIs computes the global indicators. The rate is a percentage and
// is 0 when there is no observation.
func ComputeKPIs(rows []contracts.EnrichedObservation) contracts.KPIs {
	var (
		presences = 0
		products  = make(map[string]struct{})
		pos       = make(map[string]struct{})
		brands    = make(map[string]struct{})
		segments  = make(map[string]struct{})
		zones     = make(map[string]struct{})
	)

	for i := range rows {
		r := &rows[i]
		presences += r.Value
		addDistinct(products, productKey(r))
		addDistinct(pos, r.NomPointVente)
		addDistinct(brands, r.Marque)
		addDistinct(segments, r.Segment)
		addDistinct(zones, r.Zone)
	}

	return contracts.KPIs{
		TotalObservations:  len(rows),
		TotalPresences:     presences,
		TauxPresenceGlobal: contracts.NewGroupStats(len(rows), presences).TauxPresence.Percent(),
		NbProduits:         len(products),
		NbPointsVente:      len(pos),
		NbMarques:          len(brands),
		NbSegments:         len(segments),
		NbZones:            len(zones),
	}
}

// productKey identifies a product by its id; an empty id is null
func productKey(r *contracts.EnrichedObservation) pgtype.Text {
	return pgtype.Text{String: r.ProductID, Valid: r.ProductID != ""}
}

func addDistinct(set map[string]struct{}, t pgtype.Text) {
	if t.Valid {
		set[t.String] = struct{}{}
	}
}

func head[T any](items []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if n > len(items) {
		n = len(items)
	}
	return items[:n:n]
}

func tail[T any](items []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if n > len(items) {
		n = len(items)
	}
	return items[len(items)-n:]
}
