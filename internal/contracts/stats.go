package contracts

import (
	"math"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Rate is a presence rate in [0,1]. The raw value is kept for sorting;
// it is rounded to 3 decimals only when presented.
type Rate float64

// Rounded returns the rate rounded to 3 decimals
func (r Rate) Rounded() float64 {
	return math.Round(float64(r)*1000) / 1000
}

// Percent returns the rate as a percentage
func (r Rate) Percent() float64 {
	return float64(r) * 100
}

// MarshalJSON emits the rounded rate
func (r Rate) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, r.Rounded(), 'f', -1, 64), nil
}

// GroupStats is the common summary of a group of observations
type GroupStats struct {
	Observations int  `json:"observations"`
	Presences    int  `json:"presences"`
	TauxPresence Rate `json:"taux_presence"`
}

// NewGroupStats computes the rate, reporting 0 for an empty group
func NewGroupStats(observations, presences int) GroupStats {
	s := GroupStats{Observations: observations, Presences: presences}
	if observations > 0 {
		s.TauxPresence = Rate(float64(presences) / float64(observations))
	}
	return s
}

// BrandStat summarises one brand
type BrandStat struct {
	Marque pgtype.Text `json:"marque"`
	GroupStats
	NbProduits int `json:"nb_produits"`
}

// SegmentStat summarises one segment
type SegmentStat struct {
	Segment pgtype.Text `json:"segment"`
	GroupStats
}

// GeoStat summarises one located zone, used for the map
type GeoStat struct {
	Zone      pgtype.Text `json:"zone"`
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	GroupStats
}

// ZoneStat summarises one zone for the tabular breakdown
type ZoneStat struct {
	Zone pgtype.Text `json:"zone"`
	GroupStats
	NbPointsVente int `json:"nb_points_vente"`
}

// DailyStat summarises one calendar day
type DailyStat struct {
	Date Day `json:"date"`
	GroupStats
}

// ProductStat summarises one product within its brand
type ProductStat struct {
	NomProduit pgtype.Text `json:"nom_produit"`
	Marque     pgtype.Text `json:"marque"`
	GroupStats
}

// KPIs are the global indicators shown at the top of the pages
type KPIs struct {
	TotalObservations  int     `json:"total_observations"`
	TotalPresences     int     `json:"total_presences"`
	TauxPresenceGlobal float64 `json:"taux_presence_global"` // percent
	NbProduits         int     `json:"nb_produits"`
	NbPointsVente      int     `json:"nb_points_vente"`
	NbMarques          int     `json:"nb_marques"`
	NbSegments         int     `json:"nb_segments"`
	NbZones            int     `json:"nb_zones"`
}

// Views holds every aggregate derived from one filtered table
type Views struct {
	Brands         []BrandStat   `json:"brands"`
	Segments       []SegmentStat `json:"segments"`
	Geo            []GeoStat     `json:"geo"`
	Zones          []ZoneStat    `json:"zones"`
	Daily          []DailyStat   `json:"daily"`
	Products       []ProductStat `json:"products"`
	TopProducts    []ProductStat `json:"top_products"`
	BottomProducts []ProductStat `json:"bottom_products"`
}

// Report is the outcome of one interaction: the filter that was applied and
// everything computed from the filtered rows
type Report struct {
	Filter   Filter    `json:"filter"`
	LoadedAt time.Time `json:"loaded_at"`
	Rows     int       `json:"rows"`
	Empty    bool      `json:"empty"`
	KPIs     KPIs      `json:"kpis"`
	Views    Views     `json:"views"`
}

// DateSources counts which date each row's reference date came from
type DateSources struct {
	WithOpeningDate    int     `json:"with_opening_date"`
	WithCreationDate   int     `json:"with_creation_date"`
	OpeningDatePercent float64 `json:"opening_date_percent"`
	CreationPercent    float64 `json:"creation_date_percent"`
}

// Span is the temporal extent of a set of rows
type Span struct {
	First       Day `json:"first"`
	Last        Day `json:"last"`
	DaysCovered int `json:"days_covered"`
}

// Overview is the summary page: the whole table next to the filtered subset
type Overview struct {
	Filter   Filter    `json:"filter"`
	LoadedAt time.Time `json:"loaded_at"`
	KPIs     KPIs      `json:"kpis"`

	Period             *Span   `json:"period,omitempty"`
	TotalObservations  int     `json:"total_observations"`
	TauxPresenceGlobal float64 `json:"taux_presence_global"`
	NbProduits         int     `json:"nb_produits"`
	NbPointsVente      int     `json:"nb_points_vente"`

	FilteredObservations int     `json:"filtered_observations"`
	TauxPresenceFiltre   float64 `json:"taux_presence_filtre"`
	MarquesSelectionnees int     `json:"marques_selectionnees"`
	SegmentsSelectionnes int     `json:"segments_selectionnes"`
	ZonesSelectionnees   int     `json:"zones_selectionnees"`

	Empty        bool                  `json:"empty"`
	DateSources  *DateSources          `json:"date_sources,omitempty"`
	FilteredSpan *Span                 `json:"filtered_span,omitempty"`
	Preview      []EnrichedObservation `json:"preview"`
}
