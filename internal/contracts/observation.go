package contracts

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// DayLayout is the text form of a Day
const DayLayout = "2006-01-02"

// Day is a calendar date, always held at midnight UTC
type Day struct {
	time.Time
}

// DayOf truncates t to its calendar date
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDay parses YYYY-MM-DD
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return Day{t}, nil
}

func (d Day) String() string {
	return d.Format(DayLayout)
}

// MarshalJSON encodes the day as "YYYY-MM-DD"
func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes "YYYY-MM-DD"
func (d *Day) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// EnrichedObservation is one observation joined with its product and
// point of sale, with the calendar fields derived from DateReference.
// Nullable fields stay invalid when the left join found no match.
type EnrichedObservation struct {
	ProductID string    `json:"product_id"`
	Value     int       `json:"value"`
	CreatedOn time.Time `json:"created_on"`

	NomProduit pgtype.Text `json:"nom_produit"`
	Marque     pgtype.Text `json:"marque"`
	Segment    pgtype.Text `json:"segment"`

	NomPointVente pgtype.Text      `json:"nom_point_vente"`
	Zone          pgtype.Text      `json:"zone"`
	Latitude      pgtype.Float8    `json:"latitude"`
	Longitude     pgtype.Float8    `json:"longitude"`
	DateOuverture pgtype.Timestamp `json:"date_ouverture"`

	DateReference time.Time `json:"date_reference"`
	Annee         int       `json:"annee"`
	Mois          int       `json:"mois"`
	JourSemaine   string    `json:"jour_semaine"`
	Semaine       int       `json:"semaine"`
	Date          Day       `json:"date"`

	// Extra carries the remaining catalogue attributes by final column name
	Extra map[string]any `json:"extra,omitempty"`
}

// HasCoordinates reports whether the point of sale can be placed on a map
func (o *EnrichedObservation) HasCoordinates() bool {
	return o.Latitude.Valid && o.Longitude.Valid
}

// Fixed columns of the enriched table, in output order
var EnrichedColumns = []string{
	"product_id", "value", "created_on",
	"nom_produit", "marque", "segment",
	"nom_point_vente", "zone", "latitude", "longitude", "date_ouverture",
	"date_reference", "annee", "mois", "jour_semaine", "semaine", "date",
}

// EnrichedTable is the working table every aggregate is computed from.
// It is never mutated once built.
type EnrichedTable struct {
	Columns []string              `json:"columns"`
	Rows    []EnrichedObservation `json:"rows"`
}

// Len returns the number of rows
func (t *EnrichedTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}
