package contracts

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Filter is the sidebar state. Every predicate is optional: a nil bound
// or an empty set leaves that dimension unfiltered.
type Filter struct {
	From     *Day     `json:"from,omitempty"`
	To       *Day     `json:"to,omitempty"`
	Brands   []string `json:"brands,omitempty"`
	Segments []string `json:"segments,omitempty"`
	Zones    []string `json:"zones,omitempty"`
}

// Key returns a stable digest of the filter, independent of set order
func (f Filter) Key() string {
	canon := struct {
		From, To                string
		Brands, Segments, Zones []string
	}{
		Brands:   sortedCopy(f.Brands),
		Segments: sortedCopy(f.Segments),
		Zones:    sortedCopy(f.Zones),
	}
	if f.From != nil {
		canon.From = f.From.String()
	}
	if f.To != nil {
		canon.To = f.To.String()
	}

	b, _ := json.Marshal(canon)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

// FilterOptions lists what the sidebar can offer for the loaded table
type FilterOptions struct {
	MinDate  *Day     `json:"min_date,omitempty"`
	MaxDate  *Day     `json:"max_date,omitempty"`
	Brands   []string `json:"brands"`
	Segments []string `json:"segments"`
	Zones    []string `json:"zones"`
}
