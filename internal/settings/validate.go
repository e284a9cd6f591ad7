package settings

import (
	"fmt"
	"regexp"
)

// ValidationError names the offending key
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// optionally schema-qualified SQL identifier
var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Validate checks the settings can drive the loader and the views
func Validate(s *Settings) error {
	tables := []struct {
		field, name string
	}{
		{"tables.observations", s.Tables.Observations},
		{"tables.products", s.Tables.Products},
		{"tables.points_of_sale", s.Tables.PointsOfSale},
	}
	for _, t := range tables {
		if !tableName.MatchString(t.name) {
			return ValidationError{t.field, fmt.Sprintf("invalid table name %q", t.name)}
		}
	}

	limits := []struct {
		field string
		value int
	}{
		{"limits.top_brands", s.Limits.TopBrands},
		{"limits.top_products", s.Limits.TopProducts},
		{"limits.bottom_products", s.Limits.BottomProducts},
		{"limits.preview_rows", s.Limits.PreviewRows},
	}
	for _, l := range limits {
		if l.value <= 0 {
			return ValidationError{l.field, "must be > 0"}
		}
	}

	if s.Filters.DefaultBrandCount < 0 {
		return ValidationError{"filters.default_brand_count", "must be >= 0"}
	}

	return nil
}
