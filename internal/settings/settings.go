package settings

// Settings are the dashboard knobs that are not secrets: where the data
// lives and how much of each view is shown
type Settings struct {
	Tables  Tables  `yaml:"tables" json:"tables"`
	Limits  Limits  `yaml:"limits" json:"limits"`
	Filters Filters `yaml:"filters" json:"filters"`
}

// Tables names the three tables read by the loader
type Tables struct {
	Observations string `yaml:"observations" json:"observations"`
	Products     string `yaml:"products" json:"products"`
	PointsOfSale string `yaml:"points_of_sale" json:"points_of_sale"`
}

// Limits caps the charted and tabulated views
type Limits struct {
	TopBrands      int `yaml:"top_brands" json:"top_brands"`
	TopProducts    int `yaml:"top_products" json:"top_products"`
	BottomProducts int `yaml:"bottom_products" json:"bottom_products"`
	PreviewRows    int `yaml:"preview_rows" json:"preview_rows"`
}

// Filters holds sidebar defaults
type Filters struct {
	DefaultBrandCount int `yaml:"default_brand_count" json:"default_brand_count"`
}

// Default returns the settings used when no file is configured
func Default() *Settings {
	return &Settings{
		Tables: Tables{
			Observations: "tracking_presence",
			Products:     "produits",
			PointsOfSale: "points_de_vente",
		},
		Limits: Limits{
			TopBrands:      15,
			TopProducts:    10,
			BottomProducts: 10,
			PreviewRows:    1000,
		},
		Filters: Filters{
			DefaultBrandCount: 10,
		},
	}
}
