package handlers

import (
	"github.com/wonny/presence/backend/internal/aggregate"
	"github.com/wonny/presence/backend/internal/contracts"
)

// figure is a Plotly.js figure: traces plus layout
type figure struct {
	Data   []map[string]interface{} `json:"data"`
	Layout map[string]interface{}   `json:"layout"`
}

func brandFigure(brands []contracts.BrandStat) figure {
	x := make([]string, len(brands))
	y := make([]float64, len(brands))
	for i, b := range brands {
		x[i] = aggregate.Label(b.Marque)
		y[i] = b.TauxPresence.Rounded()
	}
	return figure{
		Data: []map[string]interface{}{{
			"type":   "bar",
			"x":      x,
			"y":      y,
			"marker": map[string]interface{}{"color": y, "colorscale": "Viridis", "showscale": true},
		}},
		Layout: map[string]interface{}{
			"title":      "Taux de Présence par Marque (Top 15)",
			"xaxis":      map[string]interface{}{"title": "Marque", "tickangle": -45},
			"yaxis":      map[string]interface{}{"title": "Taux de Présence"},
			"height":     500,
			"showlegend": false,
		},
	}
}

func segmentFigure(segments []contracts.SegmentStat) figure {
	x := make([]float64, len(segments))
	y := make([]string, len(segments))
	for i, s := range segments {
		x[i] = s.TauxPresence.Rounded()
		y[i] = aggregate.Label(s.Segment)
	}
	return figure{
		Data: []map[string]interface{}{{
			"type":        "bar",
			"orientation": "h",
			"x":           x,
			"y":           y,
			"marker":      map[string]interface{}{"color": x, "colorscale": "RdBu", "showscale": true},
		}},
		Layout: map[string]interface{}{
			"title":  "Performance par Segment",
			"xaxis":  map[string]interface{}{"title": "Taux de Présence"},
			"yaxis":  map[string]interface{}{"title": "Segment"},
			"height": 600,
		},
	}
}

// timeFigure is the two-panel series: volume on top, rate below
func timeFigure(daily []contracts.DailyStat) figure {
	dates := make([]string, len(daily))
	obs := make([]int, len(daily))
	rates := make([]float64, len(daily))
	for i, d := range daily {
		dates[i] = d.Date.String()
		obs[i] = d.Observations
		rates[i] = d.TauxPresence.Rounded()
	}
	return figure{
		Data: []map[string]interface{}{
			{
				"type": "scatter", "mode": "lines+markers", "name": "Observations",
				"x": dates, "y": obs, "xaxis": "x", "yaxis": "y",
				"line": map[string]interface{}{"color": "#636EFA", "width": 2},
			},
			{
				"type": "scatter", "mode": "lines+markers", "name": "Taux de Présence",
				"x": dates, "y": rates, "xaxis": "x2", "yaxis": "y2",
				"line": map[string]interface{}{"color": "#EF553B", "width": 2},
			},
		},
		Layout: map[string]interface{}{
			"title":      "Évolution Temporelle (date d'ouverture des points de vente)",
			"grid":       map[string]interface{}{"rows": 2, "columns": 1, "pattern": "independent", "ygap": 0.2},
			"yaxis":      map[string]interface{}{"title": "Observations"},
			"yaxis2":     map[string]interface{}{"title": "Taux de Présence"},
			"height":     600,
			"showlegend": true,
		},
	}
}

// geoFigure places one marker per located zone, sized by volume and
// coloured by rate. ok is false when no row carries coordinates.
func geoFigure(geo []contracts.GeoStat) (fig figure, ok bool) {
	if len(geo) == 0 {
		return figure{}, false
	}

	lat := make([]float64, len(geo))
	lon := make([]float64, len(geo))
	size := make([]int, len(geo))
	color := make([]float64, len(geo))
	text := make([]string, len(geo))
	maxObs := 1
	for i, g := range geo {
		lat[i] = g.Latitude
		lon[i] = g.Longitude
		size[i] = g.Observations
		color[i] = g.TauxPresence.Rounded()
		text[i] = aggregate.Label(g.Zone)
		if g.Observations > maxObs {
			maxObs = g.Observations
		}
	}

	return figure{
		Data: []map[string]interface{}{{
			"type": "scattermapbox",
			"lat":  lat,
			"lon":  lon,
			"text": text,
			"marker": map[string]interface{}{
				"size":       size,
				"sizemode":   "area",
				"sizeref":    float64(maxObs) / 1600,
				"color":      color,
				"colorscale": "RdYlGn",
				"showscale":  true,
			},
		}},
		Layout: map[string]interface{}{
			"title":  "Répartition Géographique des Taux de Présence",
			"mapbox": map[string]interface{}{"style": "open-street-map", "zoom": 6, "center": map[string]float64{"lat": lat[0], "lon": lon[0]}},
			"height": 600,
		},
	}, true
}

func zoneFigure(zones []contracts.ZoneStat) figure {
	x := make([]string, len(zones))
	y := make([]float64, len(zones))
	for i, z := range zones {
		x[i] = aggregate.Label(z.Zone)
		y[i] = z.TauxPresence.Rounded()
	}
	return figure{
		Data: []map[string]interface{}{{
			"type":   "bar",
			"x":      x,
			"y":      y,
			"marker": map[string]interface{}{"color": y, "colorscale": "RdYlGn", "showscale": true},
		}},
		Layout: map[string]interface{}{
			"title":  "Taux de Présence par Zone Géographique",
			"xaxis":  map[string]interface{}{"tickangle": -45},
			"height": 500,
		},
	}
}
