package api

import (
	"github.com/santiagocoriap/quakescope/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// toGeoJSON emits one point per earthquake. Both sides of a pair share the
// pair_key property so a map can link them.
func toGeoJSON(pairs []models.EarthquakePair) FeatureCollection {
	features := make([]Feature, 0, len(pairs)*2)

	for _, p := range pairs {
		for _, q := range []*models.Earthquake{p.Real, p.Estimated} {
			if q == nil {
				continue
			}
			props := map[string]any{
				"id":            q.ID,
				"earthquake_id": q.EarthquakeID,
				"source":        q.Source,
				"is_real":       q.IsReal,
				"magnitude":     q.Magnitude,
				"depth":         q.Depth,
				"radius_km":     q.RadiusKm,
				"time":          q.Time,
				"pair_key":      p.Key(),
				"paired":        p.Complete(),
			}
			if q.Place != "" {
				props["place"] = q.Place
			}
			if q.OriginalLatitude != nil && q.OriginalLongitude != nil {
				props["original_coordinates"] = []float64{*q.OriginalLongitude, *q.OriginalLatitude}
			}

			features = append(features, Feature{
				Type: "Feature",
				Geometry: Geometry{
					Type:        "Point",
					Coordinates: []float64{q.Longitude, q.Latitude},
				},
				Properties: props,
			})
		}
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
