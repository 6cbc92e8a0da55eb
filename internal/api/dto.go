package api

import (
	"time"

	"github.com/santiagocoriap/quakescope/internal/models"
)

type earthquakeResponse struct {
	ID                string   `json:"id"`
	EarthquakeID      string   `json:"earthquake_id"`
	Source            string   `json:"source"`
	Magnitude         float64  `json:"magnitude"`
	Depth             float64  `json:"depth"`
	Latitude          float64  `json:"latitude"`
	Longitude         float64  `json:"longitude"`
	OriginalLatitude  *float64 `json:"original_latitude,omitempty"`
	OriginalLongitude *float64 `json:"original_longitude,omitempty"`
	Place             string   `json:"place,omitempty"`
	RadiusKm          float64  `json:"radius_km"`
	TimeMs            int64    `json:"time_ms"`
	Time              string   `json:"time"`
}

type pairResponse struct {
	EarthquakeID string              `json:"earthquake_id"`
	Real         *earthquakeResponse `json:"real"`
	Estimated    *earthquakeResponse `json:"estimated"`
}

type pageResponse struct {
	Items    []pairResponse `json:"items"`
	Count    int            `json:"count"`
	Total    int            `json:"total"`
	PageSize int            `json:"page_size"`
	PrevPage *int           `json:"prev_page"`
	NextPage *int           `json:"next_page"`
}

type preferencesBody struct {
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	AlertRadiusKm    *float64 `json:"alert_radius_km"`
	MinimumMagnitude *float64 `json:"minimum_magnitude"`
}

type deviceTokenBody struct {
	Token string `json:"token"`
}

type alertResponse struct {
	ID           string    `json:"id"`
	EarthquakeID string    `json:"earthquake_id"`
	Magnitude    float64   `json:"magnitude"`
	Depth        float64   `json:"depth"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	DistanceKm   float64   `json:"distance_km"`
	Severity     string    `json:"severity"`
	CreatedAt    time.Time `json:"created_at"`
}

func toEarthquakeResponse(q *models.Earthquake) *earthquakeResponse {
	if q == nil {
		return nil
	}
	return &earthquakeResponse{
		ID:                q.ID,
		EarthquakeID:      q.EarthquakeID,
		Source:            q.Source,
		Magnitude:         q.Magnitude,
		Depth:             q.Depth,
		Latitude:          q.Latitude,
		Longitude:         q.Longitude,
		OriginalLatitude:  q.OriginalLatitude,
		OriginalLongitude: q.OriginalLongitude,
		Place:             q.Place,
		RadiusKm:          q.RadiusKm,
		TimeMs:            q.Time.UnixMilli(),
		Time:              q.Time.UTC().Format(time.RFC3339),
	}
}

func toPairResponses(pairs []models.EarthquakePair) []pairResponse {
	out := make([]pairResponse, len(pairs))
	for i, p := range pairs {
		out[i] = pairResponse{
			EarthquakeID: p.Key(),
			Real:         toEarthquakeResponse(p.Real),
			Estimated:    toEarthquakeResponse(p.Estimated),
		}
	}
	return out
}

func toPreferencesBody(p models.AlertPreferences) preferencesBody {
	return preferencesBody{
		Latitude:         p.Latitude,
		Longitude:        p.Longitude,
		AlertRadiusKm:    &p.AlertRadiusKm,
		MinimumMagnitude: &p.MinimumMagnitude,
	}
}

// toPreferences fills unset radius and magnitude with defaults.
func (b preferencesBody) toPreferences() models.AlertPreferences {
	p := models.DefaultAlertPreferences()
	p.Latitude = b.Latitude
	p.Longitude = b.Longitude
	if b.AlertRadiusKm != nil {
		p.AlertRadiusKm = *b.AlertRadiusKm
	}
	if b.MinimumMagnitude != nil {
		p.MinimumMagnitude = *b.MinimumMagnitude
	}
	return p
}

func toAlertResponses(alerts []models.Alert) []alertResponse {
	out := make([]alertResponse, len(alerts))
	for i, a := range alerts {
		out[i] = alertResponse{
			ID:           a.ID,
			EarthquakeID: a.EarthquakeID,
			Magnitude:    a.Magnitude,
			Depth:        a.Depth,
			Latitude:     a.Latitude,
			Longitude:    a.Longitude,
			DistanceKm:   a.DistanceKm,
			Severity:     string(a.Severity),
			CreatedAt:    a.CreatedAt,
		}
	}
	return out
}
