package models

import "time"

type AlertSeverity string

const (
	AlertSeverityLow      AlertSeverity = "LOW"
	AlertSeverityModerate AlertSeverity = "MODERATE"
	AlertSeverityHigh     AlertSeverity = "HIGH"
	AlertSeverityCritical AlertSeverity = "CRITICAL"
)

func SeverityForMagnitude(mag float64) AlertSeverity {
	switch {
	case mag >= 6.0:
		return AlertSeverityCritical
	case mag >= 4.5:
		return AlertSeverityHigh
	case mag >= 2.5:
		return AlertSeverityModerate
	default:
		return AlertSeverityLow
	}
}

type Alert struct {
	ID           string
	EarthquakeID string
	Magnitude    float64
	Depth        float64
	Latitude     float64
	Longitude    float64
	DistanceKm   float64 // distance from the user's alert location
	Severity     AlertSeverity
	CreatedAt    time.Time
}

const (
	DefaultAlertRadiusKm    = 50.0
	DefaultMinimumMagnitude = 4.0
)

// AlertPreferences holds the user's proximity alert settings. Latitude and
// Longitude are nil until the user picks a location.
type AlertPreferences struct {
	Latitude         *float64
	Longitude        *float64
	AlertRadiusKm    float64
	MinimumMagnitude float64
}

func DefaultAlertPreferences() AlertPreferences {
	return AlertPreferences{
		AlertRadiusKm:    DefaultAlertRadiusKm,
		MinimumMagnitude: DefaultMinimumMagnitude,
	}
}

// HasLocation reports whether both alert coordinates are set.
func (p AlertPreferences) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}
