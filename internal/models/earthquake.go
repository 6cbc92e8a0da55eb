package models

import "time"

const (
	SourceDetected = "detected"
	SourceExpected = "expected"
)

type Earthquake struct {
	ID                string   // Row ID from the backend (e.g., "exp-us7000abcd" for estimates)
	EarthquakeID      string   // Identifier shared by a real event and its estimate
	Source            string   // "detected" or "expected"
	IsReal            bool     // true for sensor-detected events
	Magnitude         float64  // Richter scale
	Depth             float64  // km
	Latitude          float64
	Longitude         float64
	OriginalLatitude  *float64 // coordinates an estimate was derived from
	OriginalLongitude *float64
	Place             string
	RadiusKm          float64 // visual radius shown on the map
	Time              time.Time
}

// EarthquakePair associates a real earthquake with its estimate. Either side
// may be nil when the pair is built from a single-type listing.
type EarthquakePair struct {
	Real      *Earthquake
	Estimated *Earthquake
}

// Complete reports whether both sides of the pair are present.
func (p EarthquakePair) Complete() bool {
	return p.Real != nil && p.Estimated != nil
}

// Key returns the shared earthquake identifier of the pair.
func (p EarthquakePair) Key() string {
	if p.Real != nil {
		return p.Real.EarthquakeID
	}
	if p.Estimated != nil {
		return p.Estimated.EarthquakeID
	}
	return ""
}
