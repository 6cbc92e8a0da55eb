package remote

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/santiagocoriap/quakescope/internal/models"
)

// Backend API response types. Every field is optional on the wire.

type earthquakeDTO struct {
	ID                *string  `json:"id"`
	EarthquakeID      *string  `json:"earthquake_id"`
	Source            *string  `json:"source"`
	Magnitude         *float64 `json:"magnitude"`
	Depth             *float64 `json:"depth"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	OriginalLatitude  *float64 `json:"original_latitude"`
	OriginalLongitude *float64 `json:"original_longitude"`
	Place             *string  `json:"place"`
	RadiusKm          *float64 `json:"radius_km"`
	TimeMs            *int64   `json:"time_ms"`
	Time              *string  `json:"time"`
}

type earthquakeResponse struct {
	Count int             `json:"count"`
	Items []earthquakeDTO `json:"items"`
}

type pairItemDTO struct {
	EarthquakeID *string        `json:"earthquake_id"`
	Real         *earthquakeDTO `json:"real"`
	Expected     *earthquakeDTO `json:"expected"`
}

type pairResponse struct {
	Count int           `json:"count"`
	Items []pairItemDTO `json:"items"`
}

type preferencesRequest struct {
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	AlertRadiusKm    float64  `json:"alertRadiusKm"`
	MinimumMagnitude float64  `json:"minimumMagnitude"`
	FCMToken         *string  `json:"fcmToken"`
}

type deviceTokenRequest struct {
	FCMToken string `json:"fcmToken"`
}

func nonBlank(s *string) (string, bool) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "", false
	}
	return *s, true
}

func orZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// toEarthquake maps a backend row to the domain model. Real rows without an
// earthquake id use their row id; rows without a row id use the earthquake
// id or a random UUID.
func (d earthquakeDTO) toEarthquake(isReal bool) models.Earthquake {
	eqID, hasEqID := nonBlank(d.EarthquakeID)
	if isReal && !hasEqID && d.ID != nil {
		eqID, hasEqID = *d.ID, true
	}

	var id string
	switch {
	case d.ID != nil:
		id = *d.ID
	case hasEqID:
		id = eqID
	default:
		id = uuid.NewString()
	}

	if strings.TrimSpace(eqID) == "" {
		eqID = id
	}

	source := models.SourceExpected
	if isReal {
		source = models.SourceDetected
	}

	q := models.Earthquake{
		ID:                id,
		EarthquakeID:      eqID,
		Source:            source,
		IsReal:            isReal,
		Magnitude:         orZero(d.Magnitude),
		Depth:             orZero(d.Depth),
		Latitude:          orZero(d.Latitude),
		Longitude:         orZero(d.Longitude),
		OriginalLatitude:  d.OriginalLatitude,
		OriginalLongitude: d.OriginalLongitude,
		RadiusKm:          orZero(d.RadiusKm),
		Time:              d.timestamp(),
	}
	if d.Place != nil {
		q.Place = *d.Place
	}
	return q
}

// timestamp prefers time_ms and falls back to parsing the ISO time string.
func (d earthquakeDTO) timestamp() time.Time {
	if d.TimeMs != nil {
		return time.UnixMilli(*d.TimeMs).UTC()
	}
	if d.Time != nil {
		if t, err := time.Parse(time.RFC3339, *d.Time); err == nil {
			return t.UTC()
		}
	}
	return time.UnixMilli(0).UTC()
}

func (p pairItemDTO) toPair() models.EarthquakePair {
	var pair models.EarthquakePair
	if p.Real != nil {
		q := p.Real.toEarthquake(true)
		pair.Real = &q
	}
	if p.Expected != nil {
		q := p.Expected.toEarthquake(false)
		pair.Estimated = &q
	}
	return pair
}
