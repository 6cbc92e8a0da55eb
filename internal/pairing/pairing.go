// Package pairing matches real (detected) earthquakes with their estimates
// and filters the resulting pairs.
//
// Two matching strategies exist. Identifier matching joins on the
// earthquake id the backend shares between a detected event and the
// prediction derived from it. Proximity matching is used when no shared
// id is available: an estimate belongs to the nearest real event that
// occurred less than an hour apart and less than 100 km away, and each
// estimate is claimed at most once.
package pairing

import (
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/santiagocoriap/quakescope/internal/models"
)

const (
	TimeThreshold       = time.Hour
	DistanceThresholdKm = 100.0

	expectedIDPrefix = "exp-"
)

// BuildPairsByProximity greedily assigns to every real earthquake the
// closest unused estimate within the time and distance thresholds. Real
// earthquakes without a candidate are dropped.
func BuildPairsByProximity(real, estimated []models.Earthquake, sort models.SortOption) []models.EarthquakePair {
	pairs := make([]models.EarthquakePair, 0, len(real))
	used := make([]bool, len(estimated))

	for i := range real {
		r := &real[i]
		best := -1
		minDistance := math.MaxFloat64

		for j := range estimated {
			if used[j] {
				continue
			}
			e := &estimated[j]

			timeDiff := r.Time.Sub(e.Time)
			if timeDiff < 0 {
				timeDiff = -timeDiff
			}
			if timeDiff >= TimeThreshold {
				continue
			}

			distance := Haversine(r.Latitude, r.Longitude, e.Latitude, e.Longitude)
			if distance < DistanceThresholdKm && distance < minDistance {
				minDistance = distance
				best = j
			}
		}

		if best >= 0 {
			used[best] = true
			pairs = append(pairs, models.EarthquakePair{Real: r, Estimated: &estimated[best]})
		}
	}

	return Sort(pairs, sort)
}

// CombineIntoPairs joins estimates to real earthquakes on the shared
// earthquake id. Pairs are emitted in estimate order.
func CombineIntoPairs(real, estimated []models.Earthquake) []models.EarthquakePair {
	realByID := make(map[string]*models.Earthquake, len(real))
	for i := range real {
		realByID[real[i].EarthquakeID] = &real[i]
	}

	slog.Debug("combining pairs", "real", len(real), "estimated", len(estimated))

	pairs := make([]models.EarthquakePair, 0, len(estimated))
	for i := range estimated {
		e := &estimated[i]
		key := MatchKey(e)

		r, ok := realByID[key]
		if !ok {
			slog.Debug("no real match for estimate", "id", e.ID, "key", key)
			continue
		}
		pairs = append(pairs, models.EarthquakePair{Real: r, Estimated: e})
	}

	slog.Debug("combined pairs", "count", len(pairs))
	return pairs
}

// MatchKey returns the identifier an estimate is joined on.
func MatchKey(e *models.Earthquake) string {
	switch {
	case strings.TrimSpace(e.EarthquakeID) != "":
		return e.EarthquakeID
	case strings.HasPrefix(e.ID, expectedIDPrefix):
		return strings.TrimPrefix(e.ID, expectedIDPrefix)
	default:
		return e.ID
	}
}

// BuildPairs groups a mixed listing by earthquake id, in order of first
// appearance, taking the first real and first estimate of each group.
func BuildPairs(earthquakes []models.Earthquake, sort models.SortOption) []models.EarthquakePair {
	index := make(map[string]int)
	var pairs []models.EarthquakePair

	for i := range earthquakes {
		e := &earthquakes[i]
		pos, ok := index[e.EarthquakeID]
		if !ok {
			pos = len(pairs)
			index[e.EarthquakeID] = pos
			pairs = append(pairs, models.EarthquakePair{})
		}

		if e.IsReal {
			if pairs[pos].Real == nil {
				pairs[pos].Real = e
			}
		} else if pairs[pos].Estimated == nil {
			pairs[pos].Estimated = e
		}
	}

	return Sort(pairs, sort)
}

// FilterPairs keeps complete pairs whose real side lies within the real
// ranges and whose estimate lies within the estimated ranges.
func FilterPairs(pairs []models.EarthquakePair, filter models.FilterState) []models.EarthquakePair {
	out := make([]models.EarthquakePair, 0, len(pairs))
	for _, p := range pairs {
		if !p.Complete() {
			continue
		}

		realMatch := filter.RealMagnitudeRange.Contains(p.Real.Magnitude) &&
			filter.RealDepthRange.Contains(p.Real.Depth)
		estimatedMatch := filter.EstimatedMagnitudeRange.Contains(p.Estimated.Magnitude) &&
			filter.EstimatedDepthRange.Contains(p.Estimated.Depth)

		if realMatch && estimatedMatch {
			out = append(out, p)
		}
	}
	return out
}
