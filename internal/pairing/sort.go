package pairing

import (
	"cmp"
	"math"
	"slices"

	"github.com/santiagocoriap/quakescope/internal/models"
)

var genericOptions = []models.SortOption{
	models.SortTimeDesc,
	models.SortTimeAsc,
	models.SortMagnitudeDesc,
	models.SortMagnitudeAsc,
	models.SortDepthDesc,
	models.SortDepthAsc,
}

var pairOptions = append(slices.Clone(genericOptions),
	models.SortRealTimeDesc,
	models.SortRealTimeAsc,
	models.SortRealMagnitudeDesc,
	models.SortRealMagnitudeAsc,
	models.SortRealDepthDesc,
	models.SortRealDepthAsc,
	models.SortEstimatedTimeDesc,
	models.SortEstimatedTimeAsc,
	models.SortEstimatedMagnitudeDesc,
	models.SortEstimatedMagnitudeAsc,
	models.SortEstimatedDepthDesc,
	models.SortEstimatedDepthAsc,
)

// AvailableFor lists the sort options offered for a display mode.
func AvailableFor(t models.EarthquakeType) []models.SortOption {
	if t == models.EarthquakeTypePairs {
		return slices.Clone(pairOptions)
	}
	return slices.Clone(genericOptions)
}

// EnsureAllowed returns option when it is offered for t, otherwise the
// first option offered.
func EnsureAllowed(option models.SortOption, t models.EarthquakeType) models.SortOption {
	available := AvailableFor(t)
	if slices.Contains(available, option) {
		return option
	}
	return available[0]
}

// Sort returns a stably sorted copy of pairs.
func Sort(pairs []models.EarthquakePair, option models.SortOption) []models.EarthquakePair {
	if len(pairs) == 0 {
		return pairs
	}
	out := slices.Clone(pairs)
	slices.SortStableFunc(out, Comparator(option))
	return out
}

// side extracts an optional value from one earthquake of a pair.
type side func(p models.EarthquakePair) (float64, bool)

func realSide(field func(*models.Earthquake) float64) side {
	return func(p models.EarthquakePair) (float64, bool) {
		if p.Real == nil {
			return 0, false
		}
		return field(p.Real), true
	}
}

func estimatedSide(field func(*models.Earthquake) float64) side {
	return func(p models.EarthquakePair) (float64, bool) {
		if p.Estimated == nil {
			return 0, false
		}
		return field(p.Estimated), true
	}
}

func timeOf(e *models.Earthquake) float64      { return float64(e.Time.UnixMilli()) }
func magnitudeOf(e *models.Earthquake) float64 { return e.Magnitude }
func depthOf(e *models.Earthquake) float64     { return e.Depth }

// Comparator returns the ordering for option. Unknown options fall back to
// newest first.
func Comparator(option models.SortOption) func(a, b models.EarthquakePair) int {
	switch option {
	case models.SortTimeAsc:
		return ascending(aggregate(timeOf, math.Min, math.Inf(1)))
	case models.SortMagnitudeDesc:
		return descending(aggregate(magnitudeOf, math.Max, math.Inf(-1)))
	case models.SortMagnitudeAsc:
		return ascending(aggregate(magnitudeOf, math.Min, math.Inf(1)))
	case models.SortDepthDesc:
		return descending(aggregate(depthOf, math.Max, math.Inf(-1)))
	case models.SortDepthAsc:
		return ascending(aggregate(depthOf, math.Min, math.Inf(1)))

	case models.SortRealTimeDesc:
		return optionalDescending(realSide(timeOf))
	case models.SortRealTimeAsc:
		return optionalAscending(realSide(timeOf))
	case models.SortRealMagnitudeDesc:
		return optionalDescending(realSide(magnitudeOf))
	case models.SortRealMagnitudeAsc:
		return optionalAscending(realSide(magnitudeOf))
	case models.SortRealDepthDesc:
		return optionalDescending(realSide(depthOf))
	case models.SortRealDepthAsc:
		return optionalAscending(realSide(depthOf))

	case models.SortEstimatedTimeDesc:
		return optionalDescending(estimatedSide(timeOf))
	case models.SortEstimatedTimeAsc:
		return optionalAscending(estimatedSide(timeOf))
	case models.SortEstimatedMagnitudeDesc:
		return optionalDescending(estimatedSide(magnitudeOf))
	case models.SortEstimatedMagnitudeAsc:
		return optionalAscending(estimatedSide(magnitudeOf))
	case models.SortEstimatedDepthDesc:
		return optionalDescending(estimatedSide(depthOf))
	case models.SortEstimatedDepthAsc:
		return optionalAscending(estimatedSide(depthOf))

	default:
		return descending(aggregate(timeOf, math.Max, math.Inf(-1)))
	}
}

// aggregate folds the present sides of a pair with pick; an empty pair
// yields empty so it sorts last in either direction.
func aggregate(field func(*models.Earthquake) float64, pick func(a, b float64) float64, empty float64) func(models.EarthquakePair) float64 {
	return func(p models.EarthquakePair) float64 {
		v, seen := empty, false
		for _, e := range []*models.Earthquake{p.Real, p.Estimated} {
			if e == nil {
				continue
			}
			if !seen {
				v, seen = field(e), true
				continue
			}
			v = pick(v, field(e))
		}
		return v
	}
}

func ascending(key func(models.EarthquakePair) float64) func(a, b models.EarthquakePair) int {
	return func(a, b models.EarthquakePair) int {
		return cmp.Compare(key(a), key(b))
	}
}

func descending(key func(models.EarthquakePair) float64) func(a, b models.EarthquakePair) int {
	return func(a, b models.EarthquakePair) int {
		return cmp.Compare(key(b), key(a))
	}
}

// compareOptional orders a missing value before any present value.
func compareOptional(a float64, aok bool, b float64, bok bool) int {
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	default:
		return cmp.Compare(a, b)
	}
}

func optionalAscending(key side) func(a, b models.EarthquakePair) int {
	return func(a, b models.EarthquakePair) int {
		av, aok := key(a)
		bv, bok := key(b)
		return compareOptional(av, aok, bv, bok)
	}
}

func optionalDescending(key side) func(a, b models.EarthquakePair) int {
	return func(a, b models.EarthquakePair) int {
		av, aok := key(a)
		bv, bok := key(b)
		return compareOptional(bv, bok, av, aok)
	}
}
