package models

import "strings"

type EarthquakeType string

const (
	EarthquakeTypeReal      EarthquakeType = "REAL"
	EarthquakeTypeEstimated EarthquakeType = "ESTIMATED"
	EarthquakeTypePairs     EarthquakeType = "PAIRS"
)

func ParseEarthquakeType(s string) (EarthquakeType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "REAL", "DETECTED":
		return EarthquakeTypeReal, true
	case "ESTIMATED", "EXPECTED":
		return EarthquakeTypeEstimated, true
	case "PAIRS", "PAIRED":
		return EarthquakeTypePairs, true
	default:
		return "", false
	}
}

type SortOption string

const (
	SortTimeDesc      SortOption = "TIME_DESC"
	SortTimeAsc       SortOption = "TIME_ASC"
	SortMagnitudeDesc SortOption = "MAGNITUDE_DESC"
	SortMagnitudeAsc  SortOption = "MAGNITUDE_ASC"
	SortDepthDesc     SortOption = "DEPTH_DESC"
	SortDepthAsc      SortOption = "DEPTH_ASC"

	SortRealTimeDesc      SortOption = "REAL_TIME_DESC"
	SortRealTimeAsc       SortOption = "REAL_TIME_ASC"
	SortRealMagnitudeDesc SortOption = "REAL_MAGNITUDE_DESC"
	SortRealMagnitudeAsc  SortOption = "REAL_MAGNITUDE_ASC"
	SortRealDepthDesc     SortOption = "REAL_DEPTH_DESC"
	SortRealDepthAsc      SortOption = "REAL_DEPTH_ASC"

	SortEstimatedTimeDesc      SortOption = "ESTIMATED_TIME_DESC"
	SortEstimatedTimeAsc       SortOption = "ESTIMATED_TIME_ASC"
	SortEstimatedMagnitudeDesc SortOption = "ESTIMATED_MAGNITUDE_DESC"
	SortEstimatedMagnitudeAsc  SortOption = "ESTIMATED_MAGNITUDE_ASC"
	SortEstimatedDepthDesc     SortOption = "ESTIMATED_DEPTH_DESC"
	SortEstimatedDepthAsc      SortOption = "ESTIMATED_DEPTH_ASC"
)

func ParseSortOption(s string) SortOption {
	return SortOption(strings.ToUpper(strings.TrimSpace(s)))
}

// MatchStrategy selects how pairs are built from cached earthquakes.
type MatchStrategy string

const (
	MatchByIdentifier MatchStrategy = "IDENTIFIER"
	MatchByProximity  MatchStrategy = "PROXIMITY"
)

func ParseMatchStrategy(s string) (MatchStrategy, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "IDENTIFIER", "ID":
		return MatchByIdentifier, true
	case "PROXIMITY":
		return MatchByProximity, true
	default:
		return "", false
	}
}

// Range is a closed interval; both ends are inclusive.
type Range struct {
	Min float64
	Max float64
}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

type FilterState struct {
	// MagnitudeRange and DepthRange apply to REAL and ESTIMATED listings.
	MagnitudeRange Range
	DepthRange     Range

	// Per-side ranges apply to PAIRS.
	RealMagnitudeRange      Range
	EstimatedMagnitudeRange Range
	RealDepthRange          Range
	EstimatedDepthRange     Range

	Sort     SortOption
	Limit    int
	Type     EarthquakeType
	Matching MatchStrategy
}

func DefaultFilterState() FilterState {
	return FilterState{
		MagnitudeRange:          Range{Min: 4, Max: 10},
		DepthRange:              Range{Min: 0, Max: 70},
		RealMagnitudeRange:      Range{Min: 4, Max: 10},
		EstimatedMagnitudeRange: Range{Min: 4, Max: 10},
		RealDepthRange:          Range{Min: 0, Max: 70},
		EstimatedDepthRange:     Range{Min: 0, Max: 70},
		Sort:                    SortTimeDesc,
		Limit:                   20,
		Type:                    EarthquakeTypePairs,
		Matching:                MatchByIdentifier,
	}
}
