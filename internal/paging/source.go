package paging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/santiagocoriap/quakescope/internal/models"
	"github.com/santiagocoriap/quakescope/internal/pairing"
	"github.com/santiagocoriap/quakescope/internal/repository"
)

// EarthquakeLister is the part of the earthquake cache a PairSource reads.
type EarthquakeLister interface {
	ListEarthquakes(ctx context.Context, opts repository.EarthquakeFilter) ([]models.Earthquake, error)
}

// PairSource pages cached earthquakes as pairs according to a filter.
type PairSource struct {
	store  EarthquakeLister
	filter models.FilterState
}

func NewPairSource(store EarthquakeLister, filter models.FilterState) *PairSource {
	return &PairSource{
		store:  store,
		filter: filter,
	}
}

// Load returns page key (nil means the first page) of size pageSize.
func (s *PairSource) Load(ctx context.Context, key *int, pageSize int) (Page[models.EarthquakePair], error) {
	pageNumber := 0
	if key != nil {
		pageNumber = *key
	}

	pairs, err := s.All(ctx)
	if err != nil {
		return Page[models.EarthquakePair]{}, err
	}

	return Slice(pairs, pageNumber, pageSize)
}

// All returns the full sorted pair list the pages are cut from.
func (s *PairSource) All(ctx context.Context) ([]models.EarthquakePair, error) {
	switch s.filter.Type {
	case models.EarthquakeTypeReal, models.EarthquakeTypeEstimated:
		return s.singles(ctx, s.filter.Type == models.EarthquakeTypeReal)
	default:
		return s.pairs(ctx)
	}
}

func (s *PairSource) singles(ctx context.Context, isReal bool) ([]models.EarthquakePair, error) {
	quakes, err := s.store.ListEarthquakes(ctx, repository.EarthquakeFilter{
		MinMagnitude: &s.filter.MagnitudeRange.Min,
		MaxMagnitude: &s.filter.MagnitudeRange.Max,
		MinDepth:     &s.filter.DepthRange.Min,
		MaxDepth:     &s.filter.DepthRange.Max,
		IsReal:       &isReal,
	})
	if err != nil {
		return nil, fmt.Errorf("error listing cached earthquakes: %w", err)
	}

	pairs := make([]models.EarthquakePair, len(quakes))
	for i := range quakes {
		if isReal {
			pairs[i] = models.EarthquakePair{Real: &quakes[i]}
		} else {
			pairs[i] = models.EarthquakePair{Estimated: &quakes[i]}
		}
	}
	return pairing.Sort(pairs, s.filter.Sort), nil
}

func (s *PairSource) pairs(ctx context.Context) ([]models.EarthquakePair, error) {
	isReal, isEstimated := true, false

	reals, err := s.store.ListEarthquakes(ctx, repository.EarthquakeFilter{IsReal: &isReal})
	if err != nil {
		return nil, fmt.Errorf("error listing cached real earthquakes: %w", err)
	}
	estimates, err := s.store.ListEarthquakes(ctx, repository.EarthquakeFilter{IsReal: &isEstimated})
	if err != nil {
		return nil, fmt.Errorf("error listing cached estimated earthquakes: %w", err)
	}

	var combined []models.EarthquakePair
	if s.filter.Matching == models.MatchByProximity {
		combined = pairing.BuildPairsByProximity(reals, estimates, s.filter.Sort)
	} else {
		combined = pairing.Sort(pairing.CombineIntoPairs(reals, estimates), s.filter.Sort)
	}
	filtered := pairing.FilterPairs(combined, s.filter)

	slog.Debug("pair load",
		"real", len(reals),
		"estimated", len(estimates),
		"combined", len(combined),
		"filtered", len(filtered),
	)
	return filtered, nil
}
