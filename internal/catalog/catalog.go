// Package catalog serves earthquake listings, combining the backend API with
// the local SQLite cache.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/santiagocoriap/quakescope/internal/models"
	"github.com/santiagocoriap/quakescope/internal/observability"
	"github.com/santiagocoriap/quakescope/internal/paging"
	"github.com/santiagocoriap/quakescope/internal/pairing"
	"github.com/santiagocoriap/quakescope/internal/remote"
	"github.com/santiagocoriap/quakescope/internal/repository"
)

const (
	minRequestLimit = 10
	maxRequestLimit = 500
)

// Backend is the part of the backend API the catalog reads from.
type Backend interface {
	DetectedEarthquakes(ctx context.Context, q remote.Query) ([]models.Earthquake, error)
	ExpectedEarthquakes(ctx context.Context, q remote.Query) ([]models.Earthquake, error)
	PairedEarthquakes(ctx context.Context, q remote.PairQuery) ([]models.EarthquakePair, error)
}

type Service struct {
	backend  Backend
	store    repository.EarthquakeRepository
	metrics  *observability.Metrics
	pageSize int
}

func NewService(backend Backend, store repository.EarthquakeRepository, metrics *observability.Metrics, pageSize int) *Service {
	return &Service{
		backend:  backend,
		store:    store,
		metrics:  metrics,
		pageSize: pageSize,
	}
}

func (s *Service) PageSize() int {
	return s.pageSize
}

// Pairs returns page key (nil is the first page) of the listing described by
// filter. The first page of a REAL or ESTIMATED listing refreshes the cache.
func (s *Service) Pairs(ctx context.Context, filter models.FilterState, key *int) (paging.Page[models.EarthquakePair], error) {
	pageNumber := 0
	if key != nil {
		pageNumber = *key
	}

	if filter.Type == models.EarthquakeTypePairs {
		pairs, err := s.remotePairs(ctx, filter)
		if err != nil {
			slog.Warn("error fetching pairs from backend, using cache", "error", err)
			s.metrics.PairFallbacks.Inc()
			return paging.NewPairSource(s.store, filter).Load(ctx, key, s.pageSize)
		}
		return paging.Slice(pairs, pageNumber, s.pageSize)
	}

	if pageNumber == 0 {
		// Refresh failures leave the cache as it was and are already logged.
		_ = s.Refresh(ctx, filter)
	}
	return paging.NewPairSource(s.store, filter).Load(ctx, key, s.pageSize)
}

// Map returns the whole listing for the map view.
func (s *Service) Map(ctx context.Context, filter models.FilterState) ([]models.EarthquakePair, error) {
	filter.Sort = pairing.EnsureAllowed(filter.Sort, filter.Type)

	if filter.Type == models.EarthquakeTypePairs {
		pairs, err := s.remotePairs(ctx, filter)
		if err != nil {
			slog.Warn("error fetching pairs for map", "error", err)
			return []models.EarthquakePair{}, nil
		}
		return pairs, nil
	}

	_ = s.Refresh(ctx, filter)
	return paging.NewPairSource(s.store, filter).All(ctx)
}

// Refresh replaces the cached earthquakes with a fresh backend snapshot.
// PAIRS listings do not use the cache, so they skip the refresh.
func (s *Service) Refresh(ctx context.Context, filter models.FilterState) error {
	if filter.Type == models.EarthquakeTypePairs {
		return nil
	}

	err := s.refresh(ctx, filter)
	if err != nil {
		slog.Error("error refreshing earthquake cache", "error", err)
		s.metrics.CacheRefreshes.WithLabelValues("error").Inc()
		return err
	}
	s.metrics.CacheRefreshes.WithLabelValues("success").Inc()
	return nil
}

func (s *Service) refresh(ctx context.Context, filter models.FilterState) error {
	q := remote.Query{
		MinMagnitude: &filter.MagnitudeRange.Min,
		MaxMagnitude: &filter.MagnitudeRange.Max,
		Limit:        RequestLimit(filter.Limit),
	}

	detected, err := s.backend.DetectedEarthquakes(ctx, q)
	if err != nil {
		return fmt.Errorf("error fetching detected earthquakes: %w", err)
	}
	expected, err := s.backend.ExpectedEarthquakes(ctx, q)
	if err != nil {
		return fmt.Errorf("error fetching expected earthquakes: %w", err)
	}

	all := make([]models.Earthquake, 0, len(detected)+len(expected))
	all = append(all, detected...)
	all = append(all, expected...)
	if err := s.store.ReplaceAll(ctx, all); err != nil {
		return fmt.Errorf("error replacing cached earthquakes: %w", err)
	}

	s.metrics.CachedEarthquakes.Set(float64(len(all)))
	slog.Info("earthquake cache refreshed", "detected", len(detected), "expected", len(expected))
	return nil
}

func (s *Service) remotePairs(ctx context.Context, filter models.FilterState) ([]models.EarthquakePair, error) {
	pairs, err := s.backend.PairedEarthquakes(ctx, remote.PairQuery{
		RealMinMagnitude:     &filter.RealMagnitudeRange.Min,
		RealMaxMagnitude:     &filter.RealMagnitudeRange.Max,
		RealMinDepth:         &filter.RealDepthRange.Min,
		RealMaxDepth:         &filter.RealDepthRange.Max,
		ExpectedMinMagnitude: &filter.EstimatedMagnitudeRange.Min,
		ExpectedMaxMagnitude: &filter.EstimatedMagnitudeRange.Max,
		ExpectedMinDepth:     &filter.EstimatedDepthRange.Min,
		ExpectedMaxDepth:     &filter.EstimatedDepthRange.Max,
		Limit:                filter.Limit,
	})
	if err != nil {
		return nil, err
	}
	return pairing.Sort(pairs, pairing.EnsureAllowed(filter.Sort, models.EarthquakeTypePairs)), nil
}

// RequestLimit is the number of rows fetched per source on refresh: twice
// the display limit, clamped to [10, 500].
func RequestLimit(limit int) int {
	return min(max(limit*2, minRequestLimit), maxRequestLimit)
}
