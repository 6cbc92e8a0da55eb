// Package alerts raises proximity alerts for newly detected earthquakes.
package alerts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/santiagocoriap/quakescope/internal/models"
	"github.com/santiagocoriap/quakescope/internal/observability"
	"github.com/santiagocoriap/quakescope/internal/pairing"
	"github.com/santiagocoriap/quakescope/internal/repository"
)

const DefaultMaxHistory = 100

// Match reports the distance from the alert location to quake when the quake
// should raise an alert under prefs.
func Match(prefs models.AlertPreferences, quake models.Earthquake) (float64, bool) {
	if !prefs.HasLocation() {
		return 0, false
	}
	if quake.Magnitude < prefs.MinimumMagnitude {
		return 0, false
	}
	distance := pairing.Haversine(*prefs.Latitude, *prefs.Longitude, quake.Latitude, quake.Longitude)
	if distance > prefs.AlertRadiusKm {
		return 0, false
	}
	return distance, true
}

// Sink receives every raised alert.
type Sink interface {
	Name() string
	Publish(ctx context.Context, a models.Alert) error
}

type PreferencesGetter interface {
	Get(ctx context.Context) (models.AlertPreferences, error)
}

type Evaluator struct {
	prefs      PreferencesGetter
	history    repository.AlertRepository
	sinks      []Sink
	clock      clockwork.Clock
	metrics    *observability.Metrics
	maxHistory int
}

func NewEvaluator(prefs PreferencesGetter, history repository.AlertRepository, metrics *observability.Metrics, maxHistory int, sinks ...Sink) *Evaluator {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Evaluator{
		prefs:      prefs,
		history:    history,
		sinks:      sinks,
		clock:      clockwork.NewRealClock(),
		metrics:    metrics,
		maxHistory: maxHistory,
	}
}

// WithClock replaces the clock used to stamp alerts.
func (e *Evaluator) WithClock(c clockwork.Clock) *Evaluator {
	e.clock = c
	return e
}

// Evaluate raises an alert for every real quake in quakes that matches the
// current preferences and was not alerted before. It returns the new alerts.
func (e *Evaluator) Evaluate(ctx context.Context, quakes []models.Earthquake) ([]models.Alert, error) {
	prefs, err := e.prefs.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading alert preferences: %w", err)
	}
	if !prefs.HasLocation() {
		return nil, nil
	}

	var raised []models.Alert
	for _, q := range quakes {
		if !q.IsReal {
			continue
		}
		distance, ok := Match(prefs, q)
		if !ok {
			continue
		}

		seen, err := e.history.HasAlert(ctx, q.EarthquakeID)
		if err != nil {
			return raised, fmt.Errorf("error checking alert history: %w", err)
		}
		if seen {
			continue
		}

		a := models.Alert{
			ID:           uuid.NewString(),
			EarthquakeID: q.EarthquakeID,
			Magnitude:    q.Magnitude,
			Depth:        q.Depth,
			Latitude:     q.Latitude,
			Longitude:    q.Longitude,
			DistanceKm:   distance,
			Severity:     models.SeverityForMagnitude(q.Magnitude),
			CreatedAt:    e.clock.Now().UTC(),
		}
		added, err := e.history.AddAlert(ctx, &a, e.maxHistory)
		if err != nil {
			return raised, fmt.Errorf("error recording alert: %w", err)
		}
		if !added {
			// Another worker recorded this earthquake first.
			continue
		}

		e.metrics.AlertsRaised.WithLabelValues(string(a.Severity)).Inc()
		slog.Info("alert raised",
			"earthquake_id", a.EarthquakeID,
			"magnitude", a.Magnitude,
			"distance_km", a.DistanceKm,
			"severity", a.Severity,
		)
		e.publish(ctx, a)
		raised = append(raised, a)
	}
	return raised, nil
}

func (e *Evaluator) publish(ctx context.Context, a models.Alert) {
	for _, s := range e.sinks {
		if err := s.Publish(ctx, a); err != nil {
			e.metrics.AlertPublishFails.WithLabelValues(s.Name()).Inc()
			slog.Warn("error publishing alert", "sink", s.Name(), "earthquake_id", a.EarthquakeID, "error", err)
		}
	}
}
