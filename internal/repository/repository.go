package repository

import (
	"context"

	"github.com/santiagocoriap/quakescope/internal/models"
)

type EarthquakeFilter struct {
	MinMagnitude *float64
	MaxMagnitude *float64
	MinDepth     *float64
	MaxDepth     *float64
	IsReal       *bool // nil lists both real and estimated
}

type EarthquakeRepository interface {
	UpsertAll(ctx context.Context, quakes []models.Earthquake) error
	ReplaceAll(ctx context.Context, quakes []models.Earthquake) error
	Exists(ctx context.Context, id string) (bool, error)
	ListEarthquakes(ctx context.Context, opts EarthquakeFilter) ([]models.Earthquake, error)
	Count(ctx context.Context) (int, error)
}

type PreferencesRepository interface {
	GetPreferences(ctx context.Context) (models.AlertPreferences, error)
	SavePreferences(ctx context.Context, p models.AlertPreferences) error
	GetDeviceToken(ctx context.Context) (string, error)
	SaveDeviceToken(ctx context.Context, token string) error
}

type AlertRepository interface {
	AddAlert(ctx context.Context, a *models.Alert, maxHistory int) (bool, error)
	HasAlert(ctx context.Context, earthquakeID string) (bool, error)
	ListAlerts(ctx context.Context, limit int) ([]models.Alert, error)
}
