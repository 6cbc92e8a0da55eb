// Package preferences stores the user's alert preferences and device token
// locally and mirrors them to the backend.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/santiagocoriap/quakescope/internal/models"
	"github.com/santiagocoriap/quakescope/internal/repository"
)

var (
	ErrInvalidPreferences = errors.New("invalid alert preferences")
	ErrEmptyToken         = errors.New("device token must not be empty")
)

// Mirror is the backend side of the preferences.
type Mirror interface {
	UpdatePreferences(ctx context.Context, p models.AlertPreferences, token string) error
	UpdateDeviceToken(ctx context.Context, token string) error
}

type Service struct {
	store  repository.PreferencesRepository
	mirror Mirror

	mu        sync.Mutex
	observers map[chan models.AlertPreferences]struct{}
}

func NewService(store repository.PreferencesRepository, mirror Mirror) *Service {
	return &Service{
		store:     store,
		mirror:    mirror,
		observers: make(map[chan models.AlertPreferences]struct{}),
	}
}

func (s *Service) Get(ctx context.Context) (models.AlertPreferences, error) {
	return s.store.GetPreferences(ctx)
}

// Observe emits the current preferences, then every saved update. Slow
// readers only see the latest value. The channel closes when ctx ends.
func (s *Service) Observe(ctx context.Context) (<-chan models.AlertPreferences, error) {
	current, err := s.store.GetPreferences(ctx)
	if err != nil {
		return nil, err
	}

	ch := make(chan models.AlertPreferences, 1)
	ch <- current

	s.mu.Lock()
	s.observers[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.observers, ch)
		close(ch)
		s.mu.Unlock()
	}()

	return ch, nil
}

// Update validates and saves p, then mirrors it to the backend. A mirror
// failure is logged and does not fail the update.
func (s *Service) Update(ctx context.Context, p models.AlertPreferences) error {
	if err := Validate(p); err != nil {
		return err
	}
	if err := s.store.SavePreferences(ctx, p); err != nil {
		return fmt.Errorf("error saving preferences: %w", err)
	}
	s.notify(p)

	token, err := s.store.GetDeviceToken(ctx)
	if err != nil {
		slog.Warn("error reading device token", "error", err)
	}
	if err := s.mirror.UpdatePreferences(ctx, p, token); err != nil {
		slog.Warn("error syncing preferences to backend", "error", err)
	}
	return nil
}

func (s *Service) UpdateDeviceToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	if err := s.store.SaveDeviceToken(ctx, token); err != nil {
		return fmt.Errorf("error saving device token: %w", err)
	}

	if err := s.mirror.UpdateDeviceToken(ctx, token); err != nil {
		slog.Warn("error syncing device token to backend", "error", err)
	}
	return nil
}

func (s *Service) notify(p models.AlertPreferences) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ch := range s.observers {
		// Replace an unread value with the newer one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- p:
		default:
		}
	}
}

func Validate(p models.AlertPreferences) error {
	if p.AlertRadiusKm <= 0 {
		return fmt.Errorf("%w: alert radius must be positive, got %v", ErrInvalidPreferences, p.AlertRadiusKm)
	}
	if p.MinimumMagnitude < 0 {
		return fmt.Errorf("%w: minimum magnitude must not be negative, got %v", ErrInvalidPreferences, p.MinimumMagnitude)
	}
	if p.Latitude != nil && (*p.Latitude < -90 || *p.Latitude > 90) {
		return fmt.Errorf("%w: latitude out of range: %v", ErrInvalidPreferences, *p.Latitude)
	}
	if p.Longitude != nil && (*p.Longitude < -180 || *p.Longitude > 180) {
		return fmt.Errorf("%w: longitude out of range: %v", ErrInvalidPreferences, *p.Longitude)
	}
	return nil
}
