package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/santiagocoriap/quakescope/internal/models"
)

const (
	keyLatitude         = "alert_latitude"
	keyLongitude        = "alert_longitude"
	keyRadiusKm         = "alert_radius_km"
	keyMinimumMagnitude = "alert_min_magnitude"
	keyDeviceToken      = "fcm_token"
)

// GetPreferences returns the stored alert preferences, filling unset values
// with defaults.
func (s *SQLiteDB) GetPreferences(ctx context.Context) (models.AlertPreferences, error) {
	prefs := models.DefaultAlertPreferences()

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM preferences WHERE key IN (?, ?, ?, ?)`,
		keyLatitude, keyLongitude, keyRadiusKm, keyMinimumMagnitude)
	if err != nil {
		return prefs, fmt.Errorf("error querying preferences: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return prefs, err
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return prefs, fmt.Errorf("error parsing preference %s: %w", key, err)
		}

		switch key {
		case keyLatitude:
			prefs.Latitude = &f
		case keyLongitude:
			prefs.Longitude = &f
		case keyRadiusKm:
			prefs.AlertRadiusKm = f
		case keyMinimumMagnitude:
			prefs.MinimumMagnitude = f
		}
	}
	return prefs, rows.Err()
}

// SavePreferences stores p. A nil coordinate removes the stored value.
func (s *SQLiteDB) SavePreferences(ctx context.Context, p models.AlertPreferences) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := putFloat(ctx, tx, keyRadiusKm, &p.AlertRadiusKm); err != nil {
		return err
	}
	if err := putFloat(ctx, tx, keyMinimumMagnitude, &p.MinimumMagnitude); err != nil {
		return err
	}
	if err := putFloat(ctx, tx, keyLatitude, p.Latitude); err != nil {
		return err
	}
	if err := putFloat(ctx, tx, keyLongitude, p.Longitude); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteDB) GetDeviceToken(ctx context.Context) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, keyDeviceToken).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return token, err
}

func (s *SQLiteDB) SaveDeviceToken(ctx context.Context, token string) error {
	return put(ctx, s.db, keyDeviceToken, token)
}

func putFloat(ctx context.Context, db execer, key string, f *float64) error {
	if f == nil {
		_, err := db.ExecContext(ctx, `DELETE FROM preferences WHERE key = ?`, key)
		if err != nil {
			return fmt.Errorf("error removing preference %s: %w", key, err)
		}
		return nil
	}
	return put(ctx, db, key, strconv.FormatFloat(*f, 'f', -1, 64))
}

func put(ctx context.Context, db execer, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("error storing preference %s: %w", key, err)
	}
	return nil
}
