package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/santiagocoriap/quakescope/internal/models"
)

// AddAlert records a raised alert and trims the history to the newest
// maxHistory entries. maxHistory <= 0 keeps everything. It reports false
// when the earthquake already has an alert; nothing is written then.
func (s *SQLiteDB) AddAlert(ctx context.Context, a *models.Alert, maxHistory int) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO alerts (id, earthquake_id, magnitude, depth, latitude, longitude, distance_km, severity, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(earthquake_id) DO NOTHING`,
		a.ID,
		a.EarthquakeID,
		a.Magnitude,
		a.Depth,
		a.Latitude,
		a.Longitude,
		a.DistanceKm,
		string(a.Severity),
		a.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return false, fmt.Errorf("error inserting alert for %s: %w", a.EarthquakeID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error inserting alert for %s: %w", a.EarthquakeID, err)
	}
	if n == 0 {
		return false, nil
	}

	if maxHistory > 0 {
		_, err = tx.ExecContext(ctx, `
			DELETE FROM alerts WHERE id NOT IN (
				SELECT id FROM alerts ORDER BY created_at DESC, rowid DESC LIMIT ?
			)`, maxHistory)
		if err != nil {
			return false, fmt.Errorf("error trimming alert history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("error committing alert: %w", err)
	}
	return true, nil
}

func (s *SQLiteDB) HasAlert(ctx context.Context, earthquakeID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM alerts WHERE earthquake_id = ?`, earthquakeID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListAlerts returns the most recent alerts first.
func (s *SQLiteDB) ListAlerts(ctx context.Context, limit int) ([]models.Alert, error) {
	query := `SELECT id, earthquake_id, magnitude, depth, latitude, longitude, distance_km, severity, created_at
		FROM alerts ORDER BY created_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying alerts: %w", err)
	}
	defer rows.Close()

	alerts := []models.Alert{}
	for rows.Next() {
		var (
			a         models.Alert
			severity  string
			createdAt int64
		)
		if err := rows.Scan(&a.ID, &a.EarthquakeID, &a.Magnitude, &a.Depth, &a.Latitude, &a.Longitude,
			&a.DistanceKm, &severity, &createdAt); err != nil {
			return nil, err
		}
		a.Severity = models.AlertSeverity(severity)
		a.CreatedAt = time.UnixMilli(createdAt).UTC()
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
