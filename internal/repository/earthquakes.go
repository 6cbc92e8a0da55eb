package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/santiagocoriap/quakescope/internal/models"
)

const earthquakeColumns = `id, earthquake_id, source, is_real, magnitude, depth, latitude, longitude,
	original_latitude, original_longitude, place, radius_km, time_ms`

const upsertEarthquake = `
	INSERT INTO earthquakes (` + earthquakeColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		earthquake_id = excluded.earthquake_id,
		source = excluded.source,
		is_real = excluded.is_real,
		magnitude = excluded.magnitude,
		depth = excluded.depth,
		latitude = excluded.latitude,
		longitude = excluded.longitude,
		original_latitude = excluded.original_latitude,
		original_longitude = excluded.original_longitude,
		place = excluded.place,
		radius_km = excluded.radius_km,
		time_ms = excluded.time_ms`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteDB) UpsertAll(ctx context.Context, quakes []models.Earthquake) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertAll(ctx, tx, quakes); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceAll swaps the whole cache for quakes in one transaction.
func (s *SQLiteDB) ReplaceAll(ctx context.Context, quakes []models.Earthquake) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM earthquakes`); err != nil {
		return fmt.Errorf("error clearing earthquakes: %w", err)
	}
	if err := upsertAll(ctx, tx, quakes); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertAll(ctx context.Context, db execer, quakes []models.Earthquake) error {
	for i := range quakes {
		q := &quakes[i]
		_, err := db.ExecContext(ctx, upsertEarthquake,
			q.ID,
			q.EarthquakeID,
			q.Source,
			q.IsReal,
			q.Magnitude,
			q.Depth,
			q.Latitude,
			q.Longitude,
			nullFloat(q.OriginalLatitude),
			nullFloat(q.OriginalLongitude),
			nullString(q.Place),
			q.RadiusKm,
			q.Time.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("error upserting earthquake %s: %w", q.ID, err)
		}
	}
	return nil
}

func (s *SQLiteDB) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM earthquakes WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteDB) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM earthquakes`).Scan(&n)
	return n, err
}

// ListEarthquakes returns cached earthquakes, newest first. Range bounds are inclusive.
func (s *SQLiteDB) ListEarthquakes(ctx context.Context, opts EarthquakeFilter) ([]models.Earthquake, error) {
	var (
		where []string
		args  []any
	)
	if opts.MinMagnitude != nil {
		where = append(where, "magnitude >= ?")
		args = append(args, *opts.MinMagnitude)
	}
	if opts.MaxMagnitude != nil {
		where = append(where, "magnitude <= ?")
		args = append(args, *opts.MaxMagnitude)
	}
	if opts.MinDepth != nil {
		where = append(where, "depth >= ?")
		args = append(args, *opts.MinDepth)
	}
	if opts.MaxDepth != nil {
		where = append(where, "depth <= ?")
		args = append(args, *opts.MaxDepth)
	}
	if opts.IsReal != nil {
		where = append(where, "is_real = ?")
		args = append(args, *opts.IsReal)
	}

	query := `SELECT ` + earthquakeColumns + ` FROM earthquakes`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY time_ms DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying earthquakes: %w", err)
	}
	defer rows.Close()

	quakes := []models.Earthquake{}
	for rows.Next() {
		q, err := scanEarthquake(rows)
		if err != nil {
			return nil, err
		}
		quakes = append(quakes, *q)
	}
	return quakes, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEarthquake(row scanner) (*models.Earthquake, error) {
	var (
		q       models.Earthquake
		origLat sql.NullFloat64
		origLon sql.NullFloat64
		place   sql.NullString
		timeMs  int64
	)
	err := row.Scan(
		&q.ID,
		&q.EarthquakeID,
		&q.Source,
		&q.IsReal,
		&q.Magnitude,
		&q.Depth,
		&q.Latitude,
		&q.Longitude,
		&origLat,
		&origLon,
		&place,
		&q.RadiusKm,
		&timeMs,
	)
	if err != nil {
		return nil, err
	}

	if origLat.Valid {
		q.OriginalLatitude = &origLat.Float64
	}
	if origLon.Valid {
		q.OriginalLongitude = &origLon.Float64
	}
	q.Place = place.String
	q.Time = time.UnixMilli(timeMs).UTC()
	return &q, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
