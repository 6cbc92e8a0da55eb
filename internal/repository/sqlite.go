package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS earthquakes (
			id TEXT PRIMARY KEY,
			earthquake_id TEXT NOT NULL,
			source TEXT NOT NULL,
			is_real INTEGER NOT NULL,
			magnitude REAL NOT NULL,
			depth REAL NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			original_latitude REAL,
			original_longitude REAL,
			place TEXT,
			radius_km REAL NOT NULL,
			time_ms INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			earthquake_id TEXT NOT NULL UNIQUE,
			magnitude REAL NOT NULL,
			depth REAL NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			distance_km REAL NOT NULL,
			severity TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_earthquakes_time ON earthquakes(time_ms);
		CREATE INDEX IF NOT EXISTS idx_earthquakes_earthquake_id ON earthquakes(earthquake_id);
		CREATE INDEX IF NOT EXISTS idx_earthquakes_is_real ON earthquakes(is_real);
		CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts(created_at);
  	`

	_, err := s.db.Exec(schema)
	return err
}

// CheckReadiness reports whether the database still answers.
func (s *SQLiteDB) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
