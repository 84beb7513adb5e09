package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/claude/fitharmony/internal/models"

	_ "modernc.org/sqlite"
)

// SQLiteSource reads biomarkers from a local SQLite export with a readings
// table of (user_id, metric_name, units, qty, recorded_at unix seconds).
type SQLiteSource struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the readings database at path.
func OpenSQLite(path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening readings db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS readings (
		user_id     INTEGER NOT NULL,
		metric_name TEXT NOT NULL,
		units       TEXT NOT NULL DEFAULT '',
		qty         REAL NOT NULL,
		recorded_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating readings table: %w", err)
	}
	_, err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS readings_user_metric_time
		ON readings (user_id, metric_name, recorded_at)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating readings index: %w", err)
	}

	return &SQLiteSource{db: db}, nil
}

// LatestBiomarkers returns the most recent reading of every body-composition
// metric recorded for the user.
func (s *SQLiteSource) LatestBiomarkers(ctx context.Context, userID int) (models.RawBiomarkers, time.Time, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT metric_name, units, qty, recorded_at
		 FROM readings
		 WHERE user_id = ?
		 ORDER BY metric_name, recorded_at DESC`,
		userID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("querying latest biomarkers: %w", err)
	}
	defer rows.Close()

	var readings []Reading
	for rows.Next() {
		var r Reading
		var ts int64
		if err := rows.Scan(&r.Metric, &r.Units, &r.Qty, &ts); err != nil {
			return nil, time.Time{}, fmt.Errorf("scanning biomarker row: %w", err)
		}
		r.Time = time.Unix(ts, 0).UTC()
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("iterating biomarker rows: %w", err)
	}
	return toRaw(readings)
}

// InsertReadings stores readings for the user in one transaction and returns
// how many were new. A reading for a metric and time already stored is skipped.
func (s *SQLiteSource) InsertReadings(ctx context.Context, userID int, readings []Reading) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO readings (user_id, metric_name, units, qty, recorded_at)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, r := range readings {
		res, err := stmt.ExecContext(ctx, userID, r.Metric, r.Units, r.Qty, r.Time.Unix())
		if err != nil {
			return 0, fmt.Errorf("inserting %s reading: %w", r.Metric, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("counting inserted rows: %w", err)
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing readings: %w", err)
	}
	return inserted, nil
}

// Close closes the database.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}
