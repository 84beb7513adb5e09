package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/claude/fitharmony/internal/models"
)

// DB wraps a pgxpool.Pool over a health store that records body-composition
// readings in a health_metrics table. It only reads.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new DB with a connection pool.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	db.Pool.Close()
	return nil
}

// LatestBiomarkers returns the most recent reading of every body-composition
// metric recorded for the user.
func (db *DB) LatestBiomarkers(ctx context.Context, userID int) (models.RawBiomarkers, time.Time, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT DISTINCT ON (metric_name) metric_name, units, qty, time
		 FROM health_metrics
		 WHERE user_id = $1 AND metric_name = ANY($2) AND qty IS NOT NULL
		 ORDER BY metric_name, time DESC`,
		userID, metricNames())
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("querying latest biomarkers: %w", err)
	}
	defer rows.Close()

	var readings []Reading
	for rows.Next() {
		var r Reading
		if err := rows.Scan(&r.Metric, &r.Units, &r.Qty, &r.Time); err != nil {
			return nil, time.Time{}, fmt.Errorf("scanning biomarker row: %w", err)
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("iterating biomarker rows: %w", err)
	}
	return toRaw(readings)
}
