// Package storage reads the latest body-composition readings of a user from
// an external health store.
package storage

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/claude/fitharmony/internal/models"
)

// ErrNoReadings is returned when a user has no body-composition readings.
var ErrNoReadings = errors.New("no body-composition readings for user")

// Source supplies raw biomarkers for a user together with the time of the
// newest reading used.
type Source interface {
	LatestBiomarkers(ctx context.Context, userID int) (models.RawBiomarkers, time.Time, error)
	Close() error
}

var (
	_ Source = (*DB)(nil)
	_ Source = (*SQLiteSource)(nil)
)

// Reading is one stored metric value.
type Reading struct {
	Metric string
	Units  string
	Qty    float64
	Time   time.Time
}

// metricAliases maps health-store metric names to biomarkers. Biomarker
// names themselves are accepted as well.
var metricAliases = map[string]models.BiomarkerName{
	"weight_body_mass":    models.Weight,
	"body_mass":           models.Weight,
	"body_fat_percentage": models.BodyFatPct,
	"body_mass_index":     models.BMI,
	"skeletal_muscle":     models.SkeletalMuscleMass,
	"visceral_fat":        models.VisceralFatArea,
}

// unitAliases rewrites store units the normalizer does not know.
var unitAliases = map[string]string{
	"count":  "", // dimensionless BMI
	"inches": "in",
}

func biomarkerFor(metric string) (models.BiomarkerName, bool) {
	if name, ok := metricAliases[metric]; ok {
		return name, true
	}
	if _, ok := models.LookupBiomarker(models.BiomarkerName(metric)); ok {
		return models.BiomarkerName(metric), true
	}
	return "", false
}

// metricNames lists every store metric name that maps to a biomarker.
func metricNames() []string {
	names := make([]string, 0, len(metricAliases)+len(models.BiomarkerCatalog))
	for m := range metricAliases {
		names = append(names, m)
	}
	for _, spec := range models.BiomarkerCatalog {
		names = append(names, string(spec.Name))
	}
	sort.Strings(names)
	return names
}

// toRaw keeps the newest reading per biomarker and returns them with the
// newest reading time. Unmapped metrics are ignored.
func toRaw(readings []Reading) (models.RawBiomarkers, time.Time, error) {
	raw := models.RawBiomarkers{}
	seen := map[models.BiomarkerName]time.Time{}
	var newest time.Time
	for _, r := range readings {
		name, ok := biomarkerFor(r.Metric)
		if !ok {
			continue
		}
		if t, dup := seen[name]; dup && !r.Time.After(t) {
			continue
		}
		unit := r.Units
		if alias, ok := unitAliases[unit]; ok {
			unit = alias
		}
		raw[name] = models.RawReading{Value: r.Qty, Unit: unit}
		seen[name] = r.Time
		if r.Time.After(newest) {
			newest = r.Time
		}
	}
	if len(raw) == 0 {
		return nil, time.Time{}, ErrNoReadings
	}
	return raw, newest, nil
}

// Open returns the configured biomarker source: PostgreSQL when dsn is set,
// else the SQLite file at sqlitePath. It returns a nil Source when neither is set.
func Open(ctx context.Context, dsn, sqlitePath string) (Source, error) {
	switch {
	case dsn != "":
		db, err := New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return db, nil
	case sqlitePath != "":
		src, err := OpenSQLite(sqlitePath)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, nil
	}
}
