package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/claude/fitharmony/internal/models"
)

// TestToRawMapsStoreNames verifies store metric names and units are mapped to
// biomarkers and only the newest reading per biomarker is kept.
func TestToRawMapsStoreNames(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	readings := []Reading{
		{Metric: "weight_body_mass", Units: "lb", Qty: 180, Time: t0},
		{Metric: "weight", Units: "kg", Qty: 81, Time: t0.Add(24 * time.Hour)},
		{Metric: "body_fat_percentage", Units: "%", Qty: 24.5, Time: t0},
		{Metric: "body_mass_index", Units: "count", Qty: 25.1, Time: t0},
		{Metric: "skeletal_muscle_mass", Units: "kg", Qty: 33, Time: t0},
		{Metric: "heart_rate", Units: "count/min", Qty: 60, Time: t0.Add(48 * time.Hour)},
	}

	raw, newest, err := toRaw(readings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := models.RawBiomarkers{
		models.Weight:             {Value: 81, Unit: "kg"},
		models.BodyFatPct:         {Value: 24.5, Unit: "%"},
		models.BMI:                {Value: 25.1, Unit: ""},
		models.SkeletalMuscleMass: {Value: 33, Unit: "kg"},
	}
	if diff := cmp.Diff(want, raw); diff != "" {
		t.Errorf("raw biomarkers (-want +got):\n%s", diff)
	}
	if !newest.Equal(t0.Add(24 * time.Hour)) {
		t.Errorf("newest = %s, want the weight reading time", newest)
	}
}

// TestToRawEmpty verifies a user without body-composition readings is reported.
func TestToRawEmpty(t *testing.T) {
	_, _, err := toRaw([]Reading{{Metric: "step_count", Qty: 9000}})
	if !errors.Is(err, ErrNoReadings) {
		t.Errorf("err = %v, want ErrNoReadings", err)
	}
}

// TestMetricNamesCoverCatalog verifies every catalog biomarker is queried.
func TestMetricNamesCoverCatalog(t *testing.T) {
	names := map[string]bool{}
	for _, n := range metricNames() {
		names[n] = true
	}
	for _, spec := range models.BiomarkerCatalog {
		if !names[string(spec.Name)] {
			t.Errorf("metric %s missing from query list", spec.Name)
		}
	}
}

// TestSQLiteSource verifies the SQLite export returns each user's latest readings.
func TestSQLiteSource(t *testing.T) {
	src, err := OpenSQLite(filepath.Join(t.TempDir(), "readings.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	insert := func(user int, metric, units string, qty float64, at time.Time) {
		t.Helper()
		_, err := src.db.Exec(`INSERT INTO readings (user_id, metric_name, units, qty, recorded_at) VALUES (?, ?, ?, ?, ?)`,
			user, metric, units, qty, at.Unix())
		if err != nil {
			t.Fatal(err)
		}
	}
	t0 := time.Date(2026, 5, 2, 7, 30, 0, 0, time.UTC)
	insert(1, "skeletal_muscle_mass", "kg", 24, t0)
	insert(1, "skeletal_muscle_mass", "kg", 25.5, t0.Add(7*24*time.Hour))
	insert(1, "body_fat_pct", "%", 29, t0)
	insert(1, "body_mass_index", "count", 26, t0)
	insert(2, "skeletal_muscle_mass", "kg", 40, t0)

	raw, newest, err := src.LatestBiomarkers(context.Background(), 1)
	if err != nil {
		t.Fatalf("LatestBiomarkers: %v", err)
	}
	if got := raw[models.SkeletalMuscleMass].Value; got != 25.5 {
		t.Errorf("skeletal_muscle_mass = %g, want the newer 25.5", got)
	}
	if len(raw) != 3 {
		t.Errorf("got %d biomarkers, want 3", len(raw))
	}
	if !newest.Equal(t0.Add(7 * 24 * time.Hour)) {
		t.Errorf("newest = %s", newest)
	}

	if _, _, err := src.LatestBiomarkers(context.Background(), 3); !errors.Is(err, ErrNoReadings) {
		t.Errorf("unknown user: err = %v, want ErrNoReadings", err)
	}
}

// TestOpenSelectsSource verifies Open returns no source when nothing is
// configured and a SQLite source for a file path.
func TestOpenSelectsSource(t *testing.T) {
	src, err := Open(context.Background(), "", "")
	if err != nil || src != nil {
		t.Fatalf("Open(empty) = %v, %v; want nil, nil", src, err)
	}

	src, err = Open(context.Background(), "", filepath.Join(t.TempDir(), "readings.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	if _, ok := src.(*SQLiteSource); !ok {
		t.Errorf("Open(sqlite) = %T, want *SQLiteSource", src)
	}
}
