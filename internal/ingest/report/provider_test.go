package report

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/claude/fitharmony/internal/models"
	"github.com/claude/fitharmony/internal/storage"
)

const exportCSV = "Date,Weight(kg),Skeletal Muscle Mass(kg),Percent Body Fat(%),BMI,Phase Angle\n" +
	"2026-05-02 07:30,80.4,31.2,24.5,25.1,5.9\n" +
	"2026-05-09 07:45,79.9,31.6,23.8,24.9,6.0\n"

// TestProviderIngest verifies an export lands in the SQLite store, a second
// import of the same file is skipped, and the stored readings can be planned from.
func TestProviderIngest(t *testing.T) {
	src, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "readings.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	p := NewProvider(src, nil)
	ctx := context.Background()

	res, err := p.Ingest(ctx, strings.NewReader(exportCSV), 7)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.RowsReceived != 2 || res.ReadingsReceived != 8 || res.ReadingsInserted != 8 || res.ReadingsSkipped != 0 {
		t.Errorf("first import = %+v", res)
	}
	if len(res.RejectedColumns) != 1 || res.RejectedColumns[0] != "Phase Angle" {
		t.Errorf("rejected = %v", res.RejectedColumns)
	}

	res, err = p.Ingest(ctx, strings.NewReader(exportCSV), 7)
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}
	if res.ReadingsInserted != 0 || res.ReadingsSkipped != 8 {
		t.Errorf("second import = %+v", res)
	}

	raw, _, err := src.LatestBiomarkers(ctx, 7)
	if err != nil {
		t.Fatalf("LatestBiomarkers: %v", err)
	}
	if got := raw[models.SkeletalMuscleMass]; got.Value != 31.6 || got.Unit != "kg" {
		t.Errorf("skeletal_muscle_mass = %+v, want the newer 31.6 kg", got)
	}
	if got := raw[models.BMI].Value; got != 24.9 {
		t.Errorf("bmi = %g", got)
	}
}

// TestProviderIngestParseError verifies nothing is stored for a bad export.
func TestProviderIngestParseError(t *testing.T) {
	src, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "readings.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if _, err := NewProvider(src, nil).Ingest(context.Background(), strings.NewReader("Weight\n80\n"), 1); err == nil {
		t.Fatal("expected error")
	}
	if _, _, err := src.LatestBiomarkers(context.Background(), 1); !errors.Is(err, storage.ErrNoReadings) {
		t.Errorf("err = %v, want ErrNoReadings", err)
	}
}
