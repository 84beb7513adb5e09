package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/claude/fitharmony/internal/models"
	"github.com/claude/fitharmony/internal/planner"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type staticSource struct {
	raw models.RawBiomarkers
}

func (s staticSource) LatestBiomarkers(ctx context.Context, userID int) (models.RawBiomarkers, time.Time, error) {
	out := models.RawBiomarkers{}
	for k, v := range s.raw {
		out[k] = v
	}
	return out, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), nil
}

func (staticSource) Close() error { return nil }

func testPlanner() *planner.Planner {
	cfg := planner.DefaultConfig()
	cfg.Search.MaxIterations = 1500
	cfg.Search.Patience = 400
	return planner.New(cfg, discardLogger())
}

func testRequest() planner.Request {
	seed := uint64(4)
	return planner.Request{
		Biomarkers: models.RawBiomarkers{
			models.SkeletalMuscleMass: {Value: 30, Unit: "kg"},
			models.BodyFatPct:         {Value: 22},
			models.BMI:                {Value: 23},
		},
		Goals: models.Goals{
			AvailableDays:   []models.Weekday{models.Monday, models.Wednesday, models.Friday},
			SessionsPerWeek: 3,
		},
		Search: planner.SearchOptions{Seed: &seed},
	}
}

// TestLocalPlan verifies the in-process backend returns the PlanResult document.
func TestLocalPlan(t *testing.T) {
	data, err := NewLocal(testPlanner(), nil).Plan(context.Background(), testRequest())
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Feasible bool `json:"feasible"`
		Search   struct {
			Seed uint64 `json:"seed"`
		} `json:"search"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if !got.Feasible || got.Search.Seed != 4 {
		t.Errorf("feasible=%v seed=%d", got.Feasible, got.Search.Seed)
	}
}

// TestLocalPlanForUser verifies stored readings are used and a missing
// source is reported.
func TestLocalPlanForUser(t *testing.T) {
	req := testRequest()
	stored := req.Biomarkers
	req.Biomarkers = nil

	if _, err := NewLocal(testPlanner(), nil).PlanForUser(context.Background(), 1, req); !errors.Is(err, errNoSource) {
		t.Errorf("nil source: err = %v, want errNoSource", err)
	}

	data, err := NewLocal(testPlanner(), staticSource{raw: stored}).PlanForUser(context.Background(), 1, req)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(data) {
		t.Error("result is not valid JSON")
	}
}
