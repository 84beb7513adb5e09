package planner

import (
	"testing"

	"github.com/claude/fitharmony/internal/models"
)

// TestEstimateCalories verifies the per-session estimate and its weight scaling.
func TestEstimateCalories(t *testing.T) {
	tests := []struct {
		name   string
		s      models.Session
		weight float64
		want   int
	}{
		{"rest", models.Session{}, 70, 0},
		{"moderate cardio", models.Session{Type: models.Cardio, Intensity: models.Moderate, DurationMinutes: 30}, 0, 270},
		{"high cardio", models.Session{Type: models.Cardio, Intensity: models.High, DurationMinutes: 30}, 0, 351},
		{"low flexibility", models.Session{Type: models.Flexibility, Intensity: models.Low, DurationMinutes: 60}, 0, 126},
		{"heavier person", models.Session{Type: models.Cardio, Intensity: models.Moderate, DurationMinutes: 30}, 84, 324},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := estimateCalories(tt.s, tt.weight); got != tt.want {
				t.Errorf("estimateCalories = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestWeeklySummaries verifies per-week aggregation.
func TestWeeklySummaries(t *testing.T) {
	s := models.Schedule{HorizonWeeks: 2, Days: make([]models.Session, 14)}
	for i := range s.Days {
		s.Days[i].Day = i
		s.Days[i].Week = i/7 + 1
		s.Days[i].Weekday = models.Weekday(i % 7)
	}
	s.Days[0] = models.Session{Day: 0, Week: 1, Type: models.ResistanceFull, Intensity: models.High, DurationMinutes: 45, EstimatedCalories: 100}
	s.Days[2] = models.Session{Day: 2, Week: 1, Type: models.Cardio, Intensity: models.Low, DurationMinutes: 30, EstimatedCalories: 50}
	s.Days[9] = models.Session{Day: 9, Week: 2, Type: models.ResistanceLower, Intensity: models.Moderate, DurationMinutes: 60, EstimatedCalories: 80}

	got := weeklySummaries(s)
	want := []models.WeeklySummary{
		{Week: 1, WorkoutDays: 2, TotalMinutes: 75, EstimatedCalories: 150, ResistanceSessions: 1, HighIntensitySessions: 1},
		{Week: 2, WorkoutDays: 1, TotalMinutes: 60, EstimatedCalories: 80, ResistanceSessions: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d weeks, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("week %d = %+v, want %+v", i+1, got[i], want[i])
		}
	}
}

// TestTimeframe verifies the expected-timeframe label thresholds.
func TestTimeframe(t *testing.T) {
	tests := []struct {
		days []int
		want string
	}{
		{[]int{4}, "8-10 weeks"},
		{[]int{3, 4}, "10-12 weeks"},
		{[]int{3}, "10-12 weeks"},
		{[]int{2, 3}, "12-16 weeks"},
		{nil, "12-16 weeks"},
	}
	for _, tt := range tests {
		var weeks []models.WeeklySummary
		for _, d := range tt.days {
			weeks = append(weeks, models.WeeklySummary{WorkoutDays: d})
		}
		if got := timeframe(weeks); got != tt.want {
			t.Errorf("timeframe(%v) = %q, want %q", tt.days, got, tt.want)
		}
	}
}
