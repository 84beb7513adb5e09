package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Goals are the user-supplied planning inputs.
type Goals struct {
	AvailableDays      []Weekday      `json:"available_days" yaml:"available_days"`
	SessionsPerWeek    int            `json:"sessions_per_week" yaml:"sessions_per_week"`
	MaxSessionsPerWeek int            `json:"max_sessions_per_week,omitempty" yaml:"max_sessions_per_week,omitempty"`
	Exclude            []ExerciseType `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	Prefer             []ExerciseType `json:"prefer,omitempty" yaml:"prefer,omitempty"`
	HorizonWeeks       int            `json:"horizon_weeks,omitempty" yaml:"horizon_weeks,omitempty"`
	MinRestDays        *int           `json:"min_rest_days,omitempty" yaml:"min_rest_days,omitempty"`
	MaxSessionMinutes  int            `json:"max_session_minutes,omitempty" yaml:"max_session_minutes,omitempty"`
}

// PlanningConstraints is the bounded constraint set the optimizer searches
// under. It is derived from a BiomarkerSet plus Goals.
type PlanningConstraints struct {
	Available             WeekdaySet  `json:"available_days"`
	TargetSessionsPerWeek int         `json:"target_sessions_per_week"`
	MaxSessionsPerWeek    int         `json:"max_sessions_per_week"`
	MinRestGap            int         `json:"min_rest_gap"`
	Excluded              ExerciseSet `json:"excluded"`
	Preferred             ExerciseSet `json:"preferred"`
	HorizonWeeks          int         `json:"horizon_weeks"`
	MaxIntensity          Intensity   `json:"max_intensity"`
	MaxSessionMinutes     int         `json:"max_session_minutes"`

	// Derived from biomarkers.
	MinResistancePerWeek     int     `json:"min_resistance_per_week"`
	TargetResistancePerWeek  int     `json:"target_resistance_per_week"`
	TargetCardioPerWeek      int     `json:"target_cardio_per_week"`
	TargetFlexibilityPerWeek int     `json:"target_flexibility_per_week"`
	LowerBodyShare           float64 `json:"lower_body_share"`
	TargetWeeklyMinutes      int     `json:"target_weekly_minutes"`
}

// HorizonDays is the number of day slots in the planning horizon.
func (c PlanningConstraints) HorizonDays() int {
	return c.HorizonWeeks * 7
}

func (s WeekdaySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Days())
}

func (s ExerciseSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Types())
}

// Session is one day of a decoded schedule. Rest days carry only the day fields.
type Session struct {
	Day               int          `json:"day"`
	Week              int          `json:"week"`
	Weekday           Weekday      `json:"weekday"`
	Type              ExerciseType `json:"exercise_type"`
	Intensity         Intensity    `json:"-"`
	DurationMinutes   int          `json:"-"`
	EstimatedCalories int          `json:"estimated_calories,omitempty"`
	Focus             string       `json:"focus,omitempty"`
}

// IsRest reports whether the session is a rest day.
func (s Session) IsRest() bool {
	return s.Type == Rest
}

func (s Session) MarshalJSON() ([]byte, error) {
	type plain Session
	out := struct {
		plain
		Intensity       *Intensity `json:"intensity,omitempty"`
		DurationMinutes int        `json:"duration_minutes,omitempty"`
	}{plain: plain(s)}
	if !s.IsRest() {
		out.Intensity = &s.Intensity
		out.DurationMinutes = s.DurationMinutes
	}
	return json.Marshal(out)
}

// Schedule is the day-indexed view of a plan, the only search artifact
// exposed downstream.
type Schedule struct {
	HorizonWeeks int       `json:"horizon_weeks"`
	Days         []Session `json:"days"`
}

// WeeklySummary aggregates one week of a schedule.
type WeeklySummary struct {
	Week                  int `json:"week"`
	WorkoutDays           int `json:"workout_days"`
	TotalMinutes          int `json:"total_minutes"`
	EstimatedCalories     int `json:"estimated_calories"`
	ResistanceSessions    int `json:"resistance_sessions"`
	HighIntensitySessions int `json:"high_intensity_sessions"`
}

// ObjectiveScores is the per-objective breakdown of a fitness value, each in [0,1].
type ObjectiveScores struct {
	GoalAlignment float64 `json:"goal_alignment"`
	Recovery      float64 `json:"recovery"`
	Variety       float64 `json:"variety"`
}

// SearchStats describes how the optimizer run ended.
type SearchStats struct {
	State         string `json:"state"`
	StopReason    string `json:"stop_reason"`
	Iterations    int    `json:"iterations"`
	BestIteration int    `json:"best_iteration"`
	Evaluations   int    `json:"evaluations"`
	Seed          uint64 `json:"seed"`
	DurationMs    int64  `json:"duration_ms"`
}

// PlanResult is the output boundary handed to narrative and rendering collaborators.
type PlanResult struct {
	ID          uuid.UUID           `json:"id"`
	CreatedAt   time.Time           `json:"created_at"`
	Schedule    Schedule            `json:"schedule"`
	Fitness     float64             `json:"fitness"`
	Feasible    bool                `json:"feasible"`
	Objectives  ObjectiveScores     `json:"objectives"`
	Weekly      []WeeklySummary     `json:"weekly_summary"`
	Timeframe   string              `json:"goal_timeframe"`
	Search      SearchStats         `json:"search"`
	Biomarkers  BiomarkerSet        `json:"biomarkers"`
	Constraints PlanningConstraints `json:"constraints"`
}
