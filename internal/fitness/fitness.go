// Package fitness scores candidate schedules against physiological and
// calendar constraints.
package fitness

import (
	"errors"
	"fmt"
	"math"

	"github.com/claude/fitharmony/internal/models"
	"github.com/claude/fitharmony/internal/schedule"
)

// Weights are the tunable weights and penalty magnitudes of the fitness function.
type Weights struct {
	GoalAlignment     float64 `yaml:"goal_alignment" json:"goal_alignment"`
	Recovery          float64 `yaml:"recovery" json:"recovery"`
	Variety           float64 `yaml:"variety" json:"variety"`
	IntensityBalance  float64 `yaml:"intensity_balance" json:"intensity_balance"` // share of goal alignment, in [0,1]
	InfeasiblePenalty float64 `yaml:"infeasible_penalty" json:"infeasible_penalty"`
	MaxRepeat         int     `yaml:"max_repeat" json:"max_repeat"`               // same type on consecutive active days
	MaxActiveStreak   int     `yaml:"max_active_streak" json:"max_active_streak"` // consecutive active days before recovery suffers
	HeavyBMI          float64 `yaml:"heavy_bmi" json:"heavy_bmi"`                 // shortens the active streak by one day
}

// DefaultWeights returns the stock weighting.
func DefaultWeights() Weights {
	return Weights{
		GoalAlignment:     0.45,
		Recovery:          0.35,
		Variety:           0.20,
		IntensityBalance:  0.15,
		InfeasiblePenalty: 100,
		MaxRepeat:         2,
		MaxActiveStreak:   3,
		HeavyBMI:          30,
	}
}

// Validate checks that the weights keep every infeasible harmony below every
// feasible one.
func (w Weights) Validate() error {
	if w.GoalAlignment < 0 || w.Recovery < 0 || w.Variety < 0 {
		return errors.New("objective weights must be non-negative")
	}
	if w.GoalAlignment+w.Recovery+w.Variety <= 0 {
		return errors.New("at least one objective weight must be positive")
	}
	if w.IntensityBalance < 0 || w.IntensityBalance > 1 {
		return fmt.Errorf("intensity_balance must be in [0,1], got %g", w.IntensityBalance)
	}
	if w.InfeasiblePenalty < 1 {
		return fmt.Errorf("infeasible_penalty must be >= 1, got %g", w.InfeasiblePenalty)
	}
	if w.MaxRepeat < 1 {
		return fmt.Errorf("max_repeat must be >= 1, got %d", w.MaxRepeat)
	}
	if w.MaxActiveStreak < 1 {
		return fmt.Errorf("max_active_streak must be >= 1, got %d", w.MaxActiveStreak)
	}
	return nil
}

// Score is the evaluation of one harmony.
type Score struct {
	Fitness    float64
	Feasible   bool
	Objectives models.ObjectiveScores
	Violations int
}

// Evaluate scores h. Soft objectives are combined into a weighted mean in
// [0,1]; any hard-constraint violation marks the harmony infeasible and drops
// its fitness below zero by the penalty plus one per violation, so every
// infeasible harmony ranks below every feasible one.
func Evaluate(h schedule.Harmony, bio models.BiomarkerSet, pc models.PlanningConstraints, w Weights) Score {
	violations := checkHard(h, pc, nil)

	obj := models.ObjectiveScores{
		GoalAlignment: goalAlignment(h, pc, w),
		Recovery:      recovery(h, bio, pc, w),
		Variety:       variety(h, pc, w),
	}
	total := w.GoalAlignment + w.Recovery + w.Variety
	soft := (w.GoalAlignment*obj.GoalAlignment + w.Recovery*obj.Recovery + w.Variety*obj.Variety) / total

	s := Score{Fitness: soft, Feasible: violations == 0, Objectives: obj, Violations: violations}
	if !s.Feasible {
		s.Fitness = soft - w.InfeasiblePenalty - float64(violations)
	}
	return s
}

// Evaluator binds Evaluate to one run's inputs and caches scores by harmony
// value. It is owned by a single run and is not safe for concurrent use.
type Evaluator struct {
	bio    models.BiomarkerSet
	pc     models.PlanningConstraints
	w      Weights
	cache  map[string]Score
	hits   int
	misses int
}

// NewEvaluator creates an Evaluator for one optimization run.
func NewEvaluator(bio models.BiomarkerSet, pc models.PlanningConstraints, w Weights) *Evaluator {
	return &Evaluator{bio: bio, pc: pc, w: w, cache: make(map[string]Score)}
}

// Evaluate returns the cached score of h, computing it on first sight.
func (e *Evaluator) Evaluate(h schedule.Harmony) Score {
	key := h.Key()
	if s, ok := e.cache[key]; ok {
		e.hits++
		return s
	}
	e.misses++
	s := Evaluate(h, e.bio, e.pc, e.w)
	e.cache[key] = s
	return s
}

// Objective adapts the evaluator to the engine's objective signature.
func (e *Evaluator) Objective(h schedule.Harmony) (float64, bool) {
	s := e.Evaluate(h)
	return s.Fitness, s.Feasible
}

// Stats returns cache hits and misses.
func (e *Evaluator) Stats() (hits, misses int) {
	return e.hits, e.misses
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
