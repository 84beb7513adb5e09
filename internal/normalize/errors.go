package normalize

import (
	"errors"
	"fmt"

	"github.com/claude/fitharmony/internal/models"
)

var (
	// ErrMissingMetric is returned when a required biomarker is absent.
	ErrMissingMetric = errors.New("missing metric")
	// ErrOutOfRangeMetric is returned when a reading is outside its plausible range.
	ErrOutOfRangeMetric = errors.New("metric out of range")
	// ErrUnknownMetric is returned for biomarker names not in the catalog.
	ErrUnknownMetric = errors.New("unknown metric")
	// ErrUnknownUnit is returned when a reading's unit cannot be converted.
	ErrUnknownUnit = errors.New("unknown unit")
	// ErrInvalidGoals is returned when user goals are malformed.
	ErrInvalidGoals = errors.New("invalid goals")
	// ErrInfeasibleConstraints is returned when no schedule can satisfy the
	// hard constraints.
	ErrInfeasibleConstraints = errors.New("infeasible constraints")
)

// MetricError describes a rejected biomarker reading.
type MetricError struct {
	Metric models.BiomarkerName
	Value  float64
	Unit   string
	Min    float64
	Max    float64
	Err    error
}

func (e *MetricError) Error() string {
	switch {
	case errors.Is(e.Err, ErrOutOfRangeMetric):
		return fmt.Sprintf("%s: %s = %g outside [%g, %g]", e.Err, e.Metric, e.Value, e.Min, e.Max)
	case errors.Is(e.Err, ErrUnknownUnit):
		return fmt.Sprintf("%s: %q for %s", e.Err, e.Unit, e.Metric)
	default:
		return fmt.Sprintf("%s: %s", e.Err, e.Metric)
	}
}

func (e *MetricError) Unwrap() error {
	return e.Err
}

// InfeasibleError explains why a constraint set admits no feasible schedule.
type InfeasibleError struct {
	Reason string
}

func (e *InfeasibleError) Error() string {
	return ErrInfeasibleConstraints.Error() + ": " + e.Reason
}

func (e *InfeasibleError) Unwrap() error {
	return ErrInfeasibleConstraints
}
