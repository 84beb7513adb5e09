// Package normalize validates raw biomarker readings and user goals and
// derives the planning constraints the optimizer searches under.
package normalize

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/claude/fitharmony/internal/models"
)

// Thresholds tune how biomarkers shape the constraint set.
type Thresholds struct {
	LowMuscleRatio       float64 `yaml:"low_muscle_ratio" json:"low_muscle_ratio"`             // SMM / weight
	LowMuscleKg          float64 `yaml:"low_muscle_kg" json:"low_muscle_kg"`                   // used when weight is unknown
	HighVisceralFatArea  float64 `yaml:"high_visceral_fat_area" json:"high_visceral_fat_area"` // cm2
	HighBMI              float64 `yaml:"high_bmi" json:"high_bmi"`
	HighBodyFatPct       float64 `yaml:"high_body_fat_pct" json:"high_body_fat_pct"`
	LegArmRatioLow       float64 `yaml:"leg_arm_ratio_low" json:"leg_arm_ratio_low"`
	LegArmRatioHigh      float64 `yaml:"leg_arm_ratio_high" json:"leg_arm_ratio_high"`
	BaseWeeklyMinutes    int     `yaml:"base_weekly_minutes" json:"base_weekly_minutes"`
	HighFatWeeklyMinutes int     `yaml:"high_fat_weekly_minutes" json:"high_fat_weekly_minutes"`
}

// DefaultThresholds returns the stock derivation thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LowMuscleRatio:       0.37,
		LowMuscleKg:          25,
		HighVisceralFatArea:  100,
		HighBMI:              35,
		HighBodyFatPct:       30,
		LegArmRatioLow:       2.6,
		LegArmRatioHigh:      3.6,
		BaseWeeklyMinutes:    150,
		HighFatWeeklyMinutes: 225,
	}
}

const (
	defaultHorizonWeeks      = 1
	maxHorizonWeeks          = 12
	defaultMinRestDays       = 1
	defaultMaxSessionMinutes = 90
	maxSessionMinutesLimit   = 180
)

// Normalize validates raw readings and goals and derives the constraint set
// the optimizer searches under. It performs no I/O.
func Normalize(raw models.RawBiomarkers, goals models.Goals, th Thresholds) (models.BiomarkerSet, models.PlanningConstraints, error) {
	bio, err := normalizeBiomarkers(raw)
	if err != nil {
		return models.BiomarkerSet{}, models.PlanningConstraints{}, err
	}
	pc, err := deriveConstraints(bio, goals, th)
	if err != nil {
		return models.BiomarkerSet{}, models.PlanningConstraints{}, err
	}
	return bio, pc, nil
}

func normalizeBiomarkers(raw models.RawBiomarkers) (models.BiomarkerSet, error) {
	var unknown []string
	for name := range raw {
		if _, ok := models.LookupBiomarker(name); !ok {
			unknown = append(unknown, string(name))
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return models.BiomarkerSet{}, &MetricError{Metric: models.BiomarkerName(unknown[0]), Err: ErrUnknownMetric}
	}

	values := make(map[models.BiomarkerName]float64, len(raw))
	for _, spec := range models.BiomarkerCatalog {
		r, ok := raw[spec.Name]
		if !ok {
			continue
		}
		v, err := toCanonical(spec, r)
		if err != nil {
			return models.BiomarkerSet{}, err
		}
		if err := checkRange(spec, v); err != nil {
			return models.BiomarkerSet{}, err
		}
		values[spec.Name] = v
	}

	// Derive what the report omitted but its other readings imply.
	if _, ok := values[models.BodyFatPct]; !ok {
		fat, okFat := values[models.BodyFatMass]
		w, okW := values[models.Weight]
		if okFat && okW {
			if err := derive(values, models.BodyFatPct, fat/w*100); err != nil {
				return models.BiomarkerSet{}, err
			}
		}
	}
	if _, ok := values[models.BMI]; !ok {
		w, okW := values[models.Weight]
		h, okH := values[models.Height]
		if okW && okH {
			m := h / 100
			if err := derive(values, models.BMI, w/(m*m)); err != nil {
				return models.BiomarkerSet{}, err
			}
		}
	}

	items := make([]models.Biomarker, 0, len(values))
	for _, spec := range models.BiomarkerCatalog {
		v, ok := values[spec.Name]
		if !ok {
			if spec.Required {
				return models.BiomarkerSet{}, &MetricError{Metric: spec.Name, Err: ErrMissingMetric}
			}
			continue
		}
		items = append(items, models.Biomarker{Name: spec.Name, Value: v, Unit: spec.Unit, Min: spec.Min, Max: spec.Max})
	}
	return models.NewBiomarkerSet(items...), nil
}

func derive(values map[models.BiomarkerName]float64, name models.BiomarkerName, v float64) error {
	spec, _ := models.LookupBiomarker(name)
	v = math.Round(v*10) / 10
	if err := checkRange(spec, v); err != nil {
		return err
	}
	values[name] = v
	return nil
}

func checkRange(spec models.BiomarkerSpec, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < spec.Min || v > spec.Max {
		return &MetricError{Metric: spec.Name, Value: v, Unit: spec.Unit, Min: spec.Min, Max: spec.Max, Err: ErrOutOfRangeMetric}
	}
	return nil
}

// unitFactors maps accepted alternate units onto the canonical unit.
var unitFactors = map[string]map[string]float64{
	"kg":    {"kg": 1, "kgs": 1, "lb": 0.45359237, "lbs": 0.45359237},
	"cm":    {"cm": 1, "in": 2.54, "m": 100},
	"%":     {"%": 1, "pct": 1, "percent": 1},
	"kg/m2": {"kg/m2": 1, "kg/m²": 1},
	"cm2":   {"cm2": 1, "cm²": 1},
}

func toCanonical(spec models.BiomarkerSpec, r models.RawReading) (float64, error) {
	unit := strings.ToLower(strings.TrimSpace(r.Unit))
	if unit == "" {
		return r.Value, nil
	}
	f, ok := unitFactors[spec.Unit][unit]
	if !ok {
		return 0, &MetricError{Metric: spec.Name, Value: r.Value, Unit: r.Unit, Err: ErrUnknownUnit}
	}
	return r.Value * f, nil
}

func deriveConstraints(bio models.BiomarkerSet, goals models.Goals, th Thresholds) (models.PlanningConstraints, error) {
	pc := models.PlanningConstraints{
		Available:             models.NewWeekdaySet(goals.AvailableDays...),
		TargetSessionsPerWeek: goals.SessionsPerWeek,
		MaxSessionsPerWeek:    goals.MaxSessionsPerWeek,
		MinRestGap:            defaultMinRestDays,
		Excluded:              models.NewExerciseSet(goals.Exclude...),
		Preferred:             models.NewExerciseSet(goals.Prefer...),
		HorizonWeeks:          goals.HorizonWeeks,
		MaxIntensity:          models.High,
		MaxSessionMinutes:     goals.MaxSessionMinutes,
		LowerBodyShare:        0.5,
	}
	if goals.MinRestDays != nil {
		pc.MinRestGap = *goals.MinRestDays
	}
	if pc.HorizonWeeks == 0 {
		pc.HorizonWeeks = defaultHorizonWeeks
	}
	if pc.MaxSessionMinutes == 0 {
		pc.MaxSessionMinutes = defaultMaxSessionMinutes
	}
	if pc.MaxSessionsPerWeek == 0 {
		pc.MaxSessionsPerWeek = pc.TargetSessionsPerWeek
	}
	if err := validateGoals(goals, pc); err != nil {
		return models.PlanningConstraints{}, err
	}
	if err := checkFeasible(pc); err != nil {
		return models.PlanningConstraints{}, err
	}

	smm, _ := bio.Value(models.SkeletalMuscleMass)
	fat, _ := bio.Value(models.BodyFatPct)
	bmi, _ := bio.Value(models.BMI)

	muscleLow := smm < th.LowMuscleKg
	if w, ok := bio.Value(models.Weight); ok {
		muscleLow = smm/w < th.LowMuscleRatio
	}
	fatHigh := fat >= th.HighBodyFatPct

	if vfa, ok := bio.Value(models.VisceralFatArea); (ok && vfa >= th.HighVisceralFatArea) || bmi >= th.HighBMI {
		pc.MaxIntensity = models.Moderate
	}

	target := pc.TargetSessionsPerWeek
	resistanceAllowed := !pc.Excluded.Has(models.ResistanceUpper) ||
		!pc.Excluded.Has(models.ResistanceLower) ||
		!pc.Excluded.Has(models.ResistanceFull)

	if resistanceAllowed {
		switch {
		case muscleLow && target >= 5:
			pc.MinResistancePerWeek = 3
		case muscleLow:
			pc.MinResistancePerWeek = 2
		case target >= 3:
			pc.MinResistancePerWeek = 1
		}
		pc.MinResistancePerWeek = min(pc.MinResistancePerWeek, target)

		share := 0.4
		if muscleLow {
			share = 0.5
		}
		pc.TargetResistancePerWeek = min(target, max(pc.MinResistancePerWeek, roundInt(float64(target)*share)))
	}

	if !pc.Excluded.Has(models.Cardio) {
		share := 0.3
		if fatHigh {
			share = 0.4
		}
		pc.TargetCardioPerWeek = min(target-pc.TargetResistancePerWeek, roundInt(float64(target)*share))
	}
	rest := target - pc.TargetResistancePerWeek - pc.TargetCardioPerWeek
	switch {
	case rest <= 0:
	case !pc.Excluded.Has(models.Flexibility):
		pc.TargetFlexibilityPerWeek = rest
	case resistanceAllowed:
		pc.TargetResistancePerWeek += rest
	case !pc.Excluded.Has(models.Cardio):
		pc.TargetCardioPerWeek += rest
	}

	ra, okRA := bio.Value(models.SegmentalLeanRightArm)
	la, okLA := bio.Value(models.SegmentalLeanLeftArm)
	rl, okRL := bio.Value(models.SegmentalLeanRightLeg)
	ll, okLL := bio.Value(models.SegmentalLeanLeftLeg)
	if okRA && okLA && okRL && okLL {
		ratio := (rl + ll) / (ra + la)
		switch {
		case ratio < th.LegArmRatioLow:
			pc.LowerBodyShare = 0.65
		case ratio > th.LegArmRatioHigh:
			pc.LowerBodyShare = 0.35
		}
	}

	pc.TargetWeeklyMinutes = th.BaseWeeklyMinutes
	if fatHigh {
		pc.TargetWeeklyMinutes = th.HighFatWeeklyMinutes
	}
	pc.TargetWeeklyMinutes = min(pc.TargetWeeklyMinutes, target*min(pc.MaxSessionMinutes, models.SessionDurations[models.NumDurations-1]))

	return pc, nil
}

func validateGoals(goals models.Goals, pc models.PlanningConstraints) error {
	for _, d := range goals.AvailableDays {
		if d > models.Sunday {
			return fmt.Errorf("%w: invalid weekday %d", ErrInvalidGoals, d)
		}
	}
	for _, t := range append(append([]models.ExerciseType{}, goals.Exclude...), goals.Prefer...) {
		if t >= models.NumExerciseTypes || t == models.Rest {
			return fmt.Errorf("%w: invalid exercise type %q", ErrInvalidGoals, t)
		}
	}
	switch {
	case pc.TargetSessionsPerWeek < 1 || pc.TargetSessionsPerWeek > 7:
		return fmt.Errorf("%w: sessions_per_week must be between 1 and 7, got %d", ErrInvalidGoals, pc.TargetSessionsPerWeek)
	case pc.MaxSessionsPerWeek < pc.TargetSessionsPerWeek || pc.MaxSessionsPerWeek > 7:
		return fmt.Errorf("%w: max_sessions_per_week must be between sessions_per_week and 7, got %d", ErrInvalidGoals, pc.MaxSessionsPerWeek)
	case pc.HorizonWeeks < 1 || pc.HorizonWeeks > maxHorizonWeeks:
		return fmt.Errorf("%w: horizon_weeks must be between 1 and %d, got %d", ErrInvalidGoals, maxHorizonWeeks, pc.HorizonWeeks)
	case pc.MinRestGap < 0 || pc.MinRestGap > 6:
		return fmt.Errorf("%w: min_rest_days must be between 0 and 6, got %d", ErrInvalidGoals, pc.MinRestGap)
	case pc.MaxSessionMinutes < models.SessionDurations[0] || pc.MaxSessionMinutes > maxSessionMinutesLimit:
		return fmt.Errorf("%w: max_session_minutes must be between %d and %d, got %d",
			ErrInvalidGoals, models.SessionDurations[0], maxSessionMinutesLimit, pc.MaxSessionMinutes)
	}
	return nil
}

// checkFeasible is the cheap static infeasibility check run before any search.
func checkFeasible(pc models.PlanningConstraints) error {
	days := pc.Available.Len()
	if days == 0 {
		return &InfeasibleError{Reason: "no available days"}
	}
	if pc.TargetSessionsPerWeek > days {
		return &InfeasibleError{Reason: fmt.Sprintf("sessions_per_week %d exceeds %d available days", pc.TargetSessionsPerWeek, days)}
	}
	active := 0
	for t := models.Cardio; t < models.NumExerciseTypes; t++ {
		if !pc.Excluded.Has(t) {
			active++
		}
	}
	if active == 0 {
		return &InfeasibleError{Reason: "every exercise type is excluded"}
	}
	return nil
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
