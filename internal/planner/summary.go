package planner

import (
	"math"

	"github.com/claude/fitharmony/internal/models"
)

// referenceWeightKg is the body weight the per-minute burn rates assume.
const referenceWeightKg = 70

// kcalPerMinute is the moderate-intensity burn rate for a 70 kg adult.
var kcalPerMinute = [models.NumExerciseTypes]float64{
	models.Cardio:          9,
	models.ResistanceUpper: 6,
	models.ResistanceLower: 7,
	models.ResistanceFull:  8,
	models.Flexibility:     3,
}

var intensityFactor = [models.NumIntensities]float64{
	models.Low:      0.7,
	models.Moderate: 1.0,
	models.High:     1.3,
}

// estimateCalories approximates the energy cost of one session, scaled by
// body weight when it is known.
func estimateCalories(s models.Session, weightKg float64) int {
	if s.IsRest() {
		return 0
	}
	kcal := kcalPerMinute[s.Type] * float64(s.DurationMinutes) * intensityFactor[s.Intensity]
	if weightKg > 0 {
		kcal *= weightKg / referenceWeightKg
	}
	return int(math.Round(kcal))
}

func sessionFocus(s models.Session) string {
	switch s.Type {
	case models.Rest:
		return "recovery"
	case models.Cardio:
		if s.Intensity == models.High {
			return "fat loss and metabolic conditioning"
		}
		return "cardiorespiratory endurance"
	case models.ResistanceUpper:
		return "upper-body strength"
	case models.ResistanceLower:
		return "lower-body strength and muscle mass"
	case models.ResistanceFull:
		return "full-body strength"
	case models.Flexibility:
		return "mobility and core stability"
	}
	return ""
}

// annotate fills per-session calories and focus in place.
func annotate(s *models.Schedule, bio models.BiomarkerSet) {
	weight, _ := bio.Value(models.Weight)
	for i := range s.Days {
		s.Days[i].EstimatedCalories = estimateCalories(s.Days[i], weight)
		s.Days[i].Focus = sessionFocus(s.Days[i])
	}
}

func weeklySummaries(s models.Schedule) []models.WeeklySummary {
	out := make([]models.WeeklySummary, s.HorizonWeeks)
	for i := range out {
		out[i].Week = i + 1
	}
	for _, d := range s.Days {
		if d.IsRest() {
			continue
		}
		w := &out[d.Week-1]
		w.WorkoutDays++
		w.TotalMinutes += d.DurationMinutes
		w.EstimatedCalories += d.EstimatedCalories
		if d.Type.IsResistance() {
			w.ResistanceSessions++
		}
		if d.Intensity == models.High {
			w.HighIntensitySessions++
		}
	}
	return out
}

// timeframe labels the expected time to visible body-composition change from
// the average number of workout days per week.
func timeframe(weeks []models.WeeklySummary) string {
	if len(weeks) == 0 {
		return "12-16 weeks"
	}
	total := 0
	for _, w := range weeks {
		total += w.WorkoutDays
	}
	avg := float64(total) / float64(len(weeks))
	switch {
	case avg >= 4:
		return "8-10 weeks"
	case avg >= 3:
		return "10-12 weeks"
	default:
		return "12-16 weeks"
	}
}
