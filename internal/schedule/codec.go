package schedule

import (
	"fmt"

	"github.com/claude/fitharmony/internal/models"
)

// Decode maps a harmony onto the day-indexed schedule view. Day 0 is the
// Monday of week 1.
func Decode(h Harmony) models.Schedule {
	s := models.Schedule{
		HorizonWeeks: (len(h) + 6) / 7,
		Days:         make([]models.Session, len(h)),
	}
	for i, g := range h {
		day := models.Session{
			Day:     i,
			Week:    i/7 + 1,
			Weekday: models.Weekday(i % 7),
			Type:    g.Type,
		}
		if !g.IsRest() {
			day.Intensity = g.Intensity
			day.DurationMinutes = g.Minutes()
		}
		s.Days[i] = day
	}
	return s
}

// Encode maps a schedule back to its harmony. Sessions must be listed in day
// order and use values from the declared domains.
func Encode(s models.Schedule) (Harmony, error) {
	h := make(Harmony, len(s.Days))
	for i, d := range s.Days {
		if d.Day != i {
			return nil, fmt.Errorf("session %d has day %d, want %d", i, d.Day, i)
		}
		if d.Type >= models.NumExerciseTypes {
			return nil, fmt.Errorf("day %d: invalid exercise type %d", i, d.Type)
		}
		if d.IsRest() {
			continue
		}
		if d.Intensity >= models.NumIntensities {
			return nil, fmt.Errorf("day %d: invalid intensity %d", i, d.Intensity)
		}
		idx, ok := models.DurationIndex(d.DurationMinutes)
		if !ok {
			return nil, fmt.Errorf("day %d: duration %d minutes not in %v", i, d.DurationMinutes, models.SessionDurations)
		}
		h[i] = Gene{Type: d.Type, Intensity: d.Intensity, Duration: uint8(idx)}
	}
	return h, nil
}
