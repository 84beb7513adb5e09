package fitness

import (
	"fmt"
	"math"

	"github.com/claude/fitharmony/internal/models"
	"github.com/claude/fitharmony/internal/schedule"
)

// Violation is one broken hard constraint.
type Violation struct {
	Day    int    `json:"day"`
	Week   int    `json:"week"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// Violation kinds.
const (
	KindUnavailableDay   = "unavailable_day"
	KindExcludedType     = "excluded_type"
	KindIntensityCap     = "intensity_above_ceiling"
	KindSessionTooLong   = "session_too_long"
	KindTooManySessions  = "too_many_sessions"
	KindTooFewResistance = "too_few_resistance_sessions"
)

// Violations lists every hard-constraint violation in h.
func Violations(h schedule.Harmony, pc models.PlanningConstraints) []Violation {
	var out []Violation
	checkHard(h, pc, func(v Violation) { out = append(out, v) })
	return out
}

// checkHard counts hard-constraint violations, reporting each one when
// report is non-nil.
func checkHard(h schedule.Harmony, pc models.PlanningConstraints, report func(Violation)) int {
	count := 0
	add := func(n int, v Violation) {
		count += n
		if report != nil {
			report(v)
		}
	}

	for start := 0; start < len(h); start += 7 {
		week := start/7 + 1
		sessions, resistance := 0, 0
		for i := start; i < min(start+7, len(h)); i++ {
			g := h[i]
			if g.IsRest() {
				continue
			}
			sessions++
			if g.Type.IsResistance() {
				resistance++
			}
			wd := models.Weekday(i % 7)
			if !pc.Available.Has(wd) {
				add(1, Violation{Day: i, Week: week, Kind: KindUnavailableDay, Detail: fmt.Sprintf("%s is not available", wd.Long())})
			}
			if pc.Excluded.Has(g.Type) {
				add(1, Violation{Day: i, Week: week, Kind: KindExcludedType, Detail: fmt.Sprintf("%s is excluded", g.Type)})
			}
			if g.Intensity > pc.MaxIntensity {
				add(1, Violation{Day: i, Week: week, Kind: KindIntensityCap, Detail: fmt.Sprintf("%s above %s ceiling", g.Intensity, pc.MaxIntensity)})
			}
			if g.Minutes() > pc.MaxSessionMinutes {
				add(1, Violation{Day: i, Week: week, Kind: KindSessionTooLong, Detail: fmt.Sprintf("%d min above %d min limit", g.Minutes(), pc.MaxSessionMinutes)})
			}
		}
		if sessions > pc.MaxSessionsPerWeek {
			add(sessions-pc.MaxSessionsPerWeek, Violation{Day: start, Week: week, Kind: KindTooManySessions,
				Detail: fmt.Sprintf("%d sessions, max %d", sessions, pc.MaxSessionsPerWeek)})
		}
		if resistance < pc.MinResistancePerWeek {
			add(pc.MinResistancePerWeek-resistance, Violation{Day: start, Week: week, Kind: KindTooFewResistance,
				Detail: fmt.Sprintf("%d resistance sessions, min %d", resistance, pc.MinResistancePerWeek)})
		}
	}
	return count
}

// goalAlignment measures how closely each week matches the session count,
// type distribution, upper/lower balance, volume and preferences the
// constraints ask for, blended with how evenly the week spreads its sessions
// over the permitted intensity levels, averaged over weeks.
func goalAlignment(h schedule.Harmony, pc models.PlanningConstraints, w Weights) float64 {
	weeks := 0
	total := 0.0
	for start := 0; start < len(h); start += 7 {
		week := h[start:min(start+7, len(h))]
		total += (1-w.IntensityBalance)*weekAlignment(week, pc) + w.IntensityBalance*intensityBalance(week, pc)
		weeks++
	}
	if weeks == 0 {
		return 0
	}
	return total / float64(weeks)
}

func weekAlignment(week schedule.Harmony, pc models.PlanningConstraints) float64 {
	var sessions, minutes, preferred int
	var counts [models.NumExerciseTypes]int
	for _, g := range week {
		if g.IsRest() {
			continue
		}
		sessions++
		minutes += g.Minutes()
		counts[g.Type]++
		if pc.Preferred.Has(g.Type) {
			preferred++
		}
	}

	target := max(pc.TargetSessionsPerWeek, 1)
	sessionScore := 1 - math.Min(1, math.Abs(float64(sessions-target))/float64(target))

	resistance := counts[models.ResistanceUpper] + counts[models.ResistanceLower] + counts[models.ResistanceFull]
	distErr := absInt(resistance-pc.TargetResistancePerWeek) +
		absInt(counts[models.Cardio]-pc.TargetCardioPerWeek) +
		absInt(counts[models.Flexibility]-pc.TargetFlexibilityPerWeek)
	distScore := 1 - math.Min(1, float64(distErr)/float64(2*target))

	balance := 1.0
	if pc.TargetResistancePerWeek > 0 {
		upper := counts[models.ResistanceUpper] + counts[models.ResistanceFull]
		lower := counts[models.ResistanceLower] + counts[models.ResistanceFull]
		if upper+lower == 0 {
			balance = 0
		} else {
			share := float64(lower) / float64(upper+lower)
			balance = 1 - math.Min(1, 2*math.Abs(share-pc.LowerBodyShare))
		}
	}

	volume := 1.0
	if pc.TargetWeeklyMinutes > 0 {
		volume = 1 - math.Min(1, math.Abs(float64(minutes-pc.TargetWeeklyMinutes))/float64(pc.TargetWeeklyMinutes))
	}

	prefer := 1.0
	if pc.Preferred != 0 {
		prefer = 0
		if sessions > 0 {
			prefer = float64(preferred) / float64(sessions)
		}
	}

	return clamp01(0.3*sessionScore + 0.3*distScore + 0.15*balance + 0.15*volume + 0.1*prefer)
}

// intensityBalance is 1 when the week's sessions are spread evenly over the
// intensity levels up to the ceiling, falling by the gap between the most
// and least used level relative to the session count.
// Low, moderate, high at the high ceiling -> 1; all high -> 0.
func intensityBalance(week schedule.Harmony, pc models.PlanningConstraints) float64 {
	levels := int(min(pc.MaxIntensity, models.NumIntensities-1)) + 1
	var counts [models.NumIntensities]int
	sessions := 0
	for _, g := range week {
		if g.IsRest() || int(g.Intensity) >= levels {
			continue
		}
		counts[g.Intensity]++
		sessions++
	}
	if sessions == 0 {
		return 1
	}
	lo, hi := counts[0], counts[0]
	for _, c := range counts[1:levels] {
		lo, hi = min(lo, c), max(hi, c)
	}
	return 1 - float64(hi-lo)/float64(sessions)
}

// recovery decays as high-intensity sessions crowd inside the minimum rest
// gap and as unbroken runs of active days grow past the streak limit.
func recovery(h schedule.Harmony, bio models.BiomarkerSet, pc models.PlanningConstraints, w Weights) float64 {
	maxStreak := w.MaxActiveStreak
	if bmi, ok := bio.Value(models.BMI); ok && w.HeavyBMI > 0 && bmi >= w.HeavyBMI && maxStreak > 1 {
		maxStreak--
	}

	gapExcess, streakExcess := 0, 0
	lastHigh := -1
	streak := 0
	for i, g := range h {
		if g.IsRest() {
			streak = 0
			continue
		}
		streak++
		if streak > maxStreak {
			streakExcess++
		}
		if g.Intensity == models.High {
			if lastHigh >= 0 {
				if gap := i - lastHigh - 1; gap < pc.MinRestGap {
					gapExcess += pc.MinRestGap - gap
				}
			}
			lastHigh = i
		}
	}
	return 1 / (1 + float64(gapExcess) + 0.5*float64(streakExcess))
}

// HighIntensityGapViolations counts pairs of successive high-intensity
// sessions closer together than the minimum rest gap.
func HighIntensityGapViolations(h schedule.Harmony, pc models.PlanningConstraints) int {
	n := 0
	lastHigh := -1
	for i, g := range h {
		if g.IsRest() || g.Intensity != models.High {
			continue
		}
		if lastHigh >= 0 && i-lastHigh-1 < pc.MinRestGap {
			n++
		}
		lastHigh = i
	}
	return n
}

// variety penalizes the same exercise type on more than MaxRepeat consecutive
// active days and rewards covering several exercise types.
func variety(h schedule.Harmony, pc models.PlanningConstraints, w Weights) float64 {
	repeatExcess := 0
	run := 0
	prev := models.Rest
	var seen models.ExerciseSet
	for _, g := range h {
		if g.IsRest() {
			run = 0
			prev = models.Rest
			continue
		}
		seen = seen.With(g.Type)
		if g.Type == prev {
			run++
		} else {
			run = 1
		}
		if run > w.MaxRepeat {
			repeatExcess++
		}
		prev = g.Type
	}

	possible := 0
	for t := models.Cardio; t < models.NumExerciseTypes; t++ {
		if !pc.Excluded.Has(t) {
			possible++
		}
	}
	want := min(3, possible, max(pc.TargetSessionsPerWeek, 1))
	distinct := 0.0
	if want > 0 {
		distinct = math.Min(1, float64(len(seen.Types()))/float64(want))
	}

	return 0.6/(1+float64(repeatExcess)) + 0.4*distinct
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
