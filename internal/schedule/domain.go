package schedule

import (
	"math/rand/v2"

	"github.com/claude/fitharmony/internal/models"
)

// Domain is the per-day value set the search draws genes from. Days marked
// rest-only always receive the rest gene; other days draw from the active
// types, capped in intensity and duration.
type Domain struct {
	restOnly     []bool
	types        []models.ExerciseType // rest first, then the allowed active types
	maxIntensity models.Intensity
	maxDuration  int // index into models.SessionDurations
}

// FullDomain allows every value on every one of days.
func FullDomain(days int) *Domain {
	types := make([]models.ExerciseType, models.NumExerciseTypes)
	for i := range types {
		types[i] = models.ExerciseType(i)
	}
	return &Domain{
		restOnly:     make([]bool, days),
		types:        types,
		maxIntensity: models.NumIntensities - 1,
		maxDuration:  models.NumDurations - 1,
	}
}

// DomainFor narrows the full domain by the constraints that bind single days:
// unavailable weekdays rest, excluded types are never drawn, and intensity and
// duration stay within their ceilings. Day 0 is a Monday.
func DomainFor(pc models.PlanningConstraints) *Domain {
	d := FullDomain(pc.HorizonDays())
	for i := range d.restOnly {
		d.restOnly[i] = !pc.Available.Has(models.Weekday(i % 7))
	}

	d.types = d.types[:0]
	d.types = append(d.types, models.Rest)
	for t := models.ExerciseType(0); t < models.NumExerciseTypes; t++ {
		if t != models.Rest && !pc.Excluded.Has(t) {
			d.types = append(d.types, t)
		}
	}

	d.maxIntensity = min(pc.MaxIntensity, models.NumIntensities-1)
	d.maxDuration = 0
	for i, m := range models.SessionDurations {
		if m <= pc.MaxSessionMinutes {
			d.maxDuration = i
		}
	}
	return d
}

// Days returns the number of days the domain covers.
func (d *Domain) Days() int { return len(d.restOnly) }

// RestOnly reports whether day may only rest.
func (d *Domain) RestOnly(day int) bool { return d.restOnly[day] }

// Random draws a gene for day uniformly from the domain.
func (d *Domain) Random(rng *rand.Rand, day int) Gene {
	if d.restOnly[day] {
		return Gene{}
	}
	t := d.types[rng.IntN(len(d.types))]
	if t == models.Rest {
		return Gene{}
	}
	return Gene{
		Type:      t,
		Intensity: models.Intensity(rng.IntN(int(d.maxIntensity) + 1)),
		Duration:  uint8(rng.IntN(d.maxDuration + 1)),
	}
}

// Adjust moves g to a neighbouring value like AdjustGene, clamped to the
// domain's ceilings.
func (d *Domain) Adjust(rng *rand.Rand, day int, g Gene, bandwidth int) Gene {
	if d.restOnly[day] {
		return Gene{}
	}
	g = AdjustGene(rng, g, bandwidth)
	if g.IsRest() {
		return g
	}
	g.Intensity = min(g.Intensity, d.maxIntensity)
	g.Duration = uint8(min(int(g.Duration), d.maxDuration))
	return g
}
