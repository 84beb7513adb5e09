// Package schedule defines the search-space representation of a training
// schedule and maps it to and from the day-indexed Schedule view.
package schedule

import (
	"math/rand/v2"

	"github.com/claude/fitharmony/internal/models"
)

// Gene is the decision variable for one day slot. The zero Gene is rest;
// rest genes always carry zero intensity and duration.
type Gene struct {
	Type      models.ExerciseType
	Intensity models.Intensity
	Duration  uint8 // index into models.SessionDurations
}

// IsRest reports whether the gene is a rest day.
func (g Gene) IsRest() bool {
	return g.Type == models.Rest
}

// Minutes returns the session length in minutes, zero for rest.
func (g Gene) Minutes() int {
	if g.IsRest() {
		return 0
	}
	return models.SessionDurations[g.Duration]
}

// Valid reports whether every component lies in its declared domain and rest
// genes are canonical.
func (g Gene) Valid() bool {
	if g.Type >= models.NumExerciseTypes {
		return false
	}
	if g.IsRest() {
		return g.Intensity == 0 && g.Duration == 0
	}
	return g.Intensity < models.NumIntensities && int(g.Duration) < models.NumDurations
}

// Harmony is a full candidate schedule: one gene per day of the horizon.
type Harmony []Gene

// Clone returns an independent copy of h.
func (h Harmony) Clone() Harmony {
	out := make(Harmony, len(h))
	copy(out, h)
	return out
}

// Valid reports whether every gene is valid.
func (h Harmony) Valid() bool {
	for _, g := range h {
		if !g.Valid() {
			return false
		}
	}
	return true
}

// Key returns a compact string form of h usable as a map key.
func (h Harmony) Key() string {
	b := make([]byte, len(h))
	for i, g := range h {
		b[i] = byte(g.Type)<<5 | byte(g.Intensity)<<3 | g.Duration
	}
	return string(b)
}

// RandomGene draws a gene uniformly: the exercise type uniformly over the
// whole catalogue, then intensity and duration uniformly for active types.
func RandomGene(rng *rand.Rand) Gene {
	t := models.ExerciseType(rng.IntN(models.NumExerciseTypes))
	if t == models.Rest {
		return Gene{}
	}
	return Gene{
		Type:      t,
		Intensity: models.Intensity(rng.IntN(models.NumIntensities)),
		Duration:  uint8(rng.IntN(models.NumDurations)),
	}
}

// AdjustGene moves g to a neighbouring value: either intensity by one level or
// duration by up to bandwidth steps, clamped to the domain edges. Rest genes
// have no ordered components and are returned unchanged.
func AdjustGene(rng *rand.Rand, g Gene, bandwidth int) Gene {
	if g.IsRest() {
		return g
	}
	if bandwidth < 1 {
		bandwidth = 1
	}
	if rng.IntN(2) == 0 {
		g.Intensity = models.Intensity(clamp(int(g.Intensity)+step(rng, 1), 0, models.NumIntensities-1))
		return g
	}
	g.Duration = uint8(clamp(int(g.Duration)+step(rng, bandwidth), 0, models.NumDurations-1))
	return g
}

// step returns a non-zero offset in [-bw, bw].
func step(rng *rand.Rand, bw int) int {
	n := 1 + rng.IntN(bw)
	if rng.IntN(2) == 0 {
		return -n
	}
	return n
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
