package harmony

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/claude/fitharmony/internal/fitness"
	"github.com/claude/fitharmony/internal/models"
	"github.com/claude/fitharmony/internal/schedule"
	"github.com/google/go-cmp/cmp"
)

func oneGene(t models.ExerciseType) schedule.Harmony {
	return schedule.Harmony{{Type: t, Intensity: models.Low}}
}

func constraints() models.PlanningConstraints {
	return models.PlanningConstraints{
		Available:                models.NewWeekdaySet(models.Monday, models.Wednesday, models.Friday, models.Saturday),
		TargetSessionsPerWeek:    3,
		MaxSessionsPerWeek:       3,
		MinRestGap:               1,
		HorizonWeeks:             1,
		MaxIntensity:             models.High,
		MaxSessionMinutes:        60,
		MinResistancePerWeek:     1,
		TargetResistancePerWeek:  1,
		TargetCardioPerWeek:      1,
		TargetFlexibilityPerWeek: 1,
		LowerBodyShare:           0.5,
		TargetWeeklyMinutes:      150,
	}
}

// TestMemoryKeepsBestFirst verifies ordering and the capacity bound.
func TestMemoryKeepsBestFirst(t *testing.T) {
	m := NewMemory(3, 1)
	for _, f := range []float64{0.2, 0.9, 0.5, 0.1, 0.7} {
		m.Offer(oneGene(models.Cardio), f, true)
	}
	if m.Len() != 3 {
		t.Fatalf("Len = %d, want 3", m.Len())
	}
	var got []float64
	for _, mb := range m.Members() {
		got = append(got, mb.Fitness)
	}
	if diff := cmp.Diff([]float64{0.9, 0.7, 0.5}, got); diff != "" {
		t.Errorf("fitness order (-want +got):\n%s", diff)
	}
}

// TestMemoryTieKeepsIncumbent verifies an equal-fitness newcomer never evicts.
func TestMemoryTieKeepsIncumbent(t *testing.T) {
	m := NewMemory(2, 1)
	m.Offer(oneGene(models.Cardio), 1, true)
	m.Offer(oneGene(models.Flexibility), 0.5, true)

	if m.Offer(oneGene(models.ResistanceFull), 0.5, true) {
		t.Fatal("tie with the worst member was accepted")
	}
	if got := m.At(1).Harmony[0].Type; got != models.Flexibility {
		t.Errorf("worst member type = %v, want flexibility", got)
	}

	// An equal newcomer that is admitted ranks after the existing member.
	m2 := NewMemory(3, 1)
	m2.Offer(oneGene(models.Cardio), 0.5, true)
	m2.Offer(oneGene(models.Flexibility), 0.5, true)
	if got := m2.At(0).Harmony[0].Type; got != models.Cardio {
		t.Errorf("first equal member = %v, want cardio", got)
	}
}

// TestMemoryEvictionMonotonic verifies that once full, neither the worst nor
// the best fitness in memory ever decreases.
func TestMemoryEvictionMonotonic(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 9))
	m := NewMemory(5, 2)
	h := make(schedule.Harmony, 2)
	prevWorst, prevBest := -1e9, -1e9
	for i := 0; i < 2000; i++ {
		h[0], h[1] = schedule.RandomGene(rng), schedule.RandomGene(rng)
		m.Offer(h, rng.Float64()*2-1, rng.IntN(2) == 0)
		if m.Len() > m.Cap() {
			t.Fatalf("Len %d exceeds Cap %d", m.Len(), m.Cap())
		}
		best, _ := m.BestFitness()
		if best < prevBest {
			t.Fatalf("best fitness decreased: %g -> %g", prevBest, best)
		}
		prevBest = best
		if m.Len() == m.Cap() {
			worst, _ := m.WorstFitness()
			if worst < prevWorst {
				t.Fatalf("worst fitness decreased: %g -> %g", prevWorst, worst)
			}
			prevWorst = worst
		}
	}
}

// TestMemoryCopiesHarmony verifies the caller's slice can be reused after Offer.
func TestMemoryCopiesHarmony(t *testing.T) {
	m := NewMemory(1, 1)
	h := oneGene(models.Cardio)
	m.Offer(h, 1, true)
	h[0].Type = models.Flexibility
	if got := m.At(0).Harmony[0].Type; got != models.Cardio {
		t.Errorf("stored type = %v, want cardio", got)
	}
}

// TestSelectBestSkipsInfeasible verifies the selector returns the best
// feasible member and fails when none exists.
func TestSelectBestSkipsInfeasible(t *testing.T) {
	m := NewMemory(3, 1)
	m.Offer(oneGene(models.Cardio), 0.9, false)
	if _, err := SelectBest(m); !errors.Is(err, ErrNoFeasibleSchedule) {
		t.Fatalf("err = %v, want ErrNoFeasibleSchedule", err)
	}
	m.Offer(oneGene(models.Flexibility), 0.4, true)
	best, err := SelectBest(m)
	if err != nil {
		t.Fatal(err)
	}
	if best.Harmony[0].Type != models.Flexibility || !best.Feasible {
		t.Errorf("best = %+v, want feasible flexibility", best)
	}
}

// TestParamsValidate verifies each parameter bound is enforced.
func TestParamsValidate(t *testing.T) {
	if err := DefaultParams(1).Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	tests := []struct {
		name string
		edit func(*Params)
	}{
		{"zero memory", func(p *Params) { p.MemorySize = 0 }},
		{"hmcr above one", func(p *Params) { p.HMCR = 1.5 }},
		{"negative par", func(p *Params) { p.PAR = -0.1 }},
		{"zero bandwidth", func(p *Params) { p.Bandwidth = 0 }},
		{"zero iterations", func(p *Params) { p.MaxIterations = 0 }},
		{"negative patience", func(p *Params) { p.Patience = -1 }},
		{"negative deadline", func(p *Params) { p.Deadline = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams(1)
			tt.edit(&p)
			if err := p.Validate(); !errors.Is(err, ErrInvalidParams) {
				t.Errorf("err = %v, want ErrInvalidParams", err)
			}
		})
	}

	obj := func(schedule.Harmony) (float64, bool) { return 0, true }
	if _, err := New(DefaultParams(1), 0, obj, nil); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("zero-day horizon: err = %v, want ErrInvalidParams", err)
	}
}

func runEngine(t *testing.T, p Params, days int, obj Objective) *Result {
	t.Helper()
	e, err := New(p, days, obj, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

// TestRunDeterministic verifies that a fixed seed reproduces the final memory.
func TestRunDeterministic(t *testing.T) {
	pc := constraints()
	p := DefaultParams(42)
	p.MaxIterations = 1500

	a := runEngine(t, p, 7, fitness.NewEvaluator(models.BiomarkerSet{}, pc, fitness.DefaultWeights()).Objective)
	b := runEngine(t, p, 7, fitness.NewEvaluator(models.BiomarkerSet{}, pc, fitness.DefaultWeights()).Objective)

	if diff := cmp.Diff(a.Memory.Members(), b.Memory.Members()); diff != "" {
		t.Errorf("memories differ (-a +b):\n%s", diff)
	}
	if a.Iterations != b.Iterations || a.BestIteration != b.BestIteration {
		t.Errorf("iteration counts differ: %d/%d vs %d/%d", a.Iterations, a.BestIteration, b.Iterations, b.BestIteration)
	}
}

// TestRunConvergesToFeasible verifies the engine finds a feasible schedule for
// satisfiable constraints.
func TestRunConvergesToFeasible(t *testing.T) {
	pc := constraints()
	res := runEngine(t, DefaultParams(7), 7, fitness.NewEvaluator(models.BiomarkerSet{}, pc, fitness.DefaultWeights()).Objective)
	if res.State != Converged {
		t.Fatalf("state = %v, want converged", res.State)
	}
	best, err := SelectBest(res.Memory)
	if err != nil {
		t.Fatal(err)
	}
	if vs := fitness.Violations(best.Harmony, pc); len(vs) != 0 {
		t.Errorf("best harmony has violations: %+v", vs)
	}
	if res.Evaluations != res.Iterations+DefaultParams(7).MemorySize {
		t.Errorf("evaluations = %d, want iterations + memory size", res.Evaluations)
	}
}

// TestRunExhausted verifies a run with nothing feasible ends Exhausted.
func TestRunExhausted(t *testing.T) {
	p := DefaultParams(3)
	p.MaxIterations = 200
	res := runEngine(t, p, 7, func(schedule.Harmony) (float64, bool) { return -5, false })
	if res.State != Exhausted {
		t.Errorf("state = %v, want exhausted", res.State)
	}
	if res.StopReason != StopBudget {
		t.Errorf("stop reason = %s, want %s", res.StopReason, StopBudget)
	}
	if _, err := SelectBest(res.Memory); !errors.Is(err, ErrNoFeasibleSchedule) {
		t.Errorf("err = %v, want ErrNoFeasibleSchedule", err)
	}
}

// TestRunPatience verifies the run stops after Patience non-improving iterations.
func TestRunPatience(t *testing.T) {
	p := DefaultParams(3)
	p.Patience = 50
	res := runEngine(t, p, 7, func(schedule.Harmony) (float64, bool) { return 0.5, true })
	if res.StopReason != StopPatience || res.Iterations != 50 {
		t.Errorf("stop = %s after %d iterations, want patience after 50", res.StopReason, res.Iterations)
	}
	if res.State != Converged {
		t.Errorf("state = %v, want converged", res.State)
	}
}

// TestRunDeadline verifies an expired deadline ends the run, during
// initialization too, with the memory built so far.
func TestRunDeadline(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	e, err := New(DefaultParams(1), 7, func(schedule.Harmony) (float64, bool) { return 0.5, true }, nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := e.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.StopReason != StopDeadline || res.Iterations != 0 {
		t.Errorf("stop = %s after %d iterations, want deadline after 0", res.StopReason, res.Iterations)
	}
	if res.Memory.Len() != 1 {
		t.Errorf("memory len = %d, want only the first harmony", res.Memory.Len())
	}
	if e.State() != Converged {
		t.Errorf("state = %v, want converged", e.State())
	}
}

// TestRunCanceled verifies cancellation surfaces the context error.
func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e, err := New(DefaultParams(1), 7, func(schedule.Harmony) (float64, bool) { return 0.5, true }, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if e.State() != Converged {
		t.Errorf("state after cancel = %v, want converged", e.State())
	}
	if _, err := e.Run(context.Background()); err == nil {
		t.Error("second Run on the same engine succeeded")
	}
}

// TestRunPatienceWaitsForFeasible verifies stagnation without a feasible
// member never stops the run early, and that it starts counting once one
// appears.
func TestRunPatienceWaitsForFeasible(t *testing.T) {
	p := DefaultParams(5)
	p.Patience = 20
	p.MaxIterations = 300
	res := runEngine(t, p, 7, func(schedule.Harmony) (float64, bool) { return -5, false })
	if res.StopReason != StopBudget || res.Iterations != 300 {
		t.Errorf("infeasible run: stop = %s after %d iterations, want budget after 300", res.StopReason, res.Iterations)
	}

	calls := 0
	res = runEngine(t, p, 7, func(schedule.Harmony) (float64, bool) {
		calls++
		// Feasible only from iteration 101 on, at a constant score.
		if calls > p.MemorySize+100 {
			return 0.5, true
		}
		return -5, false
	})
	if res.StopReason != StopPatience || res.State != Converged {
		t.Fatalf("stop = %s state = %v, want patience and converged", res.StopReason, res.State)
	}
	if res.Iterations <= 100 {
		t.Errorf("stopped after %d iterations, before any feasible member", res.Iterations)
	}
}

// TestLargeMemoryHonorsDeadline verifies the deadline also bounds filling a
// large memory.
func TestLargeMemoryHonorsDeadline(t *testing.T) {
	p := DefaultParams(2)
	p.MemorySize = 200000
	p.Deadline = 20 * time.Millisecond
	obj := func(schedule.Harmony) (float64, bool) {
		time.Sleep(50 * time.Microsecond)
		return 0.5, true
	}
	start := time.Now()
	res := runEngine(t, p, 7, obj)
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("run took %s despite a 20ms deadline", elapsed)
	}
	if res.StopReason != StopDeadline || res.Memory.Len() >= p.MemorySize {
		t.Errorf("stop = %s with %d members, want deadline before memory filled", res.StopReason, res.Memory.Len())
	}
}

// TestRestrictedDomain verifies rest-only days stay rest and drawn genes keep
// within the intensity and duration ceilings.
func TestRestrictedDomain(t *testing.T) {
	pc := constraints()
	pc.MaxIntensity = models.Moderate
	pc.MaxSessionMinutes = 45
	pc.Excluded = models.NewExerciseSet(models.Flexibility)
	pc.TargetFlexibilityPerWeek = 0

	e, err := New(DefaultParams(11), 7, fitness.NewEvaluator(models.BiomarkerSet{}, pc, fitness.DefaultWeights()).Objective, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Restrict(schedule.FullDomain(3)); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("short domain: err = %v, want ErrInvalidParams", err)
	}
	if err := e.Restrict(schedule.DomainFor(pc)); err != nil {
		t.Fatal(err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range res.Memory.Members() {
		for d, g := range m.Harmony {
			if !pc.Available.Has(models.Weekday(d)) && !g.IsRest() {
				t.Fatalf("session on unavailable day %d: %+v", d, g)
			}
			if g.Intensity > models.Moderate || g.Minutes() > 45 || g.Type == models.Flexibility {
				t.Fatalf("gene outside domain on day %d: %+v", d, g)
			}
		}
	}
	if res.State != Converged {
		t.Errorf("state = %v, want converged", res.State)
	}
}
