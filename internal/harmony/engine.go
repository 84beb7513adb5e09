package harmony

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/claude/fitharmony/internal/schedule"
)

// State is the lifecycle state of an Engine.
type State int

const (
	Initializing State = iota
	Improvising
	Converged // terminated with at least one feasible harmony in memory
	Exhausted // terminated without any feasible harmony
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Improvising:
		return "improvising"
	case Converged:
		return "converged"
	case Exhausted:
		return "exhausted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// StopReason records which limit ended the improvisation loop.
type StopReason string

const (
	StopPatience StopReason = "patience"
	StopBudget   StopReason = "max_iterations"
	StopDeadline StopReason = "deadline"
)

// Objective scores a harmony. It must be deterministic.
type Objective func(schedule.Harmony) (fitness float64, feasible bool)

// Result describes a finished run.
type Result struct {
	Memory        *Memory
	State         State
	StopReason    StopReason
	Iterations    int
	BestIteration int
	Evaluations   int
	Duration      time.Duration
}

// Engine runs Harmony Search for one invocation. It owns its memory and
// random source and must not be shared between goroutines.
type Engine struct {
	params    Params
	days      int
	objective Objective
	log       *slog.Logger

	rng    *rand.Rand
	domain *schedule.Domain
	mem    *Memory
	state State
	buf   schedule.Harmony
	evals int
}

// New validates params and creates an engine for harmonies of days genes.
func New(params Params, days int, objective Objective, log *slog.Logger) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if days < 1 {
		return nil, fmt.Errorf("%w: horizon must have at least one day, got %d", ErrInvalidParams, days)
	}
	if objective == nil {
		return nil, errors.New("harmony: nil objective")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		params:    params,
		days:      days,
		objective: objective,
		log:       log,
		rng:       rand.New(rand.NewPCG(params.Seed, params.Seed^0x9e3779b97f4a7c15)),
		domain:    schedule.FullDomain(days),
		mem:       NewMemory(params.MemorySize, days),
		state:     Initializing,
		buf:       make(schedule.Harmony, days),
	}, nil
}

// Restrict narrows the values drawn for each day. It must be called before Run.
func (e *Engine) Restrict(d *schedule.Domain) error {
	if e.state != Initializing {
		return errors.New("harmony: engine already ran")
	}
	if d == nil || d.Days() != e.days {
		return fmt.Errorf("%w: domain does not cover %d days", ErrInvalidParams, e.days)
	}
	e.domain = d
	return nil
}

// State returns the current lifecycle state.
func (e *Engine) State() State { return e.state }

// Run fills the memory with random harmonies, then improvises until the
// iteration budget is spent, the deadline passes, or the best fitness has not
// improved for Patience iterations since memory first held a feasible
// harmony. A run that never finds a feasible harmony ends by budget or
// deadline. The context is checked between harmonies; deadline expiry ends
// the run normally with the memory built so far, while cancellation returns
// the context error. Either way the engine ends in a terminal state.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if e.state != Initializing {
		return nil, errors.New("harmony: engine already ran")
	}
	start := time.Now()
	if e.params.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.params.Deadline)
		defer cancel()
	}

	res := &Result{Memory: e.mem}

	// At least one harmony is always evaluated so a stopped run has a
	// member to report.
	for e.mem.Len() < e.mem.Cap() {
		if e.mem.Len() > 0 {
			if stop, err := e.interrupted(ctx); err != nil {
				return nil, err
			} else if stop {
				res.StopReason = StopDeadline
				break
			}
		}
		for d := range e.buf {
			e.buf[d] = e.domain.Random(e.rng, d)
		}
		e.offer()
	}

	if res.StopReason == "" {
		e.state = Improvising
	}
	best, _ := e.mem.BestFitness()
	stale := 0
	for res.StopReason == "" && res.Iterations < e.params.MaxIterations {
		if stop, err := e.interrupted(ctx); err != nil {
			return nil, err
		} else if stop {
			res.StopReason = StopDeadline
			break
		}

		res.Iterations++
		e.improvise()
		e.offer()

		if b, _ := e.mem.BestFitness(); b > best {
			best = b
			res.BestIteration = res.Iterations
			stale = 0
		} else if e.mem.HasFeasible() {
			stale++
		}
		if e.params.Patience > 0 && stale >= e.params.Patience {
			res.StopReason = StopPatience
			break
		}
	}
	if res.StopReason == "" {
		res.StopReason = StopBudget
	}

	e.finish()
	res.State = e.state
	res.Evaluations = e.evals
	res.Duration = time.Since(start)

	e.log.Debug("harmony search finished",
		"state", res.State.String(),
		"stop_reason", string(res.StopReason),
		"iterations", res.Iterations,
		"best_iteration", res.BestIteration,
		"best_fitness", best,
		"seed", e.params.Seed,
	)
	return res, nil
}

// interrupted reports a passed deadline as a stop, and any other context
// error as a failure after moving the engine to its terminal state.
func (e *Engine) interrupted(ctx context.Context) (bool, error) {
	err := ctx.Err()
	if err == nil {
		return false, nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true, nil
	}
	e.finish()
	return false, fmt.Errorf("harmony search interrupted: %w", err)
}

func (e *Engine) finish() {
	if e.mem.HasFeasible() {
		e.state = Converged
	} else {
		e.state = Exhausted
	}
}

// improvise builds a new harmony in buf: each day is drawn from memory with
// probability HMCR, then pitch-adjusted with probability PAR; otherwise it is
// drawn uniformly from that day's domain.
func (e *Engine) improvise() {
	n := e.mem.Len()
	for d := range e.buf {
		if e.rng.Float64() < e.params.HMCR {
			g := e.mem.gene(e.mem.order[e.rng.IntN(n)], d)
			if e.rng.Float64() < e.params.PAR {
				g = e.domain.Adjust(e.rng, d, g, e.params.Bandwidth)
			}
			e.buf[d] = g
		} else {
			e.buf[d] = e.domain.Random(e.rng, d)
		}
	}
}

func (e *Engine) offer() bool {
	fit, feasible := e.objective(e.buf)
	e.evals++
	return e.mem.Offer(e.buf, fit, feasible)
}
