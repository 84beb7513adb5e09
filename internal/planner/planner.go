// Package planner runs one schedule optimization end to end: normalize the
// biomarkers and goals, search, select the best feasible schedule and
// assemble the result handed to narrative and rendering collaborators.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/claude/fitharmony/internal/fitness"
	"github.com/claude/fitharmony/internal/harmony"
	"github.com/claude/fitharmony/internal/models"
	"github.com/claude/fitharmony/internal/normalize"
	"github.com/claude/fitharmony/internal/schedule"
	"github.com/claude/fitharmony/internal/storage"
)

// Config holds the defaults and limits every request is resolved against.
type Config struct {
	Search     harmony.Params       `yaml:"search"`
	Weights    fitness.Weights      `yaml:"weights"`
	Thresholds normalize.Thresholds `yaml:"thresholds"`

	// Upper bounds on per-request overrides.
	MaxIterationsLimit int `yaml:"max_iterations_limit"`
	MaxMemorySize      int `yaml:"max_memory_size"`
	MaxRestarts        int `yaml:"max_restarts"`
}

// DefaultConfig returns the stock planner configuration.
func DefaultConfig() Config {
	return Config{
		Search:             harmony.DefaultParams(0),
		Weights:            fitness.DefaultWeights(),
		Thresholds:         normalize.DefaultThresholds(),
		MaxIterationsLimit: 50000,
		MaxMemorySize:      200,
		MaxRestarts:        8,
	}
}

// ObjectiveWeights overrides individual objective weights.
type ObjectiveWeights struct {
	GoalAlignment    *float64 `json:"goal_alignment,omitempty" yaml:"goal_alignment,omitempty"`
	Recovery         *float64 `json:"recovery,omitempty" yaml:"recovery,omitempty"`
	Variety          *float64 `json:"variety,omitempty" yaml:"variety,omitempty"`
	IntensityBalance *float64 `json:"intensity_balance,omitempty" yaml:"intensity_balance,omitempty"`
}

// SearchOptions are per-request overrides of the search configuration.
// Nil fields keep the configured value.
type SearchOptions struct {
	Seed          *uint64           `json:"seed,omitempty" yaml:"seed,omitempty"`
	MemorySize    *int              `json:"memory_size,omitempty" yaml:"memory_size,omitempty"`
	HMCR          *float64          `json:"hmcr,omitempty" yaml:"hmcr,omitempty"`
	PAR           *float64          `json:"par,omitempty" yaml:"par,omitempty"`
	Bandwidth     *int              `json:"bandwidth,omitempty" yaml:"bandwidth,omitempty"`
	MaxIterations *int              `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty"`
	Patience      *int              `json:"patience,omitempty" yaml:"patience,omitempty"`
	DeadlineMs    *int              `json:"deadline_ms,omitempty" yaml:"deadline_ms,omitempty"`
	Restarts      int               `json:"restarts,omitempty" yaml:"restarts,omitempty"`
	Weights       *ObjectiveWeights `json:"weights,omitempty" yaml:"weights,omitempty"`
}

// Request is one optimization invocation.
type Request struct {
	Biomarkers models.RawBiomarkers `json:"biomarkers" yaml:"biomarkers"`
	Goals      models.Goals         `json:"goals" yaml:"goals"`
	Search     SearchOptions        `json:"search" yaml:"search"`
}

// NoScheduleError reports a search that ended without any feasible schedule.
// It matches both harmony.ErrNoFeasibleSchedule and
// normalize.ErrInfeasibleConstraints.
type NoScheduleError struct {
	Seed       uint64
	Iterations int
	Violations []fitness.Violation // of the closest candidate found
}

func (e *NoScheduleError) Error() string {
	return fmt.Sprintf("no feasible schedule after %d iterations (seed %d): closest candidate breaks %d constraints",
		e.Iterations, e.Seed, len(e.Violations))
}

func (e *NoScheduleError) Unwrap() []error {
	return []error{harmony.ErrNoFeasibleSchedule, normalize.ErrInfeasibleConstraints}
}

// Planner runs optimizations. It is safe for concurrent use; every run gets
// its own engine, memory and random source.
type Planner struct {
	cfg     Config
	log     *slog.Logger
	newSeed func() uint64
	now     func() time.Time
}

// New creates a Planner.
func New(cfg Config, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Planner{
		cfg:     cfg,
		log:     logger,
		newSeed: rand.Uint64,
		now:     time.Now,
	}
}

// Config returns the planner's configuration.
func (p *Planner) Config() Config {
	return p.cfg
}

// Plan runs the request with the number of restarts it asks for (at least one).
func (p *Planner) Plan(ctx context.Context, req Request) (*models.PlanResult, error) {
	return p.PlanBestOf(ctx, req, max(req.Search.Restarts, 1))
}

// PlanForUser plans from the user's latest stored readings. Biomarkers in
// req override the stored values. It also returns when the newest stored
// reading was taken.
func (p *Planner) PlanForUser(ctx context.Context, src storage.Source, userID int, req Request) (*models.PlanResult, time.Time, error) {
	stored, measuredAt, err := src.LatestBiomarkers(ctx, userID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("loading biomarkers for user %d: %w", userID, err)
	}
	for name, reading := range req.Biomarkers {
		stored[name] = reading
	}
	req.Biomarkers = stored

	res, err := p.Plan(ctx, req)
	if err != nil {
		return nil, time.Time{}, err
	}
	return res, measuredAt, nil
}

// PlanBestOf runs restarts independent searches in parallel, seeded
// seed, seed+1, ..., and returns the best feasible result. Ties go to the
// lowest seed. If no run finds a feasible schedule, the lowest seed's
// *NoScheduleError is returned.
func (p *Planner) PlanBestOf(ctx context.Context, req Request, restarts int) (*models.PlanResult, error) {
	bio, pc, err := normalize.Normalize(req.Biomarkers, req.Goals, p.cfg.Thresholds)
	if err != nil {
		return nil, err
	}
	params, weights, err := p.resolve(req.Search, restarts)
	if err != nil {
		return nil, err
	}

	type outcome struct {
		result *models.PlanResult
		err    error
	}
	outcomes := make([]outcome, restarts)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range restarts {
		runParams := params
		runParams.Seed = params.Seed + uint64(i)
		g.Go(func() error {
			res, err := p.run(gctx, bio, pc, runParams, weights)
			var noSchedule *NoScheduleError
			if errors.As(err, &noSchedule) {
				outcomes[i].err = err
				return nil
			}
			if err != nil {
				return err
			}
			outcomes[i].result = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var best *models.PlanResult
	for _, o := range outcomes {
		if o.result != nil && (best == nil || o.result.Fitness > best.Fitness) {
			best = o.result
		}
	}
	if best == nil {
		return nil, outcomes[0].err
	}

	p.log.Info("plan generated",
		"plan_id", best.ID,
		"seed", best.Search.Seed,
		"restarts", restarts,
		"fitness", best.Fitness,
		"state", best.Search.State,
		"iterations", best.Search.Iterations,
	)
	return best, nil
}

// run performs one search with its own evaluator and engine.
func (p *Planner) run(ctx context.Context, bio models.BiomarkerSet, pc models.PlanningConstraints, params harmony.Params, w fitness.Weights) (*models.PlanResult, error) {
	ev := fitness.NewEvaluator(bio, pc, w)
	eng, err := harmony.New(params, pc.HorizonDays(), ev.Objective, p.log.With("seed", params.Seed))
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	if err := eng.Restrict(schedule.DomainFor(pc)); err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	res, err := eng.Run(ctx)
	if err != nil {
		return nil, err
	}

	best, err := harmony.SelectBest(res.Memory)
	if err != nil {
		closest := res.Memory.At(0)
		return nil, &NoScheduleError{
			Seed:       params.Seed,
			Iterations: res.Iterations,
			Violations: fitness.Violations(closest.Harmony, pc),
		}
	}
	score := ev.Evaluate(best.Harmony)

	sched := schedule.Decode(best.Harmony)
	annotate(&sched, bio)
	weekly := weeklySummaries(sched)

	return &models.PlanResult{
		ID:         uuid.New(),
		CreatedAt:  p.now().UTC(),
		Schedule:   sched,
		Fitness:    score.Fitness,
		Feasible:   score.Feasible,
		Objectives: score.Objectives,
		Weekly:     weekly,
		Timeframe:  timeframe(weekly),
		Search: models.SearchStats{
			State:         res.State.String(),
			StopReason:    string(res.StopReason),
			Iterations:    res.Iterations,
			BestIteration: res.BestIteration,
			Evaluations:   res.Evaluations,
			Seed:          params.Seed,
			DurationMs:    res.Duration.Milliseconds(),
		},
		Biomarkers:  bio,
		Constraints: pc,
	}, nil
}

// resolve applies per-request overrides to the configured defaults and
// checks them against the configured limits.
func (p *Planner) resolve(opts SearchOptions, restarts int) (harmony.Params, fitness.Weights, error) {
	params := p.cfg.Search
	if opts.Seed != nil {
		params.Seed = *opts.Seed
	} else {
		params.Seed = p.newSeed()
	}
	setInt(&params.MemorySize, opts.MemorySize)
	setFloat(&params.HMCR, opts.HMCR)
	setFloat(&params.PAR, opts.PAR)
	setInt(&params.Bandwidth, opts.Bandwidth)
	setInt(&params.MaxIterations, opts.MaxIterations)
	setInt(&params.Patience, opts.Patience)
	if opts.DeadlineMs != nil {
		params.Deadline = time.Duration(*opts.DeadlineMs) * time.Millisecond
	}

	w := p.cfg.Weights
	if opts.Weights != nil {
		setFloat(&w.GoalAlignment, opts.Weights.GoalAlignment)
		setFloat(&w.Recovery, opts.Weights.Recovery)
		setFloat(&w.Variety, opts.Weights.Variety)
		setFloat(&w.IntensityBalance, opts.Weights.IntensityBalance)
	}

	if err := params.Validate(); err != nil {
		return params, w, err
	}
	if err := w.Validate(); err != nil {
		return params, w, fmt.Errorf("%w: %v", harmony.ErrInvalidParams, err)
	}
	if p.cfg.MaxIterationsLimit > 0 && params.MaxIterations > p.cfg.MaxIterationsLimit {
		return params, w, fmt.Errorf("%w: max_iterations %d above limit %d", harmony.ErrInvalidParams, params.MaxIterations, p.cfg.MaxIterationsLimit)
	}
	if p.cfg.MaxMemorySize > 0 && params.MemorySize > p.cfg.MaxMemorySize {
		return params, w, fmt.Errorf("%w: memory_size %d above limit %d", harmony.ErrInvalidParams, params.MemorySize, p.cfg.MaxMemorySize)
	}
	if restarts < 1 || (p.cfg.MaxRestarts > 0 && restarts > p.cfg.MaxRestarts) {
		return params, w, fmt.Errorf("%w: restarts must be in [1,%d], got %d", harmony.ErrInvalidParams, p.cfg.MaxRestarts, restarts)
	}
	return params, w, nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
