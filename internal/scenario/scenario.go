// Package scenario fans independent what-if runs out across
// goroutines: spec.md §5 rules out parallelizing a single assembly's
// build internally ("no parallel distributed assembly"), but says
// nothing against a caller instantiating one Problem per worker and
// running several scenarios side by side — that concrete form is what
// this package gives callers.
package scenario

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/gridsched/internal/assembly"
	"github.com/aristath/gridsched/internal/problem"
	"github.com/aristath/gridsched/internal/resource"
	"github.com/aristath/gridsched/internal/timeutil"
)

// Spec describes one independent scenario: a name for logging/results,
// and a Build function that populates a fresh Assembly (its own
// objects, traits, and boundary conditions — nothing shared with any
// other scenario's Build call, since each runs against its own
// Problem).
type Spec struct {
	Name  string
	Build func() (*assembly.Assembly, error)
}

// Result is one scenario's outcome: its Problem.Stats() snapshot after
// solving, or the error that stopped it.
type Result struct {
	Name  string
	Stats problem.Stats
	Err   error
}

// RunAll builds and solves every spec concurrently, each against its
// own Assembly/Problem pair, advanced once to pt before solving.
// MaxConcurrency caps how many scenarios run at once (0 means
// unbounded); it is the scenario-level counterpart of
// config.SolverTunables.MaxConcurrency, which instead caps concurrency
// inside a single solve.
func RunAll(ctx context.Context, log zerolog.Logger, specs []Spec, pt timeutil.ProbTime, maxConcurrency int) []Result {
	batchId := uuid.New()
	batchLog := log.With().Str("batch_id", batchId.String()).Logger()
	batchLog.Info().Int("scenarios", len(specs)).Msg("starting scenario batch")

	results := make([]Result, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	if maxConcurrency > 0 {
		g.SetLimit(maxConcurrency)
	}

	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			results[i] = runOne(gctx, batchLog, spec, pt)
			return nil
		})
	}

	// Errors are captured per-result, not propagated through the group:
	// one scenario's failure must not cancel its siblings' solves.
	_ = g.Wait()

	return results
}

func runOne(ctx context.Context, log zerolog.Logger, spec Spec, pt timeutil.ProbTime) Result {
	scenarioLog := log.With().Str("scenario", spec.Name).Logger()

	a, err := spec.Build()
	if err != nil {
		return Result{Name: spec.Name, Err: fmt.Errorf("build scenario %s: %w", spec.Name, err)}
	}

	p := problem.New(scenarioLog)

	if err := a.BuildHorizons(); err != nil {
		return Result{Name: spec.Name, Err: fmt.Errorf("build horizons for %s: %w", spec.Name, err)}
	}
	if err := a.Build(p); err != nil {
		return Result{Name: spec.Name, Err: fmt.Errorf("build problem for %s: %w", spec.Name, err)}
	}
	if err := a.SetConstants(p); err != nil {
		return Result{Name: spec.Name, Err: fmt.Errorf("set constants for %s: %w", spec.Name, err)}
	}
	if err := a.Update(p, pt); err != nil {
		return Result{Name: spec.Name, Err: fmt.Errorf("update %s: %w", spec.Name, err)}
	}
	if err := a.CheckInvariants(); err != nil {
		return Result{Name: spec.Name, Err: fmt.Errorf("invariants for %s: %w", spec.Name, err)}
	}

	if ctx.Err() != nil {
		return Result{Name: spec.Name, Err: ctx.Err()}
	}

	solveErr := resource.Around(scenarioLog, "scenario:"+spec.Name, func() error {
		return p.Solve()
	})
	if solveErr != nil {
		return Result{Name: spec.Name, Err: fmt.Errorf("solve %s: %w", spec.Name, solveErr)}
	}

	return Result{Name: spec.Name, Stats: p.Stats()}
}
