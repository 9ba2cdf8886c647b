// Package experiment generates families of configurations (sweeps, unit-space
// scatter samples, presets) and runs each through the simulation engine.
package experiment

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/inference-sim/teamsim/sim"
)

// Runner executes experiment points concurrently. Points share no mutable
// state; results are stored by index so output order never depends on
// scheduling.
type Runner struct {
	// Catalog resolves "preset:<group>" sweep parameters and preset selections.
	// Nil means the built-in catalog.
	Catalog *Catalog
	// Parallelism bounds concurrently running points; 0 = GOMAXPROCS.
	Parallelism int
	// Progress, when set, is called after each completed point with
	// (done, total). Calls are serialized.
	Progress func(done, total int)
}

func (r *Runner) catalog() *Catalog {
	if r.Catalog == nil {
		r.Catalog = DefaultCatalog()
	}
	return r.Catalog
}

// runPoints runs fn for i in [0,n) with bounded concurrency. Cancellation is
// observed between points; the first error cancels the remaining points.
func (r *Runner) runPoints(ctx context.Context, n int, fn func(i int) error) error {
	limit := r.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var mu sync.Mutex
	done := 0
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := fn(i); err != nil {
				return err
			}
			if r.Progress != nil {
				mu.Lock()
				done++
				r.Progress(done, n)
				mu.Unlock()
			}
			return nil
		})
	}
	return g.Wait()
}

// runConfig runs one point's configuration with every replicate sequential;
// parallelism is spent across points instead.
func runConfig(ctx context.Context, cfg sim.Config) (*sim.SimulationResult, error) {
	cfg.Simulation.Parallelism = 1
	return sim.RunSimulation(ctx, cfg)
}

// pinSeed replaces an unset seed with one fresh key so every point of an
// experiment shares the same random streams.
func pinSeed(cfg sim.Config) sim.Config {
	if cfg.Simulation.Seed == 0 {
		cfg.Simulation.Seed = int64(sim.NewSimulationKey(0))
	}
	return cfg
}
