package sim

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/inference-sim/teamsim/sim/trace"
)

// RunResult is the outcome of one replicate.
type RunResult struct {
	Key     SimulationKey
	Stats   Stats
	Workers []*Worker
	Trace   *trace.SimulationTrace
}

// SimulationResult aggregates the replicates of one configuration.
type SimulationResult struct {
	// Stats is the field-wise mean over replicates.
	Stats Stats
	// Sample is the last replicate, kept for inspection of final team state.
	Sample *RunResult
	// PerReplicate holds each replicate's stats in replicate order.
	PerReplicate []Stats
	Config       Config
	Key          SimulationKey
}

// StdDev returns the field-wise sample standard deviation over replicates.
// Zero with fewer than two replicates.
func (r *SimulationResult) StdDev() Stats {
	return StdDevStats(r.PerReplicate)
}

// RunSingleSimulation resolves cfg and executes one full run under key.
func RunSingleSimulation(cfg Config, key SimulationKey) (*RunResult, error) {
	resolved, err := cfg.Resolved()
	if err != nil {
		return nil, err
	}
	sim := NewSimulator(resolved, key)
	sim.Run()
	return &RunResult{
		Key:     key,
		Stats:   *sim.Stats,
		Workers: sim.Workers,
		Trace:   sim.Trace,
	}, nil
}

// RunSimulation executes cfg.Simulation.Replicates independent runs and
// averages their stats field-wise. Replicate i runs under key.Replicate(i),
// so results do not depend on scheduling. At most Parallelism replicates
// run at once (GOMAXPROCS when 0). Cancellation is observed between
// replicates, never mid-run; the first error wins.
func RunSimulation(ctx context.Context, cfg Config) (*SimulationResult, error) {
	resolved, err := cfg.Resolved()
	if err != nil {
		return nil, err
	}
	key := NewSimulationKey(resolved.Simulation.Seed)
	reps := resolved.Simulation.Replicates

	limit := resolved.Simulation.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]*RunResult, reps)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := 0; i < reps; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := RunSingleSimulation(resolved, key.Replicate(i))
			if err != nil {
				return fmt.Errorf("replicate %d: %w", i, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	per := make([]Stats, reps)
	for i, r := range results {
		per[i] = r.Stats
	}
	logrus.Debugf("Completed %d replicate(s) with key %d", reps, key)
	return &SimulationResult{
		Stats:        MeanStats(per),
		Sample:       results[reps-1],
		PerReplicate: per,
		Config:       resolved,
		Key:          key,
	}, nil
}
