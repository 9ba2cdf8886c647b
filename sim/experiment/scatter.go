package experiment

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/teamsim/sim"
)

// ScatterRequest samples Samples random unit vectors over Schema.
type ScatterRequest struct {
	Base       sim.Config
	Selections map[string]string
	Schema     Schema
	Samples    int
	// Vary restricts the unit keys sampled; empty varies every key.
	Vary []string
	// Seed drives unit-vector sampling; 0 draws a fresh seed.
	Seed int64
}

// ScatterPoint is one sampled configuration and its outcome.
type ScatterPoint struct {
	UnitVars map[string]float64 `json:"unitVars"`
	Config   map[string]float64 `json:"cfg"` // numeric snapshot of the effective config
	Stats    sim.Stats          `json:"stats"`
}

// Scatter draws every unit vector up front, in sample order, so the sampled
// configurations depend only on the seed. Each point runs independently.
// A defective schema fails the whole request.
func (r *Runner) Scatter(ctx context.Context, req ScatterRequest) ([]ScatterPoint, error) {
	if err := req.Schema.Validate(); err != nil {
		return nil, err
	}
	if req.Samples <= 0 {
		return nil, fmt.Errorf("scatter: samples must be positive, got %d", req.Samples)
	}

	var vary map[string]bool
	if len(req.Vary) > 0 {
		vary = make(map[string]bool, len(req.Vary))
		for _, k := range req.Vary {
			if _, ok := req.Schema[k]; !ok {
				return nil, fmt.Errorf("%w: vary key %q is not in the schema", ErrInvalidSchema, k)
			}
			vary[k] = true
		}
	}

	base, err := r.catalog().Apply(pinSeed(req.Base), req.Selections)
	if err != nil {
		return nil, err
	}

	key := sim.NewSimulationKey(req.Seed)
	rng := sim.NewPartitionedRNG(key).ForSubsystem(sim.SubsystemUnitVars)
	unitVars := make([]map[string]float64, req.Samples)
	for i := range unitVars {
		all := RandomUnitVars(req.Schema, rng)
		if vary != nil {
			for k := range all {
				if !vary[k] {
					delete(all, k)
				}
			}
		}
		unitVars[i] = all
	}
	logrus.Infof("Scatter: %d sample(s) over %d unit variable(s), key %d", req.Samples, len(unitVars[0]), key)

	points := make([]ScatterPoint, req.Samples)
	err = r.runPoints(ctx, req.Samples, func(i int) error {
		cfg, err := Apply(base, unitVars[i], req.Schema, vary)
		if err != nil {
			return fmt.Errorf("scatter point %d: %w", i, err)
		}
		res, err := runConfig(ctx, cfg)
		if err != nil {
			return fmt.Errorf("scatter point %d: %w", i, err)
		}
		points[i] = ScatterPoint{
			UnitVars: unitVars[i],
			Config:   res.Config.NumericSnapshot(),
			Stats:    res.Stats,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return points, nil
}
