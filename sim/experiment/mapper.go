package experiment

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/inference-sim/teamsim/sim"
)

// MapUnit interpolates u (clamped to [0,1]) into the mapping's range,
// linearly or geometrically, rounding for int targets.
func (m UnitMapping) MapUnit(u float64) float64 {
	u = sim.Clamp01(u)
	var v float64
	if m.Scale == ScaleLog {
		v = logLerp(m.Min, m.Max, u)
	} else {
		v = lerp(m.Min, m.Max, u)
	}
	if m.Type == TypeInt {
		v = math.Round(v)
	}
	return v
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func logLerp(lo, hi, t float64) float64 {
	return math.Exp(lerp(math.Log(lo), math.Log(hi), t))
}

// RandomUnitVars draws one uniform [0,1) sample per schema key, in sorted key order.
func RandomUnitVars(schema Schema, rng *rand.Rand) map[string]float64 {
	out := make(map[string]float64, len(schema))
	for _, k := range schema.Keys() {
		out[k] = rng.Float64()
	}
	return out
}

// Apply returns a copy of base with every varied unit variable written at its
// target path. vary restricts the keys applied; nil applies every key.
// Keys outside vary keep the base value. A varied key missing from unitVars
// is an error.
func Apply(base sim.Config, unitVars map[string]float64, schema Schema, vary map[string]bool) (sim.Config, error) {
	cfg := base
	for _, key := range schema.Keys() {
		if vary != nil && !vary[key] {
			continue
		}
		u, ok := unitVars[key]
		if !ok {
			return sim.Config{}, fmt.Errorf("unit %q: no sample provided", key)
		}
		m := schema[key]
		if m.Type == TypeRatio {
			applyEffortRatio(&cfg, u)
			continue
		}
		if err := cfg.SetPath(m.Target, m.MapUnit(u)); err != nil {
			return sim.Config{}, fmt.Errorf("unit %q: %w", key, err)
		}
	}
	return cfg, nil
}

// applyEffortRatio sets info:impl = logLerp(0.25, 4, u) while keeping the
// mean total effort (info + impl, or 1 when both are zero).
func applyEffortRatio(cfg *sim.Config, u float64) {
	ratio := logLerp(minEffortRatio, maxEffortRatio, sim.Clamp01(u))
	total := cfg.Environment.MeanInfoEffort + cfg.Environment.MeanImplEffort
	if total <= 0 {
		total = 1
	}
	cfg.Environment.MeanInfoEffort = total * ratio / (1 + ratio)
	cfg.Environment.MeanImplEffort = total / (1 + ratio)
}
