// Defines the Task struct that models one unit of work in the simulation.
// Tracks topic, info/impl effort split, value and per-task value retention.

package sim

import (
	"fmt"
	"math"
	"math/rand"
)

// Task models a single backlog item. Everything except the remaining-effort
// counters is fixed at creation.
type Task struct {
	ID             int
	Topic          int     // knowledge domain in [0, numTopics)
	InfoEffort     int     // remaining info cycles (consumed while worked)
	ImplEffort     int     // remaining impl cycles (consumed while worked)
	Value          float64 // > 0
	ValueRetention float64 // in [0,1]; share of value that recurs after completion
	ArrivalCycle   int     // -1 for tasks pre-filled before cycle 0

	InitialInfoEffort int
	InitialImplEffort int
}

// TotalEffort returns the task's original info + impl effort.
func (t *Task) TotalEffort() int {
	return t.InitialInfoEffort + t.InitialImplEffort
}

// Score is the product owner's priority metric: value per unit of effort.
// Higher = better to do first.
func (t *Task) Score() float64 {
	return t.Value / float64(max(1, t.InfoEffort+t.ImplEffort))
}

func (t *Task) String() string {
	return fmt.Sprintf("task{id=%d topic=%d info=%d impl=%d value=%.1f}", t.ID, t.Topic, t.InfoEffort, t.ImplEffort, t.Value)
}

// TaskGenerator creates tasks from the environment configuration.
// Thread-safety: NOT thread-safe; owned by one run.
type TaskGenerator struct {
	cfg    EnvironmentConfig
	rng    *rand.Rand
	nextID int
}

// NewTaskGenerator creates a generator drawing from rng.
func NewTaskGenerator(cfg EnvironmentConfig, rng *rand.Rand) *TaskGenerator {
	return &TaskGenerator{cfg: cfg, rng: rng}
}

// Generate creates one task arriving at the given cycle.
//
// Effort model:
//   - complexity model (TotalEffort > 0): complexity = clamp01(base ± jitter),
//     info ~ Poisson(total*complexity), impl ~ Poisson(total*(1-complexity))
//   - split model: info ~ Poisson(MeanInfoEffort), impl ~ Poisson(MeanImplEffort)
func (g *TaskGenerator) Generate(cycle int) *Task {
	topic := g.rng.Intn(max(1, g.cfg.NumTopics))

	var info, impl int
	if g.cfg.TotalEffort > 0 {
		complexity := Clamp01(g.cfg.BaseComplexity + SampleUniform(g.rng, -g.cfg.ComplexityJitter, g.cfg.ComplexityJitter))
		info = SamplePoisson(g.rng, g.cfg.TotalEffort*complexity)
		impl = SamplePoisson(g.rng, g.cfg.TotalEffort*(1-complexity))
	} else {
		info = SamplePoisson(g.rng, g.cfg.MeanInfoEffort)
		impl = SamplePoisson(g.rng, g.cfg.MeanImplEffort)
	}

	value := math.Max(1, float64(SamplePoisson(g.rng, g.cfg.ValueMean)))
	retention := SampleUniform(g.rng, g.cfg.RetentionMin, g.cfg.RetentionMax)

	t := &Task{
		ID:                g.nextID,
		Topic:             topic,
		InfoEffort:        info,
		ImplEffort:        impl,
		Value:             value,
		ValueRetention:    retention,
		ArrivalCycle:      cycle,
		InitialInfoEffort: info,
		InitialImplEffort: impl,
	}
	g.nextID++
	return t
}
