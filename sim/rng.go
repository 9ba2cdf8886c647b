package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two runs with the same SimulationKey and identical configuration
// MUST produce bit-for-bit identical results.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
// A zero seed draws a fresh key from the wall clock, so unseeded runs
// differ from one another.
func NewSimulationKey(seed int64) SimulationKey {
	if seed == 0 {
		return SimulationKey(time.Now().UnixNano())
	}
	return SimulationKey(seed)
}

// Replicate derives the key for replicate i of a multi-replicate run.
// Replicate 0 keeps the parent key.
func (k SimulationKey) Replicate(i int) SimulationKey {
	if i == 0 {
		return k
	}
	return SimulationKey(int64(k) ^ fnv1a64(fmt.Sprintf("replicate_%d", i)))
}

// === Subsystem Constants ===

const (
	// SubsystemTasks drives task generation (arrivals, efforts, values).
	// Uses master seed directly.
	SubsystemTasks = "tasks"

	// SubsystemProductOwner drives PO absence, window errors and eviction errors.
	SubsystemProductOwner = "product_owner"

	// SubsystemAbsence drives daily worker absence.
	SubsystemAbsence = "absence"

	// SubsystemWorkers drives ask-for-help draws, turnover rolls and tick order.
	SubsystemWorkers = "workers"

	// SubsystemHiring drives candidate arrival, skill and interview noise.
	SubsystemHiring = "hiring"

	// SubsystemBeliefs drives initial belief values.
	SubsystemBeliefs = "beliefs"

	// SubsystemUnitVars drives experiment unit-vector sampling.
	SubsystemUnitVars = "unit_vars"
)

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula:
//   - For SubsystemTasks: uses masterSeed directly
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. Each run owns its own PartitionedRNG.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	var derivedSeed int64
	if name == SubsystemTasks {
		derivedSeed = int64(p.key)
	} else {
		derivedSeed = int64(p.key) ^ fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
