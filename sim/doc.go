// Package sim provides the core discrete-cycle team simulation engine.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - task.go: Task model and the task generator (Poisson efforts and values)
//   - worker.go: Worker phase machine (idle → info → impl), knowledge, beliefs and help-seeking
//   - simulator.go: The per-cycle loop: arrivals, backlog management, ticking, turnover
//
// # Architecture
//
// The sim package owns the engine and its configuration; helpers live in
// sub-packages:
//   - sim/trace/: Decision trace recording (help requests, evictions, hiring)
//   - sim/experiment/: Unit-space parameter mapping, sweeps and scatter runs
//
// Each run owns a PartitionedRNG with one stream per subsystem (tasks,
// product owner, absence, workers, hiring, beliefs), so adding draws in one
// subsystem does not perturb the others. Replicates derive their keys from
// the master key and run concurrently (replicate.go).
//
// # Key Interfaces
//
//   - BacklogPolicy: per-cycle reordering and eviction choice (ProductOwner)
//   - HelpDecision: sealed outcome of an info-phase ask (NoAttempt, AttemptNoHelper, AttemptWithHelper)
//
// Configuration is YAML (config_load.go) with dotted-path access
// (config_path.go) used by presets and experiments.
package sim
