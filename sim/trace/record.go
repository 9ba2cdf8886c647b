// Package trace provides decision-trace recording for team simulation analysis.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// HelpRecord captures one info-phase help decision.
type HelpRecord struct {
	Cycle    int
	WorkerID int
	Topic    int
	Outcome  string  // "no_attempt", "attempt_no_helper", "attempt_with_helper"
	HelperID int     // -1 when no helper was involved
	Gap      float64 // believed helper knowledge minus own knowledge
	Forced   bool    // knowledge was below the must-ask threshold
}

// EvictionRecord captures one backlog eviction.
type EvictionRecord struct {
	Cycle  int
	TaskID int
	Value  float64
	Score  float64
	Random bool // the product owner erred and evicted a random task
}

// HiringRecord captures the final round of one interview.
type HiringRecord struct {
	Cycle         int
	InterviewerID int
	HireID        int
	TrueSkill     float64
	Perceived     float64
	Hired         bool
}
