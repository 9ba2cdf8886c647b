package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures help requests, evictions and hiring decisions.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// SimulationTrace collects decision records during one run.
type SimulationTrace struct {
	Level     TraceLevel
	Helps     []HelpRecord
	Evictions []EvictionRecord
	Hiring    []HiringRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(level TraceLevel) *SimulationTrace {
	return &SimulationTrace{
		Level:     level,
		Helps:     make([]HelpRecord, 0),
		Evictions: make([]EvictionRecord, 0),
		Hiring:    make([]HiringRecord, 0),
	}
}

// Enabled reports whether records should be collected. Safe on nil.
func (st *SimulationTrace) Enabled() bool {
	return st != nil && st.Level == TraceLevelDecisions
}

// RecordHelp appends a help-request decision.
func (st *SimulationTrace) RecordHelp(record HelpRecord) {
	st.Helps = append(st.Helps, record)
}

// RecordEviction appends an eviction decision.
func (st *SimulationTrace) RecordEviction(record EvictionRecord) {
	st.Evictions = append(st.Evictions, record)
}

// RecordHiring appends an interview outcome.
func (st *SimulationTrace) RecordHiring(record HiringRecord) {
	st.Hiring = append(st.Hiring, record)
}
