// Tracks per-run counters and the derived ratios computed at run end.

package sim

import (
	"reflect"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Stats accumulates the counters of one run and, after Finalize, the derived
// ratios. One Stats per run; never shared across replicates.
// Every field is numeric so replicate aggregation can average field-wise.
type Stats struct {
	// Throughput
	TotalValue               float64 `json:"totalValue"`
	TotalTasksCompleted      float64 `json:"totalTasksCompleted"`
	TotalTasksArrived        float64 `json:"totalTasksArrived"`
	CumulativeRecurringValue float64 `json:"cumulativeRecurringValue"` // value × retention, after burn-in only

	// Work cycles
	TotalInfoCycles         float64 `json:"totalInfoCycles"`
	TotalImplCycles         float64 `json:"totalImplCycles"`
	TotalConversationCycles float64 `json:"totalConversationCycles"`
	SoloResearchCycles      float64 `json:"soloResearchCycles"`
	HelperCyclesLost        float64 `json:"helperCyclesLost"` // ticks skipped because the worker was helping
	ActiveWorkerCycles      float64 `json:"activeWorkerCycles"`
	AbsentWorkerCycles      float64 `json:"absentWorkerCycles"`

	// Help seeking
	TotalAskAttempts        float64 `json:"totalAskAttempts"`
	AskWithHelper           float64 `json:"askWithHelper"`
	AskWithoutHelper        float64 `json:"askWithoutHelper"`
	ForcedAsks              float64 `json:"forcedAsks"`
	SuccessfulConversations float64 `json:"successfulConversations"`
	FailedConversations     float64 `json:"failedConversations"`

	// Backlog
	EvictedTasks     float64 `json:"evictedTasks"`
	EvictedValue     float64 `json:"evictedValue"`
	BacklogSizeSum   float64 `json:"backlogSizeSum"`
	PeakBacklogSize  float64 `json:"peakBacklogSize"`
	POAbsentCycles   float64 `json:"poAbsentCycles"`
	POReorderActions float64 `json:"poReorderActions"`

	// Turnover and hiring
	TurnoverEvents    float64 `json:"turnoverEvents"`
	CandidatesArrived float64 `json:"candidatesArrived"`
	InterviewCycles   float64 `json:"interviewCycles"`
	InterviewCost     float64 `json:"interviewCost"`
	Hires             float64 `json:"hires"`
	Rejections        float64 `json:"rejections"`
	VacancyFills      float64 `json:"vacancyFills"`
	CyclesToHireSum   float64 `json:"cyclesToHireSum"`

	// Derived at Finalize
	NumCycles                               float64 `json:"numCycles"`
	Productivity                            float64 `json:"productivity"` // value per cycle
	ValuePerWorkerCycle                     float64 `json:"valuePerWorkerCycle"`
	AverageCumulativeValuePerCycle          float64 `json:"averageCumulativeValuePerCycle"`
	AverageCumulativeValuePerCyclePerWorker float64 `json:"averageCumulativeValuePerCyclePerWorker"`
	AskWithHelperShare                      float64 `json:"askWithHelperShare"`
	ConversationShare                       float64 `json:"conversationShare"` // conversation cycles / info cycles
	EvictionRate                            float64 `json:"evictionRate"`
	MeanBacklogSize                         float64 `json:"meanBacklogSize"`
	HireRate                                float64 `json:"hireRate"`
	AvgCyclesToHire                         float64 `json:"avgCyclesToHire"`
	FinalTeamSize                           float64 `json:"finalTeamSize"`
	FinalTeamAvgExpertise                   float64 `json:"finalTeamAvgExpertise"`
	FinalTeamAvgMaxExpertisePerTopic        float64 `json:"finalTeamAvgMaxExpertisePerTopic"`
}

// Finalize computes the derived ratios from the counters.
// Zero denominators yield 0 rather than NaN.
func (s *Stats) Finalize(numCycles, teamSize, numTopics, initialBacklog int, workers []*Worker) {
	s.NumCycles = float64(numCycles)
	s.Productivity = ratio(s.TotalValue, s.NumCycles)
	s.ValuePerWorkerCycle = ratio(s.TotalValue, s.ActiveWorkerCycles)
	s.AverageCumulativeValuePerCycle = ratio(s.CumulativeRecurringValue, s.NumCycles)
	s.AverageCumulativeValuePerCyclePerWorker = ratio(s.AverageCumulativeValuePerCycle, float64(teamSize))
	s.AskWithHelperShare = ratio(s.AskWithHelper, s.TotalAskAttempts)
	s.ConversationShare = ratio(s.TotalConversationCycles, s.TotalInfoCycles)
	s.EvictionRate = ratio(s.EvictedTasks, s.TotalTasksArrived+float64(initialBacklog))
	s.MeanBacklogSize = ratio(s.BacklogSizeSum, s.NumCycles)
	s.HireRate = ratio(s.Hires, s.Hires+s.Rejections)
	s.AvgCyclesToHire = ratio(s.CyclesToHireSum, s.VacancyFills)
	s.FinalTeamSize = float64(len(workers))
	s.FinalTeamAvgExpertise = TeamAvgExpertise(workers, numTopics)
	s.FinalTeamAvgMaxExpertisePerTopic = TeamAvgMaxExpertisePerTopic(workers, numTopics)
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// TeamAvgExpertise averages knowledge over every (worker, topic) pair. Range 0..1.
func TeamAvgExpertise(workers []*Worker, numTopics int) float64 {
	if len(workers) == 0 || numTopics <= 0 {
		return 0
	}
	sum := 0.0
	for _, w := range workers {
		for topic := 0; topic < numTopics; topic++ {
			sum += w.Knowledge(topic)
		}
	}
	return sum / float64(len(workers)*numTopics)
}

// TeamAvgMaxExpertisePerTopic averages, over topics, the best knowledge any worker has. Range 0..1.
func TeamAvgMaxExpertisePerTopic(workers []*Worker, numTopics int) float64 {
	if len(workers) == 0 || numTopics <= 0 {
		return 0
	}
	sumMax := 0.0
	for topic := 0; topic < numTopics; topic++ {
		best := 0.0
		for _, w := range workers {
			best = max(best, w.Knowledge(topic))
		}
		sumMax += best
	}
	return sumMax / float64(numTopics)
}

// === Field-wise access ===

var statFieldNames = func() []string {
	t := reflect.TypeOf(Stats{})
	names := make([]string, t.NumField())
	for i := range names {
		names[i] = strings.Split(t.Field(i).Tag.Get("json"), ",")[0]
	}
	return names
}()

// StatNames lists every stat field name in declaration order.
func StatNames() []string {
	out := make([]string, len(statFieldNames))
	copy(out, statFieldNames)
	return out
}

// Map returns the stats keyed by field name.
func (s Stats) Map() map[string]float64 {
	v := reflect.ValueOf(s)
	out := make(map[string]float64, len(statFieldNames))
	for i, name := range statFieldNames {
		out[name] = v.Field(i).Float()
	}
	return out
}

// Lookup returns the named stat.
func (s Stats) Lookup(name string) (float64, bool) {
	for i, n := range statFieldNames {
		if n == name {
			return reflect.ValueOf(s).Field(i).Float(), true
		}
	}
	return 0, false
}

// MeanStats returns the field-wise arithmetic mean of runs.
// Returns the zero Stats for empty input.
func MeanStats(runs []Stats) Stats {
	var out Stats
	if len(runs) == 0 {
		return out
	}
	dst := reflect.ValueOf(&out).Elem()
	values := make([]float64, len(runs))
	for i := range statFieldNames {
		for r := range runs {
			values[r] = reflect.ValueOf(runs[r]).Field(i).Float()
		}
		dst.Field(i).SetFloat(stat.Mean(values, nil))
	}
	return out
}

// StdDevStats returns the field-wise sample standard deviation of runs.
// Fewer than two runs yield the zero Stats.
func StdDevStats(runs []Stats) Stats {
	var out Stats
	if len(runs) < 2 {
		return out
	}
	dst := reflect.ValueOf(&out).Elem()
	values := make([]float64, len(runs))
	for i := range statFieldNames {
		for r := range runs {
			values[r] = reflect.ValueOf(runs[r]).Field(i).Float()
		}
		dst.Field(i).SetFloat(stat.StdDev(values, nil))
	}
	return out
}
