// Defines the Worker agent: per-task phase machine, knowledge and belief models.

package sim

import (
	"math"
	"math/rand"
)

// Phase is a worker's position in the per-task state machine.
type Phase string

const (
	PhaseIdle Phase = "idle"
	PhaseInfo Phase = "info"
	PhaseImpl Phase = "impl"
)

// maxCompletionLearningRate caps the per-completion knowledge step.
const maxCompletionLearningRate = 0.95

// Worker is one team member.
//
// Per task: idle → info → impl → idle. Orthogonally a worker is absent or
// present, interviewing or not, and may be marked for removal, which is
// terminal: a marked worker is never ticked again and leaves the roster at
// the end of the cycle.
//
// Invariants, enforced at the point of mutation:
//   - knowledge and belief values stay in [0,1]
//   - a worker never holds a belief about itself
//   - remaining effort never goes negative
type Worker struct {
	ID            int
	Phase         Phase
	Task          *Task
	RemainingInfo int
	RemainingImpl int

	Absent           bool
	MarkedForRemoval bool
	Busy             bool // helped someone this cycle; cleared at cycle start
	Interview        *Interview

	LearningScale      float64 // multiplies research, conversation and completion learning
	WorkScale          float64 // multiplies info-phase progress
	ForgetfulnessScale float64 // multiplies decay
	Skill              float64 // true skill at hire; 1 for founding members
	HiredCycle         int     // -1 for founding members

	knowledge []float64
	beliefs   []map[int]float64 // topic → other worker ID → believed knowledge
	touched   []bool            // topics worked this cycle; exempt from decay
}

// NewWorker creates an idle founding member with unit scales and zero knowledge.
func NewWorker(id, numTopics int) *Worker {
	w := &Worker{
		ID:                 id,
		Phase:              PhaseIdle,
		LearningScale:      1,
		WorkScale:          1,
		ForgetfulnessScale: 1,
		Skill:              1,
		HiredCycle:         -1,
		knowledge:          make([]float64, numTopics),
		beliefs:            make([]map[int]float64, numTopics),
		touched:            make([]bool, numTopics),
	}
	for t := range w.beliefs {
		w.beliefs[t] = make(map[int]float64)
	}
	return w
}

// NumTopics returns the number of topics this worker tracks.
func (w *Worker) NumTopics() int {
	return len(w.knowledge)
}

// Knowledge returns proficiency on topic; out-of-range topics read as 0.
func (w *Worker) Knowledge(topic int) float64 {
	if topic < 0 || topic >= len(w.knowledge) {
		return 0
	}
	return w.knowledge[topic]
}

// SetKnowledge stores proficiency on topic, clamped to [0,1].
func (w *Worker) SetKnowledge(topic int, v float64) {
	if topic < 0 || topic >= len(w.knowledge) {
		return
	}
	w.knowledge[topic] = Clamp01(v)
}

// Belief returns what w believes other knows about topic. Always 0 for self.
func (w *Worker) Belief(topic, other int) float64 {
	if other == w.ID || topic < 0 || topic >= len(w.beliefs) {
		return 0
	}
	return w.beliefs[topic][other]
}

// HasBeliefAbout reports whether any topic holds a belief about other.
func (w *Worker) HasBeliefAbout(other int) bool {
	for _, m := range w.beliefs {
		if _, ok := m[other]; ok {
			return true
		}
	}
	return false
}

func (w *Worker) setBelief(topic, other int, v float64) {
	if other == w.ID || topic < 0 || topic >= len(w.beliefs) {
		return
	}
	w.beliefs[topic][other] = Clamp01(v)
}

// InitBeliefs seeds a small random belief in [0, initMax) about every other
// worker on every topic. Existing beliefs are kept.
func (w *Worker) InitBeliefs(others []*Worker, initMax float64, rng *rand.Rand) {
	for topic := range w.beliefs {
		for _, o := range others {
			if o.ID == w.ID {
				continue
			}
			if _, ok := w.beliefs[topic][o.ID]; !ok {
				w.setBelief(topic, o.ID, rng.Float64()*initMax)
			}
		}
	}
}

// ForgetWorker drops every belief about a departed worker.
func (w *Worker) ForgetWorker(id int) {
	for _, m := range w.beliefs {
		delete(m, id)
	}
}

// Available reports whether the worker can act (or help) this cycle.
func (w *Worker) Available() bool {
	return !w.Absent && !w.MarkedForRemoval && !w.Busy && w.Interview == nil
}

// Present reports whether the worker is at work and still on the roster.
func (w *Worker) Present() bool {
	return !w.Absent && !w.MarkedForRemoval
}

func (w *Worker) touch(topic int) {
	if topic >= 0 && topic < len(w.touched) {
		w.touched[topic] = true
	}
}

// === Learning ===

// Research moves knowledge on topic toward 1 by rate, scaled by LearningScale.
func (w *Worker) Research(topic int, rate float64) {
	w.touch(topic)
	r := min(1, rate*w.LearningScale)
	if r <= 0 {
		return
	}
	k := w.Knowledge(topic)
	w.SetKnowledge(topic, k+r*(1-k))
}

// ConverseWith moves both workers' knowledge on topic toward their union
// U = 1 − (1−A)(1−B), each by rate scaled by its own LearningScale. Each then
// believes exactly what it just observed of the other. The helper is marked
// Busy for the rest of the cycle.
func (w *Worker) ConverseWith(helper *Worker, topic int, rate float64) {
	if helper == nil || helper.ID == w.ID {
		w.Research(topic, rate)
		return
	}
	a, b := w.Knowledge(topic), helper.Knowledge(topic)
	union := 1 - (1-a)*(1-b)

	w.SetKnowledge(topic, a+min(1, rate*w.LearningScale)*(union-a))
	helper.SetKnowledge(topic, b+min(1, rate*helper.LearningScale)*(union-b))

	w.setBelief(topic, helper.ID, helper.Knowledge(topic))
	helper.setBelief(topic, w.ID, w.Knowledge(topic))

	w.touch(topic)
	helper.touch(topic)
	helper.Busy = true
}

// LearnFromCompletion nudges knowledge toward 1 after finishing a task of the
// given total effort: rate' = min(0.95, rate·LearningScale·(1+2·log1p(effort))).
func (w *Worker) LearnFromCompletion(topic, effort int, rate float64) {
	r := min(maxCompletionLearningRate, rate*w.LearningScale*(1+2*math.Log1p(float64(max(0, effort)))))
	if r <= 0 {
		return
	}
	k := w.Knowledge(topic)
	w.SetKnowledge(topic, k+r*(1-k))
}

// Decay shrinks knowledge on every topic not touched this cycle and resets
// the touched flags.
func (w *Worker) Decay(rate float64) {
	r := min(1, rate*w.ForgetfulnessScale)
	for t := range w.knowledge {
		if !w.touched[t] && r > 0 {
			w.knowledge[t] = Clamp01(w.knowledge[t] * (1 - r))
		}
		w.touched[t] = false
	}
}

// === Task handling ===

// AssignTask starts a task: info phase, or impl directly when it needs no info.
func (w *Worker) AssignTask(t *Task) {
	w.Task = t
	w.RemainingInfo = t.InfoEffort
	w.RemainingImpl = t.ImplEffort
	if w.RemainingInfo > 0 {
		w.Phase = PhaseInfo
	} else {
		w.Phase = PhaseImpl
	}
}

// ClearTask returns the worker to idle.
func (w *Worker) ClearTask() {
	w.Task = nil
	w.Phase = PhaseIdle
	w.RemainingInfo = 0
	w.RemainingImpl = 0
}

// AdvanceInfo applies one cycle of info progress using current knowledge:
// remaining −= max(1, round(knowledge · remaining · WorkScale)), floored at 0.
// Returns true when the task is finished outright (no impl effort).
func (w *Worker) AdvanceInfo() bool {
	k := w.Knowledge(w.Task.Topic)
	reduction := max(1, int(math.Round(k*float64(w.RemainingInfo)*w.WorkScale)))
	w.RemainingInfo = max(0, w.RemainingInfo-reduction)
	w.Task.InfoEffort = w.RemainingInfo
	if w.RemainingInfo > 0 {
		return false
	}
	if w.RemainingImpl > 0 {
		w.Phase = PhaseImpl
		return false
	}
	return true
}

// AdvanceImpl applies one cycle of implementation. Returns true on completion.
func (w *Worker) AdvanceImpl() bool {
	w.touch(w.Task.Topic)
	w.RemainingImpl = max(0, w.RemainingImpl-1)
	w.Task.ImplEffort = w.RemainingImpl
	return w.RemainingImpl == 0
}

// === Help seeking ===

// HelpDecision is the outcome of an info-phase help decision:
// one of NoAttempt, AttemptNoHelper or AttemptWithHelper.
type HelpDecision interface {
	outcome() string
}

// NoAttempt: the worker did not ask and researches solo.
type NoAttempt struct{}

// AttemptNoHelper: the worker asked but nobody was available; it researches solo.
type AttemptNoHelper struct {
	Forced bool
}

// AttemptWithHelper: the worker asked and converses with Helper.
type AttemptWithHelper struct {
	Helper *Worker
	Gap    float64 // believed helper knowledge minus own knowledge
	Forced bool
}

func (NoAttempt) outcome() string         { return "no_attempt" }
func (AttemptNoHelper) outcome() string   { return "attempt_no_helper" }
func (AttemptWithHelper) outcome() string { return "attempt_with_helper" }

// OutcomeName returns the trace label of a decision.
func OutcomeName(d HelpDecision) string {
	return d.outcome()
}

// DecideHelp decides whether to ask for help on topic and whom.
//
// A worker with AskProbability 0 never asks. Otherwise a worker whose own
// knowledge is below MustAskThreshold always asks; others ask with
// AskProbability. The helper is the available co-worker with the largest
// believed gap; a voluntary ask also requires gap >= AskMinimumGain.
func (w *Worker) DecideHelp(topic int, roster []*Worker, b BehaviorConfig, rng *rand.Rand) HelpDecision {
	if b.AskProbability <= 0 {
		return NoAttempt{}
	}
	forced := w.Knowledge(topic) < b.MustAskThreshold
	if !forced && rng.Float64() >= b.AskProbability {
		return NoAttempt{}
	}
	helper, gap := w.ChooseHelper(topic, roster)
	if helper == nil {
		return AttemptNoHelper{Forced: forced}
	}
	if !forced && gap < b.AskMinimumGain {
		return NoAttempt{}
	}
	return AttemptWithHelper{Helper: helper, Gap: gap, Forced: forced}
}

// ChooseHelper returns the available co-worker maximizing
// belief[topic][other] − own knowledge, ties to the earliest in roster.
// Returns nil when nobody is available.
func (w *Worker) ChooseHelper(topic int, roster []*Worker) (*Worker, float64) {
	own := w.Knowledge(topic)
	var best *Worker
	bestGap := math.Inf(-1)
	for _, o := range roster {
		if o.ID == w.ID || !o.Available() {
			continue
		}
		if gap := w.Belief(topic, o.ID) - own; gap > bestGap {
			best, bestGap = o, gap
		}
	}
	if best == nil {
		return nil, 0
	}
	return best, bestGap
}

// === Inspection ===

// WorkerSnapshot is a read-only copy of a worker's state for output.
type WorkerSnapshot struct {
	ID                 int               `json:"id"`
	Phase              Phase             `json:"phase"`
	TaskID             int               `json:"taskId"` // -1 when idle
	RemainingInfo      int               `json:"remainingInfo"`
	RemainingImpl      int               `json:"remainingImpl"`
	Absent             bool              `json:"isAbsent"`
	Interviewing       bool              `json:"interviewing"`
	MarkedForRemoval   bool              `json:"markedForRemoval"`
	LearningScale      float64           `json:"learningScale"`
	WorkScale          float64           `json:"workScale"`
	ForgetfulnessScale float64           `json:"forgetfulnessScale"`
	Skill              float64           `json:"skill"`
	HiredCycle         int               `json:"hiredCycle"`
	Knowledge          []float64         `json:"knowledge"`
	Beliefs            []map[int]float64 `json:"beliefsByTopic"`
}

// Snapshot copies the worker's state.
func (w *Worker) Snapshot() WorkerSnapshot {
	s := WorkerSnapshot{
		ID:                 w.ID,
		Phase:              w.Phase,
		TaskID:             -1,
		RemainingInfo:      w.RemainingInfo,
		RemainingImpl:      w.RemainingImpl,
		Absent:             w.Absent,
		Interviewing:       w.Interview != nil,
		MarkedForRemoval:   w.MarkedForRemoval,
		LearningScale:      w.LearningScale,
		WorkScale:          w.WorkScale,
		ForgetfulnessScale: w.ForgetfulnessScale,
		Skill:              w.Skill,
		HiredCycle:         w.HiredCycle,
		Knowledge:          append([]float64(nil), w.knowledge...),
		Beliefs:            make([]map[int]float64, len(w.beliefs)),
	}
	if w.Task != nil {
		s.TaskID = w.Task.ID
	}
	for t, m := range w.beliefs {
		s.Beliefs[t] = make(map[int]float64, len(m))
		for id, v := range m {
			s.Beliefs[t][id] = v
		}
	}
	return s
}
