// sim/simulator.go
package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/teamsim/sim/trace"
)

// Simulator holds one run's state and advances it one cycle at a time.
// Everything it owns (RNG streams, backlog, roster, stats) is private to the
// run, so independent runs may execute concurrently.
type Simulator struct {
	Config Config
	// Cycle is the index of the cycle currently being (or next to be) executed.
	Cycle   int
	Backlog *Backlog
	Policy  BacklogPolicy
	// Workers is the roster in stable (ID/hire) order. Ticking uses a shuffled copy.
	Workers []*Worker
	Stats   *Stats
	Trace   *trace.SimulationTrace

	rng          *PartitionedRNG
	tasks        *TaskGenerator
	hiring       *HiringDesk
	nextWorkerID int
	targetSize   int
}

// NewSimulator builds the initial state for cfg: the initial backlog, the
// founding team with random knowledge, and belief seeds between every pair.
// cfg must already be resolved (see Config.Resolved).
func NewSimulator(cfg Config, key SimulationKey) *Simulator {
	rng := NewPartitionedRNG(key)
	sim := &Simulator{
		Config:     cfg,
		Backlog:    NewBacklog(),
		Policy:     NewProductOwner(cfg.ProductOwner, rng.ForSubsystem(SubsystemProductOwner)),
		Stats:      &Stats{},
		Trace:      trace.NewSimulationTrace(trace.TraceLevel(cfg.Simulation.TraceLevel)),
		rng:        rng,
		tasks:      NewTaskGenerator(cfg.Environment, rng.ForSubsystem(SubsystemTasks)),
		hiring:     NewHiringDesk(cfg.Turnover, rng.ForSubsystem(SubsystemHiring)),
		targetSize: cfg.Team.Size,
	}

	for i := 0; i < cfg.Backlog.InitialSize; i++ {
		sim.Backlog.Push(sim.tasks.Generate(-1))
	}

	workerRNG := rng.ForSubsystem(SubsystemWorkers)
	for i := 0; i < cfg.Team.Size; i++ {
		w := NewWorker(sim.newWorkerID(), cfg.Environment.NumTopics)
		for t := 0; t < cfg.Environment.NumTopics; t++ {
			w.SetKnowledge(t, SampleUniform(workerRNG, cfg.Team.InitialKnowledgeMin, cfg.Team.InitialKnowledgeMax))
		}
		sim.Workers = append(sim.Workers, w)
	}
	beliefRNG := rng.ForSubsystem(SubsystemBeliefs)
	for _, w := range sim.Workers {
		w.InitBeliefs(sim.Workers, cfg.Belief.InitMax, beliefRNG)
	}
	return sim
}

func (sim *Simulator) newWorkerID() int {
	id := sim.nextWorkerID
	sim.nextWorkerID++
	return id
}

// Run executes NumCycles cycles and finalizes the stats.
func (sim *Simulator) Run() {
	logrus.Debugf("Simulation starting: %d cycles, team %d, backlog %d",
		sim.Config.Simulation.NumCycles, len(sim.Workers), sim.Backlog.Len())
	for sim.Cycle < sim.Config.Simulation.NumCycles {
		sim.Step()
	}
	sim.Finalize()
	logrus.Debugf("[cycle %07d] Simulation ended: value=%.1f completed=%.0f", sim.Cycle, sim.Stats.TotalValue, sim.Stats.TotalTasksCompleted)
}

// Finalize computes the derived stats for the cycles executed so far.
func (sim *Simulator) Finalize() {
	sim.Stats.Finalize(sim.Cycle, sim.targetSize, sim.Config.Environment.NumTopics, sim.Config.Backlog.InitialSize, sim.Workers)
}

// Step executes one cycle:
//  1. onboard hires whose lag has expired, then maybe start an interview
//  2. admit Poisson task arrivals
//  3. product owner reorders (unless absent), then evicts down to MaxSize
//  4. roll absences and assign tasks to idle available workers
//  5. tick every worker in shuffled order
//  6. record occupancy, apply decay, remove departed workers, onboard
//     zero-lag hires
func (sim *Simulator) Step() {
	cycle := sim.Cycle

	sim.onboardReady()
	sim.startInterview()
	sim.admitArrivals()
	sim.manageBacklog()
	sim.rollAbsences()

	order := sim.shuffledRoster()
	sim.assignTasks(order)
	for _, w := range order {
		sim.tick(w)
	}

	for _, w := range sim.Workers {
		if w.Present() {
			sim.Stats.ActiveWorkerCycles++
		}
	}
	size := float64(sim.Backlog.Len())
	sim.Stats.BacklogSizeSum += size
	sim.Stats.PeakBacklogSize = max(sim.Stats.PeakBacklogSize, size)

	for _, w := range sim.Workers {
		w.Decay(sim.Config.Behavior.ForgetfulnessRate)
	}
	sim.removeDeparted()
	sim.onboardReady()

	logrus.Debugf("[cycle %07d] backlog=%d team=%d vacancies=%d value=%.1f",
		cycle, sim.Backlog.Len(), len(sim.Workers), sim.hiring.Vacancies(), sim.Stats.TotalValue)
	sim.Cycle++
}

func (sim *Simulator) admitArrivals() {
	n := SamplePoisson(sim.rng.ForSubsystem(SubsystemTasks), sim.Config.Environment.NewTaskRate)
	for i := 0; i < n; i++ {
		sim.Backlog.Push(sim.tasks.Generate(sim.Cycle))
	}
	sim.Stats.TotalTasksArrived += float64(n)
}

// manageBacklog runs the product owner's reordering, skipped while the PO is
// absent, and always evicts down to MaxSize so the size bound holds every cycle.
func (sim *Simulator) manageBacklog() {
	poRNG := sim.rng.ForSubsystem(SubsystemProductOwner)
	if poRNG.Float64() < sim.Config.ProductOwner.AbsenceProbability {
		sim.Stats.POAbsentCycles++
	} else {
		sim.Policy.Reorder(sim.Backlog)
		sim.Stats.POReorderActions += float64(min(sim.Config.ProductOwner.ActionsPerCycle, sim.Backlog.Len()))
	}

	cycle := sim.Cycle
	sim.Backlog.EvictWorst(sim.Config.Backlog.MaxSize, func(tasks []*Task) int {
		idx, random := sim.Policy.PickEviction(tasks)
		if idx >= 0 && sim.Trace.Enabled() {
			sim.Trace.RecordEviction(trace.EvictionRecord{
				Cycle:  cycle,
				TaskID: tasks[idx].ID,
				Value:  tasks[idx].Value,
				Score:  tasks[idx].Score(),
				Random: random,
			})
		}
		return idx
	}, sim.Stats)
}

func (sim *Simulator) rollAbsences() {
	absRNG := sim.rng.ForSubsystem(SubsystemAbsence)
	for _, w := range sim.Workers {
		w.Busy = false
		w.Absent = absRNG.Float64() < sim.Config.Team.AbsenceProbability
		if w.Absent {
			sim.Stats.AbsentWorkerCycles++
		}
	}
}

// shuffledRoster returns a freshly shuffled copy of the roster so no worker
// has a systematic first-mover advantage when competing for helpers.
func (sim *Simulator) shuffledRoster() []*Worker {
	order := make([]*Worker, len(sim.Workers))
	copy(order, sim.Workers)
	sim.rng.ForSubsystem(SubsystemWorkers).Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

func (sim *Simulator) assignTasks(order []*Worker) {
	for _, w := range order {
		if w.Task != nil || !w.Available() {
			continue
		}
		t := sim.Backlog.TakeFront()
		if t == nil {
			return
		}
		w.AssignTask(t)
	}
}

// tick advances one worker by one cycle. Absent and departed workers do
// nothing; a worker already spent helping loses its own turn; an interview
// pre-empts task work.
func (sim *Simulator) tick(w *Worker) {
	if !w.Present() {
		return
	}
	if w.Busy {
		if w.Task != nil {
			sim.Stats.HelperCyclesLost++
		}
		return
	}
	if w.Interview != nil {
		sim.stepInterview(w)
		return
	}
	if w.Task == nil {
		return
	}
	switch w.Phase {
	case PhaseInfo:
		sim.stepInfo(w)
	case PhaseImpl:
		sim.stepImpl(w)
	}
}

func (sim *Simulator) stepInfo(w *Worker) {
	b := sim.Config.Behavior
	topic := w.Task.Topic
	sim.Stats.TotalInfoCycles++

	decision := w.DecideHelp(topic, sim.Workers, b, sim.rng.ForSubsystem(SubsystemWorkers))
	helperID, gap, forced := -1, 0.0, false
	switch d := decision.(type) {
	case NoAttempt:
		w.Research(topic, b.ResearchLearningRate)
		sim.Stats.SoloResearchCycles++
	case AttemptNoHelper:
		forced = d.Forced
		sim.Stats.TotalAskAttempts++
		sim.Stats.AskWithoutHelper++
		sim.Stats.FailedConversations++
		w.Research(topic, b.ResearchLearningRate)
		sim.Stats.SoloResearchCycles++
	case AttemptWithHelper:
		helperID, gap, forced = d.Helper.ID, d.Gap, d.Forced
		sim.Stats.TotalAskAttempts++
		sim.Stats.AskWithHelper++
		sim.Stats.SuccessfulConversations++
		sim.Stats.TotalConversationCycles++
		w.ConverseWith(d.Helper, topic, b.ConversationLearningRate)
	}
	if forced {
		sim.Stats.ForcedAsks++
	}
	if sim.Trace.Enabled() {
		sim.Trace.RecordHelp(trace.HelpRecord{
			Cycle:    sim.Cycle,
			WorkerID: w.ID,
			Topic:    topic,
			Outcome:  OutcomeName(decision),
			HelperID: helperID,
			Gap:      gap,
			Forced:   forced,
		})
	}

	if w.AdvanceInfo() {
		sim.complete(w)
	}
}

func (sim *Simulator) stepImpl(w *Worker) {
	sim.Stats.TotalImplCycles++
	if w.AdvanceImpl() {
		sim.complete(w)
	}
}

// complete credits the finished task, applies completion learning and rolls
// for turnover. Recurring value accrues only after the burn-in window.
func (sim *Simulator) complete(w *Worker) {
	t := w.Task
	sim.Stats.TotalValue += t.Value
	sim.Stats.TotalTasksCompleted++
	if sim.Cycle >= sim.Config.Simulation.BurnInCycles {
		sim.Stats.CumulativeRecurringValue += t.Value * t.ValueRetention
	}
	w.LearnFromCompletion(t.Topic, t.TotalEffort(), sim.Config.Behavior.CompletionLearningRate)
	w.ClearTask()

	if p := sim.Config.Turnover.Probability; p > 0 && sim.rng.ForSubsystem(SubsystemWorkers).Float64() < p {
		w.MarkedForRemoval = true
		sim.Stats.TurnoverEvents++
		logrus.Debugf("[cycle %07d] worker %d leaves after task %d", sim.Cycle, w.ID, t.ID)
	}
}

// startInterview pairs an arriving candidate with a random idle-or-working
// present worker, provided there is an uncovered seat.
func (sim *Simulator) startInterview() {
	if sim.hiring.OpenSeats() == 0 || !sim.hiring.CandidateArrives() {
		return
	}
	var pool []*Worker
	for _, w := range sim.Workers {
		if w.Present() && w.Interview == nil {
			pool = append(pool, w)
		}
	}
	if len(pool) == 0 {
		return
	}
	interviewer := pool[sim.rng.ForSubsystem(SubsystemHiring).Intn(len(pool))]
	interviewer.Interview = sim.hiring.StartInterview(sim.newWorkerID(), sim.Cycle)
	sim.Stats.CandidatesArrived++
}

// stepInterview spends the interviewer's cycle on one interview round.
func (sim *Simulator) stepInterview(w *Worker) {
	iv := w.Interview
	sim.Stats.InterviewCycles++
	sim.Stats.InterviewCost += sim.Config.Turnover.InterviewCostPerCycle

	done, hired, perceived := iv.Round(sim.rng.ForSubsystem(SubsystemHiring))
	if !done {
		return
	}
	w.Interview = nil
	sim.hiring.Conclude(iv, hired, sim.Cycle)
	if hired {
		sim.Stats.Hires++
	} else {
		sim.Stats.Rejections++
	}
	if sim.Trace.Enabled() {
		sim.Trace.RecordHiring(trace.HiringRecord{
			Cycle:         sim.Cycle,
			InterviewerID: w.ID,
			HireID:        iv.HireID,
			TrueSkill:     iv.TrueSkill,
			Perceived:     perceived,
			Hired:         hired,
		})
	}
}

// removeDeparted drops marked workers, purges every belief about them and
// opens one vacancy per departure.
func (sim *Simulator) removeDeparted() {
	var departed []*Worker
	kept := make([]*Worker, 0, len(sim.Workers))
	for _, w := range sim.Workers {
		if w.MarkedForRemoval {
			departed = append(departed, w)
		} else {
			kept = append(kept, w)
		}
	}
	if len(departed) == 0 {
		return
	}
	for _, d := range departed {
		for _, w := range kept {
			w.ForgetWorker(d.ID)
		}
		if d.Interview != nil {
			sim.hiring.Abandon()
			d.Interview = nil
		}
		sim.hiring.OpenVacancy(sim.Cycle)
	}
	sim.Workers = kept
}

// onboardReady splices in accepted hires whose lag has expired, filling the
// oldest vacancies first. Each hire and the existing team seed beliefs about
// one another.
func (sim *Simulator) onboardReady() {
	ready := sim.hiring.Ready(sim.Cycle)
	if len(ready) == 0 {
		return
	}
	cfg := sim.Config
	numTopics := cfg.Environment.NumTopics
	teamAvg := TeamAverageKnowledge(sim.Workers, numTopics)
	hiringRNG := sim.rng.ForSubsystem(SubsystemHiring)
	beliefRNG := sim.rng.ForSubsystem(SubsystemBeliefs)

	for _, h := range ready {
		w := NewWorker(h.ID, numTopics)
		w.Skill = h.Skill
		w.HiredCycle = sim.Cycle
		w.LearningScale, w.WorkScale, w.ForgetfulnessScale = ScalesForSkill(h.Skill, cfg.Turnover.SkillExponent)
		for t, k := range OnboardingKnowledge(h.Skill, cfg.Turnover, teamAvg, numTopics, hiringRNG) {
			w.SetKnowledge(t, k)
		}

		w.InitBeliefs(sim.Workers, cfg.Belief.InitMax, beliefRNG)
		for _, o := range sim.Workers {
			o.InitBeliefs([]*Worker{w}, cfg.Belief.InitMax, beliefRNG)
		}
		sim.Workers = append(sim.Workers, w)

		if opened, ok := sim.hiring.FillVacancy(); ok {
			sim.Stats.VacancyFills++
			sim.Stats.CyclesToHireSum += float64(sim.Cycle - opened)
		}
		logrus.Debugf("[cycle %07d] hired worker %d (skill %.2f)", sim.Cycle, w.ID, h.Skill)
	}
}
