package sim

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/teamsim/sim/trace"
)

// newTestSimulator resolves cfg and builds a simulator under a fixed seed.
func newTestSimulator(t *testing.T, cfg Config, seed int64) *Simulator {
	t.Helper()
	resolved, err := cfg.Resolved()
	require.NoError(t, err)
	return NewSimulator(resolved, NewSimulationKey(seed))
}

func TestSimulator_NoArrivalsNoBacklog_NoValue(t *testing.T) {
	// GIVEN no arrivals and an empty initial backlog
	cfg := DefaultConfig()
	cfg.Environment.NewTaskRate = 0
	cfg.Backlog.InitialSize = 0
	cfg.Team.Size = 5
	cfg.Simulation.NumCycles = 1000

	// WHEN the run completes
	res, err := RunSingleSimulation(cfg, NewSimulationKey(7))

	// THEN nothing is completed and no value accrues
	require.NoError(t, err)
	assert.Zero(t, res.Stats.TotalTasksCompleted)
	assert.Zero(t, res.Stats.TotalValue)
	assert.Zero(t, res.Stats.CumulativeRecurringValue)
	assert.Equal(t, 1000.0, res.Stats.NumCycles)
}

func TestSimulator_AskProbabilityZero_AlwaysSoloResearch(t *testing.T) {
	// GIVEN workers who never ask, even below the must-ask threshold
	cfg := DefaultConfig()
	cfg.Behavior.AskProbability = 0
	cfg.Simulation.NumCycles = 300

	res, err := RunSingleSimulation(cfg, NewSimulationKey(11))

	// THEN every info cycle is solo research
	require.NoError(t, err)
	assert.Zero(t, res.Stats.TotalAskAttempts)
	assert.Zero(t, res.Stats.TotalConversationCycles)
	assert.Zero(t, res.Stats.ForcedAsks)
	assert.Greater(t, res.Stats.TotalInfoCycles, 0.0)
	assert.Equal(t, res.Stats.TotalInfoCycles, res.Stats.SoloResearchCycles)
}

func TestSimulator_AskOutcomes_Partition(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Behavior.AskProbability = 0.8
	cfg.Simulation.NumCycles = 300

	res, err := RunSingleSimulation(cfg, NewSimulationKey(5))

	require.NoError(t, err)
	s := res.Stats
	assert.Greater(t, s.TotalAskAttempts, 0.0)
	assert.Equal(t, s.TotalAskAttempts, s.AskWithHelper+s.AskWithoutHelper)
	assert.Equal(t, s.TotalInfoCycles, s.SoloResearchCycles+s.TotalConversationCycles)
	assert.Equal(t, s.AskWithHelper, s.SuccessfulConversations)
}

func TestSimulator_BacklogNeverExceedsMax(t *testing.T) {
	// GIVEN a flood of arrivals into a small backlog
	cfg := DefaultConfig()
	cfg.Environment.NewTaskRate = 6
	cfg.Backlog.MaxSize = 10
	cfg.Backlog.InitialSize = 40
	cfg.ProductOwner.AbsenceProbability = 0.5
	cfg.Simulation.NumCycles = 200
	sim := newTestSimulator(t, cfg, 3)

	// WHEN stepping
	// THEN the bound holds after every cycle, PO present or not
	for sim.Cycle < cfg.Simulation.NumCycles {
		sim.Step()
		require.LessOrEqual(t, sim.Backlog.Len(), cfg.Backlog.MaxSize, "cycle %d", sim.Cycle)
	}
	sim.Finalize()
	assert.Greater(t, sim.Stats.EvictedTasks, 0.0)
	assert.Greater(t, sim.Stats.POAbsentCycles, 0.0)
	assert.LessOrEqual(t, sim.Stats.PeakBacklogSize, float64(cfg.Backlog.MaxSize))
}

func TestSimulator_SameSeed_IdenticalStats(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Simulation.NumCycles = 400
	cfg.Turnover.Probability = 0.05

	a, err := RunSingleSimulation(cfg, NewSimulationKey(123))
	require.NoError(t, err)
	b, err := RunSingleSimulation(cfg, NewSimulationKey(123))
	require.NoError(t, err)

	if diff := cmp.Diff(a.Stats, b.Stats); diff != "" {
		t.Errorf("same seed produced different stats (-a +b):\n%s", diff)
	}

	c, err := RunSingleSimulation(cfg, NewSimulationKey(124))
	require.NoError(t, err)
	assert.NotEqual(t, a.Stats, c.Stats, "different seeds should diverge")
}

func TestSimulator_CertainTurnover_EveryCompletionDeparts(t *testing.T) {
	// GIVEN turnover probability 1 in average hire mode
	cfg := DefaultConfig()
	cfg.Turnover.Probability = 1
	cfg.Turnover.HireMode = HireModeAverage
	cfg.Turnover.CandidateInterarrivalMean = 1
	cfg.Turnover.HireLagCycles = 0
	cfg.Turnover.MinHireBar = 0
	cfg.Simulation.NumCycles = 300
	sim := newTestSimulator(t, cfg, 21)

	// WHEN stepping
	everSeen := make(map[int]bool)
	for sim.Cycle < cfg.Simulation.NumCycles {
		sim.Step()
		current := make(map[int]bool)
		for _, w := range sim.Workers {
			current[w.ID] = true
			everSeen[w.ID] = true
		}
		// THEN nobody believes anything about itself or a departed worker
		for _, w := range sim.Workers {
			require.False(t, w.HasBeliefAbout(w.ID), "worker %d believes about itself", w.ID)
			for id := range everSeen {
				if !current[id] {
					require.False(t, w.HasBeliefAbout(id), "worker %d still believes about departed %d", w.ID, id)
				}
			}
		}
	}
	sim.Finalize()

	// AND each completion triggered exactly one departure
	s := sim.Stats
	assert.Greater(t, s.TotalTasksCompleted, 0.0)
	assert.Equal(t, s.TotalTasksCompleted, s.TurnoverEvents)
	assert.Greater(t, s.Hires, 0.0)
	assert.Equal(t, s.Hires, s.VacancyFills)
}

func TestSimulator_OnboardReady_AverageMode_UsesTeamAverage(t *testing.T) {
	// GIVEN a team of 4 and an accepted hire ready now
	cfg := DefaultConfig()
	cfg.Team.Size = 4
	cfg.Turnover.HireMode = HireModeAverage
	cfg.Turnover.HireAvgFactor = 0.8
	sim := newTestSimulator(t, cfg, 8)
	sim.hiring.OpenVacancy(0)
	sim.hiring.pending = append(sim.hiring.pending, pendingHire{ID: 100, Skill: 0.6, ReadyAt: 0})
	want := TeamAverageKnowledge(sim.Workers, cfg.Environment.NumTopics)

	// WHEN onboarding runs
	sim.onboardReady()

	// THEN the hire joins with average × factor knowledge
	require.Len(t, sim.Workers, 5)
	hire := sim.Workers[4]
	assert.Equal(t, 100, hire.ID)
	assert.Equal(t, 0, hire.HiredCycle)
	for topic, avg := range want {
		assert.InDelta(t, avg*0.8, hire.Knowledge(topic), 1e-12, "topic %d", topic)
	}

	// AND scales follow skill, beliefs run both ways, and the seat is filled
	l, w, f := ScalesForSkill(0.6, cfg.Turnover.SkillExponent)
	assert.Equal(t, l, hire.LearningScale)
	assert.Equal(t, w, hire.WorkScale)
	assert.Equal(t, f, hire.ForgetfulnessScale)
	for _, o := range sim.Workers[:4] {
		assert.True(t, o.HasBeliefAbout(hire.ID))
		assert.True(t, hire.HasBeliefAbout(o.ID))
	}
	assert.False(t, hire.HasBeliefAbout(hire.ID))
	assert.Equal(t, 1.0, sim.Stats.VacancyFills)
	assert.Zero(t, sim.hiring.Vacancies())
}

func TestSimulator_BurnIn_ExcludesRecurringValue(t *testing.T) {
	// GIVEN a burn-in longer than the run
	cfg := DefaultConfig()
	cfg.Simulation.NumCycles = 200
	cfg.Simulation.BurnInCycles = 500

	res, err := RunSingleSimulation(cfg, NewSimulationKey(2))

	// THEN value accrues but recurring value does not
	require.NoError(t, err)
	assert.Greater(t, res.Stats.TotalValue, 0.0)
	assert.Zero(t, res.Stats.CumulativeRecurringValue)
}

func TestSimulator_EmptyTeam_RunsWithoutProgress(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Team.Size = 0
	cfg.Simulation.NumCycles = 50

	res, err := RunSingleSimulation(cfg, NewSimulationKey(4))

	require.NoError(t, err)
	assert.Zero(t, res.Stats.TotalTasksCompleted)
	assert.Zero(t, res.Stats.ActiveWorkerCycles)
	assert.Empty(t, res.Workers)
}

func TestSimulator_ProductOwnerAlwaysAbsent_NoReordering(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProductOwner.AbsenceProbability = 1
	cfg.Simulation.NumCycles = 100

	res, err := RunSingleSimulation(cfg, NewSimulationKey(6))

	require.NoError(t, err)
	assert.Equal(t, 100.0, res.Stats.POAbsentCycles)
	assert.Zero(t, res.Stats.POReorderActions)
}

func TestSimulator_DecisionTrace_RecordsHelpAndEvictions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Simulation.TraceLevel = string(trace.TraceLevelDecisions)
	cfg.Simulation.NumCycles = 200
	cfg.Environment.NewTaskRate = 4
	cfg.Backlog.MaxSize = 20

	res, err := RunSingleSimulation(cfg, NewSimulationKey(9))

	require.NoError(t, err)
	require.NotNil(t, res.Trace)
	assert.Len(t, res.Trace.Helps, int(res.Stats.TotalInfoCycles))
	assert.Len(t, res.Trace.Evictions, int(res.Stats.EvictedTasks))
	for _, h := range res.Trace.Helps {
		if h.Outcome != "attempt_with_helper" {
			assert.Equal(t, -1, h.HelperID)
		} else {
			assert.NotEqual(t, h.WorkerID, h.HelperID)
		}
	}
}

func TestSimulator_TraceDisabled_RecordsNothing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Simulation.NumCycles = 100

	res, err := RunSingleSimulation(cfg, NewSimulationKey(9))

	require.NoError(t, err)
	assert.Empty(t, res.Trace.Helps)
	assert.Empty(t, res.Trace.Evictions)
	assert.Empty(t, res.Trace.Hiring)
}

func TestSimulator_KnowledgeStaysBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Behavior.ConversationLearningRate = 1
	cfg.Behavior.ResearchLearningRate = 1
	cfg.Turnover.Probability = 0.1
	cfg.Simulation.NumCycles = 200
	sim := newTestSimulator(t, cfg, 10)

	for sim.Cycle < cfg.Simulation.NumCycles {
		sim.Step()
		for _, w := range sim.Workers {
			for topic := 0; topic < cfg.Environment.NumTopics; topic++ {
				k := w.Knowledge(topic)
				require.True(t, k >= 0 && k <= 1, "worker %d topic %d knowledge %v", w.ID, topic, k)
			}
			require.GreaterOrEqual(t, w.RemainingInfo, 0)
			require.GreaterOrEqual(t, w.RemainingImpl, 0)
		}
	}
}
