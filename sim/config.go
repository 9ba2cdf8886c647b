package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/teamsim/sim/trace"
)

// ConfigVersion is the current configuration schema version.
const ConfigVersion = "2"

// Hire modes for onboarding knowledge.
const (
	HireModeAverage    = "average"
	HireModeSpecialist = "specialist"
)

var validHireModes = map[string]bool{
	HireModeAverage:    true,
	HireModeSpecialist: true,
}

// EnvironmentConfig groups task arrival and task shape parameters.
type EnvironmentConfig struct {
	NumTopics      int     `yaml:"numTopics" json:"numTopics"`           // topics are [0, numTopics)
	NewTaskRate    float64 `yaml:"newTaskRate" json:"newTaskRate"`       // Poisson mean arrivals per cycle
	ValueMean      float64 `yaml:"valueMean" json:"valueMean"`           // Poisson mean task value (floored at 1)
	RetentionMin   float64 `yaml:"retentionMin" json:"retentionMin"`     // lower bound of per-task value retention
	RetentionMax   float64 `yaml:"retentionMax" json:"retentionMax"`     // upper bound of per-task value retention
	MeanInfoEffort float64 `yaml:"meanInfoEffort" json:"meanInfoEffort"` // split model: Poisson mean info effort
	MeanImplEffort float64 `yaml:"meanImplEffort" json:"meanImplEffort"` // split model: Poisson mean impl effort

	// Complexity model, enabled when TotalEffort > 0.
	TotalEffort      float64 `yaml:"totalEffort" json:"totalEffort"`
	BaseComplexity   float64 `yaml:"baseComplexity" json:"baseComplexity"`     // info share of total effort
	ComplexityJitter float64 `yaml:"complexityJitter" json:"complexityJitter"` // uniform jitter around BaseComplexity
}

// BacklogConfig groups backlog sizing.
type BacklogConfig struct {
	InitialSize int `yaml:"initialSize" json:"initialSize"` // tasks pre-filled before cycle 0
	MaxSize     int `yaml:"maxSize" json:"maxSize"`         // eviction threshold
}

// TeamConfig groups roster parameters.
type TeamConfig struct {
	Size                int     `yaml:"size" json:"size"`
	AbsenceProbability  float64 `yaml:"absenceProbability" json:"absenceProbability"` // per-worker, per-cycle
	InitialKnowledgeMin float64 `yaml:"initialKnowledgeMin" json:"initialKnowledgeMin"`
	InitialKnowledgeMax float64 `yaml:"initialKnowledgeMax" json:"initialKnowledgeMax"`
}

// BehaviorConfig groups help-seeking and learning parameters.
type BehaviorConfig struct {
	AskProbability           float64 `yaml:"askProbability" json:"askProbability"`
	AskMinimumGain           float64 `yaml:"askMinimumGain" json:"askMinimumGain"`     // believed gap required to ask
	MustAskThreshold         float64 `yaml:"mustAskThreshold" json:"mustAskThreshold"` // below this knowledge a willing worker always asks
	ResearchLearningRate     float64 `yaml:"researchLearningRate" json:"researchLearningRate"`
	ConversationLearningRate float64 `yaml:"conversationLearningRate" json:"conversationLearningRate"`
	CompletionLearningRate   float64 `yaml:"completionLearningRate" json:"completionLearningRate"`
	ForgetfulnessRate        float64 `yaml:"forgetfulnessRate" json:"forgetfulnessRate"` // per-cycle decay on untouched topics
}

// ProductOwnerConfig groups backlog-management policy parameters.
type ProductOwnerConfig struct {
	WindowSize         int     `yaml:"windowSize" json:"windowSize"`
	ActionsPerCycle    int     `yaml:"actionsPerCycle" json:"actionsPerCycle"`
	ErrorProbability   float64 `yaml:"errorProbability" json:"errorProbability"`
	AbsenceProbability float64 `yaml:"absenceProbability" json:"absenceProbability"`
}

// TurnoverConfig groups turnover, interviewing and onboarding parameters.
type TurnoverConfig struct {
	Probability               float64 `yaml:"probability" json:"probability"` // rolled once per task completion
	HireMode                  string  `yaml:"hireMode" json:"hireMode"`       // "average" or "specialist"
	HireAvgFactor             float64 `yaml:"hireAvgFactor" json:"hireAvgFactor"`
	SpecialistBoost           float64 `yaml:"specialistBoost" json:"specialistBoost"`
	CandidateInterarrivalMean float64 `yaml:"candidateInterarrivalMean" json:"candidateInterarrivalMean"` // cycles; 0 disables hiring
	InterviewRounds           int     `yaml:"interviewRounds" json:"interviewRounds"`
	InterviewNoise            float64 `yaml:"interviewNoise" json:"interviewNoise"`
	MinHireBar                float64 `yaml:"minHireBar" json:"minHireBar"`
	SkillMin                  float64 `yaml:"skillMin" json:"skillMin"`
	SkillMax                  float64 `yaml:"skillMax" json:"skillMax"`
	SkillExponent             float64 `yaml:"skillExponent" json:"skillExponent"`
	InterviewCostPerCycle     float64 `yaml:"interviewCostPerCycle" json:"interviewCostPerCycle"`
	HireLagCycles             int     `yaml:"hireLagCycles" json:"hireLagCycles"` // cycles between offer and first day
}

// SimulationConfig groups run-length and execution parameters.
type SimulationConfig struct {
	NumCycles    int    `yaml:"numCycles" json:"numCycles"`
	BurnInCycles int    `yaml:"burnInCycles" json:"burnInCycles"` // recurring value is only counted after burn-in
	Replicates   int    `yaml:"replicates" json:"replicates"`
	Seed         int64  `yaml:"seed" json:"seed"`               // 0 = fresh seed per invocation
	Parallelism  int    `yaml:"parallelism" json:"parallelism"` // max concurrent replicates; 0 = GOMAXPROCS
	TraceLevel   string `yaml:"traceLevel" json:"traceLevel"`
}

// BeliefConfig groups belief initialization.
type BeliefConfig struct {
	InitMax float64 `yaml:"initMax" json:"initMax"` // initial beliefs are uniform in [0, initMax)
}

// Config is the fully-resolved, read-only configuration of one run.
// The engine never mutates it.
type Config struct {
	Version      string             `yaml:"version" json:"version"`
	Environment  EnvironmentConfig  `yaml:"environment" json:"environment"`
	Backlog      BacklogConfig      `yaml:"backlog" json:"backlog"`
	Team         TeamConfig         `yaml:"team" json:"team"`
	Behavior     BehaviorConfig     `yaml:"behavior" json:"behavior"`
	ProductOwner ProductOwnerConfig `yaml:"productOwner" json:"productOwner"`
	Turnover     TurnoverConfig     `yaml:"turnover" json:"turnover"`
	Simulation   SimulationConfig   `yaml:"simulation" json:"simulation"`
	Belief       BeliefConfig       `yaml:"belief" json:"belief"`
}

// DefaultConfig returns the built-in defaults every missing or invalid field falls back to.
func DefaultConfig() Config {
	return Config{
		Version: ConfigVersion,
		Environment: EnvironmentConfig{
			NumTopics:        10,
			NewTaskRate:      1.0,
			ValueMean:        10,
			RetentionMin:     0.3,
			RetentionMax:     0.7,
			MeanInfoEffort:   6,
			MeanImplEffort:   4,
			TotalEffort:      0,
			BaseComplexity:   0.5,
			ComplexityJitter: 0.2,
		},
		Backlog: BacklogConfig{
			InitialSize: 50,
			MaxSize:     100,
		},
		Team: TeamConfig{
			Size:                8,
			AbsenceProbability:  0.05,
			InitialKnowledgeMin: 0.0,
			InitialKnowledgeMax: 0.3,
		},
		Behavior: BehaviorConfig{
			AskProbability:           0.3,
			AskMinimumGain:           0.05,
			MustAskThreshold:         0.1,
			ResearchLearningRate:     0.05,
			ConversationLearningRate: 0.6,
			CompletionLearningRate:   0.18,
			ForgetfulnessRate:        0.02,
		},
		ProductOwner: ProductOwnerConfig{
			WindowSize:         5,
			ActionsPerCycle:    1,
			ErrorProbability:   0.2,
			AbsenceProbability: 0.1,
		},
		Turnover: TurnoverConfig{
			Probability:               0,
			HireMode:                  HireModeAverage,
			HireAvgFactor:             0.8,
			SpecialistBoost:           0.3,
			CandidateInterarrivalMean: 10,
			InterviewRounds:           3,
			InterviewNoise:            0.15,
			MinHireBar:                0.5,
			SkillMin:                  0.2,
			SkillMax:                  1.0,
			SkillExponent:             1.5,
			InterviewCostPerCycle:     1,
			HireLagCycles:             5,
		},
		Simulation: SimulationConfig{
			NumCycles:    1000,
			BurnInCycles: 100,
			Replicates:   1,
			Seed:         0,
			Parallelism:  0,
			TraceLevel:   string(trace.TraceLevelNone),
		},
		Belief: BeliefConfig{
			InitMax: 0.1,
		},
	}
}

// Normalize replaces missing or invalid numeric fields with their defaults,
// logging a warning for each replaced field. Structural defects are left for Validate.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Version == "" {
		c.Version = ConfigVersion
	}

	atLeastInt(&c.Environment.NumTopics, 1, d.Environment.NumTopics, "environment.numTopics")
	nonNegative(&c.Environment.NewTaskRate, d.Environment.NewTaskRate, "environment.newTaskRate")
	nonNegative(&c.Environment.ValueMean, d.Environment.ValueMean, "environment.valueMean")
	probability(&c.Environment.RetentionMin, d.Environment.RetentionMin, "environment.retentionMin")
	probability(&c.Environment.RetentionMax, d.Environment.RetentionMax, "environment.retentionMax")
	if c.Environment.RetentionMin > c.Environment.RetentionMax {
		logrus.Warnf("config: environment.retentionMin %.3f > retentionMax %.3f; swapping",
			c.Environment.RetentionMin, c.Environment.RetentionMax)
		c.Environment.RetentionMin, c.Environment.RetentionMax = c.Environment.RetentionMax, c.Environment.RetentionMin
	}
	nonNegative(&c.Environment.MeanInfoEffort, d.Environment.MeanInfoEffort, "environment.meanInfoEffort")
	nonNegative(&c.Environment.MeanImplEffort, d.Environment.MeanImplEffort, "environment.meanImplEffort")
	nonNegative(&c.Environment.TotalEffort, d.Environment.TotalEffort, "environment.totalEffort")
	probability(&c.Environment.BaseComplexity, d.Environment.BaseComplexity, "environment.baseComplexity")
	nonNegative(&c.Environment.ComplexityJitter, d.Environment.ComplexityJitter, "environment.complexityJitter")

	atLeastInt(&c.Backlog.InitialSize, 0, d.Backlog.InitialSize, "backlog.initialSize")
	atLeastInt(&c.Backlog.MaxSize, 0, d.Backlog.MaxSize, "backlog.maxSize")

	atLeastInt(&c.Team.Size, 0, d.Team.Size, "team.size")
	probability(&c.Team.AbsenceProbability, d.Team.AbsenceProbability, "team.absenceProbability")
	probability(&c.Team.InitialKnowledgeMin, d.Team.InitialKnowledgeMin, "team.initialKnowledgeMin")
	probability(&c.Team.InitialKnowledgeMax, d.Team.InitialKnowledgeMax, "team.initialKnowledgeMax")

	probability(&c.Behavior.AskProbability, d.Behavior.AskProbability, "behavior.askProbability")
	if math.IsNaN(c.Behavior.AskMinimumGain) || math.IsInf(c.Behavior.AskMinimumGain, 0) {
		logrus.Warnf("config: behavior.askMinimumGain invalid (%v); using default %v", c.Behavior.AskMinimumGain, d.Behavior.AskMinimumGain)
		c.Behavior.AskMinimumGain = d.Behavior.AskMinimumGain
	}
	probability(&c.Behavior.MustAskThreshold, d.Behavior.MustAskThreshold, "behavior.mustAskThreshold")
	probability(&c.Behavior.ResearchLearningRate, d.Behavior.ResearchLearningRate, "behavior.researchLearningRate")
	probability(&c.Behavior.ConversationLearningRate, d.Behavior.ConversationLearningRate, "behavior.conversationLearningRate")
	probability(&c.Behavior.CompletionLearningRate, d.Behavior.CompletionLearningRate, "behavior.completionLearningRate")
	probability(&c.Behavior.ForgetfulnessRate, d.Behavior.ForgetfulnessRate, "behavior.forgetfulnessRate")

	atLeastInt(&c.ProductOwner.WindowSize, 1, d.ProductOwner.WindowSize, "productOwner.windowSize")
	atLeastInt(&c.ProductOwner.ActionsPerCycle, 0, d.ProductOwner.ActionsPerCycle, "productOwner.actionsPerCycle")
	probability(&c.ProductOwner.ErrorProbability, d.ProductOwner.ErrorProbability, "productOwner.errorProbability")
	probability(&c.ProductOwner.AbsenceProbability, d.ProductOwner.AbsenceProbability, "productOwner.absenceProbability")

	probability(&c.Turnover.Probability, d.Turnover.Probability, "turnover.probability")
	if c.Turnover.HireMode == "" {
		c.Turnover.HireMode = d.Turnover.HireMode
	}
	nonNegative(&c.Turnover.HireAvgFactor, d.Turnover.HireAvgFactor, "turnover.hireAvgFactor")
	probability(&c.Turnover.SpecialistBoost, d.Turnover.SpecialistBoost, "turnover.specialistBoost")
	nonNegative(&c.Turnover.CandidateInterarrivalMean, d.Turnover.CandidateInterarrivalMean, "turnover.candidateInterarrivalMean")
	atLeastInt(&c.Turnover.InterviewRounds, 1, d.Turnover.InterviewRounds, "turnover.interviewRounds")
	nonNegative(&c.Turnover.InterviewNoise, d.Turnover.InterviewNoise, "turnover.interviewNoise")
	probability(&c.Turnover.MinHireBar, d.Turnover.MinHireBar, "turnover.minHireBar")
	probability(&c.Turnover.SkillMin, d.Turnover.SkillMin, "turnover.skillMin")
	probability(&c.Turnover.SkillMax, d.Turnover.SkillMax, "turnover.skillMax")
	if c.Turnover.SkillMin > c.Turnover.SkillMax {
		logrus.Warnf("config: turnover.skillMin %.3f > skillMax %.3f; swapping", c.Turnover.SkillMin, c.Turnover.SkillMax)
		c.Turnover.SkillMin, c.Turnover.SkillMax = c.Turnover.SkillMax, c.Turnover.SkillMin
	}
	nonNegative(&c.Turnover.SkillExponent, d.Turnover.SkillExponent, "turnover.skillExponent")
	nonNegative(&c.Turnover.InterviewCostPerCycle, d.Turnover.InterviewCostPerCycle, "turnover.interviewCostPerCycle")
	atLeastInt(&c.Turnover.HireLagCycles, 0, d.Turnover.HireLagCycles, "turnover.hireLagCycles")

	atLeastInt(&c.Simulation.NumCycles, 0, d.Simulation.NumCycles, "simulation.numCycles")
	atLeastInt(&c.Simulation.BurnInCycles, 0, d.Simulation.BurnInCycles, "simulation.burnInCycles")
	atLeastInt(&c.Simulation.Replicates, 1, d.Simulation.Replicates, "simulation.replicates")
	atLeastInt(&c.Simulation.Parallelism, 0, d.Simulation.Parallelism, "simulation.parallelism")
	if c.Simulation.TraceLevel == "" {
		c.Simulation.TraceLevel = string(trace.TraceLevelNone)
	}

	probability(&c.Belief.InitMax, d.Belief.InitMax, "belief.initMax")
}

// Validate reports structural defects that cannot fall back to a default.
func (c *Config) Validate() error {
	if !validHireModes[c.Turnover.HireMode] {
		return fmt.Errorf("turnover.hireMode: unknown mode %q; valid: average, specialist", c.Turnover.HireMode)
	}
	if !trace.IsValidTraceLevel(c.Simulation.TraceLevel) {
		return fmt.Errorf("simulation.traceLevel: unknown level %q; valid: none, decisions", c.Simulation.TraceLevel)
	}
	if c.Environment.NumTopics < 1 {
		return fmt.Errorf("environment.numTopics must be at least 1, got %d", c.Environment.NumTopics)
	}
	if c.ProductOwner.WindowSize < 1 {
		return fmt.Errorf("productOwner.windowSize must be at least 1, got %d", c.ProductOwner.WindowSize)
	}
	if c.Team.Size < 0 {
		return fmt.Errorf("team.size must be non-negative, got %d", c.Team.Size)
	}
	return nil
}

// Resolved returns a normalized, validated copy of c.
func (c Config) Resolved() (Config, error) {
	c.Normalize()
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

func probability(v *float64, def float64, name string) {
	if math.IsNaN(*v) || *v < 0 || *v > 1 {
		logrus.Warnf("config: %s out of [0,1] (%v); using default %v", name, *v, def)
		*v = def
	}
}

func nonNegative(v *float64, def float64, name string) {
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		logrus.Warnf("config: %s must be a finite non-negative number (%v); using default %v", name, *v, def)
		*v = def
	}
}

func atLeastInt(v *int, lo, def int, name string) {
	if *v < lo {
		logrus.Warnf("config: %s must be >= %d (%d); using default %d", name, lo, *v, def)
		*v = def
	}
}
