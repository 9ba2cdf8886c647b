package sim

import (
	"math"
	"math/rand"
)

// Onboarding constants. These shape how hire skill maps onto a new worker;
// they are preserved as tuned, not derived.
const (
	// minSkillBase floors the hire-average term of the skill-based knowledge base.
	minSkillBase = 0.2
	// maxForgetfulnessScale caps how much faster a weak hire forgets.
	maxForgetfulnessScale = 3.0
	// minScale is the learning/work scale of a zero-skill hire.
	minScale = 0.5
)

// Interview is a candidate in the interview pipeline, owned by exactly one
// interviewing worker. Lifecycle: arrived → interviewing(N rounds) → hired | rejected.
type Interview struct {
	TrueSkill       float64
	RoundsRemaining int
	Noise           float64
	Bar             float64
	HireID          int // worker ID the candidate gets if hired
	StartedCycle    int
}

// Round consumes one interview round. On the final round the perceived skill
// is TrueSkill ± uniform(Noise), clamped to [0,1]; the candidate is hired iff
// perceived >= Bar.
func (iv *Interview) Round(rng *rand.Rand) (done, hired bool, perceived float64) {
	iv.RoundsRemaining = max(0, iv.RoundsRemaining-1)
	if iv.RoundsRemaining > 0 {
		return false, false, 0
	}
	perceived = Clamp01(iv.TrueSkill + SampleUniform(rng, -iv.Noise, iv.Noise))
	return true, perceived >= iv.Bar, perceived
}

// SkillFactor is skill^exponent, the common driver of every onboarding formula.
func SkillFactor(skill, exponent float64) float64 {
	return math.Pow(Clamp01(skill), exponent)
}

// ScalesForSkill derives learning, work and forgetfulness scales from hire
// skill. All are monotone in skill: weaker hires learn and work slower and
// forget faster. A skill-1 hire gets unit scales.
func ScalesForSkill(skill, exponent float64) (learning, work, forgetfulness float64) {
	s := SkillFactor(skill, exponent)
	learning = minScale + (1-minScale)*s
	work = minScale + (1-minScale)*s
	if s <= 0 {
		forgetfulness = maxForgetfulnessScale
	} else {
		forgetfulness = min(maxForgetfulnessScale, 1/s)
	}
	return learning, work, forgetfulness
}

// SkillBaseKnowledge is the per-topic knowledge a hire brings on skill alone:
// skill^exponent · max(0.2, hireAvgFactor·0.5).
func SkillBaseKnowledge(skill float64, cfg TurnoverConfig) float64 {
	return Clamp01(SkillFactor(skill, cfg.SkillExponent) * max(minSkillBase, cfg.HireAvgFactor*0.5))
}

// OnboardingKnowledge returns a hire's initial knowledge per topic.
//
//   - average mode: team average on each topic × HireAvgFactor; with no
//     remaining team it falls back to SkillBaseKnowledge on every topic.
//   - specialist mode: SkillBaseKnowledge on every topic, plus SpecialistBoost
//     on the hire's single strongest topic, drawn uniformly.
//
// teamAvg holds the remaining team's average knowledge per topic, or nil.
func OnboardingKnowledge(skill float64, cfg TurnoverConfig, teamAvg []float64, numTopics int, rng *rand.Rand) []float64 {
	out := make([]float64, numTopics)
	base := SkillBaseKnowledge(skill, cfg)

	switch cfg.HireMode {
	case HireModeSpecialist:
		for t := range out {
			out[t] = base
		}
		if numTopics > 0 {
			strongest := rng.Intn(numTopics)
			out[strongest] = Clamp01(base + cfg.SpecialistBoost)
		}
	default:
		for t := range out {
			if teamAvg != nil {
				out[t] = Clamp01(teamAvg[t] * cfg.HireAvgFactor)
			} else {
				out[t] = base
			}
		}
	}
	return out
}

// TeamAverageKnowledge returns per-topic mean knowledge over workers, or nil
// when workers is empty.
func TeamAverageKnowledge(workers []*Worker, numTopics int) []float64 {
	if len(workers) == 0 {
		return nil
	}
	avg := make([]float64, numTopics)
	for _, w := range workers {
		for t := range avg {
			avg[t] += w.Knowledge(t)
		}
	}
	for t := range avg {
		avg[t] /= float64(len(workers))
	}
	return avg
}

// pendingHire is an accepted candidate waiting out the hire lag.
type pendingHire struct {
	ID      int
	Skill   float64
	ReadyAt int
}

// HiringDesk tracks open vacancies, in-flight interviews and accepted hires.
// Vacancies are filled oldest first.
type HiringDesk struct {
	cfg        TurnoverConfig
	rng        *rand.Rand
	vacancies  []int // cycle each open seat opened
	interviews int
	pending    []pendingHire
}

// NewHiringDesk creates a desk drawing candidates from rng.
func NewHiringDesk(cfg TurnoverConfig, rng *rand.Rand) *HiringDesk {
	return &HiringDesk{cfg: cfg, rng: rng}
}

// OpenVacancy records a seat opened at cycle.
func (h *HiringDesk) OpenVacancy(cycle int) {
	h.vacancies = append(h.vacancies, cycle)
}

// Vacancies returns the number of unfilled seats.
func (h *HiringDesk) Vacancies() int {
	return len(h.vacancies)
}

// OpenSeats returns seats not yet covered by an interview or an accepted hire.
func (h *HiringDesk) OpenSeats() int {
	return max(0, len(h.vacancies)-h.interviews-len(h.pending))
}

// CandidateArrives draws the per-cycle Bernoulli arrival with probability
// 1/CandidateInterarrivalMean. A non-positive mean disables hiring.
func (h *HiringDesk) CandidateArrives() bool {
	if h.cfg.CandidateInterarrivalMean <= 0 {
		return false
	}
	return h.rng.Float64() < 1/h.cfg.CandidateInterarrivalMean
}

// StartInterview creates a candidate with skill uniform in [SkillMin, SkillMax].
func (h *HiringDesk) StartInterview(hireID, cycle int) *Interview {
	h.interviews++
	return &Interview{
		TrueSkill:       SampleUniform(h.rng, h.cfg.SkillMin, h.cfg.SkillMax),
		RoundsRemaining: max(1, h.cfg.InterviewRounds),
		Noise:           h.cfg.InterviewNoise,
		Bar:             h.cfg.MinHireBar,
		HireID:          hireID,
		StartedCycle:    cycle,
	}
}

// Conclude closes an interview; a hire becomes ready after HireLagCycles.
func (h *HiringDesk) Conclude(iv *Interview, hired bool, cycle int) {
	h.interviews = max(0, h.interviews-1)
	if hired {
		h.pending = append(h.pending, pendingHire{ID: iv.HireID, Skill: iv.TrueSkill, ReadyAt: cycle + h.cfg.HireLagCycles})
	}
}

// Abandon drops an interview whose interviewer left.
func (h *HiringDesk) Abandon() {
	h.interviews = max(0, h.interviews-1)
}

// Ready removes and returns the accepted hires whose lag has expired by cycle.
func (h *HiringDesk) Ready(cycle int) []pendingHire {
	var ready []pendingHire
	kept := h.pending[:0]
	for _, p := range h.pending {
		if p.ReadyAt <= cycle {
			ready = append(ready, p)
		} else {
			kept = append(kept, p)
		}
	}
	h.pending = kept
	return ready
}

// FillVacancy closes the oldest open seat and returns the cycle it opened.
func (h *HiringDesk) FillVacancy() (int, bool) {
	if len(h.vacancies) == 0 {
		return 0, false
	}
	opened := h.vacancies[0]
	h.vacancies = h.vacancies[1:]
	return opened, true
}
