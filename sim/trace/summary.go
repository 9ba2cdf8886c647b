package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	HelpDecisions      int            `json:"helpDecisions"`
	OutcomeCounts      map[string]int `json:"outcomeCounts"` // outcome → count
	ForcedAsks         int            `json:"forcedAsks"`
	MeanHelpGap        float64        `json:"meanHelpGap"` // over attempts with a helper
	TotalEvictions     int            `json:"totalEvictions"`
	RandomEvictions    int            `json:"randomEvictions"`
	EvictedValue       float64        `json:"evictedValue"`
	Interviews         int            `json:"interviews"`
	Hires              int            `json:"hires"`
	MeanPerceivedError float64        `json:"meanPerceivedError"` // mean |perceived - true skill|
	HelperDistribution map[int]int    `json:"helperDistribution"` // helper ID → times helped
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		OutcomeCounts:      make(map[string]int),
		HelperDistribution: make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.HelpDecisions = len(st.Helps)
	gapSum, gapN := 0.0, 0
	for _, h := range st.Helps {
		summary.OutcomeCounts[h.Outcome]++
		if h.Forced {
			summary.ForcedAsks++
		}
		if h.HelperID >= 0 {
			summary.HelperDistribution[h.HelperID]++
			gapSum += h.Gap
			gapN++
		}
	}
	if gapN > 0 {
		summary.MeanHelpGap = gapSum / float64(gapN)
	}

	summary.TotalEvictions = len(st.Evictions)
	for _, e := range st.Evictions {
		if e.Random {
			summary.RandomEvictions++
		}
		summary.EvictedValue += e.Value
	}

	summary.Interviews = len(st.Hiring)
	if len(st.Hiring) > 0 {
		errSum := 0.0
		for _, h := range st.Hiring {
			if h.Hired {
				summary.Hires++
			}
			d := h.Perceived - h.TrueSkill
			if d < 0 {
				d = -d
			}
			errSum += d
		}
		summary.MeanPerceivedError = errSum / float64(len(st.Hiring))
	}

	return summary
}
