package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/inference-sim/teamsim/sim"
	"github.com/inference-sim/teamsim/sim/experiment"
	"github.com/inference-sim/teamsim/sim/trace"
)

// Report is the JSON document every command emits. Sections not produced by
// a command are omitted.
type Report struct {
	RunID      string    `json:"runId"`
	Command    string    `json:"command"`
	StartedAt  time.Time `json:"startedAt"`
	ElapsedSec float64   `json:"elapsedSec"`
	Key        int64     `json:"key,omitempty"`

	Config       *sim.Config          `json:"config,omitempty"`
	Stats        *sim.Stats           `json:"stats,omitempty"`
	StdDev       *sim.Stats           `json:"stdDev,omitempty"`
	PerReplicate []sim.Stats          `json:"perReplicateStats,omitempty"`
	Team         []sim.WorkerSnapshot `json:"team,omitempty"`
	Trace        *trace.TraceSummary  `json:"trace,omitempty"`

	Param       string               `json:"param,omitempty"`
	SeriesParam string               `json:"seriesParam,omitempty"`
	Sweep1D     []experiment.Point1D `json:"sweep1d,omitempty"`
	Sweep2D     []experiment.Point2D `json:"sweep2d,omitempty"`

	Scatter      []experiment.ScatterPoint `json:"scatter,omitempty"`
	CorrelatedTo string                    `json:"correlatedTo,omitempty"`
	Correlations []experiment.Correlation  `json:"correlations,omitempty"`
}

func newReport(command string, started time.Time) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Command:   command,
		StartedAt: started,
	}
}

// writeReport stamps the elapsed time and writes r as indented JSON to path,
// or to stdout when path is empty.
func writeReport(path string, r *Report) error {
	r.ElapsedSec = time.Since(r.StartedAt).Seconds()
	if path == "" {
		return encodeReport(os.Stdout, r)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := encodeReport(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encodeReport(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
