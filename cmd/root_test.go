package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/teamsim/sim"
	"github.com/inference-sim/teamsim/sim/experiment"
)

// overrideCmd binds the shared override flags to a throwaway command so
// Changed() reflects exactly the args given.
func overrideCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	f := c.Flags()
	f.Int64Var(&seed, "seed", 0, "")
	f.IntVar(&replicates, "replicates", 1, "")
	f.IntVar(&numCycles, "cycles", 1000, "")
	f.IntVar(&parallelism, "parallelism", 0, "")
	require.NoError(t, c.ParseFlags(args))
	return c
}

func TestApplyFlagOverrides_OnlyChangedFlagsWin(t *testing.T) {
	// GIVEN a config file value for every overridable field
	cfg := sim.DefaultConfig()
	cfg.Simulation.Seed = 42
	cfg.Simulation.Replicates = 7
	cfg.Simulation.NumCycles = 250
	cfg.Simulation.Parallelism = 3

	// WHEN only --seed and --cycles are given
	applyFlagOverrides(overrideCmd(t, "--seed", "9", "--cycles", "80"), &cfg)

	// THEN those two win and the file keeps the rest despite flag defaults
	assert.Equal(t, int64(9), cfg.Simulation.Seed)
	assert.Equal(t, 80, cfg.Simulation.NumCycles)
	assert.Equal(t, 7, cfg.Simulation.Replicates)
	assert.Equal(t, 3, cfg.Simulation.Parallelism)
}

func TestApplyFlagOverrides_NoFlags_NoChange(t *testing.T) {
	cfg := sim.DefaultConfig()
	applyFlagOverrides(overrideCmd(t), &cfg)
	assert.Equal(t, sim.DefaultConfig(), cfg)
}

func TestRootCmd_RegistersSubcommandsAndFlags(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "sweep", "scatter", "presets"} {
		assert.True(t, names[want], "subcommand %q", want)
	}
	for _, flag := range []string{"config", "preset", "seed", "replicates", "cycles", "parallelism", "output", "log", "log-file"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), "persistent flag --%s", flag)
	}
	assert.Equal(t, "error", rootCmd.PersistentFlags().Lookup("log").DefValue)
	assert.NotNil(t, runCmd.Flags().Lookup("trace-level"))
}

func TestWriteReport_File(t *testing.T) {
	// GIVEN a run report
	r := newReport("run", time.Now())
	stats := sim.Stats{TotalValue: 12.5}
	r.Stats = &stats
	path := filepath.Join(t.TempDir(), "out.json")

	// WHEN written to a file
	require.NoError(t, writeReport(path, r))

	// THEN it round-trips as JSON with a run id and no empty sections
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "run", doc["command"])
	assert.NotEmpty(t, doc["runId"])
	assert.Equal(t, 12.5, doc["stats"].(map[string]any)["totalValue"])
	assert.NotContains(t, doc, "sweep1d")
	assert.NotContains(t, doc, "scatter")
}

func TestNewReport_UniqueRunIDs(t *testing.T) {
	a, b := newReport("run", time.Now()), newReport("run", time.Now())
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestWriteReport_BadPath(t *testing.T) {
	err := writeReport(filepath.Join(t.TempDir(), "missing", "out.json"), newReport("run", time.Now()))
	assert.Error(t, err)
}

func TestPrintCatalog_ListsGroupsAndSortedPatches(t *testing.T) {
	var buf bytes.Buffer
	printCatalog(&buf, experiment.DefaultCatalog())
	out := buf.String()

	assert.Contains(t, out, "poMaturity (PO maturity)")
	assert.Contains(t, out, "poMaturity=chaotic")
	abs := strings.Index(out, "productOwner.absenceProbability: 0.6")
	errp := strings.Index(out, "productOwner.errorProbability: 0.9")
	require.True(t, abs >= 0 && errp >= 0)
	assert.Less(t, abs, errp, "patch paths are sorted")
}

func TestSetupLogging(t *testing.T) {
	prevLevel, prevOut := logrus.GetLevel(), logrus.StandardLogger().Out
	t.Cleanup(func() {
		logrus.SetLevel(prevLevel)
		logrus.SetOutput(prevOut)
	})

	assert.Error(t, setupLogging("chatty", ""))

	require.NoError(t, setupLogging("debug", ""))
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	// WHEN a log file is given THEN entries land in it
	path := filepath.Join(t.TempDir(), "teamsim.log")
	require.NoError(t, setupLogging("info", path))
	logrus.Info("hello from the test")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from the test")
}
