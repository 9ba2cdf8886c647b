package cmd

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/teamsim/sim"
	"github.com/inference-sim/teamsim/sim/experiment"
	"github.com/inference-sim/teamsim/sim/trace"
)

var (
	// Shared CLI flags
	configPath  string   // YAML configuration file; empty = built-in defaults
	presetPairs []string // preset selections as group=id
	presetsPath string   // preset catalog file; empty = built-in catalog
	seed        int64    // Master seed; 0 = fresh seed per invocation
	replicates  int      // Independent runs averaged per configuration
	numCycles   int      // Cycles per run
	parallelism int      // Max concurrent runs; 0 = GOMAXPROCS
	outputPath  string   // JSON results file; empty = stdout
	logLevel    string   // Log verbosity level
	logFile     string   // Rotated log file; empty = stderr only

	// run-only flags
	traceLevel string // Decision trace level (none, decisions)
	withTeam   bool   // Include the sample run's final worker states
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "teamsim",
	Short: "Agent-based simulator of team throughput, knowledge sharing and turnover",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := setupLogging(logLevel, logFile); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// runCmd executes one configuration (with replicates) and prints the results
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulation for one configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustBaseConfig(cmd)
		if cmd.Flags().Changed("trace-level") {
			cfg.Simulation.TraceLevel = traceLevel
		}

		logrus.Infof("Starting simulation: team=%d cycles=%d replicates=%d seed=%d",
			cfg.Team.Size, cfg.Simulation.NumCycles, cfg.Simulation.Replicates, cfg.Simulation.Seed)
		startTime := time.Now()

		res, err := sim.RunSimulation(context.Background(), cfg)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}

		report := newReport("run", startTime)
		report.Key = int64(res.Key)
		report.Config = &res.Config
		report.Stats = &res.Stats
		if len(res.PerReplicate) > 1 {
			sd := res.StdDev()
			report.StdDev = &sd
			report.PerReplicate = res.PerReplicate
		}
		if withTeam {
			for _, w := range res.Sample.Workers {
				report.Team = append(report.Team, w.Snapshot())
			}
		}
		if res.Sample.Trace.Enabled() {
			report.Trace = trace.Summarize(res.Sample.Trace)
		}
		if err := writeReport(outputPath, report); err != nil {
			logrus.Fatalf("Writing results: %v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// mustBaseConfig loads --config (or defaults), applies the CLI flags that
// were explicitly set, then the --preset selections.
func mustBaseConfig(cmd *cobra.Command) sim.Config {
	cfg, selections := mustRawConfig(cmd)
	cfg, err := mustCatalog().Apply(cfg, selections)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	return cfg
}

// mustRawConfig returns the loaded config with flag overrides but without
// presets, plus the parsed --preset selections.
func mustRawConfig(cmd *cobra.Command) (sim.Config, map[string]string) {
	cfg := sim.DefaultConfig()
	if configPath != "" {
		loaded, err := sim.LoadConfig(configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		cfg = loaded
	}
	applyFlagOverrides(cmd, &cfg)

	selections, err := experiment.ParseSelections(presetPairs)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	return cfg, selections
}

// applyFlagOverrides writes only the flags the user set, so file values win
// over flag defaults.
func applyFlagOverrides(cmd *cobra.Command, cfg *sim.Config) {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Simulation.Seed = seed
	}
	if flags.Changed("replicates") {
		cfg.Simulation.Replicates = replicates
	}
	if flags.Changed("cycles") {
		cfg.Simulation.NumCycles = numCycles
	}
	if flags.Changed("parallelism") {
		cfg.Simulation.Parallelism = parallelism
	}
}

func mustCatalog() *experiment.Catalog {
	if presetsPath == "" {
		return experiment.DefaultCatalog()
	}
	c, err := experiment.LoadCatalog(presetsPath)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	return c
}

// init sets up CLI flags and subcommands
func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	pf.StringVar(&logFile, "log-file", "", "Also write logs to this file (rotated)")
	pf.StringVar(&configPath, "config", "", "Path to YAML configuration")
	pf.StringSliceVar(&presetPairs, "preset", nil, "Preset selection group=id (repeatable)")
	pf.StringVar(&presetsPath, "presets-file", "", "Path to a preset catalog (default: built-in)")
	pf.Int64Var(&seed, "seed", 0, "Master seed (0 = fresh seed each invocation)")
	pf.IntVar(&replicates, "replicates", 1, "Independent runs averaged per configuration")
	pf.IntVar(&numCycles, "cycles", 1000, "Cycles per run")
	pf.IntVar(&parallelism, "parallelism", 0, "Max concurrent runs (0 = GOMAXPROCS)")
	pf.StringVar(&outputPath, "output", "", "Write JSON results to this file instead of stdout")

	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Decision trace level (none, decisions)")
	runCmd.Flags().BoolVar(&withTeam, "team", false, "Include the sample run's final worker states")

	rootCmd.AddCommand(runCmd)
}
