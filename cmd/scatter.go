package cmd

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/teamsim/sim/experiment"
)

var (
	schemaPath    string   // unit-mapping schema YAML
	scatterN      int      // number of sampled configurations
	scatterVary   []string // subset of unit keys to vary
	scatterSeed   int64    // unit-vector sampling seed
	correlateStat string   // stat to correlate inputs against
)

// scatterCmd samples random unit vectors, maps them onto configs and runs each
var scatterCmd = &cobra.Command{
	Use:   "scatter",
	Short: "Sample configurations in unit space and run each one",
	Run: func(cmd *cobra.Command, args []string) {
		base := mustBaseConfig(cmd)
		schema, err := experiment.LoadSchema(schemaPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		runner := &experiment.Runner{
			Catalog:     mustCatalog(),
			Parallelism: parallelism,
			Progress:    logProgress("scatter"),
		}

		startTime := time.Now()
		points, err := runner.Scatter(context.Background(), experiment.ScatterRequest{
			Base:    base,
			Schema:  schema,
			Samples: scatterN,
			Vary:    scatterVary,
			Seed:    scatterSeed,
		})
		if err != nil {
			logrus.Fatalf("Scatter failed: %v", err)
		}

		report := newReport("scatter", startTime)
		report.Config = &base
		report.Scatter = points
		if correlateStat != "" {
			corr, err := experiment.Correlations(points, correlateStat)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			report.CorrelatedTo = correlateStat
			report.Correlations = corr
		}
		if err := writeReport(outputPath, report); err != nil {
			logrus.Fatalf("Writing results: %v", err)
		}
	},
}

func init() {
	scatterCmd.Flags().StringVar(&schemaPath, "schema", "", "Unit-mapping schema (YAML)")
	scatterCmd.Flags().IntVar(&scatterN, "samples", 100, "Number of sampled configurations")
	scatterCmd.Flags().StringSliceVar(&scatterVary, "vary", nil, "Unit keys to vary (default: all)")
	scatterCmd.Flags().Int64Var(&scatterSeed, "sample-seed", 0, "Seed for unit-vector sampling (0 = fresh)")
	scatterCmd.Flags().StringVar(&correlateStat, "correlate", "averageCumulativeValuePerCycle", "Stat to correlate inputs against (empty = skip)")
	_ = scatterCmd.MarkFlagRequired("schema")

	rootCmd.AddCommand(scatterCmd)
}
