package cmd

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/teamsim/sim/experiment"
)

var (
	sweepParam        string // dotted path or preset:<group>
	sweepValues       string // comma-separated values, or "*"
	sweepSeriesParam  string // optional second dimension
	sweepSeriesValues string
)

// sweepCmd runs a 1D sweep, or a 2D sweep when --series-param is given
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Sweep one parameter (or two, as x and series) and collect stats per point",
	Example: `  teamsim sweep --param behavior.askProbability --values 0,0.25,0.5,0.75,1
  teamsim sweep --param team.size --values 2,4,8 --series-param preset:poMaturity --series-values '*'`,
	Run: func(cmd *cobra.Command, args []string) {
		base, selections := mustRawConfig(cmd)
		runner := &experiment.Runner{
			Catalog:     mustCatalog(),
			Parallelism: parallelism,
			Progress:    logProgress("sweep"),
		}

		xs, err := runner.ExpandValues(sweepParam, sweepValues)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		startTime := time.Now()
		report := newReport("sweep", startTime)
		report.Param = sweepParam
		if sweepSeriesParam == "" {
			points, err := runner.Sweep1D(context.Background(), experiment.Sweep1DRequest{
				Base: base, Selections: selections, Param: sweepParam, Values: xs,
			})
			if err != nil {
				logrus.Fatalf("Sweep failed: %v", err)
			}
			report.Sweep1D = points
		} else {
			series, err := runner.ExpandValues(sweepSeriesParam, sweepSeriesValues)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			points, err := runner.Sweep2D(context.Background(), experiment.Sweep2DRequest{
				Base: base, Selections: selections,
				XParam: sweepParam, XValues: xs,
				SeriesParam: sweepSeriesParam, SeriesValues: series,
			})
			if err != nil {
				logrus.Fatalf("Sweep failed: %v", err)
			}
			report.SeriesParam = sweepSeriesParam
			report.Sweep2D = points
		}
		report.Config = &base
		if err := writeReport(outputPath, report); err != nil {
			logrus.Fatalf("Writing results: %v", err)
		}
	},
}

// logProgress reports (done, total) at Info level.
func logProgress(what string) func(done, total int) {
	return func(done, total int) {
		logrus.Infof("%s: %d/%d points done", what, done, total)
	}
}

func init() {
	sweepCmd.Flags().StringVar(&sweepParam, "param", "", "Parameter to sweep: dotted config path or preset:<group>")
	sweepCmd.Flags().StringVar(&sweepValues, "values", "", "Comma-separated values, or '*' for every preset/option")
	sweepCmd.Flags().StringVar(&sweepSeriesParam, "series-param", "", "Second parameter, one series per value")
	sweepCmd.Flags().StringVar(&sweepSeriesValues, "series-values", "", "Comma-separated series values, or '*'")
	_ = sweepCmd.MarkFlagRequired("param")
	_ = sweepCmd.MarkFlagRequired("values")

	rootCmd.AddCommand(sweepCmd)
}
