package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/inference-sim/teamsim/sim/experiment"
)

// presetsCmd lists the preset catalog
var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List preset groups and their patches",
	Run: func(cmd *cobra.Command, args []string) {
		printCatalog(cmd.OutOrStdout(), mustCatalog())
	},
}

func printCatalog(w io.Writer, c *experiment.Catalog) {
	for _, g := range c.Groups {
		fmt.Fprintf(w, "%s (%s)\n", g.ID, g.Label)
		for _, p := range g.Presets {
			fmt.Fprintf(w, "  %s=%s  %s\n", g.ID, p.ID, p.Label)
			paths := make([]string, 0, len(p.Patch))
			for path := range p.Patch {
				paths = append(paths, path)
			}
			sort.Strings(paths)
			for _, path := range paths {
				fmt.Fprintf(w, "      %s: %v\n", path, p.Patch[path])
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}
