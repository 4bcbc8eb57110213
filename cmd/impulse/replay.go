package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/danielpatrickdp/impulse-engine/internal/replay"
	"github.com/spf13/cobra"
)

var fixturePath string

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a fixture in memory and compare against its expectations",
	Long: `Runs every tick of a JSON fixture through the pipeline from a resting state.
Nothing is read from or written to the state database. Exits 1 when any tick
misses its expectations.`,
	Args: cobra.NoArgs,
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVarP(&fixturePath, "fixture", "f", "", "Fixture JSON (required)")
}

func runReplay(cmd *cobra.Command, args []string) error {
	if fixturePath == "" {
		return usagef("--fixture is required")
	}
	f, err := replay.LoadFixture(fixturePath)
	if err != nil {
		return usageError{err}
	}
	steps, err := f.Steps()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	results, final, err := replay.Replay(steps, replay.ReplayConfig{Engine: cfg, Seed: f.Seed, NoiseOff: f.NoiseOff}, logger)
	if err != nil {
		return err
	}
	summary := replay.Summarize(results, final)
	printComparison(cmd.OutOrStdout(), results, summary)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d ticks missed expectations", summary.Failed, summary.TotalTicks)
	}
	return nil
}

// printComparison outputs one row per tick followed by the summary.
func printComparison(w io.Writer, results []replay.ReplayResult, s replay.ReplaySummary) {
	fmt.Fprintf(w, "%-20s| %-28s| %-5s| %s\n", "Tick", "Replayed", "Level", "Match")
	fmt.Fprintf(w, "%-20s+%-29s+%-6s+%s\n",
		"--------------------", "-----------------------------", "------", "------")
	for _, r := range results {
		got := strings.Join(r.Record.Impulses, ", ")
		if r.Record.Idle {
			got = "(idle)"
		}
		match := "OK"
		if !r.Pass {
			match = "DIFF " + strings.Join(r.Mismatches, "; ")
		}
		fmt.Fprintf(w, "%-20s| %-28s| %-5d| %s\n", truncate(r.Label, 20), truncate(got, 28), r.Record.IntensityLevel, match)
	}
	fmt.Fprintf(w, "\n%d ticks: %d expressed, %d idle, %d failed\n", s.TotalTicks, s.Expressed, s.Idle, s.Failed)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}
