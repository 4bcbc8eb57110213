package main

import (
	"fmt"
	"strconv"

	"github.com/danielpatrickdp/impulse-engine/internal/gate"
	"github.com/spf13/cobra"
)

var (
	feedbackImpulse string
	feedbackSignal  int
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Reinforce or reject an impulse",
	Long: `Moves one impulse's personality weight a step toward the signal and commits
the result as a new state version. --impulse takes an index or an impulse name.`,
	Args: cobra.NoArgs,
	RunE: runFeedback,
}

func init() {
	feedbackCmd.Flags().StringVarP(&feedbackImpulse, "impulse", "i", "", "Impulse index or name (required)")
	feedbackCmd.Flags().IntVar(&feedbackSignal, "signal", 0, "+1 for success, -1 for rejection (required)")
}

func runFeedback(cmd *cobra.Command, args []string) error {
	if feedbackImpulse == "" {
		return usagef("--impulse is required")
	}
	if feedbackSignal != gate.Success && feedbackSignal != gate.Rejection {
		return usagef("--signal must be 1 or -1, got %d", feedbackSignal)
	}

	e, store, cfg, err := openEngine()
	if err != nil {
		return err
	}
	defer store.Close()

	id, ok := resolveImpulse(cfg.ImpulseNames(), feedbackImpulse)
	if !ok {
		return usagef("unknown impulse %q", feedbackImpulse)
	}
	rec, err := e.Feedback(gate.Feedback{ImpulseID: id, Signal: feedbackSignal})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d) weight=%.4f version=%s\n",
		cfg.ImpulseNames()[id], id, rec.Weights[id], rec.VersionID)
	return nil
}

// resolveImpulse accepts either an index or an impulse name.
func resolveImpulse(names []string, s string) (int, bool) {
	if id, err := strconv.Atoi(s); err == nil {
		return id, id >= 0 && id < len(names)
	}
	for i, n := range names {
		if n == s {
			return i, true
		}
	}
	return 0, false
}
