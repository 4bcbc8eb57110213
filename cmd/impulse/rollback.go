package main

import (
	"fmt"

	"github.com/danielpatrickdp/impulse-engine/internal/state"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rollbackVersion string

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Point the active state at an earlier version",
	Long: `Makes an earlier version active again. Versions committed after it are
kept, so a rollback can itself be rolled back.`,
	Args: cobra.NoArgs,
	RunE: runRollback,
}

func init() {
	rollbackCmd.Flags().StringVar(&rollbackVersion, "version", "", "Version ID to restore (required)")
}

func runRollback(cmd *cobra.Command, args []string) error {
	if rollbackVersion == "" {
		return usagef("--version is required")
	}
	store, err := state.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open store %s: %w", dbPath, err)
	}
	defer store.Close()

	if err := store.Rollback(rollbackVersion); err != nil {
		return err
	}
	logger.Info("rolled back", zap.String("version", rollbackVersion))
	fmt.Fprintf(cmd.OutOrStdout(), "active version: %s\n", rollbackVersion)
	return nil
}
