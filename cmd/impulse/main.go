package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/danielpatrickdp/impulse-engine/internal/config"
	"github.com/danielpatrickdp/impulse-engine/internal/engine"
	"github.com/danielpatrickdp/impulse-engine/internal/logging"
	"github.com/danielpatrickdp/impulse-engine/internal/state"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Exit codes.
const (
	exitFailure      = 1
	exitUsage        = 2
	exitNotPersisted = 3
)

var (
	// Global flags
	verbose    bool
	jsonLogs   bool
	configPath string
	dbPath     string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "impulse",
	Short: "Tick-driven impulse engine",
	Long: `impulse turns a snapshot of sensor nodes into at most two expressed impulses.

Each tick senses the snapshot, integrates leaky membranes, gates the fired
impulses through a learned personality and writes one decision record.
State is versioned in SQLite so any tick can be rolled back.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.NewLogger(verbose, jsonLogs)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "log-json", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config overlaid on the defaults")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", envOr("IMPULSE_DB", "impulse_state.db"), "SQLite state database (or set IMPULSE_DB)")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	rootCmd.AddCommand(tickCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(replayCmd)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	return exitCode(err)
}

// #region exit-codes
// usageError marks bad invocations: exit code 2.
type usageError struct{ error }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

func exitCode(err error) int {
	var ue usageError
	switch {
	case errors.As(err, &ue), errors.Is(err, config.ErrConfig):
		return exitUsage
	case errors.Is(err, engine.ErrNotPersisted):
		return exitNotPersisted
	default:
		return exitFailure
	}
}

// #endregion exit-codes

// #region helpers
func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

// openEngine loads the config, opens the store and builds an engine. The caller
// closes the store.
func openEngine() (*engine.Engine, *state.Store, config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, cfg, err
	}
	store, err := state.NewStore(dbPath)
	if err != nil {
		return nil, nil, cfg, fmt.Errorf("open store %s: %w", dbPath, err)
	}
	e, err := engine.New(cfg, store, logger)
	if err != nil {
		store.Close()
		return nil, nil, cfg, err
	}
	return e, store, cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
