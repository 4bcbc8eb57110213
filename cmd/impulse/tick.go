package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danielpatrickdp/impulse-engine/internal/config"
	"github.com/danielpatrickdp/impulse-engine/internal/engine"
	"github.com/danielpatrickdp/impulse-engine/internal/output"
	"github.com/danielpatrickdp/impulse-engine/internal/sensor"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	snapshotPath string
	outPath      string
	resetState   bool
)

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Run one tick against the persisted state",
	Long: `Reads the snapshot, runs one tick and prints the decision record as JSON.
Without --snapshot every node is read at rest as of now.`,
	Args: cobra.NoArgs,
	RunE: runTick,
}

func init() {
	tickCmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "Sensor snapshot JSON")
	tickCmd.Flags().StringVarP(&outPath, "out", "o", "", "Also write the record here (atomic replace)")
	tickCmd.Flags().BoolVar(&resetState, "reset", false, "Start from a fresh resting state before ticking")
}

func runTick(cmd *cobra.Command, args []string) error {
	e, store, cfg, err := openEngine()
	if err != nil {
		return err
	}
	defer store.Close()

	if resetState {
		if _, err := e.Reset(); err != nil {
			return err
		}
	}

	rec, err := tickOnce(e, cfg, snapshotPath, outPath)
	if err != nil && !errors.Is(err, engine.ErrNotPersisted) {
		return err
	}
	if perr := printRecord(cmd, rec); perr != nil {
		return perr
	}
	return err
}

// tickOnce runs a tick and publishes the record to out when set. A record that
// was not persisted is still published, and the ErrNotPersisted error returned.
func tickOnce(e *engine.Engine, cfg config.Config, snapPath, out string) (output.DecisionRecord, error) {
	snap, err := readSnapshot(cfg, snapPath)
	if err != nil {
		return output.DecisionRecord{}, err
	}
	rec, tickErr := e.Tick(engine.Input{Snapshot: snap})
	if tickErr != nil && !errors.Is(tickErr, engine.ErrNotPersisted) {
		return rec, tickErr
	}
	if out != "" {
		if err := output.WriteFile(out, rec); err != nil {
			return rec, fmt.Errorf("publish record: %w", errors.Join(err, tickErr))
		}
	}
	logger.Debug("tick complete",
		zap.Uint64("tick", rec.Tick),
		zap.Strings("impulses", rec.Impulses),
		zap.Bool("idle", rec.Idle),
	)
	return rec, tickErr
}

func readSnapshot(cfg config.Config, path string) (sensor.Snapshot, error) {
	if path == "" {
		return sensor.NeutralSnapshot(cfg.Nodes, time.Now().UTC()), nil
	}
	return sensor.LoadSnapshot(path)
}

func printRecord(cmd *cobra.Command, rec output.DecisionRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
