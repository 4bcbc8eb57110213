package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/danielpatrickdp/impulse-engine/internal/engine"
	"github.com/danielpatrickdp/impulse-engine/internal/state"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	watchSnapshot string
	watchOut      string
	watchInterval time.Duration
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Tick whenever the snapshot changes, and on an interval",
	Long: `Watches the snapshot file and runs a tick shortly after every write. With
--interval it also ticks on a fixed period. Ticks run one at a time on a
single goroutine. Stops on SIGINT/SIGTERM, or when a tick could not be
persisted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchSnapshot, "snapshot", "s", "", "Sensor snapshot JSON to watch (required)")
	watchCmd.Flags().StringVarP(&watchOut, "out", "o", "", "Write each record here (atomic replace)")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Also tick on this period (0 disables)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 200*time.Millisecond, "Quiet time after a write before ticking")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchSnapshot == "" {
		return usagef("--snapshot is required")
	}
	if watchInterval < 0 || watchDebounce < 0 {
		return usagef("--interval and --debounce must not be negative")
	}
	target, err := filepath.Abs(watchSnapshot)
	if err != nil {
		return err
	}

	e, store, cfg, err := openEngine()
	if err != nil {
		return err
	}
	defer store.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	// Watch the directory: atomic writers replace the file, which drops a file watch.
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("watching snapshot", zap.String("path", target), zap.Duration("interval", watchInterval))
	return watchLoop(ctx, watcher.Events, watcher.Errors, target, watchInterval, watchDebounce, func(reason string) error {
		rec, err := tickOnce(e, cfg, target, watchOut)
		if err != nil {
			return err
		}
		if watchOut == "" {
			if err := printRecord(cmd, rec); err != nil {
				return err
			}
		}
		logger.Info("tick", zap.String("trigger", reason), zap.Uint64("tick", rec.Tick), zap.Strings("impulses", rec.Impulses))
		return nil
	})
}

// #region watch-loop
// watchLoop calls tick after writes to target settle and on every interval.
// A tick that was not persisted, or found corrupt state, ends the loop; other
// tick errors (a half-written snapshot, say) are logged and the loop goes on.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, target string,
	interval, debounce time.Duration, tick func(reason string) error) error {

	var periodic <-chan time.Time
	if interval > 0 {
		t := time.NewTicker(interval)
		defer t.Stop()
		periodic = t.C
	}
	settle := time.NewTimer(time.Hour)
	settle.Stop()
	defer settle.Stop()

	fire := func(reason string) error {
		err := tick(reason)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, engine.ErrNotPersisted), errors.Is(err, state.ErrCorrupt):
			return err
		default:
			logger.Warn("tick failed", zap.String("trigger", reason), zap.Error(err))
			return nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("watch stopped")
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				settle.Reset(debounce)
			}

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			logger.Error("watcher error", zap.Error(err))

		case <-settle.C:
			if err := fire("snapshot"); err != nil {
				return err
			}

		case <-periodic:
			if err := fire("interval"); err != nil {
				return err
			}
		}
	}
}

// #endregion watch-loop
