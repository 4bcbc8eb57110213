package replay

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/danielpatrickdp/impulse-engine/internal/config"
	"github.com/danielpatrickdp/impulse-engine/internal/engine"
	"github.com/danielpatrickdp/impulse-engine/internal/gate"
	"github.com/danielpatrickdp/impulse-engine/internal/impulse"
	"github.com/danielpatrickdp/impulse-engine/internal/output"
	"github.com/danielpatrickdp/impulse-engine/internal/sensor"
	"go.uber.org/zap"
)

// #region types
// Step is a single recorded tick for replay.
type Step struct {
	Label    string
	Snapshot sensor.Snapshot
	Feedback []gate.Feedback
	Expect   FixtureExpect
}

// ReplayConfig controls a replay run.
type ReplayConfig struct {
	Engine   config.Config
	Seed     uint64 // zero falls back to Engine.Noise.Seed, then to 1
	NoiseOff bool
}

// DefaultReplayConfig returns the default engine configuration with seed 1.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{Engine: config.Default(), Seed: 1}
}

// ReplayResult captures the outcome of replaying one step.
type ReplayResult struct {
	Label      string
	Record     output.DecisionRecord
	Pass       bool
	Mismatches []string
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalTicks int
	Expressed  int
	Idle       int
	Failed     int
	FinalState engine.State
}

// #endregion types

// #region replay
// Replay runs steps through the pipeline in memory, starting from rest, and
// checks each record against its expectations. Nothing is persisted.
func Replay(steps []Step, cfg ReplayConfig, logger *zap.Logger) ([]ReplayResult, engine.State, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = cfg.Engine.Noise.Seed
	}
	if seed == 0 {
		seed = 1
	}
	opts := []engine.Option{engine.WithRandomness(engine.SeededRandomness(seed))}
	if cfg.NoiseOff {
		opts = append(opts, engine.WithNoise(func(rand.Source) impulse.NoiseChannel { return impulse.ZeroNoise{} }))
	}
	if err := cfg.Engine.Validate(); err != nil {
		return nil, engine.State{}, err
	}
	p, err := engine.NewPipeline(cfg.Engine, logger, opts...)
	if err != nil {
		return nil, engine.State{}, fmt.Errorf("build pipeline: %w", err)
	}

	current := engine.InitialState(cfg.Engine)
	results := make([]ReplayResult, 0, len(steps))
	for _, s := range steps {
		var rec output.DecisionRecord
		current, rec = p.Run(current, engine.Input{Snapshot: s.Snapshot, Feedback: s.Feedback})
		mismatches := check(s.Expect, rec)
		results = append(results, ReplayResult{
			Label:      s.Label,
			Record:     rec,
			Pass:       len(mismatches) == 0,
			Mismatches: mismatches,
		})
	}
	return results, current, nil
}

func check(want FixtureExpect, rec output.DecisionRecord) []string {
	var out []string
	if want.Idle != nil && *want.Idle != rec.Idle {
		out = append(out, fmt.Sprintf("idle: want %v, got %v", *want.Idle, rec.Idle))
	}
	if want.Impulses != nil && !slices.Equal(want.Impulses, rec.Impulses) {
		out = append(out, fmt.Sprintf("impulses: want [%s], got [%s]",
			strings.Join(want.Impulses, " "), strings.Join(rec.Impulses, " ")))
	}
	if want.MinLevel != nil && rec.IntensityLevel < *want.MinLevel {
		out = append(out, fmt.Sprintf("level: want >= %d, got %d", *want.MinLevel, rec.IntensityLevel))
	}
	if want.MaxLevel != nil && rec.IntensityLevel > *want.MaxLevel {
		out = append(out, fmt.Sprintf("level: want <= %d, got %d", *want.MaxLevel, rec.IntensityLevel))
	}
	return out
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult, final engine.State) ReplaySummary {
	s := ReplaySummary{TotalTicks: len(results), FinalState: final}
	for _, r := range results {
		if r.Record.Idle {
			s.Idle++
		} else {
			s.Expressed++
		}
		if !r.Pass {
			s.Failed++
		}
	}
	return s
}

// #endregion replay
