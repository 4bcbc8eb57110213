package replay

import (
	"errors"
	"testing"
	"time"

	"github.com/danielpatrickdp/impulse-engine/internal/config"
	"github.com/danielpatrickdp/impulse-engine/internal/gate"
	"github.com/danielpatrickdp/impulse-engine/internal/sensor"
)

var t0 = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

// helper: a step where only isolation is reported, lonely for the given duration.
func lonelyStep(label string, at time.Time, since time.Duration) Step {
	return Step{
		Label: label,
		Snapshot: sensor.Snapshot{
			Timestamp: at,
			Nodes:     map[string]sensor.NodeState{"isolation": {LastTransition: at.Add(-since)}},
		},
	}
}

// 1. Empty input: zero steps → zero results, resting state.
func TestReplay_Empty(t *testing.T) {
	results, final, err := Replay(nil, DefaultReplayConfig(), nil)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
	if final.Tick != 0 {
		t.Fatalf("expected tick 0, got %d", final.Tick)
	}
}

// 2. Expectations that do not hold are reported, not fatal.
func TestReplay_ReportsMismatch(t *testing.T) {
	s := lonelyStep("lonely", t0, 48*time.Hour)
	s.Expect = FixtureExpect{Idle: boolPtr(true), Impulses: []string{"glow"}, MaxLevel: intPtr(1)}

	results, _, err := Replay([]Step{s}, DefaultReplayConfig(), nil)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	r := results[0]
	if r.Pass {
		t.Fatal("expected mismatch")
	}
	if len(r.Mismatches) != 3 {
		t.Fatalf("expected 3 mismatches, got %v", r.Mismatches)
	}
}

// 3. Same seed → same records; different seeds may differ but stay valid.
func TestReplay_Reproducible(t *testing.T) {
	var steps []Step
	for i := 0; i < 30; i++ {
		steps = append(steps, lonelyStep("t", t0.Add(time.Duration(i)*time.Hour), time.Duration(12+i*2)*time.Hour))
	}
	a, _, _ := Replay(steps, DefaultReplayConfig(), nil)
	b, _, _ := Replay(steps, DefaultReplayConfig(), nil)
	for i := range a {
		if a[i].Record.Tick != b[i].Record.Tick || a[i].Record.Template != b[i].Record.Template ||
			a[i].Record.MoodSnapshot != b[i].Record.MoodSnapshot {
			t.Fatalf("step %d differs: %+v vs %+v", i, a[i].Record, b[i].Record)
		}
	}
}

// 4. Feedback in a step reaches the final personality.
func TestReplay_FeedbackApplied(t *testing.T) {
	s := lonelyStep("fb", t0, 0)
	s.Feedback = []gate.Feedback{{ImpulseID: 20, Signal: gate.Success}, {ImpulseID: 20, Signal: gate.Success}}
	_, final, err := Replay([]Step{s}, DefaultReplayConfig(), nil)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if w := final.Personality.Weights[20]; w < 0.5999 || w > 0.6001 {
		t.Fatalf("expected weight 0.6, got %f", w)
	}
}

// 5. Invalid engine config is rejected before any tick runs.
func TestReplay_InvalidConfig(t *testing.T) {
	cfg := DefaultReplayConfig()
	cfg.Engine.Impulse.Leak = 2
	_, _, err := Replay([]Step{lonelyStep("x", t0, 0)}, cfg, nil)
	if !errors.Is(err, config.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

// 6. Summarize counts expressed, idle and failed ticks.
func TestSummarize(t *testing.T) {
	steps := []Step{
		lonelyStep("rest", t0, 0),
		lonelyStep("lonely", t0.Add(time.Hour), 48*time.Hour),
	}
	steps[0].Expect.Idle = boolPtr(false)
	results, final, err := Replay(steps, DefaultReplayConfig(), nil)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	s := Summarize(results, final)
	if s.TotalTicks != 2 || s.Idle != 1 || s.Expressed != 1 || s.Failed != 1 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.FinalState.Tick != 2 {
		t.Fatalf("expected final tick 2, got %d", s.FinalState.Tick)
	}
}
