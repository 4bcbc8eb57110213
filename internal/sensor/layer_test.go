package sensor

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielpatrickdp/impulse-engine/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var ref = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func indexOf(t *testing.T, cfg config.Config, name string) int {
	t.Helper()
	for i, n := range cfg.Nodes {
		if n.Name == name {
			return i
		}
	}
	t.Fatalf("node %s not in catalog", name)
	return -1
}

func TestNeutralSnapshotIsZero(t *testing.T) {
	cfg := config.Default()
	l := NewLayer(cfg, nil)

	vec := l.Sense(NeutralSnapshot(cfg.Nodes, ref), 0)
	if len(vec) != cfg.Dimensions {
		t.Fatalf("expected %d values, got %d", cfg.Dimensions, len(vec))
	}
	for i, v := range vec {
		if v != 0 {
			t.Fatalf("expected zero at %d (%s), got %f", i, cfg.Nodes[i].Name, v)
		}
	}
}

func TestNeedPressureIsolationScenario(t *testing.T) {
	cfg := config.Default()
	l := NewLayer(cfg, nil)
	idx := indexOf(t, cfg, "isolation")

	snap := NeutralSnapshot(cfg.Nodes, ref)
	snap.Nodes["isolation"] = NodeState{LastTransition: ref.Add(-48 * time.Hour)}
	long := l.Sense(snap, 0)[idx]

	snap.Nodes["isolation"] = NodeState{LastTransition: ref.Add(-1 * time.Hour)}
	short := l.Sense(snap, 0)[idx]

	if math.Abs(long-0.75) > 1e-9 {
		t.Fatalf("48h pressure: expected 0.75, got %f", long)
	}
	// 1 - 2^(-1/24)
	if math.Abs(short-0.028468) > 1e-5 {
		t.Fatalf("1h pressure: expected 0.0285, got %f", short)
	}
}

func TestNeedPressureSaturates(t *testing.T) {
	prev := 0.0
	for h := 1.0; h < 2000; h *= 2 {
		p := NeedPressure(h, 24)
		if p < prev {
			t.Fatalf("pressure decreased at %fh: %f < %f", h, p, prev)
		}
		if p > 1 {
			t.Fatalf("pressure exceeded 1 at %fh: %f", h, p)
		}
		prev = p
	}
	if NeedPressure(-5, 24) != 0 {
		t.Fatal("negative elapsed should give zero pressure")
	}
}

func TestHabituationMonotonic(t *testing.T) {
	prev := Habituate(1, 0, 2)
	if prev != 1 {
		t.Fatalf("expected full salience at zero exposure, got %f", prev)
	}
	for tick := 1; tick <= 200; tick++ {
		v := Habituate(1, float64(tick)*0.25, 2)
		if v > prev {
			t.Fatalf("tick %d: habituated value rose %f > %f", tick, v, prev)
		}
		if v < 0 {
			t.Fatalf("tick %d: habituated value below zero: %f", tick, v)
		}
		prev = v
	}
	if prev > 1e-6 {
		t.Fatalf("expected negligible signal after many half-lives, got %g", prev)
	}
}

func TestHabituationFromLastTransition(t *testing.T) {
	cfg := config.Default()
	l := NewLayer(cfg, nil)
	idx := indexOf(t, cfg, "raining") // half-life 2h

	snap := NeutralSnapshot(cfg.Nodes, ref)
	snap.Nodes["raining"] = NodeState{Value: 1, LastTransition: ref.Add(-2 * time.Hour)}
	got := l.Sense(snap, 0)[idx]
	if math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("expected 0.5 after one half-life, got %f", got)
	}

	snap.Nodes["raining"] = NodeState{Value: 1, LastTransition: ref.Add(-time.Minute), Exposure: 4 * time.Hour}
	got = l.Sense(snap, 0)[idx]
	if math.Abs(got-0.25) > 1e-9 {
		t.Fatalf("explicit exposure should win: expected 0.25, got %f", got)
	}
}

func TestMoodInjectionSocialOnly(t *testing.T) {
	cfg := config.Default()
	l := NewLayer(cfg, nil)
	social := indexOf(t, cfg, "company")
	body := indexOf(t, cfg, "warmth")

	snap := NeutralSnapshot(cfg.Nodes, ref)
	snap.Nodes["company"] = NodeState{Value: 0.5}
	snap.Nodes["warmth"] = NodeState{Value: 0.5}

	neutral := l.Sense(snap, 0)
	happy := l.Sense(snap, 1)
	sad := l.Sense(snap, -1)

	if !(happy[social] > neutral[social] && sad[social] < neutral[social]) {
		t.Fatalf("social node not biased by mood: sad=%f neutral=%f happy=%f", sad[social], neutral[social], happy[social])
	}
	if happy[body] != neutral[body] || sad[body] != neutral[body] {
		t.Fatal("non-social node should ignore mood")
	}
}

func TestSenseDeterministic(t *testing.T) {
	cfg := config.Default()
	l := NewLayer(cfg, nil)
	snap := NeutralSnapshot(cfg.Nodes, ref)
	snap.Nodes["isolation"] = NodeState{LastTransition: ref.Add(-30 * time.Hour)}
	snap.Nodes["thunder"] = NodeState{Value: 1, LastTransition: ref.Add(-10 * time.Minute)}

	a := l.Sense(snap, 0.4)
	b := l.Sense(snap, 0.4)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic at %d: %f != %f", i, a[i], b[i])
		}
	}
}

func TestMissingNodeWarnsAndDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Sensor.NeutralValue = 0.1
	core, logs := observer.New(zapcore.WarnLevel)
	l := NewLayer(cfg, zap.New(core))

	snap := NeutralSnapshot(cfg.Nodes, ref)
	delete(snap.Nodes, "hunger")
	idx := indexOf(t, cfg, "hunger")

	vec := l.Sense(snap, 0)
	if vec[idx] != 0.1 {
		t.Fatalf("expected neutral 0.1, got %f", vec[idx])
	}
	if logs.FilterField(zap.String("node", "hunger")).Len() != 1 {
		t.Fatalf("expected one warning for hunger, got %d", logs.Len())
	}
}

func TestNonFiniteValuesClamped(t *testing.T) {
	cfg := config.Default()
	l := NewLayer(cfg, nil)
	snap := NeutralSnapshot(cfg.Nodes, ref)
	snap.Nodes["pain"] = NodeState{Value: math.NaN()}
	snap.Nodes["praise"] = NodeState{Value: math.Inf(1)}
	snap.Nodes["success"] = NodeState{Value: 7}

	vec := l.Sense(snap, math.NaN())
	for i, v := range vec {
		if math.IsNaN(v) || v < 0 || v > 1 {
			t.Fatalf("value %d out of bounds: %f", i, v)
		}
	}
	if vec[indexOf(t, cfg, "success")] != 1 {
		t.Fatal("expected out-of-range raw value clamped to 1")
	}
}

func TestLoadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	body := `{
  "timestamp": "2026-03-01T12:00:00Z",
  "nodes": {
    "isolation": {"value": 0, "last_transition": "2026-02-27T12:00:00Z"},
    "raining": {"value": 1, "last_transition": "2026-03-01T10:00:00Z", "exposure_seconds": 3600}
  }
}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	snap, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if !snap.Timestamp.Equal(ref) {
		t.Fatalf("timestamp mismatch: %v", snap.Timestamp)
	}
	if snap.Nodes["raining"].Exposure != time.Hour {
		t.Fatalf("expected 1h exposure, got %v", snap.Nodes["raining"].Exposure)
	}

	data, err := MarshalSnapshot(snap)
	if err != nil {
		t.Fatalf("MarshalSnapshot: %v", err)
	}
	again, err := ParseSnapshot(data)
	if err != nil {
		t.Fatalf("ParseSnapshot: %v", err)
	}
	if again.Nodes["isolation"].LastTransition != snap.Nodes["isolation"].LastTransition {
		t.Fatal("last_transition did not survive marshal")
	}
}

func TestLoadSnapshotErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadSnapshot(filepath.Join(dir, "missing.json")); !errors.Is(err, config.ErrConfig) {
		t.Fatalf("expected ErrConfig for missing file, got %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{not json"), 0644)
	if _, err := LoadSnapshot(bad); !errors.Is(err, config.ErrConfig) {
		t.Fatalf("expected ErrConfig for bad json, got %v", err)
	}

	noTS := filepath.Join(dir, "nots.json")
	os.WriteFile(noTS, []byte(`{"nodes":{}}`), 0644)
	if _, err := LoadSnapshot(noTS); !errors.Is(err, config.ErrConfig) {
		t.Fatalf("expected ErrConfig without timestamp, got %v", err)
	}
}
