package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielpatrickdp/impulse-engine/internal/config"
	"github.com/danielpatrickdp/impulse-engine/internal/gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

func single(id int, weighted float64) gate.Resolution {
	c := gate.Candidate{ID: id, Magnitude: weighted * 2, Weighted: weighted, Probability: 1}
	return gate.Resolution{Candidates: []gate.Candidate{c}, Winners: []gate.Candidate{c}}
}

func TestTranslateIdle(t *testing.T) {
	tr := NewTranslator(config.Default())
	mood := gate.Mood{Value: 0.2, DecayedAt: now}

	rec, after := tr.Translate(7, gate.Resolution{Idle: true}, mood, now)
	assert.True(t, rec.Idle)
	assert.Equal(t, 0, rec.IntensityLevel)
	assert.Empty(t, rec.ImpulseIDs)
	assert.Equal(t, 0.2, rec.MoodSnapshot)
	assert.Equal(t, mood, after)
	assert.Equal(t, uint64(7), rec.Tick)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"impulse_ids":[]`)
	assert.Contains(t, string(data), `"idle":true`)
}

func TestTranslateSingleWinner(t *testing.T) {
	cfg := config.Default()
	tr := NewTranslator(cfg)

	rec, after := tr.Translate(1, single(20, 0.375), gate.Mood{}, now)
	require.False(t, rec.Idle)
	assert.Equal(t, []int{20}, rec.ImpulseIDs)
	assert.Equal(t, []string{"seek_contact"}, rec.Impulses)
	assert.Equal(t, 4, rec.IntensityLevel) // 0.375 clears 0.05, 0.1, 0.2 and 0.3
	assert.Contains(t, rec.Template, "seek_contact")
	assert.InDelta(t, cfg.Output.MoodStep*0.4, after.Value, 1e-12)
	assert.Equal(t, after.Value, rec.MoodSnapshot)
	assert.Equal(t, now, rec.Timestamp)
}

func TestTranslateCoWinner(t *testing.T) {
	cfg := config.Default()
	tr := NewTranslator(cfg)
	a := gate.Candidate{ID: 21, Weighted: 0.4, Probability: 0.6}
	b := gate.Candidate{ID: 22, Weighted: 0.3, Probability: 0.4}
	res := gate.Resolution{Candidates: []gate.Candidate{a, b}, Winners: []gate.Candidate{a, b}}

	rec, after := tr.Translate(2, res, gate.Mood{}, now)
	assert.Equal(t, []int{21, 22}, rec.ImpulseIDs)
	assert.Equal(t, tr.Level(0.4+0.5*0.3), rec.IntensityLevel)
	wantMood := cfg.Output.MoodStep*0.8 + 0.5*cfg.Output.MoodStep*-0.7
	assert.InDelta(t, wantMood, after.Value, 1e-12)
	assert.Contains(t, rec.Template, "glow and withdraw")
}

func TestLevelMonotonic(t *testing.T) {
	tr := NewTranslator(config.Default())
	prev := -1
	for x := -0.5; x < 3; x += 0.01 {
		l := tr.Level(x)
		assert.GreaterOrEqual(t, l, prev)
		assert.True(t, l >= 0 && l <= 9)
		prev = l
	}
	assert.Equal(t, 0, tr.Level(0))
	assert.Equal(t, 9, tr.Level(5))
}

func TestMoodNudgeClamped(t *testing.T) {
	cfg := config.Default()
	cfg.Output.MoodStep = 1
	tr := NewTranslator(cfg)
	_, after := tr.Translate(1, single(24, 0.9), gate.Mood{Value: 0.95}, now) // affection, +0.9
	assert.Equal(t, 1.0, after.Value)
}

func TestMoodRaisesIntensity(t *testing.T) {
	tr := NewTranslator(config.Default())
	calm, _ := tr.Translate(1, single(5, 0.19), gate.Mood{}, now)
	moody, _ := tr.Translate(1, single(5, 0.19), gate.Mood{Value: -1}, now)
	assert.Greater(t, moody.IntensityLevel, calm.IntensityLevel)
}

func TestWriteReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "impulse.json")
	tr := NewTranslator(config.Default())
	rec, _ := tr.Translate(3, single(20, 0.6), gate.Mood{}, now)

	require.NoError(t, WriteFile(path, rec))
	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestWriteFileBadDir(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "missing", "impulse.json"), DecisionRecord{})
	assert.Error(t, err)
}
