package output

import (
	"math"
	"strings"
	"time"

	"github.com/danielpatrickdp/impulse-engine/internal/config"
	"github.com/danielpatrickdp/impulse-engine/internal/gate"
)

// #region decision-record
// DecisionRecord is the sole externally visible result of a tick. It is never
// modified after Translate returns it.
type DecisionRecord struct {
	Tick           uint64    `json:"tick"`
	ImpulseIDs     []int     `json:"impulse_ids"`
	Impulses       []string  `json:"impulses"`
	IntensityLevel int       `json:"intensity_level"`
	MoodSnapshot   float64   `json:"mood_snapshot"`
	Template       string    `json:"template"`
	Idle           bool      `json:"idle"`
	Timestamp      time.Time `json:"timestamp"`
}

// #endregion decision-record

// #region translator
// Translator maps a gate resolution to a DecisionRecord and applies the mood nudge.
type Translator struct {
	config   config.OutputConfig
	names    []string
	polarity []float64
}

// NewTranslator creates a translator for the catalog in cfg.
func NewTranslator(cfg config.Config) *Translator {
	return &Translator{
		config:   cfg.Output,
		names:    cfg.ImpulseNames(),
		polarity: cfg.Polarities(),
	}
}

// Translate produces the record for one tick. mood is the already-decayed mood; the
// returned mood includes the nudge toward the winners' polarity and is what the
// record snapshots.
func (t *Translator) Translate(tick uint64, res gate.Resolution, mood gate.Mood, now time.Time) (DecisionRecord, gate.Mood) {
	primary, ok := res.Primary()
	if res.Idle || !ok {
		return DecisionRecord{
			Tick:           tick,
			ImpulseIDs:     []int{},
			Impulses:       []string{},
			IntensityLevel: 0,
			MoodSnapshot:   mood.Value,
			Template:       t.config.IdleTemplate,
			Idle:           true,
			Timestamp:      now,
		}, mood
	}

	combined := primary.Weighted
	delta := t.config.MoodStep * t.polarityOf(primary.ID)
	ids := []int{primary.ID}
	names := []string{t.nameOf(primary.ID)}
	if second, ok := res.Secondary(); ok {
		combined += t.config.SecondaryBlend * second.Weighted
		delta += t.config.SecondaryBlend * t.config.MoodStep * t.polarityOf(second.ID)
		ids = append(ids, second.ID)
		names = append(names, t.nameOf(second.ID))
	}
	combined += t.config.MoodIntensityGain * math.Abs(mood.Value)

	level := t.Level(combined)
	nudged := gate.Mood{Value: gate.ClampMood(mood.Value + delta), DecayedAt: mood.DecayedAt}

	return DecisionRecord{
		Tick:           tick,
		ImpulseIDs:     ids,
		Impulses:       names,
		IntensityLevel: level,
		MoodSnapshot:   nudged.Value,
		Template:       strings.ReplaceAll(t.config.Templates[level], "{impulse}", strings.Join(names, " and ")),
		Timestamp:      now,
	}, nudged
}

// Level counts the breakpoints at or below x, giving 0..9.
func (t *Translator) Level(x float64) int {
	if math.IsNaN(x) {
		return 0
	}
	level := 0
	for _, b := range t.config.Breakpoints {
		if x >= b {
			level++
		}
	}
	return level
}

func (t *Translator) nameOf(id int) string {
	if id >= 0 && id < len(t.names) {
		return t.names[id]
	}
	return "unknown"
}

func (t *Translator) polarityOf(id int) float64 {
	if id >= 0 && id < len(t.polarity) {
		return t.polarity[id]
	}
	return 0
}

// #endregion translator
