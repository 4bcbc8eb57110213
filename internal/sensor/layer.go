package sensor

import (
	"math"

	"github.com/danielpatrickdp/impulse-engine/internal/config"
	"go.uber.org/zap"
)

// #region layer
// Layer converts raw node states into a sensory vector.
type Layer struct {
	nodes  []config.NodeSpec
	config config.SensorConfig
	logger *zap.Logger
}

// NewLayer creates a sensor layer. logger may be nil.
func NewLayer(cfg config.Config, logger *zap.Logger) *Layer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Layer{
		nodes:  cfg.Nodes,
		config: cfg.Sensor,
		logger: logger.Named("sensor"),
	}
}

// #endregion layer

// #region sense
// Sense computes the sensory vector for snap under the given mood. It is deterministic
// and never mutates mood. Missing or non-finite nodes fall back to the neutral value.
func (l *Layer) Sense(snap Snapshot, mood float64) Vector {
	if !finite(mood) {
		l.logger.Warn("non-finite mood treated as neutral", zap.Float64("mood", mood))
		mood = 0
	}
	mood = clampRange(mood, -1, 1)

	out := make(Vector, len(l.nodes))
	for i, spec := range l.nodes {
		st, ok := snap.Nodes[spec.Name]
		if !ok {
			l.logger.Warn("sensor node missing, using neutral value",
				zap.String("node", spec.Name), zap.Float64("neutral", l.config.NeutralValue))
			out[i] = l.config.NeutralValue
			continue
		}
		if !finite(st.Value) {
			l.logger.Warn("sensor node value not finite, using neutral value",
				zap.String("node", spec.Name), zap.Float64("value", st.Value))
			out[i] = l.config.NeutralValue
			continue
		}

		var v float64
		switch spec.Kind {
		case config.KindNeed:
			if st.LastTransition.IsZero() {
				l.logger.Warn("need node has no last interaction, using neutral value", zap.String("node", spec.Name))
				out[i] = l.config.NeutralValue
				continue
			}
			elapsed := snap.Timestamp.Sub(st.LastTransition)
			v = NeedPressure(elapsed.Hours(), spec.HalfSaturation.Hours())
		case config.KindHabituating:
			exposure := st.Exposure
			if exposure <= 0 && st.Value != 0 && !st.LastTransition.IsZero() {
				exposure = snap.Timestamp.Sub(st.LastTransition)
			}
			v = Habituate(clamp(st.Value), exposure.Hours(), spec.HalfLife.Hours())
		default:
			v = clamp(st.Value)
		}

		if spec.Group == config.GroupSocial && l.config.MoodInjectionGain > 0 {
			v *= 1 + l.config.MoodInjectionGain*mood
		}
		out[i] = clamp(v)
	}

	for name := range snap.Nodes {
		if !l.known(name) {
			l.logger.Debug("ignoring unknown sensor node", zap.String("node", name))
		}
	}
	return out
}

func (l *Layer) known(name string) bool {
	for _, spec := range l.nodes {
		if spec.Name == name {
			return true
		}
	}
	return false
}

// #endregion sense

// #region kinetics
// NeedPressure is the saturating deficit 1 - 2^(-elapsed/halfSat). It is 0.5 at
// elapsed == halfSat and approaches but never exceeds 1. Negative elapsed counts as zero.
func NeedPressure(elapsed, halfSat float64) float64 {
	if elapsed <= 0 || halfSat <= 0 {
		return 0
	}
	return clamp(-math.Expm1(-elapsed / halfSat * math.Ln2))
}

// Habituate scales raw by 2^(-exposure/halfLife). The result is non-increasing in
// exposure and never negative.
func Habituate(raw, exposure, halfLife float64) float64 {
	if exposure <= 0 || halfLife <= 0 {
		return raw
	}
	return raw * math.Exp2(-exposure/halfLife)
}

// #endregion kinetics

// #region helpers
// clamp restricts v to [0, 1] and maps NaN to 0.
func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return clampRange(v, 0, 1)
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// #endregion helpers
