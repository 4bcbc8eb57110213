package impulse

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/impulse-engine/internal/config"
	"github.com/danielpatrickdp/impulse-engine/internal/sensor"
	"go.uber.org/zap"
)

// #region activation
// Activation is the per-tick outcome of one impulse.
type Activation struct {
	ID        int
	Potential float64 // membrane potential after integration, before any reset
	Threshold float64 // mood-modulated threshold used this tick
	Fired     bool
	Magnitude float64 // potential at crossing; zero when not fired
}

// Vector is the impulse activation vector of one tick.
type Vector []Activation

// Fired returns only the activations that crossed threshold.
func (v Vector) Fired() []Activation {
	var out []Activation
	for _, a := range v {
		if a.Fired {
			out = append(out, a)
		}
	}
	return out
}

// #endregion activation

// #region layer
// Layer is a bank of leaky integrate-and-fire units, one per impulse.
type Layer struct {
	synapses  *Synapses
	base      []float64
	polarity  []float64
	config    config.ImpulseConfig
	poolSize  int
	amplitude float64
	logger    *zap.Logger
}

// NewLayer creates the impulse layer. The synapse matrix must match cfg.Dimensions.
func NewLayer(cfg config.Config, syn *Synapses, logger *zap.Logger) (*Layer, error) {
	if syn == nil || syn.Size() != cfg.Dimensions {
		return nil, fmt.Errorf("%w: synapse matrix size does not match %d dimensions", config.ErrConfig, cfg.Dimensions)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	base := make([]float64, cfg.Dimensions)
	for i := range base {
		base[i] = cfg.ThresholdFor(i)
	}
	return &Layer{
		synapses:  syn,
		base:      base,
		polarity:  cfg.Polarities(),
		config:    cfg.Impulse,
		poolSize:  cfg.Noise.PoolSize,
		amplitude: cfg.Noise.Amplitude,
		logger:    logger.Named("impulse"),
	}, nil
}

// #endregion layer

// #region thresholds
// Thresholds returns the firing thresholds under mood. Impulses whose polarity
// matches the mood's sign get easier to fire; opposed ones get harder. Never below MinThreshold.
func (l *Layer) Thresholds(mood float64) []float64 {
	out := make([]float64, len(l.base))
	for i, b := range l.base {
		out[i] = math.Max(l.config.MinThreshold, b-l.config.MoodThresholdGain*l.polarity[i]*mood)
	}
	return out
}

// #endregion thresholds

// #region step
// Step integrates one tick. membrane is the residue from the previous tick and is
// not modified; the returned slice is the next residue.
func (l *Layer) Step(in sensor.Vector, noise NoiseChannel, mood float64, membrane []float64) (Vector, []float64) {
	n := len(l.base)
	prev := membrane
	if len(prev) != n {
		l.logger.Warn("membrane residue has wrong size, starting from rest",
			zap.Int("got", len(prev)), zap.Int("want", n))
		prev = make([]float64, n)
	}
	if len(in) != n {
		l.logger.Warn("sensory vector has wrong size, padding with zeros",
			zap.Int("got", len(in)), zap.Int("want", n))
		padded := make(sensor.Vector, n)
		copy(padded, in)
		in = padded
	}

	drive := l.synapses.Drive(in)
	pool := make([]float64, l.poolSize)
	if noise == nil {
		noise = ZeroNoise{}
	}
	noise.Fill(pool)
	jitter := reduce(pool, n, l.amplitude)
	thr := l.Thresholds(mood)

	out := make(Vector, n)
	next := make([]float64, n)
	for i := 0; i < n; i++ {
		m := prev[i]
		m += drive[i] + jitter[i] - l.config.Leak*m
		if math.IsNaN(m) || math.IsInf(m, 0) {
			l.logger.Warn("membrane potential not finite, resetting", zap.Int("impulse", i))
			m = l.config.ResetPotential
		}
		act := Activation{ID: i, Potential: m, Threshold: thr[i]}
		if m > thr[i] {
			act.Fired = true
			act.Magnitude = m
			m = l.config.ResetPotential
		}
		out[i] = act
		next[i] = m
	}
	return out, next
}

// #endregion step
