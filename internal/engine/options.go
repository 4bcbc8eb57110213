package engine

import (
	"math/rand/v2"
	"time"

	"github.com/danielpatrickdp/impulse-engine/internal/config"
	"github.com/danielpatrickdp/impulse-engine/internal/impulse"
)

// #region options
type options struct {
	randomness func(tick uint64) rand.Source
	noise      func(src rand.Source) impulse.NoiseChannel
	synapses   *impulse.Synapses
}

// Option customizes a Pipeline or Engine.
type Option func(*options)

// WithRandomness sets the per-tick source factory. Noise and sampling for a tick
// both draw from the source it returns.
func WithRandomness(f func(tick uint64) rand.Source) Option {
	return func(o *options) { o.randomness = f }
}

// WithNoise replaces the noise channel built over each tick's source.
func WithNoise(f func(src rand.Source) impulse.NoiseChannel) Option {
	return func(o *options) { o.noise = f }
}

// WithSynapses uses syn instead of the matrix named by the config.
func WithSynapses(syn *impulse.Synapses) Option {
	return func(o *options) { o.synapses = syn }
}

// SeededRandomness returns PCG sources keyed by (seed, tick). Seed zero picks one
// from the clock once, so runs differ but ticks within a run stay independent.
func SeededRandomness(seed uint64) func(tick uint64) rand.Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return func(tick uint64) rand.Source {
		return rand.NewPCG(seed, tick)
	}
}

func resolveOptions(cfg config.Config, opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.randomness == nil {
		o.randomness = SeededRandomness(cfg.Noise.Seed)
	}
	if o.noise == nil {
		o.noise = func(src rand.Source) impulse.NoiseChannel { return impulse.NewUniformNoise(src) }
	}
	return o
}

// #endregion options
