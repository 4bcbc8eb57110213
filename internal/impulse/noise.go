package impulse

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// #region noise-channel
// NoiseChannel fills the stochastic pool that feeds background ignition energy.
type NoiseChannel interface {
	Fill(pool []float64)
}

// UniformNoise draws each pool entry from U(-1, 1).
type UniformNoise struct {
	dist distuv.Uniform
}

// NewUniformNoise creates a noise channel over src. The same src sequence gives the same pool.
func NewUniformNoise(src rand.Source) *UniformNoise {
	return &UniformNoise{dist: distuv.Uniform{Min: -1, Max: 1, Src: src}}
}

// Fill implements NoiseChannel.
func (u *UniformNoise) Fill(pool []float64) {
	for i := range pool {
		pool[i] = u.dist.Rand()
	}
}

// ZeroNoise is a silent channel.
type ZeroNoise struct{}

// Fill implements NoiseChannel.
func (ZeroNoise) Fill(pool []float64) {
	clear(pool)
}

// #endregion noise-channel

// #region reduce
// reduce folds a pool of M draws into n slots by strided mean: draw j lands in slot j mod n.
func reduce(pool []float64, n int, amplitude float64) []float64 {
	out := make([]float64, n)
	if amplitude == 0 || n == 0 {
		return out
	}
	counts := make([]int, n)
	for j, v := range pool {
		out[j%n] += v
		counts[j%n]++
	}
	for i := range out {
		if counts[i] > 0 {
			out[i] = amplitude * out[i] / float64(counts[i])
		}
	}
	return out
}

// #endregion reduce
