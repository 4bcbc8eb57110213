package gate

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/danielpatrickdp/impulse-engine/internal/config"
	"github.com/danielpatrickdp/impulse-engine/internal/impulse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// #region gate
// Gate filters fired impulses through the personality and picks at most two winners.
type Gate struct {
	config config.GateConfig
}

// NewGate creates a gate with the given configuration.
func NewGate(cfg config.GateConfig) *Gate {
	return &Gate{config: cfg}
}

// Resolve weights every fired impulse by its personality weight, drops the ones
// the personality never expresses, and samples a winner from the softmax over the
// weighted magnitudes. A second impulse is sampled from the rest and kept only when
// its own probability exceeds the co-activation threshold. src drives the sampling.
func (g *Gate) Resolve(v impulse.Vector, p Personality, src rand.Source) Resolution {
	fired := v.Fired()
	if len(fired) == 0 {
		return Resolution{Idle: true, Reason: "no impulse fired"}
	}

	var cands []Candidate
	for _, a := range fired {
		w := 0.0
		if a.ID >= 0 && a.ID < len(p.Weights) {
			w = p.Weights[a.ID]
		}
		weighted := a.Magnitude * w
		if !(weighted > 0) {
			continue
		}
		cands = append(cands, Candidate{ID: a.ID, Magnitude: a.Magnitude, Weighted: weighted})
	}
	if len(cands) == 0 {
		return Resolution{Idle: true, Reason: fmt.Sprintf("%d fired impulses suppressed by personality", len(fired))}
	}

	logits := make([]float64, len(cands))
	for i, c := range cands {
		logits[i] = c.Weighted
	}
	probs := Softmax(logits, g.config.Temperature)
	for i := range cands {
		cands[i].Probability = probs[i]
	}

	if src == nil {
		src = rand.NewPCG(0, 0)
	}
	first := sample(probs, src)
	winners := []Candidate{cands[first]}

	if len(cands) > 1 {
		rest := append([]float64(nil), probs...)
		rest[first] = 0
		second := sample(rest, src)
		if second != first && cands[second].Probability > g.config.CoActivationThreshold {
			winners = append(winners, cands[second])
		}
	}

	reason := fmt.Sprintf("impulse %d won with p=%.4f among %d", winners[0].ID, winners[0].Probability, len(cands))
	if len(winners) == 2 {
		reason += fmt.Sprintf(", co-winner %d p=%.4f", winners[1].ID, winners[1].Probability)
	}
	return Resolution{Candidates: cands, Winners: winners, Reason: reason}
}

// #endregion gate

// #region softmax
// Softmax returns exp(x/T) normalized to sum to one. Computed through log-sum-exp
// so large magnitudes do not overflow.
func Softmax(x []float64, temperature float64) []float64 {
	if len(x) == 0 {
		return nil
	}
	if !(temperature > 1e-9) {
		temperature = 1e-9
	}
	scaled := append([]float64(nil), x...)
	floats.Scale(1/temperature, scaled)
	lse := floats.LogSumExp(scaled)
	out := make([]float64, len(scaled))
	for i, s := range scaled {
		out[i] = math.Exp(s - lse)
	}
	return out
}

// sample draws an index from the (unnormalized) weights w.
func sample(w []float64, src rand.Source) int {
	if floats.Sum(w) <= 0 {
		return floats.MaxIdx(w)
	}
	return int(distuv.NewCategorical(w, src).Rand())
}

// #endregion softmax
