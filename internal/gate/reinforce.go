package gate

import (
	"fmt"
	"math"
	"time"
)

// #region reinforce
// Reinforce moves one impulse's weight a single step toward the feedback signal and
// clamps it to [0, 1]. The input personality is not modified.
func (g *Gate) Reinforce(p Personality, fb Feedback) (Personality, error) {
	if fb.ImpulseID < 0 || fb.ImpulseID >= len(p.Weights) {
		return p, fmt.Errorf("feedback for unknown impulse %d", fb.ImpulseID)
	}
	if fb.Signal != Success && fb.Signal != Rejection {
		return p, fmt.Errorf("feedback signal must be +1 or -1, got %d", fb.Signal)
	}

	next := p.Clone()
	if len(next.Counters) != len(next.Weights) {
		counters := make([]Counter, len(next.Weights))
		copy(counters, next.Counters)
		next.Counters = counters
	}
	i := fb.ImpulseID
	next.Weights[i] = clampWeight(next.Weights[i] + g.config.RLStep*float64(fb.Signal))
	if fb.Signal == Success {
		next.Counters[i].Positive++
	} else {
		next.Counters[i].Negative++
	}
	return next, nil
}

// ReinforceAll applies each feedback in order.
func (g *Gate) ReinforceAll(p Personality, fbs []Feedback) (Personality, error) {
	for _, fb := range fbs {
		var err error
		if p, err = g.Reinforce(p, fb); err != nil {
			return p, err
		}
	}
	return p, nil
}

// #endregion reinforce

// #region decay
// DecayMood scales mood toward neutral by the configured rate. Called every tick
// whether or not anything fired.
func (g *Gate) DecayMood(m Mood, now time.Time) Mood {
	v := m.Value * g.config.MoodDecayRate
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return Mood{Value: ClampMood(v), DecayedAt: now}
}

// #endregion decay

// #region helpers
// clampWeight restricts a weight to [0, 1]; NaN collapses to 0.
func clampWeight(w float64) float64 {
	if math.IsNaN(w) || w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}

// ClampMood restricts mood to [-1, 1]; NaN collapses to neutral.
func ClampMood(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
