package gate

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/danielpatrickdp/impulse-engine/internal/config"
	"github.com/danielpatrickdp/impulse-engine/internal/impulse"
)

func makeVector(n int, fired map[int]float64) impulse.Vector {
	v := make(impulse.Vector, n)
	for i := range v {
		v[i] = impulse.Activation{ID: i, Threshold: 0.5}
	}
	for id, mag := range fired {
		v[id].Fired = true
		v[id].Magnitude = mag
		v[id].Potential = mag
	}
	return v
}

func newGate() *Gate {
	return NewGate(config.Default().Gate)
}

func TestResolveIdleWhenNothingFired(t *testing.T) {
	g := newGate()
	res := g.Resolve(makeVector(50, nil), NewPersonality(50, 0.5), rand.NewPCG(1, 1))
	if !res.Idle {
		t.Fatal("expected idle resolution")
	}
	if len(res.Winners) != 0 {
		t.Fatalf("expected no winners, got %d", len(res.Winners))
	}
	if _, ok := res.Primary(); ok {
		t.Fatal("Primary should report false on idle")
	}
}

func TestResolveZeroWeightNeverExpressed(t *testing.T) {
	g := newGate()
	p := NewPersonality(50, 0.5)
	p.Weights[7] = 0

	res := g.Resolve(makeVector(50, map[int]float64{7: 2.0}), p, rand.NewPCG(1, 1))
	if !res.Idle {
		t.Fatalf("zero-weight impulse should be suppressed, got %+v", res)
	}
}

func TestResolveSingleWinner(t *testing.T) {
	g := newGate()
	res := g.Resolve(makeVector(50, map[int]float64{20: 0.75}), NewPersonality(50, 0.5), rand.NewPCG(1, 1))
	if res.Idle {
		t.Fatal("expected a winner")
	}
	w, _ := res.Primary()
	if w.ID != 20 {
		t.Fatalf("expected impulse 20, got %d", w.ID)
	}
	if w.Probability != 1 {
		t.Fatalf("expected probability 1, got %f", w.Probability)
	}
	if math.Abs(w.Weighted-0.375) > 1e-12 {
		t.Fatalf("expected weighted 0.375, got %f", w.Weighted)
	}
}

func TestSoftmaxNormalization(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 3))
	for trial := 0; trial < 100; trial++ {
		n := 1 + r.IntN(20)
		x := make([]float64, n)
		for i := range x {
			x[i] = r.Float64() * 5
		}
		for _, temp := range []float64{0.05, 0.5, 1, 10} {
			var sum float64
			for _, p := range Softmax(x, temp) {
				if p < 0 || p > 1 || math.IsNaN(p) {
					t.Fatalf("probability out of range: %f", p)
				}
				sum += p
			}
			if math.Abs(sum-1) > 1e-9 {
				t.Fatalf("probabilities sum to %f", sum)
			}
		}
	}
}

func TestResolveCandidatesSumToOne(t *testing.T) {
	g := newGate()
	res := g.Resolve(makeVector(50, map[int]float64{1: 0.6, 2: 0.9, 3: 1.4, 4: 0.51}), NewPersonality(50, 0.8), rand.NewPCG(5, 5))
	var sum float64
	for _, c := range res.Candidates {
		sum += c.Probability
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("candidate probabilities sum to %f", sum)
	}
	if len(res.Winners) > 2 {
		t.Fatalf("at most two winners allowed, got %d", len(res.Winners))
	}
}

func TestResolveSamplesNotArgmax(t *testing.T) {
	g := newGate()
	v := makeVector(50, map[int]float64{10: 0.6, 11: 0.7})
	p := NewPersonality(50, 1)
	wins := map[int]int{}
	for seed := uint64(0); seed < 400; seed++ {
		res := g.Resolve(v, p, rand.NewPCG(seed, 9))
		w, _ := res.Primary()
		wins[w.ID]++
	}
	if wins[10] == 0 || wins[11] == 0 {
		t.Fatalf("expected both impulses to win sometimes, got %v", wins)
	}
	if wins[11] <= wins[10] {
		t.Fatalf("stronger impulse should win more often, got %v", wins)
	}
}

func TestResolveCoWinner(t *testing.T) {
	cfg := config.Default().Gate
	cfg.CoActivationThreshold = 0.3
	g := NewGate(cfg)

	res := g.Resolve(makeVector(50, map[int]float64{3: 0.8, 4: 0.8}), NewPersonality(50, 0.5), rand.NewPCG(2, 2))
	if len(res.Winners) != 2 {
		t.Fatalf("expected co-winner for equal candidates, got %+v", res.Winners)
	}
	if res.Winners[0].ID == res.Winners[1].ID {
		t.Fatal("co-winner must differ from primary")
	}
	if _, ok := res.Secondary(); !ok {
		t.Fatal("Secondary should be reported")
	}

	cfg.CoActivationThreshold = 0.9
	res = NewGate(cfg).Resolve(makeVector(50, map[int]float64{3: 0.8, 4: 0.8}), NewPersonality(50, 0.5), rand.NewPCG(2, 2))
	if len(res.Winners) != 1 {
		t.Fatalf("expected no co-winner above threshold, got %d winners", len(res.Winners))
	}
}

func TestResolveDeterministicGivenSeed(t *testing.T) {
	g := newGate()
	v := makeVector(50, map[int]float64{1: 0.6, 8: 0.9, 30: 1.1, 44: 0.7})
	p := NewPersonality(50, 0.6)
	a := g.Resolve(v, p, rand.NewPCG(11, 4))
	b := g.Resolve(v, p, rand.NewPCG(11, 4))
	if len(a.Winners) != len(b.Winners) {
		t.Fatal("winner count differs for same seed")
	}
	for i := range a.Winners {
		if a.Winners[i] != b.Winners[i] {
			t.Fatalf("winner %d differs: %+v vs %+v", i, a.Winners[i], b.Winners[i])
		}
	}
}

func TestReinforceWeightClamp(t *testing.T) {
	g := newGate()
	p := NewPersonality(50, 0.5)
	r := rand.New(rand.NewPCG(9, 9))
	for i := 0; i < 2000; i++ {
		sig := Success
		if r.IntN(3) == 0 {
			sig = Rejection
		}
		var err error
		p, err = g.Reinforce(p, Feedback{ImpulseID: r.IntN(3), Signal: sig})
		if err != nil {
			t.Fatalf("Reinforce: %v", err)
		}
		for j, w := range p.Weights {
			if w < 0 || w > 1 {
				t.Fatalf("weight %d escaped [0,1]: %f", j, w)
			}
		}
	}
}

func TestReinforceStepAndCounters(t *testing.T) {
	g := newGate()
	p := NewPersonality(50, 0.5)

	up, err := g.Reinforce(p, Feedback{ImpulseID: 4, Signal: Success})
	if err != nil {
		t.Fatalf("Reinforce: %v", err)
	}
	if math.Abs(up.Weights[4]-0.55) > 1e-12 {
		t.Fatalf("expected 0.55, got %f", up.Weights[4])
	}
	if up.Counters[4].Positive != 1 {
		t.Fatalf("expected positive counter 1, got %d", up.Counters[4].Positive)
	}
	if p.Weights[4] != 0.5 {
		t.Fatal("input personality mutated")
	}

	down, _ := g.Reinforce(up, Feedback{ImpulseID: 4, Signal: Rejection})
	if math.Abs(down.Weights[4]-0.5) > 1e-12 || down.Counters[4].Negative != 1 {
		t.Fatalf("unexpected after rejection: w=%f c=%+v", down.Weights[4], down.Counters[4])
	}
}

func TestReinforceRejectsBadFeedback(t *testing.T) {
	g := newGate()
	p := NewPersonality(50, 0.5)
	if _, err := g.Reinforce(p, Feedback{ImpulseID: 50, Signal: Success}); err == nil {
		t.Fatal("expected error for unknown impulse")
	}
	if _, err := g.Reinforce(p, Feedback{ImpulseID: 1, Signal: 3}); err == nil {
		t.Fatal("expected error for invalid signal")
	}
}

func TestReinforceAll(t *testing.T) {
	g := newGate()
	p, err := g.ReinforceAll(NewPersonality(50, 0.5), []Feedback{
		{ImpulseID: 2, Signal: Success},
		{ImpulseID: 2, Signal: Success},
		{ImpulseID: 9, Signal: Rejection},
	})
	if err != nil {
		t.Fatalf("ReinforceAll: %v", err)
	}
	if math.Abs(p.Weights[2]-0.6) > 1e-12 || math.Abs(p.Weights[9]-0.45) > 1e-12 {
		t.Fatalf("unexpected weights %f %f", p.Weights[2], p.Weights[9])
	}
}

func TestDecayMoodBound(t *testing.T) {
	g := newGate()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, start := range []float64{1, -1, 0.42, -0.3, 0} {
		m := Mood{Value: start}
		for tick := 0; tick < 100; tick++ {
			next := g.DecayMood(m, now)
			if math.Abs(next.Value) > math.Abs(m.Value) {
				t.Fatalf("mood grew from %f to %f", m.Value, next.Value)
			}
			if !next.DecayedAt.Equal(now) {
				t.Fatal("DecayedAt not stamped")
			}
			m = next
		}
	}
	if got := g.DecayMood(Mood{Value: math.NaN()}, now).Value; got != 0 {
		t.Fatalf("NaN mood should collapse to 0, got %f", got)
	}
}
