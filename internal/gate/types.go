package gate

import "time"

// #region personality
// Counter tracks how often an impulse was reinforced in each direction.
type Counter struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
}

// Personality holds the learned per-impulse expression weights, each in [0, 1].
type Personality struct {
	Weights  []float64
	Counters []Counter
}

// NewPersonality returns n impulses at the same starting weight.
func NewPersonality(n int, weight float64) Personality {
	p := Personality{
		Weights:  make([]float64, n),
		Counters: make([]Counter, n),
	}
	for i := range p.Weights {
		p.Weights[i] = weight
	}
	return p
}

// Clone returns a deep copy.
func (p Personality) Clone() Personality {
	return Personality{
		Weights:  append([]float64(nil), p.Weights...),
		Counters: append([]Counter(nil), p.Counters...),
	}
}

// #endregion personality

// #region mood
// Mood is the short-term affective bias, kept in [-1, 1].
type Mood struct {
	Value     float64
	DecayedAt time.Time
}

// #endregion mood

// #region feedback
// Signal values accepted by Reinforce.
const (
	Success   = 1
	Rejection = -1
)

// Feedback is an external judgement on an expressed impulse.
type Feedback struct {
	ImpulseID int
	Signal    int // Success or Rejection
}

// Valid reports whether fb names one of n impulses with a Success or Rejection signal.
func (fb Feedback) Valid(n int) bool {
	return fb.ImpulseID >= 0 && fb.ImpulseID < n && (fb.Signal == Success || fb.Signal == Rejection)
}

// #endregion feedback

// #region resolution
// Candidate is a fired impulse that survived personality weighting.
type Candidate struct {
	ID          int
	Magnitude   float64 // raw magnitude from the impulse layer
	Weighted    float64 // magnitude * personality weight
	Probability float64 // softmax share among candidates
}

// Resolution is the gate's verdict for one tick.
type Resolution struct {
	Idle       bool
	Candidates []Candidate // every eligible impulse, in id order
	Winners    []Candidate // zero to two, primary first
	Reason     string
}

// Primary returns the main winner, or false on an idle tick.
func (r Resolution) Primary() (Candidate, bool) {
	if len(r.Winners) == 0 {
		return Candidate{}, false
	}
	return r.Winners[0], true
}

// Secondary returns the co-winner if one was selected.
func (r Resolution) Secondary() (Candidate, bool) {
	if len(r.Winners) < 2 {
		return Candidate{}, false
	}
	return r.Winners[1], true
}

// #endregion resolution
