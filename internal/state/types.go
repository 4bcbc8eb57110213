package state

import (
	"errors"
	"time"

	"github.com/danielpatrickdp/impulse-engine/internal/gate"
)

// #region errors
var (
	// ErrNoState means the store has no active version yet.
	ErrNoState = errors.New("no active state")
	// ErrCorrupt means a persisted version failed to decode or validate.
	ErrCorrupt = errors.New("corrupt state")
)

// #endregion errors

// #region state-record
// StateRecord is one committed version of everything that carries over between
// ticks: the personality, the membrane potentials and the mood.
type StateRecord struct {
	VersionID     string
	ParentID      string
	Tick          uint64
	Weights       []float64
	Counters      []gate.Counter
	Membrane      []float64
	Mood          float64
	MoodDecayedAt time.Time
	CreatedAt     time.Time
}

// Personality returns the gate view of the record.
func (r StateRecord) Personality() gate.Personality {
	return gate.Personality{
		Weights:  append([]float64(nil), r.Weights...),
		Counters: append([]gate.Counter(nil), r.Counters...),
	}
}

// MoodState returns the mood with its last decay time.
func (r StateRecord) MoodState() gate.Mood {
	return gate.Mood{Value: r.Mood, DecayedAt: r.MoodDecayedAt}
}

// Initial returns an unsaved first version for n impulses: every weight at
// weight, membranes at rest, neutral mood.
func Initial(n int, weight float64) StateRecord {
	p := gate.NewPersonality(n, weight)
	return StateRecord{
		Weights:  p.Weights,
		Counters: p.Counters,
		Membrane: make([]float64, n),
	}
}

// #endregion state-record
