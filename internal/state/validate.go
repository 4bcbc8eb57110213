package state

import (
	"fmt"
	"math"
)

// #region validate
// Validate checks a record against the catalog size and the value bounds every
// layer relies on. Failures wrap ErrCorrupt.
func Validate(rec StateRecord, n int) error {
	if len(rec.Weights) != n {
		return fmt.Errorf("%w: %d weights, want %d", ErrCorrupt, len(rec.Weights), n)
	}
	if len(rec.Membrane) != n {
		return fmt.Errorf("%w: %d membrane potentials, want %d", ErrCorrupt, len(rec.Membrane), n)
	}
	if len(rec.Counters) != n {
		return fmt.Errorf("%w: %d counters, want %d", ErrCorrupt, len(rec.Counters), n)
	}
	for i, w := range rec.Weights {
		if math.IsNaN(w) || w < 0 || w > 1 {
			return fmt.Errorf("%w: weight %d is %v", ErrCorrupt, i, w)
		}
	}
	for i, m := range rec.Membrane {
		if math.IsNaN(m) || math.IsInf(m, 0) {
			return fmt.Errorf("%w: membrane %d is %v", ErrCorrupt, i, m)
		}
	}
	for i, c := range rec.Counters {
		if c.Positive < 0 || c.Negative < 0 {
			return fmt.Errorf("%w: counter %d is negative", ErrCorrupt, i)
		}
	}
	if math.IsNaN(rec.Mood) || rec.Mood < -1 || rec.Mood > 1 {
		return fmt.Errorf("%w: mood is %v", ErrCorrupt, rec.Mood)
	}
	return nil
}

// #endregion validate
