package sensor

import "time"

// #region node-state
// NodeState is the raw state of one sensor node as written by the external toggle source.
type NodeState struct {
	Value          float64
	LastTransition time.Time     // last on/off change, or last satisfying interaction for need nodes
	Exposure       time.Duration // cumulative exposure; zero means derive from LastTransition
}

// #endregion node-state

// #region snapshot
// Snapshot is the read-only input of one tick: node states keyed by node name plus
// the reference timestamp every elapsed-time computation is measured against.
type Snapshot struct {
	Timestamp time.Time
	Nodes     map[string]NodeState
}

// #endregion snapshot

// #region vector
// Vector is the per-tick sensory signal, one value per node, always within [0, 1].
type Vector []float64

// #endregion vector
