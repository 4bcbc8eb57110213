package sensor

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/danielpatrickdp/impulse-engine/internal/config"
)

// #region snapshot-file
type snapshotFile struct {
	Timestamp time.Time                `json:"timestamp"`
	Nodes     map[string]nodeStateFile `json:"nodes"`
}

type nodeStateFile struct {
	Value           float64   `json:"value"`
	LastTransition  time.Time `json:"last_transition"`
	ExposureSeconds float64   `json:"exposure_seconds,omitempty"`
}

// #endregion snapshot-file

// #region load-snapshot
// LoadSnapshot reads the JSON snapshot written by the toggle source. A missing
// or unparseable file, or one without a timestamp, wraps config.ErrConfig.
func LoadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: read snapshot %s: %v", config.ErrConfig, path, err)
	}
	return ParseSnapshot(data)
}

// ParseSnapshot decodes snapshot JSON.
func ParseSnapshot(data []byte) (Snapshot, error) {
	var f snapshotFile
	if err := json.Unmarshal(data, &f); err != nil {
		return Snapshot{}, fmt.Errorf("%w: parse snapshot: %v", config.ErrConfig, err)
	}
	if f.Timestamp.IsZero() {
		return Snapshot{}, fmt.Errorf("%w: snapshot has no timestamp", config.ErrConfig)
	}
	snap := Snapshot{
		Timestamp: f.Timestamp.UTC(),
		Nodes:     make(map[string]NodeState, len(f.Nodes)),
	}
	for name, n := range f.Nodes {
		snap.Nodes[name] = NodeState{
			Value:          n.Value,
			LastTransition: n.LastTransition.UTC(),
			Exposure:       time.Duration(n.ExposureSeconds * float64(time.Second)),
		}
	}
	return snap, nil
}

// MarshalSnapshot encodes a snapshot in the same format LoadSnapshot reads.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	f := snapshotFile{
		Timestamp: s.Timestamp,
		Nodes:     make(map[string]nodeStateFile, len(s.Nodes)),
	}
	for name, n := range s.Nodes {
		f.Nodes[name] = nodeStateFile{
			Value:           n.Value,
			LastTransition:  n.LastTransition,
			ExposureSeconds: n.Exposure.Seconds(),
		}
	}
	return json.MarshalIndent(f, "", "  ")
}

// #endregion load-snapshot

// #region neutral
// NeutralSnapshot returns a snapshot where every node is present at rest: plain and
// habituating nodes at zero, need nodes satisfied at the reference time.
func NeutralSnapshot(nodes []config.NodeSpec, now time.Time) Snapshot {
	snap := Snapshot{Timestamp: now, Nodes: make(map[string]NodeState, len(nodes))}
	for _, n := range nodes {
		snap.Nodes[n.Name] = NodeState{LastTransition: now}
	}
	return snap
}

// #endregion neutral
