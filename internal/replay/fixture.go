package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/impulse-engine/internal/gate"
	"github.com/danielpatrickdp/impulse-engine/internal/sensor"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string        `json:"description"`
	Seed        uint64        `json:"seed"`
	NoiseOff    bool          `json:"noise_off"`
	Ticks       []FixtureTick `json:"ticks"`
}

// FixtureTick is one recorded tick: the snapshot as the toggle source wrote it,
// any feedback delivered with it, and what the engine is expected to express.
type FixtureTick struct {
	Label    string            `json:"label"`
	Snapshot json.RawMessage   `json:"snapshot"`
	Feedback []FixtureFeedback `json:"feedback"`
	Expect   FixtureExpect     `json:"expect"`
}

// FixtureFeedback mirrors gate.Feedback with JSON tags.
type FixtureFeedback struct {
	ImpulseID int `json:"impulse_id"`
	Signal    int `json:"signal"`
}

// FixtureExpect lists the checks for one tick. Unset fields are not checked.
type FixtureExpect struct {
	Idle     *bool    `json:"idle,omitempty"`
	Impulses []string `json:"impulses,omitempty"`
	MinLevel *int     `json:"min_level,omitempty"`
	MaxLevel *int     `json:"max_level,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToStep converts a FixtureTick to a replay step.
func (ft *FixtureTick) ToStep() (Step, error) {
	snap, err := sensor.ParseSnapshot(ft.Snapshot)
	if err != nil {
		return Step{}, fmt.Errorf("tick %q: %w", ft.Label, err)
	}
	fbs := make([]gate.Feedback, len(ft.Feedback))
	for i, fb := range ft.Feedback {
		fbs[i] = gate.Feedback{ImpulseID: fb.ImpulseID, Signal: fb.Signal}
	}
	return Step{Label: ft.Label, Snapshot: snap, Feedback: fbs, Expect: ft.Expect}, nil
}

// Steps converts every tick in the fixture.
func (f *Fixture) Steps() ([]Step, error) {
	steps := make([]Step, len(f.Ticks))
	for i := range f.Ticks {
		s, err := f.Ticks[i].ToStep()
		if err != nil {
			return nil, err
		}
		steps[i] = s
	}
	return steps, nil
}

// #endregion fixture-loader
