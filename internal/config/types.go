package config

import "time"

// #region node-kind
// NodeKind selects how the sensor layer derives a node's signal.
type NodeKind string

const (
	KindPlain       NodeKind = "plain"       // raw value passed through
	KindNeed        NodeKind = "need"        // pressure grows with time since last interaction
	KindHabituating NodeKind = "habituating" // salience halves every half-life of exposure
)

// Node groups. Only GroupSocial receives mood injection.
const (
	GroupEnvironment = "environment"
	GroupBody        = "body"
	GroupSocial      = "social"
	GroupTask        = "task"
	GroupTemporal    = "temporal"
)

// #endregion node-kind

// #region node-spec
// NodeSpec describes one sensor node and the impulse it primarily drives.
// Sensor i and impulse i share an index.
type NodeSpec struct {
	Name           string        `yaml:"name"`
	Impulse        string        `yaml:"impulse"`
	Kind           NodeKind      `yaml:"kind"`
	Group          string        `yaml:"group"`
	Polarity       float64       `yaml:"polarity"`        // emotional direction of the impulse, [-1, 1]
	Threshold      float64       `yaml:"threshold"`       // 0 means impulse.default_threshold
	HalfLife       time.Duration `yaml:"half_life"`       // habituating nodes only
	HalfSaturation time.Duration `yaml:"half_saturation"` // need nodes only
}

// #endregion node-spec

// #region sections
// NoiseConfig controls the stochastic ignition pool.
type NoiseConfig struct {
	PoolSize  int     `yaml:"pool_size"` // M, must be >= dimensions
	Amplitude float64 `yaml:"amplitude"` // 0 disables noise
	Seed      uint64  `yaml:"seed"`      // 0 means seed from the clock at startup
}

// SensorConfig controls the sensor layer.
type SensorConfig struct {
	NeutralValue      float64 `yaml:"neutral_value"`       // substituted for missing nodes
	MoodInjectionGain float64 `yaml:"mood_injection_gain"` // social nodes scale by (1 + gain*mood)
}

// ImpulseConfig controls the leaky integrate-and-fire layer.
type ImpulseConfig struct {
	Leak              float64 `yaml:"leak"`                // fraction of potential lost per tick, (0, 1)
	DefaultThreshold  float64 `yaml:"default_threshold"`   // firing threshold when a node sets none
	MinThreshold      float64 `yaml:"min_threshold"`       // floor after mood modulation, > 0
	MoodThresholdGain float64 `yaml:"mood_threshold_gain"` // threshold shift per unit mood*polarity
	ResetPotential    float64 `yaml:"reset_potential"`     // potential after firing
	SynapsePath       string  `yaml:"synapse_path"`        // optional N x N matrix file
	SynapseGain       float64 `yaml:"synapse_gain"`        // identity gain when no matrix file is given
}

// GateConfig controls the personality gate.
type GateConfig struct {
	Temperature           float64 `yaml:"temperature"`             // softmax temperature, > 0
	CoActivationThreshold float64 `yaml:"co_activation_threshold"` // min probability for a co-winner
	RLStep                float64 `yaml:"rl_step"`                 // weight step per feedback signal
	MoodDecayRate         float64 `yaml:"mood_decay_rate"`         // mood multiplier per tick, (0, 1)
	DefaultWeight         float64 `yaml:"default_weight"`          // initial personality weight
}

// OutputConfig controls the output translator.
type OutputConfig struct {
	Breakpoints       []float64 `yaml:"breakpoints"`         // 9 ascending values splitting 10 levels
	MoodStep          float64   `yaml:"mood_step"`           // mood nudge toward the winner's polarity
	MoodIntensityGain float64   `yaml:"mood_intensity_gain"` // |mood| contribution to intensity
	SecondaryBlend    float64   `yaml:"secondary_blend"`     // co-winner share of magnitude and mood nudge
	Templates         []string  `yaml:"templates"`           // one per level, "{impulse}" is replaced
	IdleTemplate      string    `yaml:"idle_template"`
}

// #endregion sections

// #region config
// Config is the full engine configuration. It is loaded once and treated as
// immutable; each layer receives the section it needs by value.
type Config struct {
	Dimensions int           `yaml:"dimensions"`
	Noise      NoiseConfig   `yaml:"noise"`
	Sensor     SensorConfig  `yaml:"sensor"`
	Impulse    ImpulseConfig `yaml:"impulse"`
	Gate       GateConfig    `yaml:"gate"`
	Output     OutputConfig  `yaml:"output"`
	Nodes      []NodeSpec    `yaml:"nodes"`
}

// #endregion config
