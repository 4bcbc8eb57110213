package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrConfig marks configuration problems that must stop the engine at load time.
var ErrConfig = errors.New("configuration error")

// #region defaults
// Default returns the built-in configuration with the 50-node catalog.
func Default() Config {
	return Config{
		Dimensions: 50,
		Noise: NoiseConfig{
			PoolSize:  3000,
			Amplitude: 0.05,
		},
		Sensor: SensorConfig{
			NeutralValue:      0,
			MoodInjectionGain: 0.3,
		},
		Impulse: ImpulseConfig{
			Leak:              0.2,
			DefaultThreshold:  0.5,
			MinThreshold:      0.05,
			MoodThresholdGain: 0.15,
			ResetPotential:    0,
			SynapseGain:       1.0,
		},
		Gate: GateConfig{
			Temperature:           0.5,
			CoActivationThreshold: 0.3,
			RLStep:                0.05,
			MoodDecayRate:         0.9,
			DefaultWeight:         0.5,
		},
		Output: OutputConfig{
			Breakpoints:       []float64{0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 0.65, 0.8, 1.0},
			MoodStep:          0.1,
			MoodIntensityGain: 0.2,
			SecondaryBlend:    0.5,
			Templates: []string{
				"a barely noticeable flicker of {impulse}",
				"a faint pull toward {impulse}",
				"a mild inclination to {impulse}",
				"a noticeable urge to {impulse}",
				"a steady want to {impulse}",
				"a clear drive to {impulse}",
				"a strong urge to {impulse}",
				"a pressing need to {impulse}",
				"an overwhelming urge to {impulse}",
				"an irresistible compulsion to {impulse}",
			},
			IdleTemplate: "calm, no particular impulse",
		},
		Nodes: DefaultCatalog(),
	}
}

// #endregion defaults

// #region load
// Load reads a YAML file over the defaults. A file that sets nodes must list all of them.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: read %s: %v", ErrConfig, path, err)
	}
	if err := DecodeStrict(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse %s: %v", ErrConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DecodeStrict decodes one YAML document into out and rejects keys that out has
// no field for. An empty document leaves out untouched.
func DecodeStrict(data []byte, out interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	var extra interface{}
	if err := dec.Decode(&extra); err == nil {
		return fmt.Errorf("multiple YAML documents are not supported")
	} else if !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Save writes the config as YAML.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// #endregion load

// #region validate
// Validate checks every parameter and returns an error wrapping ErrConfig.
func (c Config) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
	}

	if c.Dimensions <= 0 {
		return fail("dimensions must be positive, got %d", c.Dimensions)
	}
	if len(c.Nodes) != c.Dimensions {
		return fail("expected %d nodes, got %d", c.Dimensions, len(c.Nodes))
	}
	if c.Noise.PoolSize < c.Dimensions {
		return fail("noise.pool_size %d smaller than dimensions %d", c.Noise.PoolSize, c.Dimensions)
	}
	if !finite(c.Noise.Amplitude) || c.Noise.Amplitude < 0 {
		return fail("noise.amplitude must be >= 0, got %v", c.Noise.Amplitude)
	}
	if !finite(c.Sensor.NeutralValue) || c.Sensor.NeutralValue < 0 || c.Sensor.NeutralValue > 1 {
		return fail("sensor.neutral_value must be in [0, 1], got %v", c.Sensor.NeutralValue)
	}
	if !finite(c.Sensor.MoodInjectionGain) || c.Sensor.MoodInjectionGain < 0 || c.Sensor.MoodInjectionGain > 1 {
		return fail("sensor.mood_injection_gain must be in [0, 1], got %v", c.Sensor.MoodInjectionGain)
	}

	imp := c.Impulse
	if !(imp.Leak > 0 && imp.Leak < 1) {
		return fail("impulse.leak must be in (0, 1), got %v", imp.Leak)
	}
	if !finite(imp.MinThreshold) || imp.MinThreshold <= 0 {
		return fail("impulse.min_threshold must be > 0, got %v", imp.MinThreshold)
	}
	if !finite(imp.DefaultThreshold) || imp.DefaultThreshold < imp.MinThreshold {
		return fail("impulse.default_threshold %v below min_threshold %v", imp.DefaultThreshold, imp.MinThreshold)
	}
	if !finite(imp.MoodThresholdGain) || imp.MoodThresholdGain < 0 {
		return fail("impulse.mood_threshold_gain must be >= 0, got %v", imp.MoodThresholdGain)
	}
	if !finite(imp.ResetPotential) || imp.ResetPotential < 0 || imp.ResetPotential >= imp.MinThreshold {
		return fail("impulse.reset_potential must be in [0, min_threshold), got %v", imp.ResetPotential)
	}
	if !finite(imp.SynapseGain) {
		return fail("impulse.synapse_gain must be finite")
	}

	g := c.Gate
	if !finite(g.Temperature) || g.Temperature <= 0 {
		return fail("gate.temperature must be > 0, got %v", g.Temperature)
	}
	if !finite(g.CoActivationThreshold) || g.CoActivationThreshold < 0 || g.CoActivationThreshold > 1 {
		return fail("gate.co_activation_threshold must be in [0, 1], got %v", g.CoActivationThreshold)
	}
	if !(g.RLStep > 0 && g.RLStep <= 1) {
		return fail("gate.rl_step must be in (0, 1], got %v", g.RLStep)
	}
	if !(g.MoodDecayRate > 0 && g.MoodDecayRate < 1) {
		return fail("gate.mood_decay_rate must be in (0, 1), got %v", g.MoodDecayRate)
	}
	if !finite(g.DefaultWeight) || g.DefaultWeight < 0 || g.DefaultWeight > 1 {
		return fail("gate.default_weight must be in [0, 1], got %v", g.DefaultWeight)
	}

	o := c.Output
	if len(o.Breakpoints) != 9 {
		return fail("output.breakpoints needs 9 values, got %d", len(o.Breakpoints))
	}
	for i, b := range o.Breakpoints {
		if !finite(b) || (i > 0 && b <= o.Breakpoints[i-1]) {
			return fail("output.breakpoints must be finite and strictly ascending at index %d", i)
		}
	}
	if len(o.Templates) != 10 {
		return fail("output.templates needs 10 entries, got %d", len(o.Templates))
	}
	if !finite(o.MoodStep) || o.MoodStep < 0 || o.MoodStep > 1 {
		return fail("output.mood_step must be in [0, 1], got %v", o.MoodStep)
	}
	if !finite(o.MoodIntensityGain) || o.MoodIntensityGain < 0 {
		return fail("output.mood_intensity_gain must be >= 0, got %v", o.MoodIntensityGain)
	}
	if !finite(o.SecondaryBlend) || o.SecondaryBlend < 0 || o.SecondaryBlend > 1 {
		return fail("output.secondary_blend must be in [0, 1], got %v", o.SecondaryBlend)
	}

	seen := make(map[string]int, len(c.Nodes))
	for i, n := range c.Nodes {
		if n.Name == "" || n.Impulse == "" {
			return fail("node %d needs name and impulse", i)
		}
		if j, dup := seen[n.Name]; dup {
			return fail("node %q listed at %d and %d", n.Name, j, i)
		}
		seen[n.Name] = i
		if !finite(n.Polarity) || n.Polarity < -1 || n.Polarity > 1 {
			return fail("node %q polarity must be in [-1, 1], got %v", n.Name, n.Polarity)
		}
		if !finite(n.Threshold) || n.Threshold < 0 {
			return fail("node %q threshold must be >= 0, got %v", n.Name, n.Threshold)
		}
		switch n.Kind {
		case KindPlain:
		case KindNeed:
			if n.HalfSaturation <= 0 {
				return fail("need node %q requires half_saturation", n.Name)
			}
		case KindHabituating:
			if n.HalfLife <= 0 {
				return fail("habituating node %q requires half_life", n.Name)
			}
		default:
			return fail("node %q has unknown kind %q", n.Name, n.Kind)
		}
	}
	return nil
}

// #endregion validate

// #region accessors
// ThresholdFor returns the base firing threshold of impulse i.
func (c Config) ThresholdFor(i int) float64 {
	if t := c.Nodes[i].Threshold; t > 0 {
		return math.Max(t, c.Impulse.MinThreshold)
	}
	return c.Impulse.DefaultThreshold
}

// ImpulseNames returns impulse names in index order.
func (c Config) ImpulseNames() []string {
	names := make([]string, len(c.Nodes))
	for i, n := range c.Nodes {
		names[i] = n.Impulse
	}
	return names
}

// Polarities returns impulse polarities in index order.
func (c Config) Polarities() []float64 {
	p := make([]float64, len(c.Nodes))
	for i, n := range c.Nodes {
		p[i] = n.Polarity
	}
	return p
}

// #endregion accessors

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
