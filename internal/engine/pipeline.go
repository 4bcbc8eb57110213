package engine

import (
	"math/rand/v2"

	"github.com/danielpatrickdp/impulse-engine/internal/config"
	"github.com/danielpatrickdp/impulse-engine/internal/gate"
	"github.com/danielpatrickdp/impulse-engine/internal/impulse"
	"github.com/danielpatrickdp/impulse-engine/internal/output"
	"github.com/danielpatrickdp/impulse-engine/internal/sensor"
	"go.uber.org/zap"
)

// #region types
// State is everything one tick hands to the next.
type State struct {
	Tick        uint64
	Personality gate.Personality
	Membrane    []float64
	Mood        gate.Mood
}

// Input is the external stimulus for one tick. Feedback judges earlier output and
// is applied after this tick's gate resolution.
type Input struct {
	Snapshot sensor.Snapshot
	Feedback []gate.Feedback
}

// InitialState returns the resting state for cfg.
func InitialState(cfg config.Config) State {
	return State{
		Personality: gate.NewPersonality(cfg.Dimensions, cfg.Gate.DefaultWeight),
		Membrane:    make([]float64, cfg.Dimensions),
	}
}

// #endregion types

// #region pipeline
// Pipeline composes the four layers into a pure per-tick function. It holds no
// tick-to-tick state of its own.
type Pipeline struct {
	sensor     *sensor.Layer
	impulse    *impulse.Layer
	gate       *gate.Gate
	translator *output.Translator
	randomness func(tick uint64) rand.Source
	noise      func(src rand.Source) impulse.NoiseChannel
	logger     *zap.Logger
}

// NewPipeline builds the layers for cfg. cfg must already be validated.
func NewPipeline(cfg config.Config, logger *zap.Logger, opts ...Option) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := resolveOptions(cfg, opts)

	syn := o.synapses
	if syn == nil {
		var err error
		if syn, err = impulse.SynapsesFor(cfg); err != nil {
			return nil, err
		}
	}
	il, err := impulse.NewLayer(cfg, syn, logger)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		sensor:     sensor.NewLayer(cfg, logger),
		impulse:    il,
		gate:       gate.NewGate(cfg.Gate),
		translator: output.NewTranslator(cfg),
		randomness: o.randomness,
		noise:      o.noise,
		logger:     logger.Named("engine"),
	}, nil
}

// Run executes one tick: sense under the prior mood, integrate, resolve, apply
// feedback, decay mood, translate. The same prev, in and randomness give the
// same result.
func (p *Pipeline) Run(prev State, in Input) (State, output.DecisionRecord) {
	next, rec, _ := p.run(prev, in)
	return next, rec
}

func (p *Pipeline) run(prev State, in Input) (State, output.DecisionRecord, gate.Resolution) {
	tick := prev.Tick + 1
	now := in.Snapshot.Timestamp
	src := p.randomness(tick)

	sv := p.sensor.Sense(in.Snapshot, prev.Mood.Value)
	acts, membrane := p.impulse.Step(sv, p.noise(src), prev.Mood.Value, prev.Membrane)
	res := p.gate.Resolve(acts, prev.Personality, src)

	personality := prev.Personality.Clone()
	for _, fb := range in.Feedback {
		updated, err := p.gate.Reinforce(personality, fb)
		if err != nil {
			p.logger.Warn("feedback ignored", zap.Int("impulse", fb.ImpulseID), zap.Int("signal", fb.Signal), zap.Error(err))
			continue
		}
		personality = updated
	}

	mood := p.gate.DecayMood(prev.Mood, now)
	rec, mood := p.translator.Translate(tick, res, mood, now)

	p.logger.Debug("tick",
		zap.Uint64("tick", tick),
		zap.Int("fired", len(acts.Fired())),
		zap.Ints("winners", rec.ImpulseIDs),
		zap.Int("level", rec.IntensityLevel),
		zap.Float64("mood", mood.Value),
	)
	return State{Tick: tick, Personality: personality, Membrane: membrane, Mood: mood}, rec, res
}

// #endregion pipeline
