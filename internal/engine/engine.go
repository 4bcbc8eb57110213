package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/danielpatrickdp/impulse-engine/internal/config"
	"github.com/danielpatrickdp/impulse-engine/internal/gate"
	"github.com/danielpatrickdp/impulse-engine/internal/logging"
	"github.com/danielpatrickdp/impulse-engine/internal/output"
	"github.com/danielpatrickdp/impulse-engine/internal/state"
	"go.uber.org/zap"
)

// ErrNotPersisted means the tick produced a record but its state changes were
// not committed. The record is still valid output.
var ErrNotPersisted = errors.New("state not persisted")

// #region engine
// Engine runs ticks against persisted state. Ticks never overlap: the mutex covers
// one process and the immediate transaction covers the database file.
type Engine struct {
	mu       sync.Mutex
	cfg      config.Config
	store    *state.Store
	pipeline *Pipeline
	logger   *zap.Logger
}

// New creates an engine over store. cfg is validated here.
func New(cfg config.Config, store *state.Store, logger *zap.Logger, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p, err := NewPipeline(cfg, logger, opts...)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:      cfg,
		store:    store,
		pipeline: p,
		logger:   logger.Named("engine"),
	}, nil
}

// #endregion engine

// #region tick
// Tick loads the active version, runs one pass of the pipeline and commits the
// successor version together with its decision row. A corrupt active version
// fails with state.ErrCorrupt until Reset. When the tick ran but the commit did
// not, the record is returned with an error wrapping ErrNotPersisted.
func (e *Engine) Tick(in Input) (output.DecisionRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx, err := e.store.Begin()
	if err != nil {
		return output.DecisionRecord{}, fmt.Errorf("begin tick: %w", err)
	}
	defer tx.Rollback()

	cur, err := e.load(tx)
	if err != nil {
		return output.DecisionRecord{}, err
	}

	next, rec, res := e.pipeline.run(fromRecord(cur), in)

	if err := e.persist(tx, cur, next, rec, res, in.Feedback); err != nil {
		e.logger.Error("tick not persisted", zap.Uint64("tick", rec.Tick), zap.Error(err))
		return rec, fmt.Errorf("%w: %w", ErrNotPersisted, err)
	}
	return rec, nil
}

func (e *Engine) load(tx *state.Tx) (state.StateRecord, error) {
	cur, err := tx.Current()
	if errors.Is(err, state.ErrNoState) {
		e.logger.Info("no persisted state, starting from rest")
		return state.Initial(e.cfg.Dimensions, e.cfg.Gate.DefaultWeight), nil
	}
	if err != nil {
		return state.StateRecord{}, fmt.Errorf("load state: %w", err)
	}
	if err := state.Validate(cur, e.cfg.Dimensions); err != nil {
		return state.StateRecord{}, fmt.Errorf("load state %s: %w", cur.VersionID, err)
	}
	return cur, nil
}

func (e *Engine) persist(tx *state.Tx, cur state.StateRecord, next State, rec output.DecisionRecord, res gate.Resolution, fbs []gate.Feedback) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	stored, err := tx.Put(toRecord(next, cur.VersionID))
	if err != nil {
		return err
	}
	err = logging.LogDecision(tx, logging.DecisionEntry{
		VersionID:      stored.VersionID,
		Tick:           rec.Tick,
		Idle:           rec.Idle,
		ImpulseIDs:     rec.ImpulseIDs,
		IntensityLevel: rec.IntensityLevel,
		Mood:           rec.MoodSnapshot,
		Reason:         res.Reason,
		RecordJSON:     string(data),
	})
	if err != nil {
		return err
	}
	for _, fb := range fbs {
		if !fb.Valid(len(next.Personality.Weights)) {
			continue
		}
		err := logging.LogFeedback(tx, logging.FeedbackEntry{
			VersionID: stored.VersionID,
			ImpulseID: fb.ImpulseID,
			Signal:    fb.Signal,
			Source:    "tick",
		})
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// #endregion tick

// #region feedback
// Feedback applies reinforcement outside a tick and commits it as a new version.
func (e *Engine) Feedback(fb gate.Feedback) (state.StateRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx, err := e.store.Begin()
	if err != nil {
		return state.StateRecord{}, fmt.Errorf("begin feedback: %w", err)
	}
	defer tx.Rollback()

	cur, err := e.load(tx)
	if err != nil {
		return state.StateRecord{}, err
	}
	p, err := e.pipeline.gate.Reinforce(cur.Personality(), fb)
	if err != nil {
		return state.StateRecord{}, fmt.Errorf("feedback: %w", err)
	}

	next := cur
	next.VersionID = ""
	next.ParentID = cur.VersionID
	next.Weights = p.Weights
	next.Counters = p.Counters
	next.CreatedAt = time.Time{}

	stored, err := tx.Put(next)
	if err != nil {
		return state.StateRecord{}, fmt.Errorf("%w: %w", ErrNotPersisted, err)
	}
	err = logging.LogFeedback(tx, logging.FeedbackEntry{
		VersionID: stored.VersionID,
		ImpulseID: fb.ImpulseID,
		Signal:    fb.Signal,
		Source:    "cli",
	})
	if err != nil {
		return state.StateRecord{}, fmt.Errorf("%w: %w", ErrNotPersisted, err)
	}
	if err := tx.Commit(); err != nil {
		return state.StateRecord{}, fmt.Errorf("%w: %w", ErrNotPersisted, err)
	}
	e.logger.Info("feedback applied",
		zap.Int("impulse", fb.ImpulseID),
		zap.Int("signal", fb.Signal),
		zap.Float64("weight", stored.Weights[fb.ImpulseID]),
	)
	return stored, nil
}

// #endregion feedback

// #region reset
// Reset writes a fresh resting version and makes it active. Earlier versions stay
// available for rollback.
func (e *Engine) Reset() (state.StateRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.store.CreateInitialState(state.Initial(e.cfg.Dimensions, e.cfg.Gate.DefaultWeight))
	if err != nil {
		return state.StateRecord{}, fmt.Errorf("reset: %w", err)
	}
	e.logger.Info("state reset", zap.String("version", rec.VersionID))
	return rec, nil
}

// #endregion reset

// #region conversion
func fromRecord(r state.StateRecord) State {
	return State{
		Tick:        r.Tick,
		Personality: r.Personality(),
		Membrane:    append([]float64(nil), r.Membrane...),
		Mood:        r.MoodState(),
	}
}

func toRecord(s State, parent string) state.StateRecord {
	return state.StateRecord{
		ParentID:      parent,
		Tick:          s.Tick,
		Weights:       s.Personality.Weights,
		Counters:      s.Personality.Counters,
		Membrane:      s.Membrane,
		Mood:          s.Mood.Value,
		MoodDecayedAt: s.Mood.DecayedAt,
	}
}

// #endregion conversion
