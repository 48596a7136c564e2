// File: internal/animator/spinner.go
package animator

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/spindle/internal/wheel"
)

const (
	// DefaultSpinDuration matches the classic four second wheel spin.
	DefaultSpinDuration = 4 * time.Second
	// DefaultFrameInterval is roughly one display frame at 60Hz.
	DefaultFrameInterval = 16 * time.Millisecond
	// DefaultMinTurns and DefaultMaxTurns bound the visible full spins.
	DefaultMinTurns = 4.0
	DefaultMaxTurns = 6.0
)

// Config tunes a Spinner.
type Config struct {
	// Duration of one spin from start to landing.
	Duration time.Duration
	// MinTurns and MaxTurns bound the randomized number of visible revolutions, [Min, Max).
	MinTurns float64
	MaxTurns float64
	// Rng drives both the outcome draw and the turn count. Nil seeds from the clock.
	Rng *rand.Rand
}

// DefaultConfig returns the standard spin tuning.
func DefaultConfig() Config {
	return Config{
		Duration: DefaultSpinDuration,
		MinTurns: DefaultMinTurns,
		MaxTurns: DefaultMaxTurns,
	}
}

// Callbacks receive spin progress. Both are optional.
type Callbacks struct {
	// OnTick receives the wheel rotation (radians) after every advance.
	OnTick func(rotation float64)
	// OnComplete fires exactly once per spin with the winning option and the option list
	// as it was when the spin started.
	OnComplete func(chosen wheel.Option, snapshot []wheel.Option)
}

// Plan is the pre-computed course of one spin. The outcome is decided before the first
// frame; the animation only has to arrive there convincingly.
type Plan struct {
	Index          int
	Snapshot       []wheel.Option
	Intervals      []wheel.Interval
	Turns          float64
	StartRotation  float64
	TargetRotation float64
}

// State is a read-only view of a spin session.
type State struct {
	Active   bool
	Chosen   int // -1 until the first spin lands
	Rotation float64
}

// Spinner drives one wheel's spin session. Only one spin may be in flight at a time;
// separate Spinners share nothing and may animate side by side.
//
// There is no way to cancel a spin once started. A host that navigates away simply
// stops calling Advance; the spin stays active against the discarded view and any
// later Advance finishes it.
type Spinner struct {
	cfg    Config
	logger *zap.Logger

	mu         sync.Mutex
	rng        *rand.Rand
	rotation   float64
	active     bool
	completing bool
	chosen     int
	plan       Plan
	startedAt  time.Time
	callbacks  Callbacks
}

// NewSpinner creates an idle spinner.
func NewSpinner(cfg Config, logger *zap.Logger) *Spinner {
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultSpinDuration
	}
	if cfg.MinTurns <= 0 {
		cfg.MinTurns = DefaultMinTurns
	}
	if cfg.MaxTurns < cfg.MinTurns {
		cfg.MaxTurns = cfg.MinTurns
	}
	rng := cfg.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Spinner{
		cfg:    cfg,
		logger: logger,
		rng:    rng,
		chosen: -1,
	}
}

// Start begins a spin over opts at time now. The winning index is sampled up front and
// the target rotation computed from the same option snapshot's geometry.
//
// A Start while a spin is in flight is ignored and reports false. An empty option list
// returns wheel.ErrNoOptions.
func (s *Spinner) Start(opts []wheel.Option, cb Callbacks, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		s.logger.Debug("Spin request ignored; spinner busy.")
		return false, nil
	}
	if len(opts) == 0 {
		return false, wheel.ErrNoOptions
	}

	snapshot := wheel.Clone(opts)
	idx, err := wheel.Sample(snapshot, s.rng)
	if err != nil {
		return false, fmt.Errorf("sample outcome: %w", err)
	}
	intervals, err := wheel.Layout(snapshot)
	if err != nil {
		return false, fmt.Errorf("layout segments: %w", err)
	}

	turns := s.cfg.MinTurns + s.rng.Float64()*(s.cfg.MaxTurns-s.cfg.MinTurns)
	s.plan = Plan{
		Index:          idx,
		Snapshot:       snapshot,
		Intervals:      intervals,
		Turns:          turns,
		StartRotation:  s.rotation,
		TargetRotation: TargetRotation(s.rotation, turns, intervals, idx),
	}
	s.active = true
	s.completing = false
	s.startedAt = now
	s.callbacks = cb

	s.logger.Debug("Spin started.",
		zap.Int("index", idx),
		zap.String("key", snapshot[idx].Key),
		zap.Float64("turns", turns),
		zap.Float64("target", s.plan.TargetRotation),
	)
	return true, nil
}

// TargetRotation computes where a spin starting at start should stop: turns full
// revolutions, then corrected forward to the next rotation that brings interval idx's
// midpoint under the pointer. The result modulo one full turn depends only on idx.
func TargetRotation(start, turns float64, intervals []wheel.Interval, idx int) float64 {
	base := start + turns*wheel.FullTurn
	landing := wheel.LandingAngle(intervals, idx)
	return base + wheel.NormalizeAngle(landing-base)
}

// Advance moves the spin to time now along the eased curve. When the curve reaches its
// end the rotation snaps to the exact target, OnComplete runs once and the spinner
// becomes idle. Advancing an idle spinner is a no-op.
func (s *Spinner) Advance(now time.Time) {
	s.mu.Lock()
	if !s.active || s.completing {
		s.mu.Unlock()
		return
	}

	t := 1.0
	if s.cfg.Duration > 0 {
		t = clamp01(float64(now.Sub(s.startedAt)) / float64(s.cfg.Duration))
	}
	plan := s.plan
	s.rotation = plan.StartRotation + (plan.TargetRotation-plan.StartRotation)*EaseOutCubic(t)
	done := t >= 1
	if done {
		s.rotation = plan.TargetRotation
		s.completing = true
	}
	rotation := s.rotation
	cb := s.callbacks
	s.mu.Unlock()

	if cb.OnTick != nil {
		cb.OnTick(rotation)
	}
	if !done {
		return
	}

	s.logger.Debug("Spin landed.", zap.Int("index", plan.Index), zap.String("key", plan.Snapshot[plan.Index].Key))
	if cb.OnComplete != nil {
		cb.OnComplete(plan.Snapshot[plan.Index], wheel.Clone(plan.Snapshot))
	}

	s.mu.Lock()
	s.chosen = plan.Index
	s.active = false
	s.completing = false
	s.callbacks = Callbacks{}
	s.mu.Unlock()
}

// Run advances an in-flight spin once per frame until it lands. If ctx ends first the
// error is returned and the spin is left in flight.
func (s *Spinner) Run(ctx context.Context, sched FrameScheduler) error {
	for s.Busy() {
		now, err := sched.NextFrame(ctx)
		if err != nil {
			return err
		}
		s.Advance(now)
	}
	return nil
}

// Spin starts a spin at the scheduler's current time and runs it to completion.
// It reports false without running anything if the spinner was already busy.
func (s *Spinner) Spin(ctx context.Context, sched FrameScheduler, opts []wheel.Option, cb Callbacks) (bool, error) {
	started, err := s.Start(opts, cb, sched.Now())
	if err != nil || !started {
		return started, err
	}
	return true, s.Run(ctx, sched)
}

// Busy reports whether a spin is in flight.
func (s *Spinner) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// State returns the current spin session state.
func (s *Spinner) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Active: s.active, Chosen: s.chosen, Rotation: s.rotation}
}

// Plan returns the course of the current or most recent spin.
func (s *Spinner) Plan() Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.plan
	p.Snapshot = wheel.Clone(p.Snapshot)
	return p
}
