// File: internal/session/player.go
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/spindle/internal/animator"
	"github.com/xkilldash9x/spindle/internal/flow"
	"github.com/xkilldash9x/spindle/internal/selection"
	"github.com/xkilldash9x/spindle/internal/wheel"
)

// ErrRunaway is returned when a walk exceeds its step limit.
var ErrRunaway = errors.New("session: walk exceeded the step limit")

// DefaultMaxSteps bounds one automatic walk.
const DefaultMaxSteps = 64

// playerEpoch anchors the virtual clocks so replays are bit-for-bit identical.
var playerEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// PlayerOptions tunes an automatic walk.
type PlayerOptions struct {
	Seed          int64
	Animation     animator.Config
	FrameInterval time.Duration
	ReelInterval  time.Duration
	MaxSteps      int

	// RealTime paces every frame against the wall clock instead of the virtual one.
	// Outcomes do not depend on it: a seed walks the same way either way.
	RealTime bool

	// OnStep, when set, is called for every non-terminal step entered.
	OnStep func(step flow.Step)
}

// Player walks the decision graph without a user: choices are uniform, the picker
// toggles a random legal selection, and every wheel and reel runs through the real
// animation code on a virtual clock. Two players with the same seed produce the same
// summary.
type Player struct {
	content Content
	graph   *flow.Graph
	opts    PlayerOptions
	logger  *zap.Logger

	rng     *rand.Rand
	ctrl    *flow.Controller
	summary *flow.Summary
}

// NewPlayer validates content and prepares a player.
func NewPlayer(content Content, opts PlayerOptions, logger *zap.Logger) (*Player, error) {
	g, err := NewGraph(content)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = animator.DefaultFrameInterval
	}
	if opts.ReelInterval <= 0 {
		opts.ReelInterval = animator.DefaultReelInterval
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	p := &Player{
		content: content,
		graph:   g,
		opts:    opts,
		logger:  logger.Named("player"),
		rng:     rand.New(rand.NewSource(opts.Seed)),
	}
	p.ctrl = flow.NewController(g, p, logger)
	return p, nil
}

// StepEntered implements flow.Renderer.
func (p *Player) StepEntered(step flow.Step, _ *flow.State) {
	p.logger.Debug("Step presented.", zap.String("step", step.ID), zap.String("title", step.Title))
	if p.opts.OnStep != nil {
		p.opts.OnStep(step)
	}
}

// Summary implements flow.Renderer.
func (p *Player) Summary(sum flow.Summary) {
	p.summary = &sum
}

// scheduler returns the frame clock for one animation.
func (p *Player) scheduler(interval time.Duration) animator.FrameScheduler {
	if p.opts.RealTime {
		return animator.NewRateScheduler(interval)
	}
	return animator.NewSteppedScheduler(playerEpoch, interval)
}

// Controller exposes the underlying controller, e.g. to inspect state mid-walk.
func (p *Player) Controller() *flow.Controller { return p.ctrl }

// Play restarts the session and walks it to the summary.
func (p *Player) Play(ctx context.Context) (flow.Summary, error) {
	p.summary = nil
	if err := p.ctrl.Restart(); err != nil {
		return flow.Summary{}, err
	}
	for steps := 0; p.summary == nil; steps++ {
		if steps >= p.opts.MaxSteps {
			return flow.Summary{}, fmt.Errorf("%w (%d)", ErrRunaway, p.opts.MaxSteps)
		}
		if err := p.playStep(ctx); err != nil {
			return flow.Summary{}, err
		}
	}
	return *p.summary, nil
}

// playStep runs every component of the current step side by side, then reports the
// results in declaration order so the outcome does not depend on goroutine timing.
func (p *Player) playStep(ctx context.Context) error {
	step, ok := p.ctrl.Current()
	if !ok {
		return fmt.Errorf("%w: no current step", flow.ErrUnknownStep)
	}
	st := p.ctrl.State()

	// Each component gets its own generator drawn up front from the session rng.
	seeds := make([]int64, len(step.Activates))
	for i := range seeds {
		seeds[i] = p.rng.Int63()
	}

	runs := make([]*componentRun, len(step.Activates))
	g, gctx := errgroup.WithContext(ctx)
	for i, comp := range step.Activates {
		i, comp := i, comp
		run := &componentRun{rng: rand.New(rand.NewSource(seeds[i]))}
		runs[i] = run
		g.Go(func() error {
			res, err := p.run(gctx, comp, st, run)
			if err != nil {
				return fmt.Errorf("%s/%s: %w", step.ID, comp.Ref, err)
			}
			run.result = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, run := range runs {
		for _, label := range run.presses {
			p.ctrl.Press(label)
		}
		if err := p.ctrl.OnComponentResult(step.ID, run.result); err != nil {
			return err
		}
	}
	return nil
}

// componentRun is the private scratch space of one component goroutine.
type componentRun struct {
	rng     *rand.Rand
	presses []string
	result  flow.Result
}

func (c *componentRun) press(label string) { c.presses = append(c.presses, label) }

func (p *Player) run(ctx context.Context, comp flow.Component, st *flow.State, run *componentRun) (flow.Result, error) {
	rng := run.rng
	switch comp.Kind {
	case flow.KindChoice:
		opts := ChoiceOptions(comp.Ref)
		if len(opts) == 0 {
			return nil, fmt.Errorf("no options for choice %q", comp.Ref)
		}
		opt := opts[rng.Intn(len(opts))]
		return flow.ChoiceResult{Ref: comp.Ref, Key: opt.Key, Label: opt.Label}, nil
	case flow.KindWheel:
		return p.spin(ctx, comp.Ref, run)
	case flow.KindPicker:
		return p.pick(ctx, comp.Ref, st, run)
	case flow.KindDraw:
		r, err := selection.NewResolver(p.content.Catalog, p.content.Rules, p.logger)
		if err != nil {
			return nil, err
		}
		run.press("Draw")
		return flow.DrawResult{Ref: comp.Ref, Draws: r.DrawAll(rng, ExcludedGroups(st)...)}, nil
	case flow.KindSubset:
		return p.subset(ctx, comp.Ref, run)
	default:
		return nil, fmt.Errorf("unsupported component kind %q", comp.Kind)
	}
}

func (p *Player) spin(ctx context.Context, ref string, run *componentRun) (flow.Result, error) {
	def, ok := p.content.Wheel(ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingWheel, ref)
	}
	w := wheel.New(def)
	run.press(fmt.Sprintf("Spin (%s)", w.Title()))

	cfg := p.opts.Animation
	cfg.Rng = run.rng
	spinner := animator.NewSpinner(cfg, p.logger)
	sched := p.scheduler(p.opts.FrameInterval)

	var res flow.SpinResult
	started, err := spinner.Spin(ctx, sched, w.Options(), animator.Callbacks{
		OnComplete: func(chosen wheel.Option, snapshot []wheel.Option) {
			res = flow.SpinResult{Ref: ref, Title: w.Title(), Option: chosen, Snapshot: snapshot}
		},
	})
	if err != nil {
		return nil, err
	}
	if !started {
		return nil, errors.New("spinner unexpectedly busy")
	}
	return res, nil
}

// pick toggles every available entry with probability one half, in catalog order, and
// resolves the result. Rejected toggles are simply skipped, as a user would see them.
func (p *Player) pick(ctx context.Context, ref string, st *flow.State, run *componentRun) (flow.Result, error) {
	rng := run.rng
	r, err := selection.NewResolver(p.content.Catalog, p.content.Rules, p.logger, ExcludedGroups(st)...)
	if err != nil {
		return nil, err
	}
	var sel selection.Selection
	for _, e := range r.Available() {
		if rng.Float64() < 0.5 {
			continue
		}
		res := r.Toggle(sel, e.ID)
		if res.Accepted() {
			sel = res.Selection
		}
	}
	run.press("Resolve")
	resolution := r.Resolve(sel, rng)

	sched := p.scheduler(p.opts.ReelInterval)
	for _, out := range resolution.Outcomes {
		if !out.Volatile {
			continue
		}
		if err := animator.NewKeepDiscardReel(out.Kept, rng).Run(ctx, sched, nil); err != nil {
			return nil, err
		}
	}
	return flow.PickResult{Ref: ref, Resolution: resolution}, nil
}

func (p *Player) subset(ctx context.Context, ref string, run *componentRun) (flow.Result, error) {
	rng := run.rng
	run.press("Spin the reels")
	n := selection.SubsetSize(p.content.AccessoryMin, p.content.AccessoryMax, rng)
	items := selection.PickSubset(p.content.Accessories, n, rng)

	sched := p.scheduler(p.opts.ReelInterval)
	for _, item := range items {
		if err := animator.NewItemReel(p.content.Accessories, item, rng).Run(ctx, sched, nil); err != nil {
			return nil, err
		}
	}
	return flow.SubsetResult{Ref: ref, Items: items}, nil
}
