// File: internal/flow/controller.go
package flow

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrStaleResult is returned for a result addressed to a step that is no longer
	// current, e.g. a spin that finished after the user navigated away.
	ErrStaleResult = errors.New("flow: result for a step that is not current")
	// ErrUnexpectedComponent is returned for a result the current step did not activate.
	ErrUnexpectedComponent = errors.New("flow: result from a component the step does not activate")
	// ErrAtRoot is returned by Back when there is no previous step.
	ErrAtRoot = errors.New("flow: no previous step")
)

// Renderer is the presentation side of a session. Both methods receive clones and are
// called without the controller lock held, so they may call back into the controller.
type Renderer interface {
	// StepEntered is called for every non-terminal step entered.
	StepEntered(step Step, st *State)
	// Summary is called when a terminal step is entered.
	Summary(sum Summary)
}

// WheelOutcome is one wheel landing as shown in the summary.
type WheelOutcome struct {
	Step  string `json:"step"`
	Ref   string `json:"ref"`
	Title string `json:"title"`
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Summary is the aggregated view of a finished session.
type Summary struct {
	SessionID uuid.UUID      `json:"session_id"`
	Path      []string       `json:"path"`
	Buttons   []ButtonPress  `json:"buttons"`
	Wheels    []WheelOutcome `json:"wheels"`
	Slots     map[string]any `json:"slots"`
	History   []Record       `json:"history"`
}

// BuildSummary aggregates st. The state is not retained.
func BuildSummary(st *State) Summary {
	st = st.Clone()
	sum := Summary{
		SessionID: st.ID,
		Path:      st.Path,
		Buttons:   st.Buttons,
		Slots:     st.Slots,
		History:   st.History,
	}
	for _, rec := range st.History {
		if spin, ok := rec.Result.(SpinResult); ok {
			title := spin.Title
			if title == "" {
				title = spin.Ref
			}
			sum.Wheels = append(sum.Wheels, WheelOutcome{
				Step:  rec.Step,
				Ref:   spin.Ref,
				Title: title,
				Key:   spin.Option.Key,
				Label: spin.Option.Label,
			})
		}
	}
	return sum
}

// Controller walks a Graph, owning the one mutable SessionState. Component results are
// the only thing that moves a session forward.
type Controller struct {
	graph    *Graph
	renderer Renderer
	logger   *zap.Logger

	mu      sync.Mutex
	state   *State
	pending Results
}

// NewController creates a controller with an empty state. Call Restart (or Enter) to
// present the first step.
func NewController(g *Graph, r Renderer, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		graph:    g,
		renderer: r,
		logger:   logger.Named("flow"),
		state:    NewState(),
		pending:  make(Results),
	}
}

// Enter activates step id: its resets are applied, it is pushed onto the path and the
// renderer is told about it.
func (c *Controller) Enter(id string) error {
	c.mu.Lock()
	render, err := c.enterLocked(id, true)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	render()
	return nil
}

func (c *Controller) enterLocked(id string, push bool) (func(), error) {
	step, ok := c.graph.Step(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStep, id)
	}
	c.state.Reset(step.ResetsOnEntry...)
	if push {
		c.state.Path = append(c.state.Path, id)
	}
	c.pending = make(Results)
	c.logger.Debug("Entered step.", zap.String("step", id), zap.Int("depth", len(c.state.Path)))

	snapshot := c.state.Clone()
	r := c.renderer
	if r == nil {
		return func() {}, nil
	}
	if step.Terminal() {
		return func() { r.Summary(BuildSummary(snapshot)) }, nil
	}
	return func() { r.StepEntered(step, snapshot) }, nil
}

// OnComponentResult accepts a result from one of the current step's components. Once
// every component of the step has reported, the transition runs and the next step is
// entered. A second report from the same component is ignored.
func (c *Controller) OnComponentResult(stepID string, res Result) error {
	c.mu.Lock()
	render, err := c.acceptLocked(stepID, res)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	render()
	return nil
}

func (c *Controller) acceptLocked(stepID string, res Result) (func(), error) {
	noop := func() {}
	if stepID != c.state.Current() {
		c.logger.Info("Discarding result for a step that is no longer current.",
			zap.String("step", stepID), zap.String("current", c.state.Current()))
		return nil, fmt.Errorf("%w: %s", ErrStaleResult, stepID)
	}
	step, _ := c.graph.Step(stepID)
	comp, ok := step.component(res.ComponentRef())
	if !ok || comp.Kind != res.Kind() {
		return nil, fmt.Errorf("%w: %s/%s (%s)", ErrUnexpectedComponent, stepID, res.ComponentRef(), res.Kind())
	}
	if _, dup := c.pending[comp.Ref]; dup {
		c.logger.Debug("Ignoring duplicate component result.", zap.String("step", stepID), zap.String("ref", comp.Ref))
		return noop, nil
	}

	// The result is applied to copies. Nothing is committed unless the step either keeps
	// waiting or moves to a step that exists, so a failed transition leaves it open.
	pending := make(Results, len(c.pending)+1)
	for ref, r := range c.pending {
		pending[ref] = r
	}
	pending[comp.Ref] = res
	st := c.state.Clone()
	st.History = append(st.History, Record{
		Seq:       len(st.History) + 1,
		Step:      stepID,
		Component: comp,
		Outcome:   describe(res),
		Result:    res,
	})
	if choice, ok := res.(ChoiceResult); ok {
		st.Press(choice.Label, step.Title)
	}
	if step.Record != nil {
		step.Record(st, res)
	}

	if len(pending) < len(step.Activates) {
		c.state, c.pending = st, pending
		return noop, nil
	}

	next, err := step.Transition(pending, st)
	if err != nil {
		return nil, fmt.Errorf("transition from %s: %w", stepID, err)
	}
	if !step.allows(next) {
		return nil, fmt.Errorf("%w: %s may not lead to %q", ErrUnknownStep, stepID, next)
	}
	if _, ok := c.graph.Step(next); !ok {
		return nil, fmt.Errorf("%w: %s leads to %q", ErrUnknownStep, stepID, next)
	}
	c.state, c.pending = st, pending
	return c.enterLocked(next, true)
}

// Back re-enters the previous step on the path, applying its resets so nothing
// collected on the abandoned branch reaches the summary. History is kept.
func (c *Controller) Back() error {
	c.mu.Lock()
	if len(c.state.Path) < 2 {
		c.mu.Unlock()
		return ErrAtRoot
	}
	if step, ok := c.graph.Step(c.state.Current()); ok {
		c.state.Press("Back", step.Title)
	}
	c.state.Path = c.state.Path[:len(c.state.Path)-1]
	render, err := c.enterLocked(c.state.Current(), false)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	render()
	return nil
}

// Restart discards the whole state, starts a fresh one and enters the root step.
func (c *Controller) Restart() error {
	c.mu.Lock()
	c.state = NewState()
	render, err := c.enterLocked(c.graph.Root(), true)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.logger.Debug("Session restarted.")
	render()
	return nil
}

// Press logs a user action against the current step.
func (c *Controller) Press(label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ctx := ""
	if step, ok := c.graph.Step(c.state.Current()); ok {
		ctx = step.Title
	}
	c.state.Press(label, ctx)
}

// Current returns the current step.
func (c *Controller) Current() (Step, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.graph.Step(c.state.Current())
}

// Awaiting lists the current step's components that have not reported yet.
func (c *Controller) Awaiting() []Component {
	c.mu.Lock()
	defer c.mu.Unlock()
	step, ok := c.graph.Step(c.state.Current())
	if !ok {
		return nil
	}
	var out []Component
	for _, comp := range step.Activates {
		if _, done := c.pending[comp.Ref]; !done {
			out = append(out, comp)
		}
	}
	return out
}

// State returns a clone of the session state.
func (c *Controller) State() *State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Graph returns the graph being walked.
func (c *Controller) Graph() *Graph { return c.graph }
