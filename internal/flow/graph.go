// File: internal/flow/graph.go
package flow

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/lvlath/bfs"
	"github.com/katalvlaran/lvlath/core"
)

var (
	// ErrUnknownStep is returned when a step id does not exist in the graph.
	ErrUnknownStep = errors.New("flow: unknown step")
	// ErrDuplicateStep is returned when two steps share an id.
	ErrDuplicateStep = errors.New("flow: duplicate step")
	// ErrInvalidStep is returned for a step that can never finish or never leave.
	ErrInvalidStep = errors.New("flow: invalid step")
)

// TransitionFunc picks the next step once every component of a step has reported.
// It may read the session state but must not modify it; use Step.Record for that.
type TransitionFunc func(results Results, st *State) (string, error)

// RecordFunc copies what a step needs from one result into the session slots.
type RecordFunc func(st *State, res Result)

// Step is an immutable node of the decision graph.
type Step struct {
	ID    string
	Title string
	// Activates lists the components presented together. All of them must report
	// before the transition runs.
	Activates []Component
	// ResetsOnEntry lists slot paths cleared every time the step is entered, including
	// when it is re-entered through Back.
	ResetsOnEntry []string
	// Next declares every step the transition may return. It is checked when the graph
	// is built and enforced at run time.
	Next       []string
	Record     RecordFunc
	Transition TransitionFunc
}

// Terminal reports whether the step ends the session and shows the summary.
func (s Step) Terminal() bool {
	return len(s.Activates) == 0 && s.Transition == nil
}

func (s Step) component(ref string) (Component, bool) {
	for _, c := range s.Activates {
		if c.Ref == ref {
			return c, true
		}
	}
	return Component{}, false
}

func (s Step) allows(next string) bool {
	if len(s.Next) == 0 {
		return true
	}
	for _, id := range s.Next {
		if id == next {
			return true
		}
	}
	return false
}

// Goto is a transition that always leads to next.
func Goto(next string) TransitionFunc {
	return func(Results, *State) (string, error) { return next, nil }
}

// ByKey branches on the key reported by the choice or wheel component ref.
func ByKey(ref string, routes map[string]string) TransitionFunc {
	return func(results Results, _ *State) (string, error) {
		key := results.Key(ref)
		next, ok := routes[key]
		if !ok {
			return "", fmt.Errorf("%w: no route for %s=%q", ErrUnknownStep, ref, key)
		}
		return next, nil
	}
}

// Graph is a validated, read-only set of steps with a designated root.
type Graph struct {
	root  string
	steps map[string]Step
	order []string
	// edges mirrors the declared Next lists as a directed graph.
	edges *core.Graph
}

// NewGraph validates steps and builds a graph rooted at root.
func NewGraph(root string, steps ...Step) (*Graph, error) {
	g := &Graph{root: root, steps: make(map[string]Step, len(steps))}
	for _, s := range steps {
		if s.ID == "" {
			return nil, fmt.Errorf("%w: step %q has no id", ErrInvalidStep, s.Title)
		}
		if _, dup := g.steps[s.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateStep, s.ID)
		}
		if err := validateStep(s); err != nil {
			return nil, err
		}
		g.steps[s.ID] = s
		g.order = append(g.order, s.ID)
	}
	if _, ok := g.steps[root]; !ok {
		return nil, fmt.Errorf("%w: root %q", ErrUnknownStep, root)
	}
	edges, err := buildEdges(g.order, g.steps)
	if err != nil {
		return nil, err
	}
	g.edges = edges
	return g, nil
}

// buildEdges adds every step as a vertex before any edge, so a Next target that is
// not yet a vertex names a step that does not exist.
func buildEdges(order []string, steps map[string]Step) (*core.Graph, error) {
	edges := core.NewGraph(core.WithDirected(true), core.WithLoops())
	for _, id := range order {
		if err := edges.AddVertex(id); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidStep, id, err)
		}
	}
	for _, id := range order {
		for _, next := range steps[id].Next {
			if !edges.HasVertex(next) {
				return nil, fmt.Errorf("%w: %s leads to %q", ErrUnknownStep, id, next)
			}
			if edges.HasEdge(id, next) {
				continue
			}
			if _, err := edges.AddEdge(id, next, 0); err != nil {
				return nil, fmt.Errorf("%w: %s -> %s: %v", ErrInvalidStep, id, next, err)
			}
		}
	}
	return edges, nil
}

func validateStep(s Step) error {
	hasComponents := len(s.Activates) > 0
	hasTransition := s.Transition != nil
	if hasComponents != hasTransition {
		return fmt.Errorf("%w: %s must declare both components and a transition, or neither", ErrInvalidStep, s.ID)
	}
	if !hasComponents && len(s.Next) > 0 {
		return fmt.Errorf("%w: terminal step %s declares next steps", ErrInvalidStep, s.ID)
	}
	seen := make(map[string]struct{}, len(s.Activates))
	for _, c := range s.Activates {
		if c.Ref == "" || c.Kind == "" {
			return fmt.Errorf("%w: %s has an unnamed component", ErrInvalidStep, s.ID)
		}
		if _, dup := seen[c.Ref]; dup {
			return fmt.Errorf("%w: %s activates %q twice", ErrInvalidStep, s.ID, c.Ref)
		}
		seen[c.Ref] = struct{}{}
	}
	return nil
}

// Root returns the id of the entry step.
func (g *Graph) Root() string { return g.root }

// Step looks up a step by id.
func (g *Graph) Step(id string) (Step, bool) {
	s, ok := g.steps[id]
	return s, ok
}

// Steps returns every step in declaration order.
func (g *Graph) Steps() []Step {
	out := make([]Step, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.steps[id])
	}
	return out
}

// Unreachable lists the steps that no declared Next chain reaches from the root.
// Steps whose transitions declare no Next are treated as reaching nothing.
func (g *Graph) Unreachable() []string {
	seen := map[string]int{g.root: 0}
	if res, err := bfs.BFS(g.edges, g.root); err == nil {
		seen = res.Depth
	}
	var out []string
	for _, id := range g.order {
		if _, ok := seen[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
