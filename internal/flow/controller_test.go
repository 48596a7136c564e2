// File: internal/flow/controller_test.go
package flow

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/spindle/internal/selection"
	"github.com/xkilldash9x/spindle/internal/wheel"
)

// -- Test Helpers --

// recordingRenderer keeps every call so tests can assert on what a host would show.
type recordingRenderer struct {
	entered   []string
	summaries []Summary
}

func (r *recordingRenderer) StepEntered(step Step, _ *State) { r.entered = append(r.entered, step.ID) }
func (r *recordingRenderer) Summary(sum Summary)             { r.summaries = append(r.summaries, sum) }

// testGraph: start -(a)-> spin -> end, start -(b)-> combo(pick + wheel) -> end.
func testGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := NewGraph("start",
		Step{
			ID:            "start",
			Title:         "Start",
			Activates:     []Component{{Kind: KindChoice, Ref: "branch"}},
			ResetsOnEntry: []string{"run"},
			Next:          []string{"spin", "combo"},
			Record: func(st *State, res Result) {
				st.Set("run.branch", res.(ChoiceResult).Key)
			},
			Transition: ByKey("branch", map[string]string{"a": "spin", "b": "combo"}),
		},
		Step{
			ID:            "spin",
			Title:         "Spin",
			Activates:     []Component{{Kind: KindWheel, Ref: "loc"}},
			ResetsOnEntry: []string{"run.loc"},
			Next:          []string{"end"},
			Record: func(st *State, res Result) {
				st.Set("run.loc", res.(SpinResult).Option.Key)
			},
			Transition: Goto("end"),
		},
		Step{
			ID:            "combo",
			Title:         "Combo",
			Activates:     []Component{{Kind: KindPicker, Ref: "fp"}, {Kind: KindWheel, Ref: "ff"}},
			ResetsOnEntry: []string{"run.fp", "run.ff"},
			Next:          []string{"end"},
			Record: func(st *State, res Result) {
				switch r := res.(type) {
				case PickResult:
					st.Set("run.fp", len(r.Resolution.Retained))
				case SpinResult:
					st.Set("run.ff", r.Option.Key)
				}
			},
			Transition: Goto("end"),
		},
		Step{ID: "end", Title: "Summary"},
	)
	require.NoError(t, err)
	return g
}

func newTestController(t *testing.T) (*Controller, *recordingRenderer) {
	t.Helper()
	r := &recordingRenderer{}
	c := NewController(testGraph(t), r, zaptest.NewLogger(t))
	require.NoError(t, c.Restart())
	return c, r
}

func choose(key string) ChoiceResult {
	return ChoiceResult{Ref: "branch", Key: key, Label: "Branch " + key}
}

func spin(ref, key string) SpinResult {
	opts := []wheel.Option{{Key: "office", Label: "Office", Weight: 20}, {Key: "bedroom", Label: "Bedroom", Weight: 75}}
	for _, o := range opts {
		if o.Key == key {
			return SpinResult{Ref: ref, Title: "Wheel " + ref, Option: o, Snapshot: opts}
		}
	}
	return SpinResult{Ref: ref, Option: wheel.Option{Key: key, Label: key}, Snapshot: opts}
}

func pick(n int) PickResult {
	var res selection.Resolution
	for i := 0; i < n; i++ {
		e := selection.Entry{ID: string(rune('a' + i)), Label: string(rune('A' + i)), Group: "Other"}
		res.Selected = append(res.Selected, e)
		res.Retained = append(res.Retained, e)
		res.Outcomes = append(res.Outcomes, selection.Outcome{Entry: e, Kept: true})
	}
	return PickResult{Ref: "fp", Resolution: res}
}

// -- Test Cases --

func TestController_Walk(t *testing.T) {
	t.Run("restart enters the root step", func(t *testing.T) {
		c, r := newTestController(t)
		step, ok := c.Current()
		require.True(t, ok)
		assert.Equal(t, "start", step.ID)
		assert.Equal(t, []string{"start"}, r.entered)
	})

	t.Run("a choice moves the session along its branch", func(t *testing.T) {
		c, r := newTestController(t)
		require.NoError(t, c.OnComponentResult("start", choose("a")))
		require.NoError(t, c.OnComponentResult("spin", spin("loc", "office")))

		require.Len(t, r.summaries, 1)
		sum := r.summaries[0]
		assert.Equal(t, []string{"start", "spin", "end"}, sum.Path)
		assert.Equal(t, "office", sum.Slots["run.loc"])
		require.Len(t, sum.Wheels, 1)
		assert.Equal(t, WheelOutcome{Step: "spin", Ref: "loc", Title: "Wheel loc", Key: "office", Label: "Office"}, sum.Wheels[0])
		assert.Equal(t, []ButtonPress{{Label: "Branch a", Context: "Start"}}, sum.Buttons)
	})

	t.Run("a composite step waits for every component", func(t *testing.T) {
		c, r := newTestController(t)
		require.NoError(t, c.OnComponentResult("start", choose("b")))
		require.NoError(t, c.OnComponentResult("combo", pick(2)))

		step, _ := c.Current()
		assert.Equal(t, "combo", step.ID)
		assert.Equal(t, []Component{{Kind: KindWheel, Ref: "ff"}}, c.Awaiting())
		assert.Empty(t, r.summaries)

		require.NoError(t, c.OnComponentResult("combo", spin("ff", "bedroom")))
		require.Len(t, r.summaries, 1)
		assert.Equal(t, 2, r.summaries[0].Slots["run.fp"])
		assert.Equal(t, "bedroom", r.summaries[0].Slots["run.ff"])
	})

	t.Run("a duplicate report from the same component is ignored", func(t *testing.T) {
		c, _ := newTestController(t)
		require.NoError(t, c.OnComponentResult("start", choose("b")))
		require.NoError(t, c.OnComponentResult("combo", pick(1)))
		require.NoError(t, c.OnComponentResult("combo", pick(3)))

		assert.Equal(t, 1, c.State().Slots["run.fp"])
		assert.Len(t, c.State().History, 2)
	})
}

func TestController_Rejections(t *testing.T) {
	t.Run("results for a step that is not current are stale", func(t *testing.T) {
		c, _ := newTestController(t)
		require.NoError(t, c.OnComponentResult("start", choose("a")))

		err := c.OnComponentResult("start", choose("b"))
		assert.ErrorIs(t, err, ErrStaleResult)
		step, _ := c.Current()
		assert.Equal(t, "spin", step.ID)
	})

	t.Run("a late spin after navigating back is stale", func(t *testing.T) {
		c, _ := newTestController(t)
		require.NoError(t, c.OnComponentResult("start", choose("a")))
		require.NoError(t, c.Back())

		err := c.OnComponentResult("spin", spin("loc", "office"))
		assert.ErrorIs(t, err, ErrStaleResult)
		_, ok := c.State().Get("run.loc")
		assert.False(t, ok)
	})

	t.Run("results from components the step does not activate are refused", func(t *testing.T) {
		c, _ := newTestController(t)
		assert.ErrorIs(t, c.OnComponentResult("start", spin("loc", "office")), ErrUnexpectedComponent)
		assert.ErrorIs(t, c.OnComponentResult("start", ChoiceResult{Ref: "other"}), ErrUnexpectedComponent)
		assert.Empty(t, c.State().History)
	})

	t.Run("an unrouted key surfaces the transition error", func(t *testing.T) {
		c, _ := newTestController(t)
		err := c.OnComponentResult("start", choose("zzz"))
		assert.ErrorIs(t, err, ErrUnknownStep)
	})

	t.Run("a failed transition leaves the step open for a valid report", func(t *testing.T) {
		c, r := newTestController(t)
		require.Error(t, c.OnComponentResult("start", choose("zzz")))

		st := c.State()
		assert.Empty(t, st.History)
		assert.Empty(t, st.Buttons)
		_, ok := st.Get("run.branch")
		assert.False(t, ok, "the refused key is not recorded")
		assert.Equal(t, []Component{{Kind: KindChoice, Ref: "branch"}}, c.Awaiting())

		require.NoError(t, c.OnComponentResult("start", choose("a")))
		step, _ := c.Current()
		assert.Equal(t, "spin", step.ID)
		assert.Equal(t, "a", c.State().Slots["run.branch"])
		assert.Len(t, c.State().History, 1)
		assert.Equal(t, []string{"start", "spin"}, r.entered)
	})

	t.Run("a composite step stays open after its last component fails to route", func(t *testing.T) {
		g, err := NewGraph("combo",
			Step{
				ID:         "combo",
				Activates:  []Component{{Kind: KindPicker, Ref: "fp"}, {Kind: KindWheel, Ref: "ff"}},
				Next:       []string{"end"},
				Transition: ByKey("ff", map[string]string{"office": "end"}),
			},
			Step{ID: "end"},
		)
		require.NoError(t, err)
		c := NewController(g, nil, zaptest.NewLogger(t))
		require.NoError(t, c.Restart())

		require.NoError(t, c.OnComponentResult("combo", pick(1)))
		require.Error(t, c.OnComponentResult("combo", spin("ff", "bedroom")))
		assert.Equal(t, []Component{{Kind: KindWheel, Ref: "ff"}}, c.Awaiting())
		assert.Len(t, c.State().History, 1, "the picker result is kept")

		require.NoError(t, c.OnComponentResult("combo", spin("ff", "office")))
		step, _ := c.Current()
		assert.True(t, step.Terminal())
	})

	t.Run("entering an unknown step fails", func(t *testing.T) {
		c, _ := newTestController(t)
		assert.ErrorIs(t, c.Enter("ghost"), ErrUnknownStep)
	})
}

func TestController_Back(t *testing.T) {
	t.Run("back at the root is refused", func(t *testing.T) {
		c, _ := newTestController(t)
		assert.ErrorIs(t, c.Back(), ErrAtRoot)
	})

	t.Run("state from the abandoned branch never reaches the summary", func(t *testing.T) {
		c, r := newTestController(t)
		require.NoError(t, c.OnComponentResult("start", choose("b")))
		require.NoError(t, c.OnComponentResult("combo", pick(2)))
		require.NoError(t, c.Back())

		st := c.State()
		assert.Equal(t, []string{"start"}, st.Path)
		_, ok := st.Get("run.branch")
		assert.False(t, ok, "the root resets the whole run subtree")
		_, ok = st.Get("run.fp")
		assert.False(t, ok)

		require.NoError(t, c.OnComponentResult("start", choose("a")))
		require.NoError(t, c.OnComponentResult("spin", spin("loc", "bedroom")))

		require.Len(t, r.summaries, 1)
		sum := r.summaries[0]
		assert.NotContains(t, sum.Slots, "run.fp")
		assert.Equal(t, "a", sum.Slots["run.branch"])
		assert.Equal(t, []string{"start", "spin", "end"}, sum.Path)
		assert.Len(t, sum.History, 4, "history keeps the abandoned results")
		assert.Contains(t, sum.Buttons, ButtonPress{Label: "Back", Context: "Combo"})
	})

	t.Run("back re-renders the previous step", func(t *testing.T) {
		c, r := newTestController(t)
		require.NoError(t, c.OnComponentResult("start", choose("a")))
		require.NoError(t, c.Back())
		assert.Equal(t, []string{"start", "spin", "start"}, r.entered)
	})
}

func TestController_Restart(t *testing.T) {
	walk := func(t *testing.T, c *Controller) {
		t.Helper()
		require.NoError(t, c.OnComponentResult("start", choose("b")))
		require.NoError(t, c.OnComponentResult("combo", spin("ff", "office")))
		require.NoError(t, c.OnComponentResult("combo", pick(1)))
	}

	t.Run("a restarted session equals a fresh one given the same inputs", func(t *testing.T) {
		reused, _ := newTestController(t)
		require.NoError(t, reused.OnComponentResult("start", choose("a")))
		require.NoError(t, reused.OnComponentResult("spin", spin("loc", "bedroom")))
		firstID := reused.State().ID

		require.NoError(t, reused.Restart())
		walk(t, reused)

		fresh, _ := newTestController(t)
		walk(t, fresh)

		got, want := reused.State(), fresh.State()
		assert.NotEqual(t, firstID, got.ID)
		if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(State{}, "ID")); diff != "" {
			t.Errorf("restarted state mismatch (-fresh +restarted):\n%s", diff)
		}
	})

	t.Run("clones handed out are isolated from the session", func(t *testing.T) {
		c, _ := newTestController(t)
		st := c.State()
		st.Set("run.branch", "tampered")
		st.Path = append(st.Path, "ghost")

		_, ok := c.State().Get("run.branch")
		assert.False(t, ok)
		assert.Equal(t, []string{"start"}, c.State().Path)
	})
}

func TestController_NilRenderer(t *testing.T) {
	c := NewController(testGraph(t), nil, nil)
	require.NoError(t, c.Restart())
	require.NoError(t, c.OnComponentResult("start", choose("a")))
	require.NoError(t, c.OnComponentResult("spin", spin("loc", "office")))
	step, _ := c.Current()
	assert.True(t, step.Terminal())

	c.Press("Restart")
	assert.Equal(t, ButtonPress{Label: "Restart", Context: "Summary"}, c.State().Buttons[1])
}
