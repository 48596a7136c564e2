// File: internal/tui/model_test.go
package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/spindle/internal/flow"
	"github.com/xkilldash9x/spindle/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// -- Test Helpers --

type harness struct {
	t     *testing.T
	model *Model
	now   time.Time
}

func newHarness(t *testing.T, content session.Content) *harness {
	t.Helper()
	h := &harness{t: t, now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m, err := New(content, Options{Seed: 11, Now: func() time.Time { return h.now }}, zaptest.NewLogger(t))
	require.NoError(t, err)
	h.model = m
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	h.t.Helper()
	_, cmd := h.model.Update(msg)
	return cmd
}

func (h *harness) key(k string) tea.Cmd {
	switch k {
	case "enter":
		return h.send(tea.KeyMsg{Type: tea.KeyEnter})
	case "tab":
		return h.send(tea.KeyMsg{Type: tea.KeyTab})
	case "space":
		return h.send(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	case "ctrl+r":
		return h.send(tea.KeyMsg{Type: tea.KeyCtrlR})
	case "esc":
		return h.send(tea.KeyMsg{Type: tea.KeyEsc})
	case "backspace":
		return h.send(tea.KeyMsg{Type: tea.KeyBackspace})
	default:
		return h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
	}
}

// landSpin moves the clock past any spin and delivers a frame.
func (h *harness) landSpin() {
	h.now = h.now.Add(time.Minute)
	h.send(frameMsg{})
}

// settleReels delivers reel frames until nothing is animating.
func (h *harness) settleReels() {
	h.t.Helper()
	for i := 0; i < 100; i++ {
		if !h.model.advanceReels() {
			h.model.flush()
			return
		}
		h.model.flush()
	}
	h.t.Fatal("reels never settled")
}

func (h *harness) current() string {
	return h.model.Controller().State().Current()
}

// tradOnly weights the FS initial wheel so it always lands on the trad branch.
func tradOnly() session.Content {
	c := session.DefaultContent()
	for i := range c.Wheels {
		if c.Wheels[i].ID != session.WheelFSInitial {
			continue
		}
		for j := range c.Wheels[i].Segments {
			if c.Wheels[i].Segments[j].Key != "trad" {
				c.Wheels[i].Segments[j].Weight = 0
			}
		}
	}
	return c
}

// -- Test Cases --

func TestModel(t *testing.T) {
	t.Run("the P branch reaches the summary after one spin", func(t *testing.T) {
		h := newHarness(t, session.DefaultContent())
		assert.Equal(t, session.StepBranch, h.current())
		assert.Contains(t, h.model.View(), "Step 1: Choose path")

		h.key("1")
		assert.Equal(t, session.StepPSub, h.current())
		h.key("2")
		assert.Equal(t, session.StepPD, h.current())

		cmd := h.key("enter")
		assert.NotNil(t, cmd, "a spin schedules frames")
		assert.Contains(t, h.model.View(), "Spinning...")

		h.landSpin()
		sum, ok := h.model.Finished()
		require.True(t, ok)
		assert.Equal(t, session.StepSummary, sum.Path[len(sum.Path)-1])
		require.Len(t, sum.Wheels, 1)
		assert.Equal(t, session.WheelPD, sum.Wheels[0].Ref)

		view := h.model.View()
		assert.Contains(t, view, "Summary")
		assert.Contains(t, view, sum.Wheels[0].Label)
	})

	t.Run("back at the root is reported, not fatal", func(t *testing.T) {
		h := newHarness(t, session.DefaultContent())
		h.key("b")
		assert.Contains(t, h.model.View(), flow.ErrAtRoot.Error())
		assert.Equal(t, session.StepBranch, h.current())
	})

	t.Run("back re-enters the previous step", func(t *testing.T) {
		h := newHarness(t, session.DefaultContent())
		h.key("1")
		h.key("b")
		assert.Equal(t, session.StepBranch, h.current())
		assert.Equal(t, "Back", h.model.Controller().State().Buttons[1].Label)
	})

	t.Run("a zero-weight segment never wins", func(t *testing.T) {
		h := newHarness(t, session.DefaultContent())
		h.key("1")
		h.key("1")
		require.Equal(t, session.StepPS, h.current())

		h.key("-")
		w := h.model.widgets[0].(*wheelWidget)
		assert.Zero(t, w.wheel.Options()[0].Weight)
		assert.Contains(t, h.model.View(), "0.0%")

		h.key("enter")
		h.landSpin()
		sum, ok := h.model.Finished()
		require.True(t, ok)
		assert.NotEqual(t, "jb", sum.Wheels[0].Key)
	})

	t.Run("a second spin request while spinning is ignored", func(t *testing.T) {
		h := newHarness(t, session.DefaultContent())
		h.key("1")
		h.key("2")
		h.key("enter")
		h.key("enter")
		h.landSpin()

		sum, ok := h.model.Finished()
		require.True(t, ok)
		assert.Len(t, sum.Wheels, 1)
	})

	t.Run("the composite FP step waits for both panels", func(t *testing.T) {
		h := newHarness(t, tradOnly())
		h.key("2")
		h.key("enter")
		h.landSpin()
		require.Equal(t, session.StepTradCL, h.current())

		h.key("2") // No CL
		require.Equal(t, session.StepFPMode, h.current())
		h.key("1") // Pick by hand
		require.Equal(t, session.StepFPPicker, h.current())
		require.Len(t, h.model.widgets, 2)
		assert.Equal(t, flow.KindPicker, h.model.widgets[0].Component().Kind)
		assert.NotContains(t, h.model.View(), "CL:trad", "No CL hides the CL group")

		h.key("space") // first available entry
		h.key("enter")
		h.settleReels()
		assert.Equal(t, session.StepFPPicker, h.current(), "the wheel has not reported yet")
		assert.Equal(t, 1, h.model.focus, "focus moves to the open panel")

		h.key("enter")
		h.landSpin()
		assert.Equal(t, session.StepLocation, h.current())

		st := h.model.Controller().State()
		selected, _ := st.Get(session.SlotFPSelected)
		assert.Len(t, selected, 1)
		assert.NotEmpty(t, st.String(session.SlotFFBsc))
	})

	t.Run("the random FP step draws and then waits for the wheel", func(t *testing.T) {
		h := newHarness(t, tradOnly())
		h.key("2")
		h.key("enter")
		h.landSpin()
		h.key("1") // CL
		h.key("2") // Randomize
		require.Equal(t, session.StepFPDraw, h.current())
		require.Len(t, h.model.widgets, 2)
		assert.Equal(t, flow.KindDraw, h.model.widgets[0].Component().Kind)
		assert.Contains(t, h.model.View(), "enter: draw one per group")

		cmd := h.key("enter")
		assert.NotNil(t, cmd, "picked groups run their reels")
		h.key("enter")
		h.settleReels()
		assert.Equal(t, session.StepFPDraw, h.current(), "the wheel has not reported yet")
		assert.Equal(t, 1, h.model.focus)

		h.key("enter")
		h.landSpin()
		assert.Equal(t, session.StepLocation, h.current())

		st := h.model.Controller().State()
		selected, _ := st.Get(session.SlotFPSelected)
		retained, _ := st.Get(session.SlotFPRetained)
		assert.NotEmpty(t, selected)
		assert.Equal(t, selected, retained, "drawn entries are all kept")

		var labels []string
		for _, b := range st.Buttons {
			labels = append(labels, b.Label)
		}
		assert.Equal(t, 1, countOf(labels, "Draw"), "a second enter on a finished draw is ignored")
	})

	t.Run("restart from the summary starts a fresh session", func(t *testing.T) {
		h := newHarness(t, session.DefaultContent())
		first := h.model.Controller().State().ID
		h.key("1")
		h.key("1")
		h.key("enter")
		h.landSpin()
		_, ok := h.model.Finished()
		require.True(t, ok)

		h.key("enter")
		_, ok = h.model.Finished()
		assert.False(t, ok)
		st := h.model.Controller().State()
		assert.Equal(t, []string{session.StepBranch}, st.Path)
		assert.NotEqual(t, first, st.ID)
	})

	t.Run("quit ends the program", func(t *testing.T) {
		h := newHarness(t, session.DefaultContent())
		cmd := h.key("q")
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
		assert.Empty(t, h.model.View())
	})
}

func TestWheelLabelEdit(t *testing.T) {
	reachPS := func(t *testing.T) (*harness, *wheelWidget) {
		h := newHarness(t, session.DefaultContent())
		h.key("1")
		h.key("1")
		require.Equal(t, session.StepPS, h.current())
		return h, h.model.widgets[0].(*wheelWidget)
	}
	erase := func(h *harness, w *wheelWidget) {
		for range []rune(w.wheel.Options()[w.cursor].Label) {
			h.key("backspace")
		}
	}

	t.Run("typed labels capture the global keys and reach the summary", func(t *testing.T) {
		h, w := reachPS(t)
		h.key("e")
		assert.True(t, w.Editing())
		erase(h, w)
		for _, k := range []string{"q", "b", "space", "x"} {
			h.key(k)
		}
		assert.Contains(t, h.model.View(), "Label: qb x_")
		h.key("enter")

		assert.False(t, w.Editing())
		assert.False(t, h.model.quitting, "q was typed, not pressed")
		assert.Equal(t, session.StepPS, h.current(), "b was typed, not pressed")
		assert.Equal(t, "qb x", w.wheel.Options()[0].Label)

		// Leave the edited segment as the only one with weight.
		for i := 1; i < w.wheel.Len(); i++ {
			h.key("j")
			for w.wheel.Options()[i].Weight > 0 {
				h.key("-")
			}
		}
		h.key("enter")
		h.landSpin()
		sum, ok := h.model.Finished()
		require.True(t, ok)
		require.Len(t, sum.Wheels, 1)
		assert.Equal(t, "qb x", sum.Wheels[0].Label)
	})

	t.Run("escape keeps the old label", func(t *testing.T) {
		h, w := reachPS(t)
		before := w.wheel.Options()[0].Label
		h.key("e")
		h.key("z")
		h.key("esc")
		assert.False(t, w.Editing())
		assert.Equal(t, before, w.wheel.Options()[0].Label)
	})

	t.Run("an empty label falls back to a numbered one", func(t *testing.T) {
		h, w := reachPS(t)
		h.key("j")
		h.key("e")
		erase(h, w)
		h.key("space")
		h.key("enter")
		assert.Equal(t, "Option 2", w.wheel.Options()[1].Label)
	})

	t.Run("ctrl+c still quits while typing", func(t *testing.T) {
		h, w := reachPS(t)
		h.key("e")
		require.True(t, w.Editing())
		cmd := h.send(tea.KeyMsg{Type: tea.KeyCtrlC})
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	})
}

func TestAccessoryReels(t *testing.T) {
	h := newHarness(t, session.DefaultContent())
	ctrl := h.model.Controller()
	// Drive the early steps straight through the controller to reach the reels.
	require.NoError(t, ctrl.OnComponentResult(session.StepBranch, flow.ChoiceResult{Ref: session.ChoiceBranch, Key: "FS", Label: "FS"}))
	require.NoError(t, ctrl.OnComponentResult(session.StepFSInitial, spin(session.WheelFSInitial, "oil")))
	require.NoError(t, ctrl.OnComponentResult(session.StepLocation, spin(session.WheelLocation, "office")))
	require.NoError(t, ctrl.OnComponentResult(session.StepAccessoriesYN, spin(session.WheelAccessoriesYN, "yes")))
	require.Equal(t, session.StepAccessories, h.current())

	h.key("enter")
	h.settleReels()

	sum, ok := h.model.Finished()
	require.True(t, ok)
	d := session.SummaryDetails(session.DefaultContent(), sum)
	assert.GreaterOrEqual(t, len(d.Accessories), 1)
	assert.LessOrEqual(t, len(d.Accessories), 2)
	assert.Equal(t, "Spin the reels", sum.Buttons[len(sum.Buttons)-1].Label)
}

func spin(ref, key string) flow.SpinResult {
	def, _ := session.DefaultContent().Wheel(ref)
	for _, o := range def.Segments {
		if o.Key == key {
			return flow.SpinResult{Ref: ref, Title: def.Title, Option: o, Snapshot: def.Segments}
		}
	}
	return flow.SpinResult{Ref: ref}
}

func countOf(values []string, want string) int {
	n := 0
	for _, v := range values {
		if v == want {
			n++
		}
	}
	return n
}
