// File: internal/tui/model.go
package tui

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/xkilldash9x/spindle/internal/animator"
	"github.com/xkilldash9x/spindle/internal/flow"
	"github.com/xkilldash9x/spindle/internal/session"
)

// Options tunes the terminal host.
type Options struct {
	Seed          int64
	Animation     animator.Config
	FrameInterval time.Duration
	ReelInterval  time.Duration
	// Now is the clock spins are measured against. Nil means time.Now.
	Now func() time.Time
}

type frameMsg struct{}

type reelMsg struct{}

// Model is the bubbletea model of an interactive session. It is also the flow renderer
// of its own controller, so every step entered rebuilds the widgets on screen.
type Model struct {
	content session.Content
	ctrl    *flow.Controller
	logger  *zap.Logger
	opts    Options
	rng     *rand.Rand
	styles  Styles

	step    flow.Step
	widgets []widget
	focus   int
	summary *flow.Summary
	pending []flow.Result
	status  string

	framing  bool
	reeling  bool
	quitting bool
}

var (
	_ tea.Model     = (*Model)(nil)
	_ flow.Renderer = (*Model)(nil)
)

// New builds the decision graph over content and presents its first step.
func New(content session.Content, opts Options, logger *zap.Logger) (*Model, error) {
	g, err := session.NewGraph(content)
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
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := &Model{
		content: content,
		logger:  logger.Named("tui"),
		opts:    opts,
		rng:     rand.New(rand.NewSource(opts.Seed)),
		styles:  DefaultStyles(),
	}
	m.ctrl = flow.NewController(g, m, logger)
	if err := m.ctrl.Restart(); err != nil {
		return nil, err
	}
	return m, nil
}

// StepEntered implements flow.Renderer.
func (m *Model) StepEntered(step flow.Step, st *flow.State) {
	m.step = step
	m.summary = nil
	m.focus = 0
	m.widgets = m.widgets[:0]
	for _, comp := range step.Activates {
		w, err := m.newWidget(comp, st)
		if err != nil {
			m.logger.Error("Cannot present component.", zap.String("ref", comp.Ref), zap.Error(err))
			m.status = err.Error()
			continue
		}
		m.widgets = append(m.widgets, w)
	}
}

// Summary implements flow.Renderer.
func (m *Model) Summary(sum flow.Summary) {
	m.widgets = nil
	m.summary = &sum
}

// Controller exposes the session controller.
func (m *Model) Controller() *flow.Controller { return m.ctrl }

// Finished returns the summary once the session reached it.
func (m *Model) Finished() (flow.Summary, bool) {
	if m.summary == nil {
		return flow.Summary{}, false
	}
	return *m.summary, true
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd = m.handleKey(msg.String())
	case frameMsg:
		m.framing = false
		if m.advanceFrames() {
			cmd = m.frameTick()
		}
	case reelMsg:
		m.reeling = false
		if m.advanceReels() {
			cmd = m.reelTick()
		}
	}
	m.flush()
	if m.quitting {
		return m, tea.Quit
	}
	return m, cmd
}

func (m *Model) handleKey(key string) tea.Cmd {
	m.status = ""
	if key == "ctrl+c" {
		m.quitting = true
		return nil
	}
	// A widget that is capturing text gets every key, including the global ones.
	if m.summary == nil && m.focus < len(m.widgets) {
		if e, ok := m.widgets[m.focus].(editor); ok && e.Editing() {
			return m.widgets[m.focus].HandleKey(m, key)
		}
	}

	switch key {
	case "q":
		m.quitting = true
		return nil
	case "ctrl+r":
		m.restart()
		return nil
	}

	if m.summary != nil {
		if key == "enter" || key == "r" {
			m.restart()
		}
		return nil
	}

	switch key {
	case "tab":
		if len(m.widgets) > 0 {
			m.focus = (m.focus + 1) % len(m.widgets)
		}
		return nil
	case "b":
		if err := m.ctrl.Back(); err != nil {
			m.status = err.Error()
		}
		return nil
	}
	if m.focus < len(m.widgets) {
		return m.widgets[m.focus].HandleKey(m, key)
	}
	return nil
}

func (m *Model) restart() {
	if err := m.ctrl.Restart(); err != nil {
		m.status = err.Error()
	}
}

// report queues a component result; results are handed to the controller after the
// current message so that widget lists are never swapped mid-iteration.
func (m *Model) report(res flow.Result) {
	m.pending = append(m.pending, res)
}

func (m *Model) flush() {
	pending := m.pending
	m.pending = nil
	stepID := m.step.ID
	for _, res := range pending {
		if err := m.ctrl.OnComponentResult(stepID, res); err != nil {
			m.logger.Warn("Component result refused.", zap.String("ref", res.ComponentRef()), zap.Error(err))
			m.status = err.Error()
		}
	}
	if len(pending) > 0 && m.focus < len(m.widgets) && m.widgets[m.focus].Done() {
		m.focusNextOpen()
	}
}

func (m *Model) focusNextOpen() {
	for i := 1; i <= len(m.widgets); i++ {
		j := (m.focus + i) % len(m.widgets)
		if !m.widgets[j].Done() {
			m.focus = j
			return
		}
	}
}

func (m *Model) frameTick() tea.Cmd {
	if m.framing {
		return nil
	}
	m.framing = true
	return tea.Tick(m.opts.FrameInterval, func(time.Time) tea.Msg { return frameMsg{} })
}

func (m *Model) reelTick() tea.Cmd {
	if m.reeling {
		return nil
	}
	m.reeling = true
	return tea.Tick(m.opts.ReelInterval, func(time.Time) tea.Msg { return reelMsg{} })
}

func (m *Model) advanceFrames() bool {
	now := m.opts.Now()
	animating := false
	for _, w := range m.widgets {
		if f, ok := w.(framed); ok && f.onFrame(m, now) {
			animating = true
		}
	}
	return animating
}

func (m *Model) advanceReels() bool {
	animating := false
	for _, w := range m.widgets {
		if r, ok := w.(reeled); ok && r.onReel(m) {
			animating = true
		}
	}
	return animating
}

func (m *Model) childRng() *rand.Rand {
	return rand.New(rand.NewSource(m.rng.Int63()))
}

// View renders the current step, or the summary.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.styles.Header.Render("spindle"))
	b.WriteString("  ")
	b.WriteString(m.styles.Muted.Render(strings.Join(m.ctrl.State().Path, " > ")))
	b.WriteString("\n\n")

	if m.summary != nil {
		b.WriteString(m.summaryView())
		b.WriteString("\n")
		b.WriteString(m.styles.Help.Render("enter/r: restart  q: quit"))
		return b.String()
	}

	b.WriteString(m.styles.Title.Render(m.step.Title))
	b.WriteString("\n")
	panels := make([]string, 0, len(m.widgets))
	for i, w := range m.widgets {
		style := m.styles.Panel
		if i == m.focus {
			style = m.styles.Focused
		}
		panels = append(panels, style.Render(w.View(m.styles, i == m.focus)))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, panels...))
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(m.styles.Error.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Help.Render("tab: next panel  b: back  ctrl+r: restart  q: quit"))
	return b.String()
}

func (m *Model) summaryView() string {
	sum := *m.summary
	d := session.SummaryDetails(m.content, sum)
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Summary"))
	b.WriteString("\n")

	line := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%-18s %s\n", name+":", m.styles.Selected.Render(value))
		}
	}
	list := func(name string, values []string) {
		if len(values) > 0 {
			line(name, strings.Join(values, ", "))
		}
	}
	line("Path", d.Branch)
	line("P", d.PSub)
	line("P wheel", d.PWheel)
	line("FS initial", d.FSInitial)
	line("Shib style", d.ShibStyle)
	line("Corset detail", d.CorsetDetail)
	line("CL", d.TradCL)
	line("FP mode", d.FPMode)
	list("FP selected", d.FPSelected)
	list("FP retained", d.FPRetained)
	list("FP blocked", d.FPBlocked)
	line("F-F / BSC", d.FFBsc)
	line("Location", d.Location)
	line("Accessories", d.AccessoriesWheel)
	list("Accessory items", d.Accessories)

	if len(sum.Wheels) > 0 {
		b.WriteString("\n")
		b.WriteString(m.styles.Title.Render("Wheels"))
		b.WriteString("\n")
		for _, w := range sum.Wheels {
			fmt.Fprintf(&b, "  %s: %s\n", w.Title, w.Label)
		}
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render(fmt.Sprintf("%d button presses, session %s", len(sum.Buttons), sum.SessionID)))
	b.WriteString("\n")
	return b.String()
}
