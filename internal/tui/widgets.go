// File: internal/tui/widgets.go
package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xkilldash9x/spindle/internal/animator"
	"github.com/xkilldash9x/spindle/internal/flow"
	"github.com/xkilldash9x/spindle/internal/selection"
	"github.com/xkilldash9x/spindle/internal/session"
	"github.com/xkilldash9x/spindle/internal/wheel"
)

// widget presents one component of the current step.
type widget interface {
	Component() flow.Component
	HandleKey(m *Model, key string) tea.Cmd
	View(s Styles, focused bool) string
	Done() bool
}

// framed widgets animate on the frame clock and report whether they still run.
type framed interface {
	onFrame(m *Model, now time.Time) bool
}

// reeled widgets animate on the reel clock.
type reeled interface {
	onReel(m *Model) bool
}

// editor widgets can capture the keyboard, e.g. while a label is typed.
type editor interface {
	Editing() bool
}

func (m *Model) newWidget(comp flow.Component, st *flow.State) (widget, error) {
	switch comp.Kind {
	case flow.KindChoice:
		opts := session.ChoiceOptions(comp.Ref)
		if len(opts) == 0 {
			return nil, fmt.Errorf("no options for choice %q", comp.Ref)
		}
		return &choiceWidget{ref: comp.Ref, options: opts}, nil
	case flow.KindWheel:
		def, ok := m.content.Wheel(comp.Ref)
		if !ok {
			return nil, fmt.Errorf("%w: %s", session.ErrMissingWheel, comp.Ref)
		}
		cfg := m.opts.Animation
		cfg.Rng = m.childRng()
		return &wheelWidget{
			ref:     comp.Ref,
			wheel:   wheel.New(def),
			spinner: animator.NewSpinner(cfg, m.logger),
		}, nil
	case flow.KindPicker:
		r, err := selection.NewResolver(m.content.Catalog, m.content.Rules, m.logger, session.ExcludedGroups(st)...)
		if err != nil {
			return nil, err
		}
		return &pickerWidget{ref: comp.Ref, resolver: r, entries: r.Available()}, nil
	case flow.KindDraw:
		r, err := selection.NewResolver(m.content.Catalog, m.content.Rules, m.logger, session.ExcludedGroups(st)...)
		if err != nil {
			return nil, err
		}
		return &drawWidget{ref: comp.Ref, resolver: r}, nil
	case flow.KindSubset:
		return &subsetWidget{ref: comp.Ref}, nil
	default:
		return nil, fmt.Errorf("unsupported component kind %q", comp.Kind)
	}
}

// cursorKey moves a cursor within [0, n).
func cursorKey(key string, cursor, n int) int {
	switch key {
	case "up", "k":
		if cursor > 0 {
			cursor--
		}
	case "down", "j":
		if cursor < n-1 {
			cursor++
		}
	}
	return cursor
}

func marker(s Styles, on bool, glyph string) string {
	if on {
		return s.Pointer.Render(glyph)
	}
	return " "
}

// -- Choice --

type choiceWidget struct {
	ref     string
	options []session.ChoiceOption
	cursor  int
	done    bool
}

func (w *choiceWidget) Component() flow.Component {
	return flow.Component{Kind: flow.KindChoice, Ref: w.ref}
}

func (w *choiceWidget) Done() bool { return w.done }

func (w *choiceWidget) HandleKey(m *Model, key string) tea.Cmd {
	if w.done {
		return nil
	}
	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(w.options) {
		w.cursor = n - 1
		key = "enter"
	}
	switch key {
	case "enter", " ", "space":
		opt := w.options[w.cursor]
		w.done = true
		m.report(flow.ChoiceResult{Ref: w.ref, Key: opt.Key, Label: opt.Label})
	default:
		w.cursor = cursorKey(key, w.cursor, len(w.options))
	}
	return nil
}

func (w *choiceWidget) View(s Styles, focused bool) string {
	var b strings.Builder
	for i, opt := range w.options {
		label := fmt.Sprintf("%d. %s", i+1, opt.Label)
		if focused && i == w.cursor {
			label = s.Selected.Render(label)
		}
		fmt.Fprintf(&b, "%s %s\n", marker(s, focused && i == w.cursor, ">"), label)
	}
	return strings.TrimRight(b.String(), "\n")
}

// -- Wheel --

type wheelWidget struct {
	ref     string
	wheel   *wheel.Wheel
	spinner *animator.Spinner
	cursor  int
	landed  *wheel.Option

	editing bool
	buf     []rune
}

func (w *wheelWidget) Component() flow.Component {
	return flow.Component{Kind: flow.KindWheel, Ref: w.ref}
}

func (w *wheelWidget) Done() bool { return w.landed != nil }

// Editing reports whether a segment label is being typed.
func (w *wheelWidget) Editing() bool { return w.editing }

func (w *wheelWidget) HandleKey(m *Model, key string) tea.Cmd {
	if w.landed != nil {
		return nil
	}
	if w.editing {
		w.editKey(m, key)
		return nil
	}
	switch key {
	case "enter", " ", "space":
		if w.spinner.Busy() {
			return nil
		}
		m.ctrl.Press(fmt.Sprintf("Spin (%s)", w.wheel.Title()))
		started, err := w.spinner.Start(w.wheel.Options(), animator.Callbacks{
			OnComplete: func(chosen wheel.Option, snapshot []wheel.Option) {
				w.landed = &chosen
				m.report(flow.SpinResult{Ref: w.ref, Title: w.wheel.Title(), Option: chosen, Snapshot: snapshot})
			},
		}, m.opts.Now())
		if err != nil {
			m.status = err.Error()
			return nil
		}
		if !started {
			return nil
		}
		return m.frameTick()
	case "+", "=", "-":
		if w.spinner.Busy() {
			return nil
		}
		opts := w.wheel.Options()
		weight := opts[w.cursor].Weight
		if key == "-" {
			weight--
		} else {
			weight++
		}
		if weight < 0 {
			weight = 0
		}
		if err := w.wheel.SetWeight(w.cursor, strconv.FormatFloat(weight, 'f', -1, 64)); err != nil {
			m.status = err.Error()
		}
	case "e":
		if w.spinner.Busy() {
			return nil
		}
		w.editing = true
		w.buf = []rune(w.wheel.Options()[w.cursor].Label)
	default:
		w.cursor = cursorKey(key, w.cursor, w.wheel.Len())
	}
	return nil
}

// editKey feeds one key to the label being typed. Enter commits, esc cancels.
func (w *wheelWidget) editKey(m *Model, key string) {
	switch key {
	case "enter":
		w.editing = false
		if err := w.wheel.SetLabel(w.cursor, strings.TrimSpace(string(w.buf))); err != nil {
			m.status = err.Error()
		}
		w.buf = nil
	case "esc":
		w.editing = false
		w.buf = nil
	case "backspace":
		if len(w.buf) > 0 {
			w.buf = w.buf[:len(w.buf)-1]
		}
	case "space":
		w.buf = append(w.buf, ' ')
	default:
		if r := []rune(key); len(r) == 1 {
			w.buf = append(w.buf, r[0])
		}
	}
}

func (w *wheelWidget) onFrame(_ *Model, now time.Time) bool {
	if !w.spinner.Busy() {
		return false
	}
	w.spinner.Advance(now)
	return w.spinner.Busy()
}

// underPointer returns the index of the segment at the pointer for a wheel turned by
// rotation, or -1 when there is no layout.
func underPointer(intervals []wheel.Interval, rotation float64) int {
	a := wheel.ReferenceAngle + wheel.NormalizeAngle(-rotation)
	for i, iv := range intervals {
		if a >= iv.Start && a < iv.End {
			return i
		}
	}
	if len(intervals) == 0 {
		return -1
	}
	return len(intervals) - 1
}

func (w *wheelWidget) View(s Styles, focused bool) string {
	var b strings.Builder
	b.WriteString(s.Title.Render(w.wheel.Title()))
	b.WriteString("\n")

	opts := w.wheel.Options()
	state := w.spinner.State()
	pointer := -1
	if state.Active {
		pointer = underPointer(w.spinner.Plan().Intervals, state.Rotation)
	} else if state.Chosen >= 0 {
		pointer = state.Chosen
	}

	intervals, _ := w.wheel.Layout()
	for i, o := range opts {
		share := 0.0
		if i < len(intervals) {
			share = 100 * intervals[i].Span() / wheel.FullTurn
		}
		label := fmt.Sprintf("%-14s w=%-5g %5.1f%%", o.Label, o.Weight, share)
		if focused && i == w.cursor && !state.Active && w.landed == nil {
			label = s.Selected.Render(label)
		}
		fmt.Fprintf(&b, "%s %s\n", marker(s, i == pointer, "▶"), label)
	}

	switch {
	case w.landed != nil:
		b.WriteString(s.Selected.Render("Landed: " + w.landed.Label))
	case state.Active:
		b.WriteString(s.Warning.Render("Spinning..."))
	case w.editing:
		b.WriteString(s.Warning.Render("Label: " + string(w.buf) + "_"))
		b.WriteString("\n")
		b.WriteString(s.Muted.Render("enter: save  esc: cancel"))
	default:
		b.WriteString(s.Muted.Render("enter: spin  +/-: weight  e: label"))
	}
	return b.String()
}

// -- Picker --

type pickerWidget struct {
	ref      string
	resolver *selection.Resolver
	entries  selection.Catalog
	sel      selection.Selection
	cursor   int
	note     string

	resolution *selection.Resolution
	reels      map[int]*animator.Reel
	faces      map[int]string
	done       bool
}

func (w *pickerWidget) Component() flow.Component {
	return flow.Component{Kind: flow.KindPicker, Ref: w.ref}
}

func (w *pickerWidget) Done() bool { return w.done }

func (w *pickerWidget) HandleKey(m *Model, key string) tea.Cmd {
	if w.resolution != nil {
		return nil
	}
	switch key {
	case " ", "space":
		if len(w.entries) == 0 {
			return nil
		}
		e := w.entries[w.cursor]
		res := w.resolver.Toggle(w.sel, e.ID)
		switch res.Rejection {
		case selection.RejectNone:
			w.sel = res.Selection
			w.note = ""
			if len(res.Cleared) > 0 {
				w.note = "cleared " + strings.Join(res.Cleared, ", ")
			}
		case selection.RejectBlocked:
			w.note = fmt.Sprintf("%s is blocked by %s", e.Label, res.BlockedBy)
		default:
			w.note = fmt.Sprintf("%s is unavailable", e.Label)
		}
	case "enter":
		m.ctrl.Press("Resolve")
		res := w.resolver.Resolve(w.sel, m.rng)
		w.resolution = &res
		w.reels = make(map[int]*animator.Reel)
		w.faces = make(map[int]string)
		for i, out := range res.Outcomes {
			if out.Volatile {
				w.reels[i] = animator.NewKeepDiscardReel(out.Kept, m.childRng())
			}
		}
		if len(w.reels) == 0 {
			w.finish(m)
			return nil
		}
		return m.reelTick()
	default:
		w.cursor = cursorKey(key, w.cursor, len(w.entries))
	}
	return nil
}

func (w *pickerWidget) finish(m *Model) {
	w.done = true
	m.report(flow.PickResult{Ref: w.ref, Resolution: *w.resolution})
}

func (w *pickerWidget) onReel(m *Model) bool {
	if w.resolution == nil || w.done {
		return false
	}
	settled := true
	for i, r := range w.reels {
		if r.Done() {
			continue
		}
		w.faces[i], _ = r.Step()
		if !r.Done() {
			settled = false
		}
	}
	if settled {
		w.finish(m)
		return false
	}
	return true
}

func (w *pickerWidget) View(s Styles, focused bool) string {
	var b strings.Builder
	b.WriteString(s.Title.Render("FP selection"))
	b.WriteString("\n")

	if w.resolution != nil {
		for i, out := range w.resolution.Outcomes {
			face := "kept"
			if out.Volatile {
				face = w.faces[i]
				if face == "" {
					face = "..."
				}
			}
			fmt.Fprintf(&b, "  %-10s %s\n", out.Entry.Label, face)
		}
		if len(w.resolution.Outcomes) == 0 {
			b.WriteString(s.Muted.Render("  nothing selected"))
			b.WriteString("\n")
		}
		return strings.TrimRight(b.String(), "\n")
	}

	blocked := map[selection.Group]bool{}
	for _, g := range w.resolver.BlockedGroups(w.sel) {
		blocked[g] = true
	}
	for i, e := range w.entries {
		box := "[ ]"
		if w.sel.Has(e.ID) {
			box = "[x]"
		}
		label := fmt.Sprintf("%s %s", box, e.Label)
		switch {
		case blocked[e.Group]:
			label = s.Muted.Render(label)
		case focused && i == w.cursor:
			label = s.Selected.Render(label)
		}
		fmt.Fprintf(&b, "%s %s\n", marker(s, focused && i == w.cursor, ">"), label)
	}
	if w.note != "" {
		b.WriteString(s.Warning.Render(w.note))
		b.WriteString("\n")
	}
	b.WriteString(s.Muted.Render("space: toggle  enter: resolve"))
	return b.String()
}

// -- Draw --

type drawWidget struct {
	ref      string
	resolver *selection.Resolver
	draws    selection.Draws
	reels    map[int]*animator.Reel
	faces    map[int]string
	done     bool
}

func (w *drawWidget) Component() flow.Component {
	return flow.Component{Kind: flow.KindDraw, Ref: w.ref}
}

func (w *drawWidget) Done() bool { return w.done }

func (w *drawWidget) HandleKey(m *Model, key string) tea.Cmd {
	if w.done || w.draws != nil || (key != "enter" && key != " " && key != "space") {
		return nil
	}
	m.ctrl.Press("Draw")
	w.draws = w.resolver.DrawAll(m.rng)
	w.reels = make(map[int]*animator.Reel)
	w.faces = make(map[int]string)
	for i, d := range w.draws {
		if d.Status != selection.DrawPicked {
			continue
		}
		var labels []string
		for _, e := range w.resolver.Available() {
			if e.Group == d.Group {
				labels = append(labels, e.Label)
			}
		}
		w.reels[i] = animator.NewItemReel(labels, d.Entry.Label, m.childRng())
	}
	if len(w.reels) == 0 {
		w.finish(m)
		return nil
	}
	return m.reelTick()
}

func (w *drawWidget) finish(m *Model) {
	w.done = true
	m.report(flow.DrawResult{Ref: w.ref, Draws: w.draws})
}

func (w *drawWidget) onReel(m *Model) bool {
	if w.draws == nil || w.done {
		return false
	}
	settled := true
	for i, r := range w.reels {
		if r.Done() {
			continue
		}
		w.faces[i], _ = r.Step()
		if !r.Done() {
			settled = false
		}
	}
	if settled {
		w.finish(m)
		return false
	}
	return true
}

func (w *drawWidget) View(s Styles, _ bool) string {
	var b strings.Builder
	b.WriteString(s.Title.Render("FP draw"))
	b.WriteString("\n")
	if w.draws == nil {
		b.WriteString(s.Muted.Render("enter: draw one per group"))
		return b.String()
	}
	for i, d := range w.draws {
		switch d.Status {
		case selection.DrawPicked:
			face := w.faces[i]
			if face == "" {
				face = "..."
			}
			fmt.Fprintf(&b, "  %-6s %s\n", d.Group, face)
		case selection.DrawBlocked:
			fmt.Fprintf(&b, "  %-6s %s\n", d.Group, s.Muted.Render("blocked by "+d.BlockedBy))
		default:
			fmt.Fprintf(&b, "  %-6s %s\n", d.Group, s.Muted.Render("nothing to draw"))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// -- Subset --

type subsetWidget struct {
	ref   string
	items []string
	reels []*animator.Reel
	faces []string
	done  bool
}

func (w *subsetWidget) Component() flow.Component {
	return flow.Component{Kind: flow.KindSubset, Ref: w.ref}
}

func (w *subsetWidget) Done() bool { return w.done }

func (w *subsetWidget) HandleKey(m *Model, key string) tea.Cmd {
	if w.reels != nil || (key != "enter" && key != " " && key != "space") {
		return nil
	}
	m.ctrl.Press("Spin the reels")
	c := m.content
	n := selection.SubsetSize(c.AccessoryMin, c.AccessoryMax, m.rng)
	w.items = selection.PickSubset(c.Accessories, n, m.rng)
	w.reels = make([]*animator.Reel, len(w.items))
	w.faces = make([]string, len(w.items))
	for i, item := range w.items {
		w.reels[i] = animator.NewItemReel(c.Accessories, item, m.childRng())
	}
	return m.reelTick()
}

func (w *subsetWidget) onReel(m *Model) bool {
	if w.reels == nil || w.done {
		return false
	}
	settled := true
	for i, r := range w.reels {
		if r.Done() {
			continue
		}
		w.faces[i], _ = r.Step()
		if !r.Done() {
			settled = false
		}
	}
	if settled {
		w.done = true
		m.report(flow.SubsetResult{Ref: w.ref, Items: append([]string(nil), w.items...)})
		return false
	}
	return true
}

func (w *subsetWidget) View(s Styles, _ bool) string {
	var b strings.Builder
	b.WriteString(s.Title.Render("Accessories"))
	b.WriteString("\n")
	if w.reels == nil {
		b.WriteString(s.Muted.Render("enter: spin the reels"))
		return b.String()
	}
	for _, f := range w.faces {
		if f == "" {
			f = "..."
		}
		fmt.Fprintf(&b, "[ %-6s ] ", f)
	}
	return b.String()
}
