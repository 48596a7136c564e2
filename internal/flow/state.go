// File: internal/flow/state.go
package flow

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Record is one entry of the append-only result history.
type Record struct {
	Seq       int       `json:"seq"`
	Step      string    `json:"step"`
	Component Component `json:"component"`
	Outcome   string    `json:"outcome"`
	Result    Result    `json:"result"`
}

// ButtonPress is one user action, logged with the screen it happened on.
type ButtonPress struct {
	Label   string `json:"label"`
	Context string `json:"context"`
}

// State is everything one session has collected. It is owned by a Controller; callers
// only ever see clones.
type State struct {
	ID uuid.UUID `json:"id"`
	// Path is the chain of steps leading to the current one. Back pops it.
	Path []string `json:"path"`
	// History holds every component result ever reported, including those from paths
	// later abandoned through Back. It is never pruned.
	History []Record      `json:"history"`
	Buttons []ButtonPress `json:"buttons"`
	// Slots hold derived values keyed by dotted path, e.g. "fs.location".
	Slots map[string]any `json:"slots"`
}

// NewState returns an empty state with a fresh id.
func NewState() *State {
	return &State{ID: uuid.New(), Slots: make(map[string]any)}
}

// Set stores v under path.
func (s *State) Set(path string, v any) {
	if s.Slots == nil {
		s.Slots = make(map[string]any)
	}
	s.Slots[path] = v
}

// Get returns the value stored under path.
func (s *State) Get(path string) (any, bool) {
	v, ok := s.Slots[path]
	return v, ok
}

// String returns the string stored under path, or "".
func (s *State) String(path string) string {
	v, _ := s.Slots[path].(string)
	return v
}

// Reset clears each path and every slot below it. Resetting "fs" clears "fs",
// "fs.location" and "fs.fp.retained", but not "fsx".
func (s *State) Reset(paths ...string) {
	for _, p := range paths {
		prefix := p + "."
		for k := range s.Slots {
			if k == p || strings.HasPrefix(k, prefix) {
				delete(s.Slots, k)
			}
		}
	}
}

// SlotKeys returns the slot paths in sorted order.
func (s *State) SlotKeys() []string {
	keys := make([]string, 0, len(s.Slots))
	for k := range s.Slots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Press logs a user action.
func (s *State) Press(label, context string) {
	s.Buttons = append(s.Buttons, ButtonPress{Label: label, Context: context})
}

// Clone returns a deep copy of the containers. Slot values and results are shared and
// are expected to be treated as immutable.
func (s *State) Clone() *State {
	out := &State{
		ID:      s.ID,
		Path:    append([]string(nil), s.Path...),
		History: append([]Record(nil), s.History...),
		Buttons: append([]ButtonPress(nil), s.Buttons...),
		Slots:   make(map[string]any, len(s.Slots)),
	}
	for k, v := range s.Slots {
		out.Slots[k] = v
	}
	return out
}

// Current returns the step at the end of the path.
func (s *State) Current() string {
	if len(s.Path) == 0 {
		return ""
	}
	return s.Path[len(s.Path)-1]
}
