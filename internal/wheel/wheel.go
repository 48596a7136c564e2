// File: internal/wheel/wheel.go
package wheel

import (
	"fmt"
	"sync"
)

// Definition is the static configuration for a wheel: the seed option list a step
// copies into a fresh Wheel each time it is entered.
type Definition struct {
	ID       string   `mapstructure:"id" yaml:"id" json:"id"`
	Title    string   `mapstructure:"title" yaml:"title" json:"title"`
	Segments []Option `mapstructure:"segments" yaml:"segments" json:"segments"`
}

// Validate checks that the definition can back a wheel.
func (d Definition) Validate() error {
	if len(d.Segments) == 0 {
		return fmt.Errorf("wheel %q: %w", d.ID, ErrNoOptions)
	}
	if err := ValidateKeys(d.Segments); err != nil {
		return fmt.Errorf("wheel %q: %w", d.ID, err)
	}
	return nil
}

// Wheel is one editable option-list instance. Labels and weights may change between
// spins; Layout and Sample always read the current values, so an edit takes effect on
// the very next call.
type Wheel struct {
	id    string
	title string

	mu   sync.Mutex
	opts []Option
}

// New creates a wheel from a definition, copying its segments so edits never leak back
// into shared configuration.
func New(def Definition) *Wheel {
	opts := Clone(def.Segments)
	for i := range opts {
		opts[i].Weight = CoerceWeight(opts[i].Weight)
	}
	title := def.Title
	if title == "" {
		title = def.ID
	}
	return &Wheel{id: def.ID, title: title, opts: opts}
}

// ID returns the wheel identifier.
func (w *Wheel) ID() string { return w.id }

// Title returns the display title, defaulting to the ID.
func (w *Wheel) Title() string { return w.title }

// Len returns the number of segments.
func (w *Wheel) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.opts)
}

// Options returns a snapshot of the current segments.
func (w *Wheel) Options() []Option {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Clone(w.opts)
}

// SetWeight applies raw editor input to segment i. Input that is not a usable
// number becomes 0.
func (w *Wheel) SetWeight(i int, raw string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i < 0 || i >= len(w.opts) {
		return fmt.Errorf("wheel %q: segment %d out of range", w.id, i)
	}
	w.opts[i].Weight = ParseWeight(raw)
	return nil
}

// SetLabel renames segment i. An empty label falls back to "Option N".
func (w *Wheel) SetLabel(i int, label string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i < 0 || i >= len(w.opts) {
		return fmt.Errorf("wheel %q: segment %d out of range", w.id, i)
	}
	if label == "" {
		label = fmt.Sprintf("Option %d", i+1)
	}
	w.opts[i].Label = label
	return nil
}

// Layout computes the current segment geometry.
func (w *Wheel) Layout() ([]Interval, error) {
	return Layout(w.Options())
}

// Sample draws an index from the current weights.
func (w *Wheel) Sample(rng Rand) (int, error) {
	return Sample(w.Options(), rng)
}
