// File: internal/flow/component.go
package flow

import (
	"strings"

	"github.com/xkilldash9x/spindle/internal/selection"
	"github.com/xkilldash9x/spindle/internal/wheel"
)

// Kind identifies the sort of component a step activates.
type Kind string

const (
	// KindChoice is a plain set of buttons.
	KindChoice Kind = "choice"
	// KindWheel is a weighted wheel driven through a spinner.
	KindWheel Kind = "wheel"
	// KindPicker is a manual multi-select over a catalog, finished by a resolution pass.
	KindPicker Kind = "picker"
	// KindDraw is a fully randomized one-per-group catalog draw.
	KindDraw Kind = "draw"
	// KindSubset is a random pick of a few items without replacement.
	KindSubset Kind = "subset"
)

// Component names one interactive element of a step. Ref is unique within the step and
// tells the host which wheel, catalog or choice set to present.
type Component struct {
	Kind Kind   `json:"kind"`
	Ref  string `json:"ref"`
}

// Result is the typed value a component hands back when it finishes.
type Result interface {
	ComponentRef() string
	Kind() Kind
}

// ChoiceResult is the button pressed on a choice component.
type ChoiceResult struct {
	Ref   string `json:"ref"`
	Key   string `json:"key"`
	Label string `json:"label"`
}

func (r ChoiceResult) ComponentRef() string { return r.Ref }
func (r ChoiceResult) Kind() Kind           { return KindChoice }

// SpinResult is the landed option of a wheel together with the options it was spun over.
type SpinResult struct {
	Ref      string         `json:"ref"`
	Title    string         `json:"title"`
	Option   wheel.Option   `json:"option"`
	Snapshot []wheel.Option `json:"snapshot"`
}

func (r SpinResult) ComponentRef() string { return r.Ref }
func (r SpinResult) Kind() Kind           { return KindWheel }

// PickResult is a finalized manual selection after its resolution pass.
type PickResult struct {
	Ref        string               `json:"ref"`
	Resolution selection.Resolution `json:"resolution"`
}

func (r PickResult) ComponentRef() string { return r.Ref }
func (r PickResult) Kind() Kind           { return KindPicker }

// DrawResult is a one-per-group catalog draw.
type DrawResult struct {
	Ref   string          `json:"ref"`
	Draws selection.Draws `json:"draws"`
}

func (r DrawResult) ComponentRef() string { return r.Ref }
func (r DrawResult) Kind() Kind           { return KindDraw }

// SubsetResult is a pick of items without replacement.
type SubsetResult struct {
	Ref   string   `json:"ref"`
	Items []string `json:"items"`
}

func (r SubsetResult) ComponentRef() string { return r.Ref }
func (r SubsetResult) Kind() Kind           { return KindSubset }

// Results collects the reports of one step visit, keyed by component ref.
type Results map[string]Result

// Key returns the decisive key of a choice or wheel result, or "" for other kinds and
// missing refs.
func (rs Results) Key(ref string) string {
	switch r := rs[ref].(type) {
	case ChoiceResult:
		return r.Key
	case SpinResult:
		return r.Option.Key
	default:
		return ""
	}
}

// describe renders a one-line form of a result for history records.
func describe(r Result) string {
	switch v := r.(type) {
	case ChoiceResult:
		return v.Label
	case SpinResult:
		return v.Option.Label
	case PickResult:
		return joinEntries(v.Resolution.Retained)
	case DrawResult:
		return joinEntries(v.Draws.Picked())
	case SubsetResult:
		return joinStrings(v.Items)
	default:
		return ""
	}
}

func joinEntries(es []selection.Entry) string {
	labels := make([]string, len(es))
	for i, e := range es {
		labels[i] = e.Label
	}
	return joinStrings(labels)
}

func joinStrings(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
