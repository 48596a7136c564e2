// File: internal/session/graph.go
package session

import (
	"github.com/xkilldash9x/spindle/internal/flow"
	"github.com/xkilldash9x/spindle/internal/selection"
)

// Step ids.
const (
	StepBranch        = "choice1"
	StepPSub          = "pSubChoice"
	StepPS            = "pSWheel"
	StepPD            = "pDWheel"
	StepFSInitial     = "fsInitialWheel"
	StepShibStyle     = "shibStyleWheel"
	StepCorsetDetail  = "corsetDetailWheel"
	StepTradCL        = "tradCLChoice"
	StepFPMode        = "fpModeChoice"
	StepFPPicker      = "fpPicker"
	StepFPDraw        = "fpDraw"
	StepLocation      = "locationWheel"
	StepAccessoriesYN = "accessoriesYNWheel"
	StepAccessories   = "accessoriesPicker"
	StepSummary       = "summary"
)

// Choice and component refs that are not wheel ids.
const (
	ChoiceBranch      = "branch"
	ChoicePSub        = "pSub"
	ChoiceTradCL      = "tradCL"
	ChoiceFPMode      = "fpMode"
	PickerFP          = "fp"
	DrawFP            = "fpRandom"
	SubsetAccessories = "accessories"
)

// Slot paths written by the graph.
const (
	SlotBranch           = "branch"
	SlotP                = "p"
	SlotPSub             = "p.sub"
	SlotPWheel           = "p.wheel"
	SlotFS               = "fs"
	SlotFSInitial        = "fs.initial"
	SlotShib             = "fs.shib"
	SlotShibStyle        = "fs.shib.style"
	SlotCorsetDetail     = "fs.shib.corset"
	SlotTrad             = "fs.trad"
	SlotTradCL           = "fs.trad.cl"
	SlotFPMode           = "fs.trad.mode"
	SlotFP               = "fs.trad.fp"
	SlotFPSelected       = "fs.trad.fp.selected"
	SlotFPRetained       = "fs.trad.fp.retained"
	SlotFPBlocked        = "fs.trad.fp.blocked"
	SlotFFBsc            = "fs.trad.ff"
	SlotLocation         = "fs.location"
	SlotAccessories      = "fs.accessories"
	SlotAccessoriesWheel = "fs.accessories.wheel"
	SlotAccessoryItems   = "fs.accessories.items"
)

// ChoiceOption is one button of a choice component.
type ChoiceOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

var choices = map[string][]ChoiceOption{
	ChoiceBranch: {{Key: "P", Label: "P"}, {Key: "FS", Label: "FS"}},
	ChoicePSub:   {{Key: "S", Label: "S"}, {Key: "D", Label: "D"}},
	ChoiceTradCL: {{Key: "CL", Label: "CL"}, {Key: "NoCL", Label: "No CL"}},
	ChoiceFPMode: {{Key: "pick", Label: "Pick by hand"}, {Key: "random", Label: "Randomize"}},
}

// ChoiceOptions returns the buttons of a choice component.
func ChoiceOptions(ref string) []ChoiceOption {
	return append([]ChoiceOption(nil), choices[ref]...)
}

// ExcludedGroups returns the catalog groups the FP picker and the FP draw must skip for
// the session state st. Choosing "No CL" removes the whole CL group.
func ExcludedGroups(st *flow.State) []selection.Group {
	if st.String(SlotTradCL) == "NoCL" {
		return []selection.Group{GroupCL}
	}
	return nil
}

func wheelStep(id, title, ref string, slot string, resets []string, next []string, tr flow.TransitionFunc) flow.Step {
	return flow.Step{
		ID:            id,
		Title:         title,
		Activates:     []flow.Component{{Kind: flow.KindWheel, Ref: ref}},
		ResetsOnEntry: resets,
		Next:          next,
		Record: func(st *flow.State, res flow.Result) {
			if spin, ok := res.(flow.SpinResult); ok {
				st.Set(slot, spin.Option.Key)
			}
		},
		Transition: tr,
	}
}

func choiceStep(id, title, ref, slot string, resets []string, routes map[string]string) flow.Step {
	var next []string
	for _, opt := range choices[ref] {
		next = append(next, routes[opt.Key])
	}
	return flow.Step{
		ID:            id,
		Title:         title,
		Activates:     []flow.Component{{Kind: flow.KindChoice, Ref: ref}},
		ResetsOnEntry: resets,
		Next:          next,
		Record: func(st *flow.State, res flow.Result) {
			if c, ok := res.(flow.ChoiceResult); ok {
				st.Set(slot, c.Key)
			}
		},
		Transition: flow.ByKey(ref, routes),
	}
}

// NewGraph builds the decision graph over content. Every branch head resets the state
// below it, so an abandoned branch never shows up in the summary.
func NewGraph(content Content) (*flow.Graph, error) {
	if err := content.Validate(); err != nil {
		return nil, err
	}
	title := func(id string) string {
		def, _ := content.Wheel(id)
		if def.Title == "" {
			return id
		}
		return def.Title
	}

	return flow.NewGraph(StepBranch,
		choiceStep(StepBranch, "Step 1: Choose path", ChoiceBranch, SlotBranch,
			[]string{SlotBranch, SlotP, SlotFS},
			map[string]string{"P": StepPSub, "FS": StepFSInitial}),

		choiceStep(StepPSub, "P branch", ChoicePSub, SlotPSub,
			[]string{SlotP},
			map[string]string{"S": StepPS, "D": StepPD}),
		wheelStep(StepPS, title(WheelPS), WheelPS, SlotPWheel,
			[]string{SlotPWheel}, []string{StepSummary}, flow.Goto(StepSummary)),
		wheelStep(StepPD, title(WheelPD), WheelPD, SlotPWheel,
			[]string{SlotPWheel}, []string{StepSummary}, flow.Goto(StepSummary)),

		wheelStep(StepFSInitial, title(WheelFSInitial), WheelFSInitial, SlotFSInitial,
			[]string{SlotFS},
			[]string{StepShibStyle, StepTradCL, StepLocation},
			flow.ByKey(WheelFSInitial, map[string]string{
				"shib":        StepShibStyle,
				"trad":        StepTradCL,
				"outfitDelay": StepLocation,
				"oil":         StepLocation,
			})),
		wheelStep(StepShibStyle, title(WheelShibStyle), WheelShibStyle, SlotShibStyle,
			[]string{SlotShib, SlotLocation, SlotAccessories},
			[]string{StepCorsetDetail, StepLocation},
			flow.ByKey(WheelShibStyle, map[string]string{
				"corset":     StepCorsetDetail,
				"restrained": StepLocation,
			})),
		wheelStep(StepCorsetDetail, title(WheelCorsetDetail), WheelCorsetDetail, SlotCorsetDetail,
			[]string{SlotCorsetDetail, SlotLocation, SlotAccessories},
			[]string{StepLocation}, flow.Goto(StepLocation)),

		choiceStep(StepTradCL, "FS branch - Trad", ChoiceTradCL, SlotTradCL,
			[]string{SlotTrad, SlotLocation, SlotAccessories},
			map[string]string{"CL": StepFPMode, "NoCL": StepFPMode}),
		choiceStep(StepFPMode, "FP mode", ChoiceFPMode, SlotFPMode,
			[]string{SlotFPMode, SlotFP, SlotFFBsc, SlotLocation, SlotAccessories},
			map[string]string{"pick": StepFPPicker, "random": StepFPDraw}),
		fpStep(StepFPPicker, "FP selection", flow.Component{Kind: flow.KindPicker, Ref: PickerFP}),
		fpStep(StepFPDraw, "FP draw", flow.Component{Kind: flow.KindDraw, Ref: DrawFP}),

		wheelStep(StepLocation, title(WheelLocation), WheelLocation, SlotLocation,
			[]string{SlotLocation, SlotAccessories},
			[]string{StepAccessoriesYN}, flow.Goto(StepAccessoriesYN)),
		wheelStep(StepAccessoriesYN, title(WheelAccessoriesYN), WheelAccessoriesYN, SlotAccessoriesWheel,
			[]string{SlotAccessories},
			[]string{StepAccessories, StepSummary},
			flow.ByKey(WheelAccessoriesYN, map[string]string{
				"yes": StepAccessories,
				"no":  StepSummary,
			})),
		flow.Step{
			ID:            StepAccessories,
			Title:         "Accessories",
			Activates:     []flow.Component{{Kind: flow.KindSubset, Ref: SubsetAccessories}},
			ResetsOnEntry: []string{SlotAccessoryItems},
			Next:          []string{StepSummary},
			Record: func(st *flow.State, res flow.Result) {
				if sub, ok := res.(flow.SubsetResult); ok {
					st.Set(SlotAccessoryItems, append([]string(nil), sub.Items...))
				}
			},
			Transition: flow.Goto(StepSummary),
		},

		flow.Step{ID: StepSummary, Title: "Summary"},
	)
}

// fpStep presents an FP component side by side with the F-F/BSC wheel.
func fpStep(id, title string, fp flow.Component) flow.Step {
	return flow.Step{
		ID:            id,
		Title:         title,
		Activates:     []flow.Component{fp, {Kind: flow.KindWheel, Ref: WheelFFBsc}},
		ResetsOnEntry: []string{SlotFP, SlotFFBsc, SlotLocation, SlotAccessories},
		Next:          []string{StepLocation},
		Record:        recordFP,
		Transition:    flow.Goto(StepLocation),
	}
}

func recordFP(st *flow.State, res flow.Result) {
	switch r := res.(type) {
	case flow.PickResult:
		st.Set(SlotFPSelected, entryLabels(r.Resolution.Selected))
		st.Set(SlotFPRetained, entryLabels(r.Resolution.Retained))
	case flow.DrawResult:
		// A draw has no keep/discard pass: everything drawn is retained.
		picked := entryLabels(r.Draws.Picked())
		st.Set(SlotFPSelected, picked)
		st.Set(SlotFPRetained, picked)
		var blocked []string
		for _, d := range r.Draws {
			if d.Status == selection.DrawBlocked {
				blocked = append(blocked, string(d.Group))
			}
		}
		if len(blocked) > 0 {
			st.Set(SlotFPBlocked, blocked)
		}
	case flow.SpinResult:
		st.Set(SlotFFBsc, r.Option.Key)
	}
}

func entryLabels(es []selection.Entry) []string {
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, e.Label)
	}
	return out
}
