// File: internal/session/details.go
package session

import (
	"github.com/xkilldash9x/spindle/internal/flow"
)

// Details is the branch-specific part of a summary with wheel keys turned back into
// display labels. Empty fields were never reached on the path taken.
type Details struct {
	Branch           string   `json:"branch" yaml:"branch"`
	PSub             string   `json:"p_sub,omitempty" yaml:"p_sub,omitempty"`
	PWheel           string   `json:"p_wheel,omitempty" yaml:"p_wheel,omitempty"`
	FSInitial        string   `json:"fs_initial,omitempty" yaml:"fs_initial,omitempty"`
	ShibStyle        string   `json:"shib_style,omitempty" yaml:"shib_style,omitempty"`
	CorsetDetail     string   `json:"corset_detail,omitempty" yaml:"corset_detail,omitempty"`
	TradCL           string   `json:"trad_cl,omitempty" yaml:"trad_cl,omitempty"`
	FPMode           string   `json:"fp_mode,omitempty" yaml:"fp_mode,omitempty"`
	FPSelected       []string `json:"fp_selected,omitempty" yaml:"fp_selected,omitempty"`
	FPRetained       []string `json:"fp_retained,omitempty" yaml:"fp_retained,omitempty"`
	FPBlocked        []string `json:"fp_blocked,omitempty" yaml:"fp_blocked,omitempty"`
	FFBsc            string   `json:"ff_bsc,omitempty" yaml:"ff_bsc,omitempty"`
	Location         string   `json:"location,omitempty" yaml:"location,omitempty"`
	AccessoriesWheel string   `json:"accessories_wheel,omitempty" yaml:"accessories_wheel,omitempty"`
	Accessories      []string `json:"accessories,omitempty" yaml:"accessories,omitempty"`
}

// DetailsFrom reads the slots of a summary.
func DetailsFrom(content Content, slots map[string]any) Details {
	str := func(path string) string {
		v, _ := slots[path].(string)
		return v
	}
	list := func(path string) []string {
		v, _ := slots[path].([]string)
		return v
	}
	label := func(wheelID, path string) string {
		key := str(path)
		if key == "" {
			return ""
		}
		if def, ok := content.Wheel(wheelID); ok {
			for _, o := range def.Segments {
				if o.Key == key {
					return o.Label
				}
			}
		}
		return key
	}
	choice := func(ref, path string) string {
		key := str(path)
		for _, opt := range choices[ref] {
			if opt.Key == key {
				return opt.Label
			}
		}
		return key
	}

	d := Details{
		Branch:           choice(ChoiceBranch, SlotBranch),
		PSub:             choice(ChoicePSub, SlotPSub),
		FSInitial:        label(WheelFSInitial, SlotFSInitial),
		ShibStyle:        label(WheelShibStyle, SlotShibStyle),
		CorsetDetail:     label(WheelCorsetDetail, SlotCorsetDetail),
		TradCL:           choice(ChoiceTradCL, SlotTradCL),
		FPMode:           choice(ChoiceFPMode, SlotFPMode),
		FPSelected:       list(SlotFPSelected),
		FPRetained:       list(SlotFPRetained),
		FPBlocked:        list(SlotFPBlocked),
		FFBsc:            label(WheelFFBsc, SlotFFBsc),
		Location:         label(WheelLocation, SlotLocation),
		AccessoriesWheel: label(WheelAccessoriesYN, SlotAccessoriesWheel),
		Accessories:      list(SlotAccessoryItems),
	}
	switch d.PSub {
	case "S":
		d.PWheel = label(WheelPS, SlotPWheel)
	case "D":
		d.PWheel = label(WheelPD, SlotPWheel)
	}
	return d
}

// SummaryDetails is DetailsFrom over a flow summary.
func SummaryDetails(content Content, sum flow.Summary) Details {
	return DetailsFrom(content, sum.Slots)
}
