// File: internal/session/content.go
package session

import (
	"errors"
	"fmt"
	"slices"

	"github.com/xkilldash9x/spindle/internal/selection"
	"github.com/xkilldash9x/spindle/internal/wheel"
)

// Wheel ids the decision graph routes on.
const (
	WheelPS            = "pS"
	WheelPD            = "pD"
	WheelFSInitial     = "fsInitial"
	WheelShibStyle     = "shibStyle"
	WheelCorsetDetail  = "corsetDetail"
	WheelFFBsc         = "ffBsc"
	WheelLocation      = "location"
	WheelAccessoriesYN = "accessoriesYN"
)

// Catalog groups of the FP picker.
const (
	GroupCL    selection.Group = "CL"
	GroupJB    selection.Group = "JB"
	GroupOther selection.Group = "Other"
)

var (
	// ErrMissingWheel is returned when content lacks a wheel or a key the graph routes on.
	ErrMissingWheel = errors.New("session: wheel missing from content")
	// ErrUnroutedSegment is returned when a branching wheel has a segment the graph
	// has no route for.
	ErrUnroutedSegment = errors.New("session: wheel segment has no route")
)

// Content is the configuration data a session presents: wheel seeds, the picker catalog
// and the accessory list. The graph shape itself is fixed.
type Content struct {
	Wheels       []wheel.Definition `mapstructure:"wheels" yaml:"wheels" json:"wheels"`
	Catalog      selection.Catalog  `mapstructure:"catalog" yaml:"catalog" json:"catalog"`
	Rules        selection.Rules    `mapstructure:"rules" yaml:"rules" json:"rules"`
	Accessories  []string           `mapstructure:"accessories" yaml:"accessories" json:"accessories"`
	AccessoryMin int                `mapstructure:"accessory_min" yaml:"accessory_min" json:"accessory_min"`
	AccessoryMax int                `mapstructure:"accessory_max" yaml:"accessory_max" json:"accessory_max"`
}

// DefaultContent returns the stock wheels, catalog and accessories.
func DefaultContent() Content {
	return Content{
		Wheels: []wheel.Definition{
			{ID: WheelPS, Title: "P branch - S path wheel", Segments: []wheel.Option{
				{Key: "jb", Label: "JB", Weight: 1},
				{Key: "nhj", Label: "NHJ", Weight: 1},
				{Key: "tw", Label: "TW", Weight: 1},
				{Key: "fl", Label: "FL", Weight: 1},
			}},
			{ID: WheelPD, Title: "P branch - D path wheel", Segments: []wheel.Option{
				{Key: "oil_he", Label: "Oil+HE", Weight: 40},
				{Key: "no_oil_fp", Label: "No oil FP", Weight: 60},
			}},
			{ID: WheelFSInitial, Title: "FS branch - initial wheel", Segments: []wheel.Option{
				{Key: "shib", Label: "Shib", Weight: 10},
				{Key: "outfitDelay", Label: "outfit+delay", Weight: 10},
				{Key: "oil", Label: "Oil", Weight: 10},
				{Key: "trad", Label: "Trad", Weight: 70},
			}},
			{ID: WheelShibStyle, Title: "Shib sub-wheel", Segments: []wheel.Option{
				{Key: "corset", Label: "Corset", Weight: 1},
				{Key: "restrained", Label: "Restrained", Weight: 1},
			}},
			{ID: WheelCorsetDetail, Title: "Corset - Sense-dep / BSC", Segments: []wheel.Option{
				{Key: "sense_dep", Label: "Sense-dep", Weight: 40},
				{Key: "bsc", Label: "BSC", Weight: 60},
			}},
			{ID: WheelFFBsc, Title: "F-F / BSC wheel", Segments: []wheel.Option{
				{Key: "f_f", Label: "F-F", Weight: 1},
				{Key: "bsc", Label: "BSC", Weight: 1},
			}},
			{ID: WheelLocation, Title: "Location wheel", Segments: []wheel.Option{
				{Key: "bedroom", Label: "Bedroom", Weight: 75},
				{Key: "office", Label: "Office", Weight: 20},
				{Key: "living_room", Label: "Living room", Weight: 5},
			}},
			{ID: WheelAccessoriesYN, Title: "Accessories wheel", Segments: []wheel.Option{
				{Key: "yes", Label: "Yes", Weight: 1},
				{Key: "no", Label: "No", Weight: 1},
			}},
		},
		Catalog: selection.Catalog{
			{ID: "cl_trad", Label: "CL:trad", Group: GroupCL, SubType: "normal"},
			{ID: "cl_96", Label: "CL-96", Group: GroupCL, SubType: "cl96"},
			{ID: "cl_fs", Label: "CL:FS", Group: GroupCL, SubType: "normal"},
			{ID: "jb_side", Label: "JB:side", Group: GroupJB},
			{ID: "jb_up", Label: "JB:up", Group: GroupJB},
			{ID: "jb_stand", Label: "JB:stand", Group: GroupJB},
			{ID: "jb_edge", Label: "JB:edge", Group: GroupJB},
			{ID: "jb_on", Label: "JB:on", Group: GroupJB},
			{ID: "tw", Label: "TW", Group: GroupOther},
			{ID: "nhj", Label: "NHJ", Group: GroupOther},
		},
		Rules: selection.Rules{
			VolatileGroups: []selection.Group{GroupCL, GroupJB},
			Blocks:         []selection.BlockRule{{Group: GroupCL, SubType: "cl96", Blocked: GroupJB}},
			MultiGroups:    []selection.Group{GroupOther},
		},
		Accessories:  []string{"9mm", "bb8", "Ag", "clear"},
		AccessoryMin: 1,
		AccessoryMax: 2,
	}
}

// routedKeys lists, per wheel, the keys the graph branches on.
var routedKeys = map[string][]string{
	WheelPS:            nil,
	WheelPD:            nil,
	WheelFSInitial:     {"shib", "trad", "outfitDelay", "oil"},
	WheelShibStyle:     {"corset", "restrained"},
	WheelCorsetDetail:  nil,
	WheelFFBsc:         nil,
	WheelLocation:      nil,
	WheelAccessoriesYN: {"yes", "no"},
}

// Wheel looks up a wheel definition by id.
func (c Content) Wheel(id string) (wheel.Definition, bool) {
	for _, d := range c.Wheels {
		if d.ID == id {
			return d, true
		}
	}
	return wheel.Definition{}, false
}

// Validate checks that every wheel the graph needs is present and well formed, that a
// branching wheel's segments match its routes exactly, and that the catalog, rules and
// accessory bounds are usable.
func (c Content) Validate() error {
	for id, keys := range routedKeys {
		def, ok := c.Wheel(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingWheel, id)
		}
		if err := def.Validate(); err != nil {
			return err
		}
		if keys == nil {
			continue
		}
		for _, k := range keys {
			if !hasKey(def.Segments, k) {
				return fmt.Errorf("%w: %s has no %q segment", ErrMissingWheel, id, k)
			}
		}
		for _, seg := range def.Segments {
			if !slices.Contains(keys, seg.Key) {
				return fmt.Errorf("%w: %s segment %q", ErrUnroutedSegment, id, seg.Key)
			}
		}
	}
	if err := c.Catalog.Validate(); err != nil {
		return err
	}
	if err := c.Rules.Validate(); err != nil {
		return err
	}
	if len(c.Accessories) == 0 {
		return errors.New("session: accessory list is empty")
	}
	if c.AccessoryMin < 1 || c.AccessoryMax < c.AccessoryMin || c.AccessoryMax > len(c.Accessories) {
		return fmt.Errorf("session: accessory bounds [%d, %d] invalid for %d items",
			c.AccessoryMin, c.AccessoryMax, len(c.Accessories))
	}
	return nil
}

func hasKey(opts []wheel.Option, key string) bool {
	for _, o := range opts {
		if o.Key == key {
			return true
		}
	}
	return false
}
