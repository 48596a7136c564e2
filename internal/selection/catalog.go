// File: internal/selection/catalog.go
package selection

import (
	"errors"
	"fmt"
)

// Group partitions a catalog; at most one entry per group may be selected at a time
// unless the group is listed in Rules.MultiGroups.
type Group string

// Entry is one selectable catalog item.
type Entry struct {
	ID    string `mapstructure:"id" yaml:"id" json:"id"`
	Label string `mapstructure:"label" yaml:"label" json:"label"`
	Group Group  `mapstructure:"group" yaml:"group" json:"group"`
	// SubType optionally marks an entry for cross-group rules (see BlockRule).
	SubType string `mapstructure:"sub_type" yaml:"sub_type,omitempty" json:"sub_type,omitempty"`
}

// Catalog is an ordered, read-only list of entries. Order drives presentation and the
// order in which resolution outcomes are reported.
type Catalog []Entry

// BlockRule says that while an entry of Group with SubType is selected, nothing in
// Blocked may be selected (and nothing in Blocked is drawn).
type BlockRule struct {
	Group   Group  `mapstructure:"group" yaml:"group" json:"group"`
	SubType string `mapstructure:"sub_type" yaml:"sub_type" json:"sub_type"`
	Blocked Group  `mapstructure:"blocked" yaml:"blocked" json:"blocked"`
}

// Rules configures the cross-group behaviour of a resolver.
type Rules struct {
	// VolatileGroups are subject to the 50/50 retain check on resolution. Entries of any
	// other group are always kept.
	VolatileGroups []Group     `mapstructure:"volatile_groups" yaml:"volatile_groups" json:"volatile_groups"`
	Blocks         []BlockRule `mapstructure:"blocks" yaml:"blocks" json:"blocks"`
	// MultiGroups lift the one-entry-per-group limit for manual selection. Full draws
	// still take at most one entry from them.
	MultiGroups []Group `mapstructure:"multi_groups" yaml:"multi_groups,omitempty" json:"multi_groups,omitempty"`
}

var (
	// ErrEmptyCatalog is returned when a resolver is built without entries.
	ErrEmptyCatalog = errors.New("selection: catalog is empty")
	// ErrDuplicateEntry is returned when two catalog entries share an ID.
	ErrDuplicateEntry = errors.New("selection: duplicate entry id")
	// ErrInvalidRules is returned for rules the resolver cannot enforce.
	ErrInvalidRules = errors.New("selection: invalid rules")
)

// Validate rejects block rules the one-entry-per-group limit cannot release. A
// controlling group that is multi-select keeps the blocking entry when another entry
// of the group is chosen, so the blocked group would stay locked.
func (r Rules) Validate() error {
	multi := groupSet(r.MultiGroups)
	for _, rule := range r.Blocks {
		if rule.Group == "" || rule.SubType == "" || rule.Blocked == "" {
			return fmt.Errorf("%w: block rule %+v is incomplete", ErrInvalidRules, rule)
		}
		if rule.Group == rule.Blocked {
			return fmt.Errorf("%w: group %s blocks itself", ErrInvalidRules, rule.Group)
		}
		if _, ok := multi[rule.Group]; ok {
			return fmt.Errorf("%w: multi-select group %s cannot control a block", ErrInvalidRules, rule.Group)
		}
	}
	return nil
}

// Validate checks the catalog for empty and duplicate IDs.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return ErrEmptyCatalog
	}
	seen := make(map[string]struct{}, len(c))
	for _, e := range c {
		if e.ID == "" {
			return fmt.Errorf("selection: entry %q has no id", e.Label)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateEntry, e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}

// Lookup finds an entry by ID.
func (c Catalog) Lookup(id string) (Entry, bool) {
	for _, e := range c {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Groups returns the distinct groups in first-appearance order.
func (c Catalog) Groups() []Group {
	var out []Group
	seen := make(map[Group]struct{})
	for _, e := range c {
		if _, ok := seen[e.Group]; ok {
			continue
		}
		seen[e.Group] = struct{}{}
		out = append(out, e.Group)
	}
	return out
}

// Without returns a copy of the catalog minus every entry in the excluded groups.
func (c Catalog) Without(excluded ...Group) Catalog {
	skip := groupSet(excluded)
	out := make(Catalog, 0, len(c))
	for _, e := range c {
		if _, ok := skip[e.Group]; ok {
			continue
		}
		out = append(out, e)
	}
	return out
}

func groupSet(groups []Group) map[Group]struct{} {
	set := make(map[Group]struct{}, len(groups))
	for _, g := range groups {
		set[g] = struct{}{}
	}
	return set
}
