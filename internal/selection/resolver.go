// File: internal/selection/resolver.go
package selection

import (
	"sort"

	"go.uber.org/zap"
)

// Rand is the randomness a resolver needs; *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Rejection explains why a toggle was refused. The empty value means accepted.
type Rejection string

const (
	RejectNone Rejection = ""
	// RejectBlocked: the entry's group is blocked by a selected sub-type entry.
	RejectBlocked Rejection = "blocked"
	// RejectUnavailable: the entry is unknown or its group was excluded.
	RejectUnavailable Rejection = "unavailable"
)

// Selection is an immutable set of selected entry IDs. Every change goes through a
// Resolver and produces a new value.
type Selection struct {
	ids map[string]struct{}
}

// Has reports whether id is selected.
func (s Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected entries.
func (s Selection) Len() int { return len(s.ids) }

// IDs returns the selected IDs in sorted order. Resolver.Selected gives catalog order.
func (s Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Equal reports whether both selections hold the same IDs.
func (s Selection) Equal(other Selection) bool {
	if len(s.ids) != len(other.ids) {
		return false
	}
	for id := range s.ids {
		if !other.Has(id) {
			return false
		}
	}
	return true
}

// NewSelection builds a selection from raw IDs without applying any rules. Use it to
// restore a saved state; interactive changes belong in Resolver.Toggle.
func NewSelection(ids ...string) Selection {
	sel := Selection{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		sel.ids[id] = struct{}{}
	}
	return sel
}

func (s Selection) clone() Selection {
	ids := make(map[string]struct{}, len(s.ids)+1)
	for id := range s.ids {
		ids[id] = struct{}{}
	}
	return Selection{ids: ids}
}

// ToggleResult is the outcome of one toggle.
type ToggleResult struct {
	Selection Selection
	Rejection Rejection
	// BlockedBy names the selected entry responsible for a RejectBlocked.
	BlockedBy string
	// Cleared lists entries deselected as a side effect of the toggle.
	Cleared []string
}

// Accepted reports whether the toggle was applied.
func (r ToggleResult) Accepted() bool { return r.Rejection == RejectNone }

// Resolver enforces group exclusivity over a catalog. It never mutates the catalog
// and holds no selection state of its own.
type Resolver struct {
	catalog  Catalog
	rules    Rules
	excluded map[Group]struct{}
	volatile map[Group]struct{}
	multi    map[Group]struct{}
	logger   *zap.Logger
}

// NewResolver validates the catalog and rules and returns a resolver over the entries
// outside the excluded groups.
func NewResolver(catalog Catalog, rules Rules, logger *zap.Logger, excluded ...Group) (*Resolver, error) {
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		catalog:  catalog,
		rules:    rules,
		excluded: groupSet(excluded),
		volatile: groupSet(rules.VolatileGroups),
		multi:    groupSet(rules.MultiGroups),
		logger:   logger,
	}, nil
}

// Available returns the entries that may be toggled, in catalog order.
func (r *Resolver) Available() Catalog {
	out := make(Catalog, 0, len(r.catalog))
	for _, e := range r.catalog {
		if r.isAvailable(e) {
			out = append(out, e)
		}
	}
	return out
}

func (r *Resolver) isAvailable(e Entry) bool {
	_, skip := r.excluded[e.Group]
	return !skip
}

func (r *Resolver) lookup(id string) (Entry, bool) {
	e, ok := r.catalog.Lookup(id)
	if !ok || !r.isAvailable(e) {
		return Entry{}, false
	}
	return e, true
}

// Toggle flips id in sel and applies the exclusivity rules:
//
//   - deselecting is always allowed and has no side effects;
//   - selecting clears any other selected entry of the same group, unless the group
//     is a multi-select group;
//   - selecting a blocking sub-type clears every selected entry of the blocked group;
//   - selecting into a blocked group is refused with RejectBlocked while the blocking
//     entry stays selected.
//
// Because groups hold at most one entry, choosing a non-blocking entry in the
// controlling group clears the blocking one and re-enables the blocked group.
func (r *Resolver) Toggle(sel Selection, id string) ToggleResult {
	e, ok := r.lookup(id)
	if !ok {
		return ToggleResult{Selection: sel, Rejection: RejectUnavailable}
	}

	next := sel.clone()
	if next.Has(id) {
		delete(next.ids, id)
		return ToggleResult{Selection: next}
	}

	if blocker, blocked := r.blockerFor(sel, e.Group); blocked {
		r.logger.Debug("Selection rejected; group blocked.",
			zap.String("entry", id), zap.String("blocked_by", blocker))
		return ToggleResult{Selection: sel, Rejection: RejectBlocked, BlockedBy: blocker}
	}

	var cleared []string
	clearGroup := func(g Group) {
		for _, other := range r.catalog {
			if other.Group == g && other.ID != id && next.Has(other.ID) {
				delete(next.ids, other.ID)
				cleared = append(cleared, other.ID)
			}
		}
	}

	if _, multi := r.multi[e.Group]; !multi {
		clearGroup(e.Group)
	}
	for _, rule := range r.rules.Blocks {
		if rule.Group == e.Group && rule.SubType == e.SubType && e.SubType != "" {
			clearGroup(rule.Blocked)
		}
	}

	next.ids[id] = struct{}{}
	return ToggleResult{Selection: next, Cleared: cleared}
}

// blockerFor returns the selected entry currently blocking group g, if any.
func (r *Resolver) blockerFor(sel Selection, g Group) (string, bool) {
	for _, rule := range r.rules.Blocks {
		if rule.Blocked != g {
			continue
		}
		for _, e := range r.catalog {
			if e.Group == rule.Group && e.SubType == rule.SubType && sel.Has(e.ID) {
				return e.ID, true
			}
		}
	}
	return "", false
}

// BlockedGroups lists the groups that sel currently blocks.
func (r *Resolver) BlockedGroups(sel Selection) []Group {
	var out []Group
	for _, g := range r.allGroups() {
		if _, blocked := r.blockerFor(sel, g); blocked {
			out = append(out, g)
		}
	}
	return out
}

// Selected returns the selected entries in catalog order.
func (r *Resolver) Selected(sel Selection) []Entry {
	var out []Entry
	for _, e := range r.catalog {
		if sel.Has(e.ID) && r.isAvailable(e) {
			out = append(out, e)
		}
	}
	return out
}

// Outcome records what resolution did to one selected entry.
type Outcome struct {
	Entry    Entry `json:"entry"`
	Volatile bool  `json:"volatile"`
	Kept     bool  `json:"kept"`
}

// Resolution is the result of finalizing a manual selection.
type Resolution struct {
	Selected []Entry   `json:"selected"`
	Retained []Entry   `json:"retained"`
	Outcomes []Outcome `json:"outcomes"`
}

// Resolve applies an independent fair coin to every selected entry of a volatile group;
// entries of other groups are always kept. Outcomes follow catalog order.
func (r *Resolver) Resolve(sel Selection, rng Rand) Resolution {
	res := Resolution{}
	for _, e := range r.Selected(sel) {
		_, volatile := r.volatile[e.Group]
		kept := true
		if volatile {
			kept = rng.Float64() < 0.5
		}
		res.Selected = append(res.Selected, e)
		res.Outcomes = append(res.Outcomes, Outcome{Entry: e, Volatile: volatile, Kept: kept})
		if kept {
			res.Retained = append(res.Retained, e)
		}
	}
	r.logger.Debug("Selection resolved.",
		zap.Int("selected", len(res.Selected)), zap.Int("retained", len(res.Retained)))
	return res
}

// allGroups returns every group the resolver knows about: catalog groups first, then
// groups only named by rules.
func (r *Resolver) allGroups() []Group {
	groups := r.catalog.Groups()
	seen := groupSet(groups)
	add := func(g Group) {
		if _, ok := seen[g]; !ok && g != "" {
			seen[g] = struct{}{}
			groups = append(groups, g)
		}
	}
	for _, rule := range r.rules.Blocks {
		add(rule.Group)
		add(rule.Blocked)
	}
	for _, g := range r.rules.VolatileGroups {
		add(g)
	}
	return groups
}
