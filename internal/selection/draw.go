// File: internal/selection/draw.go
package selection

import (
	"go.uber.org/zap"
)

// DrawStatus tells apart the three outcomes a group can have in a full draw.
type DrawStatus int

const (
	// DrawEmpty means the group had no eligible entry to draw from.
	DrawEmpty DrawStatus = iota
	// DrawPicked means one entry was drawn.
	DrawPicked
	// DrawBlocked means a drawn entry of a controlling group blocked this group, so it
	// was not drawn at all.
	DrawBlocked
)

func (s DrawStatus) String() string {
	switch s {
	case DrawPicked:
		return "picked"
	case DrawBlocked:
		return "blocked"
	default:
		return "empty"
	}
}

// MarshalText renders the status by name in JSON and YAML output.
func (s DrawStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Draw is the result for one group.
type Draw struct {
	Group  Group      `json:"group"`
	Status DrawStatus `json:"status"`
	// Entry is set only when Status is DrawPicked.
	Entry Entry `json:"entry,omitempty"`
	// BlockedBy names the drawn entry that blocked the group.
	BlockedBy string `json:"blocked_by,omitempty"`
}

// Draws holds one Draw per eligible group in draw order.
type Draws []Draw

// Get returns the draw for group g. Excluded groups have no draw.
func (d Draws) Get(g Group) (Draw, bool) {
	for _, draw := range d {
		if draw.Group == g {
			return draw, true
		}
	}
	return Draw{}, false
}

// Picked returns the drawn entries in draw order.
func (d Draws) Picked() []Entry {
	var out []Entry
	for _, draw := range d {
		if draw.Status == DrawPicked {
			out = append(out, draw.Entry)
		}
	}
	return out
}

// DrawAll draws at most one entry uniformly from every group that is neither excluded
// at construction nor passed in excluded. A group is drawn only after every group that
// can block it, and a blocked group is recorded as DrawBlocked instead of being drawn.
// The catalog and the resolver are left untouched.
func (r *Resolver) DrawAll(rng Rand, excluded ...Group) Draws {
	skip := groupSet(excluded)
	var groups []Group
	for _, g := range r.allGroups() {
		if _, ok := skip[g]; ok {
			continue
		}
		if _, ok := r.excluded[g]; ok {
			continue
		}
		groups = append(groups, g)
	}

	picked := make(map[Group]Entry)
	done := make(map[Group]struct{}, len(groups))
	var out Draws

	// Each pass draws the groups whose controllers are settled. A cycle in the block
	// rules leaves groups unsettled; they are drawn in catalog order on the last pass.
	for len(done) < len(groups) {
		progressed := false
		for _, g := range groups {
			if _, ok := done[g]; ok {
				continue
			}
			if !r.controllersSettled(g, groups, done) {
				continue
			}
			out = append(out, r.drawGroup(g, picked, rng))
			done[g] = struct{}{}
			progressed = true
		}
		if progressed {
			continue
		}
		for _, g := range groups {
			if _, ok := done[g]; !ok {
				out = append(out, r.drawGroup(g, picked, rng))
				done[g] = struct{}{}
			}
		}
	}

	r.logger.Debug("Full draw complete.", zap.Int("groups", len(out)), zap.Int("picked", len(out.Picked())))
	return out
}

// controllersSettled reports whether every eligible group that can block g has been drawn.
func (r *Resolver) controllersSettled(g Group, eligible []Group, done map[Group]struct{}) bool {
	for _, rule := range r.rules.Blocks {
		if rule.Blocked != g || rule.Group == g {
			continue
		}
		if !containsGroup(eligible, rule.Group) {
			continue
		}
		if _, ok := done[rule.Group]; !ok {
			return false
		}
	}
	return true
}

func (r *Resolver) drawGroup(g Group, picked map[Group]Entry, rng Rand) Draw {
	for _, rule := range r.rules.Blocks {
		if rule.Blocked != g {
			continue
		}
		if e, ok := picked[rule.Group]; ok && e.SubType == rule.SubType {
			return Draw{Group: g, Status: DrawBlocked, BlockedBy: e.ID}
		}
	}

	var pool []Entry
	for _, e := range r.catalog {
		if e.Group == g {
			pool = append(pool, e)
		}
	}
	if len(pool) == 0 {
		return Draw{Group: g, Status: DrawEmpty}
	}
	e := pool[rng.Intn(len(pool))]
	picked[g] = e
	return Draw{Group: g, Status: DrawPicked, Entry: e}
}

func containsGroup(groups []Group, g Group) bool {
	for _, x := range groups {
		if x == g {
			return true
		}
	}
	return false
}
