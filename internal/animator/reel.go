// File: internal/animator/reel.go
package animator

import (
	"context"
	"math/rand"
	"time"
)

// DefaultReelInterval is the cadence of slot-reel frames.
const DefaultReelInterval = 90 * time.Millisecond

// Reel labels used by the keep/discard reel.
const (
	ReelKept      = "kept"
	ReelDiscarded = "not at all"
)

// Reel is a slot-reel animation that flicks through its items and then settles on an
// item decided before the first frame, like Spinner does for wheels.
type Reel struct {
	items  []string
	target int

	index       int
	step        int
	spinSteps   int
	settleSteps int
	advance     func(index int) int
}

// NewKeepDiscardReel builds the two-item reel shown for a 50/50 retain check. It flips
// between the two faces for 10 to 15 frames, then shows the decided face.
func NewKeepDiscardReel(kept bool, rng *rand.Rand) *Reel {
	target := 1
	if kept {
		target = 0
	}
	return &Reel{
		items:       []string{ReelKept, ReelDiscarded},
		target:      target,
		spinSteps:   10 + rng.Intn(6),
		settleSteps: 1,
		advance:     func(i int) int { return 1 - i },
	}
}

// NewItemReel builds a reel over items that cycles for 17 to 26 frames and then holds
// target for five frames. An unknown target settles on the first item.
func NewItemReel(items []string, target string, rng *rand.Rand) *Reel {
	idx := 0
	for i, it := range items {
		if it == target {
			idx = i
			break
		}
	}
	n := len(items)
	return &Reel{
		items:       append([]string(nil), items...),
		target:      idx,
		spinSteps:   18 + rng.Intn(10) - 1,
		settleSteps: 5,
		advance: func(i int) int {
			if n == 0 {
				return 0
			}
			return (i + 1) % n
		},
	}
}

// Step shows the next frame and returns the visible item and whether the reel has
// come to rest. Stepping a finished reel keeps returning the target.
func (r *Reel) Step() (string, bool) {
	if len(r.items) == 0 {
		return "", true
	}
	if r.step < r.spinSteps {
		r.index = r.advance(r.index)
	} else {
		r.index = r.target
	}
	r.step++
	return r.items[r.index], r.Done()
}

// Done reports whether the reel has settled.
func (r *Reel) Done() bool {
	return len(r.items) == 0 || r.step >= r.spinSteps+r.settleSteps
}

// Target returns the item the reel will settle on.
func (r *Reel) Target() string {
	if len(r.items) == 0 {
		return ""
	}
	return r.items[r.target]
}

// Frames returns the total number of frames the reel will show.
func (r *Reel) Frames() int {
	return r.spinSteps + r.settleSteps
}

// Run steps the reel once per scheduler frame until it settles, handing every visible
// item to onFrame.
func (r *Reel) Run(ctx context.Context, sched FrameScheduler, onFrame func(item string)) error {
	for !r.Done() {
		if _, err := sched.NextFrame(ctx); err != nil {
			return err
		}
		item, _ := r.Step()
		if onFrame != nil {
			onFrame(item)
		}
	}
	return nil
}
