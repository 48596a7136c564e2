// File: internal/wheel/geometry.go
package wheel

import "math"

// FullTurn is one complete revolution in radians.
const FullTurn = 2 * math.Pi

// ReferenceAngle is where the first segment starts and where the pointer sits: the top
// of the wheel in screen coordinates (y grows downwards, so angles run clockwise).
const ReferenceAngle = -math.Pi / 2

// Interval is the angular extent of one option, in radians.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Mid   float64 `json:"mid"`
}

// Span returns the angular size of the interval.
func (iv Interval) Span() float64 {
	return iv.End - iv.Start
}

// Layout partitions a full turn into one contiguous interval per option, in option order,
// starting at ReferenceAngle. Each span is FullTurn*weight/total, or FullTurn/len when the
// total weight is zero (the same fallback Sample uses). The final End is pinned to
// ReferenceAngle+FullTurn so the spans always close the circle exactly.
func Layout(opts []Option) ([]Interval, error) {
	if len(opts) == 0 {
		return nil, ErrNoOptions
	}

	ws, total := scaledWeights(opts)
	uniform := total <= 0

	out := make([]Interval, len(opts))
	start := ReferenceAngle
	for i := range opts {
		var span float64
		if uniform {
			span = FullTurn / float64(len(opts))
		} else {
			span = FullTurn * ws[i] / total
		}
		end := start + span
		if i == len(opts)-1 {
			end = ReferenceAngle + FullTurn
		}
		out[i] = Interval{Start: start, End: end, Mid: start + (end-start)/2}
		start = end
	}
	return out, nil
}

// LandingAngle is the wheel rotation (mod one full turn) that places the middle of
// interval i under the pointer at ReferenceAngle.
func LandingAngle(intervals []Interval, i int) float64 {
	return NormalizeAngle(ReferenceAngle - intervals[i].Mid)
}

// NormalizeAngle maps any angle into [0, FullTurn).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, FullTurn)
	if a < 0 {
		a += FullTurn
	}
	if a >= FullTurn {
		a = 0
	}
	return a
}
