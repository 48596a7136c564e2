// File: internal/animator/easing.go
package animator

import "math"

// EaseOutCubic decelerates towards the end of the motion: fast at first, settling
// gently onto the target. t is clamped to [0, 1].
func EaseOutCubic(t float64) float64 {
	t = clamp01(t)
	return 1 - math.Pow(1-t, 3)
}

// clamp01 limits t to the unit interval. NaN collapses to 0.
func clamp01(t float64) float64 {
	switch {
	case math.IsNaN(t), t < 0:
		return 0
	case t > 1:
		return 1
	default:
		return t
	}
}
