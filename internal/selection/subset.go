// File: internal/selection/subset.go
package selection

// PickSubset draws count distinct items without replacement, in draw order. count is
// clamped to [0, len(items)]; items is not modified.
func PickSubset(items []string, count int, rng Rand) []string {
	if count > len(items) {
		count = len(items)
	}
	if count <= 0 {
		return nil
	}
	pool := append([]string(nil), items...)
	out := make([]string, 0, count)
	for len(out) < count {
		i := rng.Intn(len(pool))
		out = append(out, pool[i])
		pool = append(pool[:i], pool[i+1:]...)
	}
	return out
}

// SubsetSize picks between min and max items inclusive with equal probability. With
// the stock accessory list that is a fair coin between one and two.
func SubsetSize(min, max int, rng Rand) int {
	if max <= min {
		return min
	}
	return min + rng.Intn(max-min+1)
}
