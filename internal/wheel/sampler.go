// File: internal/wheel/sampler.go
package wheel

// Rand is the subset of *math/rand.Rand the wheel needs. Callers inject it so that
// sessions can be replayed from a seed.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Sample picks an index from opts with probability proportional to its coerced weight.
//
// # Weighted path
//
// Weights are first scaled by the largest one so that huge weights cannot overflow the
// total. A draw r is taken uniformly from [0, total) and options are walked in order,
// accumulating weight. The first option whose cumulative weight satisfies r <= cumulative
// wins, so a draw landing exactly on a boundary goes to the option that reached it first.
// Zero-weight options are skipped during the walk and can never win here.
//
// # Degenerate path
//
// When the total weight is zero every index is equally likely.
//
// An empty list returns ErrNoOptions.
func Sample(opts []Option, rng Rand) (int, error) {
	if len(opts) == 0 {
		return 0, ErrNoOptions
	}

	ws, total := scaledWeights(opts)
	if total <= 0 {
		return rng.Intn(len(opts)), nil
	}

	r := rng.Float64() * total
	var acc float64
	last := -1
	for i, w := range ws {
		if w == 0 {
			continue
		}
		acc += w
		last = i
		if r <= acc {
			return i, nil
		}
	}

	// Rounding can leave r a hair above the accumulated sum; clamp to the final
	// positive-weight option, which is len-1 whenever the last option carries weight.
	return last, nil
}
