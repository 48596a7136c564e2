// File: internal/wheel/option.go
package wheel

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrNoOptions is returned when a sampler or layout is asked to work on an empty option list.
// A step must never activate a wheel without options, so this signals a configuration bug.
var ErrNoOptions = errors.New("wheel: option list is empty")

// Option is one weighted outcome (a segment) on a wheel.
type Option struct {
	Key    string  `mapstructure:"key" yaml:"key" json:"key"`
	Label  string  `mapstructure:"label" yaml:"label" json:"label"`
	Weight float64 `mapstructure:"weight" yaml:"weight" json:"weight"`
}

// CoerceWeight maps any weight that cannot take part in sampling (NaN, infinities,
// negatives) to 0. Weights are user editable, so bad input is corrected rather than rejected.
func CoerceWeight(w float64) float64 {
	if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return 0
	}
	return w
}

// ParseWeight converts raw editor input into a weight, falling back to 0 for anything
// that does not parse as a usable number.
func ParseWeight(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return CoerceWeight(v)
}

// scaledWeights returns the coerced weights divided by the largest of them, and their
// sum. The sum of scaled weights is at most len(opts), so it stays finite for any
// input. Sample and Layout both work from these values, which keeps the sampled index
// and the rendered arc in agreement. The total is zero when no option carries weight.
func scaledWeights(opts []Option) ([]float64, float64) {
	ws := make([]float64, len(opts))
	var peak float64
	for i, o := range opts {
		ws[i] = CoerceWeight(o.Weight)
		if ws[i] > peak {
			peak = ws[i]
		}
	}
	if peak == 0 {
		return ws, 0
	}
	var total float64
	for i := range ws {
		ws[i] /= peak
		total += ws[i]
	}
	return ws, total
}

// Clone returns an independent copy of an option list.
func Clone(opts []Option) []Option {
	if opts == nil {
		return nil
	}
	out := make([]Option, len(opts))
	copy(out, opts)
	return out
}

// ValidateKeys reports the first duplicated key in an option list, if any.
func ValidateKeys(opts []Option) error {
	seen := make(map[string]struct{}, len(opts))
	for _, o := range opts {
		if _, dup := seen[o.Key]; dup {
			return &DuplicateKeyError{Key: o.Key}
		}
		seen[o.Key] = struct{}{}
	}
	return nil
}

// DuplicateKeyError reports a key that appears more than once in one option list.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return "wheel: duplicate option key " + strconv.Quote(e.Key)
}
