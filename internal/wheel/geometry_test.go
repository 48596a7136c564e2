// File: internal/wheel/geometry_test.go
package wheel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const angleEps = 1e-9

func assertClosedCircle(t *testing.T, intervals []Interval) {
	t.Helper()
	require.NotEmpty(t, intervals)
	assert.Equal(t, ReferenceAngle, intervals[0].Start, "first segment starts at the reference angle")
	assert.Equal(t, ReferenceAngle+FullTurn, intervals[len(intervals)-1].End, "last segment closes the circle")

	var sum float64
	for i, iv := range intervals {
		assert.GreaterOrEqual(t, iv.Span(), 0.0, "interval %d has negative span", i)
		assert.InDelta(t, iv.Start+iv.Span()/2, iv.Mid, angleEps)
		if i > 0 {
			assert.Equal(t, intervals[i-1].End, iv.Start, "interval %d is not contiguous", i)
		}
		sum += iv.Span()
	}
	assert.InDelta(t, FullTurn, sum, angleEps)
}

func TestLayout(t *testing.T) {
	t.Run("should return ErrNoOptions for an empty list", func(t *testing.T) {
		_, err := Layout(nil)
		assert.ErrorIs(t, err, ErrNoOptions)
	})

	t.Run("spans are proportional to weight", func(t *testing.T) {
		intervals, err := Layout(opts(40, 60))
		require.NoError(t, err)
		assertClosedCircle(t, intervals)
		assert.InDelta(t, FullTurn*0.4, intervals[0].Span(), angleEps)
		assert.InDelta(t, FullTurn*0.6, intervals[1].Span(), angleEps)
	})

	t.Run("all-zero weights fall back to equal spans", func(t *testing.T) {
		intervals, err := Layout(opts(0, 0, 0, 0))
		require.NoError(t, err)
		assertClosedCircle(t, intervals)
		for _, iv := range intervals {
			assert.InDelta(t, FullTurn/4, iv.Span(), angleEps)
		}
	})

	t.Run("zero-weight options get empty arcs when others carry weight", func(t *testing.T) {
		intervals, err := Layout(opts(1, 0, 1))
		require.NoError(t, err)
		assertClosedCircle(t, intervals)
		assert.Zero(t, intervals[1].Span())
	})

	t.Run("weights too large to sum keep their proportions", func(t *testing.T) {
		intervals, err := Layout(opts(math.MaxFloat64, math.MaxFloat64, 0))
		require.NoError(t, err)
		assertClosedCircle(t, intervals)
		assert.InDelta(t, FullTurn/2, intervals[0].Span(), angleEps)
		assert.InDelta(t, FullTurn/2, intervals[1].Span(), angleEps)
		assert.Zero(t, intervals[2].Span())
	})

	t.Run("awkward weights still close the circle exactly", func(t *testing.T) {
		for _, w := range [][]float64{
			{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7},
			{1e-9, 1e9},
			{3, 3, 3},
			{10, 10, 10, 70},
		} {
			intervals, err := Layout(opts(w...))
			require.NoError(t, err)
			assertClosedCircle(t, intervals)
		}
	})
}

func TestLandingAngle(t *testing.T) {
	intervals, err := Layout(opts(1, 1, 1, 1))
	require.NoError(t, err)

	// Rotating the wheel by the landing angle must bring the segment's middle to the pointer.
	for i := range intervals {
		rot := LandingAngle(intervals, i)
		got := NormalizeAngle(intervals[i].Mid + rot)
		assert.InDelta(t, NormalizeAngle(ReferenceAngle), got, angleEps, "segment %d", i)
	}

	// Four equal segments: the first mid sits 45 degrees clockwise of the pointer.
	assert.InDelta(t, FullTurn-math.Pi/4, LandingAngle(intervals, 0), angleEps)
}

func TestNormalizeAngle(t *testing.T) {
	assert.InDelta(t, 0.0, NormalizeAngle(FullTurn), angleEps)
	assert.InDelta(t, math.Pi, NormalizeAngle(-math.Pi), angleEps)
	assert.InDelta(t, 1.0, NormalizeAngle(1.0+3*FullTurn), angleEps)
}
