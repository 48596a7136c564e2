// File: internal/animator/reel_test.go
package animator

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeepDiscardReel(t *testing.T) {
	for _, kept := range []bool{true, false} {
		rng := rand.New(rand.NewSource(1))
		r := NewKeepDiscardReel(kept, rng)

		want := ReelDiscarded
		if kept {
			want = ReelKept
		}
		assert.Equal(t, want, r.Target())
		assert.GreaterOrEqual(t, r.Frames(), 11)
		assert.LessOrEqual(t, r.Frames(), 16)

		var last string
		frames := 0
		for !r.Done() {
			last, _ = r.Step()
			frames++
		}
		assert.Equal(t, want, last, "kept=%v", kept)
		assert.Equal(t, r.Frames(), frames)

		// A settled reel keeps showing its target.
		item, done := r.Step()
		assert.True(t, done)
		assert.Equal(t, want, item)
	}
}

func TestItemReel(t *testing.T) {
	items := []string{"9mm", "bb8", "Ag", "clear"}

	t.Run("settles on the target for the final frames", func(t *testing.T) {
		r := NewItemReel(items, "Ag", rand.New(rand.NewSource(2)))
		assert.GreaterOrEqual(t, r.Frames(), 22)
		assert.LessOrEqual(t, r.Frames(), 31)

		var seen []string
		sched := NewSteppedScheduler(epoch, DefaultReelInterval)
		require.NoError(t, r.Run(context.Background(), sched, func(item string) { seen = append(seen, item) }))
		require.Len(t, seen, r.Frames())
		for _, item := range seen[len(seen)-5:] {
			assert.Equal(t, "Ag", item)
		}
		assert.Equal(t, "bb8", seen[0], "the first frame moves one item along")
	})

	t.Run("an unknown target falls back to the first item", func(t *testing.T) {
		r := NewItemReel(items, "missing", rand.New(rand.NewSource(3)))
		assert.Equal(t, "9mm", r.Target())
	})

	t.Run("an empty reel is immediately done", func(t *testing.T) {
		r := NewItemReel(nil, "x", rand.New(rand.NewSource(4)))
		assert.True(t, r.Done())
		item, done := r.Step()
		assert.Empty(t, item)
		assert.True(t, done)
	})

	t.Run("stops when the host loop is cancelled", func(t *testing.T) {
		r := NewItemReel(items, "clear", rand.New(rand.NewSource(5)))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := r.Run(ctx, NewSteppedScheduler(epoch, DefaultReelInterval), nil)
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, r.Done())
	})
}
