// File: internal/session/stats_test.go
package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats(t *testing.T) {
	t.Run("an empty tally has no shares", func(t *testing.T) {
		s := NewStats()
		assert.Zero(t, s.Share(3))
	})

	t.Run("every run is counted once per branch", func(t *testing.T) {
		content := DefaultContent()
		s := NewStats()
		for seed := int64(0); seed < 40; seed++ {
			sum, err := newTestPlayer(t, seed).Play(context.Background())
			require.NoError(t, err)
			s.Add(content, sum)
		}

		assert.Equal(t, 40, s.Runs)
		assert.Equal(t, 40, s.Branches["P"]+s.Branches["FS"])

		walks := 0
		for _, n := range s.Steps {
			walks += n
		}
		assert.Equal(t, 40, walks)

		for title, byLabel := range s.Wheels {
			def := findWheelByTitle(t, content, title)
			for label := range byLabel {
				assert.True(t, hasLabel(def, label), "%s landed on unknown %q", title, label)
			}
		}
		assert.InDelta(t, 1.0, s.Share(s.Branches["P"])+s.Share(s.Branches["FS"]), 1e-9)
	})
}

func TestSortedKeys(t *testing.T) {
	got := SortedKeys(map[string]int{"b": 2, "a": 2, "c": 5, "d": 1})
	assert.Equal(t, []string{"c", "a", "b", "d"}, got)
	assert.Empty(t, SortedKeys(nil))
}

func findWheelByTitle(t *testing.T, c Content, title string) []string {
	t.Helper()
	for _, d := range c.Wheels {
		if d.Title == title {
			labels := make([]string, 0, len(d.Segments))
			for _, o := range d.Segments {
				labels = append(labels, o.Label)
			}
			return labels
		}
	}
	t.Fatalf("no wheel titled %q", title)
	return nil
}

func hasLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}
