// File: internal/flow/state_test.go
package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateReset(t *testing.T) {
	st := NewState()
	st.Set("fs", "branch")
	st.Set("fs.location", "office")
	st.Set("fs.fp.retained", []string{"tw"})
	st.Set("fsx", "sibling")
	st.Set("p.wheel", "jb")

	st.Reset("fs")

	assert.Equal(t, []string{"fsx", "p.wheel"}, st.SlotKeys())
	_, ok := st.Get("fs.location")
	assert.False(t, ok)
}

func TestStateClone(t *testing.T) {
	st := NewState()
	st.Path = []string{"a"}
	st.Set("k", "v")
	st.Press("Go", "Start")

	c := st.Clone()
	c.Path = append(c.Path, "b")
	c.Set("k", "other")
	c.Press("Again", "Start")

	assert.Equal(t, []string{"a"}, st.Path)
	assert.Equal(t, "v", st.String("k"))
	assert.Len(t, st.Buttons, 1)
	assert.Equal(t, st.ID, c.ID)
}

func TestStateZeroValue(t *testing.T) {
	var st State
	assert.Equal(t, "", st.Current())
	assert.Equal(t, "", st.String("missing"))
	st.Set("a", 1)
	v, ok := st.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}
