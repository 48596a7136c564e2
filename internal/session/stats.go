// File: internal/session/stats.go
package session

import (
	"sort"

	"github.com/xkilldash9x/spindle/internal/flow"
)

// Stats tallies the outcomes of many finished sessions.
type Stats struct {
	Runs        int                       `json:"runs" yaml:"runs"`
	Branches    map[string]int            `json:"branches" yaml:"branches"`
	Wheels      map[string]map[string]int `json:"wheels" yaml:"wheels"`
	FPRetained  map[string]int            `json:"fp_retained" yaml:"fp_retained"`
	Accessories map[string]int            `json:"accessories" yaml:"accessories"`
	// Steps counts how many steps each walk visited, keyed by path length.
	Steps map[int]int `json:"steps" yaml:"steps"`
}

// NewStats returns an empty tally.
func NewStats() *Stats {
	return &Stats{
		Branches:    map[string]int{},
		Wheels:      map[string]map[string]int{},
		FPRetained:  map[string]int{},
		Accessories: map[string]int{},
		Steps:       map[int]int{},
	}
}

// Add counts one summary.
func (s *Stats) Add(content Content, sum flow.Summary) {
	s.Runs++
	d := SummaryDetails(content, sum)
	s.Branches[d.Branch]++
	for _, w := range sum.Wheels {
		byLabel, ok := s.Wheels[w.Title]
		if !ok {
			byLabel = map[string]int{}
			s.Wheels[w.Title] = byLabel
		}
		byLabel[w.Label]++
	}
	for _, label := range d.FPRetained {
		s.FPRetained[label]++
	}
	for _, item := range d.Accessories {
		s.Accessories[item]++
	}
	s.Steps[len(sum.Path)]++
}

// Share returns count as a fraction of all runs.
func (s *Stats) Share(count int) float64 {
	if s.Runs == 0 {
		return 0
	}
	return float64(count) / float64(s.Runs)
}

// SortedKeys returns the keys of a tally ordered by descending count, then name.
func SortedKeys(tally map[string]int) []string {
	keys := make([]string, 0, len(tally))
	for k := range tally {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if tally[keys[i]] != tally[keys[j]] {
			return tally[keys[i]] > tally[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
