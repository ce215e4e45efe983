package gprof

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func statsWithWeights(weights ...int) map[string]FunctionStat {
	stats := make(map[string]FunctionStat, len(weights))
	for i, w := range weights {
		name := fmt.Sprintf("fn%d", i)
		stats[name] = FunctionStat{Name: name, Calls: w}
	}
	return stats
}

func surviving(stats map[string]FunctionStat, cutoff int) int {
	n := 0
	for _, s := range stats {
		if s.Weight() >= cutoff {
			n++
		}
	}
	return n
}

func TestSuggestThreshold_SmallGraphNeedsNoCutoff(t *testing.T) {
	assert.Equal(t, 0, SuggestThreshold(statsWithWeights(5, 1, 9), 3))
	assert.Equal(t, 0, SuggestThreshold(nil, 10))
}

func TestSuggestThreshold_BoundsSurvivors(t *testing.T) {
	stats := statsWithWeights(100, 90, 90, 50, 40, 30, 20, 10, 5, 1)

	for maxNodes := 1; maxNodes <= 10; maxNodes++ {
		cutoff := SuggestThreshold(stats, maxNodes)
		assert.LessOrEqual(t, surviving(stats, cutoff), maxNodes, "maxNodes=%d cutoff=%d", maxNodes, cutoff)
	}

	assert.Equal(t, 41, SuggestThreshold(stats, 4))
	assert.Equal(t, 4, surviving(stats, 41))
}

func TestSuggestThreshold_TiesAreExcludedTogether(t *testing.T) {
	stats := statsWithWeights(100, 90, 90, 10)

	cutoff := SuggestThreshold(stats, 2)
	assert.Equal(t, 91, cutoff)
	assert.Equal(t, 1, surviving(stats, cutoff))
}

func TestSuggestThreshold_MonotonicInMaxNodes(t *testing.T) {
	stats := statsWithWeights(64, 32, 32, 16, 8, 8, 8, 4, 2, 1, 0)

	prev := SuggestThreshold(stats, 1)
	for maxNodes := 2; maxNodes <= len(stats); maxNodes++ {
		cutoff := SuggestThreshold(stats, maxNodes)
		assert.LessOrEqual(t, cutoff, prev)
		prev = cutoff
	}
}

func TestSuggestThreshold_DefaultMaxNodes(t *testing.T) {
	weights := make([]int, DefaultMaxNodes+10)
	for i := range weights {
		weights[i] = i
	}
	stats := statsWithWeights(weights...)

	assert.Equal(t, SuggestThreshold(stats, DefaultMaxNodes), SuggestThreshold(stats, 0))
	assert.LessOrEqual(t, surviving(stats, SuggestThreshold(stats, 0)), DefaultMaxNodes)
}

func TestSuggestThreshold_TopTieKeepsGraph(t *testing.T) {
	stats := statsWithWeights(7, 7, 7, 7, 2)

	cutoff := SuggestThreshold(stats, 2)
	assert.Equal(t, 7, cutoff)
	assert.Equal(t, 4, surviving(stats, cutoff))
}

func TestNodeWeights(t *testing.T) {
	rep := &Report{
		Records: []CallRecord{
			{Caller: "main", Callee: "work", Calls: 4},
			{Caller: "work", Callee: "work", Calls: 2},
			{Caller: "work", Callee: "helper", Calls: 3},
		},
		Stats: map[string]FunctionStat{
			"main": {Name: "main", CalleeCalls: 4},
			"idle": {Name: "idle", Calls: 100},
		},
	}

	// Functions without a stat weigh their arcs; a self-call counts once.
	assert.Equal(t, map[string]int{"main": 4, "work": 9, "helper": 3}, rep.NodeWeights())
}

func TestSuggestForReport_CountsFunctionsWithoutStats(t *testing.T) {
	rep := &Report{
		Records: []CallRecord{
			{Caller: "main", Callee: "a", Calls: 10},
			{Caller: "main", Callee: "b", Calls: 5},
			{Caller: "main", Callee: "c", Calls: 1},
		},
		Stats: map[string]FunctionStat{
			"main": {Name: "main", CalleeCalls: 16},
		},
	}

	// Stats alone hold one function and would need no cutoff.
	assert.Equal(t, 0, SuggestThreshold(rep.Stats, 2))

	cutoff := SuggestForReport(rep, 2)
	assert.Equal(t, 6, cutoff)
	n := 0
	for _, w := range rep.NodeWeights() {
		if w >= cutoff {
			n++
		}
	}
	assert.Equal(t, 2, n)
}
