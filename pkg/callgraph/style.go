// Package callgraph builds a filtered, styled call graph document from gprof call records.
package callgraph

import "sort"

// Neutral colors used below the lowest configured threshold.
const (
	DefaultNodeColor = "#f0f0f0"
	DefaultEdgeColor = "#a0a0a0"
	DefaultTitle     = "Call graph"
)

// ColorThreshold maps weights at or above Weight to Color.
type ColorThreshold struct {
	Weight int    `json:"weight"`
	Color  string `json:"color"`
}

// StyleConfig is the filtering and styling snapshot for one build.
type StyleConfig struct {
	Title          string
	NodeColors     []ColorThreshold
	EdgeColors     []ColorThreshold
	NodeThreshold  int
	EdgeThreshold  int
	HideParams     bool // drop parameter lists from labels only
	StripParams    bool // drop parameter lists from the merge identity
	HideNamespaces bool // drop namespace qualification from labels only
}

// DefaultStyleConfig returns a palette going from cool to hot as weights grow.
func DefaultStyleConfig() StyleConfig {
	return StyleConfig{
		Title: DefaultTitle,
		NodeColors: []ColorThreshold{
			{Weight: 1, Color: "#d6e9f8"},
			{Weight: 10, Color: "#a9d18e"},
			{Weight: 100, Color: "#ffd966"},
			{Weight: 1000, Color: "#f4b183"},
			{Weight: 10000, Color: "#ff6f6f"},
		},
		EdgeColors: []ColorThreshold{
			{Weight: 1, Color: "#7f7f7f"},
			{Weight: 10, Color: "#548235"},
			{Weight: 100, Color: "#bf9000"},
			{Weight: 1000, Color: "#c55a11"},
			{Weight: 10000, Color: "#c00000"},
		},
	}
}

// normalized returns a copy with thresholds clamped to zero and color
// thresholds ordered from highest to lowest. The receiver is not modified.
func (c StyleConfig) normalized() StyleConfig {
	if c.NodeThreshold < 0 {
		c.NodeThreshold = 0
	}
	if c.EdgeThreshold < 0 {
		c.EdgeThreshold = 0
	}
	if c.Title == "" {
		c.Title = DefaultTitle
	}
	c.NodeColors = sortedDescending(c.NodeColors)
	c.EdgeColors = sortedDescending(c.EdgeColors)
	return c
}

func sortedDescending(in []ColorThreshold) []ColorThreshold {
	out := make([]ColorThreshold, 0, len(in))
	for _, t := range in {
		if t.Color == "" {
			continue
		}
		if t.Weight < 0 {
			t.Weight = 0
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Weight > out[j].Weight
	})
	return out
}

// pickColor returns the color of the highest threshold the weight reaches.
// thresholds must be ordered from highest to lowest.
func pickColor(thresholds []ColorThreshold, weight int, fallback string) string {
	for _, t := range thresholds {
		if weight >= t.Weight {
			return t.Color
		}
	}
	return fallback
}
