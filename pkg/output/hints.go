package output

import (
	"fmt"

	"github.com/danpilch/cgraph/pkg/callgraph"
)

// Suggestion is a follow-up command worth running.
type Suggestion struct {
	Command string `json:"command"`
	Reason  string `json:"reason"`
}

// Hints returns follow-up commands for a summary given the style the graph
// would be drawn with.
func Hints(s Summary, style callgraph.StyleConfig) []Suggestion {
	var hints []Suggestion

	if s.SuggestedThreshold > style.NodeThreshold {
		hints = append(hints, Suggestion{
			Command: fmt.Sprintf("cgraph graph --node-threshold %d", s.SuggestedThreshold),
			Reason:  fmt.Sprintf("Keeps about %d of %d functions in the graph", s.MaxNodes, s.TotalFunctions),
		})
	}
	if s.parameterized && !style.StripParams {
		hints = append(hints, Suggestion{
			Command: "cgraph graph --strip-params",
			Reason:  "Merges overloads into one node per function",
		})
	}
	if s.qualified && !style.HideNamespaces {
		hints = append(hints, Suggestion{
			Command: "cgraph graph --hide-namespaces",
			Reason:  "Shortens qualified names in node labels",
		})
	}
	if s.Skipped > 0 {
		hints = append(hints, Suggestion{
			Command: "cgraph stats --log-level debug",
			Reason:  fmt.Sprintf("Shows the %d report lines that could not be parsed", s.Skipped),
		})
	}
	return hints
}
