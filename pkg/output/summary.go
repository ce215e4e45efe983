package output

import (
	"sort"
	"strings"

	"github.com/danpilch/cgraph/pkg/gprof"
)

// FunctionRow is one function in a profile summary.
type FunctionRow struct {
	Name         string  `json:"name"`
	Index        int     `json:"index,omitempty"`
	PercentTime  float64 `json:"percent_time"`
	SelfSeconds  float64 `json:"self_seconds"`
	TotalSeconds float64 `json:"total_seconds"`
	Calls        int     `json:"calls"`
	CalleeCalls  int     `json:"callee_calls"`
	Heat         Heat    `json:"heat"`
}

// Summary is the profile overview printed by the stats command.
type Summary struct {
	Functions          []FunctionRow `json:"functions"`
	TotalFunctions     int           `json:"total_functions"`
	Records            int           `json:"records"`
	Skipped            int           `json:"skipped_lines"`
	SampledSeconds     float64       `json:"sampled_seconds"`
	SuggestedThreshold int           `json:"suggested_node_threshold"`
	MaxNodes           int           `json:"max_nodes"`
	Hints              []Suggestion  `json:"hints,omitempty"`

	parameterized bool
	qualified     bool
}

// Summarize ranks the report's functions by self time. Functions that only
// appear in the flat profile are included. top > 0 keeps the first top rows.
func Summarize(rep *gprof.Report, maxNodes, top int) Summary {
	if maxNodes < 1 {
		maxNodes = gprof.DefaultMaxNodes
	}
	s := Summary{
		Records:            len(rep.Records),
		Skipped:            rep.Skipped,
		SuggestedThreshold: gprof.SuggestForReport(rep, maxNodes),
		MaxNodes:           maxNodes,
	}

	for _, st := range rep.Stats {
		s.Functions = append(s.Functions, FunctionRow{
			Name:         st.Name,
			Index:        st.Index,
			PercentTime:  st.PercentTime,
			SelfSeconds:  st.SelfSeconds,
			TotalSeconds: st.TotalSeconds(),
			Calls:        st.Calls + st.RecursiveCalls,
			CalleeCalls:  st.CalleeCalls,
		})
	}
	for _, f := range rep.Flat {
		s.SampledSeconds += f.SelfSeconds
		if _, ok := rep.Stats[f.Name]; ok {
			continue
		}
		s.Functions = append(s.Functions, FunctionRow{
			Name:         f.Name,
			PercentTime:  f.PercentTime,
			SelfSeconds:  f.SelfSeconds,
			TotalSeconds: f.SelfSeconds,
			Calls:        f.Calls,
		})
	}
	if len(rep.Flat) == 0 {
		for _, st := range rep.Stats {
			s.SampledSeconds += st.SelfSeconds
		}
	}

	for i := range s.Functions {
		f := &s.Functions[i]
		f.Heat = Classify(f.PercentTime)
		if strings.Contains(f.Name, "(") {
			s.parameterized = true
		}
		if strings.Contains(f.Name, "::") {
			s.qualified = true
		}
	}

	sort.Slice(s.Functions, func(i, j int) bool {
		a, b := s.Functions[i], s.Functions[j]
		if a.SelfSeconds != b.SelfSeconds {
			return a.SelfSeconds > b.SelfSeconds
		}
		if a.PercentTime != b.PercentTime {
			return a.PercentTime > b.PercentTime
		}
		return a.Name < b.Name
	})

	s.TotalFunctions = len(s.Functions)
	if top > 0 && len(s.Functions) > top {
		s.Functions = s.Functions[:top]
	}
	return s
}
