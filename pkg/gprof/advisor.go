package gprof

import "sort"

// DefaultMaxNodes is the number of functions a suggested threshold aims to keep.
const DefaultMaxNodes = 50

// SuggestThreshold returns the smallest node weight cutoff that leaves at most
// maxNodes functions whose Weight reaches it, unless more than maxNodes share
// the top weight; then the cutoff keeps exactly that group. Zero means no
// cutoff is needed. A maxNodes below 1 falls back to DefaultMaxNodes.
func SuggestThreshold(stats map[string]FunctionStat, maxNodes int) int {
	weights := make([]int, 0, len(stats))
	for _, s := range stats {
		weights = append(weights, s.Weight())
	}
	return suggest(weights, maxNodes)
}

// SuggestForReport is SuggestThreshold over every function that can become a
// graph node, weighted the way the graph builder weighs it.
func SuggestForReport(rep *Report, maxNodes int) int {
	nodes := rep.NodeWeights()
	weights := make([]int, 0, len(nodes))
	for _, w := range nodes {
		weights = append(weights, w)
	}
	return suggest(weights, maxNodes)
}

// NodeWeights returns the weight of every function named by a call record:
// its stat Weight when the report has one, else the sum of its arcs.
func (r *Report) NodeWeights() map[string]int {
	incident := make(map[string]int)
	for _, rec := range r.Records {
		incident[rec.Caller] += rec.Calls
		if rec.Callee != rec.Caller {
			incident[rec.Callee] += rec.Calls
		}
	}
	for name := range incident {
		if s, ok := r.Stats[name]; ok {
			incident[name] = s.Weight()
		}
	}
	return incident
}

func suggest(weights []int, maxNodes int) int {
	if maxNodes < 1 {
		maxNodes = DefaultMaxNodes
	}
	if len(weights) <= maxNodes {
		return 0
	}
	sort.Sort(sort.Reverse(sort.IntSlice(weights)))

	// A tie at the top that is wider than maxNodes stays whole rather than
	// emptying the graph.
	if weights[maxNodes] == weights[0] {
		return weights[0]
	}
	// Everything at or below the first excluded weight has to go.
	return weights[maxNodes] + 1
}
