// Package gprof parses gprof text reports into call records and per-function statistics.
package gprof

// CallRecord is one caller -> callee arc observed in a call graph block.
// Records for the same pair are additive.
type CallRecord struct {
	Caller string `json:"caller"`
	Callee string `json:"callee"`
	Calls  int    `json:"calls"`
	// Time of the callee attributed to this arc.
	SelfSeconds     float64 `json:"self_seconds"`
	ChildrenSeconds float64 `json:"children_seconds"`
}

// FunctionStat holds the aggregate columns of a function's primary line.
type FunctionStat struct {
	Name            string  `json:"name"`
	Index           int     `json:"index"`
	PercentTime     float64 `json:"percent_time"`
	SelfSeconds     float64 `json:"self_seconds"`
	ChildrenSeconds float64 `json:"children_seconds"`
	Calls           int     `json:"calls"`
	RecursiveCalls  int     `json:"recursive_calls"`
	CalleeCalls     int     `json:"callee_calls"` // sum of the call counts listed below the primary line
	Cycle           int     `json:"cycle,omitempty"`
}

// TotalSeconds returns self plus children time.
func (s FunctionStat) TotalSeconds() float64 {
	return s.SelfSeconds + s.ChildrenSeconds
}

// Weight is the number of calls flowing through the function: non-recursive
// calls into it plus every call it makes. It matches the summed weight of
// the function's incident arcs in the call graph.
func (s FunctionStat) Weight() int {
	return s.Calls + s.CalleeCalls
}

// FlatEntry is one row of the flat profile section.
type FlatEntry struct {
	Name              string  `json:"name"`
	PercentTime       float64 `json:"percent_time"`
	CumulativeSeconds float64 `json:"cumulative_seconds"`
	SelfSeconds       float64 `json:"self_seconds"`
	Calls             int     `json:"calls"`
	SelfMsPerCall     float64 `json:"self_ms_per_call"`
	TotalMsPerCall    float64 `json:"total_ms_per_call"`
}

// Report is the result of parsing one gprof report.
type Report struct {
	Records []CallRecord
	Stats   map[string]FunctionStat
	Flat    []FlatEntry
	Skipped int // lines dropped because they did not reach the minimum shape
}

func newReport() *Report {
	return &Report{
		Stats: make(map[string]FunctionStat),
	}
}

// Empty reports whether nothing usable was parsed.
func (r *Report) Empty() bool {
	return len(r.Records) == 0 && len(r.Stats) == 0 && len(r.Flat) == 0
}
