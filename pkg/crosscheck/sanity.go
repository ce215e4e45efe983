package crosscheck

import (
	"fmt"
	"sort"

	"github.com/danpilch/cgraph/pkg/gprof"
)

// SanityResult holds the outcome of one consistency check.
type SanityResult struct {
	Check   string `json:"check"`
	Passed  bool   `json:"passed"`
	Details string `json:"details"`
}

// RunSanityChecks checks a report for values gprof cannot produce.
func RunSanityChecks(rep *gprof.Report) []SanityResult {
	var results []SanityResult

	if len(rep.Flat) > 0 {
		var total float64
		for _, f := range rep.Flat {
			total += f.PercentTime
		}
		// Rows with 0.00% are often cut, and each row is rounded.
		ok := total <= 100.5 && (total >= 99.0 || total == 0)
		results = append(results, SanityResult{
			Check:   "flat profile time adds up",
			Passed:  ok,
			Details: fmt.Sprintf("%.2f%% total", total),
		})
	}

	for _, name := range sortedNames(rep.Stats) {
		s := rep.Stats[name]
		if s.PercentTime < 0 || s.PercentTime > 100.05 {
			results = append(results, SanityResult{
				Check:   fmt.Sprintf("%s %% time", name),
				Passed:  false,
				Details: fmt.Sprintf("%.2f%% outside [0, 100]", s.PercentTime),
			})
		}
		if s.SelfSeconds < 0 || s.ChildrenSeconds < 0 {
			results = append(results, SanityResult{
				Check:   fmt.Sprintf("%s seconds", name),
				Passed:  false,
				Details: fmt.Sprintf("negative time: self %.2f, children %.2f", s.SelfSeconds, s.ChildrenSeconds),
			})
		}
	}

	var missing []string
	seen := make(map[string]bool)
	for _, r := range rep.Records {
		for _, name := range []string{r.Caller, r.Callee} {
			if _, ok := rep.Stats[name]; !ok && !seen[name] {
				seen[name] = true
				missing = append(missing, name)
			}
		}
	}
	if len(rep.Stats) > 0 {
		details := "every arc endpoint has a primary line"
		if len(missing) > 0 {
			details = fmt.Sprintf("%d without a primary line, first %q", len(missing), missing[0])
		}
		results = append(results, SanityResult{
			Check:   "call graph blocks complete",
			Passed:  len(missing) == 0,
			Details: details,
		})
	}

	results = append(results, SanityResult{
		Check:   "all lines parsed",
		Passed:  rep.Skipped == 0,
		Details: fmt.Sprintf("%d skipped", rep.Skipped),
	})
	return results
}

// RunCrossChecks compares the self time and call count of every function
// listed in both the flat profile and the call graph, plus the total self time.
func RunCrossChecks(rep *gprof.Report) ([]ValidationResult, []SanityResult) {
	validator := NewValidator()
	exact := &Validator{SuspectThreshold: validator.SuspectThreshold, ConflictThreshold: validator.ConflictThreshold}

	var validations []ValidationResult
	var flatSelf, graphSelf float64
	for _, f := range rep.Flat {
		s, ok := rep.Stats[f.Name]
		if !ok {
			continue
		}
		flatSelf += f.SelfSeconds
		graphSelf += s.SelfSeconds

		validations = append(validations, validator.CrossCheck(f.Name+" self seconds", []Source{
			{Name: "flat", Value: f.SelfSeconds},
			{Name: "graph", Value: s.SelfSeconds},
		}))
		// Spontaneous functions such as main show calls in the flat
		// profile but none in the call graph.
		if graphCalls := s.Calls + s.RecursiveCalls; graphCalls > 0 {
			validations = append(validations, exact.CrossCheck(f.Name+" calls", []Source{
				{Name: "flat", Value: float64(f.Calls)},
				{Name: "graph", Value: float64(graphCalls)},
			}))
		}
	}
	if len(validations) > 0 {
		total := validator.CrossCheck("total self seconds", []Source{
			{Name: "flat", Value: flatSelf},
			{Name: "graph", Value: graphSelf},
		})
		validations = append([]ValidationResult{total}, validations...)
	}

	return validations, RunSanityChecks(rep)
}

func sortedNames(stats map[string]gprof.FunctionStat) []string {
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Flagged returns the validations that are not valid.
func Flagged(validations []ValidationResult) []ValidationResult {
	var out []ValidationResult
	for _, v := range validations {
		if v.Status != StatusValid {
			out = append(out, v)
		}
	}
	return out
}
