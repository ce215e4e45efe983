// Package crosscheck compares the figures a gprof report prints more than
// once (flat profile against call graph) and checks them for impossible values.
package crosscheck

import "math"

// ValidationStatus indicates how well the sources agree.
type ValidationStatus string

const (
	StatusValid    ValidationStatus = "valid"
	StatusSuspect  ValidationStatus = "suspect"
	StatusConflict ValidationStatus = "conflict"
)

// Source is one reading of a metric, named after the report section it came from.
type Source struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ValidationResult holds the cross-check outcome for a metric.
type ValidationResult struct {
	Metric    string           `json:"metric"`
	Sources   []Source         `json:"sources"`
	Reference float64          `json:"reference"`
	Deviation float64          `json:"deviation_pct"`
	Status    ValidationStatus `json:"status"`
}

// Validator cross-checks metrics reported by several sources.
type Validator struct {
	SuspectThreshold  float64 // deviation % to mark suspect (default 5%)
	ConflictThreshold float64 // deviation % to mark conflict (default 20%)
	// Differences up to Tolerance are never flagged. gprof prints seconds
	// with two decimals, so the default is one sample.
	Tolerance float64
}

// NewValidator creates a validator with default thresholds.
func NewValidator() *Validator {
	return &Validator{
		SuspectThreshold:  5.0,
		ConflictThreshold: 20.0,
		Tolerance:         0.01,
	}
}

// CrossCheck compares the sources against the largest reading. The
// deviation is the spread between the smallest and largest reading as a
// percentage of the largest.
func (v *Validator) CrossCheck(metric string, sources []Source) ValidationResult {
	result := ValidationResult{
		Metric:  metric,
		Sources: sources,
		Status:  StatusValid,
	}
	if len(sources) == 0 {
		return result
	}

	lo, hi := sources[0].Value, sources[0].Value
	for _, s := range sources[1:] {
		lo = math.Min(lo, s.Value)
		hi = math.Max(hi, s.Value)
	}
	result.Reference = hi

	spread := hi - lo
	if spread <= v.Tolerance+1e-9 {
		return result
	}
	if hi == 0 {
		result.Deviation = 100
	} else {
		result.Deviation = spread / math.Abs(hi) * 100
	}

	switch {
	case result.Deviation >= v.ConflictThreshold:
		result.Status = StatusConflict
	case result.Deviation >= v.SuspectThreshold:
		result.Status = StatusSuspect
	}
	return result
}
