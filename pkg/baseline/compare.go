package baseline

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/danpilch/cgraph/pkg/output"
)

// Severity indicates the magnitude of a change in self time.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityMajor    Severity = "major"
	SeverityRegress  Severity = "regression"
)

// NoiseFloor is the largest self time change still reported as unchanged:
// one sample at gprof's default 100Hz.
const NoiseFloor = 0.01

// Comparison holds the change in one function between baseline and current run.
type Comparison struct {
	Function      string   `json:"function"`
	BaselineSelf  float64  `json:"baseline_self_seconds"`
	CurrentSelf   float64  `json:"current_self_seconds"`
	BaselineCalls int      `json:"baseline_calls"`
	CurrentCalls  int      `json:"current_calls"`
	DeltaPct      float64  `json:"delta_pct"`
	Severity      Severity `json:"severity"`
	Added         bool     `json:"added,omitempty"`
	Removed       bool     `json:"removed,omitempty"`
}

// Regression reports whether the function got significantly slower.
func (c Comparison) Regression() bool {
	return c.Severity == SeverityRegress
}

var (
	blTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	blHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	blDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	blOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	blWarn   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	blErr    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	blMinor  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// Compare matches functions by name and classifies the change in self time.
// Functions present on one side only are included as added or removed.
// The result is sorted by absolute self time change, largest first.
func Compare(baseline *Baseline, current []output.FunctionRow) []Comparison {
	base := make(map[string]output.FunctionRow, len(baseline.Functions))
	for _, f := range baseline.Functions {
		base[f.Name] = f
	}

	var comparisons []Comparison
	seen := make(map[string]bool, len(current))
	for _, cur := range current {
		seen[cur.Name] = true
		b, ok := base[cur.Name]
		c := Comparison{
			Function:      cur.Name,
			BaselineSelf:  b.SelfSeconds,
			CurrentSelf:   cur.SelfSeconds,
			BaselineCalls: b.Calls,
			CurrentCalls:  cur.Calls,
			Added:         !ok,
		}
		c.DeltaPct, c.Severity = classify(b.SelfSeconds, cur.SelfSeconds)
		comparisons = append(comparisons, c)
	}
	for _, b := range baseline.Functions {
		if seen[b.Name] {
			continue
		}
		c := Comparison{
			Function:      b.Name,
			BaselineSelf:  b.SelfSeconds,
			BaselineCalls: b.Calls,
			Removed:       true,
		}
		c.DeltaPct, c.Severity = classify(b.SelfSeconds, 0)
		comparisons = append(comparisons, c)
	}

	sort.SliceStable(comparisons, func(i, j int) bool {
		di := math.Abs(comparisons[i].CurrentSelf - comparisons[i].BaselineSelf)
		dj := math.Abs(comparisons[j].CurrentSelf - comparisons[j].BaselineSelf)
		if di != dj {
			return di > dj
		}
		return comparisons[i].Function < comparisons[j].Function
	})
	return comparisons
}

func classify(base, cur float64) (float64, Severity) {
	if math.Abs(cur-base) <= NoiseFloor+1e-9 {
		return 0, SeverityNone
	}
	var deltaPct float64
	if base != 0 {
		deltaPct = (cur - base) / math.Abs(base) * 100
	} else {
		deltaPct = 100
	}
	return deltaPct, classifySeverity(deltaPct)
}

func classifySeverity(deltaPct float64) Severity {
	absDelta := math.Abs(deltaPct)
	if absDelta < 5 {
		return SeverityNone
	}
	if absDelta < 15 {
		return SeverityMinor
	}
	if absDelta < 30 {
		return SeverityModerate
	}
	if deltaPct > 0 {
		return SeverityRegress
	}
	return SeverityMajor
}

// Regressions counts the functions that got significantly slower.
func Regressions(comparisons []Comparison) int {
	n := 0
	for _, c := range comparisons {
		if c.Regression() {
			n++
		}
	}
	return n
}

// RenderComparison writes the changed functions as a table. Unchanged
// functions are counted but not listed.
func RenderComparison(w io.Writer, baseline *Baseline, comparisons []Comparison) {
	fmt.Fprintln(w, blTitle.Render("Baseline Comparison"))
	fmt.Fprintln(w, blDim.Render(strings.Repeat("═", 90)))
	fmt.Fprintf(w, "Comparing against %s (from %s, %.2fs sampled)\n\n",
		lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%q", baseline.Name)),
		blDim.Render(baseline.Timestamp.Format("2006-01-02 15:04:05")),
		baseline.SampledSeconds)

	fmt.Fprintf(w, "  %s %s %s %s %s\n",
		blHeader.Render("FUNCTION                          "),
		blHeader.Render("BASELINE  "),
		blHeader.Render("CURRENT   "),
		blHeader.Render("DELTA     "),
		blHeader.Render("SEVERITY  "))
	fmt.Fprintln(w, "  "+blDim.Render(strings.Repeat("─", 90)))

	unchanged := 0
	for _, c := range comparisons {
		if c.Severity == SeverityNone {
			unchanged++
			continue
		}

		deltaStr := fmt.Sprintf("%+.1f%%", c.DeltaPct)
		switch {
		case c.Added:
			deltaStr = "new"
		case c.Removed:
			deltaStr = "gone"
		}

		var sevStr string
		switch c.Severity {
		case SeverityRegress:
			sevStr = blErr.Render("REGRESSION")
		case SeverityMajor:
			sevStr = blOK.Render("faster")
		case SeverityModerate:
			sevStr = blWarn.Render("moderate")
		default:
			sevStr = blMinor.Render("minor")
		}

		fmt.Fprintf(w, "  %-36s %-11.2f %-11.2f %-11s %s\n",
			truncate(c.Function, 36), c.BaselineSelf, c.CurrentSelf, deltaStr, sevStr)
	}
	if unchanged > 0 {
		fmt.Fprintln(w, "  "+blDim.Render(fmt.Sprintf("%d functions unchanged", unchanged)))
	}

	fmt.Fprintln(w)
	if n := Regressions(comparisons); n > 0 {
		fmt.Fprintf(w, "  %s\n", blErr.Render(fmt.Sprintf("%d potential regressions detected.", n)))
	} else {
		fmt.Fprintf(w, "  %s\n", blOK.Render("No significant regressions detected."))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
