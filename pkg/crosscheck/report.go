package crosscheck

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	suspectStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	conflictStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	passStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Report writes the metrics whose sources disagree and the sanity checks.
// Metrics that agree are only counted.
func Report(w io.Writer, validations []ValidationResult, sanity []SanityResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Report Consistency"))
	fmt.Fprintln(w, dimStyle.Render(strings.Repeat("═", 60)))

	flagged := Flagged(validations)
	fmt.Fprintf(w, "%d of %d figures agree between flat profile and call graph\n",
		len(validations)-len(flagged), len(validations))

	if len(flagged) > 0 {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(dimStyle).
			Headers("METRIC", "FLAT", "GRAPH", "DEVIATION", "STATUS").
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return lipgloss.NewStyle().Padding(0, 1)
			})
		for _, v := range flagged {
			status := suspectStyle.Render("SUSPECT")
			if v.Status == StatusConflict {
				status = conflictStyle.Render("CONFLICT")
			}
			t.Row(v.Metric, sourceValue(v, "flat"), sourceValue(v, "graph"),
				fmt.Sprintf("%.1f%%", v.Deviation), status)
		}
		fmt.Fprintln(w, t.Render())
	}

	if len(sanity) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Sanity Checks"))
		failed := 0
		for _, s := range sanity {
			icon := passStyle.Render("PASS")
			if !s.Passed {
				icon = failStyle.Render("FAIL")
				failed++
			}
			fmt.Fprintf(w, "  [%s] %-40s %s\n", icon, s.Check, dimStyle.Render(s.Details))
		}
		fmt.Fprintln(w)
		if failed == 0 {
			fmt.Fprintf(w, "  %s\n", passStyle.Render(fmt.Sprintf("All %d sanity checks passed.", len(sanity))))
		} else {
			fmt.Fprintf(w, "  %s\n", failStyle.Render(fmt.Sprintf("%d of %d sanity checks failed.", failed, len(sanity))))
		}
	}
}

func sourceValue(v ValidationResult, name string) string {
	for _, s := range v.Sources {
		if s.Name == name {
			return fmt.Sprintf("%g", s.Value)
		}
	}
	return "-"
}

// ReportJSON writes every validation and sanity check as JSON.
func ReportJSON(w io.Writer, validations []ValidationResult, sanity []SanityResult) error {
	output := struct {
		Validations []ValidationResult `json:"validations"`
		Sanity      []SanityResult     `json:"sanity"`
	}{
		Validations: validations,
		Sanity:      sanity,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
