package debug

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/danpilch/cgraph/pkg/gprof"
)

// DumpRecords outputs every parsed call record before merging and filtering.
func DumpRecords(w io.Writer, records []gprof.CallRecord) {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	fmt.Fprintln(w)
	fmt.Fprintln(w, title.Render("Raw Call Records"))
	fmt.Fprintln(w, dim.Render(strings.Repeat("═", 85)))
	fmt.Fprintf(w, "  %s %s %s %s %s\n",
		header.Render("CALLER                  "),
		header.Render("CALLEE                  "),
		header.Render("CALLS     "),
		header.Render("SELF (s)  "),
		header.Render("CHILDREN (s)"))
	fmt.Fprintln(w, "  "+dim.Render(strings.Repeat("─", 85)))

	for _, r := range records {
		fmt.Fprintf(w, "  %-25s %-25s %-11d %-11.2f %.2f\n",
			r.Caller, r.Callee, r.Calls, r.SelfSeconds, r.ChildrenSeconds)
	}
	fmt.Fprintln(w, "  "+dim.Render(fmt.Sprintf("%d records", len(records))))
}
