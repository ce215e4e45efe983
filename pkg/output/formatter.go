// Package output formats profile summaries and graph results for the terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Format represents the output format type.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatAI    Format = "ai"
	FormatTSV   Format = "tsv"
)

// ParseFormat maps a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatAI, FormatTSV:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want table, json, ai or tsv)", s)
}

// GraphResult describes a finished graph run.
type GraphResult struct {
	DotPath            string `json:"dot_path"`
	ImagePath          string `json:"image_path,omitempty"`
	Nodes              int    `json:"nodes"`
	Edges              int    `json:"edges"`
	NodeThreshold      int    `json:"node_threshold"`
	EdgeThreshold      int    `json:"edge_threshold"`
	SuggestedThreshold int    `json:"suggested_node_threshold"`
	SuggestionApplied  bool   `json:"suggestion_applied"`
	Skipped            int    `json:"skipped_lines"`
}

// Formatter handles output formatting.
type Formatter struct {
	format Format
	writer io.Writer
}

// NewFormatter creates a new formatter.
func NewFormatter(format Format, writer io.Writer) *Formatter {
	return &Formatter{
		format: format,
		writer: writer,
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	heatStyles = map[Heat]lipgloss.Style{
		HeatHot:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),  // Red
		HeatWarm: lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true), // Yellow
		HeatCool: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),            // Green
	}

	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

// Format returns the configured output format.
func (f *Formatter) Format() Format {
	return f.format
}

// Render outputs the summary in the configured format.
func (f *Formatter) Render(s Summary) error {
	switch f.format {
	case FormatJSON:
		return f.renderJSON(s)
	case FormatAI:
		return f.renderAI(s)
	case FormatTSV:
		return f.renderTSV(s)
	default:
		return f.renderTable(s)
	}
}

func (f *Formatter) renderJSON(v any) error {
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderTable outputs the summary as a styled table.
func (f *Formatter) renderTable(s Summary) error {
	fmt.Fprintln(f.writer, titleStyle.Render("gprof Profile Summary"))
	fmt.Fprintln(f.writer, strings.Repeat("═", 60))
	fmt.Fprintln(f.writer)

	rows := make([][]string, len(s.Functions))
	for i, fn := range s.Functions {
		rows[i] = []string{
			fn.Name,
			fmt.Sprintf("%.1f%%", fn.PercentTime),
			fmt.Sprintf("%.2f", fn.SelfSeconds),
			fmt.Sprintf("%.2f", fn.TotalSeconds),
			fmt.Sprintf("%d", fn.Calls),
			heatStyles[fn.Heat].Render(Bar(fn.PercentTime, 100, 10)),
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("FUNCTION", "% TIME", "SELF (s)", "TOTAL (s)", "CALLS", "SHARE").
		Rows(rows...)

	fmt.Fprintln(f.writer, t)
	fmt.Fprintln(f.writer)

	fmt.Fprintf(f.writer, "%d of %d functions, %d call arcs, %.2fs sampled\n",
		len(s.Functions), s.TotalFunctions, s.Records, s.SampledSeconds)
	if s.Skipped > 0 {
		fmt.Fprintln(f.writer, noticeStyle.Render(fmt.Sprintf("%d report lines skipped", s.Skipped)))
	}
	fmt.Fprintf(f.writer, "Suggested node threshold for %d nodes: %d\n", s.MaxNodes, s.SuggestedThreshold)

	if len(s.Hints) > 0 {
		fmt.Fprintln(f.writer)
		for _, h := range s.Hints {
			fmt.Fprintf(f.writer, "  %s  %s\n", h.Command, dimStyle.Render(h.Reason))
		}
	}
	return nil
}

// renderAI outputs the summary in an LLM-friendly format.
func (f *Formatter) renderAI(s Summary) error {
	hot := 0
	for _, fn := range s.Functions {
		if fn.Heat == HeatHot {
			hot++
		}
	}

	if hot == 0 {
		fmt.Fprintln(f.writer, "# Profile: No Dominant Hotspot")
	} else {
		fmt.Fprintln(f.writer, "# Profile: Hotspots Detected")
	}
	fmt.Fprintf(f.writer, "\n**Sampled:** %.2fs across %d functions and %d call arcs\n\n",
		s.SampledSeconds, s.TotalFunctions, s.Records)

	if hot > 0 {
		fmt.Fprintln(f.writer, "## Hotspots")
		fmt.Fprintln(f.writer)
		for _, fn := range s.Functions {
			if fn.Heat != HeatHot {
				continue
			}
			fmt.Fprintf(f.writer, "- **%s:** %.1f%% of time, %.2fs self, %d calls\n",
				fn.Name, fn.PercentTime, fn.SelfSeconds, fn.Calls)
		}
		fmt.Fprintln(f.writer)
	}

	fmt.Fprintln(f.writer, "## Functions")
	fmt.Fprintln(f.writer)
	fmt.Fprintln(f.writer, "| Function | % Time | Self (s) | Total (s) | Calls |")
	fmt.Fprintln(f.writer, "|----------|--------|----------|-----------|-------|")
	for _, fn := range s.Functions {
		name := fn.Name
		if fn.Heat == HeatHot {
			name = fmt.Sprintf("**%s**", name)
		}
		fmt.Fprintf(f.writer, "| %s | %.1f | %.2f | %.2f | %d |\n",
			strings.ReplaceAll(name, "|", `\|`), fn.PercentTime, fn.SelfSeconds, fn.TotalSeconds, fn.Calls)
	}
	fmt.Fprintln(f.writer)

	fmt.Fprintf(f.writer, "Node threshold %d keeps the graph near %d nodes.\n", s.SuggestedThreshold, s.MaxNodes)

	if len(s.Hints) > 0 {
		fmt.Fprintln(f.writer)
		fmt.Fprintln(f.writer, "## Suggested Next Steps")
		fmt.Fprintln(f.writer)
		for _, h := range s.Hints {
			fmt.Fprintf(f.writer, "- `%s` - %s\n", h.Command, h.Reason)
		}
	}
	return nil
}

// renderTSV outputs the summary as tab-separated values.
func (f *Formatter) renderTSV(s Summary) error {
	fmt.Fprintln(f.writer, "FUNCTION\tINDEX\tPERCENT_TIME\tSELF_SECONDS\tTOTAL_SECONDS\tCALLS\tCALLEE_CALLS\tHEAT")

	for _, fn := range s.Functions {
		fmt.Fprintf(f.writer, "%s\t%d\t%.2f\t%.4f\t%.4f\t%d\t%d\t%s\n",
			fn.Name, fn.Index, fn.PercentTime, fn.SelfSeconds, fn.TotalSeconds,
			fn.Calls, fn.CalleeCalls, fn.Heat)
	}
	return nil
}

// RenderGraph outputs the result of a graph run.
func (f *Formatter) RenderGraph(r GraphResult) error {
	switch f.format {
	case FormatJSON:
		return f.renderJSON(r)
	case FormatTSV:
		fmt.Fprintln(f.writer, "DOT_PATH\tIMAGE_PATH\tNODES\tEDGES\tNODE_THRESHOLD\tEDGE_THRESHOLD\tSUGGESTED\tAPPLIED")
		fmt.Fprintf(f.writer, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%t\n",
			r.DotPath, r.ImagePath, r.Nodes, r.Edges, r.NodeThreshold, r.EdgeThreshold,
			r.SuggestedThreshold, r.SuggestionApplied)
		return nil
	}

	if r.SuggestionApplied {
		fmt.Fprintln(f.writer, noticeStyle.Render(SuggestionNotice(r.SuggestedThreshold)))
	}
	fmt.Fprintf(f.writer, "Wrote %s (%d nodes, %d edges)\n", r.DotPath, r.Nodes, r.Edges)
	if r.ImagePath != "" {
		fmt.Fprintf(f.writer, "Rendered %s\n", r.ImagePath)
	}
	if r.Skipped > 0 {
		fmt.Fprintln(f.writer, dimStyle.Render(fmt.Sprintf("%d report lines skipped", r.Skipped)))
	}
	return nil
}

// SuggestionNotice tells the user the suggested node threshold replaced a
// lower configured one.
func SuggestionNotice(threshold int) string {
	return fmt.Sprintf("Using suggested node threshold %d to keep the graph readable; pass --no-suggest to keep the configured one.", threshold)
}
