// Package debug provides instrumentation for cgraph runs: per-stage timing
// and raw dumps of parsed data.
package debug

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	debugTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	debugHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	debugDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// StageTiming records the duration of one pipeline stage.
type StageTiming struct {
	Name     string
	Duration time.Duration
}

// Stopwatch collects stage timings in the order the stages ran.
// A nil *Stopwatch runs stages without recording them.
type Stopwatch struct {
	timings []StageTiming
	now     func() time.Time
}

// NewStopwatch creates an empty stopwatch.
func NewStopwatch() *Stopwatch {
	return &Stopwatch{now: time.Now}
}

// Time runs fn and records how long it took under name.
func (s *Stopwatch) Time(name string, fn func() error) error {
	if s == nil {
		return fn()
	}
	start := s.now()
	err := fn()
	s.timings = append(s.timings, StageTiming{
		Name:     name,
		Duration: s.now().Sub(start),
	})
	return err
}

// Timings returns the recorded stages.
func (s *Stopwatch) Timings() []StageTiming {
	if s == nil {
		return nil
	}
	return append([]StageTiming(nil), s.timings...)
}

// TimingReport prints a styled timing summary for all recorded stages.
func TimingReport(w io.Writer, timings []StageTiming) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, debugTitle.Render("Stage Timing Report"))
	fmt.Fprintln(w, debugDim.Render(strings.Repeat("═", 40)))
	fmt.Fprintf(w, "  %s  %s\n",
		debugHeader.Render("STAGE              "),
		debugHeader.Render("DURATION    "))
	fmt.Fprintln(w, "  "+debugDim.Render(strings.Repeat("─", 40)))

	var total time.Duration
	for _, t := range timings {
		fmt.Fprintf(w, "  %-20s %v\n", t.Name, t.Duration)
		total += t.Duration
	}
	fmt.Fprintln(w, "  "+debugDim.Render(strings.Repeat("─", 40)))
	fmt.Fprintf(w, "  %-20s %v\n",
		lipgloss.NewStyle().Bold(true).Render("TOTAL"), total)
}
