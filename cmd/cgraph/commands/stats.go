package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/danpilch/cgraph/pkg/baseline"
	"github.com/danpilch/cgraph/pkg/crosscheck"
	"github.com/danpilch/cgraph/pkg/gprof"
	"github.com/danpilch/cgraph/pkg/output"
)

func newStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [report]",
		Short: "Summarize a gprof report and suggest a node threshold",
		Long: `Summarize a gprof report: the functions with the most self time, the
node threshold that keeps a graph readable, and flags worth trying.

A summary can be saved as a named baseline and later runs compared
against it to spot functions that got slower.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runStats,
	}

	addInputFlags(cmd)
	cmd.Flags().Int("top", 20, "Number of functions to list (0 for all)")
	cmd.Flags().Int("max-nodes", 0, "Node count the suggested threshold aims for")
	cmd.Flags().Int("node-threshold", 0, "Configured node threshold, used for hints")
	cmd.Flags().Bool("strip-params", false, "Assume --strip-params for hints")
	cmd.Flags().Bool("hide-namespaces", false, "Assume --hide-namespaces for hints")
	cmd.Flags().Bool("crosscheck", false, "Check the flat profile against the call graph")
	cmd.Flags().String("save-baseline", "", "Save this run as a named baseline")
	cmd.Flags().String("baseline", "", "Compare this run against a saved baseline")
	cmd.Flags().String("baseline-dir", "", "Baseline directory (default ~/.cgraph/baselines)")
	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)
	formatter, err := newFormatter(cmd)
	if err != nil {
		return err
	}

	in, err := openInput(cmd, args, cfg, logger)
	if err != nil {
		return err
	}
	defer in.Close()

	rep := gprof.NewParser(logger).Parse(in)
	top, _ := cmd.Flags().GetInt("top")

	summary := output.Summarize(rep, cfg.Advisor.MaxNodes, top)
	summary.Hints = output.Hints(summary, cfg.Style())
	if err := formatter.Render(summary); err != nil {
		return err
	}

	if check, _ := cmd.Flags().GetBool("crosscheck"); check {
		validations, sanity := crosscheck.RunCrossChecks(rep)
		if formatter.Format() == output.FormatJSON {
			if err := crosscheck.ReportJSON(cmd.OutOrStdout(), validations, sanity); err != nil {
				return err
			}
		} else {
			crosscheck.Report(cmd.OutOrStdout(), validations, sanity)
		}
	}

	return handleBaselines(cmd, rep, cfg.Advisor.MaxNodes, formatter.Format(), logger)
}

// handleBaselines compares against and saves baselines. Both use every
// function of the report regardless of --top.
func handleBaselines(cmd *cobra.Command, rep *gprof.Report, maxNodes int, format output.Format, logger *logrus.Logger) error {
	compareName, _ := cmd.Flags().GetString("baseline")
	saveName, _ := cmd.Flags().GetString("save-baseline")
	if compareName == "" && saveName == "" {
		return nil
	}
	dir, _ := cmd.Flags().GetString("baseline-dir")
	full := output.Summarize(rep, maxNodes, 0)
	w := cmd.OutOrStdout()

	if compareName != "" {
		base, err := baseline.Load(compareName, dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return missingBaseline(compareName, dir)
			}
			return err
		}
		comparisons := baseline.Compare(base, full.Functions)
		if err := writeComparison(w, format, base, comparisons); err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{
			"baseline":    base.Name,
			"functions":   len(comparisons),
			"regressions": baseline.Regressions(comparisons),
		}).Debug("compared against baseline")
	}

	if saveName != "" {
		b := baseline.NewBaseline(saveName, full)
		if err := b.Save(dir); err != nil {
			return err
		}
		if format != output.FormatJSON {
			fmt.Fprintf(w, "Saved baseline %q (%d functions)\n", b.Name, len(b.Functions))
		}
	}
	return nil
}

func writeComparison(w io.Writer, format output.Format, base *baseline.Baseline, comparisons []baseline.Comparison) error {
	if format != output.FormatJSON {
		baseline.RenderComparison(w, base, comparisons)
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Baseline    string                `json:"baseline"`
		Regressions int                   `json:"regressions"`
		Comparisons []baseline.Comparison `json:"comparisons"`
	}{base.Name, baseline.Regressions(comparisons), comparisons})
}

func missingBaseline(name, dir string) error {
	names, err := baseline.List(dir)
	if err != nil || len(names) == 0 {
		return fmt.Errorf("baseline %q not found", name)
	}
	return fmt.Errorf("baseline %q not found (available: %s)", name, strings.Join(names, ", "))
}
