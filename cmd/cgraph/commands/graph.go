package commands

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/danpilch/cgraph/pkg/config"
	"github.com/danpilch/cgraph/pkg/debug"
	"github.com/danpilch/cgraph/pkg/output"
	"github.com/danpilch/cgraph/pkg/pipeline"
	"github.com/danpilch/cgraph/pkg/render"
	"github.com/danpilch/cgraph/pkg/toolchain"
)

func newGraphCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph [report]",
		Short: "Write the call graph as a DOT file and render it",
		Long: `Parses a gprof report and writes <dir>/CallGraph/graph.dot, then renders
it with Graphviz. When the suggested node threshold is higher than the
configured one, the suggestion is used unless --no-suggest is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runGraph,
	}

	addInputFlags(cmd)
	cmd.Flags().StringP("out", "o", "", "DOT file to write (default: <dir>/CallGraph/graph.dot)")
	cmd.Flags().String("dir", "", "Base output directory")
	cmd.Flags().String("title", "", "Graph title")
	cmd.Flags().Int("node-threshold", 0, "Minimum node weight (calls through the function)")
	cmd.Flags().Int("edge-threshold", 0, "Minimum edge weight (call count)")
	cmd.Flags().Bool("hide-params", false, "Hide parameter lists in labels")
	cmd.Flags().Bool("strip-params", false, "Merge functions that differ only in parameters")
	cmd.Flags().Bool("hide-namespaces", false, "Hide namespace and class qualification in labels")
	cmd.Flags().Int("max-nodes", 0, "Node count the suggested threshold aims for")
	cmd.Flags().Bool("no-suggest", false, "Never raise the node threshold to the suggested one")
	cmd.Flags().String("image-format", "", "Image format: png, svg, jpg, or none for DOT only")
	cmd.Flags().String("renderer", "", "Renderer: exec (dot binary) or embedded")
	cmd.Flags().String("dot", "", "Path to dot (default: search PATH)")
	cmd.Flags().Bool("timing", false, "Print a per-stage timing report to stderr")
	cmd.Flags().Bool("dump", false, "Print the parsed call records to stderr")
	cmd.Flags().Bool("validate", false, "Check the generated DOT with graphviz's parser before writing")
	return cmd
}

func runGraph(cmd *cobra.Command, args []string) error {
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

	opts := pipeline.Options{
		Style:      cfg.Style(),
		Suggest:    cfg.Advisor.Enabled,
		MaxNodes:   cfg.Advisor.MaxNodes,
		OutputPath: pipeline.DefaultOutputPath(cfg.Output.Dir),
		Logger:     logger,
	}
	opts.Validate, _ = cmd.Flags().GetBool("validate")
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		opts.OutputPath = out
	}
	if timing, _ := cmd.Flags().GetBool("timing"); timing {
		opts.Stopwatch = debug.NewStopwatch()
	}
	if cfg.Output.Format != config.FormatNone {
		if opts.Renderer, opts.Format, err = newRenderer(cfg, logger); err != nil {
			return err
		}
	}

	res, err := pipeline.Run(cmd.Context(), in, opts)
	if err != nil {
		return err
	}

	if dump, _ := cmd.Flags().GetBool("dump"); dump {
		debug.DumpRecords(cmd.ErrOrStderr(), res.Report.Records)
	}
	if opts.Stopwatch != nil {
		debug.TimingReport(cmd.ErrOrStderr(), opts.Stopwatch.Timings())
	}

	return formatter.RenderGraph(output.GraphResult{
		DotPath:            filepath.ToSlash(res.DotPath),
		ImagePath:          filepath.ToSlash(res.ImagePath),
		Nodes:              len(res.Document.Nodes),
		Edges:              len(res.Document.Edges),
		NodeThreshold:      res.Threshold,
		EdgeThreshold:      opts.Style.EdgeThreshold,
		SuggestedThreshold: res.Suggested,
		SuggestionApplied:  res.SuggestionApplied,
		Skipped:            res.Report.Skipped,
	})
}

func newRenderer(cfg *config.Config, logger *logrus.Logger) (render.Renderer, render.Format, error) {
	format, err := render.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, "", err
	}
	kind, err := render.ParseKind(cfg.Output.Renderer)
	if err != nil {
		return nil, "", err
	}

	var dotPath string
	if kind == render.KindExec {
		if dotPath, err = toolchain.Locate(toolchain.DotName, cfg.Tools.Dot); err != nil {
			return nil, "", fmt.Errorf("%w (use --renderer embedded or --image-format none)", err)
		}
	}
	r, err := render.New(kind, dotPath, logger)
	return r, format, err
}
