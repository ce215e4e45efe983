// Package pipeline runs a gprof report through parsing, threshold advice,
// graph building, DOT output and optional rendering.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/cgraph/pkg/callgraph"
	"github.com/danpilch/cgraph/pkg/debug"
	"github.com/danpilch/cgraph/pkg/dot"
	"github.com/danpilch/cgraph/pkg/gprof"
	"github.com/danpilch/cgraph/pkg/render"
)

// Output layout under the base directory.
const (
	CallGraphDir = "CallGraph"
	DotFileName  = "graph.dot"
)

// DefaultOutputPath returns <baseDir>/CallGraph/graph.dot.
func DefaultOutputPath(baseDir string) string {
	return filepath.Join(baseDir, CallGraphDir, DotFileName)
}

// Options configures one run.
type Options struct {
	Style callgraph.StyleConfig
	// Suggest raises the node threshold to the advisor's suggestion when
	// the suggestion is higher.
	Suggest  bool
	MaxNodes int

	// OutputPath is where the DOT file goes. Empty skips writing.
	OutputPath string

	// Validate parses the DOT text with graphviz before it is written.
	Validate bool

	// Renderer, when set, renders the written DOT file as Format next to it.
	Renderer render.Renderer
	Format   render.Format

	Logger    *logrus.Logger
	Stopwatch *debug.Stopwatch
}

// Result holds everything a run produced.
type Result struct {
	Report            *gprof.Report
	Suggested         int
	Threshold         int // node threshold the document was built with
	SuggestionApplied bool
	Document          *callgraph.Document
	DotPath           string
	ImagePath         string
}

// Run reads a gprof report from r and processes it according to opts.
func Run(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	sw := opts.Stopwatch
	res := &Result{}

	sw.Time("parse", func() error {
		res.Report = gprof.NewParser(logger).Parse(r)
		return nil
	})

	style := opts.Style
	sw.Time("advise", func() error {
		res.Suggested = gprof.SuggestForReport(res.Report, opts.MaxNodes)
		return nil
	})
	if opts.Suggest && res.Suggested > style.NodeThreshold {
		logger.WithFields(logrus.Fields{
			"configured": style.NodeThreshold,
			"suggested":  res.Suggested,
		}).Info("Applying suggested node threshold")
		style.NodeThreshold = res.Suggested
		res.SuggestionApplied = true
	}
	res.Threshold = style.NodeThreshold

	sw.Time("build", func() error {
		res.Document = callgraph.NewBuilder(logger).Build(res.Report.Records, res.Report.Stats, style)
		return nil
	})

	if opts.Validate {
		err := sw.Time("validate", func() error {
			src, err := dot.Marshal(res.Document)
			if err != nil {
				return err
			}
			if err := render.Validate(src); err != nil {
				return fmt.Errorf("generated DOT does not parse: %w", err)
			}
			return nil
		})
		if err != nil {
			return res, err
		}
	}

	if opts.OutputPath == "" {
		return res, nil
	}

	err := sw.Time("write", func() error {
		if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0755); err != nil {
			return fmt.Errorf("cannot create output directory: %w", err)
		}
		return dot.WriteFile(opts.OutputPath, res.Document)
	})
	if err != nil {
		return res, err
	}
	res.DotPath = opts.OutputPath

	if opts.Renderer == nil {
		return res, nil
	}
	image := render.ImagePath(opts.OutputPath, opts.Format)
	err = sw.Time("render", func() error {
		return opts.Renderer.Render(ctx, opts.OutputPath, image, opts.Format)
	})
	if err != nil {
		return res, fmt.Errorf("render %s: %w", image, err)
	}
	res.ImagePath = image

	logger.WithFields(logrus.Fields{
		"dot":   res.DotPath,
		"image": res.ImagePath,
		"nodes": len(res.Document.Nodes),
		"edges": len(res.Document.Edges),
	}).Debug("Call graph written")

	return res, nil
}
