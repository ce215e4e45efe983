package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpilch/cgraph/pkg/callgraph"
	"github.com/danpilch/cgraph/pkg/debug"
	"github.com/danpilch/cgraph/pkg/dot"
	"github.com/danpilch/cgraph/pkg/render"
)

const report = `index % time    self  children    called     name
                                                 <spontaneous>
[1]    100.0    0.00    0.05                 main [1]
                0.02    0.03       3/3           foo [2]
-----------------------------------------------
                0.02    0.03       3/3           main [1]
[2]    100.0    0.02    0.03       3         foo [2]
                0.03    0.00       5/5           baz [3]
-----------------------------------------------
                0.03    0.00       5/5           foo [2]
[3]     60.0    0.03    0.00       5         baz [3]
-----------------------------------------------
`

func nodeNames(doc *callgraph.Document) []string {
	out := make([]string, 0, len(doc.Nodes))
	for _, n := range doc.Nodes {
		out = append(out, n.Name)
	}
	return out
}

func TestDefaultOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("proj", "CallGraph", "graph.dot"), DefaultOutputPath("proj"))
}

func TestRun_WithoutSuggestion(t *testing.T) {
	res, err := Run(context.Background(), strings.NewReader(report), Options{MaxNodes: 2})
	require.NoError(t, err)

	assert.Equal(t, 4, res.Suggested)
	assert.False(t, res.SuggestionApplied)
	assert.Equal(t, 0, res.Threshold)
	assert.Equal(t, []string{"main", "foo", "baz"}, nodeNames(res.Document))
	assert.Len(t, res.Document.Edges, 2)
	assert.Empty(t, res.DotPath)
}

func TestRun_SuggestionWinsWhenHigher(t *testing.T) {
	res, err := Run(context.Background(), strings.NewReader(report), Options{Suggest: true, MaxNodes: 2})
	require.NoError(t, err)

	assert.True(t, res.SuggestionApplied)
	assert.Equal(t, 4, res.Threshold)
	// main weighs 3 and drops out with its edge.
	assert.Equal(t, []string{"foo", "baz"}, nodeNames(res.Document))
	require.Len(t, res.Document.Edges, 1)
	assert.Equal(t, 5, res.Document.Edges[0].Weight)
}

func TestRun_ConfiguredThresholdWinsWhenHigher(t *testing.T) {
	opts := Options{Suggest: true, MaxNodes: 2}
	opts.Style.NodeThreshold = 10

	res, err := Run(context.Background(), strings.NewReader(report), opts)
	require.NoError(t, err)

	assert.False(t, res.SuggestionApplied)
	assert.Equal(t, 10, res.Threshold)
	assert.True(t, res.Document.Empty())
}

func TestRun_WritesDotFile(t *testing.T) {
	path := DefaultOutputPath(t.TempDir())
	sw := debug.NewStopwatch()

	res, err := Run(context.Background(), strings.NewReader(report), Options{
		Style:      callgraph.DefaultStyleConfig(),
		OutputPath: path,
		Stopwatch:  sw,
	})
	require.NoError(t, err)
	assert.Equal(t, path, res.DotPath)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	want, err := dot.Marshal(res.Document)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	var stages []string
	for _, st := range sw.Timings() {
		stages = append(stages, st.Name)
	}
	assert.Equal(t, []string{"parse", "advise", "build", "write"}, stages)
}

func TestRun_Validates(t *testing.T) {
	sw := debug.NewStopwatch()
	res, err := Run(context.Background(), strings.NewReader(report), Options{
		Style:     callgraph.StyleConfig{Title: `quoted "title"`},
		Validate:  true,
		Stopwatch: sw,
	})
	require.NoError(t, err)
	assert.Empty(t, res.DotPath)

	var stages []string
	for _, st := range sw.Timings() {
		stages = append(stages, st.Name)
	}
	assert.Equal(t, []string{"parse", "advise", "build", "validate"}, stages)
}

func TestRun_EmptyInputWritesEmptyGraph(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.dot")

	res, err := Run(context.Background(), strings.NewReader(""), Options{OutputPath: path, Suggest: true})
	require.NoError(t, err)
	assert.True(t, res.Report.Empty())
	assert.True(t, res.Document.Empty())
	assert.FileExists(t, path)
}

func TestRun_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.dot")
	require.NoError(t, os.Mkdir(path, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "occupied"), nil, 0644))

	_, err := Run(context.Background(), strings.NewReader(report), Options{OutputPath: path})

	var werr *dot.WriteError
	assert.ErrorAs(t, err, &werr)
}

type recordingRenderer struct {
	src, dst string
	format   render.Format
	err      error
}

func (r *recordingRenderer) Render(_ context.Context, src, dst string, format render.Format) error {
	r.src, r.dst, r.format = src, dst, format
	return r.err
}

func TestRun_Renders(t *testing.T) {
	path := DefaultOutputPath(t.TempDir())
	rr := &recordingRenderer{}

	res, err := Run(context.Background(), strings.NewReader(report), Options{
		OutputPath: path,
		Renderer:   rr,
		Format:     render.FormatSVG,
	})
	require.NoError(t, err)

	assert.Equal(t, path, rr.src)
	assert.Equal(t, render.ImagePath(path, render.FormatSVG), rr.dst)
	assert.Equal(t, render.FormatSVG, rr.format)
	assert.Equal(t, rr.dst, res.ImagePath)
}

func TestRun_RenderFailure(t *testing.T) {
	boom := errors.New("dot crashed")
	rr := &recordingRenderer{err: boom}

	res, err := Run(context.Background(), strings.NewReader(report), Options{
		OutputPath: DefaultOutputPath(t.TempDir()),
		Renderer:   rr,
		Format:     render.FormatPNG,
	})
	assert.ErrorIs(t, err, boom)
	assert.NotEmpty(t, res.DotPath, "dot file is kept when rendering fails")
	assert.Empty(t, res.ImagePath)
}
