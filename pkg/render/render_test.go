package render

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpilch/cgraph/pkg/callgraph"
	"github.com/danpilch/cgraph/pkg/dot"
	"github.com/danpilch/cgraph/pkg/gprof"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"png", FormatPNG, false},
		{" SVG ", FormatSVG, false},
		{"jpeg", FormatJPG, false},
		{"jpg", FormatJPG, false},
		{"bmp", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Embedded")
	require.NoError(t, err)
	assert.Equal(t, KindEmbedded, k)

	_, err = ParseKind("cairo")
	assert.Error(t, err)
}

func TestImagePath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "CallGraph", "graph.png"), ImagePath(filepath.Join("out", "CallGraph", "graph.dot"), FormatPNG))
	assert.Equal(t, "graph.svg", ImagePath("graph", FormatSVG))
}

func TestNew(t *testing.T) {
	r, err := New(KindExec, "/usr/bin/dot", nil)
	require.NoError(t, err)
	assert.IsType(t, &Exec{}, r)

	_, err = New(KindExec, "", nil)
	assert.Error(t, err)

	r, err = New(KindEmbedded, "", nil)
	require.NoError(t, err)
	assert.IsType(t, &Embedded{}, r)

	_, err = New(Kind("cairo"), "", nil)
	assert.Error(t, err)
}

func fakeDot(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts need a unix shell")
	}
	path := filepath.Join(t.TempDir(), "dot")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func TestExec_Render(t *testing.T) {
	// Arguments arrive as: -Tpng -o <dst> <src>
	dotPath := fakeDot(t, "echo \"$1\" > \"$3\"\ncat \"$4\" >> \"$3\"\n")
	dir := t.TempDir()
	src := filepath.Join(dir, "graph.dot")
	dst := filepath.Join(dir, "graph.png")
	require.NoError(t, os.WriteFile(src, []byte("digraph {}\n"), 0644))

	r, err := New(KindExec, dotPath, nil)
	require.NoError(t, err)
	require.NoError(t, r.Render(context.Background(), src, dst, FormatPNG))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "-Tpng\ndigraph {}\n", string(got))
}

func TestExec_RemovesStaleImage(t *testing.T) {
	dotPath := fakeDot(t, "exit 0\n")
	dir := t.TempDir()
	src := filepath.Join(dir, "graph.dot")
	dst := filepath.Join(dir, "graph.png")
	require.NoError(t, os.WriteFile(src, []byte("digraph {}\n"), 0644))
	require.NoError(t, os.WriteFile(dst, []byte("old image"), 0644))

	r, err := New(KindExec, dotPath, nil)
	require.NoError(t, err)
	err = r.Render(context.Background(), src, dst, FormatPNG)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no image")
	assert.NoFileExists(t, dst)
}

func TestExec_Failure(t *testing.T) {
	dotPath := fakeDot(t, "echo 'syntax error in line 1' >&2\nexit 1\n")
	dir := t.TempDir()

	r, err := New(KindExec, dotPath, nil)
	require.NoError(t, err)
	err = r.Render(context.Background(), filepath.Join(dir, "graph.dot"), filepath.Join(dir, "graph.svg"), FormatSVG)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "syntax error in line 1")
}

func sampleDOT(t *testing.T) []byte {
	t.Helper()
	doc := callgraph.Build([]gprof.CallRecord{
		{Caller: "main", Callee: `quote"me`, Calls: 3},
		{Caller: `quote"me`, Callee: `path\to::fn(std::vector<int>&)`, Calls: 5},
		{Caller: "main", Callee: "main", Calls: 1},
	}, map[string]gprof.FunctionStat{
		"main": {Name: "main", Calls: 1, CalleeCalls: 4, SelfSeconds: 0.01, PercentTime: 1},
	}, callgraph.DefaultStyleConfig())
	out, err := dot.Marshal(doc)
	require.NoError(t, err)
	return out
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(sampleDOT(t)))

	empty, err := dot.Marshal(callgraph.Build(nil, nil, callgraph.StyleConfig{}))
	require.NoError(t, err)
	assert.NoError(t, Validate(empty))

	assert.Error(t, Validate([]byte("digraph { a -> ")))
}

func TestEmbedded_Render(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "graph.dot")
	dst := filepath.Join(dir, "graph.svg")
	require.NoError(t, os.WriteFile(src, sampleDOT(t), 0644))

	r, err := New(KindEmbedded, "", nil)
	require.NoError(t, err)
	require.NoError(t, r.Render(context.Background(), src, dst, FormatSVG))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(got), "<svg")
}

func TestEmbedded_MissingSource(t *testing.T) {
	r, err := New(KindEmbedded, "", nil)
	require.NoError(t, err)
	dir := t.TempDir()
	err = r.Render(context.Background(), filepath.Join(dir, "absent.dot"), filepath.Join(dir, "out.png"), FormatPNG)
	assert.Error(t, err)
}
