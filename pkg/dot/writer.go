// Package dot serializes call graph documents in the Graphviz DOT language.
package dot

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/danpilch/cgraph/pkg/callgraph"
)

const (
	minPenWidth = 1.0
	maxPenWidth = 5.0
)

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\r\n", `\n`,
	"\n", `\n`,
	"\r", `\n`,
)

// Quote returns s as a double-quoted DOT string. Line breaks become "\n"
// escapes, which Graphviz renders as centered line breaks.
func Quote(s string) string {
	return `"` + escaper.Replace(s) + `"`
}

// Encode writes doc to w as a directed graph.
func Encode(w io.Writer, doc *callgraph.Document) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "digraph %s {\n", Quote(doc.Title))
	fmt.Fprintf(bw, "  graph [label=%s, labelloc=t, fontname=\"Helvetica\", fontsize=12];\n", Quote(doc.Title))
	bw.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontsize=10];\n")
	bw.WriteString("  edge [fontname=\"Helvetica\", fontsize=9, arrowsize=0.7];\n")

	for _, n := range doc.Nodes {
		fmt.Fprintf(bw, "  %s [label=%s, fillcolor=%s, tooltip=%s];\n",
			n.ID, Quote(n.Label), Quote(n.Color), Quote(n.Name))
	}

	maxWeight := doc.MaxEdgeWeight()
	for _, e := range doc.Edges {
		fmt.Fprintf(bw, "  %s -> %s [label=%s, color=%s, penwidth=%s, weight=%d];\n",
			e.From, e.To, Quote(strconv.Itoa(e.Weight)), Quote(e.Color),
			penWidth(e.Weight, maxWeight), e.Weight)
	}

	bw.WriteString("}\n")
	return bw.Flush()
}

// Marshal returns the DOT text of doc.
func Marshal(doc *callgraph.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// penWidth scales linearly from minPenWidth to maxPenWidth with the edge's
// share of the heaviest edge.
func penWidth(weight, max int) string {
	w := minPenWidth
	if max > 0 && weight > 0 {
		w += (maxPenWidth - minPenWidth) * float64(weight) / float64(max)
	}
	return strconv.FormatFloat(w, 'f', 2, 64)
}

// WriteError reports a failure to write a DOT file. The destination is left
// untouched when it is returned.
type WriteError struct {
	Path string
	Op   string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cannot %s dot file %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// WriteFile writes doc to path. The document goes to a temporary file in the
// same directory first and is renamed into place once complete.
func WriteFile(path string, doc *callgraph.Document) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &WriteError{Path: path, Op: "create", Err: err}
	}
	tmpName := tmp.Name()

	fail := func(op string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return &WriteError{Path: path, Op: op, Err: err}
	}

	if err := Encode(tmp, doc); err != nil {
		return fail("write", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("sync", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		return fail("chmod", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: path, Op: "close", Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: path, Op: "rename", Err: err}
	}
	return nil
}
