package render

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-graphviz"
	"github.com/sirupsen/logrus"
)

// Embedded renders with the Graphviz library compiled into cgraph, so no
// dot binary is needed.
type Embedded struct {
	logger *logrus.Logger
}

var graphvizFormats = map[Format]graphviz.Format{
	FormatPNG: graphviz.PNG,
	FormatSVG: graphviz.SVG,
	FormatJPG: graphviz.JPG,
}

// Render parses src and writes the image to dst in-process.
func (e *Embedded) Render(ctx context.Context, src, dst string, format Format) error {
	gf, ok := graphvizFormats[format]
	if !ok {
		return fmt.Errorf("unsupported image format %q", format)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("cannot read dot file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	graph, err := graphviz.ParseBytes(data)
	if err != nil {
		return fmt.Errorf("cannot parse %s: %w", src, err)
	}
	defer graph.Close()

	g := graphviz.New()
	defer g.Close()

	e.logger.WithFields(logrus.Fields{
		"src":    src,
		"dst":    dst,
		"format": format,
	}).Debug("Rendering with embedded graphviz")

	if err := g.RenderFilename(graph, gf, dst); err != nil {
		return fmt.Errorf("graphviz render failed: %w", err)
	}
	return nil
}

// Validate parses src as DOT and reports syntax errors.
func Validate(src []byte) error {
	graph, err := graphviz.ParseBytes(src)
	if err != nil {
		return err
	}
	return graph.Close()
}
