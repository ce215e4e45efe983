// Package render turns DOT files into images, either through the Graphviz
// dot program or with the Graphviz library linked into the binary.
package render

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Format is an image format both renderers can produce.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
	FormatJPG Format = "jpg"
)

// Formats lists the supported image formats.
var Formats = []Format{FormatPNG, FormatSVG, FormatJPG}

// ParseFormat accepts a format name in any case; "jpeg" is read as jpg.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "jpeg" {
		name = string(FormatJPG)
	}
	for _, f := range Formats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported image format %q", s)
}

// Kind selects a renderer implementation.
type Kind string

const (
	KindExec     Kind = "exec"
	KindEmbedded Kind = "embedded"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindExec, KindEmbedded:
		return k, nil
	}
	return "", fmt.Errorf("unknown renderer %q", s)
}

// Renderer renders the DOT file at src into an image at dst.
type Renderer interface {
	Render(ctx context.Context, src, dst string, format Format) error
}

// New returns the renderer of the given kind. dotPath is only used by the
// exec renderer.
func New(kind Kind, dotPath string, logger *logrus.Logger) (Renderer, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	switch kind {
	case KindExec:
		if dotPath == "" {
			return nil, fmt.Errorf("exec renderer needs the path of dot")
		}
		return &Exec{DotPath: dotPath, logger: logger}, nil
	case KindEmbedded:
		return &Embedded{logger: logger}, nil
	}
	return nil, fmt.Errorf("unknown renderer %q", kind)
}

// ImagePath returns dotPath with its extension replaced by the format's.
func ImagePath(dotPath string, format Format) string {
	return strings.TrimSuffix(dotPath, filepath.Ext(dotPath)) + "." + string(format)
}
