package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// Exec renders by running `dot -T<format> -o <dst> <src>`.
type Exec struct {
	DotPath string
	logger  *logrus.Logger
}

// Render runs dot on src. A stale dst is removed first, and dst must exist
// once dot exits.
func (e *Exec) Render(ctx context.Context, src, dst string, format Format) error {
	// A stale image would hide a failed run.
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot remove previous image %s: %w", dst, err)
	}

	cmd := exec.CommandContext(ctx, e.DotPath, "-T"+string(format), "-o", dst, src)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.logger.WithFields(logrus.Fields{
		"dot":    e.DotPath,
		"src":    src,
		"dst":    dst,
		"format": format,
	}).Debug("Running dot")

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("dot failed: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}
	if _, err := os.Stat(dst); err != nil {
		return fmt.Errorf("dot produced no image: %w", err)
	}
	return nil
}
