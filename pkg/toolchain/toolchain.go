// Package toolchain locates and runs the external programs cgraph depends on.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Tool names searched on PATH when no explicit location is configured.
const (
	GprofName = "gprof"
	DotName   = "dot"
)

// DefaultGmon is the file gprof-instrumented programs write on exit.
const DefaultGmon = "gmon.out"

var (
	ErrNotFound      = errors.New("tool not found")
	ErrNotExecutable = errors.New("file is not executable")
)

// Locate returns the path of the named tool. A configured path is used as is
// after checking it can be executed; otherwise PATH is searched.
func Locate(name, configured string) (string, error) {
	if configured != "" {
		if err := CheckExecutable(configured); err != nil {
			return "", fmt.Errorf("%s: %w", name, err)
		}
		return configured, nil
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found on PATH: %w", name, ErrNotFound)
	}
	return path, nil
}

// CheckExecutable reports whether path names a regular file the current user
// may execute.
func CheckExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory: %w", path, ErrNotExecutable)
	}
	if err := executable(path, info); err != nil {
		return fmt.Errorf("%s: %w", path, ErrNotExecutable)
	}
	return nil
}

// GmonPath returns the gmon.out expected next to binary.
func GmonPath(binary string) string {
	return filepath.Join(filepath.Dir(binary), DefaultGmon)
}

// Gprof runs gprof against a profiled binary.
type Gprof struct {
	Path   string
	Args   []string
	logger *logrus.Logger
}

// NewGprof creates a runner for the gprof at path. A nil logger logs warnings only.
func NewGprof(path string, logger *logrus.Logger) *Gprof {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	return &Gprof{Path: path, logger: logger}
}

// Run executes `gprof [args] binary gmon` and returns its report. The binary
// must be executable and gmon must exist.
func (g *Gprof) Run(ctx context.Context, binary, gmon string) ([]byte, error) {
	if err := CheckExecutable(binary); err != nil {
		return nil, fmt.Errorf("profiled binary: %w", err)
	}
	if gmon == "" {
		gmon = GmonPath(binary)
	}
	if _, err := os.Stat(gmon); err != nil {
		return nil, fmt.Errorf("profile data: %w", err)
	}

	args := append(append([]string(nil), g.Args...), binary, gmon)
	g.logger.WithFields(logrus.Fields{
		"gprof": g.Path,
		"args":  strings.Join(args, " "),
	}).Debug("Running gprof")

	cmd := exec.CommandContext(ctx, g.Path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("gprof failed: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}
	if stderr.Len() > 0 {
		g.logger.WithField("stderr", strings.TrimSpace(stderr.String())).Warn("gprof reported problems")
	}
	return stdout.Bytes(), nil
}
