// Package baseline saves profile summaries and compares later runs against them.
package baseline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/danpilch/cgraph/pkg/output"
)

// Baseline is a saved profile summary.
type Baseline struct {
	Name           string               `json:"name"`
	Timestamp      time.Time            `json:"timestamp"`
	Hostname       string               `json:"hostname"`
	SampledSeconds float64              `json:"sampled_seconds"`
	Functions      []output.FunctionRow `json:"functions"`
	Metadata       map[string]string    `json:"metadata,omitempty"`
}

// DefaultDir returns the default baseline storage directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cgraph/baselines"
	}
	return filepath.Join(home, ".cgraph", "baselines")
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid baseline name %q", name)
	}
	return nil
}

// Save writes the baseline to <dir>/<name>.json.
func (b *Baseline) Save(dir string) error {
	if err := checkName(b.Name); err != nil {
		return err
	}
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create baseline directory: %w", err)
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal baseline: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, b.Name+".json"), data, 0644); err != nil {
		return fmt.Errorf("cannot write baseline: %w", err)
	}
	return nil
}

// Load reads a saved baseline.
func Load(name, dir string) (*Baseline, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if dir == "" {
		dir = DefaultDir()
	}
	data, err := os.ReadFile(filepath.Join(dir, name+".json"))
	if err != nil {
		return nil, fmt.Errorf("cannot read baseline %q: %w", name, err)
	}

	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("cannot parse baseline %q: %w", name, err)
	}
	return &b, nil
}

// List returns the names of all saved baselines, sorted.
func List(dir string) ([]string, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, strings.TrimSuffix(e.Name(), ".json"))
		}
	}
	sort.Strings(names)
	return names, nil
}

// NewBaseline captures every function of summary. Pass a summary built
// without a row limit so later runs can be compared function by function.
func NewBaseline(name string, summary output.Summary) *Baseline {
	hostname, _ := os.Hostname()
	return &Baseline{
		Name:           name,
		Timestamp:      time.Now(),
		Hostname:       hostname,
		SampledSeconds: summary.SampledSeconds,
		Functions:      append([]output.FunctionRow(nil), summary.Functions...),
	}
}
