// Package config loads cgraph settings from defaults, an optional TOML file
// and CGRAPH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/danpilch/cgraph/pkg/callgraph"
	"github.com/danpilch/cgraph/pkg/gprof"
	"github.com/danpilch/cgraph/pkg/render"
)

// EnvPrefix prefixes every environment override, e.g. CGRAPH_GRAPH_NODE_THRESHOLD.
const EnvPrefix = "CGRAPH"

// FormatNone disables image rendering; only the DOT file is written.
const FormatNone = "none"

// Config is the full cgraph configuration.
type Config struct {
	Tools   ToolsConfig   `mapstructure:"tools"`
	Graph   GraphConfig   `mapstructure:"graph"`
	Advisor AdvisorConfig `mapstructure:"advisor"`
	Output  OutputConfig  `mapstructure:"output"`
	Log     LogConfig     `mapstructure:"log"`
}

// ToolsConfig holds explicit paths to external tools. Empty means search PATH.
type ToolsConfig struct {
	Gprof string `mapstructure:"gprof"`
	Dot   string `mapstructure:"dot"`
}

// GraphConfig holds the builder settings: thresholds, name handling and palettes.
type GraphConfig struct {
	Title          string                     `mapstructure:"title"`
	NodeThreshold  int                        `mapstructure:"node_threshold"`
	EdgeThreshold  int                        `mapstructure:"edge_threshold"`
	HideParams     bool                       `mapstructure:"hide_params"`
	StripParams    bool                       `mapstructure:"strip_params"`
	HideNamespaces bool                       `mapstructure:"hide_namespaces"`
	NodeColors     []callgraph.ColorThreshold `mapstructure:"node_colors"`
	EdgeColors     []callgraph.ColorThreshold `mapstructure:"edge_colors"`
}

// AdvisorConfig controls the node threshold suggestion.
type AdvisorConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	MaxNodes int  `mapstructure:"max_nodes"`
}

// OutputConfig selects where the DOT file goes and how it is rendered.
type OutputConfig struct {
	Dir      string `mapstructure:"dir"`
	Format   string `mapstructure:"format"`
	Renderer string `mapstructure:"renderer"`
}

// LogConfig sets the logrus level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	style := callgraph.DefaultStyleConfig()

	v.SetDefault("tools.gprof", "")
	v.SetDefault("tools.dot", "")

	v.SetDefault("graph.title", style.Title)
	v.SetDefault("graph.node_threshold", 0)
	v.SetDefault("graph.edge_threshold", 0)
	v.SetDefault("graph.hide_params", false)
	v.SetDefault("graph.strip_params", false)
	v.SetDefault("graph.hide_namespaces", false)
	v.SetDefault("graph.node_colors", colorDefaults(style.NodeColors))
	v.SetDefault("graph.edge_colors", colorDefaults(style.EdgeColors))

	v.SetDefault("advisor.enabled", true)
	v.SetDefault("advisor.max_nodes", gprof.DefaultMaxNodes)

	v.SetDefault("output.dir", ".")
	v.SetDefault("output.format", string(render.FormatPNG))
	v.SetDefault("output.renderer", string(render.KindExec))

	v.SetDefault("log.level", "warn")
}

func colorDefaults(in []callgraph.ColorThreshold) []map[string]any {
	out := make([]map[string]any, 0, len(in))
	for _, t := range in {
		out = append(out, map[string]any{"weight": t.Weight, "color": t.Color})
	}
	return out
}

// LoadWithViper decodes the configuration held by v.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Load reads path when it is set. Otherwise cgraph.toml is looked up in the
// working directory and then in ~/.cgraph; a missing file is not an error.
func Load(path string) (*Config, *viper.Viper, error) {
	v := New()
	v.SetConfigType("toml")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("cgraph")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".cgraph"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Advisor.MaxNodes < 1 {
		return fmt.Errorf("advisor.max_nodes must be >= 1, got %d", c.Advisor.MaxNodes)
	}
	if c.Output.Format != FormatNone {
		if _, err := render.ParseFormat(c.Output.Format); err != nil {
			return fmt.Errorf("output.format: %w", err)
		}
	}
	if _, err := render.ParseKind(c.Output.Renderer); err != nil {
		return fmt.Errorf("output.renderer: %w", err)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	for _, t := range append(append([]callgraph.ColorThreshold(nil), c.Graph.NodeColors...), c.Graph.EdgeColors...) {
		if t.Color == "" {
			return fmt.Errorf("color threshold at weight %d has no color", t.Weight)
		}
	}
	return nil
}

// Style returns the graph settings as a builder snapshot.
func (c *Config) Style() callgraph.StyleConfig {
	return callgraph.StyleConfig{
		Title:          c.Graph.Title,
		NodeColors:     append([]callgraph.ColorThreshold(nil), c.Graph.NodeColors...),
		EdgeColors:     append([]callgraph.ColorThreshold(nil), c.Graph.EdgeColors...),
		NodeThreshold:  c.Graph.NodeThreshold,
		EdgeThreshold:  c.Graph.EdgeThreshold,
		HideParams:     c.Graph.HideParams,
		StripParams:    c.Graph.StripParams,
		HideNamespaces: c.Graph.HideNamespaces,
	}
}

// LogLevel returns the configured level, or warn when it does not parse.
func (c *Config) LogLevel() logrus.Level {
	lvl, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return logrus.WarnLevel
	}
	return lvl
}
