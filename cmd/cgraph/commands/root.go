package commands

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/danpilch/cgraph/pkg/config"
	"github.com/danpilch/cgraph/pkg/output"
)

// Version is set at build time with -ldflags "-X ...commands.Version=...".
var Version = "dev"

// flagKeys maps command-line flags to the configuration keys they override.
var flagKeys = map[string]string{
	"gprof":           "tools.gprof",
	"dot":             "tools.dot",
	"title":           "graph.title",
	"node-threshold":  "graph.node_threshold",
	"edge-threshold":  "graph.edge_threshold",
	"hide-params":     "graph.hide_params",
	"strip-params":    "graph.strip_params",
	"hide-namespaces": "graph.hide_namespaces",
	"max-nodes":       "advisor.max_nodes",
	"dir":             "output.dir",
	"image-format":    "output.format",
	"renderer":        "output.renderer",
	"log-level":       "log.level",
}

// Execute runs the cgraph command tree. This is called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "cgraph",
		Short: "Turn gprof call graphs into Graphviz diagrams",
		Long: `cgraph reads a gprof report, or runs gprof on a profiled binary,
and writes the call graph as a Graphviz DOT file. Large graphs are cut
down with node and edge thresholds; cgraph suggests a node threshold
that keeps the diagram readable.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "Config file (default: ./cgraph.toml or ~/.cgraph/cgraph.toml)")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringP("format", "F", string(output.FormatTable), "Terminal output format: table, json, ai, tsv")

	root.AddCommand(
		newGraphCommand(),
		newStatsCommand(),
		newPprofCommand(),
		newVersionCommand(),
	)
	return root
}

// loadConfig reads the configuration and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	_, v, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := bindFlags(cmd, v); err != nil {
		return nil, err
	}

	cfg, err := config.LoadWithViper(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	if noSuggest, _ := cmd.Flags().GetBool("no-suggest"); noSuggest {
		v.Set("advisor.enabled", false)
	}
	return nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetLevel(cfg.LogLevel())
	return logger
}

func newFormatter(cmd *cobra.Command) (*output.Formatter, error) {
	name, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	return output.NewFormatter(format, cmd.OutOrStdout()), nil
}
