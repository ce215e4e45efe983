package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/danpilch/cgraph/pkg/config"
	"github.com/danpilch/cgraph/pkg/toolchain"
)

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("binary", "b", "", "Profiled binary to run gprof on")
	cmd.Flags().String("gmon", "", "gprof data file (default: gmon.out next to the binary)")
	cmd.Flags().String("gprof", "", "Path to gprof (default: search PATH)")
}

// openInput returns the gprof report named by args[0] ("-" for stdin), or
// runs gprof on --binary when no report is given.
func openInput(cmd *cobra.Command, args []string, cfg *config.Config, logger *logrus.Logger) (io.ReadCloser, error) {
	binary, _ := cmd.Flags().GetString("binary")

	if len(args) > 0 {
		if binary != "" {
			return nil, errors.New("give either a report file or --binary, not both")
		}
		if args[0] == "-" {
			return io.NopCloser(cmd.InOrStdin()), nil
		}
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("cannot open report: %w", err)
		}
		return f, nil
	}

	if binary == "" {
		return nil, errors.New("no input: pass a gprof report file, - for stdin, or --binary")
	}

	gprofPath, err := toolchain.Locate(toolchain.GprofName, cfg.Tools.Gprof)
	if err != nil {
		return nil, err
	}
	gmon, _ := cmd.Flags().GetString("gmon")

	out, err := toolchain.NewGprof(gprofPath, logger).Run(cmd.Context(), binary, gmon)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(out)), nil
}
