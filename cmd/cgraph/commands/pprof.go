package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danpilch/cgraph/pkg/gprof"
	"github.com/danpilch/cgraph/pkg/pprofexport"
)

func newPprofCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pprof [report]",
		Short: "Convert a gprof report into a pprof profile",
		Long: `Writes the call arcs of a gprof report as a gzipped pprof profile that
go tool pprof and other pprof viewers can open.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPprof,
	}

	addInputFlags(cmd)
	cmd.Flags().StringP("out", "o", "cgraph.pb.gz", "Profile file to write")
	return cmd
}

func runPprof(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	in, err := openInput(cmd, args, cfg, logger)
	if err != nil {
		return err
	}
	defer in.Close()

	rep := gprof.NewParser(logger).Parse(in)

	path, _ := cmd.Flags().GetString("out")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create profile: %w", err)
	}
	if err := pprofexport.Write(f, rep); err != nil {
		f.Close()
		return fmt.Errorf("cannot write profile: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("cannot write profile: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d call arcs)\n", path, len(rep.Records))
	return nil
}
