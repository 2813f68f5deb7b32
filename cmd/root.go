package cmd

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Version is the version printed by --version, set at build time
var Version = "0.1.0"

// newRootCmd creates the command, the report of the run is written to out
func newRootCmd(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "echoping",
		Short:        "echoping sends ICMP echo requests to an IPv4 host",
		Long:         "echoping is a minimal ping client sending a fixed amount of ICMP echo requests to an IPv4 host",
		Version:      Version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}

			r, err := newRunner(cfg, out)
			if err != nil {
				return err
			}

			r.Start(context.Background())
			return r.Wait()
		},
	}

	cmd.SetOut(out)
	addFlags(cmd.Flags())

	return cmd
}

// Execute runs the command with the process arguments
func Execute() error {
	return newRootCmd(os.Stdout).Execute()
}
