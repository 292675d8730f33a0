package main

import (
	"errors"

	"github.com/spf13/cobra"
)

// errInterrupted marks an operator-cancelled run so main can map it to the
// conventional exit code.
var errInterrupted = errors.New("evaluation interrupted")

type rootFlags struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "crucible",
		Short:         "Crucible scores machine-generated Dockerfiles against per-repository rubrics",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose output")

	cmd.AddCommand(newEvaluateCmd(flags))
	cmd.AddCommand(newBatchCmd(flags))
	cmd.AddCommand(newLintCmd())
	cmd.AddCommand(newFetchCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
