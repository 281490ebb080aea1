// Package cli implements the faultmock command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// NewRootCommand builds the faultmock command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "faultmock",
		Short: "faultmock serves declarative mock responses and network faults",
		Long: `faultmock answers HTTP requests from a declarative rule set. Each route can
return conditional responses built from templates and data files, or inject
latency, timeouts, connection resets and silent hangs.

Settings come from flags, FAULTMOCK_* environment variables or a settings file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool("json", false, "Output command results in JSON format")

	root.AddCommand(
		newServeCommand(),
		newValidateCommand(),
		newRoutesCommand(),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command with ctx and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}
