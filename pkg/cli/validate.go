package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/faultmock/pkg/cli/internal/output"
	"github.com/getmockd/faultmock/pkg/config"
)

// ValidateOutput is the JSON result of the validate command.
type ValidateOutput struct {
	Valid    bool     `json:"valid"`
	Files    []string `json:"files"`
	Routes   int      `json:"routes"`
	Shadowed []string `json:"shadowed,omitempty"`
	Error    string   `json:"error,omitempty"`
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate PATH...",
		Short: "Check route files without starting the server",
		Long: `Load route files, check them against the route schema and compile every
route, condition and body directive. PATH may be a file, a directory or a
glob such as 'routes/**/*.yaml'.`,
		Example: `  faultmock validate routes/
  faultmock validate 'routes/**/*.yaml' --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := config.LoadRoutes(args...)
			if jsonOutput(cmd) {
				out := ValidateOutput{Valid: err == nil}
				if err != nil {
					out.Error = err.Error()
				} else {
					out.Files = set.Files
					out.Routes = len(set.Routes)
					out.Shadowed = set.Shadowed
				}
				if encErr := output.JSON(cmd.OutOrStdout(), out); encErr != nil {
					return encErr
				}
				return err
			}
			if err != nil {
				return err
			}

			for _, s := range set.Shadowed {
				output.Warn(cmd.ErrOrStderr(), "route %s can never match", s)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %d routes in %d files\n", len(set.Routes), len(set.Files))
			return nil
		},
	}
}
