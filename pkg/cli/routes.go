package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/faultmock/pkg/cli/internal/output"
	"github.com/getmockd/faultmock/pkg/config"
	"github.com/getmockd/faultmock/pkg/route"
)

// RouteOutput describes one route in the routes listing.
type RouteOutput struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	Conditions int    `json:"conditions"`
	Status     int    `json:"status"`
	Fault      string `json:"fault,omitempty"`
}

func newRoutesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "routes PATH...",
		Short: "List routes in the order they are matched",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := config.LoadRoutes(args...)
			if err != nil {
				return err
			}

			rows := make([]RouteOutput, len(set.Routes))
			for i, def := range set.Routes {
				rows[i] = RouteOutput{
					Method:     def.Method,
					Path:       def.Path,
					Conditions: len(def.Conditions),
					Status:     def.Default.StatusCode,
					Fault:      defaultFault(&def.Default),
				}
			}

			if jsonOutput(cmd) {
				return output.JSON(cmd.OutOrStdout(), rows)
			}
			tw := output.Table(cmd.OutOrStdout())
			fmt.Fprintln(tw, "METHOD\tPATH\tCONDITIONS\tSTATUS\tFAULT")
			for _, r := range rows {
				f := r.Fault
				if f == "" {
					f = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", r.Method, r.Path, r.Conditions, r.Status, f)
			}
			return tw.Flush()
		},
	}
}

// defaultFault names the fault the default response injects, in the order
// they take precedence.
func defaultFault(resp *route.Response) string {
	switch {
	case resp.ConnectionFailure != nil:
		return string(resp.ConnectionFailure.Type)
	case resp.Timeout.Enabled:
		return "timeout"
	case resp.Latency != nil && resp.Latency.Enabled:
		return "latency"
	}
	return ""
}
