package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hubnet/cmd/hubnet/handlers"
)

// Plan returns the command that loads, links and orders the units without
// provisioning anything.
//
// Optional flags:
//
//	--metrics: Print the collected Prometheus metrics after the plan
func Plan(opts *handlers.Options) *cobra.Command {
	var showMetrics bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the provisioning order of every unit",
		Long: `Load every present unit, run the link hooks and print the stacks in
provisioning order together with their dependencies.

Examples:
  # Plan using hubnet.yaml found from the current directory
  hubnet plan

  # Plan with debug logging and the collected metrics
  hubnet plan --log-level debug --metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Plan(cmd.Context(), *opts, showMetrics)
		},
	}

	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "Print collected metrics in Prometheus text format")

	return cmd
}
