package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hubnet/cmd/hubnet/handlers"
)

// Routes returns the command that prints the synthesized route tables.
func Routes(opts *handlers.Options) *cobra.Command {
	var topologyPath string

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the hub and spoke route tables",
		Long: `Print the route table of the hub gateway subnet and of every spoke.

By default the tables are taken from the plan of the configured units. With
--topology the tables are synthesized directly from a topology file, without
loading any unit.

Examples:
  hubnet routes
  hubnet routes --topology topology.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Routes(cmd.Context(), *opts, topologyPath)
		},
	}

	cmd.Flags().StringVar(&topologyPath, "topology", "", "Synthesize from a topology file instead of the units")

	return cmd
}
