package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hubnet/cmd/hubnet/handlers"
)

// Lookup returns the command that resolves the route a destination takes.
func Lookup(opts *handlers.Options) *cobra.Command {
	var (
		topologyPath string
		table        string
	)

	cmd := &cobra.Command{
		Use:   "lookup <ip>",
		Short: "Show which route traffic to an address takes",
		Long: `Resolve a destination address against the route tables by longest
prefix match.

Examples:
  # Every table
  hubnet lookup 10.2.1.4

  # Only the table of spoke1
  hubnet lookup 10.2.1.4 --table spoke1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Lookup(cmd.Context(), *opts, topologyPath, table, args[0])
		},
	}

	cmd.Flags().StringVar(&topologyPath, "topology", "", "Synthesize from a topology file instead of the units")
	cmd.Flags().StringVarP(&table, "table", "t", "", "Only resolve against the table owned by this segment")

	return cmd
}
