package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hubnet/cmd/hubnet/handlers"
)

// Destroy returns the destroy command.
//
// The plan is rebuilt from the units and every provisioned network is deleted
// in reverse plan order. Subnets and routes are removed with their network.
func Destroy(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "destroy",
		Short: "Delete the provisioned networks",
		Long: `Destroy removes what apply provisioned.

With backend.provider "hcloud" every planned network is deleted together with
its subnets and routes. Networks that no longer exist are skipped. With
"plan" the deletions are only logged.

Example:
  hubnet destroy -c hubnet.yaml

WARNING: This operation is irreversible.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Destroy(cmd.Context(), *opts)
		},
	}
}
