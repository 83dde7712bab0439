package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hubnet/cmd/hubnet/handlers"
)

// Apply returns the command for provisioning the planned resources.
//
// Environment variables:
//
//	HCLOUD_TOKEN: Hetzner Cloud API token (required for the hcloud provider)
//	HUBNET_SHARED_KEY: IPsec shared key for the hub and on-prem VPN connections
//	HUBNET_ADMIN_PASSWORD, HUBNET_ADMIN_SSH_KEY: VM credentials
func Apply(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Provision the planned network",
		Long: `Plan every unit and hand the result to the configured backend.

With backend.provider "plan" the resources are only logged. With "hcloud"
networks, subnets and appliance routes are created in Hetzner Cloud; other
resource kinds have no Hetzner equivalent and are skipped.

Examples:
  # Dry run
  hubnet apply

  # Provision with a specific config file
  hubnet apply -c production.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Apply(cmd.Context(), *opts)
		},
	}
}
