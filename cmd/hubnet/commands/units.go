package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hubnet/cmd/hubnet/handlers"
)

// Units returns the command listing the discovered deployment units.
func Units(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "units",
		Short: "List the units present in the units directory",
		Long: `Discover and construct the deployment units.

A unit is present when its directory under unitsDir holds a unit.yaml entry.
Units without an entry are skipped silently. Every present unit must have a
registered constructor.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Units(cmd.Context(), *opts)
		},
	}
}
