// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hubnet/cmd/hubnet/handlers"
)

// Root returns the root command for the hubnet CLI.
//
// Global flags are bound once here and shared by every subcommand.
func Root() *cobra.Command {
	opts := &handlers.Options{}

	cmd := &cobra.Command{
		Use:           "hubnet",
		Short:         "Plan and provision hub-spoke networks routed through a hub appliance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file (default: hubnet.yaml, searched upwards)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "Dotenv file with credentials; ignored when missing")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info or error (overrides log.level)")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "Disable colored log output")

	cmd.AddCommand(Units(opts))
	cmd.AddCommand(Plan(opts))
	cmd.AddCommand(Apply(opts))
	cmd.AddCommand(Destroy(opts))
	cmd.AddCommand(Routes(opts))
	cmd.AddCommand(Lookup(opts))
	cmd.AddCommand(Keygen())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
