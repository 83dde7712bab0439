package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hubnet/cmd/hubnet/handlers"
)

// Keygen returns the command that generates hubnet credentials.
func Keygen() *cobra.Command {
	var (
		sshKeyPath string
		algorithm  string
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a VPN shared key and an optional admin SSH key",
		Long: `Generate credentials and print them as a dotenv fragment.

The output sets HUBNET_SHARED_KEY and, with --ssh-key, HUBNET_ADMIN_SSH_KEY.
Redirect it into the file passed as --env-file (default .env). Existing key
files are never overwritten.

Examples:
  hubnet keygen >> .env
  hubnet keygen --ssh-key ~/.ssh/hubnet_admin >> .env`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.Keygen(sshKeyPath, algorithm)
		},
	}

	cmd.Flags().StringVar(&sshKeyPath, "ssh-key", "", "Write an admin SSH key pair to this path (and .pub)")
	cmd.Flags().StringVar(&algorithm, "ssh-key-type", "ed25519", "SSH key algorithm: ed25519 or rsa")

	return cmd
}
