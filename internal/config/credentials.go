package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables read by [LoadCredentials].
const (
	EnvHCloudToken   = "HCLOUD_TOKEN"
	EnvAdminUsername = "HUBNET_ADMIN_USERNAME"
	EnvAdminPassword = "HUBNET_ADMIN_PASSWORD"
	EnvAdminSSHKey   = "HUBNET_ADMIN_SSH_KEY"
	EnvSharedKey     = "HUBNET_SHARED_KEY"
)

// DefaultAdminUsername is used when HUBNET_ADMIN_USERNAME is unset.
const DefaultAdminUsername = "azureuser"

// Credentials are the secrets hubnet needs. They are never read from the
// config file.
type Credentials struct {
	HCloudToken   string
	AdminUsername string
	AdminPassword string
	AdminSSHKey   string
	SharedKey     string
}

// LoadCredentials reads credentials from the environment. If envFile is set
// and exists it is loaded first; variables already in the environment win.
func LoadCredentials(envFile string) (Credentials, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Credentials{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	creds := Credentials{
		HCloudToken:   os.Getenv(EnvHCloudToken),
		AdminUsername: os.Getenv(EnvAdminUsername),
		AdminPassword: os.Getenv(EnvAdminPassword),
		AdminSSHKey:   os.Getenv(EnvAdminSSHKey),
		SharedKey:     os.Getenv(EnvSharedKey),
	}
	if creds.AdminUsername == "" {
		creds.AdminUsername = DefaultAdminUsername
	}
	return creds, nil
}

// Require checks that the credentials the selected provider needs are present.
func (c Credentials) Require(p Provider) error {
	if p == ProviderHCloud && c.HCloudToken == "" {
		return &ValidationError{Field: EnvHCloudToken, Message: "environment variable required for the hcloud provider", Severity: SeverityError}
	}
	return nil
}
