// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command definitions
// in the commands package. Handlers are framework-agnostic and can be tested
// independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"

	"github.com/imamik/hubnet/internal/config"
	"github.com/imamik/hubnet/internal/crypto/ipsec"
	"github.com/imamik/hubnet/internal/logging"
	"github.com/imamik/hubnet/internal/platform/hcloud"
	"github.com/imamik/hubnet/internal/provisioning"
	"github.com/imamik/hubnet/internal/units"
	"github.com/imamik/hubnet/internal/util/keygen"
	"github.com/imamik/hubnet/internal/util/ptr"
)

// Options are the global flags shared by every command.
type Options struct {
	ConfigPath string
	EnvFile    string
	LogLevel   string
	NoColor    bool
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// getwd returns the directory the config file search starts in.
	getwd = os.Getwd

	// findConfigFile locates hubnet.yaml.
	findConfigFile = config.FindConfigFile

	// loadConfigFile loads and validates the config file.
	loadConfigFile = config.Load

	// loadCredentials reads credentials from the environment and the env file.
	loadCredentials = config.LoadCredentials

	// newCatalog returns the unit factories known to the CLI.
	newCatalog = units.Catalog

	// newNetworkManager creates the Hetzner Cloud network client.
	newNetworkManager = func(token string, log logr.Logger) hcloud.NetworkManager {
		return hcloud.NewRealClient(token,
			hcloud.WithTimeouts(config.LoadTimeouts()),
			hcloud.WithLogger(log),
		)
	}

	// generateSharedKey creates a random VPN shared key.
	generateSharedKey = ipsec.GenerateSharedKey

	// generateKeyPair creates an admin SSH key pair.
	generateKeyPair = keygen.Generate

	// writeFile writes data to a file (for testing injection).
	writeFile = os.WriteFile

	// stdout receives command output.
	stdout io.Writer = os.Stdout

	// logOutput receives log lines.
	logOutput io.Writer = os.Stderr
)

// session bundles what every command needs after startup.
type session struct {
	cfg   *config.Config
	creds config.Credentials
	log   logr.Logger
}

// loadConfig loads and validates the configuration. If configPath is empty,
// hubnet.yaml is searched from the working directory upwards.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		dir, err := getwd()
		if err != nil {
			return nil, err
		}
		path, err := findConfigFile(dir)
		if err != nil {
			return nil, fmt.Errorf("no config file found: %w", err)
		}
		configPath = path
	}

	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newSession(opts Options) (*session, error) {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	creds, err := loadCredentials(opts.EnvFile)
	if err != nil {
		return nil, err
	}

	level := opts.LogLevel
	if level == "" {
		level = cfg.Log.Level
	}
	color := cfg.Log.Color
	if opts.NoColor {
		color = ptr.To(false)
	}
	log, err := logging.New(logging.Options{Level: level, Output: logOutput, Color: color})
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, creds: creds, log: log.WithName("hubnet")}, nil
}

// provisioningContext builds a provisioning context for one command run.
func (s *session) provisioningContext(ctx context.Context, opts ...provisioning.Option) *provisioning.Context {
	ctx = logging.IntoContext(ctx, s.log)
	return provisioning.NewContext(ctx, s.cfg, s.creds, newCatalog(), s.log, opts...)
}

// planned runs every phase up to and including plan.
func (s *session) planned(ctx context.Context) (*provisioning.Context, error) {
	pctx := s.provisioningContext(ctx)
	if err := provisioning.RunPhases(pctx, provisioning.PlanPhases()); err != nil {
		return nil, err
	}
	return pctx, nil
}
