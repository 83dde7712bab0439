package config

import (
	"maps"

	"github.com/imamik/hubnet/internal/util/labels"
)

// DefaultConfigFilename is the default configuration filename.
const DefaultConfigFilename = "hubnet.yaml"

// Defaults applied by [Config.ApplyDefaults].
const (
	DefaultUnitsDir    = "units"
	DefaultRegion      = "fsn1"
	DefaultNetworkZone = "eu-central"
	DefaultLogLevel    = "info"
	DefaultConcurrency = 8
)

// Config is the hubnet application configuration.
type Config struct {
	// Name prefixes provider resources and labels. Must be DNS-safe.
	Name string `yaml:"name"`

	// UnitsDir is the discovery root holding one directory per unit.
	// Relative paths are resolved against the config file's directory.
	UnitsDir string `yaml:"unitsDir,omitempty"`

	// Region is the default location handed to units that do not set one.
	Region string `yaml:"region,omitempty"`

	// Environment is attached to every resource as the environment label.
	Environment string `yaml:"environment,omitempty"`

	// Labels are merged into every unit's resource labels.
	Labels map[string]string `yaml:"labels,omitempty"`

	Backend BackendConfig `yaml:"backend,omitempty"`
	Log     LogConfig     `yaml:"log,omitempty"`

	// Concurrency bounds concurrent unit entry checks during loading.
	Concurrency int `yaml:"concurrency,omitempty"`
}

// BackendConfig selects where a plan is applied.
type BackendConfig struct {
	Provider Provider `yaml:"provider,omitempty"`

	// NetworkZone is the hcloud network zone subnets are created in.
	NetworkZone string `yaml:"networkZone,omitempty"`
}

// LogConfig controls logger construction.
type LogConfig struct {
	// Level is one of debug, info or error.
	Level string `yaml:"level,omitempty"`

	// Color forces colored output on or off. Unset means auto-detect.
	Color *bool `yaml:"color,omitempty"`
}

// Provider is a provisioning backend.
type Provider string

const (
	// ProviderPlan only logs the ordered plan.
	ProviderPlan Provider = "plan"
	// ProviderHCloud applies networks, subnets and routes through the Hetzner Cloud API.
	ProviderHCloud Provider = "hcloud"
)

// ValidProviders returns all supported providers.
func ValidProviders() []Provider {
	return []Provider{ProviderPlan, ProviderHCloud}
}

// IsValid returns true if p is a supported provider.
func (p Provider) IsValid() bool {
	switch p {
	case ProviderPlan, ProviderHCloud:
		return true
	default:
		return false
	}
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.UnitsDir == "" {
		c.UnitsDir = DefaultUnitsDir
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.Backend.Provider == "" {
		c.Backend.Provider = ProviderPlan
	}
	if c.Backend.NetworkZone == "" {
		c.Backend.NetworkZone = DefaultNetworkZone
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
}

// BaseLabels returns the configured labels plus the environment label.
func (c *Config) BaseLabels() map[string]string {
	out := make(map[string]string, len(c.Labels)+1)
	maps.Copy(out, c.Labels)
	if c.Environment != "" {
		out[labels.KeyEnvironment] = c.Environment
	}
	return out
}

// Default returns a configuration with every default applied.
func Default(name string) *Config {
	cfg := &Config{Name: name}
	cfg.ApplyDefaults()
	return cfg
}
