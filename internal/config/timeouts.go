package config

import (
	"os"
	"strconv"
	"time"
)

// Environment overrides for provider timeouts and retries.
const (
	EnvTimeoutNetwork    = "HCLOUD_TIMEOUT_NETWORK"
	EnvTimeoutRoute      = "HCLOUD_TIMEOUT_ROUTE"
	EnvTimeoutDelete     = "HCLOUD_TIMEOUT_DELETE"
	EnvRetryMaxAttempts  = "HCLOUD_RETRY_MAX_ATTEMPTS"
	EnvRetryInitialDelay = "HCLOUD_RETRY_INITIAL_DELAY"
)

// Timeouts bounds the Hetzner Cloud calls made while applying or destroying
// a plan.
type Timeouts struct {
	Network           time.Duration // network and subnet creation
	Route             time.Duration // one network route
	Delete            time.Duration // network deletion
	RetryMaxAttempts  int
	RetryInitialDelay time.Duration
}

// DefaultTimeouts returns the values used when no override is set.
func DefaultTimeouts() *Timeouts {
	return &Timeouts{
		Network:           2 * time.Minute,
		Route:             time.Minute,
		Delete:            5 * time.Minute,
		RetryMaxAttempts:  5,
		RetryInitialDelay: time.Second,
	}
}

// LoadTimeouts returns DefaultTimeouts with the HCLOUD_TIMEOUT_* and
// HCLOUD_RETRY_* overrides applied. Unset, unparsable and non-positive
// values keep the default.
func LoadTimeouts() *Timeouts {
	t := DefaultTimeouts()
	override(&t.Network, EnvTimeoutNetwork, time.ParseDuration)
	override(&t.Route, EnvTimeoutRoute, time.ParseDuration)
	override(&t.Delete, EnvTimeoutDelete, time.ParseDuration)
	override(&t.RetryMaxAttempts, EnvRetryMaxAttempts, strconv.Atoi)
	override(&t.RetryInitialDelay, EnvRetryInitialDelay, time.ParseDuration)
	return t
}

func override[T time.Duration | int](dst *T, key string, parse func(string) (T, error)) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return
	}
	if v, err := parse(raw); err == nil && v > 0 {
		*dst = v
	}
}
