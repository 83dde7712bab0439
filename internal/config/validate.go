package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-logr/logr"
)

// ValidLocations contains the Hetzner Cloud locations hubnet knows about.
// https://docs.hetzner.com/cloud/general/locations/
var ValidLocations = map[string]bool{
	"nbg1": true, // Nuremberg, Germany
	"fsn1": true, // Falkenstein, Germany
	"hel1": true, // Helsinki, Finland
	"ash":  true, // Ashburn, USA
	"hil":  true, // Hillsboro, USA
	"sin":  true, // Singapore
}

// ValidNetworkZones contains all Hetzner Cloud network zones.
// https://docs.hetzner.com/cloud/networks/overview/
var ValidNetworkZones = map[string]bool{
	"eu-central":   true,
	"us-east":      true,
	"us-west":      true,
	"ap-southeast": true,
}

var validLogLevels = []string{"debug", "info", "error"}

// Severity distinguishes blocking problems from advisories.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationError is one field-level finding.
type ValidationError struct {
	Field    string
	Message  string
	Severity Severity
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult collects findings from [Config.Check].
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

func (r *ValidationResult) addError(field, format string, args ...any) {
	r.Errors = append(r.Errors, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Severity: SeverityError})
}

func (r *ValidationResult) addWarning(field, format string, args ...any) {
	r.Warnings = append(r.Warnings, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning})
}

// Err joins every error finding, or returns nil.
func (r *ValidationResult) Err() error {
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// LogWarnings writes each warning to log.
func (r *ValidationResult) LogWarnings(log logr.Logger) {
	for _, w := range r.Warnings {
		log.Info("configuration warning", "field", w.Field, "message", w.Message)
	}
}

// Validate returns the joined validation errors. Warnings are ignored.
func (c *Config) Validate() error {
	return c.Check().Err()
}

// Check validates the configuration and returns errors and warnings.
func (c *Config) Check() *ValidationResult {
	r := &ValidationResult{}

	if c.Name == "" {
		r.addError("name", "is required")
	} else if !isValidDNSName(c.Name) {
		r.addError("name", "must be DNS-safe (lowercase alphanumeric and hyphens, must start with letter)")
	}

	if c.UnitsDir == "" {
		r.addError("unitsDir", "is required")
	}

	if !c.Backend.Provider.IsValid() {
		r.addError("backend.provider", "must be one of: %v", ValidProviders())
	}

	if !ValidLocations[c.Region] {
		msg := fmt.Sprintf("unknown location %q, known: %v", c.Region, sortedKeys(ValidLocations))
		if c.Backend.Provider == ProviderHCloud {
			r.addError("region", "%s", msg)
		} else {
			r.addWarning("region", "%s", msg)
		}
	}

	if c.Backend.NetworkZone != "" && !ValidNetworkZones[c.Backend.NetworkZone] {
		r.addError("backend.networkZone", "must be one of: %v", sortedKeys(ValidNetworkZones))
	}

	if !slices.Contains(validLogLevels, c.Log.Level) {
		r.addError("log.level", "must be one of: %v", validLogLevels)
	}

	if c.Concurrency < 0 {
		r.addError("concurrency", "must not be negative")
	} else if c.Concurrency > 64 {
		r.addWarning("concurrency", "%d concurrent entry checks is unusually high", c.Concurrency)
	}

	for k := range c.Labels {
		if strings.TrimSpace(k) == "" {
			r.addError("labels", "keys must not be empty")
			break
		}
	}

	return r
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// isValidDNSName reports whether name is lowercase alphanumeric with hyphens,
// starts with a letter and is at most 63 characters.
func isValidDNSName(name string) bool {
	if len(name) == 0 || len(name) > 63 {
		return false
	}
	if name[0] < 'a' || name[0] > 'z' {
		return false
	}
	last := name[len(name)-1]
	if (last < 'a' || last > 'z') && (last < '0' || last > '9') {
		return false
	}
	for _, c := range name {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return false
		}
	}
	return !strings.Contains(name, "--")
}
