// Package config loads the hubnet application configuration.
//
// A [Config] is read from hubnet.yaml and names the units directory, the
// default region, the provisioning backend and log settings. Secrets never
// live in the file: [LoadCredentials] reads them from the environment,
// optionally seeded from a .env file. Provider timeouts and retry budgets
// come from HCLOUD_* environment variables via [LoadTimeouts].
package config
