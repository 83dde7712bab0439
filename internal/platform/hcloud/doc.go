// Package hcloud applies hubnet plans to Hetzner Cloud.
//
// Only the network layer has a Hetzner equivalent: a VirtualNetwork becomes
// an hcloud network spanning its first address block, each Subnet becomes a
// cloud subnet of its owning network, and every appliance route of a
// RouteTable becomes a network route whose gateway is the appliance IP.
// Everything else in a plan (VMs, gateways, peerings, roles) is logged as
// unmapped.
//
// # Operations
//
// Provider calls go through [EnsureOperation] and [DeleteOperation], which
// give get-or-create and idempotent delete semantics with retry. Errors are
// classified in errors.go: locked or conflicting resources and rate limits
// are retried with exponential backoff, invalid input and not-found are
// fatal.
//
// # Retry and Timeout Configuration
//
//   - HCLOUD_TIMEOUT_NETWORK: network and subnet creation (default: 2m)
//   - HCLOUD_TIMEOUT_ROUTE: adding one route (default: 1m)
//   - HCLOUD_TIMEOUT_DELETE: resource deletion (default: 5m)
//   - HCLOUD_RETRY_MAX_ATTEMPTS: maximum retry attempts (default: 5)
//   - HCLOUD_RETRY_INITIAL_DELAY: initial retry delay (default: 1s)
package hcloud
