package hcloud

import (
	"context"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// NetworkManager defines the network operations the applier needs.
type NetworkManager interface {
	// EnsureNetwork returns the named network, creating it with ipRange if it
	// does not exist. An existing network with a different range is an error.
	EnsureNetwork(ctx context.Context, name, ipRange string, labels map[string]string) (*hcloud.Network, error)

	// EnsureSubnet adds a cloud subnet unless the network already has one
	// with the same range.
	EnsureSubnet(ctx context.Context, network *hcloud.Network, ipRange, networkZone string) error

	// EnsureRoute adds a route unless one with the same destination exists.
	// An existing route to the destination through another gateway is an error.
	EnsureRoute(ctx context.Context, network *hcloud.Network, destination, gateway string) error

	DeleteNetwork(ctx context.Context, name string) error
	GetNetwork(ctx context.Context, name string) (*hcloud.Network, error)
}
