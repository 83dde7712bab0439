package hcloud

import (
	"context"
	"fmt"
	"net"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/hubnet/internal/util/retry"
)

// EnsureNetwork ensures that a network exists with the given IP range.
func (c *RealClient) EnsureNetwork(ctx context.Context, name, ipRange string, labels map[string]string) (*hcloud.Network, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Network)
	defer cancel()

	return (&EnsureOperation[*hcloud.Network, hcloud.NetworkCreateOpts]{
		Name:         name,
		ResourceType: "network",
		Get:          c.client.Network.Get,
		Create:       simpleCreate(c.client.Network.Create),
		Validate: func(network *hcloud.Network) error {
			if network.IPRange.String() != ipRange {
				return fmt.Errorf("network %s exists but with different IP range %s (expected %s)",
					name, network.IPRange.String(), ipRange)
			}
			return nil
		},
		CreateOptsMapper: func() (hcloud.NetworkCreateOpts, error) {
			_, ipNet, err := net.ParseCIDR(ipRange)
			if err != nil {
				return hcloud.NetworkCreateOpts{}, err
			}
			return hcloud.NetworkCreateOpts{
				Name:    name,
				IPRange: ipNet,
				Labels:  labels,
			}, nil
		},
	}).Execute(ctx, c)
}

// EnsureSubnet ensures that a cloud subnet exists in the given network.
func (c *RealClient) EnsureSubnet(ctx context.Context, network *hcloud.Network, ipRange, networkZone string) error {
	_, ipNet, err := net.ParseCIDR(ipRange)
	if err != nil {
		return fmt.Errorf("invalid subnet ip range: %w", err)
	}
	for _, subnet := range network.Subnets {
		if subnet.IPRange != nil && subnet.IPRange.String() == ipNet.String() {
			return nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Network)
	defer cancel()

	opts := hcloud.NetworkAddSubnetOpts{
		Subnet: hcloud.NetworkSubnet{
			Type:        hcloud.NetworkSubnetTypeCloud,
			IPRange:     ipNet,
			NetworkZone: hcloud.NetworkZone(networkZone),
		},
	}
	return retry.Do(ctx, func(ctx context.Context) error {
		action, _, err := c.client.Network.AddSubnet(ctx, network, opts)
		if err != nil {
			return classify(fmt.Errorf("failed to add subnet %s to %s: %w", ipRange, network.Name, err))
		}
		if err := waitForAction(ctx, c.client, action); err != nil {
			return fmt.Errorf("failed to wait for subnet creation: %w", err)
		}
		return nil
	}, c.retryOptions()...)
}

// EnsureRoute ensures that traffic to destination leaves the network
// through gateway.
func (c *RealClient) EnsureRoute(ctx context.Context, network *hcloud.Network, destination, gateway string) error {
	_, dst, err := net.ParseCIDR(destination)
	if err != nil {
		return fmt.Errorf("invalid route destination: %w", err)
	}
	gw := net.ParseIP(gateway)
	if gw == nil {
		return fmt.Errorf("invalid route gateway %q", gateway)
	}
	for _, route := range network.Routes {
		if route.Destination == nil || route.Destination.String() != dst.String() {
			continue
		}
		if route.Gateway.Equal(gw) {
			return nil
		}
		return fmt.Errorf("network %s already routes %s via %s (expected %s)",
			network.Name, dst, route.Gateway, gw)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Route)
	defer cancel()

	opts := hcloud.NetworkAddRouteOpts{
		Route: hcloud.NetworkRoute{Destination: dst, Gateway: gw},
	}
	return retry.Do(ctx, func(ctx context.Context) error {
		action, _, err := c.client.Network.AddRoute(ctx, network, opts)
		if err != nil {
			return classify(fmt.Errorf("failed to add route %s via %s to %s: %w", dst, gw, network.Name, err))
		}
		if err := waitForAction(ctx, c.client, action); err != nil {
			return fmt.Errorf("failed to wait for route creation: %w", err)
		}
		return nil
	}, c.retryOptions()...)
}

// DeleteNetwork deletes the network with the given name.
func (c *RealClient) DeleteNetwork(ctx context.Context, name string) error {
	return (&DeleteOperation[*hcloud.Network]{
		Name:         name,
		ResourceType: "network",
		Get:          c.client.Network.Get,
		Delete:       c.client.Network.Delete,
	}).Execute(ctx, c)
}

// GetNetwork returns the network with the given name, or nil if it does not exist.
func (c *RealClient) GetNetwork(ctx context.Context, name string) (*hcloud.Network, error) {
	network, _, err := c.client.Network.Get(ctx, name)
	return network, err
}
