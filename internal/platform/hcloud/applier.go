package hcloud

import (
	"context"
	"fmt"
	"net/netip"
	"slices"

	"github.com/go-logr/logr"
	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/hubnet/internal/backend"
	"github.com/imamik/hubnet/internal/routing"
)

// Summary counts what an apply did.
type Summary struct {
	Networks int
	Subnets  int
	Routes   int
	// Unreachable counts appliance routes skipped because the gateway lies
	// outside the owner network.
	Unreachable int
	Unmapped    int
}

// Applier provisions the network layer of a plan through a NetworkManager.
type Applier struct {
	Client      NetworkManager
	NetworkZone string
	Log         logr.Logger

	networks map[string]*hcloud.Network // by VirtualNetwork resource ID
}

var (
	_ backend.Applier   = (*Applier)(nil)
	_ backend.Destroyer = (*Applier)(nil)
)

// NewApplier returns an applier creating subnets in zone.
func NewApplier(client NetworkManager, zone string, log logr.Logger) *Applier {
	return &Applier{Client: client, NetworkZone: zone, Log: log}
}

// Apply implements backend.Applier.
func (a *Applier) Apply(ctx context.Context, plan *backend.Plan) error {
	_, err := a.ApplyPlan(ctx, plan)
	return err
}

// ApplyPlan walks the plan in order and returns what was applied. It stops
// at the first provider error.
func (a *Applier) ApplyPlan(ctx context.Context, plan *backend.Plan) (*Summary, error) {
	a.networks = make(map[string]*hcloud.Network)
	sum := &Summary{}

	for _, step := range plan.Steps {
		log := a.Log.WithValues("stack", step.Stack)
		for _, res := range step.Resources {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			var err error
			switch res.Kind {
			case backend.KindVirtualNetwork:
				err = a.applyNetwork(ctx, log, res, sum)
			case backend.KindSubnet:
				err = a.applySubnet(ctx, log, res, sum)
			case backend.KindRouteTable:
				err = a.applyRouteTable(ctx, log, res, sum)
			default:
				sum.Unmapped++
				log.V(1).Info("no hcloud equivalent", "resource", res.ID)
			}
			if err != nil {
				return sum, fmt.Errorf("apply %s: %w", res.ID, err)
			}
		}
	}

	a.Log.Info("apply complete",
		"networks", sum.Networks,
		"subnets", sum.Subnets,
		"routes", sum.Routes,
		"unreachable", sum.Unreachable,
		"unmapped", sum.Unmapped)
	return sum, nil
}

// Destroy deletes the networks of the plan in reverse plan order. Subnets and
// routes go with their network. Networks that no longer exist are skipped.
func (a *Applier) Destroy(ctx context.Context, plan *backend.Plan) error {
	deleted := 0
	for _, res := range slices.Backward(plan.Resources()) {
		if res.Kind != backend.KindVirtualNetwork {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.Client.DeleteNetwork(ctx, res.Name); err != nil {
			return fmt.Errorf("destroy %s: %w", res.ID, err)
		}
		deleted++
		a.Log.Info("network deleted", "network", res.Name)
	}
	a.Log.Info("destroy complete", "networks", deleted)
	return nil
}

func (a *Applier) applyNetwork(ctx context.Context, log logr.Logger, res *backend.Resource, sum *Summary) error {
	prefixes, _ := res.Properties[backend.PropAddressPrefixes].([]string)
	if len(prefixes) == 0 {
		return fmt.Errorf("%w: no address prefixes", backend.ErrInvalidResource)
	}
	if len(prefixes) > 1 {
		log.Info("hcloud networks span one range, extra blocks ignored", "network", res.Name, "ignored", prefixes[1:])
	}

	labels, _ := res.Properties["tags"].(map[string]string)
	network, err := a.Client.EnsureNetwork(ctx, res.Name, prefixes[0], labels)
	if err != nil {
		return err
	}
	a.networks[res.ID] = network
	sum.Networks++
	log.Info("network ready", "network", res.Name, "ipRange", prefixes[0])
	return nil
}

func (a *Applier) applySubnet(ctx context.Context, log logr.Logger, res *backend.Resource, sum *Summary) error {
	network, err := a.owner(res)
	if err != nil {
		return err
	}
	prefix := res.String(backend.PropAddressPrefix)
	if err := a.Client.EnsureSubnet(ctx, network, prefix, a.NetworkZone); err != nil {
		return err
	}
	sum.Subnets++
	log.V(1).Info("subnet ready", "network", network.Name, "subnet", res.Name, "ipRange", prefix)
	return nil
}

func (a *Applier) applyRouteTable(ctx context.Context, log logr.Logger, res *backend.Resource, sum *Summary) error {
	network, err := a.owner(res)
	if err != nil {
		return err
	}
	routes, _ := res.Properties[backend.PropRoutes].([]routing.Route)

	var ipRange netip.Prefix
	if network.IPRange != nil {
		ipRange, _ = netip.ParsePrefix(network.IPRange.String())
	}

	for _, r := range routes {
		if r.NextHopType != routing.NextHopAppliance {
			continue
		}
		gw, err := netip.ParseAddr(r.NextHopIP)
		if err != nil {
			return fmt.Errorf("%w: route %s: %v", routing.ErrInvalidRoute, r.Name, err)
		}
		if ipRange.IsValid() && !ipRange.Contains(gw) {
			sum.Unreachable++
			log.Info("appliance not reachable from network, route skipped",
				"network", network.Name, "route", r.Name, "gateway", r.NextHopIP)
			continue
		}
		if err := a.Client.EnsureRoute(ctx, network, r.AddressPrefix, r.NextHopIP); err != nil {
			return err
		}
		sum.Routes++
		log.V(1).Info("route ready", "network", network.Name, "route", r.Name, "destination", r.AddressPrefix, "gateway", r.NextHopIP)
	}
	return nil
}

func (a *Applier) owner(res *backend.Resource) (*hcloud.Network, error) {
	id := res.String(backend.PropNetworkID)
	network, ok := a.networks[id]
	if !ok {
		return nil, fmt.Errorf("%w: network %q not applied before %s", backend.ErrUnknownResource, id, res.Kind)
	}
	return network, nil
}
