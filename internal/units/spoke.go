package units

import (
	"context"
	"fmt"

	"github.com/imamik/hubnet/internal/backend"
	"github.com/imamik/hubnet/internal/stack"
	"github.com/imamik/hubnet/internal/topology"
	"github.com/imamik/hubnet/internal/util/naming"
)

// SpokeParams configures a spoke network.
type SpokeParams struct {
	Prefix       string            `yaml:"prefix"`
	Location     string            `yaml:"location"`
	AddressSpace []string          `yaml:"addressSpace"`
	Subnets      []topology.Subnet `yaml:"subnets"`
	// Hub is the unit the spoke peers with.
	Hub string `yaml:"hub"`
	// PeeringRole, when set, is a unit whose resources must exist before the
	// peerings are provisioned.
	PeeringRole string `yaml:"peeringRole"`
}

// Spoke is a workload network peered with the hub.
type Spoke struct {
	base
	hub         string
	peeringRole string
	exports     SpokeExports
}

var _ stack.Linker = (*Spoke)(nil)

// Exports returns the spoke network.
func (u *Spoke) Exports() SpokeExports {
	e := u.exports
	e.NetworkExports = e.NetworkExports.clone()
	return e
}

// NewSpoke constructs a spoke unit. The address space and the mgmt and
// workload subnets must be given in the entry file.
func NewSpoke(_ context.Context, scope *stack.Scope) (stack.Unit, error) {
	p := SpokeParams{Hub: HubID}
	if err := scope.Entry.Decode(&p); err != nil {
		return nil, err
	}
	if len(p.AddressSpace) == 0 {
		return nil, fmt.Errorf("spoke %s: addressSpace is required", scope.ID)
	}

	seg := topology.Segment{ID: scope.ID, Kind: topology.KindSpoke, AddressSpace: p.AddressSpace, Subnets: p.Subnets}
	if err := requireSubnets(seg, MgmtSubnet, WorkloadSubnet); err != nil {
		return nil, err
	}

	u := &Spoke{
		base:        newBase(scope, p.Prefix, p.Location, topology.KindSpoke),
		hub:         p.Hub,
		peeringRole: p.PeeringRole,
	}
	c := scope.Stack

	net, err := declareNetwork(c, &u.base, seg)
	if err != nil {
		return nil, err
	}
	if _, err := declareVM(c, &u.base, scope.App.Settings, vmSpec{
		prefix:            u.prefix,
		resourceGroupName: net.ResourceGroupName,
		subnetID:          net.SubnetIDs[MgmtSubnet],
		ipForwarding:      true,
	}); err != nil {
		return nil, err
	}

	u.exports = SpokeExports{NetworkExports: net}
	return u, nil
}

// Link peers the spoke with the hub in both directions. The spoke uses the
// hub's gateway for on-prem traffic.
func (u *Spoke) Link(lc *stack.LinkContext) error {
	hub, err := stack.LookupAs[HubExports](lc, u.hub)
	if err != nil {
		return err
	}
	if u.peeringRole != "" {
		if err := lc.DependsOn(u.peeringRole); err != nil {
			return err
		}
	}

	spoke := u.exports
	deps := backend.DependsOnID(spoke.VirtualNetworkID, hub.VirtualNetworkID, hub.VpnGatewayID)

	if _, err := lc.Create(backend.KindPeering, naming.HubToSpokePeering(u.prefix), backend.Properties{
		"resourceGroupName":         hub.ResourceGroupName,
		"virtualNetworkName":        hub.VirtualNetworkName,
		"remoteVirtualNetworkId":    spoke.VirtualNetworkID,
		"allowForwardedTraffic":     true,
		"allowGatewayTransit":       true,
		"allowVirtualNetworkAccess": true,
		"useRemoteGateways":         false,
	}, deps); err != nil {
		return err
	}

	if _, err := lc.Create(backend.KindPeering, naming.SpokeToHubPeering(u.prefix), backend.Properties{
		"resourceGroupName":         spoke.ResourceGroupName,
		"virtualNetworkName":        spoke.VirtualNetworkName,
		"remoteVirtualNetworkId":    hub.VirtualNetworkID,
		"allowForwardedTraffic":     true,
		"allowGatewayTransit":       false,
		"allowVirtualNetworkAccess": true,
		"useRemoteGateways":         true,
	}, deps); err != nil {
		return err
	}

	lc.Log().V(1).Info("Peered spoke with hub", "hub", u.hub)
	return nil
}
