package units

import (
	"fmt"
	"maps"

	"github.com/imamik/hubnet/internal/topology"
)

// NetworkExports describes a unit's virtual network.
type NetworkExports struct {
	Segment            topology.Segment
	Prefix             string // resource name prefix
	Location           string
	ResourceGroupName  string
	VirtualNetworkName string
	VirtualNetworkID   string
	SubnetIDs          map[string]string // by subnet name
}

// SubnetID returns the resource ID of the named subnet.
func (n NetworkExports) SubnetID(name string) (string, error) {
	id, ok := n.SubnetIDs[name]
	if !ok {
		return "", fmt.Errorf("segment %s has no subnet %q", n.Segment.ID, name)
	}
	return id, nil
}

func (n NetworkExports) clone() NetworkExports {
	n.Segment = n.Segment.Clone()
	n.SubnetIDs = maps.Clone(n.SubnetIDs)
	return n
}

// HubExports is what the hub unit publishes.
type HubExports struct {
	NetworkExports
	VpnGatewayID string
}

// SpokeExports is what a spoke unit publishes.
type SpokeExports struct {
	NetworkExports
}

// OnPremExports is what the on-prem unit publishes.
type OnPremExports struct {
	NetworkExports
	VpnGatewayID string
}
