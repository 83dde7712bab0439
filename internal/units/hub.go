package units

import (
	"context"
	"errors"

	"github.com/imamik/hubnet/internal/backend"
	"github.com/imamik/hubnet/internal/crypto/ipsec"
	"github.com/imamik/hubnet/internal/stack"
	"github.com/imamik/hubnet/internal/topology"
	"github.com/imamik/hubnet/internal/util/naming"
)

// ErrSharedKeyRequired is returned when gateway connections are declared
// without a shared key.
var ErrSharedKeyRequired = errors.New("shared key required for gateway connections")

// HubParams configures the hub network.
type HubParams struct {
	Prefix       string            `yaml:"prefix"`
	Location     string            `yaml:"location"`
	AddressSpace []string          `yaml:"addressSpace"`
	Subnets      []topology.Subnet `yaml:"subnets"`
	// OnPrem is the unit whose gateway the hub connects to. Empty disables
	// the connection.
	OnPrem string `yaml:"onPrem"`
}

func defaultHubParams() HubParams {
	return HubParams{
		Prefix:       "hub",
		AddressSpace: []string{"10.0.0.0/16"},
		Subnets: []topology.Subnet{
			{Name: topology.DMZSubnet, Prefix: "10.0.0.32/27"},
			{Name: GatewaySubnet, Prefix: "10.0.255.224/27"},
			{Name: MgmtSubnet, Prefix: "10.0.0.64/27"},
		},
		OnPrem: OnPremID,
	}
}

// Hub is the central network. It hosts the VPN gateway and, when configured,
// connects it to the on-prem gateway in its link hook.
type Hub struct {
	base
	onPrem  string
	exports HubExports
}

var _ stack.Linker = (*Hub)(nil)

// Exports returns the hub network and gateway.
func (u *Hub) Exports() HubExports {
	e := u.exports
	e.NetworkExports = e.NetworkExports.clone()
	return e
}

// NewHub constructs the hub unit.
func NewHub(_ context.Context, scope *stack.Scope) (stack.Unit, error) {
	p := defaultHubParams()
	if err := scope.Entry.Decode(&p); err != nil {
		return nil, err
	}

	seg := topology.Segment{ID: scope.ID, Kind: topology.KindHub, AddressSpace: p.AddressSpace, Subnets: p.Subnets}
	if err := requireSubnets(seg, GatewaySubnet, MgmtSubnet); err != nil {
		return nil, err
	}

	u := &Hub{base: newBase(scope, p.Prefix, p.Location, topology.KindHub), onPrem: p.OnPrem}
	c := scope.Stack

	net, err := declareNetwork(c, &u.base, seg)
	if err != nil {
		return nil, err
	}
	gw, err := declareVpnGateway(c, &u.base, net.ResourceGroupName, net.SubnetIDs[GatewaySubnet])
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

	u.exports = HubExports{NetworkExports: net, VpnGatewayID: gw.ID}
	return u, nil
}

// Link connects the hub and on-prem gateways in both directions.
func (u *Hub) Link(lc *stack.LinkContext) error {
	if u.onPrem == "" {
		return nil
	}
	op, err := stack.LookupAs[OnPremExports](lc, u.onPrem)
	if err != nil {
		return err
	}
	if err := lc.DependsOn(u.onPrem); err != nil {
		return err
	}

	key := lc.App.Settings.SharedKey
	if key == "" {
		return ErrSharedKeyRequired
	}
	if err := ipsec.ValidateSharedKey(key); err != nil {
		return err
	}

	hub := u.exports
	opPrefix := op.Prefix
	connections := []struct {
		name          string
		location      string
		resourceGroup string
		gateway       string
		peer          string
	}{
		{naming.GatewayConnection(u.prefix, opPrefix), hub.Location, hub.ResourceGroupName, hub.VpnGatewayID, op.VpnGatewayID},
		{naming.GatewayConnection(opPrefix, u.prefix), op.Location, op.ResourceGroupName, op.VpnGatewayID, hub.VpnGatewayID},
	}
	for _, conn := range connections {
		if _, err := lc.Create(backend.KindGatewayConnection, conn.name, backend.Properties{
			"location":                    conn.location,
			"resourceGroupName":           conn.resourceGroup,
			"type":                        "Vnet2Vnet",
			"virtualNetworkGatewayId":     conn.gateway,
			"peerVirtualNetworkGatewayId": conn.peer,
			"routingWeight":               connectionWeight,
			"sharedKey":                   key,
		}, backend.DependsOnID(conn.gateway, conn.peer)); err != nil {
			return err
		}
	}

	lc.Log().V(1).Info("Connected hub to on-prem", "onPrem", u.onPrem)
	return nil
}
