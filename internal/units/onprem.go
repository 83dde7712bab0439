package units

import (
	"context"
	"fmt"

	"github.com/imamik/hubnet/internal/backend"
	"github.com/imamik/hubnet/internal/stack"
	"github.com/imamik/hubnet/internal/topology"
	"github.com/imamik/hubnet/internal/util/naming"
)

// OnPremParams configures the mock on-prem network.
type OnPremParams struct {
	Prefix          string            `yaml:"prefix"`
	Location        string            `yaml:"location"`
	AddressSpace    []string          `yaml:"addressSpace"`
	Subnets         []topology.Subnet `yaml:"subnets"`
	SSHSourcePrefix string            `yaml:"sshSourcePrefix"`
}

func defaultOnPremParams() OnPremParams {
	return OnPremParams{
		Prefix:       "onprem",
		AddressSpace: []string{"192.168.0.0/16"},
		Subnets: []topology.Subnet{
			{Name: GatewaySubnet, Prefix: "192.168.255.224/27"},
			{Name: MgmtSubnet, Prefix: "192.168.1.128/25"},
		},
		SSHSourcePrefix: "*",
	}
}

// OnPrem simulates an on-premises site: a network with a VPN gateway and a
// management VM reachable over SSH.
type OnPrem struct {
	base
	exports OnPremExports
}

// Exports returns the on-prem network and gateway.
func (u *OnPrem) Exports() OnPremExports {
	e := u.exports
	e.NetworkExports = e.NetworkExports.clone()
	return e
}

// NewOnPrem constructs the on-prem unit.
func NewOnPrem(_ context.Context, scope *stack.Scope) (stack.Unit, error) {
	p := defaultOnPremParams()
	if err := scope.Entry.Decode(&p); err != nil {
		return nil, err
	}

	seg := topology.Segment{ID: scope.ID, Kind: topology.KindOnPrem, AddressSpace: p.AddressSpace, Subnets: p.Subnets}
	if err := requireSubnets(seg, GatewaySubnet, MgmtSubnet); err != nil {
		return nil, err
	}

	u := &OnPrem{base: newBase(scope, p.Prefix, p.Location, topology.KindOnPrem)}
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
	}); err != nil {
		return nil, err
	}
	if err := u.declareSSHAccess(c, net, p.SSHSourcePrefix); err != nil {
		return nil, err
	}

	u.exports = OnPremExports{NetworkExports: net, VpnGatewayID: gw.ID}
	scope.Log().V(1).Info("Declared on-prem network", "addressSpace", seg.AddressSpace)
	return u, nil
}

// declareSSHAccess allows inbound tcp/22 to the management subnet.
func (u *OnPrem) declareSSHAccess(c backend.Creator, net NetworkExports, source string) error {
	nsgName := naming.SecurityGroup(u.prefix)
	nsg, err := c.Create(backend.KindSecurityGroup, nsgName, u.props(backend.Properties{
		"resourceGroupName": net.ResourceGroupName,
	}))
	if err != nil {
		return err
	}
	if _, err := c.Create(backend.KindSecurityRule, "SSH", backend.Properties{
		"resourceGroupName":        net.ResourceGroupName,
		"networkSecurityGroupName": nsgName,
		"priority":                 1001,
		"direction":                "Inbound",
		"access":                   "Allow",
		"protocol":                 "Tcp",
		"sourcePortRange":          "*",
		"destinationPortRange":     "22",
		"sourceAddressPrefix":      source,
		"destinationAddressPrefix": "*",
	}, backend.DependsOn(nsg)); err != nil {
		return err
	}

	mgmt := net.SubnetIDs[MgmtSubnet]
	_, err = c.Create(backend.KindSubnetNSGAssociation, fmt.Sprintf("%s-%s", nsgName, MgmtSubnet), backend.Properties{
		backend.PropSubnetID:     mgmt,
		"networkSecurityGroupId": nsg.ID,
	}, backend.DependsOn(nsg), backend.DependsOnID(mgmt))
	return err
}
