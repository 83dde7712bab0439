package units

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/hubnet/internal/backend"
	"github.com/imamik/hubnet/internal/metrics"
	"github.com/imamik/hubnet/internal/routing"
	"github.com/imamik/hubnet/internal/stack"
	"github.com/imamik/hubnet/internal/topology"
	"github.com/imamik/hubnet/internal/util/naming"
)

// DefaultNVAPrivateIP is the appliance address inside the default hub DMZ.
const DefaultNVAPrivateIP = "10.0.0.36"

const forwardingScriptURI = "https://raw.githubusercontent.com/mspnp/reference-architectures/master/scripts/linux/enable-ip-forwarding.sh"

// HubNVAParams configures the appliance and the segments it routes.
type HubNVAParams struct {
	Prefix    string `yaml:"prefix"`
	Location  string `yaml:"location"`
	PrivateIP string `yaml:"privateIP"`
	Hub       string `yaml:"hub"`
	// Spokes lists the spoke units to route, in route order. Empty means
	// every loaded unit that exports a spoke network, in registry order.
	Spokes []string `yaml:"spokes"`
	// OnPrem optionally adds the on-prem unit to the topology.
	OnPrem string `yaml:"onPrem"`
}

// HubNVA is the network virtual appliance in the hub DMZ. Its link hook
// assembles the topology from the other units' exports, synthesizes the route
// tables and binds them to the hub gateway subnet and the spoke subnets.
type HubNVA struct {
	base
	params        HubNVAParams
	resourceGroup string
}

var _ stack.Linker = (*HubNVA)(nil)

// NewHubNVA constructs the appliance unit. Everything that references the
// hub or the spokes is declared in Link.
func NewHubNVA(_ context.Context, scope *stack.Scope) (stack.Unit, error) {
	p := HubNVAParams{Prefix: "hub-nva", PrivateIP: DefaultNVAPrivateIP, Hub: HubID}
	if err := scope.Entry.Decode(&p); err != nil {
		return nil, err
	}

	u := &HubNVA{base: newBase(scope, p.Prefix, p.Location, topology.KindHub), params: p}
	u.resourceGroup = naming.ResourceGroup(u.prefix)
	if _, err := scope.Stack.Create(backend.KindResourceGroup, u.resourceGroup, u.props(nil)); err != nil {
		return nil, err
	}
	return u, nil
}

// Link declares the route tables, their subnet associations and the
// appliance VM.
func (u *HubNVA) Link(lc *stack.LinkContext) error {
	hub, err := stack.LookupAs[HubExports](lc, u.params.Hub)
	if err != nil {
		return err
	}
	spokes, err := u.spokes(lc)
	if err != nil {
		return err
	}

	var onPrem *topology.Segment
	if u.params.OnPrem != "" {
		op, err := stack.LookupAs[OnPremExports](lc, u.params.OnPrem)
		if err != nil {
			return err
		}
		onPrem = &op.Segment
	}

	segments := make([]topology.Segment, len(spokes))
	for i, s := range spokes {
		segments[i] = s.Segment
	}
	topo, err := topology.Build(hub.Segment, segments, onPrem, &topology.NVA{PrivateIP: u.params.PrivateIP})
	if err != nil {
		return err
	}
	for _, w := range topo.Warnings() {
		lc.Log().Info("Topology warning", "segment", w.Segment, "warning", w.Message)
	}

	tables, err := routing.SynthesizeAll(topo)
	if err != nil {
		return err
	}

	if err := lc.DependsOn(u.params.Hub); err != nil {
		return err
	}
	if err := u.declareTable(lc, naming.HubGatewayRouteTable(hub.Prefix), tables.Hub, hub.NetworkExports, GatewaySubnet); err != nil {
		return err
	}
	metrics.RecordRoutes("hub", tables.Hub.Len())

	for i, rt := range tables.Spokes {
		if err := u.declareTable(lc, naming.RouteTable(spokes[i].Prefix), rt, spokes[i].NetworkExports, MgmtSubnet, WorkloadSubnet); err != nil {
			return err
		}
		metrics.RecordRoutes("spoke", rt.Len())
	}

	if err := u.declareAppliance(lc, hub); err != nil {
		return err
	}

	lc.Log().V(1).Info("Declared hub routing", "spokes", len(spokes), "nextHop", u.params.PrivateIP)
	return nil
}

// spokes resolves the spoke exports in route order.
func (u *HubNVA) spokes(lc *stack.LinkContext) ([]SpokeExports, error) {
	if len(u.params.Spokes) > 0 {
		out := make([]SpokeExports, 0, len(u.params.Spokes))
		for _, id := range u.params.Spokes {
			s, err := stack.LookupAs[SpokeExports](lc, id)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	}

	var out []SpokeExports
	for _, id := range lc.IDs() {
		s, err := stack.LookupAs[SpokeExports](lc, id)
		if errors.Is(err, stack.ErrExportType) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// declareTable creates a route table for the owner network and associates it
// with the named subnets.
func (u *HubNVA) declareTable(c backend.Creator, name string, rt *routing.RouteTable, owner NetworkExports, subnets ...string) error {
	table, err := c.Create(backend.KindRouteTable, name, u.props(backend.Properties{
		"resourceGroupName":          u.resourceGroup,
		backend.PropOwner:            rt.Owner,
		backend.PropNetworkID:        owner.VirtualNetworkID,
		backend.PropRoutes:           rt.Routes(),
		"disableBgpRoutePropagation": false,
	}), backend.DependsOnID(owner.VirtualNetworkID))
	if err != nil {
		return err
	}

	for _, sn := range subnets {
		subnetID, err := owner.SubnetID(sn)
		if err != nil {
			return fmt.Errorf("route table %s: %w", name, err)
		}
		if _, err := c.Create(backend.KindRouteAssociation, naming.RouteAssociation(name, owner.VirtualNetworkName, sn), backend.Properties{
			backend.PropRouteTableID: table.ID,
			backend.PropSubnetID:     subnetID,
		}, backend.DependsOn(table), backend.DependsOnID(subnetID)); err != nil {
			return err
		}
	}
	return nil
}

// declareAppliance creates the forwarding VM with a static address in the
// hub DMZ and the extension that enables IP forwarding on it.
func (u *HubNVA) declareAppliance(lc *stack.LinkContext, hub HubExports) error {
	dmz, err := hub.SubnetID(topology.DMZSubnet)
	if err != nil {
		return err
	}
	vm, err := declareVM(lc, &u.base, lc.App.Settings, vmSpec{
		prefix:            u.prefix,
		resourceGroupName: u.resourceGroup,
		subnetID:          dmz,
		privateIP:         u.params.PrivateIP,
		ipForwarding:      true,
	})
	if err != nil {
		return err
	}

	_, err = lc.Create(backend.KindVMExtension, "enable-iptables-routes", u.props(backend.Properties{
		"virtualMachineId":   vm.ID,
		"publisher":          "Microsoft.Azure.Extensions",
		"type":               "CustomScript",
		"typeHandlerVersion": "2.0",
		"settings": backend.Properties{
			"fileUris":         []string{forwardingScriptURI},
			"commandToExecute": "bash enable-ip-forwarding.sh",
		},
	}), backend.DependsOn(vm))
	return err
}
