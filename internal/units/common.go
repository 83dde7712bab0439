package units

import (
	"fmt"

	"github.com/imamik/hubnet/internal/backend"
	"github.com/imamik/hubnet/internal/stack"
	"github.com/imamik/hubnet/internal/topology"
	"github.com/imamik/hubnet/internal/util/labels"
	"github.com/imamik/hubnet/internal/util/naming"
	"github.com/imamik/hubnet/internal/util/sshkey"
)

// Unit identifiers used as defaults in unit parameters.
const (
	HubID         = "hub"
	OnPremID      = "on-prem"
	HubNVAID      = "hub-nva"
	PeeringRoleID = "peering-role"
)

// Subnet names with a meaning to the units.
const (
	GatewaySubnet  = "GatewaySubnet"
	MgmtSubnet     = "mgmt"
	WorkloadSubnet = "workload"
)

// VM defaults.
const (
	defaultVMSize    = "Standard_B1s"
	imagePublisher   = "Canonical"
	imageOffer       = "UbuntuServer"
	imageSKU         = "16.04-LTS"
	osDiskCaching    = "ReadWrite"
	osDiskType       = "Standard_LRS"
	vpnGatewaySKU    = "VpnGw1"
	connectionWeight = 1
)

// base carries what every unit needs after construction.
type base struct {
	id       string
	prefix   string
	location string
	labels   map[string]string
}

func (b *base) ID() string {
	return b.id
}

func newBase(scope *stack.Scope, prefix, location string, kind topology.Kind) base {
	if prefix == "" {
		prefix = scope.ID
	}
	if location == "" {
		location = scope.App.Settings.Region
	}
	return base{
		id:       scope.ID,
		prefix:   prefix,
		location: location,
		labels: labels.NewLabelBuilder(scope.ID).
			WithSegment(string(kind)).
			Merge(scope.App.Settings.Labels).
			Build(),
	}
}

// props returns location and labels merged with extra.
func (b *base) props(extra backend.Properties) backend.Properties {
	p := backend.Properties{
		"location": b.location,
		"tags":     b.labels,
	}
	for k, v := range extra {
		p[k] = v
	}
	return p
}

// declareNetwork creates the resource group, virtual network and subnets of a
// segment and returns the network exports.
func declareNetwork(c backend.Creator, b *base, seg topology.Segment) (NetworkExports, error) {
	rgName := naming.ResourceGroup(b.prefix)
	rg, err := c.Create(backend.KindResourceGroup, rgName, b.props(nil))
	if err != nil {
		return NetworkExports{}, err
	}

	vnetName := naming.VirtualNetwork(b.prefix)
	vnet, err := c.Create(backend.KindVirtualNetwork, vnetName, b.props(backend.Properties{
		"resourceGroupName":         rgName,
		backend.PropAddressPrefixes: seg.AddressSpace,
	}), backend.DependsOn(rg))
	if err != nil {
		return NetworkExports{}, err
	}

	exp := NetworkExports{
		Segment:            seg.Clone(),
		Prefix:             b.prefix,
		Location:           b.location,
		ResourceGroupName:  rgName,
		VirtualNetworkName: vnetName,
		VirtualNetworkID:   vnet.ID,
		SubnetIDs:          make(map[string]string, len(seg.Subnets)),
	}
	for _, sn := range seg.Subnets {
		res, err := c.Create(backend.KindSubnet, sn.Name, backend.Properties{
			"resourceGroupName":       rgName,
			"virtualNetworkName":      vnetName,
			backend.PropNetworkID:     vnet.ID,
			backend.PropAddressPrefix: sn.Prefix,
		}, backend.DependsOn(vnet))
		if err != nil {
			return NetworkExports{}, err
		}
		exp.SubnetIDs[sn.Name] = res.ID
	}
	return exp, nil
}

// vmSpec describes a Linux VM with a single NIC.
type vmSpec struct {
	prefix            string
	resourceGroupName string
	subnetID          string
	privateIP         string // static when set
	ipForwarding      bool
}

// declareVM creates a NIC and a VM attached to it. Credentials are taken from
// the App settings as given.
func declareVM(c backend.Creator, b *base, settings stack.Settings, spec vmSpec) (*backend.Resource, error) {
	allocation := "Dynamic"
	if spec.privateIP != "" {
		allocation = "Static"
	}
	nic, err := c.Create(backend.KindNetworkInterface, naming.NetworkInterface(spec.prefix), b.props(backend.Properties{
		"resourceGroupName":          spec.resourceGroupName,
		"enableIpForwarding":         spec.ipForwarding,
		backend.PropSubnetID:         spec.subnetID,
		"privateIpAddressAllocation": allocation,
		backend.PropPrivateIPAddress: spec.privateIP,
	}), backend.DependsOnID(spec.subnetID))
	if err != nil {
		return nil, err
	}

	osProfile := backend.Properties{
		"computerName":                  naming.VirtualMachine(spec.prefix),
		"adminUsername":                 settings.AdminUsername,
		"adminPassword":                 settings.AdminPassword,
		"disablePasswordAuthentication": false,
	}
	if settings.AdminSSHKey != "" {
		key, err := sshkey.Parse(settings.AdminSSHKey)
		if err != nil {
			return nil, fmt.Errorf("admin ssh key: %w", err)
		}
		osProfile["sshAuthorizedKey"] = key.AuthorizedKey
		osProfile["sshKeyFingerprint"] = key.Fingerprint
		osProfile["disablePasswordAuthentication"] = true
	}

	return c.Create(backend.KindVirtualMachine, naming.VirtualMachine(spec.prefix), b.props(backend.Properties{
		"resourceGroupName":   spec.resourceGroupName,
		"networkInterfaceIds": []string{nic.ID},
		"vmSize":              defaultVMSize,
		"osProfile":           osProfile,
		"storageImageReference": backend.Properties{
			"publisher": imagePublisher,
			"offer":     imageOffer,
			"sku":       imageSKU,
			"version":   "latest",
		},
		"storageOsDisk": backend.Properties{
			"name":            naming.OSDisk(spec.prefix),
			"caching":         osDiskCaching,
			"createOption":    "FromImage",
			"managedDiskType": osDiskType,
		},
		"deleteOsDiskOnTermination": true,
	}), backend.DependsOn(nic))
}

// declareVpnGateway creates a route-based VPN gateway with its public IP in the
// given gateway subnet.
func declareVpnGateway(c backend.Creator, b *base, rgName, gatewaySubnetID string) (*backend.Resource, error) {
	pip, err := c.Create(backend.KindPublicIP, naming.VpnGatewayPublicIP(b.prefix), b.props(backend.Properties{
		"resourceGroupName": rgName,
		"allocationMethod":  "Dynamic",
	}))
	if err != nil {
		return nil, err
	}
	return c.Create(backend.KindVpnGateway, naming.VpnGateway(b.prefix), b.props(backend.Properties{
		"resourceGroupName":  rgName,
		"type":               "Vpn",
		"vpnType":            "RouteBased",
		"activeActive":       false,
		"enableBgp":          false,
		"sku":                vpnGatewaySKU,
		"publicIpAddressId":  pip.ID,
		backend.PropSubnetID: gatewaySubnetID,
	}), backend.DependsOn(pip), backend.DependsOnID(gatewaySubnetID))
}

// requireSubnets checks that seg declares every named subnet.
func requireSubnets(seg topology.Segment, names ...string) error {
	for _, name := range names {
		if _, ok := seg.Subnet(name); !ok {
			return fmt.Errorf("segment %s: missing required subnet %q", seg.ID, name)
		}
	}
	return nil
}
