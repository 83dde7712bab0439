package naming

import "fmt"

// Naming functions for unit resources.

func ResourceGroup(prefix string) string {
	return fmt.Sprintf("%s-rg", prefix)
}

func VirtualNetwork(prefix string) string {
	return fmt.Sprintf("%s-vnet", prefix)
}

func NetworkInterface(prefix string) string {
	return fmt.Sprintf("%s-nic", prefix)
}

func VirtualMachine(prefix string) string {
	return fmt.Sprintf("%s-vm", prefix)
}

func OSDisk(prefix string) string {
	return fmt.Sprintf("%s-vm-os-disk-1", prefix)
}

func VpnGateway(prefix string) string {
	return fmt.Sprintf("%s-vpn-gateway", prefix)
}

func VpnGatewayPublicIP(prefix string) string {
	return fmt.Sprintf("%s-vpn-gateway-pip", prefix)
}

func SecurityGroup(prefix string) string {
	return fmt.Sprintf("%s-nsg", prefix)
}

// GatewayConnection names the connection from one gateway to its peer.
func GatewayConnection(from, to string) string {
	return fmt.Sprintf("%s-to-%s-conn", from, to)
}

// HubToSpokePeering names the peering that lives in the hub network.
func HubToSpokePeering(spoke string) string {
	return fmt.Sprintf("%s-hub-spoke-peer", spoke)
}

// SpokeToHubPeering names the peering that lives in the spoke network.
func SpokeToHubPeering(spoke string) string {
	return fmt.Sprintf("%s-spoke-hub-peer", spoke)
}

// RouteTable names the route table owned by a segment. The hub's table is
// attached to its gateway subnet.
func RouteTable(owner string) string {
	return fmt.Sprintf("%s-rt", owner)
}

func HubGatewayRouteTable(hub string) string {
	return fmt.Sprintf("%s-gateway-rt", hub)
}

// RouteAssociation names the binding of a route table to one subnet.
func RouteAssociation(table, network, subnet string) string {
	return fmt.Sprintf("%s-%s-%s", table, network, subnet)
}

func RoleDefinition(scope string) string {
	return fmt.Sprintf("%s-virtual-network-peering", scope)
}

// RoleAssignment names the grant of scope's peering role to principal.
func RoleAssignment(scope, principal string) string {
	return fmt.Sprintf("add-peering-role-to-%s-for-%s", principal, scope)
}
