package units

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"strings"
	"testing/fstest"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/ssh"

	"github.com/imamik/hubnet/internal/backend"
	"github.com/imamik/hubnet/internal/routing"
	"github.com/imamik/hubnet/internal/stack"
)

const (
	onPremYAML = `
addressSpace: [192.168.0.0/16]
subnets:
  - {name: GatewaySubnet, prefix: 192.168.255.224/27}
  - {name: mgmt, prefix: 192.168.1.128/25}
`
	hubYAML = `
addressSpace: [10.0.0.0/16]
subnets:
  - {name: dmz, prefix: 10.0.0.32/27}
  - {name: GatewaySubnet, prefix: 10.0.255.224/27}
  - {name: mgmt, prefix: 10.0.0.64/27}
onPrem: on-prem
`
	hubNVAYAML = `
privateIP: 10.0.0.36
onPrem: on-prem
`
	peeringRoleYAML = `
scopes:
  - {name: hub, subscriptionID: sub-hub, principalID: sp-hub}
  - {name: spoke, subscriptionID: sub-spoke, principalID: sp-spoke}
`
)

func spokeYAML(octet string, extra ...string) string {
	return strings.Join(append([]string{
		"addressSpace: [10." + octet + ".0.0/16]",
		"subnets:",
		"  - {name: mgmt, prefix: 10." + octet + ".0.64/27}",
		"  - {name: workload, prefix: 10." + octet + ".1.0/24}",
	}, extra...), "\n")
}

func fixture(entries map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for id, data := range entries {
		fsys["units/"+id+"/unit.yaml"] = &fstest.MapFile{Data: []byte(data)}
	}
	return fsys
}

func defaultEntries() map[string]string {
	return map[string]string{
		"on-prem": onPremYAML,
		"hub":     hubYAML,
		"hub-nva": hubNVAYAML,
		"spoke1":  spokeYAML("1"),
		"spoke2":  spokeYAML("2"),
	}
}

func testSettings() stack.Settings {
	return stack.Settings{
		Region:        "westeurope",
		AdminUsername: "azureuser",
		AdminPassword: "Passw0rd!",
		SharedKey:     "4-v3ry-53cr37-1p53c-5h4r3d-k3y",
	}
}

func loadAndLink(fsys fstest.MapFS, settings stack.Settings) (*stack.App, *stack.Registry, *stack.LinkReport, error) {
	app := stack.NewApp(settings, logr.Discard())
	ctx := context.Background()
	reg, err := stack.Load(ctx, app, stack.DirSource{FS: fsys, Root: "units"}, Catalog())
	if err != nil {
		return app, nil, nil, err
	}
	report, err := stack.Link(ctx, app, reg)
	return app, reg, report, err
}

func routesOf(g *backend.Graph, id string) []routing.Route {
	res, ok := g.Resource(id)
	Expect(ok).To(BeTrue(), "missing resource %s", id)
	routes, ok := res.Properties[backend.PropRoutes].([]routing.Route)
	Expect(ok).To(BeTrue())
	return routes
}

func routeNames(routes []routing.Route) []string {
	names := make([]string, len(routes))
	for i, r := range routes {
		names[i] = r.Name
	}
	return names
}

var _ = Describe("Unit catalog", func() {
	Context("with hub, on-prem, NVA and two spokes", func() {
		var (
			app    *stack.App
			reg    *stack.Registry
			report *stack.LinkReport
		)

		BeforeEach(func() {
			fsys := fixture(defaultEntries())
			fsys["units/peering-role/README.md"] = &fstest.MapFile{Data: []byte("not deployed")}

			var err error
			app, reg, report, err = loadAndLink(fsys, testSettings())
			Expect(err).NotTo(HaveOccurred())
		})

		It("loads every unit with an entry and skips the rest", func() {
			Expect(reg.IDs()).To(Equal([]string{"hub", "hub-nva", "on-prem", "spoke1", "spoke2"}))
			Expect(reg.Has(PeeringRoleID)).To(BeFalse())
		})

		It("links units with hooks and reports the others as no-op", func() {
			Expect(report.Linked).To(Equal([]string{"hub", "hub-nva", "spoke1", "spoke2"}))
			Expect(report.Noop).To(Equal([]string{"on-prem"}))
		})

		It("routes spoke traffic from the hub gateway through the appliance", func() {
			routes := routesOf(app.Graph, "/hub-nva/RouteTable/hub-gateway-rt")
			Expect(routes).To(Equal([]routing.Route{
				{Name: "hub", AddressPrefix: "10.0.0.0/16", NextHopType: routing.NextHopLocal},
				{Name: "spoke1", AddressPrefix: "10.1.0.0/16", NextHopType: routing.NextHopAppliance, NextHopIP: "10.0.0.36"},
				{Name: "spoke2", AddressPrefix: "10.2.0.0/16", NextHopType: routing.NextHopAppliance, NextHopIP: "10.0.0.36"},
			}))
		})

		It("gives each spoke routes to the other spokes and a default route", func() {
			Expect(routeNames(routesOf(app.Graph, "/hub-nva/RouteTable/spoke1-rt"))).To(Equal([]string{"spoke2", routing.DefaultRouteName}))
			Expect(routeNames(routesOf(app.Graph, "/hub-nva/RouteTable/spoke2-rt"))).To(Equal([]string{"spoke1", routing.DefaultRouteName}))
		})

		It("associates the route tables with their subnets", func() {
			for _, id := range []string{
				"/hub-nva/RouteAssociation/hub-gateway-rt-hub-vnet-GatewaySubnet",
				"/hub-nva/RouteAssociation/spoke1-rt-spoke1-vnet-mgmt",
				"/hub-nva/RouteAssociation/spoke1-rt-spoke1-vnet-workload",
				"/hub-nva/RouteAssociation/spoke2-rt-spoke2-vnet-workload",
			} {
				res, ok := app.Graph.Resource(id)
				Expect(ok).To(BeTrue(), id)
				Expect(res.DependsOn).To(HaveLen(2))
			}
		})

		It("places the appliance at its static address in the hub DMZ", func() {
			nic, ok := app.Graph.Resource("/hub-nva/NetworkInterface/hub-nva-nic")
			Expect(ok).To(BeTrue())
			Expect(nic.Addresses()).To(ConsistOf("10.0.0.36"))
			Expect(nic.String(backend.PropSubnetID)).To(Equal("/hub/Subnet/dmz"))
			Expect(nic.Properties["enableIpForwarding"]).To(BeTrue())

			_, ok = app.Graph.Resource("/hub-nva/VMExtension/enable-iptables-routes")
			Expect(ok).To(BeTrue())
		})

		It("peers every spoke with the hub in both directions", func() {
			hubSide, ok := app.Graph.Resource("/spoke1/Peering/spoke1-hub-spoke-peer")
			Expect(ok).To(BeTrue())
			Expect(hubSide.String("virtualNetworkName")).To(Equal("hub-vnet"))
			Expect(hubSide.Properties["allowGatewayTransit"]).To(BeTrue())

			spokeSide, ok := app.Graph.Resource("/spoke1/Peering/spoke1-spoke-hub-peer")
			Expect(ok).To(BeTrue())
			Expect(spokeSide.String("remoteVirtualNetworkId")).To(Equal("/hub/VirtualNetwork/hub-vnet"))
			Expect(spokeSide.Properties["useRemoteGateways"]).To(BeTrue())
		})

		It("connects the hub and on-prem gateways", func() {
			conn, ok := app.Graph.Resource("/hub/GatewayConnection/hub-to-onprem-conn")
			Expect(ok).To(BeTrue())
			Expect(conn.String("peerVirtualNetworkGatewayId")).To(Equal("/on-prem/VpnGateway/onprem-vpn-gateway"))

			back, ok := app.Graph.Resource("/hub/GatewayConnection/onprem-to-hub-conn")
			Expect(ok).To(BeTrue())
			Expect(back.String("resourceGroupName")).To(Equal("onprem-rg"))
		})

		It("orders provisioning by the recorded dependencies", func() {
			plan, err := app.Graph.Plan()
			Expect(err).NotTo(HaveOccurred())

			var order []string
			for _, step := range plan.Steps {
				order = append(order, step.Stack)
			}
			Expect(order).To(Equal([]string{"on-prem", "hub", "spoke1", "spoke2", "hub-nva"}))
		})

		It("tags resources with their unit", func() {
			vnet, ok := app.Graph.Resource("/spoke2/VirtualNetwork/spoke2-vnet")
			Expect(ok).To(BeTrue())
			Expect(vnet.Properties["tags"]).To(HaveKeyWithValue("hubnet.io/unit", "spoke2"))
			Expect(vnet.Properties["location"]).To(Equal("westeurope"))
		})
	})

	Context("when the hub is missing from the checkout", func() {
		It("fails the appliance link before it stages anything", func() {
			entries := defaultEntries()
			delete(entries, "hub")

			app, _, report, err := loadAndLink(fixture(entries), testSettings())
			Expect(err).To(MatchError(stack.ErrUnitNotFound))
			Expect(report).To(BeNil())

			var unitErr *stack.UnitError
			Expect(err).To(BeAssignableToTypeOf(unitErr))
			Expect(err.(*stack.UnitError).Unit).To(Equal(HubNVAID))

			// Only the resource group declared at construction remains.
			Expect(app.Graph.Stack(HubNVAID).Resources()).To(HaveLen(1))
		})
	})

	Context("with an explicit spoke list", func() {
		It("routes only the listed spokes in the listed order", func() {
			entries := defaultEntries()
			entries["spoke3"] = spokeYAML("3")
			entries["hub-nva"] = "spokes: [spoke3, spoke1]\n"

			app, _, _, err := loadAndLink(fixture(entries), testSettings())
			Expect(err).NotTo(HaveOccurred())
			routes := routesOf(app.Graph, "/hub-nva/RouteTable/hub-gateway-rt")
			Expect(routeNames(routes)).To(Equal([]string{"hub", "spoke3", "spoke1"}))

			_, ok := app.Graph.Resource("/hub-nva/RouteTable/spoke2-rt")
			Expect(ok).To(BeFalse())
		})

		It("fails when a listed spoke is not loaded", func() {
			entries := defaultEntries()
			entries["hub-nva"] = "spokes: [spoke1, spoke3]\n"

			_, _, _, err := loadAndLink(fixture(entries), testSettings())
			Expect(err).To(MatchError(stack.ErrUnitNotFound))
			Expect(err.Error()).To(ContainSubstring("spoke3"))
		})
	})

	Context("with overlapping spokes", func() {
		It("still links", func() {
			entries := defaultEntries()
			entries["spoke2"] = spokeYAML("1")

			_, _, report, err := loadAndLink(fixture(entries), testSettings())
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Linked).To(ContainElement(HubNVAID))
		})
	})

	Context("with a peering role", func() {
		It("defines and cross-assigns the role and orders spokes after it", func() {
			entries := defaultEntries()
			entries["peering-role"] = peeringRoleYAML
			entries["spoke1"] = spokeYAML("1", "peeringRole: peering-role")

			app, _, report, err := loadAndLink(fixture(entries), testSettings())
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Noop).To(ContainElement(PeeringRoleID))

			resources := app.Graph.Stack(PeeringRoleID).Resources()
			Expect(resources).To(HaveLen(4))
			assignment, ok := app.Graph.Resource("/peering-role/RoleAssignment/add-peering-role-to-spoke-for-hub")
			Expect(ok).To(BeTrue())
			Expect(assignment.String("principalId")).To(Equal("sp-spoke"))
			Expect(assignment.String("roleDefinitionId")).To(Equal("/peering-role/RoleDefinition/hub-virtual-network-peering"))

			Expect(app.Graph.Dependencies("spoke1")).To(ContainElement(PeeringRoleID))
			Expect(app.Graph.Dependencies("spoke2")).NotTo(ContainElement(PeeringRoleID))
		})

		It("rejects a single scope", func() {
			entries := defaultEntries()
			entries["peering-role"] = "scopes: [{name: hub, subscriptionID: a, principalID: b}]\n"

			_, _, _, err := loadAndLink(fixture(entries), testSettings())
			Expect(err).To(MatchError(ContainSubstring("at least two scopes")))
		})
	})

	DescribeTable("construction errors are fatal",
		func(id, entry, want string) {
			entries := defaultEntries()
			entries[id] = entry

			_, _, _, err := loadAndLink(fixture(entries), testSettings())
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unit " + id))
			Expect(err.Error()).To(ContainSubstring(want))
		},
		Entry("spoke without workload subnet", "spoke1",
			"addressSpace: [10.1.0.0/16]\nsubnets: [{name: mgmt, prefix: 10.1.0.64/27}]\n", `missing required subnet "workload"`),
		Entry("spoke without address space", "spoke2", "hub: hub\n", "addressSpace is required"),
		Entry("unknown parameter", "hub", "adressSpace: [10.0.0.0/16]\n", "field adressSpace not found"),
		Entry("hub without gateway subnet", "hub",
			"subnets: [{name: mgmt, prefix: 10.0.0.64/27}]\n", `missing required subnet "GatewaySubnet"`),
	)

	DescribeTable("link errors identify the unit",
		func(mutate func(map[string]string, *stack.Settings), unit, want string) {
			entries := defaultEntries()
			settings := testSettings()
			mutate(entries, &settings)

			_, _, _, err := loadAndLink(fixture(entries), settings)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(HavePrefix("unit " + unit + ": link failed"))
			Expect(err.Error()).To(ContainSubstring(want))
		},
		Entry("missing shared key", func(_ map[string]string, s *stack.Settings) { s.SharedKey = "" },
			HubID, ErrSharedKeyRequired.Error()),
		Entry("shared key with spaces", func(_ map[string]string, s *stack.Settings) { s.SharedKey = "not a key" },
			HubID, "invalid shared key"),
		Entry("appliance outside the DMZ", func(e map[string]string, _ *stack.Settings) { e["hub-nva"] = "privateIP: 10.0.0.100\n" },
			HubNVAID, "nva-in-dmz"),
		Entry("missing on-prem", func(e map[string]string, _ *stack.Settings) { delete(e, "on-prem") },
			HubID, "unit not found: on-prem"),
	)

	Context("with an admin SSH key", func() {
		It("disables password logins on every VM", func() {
			pub, _, err := ed25519.GenerateKey(rand.Reader)
			Expect(err).NotTo(HaveOccurred())
			sshPub, err := ssh.NewPublicKey(pub)
			Expect(err).NotTo(HaveOccurred())

			settings := testSettings()
			settings.AdminSSHKey = string(ssh.MarshalAuthorizedKey(sshPub))

			app, _, _, err := loadAndLink(fixture(defaultEntries()), settings)
			Expect(err).NotTo(HaveOccurred())

			vm, ok := app.Graph.Resource("/hub-nva/VirtualMachine/hub-nva-vm")
			Expect(ok).To(BeTrue())
			profile := vm.Properties["osProfile"].(backend.Properties)
			Expect(profile["disablePasswordAuthentication"]).To(BeTrue())
			Expect(profile["sshKeyFingerprint"]).To(HavePrefix("SHA256:"))
		})

		It("rejects a malformed key at construction", func() {
			settings := testSettings()
			settings.AdminSSHKey = "ssh-rsa nope"

			_, _, _, err := loadAndLink(fixture(defaultEntries()), settings)
			Expect(err).To(MatchError(ContainSubstring("admin ssh key")))
		})
	})
})
