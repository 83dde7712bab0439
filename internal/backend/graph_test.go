package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepNames(p *Plan) []string {
	names := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		names[i] = s.Stack
	}
	return names
}

func TestStack_Create(t *testing.T) {
	t.Parallel()
	g := NewGraph()
	hub := g.Stack("hub")

	vnet, err := hub.Create(KindVirtualNetwork, "hub-vnet", Properties{
		PropAddressPrefixes: []string{"10.0.0.0/16"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/hub/VirtualNetwork/hub-vnet", vnet.ID)
	assert.Equal(t, "hub", vnet.Stack)
	assert.Equal(t, []string{"10.0.0.0/16"}, vnet.Addresses())

	subnet, err := hub.Create(KindSubnet, "dmz", Properties{PropAddressPrefix: "10.0.0.32/27"}, DependsOn(vnet))
	require.NoError(t, err)
	assert.Equal(t, []string{vnet.ID}, subnet.DependsOn)

	got, ok := g.Resource(subnet.ID)
	require.True(t, ok)
	assert.Same(t, subnet, got)
	assert.Equal(t, 2, g.Len())
	assert.Len(t, hub.Resources(), 2)
}

func TestStack_CreateErrors(t *testing.T) {
	t.Parallel()
	g := NewGraph()
	s := g.Stack("hub")
	_, err := s.Create(KindSubnet, "dmz", nil)
	require.NoError(t, err)

	tests := []struct {
		name    string
		kind    Kind
		resName string
		opts    []Option
		wantErr error
	}{
		{"duplicate", KindSubnet, "dmz", nil, ErrDuplicateResource},
		{"empty name", KindSubnet, "", nil, ErrInvalidResource},
		{"empty kind", "", "x", nil, ErrInvalidResource},
		{"unknown dependency", KindSubnet, "mgmt", []Option{DependsOn(&Resource{ID: "/other/Subnet/x"})}, ErrUnknownResource},
		{"nil dependency", KindSubnet, "mgmt", []Option{DependsOn(nil)}, ErrUnknownResource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(tt.kind, tt.resName, nil, tt.opts...)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
	assert.Equal(t, 1, g.Len())
}

func TestCreate_CopiesProperties(t *testing.T) {
	t.Parallel()
	props := Properties{PropAddressPrefix: "10.0.0.0/24"}
	res, err := NewGraph().Stack("a").Create(KindSubnet, "s", props)
	require.NoError(t, err)

	props[PropAddressPrefix] = "changed"
	assert.Equal(t, "10.0.0.0/24", res.String(PropAddressPrefix))
}

func TestGraph_StackIsStable(t *testing.T) {
	t.Parallel()
	g := NewGraph()
	a := g.Stack("a")
	g.Stack("b")
	assert.Same(t, a, g.Stack("a"))
	assert.Equal(t, []string{"a", "b"}, g.Stacks())
}

func TestGraph_PlanOrder(t *testing.T) {
	t.Parallel()
	g := NewGraph()
	for _, id := range []string{"hub", "hub-nva", "on-prem", "peering-role", "spoke1"} {
		g.Stack(id)
	}
	require.NoError(t, g.AddDependency("hub", "on-prem"))
	require.NoError(t, g.AddDependency("spoke1", "peering-role"))

	plan, err := g.Plan()
	require.NoError(t, err)
	assert.Equal(t, []string{"hub-nva", "on-prem", "hub", "peering-role", "spoke1"}, stepNames(plan))
	assert.Equal(t, []string{"on-prem"}, plan.Steps[2].After)
}

func TestGraph_ImplicitStackEdge(t *testing.T) {
	t.Parallel()
	g := NewGraph()
	spoke := g.Stack("spoke1")
	hub := g.Stack("hub")

	hubNet, err := hub.Create(KindVirtualNetwork, "hub-vnet", nil)
	require.NoError(t, err)
	_, err = spoke.Create(KindPeering, "spoke1-to-hub", nil, DependsOn(hubNet))
	require.NoError(t, err)

	assert.Equal(t, []string{"hub"}, g.Dependencies("spoke1"))

	plan, err := g.Plan()
	require.NoError(t, err)
	assert.Equal(t, []string{"hub", "spoke1"}, stepNames(plan))
	assert.Equal(t, 2, plan.Len())
	assert.Equal(t, "/hub/VirtualNetwork/hub-vnet", plan.Resources()[0].ID)
}

func TestGraph_PlanCycle(t *testing.T) {
	t.Parallel()
	g := NewGraph()
	g.Stack("a")
	g.Stack("b")
	g.Stack("c")
	require.NoError(t, g.AddDependency("a", "b"))
	require.NoError(t, g.AddDependency("b", "a"))

	_, err := g.Plan()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDependencyCycle))
	assert.Contains(t, err.Error(), "[a b]")
}

func TestGraph_AddDependency(t *testing.T) {
	t.Parallel()
	g := NewGraph()
	g.Stack("a")

	assert.True(t, errors.Is(g.AddDependency("a", "missing"), ErrUnknownStack))
	assert.NoError(t, g.AddDependency("a", "a"))
	assert.Empty(t, g.Dependencies("a"))
}

func TestTxn_CommitAndDiscard(t *testing.T) {
	t.Parallel()
	g := NewGraph()
	g.Stack("on-prem")
	hub := g.Stack("hub")
	base, err := hub.Create(KindVirtualNetwork, "hub-vnet", nil)
	require.NoError(t, err)

	txn := hub.Begin()
	conn, err := txn.Create(KindGatewayConnection, "hub-to-onprem", nil, DependsOn(base))
	require.NoError(t, err)
	_, err = txn.Create(KindGatewayConnection, "onprem-to-hub", nil, DependsOn(conn))
	require.NoError(t, err)
	require.NoError(t, txn.DependsOnStack("on-prem"))
	assert.Equal(t, 2, txn.Len())

	_, visible := g.Resource(conn.ID)
	assert.False(t, visible, "staged resources are not visible before commit")
	assert.Empty(t, g.Dependencies("hub"))

	require.NoError(t, txn.Commit())
	assert.Equal(t, 3, g.Len())
	assert.Equal(t, []string{"on-prem"}, g.Dependencies("hub"))
	assert.Error(t, txn.Commit())

	discarded := hub.Begin()
	_, err = discarded.Create(KindRouteTable, "rt", nil)
	require.NoError(t, err)
	discarded.Discard()
	assert.Equal(t, 3, g.Len())
	_, err = discarded.Create(KindRouteTable, "rt2", nil)
	assert.Error(t, err)
}

func TestTxn_DuplicateChecks(t *testing.T) {
	t.Parallel()
	g := NewGraph()
	s := g.Stack("a")
	_, err := s.Create(KindSubnet, "x", nil)
	require.NoError(t, err)

	txn := s.Begin()
	_, err = txn.Create(KindSubnet, "x", nil)
	assert.True(t, errors.Is(err, ErrDuplicateResource))

	_, err = txn.Create(KindSubnet, "y", nil)
	require.NoError(t, err)
	_, err = txn.Create(KindSubnet, "y", nil)
	assert.True(t, errors.Is(err, ErrDuplicateResource))

	assert.True(t, errors.Is(txn.DependsOnStack("nope"), ErrUnknownStack))
}

func TestLogApplier(t *testing.T) {
	t.Parallel()
	g := NewGraph()
	_, err := g.Stack("hub").Create(KindVirtualNetwork, "hub-vnet", nil)
	require.NoError(t, err)
	plan, err := g.Plan()
	require.NoError(t, err)

	require.NoError(t, LogApplier{Log: testr.New(t)}.Apply(context.Background(), plan))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, LogApplier{Log: testr.New(t)}.Apply(ctx, plan), context.Canceled)

	var d Destroyer = LogApplier{Log: testr.New(t)}
	require.NoError(t, d.Destroy(context.Background(), plan))
	assert.ErrorIs(t, d.Destroy(ctx, plan), context.Canceled)
}

func TestDependsOnID(t *testing.T) {
	t.Parallel()
	g := NewGraph()
	hub := g.Stack("hub")
	nva := g.Stack("hub-nva")
	dmz, err := hub.Create(KindSubnet, "dmz", nil)
	require.NoError(t, err)

	nic, err := nva.Create(KindNetworkInterface, "hub-nva-nic", nil, DependsOnID(dmz.ID, "", dmz.ID))
	require.NoError(t, err)
	assert.Equal(t, []string{dmz.ID}, nic.DependsOn, "empty and repeated IDs are dropped")
	assert.Equal(t, []string{"hub"}, g.Dependencies("hub-nva"))

	_, err = nva.Create(KindVirtualMachine, "vm", nil, DependsOnID("/hub/Subnet/missing"))
	assert.ErrorIs(t, err, ErrUnknownResource)
}
