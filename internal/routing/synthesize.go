package routing

import (
	"fmt"

	"github.com/imamik/hubnet/internal/topology"
)

// Tables holds every route table of a topology.
type Tables struct {
	Hub    *RouteTable
	Spokes []*RouteTable // declared spoke order
}

// SynthesizeHub builds the route table for the hub gateway subnet.
//
// The first route covers the hub's primary address block with a local next
// hop and is named after the hub. It is followed by one route per spoke, in
// declared order, named after the spoke.
func SynthesizeHub(t *topology.Topology) (*RouteTable, error) {
	hub := t.Hub()
	rt := NewRouteTable(hub.ID)

	if err := rt.Add(Route{
		Name:          hub.ID,
		AddressPrefix: hub.PrimaryBlock(),
		NextHopType:   NextHopLocal,
	}); err != nil {
		return nil, err
	}

	for _, r := range spokeRoutes(t) {
		if err := rt.Add(r); err != nil {
			return nil, err
		}
	}
	return rt, nil
}

// SynthesizeSpoke builds the route table for one spoke: a route to every other
// spoke followed by the default route.
//
// The spoke's own entry is dropped by identifier equality.
func SynthesizeSpoke(t *topology.Topology, spokeID string) (*RouteTable, error) {
	if _, ok := t.Spoke(spokeID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSpoke, spokeID)
	}

	rt := NewRouteTable(spokeID)
	for _, r := range spokeRoutes(t) {
		if r.Name == spokeID {
			continue
		}
		if err := rt.Add(r); err != nil {
			return nil, err
		}
	}

	if err := rt.Add(Route{
		Name:          DefaultRouteName,
		AddressPrefix: DefaultPrefix,
		NextHopType:   NextHopLocal,
	}); err != nil {
		return nil, err
	}
	return rt, nil
}

// SynthesizeAll builds the hub table and one table per spoke.
func SynthesizeAll(t *topology.Topology) (*Tables, error) {
	hub, err := SynthesizeHub(t)
	if err != nil {
		return nil, err
	}

	tables := &Tables{Hub: hub}
	for _, s := range t.Spokes() {
		rt, err := SynthesizeSpoke(t, s.ID)
		if err != nil {
			return nil, err
		}
		tables.Spokes = append(tables.Spokes, rt)
	}
	return tables, nil
}

// spokeRoutes returns one route per spoke, targeting its primary block.
func spokeRoutes(t *topology.Topology) []Route {
	nextHop := Route{NextHopType: NextHopLocal}
	if nva, ok := t.NVA(); ok {
		nextHop = Route{NextHopType: NextHopAppliance, NextHopIP: nva.PrivateIP}
	}

	spokes := t.Spokes()
	routes := make([]Route, 0, len(spokes))
	for _, s := range spokes {
		routes = append(routes, Route{
			Name:          s.ID,
			AddressPrefix: s.PrimaryBlock(),
			NextHopType:   nextHop.NextHopType,
			NextHopIP:     nextHop.NextHopIP,
		})
	}
	return routes
}
