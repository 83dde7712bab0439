// Package routing synthesizes hub-spoke route tables from a topology.
//
// The synthesizer is a set of pure functions: the same Topology always yields
// the same tables in the same order. Callers turn the returned value objects
// into provider resources (route tables and subnet associations).
package routing

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
)

// NextHopType selects how matching traffic leaves a segment.
type NextHopType string

const (
	// NextHopLocal hands traffic to the segment's own routing (peering, gateway, internet).
	NextHopLocal NextHopType = "Local"
	// NextHopAppliance forces traffic through the NVA at NextHopIP.
	NextHopAppliance NextHopType = "ViaAppliance"
)

const (
	// DefaultRouteName names the catch-all route appended to every spoke table.
	DefaultRouteName = "default"
	// DefaultPrefix is the catch-all destination.
	DefaultPrefix = "0.0.0.0/0"
)

var (
	// ErrDuplicateRoute is returned when a table already holds a route with the same name.
	ErrDuplicateRoute = errors.New("duplicate route name")
	// ErrUnknownSpoke is returned when a spoke table is requested for an id not in the topology.
	ErrUnknownSpoke = errors.New("unknown spoke")
	// ErrInvalidRoute is returned for routes whose next hop fields disagree with their type.
	ErrInvalidRoute = errors.New("invalid route")
)

// Route is a single prefix -> next hop rule.
type Route struct {
	Name          string      `json:"name" yaml:"name"`
	AddressPrefix string      `json:"addressPrefix" yaml:"addressPrefix"`
	NextHopType   NextHopType `json:"nextHopType" yaml:"nextHopType"`
	NextHopIP     string      `json:"nextHopIP,omitempty" yaml:"nextHopIP,omitempty"`
}

// Validate checks that the route is internally consistent.
func (r Route) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: route has no name", ErrInvalidRoute)
	}
	if _, err := netip.ParsePrefix(r.AddressPrefix); err != nil {
		return fmt.Errorf("%w: route %s: %v", ErrInvalidRoute, r.Name, err)
	}
	switch r.NextHopType {
	case NextHopAppliance:
		if _, err := netip.ParseAddr(r.NextHopIP); err != nil {
			return fmt.Errorf("%w: route %s: appliance next hop needs an ip: %v", ErrInvalidRoute, r.Name, err)
		}
	case NextHopLocal:
		if r.NextHopIP != "" {
			return fmt.Errorf("%w: route %s: local next hop must not set an ip", ErrInvalidRoute, r.Name)
		}
	default:
		return fmt.Errorf("%w: route %s: unknown next hop type %q", ErrInvalidRoute, r.Name, r.NextHopType)
	}
	return nil
}

func (r Route) String() string {
	if r.NextHopType == NextHopAppliance {
		return fmt.Sprintf("%s %s -> %s %s", r.Name, r.AddressPrefix, r.NextHopType, r.NextHopIP)
	}
	return fmt.Sprintf("%s %s -> %s", r.Name, r.AddressPrefix, r.NextHopType)
}

// RouteTable is the ordered set of routes applied to one segment.
type RouteTable struct {
	Owner  string
	routes []Route
	names  map[string]struct{}
}

// NewRouteTable returns an empty table owned by the given segment.
func NewRouteTable(owner string) *RouteTable {
	return &RouteTable{Owner: owner, names: make(map[string]struct{})}
}

// Add appends a route, rejecting invalid routes and duplicate names.
func (rt *RouteTable) Add(r Route) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("route table %s: %w", rt.Owner, err)
	}
	if _, dup := rt.names[r.Name]; dup {
		return fmt.Errorf("route table %s: %w: %s", rt.Owner, ErrDuplicateRoute, r.Name)
	}
	rt.names[r.Name] = struct{}{}
	rt.routes = append(rt.routes, r)
	return nil
}

// Routes returns a copy of the routes in table order.
func (rt *RouteTable) Routes() []Route {
	out := make([]Route, len(rt.routes))
	copy(out, rt.routes)
	return out
}

// Route returns the route with the given name.
func (rt *RouteTable) Route(name string) (Route, bool) {
	for _, r := range rt.routes {
		if r.Name == name {
			return r, true
		}
	}
	return Route{}, false
}

// Len returns the number of routes.
func (rt *RouteTable) Len() int {
	return len(rt.routes)
}

// String renders the table one route per line, in order.
func (rt *RouteTable) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "route table %s\n", rt.Owner)
	for _, r := range rt.routes {
		b.WriteString("  ")
		b.WriteString(r.String())
		b.WriteByte('\n')
	}
	return b.String()
}
