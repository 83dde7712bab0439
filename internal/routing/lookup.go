package routing

import (
	"net/netip"

	"github.com/gaissmai/bart"
)

// Resolver answers longest-prefix-match queries against one route table.
type Resolver struct {
	owner string
	table bart.Table[Route]
}

// NewResolver indexes every route of rt. Routes sharing a prefix resolve to
// the one added last.
func NewResolver(rt *RouteTable) (*Resolver, error) {
	r := &Resolver{owner: rt.Owner}
	for _, route := range rt.routes {
		pfx, err := netip.ParsePrefix(route.AddressPrefix)
		if err != nil {
			return nil, err
		}
		r.table.Insert(pfx.Masked(), route)
	}
	return r, nil
}

// Resolve returns the route that traffic to ip would take.
func (r *Resolver) Resolve(ip netip.Addr) (Route, bool) {
	return r.table.Lookup(ip)
}

// Owner returns the segment the indexed table belongs to.
func (r *Resolver) Owner() string {
	return r.owner
}
