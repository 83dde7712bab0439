package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/imamik/hubnet/internal/backend"
	"github.com/imamik/hubnet/internal/routing"
	"github.com/imamik/hubnet/internal/topology"
)

var (
	// ErrNoRouteTables is returned when the plan declares no route table.
	ErrNoRouteTables = errors.New("no route tables declared (is a hub-nva unit present?)")

	// ErrUnknownTable is returned by Lookup for a --table that owns no route table.
	ErrUnknownTable = errors.New("unknown route table")
)

// topologyFile is the on-disk form read by --topology.
type topologyFile struct {
	Hub    topology.Segment   `yaml:"hub"`
	Spokes []topology.Segment `yaml:"spokes"`
	OnPrem *topology.Segment  `yaml:"onPrem,omitempty"`
	NVA    *topology.NVA      `yaml:"nva,omitempty"`
}

// readTopologyFile loads and validates a topology file.
func readTopologyFile(path string) (*topology.Topology, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topology file: %w", err)
	}

	var f topologyFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse topology file: %w", err)
	}
	return topology.Build(f.Hub, f.Spokes, f.OnPrem, f.NVA)
}

// routeTables returns the hub table followed by the spoke tables. With a
// topology path they are synthesized from the file; otherwise they are read
// back from the route table resources of the unit plan.
func routeTables(ctx context.Context, opts Options, topologyPath string) (string, []*routing.RouteTable, error) {
	if topologyPath != "" {
		topo, err := readTopologyFile(topologyPath)
		if err != nil {
			return "", nil, err
		}
		for _, w := range topo.Warnings() {
			fmt.Fprintln(stdout, dimStyle.Render("  warning: "+w.String()))
		}
		tables, err := routing.SynthesizeAll(topo)
		if err != nil {
			return "", nil, err
		}
		return topologyPath, append([]*routing.RouteTable{tables.Hub}, tables.Spokes...), nil
	}

	s, err := newSession(opts)
	if err != nil {
		return "", nil, err
	}
	pctx, err := s.planned(ctx)
	if err != nil {
		return "", nil, err
	}
	tables, err := tablesFromPlan(pctx.State.Plan)
	if err != nil {
		return "", nil, err
	}
	return s.cfg.Name, tables, nil
}

// tablesFromPlan rebuilds the route tables declared in plan, in plan order.
func tablesFromPlan(plan *backend.Plan) ([]*routing.RouteTable, error) {
	var out []*routing.RouteTable
	for _, res := range plan.Resources() {
		if res.Kind != backend.KindRouteTable {
			continue
		}
		routes, _ := res.Properties[backend.PropRoutes].([]routing.Route)
		rt := routing.NewRouteTable(res.String(backend.PropOwner))
		for _, r := range routes {
			if err := rt.Add(r); err != nil {
				return nil, fmt.Errorf("%s: %w", res.ID, err)
			}
		}
		out = append(out, rt)
	}
	if len(out) == 0 {
		return nil, ErrNoRouteTables
	}
	return out, nil
}

// Routes prints the hub and spoke route tables.
func Routes(ctx context.Context, opts Options, topologyPath string) error {
	source, tables, err := routeTables(ctx, opts, topologyPath)
	if err != nil {
		return err
	}

	printTitle(stdout, "hubnet routes: "+source)
	for _, rt := range tables {
		printSection(stdout, "route table "+rt.Owner)
		rows := make([][]string, 0, rt.Len())
		for _, r := range rt.Routes() {
			rows = append(rows, []string{r.Name, r.AddressPrefix, string(r.NextHopType), orDash(r.NextHopIP)})
		}
		renderTable(stdout, []string{"Name", "Prefix", "Next hop", "Next hop IP"}, rows)
	}
	return nil
}

// Lookup resolves addr against every route table, or only against the table
// owned by table when it is set, and prints the matching route per table.
func Lookup(ctx context.Context, opts Options, topologyPath, table, addr string) error {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}

	source, tables, err := routeTables(ctx, opts, topologyPath)
	if err != nil {
		return err
	}

	if table != "" {
		var match []*routing.RouteTable
		for _, rt := range tables {
			if rt.Owner == table {
				match = append(match, rt)
			}
		}
		if len(match) == 0 {
			return fmt.Errorf("%w: %s", ErrUnknownTable, table)
		}
		tables = match
	}

	rows := make([][]string, 0, len(tables))
	for _, rt := range tables {
		res, err := routing.NewResolver(rt)
		if err != nil {
			return err
		}
		r, ok := res.Resolve(ip)
		if !ok {
			rows = append(rows, []string{rt.Owner, "-", "-", "no route", "-"})
			continue
		}
		rows = append(rows, []string{rt.Owner, r.Name, r.AddressPrefix, string(r.NextHopType), orDash(r.NextHopIP)})
	}

	printTitle(stdout, fmt.Sprintf("hubnet lookup %s: %s", ip, source))
	renderTable(stdout, []string{"Table", "Route", "Prefix", "Next hop", "Next hop IP"}, rows)
	return nil
}
