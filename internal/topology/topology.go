package topology

import "slices"

// Kind is the role a segment plays in the topology.
type Kind string

const (
	KindHub    Kind = "hub"
	KindSpoke  Kind = "spoke"
	KindOnPrem Kind = "onPrem"
)

// DMZSubnet is the hub subnet that must contain the appliance's private IP.
const DMZSubnet = "dmz"

// Subnet is a named prefix inside a segment.
type Subnet struct {
	Name   string `yaml:"name"`
	Prefix string `yaml:"prefix"`
}

// Segment is a single network (hub, spoke or on-prem) with its address space.
type Segment struct {
	ID           string   `yaml:"id"`
	Kind         Kind     `yaml:"kind,omitempty"`
	AddressSpace []string `yaml:"addressSpace"`
	Subnets      []Subnet `yaml:"subnets,omitempty"`
}

// PrimaryBlock returns the first address block, or "" if there is none.
func (s Segment) PrimaryBlock() string {
	if len(s.AddressSpace) == 0 {
		return ""
	}
	return s.AddressSpace[0]
}

// Subnet returns the subnet with the given name.
func (s Segment) Subnet(name string) (Subnet, bool) {
	for _, sn := range s.Subnets {
		if sn.Name == name {
			return sn, true
		}
	}
	return Subnet{}, false
}

// Clone returns a deep copy of the segment.
func (s Segment) Clone() Segment {
	return Segment{
		ID:           s.ID,
		Kind:         s.Kind,
		AddressSpace: slices.Clone(s.AddressSpace),
		Subnets:      slices.Clone(s.Subnets),
	}
}

// NVA is the network virtual appliance that inter-segment traffic transits.
type NVA struct {
	PrivateIP string `yaml:"privateIP"`
}

// Topology is a validated, immutable hub-spoke layout.
type Topology struct {
	hub      Segment
	spokes   []Segment
	onPrem   *Segment
	nva      *NVA
	warnings []Warning
}

// Hub returns a copy of the hub segment.
func (t *Topology) Hub() Segment {
	return t.hub.Clone()
}

// Spokes returns copies of the spokes in declaration order.
func (t *Topology) Spokes() []Segment {
	out := make([]Segment, len(t.spokes))
	for i, s := range t.spokes {
		out[i] = s.Clone()
	}
	return out
}

// Spoke returns the spoke with the given identifier.
func (t *Topology) Spoke(id string) (Segment, bool) {
	for _, s := range t.spokes {
		if s.ID == id {
			return s.Clone(), true
		}
	}
	return Segment{}, false
}

// OnPrem returns the on-prem segment, if one was supplied.
func (t *Topology) OnPrem() (Segment, bool) {
	if t.onPrem == nil {
		return Segment{}, false
	}
	return t.onPrem.Clone(), true
}

// NVA returns the appliance configuration, if traffic is routed through one.
func (t *Topology) NVA() (NVA, bool) {
	if t.nva == nil {
		return NVA{}, false
	}
	return *t.nva, true
}

// HasNVA reports whether an appliance is configured.
func (t *Topology) HasNVA() bool {
	return t.nva != nil
}

// Segments returns every segment: hub, spokes in order, then on-prem.
func (t *Topology) Segments() []Segment {
	out := []Segment{t.hub.Clone()}
	out = append(out, t.Spokes()...)
	if t.onPrem != nil {
		out = append(out, t.onPrem.Clone())
	}
	return out
}

// Warnings returns non-fatal findings collected during Build.
func (t *Topology) Warnings() []Warning {
	return slices.Clone(t.warnings)
}
