package topology

import (
	"net/netip"
)

// Build validates its inputs and returns an immutable Topology.
//
// onPrem and nva may be nil. Segments with an empty Kind take the kind of the
// slot they are passed in. The inputs are copied; later changes to them do not
// affect the returned Topology.
func Build(hub Segment, spokes []Segment, onPrem *Segment, nva *NVA) (*Topology, error) {
	t := &Topology{hub: hub.Clone()}
	if err := normalizeKind(&t.hub, KindHub); err != nil {
		return nil, err
	}

	t.spokes = make([]Segment, len(spokes))
	for i, s := range spokes {
		t.spokes[i] = s.Clone()
		if err := normalizeKind(&t.spokes[i], KindSpoke); err != nil {
			return nil, err
		}
	}

	if onPrem != nil {
		op := onPrem.Clone()
		if err := normalizeKind(&op, KindOnPrem); err != nil {
			return nil, err
		}
		t.onPrem = &op
	}

	if err := t.validateIdentifiers(); err != nil {
		return nil, err
	}
	if err := t.validateAddressSpaces(); err != nil {
		return nil, err
	}

	if nva != nil {
		if err := t.validateNVA(*nva); err != nil {
			return nil, err
		}
		n := *nva
		t.nva = &n
	}

	t.warnings = analyze(t.Segments())
	return t, nil
}

func normalizeKind(s *Segment, want Kind) error {
	if s.Kind == "" {
		s.Kind = want
		return nil
	}
	if s.Kind != want {
		return configError(s.ID, "segment-kind", ErrSegmentKind, "got %s, expected %s", s.Kind, want)
	}
	return nil
}

func (t *Topology) validateIdentifiers() error {
	seen := make(map[string]Kind)
	for _, s := range t.Segments() {
		if s.ID == "" {
			return configError("", "unique-identifier", ErrEmptySegmentID, "%s segment has no id", s.Kind)
		}
		if prev, ok := seen[s.ID]; ok {
			return configError(s.ID, "unique-identifier", ErrDuplicateSegment, "already used by a %s segment", prev)
		}
		seen[s.ID] = s.Kind
	}
	return nil
}

func (t *Topology) validateAddressSpaces() error {
	for _, s := range t.Segments() {
		if len(s.AddressSpace) == 0 && s.Kind != KindOnPrem {
			return configError(s.ID, "non-empty-address-space", ErrEmptyAddressSpace, "")
		}
		for _, block := range s.AddressSpace {
			if _, err := netip.ParsePrefix(block); err != nil {
				return configError(s.ID, "address-space", ErrInvalidCIDR, "%q: %v", block, err)
			}
		}
		for _, sn := range s.Subnets {
			if _, err := netip.ParsePrefix(sn.Prefix); err != nil {
				return configError(s.ID, "subnet-prefix", ErrInvalidCIDR, "subnet %s %q: %v", sn.Name, sn.Prefix, err)
			}
		}
	}
	return nil
}

// validateNVA checks that the appliance IP lies inside the hub DMZ subnet.
func (t *Topology) validateNVA(nva NVA) error {
	dmz, ok := t.hub.Subnet(DMZSubnet)
	if !ok {
		return configError(t.hub.ID, "nva-in-dmz", ErrNVAOutsideDMZ, "hub has no %s subnet", DMZSubnet)
	}
	addr, err := netip.ParseAddr(nva.PrivateIP)
	if err != nil {
		return configError(t.hub.ID, "nva-in-dmz", ErrNVAOutsideDMZ, "%q is not an ip address", nva.PrivateIP)
	}
	// Prefix was already validated above.
	prefix := netip.MustParsePrefix(dmz.Prefix)
	if !prefix.Contains(addr) {
		return configError(t.hub.ID, "nva-in-dmz", ErrNVAOutsideDMZ, "%s not in %s", addr, prefix)
	}
	return nil
}
