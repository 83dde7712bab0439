package topology

import (
	"fmt"
	"net/netip"

	"go4.org/netipx"
)

// Warning is a non-fatal finding about the topology.
type Warning struct {
	Segment string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Segment, w.Message)
}

// analyze reports overlapping address spaces and subnets outside their segment.
// Prefixes are assumed to be valid.
func analyze(segments []Segment) []Warning {
	var warnings []Warning
	sets := make([]*netipx.IPSet, len(segments))

	for i, s := range segments {
		var b netipx.IPSetBuilder
		for _, block := range s.AddressSpace {
			b.AddPrefix(netip.MustParsePrefix(block))
		}
		set, err := b.IPSet()
		if err != nil {
			warnings = append(warnings, Warning{Segment: s.ID, Message: fmt.Sprintf("address space: %v", err)})
			continue
		}
		sets[i] = set

		for _, sn := range s.Subnets {
			if !set.ContainsPrefix(netip.MustParsePrefix(sn.Prefix)) {
				warnings = append(warnings, Warning{
					Segment: s.ID,
					Message: fmt.Sprintf("subnet %s (%s) is outside the address space", sn.Name, sn.Prefix),
				})
			}
		}
	}

	for i := range segments {
		for j := i + 1; j < len(segments); j++ {
			if sets[i] == nil || sets[j] == nil {
				continue
			}
			if sets[i].Overlaps(sets[j]) {
				warnings = append(warnings, Warning{
					Segment: segments[i].ID,
					Message: fmt.Sprintf("address space overlaps segment %s", segments[j].ID),
				})
			}
		}
	}
	return warnings
}
