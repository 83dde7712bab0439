package topology

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateSegment is returned when two segments share an identifier.
	ErrDuplicateSegment = errors.New("duplicate segment identifier")
	// ErrEmptyAddressSpace is returned when the hub or a spoke has no address blocks.
	ErrEmptyAddressSpace = errors.New("empty address space")
	// ErrNVAOutsideDMZ is returned when the appliance IP is not inside the hub DMZ subnet.
	ErrNVAOutsideDMZ = errors.New("nva private ip outside hub dmz subnet")
	// ErrInvalidCIDR is returned for address blocks or subnet prefixes that do not parse.
	ErrInvalidCIDR = errors.New("invalid cidr")
	// ErrSegmentKind is returned when a segment is passed in a slot of another kind.
	ErrSegmentKind = errors.New("segment kind mismatch")
	// ErrEmptySegmentID is returned when a segment has no identifier.
	ErrEmptySegmentID = errors.New("empty segment identifier")
)

// ConfigError reports a topology construction failure for one segment.
type ConfigError struct {
	Segment   string // offending segment identifier
	Invariant string // short name of the violated rule
	Detail    string
	Err       error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("segment %q violates %s: %v", e.Segment, e.Invariant, e.Err)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configError(segment, invariant string, err error, detailFormat string, args ...any) *ConfigError {
	return &ConfigError{
		Segment:   segment,
		Invariant: invariant,
		Detail:    fmt.Sprintf(detailFormat, args...),
		Err:       err,
	}
}
