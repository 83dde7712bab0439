package stack

import (
	"errors"
	"fmt"
)

var (
	// ErrUnitNotFound is returned when a registry lookup names an absent unit.
	ErrUnitNotFound = errors.New("unit not found")

	// ErrUnknownUnit is returned when a present entry has no registered factory.
	ErrUnknownUnit = errors.New("no factory registered for unit")

	// ErrExportType is returned by LookupAs when a unit does not expose the
	// requested exports.
	ErrExportType = errors.New("unit does not expose requested exports")

	// ErrDuplicateFactory is returned when a catalog registers an ID twice.
	ErrDuplicateFactory = errors.New("duplicate factory")
)

// Unit lifecycle stages reported in errors.
const (
	StageLoad = "load"
	StageLink = "link"
)

// UnitError reports which unit failed and in which stage.
type UnitError struct {
	Unit  string
	Stage string
	Err   error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("unit %s: %s failed: %v", e.Unit, e.Stage, e.Err)
}

func (e *UnitError) Unwrap() error {
	return e.Err
}
