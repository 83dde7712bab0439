// Package naming provides consistent names for declared network resources.
//
// Names follow the pattern {prefix}-{type}, where prefix is the unit or
// segment prefix (hub, spoke1, onprem). Cross-segment resources such as
// peerings and gateway connections name both ends.
package naming
