// Package units holds the deployable units of a hub-spoke network.
//
// Each unit declares its own network resources when constructed and, if it
// needs resources owned by other units, wires them in its link hook. Units
// publish a narrow typed exports structure; other units read it with
// stack.LookupAs instead of reaching into each other's resources.
//
// Unit parameters come from the unit's entry file (units/<id>/unit.yaml).
package units
