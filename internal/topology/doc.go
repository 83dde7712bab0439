// Package topology models the network segments of a hub-spoke deployment.
//
// A Topology is built once from a hub, an ordered list of spokes, an optional
// on-prem peer and an optional network virtual appliance (NVA). Build validates
// the whole input up front and either returns a complete, immutable Topology or
// a *ConfigError naming the offending segment and the violated invariant.
//
// Address-space overlap between segments is not rejected. Overlaps and
// subnets that fall outside their segment's address space are reported through
// Topology.Warnings so callers can surface them without failing the build.
package topology
