// Package provisioning runs the hubnet pipeline as a sequence of phases.
//
// # Phases
//
//   - validation: checks the configuration and provider credentials
//   - load: discovers and constructs the present units
//   - link: runs each unit's link hook in registry order
//   - plan: orders the resource graph into provisioning steps
//   - apply: hands the plan to the configured applier
//
// # Core Types
//
// Context carries the configuration, the shared unit App, the discovery
// source and catalog, the applier and an Observer. State accumulates the
// registry, link report and plan as phases complete. Every phase emits
// start, completion and failure events and records its duration.
package provisioning
