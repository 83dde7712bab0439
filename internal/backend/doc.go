// Package backend models the deploy-time resource graph.
//
// Units declare resources into per-unit stacks instead of talking to a cloud
// provider directly. The graph records resource-level and stack-level
// dependencies and produces a Plan: stacks in an order that honors every
// "only after" edge, resources in creation order within each stack. An
// Applier turns a Plan into provider calls.
package backend
