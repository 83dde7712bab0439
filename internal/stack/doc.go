// Package stack loads deployable units and links them in two phases.
//
// Phase one (Load) discovers candidates from a Source, skips candidates whose
// entry artifact is missing, and constructs every present unit through the
// factory registered for it in a Catalog. Construction runs concurrently and
// is joined before Load returns, so phase two never observes a partially
// built Registry.
//
// Phase two (Link) walks the Registry in insertion order and calls the link
// hook of each unit that has one. Hooks see a read-only view of the Registry
// and stage their resources in a transaction that is committed only when the
// hook succeeds.
package stack
