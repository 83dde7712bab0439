// Package labels provides consistent labeling for declared resources.
//
// Every resource carries the unit that declared it and the tool that manages
// it. Label keys use the hubnet.io domain prefix; the plain "environment" tag
// is kept for providers that group resources by it.
package labels
