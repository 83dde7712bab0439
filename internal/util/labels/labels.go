package labels

import "maps"

// Standard label keys.
const (
	// KeyUnit identifies the unit that declared a resource.
	KeyUnit = "hubnet.io/unit"

	// KeySegment identifies the segment kind (hub, spoke, onPrem).
	KeySegment = "hubnet.io/segment"

	// KeyManagedBy identifies the management system.
	KeyManagedBy = "hubnet.io/managed-by"

	// KeyEnvironment is the plain environment tag.
	KeyEnvironment = "environment"
)

// ManagedByHubnet is the default KeyManagedBy value.
const ManagedByHubnet = "hubnet"

// LabelBuilder builds resource labels with a fluent interface.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a builder with the unit and managed-by labels set.
// The environment tag defaults to the unit ID.
func NewLabelBuilder(unit string) *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyUnit:        unit,
			KeyManagedBy:   ManagedByHubnet,
			KeyEnvironment: unit,
		},
	}
}

// WithSegment adds the segment kind label.
func (lb *LabelBuilder) WithSegment(kind string) *LabelBuilder {
	if kind != "" {
		lb.labels[KeySegment] = kind
	}
	return lb
}

// WithEnvironment overrides the environment tag.
func (lb *LabelBuilder) WithEnvironment(env string) *LabelBuilder {
	lb.labels[KeyEnvironment] = env
	return lb
}

// Merge adds all labels from the provided map.
func (lb *LabelBuilder) Merge(extra map[string]string) *LabelBuilder {
	maps.Copy(lb.labels, extra)
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	return maps.Clone(lb.labels)
}

// SelectorForUnit returns a label selector for every resource of a unit.
func SelectorForUnit(unit string) string {
	return KeyUnit + "=" + unit
}
