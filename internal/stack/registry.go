package stack

import (
	"fmt"
	"iter"
	"slices"
)

// View is read-only access to loaded units.
type View interface {
	Lookup(id string) (Unit, error)
}

// Registry maps unit identifiers to constructed units. It has no exported
// mutators; Load returns it fully built.
type Registry struct {
	order []string
	units map[string]Unit
}

var _ View = (*Registry)(nil)

func newRegistry(units []Unit) *Registry {
	r := &Registry{units: make(map[string]Unit, len(units))}
	for _, u := range units {
		r.order = append(r.order, u.ID())
		r.units[u.ID()] = u
	}
	return r
}

// Lookup returns the unit with the given identifier.
func (r *Registry) Lookup(id string) (Unit, error) {
	u, ok := r.units[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnitNotFound, id)
	}
	return u, nil
}

// Has reports whether id was loaded.
func (r *Registry) Has(id string) bool {
	_, ok := r.units[id]
	return ok
}

// IDs returns the unit identifiers in insertion order.
func (r *Registry) IDs() []string {
	return slices.Clone(r.order)
}

// Len returns the number of loaded units.
func (r *Registry) Len() int {
	return len(r.order)
}

// All iterates the units in insertion order.
func (r *Registry) All() iter.Seq2[string, Unit] {
	return func(yield func(string, Unit) bool) {
		for _, id := range r.order {
			if !yield(id, r.units[id]) {
				return
			}
		}
	}
}

// Exporter is implemented by units that expose a typed exports structure.
type Exporter[T any] interface {
	Exports() T
}

// LookupAs looks up id and returns its exports of type T.
func LookupAs[T any](v View, id string) (T, error) {
	var zero T
	u, err := v.Lookup(id)
	if err != nil {
		return zero, err
	}
	exp, ok := u.(Exporter[T])
	if !ok {
		return zero, fmt.Errorf("%w: %s does not export %T", ErrExportType, id, zero)
	}
	return exp.Exports(), nil
}
