package stack

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/imamik/hubnet/internal/backend"
	"github.com/imamik/hubnet/internal/metrics"
)

// LinkReport lists which units ran a hook and which had none.
type LinkReport struct {
	Linked []string
	Noop   []string
}

// LinkContext is handed to a unit's link hook. It gives read-only access to
// the registry and stages resources in the unit's own stack.
type LinkContext struct {
	context.Context
	App *App

	unit     string
	registry *Registry
	txn      *backend.Txn
	log      logr.Logger
}

var (
	_ View            = (*LinkContext)(nil)
	_ backend.Creator = (*LinkContext)(nil)
)

// Unit returns the identifier of the unit being linked.
func (lc *LinkContext) Unit() string {
	return lc.unit
}

// Log returns a logger tagged with the unit being linked.
func (lc *LinkContext) Log() logr.Logger {
	return lc.log
}

// Lookup returns another loaded unit.
func (lc *LinkContext) Lookup(id string) (Unit, error) {
	return lc.registry.Lookup(id)
}

// Has reports whether id was loaded.
func (lc *LinkContext) Has(id string) bool {
	return lc.registry.Has(id)
}

// IDs returns every loaded unit identifier in registry order.
func (lc *LinkContext) IDs() []string {
	return lc.registry.IDs()
}

// DependsOn records that this unit's resources provision only after the
// resources of unit id. It does not change hook invocation order.
func (lc *LinkContext) DependsOn(id string) error {
	if !lc.registry.Has(id) {
		return fmt.Errorf("%w: %s", ErrUnitNotFound, id)
	}
	return lc.txn.DependsOnStack(id)
}

// Create stages a resource in this unit's stack.
func (lc *LinkContext) Create(kind backend.Kind, name string, props backend.Properties, opts ...backend.Option) (*backend.Resource, error) {
	return lc.txn.Create(kind, name, props, opts...)
}

// Link runs the link hook of every unit that has one, in registry order.
// The first failing hook aborts linking; its staged resources are dropped.
func Link(ctx context.Context, app *App, reg *Registry, opts ...Option) (*LinkReport, error) {
	o := applyOptions(app, opts)
	log := o.log.WithName("linker")

	report := &LinkReport{}
	for id, u := range reg.All() {
		linker, ok := u.(Linker)
		if !ok {
			report.Noop = append(report.Noop, id)
			metrics.RecordLinkHook(metrics.ResultNoop)
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		txn := app.Graph.Stack(id).Begin()
		lc := &LinkContext{
			Context:  ctx,
			App:      app,
			unit:     id,
			registry: reg,
			txn:      txn,
			log:      log.WithValues("unit", id),
		}
		if err := linker.Link(lc); err != nil {
			txn.Discard()
			metrics.RecordLinkHook(metrics.ResultFailed)
			return nil, &UnitError{Unit: id, Stage: StageLink, Err: err}
		}
		staged := txn.Len()
		if err := txn.Commit(); err != nil {
			metrics.RecordLinkHook(metrics.ResultFailed)
			return nil, &UnitError{Unit: id, Stage: StageLink, Err: err}
		}

		report.Linked = append(report.Linked, id)
		metrics.RecordLinkHook(metrics.ResultLinked)
		log.V(1).Info("Linked unit", "unit", id, "resources", staged)
	}

	log.Info("Units linked", "linked", len(report.Linked), "noop", len(report.Noop))
	return report, nil
}
