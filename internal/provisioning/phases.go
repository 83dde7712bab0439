package provisioning

import (
	"errors"
	"fmt"

	"github.com/imamik/hubnet/internal/config"
	"github.com/imamik/hubnet/internal/stack"
)

// ErrPhaseOrder is returned when a phase runs before the phase it depends on.
var ErrPhaseOrder = errors.New("phase prerequisites missing")

// ValidationPhase checks the configuration and the credentials the selected
// provider needs. Warnings are reported and kept in State.
type ValidationPhase struct{}

// NewValidationPhase creates a new validation phase.
func NewValidationPhase() *ValidationPhase {
	return &ValidationPhase{}
}

// Name implements Phase.
func (*ValidationPhase) Name() string {
	return "validation"
}

// Provision implements Phase.
func (*ValidationPhase) Provision(ctx *Context) error {
	res := ctx.Config.Check()
	if err := ctx.Credentials.Require(ctx.Config.Backend.Provider); err != nil {
		var verr *config.ValidationError
		if !errors.As(err, &verr) {
			return err
		}
		res.Errors = append(res.Errors, verr)
	}

	for _, w := range res.Warnings {
		ctx.Observer.Event(Event{
			Type:    EventValidationWarning,
			Phase:   "validation",
			Message: w.Message,
			Fields:  map[string]string{"field": w.Field},
		})
	}
	for _, e := range res.Errors {
		ctx.Observer.Event(Event{
			Type:    EventValidationError,
			Phase:   "validation",
			Message: e.Message,
			Fields:  map[string]string{"field": e.Field},
		})
	}
	ctx.State.Warnings = res.Warnings

	if err := res.Err(); err != nil {
		return fmt.Errorf("%d validation error(s): %w", len(res.Errors), err)
	}
	return nil
}

// LoadPhase discovers and constructs the present units.
type LoadPhase struct{}

// NewLoadPhase creates a new load phase.
func NewLoadPhase() *LoadPhase {
	return &LoadPhase{}
}

// Name implements Phase.
func (*LoadPhase) Name() string {
	return "load"
}

// Provision implements Phase.
func (*LoadPhase) Provision(ctx *Context) error {
	reg, err := stack.Load(ctx, ctx.App, ctx.Source, ctx.Catalog,
		stack.WithLogger(ctx.Log),
		stack.WithConcurrency(ctx.Config.Concurrency),
	)
	if err != nil {
		return err
	}
	for id := range reg.All() {
		ctx.Observer.Event(Event{Type: EventUnitLoaded, Phase: "load", Resource: id, Message: "unit loaded"})
	}
	ctx.State.Registry = reg
	return nil
}

// LinkPhase runs the link hooks of the loaded units.
type LinkPhase struct{}

// NewLinkPhase creates a new link phase.
func NewLinkPhase() *LinkPhase {
	return &LinkPhase{}
}

// Name implements Phase.
func (*LinkPhase) Name() string {
	return "link"
}

// Provision implements Phase.
func (*LinkPhase) Provision(ctx *Context) error {
	if ctx.State.Registry == nil {
		return fmt.Errorf("%w: link needs a loaded registry", ErrPhaseOrder)
	}
	report, err := stack.Link(ctx, ctx.App, ctx.State.Registry, stack.WithLogger(ctx.Log))
	if err != nil {
		return err
	}
	for _, id := range report.Linked {
		ctx.Observer.Event(Event{Type: EventUnitLinked, Phase: "link", Resource: id, Message: "unit linked"})
	}
	ctx.State.Links = report
	return nil
}

// PlanPhase orders the resource graph.
type PlanPhase struct{}

// NewPlanPhase creates a new plan phase.
func NewPlanPhase() *PlanPhase {
	return &PlanPhase{}
}

// Name implements Phase.
func (*PlanPhase) Name() string {
	return "plan"
}

// Provision implements Phase.
func (*PlanPhase) Provision(ctx *Context) error {
	plan, err := ctx.App.Graph.Plan()
	if err != nil {
		return err
	}
	ctx.State.Plan = plan
	ctx.Log.Info("plan ready", "stacks", len(plan.Steps), "resources", plan.Len())
	return nil
}

// ApplyPhase hands the plan to the context's applier.
type ApplyPhase struct{}

// NewApplyPhase creates a new apply phase.
func NewApplyPhase() *ApplyPhase {
	return &ApplyPhase{}
}

// Name implements Phase.
func (*ApplyPhase) Name() string {
	return "apply"
}

// Provision implements Phase.
func (*ApplyPhase) Provision(ctx *Context) error {
	if ctx.State.Plan == nil {
		return fmt.Errorf("%w: apply needs a plan", ErrPhaseOrder)
	}
	if ctx.Applier == nil {
		return fmt.Errorf("%w: no applier configured", ErrPhaseOrder)
	}
	return ctx.Applier.Apply(ctx, ctx.State.Plan)
}
