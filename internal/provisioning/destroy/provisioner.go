package destroy

import (
	"errors"
	"fmt"

	"github.com/imamik/hubnet/internal/backend"
	"github.com/imamik/hubnet/internal/provisioning"
)

// ErrNotSupported is returned when the configured applier cannot destroy.
var ErrNotSupported = errors.New("applier does not support destroy")

// Provisioner handles teardown.
type Provisioner struct{}

// NewProvisioner creates a new destroy provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Name implements provisioning.Phase.
func (*Provisioner) Name() string {
	return "destroy"
}

// Provision removes every resource of the planned graph.
func (*Provisioner) Provision(ctx *provisioning.Context) error {
	if ctx.State.Plan == nil {
		return fmt.Errorf("%w: destroy needs a plan", provisioning.ErrPhaseOrder)
	}
	d, ok := ctx.Applier.(backend.Destroyer)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotSupported, ctx.Applier)
	}

	ctx.Log.Info("Destroying resources", "name", ctx.Config.Name, "resources", ctx.State.Plan.Len())
	if err := d.Destroy(ctx, ctx.State.Plan); err != nil {
		return fmt.Errorf("failed to destroy resources: %w", err)
	}
	return nil
}

// Phases returns the plan phases followed by the destroy phase.
func Phases() []provisioning.Phase {
	return append(provisioning.PlanPhases(), NewProvisioner())
}
