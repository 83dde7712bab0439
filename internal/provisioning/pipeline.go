package provisioning

import (
	"fmt"
	"time"

	"github.com/imamik/hubnet/internal/metrics"
)

// Pipeline runs phases in order and stops at the first failure.
type Pipeline struct {
	Phases []Phase
}

// NewPipeline returns a pipeline over phases.
func NewPipeline(phases ...Phase) *Pipeline {
	return &Pipeline{Phases: phases}
}

// Run executes every phase. Each phase is observed and timed.
func (p *Pipeline) Run(ctx *Context) error {
	start := time.Now()
	ctx.Log.V(1).Info("starting pipeline", "phases", len(p.Phases))

	for _, phase := range p.Phases {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s phase not started: %w", phase.Name(), err)
		}

		phaseStart := time.Now()
		logPhaseStart(ctx.Observer, phase.Name())

		if err := phase.Provision(ctx); err != nil {
			metrics.ObservePhase(phase.Name(), metrics.ResultFailed, time.Since(phaseStart))
			logPhaseFailed(ctx.Observer, phase.Name(), err)
			return fmt.Errorf("%s phase failed: %w", phase.Name(), err)
		}

		elapsed := time.Since(phaseStart)
		metrics.ObservePhase(phase.Name(), metrics.ResultSuccess, elapsed)
		logPhaseComplete(ctx.Observer, phase.Name(), elapsed)
	}

	ctx.Log.V(1).Info("pipeline complete", "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// RunPhases executes phases sequentially.
func RunPhases(ctx *Context, phases []Phase) error {
	return NewPipeline(phases...).Run(ctx)
}

// PlanPhases returns the phases that build a plan without applying it.
func PlanPhases() []Phase {
	return []Phase{
		NewValidationPhase(),
		NewLoadPhase(),
		NewLinkPhase(),
		NewPlanPhase(),
	}
}

// ApplyPhases returns PlanPhases followed by the apply phase.
func ApplyPhases() []Phase {
	return append(PlanPhases(), NewApplyPhase())
}

type phaseFunc struct {
	name string
	fn   func(*Context) error
}

func (p phaseFunc) Name() string                 { return p.name }
func (p phaseFunc) Provision(ctx *Context) error { return p.fn(ctx) }

// PhaseFunc adapts a function to the Phase interface.
func PhaseFunc(name string, fn func(*Context) error) Phase {
	return phaseFunc{name: name, fn: fn}
}
