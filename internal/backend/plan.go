package backend

import (
	"context"
	"fmt"
	"slices"

	"github.com/go-logr/logr"
)

// Step is one stack in a plan.
type Step struct {
	Stack     string
	After     []string
	Resources []*Resource
}

// Plan is the provisioning order for a graph.
type Plan struct {
	Steps []Step
}

// Resources returns every resource in plan order.
func (p *Plan) Resources() []*Resource {
	var out []*Resource
	for _, step := range p.Steps {
		out = append(out, step.Resources...)
	}
	return out
}

// Len returns the number of resources in the plan.
func (p *Plan) Len() int {
	n := 0
	for _, step := range p.Steps {
		n += len(step.Resources)
	}
	return n
}

// Plan orders the stacks so every stack comes after the stacks it depends on.
// Among stacks that are ready at the same time, creation order wins.
func (g *Graph) Plan() (*Plan, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	pending := make(map[string]int, len(g.stacks))
	for _, s := range g.stacks {
		pending[s.id] = len(g.edges[s.id])
	}

	plan := &Plan{}
	placed := make(map[string]bool, len(g.stacks))
	for len(plan.Steps) < len(g.stacks) {
		next := -1
		for i, s := range g.stacks {
			if !placed[s.id] && pending[s.id] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			var stuck []string
			for _, s := range g.stacks {
				if !placed[s.id] {
					stuck = append(stuck, s.id)
				}
			}
			return nil, fmt.Errorf("%w between stacks %v", ErrDependencyCycle, stuck)
		}

		s := g.stacks[next]
		placed[s.id] = true
		plan.Steps = append(plan.Steps, Step{
			Stack:     s.id,
			After:     g.dependenciesLocked(s.id),
			Resources: slices.Clone(s.resources),
		})
		for from, deps := range g.edges {
			if _, ok := deps[s.id]; ok && !placed[from] {
				pending[from]--
			}
		}
	}
	return plan, nil
}

// Applier provisions a plan.
type Applier interface {
	Apply(ctx context.Context, plan *Plan) error
}

// Destroyer removes what an Applier created for a plan.
type Destroyer interface {
	Destroy(ctx context.Context, plan *Plan) error
}

// LogApplier is a dry-run applier that only logs what would be created.
type LogApplier struct {
	Log logr.Logger
}

// Apply logs every step and resource of the plan.
func (a LogApplier) Apply(ctx context.Context, plan *Plan) error {
	for _, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.Log.Info("stack", "stack", step.Stack, "after", step.After, "resources", len(step.Resources))
		for _, res := range step.Resources {
			a.Log.V(1).Info("would create", "resource", res.describe())
		}
	}
	return nil
}

// Destroy logs every resource of the plan in reverse order.
func (a LogApplier) Destroy(ctx context.Context, plan *Plan) error {
	resources := plan.Resources()
	for _, res := range slices.Backward(resources) {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.Log.V(1).Info("would delete", "resource", res.describe())
	}
	a.Log.Info("destroy", "resources", len(resources))
	return nil
}
