package backend

import (
	"fmt"
	"slices"
	"sync"

	"github.com/imamik/hubnet/internal/metrics"
)

// Graph is the deploy-time resource graph shared by every stack.
// It is safe for concurrent use.
type Graph struct {
	mu        sync.Mutex
	stacks    []*Stack
	byID      map[string]*Stack
	resources map[string]*Resource
	// edges[a] holds the stacks a must be provisioned after.
	edges map[string]map[string]struct{}
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		byID:      make(map[string]*Stack),
		resources: make(map[string]*Resource),
		edges:     make(map[string]map[string]struct{}),
	}
}

// Stack returns the stack with the given ID, creating it on first use.
// Stack order in the graph is first-use order.
func (g *Graph) Stack(id string) *Stack {
	g.mu.Lock()
	defer g.mu.Unlock()

	if s, ok := g.byID[id]; ok {
		return s
	}
	s := &Stack{graph: g, id: id, index: len(g.stacks)}
	g.stacks = append(g.stacks, s)
	g.byID[id] = s
	return s
}

// Stacks returns the stack IDs in creation order.
func (g *Graph) Stacks() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ids := make([]string, len(g.stacks))
	for i, s := range g.stacks {
		ids[i] = s.id
	}
	return ids
}

// Resource returns the committed resource with the given ID.
func (g *Graph) Resource(id string) (*Resource, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.resources[id]
	return r, ok
}

// Len returns the number of committed resources.
func (g *Graph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.resources)
}

// AddDependency records that stack from must be provisioned after stack to.
func (g *Graph) AddDependency(from, to string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addDependencyLocked(from, to)
}

// Dependencies returns the stacks id must be provisioned after, in stack
// creation order.
func (g *Graph) Dependencies(id string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dependenciesLocked(id)
}

func (g *Graph) addDependencyLocked(from, to string) error {
	for _, id := range []string{from, to} {
		if _, ok := g.byID[id]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownStack, id)
		}
	}
	if from == to {
		return nil
	}
	if g.edges[from] == nil {
		g.edges[from] = make(map[string]struct{})
	}
	g.edges[from][to] = struct{}{}
	return nil
}

func (g *Graph) dependenciesLocked(id string) []string {
	var deps []string
	for _, s := range g.stacks {
		if _, ok := g.edges[id][s.id]; ok {
			deps = append(deps, s.id)
		}
	}
	return deps
}

// checkLocked validates a resource against the committed graph and the
// resources staged alongside it.
func (g *Graph) checkLocked(res *Resource, staged map[string]*Resource) error {
	if _, ok := g.resources[res.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateResource, res.ID)
	}
	if _, ok := staged[res.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateResource, res.ID)
	}
	for _, dep := range res.DependsOn {
		_, committed := g.resources[dep]
		_, pending := staged[dep]
		if !committed && !pending {
			return fmt.Errorf("%w: %s depends on %s", ErrUnknownResource, res.ID, dep)
		}
	}
	return nil
}

// insertLocked stores a checked resource and adds the implicit stack edges
// implied by its resource dependencies.
func (g *Graph) insertLocked(s *Stack, res *Resource, staged map[string]*Resource) {
	g.resources[res.ID] = res
	s.resources = append(s.resources, res)
	for _, dep := range res.DependsOn {
		depStack := ""
		if r, ok := g.resources[dep]; ok {
			depStack = r.Stack
		} else if r, ok := staged[dep]; ok {
			depStack = r.Stack
		}
		if depStack != "" && depStack != s.id {
			// Both stacks exist: s is the caller, depStack owns a known resource.
			_ = g.addDependencyLocked(s.id, depStack)
		}
	}
	metrics.RecordResource(string(res.Kind))
}

// Stack holds the resources declared by one unit.
type Stack struct {
	graph     *Graph
	id        string
	index     int
	resources []*Resource
}

var _ Creator = (*Stack)(nil)

// ID returns the stack identifier.
func (s *Stack) ID() string {
	return s.id
}

// Create declares a resource in the stack.
func (s *Stack) Create(kind Kind, name string, props Properties, opts ...Option) (*Resource, error) {
	res, err := newResource(s.id, kind, name, props, opts)
	if err != nil {
		return nil, err
	}

	g := s.graph
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkLocked(res, nil); err != nil {
		return nil, err
	}
	g.insertLocked(s, res, nil)
	return res, nil
}

// Resources returns the stack's resources in creation order.
func (s *Stack) Resources() []*Resource {
	s.graph.mu.Lock()
	defer s.graph.mu.Unlock()
	return slices.Clone(s.resources)
}

// Begin starts a transaction whose resources and dependencies become part of
// the stack only on Commit.
func (s *Stack) Begin() *Txn {
	return &Txn{stack: s, staged: make(map[string]*Resource)}
}
