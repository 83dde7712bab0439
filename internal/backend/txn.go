package backend

import "fmt"

// Txn stages resources and stack dependencies for one stack.
// Nothing is visible in the graph until Commit succeeds.
type Txn struct {
	stack  *Stack
	order  []*Resource
	staged map[string]*Resource
	deps   []string
	done   bool
}

var _ Creator = (*Txn)(nil)

// Create stages a resource. Duplicate and dependency checks run against both
// the committed graph and the resources staged so far.
func (t *Txn) Create(kind Kind, name string, props Properties, opts ...Option) (*Resource, error) {
	if t.done {
		return nil, fmt.Errorf("stack %s: transaction already finished", t.stack.id)
	}
	res, err := newResource(t.stack.id, kind, name, props, opts)
	if err != nil {
		return nil, err
	}

	g := t.stack.graph
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkLocked(res, t.staged); err != nil {
		return nil, err
	}
	t.order = append(t.order, res)
	t.staged[res.ID] = res
	return res, nil
}

// DependsOnStack stages an "only after" edge from this stack to id.
func (t *Txn) DependsOnStack(id string) error {
	g := t.stack.graph
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.byID[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStack, id)
	}
	t.deps = append(t.deps, id)
	return nil
}

// Len returns the number of staged resources.
func (t *Txn) Len() int {
	return len(t.order)
}

// Commit adds every staged resource and dependency to the graph.
func (t *Txn) Commit() error {
	if t.done {
		return fmt.Errorf("stack %s: transaction already finished", t.stack.id)
	}
	t.done = true

	g := t.stack.graph
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, res := range t.order {
		if _, ok := g.resources[res.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateResource, res.ID)
		}
	}
	for _, id := range t.deps {
		if err := g.addDependencyLocked(t.stack.id, id); err != nil {
			return err
		}
	}
	for _, res := range t.order {
		g.insertLocked(t.stack, res, t.staged)
	}
	return nil
}

// Discard drops everything staged.
func (t *Txn) Discard() {
	t.done = true
	t.order = nil
	t.staged = nil
	t.deps = nil
}
