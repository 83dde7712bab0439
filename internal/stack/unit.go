package stack

import (
	"context"
	"fmt"
	"slices"

	"github.com/go-logr/logr"

	"github.com/imamik/hubnet/internal/backend"
)

// Unit is the handle a factory returns for a constructed unit.
type Unit interface {
	ID() string
}

// Linker is implemented by units that create cross-unit resources after every
// unit has been constructed.
type Linker interface {
	Link(lc *LinkContext) error
}

// Factory constructs a unit. It is called exactly once per present unit.
type Factory func(ctx context.Context, scope *Scope) (Unit, error)

// Settings are the caller-supplied values shared by every unit.
type Settings struct {
	Region        string
	AdminUsername string
	AdminPassword string
	// AdminSSHKey is an optional authorized_keys line for VM logins.
	AdminSSHKey string
	// SharedKey authenticates gateway connections.
	SharedKey string
	Labels    map[string]string
}

// App is the shared top-level context handed to every unit.
type App struct {
	Graph    *backend.Graph
	Settings Settings
	Log      logr.Logger
}

// NewApp returns an App with an empty resource graph.
func NewApp(settings Settings, log logr.Logger) *App {
	return &App{Graph: backend.NewGraph(), Settings: settings, Log: log}
}

// Scope is what a factory receives: the shared App, the unit identifier, the
// unit's own stack and its entry artifact.
type Scope struct {
	App   *App
	ID    string
	Stack *backend.Stack
	Entry Entry
}

// Log returns the App logger tagged with the unit ID.
func (s *Scope) Log() logr.Logger {
	return s.App.Log.WithValues("unit", s.ID)
}

// Catalog maps unit identifiers to factories. It is built once at startup;
// a unit that is not registered cannot be loaded.
type Catalog struct {
	order     []string
	factories map[string]Factory
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{factories: make(map[string]Factory)}
}

// Register adds a factory for id.
func (c *Catalog) Register(id string, f Factory) error {
	if id == "" || f == nil {
		return fmt.Errorf("register %q: empty id or nil factory", id)
	}
	if _, ok := c.factories[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateFactory, id)
	}
	c.order = append(c.order, id)
	c.factories[id] = f
	return nil
}

// MustRegister is like Register but panics on error. It returns c for chaining.
func (c *Catalog) MustRegister(id string, f Factory) *Catalog {
	if err := c.Register(id, f); err != nil {
		panic(err)
	}
	return c
}

// Factory returns the factory registered for id.
func (c *Catalog) Factory(id string) (Factory, bool) {
	f, ok := c.factories[id]
	return f, ok
}

// IDs returns the registered identifiers in registration order.
func (c *Catalog) IDs() []string {
	return slices.Clone(c.order)
}
