package provisioning

import (
	"context"
	"os"

	"github.com/go-logr/logr"

	"github.com/imamik/hubnet/internal/backend"
	"github.com/imamik/hubnet/internal/config"
	"github.com/imamik/hubnet/internal/stack"
)

// Phase is one step of the pipeline.
type Phase interface {
	// Name returns the human-readable name of this phase.
	Name() string

	// Provision executes the phase.
	Provision(ctx *Context) error
}

// State holds the shared results of provisioning phases.
type State struct {
	Registry *stack.Registry
	Links    *stack.LinkReport
	Plan     *backend.Plan
	Warnings []*config.ValidationError
}

// Context wraps all dependencies and state needed for a provisioning phase.
type Context struct {
	context.Context
	Config      *config.Config
	Credentials config.Credentials
	App         *stack.App
	Source      stack.Source
	Catalog     *stack.Catalog
	Applier     backend.Applier
	State       *State
	Observer    Observer
	Log         logr.Logger
}

// Option configures a Context.
type Option func(*Context)

// WithSource overrides the discovery source. Defaults to the config's units directory.
func WithSource(src stack.Source) Option {
	return func(c *Context) {
		c.Source = src
	}
}

// WithApplier sets the applier used by the apply phase.
func WithApplier(a backend.Applier) Option {
	return func(c *Context) {
		c.Applier = a
	}
}

// WithObserver overrides the event observer.
func WithObserver(o Observer) Option {
	return func(c *Context) {
		c.Observer = o
	}
}

// NewContext creates a provisioning context with a fresh App built from
// the configuration and credentials.
func NewContext(
	ctx context.Context,
	cfg *config.Config,
	creds config.Credentials,
	catalog *stack.Catalog,
	log logr.Logger,
	opts ...Option,
) *Context {
	c := &Context{
		Context:     ctx,
		Config:      cfg,
		Credentials: creds,
		App:         stack.NewApp(SettingsFor(cfg, creds), log),
		Source:      stack.DirSource{FS: os.DirFS(cfg.UnitsDir), Root: "."},
		Catalog:     catalog,
		Applier:     backend.LogApplier{Log: log.WithName("plan")},
		State:       &State{},
		Observer:    NewLogObserver(log),
		Log:         log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SettingsFor derives the settings shared by every unit.
func SettingsFor(cfg *config.Config, creds config.Credentials) stack.Settings {
	return stack.Settings{
		Region:        cfg.Region,
		AdminUsername: creds.AdminUsername,
		AdminPassword: creds.AdminPassword,
		AdminSSHKey:   creds.AdminSSHKey,
		SharedKey:     creds.SharedKey,
		Labels:        cfg.BaseLabels(),
	}
}
