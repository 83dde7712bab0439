package stack

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/imamik/hubnet/internal/metrics"
	"github.com/imamik/hubnet/internal/util/async"
)

// ErrDuplicateUnit is returned when a source yields the same ID twice.
var ErrDuplicateUnit = errors.New("duplicate unit")

// Load discovers and constructs units.
//
// A source that cannot be enumerated yields an empty registry. A candidate
// whose entry is missing is skipped. Everything else that goes wrong is fatal:
// a failed existence check, a present entry without a factory, or a factory
// error. Construction runs concurrently and Load waits for every factory
// before returning.
func Load(ctx context.Context, app *App, src Source, catalog *Catalog, opts ...Option) (*Registry, error) {
	o := applyOptions(app, opts)
	log := o.log.WithName("loader")

	candidates, err := src.Candidates(ctx)
	if err != nil {
		log.Info("Unit discovery failed, continuing with no units", "error", err.Error())
		return newRegistry(nil), nil
	}

	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if seen[c.ID] {
			return nil, &UnitError{Unit: c.ID, Stage: StageLoad, Err: ErrDuplicateUnit}
		}
		seen[c.ID] = true
	}

	present, err := checkEntries(ctx, src, candidates, o.concurrency)
	if err != nil {
		return nil, err
	}

	// Stacks are created here, in discovery order, so graph order does not
	// depend on which factory finishes first.
	slots := make([]Unit, len(candidates))
	failures := make([]error, len(candidates))
	var tasks []async.Task
	for i, c := range candidates {
		if !present[i] {
			log.V(1).Info("Skipping unit without entry", "unit", c.ID, "entry", c.Entry)
			metrics.RecordUnit(metrics.ResultSkipped)
			continue
		}
		factory, ok := catalog.Factory(c.ID)
		if !ok {
			metrics.RecordUnit(metrics.ResultFailed)
			return nil, &UnitError{Unit: c.ID, Stage: StageLoad, Err: ErrUnknownUnit}
		}

		scope := &Scope{App: app, ID: c.ID, Stack: app.Graph.Stack(c.ID)}
		tasks = append(tasks, async.Task{
			Name: c.ID,
			Func: func(ctx context.Context) error {
				u, err := construct(ctx, src, c, scope, factory)
				if err != nil {
					failures[i] = &UnitError{Unit: c.ID, Stage: StageLoad, Err: err}
					return err
				}
				slots[i] = u
				return nil
			},
		})
	}

	if err := async.RunParallel(ctx, tasks); err != nil {
		joined := errors.Join(failures...)
		if joined == nil {
			// Nothing ran; the context was done.
			joined = err
		}
		for _, f := range failures {
			if f != nil {
				metrics.RecordUnit(metrics.ResultFailed)
			}
		}
		return nil, joined
	}

	var units []Unit
	for _, u := range slots {
		if u == nil {
			continue
		}
		units = append(units, u)
		metrics.RecordUnit(metrics.ResultLoaded)
		log.V(1).Info("Loaded unit", "unit", u.ID())
	}
	log.Info("Units loaded", "loaded", len(units), "candidates", len(candidates))
	return newRegistry(units), nil
}

func checkEntries(ctx context.Context, src Source, candidates []Candidate, limit int) ([]bool, error) {
	present := make([]bool, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, c := range candidates {
		g.Go(func() error {
			ok, err := src.Exists(gctx, c)
			if err != nil {
				return &UnitError{Unit: c.ID, Stage: StageLoad, Err: err}
			}
			present[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return present, nil
}

func construct(ctx context.Context, src Source, c Candidate, scope *Scope, factory Factory) (Unit, error) {
	data, err := src.Read(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("read entry: %w", err)
	}
	scope.Entry = Entry{Path: c.Entry, Data: data}

	u, err := factory(ctx, scope)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errors.New("factory returned no unit")
	}
	if u.ID() != c.ID {
		return nil, fmt.Errorf("factory returned unit %q", u.ID())
	}
	return u, nil
}
