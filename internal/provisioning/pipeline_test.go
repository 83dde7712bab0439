package provisioning

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/hubnet/internal/backend"
	"github.com/imamik/hubnet/internal/config"
	"github.com/imamik/hubnet/internal/stack"
)

type netUnit struct{ id string }

func (u netUnit) ID() string { return u.id }

type peerUnit struct{ id string }

func (u peerUnit) ID() string { return u.id }

func (u peerUnit) Link(lc *stack.LinkContext) error {
	if err := lc.DependsOn("net"); err != nil {
		return err
	}
	_, err := lc.Create(backend.KindPeering, "peer-to-net", nil)
	return err
}

func testCatalog() *stack.Catalog {
	return stack.NewCatalog().
		MustRegister("net", func(_ context.Context, scope *stack.Scope) (stack.Unit, error) {
			_, err := scope.Stack.Create(backend.KindVirtualNetwork, "net-vnet", backend.Properties{
				backend.PropAddressPrefixes: []string{"10.0.0.0/16"},
			})
			return netUnit{id: scope.ID}, err
		}).
		MustRegister("peer", func(_ context.Context, scope *stack.Scope) (stack.Unit, error) {
			return peerUnit{id: scope.ID}, nil
		})
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"peer/unit.yaml":  &fstest.MapFile{Data: []byte("{}")},
		"net/unit.yaml":   &fstest.MapFile{Data: []byte("{}")},
		"absent/README":   &fstest.MapFile{Data: []byte("no entry")},
		"stray-file.yaml": &fstest.MapFile{Data: []byte("ignored")},
	}
}

func newTestContext(t *testing.T, cfg *config.Config, opts ...Option) (*Context, *RecordingObserver) {
	t.Helper()
	obs := NewRecordingObserver()
	opts = append([]Option{
		WithSource(stack.DirSource{FS: testFS(), Root: "."}),
		WithObserver(obs),
	}, opts...)
	return NewContext(context.Background(), cfg, config.Credentials{}, testCatalog(), testr.New(t), opts...), obs
}

type recordingApplier struct {
	plan *backend.Plan
	err  error
}

func (a *recordingApplier) Apply(_ context.Context, plan *backend.Plan) error {
	a.plan = plan
	return a.err
}

func TestPipeline_PlanPhases(t *testing.T) {
	t.Parallel()
	ctx, obs := newTestContext(t, config.Default("lab"))

	require.NoError(t, RunPhases(ctx, PlanPhases()))

	assert.Equal(t, []string{"net", "peer"}, ctx.State.Registry.IDs())
	assert.Equal(t, []string{"peer"}, ctx.State.Links.Linked)
	assert.Equal(t, []string{"net"}, ctx.State.Links.Noop)
	require.NotNil(t, ctx.State.Plan)
	require.Len(t, ctx.State.Plan.Steps, 2)
	assert.Equal(t, "net", ctx.State.Plan.Steps[0].Stack)
	assert.Equal(t, "peer", ctx.State.Plan.Steps[1].Stack)

	assert.Equal(t, []EventType{
		EventPhaseStarted, EventPhaseCompleted, // validation
		EventPhaseStarted, EventUnitLoaded, EventUnitLoaded, EventPhaseCompleted,
		EventPhaseStarted, EventUnitLinked, EventPhaseCompleted,
		EventPhaseStarted, EventPhaseCompleted, // plan
	}, obs.Types())
}

func TestPipeline_ApplyUsesApplier(t *testing.T) {
	t.Parallel()
	applier := &recordingApplier{}
	ctx, _ := newTestContext(t, config.Default("lab"), WithApplier(applier))

	require.NoError(t, RunPhases(ctx, ApplyPhases()))
	require.NotNil(t, applier.plan)
	assert.Equal(t, 2, applier.plan.Len())
}

func TestPipeline_StopsAtFirstFailure(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	applier := &recordingApplier{err: boom}
	ctx, obs := newTestContext(t, config.Default("lab"), WithApplier(applier))

	ran := false
	phases := append(ApplyPhases(), PhaseFunc("after", func(*Context) error {
		ran = true
		return nil
	}))
	err := RunPhases(ctx, phases)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "apply phase failed")
	assert.False(t, ran)

	events := obs.Events()
	last := events[len(events)-1]
	assert.Equal(t, EventPhaseFailed, last.Type)
	assert.Equal(t, "apply", last.Phase)
}

func TestPipeline_CanceledContext(t *testing.T) {
	t.Parallel()
	ctx, obs := newTestContext(t, config.Default("lab"))
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	ctx.Context = canceled

	err := RunPhases(ctx, PlanPhases())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, obs.Events())
}

func TestValidationPhase(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		mutate       func(*config.Config)
		wantErr      string
		wantWarnings int
	}{
		{name: "valid", mutate: func(*config.Config) {}},
		{name: "invalid name", mutate: func(c *config.Config) { c.Name = "Bad_Name" }, wantErr: "1 validation error(s)"},
		{name: "hcloud without token", mutate: func(c *config.Config) { c.Backend.Provider = config.ProviderHCloud }, wantErr: config.EnvHCloudToken},
		{name: "unknown region warns", mutate: func(c *config.Config) { c.Region = "westeurope" }, wantWarnings: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.Default("lab")
			tt.mutate(cfg)
			ctx, obs := newTestContext(t, cfg)

			err := NewValidationPhase().Provision(ctx)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Contains(t, obs.Types(), EventValidationError)
				return
			}
			require.NoError(t, err)
			assert.Len(t, ctx.State.Warnings, tt.wantWarnings)
		})
	}
}

func TestPhasesRequirePredecessors(t *testing.T) {
	t.Parallel()
	ctx, _ := newTestContext(t, config.Default("lab"))

	assert.ErrorIs(t, NewLinkPhase().Provision(ctx), ErrPhaseOrder)
	assert.ErrorIs(t, NewApplyPhase().Provision(ctx), ErrPhaseOrder)

	ctx.State.Plan = &backend.Plan{}
	ctx.Applier = nil
	assert.ErrorIs(t, NewApplyPhase().Provision(ctx), ErrPhaseOrder)
}

func TestLoadPhase_UnknownUnitFails(t *testing.T) {
	t.Parallel()
	fsys := testFS()
	fsys["rogue/unit.yaml"] = &fstest.MapFile{Data: []byte("{}")}
	ctx, _ := newTestContext(t, config.Default("lab"), WithSource(stack.DirSource{FS: fsys, Root: "."}))

	err := NewLoadPhase().Provision(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, stack.ErrUnknownUnit)
	assert.Nil(t, ctx.State.Registry)
}

func TestSettingsFor(t *testing.T) {
	t.Parallel()
	cfg := config.Default("lab")
	cfg.Environment = "staging"
	creds := config.Credentials{AdminUsername: "ops", SharedKey: "k"}

	s := SettingsFor(cfg, creds)
	assert.Equal(t, config.DefaultRegion, s.Region)
	assert.Equal(t, "ops", s.AdminUsername)
	assert.Equal(t, "k", s.SharedKey)
	assert.Equal(t, map[string]string{"environment": "staging"}, s.Labels)
}

func TestLogObserver(t *testing.T) {
	t.Parallel()
	obs := NewLogObserver(testr.New(t)).WithFields(map[string]string{"run": "1"})
	obs.Event(Event{Type: EventPhaseStarted, Phase: "load", Message: "starting"})
	obs.Event(Event{Type: EventPhaseFailed, Phase: "load", Message: "failed", Fields: map[string]string{"unit": "hub"}})
	obs.Event(Event{Type: EventUnitLoaded, Resource: "hub", Message: "unit loaded"})
}

func TestRecordingObserver_WithFieldsSharesLog(t *testing.T) {
	t.Parallel()
	root := NewRecordingObserver()
	child := root.WithFields(map[string]string{"phase": "link"})
	child.Event(Event{Type: EventUnitLinked, Fields: map[string]string{"unit": "hub"}})

	events := root.Events()
	require.Len(t, events, 1)
	assert.Equal(t, map[string]string{"phase": "link", "unit": "hub"}, events[0].Fields)
	assert.False(t, events[0].Timestamp.IsZero())
}
