package scheduler_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/cas"
	"go.trai.ch/kiln/internal/adapters/memtree"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/buildstate"
	"go.trai.ch/kiln/internal/engine/coordinator"
	"go.trai.ch/kiln/internal/engine/registry"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

// fixture wires a scheduler to in-memory collaborators.
type fixture struct {
	t        *testing.T
	ws       *domain.Workspace
	tree     *memtree.Tree
	store    *cas.MemoryStore
	states   *buildstate.Manager
	registry *registry.Registry
	coord    *coordinator.Coordinator
	sched    *scheduler.Scheduler
	events   *eventLog
	settings domain.Settings

	mu        sync.Mutex
	builders  map[string]*fakeBuilder
	factories atomic.Int32
}

func newFixture(t *testing.T, projects ...*domain.Project) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()

	span := mocks.NewMockSpan(ctrl)
	span.EXPECT().End().AnyTimes()
	span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()
	span.EXPECT().Write(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		return len(p), nil
	}).AnyTimes()

	tracer := mocks.NewMockTracer(ctrl)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, span
		},
	).AnyTimes()
	tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any()).AnyTimes()

	metrics := mocks.NewMockMetrics(ctrl)
	metrics.EXPECT().InvocationStarted(gomock.Any()).AnyTimes()
	metrics.EXPECT().InvocationFinished(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	metrics.EXPECT().UnitFinished(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	ws := domain.NewWorkspace("/ws")
	for _, p := range projects {
		require.NoError(t, ws.AddProject(p))
	}

	f := &fixture{
		t:        t,
		ws:       ws,
		tree:     memtree.New(),
		store:    cas.NewMemoryStore(),
		registry: registry.New(),
		coord:    coordinator.New(1),
		events:   &eventLog{},
		settings: domain.Settings{MaxConcurrentBuilds: 8, MaxBuildIterations: 10},
		builders: make(map[string]*fakeBuilder),
	}
	f.states = buildstate.NewManager(f.store, logger)
	f.sched = scheduler.NewScheduler(scheduler.Deps{
		Workspace:   f.ws,
		Registry:    f.registry,
		Tree:        f.tree,
		States:      f.states,
		Coordinator: f.coord,
		Tracer:      tracer,
		Metrics:     metrics,
		Logger:      logger,
	})
	return f
}

// register binds a builder identifier. Every configuration gets its own
// fakeBuilder sharing the given behavior.
func (f *fixture) register(id string, b behavior, callOnEmptyDelta bool) {
	f.t.Helper()
	require.NoError(f.t, f.registry.Register(registry.Registration{
		ID:               id,
		CallOnEmptyDelta: callOnEmptyDelta,
		Factory: func(target domain.ConfigRef, _ domain.BuildCommand) (ports.Builder, error) {
			f.factories.Add(1)
			if b.factoryErr != nil {
				return nil, b.factoryErr
			}
			fb := &fakeBuilder{id: id, target: target, behavior: b, events: f.events}
			f.mu.Lock()
			f.builders[target.String()+"/"+id] = fb
			f.mu.Unlock()
			return fb, nil
		},
	}))
}

func (f *fixture) builder(target domain.ConfigRef, id string) *fakeBuilder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.builders[target.String()+"/"+id]
}

func (f *fixture) run(ctx context.Context, trigger domain.TriggerKind, configs ...domain.ConfigRef) (*scheduler.Result, error) {
	return f.sched.Run(ctx, scheduler.Request{
		Configs:  configs,
		Trigger:  trigger,
		Settings: f.settings,
	})
}

func (f *fixture) mustRun(trigger domain.TriggerKind, configs ...domain.ConfigRef) *scheduler.Result {
	f.t.Helper()
	res, err := f.run(f.t.Context(), trigger, configs...)
	require.NoError(f.t, err)
	return res
}

// behavior configures what a fakeBuilder does.
type behavior struct {
	rule        func(target domain.ConfigRef) domain.SchedulingRule
	sleep       time.Duration
	build       func(ctx context.Context, req ports.BuildRequest) ([]domain.ConfigRef, error)
	clean       func(ctx context.Context, req ports.BuildRequest) error
	factoryErr  error
	interesting []domain.ConfigRef
}

type fakeBuilder struct {
	id       string
	target   domain.ConfigRef
	behavior behavior
	events   *eventLog

	mu       sync.Mutex
	requests []ports.BuildRequest
	cleans   int
}

func (b *fakeBuilder) Build(ctx context.Context, req ports.BuildRequest) ([]domain.ConfigRef, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()

	b.events.add("start " + b.target.String())
	defer b.events.add("end " + b.target.String())

	if b.behavior.sleep > 0 {
		select {
		case <-time.After(b.behavior.sleep):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if b.behavior.build != nil {
		return b.behavior.build(ctx, req)
	}
	return b.behavior.interesting, nil
}

func (b *fakeBuilder) Clean(ctx context.Context, req ports.BuildRequest) error {
	b.mu.Lock()
	b.cleans++
	b.mu.Unlock()
	b.events.add("clean " + b.target.String())
	if b.behavior.clean != nil {
		return b.behavior.clean(ctx, req)
	}
	return nil
}

func (b *fakeBuilder) Rule(domain.TriggerKind, map[string]string) domain.SchedulingRule {
	if b.behavior.rule != nil {
		return b.behavior.rule(b.target)
	}
	return domain.WorkspaceRule()
}

func (b *fakeBuilder) calls() []ports.BuildRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ports.BuildRequest(nil), b.requests...)
}

func (b *fakeBuilder) last() ports.BuildRequest {
	calls := b.calls()
	return calls[len(calls)-1]
}

func projectRule(target domain.ConfigRef) domain.SchedulingRule {
	return domain.ProjectRule(target.Project)
}

// eventLog records builder activity in order.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func (l *eventLog) index(e string) int {
	for i, got := range l.all() {
		if got == e {
			return i
		}
	}
	return -1
}

func (l *eventLog) count(prefix string) int {
	n := 0
	for _, e := range l.all() {
		if len(e) >= len(prefix) && e[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func newProject(name string, builders ...string) *domain.Project {
	p := domain.NewProject(name)
	for _, b := range builders {
		p.Commands = append(p.Commands, domain.BuildCommand{Builder: b})
	}
	return p
}
