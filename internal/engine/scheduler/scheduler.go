// Package scheduler runs build invocations over the configurations of a workspace.
package scheduler

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/buildstate"
	"go.trai.ch/kiln/internal/engine/coordinator"
	"go.trai.ch/kiln/internal/engine/cycle"
	"go.trai.ch/kiln/internal/engine/registry"
	"go.trai.ch/zerr"
)

// Phase represents the state of an invocation.
type Phase string

const (
	// PhasePlanning indicates the build order is being resolved.
	PhasePlanning Phase = "Planning"
	// PhaseRunning indicates units are in flight.
	PhaseRunning Phase = "Running"
	// PhaseConverged indicates no further pass was requested.
	PhaseConverged Phase = "Converged"
	// PhaseIterationLimitReached indicates a rebuild request was dropped at the iteration limit.
	PhaseIterationLimitReached Phase = "IterationLimitReached"
	// PhaseCanceled indicates the caller stopped the invocation.
	PhaseCanceled Phase = "Canceled"
	// PhaseDone indicates the invocation has finished.
	PhaseDone Phase = "Done"
)

// Outcome describes how a build unit ended.
type Outcome string

const (
	// OutcomeBuilt indicates the builder ran and its state was committed.
	OutcomeBuilt Outcome = "Built"
	// OutcomeCleaned indicates the builder's clean operation ran.
	OutcomeCleaned Outcome = "Cleaned"
	// OutcomeSkipped indicates an incremental unit observed no changes.
	OutcomeSkipped Outcome = "Skipped"
	// OutcomeFailed indicates the unit returned an error.
	OutcomeFailed Outcome = "Failed"
	// OutcomeCanceled indicates the unit was stopped before it could commit.
	OutcomeCanceled Outcome = "Canceled"
)

// Request describes one top-level build invocation.
type Request struct {
	// Configs are the requested configurations. Empty means every open project.
	Configs []domain.ConfigRef
	// Trigger is the requested trigger kind.
	Trigger domain.TriggerKind
	// Settings are read once at invocation start.
	Settings domain.Settings
	// Invocation identifies the invocation. A new identifier is allocated when zero.
	Invocation domain.InvocationID
	// Cycle collects rebuild requests. When nil a controller is created and begun.
	Cycle *cycle.Controller
}

// UnitReport records the execution of one build unit.
type UnitReport struct {
	Config  domain.ConfigRef
	Builder string
	Pass    int
	Trigger domain.TriggerKind
	Outcome Outcome
	Delta   *domain.Delta
	Err     error
	Elapsed time.Duration
}

// Result is the aggregate result of an invocation.
type Result struct {
	Invocation domain.InvocationID
	Trigger    domain.TriggerKind
	Phase      Phase
	Phases     []Phase
	Passes     int
	Order      []domain.ConfigRef
	Dropped    []domain.Edge
	Units      []UnitReport
}

// Count returns the number of units that ended with the given outcome.
func (r *Result) Count(outcome Outcome) int {
	n := 0
	for _, u := range r.Units {
		if u.Outcome == outcome {
			n++
		}
	}
	return n
}

// Deps holds the collaborators of a Scheduler.
type Deps struct {
	Workspace   *domain.Workspace
	Registry    *registry.Registry
	Tree        ports.ResourceTree
	States      *buildstate.Manager
	Coordinator *coordinator.Coordinator
	Tracer      ports.Tracer
	Metrics     ports.Metrics
	Logger      ports.Logger
}

// Scheduler orchestrates build invocations.
type Scheduler struct {
	workspace *domain.Workspace
	registry  *registry.Registry
	tree      ports.ResourceTree
	states    *buildstate.Manager
	coord     *coordinator.Coordinator
	tracer    ports.Tracer
	metrics   ports.Metrics
	logger    ports.Logger

	mu        sync.Mutex
	instances map[instanceKey]*instance
}

// NewScheduler creates a new Scheduler with the given dependencies.
func NewScheduler(d Deps) *Scheduler {
	return &Scheduler{
		workspace: d.Workspace,
		registry:  d.Registry,
		tree:      d.Tree,
		states:    d.States,
		coord:     d.Coordinator,
		tracer:    d.Tracer,
		metrics:   d.Metrics,
		logger:    d.Logger,
		instances: make(map[instanceKey]*instance),
	}
}

// Run executes an invocation: it resolves the build order, runs every unit,
// and repeats the pass while the cycle controller asks for another one.
//
// Unit failures do not stop independent units. They are returned together,
// joined under domain.ErrBuildFailed. Cancellation of ctx stops scheduling
// and returns domain.ErrBuildCanceled.
func (s *Scheduler) Run(ctx context.Context, req Request) (*Result, error) {
	settings := req.Settings.Normalize()

	id := req.Invocation
	if id.IsZero() {
		id = domain.NewInvocationID()
	}
	ctl := req.Cycle
	if ctl == nil {
		ctl = cycle.NewController(settings.MaxBuildIterations)
		ctl.Begin(id)
	}

	inv := &invocation{
		s:      s,
		id:     id,
		cycle:  ctl,
		deltas: buildstate.NewDeltaCache(),
		slots:  s.coord.NewGroup(settings.MaxConcurrentBuilds),
		res:    &Result{Invocation: id, Trigger: req.Trigger},
	}
	inv.enter(PhasePlanning)

	ctx = domain.WithInvocation(ctx, id)
	ctx, span := s.tracer.Start(ctx, "invocation "+id.String(),
		ports.WithAttribute("kiln.trigger", req.Trigger.String()),
	)
	defer span.End()

	start := time.Now()
	s.metrics.InvocationStarted(req.Trigger.String())

	for pass := 1; ; pass++ {
		order := domain.ResolveBuildOrder(s.workspace, req.Configs)
		inv.plan(order)
		inv.enter(PhaseRunning)

		inv.runPass(ctx, pass, passTrigger(req.Trigger, pass), order)

		if !ctl.End(ctx.Err() == nil) {
			break
		}
		inv.enter(PhasePlanning)
	}

	switch {
	case ctx.Err() != nil:
		inv.enter(PhaseCanceled)
	case ctl.Truncated():
		s.logger.Warn("build did not converge within " + strconv.Itoa(settings.MaxBuildIterations) + " iterations")
		inv.enter(PhaseIterationLimitReached)
	default:
		inv.enter(PhaseConverged)
	}
	outcome := inv.res.Phase
	inv.enter(PhaseDone)
	inv.res.Phase = outcome
	inv.res.Passes = ctl.Iterations()

	s.metrics.InvocationFinished(req.Trigger.String(), string(outcome), inv.res.Passes, time.Since(start))

	var err error
	switch {
	case outcome == PhaseCanceled:
		err = errors.Join(domain.ErrBuildCanceled, ctx.Err(), inv.errs)
	case inv.errs != nil:
		err = errors.Join(domain.ErrBuildFailed, inv.errs)
	}
	if err != nil {
		span.RecordError(err)
	}
	return inv.res, err
}

// passTrigger returns the trigger of a pass. Passes after the first build
// incrementally on top of what the first pass committed.
func passTrigger(requested domain.TriggerKind, pass int) domain.TriggerKind {
	if pass == 1 || requested.IsIncremental() {
		return requested
	}
	return domain.TriggerIncremental
}

type invocation struct {
	s      *Scheduler
	id     domain.InvocationID
	cycle  *cycle.Controller
	deltas *buildstate.DeltaCache
	slots  *coordinator.Group

	mu       sync.Mutex
	res      *Result
	errs     error
	rebuilds map[rerunKey]bool
}

// rerunKey identifies a unit across the passes of one invocation.
type rerunKey struct {
	config domain.ConfigRef
	index  int
}

// requestRebuild records that u asked for another pass.
func (inv *invocation) requestRebuild(u unit) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.rebuilds == nil {
		inv.rebuilds = make(map[rerunKey]bool)
	}
	inv.rebuilds[rerunKey{config: u.config, index: u.index}] = true
}

// takeRebuilds returns the units that asked for another pass and forgets them.
func (inv *invocation) takeRebuilds() map[rerunKey]bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	r := inv.rebuilds
	inv.rebuilds = nil
	return r
}

func (inv *invocation) enter(p Phase) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.res.Phase = p
	inv.res.Phases = append(inv.res.Phases, p)
}

func (inv *invocation) plan(order *domain.BuildOrder) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	inv.res.Order = order.Configs()
	for _, e := range order.Dropped() {
		if !slices.Contains(inv.res.Dropped, e) {
			inv.res.Dropped = append(inv.res.Dropped, e)
			inv.s.logger.Warn("ignoring reference " + e.From.String() + " → " + e.To.String() + " to break a reference cycle")
		}
	}
}

func (inv *invocation) report(r UnitReport) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	inv.res.Units = append(inv.res.Units, r)
	if r.Err != nil && r.Outcome == OutcomeFailed {
		enhanced := zerr.With(zerr.Wrap(r.Err, domain.ErrUnitFailed.Error()), "config", r.Config.String())
		enhanced = zerr.With(enhanced, "builder", r.Builder)
		inv.errs = errors.Join(inv.errs, enhanced)
	}
	inv.s.metrics.UnitFinished(r.Builder, string(r.Outcome), r.Elapsed)
}

func (inv *invocation) fail(err error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.errs = errors.Join(inv.errs, err)
}

type passState struct {
	inv       *invocation
	ctx       context.Context
	pass      int
	trigger   domain.TriggerKind
	order     *domain.BuildOrder
	rerun     map[rerunKey]bool
	inDegree  map[domain.ConfigRef]int
	ready     []domain.ConfigRef
	active    int
	resultsCh chan domain.ConfigRef
}

func (inv *invocation) runPass(ctx context.Context, pass int, trigger domain.TriggerKind, order *domain.BuildOrder) {
	ctx, span := inv.s.tracer.Start(ctx, "pass "+strconv.Itoa(pass),
		ports.WithAttribute("kiln.trigger", trigger.String()),
	)
	defer span.End()

	configs := order.Configs()
	names := make([]string, len(configs))
	for i, c := range configs {
		names[i] = c.String()
	}
	inv.s.tracer.EmitPlan(ctx, names)

	state := &passState{
		inv:       inv,
		ctx:       ctx,
		pass:      pass,
		trigger:   trigger,
		order:     order,
		rerun:     inv.takeRebuilds(),
		inDegree:  make(map[domain.ConfigRef]int, len(configs)),
		resultsCh: make(chan domain.ConfigRef, len(configs)),
	}
	for _, c := range configs {
		n := len(order.Dependencies(c))
		state.inDegree[c] = n
		if n == 0 {
			state.ready = append(state.ready, c)
		}
	}
	state.runExecutionLoop()
}

func (state *passState) runExecutionLoop() {
	for !state.isDone() {
		state.schedule()

		if state.isDone() {
			break
		}

		if state.ctx.Err() != nil {
			// Let running configurations observe cancellation; start nothing new.
			state.handleResult(<-state.resultsCh)
			continue
		}

		select {
		case cfg := <-state.resultsCh:
			state.handleResult(cfg)
		case <-state.ctx.Done():
		}
	}
}

func (state *passState) isDone() bool {
	return state.active == 0 && (len(state.ready) == 0 || state.ctx.Err() != nil)
}

func (state *passState) schedule() {
	for len(state.ready) > 0 && state.ctx.Err() == nil {
		cfg := state.ready[0]
		state.ready = state.ready[1:]
		state.active++
		go state.executeConfig(cfg)
	}
}

func (state *passState) handleResult(cfg domain.ConfigRef) {
	state.active--

	// Dependents run even when a referenced configuration failed.
	for _, dep := range state.order.Dependents(cfg) {
		state.inDegree[dep]--
		if state.inDegree[dep] == 0 {
			state.ready = append(state.ready, dep)
		}
	}
}

// executeConfig runs the commands of one configuration in order.
func (state *passState) executeConfig(cfg domain.ConfigRef) {
	defer func() { state.resultsCh <- cfg }()

	project, ok := state.inv.s.workspace.Project(cfg.Project)
	if !ok || !project.Open {
		return
	}
	bctx := state.order.Context(cfg)

	for i, cmd := range project.Commands {
		if state.ctx.Err() != nil {
			return
		}
		state.executeUnit(unit{
			config:  cfg,
			project: project,
			index:   i,
			command: cmd,
			context: bctx,
		})
	}
}
