// Package engine is the build service a workspace session talks to.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/autobuild"
	"go.trai.ch/kiln/internal/engine/buildstate"
	"go.trai.ch/kiln/internal/engine/coordinator"
	"go.trai.ch/kiln/internal/engine/cycle"
	"go.trai.ch/kiln/internal/engine/registry"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// Options holds the collaborators of an Engine.
type Options struct {
	Workspace *domain.Workspace
	Registry  *registry.Registry
	Tree      ports.ResourceTree
	Store     ports.BuildStateStore
	Logger    ports.Logger
	Tracer    ports.Tracer
	Metrics   ports.Metrics
	Settings  domain.Settings
}

// Engine owns the scheduler, the persisted build states and the auto-build job
// of one workspace session. It is constructed at session start and torn down
// with Shutdown.
type Engine struct {
	ws     *domain.Workspace
	states *buildstate.Manager
	coord  *coordinator.Coordinator
	sched  *scheduler.Scheduler
	job    *autobuild.Job
	logger ports.Logger

	mu       sync.RWMutex
	settings domain.Settings
	closed   bool
}

// New creates an Engine.
func New(opts Options) *Engine {
	settings := opts.Settings.Normalize()
	e := &Engine{
		ws:       opts.Workspace,
		states:   buildstate.NewManager(opts.Store, opts.Logger),
		coord:    coordinator.New(settings.MaxConcurrentBuilds, coordinator.WithRunningObserver(opts.Metrics.SetRunning)),
		logger:   opts.Logger,
		settings: settings,
	}
	e.sched = scheduler.NewScheduler(scheduler.Deps{
		Workspace:   opts.Workspace,
		Registry:    opts.Registry,
		Tree:        opts.Tree,
		States:      e.states,
		Coordinator: e.coord,
		Tracer:      opts.Tracer,
		Metrics:     opts.Metrics,
		Logger:      opts.Logger,
	})
	e.job = autobuild.New(e.autoBuild, e.Settings, opts.Logger)
	return e
}

// Workspace returns the workspace the engine builds.
func (e *Engine) Workspace() *domain.Workspace {
	return e.ws
}

// Settings returns the current settings.
func (e *Engine) Settings() domain.Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings
}

// SetSettings replaces the settings. Running invocations keep the settings
// they started with.
func (e *Engine) SetSettings(s domain.Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings = s.Normalize()
}

// RequestBuild runs an explicit build of the given configurations and blocks
// until it finishes. An empty list builds the active configuration of every
// open project. Canceling ctx cancels the build.
func (e *Engine) RequestBuild(ctx context.Context, configs []domain.ConfigRef, trigger domain.TriggerKind) (*scheduler.Result, error) {
	if e.isClosed() {
		return nil, zerr.Wrap(domain.ErrBuildCanceled, "engine is shut down")
	}
	return e.sched.Run(ctx, scheduler.Request{
		Configs:  configs,
		Trigger:  trigger,
		Settings: e.Settings(),
	})
}

// NotifyChange reports a change of the workspace's resources. Changes made
// on a context carrying a running invocation are attributed to it.
func (e *Engine) NotifyChange(ctx context.Context) {
	e.job.Notify(domain.InvocationFrom(ctx))
}

// WaitForAutoBuild blocks until no auto build is scheduled or running.
func (e *Engine) WaitForAutoBuild(timeout time.Duration) error {
	return e.job.Wait(timeout)
}

// Suspend stops auto builds from starting.
func (e *Engine) Suspend() {
	e.job.Suspend()
}

// Resume allows auto builds again.
func (e *Engine) Resume() {
	e.job.Resume()
}

// CloseProject closes a project and persists its build states.
func (e *Engine) CloseProject(name string) error {
	if err := e.ws.SetOpen(name, false); err != nil {
		return err
	}
	return e.states.Unload(name)
}

// OpenProject reopens a project. Its build states are loaded on first use.
func (e *Engine) OpenProject(name string) error {
	return e.ws.SetOpen(name, true)
}

// DeleteProject removes a project and its persisted build states.
func (e *Engine) DeleteProject(name string) error {
	p, ok := e.ws.Project(name)
	if !ok {
		return zerr.With(zerr.Wrap(domain.ErrProjectNotFound, "cannot delete project"), "project", name)
	}
	if err := e.ws.Delete(name); err != nil {
		return err
	}
	return e.states.Delete(name, p.Configs)
}

// Save persists every modified build state.
func (e *Engine) Save() error {
	return e.states.Save()
}

// Shutdown stops the auto-build job and persists every modified build state.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.job.Close()
	if err := e.states.Save(); err != nil {
		return errors.Join(zerr.New("failed to persist build state"), err)
	}
	return nil
}

func (e *Engine) isClosed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closed
}

func (e *Engine) autoBuild(ctx context.Context, id domain.InvocationID, ctl *cycle.Controller) error {
	res, err := e.sched.Run(ctx, scheduler.Request{
		Trigger:    domain.TriggerAuto,
		Settings:   e.Settings(),
		Invocation: id,
		Cycle:      ctl,
	})
	if res != nil && res.Count(scheduler.OutcomeBuilt) > 0 {
		e.logger.Info("auto build " + id.String() + " finished: " + string(res.Phase))
	}
	return err
}
