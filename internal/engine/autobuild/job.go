// Package autobuild turns workspace change notifications into debounced auto builds.
package autobuild

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/cycle"
	"go.trai.ch/zerr"
)

// RunFunc runs one auto-build invocation. The controller has already begun
// invocation id and receives the change notifications that arrive while it runs.
type RunFunc func(ctx context.Context, id domain.InvocationID, ctl *cycle.Controller) error

// Job coalesces change notifications into auto-build invocations.
//
// The first notification arms a timer for the auto-build delay. Notifications
// arriving before it fires are coalesced. While an invocation runs, notifications
// are routed to its cycle controller: those issued by the invocation itself are
// ignored, and any other one causes exactly one extra pass.
type Job struct {
	run      RunFunc
	settings func() domain.Settings
	logger   ports.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	timer     *time.Timer
	gen       uint64
	pending   bool
	running   *cycle.Controller
	suspended bool
	closed    bool
	changed   chan struct{}
}

// New creates a job that starts invocations through run. Settings are read on
// every notification and when an invocation starts.
func New(run RunFunc, settings func() domain.Settings, logger ports.Logger) *Job {
	ctx, cancel := context.WithCancel(context.Background())
	return &Job{
		run:      run,
		settings: settings,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		changed:  make(chan struct{}),
	}
}

// Notify reports a workspace change made by origin. A zero origin is a change
// made outside of any build.
func (j *Job) Notify(origin domain.InvocationID) {
	if !j.settings().AutoBuilding {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return
	}
	if j.running != nil && j.running.Request(origin) {
		return
	}
	j.pending = true
	j.arm()
	j.broadcast()
}

// Suspend stops new invocations from starting. A running invocation finishes.
func (j *Job) Suspend() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.suspended = true
	j.disarm()
	j.broadcast()
}

// Resume lifts a suspension and schedules the work that piled up meanwhile.
func (j *Job) Resume() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.suspended = false
	if j.pending {
		j.arm()
	}
	j.broadcast()
}

// Suspended reports whether the job is suspended.
func (j *Job) Suspended() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.suspended
}

// Busy reports whether an invocation is scheduled or running.
func (j *Job) Busy() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.pending || j.running != nil
}

// Wait blocks until no invocation is scheduled or running. It fails with
// domain.ErrSchedulerSuspended as soon as pending work cannot start because the
// job is suspended, and with domain.ErrWaitTimeout once timeout has elapsed.
func (j *Job) Wait(timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		j.mu.Lock()
		switch {
		case !j.pending && j.running == nil:
			j.mu.Unlock()
			return nil
		case j.suspended && j.running == nil:
			j.mu.Unlock()
			return zerr.Wrap(domain.ErrSchedulerSuspended, "auto build cannot run")
		}
		wait := j.changed
		j.mu.Unlock()

		select {
		case <-wait:
		case <-deadline.C:
			return zerr.With(zerr.Wrap(domain.ErrWaitTimeout, "auto build still running"), "timeout", timeout.String())
		}
	}
}

// Close cancels a running invocation, drops pending work and waits for the
// invocation to return. Notifications after Close are ignored.
func (j *Job) Close() {
	j.mu.Lock()
	j.closed = true
	j.pending = false
	j.disarm()
	j.broadcast()
	j.mu.Unlock()

	j.cancel()
	j.wg.Wait()
}

// arm starts the debounce timer unless it is running, an invocation is in
// flight, or the job is suspended. Callers hold j.mu.
func (j *Job) arm() {
	if j.timer != nil || j.running != nil || j.suspended || j.closed {
		return
	}
	j.gen++
	gen := j.gen
	j.timer = time.AfterFunc(j.settings().AutoBuildDelay, func() { j.fire(gen) })
}

// disarm stops the debounce timer. A callback already past its timer sees a
// newer generation and does nothing. Callers hold j.mu.
func (j *Job) disarm() {
	j.gen++
	if j.timer != nil {
		j.timer.Stop()
		j.timer = nil
	}
}

func (j *Job) fire(gen uint64) {
	j.mu.Lock()
	if gen != j.gen {
		j.mu.Unlock()
		return
	}
	j.timer = nil
	if !j.pending || j.running != nil || j.suspended || j.closed {
		j.mu.Unlock()
		return
	}

	id := domain.NewInvocationID()
	ctl := cycle.NewController(j.settings().Normalize().MaxBuildIterations)
	ctl.Begin(id)
	j.pending = false
	j.running = ctl
	j.wg.Add(1)
	j.broadcast()
	j.mu.Unlock()

	go j.execute(id, ctl)
}

func (j *Job) execute(id domain.InvocationID, ctl *cycle.Controller) {
	defer j.wg.Done()

	if err := j.run(j.ctx, id, ctl); err != nil && !errors.Is(err, context.Canceled) {
		j.logger.Error(zerr.With(zerr.Wrap(err, "auto build failed"), "invocation", id.String()))
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	j.running = nil
	if j.pending {
		j.arm()
	}
	j.broadcast()
}

func (j *Job) broadcast() {
	close(j.changed)
	j.changed = make(chan struct{})
}
