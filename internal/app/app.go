// Package app implements the application layer for kiln.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/kiln/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine"
	"go.trai.ch/kiln/internal/engine/registry"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.trai.ch/kiln/internal/ui/summary"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	loader  ports.WorkspaceLoader
	catalog *registry.Catalog
	stores  ports.BuildStateStoreProvider
	walker  *fs.Walker
	hasher  *fs.Hasher
	tracer  *telemetry.OTelTracer
	metrics ports.Metrics
	watcher ports.Watcher
	logger  ports.Logger

	dir    string
	output io.Writer
}

// New creates a new App instance.
func New(
	loader ports.WorkspaceLoader,
	catalog *registry.Catalog,
	stores ports.BuildStateStoreProvider,
	walker *fs.Walker,
	hasher *fs.Hasher,
	tracer *telemetry.OTelTracer,
	metrics ports.Metrics,
	w ports.Watcher,
	log ports.Logger,
) *App {
	return &App{
		loader:  loader,
		catalog: catalog,
		stores:  stores,
		walker:  walker,
		hasher:  hasher,
		tracer:  tracer,
		metrics: metrics,
		watcher: w,
		logger:  log,
		output:  os.Stdout,
	}
}

// WithDir sets the directory the workspace configuration is searched from.
// It defaults to the working directory.
func (a *App) WithDir(dir string) *App {
	a.dir = dir
	return a
}

// WithOutput sets the writer builder output is copied to.
func (a *App) WithOutput(w io.Writer) *App {
	a.output = w
	return a
}

// BuildOptions configuration for the Build method.
type BuildOptions struct {
	// Targets are configuration references. Empty builds every open project.
	Targets []string
	// Full ignores the committed baselines.
	Full bool
	// Jobs overrides the configured concurrency when positive.
	Jobs int
}

// Build runs one explicit build.
func (a *App) Build(ctx context.Context, opts BuildOptions) (err error) {
	refs, err := parseTargets(opts.Targets)
	if err != nil {
		return err
	}

	eng, _, err := a.open(opts.Jobs)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, eng.Shutdown())
	}()

	trigger := domain.TriggerIncremental
	if opts.Full {
		trigger = domain.TriggerFull
	}
	res, err := eng.RequestBuild(ctx, refs, trigger)
	a.report(res)
	return err
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	// Targets are configuration references. Empty cleans every open project.
	Targets []string
	// State removes the persisted build state afterwards.
	State bool
}

// Clean runs the clean operation of every builder of the targets.
func (a *App) Clean(ctx context.Context, opts CleanOptions) error {
	refs, err := parseTargets(opts.Targets)
	if err != nil {
		return err
	}

	eng, spec, err := a.open(0)
	if err != nil {
		return err
	}

	res, err := eng.RequestBuild(ctx, refs, domain.TriggerClean)
	a.report(res)
	err = errors.Join(err, eng.Shutdown())

	if opts.State {
		path := filepath.Join(spec.Root, domain.DefaultStatePath())
		a.logger.Info("removing build state...")
		if rmErr := os.RemoveAll(path); rmErr != nil {
			return errors.Join(err, zerr.With(zerr.Wrap(rmErr, "failed to remove build state"), "path", path))
		}
		a.logger.Info("removed build state")
	}
	return err
}

// WatchOptions configuration for the Watch method.
type WatchOptions struct {
	// MetricsAddr serves Prometheus metrics when set.
	MetricsAddr string
	// Jobs overrides the configured concurrency when positive.
	Jobs int
}

// Watch builds the workspace and keeps rebuilding it as files change until
// ctx is canceled.
func (a *App) Watch(ctx context.Context, opts WatchOptions) (err error) {
	eng, spec, err := a.open(opts.Jobs)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, eng.Shutdown())
	}()

	if !eng.Settings().AutoBuilding {
		a.logger.Warn("auto building is disabled, changes will not be built")
	}

	if err := a.watcher.Start(ctx, spec.Root); err != nil {
		return err
	}

	res, buildErr := eng.RequestBuild(ctx, nil, domain.TriggerIncremental)
	a.report(res)
	if buildErr != nil {
		a.logger.Error(buildErr)
	}

	debouncer := watcher.NewDebouncer(watcher.DefaultDebounceWindow, func(paths []string) {
		a.logger.Info(fmt.Sprintf("%d files changed", len(paths)))
		eng.NotifyChange(context.Background())
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for event := range a.watcher.Events() {
			debouncer.Add(event.Path)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return a.watcher.Stop()
	})

	if opts.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              opts.MetricsAddr,
			Handler:           a.metrics.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return zerr.With(zerr.Wrap(err, "metrics server failed"), "addr", opts.MetricsAddr)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			return srv.Shutdown(context.Background())
		})
		a.logger.Info("serving metrics on " + opts.MetricsAddr)
	}

	a.logger.Info("watching " + spec.Root)
	return g.Wait()
}

// open loads the workspace and assembles an engine for it.
func (a *App) open(jobs int) (*engine.Engine, *domain.WorkspaceSpec, error) {
	dir := a.dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, nil, zerr.Wrap(err, "failed to determine working directory")
		}
		dir = wd
	}

	spec, err := a.loader.Load(dir)
	if err != nil {
		return nil, nil, zerr.Wrap(err, "failed to load configuration")
	}
	ws, err := domain.NewWorkspaceFromSpec(spec)
	if err != nil {
		return nil, nil, zerr.Wrap(err, "invalid workspace")
	}
	reg, err := a.catalog.Registry(spec.Builders)
	if err != nil {
		return nil, nil, err
	}
	store, err := a.stores.Open(spec.Root)
	if err != nil {
		return nil, nil, err
	}

	settings := spec.Settings
	if jobs > 0 {
		settings.MaxConcurrentBuilds = jobs
	}

	eng := engine.New(engine.Options{
		Workspace: ws,
		Registry:  reg,
		Tree:      fs.NewTree(spec.Root, a.walker, a.hasher),
		Store:     store,
		Logger:    a.logger,
		Tracer:    a.tracer.WithOutput(a.output),
		Metrics:   a.metrics,
		Settings:  settings,
	})
	return eng, spec, nil
}

func (a *App) report(res *scheduler.Result) {
	if res == nil {
		return
	}

	summary.New(a.output).Print(summaryRows(res.Units), "")

	msg := fmt.Sprintf("%s build: %d built, %d skipped, %d failed",
		res.Trigger, res.Count(scheduler.OutcomeBuilt), res.Count(scheduler.OutcomeSkipped), res.Count(scheduler.OutcomeFailed))
	if n := res.Count(scheduler.OutcomeCleaned); n > 0 {
		msg = fmt.Sprintf("%s build: %d cleaned, %d failed", res.Trigger, n, res.Count(scheduler.OutcomeFailed))
	}
	if res.Passes > 1 {
		msg += fmt.Sprintf(" in %d passes", res.Passes)
	}
	a.logger.Info(msg)
}

var outcomeStatus = map[scheduler.Outcome]summary.Status{
	scheduler.OutcomeBuilt:    summary.StatusBuilt,
	scheduler.OutcomeSkipped:  summary.StatusSkipped,
	scheduler.OutcomeCleaned:  summary.StatusCleaned,
	scheduler.OutcomeFailed:   summary.StatusFailed,
	scheduler.OutcomeCanceled: summary.StatusCanceled,
}

func summaryRows(units []scheduler.UnitReport) []summary.Row {
	rows := make([]summary.Row, 0, len(units))
	for _, u := range units {
		rows = append(rows, summary.Row{
			Name:    u.Config.String(),
			Builder: u.Builder,
			Trigger: u.Trigger.String(),
			Pass:    u.Pass,
			Status:  outcomeStatus[u.Outcome],
			Elapsed: u.Elapsed,
			Err:     u.Err,
		})
	}
	return rows
}

func parseTargets(targets []string) ([]domain.ConfigRef, error) {
	refs := make([]domain.ConfigRef, 0, len(targets))
	for _, t := range targets {
		ref, err := domain.ParseConfigRef(t)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
