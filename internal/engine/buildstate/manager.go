// Package buildstate tracks the last committed build state of every
// configuration and computes the deltas builders observe.
package buildstate

import (
	"errors"
	"sync"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Manager holds build states in memory and persists them through a store.
// States are loaded lazily on first access.
type Manager struct {
	store  ports.BuildStateStore
	logger ports.Logger
	now    func() time.Time

	mu     sync.Mutex
	states map[domain.ConfigRef]*entry
}

type entry struct {
	state *domain.BuildState
	dirty bool
}

// NewManager creates a Manager backed by store.
func NewManager(store ports.BuildStateStore, logger ports.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: logger,
		now:    time.Now,
		states: make(map[domain.ConfigRef]*entry),
	}
}

// entryFor returns the in-memory state of ref, loading it if needed. Must be called with mu held.
func (m *Manager) entryFor(ref domain.ConfigRef) *entry {
	if e, ok := m.states[ref]; ok {
		return e
	}

	e := &entry{state: domain.NewBuildState(ref)}
	state, ok, err := m.store.Load(ref)
	switch {
	case err != nil:
		m.logger.Warn("discarding unreadable build state of " + ref.String() + ": " + err.Error())
	case ok && state != nil:
		state.Config = ref
		if state.Builders == nil {
			state.Builders = make(map[string]*domain.BuilderState)
		}
		e.state = state
	}
	m.states[ref] = e
	return e
}

// Baseline returns a copy of the committed state of one builder, or nil.
func (m *Manager) Baseline(ref domain.ConfigRef, builder string) *domain.BuilderState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entryFor(ref).state.Builders[builder].Clone()
}

// EffectiveTrigger upgrades incremental and auto triggers to full when the
// builder has no baseline to diff against. Other triggers are returned unchanged.
func (m *Manager) EffectiveTrigger(ref domain.ConfigRef, builder string, requested domain.TriggerKind) domain.TriggerKind {
	if !requested.IsIncremental() {
		return requested
	}
	if !m.Baseline(ref, builder).HasBaseline() {
		return domain.TriggerFull
	}
	return requested
}

// Commit records a successful build. When forget is set the builder's baseline
// is discarded instead, so its next build is a full build against an empty tree.
func (m *Manager) Commit(
	ref domain.ConfigRef,
	builder string,
	tree *domain.Snapshot,
	interesting map[domain.ConfigRef]*domain.Snapshot,
	forget bool,
) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entryFor(ref)
	if forget {
		e.state.Builders[builder] = &domain.BuilderState{Builder: builder, Forgotten: true, BuiltAt: m.now()}
	} else {
		e.state.Builders[builder] = &domain.BuilderState{
			Builder:     builder,
			Tree:        tree,
			Interesting: interesting,
			BuiltAt:     m.now(),
		}
	}
	e.dirty = true
}

// Forget discards the baseline of one builder.
func (m *Manager) Forget(ref domain.ConfigRef, builder string) {
	m.Commit(ref, builder, nil, nil, true)
}

// Discard drops the state of one builder, as after a clean.
func (m *Manager) Discard(ref domain.ConfigRef, builder string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entryFor(ref)
	if _, ok := e.state.Builders[builder]; ok {
		delete(e.state.Builders, builder)
		e.dirty = true
	}
}

// Invalidate discards every builder state of a configuration.
func (m *Manager) Invalidate(ref domain.ConfigRef) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entryFor(ref)
	e.state = domain.NewBuildState(ref)
	e.dirty = true
}

// Unload persists and drops the in-memory states of a project. Each
// configuration is persisted separately and loads back on next access.
func (m *Manager) Unload(project string) error {
	m.mu.Lock()
	var pending []*entry
	for ref, e := range m.states {
		if ref.Project != project {
			continue
		}
		if e.dirty {
			pending = append(pending, e)
		}
		delete(m.states, ref)
	}
	m.mu.Unlock()

	var errs error
	for _, e := range pending {
		if err := m.store.Save(e.state.Config, e.state); err != nil {
			errs = errors.Join(errs, zerr.With(err, "config", e.state.Config.String()))
		}
	}
	return errs
}

// Delete drops and removes the persisted states of a project's configurations.
func (m *Manager) Delete(project string, configs []string) error {
	m.mu.Lock()
	for ref := range m.states {
		if ref.Project == project {
			delete(m.states, ref)
		}
	}
	m.mu.Unlock()

	var errs error
	for _, c := range configs {
		if err := m.store.Delete(domain.NewConfigRef(project, c)); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}

// Save persists every modified state.
func (m *Manager) Save() error {
	m.mu.Lock()
	type job struct {
		e     *entry
		state *domain.BuildState
	}
	var jobs []job
	for _, e := range m.states {
		if e.dirty {
			jobs = append(jobs, job{e: e, state: cloneState(e.state)})
			e.dirty = false
		}
	}
	m.mu.Unlock()

	var g errgroup.Group
	for _, j := range jobs {
		g.Go(func() error {
			if err := m.store.Save(j.state.Config, j.state); err != nil {
				m.markDirty(j.e)
				return zerr.With(err, "config", j.state.Config.String())
			}
			return nil
		})
	}
	return g.Wait()
}

func (m *Manager) markDirty(e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.dirty = true
}

func cloneState(s *domain.BuildState) *domain.BuildState {
	c := domain.NewBuildState(s.Config)
	for k, v := range s.Builders {
		c.Builders[k] = v.Clone()
	}
	return c
}
