// Package memtree implements an in-memory resource tree.
package memtree

import (
	"context"
	"maps"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/kiln/internal/core/domain"
)

// Tree holds project files in memory and notifies listeners on every change.
// Listeners receive the context of the mutation, so changes made by a running
// build carry that build's invocation.
type Tree struct {
	mu        sync.RWMutex
	projects  map[string]map[string]uint64
	listeners []func(context.Context)
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{projects: make(map[string]map[string]uint64)}
}

// OnChange registers a listener invoked after every mutation.
func (t *Tree) OnChange(fn func(ctx context.Context)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// Write creates or replaces a file.
func (t *Tree) Write(ctx context.Context, project, path, content string) {
	t.mutate(ctx, func() {
		files, ok := t.projects[project]
		if !ok {
			files = make(map[string]uint64)
			t.projects[project] = files
		}
		files[path] = xxhash.Sum64String(content)
	})
}

// Remove deletes a file.
func (t *Tree) Remove(ctx context.Context, project, path string) {
	t.mutate(ctx, func() {
		delete(t.projects[project], path)
	})
}

// Snapshot implements ports.ResourceTree.
func (t *Tree) Snapshot(_ context.Context, project *domain.Project) (*domain.Snapshot, error) {
	t.mu.RLock()
	files := maps.Clone(t.projects[project.Name])
	t.mu.RUnlock()
	return domain.NewSnapshot(project.Name, files), nil
}

func (t *Tree) mutate(ctx context.Context, fn func()) {
	t.mu.Lock()
	fn()
	listeners := append([]func(context.Context){}, t.listeners...)
	t.mu.Unlock()

	for _, l := range listeners {
		l(ctx)
	}
}
