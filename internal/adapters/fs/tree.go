package fs

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"runtime"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Tree implements ports.ResourceTree on the local file system. A project's
// files live below its Location, or below root/<name> when it has none.
type Tree struct {
	root   string
	walker *Walker
	hasher *Hasher
}

// NewTree creates a tree for the workspace rooted at root.
func NewTree(root string, walker *Walker, hasher *Hasher) *Tree {
	return &Tree{root: root, walker: walker, hasher: hasher}
}

// Dir returns the directory holding the project's files.
func (t *Tree) Dir(project *domain.Project) string {
	if project.Location != "" {
		return project.Location
	}
	return filepath.Join(t.root, project.Name)
}

// Snapshot hashes every file of the project. A missing project directory
// yields an empty snapshot; files removed while hashing are left out.
func (t *Tree) Snapshot(ctx context.Context, project *domain.Project) (*domain.Snapshot, error) {
	dir := t.Dir(project)

	var (
		mu    sync.Mutex
		files = make(map[string]uint64)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for rel := range t.walker.WalkFiles(dir, project.Ignore) {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			path := filepath.Join(dir, filepath.FromSlash(rel))
			sum, err := t.hasher.ComputeFileHash(path)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					t.hasher.Forget(path)
					return nil
				}
				return err
			}
			mu.Lock()
			files[rel] = sum
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrSnapshotFailed.Error()), "project", project.Name)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return domain.NewSnapshot(project.Name, files), nil
}
