// Package fs provides the on-disk resource tree.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
)

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields the slash-separated paths, relative to root, of all files
// below root. VCS directories, the kiln directory and everything matching one
// of the ignore patterns are skipped. A pattern matches either the base name
// or the relative path.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Files vanishing mid-walk are not an error.
				return nil
			}
			if path == root {
				return nil
			}

			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)

			if skip, skipAction := w.shouldSkip(d, rel, ignores); skip {
				return skipAction
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}

			if !yield(rel) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// shouldSkip reports whether the entry is excluded and, for directories, the
// action that prunes it.
func (w *Walker) shouldSkip(d fs.DirEntry, rel string, ignores []string) (bool, error) {
	name := d.Name()

	if d.IsDir() && (name == ".git" || name == ".jj" || name == domain.KilnDirName) {
		return true, filepath.SkipDir
	}

	for _, ignore := range ignores {
		if matchesName(ignore, name) || matchesName(ignore, rel) {
			if d.IsDir() {
				return true, filepath.SkipDir
			}
			return true, nil
		}
	}
	return false, nil
}

func matchesName(pattern, name string) bool {
	matched, _ := filepath.Match(pattern, name)
	return matched
}
