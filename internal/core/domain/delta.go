package domain

import (
	"path"
	"slices"
	"strings"
)

// ChangeKind describes how a file differs between two snapshots.
type ChangeKind uint8

const (
	// Added marks a file present only in the newer snapshot.
	Added ChangeKind = iota + 1
	// Modified marks a file whose content hash changed.
	Modified
	// Removed marks a file present only in the older snapshot.
	Removed
)

// String returns the lower-case name of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Change is one changed file.
type Change struct {
	Path string
	Kind ChangeKind
}

// Delta is the set of changes of a configuration's resource tree since a baseline.
// Deltas are immutable once built.
type Delta struct {
	config  ConfigRef
	changes []Change
}

// EmptyDelta returns a delta without changes.
func EmptyDelta(ref ConfigRef) *Delta {
	return &Delta{config: ref}
}

// Diff computes the changes from base to cur. A nil base is the empty tree,
// so every file of cur is reported as added.
func Diff(ref ConfigRef, base, cur *Snapshot) *Delta {
	d := &Delta{config: ref}
	if cur == nil {
		cur = &Snapshot{}
	}
	var baseFiles map[InternedString]uint64
	if base != nil {
		baseFiles = base.Files
	}

	for p, h := range cur.Files {
		old, ok := baseFiles[p]
		switch {
		case !ok:
			d.changes = append(d.changes, Change{Path: p.String(), Kind: Added})
		case old != h:
			d.changes = append(d.changes, Change{Path: p.String(), Kind: Modified})
		}
	}
	for p := range baseFiles {
		if _, ok := cur.Files[p]; !ok {
			d.changes = append(d.changes, Change{Path: p.String(), Kind: Removed})
		}
	}

	slices.SortFunc(d.changes, func(a, b Change) int {
		return strings.Compare(a.Path, b.Path)
	})
	return d
}

// Config returns the configuration the delta belongs to.
func (d *Delta) Config() ConfigRef {
	return d.config
}

// Empty reports whether nothing changed.
func (d *Delta) Empty() bool {
	return d == nil || len(d.changes) == 0
}

// Changes returns the changes sorted by path.
func (d *Delta) Changes() []Change {
	if d == nil {
		return nil
	}
	return slices.Clone(d.changes)
}

// Paths returns the changed paths in sorted order.
func (d *Delta) Paths() []string {
	if d == nil {
		return nil
	}
	paths := make([]string, len(d.changes))
	for i, c := range d.changes {
		paths[i] = c.Path
	}
	return paths
}

// Affected reports whether any change lies at or below dir.
func (d *Delta) Affected(dir string) bool {
	if d == nil {
		return false
	}
	dir = path.Clean(dir)
	if dir == "." || dir == "/" {
		return len(d.changes) > 0
	}
	for _, c := range d.changes {
		if c.Path == dir || strings.HasPrefix(c.Path, dir+"/") {
			return true
		}
	}
	return false
}

// Equal reports whether two deltas describe the same changes.
func (d *Delta) Equal(other *Delta) bool {
	if d.Empty() || other.Empty() {
		return d.Empty() && other.Empty()
	}
	return slices.Equal(d.changes, other.changes)
}
