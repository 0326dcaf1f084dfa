package domain

import (
	"encoding/binary"
	"maps"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// Snapshot is the content state of a project's resource tree at one point in time.
// Files maps a project-relative path to the hash of its content.
type Snapshot struct {
	Project     string
	Files       map[InternedString]uint64
	Fingerprint uint64
}

// NewSnapshot builds a snapshot and computes its fingerprint.
func NewSnapshot(project string, files map[string]uint64) *Snapshot {
	s := &Snapshot{
		Project: project,
		Files:   make(map[InternedString]uint64, len(files)),
	}
	for path, h := range files {
		s.Files[NewInternedString(path)] = h
	}
	s.Fingerprint = s.fingerprint()
	return s
}

// EmptySnapshot returns a snapshot without files.
func EmptySnapshot(project string) *Snapshot {
	return NewSnapshot(project, nil)
}

// Len returns the number of files in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Files)
}

// Paths returns the sorted file paths of the snapshot.
func (s *Snapshot) Paths() []string {
	if s == nil {
		return nil
	}
	paths := make([]string, 0, len(s.Files))
	for p := range s.Files {
		paths = append(paths, p.String())
	}
	slices.Sort(paths)
	return paths
}

// Clone returns a copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.Files = maps.Clone(s.Files)
	return &c
}

func (s *Snapshot) fingerprint() uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, p := range s.Paths() {
		_, _ = d.WriteString(p)
		_, _ = d.Write([]byte{0})
		binary.LittleEndian.PutUint64(buf[:], s.Files[NewInternedString(p)])
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}
