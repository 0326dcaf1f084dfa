// Package cas persists build states as compressed, content-addressed files.
package cas

import (
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// Store implements ports.BuildStateStore using a file per configuration.
type Store struct {
	dir string
}

// NewStore creates a new BuildStateStore backed by the directory at the given path.
func NewStore(dir string) (*Store, error) {
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreCreateFailed.Error()), "path", dir)
	}
	return &Store{dir: dir}, nil
}

// Load retrieves the state of a configuration.
func (s *Store) Load(ref domain.ConfigRef) (*domain.BuildState, bool, error) {
	filename := s.filename(ref)
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "config", ref.String())
	}

	state, err := decode(data)
	if err != nil {
		return nil, false, zerr.With(err, "config", ref.String())
	}
	return state, true, nil
}

// Save stores the state of a configuration. The file is replaced atomically.
func (s *Store) Save(ref domain.ConfigRef, state *domain.BuildState) error {
	data, err := encode(state)
	if err != nil {
		return zerr.With(err, "config", ref.String())
	}

	if err := os.MkdirAll(s.dir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreCreateFailed.Error())
	}

	tmp, err := os.CreateTemp(s.dir, ".state-*")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	if err := os.Chmod(tmp.Name(), domain.FilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	if err := os.Rename(tmp.Name(), s.filename(ref)); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "config", ref.String())
	}
	return nil
}

// Delete removes the state of a configuration.
func (s *Store) Delete(ref domain.ConfigRef) error {
	err := os.Remove(s.filename(ref))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreDeleteFailed.Error()), "config", ref.String())
	}
	return nil
}

// Dir returns the directory holding the state files.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) filename(ref domain.ConfigRef) string {
	sum := blake3.Sum256([]byte(ref.String()))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".state")
}

func timeFromUnixNano(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
