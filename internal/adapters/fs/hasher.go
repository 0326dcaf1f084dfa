package fs

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

type statKey struct {
	size    int64
	modTime time.Time
}

// Hasher computes file content hashes. Hashes are cached per path and reused
// while the file's size and modification time are unchanged.
type Hasher struct {
	mu    sync.Mutex
	cache map[string]cachedHash
}

type cachedHash struct {
	stat statKey
	hash uint64
}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{cache: make(map[string]cachedHash)}
}

// ComputeFileHash computes the XXHash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", path)
	}
	key := statKey{size: info.Size(), modTime: info.ModTime()}

	h.mu.Lock()
	c, ok := h.cache[path]
	h.mu.Unlock()
	if ok && c.stat == key {
		return c.hash, nil
	}

	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	digest := xxhash.New()
	if _, err := io.Copy(digest, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrFileHashFailed.Error()), "path", path)
	}
	sum := digest.Sum64()

	h.mu.Lock()
	h.cache[path] = cachedHash{stat: key, hash: sum}
	h.mu.Unlock()
	return sum, nil
}

// Forget drops the cached hash of path.
func (h *Hasher) Forget(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.cache, path)
}
