package cas

import (
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
)

// MemoryStore implements ports.BuildStateStore in memory. States are kept in
// their encoded form, so loading yields an independent copy just like the
// on-disk store.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[domain.ConfigRef][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[domain.ConfigRef][]byte)}
}

// Load retrieves the state of a configuration.
func (s *MemoryStore) Load(ref domain.ConfigRef) (*domain.BuildState, bool, error) {
	s.mu.RLock()
	data, ok := s.files[ref]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	state, err := decode(data)
	if err != nil {
		return nil, false, err
	}
	return state, true, nil
}

// Save stores the state of a configuration.
func (s *MemoryStore) Save(ref domain.ConfigRef, state *domain.BuildState) error {
	data, err := encode(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[ref] = data
	return nil
}

// Delete removes the state of a configuration.
func (s *MemoryStore) Delete(ref domain.ConfigRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, ref)
	return nil
}

// Len returns the number of stored states.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
