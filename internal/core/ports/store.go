package ports

import "go.trai.ch/kiln/internal/core/domain"

// BuildStateStore persists the last-built state of build configurations.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type BuildStateStore interface {
	// Save stores the state of a configuration, replacing any previous state.
	Save(ref domain.ConfigRef, state *domain.BuildState) error

	// Load retrieves the state of a configuration.
	// It returns false if no state was saved.
	Load(ref domain.ConfigRef) (*domain.BuildState, bool, error)

	// Delete removes the state of a configuration. Deleting a missing state is not an error.
	Delete(ref domain.ConfigRef) error
}

// BuildStateStoreProvider opens the build state store of a workspace.
type BuildStateStoreProvider interface {
	// Open returns the store rooted at the given workspace root.
	Open(root string) (BuildStateStore, error)
}
