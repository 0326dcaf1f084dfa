package cas

import (
	"context"
	"path/filepath"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the build state store provider Graft node.
const NodeID graft.ID = "adapter.build_state_store"

// Provider opens the on-disk store below a workspace root.
type Provider struct{}

// Open implements ports.BuildStateStoreProvider.
func (Provider) Open(root string) (ports.BuildStateStore, error) {
	return NewStore(filepath.Join(root, domain.DefaultStatePath()))
}

func init() {
	graft.Register(graft.Node[ports.BuildStateStoreProvider]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.BuildStateStoreProvider, error) {
			return Provider{}, nil
		},
	})
}
