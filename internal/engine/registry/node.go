package registry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/shell"
	"go.trai.ch/kiln/internal/core/ports"
)

// CatalogNodeID is the unique identifier for the builder catalog Graft node.
const CatalogNodeID graft.ID = "engine.catalog"

func init() {
	graft.Register(graft.Node[*Catalog]{
		ID:        CatalogNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{shell.NodeID},
		Run: func(ctx context.Context) (*Catalog, error) {
			exec, err := graft.Dep[ports.BuilderKind](ctx)
			if err != nil {
				return nil, err
			}
			return NewCatalog(exec), nil
		},
	})
}
