package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// ResourceTree is the mutable project content the engine diffs between builds.
//
//go:generate mockgen -source=tree.go -destination=mocks/mock_tree.go -package=mocks
type ResourceTree interface {
	// Snapshot captures the current content of a project.
	Snapshot(ctx context.Context, project *domain.Project) (*domain.Snapshot, error)
}
