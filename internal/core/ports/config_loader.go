package ports

import "go.trai.ch/kiln/internal/core/domain"

// WorkspaceLoader defines the interface for loading the workspace description.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type WorkspaceLoader interface {
	// Load reads the configuration from the given working directory.
	Load(cwd string) (*domain.WorkspaceSpec, error)
}
