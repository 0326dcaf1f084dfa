// Package registry maps builder identifiers to the factories that instantiate them.
package registry

import (
	"slices"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultBuilder is the builder identifier bound when the workspace declares none.
const DefaultBuilder = "exec"

// Registration binds a builder identifier to a factory.
type Registration struct {
	ID      string
	Factory ports.BuilderFactory
	// CallOnEmptyDelta invokes the builder on incremental passes even when
	// nothing it observes changed.
	CallOnEmptyDelta bool
}

// Registry holds builder registrations.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Registration
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]Registration)}
}

// Register adds a registration. Identifiers are unique.
func (r *Registry) Register(reg Registration) error {
	if reg.ID == "" || reg.Factory == nil {
		return zerr.With(zerr.Wrap(domain.ErrInvalidRegistration, "cannot register builder"), "builder", reg.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[reg.ID]; exists {
		return zerr.With(zerr.Wrap(domain.ErrBuilderAlreadyRegistered, "cannot register builder"), "builder", reg.ID)
	}
	r.entries[reg.ID] = reg
	return nil
}

// Lookup returns the registration for a builder identifier.
func (r *Registry) Lookup(id string) (Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.entries[id]
	if !ok {
		return Registration{}, zerr.With(zerr.Wrap(domain.ErrBuilderNotFound, "cannot resolve builder"), "builder", id)
	}
	return reg, nil
}

// IDs returns the registered identifiers in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Catalog holds the builder kinds available to workspace configuration.
type Catalog struct {
	kinds map[string]ports.BuilderKind
}

// NewCatalog creates a catalog of builder kinds.
func NewCatalog(kinds ...ports.BuilderKind) *Catalog {
	c := &Catalog{kinds: make(map[string]ports.BuilderKind, len(kinds))}
	for _, k := range kinds {
		c.kinds[k.Name()] = k
	}
	return c
}

// Registry builds a registry from workspace builder declarations. Without
// declarations the DefaultBuilder identifier is bound to the kind of the same name.
func (c *Catalog) Registry(specs []domain.BuilderSpec) (*Registry, error) {
	if len(specs) == 0 {
		specs = []domain.BuilderSpec{{ID: DefaultBuilder, Kind: DefaultBuilder}}
	}

	r := New()
	for _, spec := range specs {
		kind, ok := c.kinds[spec.Kind]
		if !ok {
			err := zerr.With(zerr.Wrap(domain.ErrBuilderKindNotFound, "cannot bind builder"), "builder", spec.ID)
			return nil, zerr.With(err, "kind", spec.Kind)
		}
		if err := r.Register(Registration{
			ID:               spec.ID,
			Factory:          kind.New,
			CallOnEmptyDelta: spec.CallOnEmptyDelta,
		}); err != nil {
			return nil, err
		}
	}
	return r, nil
}
