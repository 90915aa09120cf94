package source

import (
	"fmt"
	"slices"
	"sync"

	"tmods/internal/domain"
)

// Registry holds the configured catalogs, keyed by provider
type Registry struct {
	mu       sync.RWMutex
	catalogs map[domain.Provider]Catalog
}

// NewRegistry creates a registry with the given catalogs. Nil entries are skipped
// so an unconfigured CurseForge adapter can be passed through as-is.
func NewRegistry(catalogs ...Catalog) *Registry {
	r := &Registry{catalogs: make(map[domain.Provider]Catalog)}
	for _, c := range catalogs {
		if c != nil {
			r.Register(c)
		}
	}
	return r
}

// Register adds a catalog, replacing any previous catalog for the same provider
func (r *Registry) Register(c Catalog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalogs[c.ID()] = c
}

// Get returns the catalog for provider. Known providers without a registered
// catalog fail with ErrMissingCredential, since only CurseForge can be left
// unconfigured; anything else is ErrInvalidProvider.
func (r *Registry) Get(provider domain.Provider) (Catalog, error) {
	switch provider {
	case domain.ProviderModrinth, domain.ProviderCurseForge:
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidProvider, provider)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.catalogs[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not configured", domain.ErrMissingCredential, provider.DisplayName())
	}
	return c, nil
}

// Has reports whether a catalog is registered for provider
func (r *Registry) Has(provider domain.Provider) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.catalogs[provider]
	return ok
}

// List returns the registered catalogs, Modrinth first
func (r *Registry) List() []Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()

	catalogs := make([]Catalog, 0, len(r.catalogs))
	for _, c := range r.catalogs {
		catalogs = append(catalogs, c)
	}
	slices.SortFunc(catalogs, func(a, b Catalog) int {
		return providerRank(a.ID()) - providerRank(b.ID())
	})
	return catalogs
}

func providerRank(p domain.Provider) int {
	switch p {
	case domain.ProviderModrinth:
		return 0
	case domain.ProviderCurseForge:
		return 1
	default:
		return 2
	}
}
