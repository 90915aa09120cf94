package source

import (
	"context"

	"tmods/internal/domain"
)

// Catalog is the interface each remote mod catalog adapter implements
type Catalog interface {
	// Identity
	ID() domain.Provider
	Name() string

	// Resolution
	FindVersion(ctx context.Context, id string, loader domain.ModLoader, gameVersions []string) (*domain.Version, error)
	GetInstalledMetadata(ctx context.Context, id, versionID string, loader domain.ModLoader, gameVersions []string) (*domain.InstalledMetadata, error)
	GetResourceMetadata(ctx context.Context, id, versionID string) (*domain.ResourceMetadata, error)
	ListDependencies(ctx context.Context, mod domain.ResolvedVersion, loader domain.ModLoader, gameVersions []string) ([]domain.DependencyListEntry, error)

	// Discovery
	Search(ctx context.Context, query string, loader domain.ModLoader, gameVersions []string) (*domain.SearchResult, error)
	FileMetadata(ctx context.Context, path string, loader domain.ModLoader, gameVersions []string) (*domain.InstalledMetadata, error)

	// Downloads
	Download(ctx context.Context, mod domain.ResolvedVersion, dest string, popup domain.PopupFunc) error
}
