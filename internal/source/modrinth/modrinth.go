package modrinth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tmods/internal/domain"
	"tmods/internal/download"
	"tmods/internal/ratelimit"
)

// Modrinth implements source.Catalog on top of the Modrinth API
type Modrinth struct {
	client  *Client
	fetcher *download.Fetcher
	log     *zap.Logger
}

// Option configures a Modrinth source
type Option func(*options)

type options struct {
	queueOpts []ratelimit.Option
	fetcher   *download.Fetcher
}

// WithQueueOptions tunes the rate-limited request queue
func WithQueueOptions(opts ...ratelimit.Option) Option {
	return func(o *options) { o.queueOpts = append(o.queueOpts, opts...) }
}

// WithFetcher sets the fetcher used for file downloads
func WithFetcher(f *download.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// New creates a Modrinth source. All API requests share one rate-limited queue.
func New(httpClient *http.Client, userAgent string, log *zap.Logger, opts ...Option) *Modrinth {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("modrinth")

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	queue := ratelimit.New(httpClient, append([]ratelimit.Option{ratelimit.WithLogger(log)}, o.queueOpts...)...)
	if o.fetcher == nil {
		o.fetcher = download.NewFetcher(httpClient, log)
	}

	return &Modrinth{
		client:  NewClient(queue, userAgent),
		fetcher: o.fetcher,
		log:     log,
	}
}

// SetBaseURL points the source at a different API root
func (m *Modrinth) SetBaseURL(baseURL string) {
	m.client.baseURL = baseURL
}

// ID returns the provider tag
func (m *Modrinth) ID() domain.Provider {
	return domain.ProviderModrinth
}

// Name returns the display name
func (m *Modrinth) Name() string {
	return "Modrinth"
}

// FindVersion returns the first version compatible with the loader and the first
// game version, trying the loader's tags in order. Lookup failures are logged and
// reported as domain.ErrNotFound.
func (m *Modrinth) FindVersion(ctx context.Context, id string, loader domain.ModLoader, gameVersions []string) (*domain.Version, error) {
	v, err := m.findVersion(ctx, id, loader, gameVersions)
	if err != nil {
		return nil, err
	}
	return versionToDomain(v), nil
}

func (m *Modrinth) findVersion(ctx context.Context, id string, loader domain.ModLoader, gameVersions []string) (*Version, error) {
	var gv []string
	if len(gameVersions) > 0 {
		gv = gameVersions[:1]
	}

	for _, tag := range loader.ModrinthCategories {
		versions, err := m.client.GetProjectVersions(ctx, id, []string{tag}, gv)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			m.log.Debug("version lookup failed", zap.String("project", id), zap.String("loader", tag), zap.Error(err))
			return nil, fmt.Errorf("%w: no compatible version for %s: %w", domain.ErrNotFound, id, err)
		}
		if len(versions) > 0 {
			return &versions[0], nil
		}
	}
	return nil, fmt.Errorf("%w: no compatible version for %s", domain.ErrNotFound, id)
}

// GetInstalledMetadata resolves metadata for an installed version and decides
// whether it should be replaced. A loader override wins when its target has a
// compatible version; otherwise a newer compatible version of the same project is
// offered when the installed one is not the latest.
func (m *Modrinth) GetInstalledMetadata(ctx context.Context, id, versionID string, loader domain.ModLoader, gameVersions []string) (*domain.InstalledMetadata, error) {
	var (
		project *Project
		version *Version
		members []TeamMember
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		project, err = m.client.GetProject(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		version, err = m.client.GetVersion(gctx, versionID)
		return err
	})
	g.Go(func() (err error) {
		members, err = m.client.GetProjectMembers(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return m.installedMetadata(ctx, project, version, members, loader, gameVersions)
}

func (m *Modrinth) installedMetadata(ctx context.Context, project *Project, version *Version, members []TeamMember, loader domain.ModLoader, gameVersions []string) (*domain.InstalledMetadata, error) {
	deps, err := mapDependencies(project.ID, version.Dependencies)
	if err != nil {
		return nil, err
	}

	update, err := m.updateVersion(ctx, project, version.ID, loader, gameVersions)
	if err != nil {
		return nil, err
	}

	return &domain.InstalledMetadata{
		Identity:      domain.ModIdentity{Provider: domain.ProviderModrinth, ID: project.ID, Slug: project.Slug},
		Version:       version.ID,
		Name:          project.Title,
		Description:   project.Description,
		Slug:          project.Slug,
		Icon:          project.IconURL,
		Authors:       memberNames(members),
		Dependencies:  deps,
		UpdateVersion: update,
	}, nil
}

func (m *Modrinth) updateVersion(ctx context.Context, project *Project, installed string, loader domain.ModLoader, gameVersions []string) (*domain.Version, error) {
	if target, ok := loader.OverrideFor(project.ID); ok {
		v, err := m.findVersion(ctx, target, loader, gameVersions)
		if err == nil {
			return versionToDomain(v), nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	if latest := len(project.Versions); latest > 0 && project.Versions[latest-1] == installed {
		return nil, nil
	}

	v, err := m.findVersion(ctx, project.ID, loader, gameVersions)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if v.ID == installed {
		return nil, nil
	}
	return versionToDomain(v), nil
}

// GetResourceMetadata returns display metadata for a non-mod project
func (m *Modrinth) GetResourceMetadata(ctx context.Context, id, versionID string) (*domain.ResourceMetadata, error) {
	project, err := m.client.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	members, err := m.client.GetProjectMembers(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.ResourceMetadata{
		Identity:    domain.ModIdentity{Provider: domain.ProviderModrinth, ID: project.ID, Slug: project.Slug},
		Version:     versionID,
		Name:        project.Title,
		Description: project.Description,
		Icon:        project.IconURL,
		Authors:     memberNames(members),
	}, nil
}

// Search finds client-side mods for the loader and game versions. Hits that the
// loader overrides are replaced by the override target when it is installable.
func (m *Modrinth) Search(ctx context.Context, query string, loader domain.ModLoader, gameVersions []string) (*domain.SearchResult, error) {
	facets := [][]string{
		Facet("categories", loader.ModrinthCategories...),
		Facet("versions", gameVersions...),
		Facet("client_side", "required", "optional"),
		Facet("project_type", "mod"),
	}

	resp, err := m.client.Search(ctx, SearchParams{Query: query, Facets: facets})
	if err != nil {
		return nil, err
	}

	hits := make([]domain.SearchHit, len(resp.Hits))
	g, gctx := errgroup.WithContext(ctx)
	for i, hit := range resp.Hits {
		g.Go(func() error {
			h, err := m.searchHit(gctx, hit, loader, gameVersions)
			if err != nil {
				return err
			}
			hits[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.SearchResult{Hits: hits, Count: resp.TotalHits}, nil
}

func (m *Modrinth) searchHit(ctx context.Context, hit SearchHit, loader domain.ModLoader, gameVersions []string) (domain.SearchHit, error) {
	if target, ok := loader.OverrideFor(hit.ProjectID); ok {
		if _, err := m.findVersion(ctx, target, loader, gameVersions); err == nil {
			project, err := m.client.GetProject(ctx, target)
			if err != nil {
				return domain.SearchHit{}, err
			}
			members, err := m.client.GetProjectMembers(ctx, target)
			if err != nil {
				return domain.SearchHit{}, err
			}
			return domain.SearchHit{
				Identity:    domain.ModIdentity{Provider: domain.ProviderModrinth, ID: project.ID, Slug: project.Slug},
				Name:        project.Title,
				Description: project.Description,
				Icon:        project.IconURL,
				Authors:     memberNames(members),
				Slug:        project.Slug,
			}, nil
		}
	}

	return domain.SearchHit{
		Identity:    domain.ModIdentity{Provider: domain.ProviderModrinth, ID: hit.ProjectID, Slug: hit.Slug},
		Name:        hit.Title,
		Description: hit.Description,
		Icon:        hit.IconURL,
		Authors:     []string{hit.Author},
		Slug:        hit.Slug,
	}, nil
}

// ListDependencies resolves each declared dependency of mod to a concrete version.
// A dependency naming a project is resolved to that project's compatible version,
// falling back to the pinned version when there is none. Required dependencies
// that cannot be resolved fail the call; others are returned without a version.
func (m *Modrinth) ListDependencies(ctx context.Context, mod domain.ResolvedVersion, loader domain.ModLoader, gameVersions []string) ([]domain.DependencyListEntry, error) {
	native, err := m.nativeVersion(ctx, mod.Version)
	if err != nil {
		return nil, err
	}

	var deps []Dependency
	for _, d := range native.Dependencies {
		if d.ProjectID != "" && d.ProjectID == native.ProjectID {
			continue
		}
		deps = append(deps, d)
	}

	entries := make([]domain.DependencyListEntry, len(deps))
	g, gctx := errgroup.WithContext(ctx)
	for i, d := range deps {
		g.Go(func() error {
			depType, err := domain.ParseDependencyType(d.DependencyType)
			if err != nil {
				return err
			}

			v, err := m.resolveDependency(gctx, d, loader, gameVersions)
			if err != nil && depType == domain.DependencyRequired {
				return fmt.Errorf("required dependency %s: %w", dependencyName(d), err)
			}

			entry := domain.DependencyListEntry{
				Mod:  domain.ResolvedVersion{Identity: domain.ModIdentity{Provider: domain.ProviderModrinth, ID: d.ProjectID}},
				Type: depType,
			}
			if v != nil {
				entry.Mod.Identity.ID = v.ProjectID
				entry.Mod.Version = versionToDomain(v)
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (m *Modrinth) resolveDependency(ctx context.Context, d Dependency, loader domain.ModLoader, gameVersions []string) (*Version, error) {
	if d.ProjectID != "" {
		v, err := m.findVersion(ctx, d.ProjectID, loader, gameVersions)
		if err == nil {
			return v, nil
		}
		if d.VersionID == "" {
			return nil, err
		}
	}
	if d.VersionID != "" {
		v, err := m.client.GetVersion(ctx, d.VersionID)
		if err != nil {
			return nil, fmt.Errorf("%w: dependency version %s: %w", domain.ErrNotFound, d.VersionID, err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("%w: dependency declares neither project nor version", domain.ErrNotFound)
}

// FileMetadata identifies a local file by its sha1 and resolves its installed metadata
func (m *Modrinth) FileMetadata(ctx context.Context, path string, loader domain.ModLoader, gameVersions []string) (*domain.InstalledMetadata, error) {
	sum, err := download.HashFile(path, domain.HashSHA1)
	if err != nil {
		return nil, err
	}

	version, err := m.client.GetVersionByHash(ctx, sum)
	if err != nil {
		return nil, err
	}
	project, err := m.client.GetProject(ctx, version.ProjectID)
	if err != nil {
		return nil, err
	}
	members, err := m.client.GetProjectMembers(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	return m.installedMetadata(ctx, project, version, members, loader, gameVersions)
}

// Download fetches the version's primary file to dest, verifying its sha1
// (or sha512 when no sha1 is published).
func (m *Modrinth) Download(ctx context.Context, mod domain.ResolvedVersion, dest string, popup domain.PopupFunc) error {
	file, ok := mod.Version.PrimaryFile()
	if !ok {
		return fmt.Errorf("%w: version has no files", domain.ErrNotFound)
	}

	req := download.Request{URL: file.URL, Dest: dest, Popup: popup}
	if h := file.Hashes[domain.HashSHA1]; h != "" {
		req.Hash, req.Algo = h, domain.HashSHA1
	} else if h := file.Hashes[domain.HashSHA512]; h != "" {
		req.Hash, req.Algo = h, domain.HashSHA512
	}
	return m.fetcher.Fetch(ctx, req)
}

// nativeVersion recovers the API record behind a domain version, fetching it
// when the version was built elsewhere.
func (m *Modrinth) nativeVersion(ctx context.Context, v *domain.Version) (*Version, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: no version to inspect", domain.ErrNotFound)
	}
	if native, ok := v.Raw.(*Version); ok && native != nil {
		return native, nil
	}
	return m.client.GetVersion(ctx, v.ID)
}

func mapDependencies(selfID string, deps []Dependency) ([]domain.Dependency, error) {
	out := make([]domain.Dependency, 0, len(deps))
	for _, d := range deps {
		if d.ProjectID != "" && d.ProjectID == selfID {
			continue
		}
		t, err := domain.ParseDependencyType(d.DependencyType)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Dependency{ID: d.ProjectID, Version: d.VersionID, Type: t})
	}
	return out, nil
}

func memberNames(members []TeamMember) []string {
	names := make([]string, 0, len(members))
	for _, mem := range members {
		names = append(names, mem.User.DisplayName())
	}
	return names
}

func dependencyName(d Dependency) string {
	if d.ProjectID != "" {
		return d.ProjectID
	}
	return d.VersionID
}

func versionToDomain(v *Version) *domain.Version {
	files := make([]domain.VersionFile, 0, len(v.Files))
	for _, f := range v.Files {
		hashes := make(map[domain.HashAlgo]string, 2)
		if f.Hashes.SHA1 != "" {
			hashes[domain.HashSHA1] = f.Hashes.SHA1
		}
		if f.Hashes.SHA512 != "" {
			hashes[domain.HashSHA512] = f.Hashes.SHA512
		}
		files = append(files, domain.VersionFile{
			URL:      f.URL,
			FileName: f.Filename,
			Size:     f.Size,
			Primary:  f.Primary,
			Hashes:   hashes,
		})
	}

	return &domain.Version{
		Provider:      domain.ProviderModrinth,
		ID:            v.ID,
		ProjectID:     v.ProjectID,
		Name:          v.Name,
		VersionNumber: v.VersionNumber,
		GameVersions:  v.GameVersions,
		Loaders:       v.Loaders,
		Files:         files,
		Raw:           v,
	}
}
