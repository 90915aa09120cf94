package curseforge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tmods/internal/domain"
	"tmods/internal/download"
)

// manualDownloadURL is the page a user visits when a file has no direct link
const manualDownloadURL = "https://www.curseforge.com/minecraft/mc-mods/%s/download/%d"

// CurseForge implements source.Catalog on top of the CurseForge API
type CurseForge struct {
	client  *Client
	fetcher *download.Fetcher
	log     *zap.Logger
}

// Option configures a CurseForge source
type Option func(*CurseForge)

// WithFetcher sets the fetcher used for file downloads
func WithFetcher(f *download.Fetcher) Option {
	return func(c *CurseForge) {
		if f != nil {
			c.fetcher = f
		}
	}
}

// New creates a new CurseForge source
func New(httpClient *http.Client, apiKey, userAgent string, log *zap.Logger, opts ...Option) *CurseForge {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("curseforge")

	c := &CurseForge{
		client:  NewClient(httpClient, apiKey, userAgent),
		fetcher: download.NewFetcher(httpClient, log),
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetBaseURL points the source at a different API root
func (c *CurseForge) SetBaseURL(baseURL string) {
	c.client.baseURL = baseURL
}

// ID returns the provider tag
func (c *CurseForge) ID() domain.Provider {
	return domain.ProviderCurseForge
}

// Name returns the display name
func (c *CurseForge) Name() string {
	return "CurseForge"
}

// IsAuthenticated returns true if an API key is configured
func (c *CurseForge) IsAuthenticated() bool {
	return c.client.IsAuthenticated()
}

// FindVersion returns the first file for the loader's category and the first
// game version. Lookup failures are logged and reported as domain.ErrNotFound.
func (c *CurseForge) FindVersion(ctx context.Context, id string, loader domain.ModLoader, gameVersions []string) (*domain.Version, error) {
	f, err := c.findFile(ctx, id, loader, gameVersions)
	if err != nil {
		return nil, err
	}
	return fileToDomain(f), nil
}

func (c *CurseForge) findFile(ctx context.Context, id string, loader domain.ModLoader, gameVersions []string) (*File, error) {
	modID, err := strconv.Atoi(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid mod ID %q", domain.ErrNotFound, id)
	}

	var gameVersion string
	if len(gameVersions) > 0 {
		gameVersion = gameVersions[0]
	}

	files, err := c.client.GetModFiles(ctx, modID, gameVersion, loader.CurseforgeCategory)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.log.Debug("file lookup failed", zap.Int("mod", modID), zap.Error(err))
		return nil, fmt.Errorf("%w: no compatible file for %d: %w", domain.ErrNotFound, modID, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no compatible file for %d", domain.ErrNotFound, modID)
	}
	return &files[0], nil
}

// GetInstalledMetadata resolves metadata for an installed file and decides whether
// it should be replaced. A loader override wins when its target has a compatible
// file; otherwise a newer compatible file is offered when the installed one is
// not the latest.
func (c *CurseForge) GetInstalledMetadata(ctx context.Context, id, versionID string, loader domain.ModLoader, gameVersions []string) (*domain.InstalledMetadata, error) {
	modID, err := strconv.Atoi(id)
	if err != nil {
		return nil, fmt.Errorf("invalid mod ID: %w", err)
	}
	fileID, err := strconv.Atoi(versionID)
	if err != nil {
		return nil, fmt.Errorf("invalid file ID: %w", err)
	}

	var (
		mod  *Mod
		file *File
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		mod, err = c.client.GetMod(gctx, modID)
		return err
	})
	g.Go(func() (err error) {
		file, err = c.client.GetModFile(gctx, modID, fileID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return c.installedMetadata(ctx, mod, file, loader, gameVersions)
}

func (c *CurseForge) installedMetadata(ctx context.Context, mod *Mod, file *File, loader domain.ModLoader, gameVersions []string) (*domain.InstalledMetadata, error) {
	deps, err := mapDependencies(mod.ID, file.Dependencies)
	if err != nil {
		return nil, err
	}

	update, err := c.updateVersion(ctx, mod, file.ID, loader, gameVersions)
	if err != nil {
		return nil, err
	}

	return &domain.InstalledMetadata{
		Identity:      modIdentity(mod),
		Version:       strconv.Itoa(file.ID),
		Name:          mod.Name,
		Description:   mod.Summary,
		Slug:          mod.Slug,
		Icon:          logoURL(mod),
		Authors:       authorNames(mod.Authors),
		Dependencies:  deps,
		UpdateVersion: update,
	}, nil
}

func (c *CurseForge) updateVersion(ctx context.Context, mod *Mod, installed int, loader domain.ModLoader, gameVersions []string) (*domain.Version, error) {
	id := strconv.Itoa(mod.ID)
	if target, ok := loader.OverrideFor(id); ok {
		f, err := c.findFile(ctx, target, loader, gameVersions)
		if err == nil {
			return fileToDomain(f), nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	if len(mod.LatestFiles) > 0 && mod.LatestFiles[0].ID == installed {
		return nil, nil
	}

	f, err := c.findFile(ctx, id, loader, gameVersions)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if f.ID == installed {
		return nil, nil
	}
	return fileToDomain(f), nil
}

// GetResourceMetadata returns display metadata for a non-mod project
func (c *CurseForge) GetResourceMetadata(ctx context.Context, id, versionID string) (*domain.ResourceMetadata, error) {
	modID, err := strconv.Atoi(id)
	if err != nil {
		return nil, fmt.Errorf("invalid mod ID: %w", err)
	}
	mod, err := c.client.GetMod(ctx, modID)
	if err != nil {
		return nil, err
	}

	return &domain.ResourceMetadata{
		Identity:    modIdentity(mod),
		Version:     versionID,
		Name:        mod.Name,
		Description: mod.Summary,
		Icon:        logoURL(mod),
		Authors:     authorNames(mod.Authors),
	}, nil
}

// Search finds mods for the loader and first game version. Hits that the loader
// overrides are replaced by the override target when it is installable.
func (c *CurseForge) Search(ctx context.Context, query string, loader domain.ModLoader, gameVersions []string) (*domain.SearchResult, error) {
	params := SearchParams{
		GameID:        MinecraftGameID,
		ClassID:       ClassMods,
		Query:         query,
		ModLoaderType: loader.CurseforgeCategory,
		PageSize:      20,
	}
	if len(gameVersions) > 0 {
		params.GameVersion = gameVersions[0]
	}

	mods, pagination, err := c.client.SearchMods(ctx, params)
	if err != nil {
		return nil, err
	}

	hits := make([]domain.SearchHit, len(mods))
	g, gctx := errgroup.WithContext(ctx)
	for i := range mods {
		g.Go(func() error {
			h, err := c.searchHit(gctx, &mods[i], loader, gameVersions)
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

	return &domain.SearchResult{Hits: hits, Count: pagination.TotalCount}, nil
}

func (c *CurseForge) searchHit(ctx context.Context, mod *Mod, loader domain.ModLoader, gameVersions []string) (domain.SearchHit, error) {
	if target, ok := loader.OverrideFor(strconv.Itoa(mod.ID)); ok {
		if _, err := c.findFile(ctx, target, loader, gameVersions); err == nil {
			targetID, _ := strconv.Atoi(target)
			override, err := c.client.GetMod(ctx, targetID)
			if err != nil {
				return domain.SearchHit{}, err
			}
			mod = override
		}
	}

	return domain.SearchHit{
		Identity:    modIdentity(mod),
		Name:        mod.Name,
		Description: mod.Summary,
		Icon:        logoURL(mod),
		Authors:     authorNames(mod.Authors),
		Slug:        mod.Slug,
	}, nil
}

// ListDependencies resolves each dependency of the file to a concrete file: the
// pinned file when one is declared, otherwise the dependency's compatible file.
// Required dependencies that cannot be resolved fail the call; others are
// returned without a version.
func (c *CurseForge) ListDependencies(ctx context.Context, mod domain.ResolvedVersion, loader domain.ModLoader, gameVersions []string) ([]domain.DependencyListEntry, error) {
	native, err := c.nativeFile(ctx, mod)
	if err != nil {
		return nil, err
	}

	var deps []FileDependency
	for _, d := range native.Dependencies {
		if d.ModID == native.ModID {
			continue
		}
		deps = append(deps, d)
	}

	entries := make([]domain.DependencyListEntry, len(deps))
	g, gctx := errgroup.WithContext(ctx)
	for i, d := range deps {
		g.Go(func() error {
			depType, err := relationType(d.RelationType)
			if err != nil {
				return err
			}

			identity := domain.ModIdentity{Provider: domain.ProviderCurseForge, ID: strconv.Itoa(d.ModID)}
			if depMod, err := c.client.GetMod(gctx, d.ModID); err == nil {
				identity = modIdentity(depMod)
			} else {
				c.log.Debug("dependency lookup failed", zap.Int("mod", d.ModID), zap.Error(err))
			}

			file, err := c.resolveDependency(gctx, d, loader, gameVersions)
			if err != nil && depType == domain.DependencyRequired {
				return fmt.Errorf("required dependency %d: %w", d.ModID, err)
			}

			entries[i] = domain.DependencyListEntry{
				Mod:  domain.ResolvedVersion{Identity: identity},
				Type: depType,
			}
			if file != nil {
				entries[i].Mod.Version = fileToDomain(file)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *CurseForge) resolveDependency(ctx context.Context, d FileDependency, loader domain.ModLoader, gameVersions []string) (*File, error) {
	if d.FileID != 0 {
		f, err := c.client.GetModFile(ctx, d.ModID, d.FileID)
		if err != nil {
			return nil, fmt.Errorf("%w: dependency file %d: %w", domain.ErrNotFound, d.FileID, err)
		}
		return f, nil
	}
	return c.findFile(ctx, strconv.Itoa(d.ModID), loader, gameVersions)
}

// FileMetadata identifies a local file by fingerprint and resolves its installed metadata
func (c *CurseForge) FileMetadata(ctx context.Context, path string, loader domain.ModLoader, gameVersions []string) (*domain.InstalledMetadata, error) {
	fingerprints, err := FileFingerprints(path)
	if err != nil {
		return nil, err
	}

	matches, err := c.client.GetFingerprintMatches(ctx, fingerprints)
	if err != nil {
		return nil, err
	}
	if len(matches.ExactMatches) == 0 {
		return nil, fmt.Errorf("%w: no fingerprint match for %s", domain.ErrNotFound, path)
	}
	file := matches.ExactMatches[0].File

	mod, err := c.client.GetMod(ctx, file.ModID)
	if err != nil {
		return nil, err
	}
	return c.installedMetadata(ctx, mod, &file, loader, gameVersions)
}

// Download fetches the file to dest, verifying its sha1. Files without a direct
// link are handed to popup with the CurseForge download page.
func (c *CurseForge) Download(ctx context.Context, mod domain.ResolvedVersion, dest string, popup domain.PopupFunc) error {
	file, ok := mod.Version.PrimaryFile()
	if !ok {
		return fmt.Errorf("%w: version has no files", domain.ErrNotFound)
	}

	req := download.Request{
		URL:   file.URL,
		Dest:  dest,
		Hash:  file.Hashes[domain.HashSHA1],
		Algo:  domain.HashSHA1,
		Popup: popup,
	}
	if req.URL == "" {
		slug, err := c.ownerSlug(ctx, mod)
		if err != nil {
			return err
		}
		fileID, _ := strconv.Atoi(mod.Version.ID)
		req.ManualURL = fmt.Sprintf(manualDownloadURL, slug, fileID)
	}
	return c.fetcher.Fetch(ctx, req)
}

// ownerSlug returns the slug of the mod the version belongs to, fetching the
// mod when the identity has no slug or names a different mod.
func (c *CurseForge) ownerSlug(ctx context.Context, mod domain.ResolvedVersion) (string, error) {
	owner := ownerID(mod)
	if owner == mod.Identity.ID && mod.Identity.Slug != "" {
		return mod.Identity.Slug, nil
	}

	modID, err := strconv.Atoi(owner)
	if err != nil {
		return "", fmt.Errorf("%w: invalid mod ID %q", domain.ErrNotFound, owner)
	}
	m, err := c.client.GetMod(ctx, modID)
	if err != nil {
		return "", fmt.Errorf("looking up slug of %d: %w", modID, err)
	}
	if m.Slug == "" {
		return "", fmt.Errorf("%w: mod %d has no slug", domain.ErrNotFound, modID)
	}
	return m.Slug, nil
}

// ownerID is the mod that published the version
func ownerID(mod domain.ResolvedVersion) string {
	if mod.Version != nil && mod.Version.ProjectID != "" {
		return mod.Version.ProjectID
	}
	return mod.Identity.ID
}

// nativeFile recovers the API record behind a domain version, fetching it when
// the version was built elsewhere.
func (c *CurseForge) nativeFile(ctx context.Context, mod domain.ResolvedVersion) (*File, error) {
	if mod.Version == nil {
		return nil, fmt.Errorf("%w: no version to inspect", domain.ErrNotFound)
	}
	if native, ok := mod.Version.Raw.(*File); ok && native != nil {
		return native, nil
	}

	modID, err := strconv.Atoi(ownerID(mod))
	if err != nil {
		return nil, fmt.Errorf("invalid mod ID: %w", err)
	}
	fileID, err := strconv.Atoi(mod.Version.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid file ID: %w", err)
	}
	return c.client.GetModFile(ctx, modID, fileID)
}

// relationType maps a CurseForge relation code to a dependency type
func relationType(code int) (domain.DependencyType, error) {
	switch code {
	case RelationEmbeddedLibrary, RelationInclude:
		return domain.DependencyEmbedded, nil
	case RelationOptionalDependency:
		return domain.DependencyOptional, nil
	case RelationRequiredDependency:
		return domain.DependencyRequired, nil
	case RelationIncompatible:
		return domain.DependencyIncompatible, nil
	default:
		return "", fmt.Errorf("%w: relation type %d", domain.ErrUnsupportedRelation, code)
	}
}

func mapDependencies(selfID int, deps []FileDependency) ([]domain.Dependency, error) {
	out := make([]domain.Dependency, 0, len(deps))
	for _, d := range deps {
		if d.ModID == selfID {
			continue
		}
		t, err := relationType(d.RelationType)
		if err != nil {
			return nil, err
		}
		dep := domain.Dependency{ID: strconv.Itoa(d.ModID), Type: t}
		if d.FileID != 0 {
			dep.Version = strconv.Itoa(d.FileID)
		}
		out = append(out, dep)
	}
	return out, nil
}

func modIdentity(mod *Mod) domain.ModIdentity {
	return domain.ModIdentity{Provider: domain.ProviderCurseForge, ID: strconv.Itoa(mod.ID), Slug: mod.Slug}
}

func logoURL(mod *Mod) string {
	if mod.Logo == nil {
		return ""
	}
	return mod.Logo.URL
}

func authorNames(authors []Author) []string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		names = append(names, a.Name)
	}
	return names
}

func fileToDomain(f *File) *domain.Version {
	hashes := make(map[domain.HashAlgo]string, len(f.Hashes))
	for _, h := range f.Hashes {
		switch h.Algo {
		case HashAlgoSHA1:
			hashes[domain.HashSHA1] = h.Value
		case HashAlgoMD5:
			hashes[domain.HashMD5] = h.Value
		}
	}

	return &domain.Version{
		Provider:     domain.ProviderCurseForge,
		ID:           strconv.Itoa(f.ID),
		ProjectID:    strconv.Itoa(f.ModID),
		Name:         f.DisplayName,
		GameVersions: f.GameVersions,
		Files: []domain.VersionFile{{
			URL:      f.DownloadURL,
			FileName: f.FileName,
			Size:     f.FileLength,
			Primary:  true,
			Hashes:   hashes,
		}},
		Raw: f,
	}
}
