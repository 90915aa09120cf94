package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tmods/internal/domain"
	"tmods/internal/download"
	"tmods/internal/manifest"
	"tmods/internal/ratelimit"
	"tmods/internal/source"
	"tmods/internal/source/curseforge"
	"tmods/internal/source/modrinth"
	"tmods/internal/storage/config"
	"tmods/internal/storage/db"
)

// ServiceConfig holds configuration for the core service
type ServiceConfig struct {
	ConfigDir  string       // Directory for config.yaml and loaders.yaml
	ConfigFile string       // Explicit config file, replaces ConfigDir/config.yaml
	DataDir    string       // Directory for the database
	HTTPClient *http.Client // nil uses http.DefaultClient
	Logger     *zap.Logger  // nil disables logging
}

// Service is the single entry point for catalog operations. Operations on a
// known mod go to the one catalog named by its provider; Search queries both
// and merges the results.
type Service struct {
	config   *config.Config
	loaders  map[string]domain.ModLoader
	db       *db.DB
	registry *source.Registry
	log      *zap.Logger

	configDir string
	dataDir   string
}

// Option configures a Service built with New
type Option func(*Service)

// WithLogger sets the service logger
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a service over an already populated registry, without config
// or storage.
func New(registry *source.Registry, opts ...Option) *Service {
	s := &Service{
		config:   config.Default(),
		loaders:  domain.BuiltinLoaders(),
		registry: registry,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewService loads configuration, opens the database and registers Modrinth,
// plus CurseForge when an API key is available.
func NewService(cfg ServiceConfig) (*Service, error) {
	appConfig, err := loadConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	loaders, err := config.LoadLoaders(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("loading loaders: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	database, err := db.New(filepath.Join(cfg.DataDir, "tmods.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	registry := source.NewRegistry(modrinth.New(httpClient, appConfig.UserAgent, log,
		modrinth.WithQueueOptions(ratelimit.WithConcurrency(appConfig.QueueConcurrency)),
		modrinth.WithFetcher(download.NewFetcher(httpClient, log.Named("modrinth"), download.WithRetries(appConfig.DownloadRetries))),
	))

	apiKey, err := curseForgeKey(appConfig, database)
	if err != nil {
		database.Close()
		return nil, err
	}
	if apiKey != "" {
		registry.Register(curseforge.New(httpClient, apiKey, appConfig.UserAgent, log,
			curseforge.WithFetcher(download.NewFetcher(httpClient, log.Named("curseforge"), download.WithRetries(appConfig.DownloadRetries))),
		))
	} else {
		log.Debug("no curseforge api key, catalog disabled")
	}

	svc := New(registry, WithLogger(log))
	svc.config = appConfig
	svc.loaders = loaders
	svc.db = database
	svc.configDir = cfg.ConfigDir
	svc.dataDir = cfg.DataDir
	return svc, nil
}

func loadConfig(cfg ServiceConfig) (*config.Config, error) {
	if cfg.ConfigFile == "" {
		return config.Load(cfg.ConfigDir)
	}
	path, err := config.ParseConfigPath(cfg.ConfigFile)
	if err != nil {
		return nil, err
	}
	return config.LoadFile(path)
}

// curseForgeKey resolves the API key: environment first, then the stored
// token, then config.yaml.
func curseForgeKey(cfg *config.Config, database *db.DB) (string, error) {
	if key := os.Getenv(config.EnvCurseForgeAPIKey); key != "" {
		return key, nil
	}
	token, err := database.GetToken(domain.ProviderCurseForge)
	if err != nil {
		return "", fmt.Errorf("reading stored api key: %w", err)
	}
	if token != nil && token.APIKey != "" {
		return token.APIKey, nil
	}
	return cfg.CurseForgeAPIKey, nil
}

// Close releases resources held by the service
func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Config returns the loaded configuration
func (s *Service) Config() *config.Config {
	return s.config
}

// ConfigDir returns the configuration directory
func (s *Service) ConfigDir() string {
	return s.configDir
}

// DB returns the database, nil for services built with New
func (s *Service) DB() *db.DB {
	return s.db
}

// Registry returns the catalog registry
func (s *Service) Registry() *source.Registry {
	return s.registry
}

// RegisterCatalog adds or replaces a catalog
func (s *Service) RegisterCatalog(c source.Catalog) {
	s.registry.Register(c)
}

// Loader returns the named loader from the built-in and configured set
func (s *Service) Loader(name string) (domain.ModLoader, error) {
	if name == "" {
		name = s.config.Loader
	}
	loader, ok := s.loaders[strings.ToLower(name)]
	if !ok {
		return domain.ModLoader{}, fmt.Errorf("%w: unknown loader %q", domain.ErrInvalidConfig, name)
	}
	return loader, nil
}

// catalog dispatches on the provider tag. Local mods have no catalog.
func (s *Service) catalog(p domain.Provider) (source.Catalog, error) {
	switch p {
	case domain.ProviderModrinth, domain.ProviderCurseForge:
		return s.registry.Get(p)
	case domain.ProviderCustom:
		return nil, fmt.Errorf("%w: local mods are not backed by a catalog", domain.ErrInvalidProvider)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidProvider, p)
	}
}

// Search queries Modrinth and, when useCurseForge is set and a key is
// configured, CurseForge concurrently. Results are merged Modrinth first and
// deduplicated with MergeSearchResults. A failure from either catalog fails
// the search.
func (s *Service) Search(ctx context.Context, query string, loader domain.ModLoader, gameVersions []string, useCurseForge bool) (*domain.SearchResult, error) {
	mr, err := s.catalog(domain.ProviderModrinth)
	if err != nil {
		return nil, err
	}

	var cf source.Catalog
	if useCurseForge && s.registry.Has(domain.ProviderCurseForge) {
		if cf, err = s.catalog(domain.ProviderCurseForge); err != nil {
			return nil, err
		}
	}

	var modrinthResult, curseforgeResult *domain.SearchResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		modrinthResult, err = mr.Search(gctx, query, loader, gameVersions)
		if err != nil {
			return fmt.Errorf("modrinth search: %w", err)
		}
		return nil
	})
	if cf != nil {
		g.Go(func() (err error) {
			curseforgeResult, err = cf.Search(gctx, query, loader, gameVersions)
			if err != nil {
				return fmt.Errorf("curseforge search: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return MergeSearchResults(modrinthResult, curseforgeResult), nil
}

// GetInstalledMetadata resolves an installed mod against its catalog. When
// modPath is set, any catalog failure falls back to the manifest embedded in
// the file at modPath.
func (s *Service) GetInstalledMetadata(ctx context.Context, mod domain.ModIdentity, versionID string, loader domain.ModLoader, gameVersions []string, modPath string) (*domain.InstalledMetadata, error) {
	md, err := s.installedMetadata(ctx, mod, versionID, loader, gameVersions)
	if err == nil {
		return md, nil
	}
	if modPath == "" || ctx.Err() != nil {
		return nil, err
	}

	s.log.Debug("catalog metadata failed, reading embedded manifest",
		zap.Stringer("mod", mod), zap.String("path", modPath), zap.Error(err))

	local, perr := s.ParseLocalFile(modPath)
	if perr != nil {
		return nil, errors.Join(err, perr)
	}
	return local, nil
}

func (s *Service) installedMetadata(ctx context.Context, mod domain.ModIdentity, versionID string, loader domain.ModLoader, gameVersions []string) (*domain.InstalledMetadata, error) {
	c, err := s.catalog(mod.Provider)
	if err != nil {
		return nil, err
	}
	return c.GetInstalledMetadata(ctx, mod.ID, versionID, loader, gameVersions)
}

// GetResourceMetadata returns display metadata for a non-mod resource
func (s *Service) GetResourceMetadata(ctx context.Context, resource domain.ModIdentity, versionID string) (*domain.ResourceMetadata, error) {
	c, err := s.catalog(resource.Provider)
	if err != nil {
		return nil, err
	}
	return c.GetResourceMetadata(ctx, resource.ID, versionID)
}

// FindVersion resolves the version of mod to install for the loader and game
// versions. No compatible version is domain.ErrNotFound.
func (s *Service) FindVersion(ctx context.Context, mod domain.ModIdentity, loader domain.ModLoader, gameVersions []string) (*domain.ResolvedVersion, error) {
	c, err := s.catalog(mod.Provider)
	if err != nil {
		return nil, err
	}

	v, err := c.FindVersion(ctx, mod.ID, loader, gameVersions)
	if err != nil {
		return nil, fmt.Errorf("could not find compatible version for mod %s: %w", mod.ID, err)
	}
	if v == nil {
		return nil, fmt.Errorf("could not find compatible version for mod %s: %w", mod.ID, domain.ErrNotFound)
	}
	return &domain.ResolvedVersion{Identity: mod, Version: v}, nil
}

// ListDependencies lists the direct dependencies of a resolved version
func (s *Service) ListDependencies(ctx context.Context, mod domain.ResolvedVersion, loader domain.ModLoader, gameVersions []string) ([]domain.DependencyListEntry, error) {
	c, err := s.catalog(mod.Identity.Provider)
	if err != nil {
		return nil, err
	}
	return c.ListDependencies(ctx, mod, loader, gameVersions)
}

// Download places the primary file of mod at dest, verifying its hash.
// popup is only consulted for files without a direct link.
func (s *Service) Download(ctx context.Context, mod domain.ResolvedVersion, dest string, popup domain.PopupFunc) error {
	c, err := s.catalog(mod.Identity.Provider)
	if err != nil {
		return err
	}
	return c.Download(ctx, mod, dest, popup)
}

// ParseLocalFile reads the manifest embedded in a mod jar
func (s *Service) ParseLocalFile(path string) (*domain.InstalledMetadata, error) {
	m, err := manifest.Parse(path)
	if err != nil {
		return nil, err
	}
	return m.Metadata(), nil
}

// SaveSourceToken stores an API key for a provider
func (s *Service) SaveSourceToken(p domain.Provider, apiKey string) error {
	if s.db == nil {
		return fmt.Errorf("%w: no database", domain.ErrInvalidConfig)
	}
	return s.db.SaveToken(p, apiKey)
}

// GetSourceToken returns the stored API key for a provider, nil if none
func (s *Service) GetSourceToken(p domain.Provider) (*db.StoredToken, error) {
	if s.db == nil {
		return nil, nil
	}
	return s.db.GetToken(p)
}

// DeleteSourceToken removes the stored API key for a provider
func (s *Service) DeleteSourceToken(p domain.Provider) error {
	if s.db == nil {
		return nil
	}
	return s.db.DeleteToken(p)
}
