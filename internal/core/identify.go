package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"tmods/internal/domain"
)

// identifyStrategy is one way of recognising a local mod file
type identifyStrategy struct {
	name string
	run  func(ctx context.Context, path string, loader domain.ModLoader, gameVersions []string) (*domain.InstalledMetadata, error)
}

func (s *Service) identifyStrategies() []identifyStrategy {
	return []identifyStrategy{
		{name: "modrinth hash", run: s.catalogFileMetadata(domain.ProviderModrinth)},
		{name: "curseforge fingerprint", run: s.catalogFileMetadata(domain.ProviderCurseForge)},
		{name: "embedded manifest", run: func(_ context.Context, path string, _ domain.ModLoader, _ []string) (*domain.InstalledMetadata, error) {
			return s.ParseLocalFile(path)
		}},
	}
}

func (s *Service) catalogFileMetadata(p domain.Provider) func(context.Context, string, domain.ModLoader, []string) (*domain.InstalledMetadata, error) {
	return func(ctx context.Context, path string, loader domain.ModLoader, gameVersions []string) (*domain.InstalledMetadata, error) {
		c, err := s.catalog(p)
		if err != nil {
			return nil, err
		}
		return c.FileMetadata(ctx, path, loader, gameVersions)
	}
}

// IdentifyFile works out which mod a local file is: by Modrinth file hash,
// then by CurseForge fingerprint, then from its embedded manifest. The first
// strategy that succeeds wins; when all fail the error wraps
// domain.ErrCouldNotIdentify and the last failure.
func (s *Service) IdentifyFile(ctx context.Context, path string, loader domain.ModLoader, gameVersions []string) (*domain.InstalledMetadata, error) {
	var lastErr error
	for _, strategy := range s.identifyStrategies() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		md, err := strategy.run(ctx, path, loader, gameVersions)
		if err == nil {
			return md, nil
		}
		s.log.Debug("identify strategy failed",
			zap.String("strategy", strategy.name), zap.String("path", path), zap.Error(err))
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %s: %w", domain.ErrCouldNotIdentify, path, lastErr)
}
