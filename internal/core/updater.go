package core

import (
	"context"
	"errors"
	"fmt"

	"tmods/internal/domain"
)

// InstalledMod is a mod file on disk and the catalog version it came from
type InstalledMod struct {
	Mod       domain.ModIdentity
	VersionID string
	Path      string
}

// Update pairs an installed mod with its refreshed metadata. Metadata.UpdateVersion
// is the version to install instead.
type Update struct {
	Installed InstalledMod
	Metadata  *domain.InstalledMetadata
}

// metadataResolver is the part of Service the updater needs
type metadataResolver interface {
	GetInstalledMetadata(ctx context.Context, mod domain.ModIdentity, versionID string, loader domain.ModLoader, gameVersions []string, modPath string) (*domain.InstalledMetadata, error)
}

// Updater checks installed mods for newer compatible versions
type Updater struct {
	resolver metadataResolver
}

// NewUpdater creates a new updater
func NewUpdater(resolver metadataResolver) *Updater {
	return &Updater{resolver: resolver}
}

// CheckUpdates returns the installed mods that have a better version for the
// loader and game versions. Local mods are skipped. Failures for individual
// mods do not stop the check; they are joined into the returned error
// alongside whatever updates were found.
func (u *Updater) CheckUpdates(ctx context.Context, installed []InstalledMod, loader domain.ModLoader, gameVersions []string) ([]Update, error) {
	var (
		updates   []Update
		checkErrs []error
	)

	for _, mod := range installed {
		if mod.Mod.Provider == domain.ProviderCustom {
			continue
		}

		select {
		case <-ctx.Done():
			return updates, ctx.Err()
		default:
		}

		// No path: a failed lookup must surface rather than fall back to the manifest
		md, err := u.resolver.GetInstalledMetadata(ctx, mod.Mod, mod.VersionID, loader, gameVersions, "")
		if err != nil {
			checkErrs = append(checkErrs, fmt.Errorf("%s: %w", mod.Mod, err))
			continue
		}
		if md.UpdateVersion != nil {
			updates = append(updates, Update{Installed: mod, Metadata: md})
		}
	}

	if len(checkErrs) > 0 {
		return updates, fmt.Errorf("update check had %d error(s): %w", len(checkErrs), errors.Join(checkErrs...))
	}
	return updates, nil
}
