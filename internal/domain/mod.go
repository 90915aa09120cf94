package domain

import (
	"context"
	"fmt"
	"strings"
)

// ModIdentity points at a mod on one catalog. Slug is only needed for
// CurseForge, where it is used to build manual download page URLs.
type ModIdentity struct {
	Provider Provider `json:"provider" yaml:"provider"`
	ID       string   `json:"id" yaml:"id"`
	Slug     string   `json:"slug,omitempty" yaml:"slug,omitempty"`
}

// String returns provider:id
func (m ModIdentity) String() string {
	return fmt.Sprintf("%s:%s", m.Provider, m.ID)
}

// HashAlgo names a content digest algorithm
type HashAlgo string

const (
	HashSHA1   HashAlgo = "sha1"
	HashSHA512 HashAlgo = "sha512"
	HashMD5    HashAlgo = "md5"
)

// VersionFile is a single downloadable file belonging to a version
type VersionFile struct {
	URL      string              `json:"url,omitempty"` // empty when the catalog withholds direct links
	FileName string              `json:"file_name"`
	Size     int64               `json:"size"`
	Primary  bool                `json:"primary"`
	Hashes   map[HashAlgo]string `json:"hashes,omitempty"`
}

// Version is a catalog version record. The fields common to both catalogs are
// normalized; Raw holds the backend-native record (modrinth.Version or
// curseforge.File) for the adapter that produced it.
type Version struct {
	Provider      Provider      `json:"provider"`
	ID            string        `json:"id"`
	ProjectID     string        `json:"project_id"`
	Name          string        `json:"name"`
	VersionNumber string        `json:"version_number,omitempty"`
	GameVersions  []string      `json:"game_versions,omitempty"`
	Loaders       []string      `json:"loaders,omitempty"`
	Files         []VersionFile `json:"files"`

	Raw any `json:"-"`
}

// PrimaryFile returns the file flagged primary, or the first file
func (v *Version) PrimaryFile() (VersionFile, bool) {
	if v == nil || len(v.Files) == 0 {
		return VersionFile{}, false
	}
	for _, f := range v.Files {
		if f.Primary {
			return f, true
		}
	}
	return v.Files[0], true
}

// ResolvedVersion is a concrete, downloadable version of an identified mod
type ResolvedVersion struct {
	Identity ModIdentity `json:"mod"`
	Version  *Version    `json:"version,omitempty"`
}

// DependencyType describes how a mod relates to one of its dependencies
type DependencyType string

const (
	DependencyRequired     DependencyType = "required"
	DependencyOptional     DependencyType = "optional"
	DependencyIncompatible DependencyType = "incompatible"
	DependencyEmbedded     DependencyType = "embedded"
)

// ParseDependencyType validates a dependency type string
func ParseDependencyType(s string) (DependencyType, error) {
	switch t := DependencyType(strings.ToLower(s)); t {
	case DependencyRequired, DependencyOptional, DependencyIncompatible, DependencyEmbedded:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedRelation, s)
	}
}

// Dependency is one entry of a flat dependency list
type Dependency struct {
	ID      string         `json:"id"`
	Version string         `json:"version,omitempty"`
	Type    DependencyType `json:"dependency_type"`
}

// DependencyListEntry is a dependency resolved to a catalog version.
// Mod.Version is nil for non-required dependencies that have no compatible version.
type DependencyListEntry struct {
	Mod  ResolvedVersion `json:"mod"`
	Type DependencyType  `json:"dependency_type"`
}

// InstalledMetadata describes an installed mod and whether it should be updated.
// UpdateVersion is nil when the installed version is already the best match.
type InstalledMetadata struct {
	Identity      ModIdentity  `json:"mod"`
	Version       string       `json:"version"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Slug          string       `json:"slug"`
	Icon          string       `json:"icon,omitempty"`
	Authors       []string     `json:"authors"`
	Dependencies  []Dependency `json:"dependencies"`
	UpdateVersion *Version     `json:"update_version"`
}

// ResourceMetadata describes a non-mod resource (resource pack, shader, ...)
type ResourceMetadata struct {
	Identity    ModIdentity `json:"resource"`
	Version     string      `json:"version"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Icon        string      `json:"icon,omitempty"`
	Authors     []string    `json:"authors"`
}

// SearchHit is a single search listing entry
type SearchHit struct {
	Identity    ModIdentity `json:"mod"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Icon        string      `json:"icon,omitempty"`
	Authors     []string    `json:"authors"`
	Slug        string      `json:"slug"`
}

// SearchResult is a page of search hits and the total hit count
type SearchResult struct {
	Hits  []SearchHit `json:"hits"`
	Count int         `json:"count"`
}

// PopupFunc asks the user to download url manually and place the file at dest.
// It is only called when a catalog does not expose a direct download link.
type PopupFunc func(ctx context.Context, url, dest string) error
