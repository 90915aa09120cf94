package curseforge

// Wire types for the CurseForge REST API v1, reduced to the fields tmods reads.
// https://docs.curseforge.com/rest-api/

// APIResponse is the envelope of every single-object response
type APIResponse[T any] struct {
	Data T `json:"data"`
}

// PaginatedResponse is the envelope of list responses
type PaginatedResponse[T any] struct {
	Data       T          `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Pagination describes one page of a list response. TotalCount is the hit
// count reported to callers of Search.
type Pagination struct {
	Index      int `json:"index"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
}

// Mod is a CurseForge project. LatestFiles[0] is the file an installed
// version is compared against when looking for updates.
type Mod struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Summary     string    `json:"summary"`
	Authors     []Author  `json:"authors"`
	Logo        *ModAsset `json:"logo"`
	LatestFiles []File    `json:"latestFiles"`
}

// Author is a project member
type Author struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ModAsset is an image attached to a project
type ModAsset struct {
	URL string `json:"url"`
}

// File is a downloadable version of a mod. DownloadURL is empty when the
// author has disabled third-party downloads.
type File struct {
	ID           int              `json:"id"`
	ModID        int              `json:"modId"`
	DisplayName  string           `json:"displayName"`
	FileName     string           `json:"fileName"`
	Hashes       []FileHash       `json:"hashes"`
	FileLength   int64            `json:"fileLength"`
	DownloadURL  string           `json:"downloadUrl"`
	GameVersions []string         `json:"gameVersions"`
	Dependencies []FileDependency `json:"dependencies"`
}

// FileHash is one digest of a file
type FileHash struct {
	Value string `json:"value"`
	Algo  int    `json:"algo"`
}

// Hash algorithm codes
const (
	HashAlgoSHA1 = 1
	HashAlgoMD5  = 2
)

// FileDependency is a file's relation to another mod. FileID is 0 unless the
// dependency is pinned to one file.
type FileDependency struct {
	ModID        int `json:"modId"`
	FileID       int `json:"fileId"`
	RelationType int `json:"relationType"`
}

// Relation type codes
const (
	RelationEmbeddedLibrary    = 1
	RelationOptionalDependency = 2
	RelationRequiredDependency = 3
	RelationTool               = 4
	RelationIncompatible       = 5
	RelationInclude            = 6
)

// FingerprintMatchesRequest is the body of POST /v1/fingerprints
type FingerprintMatchesRequest struct {
	Fingerprints []uint32 `json:"fingerprints"`
}

// FingerprintMatch is a file whose fingerprint matched
type FingerprintMatch struct {
	ID   int  `json:"id"`
	File File `json:"file"`
}

// FingerprintMatches is the result of a fingerprint lookup
type FingerprintMatches struct {
	ExactMatches          []FingerprintMatch `json:"exactMatches"`
	UnmatchedFingerprints []uint32           `json:"unmatchedFingerprints"`
}

const (
	// MinecraftGameID is the CurseForge game id of Minecraft
	MinecraftGameID = 432
	// ClassMods is the Minecraft class id of mods, as opposed to modpacks or resource packs
	ClassMods = 6
)
