package modrinth

import "time"

// Project is a Modrinth project (mod, resource pack, shader, ...)
type Project struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	ProjectType string    `json:"project_type"`
	Team        string    `json:"team"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ClientSide  string    `json:"client_side"`
	ServerSide  string    `json:"server_side"`
	Downloads   int       `json:"downloads"`
	Categories  []string  `json:"categories"`
	Versions    []string  `json:"versions"` // oldest first
	IconURL     string    `json:"icon_url"`
	Updated     time.Time `json:"updated"`
}

// Hashes holds the digests Modrinth publishes for a file
type Hashes struct {
	SHA1   string `json:"sha1"`
	SHA512 string `json:"sha512"`
}

// File is a single file attached to a version
type File struct {
	Hashes   Hashes `json:"hashes"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Primary  bool   `json:"primary"`
	Size     int64  `json:"size"`
}

// Dependency is a declared relation from a version to another project or version
type Dependency struct {
	VersionID      string `json:"version_id,omitempty"`
	ProjectID      string `json:"project_id,omitempty"`
	FileName       string `json:"file_name,omitempty"`
	DependencyType string `json:"dependency_type"`
}

// Version is a published version of a project
type Version struct {
	ID            string       `json:"id"`
	ProjectID     string       `json:"project_id"`
	AuthorID      string       `json:"author_id"`
	Name          string       `json:"name"`
	VersionNumber string       `json:"version_number"`
	VersionType   string       `json:"version_type"`
	DatePublished time.Time    `json:"date_published"`
	Downloads     int          `json:"downloads"`
	Files         []File       `json:"files"`
	Dependencies  []Dependency `json:"dependencies"`
	GameVersions  []string     `json:"game_versions"`
	Loaders       []string     `json:"loaders"`
}

// User is a Modrinth account
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// DisplayName returns the user's display name, or their username when unset
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// TeamMember is one entry of a project's member list
type TeamMember struct {
	TeamID string `json:"team_id"`
	User   User   `json:"user"`
	Role   string `json:"role"`
}

// SearchHit is a project as returned by the search endpoint
type SearchHit struct {
	ProjectID   string   `json:"project_id"`
	ProjectType string   `json:"project_type"`
	Slug        string   `json:"slug"`
	Author      string   `json:"author"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Categories  []string `json:"categories"`
	Versions    []string `json:"versions"`
	Downloads   int      `json:"downloads"`
	IconURL     string   `json:"icon_url"`
}

// SearchResponse is a page of search hits
type SearchResponse struct {
	Hits      []SearchHit `json:"hits"`
	Offset    int         `json:"offset"`
	Limit     int         `json:"limit"`
	TotalHits int         `json:"total_hits"`
}
