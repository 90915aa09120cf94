// Package manifest reads the metadata file embedded in a Fabric or Quilt mod jar.
package manifest

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"tmods/internal/domain"
)

const (
	FabricManifest = "fabric.mod.json"
	QuiltManifest  = "quilt.mod.json"

	unknownName        = "Unknown name"
	unknownDescription = "Unknown description"
	unknownAuthor      = "Unknown author"
)

// Manifest is the loader-independent subset of an embedded mod manifest
type Manifest struct {
	ID          string
	Version     string
	Name        string
	Description string
	Authors     []string
	Loader      string // "fabric" or "quilt"
}

// Metadata converts the manifest to metadata for a mod that no catalog knows about
func (m *Manifest) Metadata() *domain.InstalledMetadata {
	return &domain.InstalledMetadata{
		Identity:     domain.ModIdentity{Provider: domain.ProviderCustom, ID: m.ID, Slug: m.ID},
		Version:      m.Version,
		Name:         m.Name,
		Description:  m.Description,
		Slug:         m.ID,
		Authors:      m.Authors,
		Dependencies: []domain.Dependency{},
	}
}

// Parse opens the jar at path and reads fabric.mod.json, falling back to
// quilt.mod.json. Failing both yields an error wrapping domain.ErrParse.
func Parse(path string) (*Manifest, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrParse, path, err)
	}
	defer r.Close()

	fabric, fabricErr := parseFabric(&r.Reader)
	if fabricErr == nil {
		return fabric, nil
	}
	quilt, quiltErr := parseQuilt(&r.Reader)
	if quiltErr == nil {
		return quilt, nil
	}
	return nil, fmt.Errorf("%w: %s: %w", domain.ErrParse, path, errors.Join(fabricErr, quiltErr))
}

func readEntry(zr *zip.Reader, name string, v any) error {
	f, err := zr.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	return nil
}

// fabricPerson is either a bare name or an object with a name field
type fabricPerson string

func (p *fabricPerson) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*p = fabricPerson(name)
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*p = fabricPerson(obj.Name)
	return nil
}

type fabricModJSON struct {
	ID          string         `json:"id"`
	Version     string         `json:"version"`
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	Authors     []fabricPerson `json:"authors"`
}

func parseFabric(zr *zip.Reader) (*Manifest, error) {
	var raw fabricModJSON
	if err := readEntry(zr, FabricManifest, &raw); err != nil {
		return nil, err
	}
	if raw.ID == "" {
		return nil, fmt.Errorf("%s: missing id", FabricManifest)
	}

	m := &Manifest{
		ID:          raw.ID,
		Version:     raw.Version,
		Name:        valueOr(raw.Name, unknownName),
		Description: valueOr(raw.Description, unknownDescription),
		Loader:      "fabric",
	}
	if raw.Authors == nil {
		m.Authors = []string{unknownAuthor}
	} else {
		m.Authors = make([]string, 0, len(raw.Authors))
		for _, a := range raw.Authors {
			m.Authors = append(m.Authors, string(a))
		}
	}
	return m, nil
}

type quiltModJSON struct {
	QuiltLoader struct {
		ID       string `json:"id"`
		Version  string `json:"version"`
		Metadata *struct {
			Name         *string           `json:"name"`
			Description  *string           `json:"description"`
			Contributors map[string]string `json:"contributors"`
		} `json:"metadata"`
	} `json:"quilt_loader"`
}

func parseQuilt(zr *zip.Reader) (*Manifest, error) {
	var raw quiltModJSON
	if err := readEntry(zr, QuiltManifest, &raw); err != nil {
		return nil, err
	}
	ql := raw.QuiltLoader
	if ql.ID == "" {
		return nil, fmt.Errorf("%s: missing quilt_loader.id", QuiltManifest)
	}

	m := &Manifest{
		ID:          ql.ID,
		Version:     ql.Version,
		Name:        unknownName,
		Description: unknownDescription,
		Authors:     []string{},
		Loader:      "quilt",
	}
	if md := ql.Metadata; md != nil {
		m.Name = valueOr(md.Name, unknownName)
		m.Description = valueOr(md.Description, unknownDescription)
		for name := range md.Contributors {
			m.Authors = append(m.Authors, name)
		}
		slices.Sort(m.Authors)
	}
	return m, nil
}

func valueOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
