package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tmods/internal/domain"

	"gopkg.in/yaml.v3"
)

// LoaderConfig is the YAML representation of a mod loader
type LoaderConfig struct {
	ModrinthCategories []string          `yaml:"modrinth_categories"`
	CurseforgeCategory string            `yaml:"curseforge_category"`
	OverrideMods       map[string]string `yaml:"override_mods,omitempty"`
}

// LoadersFile is the top-level loaders.yaml structure
type LoadersFile struct {
	Loaders map[string]LoaderConfig `yaml:"loaders"`
}

// LoadLoaders returns the built-in loaders merged with those defined in
// loaders.yaml. A file entry replaces a built-in loader of the same name.
func LoadLoaders(configDir string) (map[string]domain.ModLoader, error) {
	loaders := domain.BuiltinLoaders()

	file, err := readLoadersFile(configDir)
	if err != nil {
		return nil, err
	}

	for name, cfg := range file.Loaders {
		name = strings.ToLower(name)
		if len(cfg.ModrinthCategories) == 0 {
			return nil, fmt.Errorf("%w: loader %q has no modrinth_categories", domain.ErrInvalidConfig, name)
		}

		overrides := make(map[string]string, len(cfg.OverrideMods))
		for from, to := range cfg.OverrideMods {
			overrides[from] = to
		}
		loaders[name] = domain.ModLoader{
			Name:               name,
			OverrideMods:       overrides,
			ModrinthCategories: cfg.ModrinthCategories,
			CurseforgeCategory: cfg.CurseforgeCategory,
		}
	}

	return loaders, nil
}

// SaveLoader adds or updates a loader in loaders.yaml
func SaveLoader(configDir string, loader domain.ModLoader) error {
	file, err := readLoadersFile(configDir)
	if err != nil {
		return err
	}
	if file.Loaders == nil {
		file.Loaders = make(map[string]LoaderConfig)
	}

	file.Loaders[strings.ToLower(loader.Name)] = LoaderConfig{
		ModrinthCategories: loader.ModrinthCategories,
		CurseforgeCategory: loader.CurseforgeCategory,
		OverrideMods:       loader.OverrideMods,
	}

	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("marshaling loaders: %w", err)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	loadersPath := filepath.Join(configDir, "loaders.yaml")
	if err := os.WriteFile(loadersPath, data, 0644); err != nil {
		return fmt.Errorf("writing loaders.yaml: %w", err)
	}

	return nil
}

func readLoadersFile(configDir string) (LoadersFile, error) {
	var file LoadersFile

	data, err := os.ReadFile(filepath.Join(configDir, "loaders.yaml"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return file, nil
		}
		return file, fmt.Errorf("reading loaders.yaml: %w", err)
	}

	if err := yaml.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("parsing loaders.yaml: %w", err)
	}
	return file, nil
}
