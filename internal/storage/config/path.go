// Package config reads config.yaml and loaders.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"tmods/internal/domain"
)

// ParseConfigPath checks a path given with --config-file and returns it
// absolute and cleaned. A leading "~/" is expanded to the home directory.
// The path must name an existing .yaml or .yml file and may not contain "..".
// Every failure wraps domain.ErrInvalidConfig.
func ParseConfigPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: config path cannot be empty", domain.ErrInvalidConfig)
	}

	if slices.Contains(strings.Split(filepath.ToSlash(path), "/"), "..") {
		return "", fmt.Errorf("%w: config path contains invalid traversal", domain.ErrInvalidConfig)
	}

	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("%w: expanding ~: %w", domain.ErrInvalidConfig, err)
		}
		path = filepath.Join(home, rest)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}

	ext := strings.ToLower(filepath.Ext(abs))
	if ext != ".yaml" && ext != ".yml" {
		return "", fmt.Errorf("%w: config file must have .yaml or .yml extension", domain.ErrInvalidConfig)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: config file %s does not exist", domain.ErrInvalidConfig, abs)
		}
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: config path %s is a directory", domain.ErrInvalidConfig, abs)
	}

	return abs, nil
}
