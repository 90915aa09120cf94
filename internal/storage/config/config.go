package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"tmods/internal/domain"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent is sent to both catalogs when config.yaml sets none
	DefaultUserAgent = "tmods/0.1 (+https://github.com/tmods/tmods)"
	// EnvCurseForgeAPIKey overrides every stored CurseForge key
	EnvCurseForgeAPIKey = "CURSEFORGE_API_KEY"
)

// Config holds global application settings
type Config struct {
	UserAgent        string   `yaml:"user_agent"`
	CurseForgeAPIKey string   `yaml:"curseforge_api_key,omitempty"`
	UseCurseForge    bool     `yaml:"use_curseforge"`
	Loader           string   `yaml:"loader"`
	GameVersions     []string `yaml:"game_versions"`
	ModsDir          string   `yaml:"mods_dir"`
	DownloadRetries  int      `yaml:"download_retries"`
	QueueConcurrency int      `yaml:"queue_concurrency"`
}

// Default returns the configuration used when config.yaml is missing
func Default() *Config {
	return &Config{
		UserAgent:        DefaultUserAgent,
		UseCurseForge:    true,
		Loader:           "fabric",
		GameVersions:     []string{"1.20.1"},
		ModsDir:          "mods",
		DownloadRetries:  5,
		QueueConcurrency: 5,
	}
}

// Load reads configuration from the given directory
func Load(configDir string) (*Config, error) {
	return LoadFile(filepath.Join(configDir, "config.yaml"))
}

// LoadFile reads configuration from an explicit path. Keys missing from the
// file keep their defaults.
func LoadFile(configPath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil // Return defaults
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the catalogs or the download loop cannot work with
func (c *Config) Validate() error {
	if c.UserAgent == "" {
		return fmt.Errorf("%w: user_agent must not be empty", domain.ErrInvalidConfig)
	}
	if c.Loader == "" {
		return fmt.Errorf("%w: loader must not be empty", domain.ErrInvalidConfig)
	}
	if c.DownloadRetries < 0 {
		return fmt.Errorf("%w: download_retries must be >= 0, got %d", domain.ErrInvalidConfig, c.DownloadRetries)
	}
	if c.QueueConcurrency < 1 {
		return fmt.Errorf("%w: queue_concurrency must be >= 1, got %d", domain.ErrInvalidConfig, c.QueueConcurrency)
	}
	return nil
}

// Save writes configuration to the given directory
func (c *Config) Save(configDir string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
