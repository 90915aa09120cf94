package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tmods/internal/core"
	"tmods/internal/domain"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrCancelled is returned when the user cancels an operation (e.g. prompt declined).
// When returned from a command, Execute exits with code 2.
var ErrCancelled = errors.New("cancelled")

var (
	version = "0.1.0"

	// Global flags
	configDir    string
	configFile   string
	dataDir      string
	loaderName   string
	gameVersions []string
	verbose      bool
	jsonOutput   bool
	noColor      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tmods",
	Short: "tmods - Minecraft mod aggregator for Modrinth and CurseForge",
	Long: `tmods searches, resolves and downloads Minecraft mods from Modrinth and
CurseForge through one interface. Search results from both catalogs are
merged and deduplicated.

Use subcommands for operations. Run 'tmods --help' for available commands.`,
	Version:       version,
	SilenceUsage:  true, // Runtime errors should not print usage
	SilenceErrors: true, // We handle error output in Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default: ~/.config/tmods)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config-file", "", "config file to use instead of <config>/config.yaml")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default: ~/.local/share/tmods)")
	rootCmd.PersistentFlags().StringVarP(&loaderName, "loader", "L", "", "mod loader (default: from config.yaml)")
	rootCmd.PersistentFlags().StringSliceVarP(&gameVersions, "game-version", "G", nil, "game versions to match (default: from config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// colorEnabled returns true if colored output should be used (respects --no-color and NO_COLOR env).
// NO_COLOR: if set (any value), color is disabled per https://no-color.org
func colorEnabled() bool {
	if noColor {
		return false
	}
	return os.Getenv("NO_COLOR") == ""
}

const (
	ansiReset  = "\033[0m"
	ansiGreen  = "\033[32m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
)

func colorGreen(s string) string {
	if !colorEnabled() {
		return s
	}
	return ansiGreen + s + ansiReset
}

func colorRed(s string) string {
	if !colorEnabled() {
		return s
	}
	return ansiRed + s + ansiReset
}

func colorYellow(s string) string {
	if !colorEnabled() {
		return s
	}
	return ansiYellow + s + ansiReset
}

// Execute runs the root command. Exit codes: 0 = success, 1 = error, 2 = user cancelled.
// When --json is set and an error occurs, prints {"error":"..."} to stdout before exiting.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, ErrCancelled) {
			os.Exit(2)
		}
		if jsonOutput {
			fmt.Printf(`{"error":%q}`+"\n", err.Error())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// newLogger returns a console logger on stderr. Debug output needs --verbose.
func newLogger() *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	if colorEnabled() {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	c := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level)
	return zap.New(c)
}

// initService creates and initializes the core service
func initService() (*core.Service, error) {
	cfg, err := getServiceConfig()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.ConfigDir, 0755); err != nil {
		return nil, fmt.Errorf("creating config dir: %w", err)
	}

	return core.NewService(cfg)
}

// getServiceConfig returns the service configuration with defaults.
// Returns an error if UserHomeDir fails and defaults are needed.
func getServiceConfig() (core.ServiceConfig, error) {
	cfg := core.ServiceConfig{
		ConfigDir:  configDir,
		ConfigFile: configFile,
		DataDir:    dataDir,
		Logger:     newLogger(),
	}

	if cfg.ConfigDir == "" || cfg.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return core.ServiceConfig{}, fmt.Errorf("home directory: %w", err)
		}
		if cfg.ConfigDir == "" {
			cfg.ConfigDir = filepath.Join(homeDir, ".config", "tmods")
		}
		if cfg.DataDir == "" {
			cfg.DataDir = filepath.Join(homeDir, ".local", "share", "tmods")
		}
	}

	return cfg, nil
}

// target resolves the loader and game versions from flags, falling back to config.yaml
func target(svc *core.Service) (domain.ModLoader, []string, error) {
	loader, err := svc.Loader(loaderName)
	if err != nil {
		return domain.ModLoader{}, nil, err
	}
	versions := gameVersions
	if len(versions) == 0 {
		versions = svc.Config().GameVersions
	}
	if len(versions) == 0 {
		return domain.ModLoader{}, nil, fmt.Errorf("no game version given; use --game-version or set game_versions in config.yaml")
	}
	return loader, versions, nil
}

// parseModRef parses provider:id[:slug], e.g. "modrinth:AANobbMI" or "curseforge:238222:jei"
func parseModRef(ref string) (domain.ModIdentity, error) {
	parts := strings.SplitN(ref, ":", 3)
	if len(parts) < 2 || parts[1] == "" {
		return domain.ModIdentity{}, fmt.Errorf("invalid mod reference %q; expected provider:id", ref)
	}
	p, err := domain.ParseProvider(parts[0])
	if err != nil {
		return domain.ModIdentity{}, err
	}
	mod := domain.ModIdentity{Provider: p, ID: parts[1]}
	if len(parts) == 3 {
		mod.Slug = parts[2]
	}
	return mod, nil
}
