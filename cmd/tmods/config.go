package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tmods/internal/storage/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	configInitForce     bool
	loaderFrom          string
	loaderCategories    []string
	loaderCFCategory    string
	loaderOverrides     []string
	loaderClearOverride bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage config.yaml and loaders.yaml",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config.yaml",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configLoaderCmd = &cobra.Command{
	Use:   "loader <name>",
	Short: "Add or update a loader in loaders.yaml",
	Long: `Add or update a loader in loaders.yaml. The new loader starts as a copy
of --from (default fabric) and the flags change it.

Examples:
  tmods config loader babric --category babric
  tmods config loader quilt-lite --from quilt --override P7dR8mSH=qvIfYCYJ`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigLoader,
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config.yaml")

	configLoaderCmd.Flags().StringVar(&loaderFrom, "from", "fabric", "loader to copy")
	configLoaderCmd.Flags().StringSliceVar(&loaderCategories, "category", nil, "Modrinth loader categories")
	configLoaderCmd.Flags().StringVar(&loaderCFCategory, "curseforge-category", "", "CurseForge mod loader type")
	configLoaderCmd.Flags().StringSliceVar(&loaderOverrides, "override", nil, "Modrinth override as from=to (repeatable)")
	configLoaderCmd.Flags().BoolVar(&loaderClearOverride, "clear-overrides", false, "drop overrides copied from --from")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configLoaderCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg, err := getServiceConfig()
	if err != nil {
		return err
	}

	path := filepath.Join(cfg.ConfigDir, "config.yaml")
	if _, err := os.Stat(path); err == nil && !configInitForce {
		return fmt.Errorf("%s already exists; use --force to overwrite", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	if err := config.Default().Save(cfg.ConfigDir); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	cfg := *service.Config()
	if cfg.CurseForgeAPIKey != "" {
		cfg.CurseForgeAPIKey = maskAPIKey(cfg.CurseForgeAPIKey)
	}
	if jsonOutput {
		return printJSON(cfg)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

func runConfigLoader(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	base, err := service.Loader(loaderFrom)
	if err != nil {
		return err
	}
	loader := base.Clone()
	loader.Name = strings.ToLower(args[0])
	if len(loaderCategories) > 0 {
		loader.ModrinthCategories = loaderCategories
	}
	if loaderCFCategory != "" {
		loader.CurseforgeCategory = loaderCFCategory
	}
	if loaderClearOverride || loader.OverrideMods == nil {
		loader.OverrideMods = make(map[string]string)
	}
	for _, o := range loaderOverrides {
		from, to, ok := strings.Cut(o, "=")
		if !ok || from == "" || to == "" {
			return fmt.Errorf("invalid override %q; expected from=to", o)
		}
		loader.OverrideMods[from] = to
	}

	if err := config.SaveLoader(service.ConfigDir(), loader); err != nil {
		return err
	}
	fmt.Printf("Saved loader %s (categories: %s)\n", loader.Name, strings.Join(loader.ModrinthCategories, ", "))
	return nil
}
