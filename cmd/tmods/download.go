package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	downloadDir      string
	downloadWithDeps bool
)

type downloadJSONOutput struct {
	Mod       string `json:"mod"`
	VersionID string `json:"version_id"`
	Path      string `json:"path"`
}

var downloadCmd = &cobra.Command{
	Use:   "download <provider:id>...",
	Short: "Download mods into the mods directory",
	Long: `Resolve each mod to its best version, download the primary file and
verify its hash. Downloads are recorded for 'tmods verify' and
'tmods outdated'.

CurseForge files without a direct link need a manual download; you will be
shown the download page and asked to save the file in place.

Examples:
  tmods download modrinth:AANobbMI
  tmods download curseforge:238222:jei --dir ~/.minecraft/mods
  tmods download modrinth:P7dR8mSH --with-deps`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadDir, "dir", "d", "", "directory to save files in (default: mods_dir from config.yaml)")
	downloadCmd.Flags().BoolVar(&downloadWithDeps, "with-deps", false, "also download required dependencies")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	loader, versions, err := target(service)
	if err != nil {
		return err
	}
	dir, err := modsDir(service, downloadDir)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var out []downloadJSONOutput
	seen := make(map[string]bool)

	for _, arg := range args {
		mod, err := parseModRef(arg)
		if err != nil {
			return err
		}
		if seen[mod.String()] {
			continue
		}
		seen[mod.String()] = true

		path, resolved, err := fetchMod(ctx, service, mod, loader, versions, dir, promptManualDownload)
		if err != nil {
			return fmt.Errorf("downloading %s: %w", mod, describeError(err))
		}
		out = append(out, downloadJSONOutput{Mod: mod.String(), VersionID: resolved.Version.ID, Path: path})
		if !jsonOutput {
			fmt.Printf("%s %s -> %s\n", colorGreen("✓"), mod, path)
		}

		if !downloadWithDeps {
			continue
		}
		deps, err := service.ListDependencies(ctx, *resolved, loader, versions)
		if err != nil {
			return fmt.Errorf("listing dependencies of %s: %w", mod, describeError(err))
		}
		for _, dep := range requiredDeps(deps) {
			if seen[dep.String()] {
				continue
			}
			seen[dep.String()] = true

			path, resolved, err := fetchMod(ctx, service, dep, loader, versions, dir, promptManualDownload)
			if err != nil {
				return fmt.Errorf("downloading dependency %s: %w", dep, describeError(err))
			}
			out = append(out, downloadJSONOutput{Mod: dep.String(), VersionID: resolved.Version.ID, Path: path})
			if !jsonOutput {
				fmt.Printf("%s %s -> %s (dependency)\n", colorGreen("✓"), dep, path)
			}
		}
	}

	if jsonOutput {
		return printJSON(out)
	}
	return nil
}
