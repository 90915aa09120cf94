package main

import (
	"context"
	"fmt"

	"tmods/internal/core"
	"tmods/internal/domain"
	"tmods/internal/tui"
	"tmods/internal/tui/views"

	"github.com/spf13/cobra"
)

var (
	browseKeys string
	browseDir  string
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Search and download mods interactively",
	Long: `Open a terminal UI to search both catalogs, download mods and review
the files downloaded so far.

Files that need a manual download are reported with their download page;
use 'tmods download' for those.`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().StringVar(&browseKeys, "keys", "vim", "keybindings: vim or standard")
	browseCmd.Flags().StringVarP(&browseDir, "dir", "d", "", "directory to save files in (default: mods_dir from config.yaml)")

	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	loader, versions, err := target(service)
	if err != nil {
		return err
	}
	dir, err := modsDir(service, browseDir)
	if err != nil {
		return err
	}

	mode, err := tui.ParseKeyMode(browseKeys)
	if err != nil {
		return err
	}

	return tui.Run(browseActions(service, loader, versions, dir), mode)
}

// browseActions binds the TUI to the service
func browseActions(svc *core.Service, loader domain.ModLoader, versions []string, dir string) tui.Actions {
	return tui.Actions{
		Search: func(ctx context.Context, query string) (*domain.SearchResult, error) {
			return svc.Search(ctx, query, loader, versions, svc.Config().UseCurseForge)
		},
		Download: func(ctx context.Context, hit domain.SearchHit) (string, error) {
			path, _, err := fetchMod(ctx, svc, hit.Identity, loader, versions, dir, nil)
			return path, err
		},
		Downloads: func() ([]views.DownloadEntry, error) {
			results, err := svc.VerifyDownloads()
			if err != nil {
				return nil, err
			}
			entries := make([]views.DownloadEntry, 0, len(results))
			for _, r := range results {
				entries = append(entries, views.DownloadEntry{
					Mod:       r.Download.Mod.String(),
					VersionID: r.Download.VersionID,
					Path:      r.Download.Path,
					Status:    string(r.Status),
				})
			}
			return entries, nil
		},
	}
}
