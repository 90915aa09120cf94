package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"tmods/internal/core"
	"tmods/internal/domain"

	"github.com/spf13/cobra"
)

var outdatedApply bool

type outdatedJSON struct {
	Mod         string `json:"mod"`
	Path        string `json:"path"`
	VersionID   string `json:"installed_version"`
	UpdateID    string `json:"update_version"`
	UpdateName  string `json:"update_name"`
	AppliedPath string `json:"applied_path,omitempty"`
}

var outdatedCmd = &cobra.Command{
	Use:   "outdated",
	Short: "Check downloaded mods for updates",
	Long: `Check every mod downloaded by tmods for a newer version compatible
with the loader and game versions.

Examples:
  tmods outdated
  tmods outdated --game-version 1.20.4
  tmods outdated --apply   # Download updates and remove the old files`,
	Args: cobra.NoArgs,
	RunE: runOutdated,
}

func init() {
	outdatedCmd.Flags().BoolVar(&outdatedApply, "apply", false, "download available updates, replacing the old files")

	rootCmd.AddCommand(outdatedCmd)
}

func runOutdated(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	loader, versions, err := target(service)
	if err != nil {
		return err
	}

	installed, err := service.InstalledMods()
	if err != nil {
		return fmt.Errorf("reading downloads: %w", err)
	}
	if len(installed) == 0 {
		if jsonOutput {
			return printJSON([]outdatedJSON{})
		}
		fmt.Println("No downloaded mods.")
		return nil
	}

	if verbose && !jsonOutput {
		fmt.Printf("Checking %d mod(s) for updates...\n", len(installed))
	}

	ctx := context.Background()
	updates, checkErr := core.NewUpdater(service).CheckUpdates(ctx, installed, loader, versions)
	if checkErr != nil && !jsonOutput {
		fmt.Fprintf(os.Stderr, "%s %v\n", colorYellow("warning:"), checkErr)
	}

	out := make([]outdatedJSON, 0, len(updates))
	var applyErrs []error
	for _, u := range updates {
		entry := outdatedJSON{
			Mod:        u.Installed.Mod.String(),
			Path:       u.Installed.Path,
			VersionID:  u.Installed.VersionID,
			UpdateID:   u.Metadata.UpdateVersion.ID,
			UpdateName: u.Metadata.UpdateVersion.Name,
		}
		if outdatedApply {
			path, err := applyUpdate(ctx, service, u)
			if err != nil {
				applyErrs = append(applyErrs, fmt.Errorf("%s: %w", u.Installed.Mod, describeError(err)))
			} else {
				entry.AppliedPath = path
			}
		}
		out = append(out, entry)
	}

	if jsonOutput {
		if err := printJSON(out); err != nil {
			return err
		}
		return errors.Join(append([]error{checkErr}, applyErrs...)...)
	}

	if len(out) == 0 {
		fmt.Println(colorGreen("All mods are up to date."))
		return errors.Join(applyErrs...)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MOD\tINSTALLED\tAVAILABLE\tSTATUS")
	for _, e := range out {
		status := colorYellow("update available")
		if e.AppliedPath != "" {
			status = colorGreen("updated")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Mod, e.VersionID, truncate(e.UpdateName, 30), status)
	}
	w.Flush()

	if !outdatedApply {
		fmt.Println("\nRun with --apply to download the updates.")
	}
	return errors.Join(applyErrs...)
}

// applyUpdate downloads the update next to the installed file, records it and
// removes the old file when the name changed
func applyUpdate(ctx context.Context, svc *core.Service, u core.Update) (string, error) {
	resolved := domain.ResolvedVersion{Identity: updateIdentity(ctx, svc, u), Version: u.Metadata.UpdateVersion}
	file, ok := resolved.Version.PrimaryFile()
	if !ok {
		return "", fmt.Errorf("%w: update has no files", domain.ErrNotFound)
	}
	name, err := safeFileName(file.FileName)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(filepath.Dir(u.Installed.Path), name)
	if err := svc.Download(ctx, resolved, dest, promptManualDownload); err != nil {
		return "", err
	}
	if err := svc.RecordDownload(resolved, dest); err != nil {
		return dest, fmt.Errorf("recording download: %w", err)
	}

	if dest != u.Installed.Path {
		if err := os.Remove(u.Installed.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return dest, fmt.Errorf("removing old file: %w", err)
		}
		if err := svc.DB().DeleteDownload(u.Installed.Path); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return dest, fmt.Errorf("updating ledger: %w", err)
		}
	}
	return dest, nil
}

// updateIdentity is the mod the update belongs to. A loader override swaps in
// a different project, whose slug comes from its own catalog record.
func updateIdentity(ctx context.Context, svc *core.Service, u core.Update) domain.ModIdentity {
	installed := u.Installed.Mod
	projectID := u.Metadata.UpdateVersion.ProjectID
	if projectID == "" || projectID == installed.ID {
		return installed
	}

	identity := domain.ModIdentity{Provider: installed.Provider, ID: projectID}
	md, err := svc.GetResourceMetadata(ctx, identity, u.Metadata.UpdateVersion.ID)
	if err != nil {
		return identity
	}
	return md.Identity
}
