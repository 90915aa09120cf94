package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tmods/internal/core"
	"tmods/internal/domain"
)

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// printJSON writes v to stdout as indented JSON
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// modsDir returns the download directory, resolving a relative config value
// against the working directory
func modsDir(svc *core.Service, flag string) (string, error) {
	dir := flag
	if dir == "" {
		dir = svc.Config().ModsDir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving mods dir: %w", err)
	}
	return abs, nil
}

// promptManualDownload is the popup for files the catalog will not serve
// directly: it shows the download page and waits until the file is in place.
func promptManualDownload(ctx context.Context, url, dest string) error {
	fmt.Fprintf(os.Stderr, "%s\n", colorYellow("This file must be downloaded manually."))
	fmt.Fprintf(os.Stderr, "  Open:    %s\n", url)
	fmt.Fprintf(os.Stderr, "  Save to: %s\n", dest)
	fmt.Fprint(os.Stderr, "Press Enter when done (or type 'skip'): ")

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	if strings.TrimSpace(strings.ToLower(input)) == "skip" {
		return ErrCancelled
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(dest); err != nil {
		return fmt.Errorf("%w: %s was not found", domain.ErrDownloadFailed, dest)
	}
	return nil
}

// fetchMod resolves the best version of mod, downloads its primary file into
// dir and records it in the download ledger. It returns the file path.
func fetchMod(ctx context.Context, svc *core.Service, mod domain.ModIdentity, loader domain.ModLoader, versions []string, dir string, popup domain.PopupFunc) (string, *domain.ResolvedVersion, error) {
	resolved, err := svc.FindVersion(ctx, mod, loader, versions)
	if err != nil {
		return "", nil, err
	}
	file, ok := resolved.Version.PrimaryFile()
	if !ok {
		return "", nil, fmt.Errorf("%w: version %s has no files", domain.ErrNotFound, resolved.Version.ID)
	}

	name, err := safeFileName(file.FileName)
	if err != nil {
		return "", nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", nil, fmt.Errorf("creating mods dir: %w", err)
	}
	dest := filepath.Join(dir, name)

	if err := svc.Download(ctx, *resolved, dest, popup); err != nil {
		return "", nil, err
	}
	if err := svc.RecordDownload(*resolved, dest); err != nil {
		return dest, resolved, fmt.Errorf("recording download: %w", err)
	}
	return dest, resolved, nil
}

// safeFileName strips any directory part from a catalog-supplied file name
func safeFileName(name string) (string, error) {
	base := filepath.Base(filepath.FromSlash(name))
	switch base {
	case ".", "..", string(filepath.Separator):
		return "", fmt.Errorf("%w: unusable file name %q", domain.ErrDownloadFailed, name)
	}
	return base, nil
}

// describeError adds a hint to errors the user can act on
func describeError(err error) error {
	switch {
	case errors.Is(err, domain.ErrMissingCredential):
		return fmt.Errorf("%w\nRun 'tmods auth login' or set CURSEFORGE_API_KEY", err)
	case errors.Is(err, domain.ErrPopupRequired):
		return fmt.Errorf("%w\nDownload the file from the page above and try again", err)
	default:
		return err
	}
}

// requiredDeps returns the identities of required dependencies, in order
func requiredDeps(deps []domain.DependencyListEntry) []domain.ModIdentity {
	var mods []domain.ModIdentity
	for _, dep := range deps {
		if dep.Type == domain.DependencyRequired {
			mods = append(mods, dep.Mod.Identity)
		}
	}
	return mods
}
