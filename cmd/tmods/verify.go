package main

import (
	"context"
	"fmt"
	"path/filepath"

	"tmods/internal/core"

	"github.com/spf13/cobra"
)

var verifyFix bool

type verifyJSONOutput struct {
	Files    []verifyFileJSON `json:"files"`
	Issues   int              `json:"issues"`
	Warnings int              `json:"warnings"`
}

type verifyFileJSON struct {
	Mod       string `json:"mod"`
	VersionID string `json:"version_id"`
	Path      string `json:"path"`
	Status    string `json:"status"` // ok, missing, mismatch, no_checksum
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify downloaded mod files",
	Long: `Re-hash every file downloaded by tmods and compare it against the
checksum the catalog published.

Examples:
  tmods verify
  tmods verify --fix     # Re-download missing or corrupted files`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyFix, "fix", false, "re-download missing and corrupted files")

	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	svc, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	results, err := svc.VerifyDownloads()
	if err != nil {
		return fmt.Errorf("verifying downloads: %w", err)
	}

	if len(results) == 0 {
		if jsonOutput {
			return printJSON(verifyJSONOutput{Files: []verifyFileJSON{}})
		}
		fmt.Println("No downloaded mods to verify.")
		return nil
	}

	var issues, warnings int
	jsonFiles := make([]verifyFileJSON, 0, len(results))

	if !jsonOutput {
		fmt.Println("Verifying downloaded mods...")
		fmt.Println()
	}

	for _, r := range results {
		dl := r.Download
		status := r.Status

		switch status {
		case core.VerifyMissing, core.VerifyMismatch:
			issues++
			if !jsonOutput {
				fmt.Printf("%s %s (%s) - %s\n", colorRed("X"), dl.Mod, filepath.Base(dl.Path), colorRed(string(status)))
			}
			if verifyFix {
				if err := refetch(svc, dl.Mod.String(), dl.Path); err != nil {
					if !jsonOutput {
						fmt.Printf("  Re-download failed: %v\n", err)
					}
				} else {
					if !jsonOutput {
						fmt.Printf("  %s\n", colorGreen("Re-downloaded OK"))
					}
					issues--
					status = core.VerifyOK
				}
			}
		case core.VerifyNoChecksum:
			warnings++
			if !jsonOutput {
				fmt.Printf("%s %s (%s) - NO CHECKSUM\n", colorYellow("?"), dl.Mod, filepath.Base(dl.Path))
			}
		default:
			if !jsonOutput {
				fmt.Printf("%s %s (%s) - %s\n", colorGreen("+"), dl.Mod, filepath.Base(dl.Path), colorGreen("OK"))
			}
		}

		jsonFiles = append(jsonFiles, verifyFileJSON{
			Mod:       dl.Mod.String(),
			VersionID: dl.VersionID,
			Path:      dl.Path,
			Status:    string(status),
		})
	}

	if jsonOutput {
		return printJSON(verifyJSONOutput{Files: jsonFiles, Issues: issues, Warnings: warnings})
	}

	fmt.Println()
	if issues > 0 || warnings > 0 {
		fmt.Printf("%d issue(s), %d warning(s) found.\n", issues, warnings)
		if issues > 0 && !verifyFix {
			fmt.Println("Run with --fix to re-download missing and corrupted files.")
		}
	} else {
		fmt.Println(colorGreen("All files verified OK."))
	}

	return nil
}

// refetch downloads the current best version of ref into the directory of
// path. A file with a different name replaces path in the ledger.
func refetch(svc *core.Service, ref, path string) error {
	mod, err := parseModRef(ref)
	if err != nil {
		return err
	}
	loader, versions, err := target(svc)
	if err != nil {
		return err
	}

	newPath, _, err := fetchMod(context.Background(), svc, mod, loader, versions, filepath.Dir(path), promptManualDownload)
	if err != nil {
		return describeError(err)
	}
	if newPath != path {
		if err := svc.DB().DeleteDownload(path); err != nil {
			return fmt.Errorf("updating ledger: %w", err)
		}
	}
	return nil
}
