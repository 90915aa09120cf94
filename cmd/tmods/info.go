package main

import (
	"context"
	"fmt"
	"strings"

	"tmods/internal/domain"

	"github.com/spf13/cobra"
)

var (
	infoVersion  string
	infoPath     string
	infoResource bool
)

var infoCmd = &cobra.Command{
	Use:   "info <provider:id>",
	Short: "Show metadata for a mod and whether it has an update",
	Long: `Show catalog metadata for a mod.

With --version, the mod is treated as installed at that version and the
output says whether a newer compatible version exists. With --path, a
catalog failure falls back to the manifest embedded in the jar.

Examples:
  tmods info modrinth:AANobbMI
  tmods info curseforge:238222 --version 4001 --path mods/jei.jar
  tmods info modrinth:BVzZfTc1 --resource`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().StringVar(&infoVersion, "version", "", "installed version ID")
	infoCmd.Flags().StringVar(&infoPath, "path", "", "installed file to read when the catalog lookup fails")
	infoCmd.Flags().BoolVar(&infoResource, "resource", false, "treat the project as a resource pack or shader")

	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	mod, err := parseModRef(args[0])
	if err != nil {
		return err
	}

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	ctx := context.Background()

	if infoResource {
		md, err := service.GetResourceMetadata(ctx, mod, infoVersion)
		if err != nil {
			return describeError(err)
		}
		if jsonOutput {
			return printJSON(md)
		}
		fmt.Printf("%s (%s)\n", md.Name, md.Identity)
		printAuthors(md.Authors)
		fmt.Printf("Version: %s\n", md.Version)
		if md.Description != "" {
			fmt.Printf("\n%s\n", md.Description)
		}
		return nil
	}

	loader, versions, err := target(service)
	if err != nil {
		return err
	}

	md, err := service.GetInstalledMetadata(ctx, mod, infoVersion, loader, versions, infoPath)
	if err != nil {
		return describeError(err)
	}
	if jsonOutput {
		return printJSON(md)
	}

	printInstalledMetadata(md)
	return nil
}

func printAuthors(authors []string) {
	if len(authors) > 0 {
		fmt.Printf("Authors: %s\n", strings.Join(authors, ", "))
	}
}

func printInstalledMetadata(md *domain.InstalledMetadata) {
	fmt.Printf("%s (%s)\n", md.Name, md.Identity)
	printAuthors(md.Authors)
	if md.Version != "" {
		fmt.Printf("Version: %s\n", md.Version)
	}
	if md.Slug != "" {
		fmt.Printf("Slug:    %s\n", md.Slug)
	}
	if md.Description != "" {
		fmt.Printf("\n%s\n", md.Description)
	}

	if len(md.Dependencies) > 0 {
		fmt.Println("\nDependencies:")
		for _, dep := range md.Dependencies {
			line := fmt.Sprintf("  %s [%s]", dep.ID, dep.Type)
			if dep.Version != "" {
				line += " @ " + dep.Version
			}
			fmt.Println(line)
		}
	}

	fmt.Println()
	if md.UpdateVersion != nil {
		fmt.Println(colorYellow(fmt.Sprintf("Update available: %s (%s)", md.UpdateVersion.Name, md.UpdateVersion.ID)))
	} else {
		fmt.Println(colorGreen("Up to date"))
	}
}
