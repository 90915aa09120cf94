package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var identifyCmd = &cobra.Command{
	Use:   "identify <file.jar>",
	Short: "Identify a mod file by its hash",
	Long: `Identify a mod jar on disk. The file's SHA-1 is looked up on Modrinth,
then its fingerprint on CurseForge, then the manifest embedded in the jar is
read.

Examples:
  tmods identify mods/sodium-fabric-0.5.3.jar
  tmods identify mods/jei.jar --json`,
	Args: cobra.ExactArgs(1),
	RunE: runIdentify,
}

func init() {
	rootCmd.AddCommand(identifyCmd)
}

func runIdentify(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	loader, versions, err := target(service)
	if err != nil {
		return err
	}

	md, err := service.IdentifyFile(context.Background(), args[0], loader, versions)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(md)
	}

	printInstalledMetadata(md)
	return nil
}
