package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file.jar>",
	Short: "Read the manifest embedded in a mod jar",
	Long: `Read fabric.mod.json or quilt.mod.json from a mod jar without asking
any catalog.

Examples:
  tmods parse mods/sodium-fabric-0.5.3.jar`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	md, err := service.ParseLocalFile(args[0])
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(md)
	}

	printInstalledMetadata(md)
	return nil
}
