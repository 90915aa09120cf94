package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <provider:id>",
	Short: "Find the version to install for the loader and game versions",
	Long: `Find the newest version of a mod compatible with the loader and game
versions, and list its files.

Examples:
  tmods resolve modrinth:AANobbMI --game-version 1.20.1
  tmods resolve curseforge:238222 --loader quilt`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	mod, err := parseModRef(args[0])
	if err != nil {
		return err
	}

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	loader, versions, err := target(service)
	if err != nil {
		return err
	}

	resolved, err := service.FindVersion(context.Background(), mod, loader, versions)
	if err != nil {
		return describeError(err)
	}
	if jsonOutput {
		return printJSON(resolved)
	}

	v := resolved.Version
	fmt.Printf("%s %s (%s)\n", mod, v.Name, v.ID)
	if v.VersionNumber != "" {
		fmt.Printf("Version number: %s\n", v.VersionNumber)
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tSIZE\tPRIMARY\tURL")
	for _, f := range v.Files {
		url := f.URL
		if url == "" {
			url = colorYellow("(manual download)")
		}
		primary := ""
		if f.Primary {
			primary = "yes"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", f.FileName, f.Size, primary, url)
	}
	return w.Flush()
}
