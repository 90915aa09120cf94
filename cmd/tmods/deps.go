package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"tmods/internal/domain"

	"github.com/spf13/cobra"
)

var depsCmd = &cobra.Command{
	Use:   "deps <provider:id>",
	Short: "List the direct dependencies of a mod",
	Long: `Resolve a mod and list its direct dependencies, each resolved to a
compatible version. Optional and incompatible dependencies without a
compatible version are listed without one.

Examples:
  tmods deps modrinth:P7dR8mSH
  tmods deps curseforge:238222 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runDeps,
}

func init() {
	rootCmd.AddCommand(depsCmd)
}

func runDeps(cmd *cobra.Command, args []string) error {
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

	ctx := context.Background()
	resolved, err := service.FindVersion(ctx, mod, loader, versions)
	if err != nil {
		return describeError(err)
	}

	deps, err := service.ListDependencies(ctx, *resolved, loader, versions)
	if err != nil {
		return describeError(err)
	}

	if jsonOutput {
		if deps == nil {
			deps = []domain.DependencyListEntry{}
		}
		return printJSON(deps)
	}

	if len(deps) == 0 {
		fmt.Println("No dependencies.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MOD\tTYPE\tVERSION")
	for _, dep := range deps {
		version := "-"
		if dep.Mod.Version != nil {
			version = dep.Mod.Version.ID
		}
		typ := string(dep.Type)
		switch dep.Type {
		case domain.DependencyRequired:
			typ = colorGreen(typ)
		case domain.DependencyIncompatible:
			typ = colorRed(typ)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", dep.Mod.Identity, typ, version)
	}
	return w.Flush()
}
