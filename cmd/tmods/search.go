package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	searchLimit        int
	searchNoCurseForge bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search Modrinth and CurseForge",
	Long: `Search both catalogs for mods matching the loader and game versions.

Results are listed Modrinth first. A CurseForge hit with the same name or
slug as an earlier hit is dropped.

Examples:
  tmods search sodium
  tmods search "just enough items" --loader quilt --game-version 1.19.2
  tmods search lithium --no-curseforge`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 20, "maximum number of results to print")
	searchCmd.Flags().BoolVar(&searchNoCurseForge, "no-curseforge", false, "only search Modrinth")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	loader, versions, err := target(service)
	if err != nil {
		return err
	}

	useCurseForge := service.Config().UseCurseForge && !searchNoCurseForge
	if verbose && !jsonOutput {
		fmt.Printf("Searching for \"%s\" (%s, %s)...\n", query, loader.Name, strings.Join(versions, ", "))
	}

	result, err := service.Search(context.Background(), query, loader, versions, useCurseForge)
	if err != nil {
		return fmt.Errorf("search failed: %w", describeError(err))
	}

	if jsonOutput {
		return printJSON(result)
	}

	if len(result.Hits) == 0 {
		fmt.Println("No mods found.")
		return nil
	}

	hits := result.Hits
	if searchLimit > 0 && len(hits) > searchLimit {
		hits = hits[:searchLimit]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MOD\tNAME\tAUTHOR\tDESCRIPTION")
	fmt.Fprintln(w, "---\t----\t------\t-----------")
	for _, hit := range hits {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			hit.Identity,
			truncate(hit.Name, 30),
			truncate(strings.Join(hit.Authors, ", "), 20),
			truncate(hit.Description, 50),
		)
	}
	w.Flush()

	fmt.Printf("\nShowing %d of %d results.\n", len(hits), result.Count)
	return nil
}
