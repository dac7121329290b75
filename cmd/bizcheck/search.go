// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bizcheck/internal/render"
	"github.com/pdiddy/bizcheck/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <kind> <query...>",
	Short: "Query one of the backend's data-collection sources",
	Long: `Search runs a free-text query against one data-collection source:
competitors, market, reviews, regulations, technology or profitability.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("limit", 0, "maximum number of results (0 = backend default)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	kind, err := types.ParseSearchKind(args[0])
	if err != nil {
		return err
	}
	query := strings.Join(args[1:], " ")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.search.Search(cmd.Context(), kind, query, limit)
	if err != nil {
		return fmt.Errorf("searching %s: %w", kind, err)
	}
	if jsonOutput {
		return render.JSON(a.out, results)
	}
	render.SearchTable(a.out, kind, results)
	return nil
}
