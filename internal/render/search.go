// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"io"

	"github.com/pdiddy/bizcheck/internal/cache"
	"github.com/pdiddy/bizcheck/pkg/types"
)

// SearchTable writes search hits ranked in the order received.
func SearchTable(w io.Writer, kind types.SearchKind, results []types.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-50s  %-6s  %s\n", "Rank", "Title", "Score", "URL")
	rule(w, 100)
	for i, r := range results {
		score := "-"
		if r.RelevanceScore > 0 {
			score = fmt.Sprintf("%.2f", r.RelevanceScore)
		}
		fmt.Fprintf(w, "%-4d  %-50s  %-6s  %s\n", i+1, truncate(r.Title, 50), score, r.URL)
	}
	fmt.Fprintf(w, "\n%d %s results\n", len(results), kind)
}

// CacheTable writes cached entries.
func CacheTable(w io.Writer, entries []cache.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "Cache is empty.")
		return
	}

	fmt.Fprintf(w, "%-10s  %-36s  %-12s  %s\n", "Kind", "ID", "Status", "Updated")
	rule(w, 84)
	for _, e := range entries {
		fmt.Fprintf(w, "%-10s  %-36s  %-12s  %s\n",
			e.Kind, truncate(e.ID, 36), orDash(e.Status), e.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(w, "\n%d entries\n", len(entries))
}
