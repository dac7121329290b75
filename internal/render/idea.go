// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/bizcheck/pkg/types"
)

// IdeaTable writes one page of ideas as a table.
func IdeaTable(w io.Writer, list *types.IdeaList) {
	if list == nil || len(list.Ideas) == 0 {
		fmt.Fprintln(w, "No ideas found.")
		return
	}

	fmt.Fprintf(w, "%-36s  %-40s  %-10s  %s\n", "ID", "Title", "Status", "Created")
	rule(w, 100)
	for _, idea := range list.Ideas {
		fmt.Fprintf(w, "%-36s  %-40s  %-10s  %s\n",
			idea.ID, truncate(idea.Title, 40), idea.Status, idea.CreatedAt)
	}

	fmt.Fprintf(w, "\n%d of %d ideas", len(list.Ideas), list.Total)
	if list.PageSize > 0 && list.Total > list.PageSize {
		pages := (list.Total + list.PageSize - 1) / list.PageSize
		fmt.Fprintf(w, " (page %d of %d)", list.Page, pages)
	}
	fmt.Fprintln(w)
}

// IdeaDetail writes every field of idea.
func IdeaDetail(w io.Writer, idea *types.Idea) {
	fields := []struct{ label, value string }{
		{"ID", idea.ID},
		{"Title", idea.Title},
		{"Status", string(idea.Status)},
		{"Industry", orDash(idea.Industry)},
		{"Description", orDash(idea.Description)},
		{"Problem", idea.Problem},
		{"Target customer", idea.TargetCustomer},
		{"Value proposition", idea.ValueProposition},
		{"Revenue model", idea.RevenueModel},
		{"Differentiation", idea.Differentiation},
		{"Constraints", orDash(idea.Constraints)},
		{"Created", idea.CreatedAt},
		{"Updated", idea.UpdatedAt},
	}
	for _, f := range fields {
		fmt.Fprintf(w, "%-18s %s\n", f.label+":", f.value)
	}
}

// Collection writes a one-line progress summary of a collection job.
func Collection(w io.Writer, st *types.CollectionStatus) {
	total := st.TaskTotal()
	fmt.Fprintf(w, "collection %s: %3d%% (%d/%d tasks)", st.Status, st.Progress, len(st.CompletedTasks), total)
	if len(st.FailedTasks) > 0 {
		fmt.Fprintf(w, ", failed: %s", strings.Join(st.FailedTasks, ", "))
	}
	fmt.Fprintln(w)
}

// barWidth is the width of a full score bar.
const barWidth = 20

// Scores writes the analysis scores with a bar per score.
func Scores(w io.Writer, a *types.AnalysisResult) {
	fmt.Fprintf(w, "Analysis for %s (%s)\n", a.IdeaID, a.Status)
	rule(w, 48)
	for _, s := range a.Scores() {
		fmt.Fprintf(w, "%-16s %3d  %s\n", s.Label, s.Value, bar(s.Value))
	}
}

func bar(score int) string {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	filled := score * barWidth / 100
	return strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled)
}
