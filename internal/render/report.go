// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bizcheck/pkg/types"
)

// Report writes a report as text: summary, recommendation, the four SWOT
// categories in fixed order and the free-form analysis sections.
func Report(w io.Writer, r *types.Report) error {
	fmt.Fprintf(w, "Report %s (idea %s)\n", r.ReportID, r.IdeaID)
	rule(w, 60)
	fmt.Fprintf(w, "Recommendation: %s\n", orDash(string(r.Recommendation)))
	if r.CreatedAt != "" {
		fmt.Fprintf(w, "Generated:      %s\n", r.CreatedAt)
	}

	fmt.Fprintln(w, "\nExecutive summary")
	fmt.Fprintln(w, indent(orDash(r.ExecutiveSummary), "  "))

	SWOT(w, r.SWOT)

	sections := []struct {
		title string
		body  any
	}{
		{"Market analysis", r.MarketAnalysis},
		{"Competition analysis", r.CompetitionAnalysis},
		{"Financial analysis", r.FinancialAnalysis},
		{"Risk assessment", r.RiskAssessment},
	}
	for _, s := range sections {
		if s.body == nil {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", s.title)
		text, err := freeForm(s.body)
		if err != nil {
			return fmt.Errorf("rendering %s: %w", strings.ToLower(s.title), err)
		}
		fmt.Fprintln(w, indent(text, "  "))
	}
	return nil
}

// SWOT writes the four SWOT categories, each with its items in order.
func SWOT(w io.Writer, s types.SWOT) {
	fmt.Fprintln(w, "\nSWOT")
	for _, c := range s.Categories() {
		fmt.Fprintf(w, "  %s (%d)\n", c.Name, len(c.Items))
		if len(c.Items) == 0 {
			fmt.Fprintln(w, "    -")
		}
		for _, item := range c.Items {
			fmt.Fprintf(w, "    - %s\n", item)
		}
	}
}

// freeForm renders a server-owned JSON section as YAML text.
func freeForm(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
