// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bizcheck/internal/cache"
	"github.com/pdiddy/bizcheck/internal/render"
	"github.com/pdiddy/bizcheck/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Read generated feasibility reports",
}

var reportShowCmd = &cobra.Command{
	Use:   "show <report-id>",
	Short: "Show a report as text, JSON or YAML",
	Long: `Show fetches a report and prints its executive summary, SWOT analysis,
analysis sections and recommendation. Use --format json or yaml to export
it, and --out to write it to a file.`,
	Args: cobra.ExactArgs(1),
	RunE: runReportShow,
}

func init() {
	reportShowCmd.Flags().String("format", "text", "output format: text, json or yaml")
	reportShowCmd.Flags().String("out", "", "write the report to this file instead of stdout")

	reportCmd.AddCommand(reportShowCmd)
	rootCmd.AddCommand(reportCmd)
}

func runReportShow(cmd *cobra.Command, args []string) error {
	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := render.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	outPath, _ := cmd.Flags().GetString("out")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := a.reports.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("fetching report %s: %w", args[0], err)
	}
	if a.cache != nil {
		if err := a.cache.Put(cmd.Context(), cache.KindReport, r.ReportID, string(r.Status), r); err != nil {
			a.log.Warn("caching report", "error", err)
		}
	}

	if outPath == "" {
		return writeReport(a.out, format, r)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	if err := writeReport(f, format, r); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Wrote report %s to %s\n", r.ReportID, outPath)
	return nil
}

func writeReport(w io.Writer, format render.Format, r *types.Report) error {
	if handled, err := render.Encode(w, format, r); handled {
		return err
	}
	return render.Report(w, r)
}
