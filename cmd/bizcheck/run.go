// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bizcheck/internal/pipeline"
	"github.com/pdiddy/bizcheck/internal/render"
	"github.com/pdiddy/bizcheck/internal/view"
	"github.com/pdiddy/bizcheck/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Take a new idea all the way to a feasibility report",
	Long: `Run saves a new idea, collects its market data, analyzes it and
generates the report in one go, showing each step as it progresses. If a
stage fails the error is shown and the run stops.

Pass --tui for a full-screen loading view; press q to cancel.`,
	RunE: runRun,
}

func init() {
	addIdeaFlags(runCmd, true)
	runCmd.Flags().Bool("tui", false, "show the loading screen as a terminal UI")
	runCmd.Flags().String("type", "", "report type: basic, detailed or executive (default from config)")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	tui, _ := cmd.Flags().GetBool("tui")
	form, err := ideaForm(cmd)
	if err != nil {
		return err
	}
	if err := form.Validate(); err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	reportType := a.cfg.Pipeline.ReportType
	if t, _ := cmd.Flags().GetString("type"); t != "" {
		reportType = types.ReportType(t)
		if !reportType.Valid() {
			return fmt.Errorf("unknown report type %q: use basic, detailed or executive", t)
		}
	}

	// A stored token the backend rejects is cleared before anything starts.
	s := view.NewSession(a.auth, a.router)
	if err := s.Restore(cmd.Context(), a.tokens.HasAccessToken()); err != nil {
		a.log.Info("stored session rejected", "error", err)
	}

	runner := &pipeline.Runner{
		Ideas:      a.ideas,
		Reports:    a.reports,
		Poll:       a.cfg.Poll,
		ReportType: reportType,
		Logger:     a.log,
	}
	an := view.NewAnalyzer(runner, a.router, a.cfg.Pipeline.ResetDelay)
	an.Cache = a.recorder()
	an.Logger = a.log

	var res *pipeline.Result
	run := func(ctx context.Context) error {
		var err error
		res, err = an.Run(ctx, form.Request(), s.LoggedIn())
		return err
	}

	if tui {
		err = view.RunWithTUI(cmd.Context(), an, run)
	} else {
		sp := &stepPrinter{w: a.errOut, last: -1}
		an.OnChange = sp.observe
		err = run(cmd.Context())
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Idea %s analyzed.\n\n", res.IdeaID)
	if res.Analysis != nil {
		render.Scores(a.out, res.Analysis)
		fmt.Fprintln(a.out)
	}
	if res.Report != nil {
		return render.Report(a.out, res.Report)
	}
	return nil
}

// stepPrinter writes one line per loading step and the error, if any.
type stepPrinter struct {
	w io.Writer

	mu      sync.Mutex
	last    int
	lastErr string
}

func (p *stepPrinter) observe(s view.LoadingState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s.Error != "" && s.Error != p.lastErr {
		p.lastErr = s.Error
		fmt.Fprintf(p.w, "error: %s\n", s.Error)
		return
	}
	if s.State == pipeline.Failed || s.Step == p.last || s.Step >= len(view.LoadingSteps) {
		return
	}
	p.last = s.Step
	fmt.Fprintf(p.w, "[%d/%d] %s\n", s.Step+1, len(view.LoadingSteps), view.LoadingSteps[s.Step].Label)
}
