// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bizcheck/internal/cache"
	"github.com/pdiddy/bizcheck/internal/poll"
	"github.com/pdiddy/bizcheck/internal/render"
	"github.com/pdiddy/bizcheck/internal/view"
	"github.com/pdiddy/bizcheck/pkg/types"
)

var ideaCmd = &cobra.Command{
	Use:   "idea",
	Short: "Manage ideas and drive their pipeline stages",
	Long: `Idea lists, creates, edits and deletes ideas, and starts each pipeline
stage: data collection, analysis and report generation. A stage can only be
started once the previous one has completed.`,
}

// --- list subcommand ---

var ideaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your ideas",
	RunE:  runIdeaList,
}

func runIdeaList(cmd *cobra.Command, args []string) error {
	page, _ := cmd.Flags().GetInt("page")
	pageSize, _ := cmd.Flags().GetInt("page-size")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.ideas.List(cmd.Context(), page, pageSize)
	if err != nil {
		return fmt.Errorf("listing ideas: %w", err)
	}
	if a.cache != nil {
		for i := range list.Ideas {
			if _, err := a.cache.PutIdea(cmd.Context(), &list.Ideas[i]); err != nil {
				a.log.Warn("caching idea", "idea_id", list.Ideas[i].ID, "error", err)
			}
		}
	}
	if jsonOutput {
		return render.JSON(a.out, list)
	}
	render.IdeaTable(a.out, list)
	return nil
}

// --- create subcommand ---

var ideaCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Submit a new idea",
	Long: `Create submits a new idea from a YAML file, flags, or both (flags win).
Title, description, problem, target customer, value proposition, revenue
model and differentiation are required.

With --wait the idea is then taken through data collection and analysis.`,
	RunE: runIdeaCreate,
}

func runIdeaCreate(cmd *cobra.Command, args []string) error {
	wait, _ := cmd.Flags().GetBool("wait")
	form, err := ideaForm(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	screen := view.NewNewIdea(a.ideas, a.router)
	screen.Form = form
	id, err := screen.Submit(cmd.Context())
	if err != nil {
		return withBanner(screen.Error, err)
	}
	fmt.Fprintf(a.out, "Created idea %s\n", id)
	if !wait {
		return nil
	}

	if _, err := runStage(cmd.Context(), a, id, stageCollect, true); err != nil {
		return err
	}
	d, err := runStage(cmd.Context(), a, id, stageAnalyze, true)
	if err != nil {
		return err
	}
	if st := d.State(); st.Analysis != nil {
		render.Scores(a.out, st.Analysis)
	}
	return nil
}

// --- show subcommand ---

var ideaShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an idea with its latest collection and analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runIdeaShow,
}

func runIdeaShow(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	d := view.NewIdeaDetail(cmd.Context(), a.ideas, a.router, args[0], a.detailOptions(nil))
	defer d.Close()
	if err := d.Load(cmd.Context()); err != nil {
		return stateError(d, err)
	}
	st := d.State()

	if jsonOutput {
		return render.JSON(a.out, struct {
			Idea       *types.Idea             `json:"idea"`
			Collection *types.CollectionStatus `json:"collection,omitempty"`
			Analysis   *types.AnalysisResult   `json:"analysis,omitempty"`
		}{st.Idea, st.Collection, st.Analysis})
	}

	render.IdeaDetail(a.out, st.Idea)
	if st.Collection != nil {
		fmt.Fprintln(a.out)
		render.Collection(a.out, st.Collection)
	}
	if st.Analysis != nil {
		fmt.Fprintln(a.out)
		render.Scores(a.out, st.Analysis)
	}
	printNextStep(a.out, st.Idea.ID, st.Controls)
	return nil
}

func printNextStep(w io.Writer, id string, c view.StageControls) {
	switch {
	case c.StartCollection:
		fmt.Fprintf(w, "\nNext: bizcheck idea collect %s\n", id)
	case c.StartAnalysis:
		fmt.Fprintf(w, "\nNext: bizcheck idea analyze %s\n", id)
	case c.GenerateReport:
		fmt.Fprintf(w, "\nNext: bizcheck idea report %s\n", id)
	case c.CollectionRunning:
		fmt.Fprintln(w, "\nData collection is running.")
	case c.AnalysisRunning:
		fmt.Fprintln(w, "\nAnalysis is running.")
	}
}

// --- update subcommand ---

var ideaUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change fields of an idea",
	Args:  cobra.ExactArgs(1),
	RunE:  runIdeaUpdate,
}

func runIdeaUpdate(cmd *cobra.Command, args []string) error {
	req := ideaUpdate(cmd)
	if req.IsEmpty() {
		return fmt.Errorf("nothing to update: pass at least one field flag")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	idea, err := a.ideas.Update(cmd.Context(), args[0], req)
	if err != nil {
		return fmt.Errorf("updating idea %s: %w", args[0], err)
	}
	render.IdeaDetail(a.out, idea)
	return nil
}

// --- delete subcommand ---

var ideaDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an idea",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ideas.Delete(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("deleting idea %s: %w", args[0], err)
		}
		if a.cache != nil {
			if err := a.cache.DeleteIdea(cmd.Context(), args[0]); err != nil {
				a.log.Warn("removing idea from cache", "error", err)
			}
		}
		fmt.Fprintf(a.out, "Deleted idea %s\n", args[0])
		return nil
	},
}

// --- stage subcommands ---

var ideaCollectCmd = &cobra.Command{
	Use:   "collect <id>",
	Short: "Start data collection and wait for it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		noWait, _ := cmd.Flags().GetBool("no-wait")
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		_, err = runStage(cmd.Context(), a, args[0], stageCollect, !noWait)
		return err
	},
}

var ideaAnalyzeCmd = &cobra.Command{
	Use:   "analyze <id>",
	Short: "Start the analysis and wait for the scores",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		noWait, _ := cmd.Flags().GetBool("no-wait")
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := runStage(cmd.Context(), a, args[0], stageAnalyze, !noWait)
		if err != nil {
			return err
		}
		if st := d.State(); !noWait && st.Analysis != nil {
			render.Scores(a.out, st.Analysis)
		}
		return nil
	},
}

var ideaReportCmd = &cobra.Command{
	Use:   "report <id>",
	Short: "Generate the feasibility report",
	Args:  cobra.ExactArgs(1),
	RunE:  runIdeaReport,
}

func runIdeaReport(cmd *cobra.Command, args []string) error {
	noWait, _ := cmd.Flags().GetBool("no-wait")
	reportType, _ := cmd.Flags().GetString("type")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	if reportType != "" {
		a.cfg.Pipeline.ReportType = types.ReportType(reportType)
		if !a.cfg.Pipeline.ReportType.Valid() {
			return fmt.Errorf("unknown report type %q: use basic, detailed or executive", reportType)
		}
	}

	d, err := loadDetail(cmd.Context(), a, args[0])
	if err != nil {
		return err
	}
	defer d.Close()
	if !d.State().Controls.GenerateReport {
		return fmt.Errorf("idea %s has no completed analysis yet", args[0])
	}

	reportID, err := d.GenerateReport()
	if err != nil {
		return stateError(d, err)
	}
	if noWait {
		fmt.Fprintf(a.out, "Report %s requested: bizcheck report show %s\n", reportID, reportID)
		return nil
	}

	opts := poll.FromConfig("report", a.cfg.Poll)
	opts.Logger = a.log
	r, err := poll.Until(cmd.Context(), opts, func(ctx context.Context) (*types.Report, error) {
		return a.reports.Get(ctx, reportID)
	}, poll.ReportOutcome, nil)
	if err != nil {
		return fmt.Errorf("waiting for report %s: %w", reportID, err)
	}
	if a.cache != nil {
		if err := a.cache.Put(cmd.Context(), cache.KindReport, r.ReportID, string(r.Status), r); err != nil {
			a.log.Warn("caching report", "error", err)
		}
	}
	return render.Report(a.out, r)
}

// stage selects which job runStage starts.
type stage int

const (
	stageCollect stage = iota
	stageAnalyze
)

// runStage loads idea id, starts the stage if its control is enabled and,
// when wait is set, blocks until the stage's poll ends.
func runStage(ctx context.Context, a *app, id string, s stage, wait bool) (*view.IdeaDetail, error) {
	d, err := loadDetail(ctx, a, id)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	st := d.State()
	switch s {
	case stageCollect:
		if !st.Controls.StartCollection {
			return d, fmt.Errorf("data collection cannot start while idea %s is %s", id, st.Idea.Status)
		}
		err = d.StartCollection()
	case stageAnalyze:
		if !st.Controls.StartAnalysis {
			return d, fmt.Errorf("analysis needs a completed data collection for idea %s", id)
		}
		err = d.StartAnalysis()
	}
	if err != nil {
		return d, stateError(d, err)
	}
	if !wait {
		fmt.Fprintf(a.out, "Started; check progress with: bizcheck idea show %s\n", id)
		return d, nil
	}

	d.Wait()
	if msg := d.State().Error; msg != "" {
		return d, errors.New(msg)
	}
	return d, nil
}

func loadDetail(ctx context.Context, a *app, id string) (*view.IdeaDetail, error) {
	p := &progress{w: a.out}
	d := view.NewIdeaDetail(ctx, a.ideas, a.router, id, a.detailOptions(p.observe))
	if err := d.Load(ctx); err != nil {
		d.Close()
		return nil, stateError(d, err)
	}
	p.armed()
	return d, nil
}

// stateError prefers the screen's banner text over the raw error.
func stateError(d *view.IdeaDetail, err error) error {
	return withBanner(d.State().Error, err)
}

// bannerError shows a screen's message while keeping the underlying error
// reachable through errors.Is and errors.As.
type bannerError struct {
	msg string
	err error
}

func (e *bannerError) Error() string { return e.msg }
func (e *bannerError) Unwrap() error { return e.err }

// withBanner returns err under the banner text msg. An empty msg leaves err
// as is.
func withBanner(msg string, err error) error {
	if msg == "" {
		return err
	}
	return &bannerError{msg: msg, err: err}
}

// progress prints a line whenever the collection or analysis status
// changes after the initial load.
type progress struct {
	w io.Writer

	mu             sync.Mutex
	live           bool
	lastCollection string
	lastAnalysis   types.JobStatus
}

func (p *progress) armed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.live = true
}

func (p *progress) observe(s view.DetailState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.live {
		return
	}
	if s.Collection != nil {
		var line strings.Builder
		render.Collection(&line, s.Collection)
		if line.String() != p.lastCollection {
			p.lastCollection = line.String()
			io.WriteString(p.w, p.lastCollection)
		}
	}
	if s.Analysis != nil && s.Analysis.Status != p.lastAnalysis {
		p.lastAnalysis = s.Analysis.Status
		fmt.Fprintf(p.w, "analysis %s\n", s.Analysis.Status)
	}
}

func init() {
	ideaListCmd.Flags().Int("page", 0, "page number (1-based, 0 = backend default)")
	ideaListCmd.Flags().Int("page-size", 0, "ideas per page (0 = backend default)")
	ideaListCmd.Flags().Bool("json", false, "output the page as JSON")

	addIdeaFlags(ideaCreateCmd, true)
	ideaCreateCmd.Flags().Bool("wait", false, "run data collection and analysis after creating")

	ideaShowCmd.Flags().Bool("json", false, "output the idea as JSON")

	addIdeaFlags(ideaUpdateCmd, false)

	ideaCollectCmd.Flags().Bool("no-wait", false, "return once the job is accepted")
	ideaAnalyzeCmd.Flags().Bool("no-wait", false, "return once the job is accepted")
	ideaReportCmd.Flags().Bool("no-wait", false, "return once the report is requested")
	ideaReportCmd.Flags().String("type", "", "report type: basic, detailed or executive (default from config)")

	ideaCmd.AddCommand(ideaListCmd, ideaCreateCmd, ideaShowCmd, ideaUpdateCmd, ideaDeleteCmd,
		ideaCollectCmd, ideaAnalyzeCmd, ideaReportCmd)
	rootCmd.AddCommand(ideaCmd)
}
