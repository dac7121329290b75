// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pdiddy/bizcheck/internal/apiclient"
	"github.com/pdiddy/bizcheck/internal/logger"
	"github.com/pdiddy/bizcheck/internal/poll"
	"github.com/pdiddy/bizcheck/pkg/types"
)

// IdeaBackend is the subset of the idea API the chain calls.
// *api.IdeaService implements it.
type IdeaBackend interface {
	Create(ctx context.Context, req types.CreateIdeaRequest) (*types.CreateIdeaResponse, error)
	StartCollection(ctx context.Context, id string) (*types.CollectionStatus, error)
	CollectionStatus(ctx context.Context, id string) (*types.CollectionStatus, error)
	StartAnalysis(ctx context.Context, id string) (*types.JobAccepted, error)
	Analysis(ctx context.Context, id string) (*types.AnalysisResult, error)
	GenerateReport(ctx context.Context, id string, reportType types.ReportType) (*types.ReportAccepted, error)
}

// ReportBackend reads reports. *api.ReportService implements it.
type ReportBackend interface {
	Get(ctx context.Context, reportID string) (*types.Report, error)
}

// Event is sent to the observer on every state change and on every
// collection, analysis or report status check.
type Event struct {
	State      State
	IdeaID     string
	Collection *types.CollectionStatus
	Analysis   *types.AnalysisResult
	Report     *types.Report
	Err        *StageError
}

// Result is the output of a completed chain.
type Result struct {
	IdeaID   string
	Analysis *types.AnalysisResult
	Report   *types.Report
}

// Runner executes the chain. Observer and Logger are optional.
type Runner struct {
	Ideas      IdeaBackend
	Reports    ReportBackend
	Poll       types.PollConfig
	ReportType types.ReportType
	Observer   func(Event)
	Logger     *slog.Logger
}

// Run saves req as a new idea and drives it to a finished report. Each stage
// starts only after the previous one succeeded. On failure the returned
// error is a *StageError and m is left in Failed; the partial result carries
// the idea id when the save succeeded.
func (r *Runner) Run(ctx context.Context, m *Machine, req types.CreateIdeaRequest) (*Result, error) {
	log := r.Logger
	if log == nil {
		log = logger.Discard()
	}
	res := &Result{}
	if s := m.State(); s != Idle {
		return res, fmt.Errorf("%w: run needs an idle machine, got %s", ErrInvalidTransition, s)
	}

	fail := func(cause error) (*Result, error) {
		se, err := m.Fail(cause)
		if err != nil {
			return res, err
		}
		log.Warn("pipeline failed", "idea_id", res.IdeaID, "stage", se.Stage, "error", cause)
		r.emit(Event{State: Failed, IdeaID: res.IdeaID, Err: se})
		return res, se
	}
	advance := func() error {
		s, err := m.Advance()
		if err != nil {
			return err
		}
		log.Info("pipeline stage", "idea_id", res.IdeaID, "state", s)
		r.emit(Event{State: s, IdeaID: res.IdeaID})
		return nil
	}

	if err := advance(); err != nil {
		return res, err
	}
	created, err := r.Ideas.Create(ctx, req)
	if err != nil {
		return fail(err)
	}
	res.IdeaID = created.IdeaID

	if err := advance(); err != nil {
		return res, err
	}
	if _, err := r.collect(ctx, res.IdeaID); err != nil {
		return fail(err)
	}

	if err := advance(); err != nil {
		return res, err
	}
	analysis, err := r.analyze(ctx, res.IdeaID)
	if err != nil {
		return fail(err)
	}
	res.Analysis = analysis

	if err := advance(); err != nil {
		return res, err
	}
	report, err := r.report(ctx, res.IdeaID)
	if err != nil {
		return fail(err)
	}
	res.Report = report

	if err := advance(); err != nil {
		return res, err
	}
	return res, nil
}

func (r *Runner) emit(e Event) {
	if r.Observer != nil {
		r.Observer(e)
	}
}

func (r *Runner) options(job string) poll.Options {
	opts := poll.FromConfig(job, r.Poll)
	opts.Logger = r.Logger
	return opts
}

// fetchErr marks errors a later status check cannot recover from.
func fetchErr(err error) error {
	if errors.Is(err, apiclient.ErrLoginRequired) {
		return poll.Permanent(err)
	}
	return err
}

func (r *Runner) collect(ctx context.Context, id string) (*types.CollectionStatus, error) {
	started, err := r.Ideas.StartCollection(ctx, id)
	if err != nil {
		return nil, err
	}
	r.emit(Event{State: Collecting, IdeaID: id, Collection: started})
	if poll.ByJobStatus(started.Status) == poll.Succeeded {
		return started, nil
	}

	return poll.Until(ctx, r.options("collection"),
		func(ctx context.Context) (*types.CollectionStatus, error) {
			st, err := r.Ideas.CollectionStatus(ctx, id)
			return st, fetchErr(err)
		},
		poll.CollectionOutcome,
		func(_ int, st *types.CollectionStatus) {
			r.emit(Event{State: Collecting, IdeaID: id, Collection: st})
		})
}

func (r *Runner) analyze(ctx context.Context, id string) (*types.AnalysisResult, error) {
	if _, err := r.Ideas.StartAnalysis(ctx, id); err != nil {
		return nil, err
	}
	return poll.Until(ctx, r.options("analysis"),
		func(ctx context.Context) (*types.AnalysisResult, error) {
			a, err := r.Ideas.Analysis(ctx, id)
			return a, fetchErr(err)
		},
		poll.AnalysisOutcome,
		func(_ int, a *types.AnalysisResult) {
			r.emit(Event{State: Analyzing, IdeaID: id, Analysis: a})
		})
}

func (r *Runner) report(ctx context.Context, id string) (*types.Report, error) {
	acc, err := r.Ideas.GenerateReport(ctx, id, r.ReportType)
	if err != nil {
		return nil, err
	}
	if acc.ReportID == "" {
		return nil, errors.New("server returned no report id")
	}

	// Reports generated synchronously are fetched once without waiting an
	// interval.
	if poll.ByJobStatus(acc.Status) == poll.Succeeded {
		rep, err := r.Reports.Get(ctx, acc.ReportID)
		if err != nil {
			return nil, err
		}
		r.emit(Event{State: GeneratingReport, IdeaID: id, Report: rep})
		if o, detail := poll.ReportOutcome(rep); o != poll.Pending {
			if o == poll.Failed {
				return rep, &poll.JobFailedError{Job: "report", Detail: detail}
			}
			return rep, nil
		}
	}

	return poll.Until(ctx, r.options("report"),
		func(ctx context.Context) (*types.Report, error) {
			rep, err := r.Reports.Get(ctx, acc.ReportID)
			return rep, fetchErr(err)
		},
		poll.ReportOutcome,
		func(_ int, rep *types.Report) {
			r.emit(Event{State: GeneratingReport, IdeaID: id, Report: rep})
		})
}
