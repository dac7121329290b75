// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package view

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/pdiddy/bizcheck/internal/apiclient"
	"github.com/pdiddy/bizcheck/internal/cache"
	"github.com/pdiddy/bizcheck/internal/logger"
	"github.com/pdiddy/bizcheck/internal/poll"
	"github.com/pdiddy/bizcheck/pkg/types"
)

// IdeaAPI is the idea backend used by the detail screen.
// *api.IdeaService implements it.
type IdeaAPI interface {
	Get(ctx context.Context, id string) (*types.Idea, error)
	StartCollection(ctx context.Context, id string) (*types.CollectionStatus, error)
	CollectionStatus(ctx context.Context, id string) (*types.CollectionStatus, error)
	StartAnalysis(ctx context.Context, id string) (*types.JobAccepted, error)
	Analysis(ctx context.Context, id string) (*types.AnalysisResult, error)
	GenerateReport(ctx context.Context, id string, reportType types.ReportType) (*types.ReportAccepted, error)
}

// Recorder keeps the last observed records. *cache.Store implements it.
type Recorder interface {
	PutIdea(ctx context.Context, idea *types.Idea) (bool, error)
	Put(ctx context.Context, kind cache.Kind, id, status string, v any) error
}

// DetailState is what the idea detail screen shows.
type DetailState struct {
	Idea       *types.Idea
	Collection *types.CollectionStatus
	Analysis   *types.AnalysisResult
	Processing bool
	Error      string
	Controls   StageControls
}

// DetailOptions configures an IdeaDetail. All fields are optional.
type DetailOptions struct {
	Poll       types.PollConfig
	ReportType types.ReportType
	Group      *poll.Group
	Cache      Recorder
	Logger     *slog.Logger
	OnChange   func(DetailState)
}

// User-facing messages for the detail screen.
const (
	msgLoadFailed         = "could not load the idea"
	msgCollectStartFailed = "failed to start data collection"
	msgCollectFailed      = "data collection failed"
	msgAnalyzeStartFailed = "failed to start analysis"
	msgAnalyzeFailed      = "analysis failed"
	msgReportFailed       = "failed to generate report"
	msgSessionExpired     = "your session has expired, please log in again"
)

// ErrBusy is returned when a stage action is requested while another one
// is still in progress on the same screen.
var ErrBusy = errors.New("another action is in progress")

// IdeaDetail is the controller of one idea's detail screen. Polls it starts
// live as long as the screen: Close cancels them.
type IdeaDetail struct {
	id     string
	ideas  IdeaAPI
	router *Router
	opts   DetailOptions
	group  *poll.Group
	log    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	state DetailState
}

// NewIdeaDetail opens the detail screen for idea id. parent bounds the
// screen's lifetime.
func NewIdeaDetail(parent context.Context, ideas IdeaAPI, router *Router, id string, opts DetailOptions) *IdeaDetail {
	ctx, cancel := context.WithCancel(parent)
	d := &IdeaDetail{
		id:     id,
		ideas:  ideas,
		router: router,
		opts:   opts,
		group:  opts.Group,
		log:    opts.Logger,
		ctx:    ctx,
		cancel: cancel,
	}
	if d.group == nil {
		d.group = &poll.Group{}
	}
	if d.log == nil {
		d.log = logger.Discard()
	}
	d.log = d.log.With("idea_id", id)
	return d
}

// State returns a copy of the current screen state.
func (d *IdeaDetail) State() DetailState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// update applies fn to the state under the lock, recomputes the controls and
// notifies the observer. A closed screen keeps its state current but no
// longer notifies.
func (d *IdeaDetail) update(fn func(s *DetailState)) {
	d.mu.Lock()
	fn(&d.state)
	var status types.IdeaStatus
	if d.state.Idea != nil {
		status = d.state.Idea.Status
	}
	d.state.Controls = StageControlsFor(status, d.state.Collection, d.state.Analysis)
	if d.state.Processing {
		d.state.Controls.StartCollection = false
		d.state.Controls.StartAnalysis = false
		d.state.Controls.GenerateReport = false
	}
	snapshot := d.state
	d.mu.Unlock()

	if d.opts.OnChange != nil && !d.closed() {
		d.opts.OnChange(snapshot)
	}
}

// Load fetches the idea and, depending on its status, the latest
// collection and analysis records.
func (d *IdeaDetail) Load(ctx context.Context) error {
	idea, err := d.ideas.Get(ctx, d.id)
	if err != nil {
		d.update(func(s *DetailState) { s.Error = d.message(err, msgLoadFailed) })
		return err
	}
	d.setIdea(idea)

	switch idea.Status {
	case types.IdeaCollecting:
		if st, err := d.ideas.CollectionStatus(ctx, d.id); err == nil {
			d.setCollection(st)
		} else {
			d.log.Debug("no collection status", "error", err)
		}
	case types.IdeaAnalyzing, types.IdeaCompleted:
		if a, err := d.ideas.Analysis(ctx, d.id); err == nil {
			d.setAnalysis(a)
		} else {
			d.log.Debug("no analysis", "error", err)
		}
	}
	return nil
}

// StartCollection starts the collection job and polls it in the background
// until it finishes, the poll bounds are hit or the screen closes.
func (d *IdeaDetail) StartCollection() error {
	if err := d.begin(); err != nil {
		return err
	}
	st, err := d.ideas.StartCollection(d.ctx, d.id)
	if err != nil {
		d.finish(d.message(err, msgCollectStartFailed))
		return err
	}
	d.setCollection(st)
	d.markIdea(types.IdeaCollecting)
	if poll.ByJobStatus(st.Status) != poll.Pending {
		d.finishPoll(msgCollectFailed, d.collectionResult(st))
		return nil
	}

	opts := d.pollOptions("collection")
	d.background(func(ctx context.Context) {
		final, _, err := poll.Join(ctx, d.group, poll.Key("collection", d.id),
			func(ctx context.Context, tick func(*types.CollectionStatus)) (*types.CollectionStatus, error) {
				return poll.Until(ctx, opts,
					func(ctx context.Context) (*types.CollectionStatus, error) {
						st, err := d.ideas.CollectionStatus(ctx, d.id)
						return st, permanentAuth(err)
					},
					poll.CollectionOutcome,
					func(_ int, st *types.CollectionStatus) { tick(st) })
			},
			d.setCollection)
		if final != nil {
			d.setCollection(final)
		}
		d.finishPoll(msgCollectFailed, err)
	})
	return nil
}

func (d *IdeaDetail) collectionResult(st *types.CollectionStatus) error {
	if o, detail := poll.CollectionOutcome(st); o == poll.Failed {
		return &poll.JobFailedError{Job: "collection", Detail: detail}
	}
	return nil
}

// StartAnalysis starts the analysis job and polls for its result.
func (d *IdeaDetail) StartAnalysis() error {
	if err := d.begin(); err != nil {
		return err
	}
	if _, err := d.ideas.StartAnalysis(d.ctx, d.id); err != nil {
		d.finish(d.message(err, msgAnalyzeStartFailed))
		return err
	}
	d.markIdea(types.IdeaAnalyzing)

	opts := d.pollOptions("analysis")
	d.background(func(ctx context.Context) {
		final, _, err := poll.Join(ctx, d.group, poll.Key("analysis", d.id),
			func(ctx context.Context, tick func(*types.AnalysisResult)) (*types.AnalysisResult, error) {
				return poll.Until(ctx, opts,
					func(ctx context.Context) (*types.AnalysisResult, error) {
						a, err := d.ideas.Analysis(ctx, d.id)
						return a, permanentAuth(err)
					},
					poll.AnalysisOutcome,
					func(_ int, a *types.AnalysisResult) { tick(a) })
			},
			d.setAnalysis)
		if final != nil {
			d.setAnalysis(final)
		}
		d.finishPoll(msgAnalyzeFailed, err)
	})
	return nil
}

// GenerateReport starts report generation and routes to the report screen.
func (d *IdeaDetail) GenerateReport() (string, error) {
	if err := d.begin(); err != nil {
		return "", err
	}
	acc, err := d.ideas.GenerateReport(d.ctx, d.id, d.opts.ReportType)
	if err != nil {
		d.finish(d.message(err, msgReportFailed))
		return "", err
	}
	if acc.ReportID == "" {
		err := errors.New("server returned no report id")
		d.finish(msgReportFailed)
		return "", err
	}
	d.finish("")
	d.router.Navigate(Route{Screen: ScreenReport, ID: acc.ReportID})
	return acc.ReportID, nil
}

// Wait blocks until every background poll of this screen has returned.
func (d *IdeaDetail) Wait() {
	d.wg.Wait()
}

// Close tears the screen down, cancelling its polls, and waits for them.
func (d *IdeaDetail) Close() {
	d.cancel()
	d.wg.Wait()
}

func (d *IdeaDetail) background(fn func(ctx context.Context)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		fn(d.ctx)
	}()
}

func (d *IdeaDetail) pollOptions(job string) poll.Options {
	opts := poll.FromConfig(job, d.opts.Poll)
	opts.Logger = d.log
	return opts
}

// closed reports whether Close has been called.
func (d *IdeaDetail) closed() bool {
	return d.ctx.Err() != nil
}

// begin marks the screen as processing, or returns ErrBusy if it already is.
func (d *IdeaDetail) begin() error {
	busy := false
	d.update(func(s *DetailState) {
		if busy = s.Processing; busy {
			return
		}
		s.Error = ""
		s.Processing = true
	})
	if busy {
		return ErrBusy
	}
	return nil
}

func (d *IdeaDetail) finish(errMsg string) {
	d.update(func(s *DetailState) {
		s.Error = errMsg
		s.Processing = false
	})
}

// finishPoll ends a background poll. Success clears the error and reloads
// the idea so its server status is current.
func (d *IdeaDetail) finishPoll(failedMsg string, err error) {
	if err == nil {
		d.finish("")
		if idea, gerr := d.ideas.Get(d.ctx, d.id); gerr == nil {
			d.setIdea(idea)
		} else {
			d.log.Debug("reloading idea", "error", gerr)
		}
		return
	}
	if errors.Is(err, context.Canceled) {
		d.finish("")
		return
	}
	d.log.Warn("poll ended", "error", err)
	d.finish(d.pollMessage(failedMsg, err))
}

func (d *IdeaDetail) pollMessage(failedMsg string, err error) string {
	var jf *poll.JobFailedError
	var be *poll.BudgetExceededError
	switch {
	case errors.As(err, &jf):
		return failedMsg
	case errors.Is(err, poll.ErrTimeout):
		return failedMsg + ": timed out waiting for the server"
	case errors.As(err, &be):
		return failedMsg + ": " + apiclient.Message(be.Err)
	}
	return d.message(err, failedMsg)
}

// message picks the banner text for err, falling back to fallback when the
// server gave nothing useful.
func (d *IdeaDetail) message(err error, fallback string) string {
	if errors.Is(err, apiclient.ErrLoginRequired) {
		return msgSessionExpired
	}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func (d *IdeaDetail) setIdea(idea *types.Idea) {
	if d.opts.Cache != nil {
		applied, err := d.opts.Cache.PutIdea(d.ctx, idea)
		if err != nil {
			d.log.Warn("caching idea", "error", err)
		} else if !applied {
			d.log.Info("ignoring idea status regression", "status", idea.Status)
		}
	}
	d.update(func(s *DetailState) {
		if s.Idea != nil && !s.Idea.Status.CanAdvanceTo(idea.Status) {
			return
		}
		s.Idea = idea
	})
}

// markIdea advances the cached idea status after a job start was accepted.
func (d *IdeaDetail) markIdea(status types.IdeaStatus) {
	d.update(func(s *DetailState) {
		if s.Idea == nil || !s.Idea.Status.CanAdvanceTo(status) {
			return
		}
		idea := *s.Idea
		idea.Status = status
		s.Idea = &idea
	})
}

func (d *IdeaDetail) setCollection(st *types.CollectionStatus) {
	if d.closed() {
		return
	}
	if d.opts.Cache != nil {
		if err := d.opts.Cache.Put(d.ctx, cache.KindCollection, d.id, string(st.Status), st); err != nil {
			d.log.Warn("caching collection status", "error", err)
		}
	}
	d.update(func(s *DetailState) { s.Collection = st })
}

func (d *IdeaDetail) setAnalysis(a *types.AnalysisResult) {
	if d.closed() {
		return
	}
	if d.opts.Cache != nil {
		if err := d.opts.Cache.Put(d.ctx, cache.KindAnalysis, d.id, string(a.Status), a); err != nil {
			d.log.Warn("caching analysis", "error", err)
		}
	}
	d.update(func(s *DetailState) { s.Analysis = a })
}

// permanentAuth stops a poll at once when the session cannot be recovered.
func permanentAuth(err error) error {
	if errors.Is(err, apiclient.ErrLoginRequired) {
		return poll.Permanent(err)
	}
	return err
}
