// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package view

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/pdiddy/bizcheck/internal/apiclient"
	"github.com/pdiddy/bizcheck/internal/cache"
	"github.com/pdiddy/bizcheck/internal/logger"
	"github.com/pdiddy/bizcheck/internal/pipeline"
	"github.com/pdiddy/bizcheck/pkg/types"
)

// LoadingStep is one line of the loading screen.
type LoadingStep struct {
	Key   string
	Label string
}

// LoadingSteps are shown in order while a full analysis runs. The keys of
// the collection steps match the backend's collection task names.
var LoadingSteps = []LoadingStep{
	{"saving", "Saving idea"},
	{"market_data", "Collecting market data"},
	{"competitor_data", "Analyzing competitors"},
	{"customer_insights", "Extracting customer insights"},
	{"regulation_data", "Reviewing regulations"},
	{"technology_trend", "Analyzing technology trends"},
	{"profitability_benchmark", "Comparing profitability benchmarks"},
	{"analyzing", "Generating AI analysis"},
	{"report", "Generating report"},
}

const (
	firstCollectStep = 1
	lastCollectStep  = 6
	analyzeStep      = 7
	reportStep       = 8
)

// LoadingState is what the loading screen shows. Steps before Step are
// complete, Step is in progress. Step == len(LoadingSteps) means finished.
type LoadingState struct {
	Step       int
	State      pipeline.State
	Collection *types.CollectionStatus
	Error      string
}

// Analyzer runs the full idea-to-report chain behind the loading screen.
// On failure it shows the stage error, then returns to the entry screen
// after ResetDelay without waiting for a dismissal.
type Analyzer struct {
	Runner     *pipeline.Runner
	Router     *Router
	Cache      Recorder
	ResetDelay time.Duration
	Logger     *slog.Logger
	OnChange   func(LoadingState)

	machine *pipeline.Machine
	mu      sync.Mutex
	state   LoadingState
}

// NewAnalyzer returns an analyzer driving runner.
func NewAnalyzer(runner *pipeline.Runner, router *Router, resetDelay time.Duration) *Analyzer {
	return &Analyzer{
		Runner:     runner,
		Router:     router,
		ResetDelay: resetDelay,
		machine:    pipeline.NewMachine(),
	}
}

// State returns a copy of the loading screen state.
func (a *Analyzer) State() LoadingState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Machine returns the chain's state machine.
func (a *Analyzer) Machine() *pipeline.Machine {
	return a.machine
}

// Run executes the chain for req. loggedIn false routes to the login screen
// without starting anything.
func (a *Analyzer) Run(ctx context.Context, req types.CreateIdeaRequest, loggedIn bool) (*pipeline.Result, error) {
	if !loggedIn {
		a.Router.RequireLogin()
		return nil, apiclient.ErrLoginRequired
	}
	if a.machine.State().Terminal() {
		if err := a.machine.Reset(); err != nil {
			return nil, err
		}
	}
	log := a.Logger
	if log == nil {
		log = logger.Discard()
	}

	a.set(func(s *LoadingState) { *s = LoadingState{State: pipeline.Idle} })
	a.Router.Navigate(Route{Screen: ScreenLoading})

	runner := *a.Runner
	observe := a.Runner.Observer
	runner.Observer = func(e pipeline.Event) {
		a.observe(ctx, log, e)
		if observe != nil {
			observe(e)
		}
	}

	res, err := runner.Run(ctx, a.machine, req)
	if err != nil {
		a.fail(ctx, err)
		return res, err
	}

	a.set(func(s *LoadingState) {
		s.Step = len(LoadingSteps)
		s.State = pipeline.Done
	})
	a.Router.Navigate(Route{Screen: ScreenResult, ID: res.IdeaID})
	return res, nil
}

// fail shows the error, waits ResetDelay and routes home. An expired
// session routes to the login screen instead.
func (a *Analyzer) fail(ctx context.Context, err error) {
	msg := apiclient.Message(err)
	var se *pipeline.StageError
	if errors.As(err, &se) {
		msg = se.Message
		if se.Err != nil {
			msg += ": " + apiclient.Message(se.Err)
		}
	}
	a.set(func(s *LoadingState) {
		s.State = pipeline.Failed
		s.Error = msg
	})

	if errors.Is(err, apiclient.ErrLoginRequired) {
		a.Router.RequireLogin()
		return
	}

	t := time.NewTimer(a.ResetDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}

	a.set(func(s *LoadingState) { s.Error = "" })
	if err := a.machine.Reset(); err != nil {
		return
	}
	a.Router.Navigate(Route{Screen: ScreenHome})
}

func (a *Analyzer) observe(ctx context.Context, log *slog.Logger, e pipeline.Event) {
	a.record(ctx, log, e)
	a.set(func(s *LoadingState) {
		s.State = e.State
		switch e.State {
		case pipeline.Saving:
			s.Step = 0
		case pipeline.Collecting:
			s.Step = firstCollectStep
			if e.Collection != nil {
				s.Collection = e.Collection
				s.Step = collectStep(e.Collection)
			}
		case pipeline.Analyzing:
			s.Step = analyzeStep
		case pipeline.GeneratingReport:
			s.Step = reportStep
		}
	})
}

// collectStep maps finished collection tasks onto the loading steps.
func collectStep(st *types.CollectionStatus) int {
	done := make(map[string]bool, len(st.CompletedTasks))
	for _, t := range st.CompletedTasks {
		done[t] = true
	}
	step := firstCollectStep
	for step <= lastCollectStep && done[LoadingSteps[step].Key] {
		step++
	}
	if step > lastCollectStep {
		step = lastCollectStep
	}
	return step
}

func (a *Analyzer) record(ctx context.Context, log *slog.Logger, e pipeline.Event) {
	if a.Cache == nil {
		return
	}
	var err error
	switch {
	case e.Collection != nil:
		err = a.Cache.Put(ctx, cache.KindCollection, e.IdeaID, string(e.Collection.Status), e.Collection)
	case e.Analysis != nil:
		err = a.Cache.Put(ctx, cache.KindAnalysis, e.IdeaID, string(e.Analysis.Status), e.Analysis)
	case e.Report != nil:
		err = a.Cache.Put(ctx, cache.KindReport, e.Report.ReportID, string(e.Report.Status), e.Report)
	}
	if err != nil {
		log.Warn("caching pipeline record", "error", err)
	}
}

func (a *Analyzer) set(fn func(s *LoadingState)) {
	a.mu.Lock()
	fn(&a.state)
	snapshot := a.state
	a.mu.Unlock()
	if a.OnChange != nil {
		a.OnChange(snapshot)
	}
}
