// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package view

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bizcheck/internal/apiclient"
	"github.com/pdiddy/bizcheck/internal/pipeline"
	"github.com/pdiddy/bizcheck/pkg/types"
)

// chainBackend completes every stage at once unless a failure is scripted.
type chainBackend struct {
	collection types.JobStatus
	createErr  error
}

func (b *chainBackend) Create(context.Context, types.CreateIdeaRequest) (*types.CreateIdeaResponse, error) {
	if b.createErr != nil {
		return nil, b.createErr
	}
	return &types.CreateIdeaResponse{IdeaID: "i9", Status: types.IdeaCreated}, nil
}

func (b *chainBackend) StartCollection(_ context.Context, id string) (*types.CollectionStatus, error) {
	return &types.CollectionStatus{IdeaID: id, Status: types.JobCollecting}, nil
}

func (b *chainBackend) CollectionStatus(_ context.Context, id string) (*types.CollectionStatus, error) {
	s := b.collection
	if s == "" {
		s = types.JobCompleted
	}
	return &types.CollectionStatus{
		IdeaID:         id,
		Status:         s,
		CompletedTasks: []string{"market_data", "competitor_data"},
		FailedTasks:    failedTasks(s),
		Progress:       100,
	}, nil
}

func failedTasks(s types.JobStatus) []string {
	if s == types.JobFailed {
		return []string{"regulation_data"}
	}
	return nil
}

func (b *chainBackend) StartAnalysis(_ context.Context, id string) (*types.JobAccepted, error) {
	return &types.JobAccepted{IdeaID: id, Status: types.JobAnalyzing}, nil
}

func (b *chainBackend) Analysis(_ context.Context, id string) (*types.AnalysisResult, error) {
	return &types.AnalysisResult{IdeaID: id, OverallScore: 71, Status: types.JobCompleted}, nil
}

func (b *chainBackend) GenerateReport(_ context.Context, id string, _ types.ReportType) (*types.ReportAccepted, error) {
	return &types.ReportAccepted{ReportID: "r1", IdeaID: id, Status: types.JobCompleted}, nil
}

func (b *chainBackend) Get(_ context.Context, id string) (*types.Report, error) {
	return &types.Report{ReportID: id, IdeaID: "i9", Recommendation: types.RecommendGo}, nil
}

func newTestAnalyzer(b *chainBackend, router *Router, delay time.Duration) *Analyzer {
	runner := &pipeline.Runner{
		Ideas:   b,
		Reports: b,
		Poll:    types.PollConfig{Interval: time.Millisecond, MaxAttempts: 10},
	}
	return NewAnalyzer(runner, router, delay)
}

// stateLog records every loading state an analyzer publishes.
type stateLog struct {
	mu     sync.Mutex
	states []LoadingState
}

func (l *stateLog) add(s LoadingState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, s)
}

func (l *stateLog) errors() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, s := range l.states {
		if s.Error != "" {
			out = append(out, s.Error)
		}
	}
	return out
}

func TestAnalyzer_SuccessRoutesToResult(t *testing.T) {
	router := NewRouter(Route{Screen: ScreenHome})
	var screens []Screen
	router.OnChange(func(r Route) { screens = append(screens, r.Screen) })

	a := newTestAnalyzer(&chainBackend{}, router, time.Millisecond)
	res, err := a.Run(context.Background(), types.CreateIdeaRequest{Title: "Dog walking"}, true)
	require.NoError(t, err)

	assert.Equal(t, "i9", res.IdeaID)
	assert.Equal(t, "r1", res.Report.ReportID)
	assert.Equal(t, Route{Screen: ScreenResult, ID: "i9"}, router.Current())
	assert.Equal(t, []Screen{ScreenLoading, ScreenResult}, screens)

	st := a.State()
	assert.Equal(t, len(LoadingSteps), st.Step)
	assert.Equal(t, pipeline.Done, st.State)
	assert.Empty(t, st.Error)
}

func TestAnalyzer_FailureShowsErrorThenResets(t *testing.T) {
	router := NewRouter(Route{Screen: ScreenHome})
	a := newTestAnalyzer(&chainBackend{collection: types.JobFailed}, router, 20*time.Millisecond)
	log := &stateLog{}
	a.OnChange = log.add

	start := time.Now()
	_, err := a.Run(context.Background(), types.CreateIdeaRequest{Title: "Dog walking"}, true)
	require.Error(t, err)

	var se *pipeline.StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, pipeline.Collecting, se.Stage)

	shown := log.errors()
	require.NotEmpty(t, shown)
	assert.True(t, strings.HasPrefix(shown[0], "data collection failed"), shown[0])

	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Empty(t, a.State().Error)
	assert.Equal(t, pipeline.Idle, a.Machine().State())
	assert.Equal(t, ScreenHome, router.Current().Screen)
}

func TestAnalyzer_ExpiredSessionRoutesToLogin(t *testing.T) {
	router := NewRouter(Route{Screen: ScreenHome})
	b := &chainBackend{createErr: apiclient.ErrLoginRequired}
	a := newTestAnalyzer(b, router, time.Hour)

	_, err := a.Run(context.Background(), types.CreateIdeaRequest{Title: "Dog walking"}, true)
	assert.ErrorIs(t, err, apiclient.ErrLoginRequired)
	assert.Equal(t, ScreenLogin, router.Current().Screen)
	assert.Equal(t, pipeline.Failed, a.Machine().State())
	assert.True(t, strings.HasPrefix(a.State().Error, "could not save the idea"))
}

func TestAnalyzer_NotLoggedIn(t *testing.T) {
	router := NewRouter(Route{Screen: ScreenHome})
	a := newTestAnalyzer(&chainBackend{}, router, time.Millisecond)

	_, err := a.Run(context.Background(), types.CreateIdeaRequest{}, false)
	assert.ErrorIs(t, err, apiclient.ErrLoginRequired)
	assert.Equal(t, ScreenLogin, router.Current().Screen)
	assert.Equal(t, pipeline.Idle, a.Machine().State())
}

func TestAnalyzer_RunsAgainAfterSuccess(t *testing.T) {
	router := NewRouter(Route{Screen: ScreenHome})
	a := newTestAnalyzer(&chainBackend{}, router, time.Millisecond)

	_, err := a.Run(context.Background(), types.CreateIdeaRequest{Title: "one"}, true)
	require.NoError(t, err)
	_, err = a.Run(context.Background(), types.CreateIdeaRequest{Title: "two"}, true)
	require.NoError(t, err)
	assert.Equal(t, pipeline.Done, a.Machine().State())
}

func TestCollectStep(t *testing.T) {
	tests := []struct {
		name      string
		completed []string
		want      int
	}{
		{"nothing done", nil, 1},
		{"first task done", []string{"market_data"}, 2},
		{"out of order", []string{"competitor_data"}, 1},
		{"all done", []string{"market_data", "competitor_data", "customer_insights", "regulation_data", "technology_trend", "profitability_benchmark"}, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, collectStep(&types.CollectionStatus{CompletedTasks: tt.completed}))
		})
	}
}

func TestLoadingModel(t *testing.T) {
	cancelled := false
	m := NewLoadingModel(func() { cancelled = true })

	next, _ := m.Update(LoadingState{Step: 2, State: pipeline.Collecting, Collection: &types.CollectionStatus{Progress: 40}})
	m = next.(LoadingModel)
	view := m.View()
	assert.Contains(t, view, "✓ Saving idea")
	assert.Contains(t, view, "✓ Collecting market data")
	assert.Contains(t, view, "Analyzing competitors")
	assert.Contains(t, view, "· Generating report")
	assert.Contains(t, view, "collection 40%")
	assert.Contains(t, view, "press q to cancel")

	next, _ = m.Update(LoadingState{Step: 1, State: pipeline.Failed, Error: "data collection failed"})
	m = next.(LoadingModel)
	view = m.View()
	assert.Contains(t, view, "Analysis failed")
	assert.Contains(t, view, "data collection failed")
	assert.NotContains(t, view, "Saving idea")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = next.(LoadingModel)
	assert.True(t, cancelled)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
