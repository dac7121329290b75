// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bizcheck/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.CacheConfig{Dir: filepath.Join(t.TempDir(), "cache")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func TestOpenCreatesDBFile(t *testing.T) {
	s := testStore(t)
	_, err := os.Stat(s.Path())
	assert.NoError(t, err)

	_, err = Open(types.CacheConfig{})
	assert.Error(t, err)
}

func TestPutGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	st := types.CollectionStatus{IdeaID: "i1", Status: types.JobCollecting, Progress: 40}
	require.NoError(t, s.Put(ctx, KindCollection, "i1", string(st.Status), st))

	e, ok, err := s.Get(ctx, KindCollection, "i1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "collecting", e.Status)

	var got types.CollectionStatus
	require.NoError(t, e.Decode(&got))
	assert.Equal(t, 40, got.Progress)

	st.Status, st.Progress = types.JobCompleted, 100
	require.NoError(t, s.Put(ctx, KindCollection, "i1", string(st.Status), st))
	e, _, err = s.Get(ctx, KindCollection, "i1")
	require.NoError(t, err)
	assert.Equal(t, "completed", e.Status)

	_, ok, err = s.Get(ctx, KindReport, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutIdeaIgnoresRegressions(t *testing.T) {
	tests := []struct {
		name    string
		cached  types.IdeaStatus
		next    types.IdeaStatus
		applied bool
	}{
		{"forward", types.IdeaCollecting, types.IdeaAnalyzing, true},
		{"same", types.IdeaAnalyzing, types.IdeaAnalyzing, true},
		{"to failed", types.IdeaCollecting, types.IdeaFailed, true},
		{"backward", types.IdeaAnalyzing, types.IdeaCollecting, false},
		{"out of completed", types.IdeaCompleted, types.IdeaFailed, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testStore(t)
			ctx := context.Background()

			applied, err := s.PutIdea(ctx, &types.Idea{ID: "i1", Status: tt.cached})
			require.NoError(t, err)
			require.True(t, applied)

			applied, err = s.PutIdea(ctx, &types.Idea{ID: "i1", Status: tt.next})
			require.NoError(t, err)
			assert.Equal(t, tt.applied, applied)

			e, _, err := s.Get(ctx, KindIdea, "i1")
			require.NoError(t, err)
			want := tt.cached
			if tt.applied {
				want = tt.next
			}
			assert.Equal(t, string(want), e.Status)
		})
	}
}

func TestListDeleteClear(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.PutIdea(ctx, &types.Idea{ID: "i1", Status: types.IdeaCreated})
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, KindCollection, "i1", "collecting", types.CollectionStatus{IdeaID: "i1"}))
	require.NoError(t, s.Put(ctx, KindAnalysis, "i1", "completed", types.AnalysisResult{IdeaID: "i1"}))
	require.NoError(t, s.Put(ctx, KindReport, "r1", "completed", types.Report{ReportID: "r1"}))

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, KindReport, all[0].Kind, "newest first")

	reports, err := s.List(ctx, KindReport)
	require.NoError(t, err)
	assert.Len(t, reports, 1)

	require.NoError(t, s.DeleteIdea(ctx, "i1"))
	all, err = s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "r1", all[0].ID)

	n, err := s.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestReopenKeepsEntries(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(types.CacheConfig{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, KindReport, "r1", "completed", map[string]string{"report_id": "r1"}))
	require.NoError(t, s.Close())

	s, err = Open(types.CacheConfig{Dir: dir})
	require.NoError(t, err)
	defer s.Close()
	_, ok, err := s.Get(ctx, KindReport, "r1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExportYAML(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, KindAnalysis, "i1", "completed", types.AnalysisResult{IdeaID: "i1", OverallScore: 81}))

	var buf bytes.Buffer
	require.NoError(t, s.ExportYAML(ctx, &buf, KindAnalysis))

	var out []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "analysis", out[0]["kind"])
	payload := out[0]["payload"].(map[string]any)
	assert.Equal(t, 81, payload["overall_score"])
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("report")
	require.NoError(t, err)
	assert.Equal(t, KindReport, k)

	k, err = ParseKind("")
	require.NoError(t, err)
	assert.Empty(t, k)

	_, err = ParseKind("users")
	assert.Error(t, err)
}
