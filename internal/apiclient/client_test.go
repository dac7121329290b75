// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bizcheck/internal/session"
	"github.com/pdiddy/bizcheck/pkg/types"
)

func newTestClient(t *testing.T, ts *httptest.Server, store *session.Store, opts ...Option) *Client {
	t.Helper()
	cfg := types.ClientConfig{
		BaseURL:   ts.URL,
		APIPrefix: "/api/v1",
		Timeout:   5 * time.Second,
		UserAgent: "bizcheck-test",
	}
	opts = append([]Option{WithHTTPClient(ts.Client())}, opts...)
	return New(cfg, store, opts...)
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestDo_AttachesHeaders(t *testing.T) {
	var got http.Header
	var gotPath, gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		writeJSON(t, w, http.StatusOK, map[string]string{"id": "u1"})
	}))
	defer ts.Close()

	c := newTestClient(t, ts, session.NewMemory(session.Tokens{Access: "acc", Refresh: "ref"}))

	var out struct {
		ID string `json:"id"`
	}
	err := c.Do(context.Background(), http.MethodGet, "/ideas", url.Values{"page": {"2"}}, nil, &out)
	require.NoError(t, err)

	assert.Equal(t, "u1", out.ID)
	assert.Equal(t, "/api/v1/ideas", gotPath)
	assert.Equal(t, "page=2", gotQuery)
	assert.Equal(t, "Bearer acc", got.Get("Authorization"))
	assert.Equal(t, "bizcheck-test", got.Get("User-Agent"))
	assert.Len(t, got.Get("X-Request-ID"), 36)
}

func TestDo_NoTokenNoAuthorizationHeader(t *testing.T) {
	var auth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	c := newTestClient(t, ts, session.NewMemory(session.Tokens{}))
	require.NoError(t, c.Do(context.Background(), http.MethodDelete, "/ideas/1", nil, nil, nil))
	assert.Empty(t, auth)
}

func TestDo_SendsJSONBody(t *testing.T) {
	var body types.LoginRequest
	var contentType string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(t, w, http.StatusOK, map[string]any{})
	}))
	defer ts.Close()

	c := newTestClient(t, ts, session.NewMemory(session.Tokens{}))
	err := c.Do(context.Background(), http.MethodPost, "/auth/login", nil,
		types.LoginRequest{Email: "a@b.c", Password: "pw"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "a@b.c", body.Email)
}

func TestDo_RefreshesOnceAndResends(t *testing.T) {
	var refreshCalls, ideaCalls int32
	var refreshBody types.RefreshRequest
	var refreshAuth string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/refresh":
			atomic.AddInt32(&refreshCalls, 1)
			refreshAuth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&refreshBody))
			writeJSON(t, w, http.StatusOK, types.TokenResponse{AccessToken: "new-acc", RefreshToken: "new-ref"})
		case "/api/v1/ideas/i1":
			atomic.AddInt32(&ideaCalls, 1)
			if r.Header.Get("Authorization") != "Bearer new-acc" {
				writeJSON(t, w, http.StatusUnauthorized, map[string]string{"detail": "expired"})
				return
			}
			writeJSON(t, w, http.StatusOK, types.Idea{ID: "i1", Title: "Dog walking"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	store := session.NewMemory(session.Tokens{Access: "old-acc", Refresh: "old-ref"})
	var hookCalled bool
	c := newTestClient(t, ts, store, WithAuthFailureHook(func() { hookCalled = true }))

	var idea types.Idea
	err := c.Do(context.Background(), http.MethodGet, "/ideas/i1", nil, nil, &idea)
	require.NoError(t, err)

	assert.Equal(t, "Dog walking", idea.Title)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&ideaCalls))
	assert.Equal(t, "old-ref", refreshBody.RefreshToken)
	assert.Equal(t, "Bearer old-ref", refreshAuth)
	assert.Equal(t, session.Tokens{Access: "new-acc", Refresh: "new-ref"}, store.Tokens())
	assert.False(t, hookCalled)
}

func TestDo_RefreshKeepsOldRefreshTokenWhenOmitted(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/auth/refresh" {
			writeJSON(t, w, http.StatusOK, types.TokenResponse{AccessToken: "new-acc"})
			return
		}
		if r.Header.Get("Authorization") != "Bearer new-acc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	store := session.NewMemory(session.Tokens{Access: "old-acc", Refresh: "keep-me"})
	c := newTestClient(t, ts, store)
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/auth/me", nil, nil, nil))
	assert.Equal(t, session.Tokens{Access: "new-acc", Refresh: "keep-me"}, store.Tokens())
}

func TestDo_RefreshFailureClearsSession(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/auth/refresh" {
			writeJSON(t, w, http.StatusUnauthorized, map[string]string{"detail": "refresh token revoked"})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	store := session.NewMemory(session.Tokens{Access: "acc", Refresh: "ref"})
	var hookCalls int
	c := newTestClient(t, ts, store, WithAuthFailureHook(func() { hookCalls++ }))

	err := c.Do(context.Background(), http.MethodGet, "/ideas", nil, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoginRequired)
	assert.Contains(t, err.Error(), "refresh token revoked")
	assert.Equal(t, session.Tokens{}, store.Tokens())
	assert.Equal(t, 1, hookCalls)
}

func TestDo_NoRefreshTokenReturnsServerError(t *testing.T) {
	tests := []struct {
		name   string
		tokens session.Tokens
	}{
		{"no credentials", session.Tokens{}},
		{"access token only", session.Tokens{Access: "acc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var refreshCalls int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/api/v1/auth/refresh" {
					atomic.AddInt32(&refreshCalls, 1)
				}
				writeJSON(t, w, http.StatusUnauthorized, map[string]string{"message": "invalid email or password"})
			}))
			defer ts.Close()

			store := session.NewMemory(tt.tokens)
			var hookCalls int
			c := newTestClient(t, ts, store, WithAuthFailureHook(func() { hookCalls++ }))

			body := types.LoginRequest{Email: "ann@example.com", Password: "wrong"}
			err := c.Do(context.Background(), http.MethodPost, "/auth/login", nil, body, nil)
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrLoginRequired)
			assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
			assert.Equal(t, "invalid email or password", Message(err))
			assert.Zero(t, atomic.LoadInt32(&refreshCalls))
			assert.Zero(t, hookCalls)
			assert.Equal(t, tt.tokens, store.Tokens())
		})
	}
}

func TestDo_RetriedRequestIsNotRefreshedAgain(t *testing.T) {
	var refreshCalls, ideaCalls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/auth/refresh" {
			atomic.AddInt32(&refreshCalls, 1)
			writeJSON(t, w, http.StatusOK, types.TokenResponse{AccessToken: "new", RefreshToken: "ref2"})
			return
		}
		atomic.AddInt32(&ideaCalls, 1)
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"detail": "still unauthorized"})
	}))
	defer ts.Close()

	store := session.NewMemory(session.Tokens{Access: "old", Refresh: "ref"})
	var hookCalls int
	c := newTestClient(t, ts, store, WithAuthFailureHook(func() { hookCalls++ }))

	err := c.Do(context.Background(), http.MethodGet, "/ideas", nil, nil, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLoginRequired)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&ideaCalls))
	assert.Zero(t, hookCalls)
}

func TestDo_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	var refreshCalls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/auth/refresh" {
			atomic.AddInt32(&refreshCalls, 1)
			time.Sleep(20 * time.Millisecond)
			writeJSON(t, w, http.StatusOK, types.TokenResponse{AccessToken: "new", RefreshToken: "ref2"})
			return
		}
		if r.Header.Get("Authorization") != "Bearer new" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	store := session.NewMemory(session.Tokens{Access: "old", Refresh: "ref"})
	c := newTestClient(t, ts, store)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.Do(context.Background(), http.MethodGet, "/ideas/x/collect/status", nil, nil, nil)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
}

func TestDo_APIErrorMessage(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantCode    string
	}{
		{"message field", 400, `{"success":false,"error_code":"IDEA_INVALID","message":"title too short"}`, "title too short", "IDEA_INVALID"},
		{"detail string", 404, `{"detail":"Idea not found"}`, "Idea not found", ""},
		{"detail list", 422, `{"detail":[{"loc":["body","title"],"msg":"field required"}]}`, "title: field required", ""},
		{"error field", 500, `{"error":"boom"}`, "boom", ""},
		{"plain text", 502, `upstream unavailable`, "upstream unavailable", ""},
		{"html body", 503, `<html><body>down</body></html>`, "Service Unavailable", ""},
		{"empty body", 409, ``, "Conflict", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			c := newTestClient(t, ts, session.NewMemory(session.Tokens{}))
			err := c.Do(context.Background(), http.MethodGet, "/ideas", nil, nil, nil)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.NotEmpty(t, apiErr.RequestID)
			assert.Equal(t, tt.wantMessage, Message(err))
		})
	}
}

func TestDo_ContextCanceled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := newTestClient(t, ts, session.NewMemory(session.Tokens{}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Do(ctx, http.MethodGet, "/ideas", nil, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo_RateLimited(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	cfg := types.ClientConfig{BaseURL: ts.URL, APIPrefix: "/api/v1", RequestsPerSecond: 20, Burst: 1}
	c := New(cfg, session.NewMemory(session.Tokens{}), WithHTTPClient(ts.Client()))

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, c.Do(context.Background(), http.MethodGet, "/ideas", nil, nil, nil))
	}
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 404, StatusCode(&APIError{StatusCode: 404}))
	assert.Zero(t, StatusCode(errors.New("plain")))
	assert.Equal(t, "plain", Message(errors.New("plain")))
	assert.Empty(t, Message(nil))
}
