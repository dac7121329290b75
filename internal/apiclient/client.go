// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package apiclient is the authenticated HTTP client for the feasibility
// backend. It attaches the stored bearer token to every request and, on a
// 401, refreshes the credential pair once and resends the original request
// exactly once.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/pdiddy/bizcheck/internal/httputil"
	"github.com/pdiddy/bizcheck/internal/logger"
	"github.com/pdiddy/bizcheck/internal/session"
	"github.com/pdiddy/bizcheck/pkg/types"
)

// RefreshPath is the token refresh endpoint, relative to the API prefix.
const RefreshPath = "/auth/refresh"

// ErrLoginRequired is returned when a request was rejected as unauthorized
// and the stored refresh token could not recover the session. The stored
// credentials have been cleared by the time it is returned.
var ErrLoginRequired = errors.New("login required")

// TokenStore is the credential holder the client reads and updates.
// *session.Store implements it.
type TokenStore interface {
	Tokens() session.Tokens
	Save(session.Tokens) error
	Clear() error
}

// Client sends JSON requests to the backend.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	tokens        TokenStore
	limiter       *rate.Limiter
	userAgent     string
	maxRetries    int
	log           *slog.Logger
	onAuthFailure func()

	// refreshMu serializes refreshes so concurrent 401s from parallel polls
	// trigger a single refresh.
	refreshMu sync.Mutex
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client (tests pass the
// httptest server's client).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithAuthFailureHook registers fn to run after an irrecoverable auth
// failure, once the credentials have been cleared. The view layer uses it to
// route to the login screen.
func WithAuthFailureHook(fn func()) Option {
	return func(c *Client) { c.onAuthFailure = fn }
}

// New builds a client for cfg.BaseURL + cfg.APIPrefix.
func New(cfg types.ClientConfig, tokens TokenStore, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/") + "/" + strings.Trim(cfg.APIPrefix, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		log:        logger.Discard(),
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 5
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request is one logical call. retried is the per-request marker that
// bounds the refresh-and-resend to a single attempt.
type request struct {
	method  string
	path    string
	query   url.Values
	payload []byte
	retried bool
}

// Do sends method path (relative to the API prefix) with an optional JSON
// body and decodes a 2xx JSON response into out when out is non-nil.
// Non-2xx responses are returned as *APIError.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	r := &request{method: method, path: path, query: query}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		r.payload = data
	}

	ctx = logger.WithRequestID(ctx, uuid.NewString())

	staleAccess := c.tokens.Tokens().Access
	resp, err := c.send(ctx, r, staleAccess)
	if err != nil {
		return err
	}

	// Without a refresh token there is nothing to renew; the 401 is the
	// server's answer (a rejected login, for one) and goes back as *APIError.
	if resp.StatusCode == http.StatusUnauthorized && !r.retried && c.tokens.Tokens().Refresh != "" {
		drain(resp)
		r.retried = true

		access, err := c.refresh(ctx, staleAccess)
		if err != nil {
			c.expireSession(ctx, err)
			return fmt.Errorf("%w: %v", ErrLoginRequired, err)
		}

		resp, err = c.send(ctx, r, access)
		if err != nil {
			return err
		}
	}

	return c.decode(ctx, resp, out)
}

// send performs one HTTP exchange with the given bearer token.
func (c *Client) send(ctx context.Context, r *request, bearer string) (*http.Response, error) {
	reqURL := c.baseURL + r.path
	if len(r.query) > 0 {
		reqURL += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.payload != nil {
		body = bytes.NewReader(r.payload)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if r.payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if id := logger.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, c.maxRetries, c.log)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	logger.FromContext(ctx, c.log).Debug("api request",
		"method", r.method, "path", r.path, "status", resp.StatusCode,
		"retried", r.retried, "duration", time.Since(start))
	return resp, nil
}

// refresh exchanges the stored refresh token for a new pair and returns the
// new access token. If another goroutine already replaced staleAccess, the
// current token is returned without a second refresh.
func (c *Client) refresh(ctx context.Context, staleAccess string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	current := c.tokens.Tokens()
	if current.Access != "" && current.Access != staleAccess {
		return current.Access, nil
	}
	if current.Refresh == "" {
		return "", errors.New("no refresh token stored")
	}

	r := &request{method: http.MethodPost, path: RefreshPath, retried: true}
	data, err := json.Marshal(types.RefreshRequest{RefreshToken: current.Refresh})
	if err != nil {
		return "", fmt.Errorf("encoding refresh body: %w", err)
	}
	r.payload = data

	resp, err := c.send(ctx, r, current.Refresh)
	if err != nil {
		return "", fmt.Errorf("refreshing token: %w", err)
	}

	var tr types.TokenResponse
	if err := c.decode(ctx, resp, &tr); err != nil {
		return "", fmt.Errorf("refreshing token: %w", err)
	}
	if tr.AccessToken == "" {
		return "", errors.New("refresh response carried no access token")
	}

	next := session.Tokens{Access: tr.AccessToken, Refresh: tr.RefreshToken}
	if next.Refresh == "" {
		next.Refresh = current.Refresh
	}
	if err := c.tokens.Save(next); err != nil {
		return "", fmt.Errorf("storing refreshed tokens: %w", err)
	}
	logger.FromContext(ctx, c.log).Info("access token refreshed")
	return next.Access, nil
}

// expireSession clears the stored credentials and fires the auth failure hook.
func (c *Client) expireSession(ctx context.Context, cause error) {
	log := logger.FromContext(ctx, c.log)
	log.Warn("session expired", "error", cause)
	if err := c.tokens.Clear(); err != nil {
		log.Error("clearing credentials", "error", err)
	}
	if c.onAuthFailure != nil {
		c.onAuthFailure()
	}
}

// decode consumes resp. 2xx bodies are decoded into out; anything else
// becomes an *APIError.
func (c *Client) decode(ctx context.Context, resp *http.Response, out any) error {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseAPIError(resp.StatusCode, data)
		apiErr.RequestID = logger.RequestIDFromContext(ctx)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
