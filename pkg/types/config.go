// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// ClientConfig holds settings for the authenticated HTTP client.
type ClientConfig struct {
	// BaseURL is the backend origin (e.g. "http://localhost:8000").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// APIPrefix is prepended to every endpoint path (default "/api/v1").
	APIPrefix string `json:"api_prefix" yaml:"api_prefix" mapstructure:"api_prefix"`

	// Timeout is the per-request HTTP timeout (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is sent with every request (e.g. "bizcheck/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// RequestsPerSecond caps the outgoing request rate. Zero disables the limiter.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`

	// Burst is the limiter's bucket size (default 5).
	Burst int `json:"burst" yaml:"burst" mapstructure:"burst"`

	// MaxRetries bounds retries on HTTP 429 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// PollConfig bounds a job status poll.
type PollConfig struct {
	// Interval is the delay between status checks (default 3s).
	Interval time.Duration `json:"interval" yaml:"interval" mapstructure:"interval"`

	// MaxAttempts is the maximum number of status checks. Zero means no attempt bound.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`

	// MaxWait is the maximum total wait. Zero means no time bound; at least
	// one of MaxAttempts and MaxWait must be set.
	MaxWait time.Duration `json:"max_wait" yaml:"max_wait" mapstructure:"max_wait"`

	// ErrorBudget is the number of consecutive failed status checks tolerated
	// before the poll is abandoned (default 3).
	ErrorBudget int `json:"error_budget" yaml:"error_budget" mapstructure:"error_budget"`
}

// PipelineConfig holds settings for the idea → report chain.
type PipelineConfig struct {
	// ResetDelay is how long a failure stays on screen before the view returns
	// to the entry screen (default 3s).
	ResetDelay time.Duration `json:"reset_delay" yaml:"reset_delay" mapstructure:"reset_delay"`

	// ReportType is the report depth requested at the end of the chain.
	ReportType ReportType `json:"report_type" yaml:"report_type" mapstructure:"report_type"`
}

// SessionConfig locates the credential store.
type SessionConfig struct {
	// Dir holds the access-token and refresh-token files.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// CacheConfig locates the local status/report cache.
type CacheConfig struct {
	// Dir holds cache.db. An empty Dir disables the cache.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// LogConfig selects log verbosity and format.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default warn).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is text or json (default text).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all client configuration.
type Config struct {
	Client   ClientConfig   `json:"client" yaml:"client" mapstructure:"client"`
	Poll     PollConfig     `json:"poll" yaml:"poll" mapstructure:"poll"`
	Pipeline PipelineConfig `json:"pipeline" yaml:"pipeline" mapstructure:"pipeline"`
	Session  SessionConfig  `json:"session" yaml:"session" mapstructure:"session"`
	Cache    CacheConfig    `json:"cache" yaml:"cache" mapstructure:"cache"`
	Log      LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
// Polls run every 3s and a failed run returns home after 3s.
func DefaultConfig() Config {
	return Config{
		Client: ClientConfig{
			BaseURL:           "http://localhost:8000",
			APIPrefix:         "/api/v1",
			Timeout:           30 * time.Second,
			UserAgent:         "bizcheck/0.1",
			RequestsPerSecond: 10,
			Burst:             5,
			MaxRetries:        5,
		},
		Poll: PollConfig{
			Interval:    3 * time.Second,
			MaxAttempts: 200,
			MaxWait:     10 * time.Minute,
			ErrorBudget: 3,
		},
		Pipeline: PipelineConfig{
			ResetDelay: 3 * time.Second,
			ReportType: ReportBasic,
		},
		Session: SessionConfig{Dir: ".bizcheck/session"},
		Cache:   CacheConfig{Dir: ".bizcheck"},
		Log:     LogConfig{Level: "warn", Format: "text"},
	}
}

// Validate rejects configurations the client cannot run with.
func (c Config) Validate() error {
	if c.Client.BaseURL == "" {
		return fmt.Errorf("client.base_url is required")
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be positive, got %v", c.Poll.Interval)
	}
	if c.Poll.MaxAttempts < 0 || c.Poll.ErrorBudget < 0 || c.Poll.MaxWait < 0 {
		return fmt.Errorf("poll bounds must not be negative")
	}
	if c.Poll.MaxAttempts == 0 && c.Poll.MaxWait == 0 {
		return fmt.Errorf("poll.max_attempts or poll.max_wait must be set")
	}
	if c.Pipeline.ReportType != "" && !c.Pipeline.ReportType.Valid() {
		return fmt.Errorf("pipeline.report_type %q is not one of basic, detailed, executive", c.Pipeline.ReportType)
	}
	return nil
}
