// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package poll repeatedly checks the status of a server-side job until it
// reaches a terminal state. Polls are bounded by attempt count and wall
// time, tolerate a budget of consecutive fetch errors and stop as soon as
// their context is cancelled.
package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pdiddy/bizcheck/internal/logger"
	"github.com/pdiddy/bizcheck/pkg/types"
)

// DefaultInterval is the delay between status checks when Options.Interval
// is zero.
const DefaultInterval = 3 * time.Second

// DefaultMaxWait bounds a poll whose Options set neither MaxAttempts nor
// MaxWait, so no poll runs forever.
var DefaultMaxWait = 10 * time.Minute

// ErrTimeout is returned when a poll exhausts MaxAttempts or MaxWait before
// the job reaches a terminal state.
var ErrTimeout = errors.New("poll timed out")

// Outcome classifies one observed job record.
type Outcome int

const (
	Pending Outcome = iota
	Succeeded
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// JobFailedError reports that the server marked the job as failed.
type JobFailedError struct {
	Job    string
	Detail string
}

func (e *JobFailedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s job failed: %s", e.Job, e.Detail)
	}
	return fmt.Sprintf("%s job failed", e.Job)
}

// BudgetExceededError reports that more than the allowed number of
// consecutive status checks failed. Err is the last fetch error.
type BudgetExceededError struct {
	Consecutive int
	Err         error
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("status check failed %d times in a row: %v", e.Consecutive, e.Err)
}

func (e *BudgetExceededError) Unwrap() error { return e.Err }

// permanentError marks a fetch error that must end the poll immediately.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so that Until returns it at once instead of counting
// it against the error budget. Used for errors a retry cannot fix, such as
// an expired session.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Options bounds one poll.
type Options struct {
	// Job names the job in errors and logs (e.g. "collection").
	Job string

	// Interval is the delay before each status check.
	Interval time.Duration

	// MaxAttempts bounds the number of status checks. Zero means no
	// attempt bound.
	MaxAttempts int

	// MaxWait bounds the total time spent polling. Zero means no time
	// bound, unless MaxAttempts is zero too: then DefaultMaxWait applies.
	MaxWait time.Duration

	// ErrorBudget is the number of consecutive fetch errors tolerated.
	// One more error than the budget ends the poll.
	ErrorBudget int

	Logger *slog.Logger
}

// FromConfig builds Options for job from the configured poll bounds.
func FromConfig(job string, cfg types.PollConfig) Options {
	return Options{
		Job:         job,
		Interval:    cfg.Interval,
		MaxAttempts: cfg.MaxAttempts,
		MaxWait:     cfg.MaxWait,
		ErrorBudget: cfg.ErrorBudget,
	}
}

// Fetch reads the current job record.
type Fetch[T any] func(ctx context.Context) (T, error)

// Classify maps a record to an Outcome. The returned detail is used as the
// JobFailedError detail when the outcome is Failed.
type Classify[T any] func(v T) (Outcome, string)

// Until polls fetch every opts.Interval until classify reports a terminal
// outcome. The first check happens one interval after the call. onTick, when
// non-nil, sees every successfully fetched record, terminal or not, before
// classification ends the loop. Checks never overlap: the next interval
// starts after the previous fetch returns.
//
// Until returns the terminal record on success, *JobFailedError on a failed
// job, ErrTimeout when a bound is hit, *BudgetExceededError when fetches keep
// failing and ctx.Err() when ctx is cancelled.
func Until[T any](ctx context.Context, opts Options, fetch Fetch[T], classify Classify[T], onTick func(attempt int, v T)) (T, error) {
	var zero T

	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	log = log.With("job", opts.Job)

	maxWait := opts.MaxWait
	if maxWait <= 0 && opts.MaxAttempts <= 0 {
		maxWait = DefaultMaxWait
	}
	var deadline <-chan time.Time
	if maxWait > 0 {
		t := time.NewTimer(maxWait)
		defer t.Stop()
		deadline = t.C
	}

	ticker := time.NewTimer(interval)
	defer ticker.Stop()

	consecutive := 0
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-deadline:
			return zero, fmt.Errorf("%s: %w after %v", opts.Job, ErrTimeout, maxWait)
		case <-ticker.C:
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := fetch(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return zero, ctx.Err()
			}
			var perm *permanentError
			if errors.As(err, &perm) {
				return zero, perm.err
			}
			consecutive++
			log.Warn("status check failed", "attempt", attempt, "consecutive", consecutive, "error", err)
			if consecutive > opts.ErrorBudget {
				return zero, &BudgetExceededError{Consecutive: consecutive, Err: err}
			}
		default:
			consecutive = 0
			if onTick != nil {
				onTick(attempt, v)
			}
			outcome, detail := classify(v)
			log.Debug("status checked", "attempt", attempt, "outcome", outcome)
			switch outcome {
			case Succeeded:
				return v, nil
			case Failed:
				return v, &JobFailedError{Job: opts.Job, Detail: detail}
			}
		}

		if opts.MaxAttempts > 0 && attempt >= opts.MaxAttempts {
			return zero, fmt.Errorf("%s: %w after %d attempts", opts.Job, ErrTimeout, attempt)
		}
		ticker.Reset(interval)
	}
}

// ByJobStatus classifies a server job status.
func ByJobStatus(s types.JobStatus) Outcome {
	switch s {
	case types.JobCompleted:
		return Succeeded
	case types.JobFailed:
		return Failed
	default:
		return Pending
	}
}

// CollectionOutcome classifies a collection status record. The failure
// detail lists the sub-tasks that failed.
func CollectionOutcome(s *types.CollectionStatus) (Outcome, string) {
	o := ByJobStatus(s.Status)
	if o == Failed && len(s.FailedTasks) > 0 {
		return o, "failed tasks: " + strings.Join(s.FailedTasks, ", ")
	}
	return o, ""
}

// AnalysisOutcome classifies an analysis result.
func AnalysisOutcome(a *types.AnalysisResult) (Outcome, string) {
	return ByJobStatus(a.Status), ""
}

// ReportOutcome classifies a report. Reports served without a status are
// complete, since the backend only stores finished reports.
func ReportOutcome(r *types.Report) (Outcome, string) {
	if r.Status == "" {
		return Succeeded, ""
	}
	return ByJobStatus(r.Status), ""
}
