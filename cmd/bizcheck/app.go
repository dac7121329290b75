// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bizcheck/internal/api"
	"github.com/pdiddy/bizcheck/internal/apiclient"
	"github.com/pdiddy/bizcheck/internal/cache"
	"github.com/pdiddy/bizcheck/internal/logger"
	"github.com/pdiddy/bizcheck/internal/poll"
	"github.com/pdiddy/bizcheck/internal/session"
	"github.com/pdiddy/bizcheck/internal/view"
	"github.com/pdiddy/bizcheck/pkg/types"
)

// app wires the session store, HTTP client, resource services and cache for
// one command invocation.
type app struct {
	cfg    types.Config
	log    *slog.Logger
	out    io.Writer
	errOut io.Writer

	tokens *session.Store
	router *view.Router
	client *apiclient.Client
	group  *poll.Group
	cache  *cache.Store

	auth    *api.AuthService
	ideas   *api.IdeaService
	reports *api.ReportService
	search  *api.SearchService
}

func newApp(cmd *cobra.Command) (*app, error) {
	a := &app{
		cfg:    cfg,
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
		router: view.NewRouter(view.Route{Screen: view.ScreenHome}),
		group:  &poll.Group{},
	}
	a.log = logger.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	tokens, err := session.Open(cfg.Session.Dir)
	if err != nil {
		return nil, err
	}
	a.tokens = tokens

	// The login screen is reached only when the session cannot be renewed.
	a.router.OnChange(func(r view.Route) {
		if r.Screen == view.ScreenLogin {
			fmt.Fprintln(a.errOut, "Session expired or missing: run 'bizcheck login'.")
		}
	})

	a.client = apiclient.New(cfg.Client, tokens,
		apiclient.WithLogger(a.log),
		apiclient.WithAuthFailureHook(a.router.RequireLogin))
	a.auth = api.NewAuthService(a.client, tokens)
	a.ideas = api.NewIdeaService(a.client)
	a.reports = api.NewReportService(a.client)
	a.search = api.NewSearchService(a.client)

	if cfg.Cache.Dir != "" {
		store, err := cache.Open(cfg.Cache)
		if err != nil {
			a.log.Warn("cache disabled", "error", err)
		} else {
			a.cache = store
		}
	}
	return a, nil
}

// Close cancels outstanding polls and releases the cache.
func (a *app) Close() {
	a.group.CancelAll()
	if a.cache != nil {
		a.cache.Close()
	}
}

// recorder returns the cache as a view.Recorder, or nil when caching is off.
func (a *app) recorder() view.Recorder {
	if a.cache == nil {
		return nil
	}
	return a.cache
}

func (a *app) detailOptions(onChange func(view.DetailState)) view.DetailOptions {
	return view.DetailOptions{
		Poll:       a.cfg.Poll,
		ReportType: a.cfg.Pipeline.ReportType,
		Group:      a.group,
		Cache:      a.recorder(),
		Logger:     a.log,
		OnChange:   onChange,
	}
}
