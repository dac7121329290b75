// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package api wraps each backend endpoint in a typed method. Methods do not
// retry or cache; authentication and transport concerns live in apiclient.
package api

import (
	"context"
	"net/url"

	"github.com/pdiddy/bizcheck/internal/session"
)

// Doer sends one JSON request relative to the API prefix.
// *apiclient.Client implements it.
type Doer interface {
	Do(ctx context.Context, method, path string, query url.Values, body, out any) error
}

// TokenSaver persists credentials issued by login and register.
// *session.Store implements it.
type TokenSaver interface {
	Save(session.Tokens) error
	Clear() error
}

func ideaPath(id string, suffix string) string {
	return "/ideas/" + url.PathEscape(id) + suffix
}
