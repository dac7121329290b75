// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package view

import (
	"context"

	"github.com/pdiddy/bizcheck/internal/apiclient"
	"github.com/pdiddy/bizcheck/pkg/types"
)

// AuthAPI is the authentication backend. *api.AuthService implements it.
type AuthAPI interface {
	Login(ctx context.Context, req types.LoginRequest) (*types.AuthResponse, error)
	Register(ctx context.Context, req types.RegisterRequest) (*types.AuthResponse, error)
	Me(ctx context.Context) (*types.User, error)
	Logout() error
}

// Session is the controller of the login and register screens.
type Session struct {
	User  *types.User
	Error string

	auth   AuthAPI
	router *Router
}

// NewSession returns a logged-out session.
func NewSession(auth AuthAPI, router *Router) *Session {
	return &Session{auth: auth, router: router}
}

// LoggedIn reports whether a user is known.
func (s *Session) LoggedIn() bool {
	return s.User != nil
}

// Restore checks stored credentials by fetching the current user. A token
// the server rejects is discarded.
func (s *Session) Restore(ctx context.Context, hasToken bool) error {
	if !hasToken {
		return nil
	}
	u, err := s.auth.Me(ctx)
	if err != nil {
		s.User = nil
		if lerr := s.auth.Logout(); lerr != nil {
			return lerr
		}
		return err
	}
	s.User = u
	return nil
}

// Login authenticates and routes home.
func (s *Session) Login(ctx context.Context, email, password string) error {
	resp, err := s.auth.Login(ctx, types.LoginRequest{Email: email, Password: password})
	return s.finish(resp, err, "login failed")
}

// Register creates an account and routes home.
func (s *Session) Register(ctx context.Context, email, password, name string) error {
	resp, err := s.auth.Register(ctx, types.RegisterRequest{Email: email, Password: password, Name: name})
	return s.finish(resp, err, "registration failed")
}

func (s *Session) finish(resp *types.AuthResponse, err error, fallback string) error {
	if err != nil {
		s.Error = fallback + ": " + apiclient.Message(err)
		return err
	}
	s.Error = ""
	s.User = &resp.User
	s.router.Navigate(Route{Screen: ScreenHome})
	return nil
}

// Logout discards credentials and routes to the login screen.
func (s *Session) Logout() error {
	s.User = nil
	if err := s.auth.Logout(); err != nil {
		return err
	}
	s.router.RequireLogin()
	return nil
}
