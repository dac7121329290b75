// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/pdiddy/bizcheck/internal/session"
	"github.com/pdiddy/bizcheck/pkg/types"
)

// AuthService covers login, registration and the current user.
type AuthService struct {
	c      Doer
	tokens TokenSaver
}

// NewAuthService returns an AuthService that stores issued tokens in tokens.
func NewAuthService(c Doer, tokens TokenSaver) *AuthService {
	return &AuthService{c: c, tokens: tokens}
}

// Login authenticates and persists the returned credential pair.
func (s *AuthService) Login(ctx context.Context, req types.LoginRequest) (*types.AuthResponse, error) {
	return s.authenticate(ctx, "/auth/login", req)
}

// Register creates an account and persists the returned credential pair.
func (s *AuthService) Register(ctx context.Context, req types.RegisterRequest) (*types.AuthResponse, error) {
	return s.authenticate(ctx, "/auth/register", req)
}

func (s *AuthService) authenticate(ctx context.Context, path string, body any) (*types.AuthResponse, error) {
	var resp types.AuthResponse
	if err := s.c.Do(ctx, http.MethodPost, path, nil, body, &resp); err != nil {
		return nil, err
	}
	if resp.Tokens.AccessToken == "" {
		return nil, errors.New("server issued no access token")
	}
	err := s.tokens.Save(session.Tokens{
		Access:  resp.Tokens.AccessToken,
		Refresh: resp.Tokens.RefreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("storing tokens: %w", err)
	}
	return &resp, nil
}

// Me returns the user the stored access token belongs to.
func (s *AuthService) Me(ctx context.Context) (*types.User, error) {
	var u types.User
	if err := s.c.Do(ctx, http.MethodGet, "/auth/me", nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout discards the stored credentials. The backend keeps no session
// state, so no request is made.
func (s *AuthService) Logout() error {
	return s.tokens.Clear()
}
