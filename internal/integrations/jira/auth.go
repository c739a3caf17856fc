// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-10-18
// Last Modified: 2026-10-18

package jira

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// AuthProvider decorates outgoing requests with credentials.
type AuthProvider interface {
	Apply(req *http.Request) error
}

// BasicAuth authenticates with a username and password.
type BasicAuth struct {
	User     string
	Password string
}

// Apply implements AuthProvider.
func (a BasicAuth) Apply(req *http.Request) error {
	if a.User == "" || a.Password == "" {
		return errors.New("user and password required for basic auth")
	}
	req.SetBasicAuth(a.User, a.Password)
	return nil
}

// TokenAuth authenticates with a bearer token, e.g. a Jira personal access token.
type TokenAuth struct {
	source oauth2.TokenSource
}

// NewTokenAuth returns a TokenAuth backed by a static token.
func NewTokenAuth(token string) *TokenAuth {
	token = strings.TrimSpace(token)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[len("bearer "):])
	}
	return &TokenAuth{
		source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
	}
}

// Apply implements AuthProvider.
func (a *TokenAuth) Apply(req *http.Request) error {
	if a == nil || a.source == nil {
		return errors.New("token source is required")
	}
	tok, err := a.source.Token()
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}
	if tok.AccessToken == "" {
		return errors.New("empty bearer token")
	}
	tok.SetAuthHeader(req)
	return nil
}
