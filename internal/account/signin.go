// ABOUTME: Password and social sign-in flows on top of the session manager
// ABOUTME: Turns backend grants into an established session

package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/client"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/session"
)

// ErrLoginFailed is shown when the backend rejects the username or password.
var ErrLoginFailed = errors.New("login failed, check your username and password")

// Provider is an identity provider reachable through the backend.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderNaver  Provider = "naver"
)

// Providers lists the supported identity providers in display order.
var Providers = []Provider{ProviderGoogle, ProviderNaver}

// ParseProvider accepts a provider name in any case.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Providers {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q (supported: google, naver)", s)
}

// DisplayName returns the provider name for UI labels.
func (p Provider) DisplayName() string {
	return cases.Title(language.English).String(string(p))
}

// Authenticator is the password login endpoint.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*session.Grant, error)
}

// SocialAuthenticator is the provider URL endpoint.
type SocialAuthenticator interface {
	SocialAuthURL(ctx context.Context, provider string) (string, error)
}

// SignIn logs in with a username and password and establishes the session.
func SignIn(ctx context.Context, api Authenticator, mgr *session.Manager, username, password string) (*session.UserProfile, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}

	grant, err := api.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return nil, ErrLoginFailed
		}
		return nil, fmt.Errorf("login failed: %w", err)
	}

	if err := mgr.Login(ctx, grant.User, grant.AccessToken); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return grant.User, nil
}

// SocialLoginURL asks the backend where to send the user for provider login.
func SocialLoginURL(ctx context.Context, api SocialAuthenticator, provider Provider) (string, error) {
	authURL, err := api.SocialAuthURL(ctx, string(provider))
	if err != nil {
		return "", fmt.Errorf("%s login is unavailable: %w", provider.DisplayName(), err)
	}
	return authURL, nil
}
