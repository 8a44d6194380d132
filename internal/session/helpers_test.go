// ABOUTME: Shared fixtures for session tests
// ABOUTME: Mints JWTs with golang-jwt and fakes the auth backend

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func makeToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

type fakeBackend struct {
	mu           sync.Mutex
	refreshCalls int
	logoutCalls  int
	refreshToken string
	refreshUser  *UserProfile
	refreshErr   error
	logoutErr    error
	// block, when set, holds RefreshToken until closed; started is signaled on entry.
	block   chan struct{}
	started chan struct{}
}

func (f *fakeBackend) RefreshToken(ctx context.Context, token string) (*Grant, error) {
	f.mu.Lock()
	f.refreshCalls++
	block, started := f.block, f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &Grant{AccessToken: f.refreshToken, User: f.refreshUser}, nil
}

func (f *fakeBackend) Logout(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	return f.logoutErr
}

func (f *fakeBackend) calls() (refresh, logout int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls, f.logoutCalls
}

var errBackendDown = errors.New("backend down")

func newTestManager(store Store, backend Backend) *Manager {
	return New(store, backend, Options{RefreshGuardDelay: -1})
}
