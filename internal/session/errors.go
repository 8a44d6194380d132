// ABOUTME: Sentinel errors returned by the session manager
// ABOUTME: Callers match them with errors.Is to pick user-facing behavior

package session

import "errors"

var (
	// ErrInvalidCredentialsFormat means a login or refresh payload was missing
	// the profile or the token, or the token is not three dot-separated segments.
	ErrInvalidCredentialsFormat = errors.New("invalid credentials format")

	// ErrRefreshInProgress is returned when another refresh already holds the
	// refresh slot. It is benign: callers should not count it as a failure.
	ErrRefreshInProgress = errors.New("token refresh already in progress")

	// ErrRefreshExhausted means the consecutive failure limit was reached and
	// the session has been logged out.
	ErrRefreshExhausted = errors.New("maximum token refresh attempts reached")

	// ErrRefreshFailed wraps every other refresh failure.
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrNoToken means there was no stored token to refresh.
	ErrNoToken = errors.New("no stored token")
)
