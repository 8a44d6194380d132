// ABOUTME: HTTP round tripper that attaches the bearer token and retries once on 401
// ABOUTME: Auth endpoints are exempt so refresh and logout never recurse

package session

import (
	"context"
	"io"
	"net/http"
	"strings"
)

type retriedKey struct{}

// Transport is the manager's request and response interceptor pair.
type Transport struct {
	Base    http.RoundTripper
	manager *Manager
}

// Transport wraps base (http.DefaultTransport when nil) with the interceptors.
func (m *Manager) Transport(base http.RoundTripper) *Transport {
	return &Transport{Base: base, manager: m}
}

// HTTPClient returns a client whose every request goes through the
// interceptors. Use it for all non-auth API calls.
func (m *Manager) HTTPClient(base http.RoundTripper) *http.Client {
	return &http.Client{
		Transport: m.Transport(base),
		Timeout:   m.opts.RequestTimeout,
	}
}

// Exempt reports whether path is an auth endpoint the interceptors skip.
func (m *Manager) Exempt(path string) bool {
	for _, p := range m.opts.ExemptPaths {
		if strings.HasSuffix(path, p) || strings.Contains(path, p+"/") {
			return true
		}
	}
	return false
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	m := t.manager
	if m.Exempt(req.URL.Path) {
		return t.base().RoundTrip(req)
	}

	resp, err := t.base().RoundTrip(t.authorize(req.Context(), req))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	if req.Context().Value(retriedKey{}) != nil {
		m.logger.Debug("401 after retry, giving up", "path", req.URL.Path)
		return resp, nil
	}
	if m.Refreshing() {
		m.logger.Debug("401 while refresh in flight", "path", req.URL.Path)
		return resp, nil
	}
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		m.logger.Debug("401 on request without replayable body", "path", req.URL.Path)
		return resp, nil
	}

	if err := m.RefreshToken(req.Context()); err != nil {
		m.logger.Debug("refresh after 401 failed", "path", req.URL.Path, "error", err)
		return resp, nil
	}

	retry := t.authorize(context.WithValue(req.Context(), retriedKey{}, true), req)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return resp, nil
		}
		retry.Body = body
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	m.logger.Debug("retrying request with refreshed token", "path", req.URL.Path)
	return t.base().RoundTrip(retry)
}

// authorize clones req and sets the Authorization header from storage.
func (t *Transport) authorize(ctx context.Context, req *http.Request) *http.Request {
	out := req.Clone(ctx)
	if token := t.manager.StoredToken(); token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}
	return out
}
