// ABOUTME: Completes provider logins from the backend's redirect parameters
// ABOUTME: Loopback listener receives the browser redirect and strips its query

package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/session"
)

// ErrNoCallbackParams means the redirect carried neither a token nor an error.
var ErrNoCallbackParams = errors.New("no login result in callback")

// placeholderUsername is used when the redirect carries only a token.
const placeholderUsername = "user"

// ProviderError is a failure the backend reported after the provider step.
type ProviderError struct {
	Code string
}

func (e *ProviderError) Error() string {
	return providerErrorMessage(e.Code) + ", please try again"
}

func providerErrorMessage(code string) string {
	switch code {
	case "token_error":
		return "failed to issue an authentication token"
	case "api_error":
		return "failed to fetch the user profile"
	case "no_email":
		return "the provider did not share an email address"
	case "server_error":
		return "the server encountered an error"
	default:
		return "login failed"
	}
}

// ProfileFetcher loads the logged-in user's profile.
type ProfileFetcher interface {
	Me(ctx context.Context) (*session.UserProfile, error)
}

// Callback turns redirect parameters into a session.
type Callback struct {
	Manager *session.Manager
	// Profiles, when set, replaces the placeholder profile of a token-only redirect.
	Profiles ProfileFetcher
	Logger   *slog.Logger
}

// Complete handles token, user and error parameters.
func (c *Callback) Complete(ctx context.Context, params url.Values) (*session.UserProfile, error) {
	if code := params.Get("error"); code != "" {
		return nil, &ProviderError{Code: code}
	}

	token := params.Get("token")
	if token == "" {
		return nil, ErrNoCallbackParams
	}

	if raw := params.Get("user"); raw != "" {
		var user session.UserProfile
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			c.logger().Warn("malformed user in login callback", "error", err)
			return nil, fmt.Errorf("%w: malformed user data", session.ErrInvalidCredentialsFormat)
		}
		if err := c.Manager.Login(ctx, &user, token); err != nil {
			return nil, err
		}
		return &user, nil
	}

	placeholder := &session.UserProfile{Username: placeholderUsername}
	if err := c.Manager.Login(ctx, placeholder, token); err != nil {
		return nil, err
	}
	if c.Profiles == nil {
		return placeholder, nil
	}

	me, err := c.Profiles.Me(ctx)
	if err != nil {
		c.logger().Warn("could not load profile after provider login", "error", err)
		return placeholder, nil
	}
	// Me may have gone through a refresh; keep whatever token is stored now.
	current := c.Manager.StoredToken()
	if current == "" {
		current = token
	}
	if err := c.Manager.Login(ctx, me, current); err != nil {
		return nil, err
	}
	return me, nil
}

func (c *Callback) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const donePage = `<!doctype html>
<html><head><meta charset="utf-8"><title>pettrip</title></head>
<body style="font-family:sans-serif;text-align:center;margin-top:4em">
<h2>Login finished</h2><p>You can close this window and return to the terminal.</p>
</body></html>`

// CallbackServer is a loopback HTTP listener for the provider redirect.
type CallbackServer struct {
	ln      net.Listener
	srv     *http.Server
	results chan url.Values
	served  chan struct{}
}

// ListenCallback starts listening on addr (host:port).
func ListenCallback(addr string) (*CallbackServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen for login callback on %s: %w", addr, err)
	}

	cs := &CallbackServer{
		ln:      ln,
		results: make(chan url.Values, 1),
		served:  make(chan struct{}, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", cs.handle)
	cs.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go cs.srv.Serve(ln)
	return cs, nil
}

// URL is the address the backend should redirect to.
func (cs *CallbackServer) URL() string {
	return "http://" + cs.ln.Addr().String() + "/login"
}

func (cs *CallbackServer) handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Has("token") || q.Has("error") {
		select {
		case cs.results <- q:
		default:
		}
		// Same path without the query, so the token does not linger in the address bar.
		http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, donePage)
	select {
	case cs.served <- struct{}{}:
	default:
	}
}

// Wait blocks until the first redirect arrives or ctx ends, then shuts the
// listener down once the browser has loaded the landing page.
func (cs *CallbackServer) Wait(ctx context.Context) (url.Values, error) {
	defer cs.Close()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case q := <-cs.results:
		select {
		case <-cs.served:
		case <-time.After(2 * time.Second):
		case <-ctx.Done():
		}
		return q, nil
	}
}

// Close stops the listener.
func (cs *CallbackServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return cs.srv.Shutdown(ctx)
}
