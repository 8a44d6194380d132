// ABOUTME: Session manager owning the bearer token lifecycle
// ABOUTME: Login, logout, refresh with single-flight guard, and observable state

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// UserProfile is the user payload the backend returns with a token.
type UserProfile struct {
	Username string `json:"username"`
	Nickname string `json:"nickname,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Grant is a token issued by the login or refresh endpoint.
type Grant struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type,omitempty"`
	User        *UserProfile `json:"user,omitempty"`
}

// Backend is the slice of the auth API the manager calls itself.
// Its HTTP client must not be the manager's own client.
type Backend interface {
	RefreshToken(ctx context.Context, token string) (*Grant, error)
	Logout(ctx context.Context, token string) error
}

// Snapshot is a copy of the observable session state.
type Snapshot struct {
	User            *UserProfile
	Token           string
	Refreshing      bool
	RefreshFailures int
}

// LoggedIn reports whether the snapshot holds a session.
func (s Snapshot) LoggedIn() bool {
	return s.User != nil && s.Token != ""
}

// Options tunes the manager. Zero values fall back to DefaultOptions.
type Options struct {
	MaxRefreshAttempts int
	RefreshGuardDelay  time.Duration
	WatchInterval      time.Duration
	RequestTimeout     time.Duration
	// ExemptPaths never get a bearer token attached or a 401 retry.
	ExemptPaths []string
	Logger      *slog.Logger
	// OnRedirect is called after every logout so the UI can route to login.
	OnRedirect func()
	Now        func() time.Time
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		MaxRefreshAttempts: 2,
		RefreshGuardDelay:  200 * time.Millisecond,
		WatchInterval:      5 * time.Minute,
		RequestTimeout:     30 * time.Second,
		ExemptPaths:        DefaultExemptPaths(),
	}
}

// DefaultExemptPaths are the auth endpoints the interceptors skip.
func DefaultExemptPaths() []string {
	return []string{
		"/api/login",
		"/api/refresh-token",
		"/api/logout",
		"/api/v1/login",
	}
}

// Manager is the single authority over the session. It is safe for
// concurrent use.
type Manager struct {
	store   Store
	backend Backend
	opts    Options
	logger  *slog.Logger

	mu       sync.Mutex
	user     *UserProfile
	token    string
	failures int

	refreshing atomic.Bool

	subMu    sync.Mutex
	subs     map[int]func(Snapshot)
	nextSub  int
	redirect func()
}

// New creates a manager over store that refreshes and logs out through backend.
func New(store Store, backend Backend, opts Options) *Manager {
	def := DefaultOptions()
	if opts.MaxRefreshAttempts <= 0 {
		opts.MaxRefreshAttempts = def.MaxRefreshAttempts
	}
	if opts.RefreshGuardDelay < 0 {
		opts.RefreshGuardDelay = 0
	}
	if opts.WatchInterval <= 0 {
		opts.WatchInterval = def.WatchInterval
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = def.RequestTimeout
	}
	if opts.ExemptPaths == nil {
		opts.ExemptPaths = def.ExemptPaths
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Manager{
		store:    store,
		backend:  backend,
		opts:     opts,
		logger:   logger.With("component", "session"),
		subs:     make(map[int]func(Snapshot)),
		redirect: opts.OnRedirect,
	}
}

// SetRedirect replaces the redirect hook. The UI installs it once it exists.
func (m *Manager) SetRedirect(fn func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.redirect = fn
}

// Options returns the effective tuning.
func (m *Manager) Options() Options {
	return m.opts
}

// Login establishes a session. The profile and token must both be present
// and the token must have three segments; otherwise the session is cleared.
func (m *Manager) Login(ctx context.Context, user *UserProfile, token string) error {
	if user == nil || !HasTokenFormat(token) {
		m.logger.Warn("rejecting malformed login payload", "has_user", user != nil, "has_token", token != "")
		m.Logout(ctx)
		return ErrInvalidCredentialsFormat
	}

	if err := m.persist(user, token); err != nil {
		return err
	}

	m.mu.Lock()
	m.failures = 0
	m.mu.Unlock()

	m.logger.Info("logged in", "username", user.Username)
	m.notify()
	return nil
}

// persist writes the record first, then mirrors it in memory.
func (m *Manager) persist(user *UserProfile, token string) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user profile: %w", err)
	}
	if err := m.store.Save(Record{User: string(data), Token: token}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	u := *user
	m.mu.Lock()
	m.user = &u
	m.token = token
	m.mu.Unlock()
	return nil
}

// Logout notifies the backend best-effort, clears the session and redirects.
// Calling it without a session only clears and redirects again.
func (m *Manager) Logout(ctx context.Context) {
	token := m.StoredToken()
	if token != "" {
		reqCtx, cancel := m.requestContext(ctx)
		if err := m.backend.Logout(reqCtx, token); err != nil {
			m.logger.Warn("logout notification failed", "error", err)
		}
		cancel()
	}

	if err := m.store.Clear(); err != nil {
		m.logger.Error("failed to clear session storage", "error", err)
	}

	m.mu.Lock()
	hadSession := m.token != ""
	m.user = nil
	m.token = ""
	m.failures = 0
	m.mu.Unlock()

	if hadSession || token != "" {
		m.logger.Info("logged out")
	}
	m.notify()

	m.subMu.Lock()
	redirect := m.redirect
	m.subMu.Unlock()
	if redirect != nil {
		redirect()
	}
}

// IsTokenValid reports whether token is a well-formed JWT that has not expired.
func (m *Manager) IsTokenValid(token string) bool {
	return ValidToken(token, m.opts.Now())
}

// Refreshing reports whether a refresh holds the refresh slot.
func (m *Manager) Refreshing() bool {
	return m.refreshing.Load()
}

// RefreshToken exchanges the stored token for a new one. A nil error means
// the session now holds a fresh token.
func (m *Manager) RefreshToken(ctx context.Context) error {
	if !m.refreshing.CompareAndSwap(false, true) {
		m.logger.Debug("refresh skipped, already in progress")
		return ErrRefreshInProgress
	}

	m.mu.Lock()
	failures := m.failures
	m.mu.Unlock()

	if failures >= m.opts.MaxRefreshAttempts {
		m.refreshing.Store(false)
		m.logger.Warn("maximum refresh attempts reached, logging out", "failures", failures)
		m.Logout(ctx)
		return ErrRefreshExhausted
	}

	defer m.releaseRefresh()

	err := m.refresh(ctx)
	if err == nil {
		m.mu.Lock()
		m.failures = 0
		m.mu.Unlock()
		m.logger.Info("token refreshed")
		m.notify()
		return nil
	}

	m.mu.Lock()
	m.failures++
	failures = m.failures
	m.mu.Unlock()

	m.logger.Warn("token refresh failed", "attempt", failures, "error", err)
	if failures >= m.opts.MaxRefreshAttempts {
		m.Logout(ctx)
		return fmt.Errorf("%w: %w", ErrRefreshExhausted, err)
	}
	m.notify()
	return err
}

func (m *Manager) refresh(ctx context.Context) error {
	rec, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	if rec.Token == "" {
		return fmt.Errorf("%w: %w", ErrRefreshFailed, ErrNoToken)
	}

	reqCtx, cancel := m.requestContext(ctx)
	defer cancel()

	grant, err := m.backend.RefreshToken(reqCtx, rec.Token)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	if grant == nil || grant.AccessToken == "" {
		return fmt.Errorf("%w: no token received", ErrRefreshFailed)
	}
	if !HasTokenFormat(grant.AccessToken) {
		return fmt.Errorf("%w: %w", ErrRefreshFailed, ErrInvalidCredentialsFormat)
	}

	user := grant.User
	if user == nil {
		user = decodeUser(rec.User)
	}
	if user == nil {
		return fmt.Errorf("%w: %w", ErrRefreshFailed, ErrInvalidCredentialsFormat)
	}
	return m.persist(user, grant.AccessToken)
}

// releaseRefresh frees the refresh slot after the guard delay so that
// requests failing right after a refresh do not trigger another one.
func (m *Manager) releaseRefresh() {
	if m.opts.RefreshGuardDelay <= 0 {
		m.refreshing.Store(false)
		return
	}
	time.AfterFunc(m.opts.RefreshGuardDelay, func() {
		m.refreshing.Store(false)
	})
}

// Restore hydrates the in-memory session from storage at startup. An expired
// token gets one refresh attempt; unreadable storage is cleared.
func (m *Manager) Restore(ctx context.Context) error {
	rec, err := m.store.Load()
	if err != nil {
		m.logger.Warn("discarding unreadable session storage", "error", err)
		if clearErr := m.store.Clear(); clearErr != nil {
			m.logger.Error("failed to clear session storage", "error", clearErr)
		}
		return err
	}
	if rec.Token == "" || rec.User == "" {
		if !rec.Empty() {
			m.store.Clear()
		}
		return nil
	}

	user := decodeUser(rec.User)
	if user == nil {
		m.logger.Warn("discarding session with unreadable profile")
		m.store.Clear()
		return fmt.Errorf("decode stored profile: %w", ErrInvalidCredentialsFormat)
	}

	if m.IsTokenValid(rec.Token) {
		m.mu.Lock()
		m.user = user
		m.token = rec.Token
		m.mu.Unlock()
		m.notify()
		return nil
	}

	m.logger.Info("stored token expired, refreshing")
	if err := m.RefreshToken(ctx); err != nil {
		m.logger.Warn("could not restore session", "error", err)
		return err
	}
	return nil
}

// Reload mirrors whatever is in storage into memory without any network
// call. It is how a change made by another process becomes visible.
func (m *Manager) Reload() {
	rec, err := m.store.Load()
	if err != nil {
		m.logger.Warn("reload session failed", "error", err)
		return
	}

	user := decodeUser(rec.User)
	m.mu.Lock()
	if user == nil || rec.Token == "" {
		m.user = nil
		m.token = ""
	} else {
		m.user = user
		m.token = rec.Token
	}
	m.mu.Unlock()
	m.notify()
}

// StoredToken reads the token from storage, not from memory.
func (m *Manager) StoredToken() string {
	rec, err := m.store.Load()
	if err != nil {
		m.logger.Debug("read stored token failed", "error", err)
		return ""
	}
	return rec.Token
}

// Snapshot returns a copy of the current session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Token:           m.token,
		Refreshing:      m.refreshing.Load(),
		RefreshFailures: m.failures,
	}
	if m.user != nil {
		u := *m.user
		snap.User = &u
	}
	return snap
}

// Subscribe calls fn with a snapshot after every session change until the
// returned cancel func is called.
func (m *Manager) Subscribe(fn func(Snapshot)) (cancel func()) {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *Manager) notify() {
	snap := m.Snapshot()

	m.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (m *Manager) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, m.opts.RequestTimeout)
}

func decodeUser(raw string) *UserProfile {
	if raw == "" {
		return nil
	}
	var u UserProfile
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil
	}
	return &u
}

// IsBenign reports whether err needs no user-visible handling.
func IsBenign(err error) bool {
	return err == nil || errors.Is(err, ErrRefreshInProgress)
}
