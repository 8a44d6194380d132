// ABOUTME: Periodic expiry check that refreshes stale tokens proactively
// ABOUTME: Runs until its context is canceled

package session

import (
	"context"
	"time"
)

// Watch checks token expiry every WatchInterval while a session exists.
func (m *Manager) Watch(ctx context.Context) error {
	ticker := time.NewTicker(m.opts.WatchInterval)
	defer ticker.Stop()

	m.logger.Debug("expiry watchdog started", "interval", m.opts.WatchInterval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.CheckExpiry(ctx)
		}
	}
}

// CheckExpiry runs one watchdog tick and reports whether a refresh was attempted.
func (m *Manager) CheckExpiry(ctx context.Context) bool {
	if !m.Snapshot().LoggedIn() {
		return false
	}

	token := m.StoredToken()
	if token == "" || m.IsTokenValid(token) || m.Refreshing() {
		return false
	}

	m.logger.Info("token expired, refreshing")
	if err := m.RefreshToken(ctx); err != nil && !IsBenign(err) {
		m.logger.Warn("proactive refresh failed", "error", err)
	}
	return true
}
