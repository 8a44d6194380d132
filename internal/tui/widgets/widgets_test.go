// ABOUTME: Tests for badge and progress bar widgets
// ABOUTME: Checks session status mapping and lifetime math

package widgets

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
)

func TestSessionStatus(t *testing.T) {
	tests := []struct {
		name       string
		loggedIn   bool
		refreshing bool
		remaining  time.Duration
		wantText   string
		wantLevel  StatusLevel
	}{
		{"logged out", false, false, time.Hour, "LOGGED OUT", StatusNeutral},
		{"refreshing wins over expiry", true, true, -time.Minute, "REFRESHING", StatusInfo},
		{"expired", true, false, 0, "EXPIRED", StatusCritical},
		{"expiring", true, false, 2 * time.Minute, "EXPIRING", StatusWarning},
		{"active", true, false, 20 * time.Minute, "ACTIVE", StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			text, level := SessionStatus(tc.loggedIn, tc.refreshing, tc.remaining)
			if text != tc.wantText || level != tc.wantLevel {
				t.Errorf("SessionStatus() = %q/%d, want %q/%d", text, level, tc.wantText, tc.wantLevel)
			}
		})
	}
}

func TestSessionBadgeContainsText(t *testing.T) {
	badge := SessionBadge(true, false, time.Hour)
	if !strings.Contains(badge, "ACTIVE") {
		t.Errorf("expected badge to contain ACTIVE, got %q", badge)
	}
}

func TestRemaining(t *testing.T) {
	tests := map[time.Duration]string{
		-time.Second:                    "expired",
		0:                               "expired",
		45 * time.Second:                "45s",
		12*time.Minute + 30*time.Second: "12m 30s",
		2*time.Hour + 5*time.Minute:     "2h 5m",
	}
	for d, want := range tests {
		if got := Remaining(d); got != want {
			t.Errorf("Remaining(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestLifetimeUsed(t *testing.T) {
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	expires := issued.Add(30 * time.Minute)

	tests := []struct {
		name string
		now  time.Time
		want float64
	}{
		{"fresh", issued, 0},
		{"half", issued.Add(15 * time.Minute), 50},
		{"past expiry clamps", expires.Add(time.Hour), 100},
		{"before issue clamps", issued.Add(-time.Minute), 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := LifetimeUsed(issued, expires, tc.now); got != tc.want {
				t.Errorf("LifetimeUsed() = %v, want %v", got, tc.want)
			}
		})
	}

	if got := LifetimeUsed(expires, issued, issued); got != 100 {
		t.Errorf("expected inverted window to read as used, got %v", got)
	}
}

func TestProgressBarWidth(t *testing.T) {
	cfg := DefaultProgressBarConfig()
	cfg.Width = 30
	bar := ProgressBar(50, cfg)
	if w := lipgloss.Width(bar); w != 32 {
		t.Errorf("expected width 32 including brackets, got %d", w)
	}
}

func TestProgressBarWithLabelPercent(t *testing.T) {
	out := ProgressBarWithLabel(150, DefaultProgressBarConfig())
	if !strings.Contains(out, "100%") {
		t.Errorf("expected clamped 100%%, got %q", out)
	}
}
