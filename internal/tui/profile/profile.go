// ABOUTME: Profile panel showing the logged-in user and session health
// ABOUTME: Renders token expiry, lifetime used, and refresh state from a snapshot

package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/session"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui/icons"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui/styles"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui/widgets"
)

// Profile displays the current session
type Profile struct {
	snap   session.Snapshot
	status string
	width  int
	height int
	now    func() time.Time
}

// New creates a profile panel for snap
func New(snap session.Snapshot, width, height int) *Profile {
	return &Profile{
		snap:   snap,
		width:  width,
		height: height,
		now:    time.Now,
	}
}

// Update replaces the snapshot shown
func (p *Profile) Update(snap session.Snapshot) {
	p.snap = snap
}

// SetStatus shows a one-line result, e.g. of a manual refresh
func (p *Profile) SetStatus(status string) {
	p.status = status
}

// SetSize updates the panel dimensions
func (p *Profile) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// View renders the profile
func (p *Profile) View() string {
	if !p.snap.LoggedIn() {
		return styles.Panel.Width(p.panelWidth()).Render("You are not logged in.")
	}

	var sb strings.Builder
	user := p.snap.User

	sb.WriteString(styles.Title.Render(icons.User.String() + " " + displayName(user)))
	sb.WriteString("\n")
	sb.WriteString(row("Username", user.Username))
	if user.Nickname != "" {
		sb.WriteString(row("Nickname", user.Nickname))
	}
	if user.Email != "" {
		sb.WriteString(row("Email", user.Email))
	}
	sb.WriteString("\n")

	now := p.now()
	exp, hasExp := session.TokenExpiry(p.snap.Token)
	var remaining time.Duration
	if hasExp {
		remaining = exp.Sub(now)
	}

	sb.WriteString(styles.Title.Render(icons.Lock.String() + " Session"))
	sb.WriteString("\n")
	sb.WriteString(row("Status", widgets.SessionBadge(true, p.snap.Refreshing, remaining)))
	if hasExp {
		sb.WriteString(row("Expires", fmt.Sprintf("%s %s (%s)", icons.Clock, exp.Local().Format("15:04:05"), widgets.Remaining(remaining))))
		if iat, ok := session.TokenIssuedAt(p.snap.Token); ok {
			cfg := widgets.DefaultProgressBarConfig()
			cfg.Width = 24
			sb.WriteString(row("Lifetime", widgets.ProgressBarWithLabel(widgets.LifetimeUsed(iat, exp, now), cfg)))
		}
	} else {
		sb.WriteString(row("Expires", widgets.StatusText("unknown", widgets.StatusWarning)))
	}
	sb.WriteString(row("Token", icons.Key.String()+" "+tokenTail(p.snap.Token)))
	if p.snap.RefreshFailures > 0 {
		sb.WriteString(row("Refresh", widgets.StatusText(fmt.Sprintf("%d failed attempt(s)", p.snap.RefreshFailures), widgets.StatusWarning)))
	}

	if p.status != "" {
		sb.WriteString("\n")
		sb.WriteString(p.status)
		sb.WriteString("\n")
	}

	return styles.ActivePanel.Width(p.panelWidth()).Render(strings.TrimRight(sb.String(), "\n"))
}

func (p *Profile) panelWidth() int {
	return max(p.width-4, 40)
}

func row(label, value string) string {
	return fmt.Sprintf("%s %s\n", styles.KeyStyle.Render(fmt.Sprintf("%-9s", label)), styles.ValueStyle.Render(value))
}

// tokenTail shows only the end of the signature so sessions can be told apart
func tokenTail(token string) string {
	r := []rune(token)
	if len(r) <= 8 {
		return "…"
	}
	return "…" + string(r[len(r)-8:])
}

func displayName(u *session.UserProfile) string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}
