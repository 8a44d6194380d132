// ABOUTME: Status badge widgets for quick visual status indication
// ABOUTME: Maps session state (active, expiring, refreshing) to colored badges

package widgets

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui/icons"
)

// StatusLevel represents the severity of a status
type StatusLevel int

const (
	StatusOK StatusLevel = iota
	StatusWarning
	StatusCritical
	StatusInfo
	StatusNeutral
)

// ExpiringSoon is how close to expiry a session is flagged as a warning.
const ExpiringSoon = 5 * time.Minute

// Badge colors
var (
	BadgeOKBg      = lipgloss.Color("#10B981")
	BadgeOKFg      = lipgloss.Color("#FFFFFF")
	BadgeWarnBg    = lipgloss.Color("#F59E0B")
	BadgeWarnFg    = lipgloss.Color("#000000")
	BadgeCritBg    = lipgloss.Color("#EF4444")
	BadgeCritFg    = lipgloss.Color("#FFFFFF")
	BadgeInfoBg    = lipgloss.Color("#3B82F6")
	BadgeInfoFg    = lipgloss.Color("#FFFFFF")
	BadgeNeutralBg = lipgloss.Color("#6B7280")
	BadgeNeutralFg = lipgloss.Color("#FFFFFF")
)

// Badge renders a colored status badge
func Badge(text string, level StatusLevel) string {
	var bg, fg lipgloss.Color

	switch level {
	case StatusOK:
		bg, fg = BadgeOKBg, BadgeOKFg
	case StatusWarning:
		bg, fg = BadgeWarnBg, BadgeWarnFg
	case StatusCritical:
		bg, fg = BadgeCritBg, BadgeCritFg
	case StatusInfo:
		bg, fg = BadgeInfoBg, BadgeInfoFg
	default:
		bg, fg = BadgeNeutralBg, BadgeNeutralFg
	}

	style := lipgloss.NewStyle().
		Background(bg).
		Foreground(fg).
		Padding(0, 1).
		Bold(true)

	return style.Render(text)
}

// SessionStatus describes a session for display.
func SessionStatus(loggedIn, refreshing bool, remaining time.Duration) (string, StatusLevel) {
	switch {
	case !loggedIn:
		return "LOGGED OUT", StatusNeutral
	case refreshing:
		return "REFRESHING", StatusInfo
	case remaining <= 0:
		return "EXPIRED", StatusCritical
	case remaining < ExpiringSoon:
		return "EXPIRING", StatusWarning
	default:
		return "ACTIVE", StatusOK
	}
}

// SessionBadge renders the badge for SessionStatus
func SessionBadge(loggedIn, refreshing bool, remaining time.Duration) string {
	text, level := SessionStatus(loggedIn, refreshing, remaining)
	return Badge(text, level)
}

// StatusIcon returns the appropriate icon for a status level
func StatusIcon(level StatusLevel) string {
	switch level {
	case StatusOK:
		return lipgloss.NewStyle().Foreground(BadgeOKBg).Render(icons.CheckOK.String())
	case StatusWarning:
		return lipgloss.NewStyle().Foreground(BadgeWarnBg).Render(icons.Warning.String())
	case StatusCritical:
		return lipgloss.NewStyle().Foreground(BadgeCritBg).Render(icons.Critical.String())
	case StatusInfo:
		return lipgloss.NewStyle().Foreground(BadgeInfoBg).Render(icons.Info.String())
	default:
		return lipgloss.NewStyle().Foreground(BadgeNeutralBg).Render("•")
	}
}

// StatusText returns styled status text with icon
func StatusText(text string, level StatusLevel) string {
	icon := StatusIcon(level)

	var color lipgloss.Color
	switch level {
	case StatusOK:
		color = BadgeOKBg
	case StatusWarning:
		color = BadgeWarnBg
	case StatusCritical:
		color = BadgeCritBg
	case StatusInfo:
		color = BadgeInfoBg
	default:
		color = BadgeNeutralBg
	}

	textStyle := lipgloss.NewStyle().Foreground(color)
	return fmt.Sprintf("%s %s", icon, textStyle.Render(text))
}

// Remaining formats the time left on a token, e.g. "12m 30s" or "expired".
func Remaining(d time.Duration) string {
	if d <= 0 {
		return "expired"
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
