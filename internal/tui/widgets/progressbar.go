// ABOUTME: Progress bar with visual threshold zones
// ABOUTME: Shows how much of a token's lifetime is used, green through red

package widgets

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ProgressBarConfig holds configuration for the progress bar
type ProgressBarConfig struct {
	Width         int
	WarnThreshold float64 // Percentage where warning zone starts (default 80)
	CritThreshold float64 // Percentage where critical zone starts (default 95)
	OKColor       lipgloss.Color
	WarnColor     lipgloss.Color
	CritColor     lipgloss.Color
	EmptyColor    lipgloss.Color
	ShowZones     bool // Show threshold markers in the bar
}

// DefaultProgressBarConfig returns sensible defaults
func DefaultProgressBarConfig() ProgressBarConfig {
	return ProgressBarConfig{
		Width:         20,
		WarnThreshold: 80,
		CritThreshold: 95,
		OKColor:       lipgloss.Color("#10B981"), // Green
		WarnColor:     lipgloss.Color("#F59E0B"), // Amber
		CritColor:     lipgloss.Color("#EF4444"), // Red
		EmptyColor:    lipgloss.Color("#374151"), // Dark gray
		ShowZones:     true,
	}
}

// LifetimeUsed returns the elapsed share of [issued, expires] at now as a
// percentage clamped to 0..100.
func LifetimeUsed(issued, expires, now time.Time) float64 {
	total := expires.Sub(issued)
	if total <= 0 {
		return 100
	}
	pct := float64(now.Sub(issued)) / float64(total) * 100
	return clampPercent(pct)
}

func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// ProgressBar renders a progress bar with threshold zones
func ProgressBar(percent float64, config ProgressBarConfig) string {
	if config.Width <= 0 {
		config.Width = 20
	}
	percent = clampPercent(percent)

	filled := int(percent / 100.0 * float64(config.Width))
	if filled > config.Width {
		filled = config.Width
	}

	// Zone boundaries as positions in the bar
	warnPos := int(config.WarnThreshold / 100.0 * float64(config.Width))
	critPos := int(config.CritThreshold / 100.0 * float64(config.Width))

	var bar strings.Builder
	bar.WriteString("[")

	for i := 0; i < config.Width; i++ {
		var char string
		var color lipgloss.Color

		if i < filled {
			char = "█"
			if i >= critPos {
				color = config.CritColor
			} else if i >= warnPos {
				color = config.WarnColor
			} else {
				color = config.OKColor
			}
		} else {
			if config.ShowZones && (i == warnPos || i == critPos) {
				char = "│"
			} else {
				char = "░"
			}
			color = config.EmptyColor
		}

		bar.WriteString(lipgloss.NewStyle().Foreground(color).Render(char))
	}

	bar.WriteString("]")
	return bar.String()
}

// ProgressBarWithLabel renders progress bar with percentage and status icon
func ProgressBarWithLabel(percent float64, config ProgressBarConfig) string {
	bar := ProgressBar(percent, config)

	var statusColor lipgloss.Color
	var statusIcon string

	if percent >= config.CritThreshold {
		statusColor = config.CritColor
		statusIcon = "✗"
	} else if percent >= config.WarnThreshold {
		statusColor = config.WarnColor
		statusIcon = "⚠"
	} else {
		statusColor = config.OKColor
		statusIcon = "✓"
	}

	percentStr := fmt.Sprintf("%3.0f%%", clampPercent(percent))
	styledPercent := lipgloss.NewStyle().Foreground(statusColor).Render(percentStr)
	styledIcon := lipgloss.NewStyle().Foreground(statusColor).Render(statusIcon)

	return fmt.Sprintf("%s %s %s", bar, styledPercent, styledIcon)
}
