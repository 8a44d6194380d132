// ABOUTME: Test to verify header/footer width alignment
// ABOUTME: Ensures frame renders at correct terminal width on every screen

package tui

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui/menu"
)

func TestFrameAlignment(t *testing.T) {
	widths := []int{60, 80, 100, 120}
	actions := map[string]menu.Action{
		"menu":   -1,
		"login":  menu.ActionLogin,
		"signup": menu.ActionSignup,
	}

	for _, targetWidth := range widths {
		for name, action := range actions {
			t.Run(fmt.Sprintf("%s/%d", name, targetWidth), func(t *testing.T) {
				app, _ := newTestApp(t)
				if action >= 0 {
					app.Update(menu.SelectedMsg{Action: action})
				}
				app.Update(tea.WindowSizeMsg{Width: targetWidth, Height: 30})

				lines := strings.Split(app.View(), "\n")

				// Frame uses width-1 to prevent wrapping on some terminals,
				// but clamps to minimum of 80 for usability
				expectedWidth := max(targetWidth-1, 80)

				header := lines[0]
				if !strings.HasPrefix(header, "╭") {
					t.Fatalf("header not found: %q", header)
				}
				if w := lipgloss.Width(header); w != expectedWidth {
					t.Errorf("header width: expected %d, got %d", expectedWidth, w)
				}

				footer := lines[len(lines)-1]
				if !strings.HasPrefix(footer, "╰") {
					t.Fatalf("footer not found: %q", footer)
				}
				if w := lipgloss.Width(footer); w != expectedWidth {
					t.Errorf("footer width: expected %d, got %d", expectedWidth, w)
				}
			})
		}
	}
}
