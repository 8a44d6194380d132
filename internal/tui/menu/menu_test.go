// ABOUTME: Tests for the home menu
// ABOUTME: Validates options per login state and selection messages

package menu

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui/icons"
)

func actions(m *Menu) []Action {
	var out []Action
	for _, opt := range m.options {
		out = append(out, opt.value)
	}
	return out
}

func contains(list []Action, a Action) bool {
	for _, v := range list {
		if v == a {
			return true
		}
	}
	return false
}

func TestMenuLoggedOut(t *testing.T) {
	got := actions(New(""))

	for _, want := range []Action{ActionChat, ActionLogin, ActionSignup, ActionQuit} {
		if !contains(got, want) {
			t.Errorf("expected %s in logged-out menu", want)
		}
	}
	if contains(got, ActionLogout) || contains(got, ActionProfile) {
		t.Error("expected no logout or profile when logged out")
	}
}

func TestMenuLoggedIn(t *testing.T) {
	got := actions(New("alice"))

	for _, want := range []Action{ActionChat, ActionProfile, ActionLogout, ActionQuit} {
		if !contains(got, want) {
			t.Errorf("expected %s in logged-in menu", want)
		}
	}
	if contains(got, ActionLogin) || contains(got, ActionSignup) {
		t.Error("expected no login or signup when logged in")
	}
}

func TestMenuFirstOptionIsChat(t *testing.T) {
	for _, user := range []string{"", "alice"} {
		if m := New(user); m.options[0].value != ActionChat {
			t.Errorf("user %q: expected chat first, got %s", user, m.options[0].value)
		}
	}
}

func TestMenuCompletedFormSendsSelection(t *testing.T) {
	m := New("")
	m.selected = ActionSignup
	m.form.State = huh.StateCompleted

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command after completion")
	}
	sel, ok := cmd().(SelectedMsg)
	if !ok {
		t.Fatalf("expected SelectedMsg, got %T", cmd())
	}
	if sel.Action != ActionSignup {
		t.Errorf("expected signup selected, got %s", sel.Action)
	}
}

func TestMenuViewShowsGreeting(t *testing.T) {
	m := New("alice")
	m.Init()
	if view := m.View(); !strings.Contains(view, "Welcome back, alice") {
		t.Errorf("expected greeting in view, got %q", view)
	}
}

func TestMenuViewShowsOptionIcons(t *testing.T) {
	loggedOut := New("")
	loggedOut.Init()
	for _, want := range []string{icons.Login.String() + " Log in", icons.Signup.String() + " Sign up", icons.Quit.String() + " Quit"} {
		if !strings.Contains(loggedOut.View(), want) {
			t.Errorf("expected %q in logged-out menu", want)
		}
	}

	loggedIn := New("alice")
	loggedIn.Init()
	if want := icons.Logout.String() + " Log out"; !strings.Contains(loggedIn.View(), want) {
		t.Errorf("expected %q in logged-in menu", want)
	}
}

func TestActionString(t *testing.T) {
	tests := []struct {
		action   Action
		expected string
	}{
		{ActionChat, "chat"},
		{ActionLogin, "login"},
		{ActionLogout, "logout"},
		{ActionSignup, "signup"},
		{ActionProfile, "profile"},
		{ActionQuit, "quit"},
		{Action(99), "unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			if got := tc.action.String(); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}
