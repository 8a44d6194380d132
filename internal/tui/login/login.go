// ABOUTME: Login screen as a bubbletea model
// ABOUTME: Password form or social provider choice; the app runs the actual login

package login

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/account"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui/icons"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui/styles"
)

const methodPassword = "password"

// SubmitMsg asks the app to log in with a username and password
type SubmitMsg struct {
	Username string
	Password string
}

// SocialMsg asks the app to start a provider login
type SocialMsg struct {
	Provider account.Provider
}

// CancelledMsg is sent when the user leaves the login screen
type CancelledMsg struct{}

// Login collects credentials
type Login struct {
	form  *huh.Form
	width int

	method   string
	username string
	password string

	notice  string
	err     error
	busy    string
	authURL string
}

// New creates the login screen. notice is shown above the form, e.g. after
// the session expired.
func New(notice string) *Login {
	l := &Login{method: methodPassword, notice: notice}
	l.form = l.createForm()
	return l
}

func (l *Login) createForm() *huh.Form {
	methods := []huh.Option[string]{huh.NewOption("Username and password", methodPassword)}
	for _, p := range account.Providers {
		methods = append(methods, huh.NewOption("Continue with "+p.DisplayName(), string(p)))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Log in").
				Description("Choose how to sign in").
				Options(methods...).
				Value(&l.method),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&l.username).
				Validate(required("username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&l.password).
				Validate(required("password")),
		).WithHideFunc(func() bool {
			return l.method != methodPassword
		}),
	).WithTheme(styles.FormTheme())
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// Init implements tea.Model
func (l *Login) Init() tea.Cmd {
	return l.form.Init()
}

// Update implements tea.Model
func (l *Login) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		l.width = msg.Width
	case tea.KeyMsg:
		if msg.String() == "esc" {
			return l, func() tea.Msg { return CancelledMsg{} }
		}
	}

	if l.busy != "" {
		return l, nil
	}

	form, cmd := l.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		l.form = f
	}

	if l.form.State == huh.StateCompleted {
		return l.submit()
	}
	return l, cmd
}

func (l *Login) submit() (tea.Model, tea.Cmd) {
	l.err = nil
	if l.method == methodPassword {
		l.busy = "Logging in..."
		username, password := strings.TrimSpace(l.username), l.password
		return l, func() tea.Msg { return SubmitMsg{Username: username, Password: password} }
	}

	provider := account.Provider(l.method)
	l.busy = fmt.Sprintf("Contacting %s...", provider.DisplayName())
	return l, func() tea.Msg { return SocialMsg{Provider: provider} }
}

// SetError shows err and returns to the form, keeping what was typed
// except the password.
func (l *Login) SetError(err error) tea.Cmd {
	l.err = err
	l.busy = ""
	l.authURL = ""
	l.password = ""
	l.form = l.createForm()
	return l.form.Init()
}

// SetWaiting shows the provider URL while the app waits for the redirect.
func (l *Login) SetWaiting(provider account.Provider, authURL string) {
	l.busy = fmt.Sprintf("Waiting for %s login...", provider.DisplayName())
	l.authURL = authURL
}

// Busy reports whether a login is in progress.
func (l *Login) Busy() bool {
	return l.busy != ""
}

// View implements tea.Model
func (l *Login) View() string {
	var sb strings.Builder

	if l.notice != "" {
		sb.WriteString(styles.Notice.Render(icons.Warning.String() + " " + l.notice))
		sb.WriteString("\n")
	}
	if l.err != nil {
		sb.WriteString(styles.ErrorText.Render(icons.Critical.String() + " " + l.err.Error()))
		sb.WriteString("\n\n")
	}

	if l.busy == "" {
		sb.WriteString(l.form.View())
		return sb.String()
	}

	sb.WriteString(styles.Title.Render(icons.Login.String() + " " + l.busy))
	sb.WriteString("\n")
	if l.authURL != "" {
		sb.WriteString("Open this link in your browser to continue:\n\n")
		sb.WriteString(lipgloss.NewStyle().Foreground(styles.Info).Underline(true).Render(l.authURL))
		sb.WriteString("\n")
	}
	sb.WriteString(styles.Help.Render("esc: cancel"))
	return sb.String()
}
