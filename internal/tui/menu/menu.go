// ABOUTME: Home menu for the Pet Travel TUI
// ABOUTME: Offers chat plus the account actions that fit the current login state

package menu

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui/icons"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui/styles"
)

// Action represents the selected menu entry
type Action int

const (
	ActionChat Action = iota
	ActionLogin
	ActionLogout
	ActionSignup
	ActionProfile
	ActionQuit
)

// SelectedMsg is sent when the user picks an entry
type SelectedMsg struct {
	Action Action
}

type option struct {
	icon  icons.Icon
	label string
	value Action
}

// Menu is the home screen selection as a bubbletea model
type Menu struct {
	options  []option
	selected Action
	username string
	form     *huh.Form
}

// New creates the menu for the given user; an empty username means logged out.
func New(username string) *Menu {
	m := &Menu{username: username, selected: ActionChat}
	if username == "" {
		m.options = []option{
			{icons.Chat, "Chat with the travel assistant", ActionChat},
			{icons.Login, "Log in", ActionLogin},
			{icons.Signup, "Sign up", ActionSignup},
			{icons.Quit, "Quit", ActionQuit},
		}
	} else {
		m.options = []option{
			{icons.Chat, "Chat with the travel assistant", ActionChat},
			{icons.User, "Profile", ActionProfile},
			{icons.Logout, "Log out", ActionLogout},
			{icons.Quit, "Quit", ActionQuit},
		}
	}
	m.form = m.createForm()
	return m
}

func (m *Menu) createForm() *huh.Form {
	var options []huh.Option[Action]
	for _, opt := range m.options {
		options = append(options, huh.NewOption(opt.icon.String()+" "+opt.label, opt.value))
	}

	title := "Welcome to Pet Travel"
	if m.username != "" {
		title = fmt.Sprintf("Welcome back, %s", m.username)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[Action]().
				Title(title).
				Description("Plan trips with your companion").
				Options(options...).
				Value(&m.selected),
		),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

// Init implements tea.Model
func (m *Menu) Init() tea.Cmd {
	return m.form.Init()
}

// Update implements tea.Model
func (m *Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		action := m.selected
		return m, func() tea.Msg { return SelectedMsg{Action: action} }
	}
	return m, cmd
}

// View implements tea.Model
func (m *Menu) View() string {
	return m.form.View()
}

// String returns the string representation of an Action
func (a Action) String() string {
	switch a {
	case ActionChat:
		return "chat"
	case ActionLogin:
		return "login"
	case ActionLogout:
		return "logout"
	case ActionSignup:
		return "signup"
	case ActionProfile:
		return "profile"
	case ActionQuit:
		return "quit"
	default:
		return "unknown"
	}
}
