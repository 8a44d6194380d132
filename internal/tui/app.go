// ABOUTME: Root bubbletea model for the Pet Travel TUI
// ABOUTME: Manages screen state, session changes, and routes input to child screens

package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/account"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/chat"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/client"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/session"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui/chatview"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui/icons"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui/login"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui/menu"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui/profile"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui/signup"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui/styles"
)

// Screen represents the current TUI screen
type Screen int

const (
	ScreenMenu Screen = iota
	ScreenLogin
	ScreenSignup
	ScreenChat
	ScreenProfile
)

// Layout constants
const (
	minTerminalWidth = 80
	frameOverhead    = 2 // header and footer lines
)

// Notices shown above the login form
const (
	NoticeExpired   = "Your session has expired. Please log in again."
	NoticeChatLogin = "Log in to chat with the Pet Travel assistant."
	noticeSignedUp  = "Account created for %s. Please log in."
)

// sessionChangedMsg carries a snapshot published by the session manager
type sessionChangedMsg struct {
	snap session.Snapshot
}

// sessionExpiredMsg is sent when the manager redirects to login
type sessionExpiredMsg struct{}

// loginResultMsg is sent when a password or provider login finishes
type loginResultMsg struct {
	user *session.UserProfile
	err  error
}

// socialStartedMsg is sent once the callback listener is up and the
// provider URL is known
type socialStartedMsg struct {
	provider account.Provider
	authURL  string
	server   *account.CallbackServer
	err      error
}

// loggedOutMsg is sent when a user-initiated logout completes
type loggedOutMsg struct{}

// tokenRefreshedMsg is sent when a manual refresh from the profile finishes
type tokenRefreshedMsg struct {
	err error
}

// Deps are the services the TUI drives
type Deps struct {
	Session *session.Manager
	// Auth is a plain client for the login endpoints.
	Auth *client.Client
	// API sends through the session interceptors.
	API           *client.Client
	History       *chat.History
	CallbackAddr  string
	MarkdownStyle string
	Logger        *slog.Logger
	// StartInChat opens the chat screen (or login, without a session) first.
	StartInChat bool
}

// App is the root model for the TUI
type App struct {
	ctx      context.Context
	deps     Deps
	logger   *slog.Logger
	screen   Screen
	returnTo Screen
	width    int
	height   int
	snap     session.Snapshot
	status   string

	loggingOut bool

	// Child models
	menu          *menu.Menu
	loginScreen   *login.Login
	signupScreen  *signup.Wizard
	chatScreen    *chatview.Chat
	profileScreen *profile.Profile

	// Provider login in progress
	callback     *account.CallbackServer
	socialCtx    context.Context
	cancelSocial context.CancelFunc
}

// New creates a new TUI application
func New(ctx context.Context, deps Deps) *App {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	a := &App{
		ctx:    ctx,
		deps:   deps,
		logger: logger.With("component", "tui"),
		screen: ScreenMenu,
		snap:   deps.Session.Snapshot(),
	}
	a.menu = menu.New(a.username())
	return a
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	if a.deps.StartInChat {
		_, cmd := a.handleMenu(menu.ActionChat)
		return cmd
	}
	return a.menu.Init()
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.chatScreen != nil {
			a.chatScreen.SetSize(a.frameWidth(), a.contentHeight())
		}
		if a.profileScreen != nil {
			a.profileScreen.SetSize(a.frameWidth(), a.contentHeight())
		}
		if a.signupScreen != nil {
			a.signupScreen.SetWidth(a.frameWidth() - 1)
		}
		return a.forward(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, a.quit()
		}
		switch a.screen {
		case ScreenMenu:
			if msg.String() == "q" {
				return a, a.quit()
			}
		case ScreenProfile:
			return a.updateProfile(msg)
		}
		return a.forward(msg)

	case menu.SelectedMsg:
		return a.handleMenu(msg.Action)

	case login.SubmitMsg:
		return a, a.signIn(msg.Username, msg.Password)

	case login.SocialMsg:
		return a, a.startSocial(msg.Provider)

	case login.CancelledMsg:
		a.stopSocial()
		return a, a.showMenu()

	case socialStartedMsg:
		return a.handleSocialStarted(msg)

	case loginResultMsg:
		return a.handleLoginResult(msg)

	case signup.CompleteMsg:
		a.signupScreen = nil
		a.returnTo = ScreenMenu
		return a, a.showLogin(fmt.Sprintf(noticeSignedUp, msg.Username))

	case signup.CancelledMsg:
		a.signupScreen = nil
		return a, a.showMenu()

	case chatview.BackMsg:
		return a, a.showMenu()

	case sessionChangedMsg:
		return a.handleSessionChanged(msg.snap)

	case sessionExpiredMsg:
		return a.handleSessionExpired()

	case loggedOutMsg:
		a.loggingOut = false
		a.chatScreen = nil
		a.profileScreen = nil
		a.status = "Logged out"
		return a, a.showMenu()

	case tokenRefreshedMsg:
		if a.profileScreen != nil {
			a.profileScreen.SetStatus(refreshStatus(msg.err))
		}
		return a, nil
	}

	// Chat replies and spinner ticks belong to the chat even when it is not shown.
	if a.screen != ScreenChat && a.chatScreen != nil && chatview.Handles(msg) {
		_, cmd := a.chatScreen.Update(msg)
		return a, cmd
	}
	return a.forward(msg)
}

// forward passes msg to the active child model
func (a *App) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.screen {
	case ScreenMenu:
		_, cmd = a.menu.Update(msg)
	case ScreenLogin:
		if a.loginScreen != nil {
			_, cmd = a.loginScreen.Update(msg)
		}
	case ScreenSignup:
		if a.signupScreen != nil {
			_, cmd = a.signupScreen.Update(msg)
		}
	case ScreenChat:
		if a.chatScreen != nil {
			_, cmd = a.chatScreen.Update(msg)
		}
	}
	return a, cmd
}

func (a *App) updateProfile(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "b":
		return a, a.showMenu()
	case "r":
		a.profileScreen.SetStatus(styles.Subtitle.Render("Refreshing token..."))
		return a, a.refreshToken()
	case "l":
		return a, a.logout()
	case "q":
		return a, a.quit()
	}
	return a, nil
}

func (a *App) handleMenu(action menu.Action) (tea.Model, tea.Cmd) {
	a.status = ""
	switch action {
	case menu.ActionChat:
		if !a.snap.LoggedIn() {
			a.returnTo = ScreenChat
			return a, a.showLogin(NoticeChatLogin)
		}
		return a, a.showChat()
	case menu.ActionLogin:
		a.returnTo = ScreenMenu
		return a, a.showLogin("")
	case menu.ActionLogout:
		return a, a.logout()
	case menu.ActionSignup:
		return a, a.showSignup()
	case menu.ActionProfile:
		a.profileScreen = profile.New(a.snap, a.frameWidth(), a.contentHeight())
		a.screen = ScreenProfile
		return a, nil
	case menu.ActionQuit:
		return a, a.quit()
	}
	return a, nil
}

func (a *App) handleSocialStarted(msg socialStartedMsg) (tea.Model, tea.Cmd) {
	if a.screen != ScreenLogin || a.loginScreen == nil {
		if msg.server != nil {
			msg.server.Close()
		}
		return a, nil
	}
	if msg.err != nil {
		a.stopSocial()
		return a, a.loginScreen.SetError(msg.err)
	}
	a.callback = msg.server
	a.loginScreen.SetWaiting(msg.provider, msg.authURL)
	return a, a.waitCallback(msg.server)
}

func (a *App) handleLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	a.stopSocial()
	if a.screen != ScreenLogin || a.loginScreen == nil {
		return a, nil
	}
	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			return a, nil
		}
		a.logger.Info("login failed", "error", msg.err)
		return a, a.loginScreen.SetError(msg.err)
	}

	a.snap = a.deps.Session.Snapshot()
	a.loginScreen = nil
	a.status = fmt.Sprintf("Logged in as %s", msg.user.Username)
	if a.returnTo == ScreenChat {
		return a, a.showChat()
	}
	return a, a.showMenu()
}

func (a *App) handleSessionChanged(snap session.Snapshot) (tea.Model, tea.Cmd) {
	wasLoggedIn := a.snap.LoggedIn()
	a.snap = snap
	if a.profileScreen != nil {
		a.profileScreen.Update(snap)
	}
	// Another process may have logged in or out; keep the menu honest.
	if a.screen == ScreenMenu && wasLoggedIn != snap.LoggedIn() {
		return a, a.showMenu()
	}
	return a, nil
}

// handleSessionExpired routes the manager's redirect to the login screen.
// A user-initiated logout and the login or signup screens handle it themselves.
func (a *App) handleSessionExpired() (tea.Model, tea.Cmd) {
	a.snap = a.deps.Session.Snapshot()
	if a.loggingOut {
		return a, nil
	}
	switch a.screen {
	case ScreenLogin, ScreenSignup:
		return a, nil
	case ScreenChat:
		a.returnTo = ScreenChat
	default:
		a.returnTo = ScreenMenu
	}
	a.profileScreen = nil
	return a, a.showLogin(NoticeExpired)
}

func (a *App) showMenu() tea.Cmd {
	a.screen = ScreenMenu
	a.loginScreen = nil
	a.menu = menu.New(a.username())
	return a.menu.Init()
}

func (a *App) showLogin(notice string) tea.Cmd {
	a.stopSocial()
	a.loginScreen = login.New(notice)
	a.screen = ScreenLogin
	return a.loginScreen.Init()
}

func (a *App) showSignup() tea.Cmd {
	a.signupScreen = signup.New(a.ctx, a.deps.Auth)
	a.signupScreen.SetWidth(a.frameWidth() - 1)
	a.screen = ScreenSignup
	return a.signupScreen.Init()
}

func (a *App) showChat() tea.Cmd {
	if a.chatScreen == nil {
		a.chatScreen = chatview.New(a.ctx, a.deps.API, a.deps.History, a.deps.MarkdownStyle, a.deps.Logger)
	}
	a.chatScreen.SetSize(a.frameWidth(), a.contentHeight())
	a.screen = ScreenChat
	return a.chatScreen.Init()
}

// signIn runs the password login off the UI goroutine
func (a *App) signIn(username, password string) tea.Cmd {
	return func() tea.Msg {
		user, err := account.SignIn(a.ctx, a.deps.Auth, a.deps.Session, username, password)
		return loginResultMsg{user: user, err: err}
	}
}

// startSocial opens the redirect listener and asks for the provider URL
func (a *App) startSocial(provider account.Provider) tea.Cmd {
	a.stopSocial()
	ctx, cancel := context.WithCancel(a.ctx)
	a.socialCtx, a.cancelSocial = ctx, cancel
	addr := a.deps.CallbackAddr

	return func() tea.Msg {
		server, err := account.ListenCallback(addr)
		if err != nil {
			return socialStartedMsg{provider: provider, err: fmt.Errorf("cannot receive the login redirect: %w", err)}
		}
		authURL, err := account.SocialLoginURL(ctx, a.deps.Auth, provider)
		if err != nil {
			server.Close()
			return socialStartedMsg{provider: provider, err: err}
		}
		return socialStartedMsg{provider: provider, authURL: authURL, server: server}
	}
}

// waitCallback blocks until the browser lands on the listener
func (a *App) waitCallback(server *account.CallbackServer) tea.Cmd {
	ctx := a.socialCtx
	return func() tea.Msg {
		params, err := server.Wait(ctx)
		if err != nil {
			return loginResultMsg{err: err}
		}
		cb := &account.Callback{Manager: a.deps.Session, Profiles: a.deps.API, Logger: a.deps.Logger}
		user, err := cb.Complete(ctx, params)
		return loginResultMsg{user: user, err: err}
	}
}

func (a *App) stopSocial() {
	if a.cancelSocial != nil {
		a.cancelSocial()
		a.cancelSocial = nil
	}
	if a.callback != nil {
		if err := a.callback.Close(); err != nil {
			a.logger.Debug("closing callback listener", "error", err)
		}
		a.callback = nil
	}
}

func (a *App) logout() tea.Cmd {
	a.loggingOut = true
	return func() tea.Msg {
		a.deps.Session.Logout(a.ctx)
		return loggedOutMsg{}
	}
}

func (a *App) refreshToken() tea.Cmd {
	return func() tea.Msg {
		return tokenRefreshedMsg{err: a.deps.Session.RefreshToken(a.ctx)}
	}
}

func (a *App) quit() tea.Cmd {
	a.stopSocial()
	return tea.Quit
}

func refreshStatus(err error) string {
	switch {
	case err == nil:
		return styles.StatusOK.Render(icons.CheckOK.String() + " Token refreshed")
	case errors.Is(err, session.ErrRefreshInProgress):
		return styles.StatusWarning.Render(icons.Refresh.String() + " A refresh is already running")
	default:
		return styles.StatusCritical.Render(icons.Critical.String() + " Refresh failed: " + err.Error())
	}
}

func (a *App) username() string {
	if a.snap.User == nil {
		return ""
	}
	return a.snap.User.Username
}

// View implements tea.Model
func (a *App) View() string {
	var content string

	switch a.screen {
	case ScreenLogin:
		content = a.loginScreen.View()
	case ScreenSignup:
		content = a.signupScreen.View()
	case ScreenChat:
		content = a.chatScreen.View()
	case ScreenProfile:
		content = a.profileScreen.View()
	default:
		content = a.menu.View()
	}

	return a.wrapWithFrame(content)
}

// frameWidth is the drawable width. One column is left free so the frame
// never wraps on terminals that reserve the last column.
func (a *App) frameWidth() int {
	return max(a.width-1, minTerminalWidth)
}

// contentHeight is the height between header and footer
func (a *App) contentHeight() int {
	return max(a.height-frameOverhead, 10)
}

// renderHeader creates the header bar with app branding and the user
func (a *App) renderHeader() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	userStyle := lipgloss.NewStyle().Foreground(styles.Secondary)
	mutedStyle := lipgloss.NewStyle().Foreground(styles.Muted)

	leftText := fmt.Sprintf(" %s %s ", icons.App.String(), titleStyle.Render("Pet Travel"))

	var rightText string
	if name := a.username(); name != "" {
		rightText = " " + userStyle.Render(icons.User.String()+" "+name) + " "
	} else {
		rightText = " " + mutedStyle.Render("not logged in") + " "
	}

	fillWidth := max(width-4-lipgloss.Width(leftText)-lipgloss.Width(rightText), 0) // -4 for ╭─ and ─╮
	header := "╭─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╮"

	return borderStyle.Render(header)
}

// renderFooter creates the footer with keyboard shortcuts and status
func (a *App) renderFooter() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	statusStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	var shortcuts []string
	switch a.screen {
	case ScreenMenu:
		shortcuts = []string{"↑↓ Navigate", "Enter Select", "q Quit"}
	case ScreenLogin:
		shortcuts = []string{"Tab Next", "Enter Confirm", "Esc Back"}
	case ScreenSignup:
		shortcuts = []string{"Enter Confirm", "Esc Cancel"}
	case ScreenChat:
		shortcuts = []string{"Enter Send", "^N New chat", "Esc Back"}
	case ScreenProfile:
		shortcuts = []string{"r Refresh", "l Log out", "b Back", "q Quit"}
	}

	var styled []string
	for _, s := range shortcuts {
		parts := strings.SplitN(s, " ", 2)
		styled = append(styled, keyStyle.Render(parts[0])+" "+labelStyle.Render(parts[1]))
	}

	leftText := " " + strings.Join(styled, "  ") + " "
	rightText := ""
	if a.status != "" {
		rightText = " " + statusStyle.Render(a.status) + " "
	}

	fillWidth := max(width-4-lipgloss.Width(leftText)-lipgloss.Width(rightText), 0) // -4 for ╰─ and ─╯
	footer := "╰─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╯"

	return borderStyle.Render(footer)
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

// Run starts the TUI and blocks until it exits. The session manager's
// changes and redirects are delivered to the program as messages.
func Run(ctx context.Context, deps Deps) error {
	app := New(ctx, deps)

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	unsubscribe := deps.Session.Subscribe(func(snap session.Snapshot) {
		p.Send(sessionChangedMsg{snap: snap})
	})
	defer unsubscribe()

	deps.Session.SetRedirect(func() {
		p.Send(sessionExpiredMsg{})
	})
	defer deps.Session.SetRedirect(nil)

	_, err := p.Run()
	app.stopSocial()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
