// ABOUTME: Tests for the root TUI model
// ABOUTME: Drives screen routing against an httptest backend and a memory session store

package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/account"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/client"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/session"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui/login"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui/menu"
)

type fakeBackend struct {
	server  *httptest.Server
	logouts atomic.Int32
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.Form.Get("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"Incorrect username or password"}`))
			return
		}
		w.Write([]byte(`{"access_token":"aaa.bbb.ccc","token_type":"bearer","user":{"username":"` + r.Form.Get("username") + `"}}`))
	})
	mux.HandleFunc("POST /api/logout", func(w http.ResponseWriter, r *http.Request) {
		fb.logouts.Add(1)
		w.Write([]byte(`{"message":"ok"}`))
	})
	mux.HandleFunc("GET /api/v1/login/{provider}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	fb.server = httptest.NewServer(mux)
	t.Cleanup(fb.server.Close)
	return fb
}

func newTestApp(t *testing.T) (*App, *fakeBackend) {
	t.Helper()
	fb := newFakeBackend(t)
	auth := client.New(fb.server.URL)
	mgr := session.New(session.NewMemoryStore(), auth, session.Options{RefreshGuardDelay: -1})
	deps := Deps{
		Session:       mgr,
		Auth:          auth,
		API:           client.NewWithHTTPClient(fb.server.URL, mgr.HTTPClient(nil)),
		CallbackAddr:  "127.0.0.1:0",
		MarkdownStyle: "notty",
	}
	return New(context.Background(), deps), fb
}

// run executes cmd and feeds its message back, returning the message.
func run(t *testing.T, a *App, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	a.Update(msg)
	return msg
}

func TestAppInitialState(t *testing.T) {
	app, _ := newTestApp(t)

	if app.screen != ScreenMenu {
		t.Errorf("expected initial screen to be ScreenMenu, got %d", app.screen)
	}
	if !strings.Contains(app.View(), "not logged in") {
		t.Error("expected header to show logged-out state")
	}
}

func TestScreenConstants(t *testing.T) {
	screens := []Screen{ScreenMenu, ScreenLogin, ScreenSignup, ScreenChat, ScreenProfile}
	seen := make(map[Screen]bool)
	for _, s := range screens {
		if seen[s] {
			t.Errorf("duplicate screen value %d", s)
		}
		seen[s] = true
	}
}

func TestApp_ChatRequiresLogin(t *testing.T) {
	app, _ := newTestApp(t)

	app.Update(menu.SelectedMsg{Action: menu.ActionChat})

	if app.screen != ScreenLogin {
		t.Fatalf("expected login screen, got %d", app.screen)
	}
	if app.returnTo != ScreenChat {
		t.Errorf("expected to return to chat after login, got %d", app.returnTo)
	}
	if !strings.Contains(app.View(), NoticeChatLogin) {
		t.Error("expected chat login notice")
	}
}

func TestApp_PasswordLoginReturnsToChat(t *testing.T) {
	app, _ := newTestApp(t)
	app.Update(menu.SelectedMsg{Action: menu.ActionChat})

	_, cmd := app.Update(login.SubmitMsg{Username: "alice1", Password: "secret"})
	msg := run(t, app, cmd)

	if res, ok := msg.(loginResultMsg); !ok || res.err != nil {
		t.Fatalf("expected successful login result, got %#v", msg)
	}
	if app.screen != ScreenChat {
		t.Errorf("expected chat screen after login, got %d", app.screen)
	}
	if got := app.deps.Session.StoredToken(); got != "aaa.bbb.ccc" {
		t.Errorf("expected stored token aaa.bbb.ccc, got %q", got)
	}
	if !strings.Contains(app.View(), "alice1") {
		t.Error("expected username in header")
	}
}

func TestApp_LoginFailureStaysOnLogin(t *testing.T) {
	app, _ := newTestApp(t)
	app.Update(menu.SelectedMsg{Action: menu.ActionLogin})

	_, cmd := app.Update(login.SubmitMsg{Username: "alice1", Password: "wrong"})
	run(t, app, cmd)

	if app.screen != ScreenLogin {
		t.Fatalf("expected to stay on login, got %d", app.screen)
	}
	if !strings.Contains(app.View(), account.ErrLoginFailed.Error()) {
		t.Error("expected login failure message")
	}
	if app.deps.Session.Snapshot().LoggedIn() {
		t.Error("expected no session")
	}
}

func TestApp_SocialLoginUnavailable(t *testing.T) {
	app, _ := newTestApp(t)
	app.Update(menu.SelectedMsg{Action: menu.ActionLogin})

	_, cmd := app.Update(login.SocialMsg{Provider: account.ProviderGoogle})
	run(t, app, cmd)

	if app.screen != ScreenLogin {
		t.Fatalf("expected to stay on login, got %d", app.screen)
	}
	if app.callback != nil {
		t.Error("expected callback listener closed")
	}
	if !strings.Contains(app.View(), "Google login is unavailable") {
		t.Error("expected provider error in view")
	}
}

func TestApp_SessionExpiredRedirectsToLogin(t *testing.T) {
	app, _ := newTestApp(t)
	app.deps.Session.Login(context.Background(), &session.UserProfile{Username: "alice1"}, "aaa.bbb.ccc")
	app.Update(sessionChangedMsg{snap: app.deps.Session.Snapshot()})
	app.Update(menu.SelectedMsg{Action: menu.ActionChat})
	if app.screen != ScreenChat {
		t.Fatalf("expected chat screen, got %d", app.screen)
	}

	app.Update(sessionExpiredMsg{})

	if app.screen != ScreenLogin {
		t.Fatalf("expected login screen, got %d", app.screen)
	}
	if app.returnTo != ScreenChat {
		t.Errorf("expected return to chat, got %d", app.returnTo)
	}
	if !strings.Contains(app.View(), NoticeExpired) {
		t.Error("expected expiry notice")
	}
}

func TestApp_ExpiredIgnoredOnSignup(t *testing.T) {
	app, _ := newTestApp(t)
	app.Update(menu.SelectedMsg{Action: menu.ActionSignup})

	app.Update(sessionExpiredMsg{})

	if app.screen != ScreenSignup {
		t.Errorf("expected to stay on signup, got %d", app.screen)
	}
}

func TestApp_LogoutFromMenu(t *testing.T) {
	app, fb := newTestApp(t)
	app.deps.Session.Login(context.Background(), &session.UserProfile{Username: "alice1"}, "aaa.bbb.ccc")
	app.Update(sessionChangedMsg{snap: app.deps.Session.Snapshot()})

	_, cmd := app.Update(menu.SelectedMsg{Action: menu.ActionLogout})
	if !app.loggingOut {
		t.Error("expected logout in progress")
	}

	// The manager's redirect arrives before the logout command finishes.
	app.Update(sessionExpiredMsg{})
	if app.screen == ScreenLogin {
		t.Error("expected no login redirect for a user logout")
	}

	run(t, app, cmd)

	if app.screen != ScreenMenu {
		t.Errorf("expected menu after logout, got %d", app.screen)
	}
	if app.deps.Session.StoredToken() != "" {
		t.Error("expected session cleared")
	}
	if fb.logouts.Load() != 1 {
		t.Errorf("expected backend logout call, got %d", fb.logouts.Load())
	}
	if !strings.Contains(app.View(), "Logged out") {
		t.Error("expected logout status in footer")
	}
}

func TestApp_SessionChangedRebuildsMenu(t *testing.T) {
	app, _ := newTestApp(t)

	snap := session.Snapshot{User: &session.UserProfile{Username: "dave"}, Token: "aaa.bbb.ccc"}
	app.Update(sessionChangedMsg{snap: snap})

	if !strings.Contains(app.View(), "Welcome back, dave") {
		t.Error("expected menu rebuilt for the new user")
	}
}

func TestApp_ProfileNavigation(t *testing.T) {
	app, _ := newTestApp(t)
	app.deps.Session.Login(context.Background(), &session.UserProfile{Username: "alice1"}, "aaa.bbb.ccc")
	app.Update(sessionChangedMsg{snap: app.deps.Session.Snapshot()})

	app.Update(menu.SelectedMsg{Action: menu.ActionProfile})
	if app.screen != ScreenProfile {
		t.Fatalf("expected profile screen, got %d", app.screen)
	}
	if !strings.Contains(app.View(), "alice1") {
		t.Error("expected username on profile")
	}

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b")})
	if app.screen != ScreenMenu {
		t.Errorf("expected menu after back, got %d", app.screen)
	}
}

func TestApp_LoginCancelReturnsToMenu(t *testing.T) {
	app, _ := newTestApp(t)
	app.Update(menu.SelectedMsg{Action: menu.ActionLogin})

	app.Update(login.CancelledMsg{})

	if app.screen != ScreenMenu {
		t.Errorf("expected menu, got %d", app.screen)
	}
}

func TestApp_CtrlCQuits(t *testing.T) {
	app, _ := newTestApp(t)
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestApp_StartInChatWithoutSession(t *testing.T) {
	app, _ := newTestApp(t)
	app.deps.StartInChat = true

	app.Init()

	if app.screen != ScreenLogin || app.returnTo != ScreenChat {
		t.Errorf("expected login first, then chat; got screen %d returnTo %d", app.screen, app.returnTo)
	}
}
