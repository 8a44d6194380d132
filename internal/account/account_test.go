// ABOUTME: Tests for sign-in, registration checks, and provider callbacks
// ABOUTME: Uses fake APIs and a real loopback listener

package account

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/client"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/session"
)

type nopBackend struct{}

func (nopBackend) RefreshToken(ctx context.Context, token string) (*session.Grant, error) {
	return nil, errors.New("not used")
}
func (nopBackend) Logout(ctx context.Context, token string) error { return nil }

func newManager() (*session.Manager, *session.MemoryStore) {
	store := session.NewMemoryStore()
	return session.New(store, nopBackend{}, session.Options{}), store
}

type fakeAuth struct {
	grant *session.Grant
	err   error
}

func (f fakeAuth) Login(ctx context.Context, username, password string) (*session.Grant, error) {
	return f.grant, f.err
}

func TestSignIn_StoresToken(t *testing.T) {
	mgr, store := newManager()
	api := fakeAuth{grant: &session.Grant{AccessToken: "aaa.bbb.ccc", User: &session.UserProfile{Username: "alice"}}}

	user, err := SignIn(context.Background(), api, mgr, "alice", "x")
	if err != nil {
		t.Fatalf("SignIn() error: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("expected alice, got %s", user.Username)
	}
	rec, _ := store.Load()
	if rec.Token != "aaa.bbb.ccc" {
		t.Errorf("expected stored token aaa.bbb.ccc, got %q", rec.Token)
	}
}

func TestSignIn_Errors(t *testing.T) {
	tests := []struct {
		name    string
		api     fakeAuth
		user    string
		pass    string
		wantErr error
	}{
		{"rejected", fakeAuth{err: &client.APIError{StatusCode: http.StatusUnauthorized}}, "alice", "bad", ErrLoginFailed},
		{"malformed token", fakeAuth{grant: &session.Grant{AccessToken: "nodots", User: &session.UserProfile{Username: "alice"}}}, "alice", "x", session.ErrInvalidCredentialsFormat},
		{"missing user", fakeAuth{grant: &session.Grant{AccessToken: "aaa.bbb.ccc"}}, "alice", "x", session.ErrInvalidCredentialsFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr, store := newManager()
			_, err := SignIn(context.Background(), tt.api, mgr, tt.user, tt.pass)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			rec, _ := store.Load()
			if !rec.Empty() {
				t.Errorf("expected no stored session, got %+v", rec)
			}
		})
	}

	mgr, _ := newManager()
	if _, err := SignIn(context.Background(), fakeAuth{}, mgr, "  ", ""); err == nil {
		t.Error("expected error for blank credentials")
	}
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider(" Google ")
	if err != nil || p != ProviderGoogle {
		t.Errorf("expected google, got %q %v", p, err)
	}
	if p.DisplayName() != "Google" {
		t.Errorf("expected display name Google, got %s", p.DisplayName())
	}
	if _, err := ParseProvider("kakao"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

type fakeSignupAPI struct {
	takenUsers  map[string]bool
	takenNicks  map[string]bool
	checkErr    error
	signupCalls atomic.Int32
	last        client.SignupRequest
}

func (f *fakeSignupAPI) CheckUsername(ctx context.Context, username string) (bool, error) {
	if f.checkErr != nil {
		return false, f.checkErr
	}
	return !f.takenUsers[username], nil
}

func (f *fakeSignupAPI) CheckNickname(ctx context.Context, nickname string) (bool, error) {
	if f.checkErr != nil {
		return false, f.checkErr
	}
	return !f.takenNicks[nickname], nil
}

func (f *fakeSignupAPI) Signup(ctx context.Context, input client.SignupRequest) error {
	f.signupCalls.Add(1)
	f.last = input
	return nil
}

func TestValidateUsername(t *testing.T) {
	tests := map[string]bool{
		"abc1":    true,
		"alice42": true,
		"1a2b":    true,
		"abc":     false,
		"abcd":    false,
		"1234":    false,
		"ab_12":   false,
		"한글abc1": false,
	}
	for in, ok := range tests {
		err := ValidateUsername(in)
		if (err == nil) != ok {
			t.Errorf("ValidateUsername(%q) error = %v, want ok=%v", in, err, ok)
		}
	}
}

func TestValidateNickname(t *testing.T) {
	if err := ValidateNickname("Al"); err != nil {
		t.Errorf("expected Al valid, got %v", err)
	}
	if err := ValidateNickname("멍멍"); err != nil {
		t.Errorf("expected two-rune nickname valid, got %v", err)
	}
	if err := ValidateNickname("A"); err == nil {
		t.Error("expected single-character nickname invalid")
	}
}

func TestRegistration_SubmitWithoutUsernameCheck(t *testing.T) {
	api := &fakeSignupAPI{}
	r := NewRegistration(api)
	r.SetUsername("alice1")
	r.SetNickname("Al")
	r.CheckNickname(context.Background())

	err := r.Submit(context.Background(), "a@example.com", "pw", "pw")
	if !errors.Is(err, ErrUsernameNotVerified) {
		t.Fatalf("expected ErrUsernameNotVerified, got %v", err)
	}
	if api.signupCalls.Load() != 0 {
		t.Errorf("expected no signup call, got %d", api.signupCalls.Load())
	}
}

func TestRegistration_EditResetsCheck(t *testing.T) {
	api := &fakeSignupAPI{}
	r := NewRegistration(api)
	ctx := context.Background()

	r.SetUsername("alice1")
	if ok, err := r.CheckUsername(ctx); !ok || err != nil {
		t.Fatalf("expected available, got %v %v", ok, err)
	}
	if !r.UsernameVerified() {
		t.Fatal("expected verified username")
	}

	r.SetUsername("alice2")
	if r.UsernameVerified() {
		t.Error("expected edit to reset username check")
	}

	r.SetNickname("Al")
	r.CheckNickname(ctx)
	r.SetNickname("Ally")
	if r.NicknameVerified() {
		t.Error("expected edit to reset nickname check")
	}
}

func TestRegistration_Submit(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		nickname string
		email    string
		pass     string
		confirm  string
		wantErr  error
	}{
		{"success", "alice1", "Al", "a@example.com", "pw", "pw", nil},
		{"username taken", "taken1", "Al", "a@example.com", "pw", "pw", ErrUsernameTaken},
		{"nickname taken", "alice1", "Taken", "a@example.com", "pw", "pw", ErrNicknameTaken},
		{"bad email", "alice1", "Al", "not-an-email", "pw", "pw", ErrInvalidEmail},
		{"mismatch", "alice1", "Al", "a@example.com", "pw", "other", ErrPasswordMismatch},
		{"empty password", "alice1", "Al", "a@example.com", "", "", ErrPasswordRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeSignupAPI{
				takenUsers: map[string]bool{"taken1": true},
				takenNicks: map[string]bool{"Taken": true},
			}
			r := NewRegistration(api)
			r.SetUsername(tt.username)
			r.SetNickname(tt.nickname)
			r.CheckUsername(ctx)
			r.CheckNickname(ctx)

			err := r.Submit(ctx, tt.email, tt.pass, tt.confirm)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			wantCalls := int32(0)
			if tt.wantErr == nil {
				wantCalls = 1
			}
			if api.signupCalls.Load() != wantCalls {
				t.Errorf("expected %d signup calls, got %d", wantCalls, api.signupCalls.Load())
			}
			if tt.wantErr == nil && api.last.Nickname != "Al" {
				t.Errorf("unexpected signup body %+v", api.last)
			}
		})
	}
}

func TestRegistration_CheckFailure(t *testing.T) {
	api := &fakeSignupAPI{checkErr: errors.New("boom")}
	r := NewRegistration(api)
	r.SetUsername("alice1")

	_, err := r.CheckUsername(context.Background())
	if !errors.Is(err, ErrAvailabilityCheck) {
		t.Fatalf("expected ErrAvailabilityCheck, got %v", err)
	}
	if r.UsernameVerified() {
		t.Error("expected username unverified after failed check")
	}
}

func TestRegistration_InvalidUsernameSkipsNetwork(t *testing.T) {
	api := &fakeSignupAPI{checkErr: errors.New("should not be called")}
	r := NewRegistration(api)
	r.SetUsername("abc")

	if _, err := r.CheckUsername(context.Background()); !errors.Is(err, ErrInvalidUsername) {
		t.Errorf("expected ErrInvalidUsername, got %v", err)
	}
}

type fakeProfiles struct {
	user *session.UserProfile
	err  error
}

func (f fakeProfiles) Me(ctx context.Context) (*session.UserProfile, error) {
	return f.user, f.err
}

// rotatingProfiles stands in for a Me call whose 401 was answered by a
// token refresh before the profile came back.
type rotatingProfiles struct {
	store session.Store
	fresh string
}

func (r rotatingProfiles) Me(ctx context.Context) (*session.UserProfile, error) {
	if err := r.store.Save(session.Record{User: `{"username":"user"}`, Token: r.fresh}); err != nil {
		return nil, err
	}
	return &session.UserProfile{Username: "carol"}, nil
}

func TestCallback_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("token and user", func(t *testing.T) {
		mgr, store := newManager()
		cb := &Callback{Manager: mgr}
		params := url.Values{"token": {"aaa.bbb.ccc"}, "user": {`{"username":"bob","email":"b@example.com"}`}}

		user, err := cb.Complete(ctx, params)
		if err != nil {
			t.Fatalf("Complete() error: %v", err)
		}
		if user.Email != "b@example.com" {
			t.Errorf("unexpected user %+v", user)
		}
		if rec, _ := store.Load(); rec.Token != "aaa.bbb.ccc" {
			t.Errorf("expected token stored, got %q", rec.Token)
		}
	})

	t.Run("provider errors", func(t *testing.T) {
		for _, code := range []string{"token_error", "api_error", "no_email", "server_error", "weird"} {
			mgr, _ := newManager()
			_, err := (&Callback{Manager: mgr}).Complete(ctx, url.Values{"error": {code}})
			var pe *ProviderError
			if !errors.As(err, &pe) || pe.Code != code {
				t.Errorf("%s: expected ProviderError, got %v", code, err)
			}
		}
	})

	t.Run("malformed user", func(t *testing.T) {
		mgr, store := newManager()
		_, err := (&Callback{Manager: mgr}).Complete(ctx, url.Values{"token": {"aaa.bbb.ccc"}, "user": {"{nope"}})
		if !errors.Is(err, session.ErrInvalidCredentialsFormat) {
			t.Errorf("expected ErrInvalidCredentialsFormat, got %v", err)
		}
		if rec, _ := store.Load(); !rec.Empty() {
			t.Errorf("expected nothing stored, got %+v", rec)
		}
	})

	t.Run("token only uses placeholder", func(t *testing.T) {
		mgr, _ := newManager()
		user, err := (&Callback{Manager: mgr}).Complete(ctx, url.Values{"token": {"aaa.bbb.ccc"}})
		if err != nil {
			t.Fatalf("Complete() error: %v", err)
		}
		if user.Username != "user" {
			t.Errorf("expected placeholder profile, got %+v", user)
		}
	})

	t.Run("token only fetches profile", func(t *testing.T) {
		mgr, _ := newManager()
		cb := &Callback{Manager: mgr, Profiles: fakeProfiles{user: &session.UserProfile{Username: "carol"}}}
		user, err := cb.Complete(ctx, url.Values{"token": {"aaa.bbb.ccc"}})
		if err != nil {
			t.Fatalf("Complete() error: %v", err)
		}
		if user.Username != "carol" || mgr.Snapshot().User.Username != "carol" {
			t.Errorf("expected fetched profile, got %+v", user)
		}
	})

	t.Run("profile fetch keeps refreshed token", func(t *testing.T) {
		mgr, store := newManager()
		cb := &Callback{Manager: mgr, Profiles: rotatingProfiles{store: store, fresh: "new.new.new"}}
		if _, err := cb.Complete(ctx, url.Values{"token": {"old.old.old"}}); err != nil {
			t.Fatalf("Complete() error: %v", err)
		}
		if rec, _ := store.Load(); rec.Token != "new.new.new" {
			t.Errorf("expected refreshed token kept, got %q", rec.Token)
		}
		if snap := mgr.Snapshot(); snap.Token != "new.new.new" || snap.User.Username != "carol" {
			t.Errorf("unexpected session %+v", snap)
		}
	})

	t.Run("no params", func(t *testing.T) {
		mgr, _ := newManager()
		if _, err := (&Callback{Manager: mgr}).Complete(ctx, url.Values{}); !errors.Is(err, ErrNoCallbackParams) {
			t.Errorf("expected ErrNoCallbackParams, got %v", err)
		}
	})
}

func TestCallbackServer_ReceivesRedirectAndStripsQuery(t *testing.T) {
	cs, err := ListenCallback("127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenCallback() error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type result struct {
		params url.Values
		err    error
	}
	done := make(chan result, 1)
	go func() {
		q, err := cs.Wait(ctx)
		done <- result{q, err}
	}()

	resp, err := http.Get(cs.URL() + "?token=aaa.bbb.ccc&user=%7B%22username%22%3A%22bob%22%7D")
	if err != nil {
		t.Fatalf("callback request error: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected landing page, got %d", resp.StatusCode)
	}
	if resp.Request.URL.RawQuery != "" {
		t.Errorf("expected query stripped after redirect, got %q", resp.Request.URL.RawQuery)
	}

	r := <-done
	if r.err != nil {
		t.Fatalf("Wait() error: %v", r.err)
	}
	if r.params.Get("token") != "aaa.bbb.ccc" || r.params.Get("user") != `{"username":"bob"}` {
		t.Errorf("unexpected params %v", r.params)
	}
}

func TestCallbackServer_WaitCanceled(t *testing.T) {
	cs, err := ListenCallback("127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenCallback() error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := cs.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
