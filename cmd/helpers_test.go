// ABOUTME: Shared fake backend and session helpers for command tests
// ABOUTME: Serves the Pet Travel endpoints from httptest with minted JWTs

package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/session"
)

func mintToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice1",
		"iat": time.Now().Add(-time.Minute).Unix(),
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// fakeBackend records what the commands sent
type fakeBackend struct {
	t *testing.T

	// validToken is the bearer the protected endpoints accept.
	validToken string
	takenNames map[string]bool

	mu          sync.Mutex
	logoutAuth  []string
	refreshes   int
	signups     []map[string]string
	chatBodies  []map[string]any
	profileHits int
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{
		t:          t,
		validToken: mintToken(t, time.Now().Add(time.Hour)),
		takenNames: map[string]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", fb.login)
	mux.HandleFunc("POST /api/logout", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		fb.logoutAuth = append(fb.logoutAuth, r.Header.Get("Authorization"))
		fb.mu.Unlock()
		writeJSON(w, map[string]string{"message": "logged out"})
	})
	mux.HandleFunc("POST /api/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		fb.refreshes++
		fb.mu.Unlock()
		writeJSON(w, map[string]string{"access_token": fb.validToken, "token_type": "bearer"})
	})
	mux.HandleFunc("GET /api/me", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		fb.profileHits++
		fb.mu.Unlock()
		if !fb.authorized(w, r) {
			return
		}
		writeJSON(w, session.UserProfile{Username: "alice1", Nickname: "Ali", Email: "ali@example.com"})
	})
	mux.HandleFunc("POST /api/chat", func(w http.ResponseWriter, r *http.Request) {
		if !fb.authorized(w, r) {
			return
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		fb.mu.Lock()
		fb.chatBodies = append(fb.chatBodies, body)
		fb.mu.Unlock()
		writeJSON(w, map[string]any{"response": "**Gwangalli** welcomes leashed dogs.", "session_id": 7})
	})
	mux.HandleFunc("GET /api/sessions", func(w http.ResponseWriter, r *http.Request) {
		if !fb.authorized(w, r) {
			return
		}
		writeJSON(w, []map[string]any{
			{"id": 7, "title": "Busan beaches", "created_at": "2026-10-01T10:00:00"},
			{"id": 9, "title": "", "created_at": "2026-10-02T11:30:00"},
		})
	})
	mux.HandleFunc("GET /api/check-username", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]bool{"available": !fb.takenNames[r.URL.Query().Get("username")]})
	})
	mux.HandleFunc("GET /api/check-nickname", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]bool{"available": !fb.takenNames[r.URL.Query().Get("nickname")]})
	})
	mux.HandleFunc("POST /api/signup", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		fb.mu.Lock()
		fb.signups = append(fb.signups, body)
		fb.mu.Unlock()
		writeJSON(w, map[string]string{"message": "created"})
	})
	mux.HandleFunc("GET /api/v1/login/{provider}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(w, map[string]string{"detail": "provider not configured"})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return fb, server
}

func (fb *fakeBackend) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("username") != "alice1" || r.PostForm.Get("password") != "secret1" {
		w.WriteHeader(http.StatusUnauthorized)
		writeJSON(w, map[string]string{"detail": "Incorrect username or password"})
		return
	}
	writeJSON(w, session.Grant{
		AccessToken: fb.validToken,
		TokenType:   "bearer",
		User:        &session.UserProfile{Username: "alice1", Nickname: "Ali", Email: "ali@example.com"},
	})
}

func (fb *fakeBackend) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Authorization") != "Bearer "+fb.validToken {
		w.WriteHeader(http.StatusUnauthorized)
		writeJSON(w, map[string]string{"detail": "Could not validate credentials"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// useBackend points the global flags at server and a fresh config dir
func useBackend(t *testing.T, server *httptest.Server) string {
	t.Helper()
	dir := t.TempDir()
	apiURL = server.URL
	configDir = dir
	t.Cleanup(func() {
		apiURL = ""
		configDir = ""
		jsonOutput = false
	})
	return dir
}

// seedSession writes a stored session as a previous login would have
func seedSession(t *testing.T, dir, token string) {
	t.Helper()
	rec := session.Record{User: `{"username":"alice1","nickname":"Ali"}`, Token: token}
	if err := session.NewFileStore(dir).Save(rec); err != nil {
		t.Fatalf("seed session: %v", err)
	}
}

func storedToken(t *testing.T, dir string) string {
	t.Helper()
	rec, err := session.NewFileStore(dir).Load()
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	return rec.Token
}
