// ABOUTME: HTTP client for the Pet Travel backend API
// ABOUTME: Wraps auth, signup, and chat calls with proper error handling for CLI usage

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/session"
)

var (
	// ErrUnauthorized means the backend rejected the credentials (HTTP 401).
	ErrUnauthorized = errors.New("authorization rejected")

	// ErrNetwork means the backend could not be reached or did not answer in time.
	ErrNetwork = errors.New("connection problem")
)

// Client is the API client for the Pet Travel backend
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client with the given base URL and a plain
// http.Client. Use it for the auth endpoints the session manager calls.
func New(baseURL string) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{
		Timeout: 30 * time.Second,
	})
}

// NewWithHTTPClient creates an API client that sends through hc, normally
// the session manager's intercepting client.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
	}
}

// BaseURL returns the backend URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIError is a non-success response from the backend.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend error: %s", e.Detail)
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// errorResponse is the FastAPI error body. Detail is a string for
// HTTPException and a list for validation errors.
type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

// HealthResponse represents the backend root endpoint response
type HealthResponse struct {
	Message string `json:"message"`
}

// SignupRequest is the body of POST /api/signup
type SignupRequest struct {
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	Query     string `json:"query"`
	SessionID *int   `json:"session_id,omitempty"`
}

// ChatResponse is the answer to a chat query
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID *int   `json:"session_id,omitempty"`
}

// ChatSession is one stored conversation from GET /api/sessions
type ChatSession struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
}

type availabilityResponse struct {
	Available bool `json:"available"`
}

// Health calls the backend root endpoint
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	if err := c.do(ctx, http.MethodGet, "/", nil, "", &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Login calls POST /api/login with form-encoded credentials
func (c *Client) Login(ctx context.Context, username, password string) (*session.Grant, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var grant session.Grant
	err := c.do(ctx, http.MethodPost, "/api/login", strings.NewReader(form.Encode()),
		"application/x-www-form-urlencoded", &grant)
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

// RefreshToken calls POST /api/refresh-token with the current token as bearer
func (c *Client) RefreshToken(ctx context.Context, token string) (*session.Grant, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/refresh-token", strings.NewReader("{}"), "application/json")
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var grant session.Grant
	if err := c.send(ctx, req, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

// Logout calls POST /api/logout with the current token as bearer
func (c *Client) Logout(ctx context.Context, token string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/logout", nil, "")
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return c.send(ctx, req, nil)
}

// Signup calls POST /api/signup
func (c *Client) Signup(ctx context.Context, input SignupRequest) error {
	body, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}
	return c.do(ctx, http.MethodPost, "/api/signup", bytes.NewReader(body), "application/json", nil)
}

// CheckUsername calls GET /api/check-username and reports availability
func (c *Client) CheckUsername(ctx context.Context, username string) (bool, error) {
	return c.checkAvailability(ctx, "/api/check-username", "username", username)
}

// CheckNickname calls GET /api/check-nickname and reports availability
func (c *Client) CheckNickname(ctx context.Context, nickname string) (bool, error) {
	return c.checkAvailability(ctx, "/api/check-nickname", "nickname", nickname)
}

func (c *Client) checkAvailability(ctx context.Context, path, param, value string) (bool, error) {
	q := url.Values{}
	q.Set(param, value)

	var resp availabilityResponse
	if err := c.do(ctx, http.MethodGet, path+"?"+q.Encode(), nil, "", &resp); err != nil {
		return false, err
	}
	return resp.Available, nil
}

// SocialAuthURL calls GET /api/v1/login/{provider} and returns the
// provider's authorization URL
func (c *Client) SocialAuthURL(ctx context.Context, provider string) (string, error) {
	var resp map[string]string
	if err := c.do(ctx, http.MethodGet, "/api/v1/login/"+url.PathEscape(provider), nil, "", &resp); err != nil {
		return "", err
	}

	authURL := resp[provider+"_auth_url"]
	if authURL == "" {
		return "", fmt.Errorf("invalid response from backend: missing %s_auth_url", provider)
	}
	return authURL, nil
}

// Chat calls POST /api/chat
func (c *Client) Chat(ctx context.Context, input ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input: %w", err)
	}

	var resp ChatResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat", bytes.NewReader(body), "application/json", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me calls GET /api/me
func (c *Client) Me(ctx context.Context) (*session.UserProfile, error) {
	var user session.UserProfile
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, "", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Sessions calls GET /api/sessions
func (c *Client) Sessions(ctx context.Context) ([]ChatSession, error) {
	var sessions []ChatSession
	if err := c.do(ctx, http.MethodGet, "/api/sessions", nil, "", &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := c.newRequest(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	return c.send(ctx, req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) send(ctx context.Context, req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleErrorResponse(resp)
	}
	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response from backend: %w", err)
	}
	return nil
}

// handleRequestError converts context errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	if ctx.Err() == context.Canceled {
		return fmt.Errorf("%w: request canceled", ErrNetwork)
	}
	if ctx.Err() == context.DeadlineExceeded || isTimeout(err) {
		return fmt.Errorf("%w: request timed out", ErrNetwork)
	}
	return fmt.Errorf("%w: cannot connect to backend at %s: %w", ErrNetwork, c.baseURL, err)
}

// handleErrorResponse parses API error responses
func (c *Client) handleErrorResponse(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var errResp errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || len(errResp.Detail) == 0 {
		return apiErr
	}

	var detail string
	if err := json.Unmarshal(errResp.Detail, &detail); err == nil {
		apiErr.Detail = detail
		return apiErr
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(errResp.Detail, &items); err == nil && len(items) > 0 {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			msgs = append(msgs, it.Msg)
		}
		apiErr.Detail = strings.Join(msgs, "; ")
	}
	return apiErr
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
