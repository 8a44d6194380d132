// ABOUTME: Signup form state with username and nickname availability checks
// ABOUTME: Rejects submission client-side until both checks pass

package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/client"
)

var (
	ErrInvalidUsername     = errors.New("username must be at least 4 characters of letters and digits, with at least one of each")
	ErrInvalidNickname     = errors.New("nickname must be at least 2 characters")
	ErrUsernameNotVerified = errors.New("check that the username is available first")
	ErrNicknameNotVerified = errors.New("check that the nickname is available first")
	ErrUsernameTaken       = errors.New("username is already taken")
	ErrNicknameTaken       = errors.New("nickname is already taken")
	ErrInvalidEmail        = errors.New("enter a valid email address")
	ErrPasswordRequired    = errors.New("password is required")
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrAvailabilityCheck   = errors.New("could not check availability, try again")
)

var (
	usernameChars  = regexp.MustCompile(`^[a-zA-Z0-9]{4,}$`)
	usernameLetter = regexp.MustCompile(`[a-zA-Z]`)
	usernameDigit  = regexp.MustCompile(`[0-9]`)
)

// ValidateUsername applies the signup username rule.
func ValidateUsername(username string) error {
	if !usernameChars.MatchString(username) || !usernameLetter.MatchString(username) || !usernameDigit.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// ValidateNickname applies the signup nickname rule.
func ValidateNickname(nickname string) error {
	if utf8.RuneCountInString(strings.TrimSpace(nickname)) < 2 {
		return ErrInvalidNickname
	}
	return nil
}

// SignupAPI is the slice of the backend used during registration.
type SignupAPI interface {
	CheckUsername(ctx context.Context, username string) (bool, error)
	CheckNickname(ctx context.Context, nickname string) (bool, error)
	Signup(ctx context.Context, input client.SignupRequest) error
}

type check struct {
	done      bool
	available bool
}

// Registration holds in-progress signup input. Editing a field resets its
// availability check.
type Registration struct {
	api SignupAPI

	mu       sync.Mutex
	username string
	nickname string
	userChk  check
	nickChk  check
}

// NewRegistration starts an empty registration.
func NewRegistration(api SignupAPI) *Registration {
	return &Registration{api: api}
}

// SetUsername records the username. A changed value needs a new check.
func (r *Registration) SetUsername(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if username != r.username {
		r.username = username
		r.userChk = check{}
	}
}

// SetNickname records the nickname. A changed value needs a new check.
func (r *Registration) SetNickname(nickname string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if nickname != r.nickname {
		r.nickname = nickname
		r.nickChk = check{}
	}
}

// Username returns the current username.
func (r *Registration) Username() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.username
}

// Nickname returns the current nickname.
func (r *Registration) Nickname() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nickname
}

// UsernameVerified reports whether the current username was checked and is free.
func (r *Registration) UsernameVerified() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.userChk.done && r.userChk.available
}

// NicknameVerified reports whether the current nickname was checked and is free.
func (r *Registration) NicknameVerified() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nickChk.done && r.nickChk.available
}

// CheckUsername validates the username locally, then asks the backend.
func (r *Registration) CheckUsername(ctx context.Context) (bool, error) {
	username := r.Username()
	if err := ValidateUsername(username); err != nil {
		return false, err
	}

	available, err := r.api.CheckUsername(ctx, username)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrAvailabilityCheck, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// The field may have changed while the check was in flight.
	if r.username == username {
		r.userChk = check{done: true, available: available}
	}
	return available, nil
}

// CheckNickname validates the nickname locally, then asks the backend.
func (r *Registration) CheckNickname(ctx context.Context) (bool, error) {
	nickname := r.Nickname()
	if err := ValidateNickname(nickname); err != nil {
		return false, err
	}

	available, err := r.api.CheckNickname(ctx, nickname)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrAvailabilityCheck, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nickname == nickname {
		r.nickChk = check{done: true, available: available}
	}
	return available, nil
}

// Submit creates the account. Nothing is sent unless both availability
// checks completed for the current values and reported them free.
func (r *Registration) Submit(ctx context.Context, email, password, confirm string) error {
	r.mu.Lock()
	username, nickname := r.username, r.nickname
	userChk, nickChk := r.userChk, r.nickChk
	r.mu.Unlock()

	switch {
	case !userChk.done:
		return ErrUsernameNotVerified
	case !userChk.available:
		return ErrUsernameTaken
	case !nickChk.done:
		return ErrNicknameNotVerified
	case !nickChk.available:
		return ErrNicknameTaken
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}
	if password == "" {
		return ErrPasswordRequired
	}
	if password != confirm {
		return ErrPasswordMismatch
	}

	err := r.api.Signup(ctx, client.SignupRequest{
		Username: username,
		Nickname: nickname,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}
	return nil
}
