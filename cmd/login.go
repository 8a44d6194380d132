// ABOUTME: Login command for the pettrip CLI
// ABOUTME: Password login with prompts or stdin, and Google/Naver login via the browser

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/account"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/session"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui/styles"
)

var (
	loginUsername      string
	loginPasswordStdin bool
	loginProvider      string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to Pet Travel",
	Long: `Log in with a username and password, or with a social provider.

Without --username the command prompts when attached to a terminal.

Exit codes:
  0 - Logged in
  1 - Credentials or provider login rejected
  2 - Error (connectivity, invalid input)

Examples:
  pettrip login
  echo "$PASSWORD" | pettrip login --username alice1 --password-stdin
  pettrip login --provider google`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runLogin(ctx, os.Stdin, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVar(&loginUsername, "username", "", "Username to log in with")
	loginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "Read the password from stdin")
	loginCmd.Flags().StringVar(&loginProvider, "provider", "", "Log in with a provider instead (google or naver)")
}

// runLogin logs in and returns exit code
func runLogin(ctx context.Context, in io.Reader, w io.Writer) int {
	rt, err := newRuntime()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer rt.Close()

	if loginProvider != "" {
		return runSocialLogin(ctx, rt, w)
	}

	username, password, err := loginCredentials(ctx, in)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	user, err := account.SignIn(ctx, rt.auth, rt.session, username, password)
	if errors.Is(err, account.ErrLoginFailed) {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 1
	}
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	printLoggedIn(w, user, rt.session.StoredToken())
	return 0
}

// loginCredentials takes the username from the flag and the password from
// stdin, prompting for whatever is missing when a terminal is attached
func loginCredentials(ctx context.Context, in io.Reader) (string, string, error) {
	username := loginUsername
	var password string

	if loginPasswordStdin {
		secret, err := readSecret(in)
		if err != nil {
			return "", "", fmt.Errorf("read password: %w", err)
		}
		password = secret
	}

	if username != "" && password != "" {
		return username, password, nil
	}
	if !isTerminal(in) {
		return "", "", errors.New("--username and --password-stdin are required when not attached to a terminal")
	}

	var fields []huh.Field
	if username == "" {
		fields = append(fields, huh.NewInput().
			Title("Username").
			Value(&username).
			Validate(huh.ValidateNotEmpty()))
	}
	if password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&password).
			Validate(huh.ValidateNotEmpty()))
	}

	form := huh.NewForm(huh.NewGroup(fields...)).WithTheme(styles.FormTheme())
	if err := form.RunWithContext(ctx); err != nil {
		return "", "", err
	}
	return username, password, nil
}

// runSocialLogin sends the user to the provider and waits for the backend
// to redirect back to the loopback listener
func runSocialLogin(ctx context.Context, rt *runtime, w io.Writer) int {
	provider, err := account.ParseProvider(loginProvider)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	server, err := account.ListenCallback(rt.cfg.CallbackAddr)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer server.Close()

	authURL, err := account.SocialLoginURL(ctx, rt.auth, provider)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	fmt.Fprintf(w, "Open this URL to continue with %s:\n\n  %s\n\n", provider.DisplayName(), authURL)
	fmt.Fprintf(w, "Waiting for the login to finish at %s ...\n", server.URL())

	params, err := server.Wait(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	cb := &account.Callback{Manager: rt.session, Profiles: rt.api, Logger: rt.logger}
	user, err := cb.Complete(ctx, params)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		var perr *account.ProviderError
		if errors.As(err, &perr) || errors.Is(err, account.ErrNoCallbackParams) {
			return 1
		}
		return 2
	}

	printLoggedIn(w, user, rt.session.StoredToken())
	return 0
}

func printLoggedIn(w io.Writer, user *session.UserProfile, token string) {
	if IsJSONOutput() {
		fmt.Fprintln(w, formatLoginJSON(user, token))
	} else {
		fmt.Fprintln(w, formatLoginHuman(user, token))
	}
}

// formatLoginHuman formats the new session for human readability
func formatLoginHuman(user *session.UserProfile, token string) string {
	name := user.Username
	if user.Nickname != "" {
		name = fmt.Sprintf("%s (%s)", user.Nickname, user.Username)
	}
	out := "Logged in as " + name
	if exp, ok := session.TokenExpiry(token); ok {
		out += fmt.Sprintf("\nSession valid until %s", exp.Local().Format(time.DateTime))
	}
	return out
}

// formatLoginJSON formats the new session as JSON
func formatLoginJSON(user *session.UserProfile, token string) string {
	output := map[string]interface{}{
		"username": user.Username,
		"nickname": user.Nickname,
		"email":    user.Email,
	}
	if exp, ok := session.TokenExpiry(token); ok {
		output["expires_at"] = exp.UTC().Format(time.RFC3339)
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
