// ABOUTME: Whoami command for the pettrip CLI
// ABOUTME: Shows the stored session and how long its token stays valid

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

	"github.com/spf13/cobra"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/client"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/session"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/tui/widgets"
)

var whoamiRemote bool

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Long: `Show the stored session. With --remote the profile is fetched from the
backend, refreshing an expired token if needed.

Exit codes:
  0 - Logged in
  1 - Not logged in, or the backend rejected the session
  2 - Error (connectivity)`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runWhoami(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
	whoamiCmd.Flags().BoolVar(&whoamiRemote, "remote", false, "Fetch the profile from the backend")
}

// runWhoami prints the session and returns exit code
func runWhoami(ctx context.Context, w io.Writer) int {
	rt, err := newRuntime()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer rt.Close()

	rt.session.Reload()
	snap := rt.session.Snapshot()
	if !snap.LoggedIn() {
		fmt.Fprintln(w, "Not logged in")
		return 1
	}

	user := snap.User
	if whoamiRemote {
		me, err := rt.api.Me(ctx)
		if errors.Is(err, client.ErrUnauthorized) {
			fmt.Fprintln(w, "Your session has expired. Run 'pettrip login' again.")
			return 1
		}
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
		user = me
		// A refresh may have rotated the token during the call.
		snap.Token = rt.session.StoredToken()
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatWhoamiJSON(user, snap.Token, time.Now()))
	} else {
		fmt.Fprintln(w, formatWhoamiHuman(user, snap.Token, time.Now()))
	}
	return 0
}

// formatWhoamiHuman formats the session for human readability
func formatWhoamiHuman(user *session.UserProfile, token string, now time.Time) string {
	expires := "unknown"
	remaining := "unknown"
	if exp, ok := session.TokenExpiry(token); ok {
		expires = exp.Local().Format(time.DateTime)
		remaining = widgets.Remaining(exp.Sub(now))
	}

	return fmt.Sprintf(`Username:  %s
Nickname:  %s
Email:     %s
Expires:   %s (%s)`,
		user.Username,
		orDash(user.Nickname),
		orDash(user.Email),
		expires, remaining)
}

// formatWhoamiJSON formats the session as JSON
func formatWhoamiJSON(user *session.UserProfile, token string, now time.Time) string {
	output := map[string]interface{}{
		"username": user.Username,
		"nickname": user.Nickname,
		"email":    user.Email,
	}
	if exp, ok := session.TokenExpiry(token); ok {
		output["expires_at"] = exp.UTC().Format(time.RFC3339)
		output["expired"] = !now.Before(exp)
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
