// ABOUTME: Logout command for the pettrip CLI
// ABOUTME: Tells the backend, then clears the stored session

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and forget the stored session",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runLogout(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

// runLogout clears the session and returns exit code. Logging out without a
// session is not an error.
func runLogout(ctx context.Context, w io.Writer) int {
	rt, err := newRuntime()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer rt.Close()

	rt.session.Reload()
	snap := rt.session.Snapshot()

	// The backend call is best-effort; storage is cleared either way.
	rt.session.Logout(ctx)

	if !snap.LoggedIn() {
		fmt.Fprintln(w, "Not logged in")
		return 0
	}
	fmt.Fprintf(w, "Logged out %s\n", snap.User.Username)
	return 0
}
