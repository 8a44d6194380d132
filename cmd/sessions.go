// ABOUTME: Sessions command for the pettrip CLI
// ABOUTME: Lists the chat sessions the backend keeps for the logged-in user

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/client"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List your chat sessions",
	Long: `List the chat sessions stored by the backend. Pass an ID to
'pettrip chat --session-id' to continue one.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runSessions(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

// runSessions lists sessions and returns exit code
func runSessions(ctx context.Context, w io.Writer) int {
	rt, err := newRuntime()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer rt.Close()

	if rt.session.StoredToken() == "" {
		fmt.Fprintln(w, "Not logged in. Run 'pettrip login' first.")
		return 1
	}

	sessions, err := rt.api.Sessions(ctx)
	if errors.Is(err, client.ErrUnauthorized) {
		fmt.Fprintln(w, "Your session has expired. Run 'pettrip login' again.")
		return 1
	}
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatSessionsJSON(sessions))
	} else {
		fmt.Fprintln(w, formatSessionsHuman(sessions))
	}
	return 0
}

// formatSessionsHuman formats sessions as a table
func formatSessionsHuman(sessions []client.ChatSession) string {
	if len(sessions) == 0 {
		return "No chat sessions yet."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-6s  %-19s  %s\n", "ID", "CREATED", "TITLE")
	for _, s := range sessions {
		title := s.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(&b, "%-6d  %-19s  %s\n", s.ID, s.CreatedAt, title)
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatSessionsJSON formats sessions as JSON
func formatSessionsJSON(sessions []client.ChatSession) string {
	if sessions == nil {
		sessions = []client.ChatSession{}
	}
	data, _ := json.MarshalIndent(sessions, "", "  ")
	return string(data)
}
