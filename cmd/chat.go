// ABOUTME: Chat command for the pettrip CLI
// ABOUTME: One-shot questions from the shell, or the chat screen when run without a query

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

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/chat"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/client"
)

const chatWidth = 80

var chatSessionID int

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Ask the Pet Travel assistant",
	Long: `Ask the assistant a question and print the answer. Without a question,
the interactive chat screen opens instead.

Requires a session from 'pettrip login'.

Exit codes:
  0 - Answered
  1 - Not logged in or session expired
  2 - Error (connectivity)

Example:
  pettrip chat "Which beaches in Busan allow dogs?"
  pettrip chat --session-id 12 "And near Haeundae?"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if len(args) == 0 {
			return runTUI(ctx, true)
		}

		exitCode := runChat(ctx, os.Stdout, strings.Join(args, " "))
		if exitCode != 0 {
			os.Exit(exitCode)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().IntVar(&chatSessionID, "session-id", 0, "Continue a backend chat session")
}

// runChat sends one question and returns exit code
func runChat(ctx context.Context, w io.Writer, query string) int {
	query = strings.TrimSpace(query)
	if query == "" {
		fmt.Fprintln(w, "Error: question is empty")
		return 2
	}

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

	req := client.ChatRequest{Query: query}
	if chatSessionID > 0 {
		id := chatSessionID
		req.SessionID = &id
	}

	resp, err := rt.api.Chat(ctx, req)
	if errors.Is(err, client.ErrUnauthorized) {
		fmt.Fprintln(w, "Your session has expired. Run 'pettrip login' again.")
		return 1
	}
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if strings.TrimSpace(resp.Response) == "" {
		resp.Response = chat.FallbackEmpty
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatChatJSON(resp))
		return 0
	}

	style := rt.cfg.MarkdownStyle
	if !isTerminal(w) {
		style = "notty"
	}
	fmt.Fprintln(w, formatChatHuman(resp, style))
	return 0
}

// formatChatHuman renders the answer as markdown
func formatChatHuman(resp *client.ChatResponse, style string) string {
	out := resp.Response
	if r, err := chat.NewRenderer(chatWidth, style); err == nil {
		out = r.Markdown(resp.Response)
	}
	if resp.SessionID != nil {
		out += fmt.Sprintf("\n\nSession %d (continue with --session-id %d)", *resp.SessionID, *resp.SessionID)
	}
	return out
}

// formatChatJSON formats the answer as JSON
func formatChatJSON(resp *client.ChatResponse) string {
	output := map[string]interface{}{
		"response":   resp.Response,
		"session_id": resp.SessionID,
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
