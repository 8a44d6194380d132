// ABOUTME: Check command for the pettrip CLI
// ABOUTME: Reports whether a username or nickname is still free, for scripts

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/account"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/client"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check username or nickname availability",
	Long: `Check whether a username or nickname can still be registered.

Exit codes:
  0 - Available
  1 - Already taken
  2 - Error (connectivity, invalid input)`,
}

var checkUsernameCmd = &cobra.Command{
	Use:   "username <value>",
	Short: "Check whether a username is available",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runCheckCommand(fieldUsername, args[0])
	},
}

var checkNicknameCmd = &cobra.Command{
	Use:   "nickname <value>",
	Short: "Check whether a nickname is available",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runCheckCommand(fieldNickname, args[0])
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.AddCommand(checkUsernameCmd)
	checkCmd.AddCommand(checkNicknameCmd)
}

type checkField string

const (
	fieldUsername checkField = "username"
	fieldNickname checkField = "nickname"
)

// checkResult is the outcome of one availability check
type checkResult struct {
	field     checkField
	value     string
	available bool
}

func runCheckCommand(field checkField, value string) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	exitCode := runCheck(ctx, os.Stdout, field, value)
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// runCheck validates value locally, asks the backend and returns exit code
func runCheck(ctx context.Context, w io.Writer, field checkField, value string) int {
	if err := validateField(field, value); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	c := client.New(GetAPIURL())

	var available bool
	var err error
	switch field {
	case fieldUsername:
		available, err = c.CheckUsername(ctx, value)
	case fieldNickname:
		available, err = c.CheckNickname(ctx, value)
	}
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	result := checkResult{field: field, value: value, available: available}
	if IsJSONOutput() {
		fmt.Fprintln(w, formatCheckJSON(result))
	} else {
		fmt.Fprintln(w, formatCheckHuman(result))
	}

	if !available {
		return 1
	}
	return 0
}

// validateField applies the signup rules before any request is made
func validateField(field checkField, value string) error {
	switch field {
	case fieldUsername:
		return account.ValidateUsername(value)
	case fieldNickname:
		return account.ValidateNickname(value)
	}
	return fmt.Errorf("unknown field %q", field)
}

// formatCheckHuman formats the result for human readability
func formatCheckHuman(r checkResult) string {
	if r.available {
		return fmt.Sprintf("✓ %s %q is available", r.field, r.value)
	}
	return fmt.Sprintf("✗ %s %q is already taken", r.field, r.value)
}

// formatCheckJSON formats the result as JSON
func formatCheckJSON(r checkResult) string {
	output := map[string]interface{}{
		"field":     string(r.field),
		"value":     r.value,
		"available": r.available,
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
