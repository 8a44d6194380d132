// ABOUTME: Root command for the pettrip CLI
// ABOUTME: Handles global flags and launches the terminal UI when run bare

package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/config"
)

var (
	apiURL     string
	jsonOutput bool
	configDir  string
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "pettrip",
	Short: "Terminal client for the Pet Travel assistant",
	Long: `pettrip is a terminal client for the Pet Travel service.

Run without a subcommand to open the interactive UI. The subcommands log in,
sign up and chat from scripts.

Environment Variables:
  PETTRIP_API_URL       Backend API URL (default: http://localhost:8000)
  PETTRIP_CONFIG_DIR    Where the session, chat history and debug.log live
  PETTRIP_CALLBACK_ADDR Loopback address for social login (default: 127.0.0.1:3000)
  PETTRIP_LOG_LEVEL     debug, info, warn or error (default: info)`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		return runTUI(ctx, false)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides PETTRIP_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory for session and history files (overrides PETTRIP_CONFIG_DIR)")
}

// GetAPIURL returns the API URL from flag, env, or default (in priority order)
func GetAPIURL() string {
	if apiURL != "" {
		return strings.TrimRight(apiURL, "/")
	}
	if envURL := os.Getenv("PETTRIP_API_URL"); envURL != "" {
		return strings.TrimRight(envURL, "/")
	}
	return config.DefaultAPIURL
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}
