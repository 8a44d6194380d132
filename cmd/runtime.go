// ABOUTME: Wires config, logging, the session manager and API clients for commands
// ABOUTME: Flags override the environment; the session lives in the config dir

package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/client"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/config"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/logger"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/session"
)

// runtime is everything a session-aware command needs
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *session.FileStore
	session *session.Manager
	// auth talks to the auth endpoints directly; the session manager uses it
	// for refresh and logout, so it must not go through the interceptors.
	auth *client.Client
	// api sends through the session interceptors.
	api *client.Client

	closeLog func() error
}

func newRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.APIURL = strings.TrimRight(apiURL, "/")
	}
	if configDir != "" {
		cfg.ConfigDir = configDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, closeLog, err := logger.Open(cfg.ConfigDir, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}

	store := session.NewFileStore(cfg.ConfigDir)
	auth := client.New(cfg.APIURL)

	opts := cfg.SessionOptions()
	opts.Logger = log
	mgr := session.New(store, auth, opts)

	return &runtime{
		cfg:      cfg,
		logger:   log,
		store:    store,
		session:  mgr,
		auth:     auth,
		api:      client.NewWithHTTPClient(cfg.APIURL, mgr.HTTPClient(nil)),
		closeLog: closeLog,
	}, nil
}

// Close flushes the log file
func (rt *runtime) Close() {
	if rt.closeLog != nil {
		rt.closeLog()
	}
}

// isTerminal reports whether r or w is attached to a terminal
func isTerminal(f any) bool {
	file, ok := f.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// readSecret reads one line from r, without the trailing newline
func readSecret(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(string(data), "\n")
	return strings.TrimRight(line, "\r"), nil
}
