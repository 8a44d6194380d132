// ABOUTME: Configuration loader for the pettrip client
// ABOUTME: Reads .env files and PETTRIP_* environment variables with defaults

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN12-4th-1TEAM/internal/session"
)

// DefaultAPIURL is the backend URL used when nothing else is configured
const DefaultAPIURL = "http://localhost:8000"

type Config struct {
	// Backend
	APIURL         string        `env:"PETTRIP_API_URL" envDefault:"http://localhost:8000"`
	RequestTimeout time.Duration `env:"PETTRIP_REQUEST_TIMEOUT" envDefault:"30s"`

	// Session tuning
	MaxRefreshAttempts int           `env:"PETTRIP_MAX_REFRESH_ATTEMPTS" envDefault:"2"`
	RefreshGuardDelay  time.Duration `env:"PETTRIP_REFRESH_GUARD_DELAY" envDefault:"200ms"`
	WatchInterval      time.Duration `env:"PETTRIP_WATCH_INTERVAL" envDefault:"5m"`

	// Social login callback listener (the backend redirects to {FRONTEND_URL}/login)
	CallbackAddr string `env:"PETTRIP_CALLBACK_ADDR" envDefault:"127.0.0.1:3000"`

	// Local state
	ConfigDir string `env:"PETTRIP_CONFIG_DIR"`

	// Logging
	LogLevel  string `env:"PETTRIP_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"PETTRIP_LOG_FORMAT" envDefault:"text"`

	// Rendering: glamour standard style name, empty picks one from the terminal
	MarkdownStyle string `env:"PETTRIP_MARKDOWN_STYLE"`
}

// Load reads the given .env files (".env" when none are given), then the
// environment. Missing .env files are not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.ConfigDir == "" {
		cfg.ConfigDir = session.DefaultConfigDir()
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that settings are usable
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("PETTRIP_API_URL must be an http(s) URL, got %q", c.APIURL)
	}
	if c.MaxRefreshAttempts < 1 {
		return fmt.Errorf("PETTRIP_MAX_REFRESH_ATTEMPTS must be at least 1, got %d", c.MaxRefreshAttempts)
	}
	if c.RefreshGuardDelay < 0 {
		return fmt.Errorf("PETTRIP_REFRESH_GUARD_DELAY must not be negative")
	}
	if c.WatchInterval <= 0 {
		return fmt.Errorf("PETTRIP_WATCH_INTERVAL must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("PETTRIP_REQUEST_TIMEOUT must be positive")
	}
	return nil
}

// SessionOptions maps the session tuning onto session.Options
func (c *Config) SessionOptions() session.Options {
	opts := session.DefaultOptions()
	opts.MaxRefreshAttempts = c.MaxRefreshAttempts
	opts.RefreshGuardDelay = c.RefreshGuardDelay
	opts.WatchInterval = c.WatchInterval
	opts.RequestTimeout = c.RequestTimeout
	return opts
}
