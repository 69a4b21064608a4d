package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Config holds runtime settings for the FireStation client.
//
// Fields:
//   - ServerURL: base URL of the REST API, e.g. http://localhost:8000/api.
//   - VerifyInterval: period of the background session check and the
//     throttle window of on-demand checks.
//   - VerifyTimeout: upper bound of one /auth/me/ round trip.
//   - StoragePath: SQLite file holding the persisted session.
//   - LogLevel, LogFormat: see logging.New.
type Config struct {
	ServerURL      string
	VerifyInterval time.Duration
	VerifyTimeout  time.Duration
	StoragePath    string
	LogLevel       string
	LogFormat      string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:8000/api"
	c.VerifyInterval = 10 * time.Second
	c.VerifyTimeout = 5 * time.Second
	c.StoragePath = "firestation.db"
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("server url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server url %q: must be an absolute http(s) url", c.ServerURL)
	}
	if c.VerifyInterval <= 0 {
		return errors.New("verify interval must be positive")
	}
	if c.VerifyTimeout <= 0 {
		return errors.New("verify timeout must be positive")
	}
	if c.StoragePath == "" {
		return errors.New("storage path must not be empty")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log format %q: must be text or json", c.LogFormat)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from the config file (if any), the environment and command-line flags.
// Later sources take precedence over earlier ones.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:], os.Getenv)
}

func load(args []string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	parseEnv(cfg, getenv)
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
