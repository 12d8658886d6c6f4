// Package config loads the Confluence connection settings from the
// environment. The snapshot is read once at startup and never mutated.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvURL        = "CONFLUENCE_URL"
	EnvUsername   = "CONFLUENCE_USERNAME"
	EnvAPIToken   = "CONFLUENCE_API_TOKEN"
	EnvToken      = "CONFLUENCE_TOKEN" // legacy fallback for EnvAPIToken
	EnvSpaceKey   = "CONFLUENCE_SPACE_KEY"
	EnvParentPage = "CONFLUENCE_PARENT_PAGE"
	EnvHost       = "HOST"
	EnvPort       = "PORT"
)

// ErrMissing wraps startup failures caused by absent required variables.
var ErrMissing = errors.New("missing required configuration")

// Config is the immutable Confluence connection snapshot.
type Config struct {
	// BaseURL is the Confluence site URL, always ending in a slash.
	BaseURL string

	// Username is the account email used for basic auth.
	Username string

	// Token is the API token paired with Username.
	Token string

	// SpaceKey is the default space for created pages and the space
	// searched by the list operation.
	SpaceKey string

	// ParentPageID, when non-empty, confines every write operation to
	// direct children of this page.
	ParentPageID string
}

// Restricted reports whether a parent-page restriction is configured.
func (c *Config) Restricted() bool {
	return c.ParentPageID != ""
}

// Load reads the configuration from the environment. When envFile is
// non-empty that file is loaded first; otherwise a .env in the working
// directory is used when present. Variables already set in the real
// environment always win over file entries.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	} else {
		// Best effort: a missing .env is fine.
		_ = godotenv.Load()
	}

	cfg := &Config{
		BaseURL:      os.Getenv(EnvURL),
		Username:     os.Getenv(EnvUsername),
		Token:        os.Getenv(EnvAPIToken),
		SpaceKey:     os.Getenv(EnvSpaceKey),
		ParentPageID: os.Getenv(EnvParentPage),
	}
	if cfg.Token == "" {
		cfg.Token = os.Getenv(EnvToken)
	}

	var missing []string
	if cfg.BaseURL == "" {
		missing = append(missing, EnvURL)
	}
	if cfg.Username == "" {
		missing = append(missing, EnvUsername)
	}
	if cfg.Token == "" {
		missing = append(missing, EnvAPIToken+" (or "+EnvToken+")")
	}
	if cfg.SpaceKey == "" {
		missing = append(missing, EnvSpaceKey)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}

	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}

	return cfg, nil
}

// BindAddr resolves the serve bind address: explicit flag values win, then
// HOST/PORT from the environment, then the built-in defaults.
func BindAddr(flagHost string, flagPort int) (string, int) {
	host := flagHost
	if host == "" {
		host = os.Getenv(EnvHost)
	}
	if host == "" {
		host = "127.0.0.1"
	}

	port := flagPort
	if port == 0 {
		if v := os.Getenv(EnvPort); v != "" {
			if p, err := strconv.Atoi(v); err == nil {
				port = p
			}
		}
	}
	if port == 0 {
		port = 8123
	}

	return host, port
}
