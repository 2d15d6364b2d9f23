// Package config loads application configuration from a TOML file plus a
// small set of environment variables for secrets and deployment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	defaultConfigPath = "contribview.toml"
	defaultPerPage    = 100
	defaultMaxPages   = 10
	maxPerPage        = 100
)

// Config holds the full application configuration.
type Config struct {
	Repository RepositoryConfig `toml:"repository"`
	Fetch      FetchConfig      `toml:"fetch"`
	Exclusions ExclusionsConfig `toml:"exclusions"`
	Server     ServerConfig     `toml:"server"`
	Storage    StorageConfig    `toml:"storage"`

	// GitHubToken is read from the environment, never from the file.
	GitHubToken string `toml:"-"`
}

// RepositoryConfig identifies the repository whose open PRs are shown.
type RepositoryConfig struct {
	Owner string `toml:"owner"`
	Name  string `toml:"name"`
}

// FetchConfig controls the paged fetch loop. PageTimeout is a Go duration
// string ("30s", "1m"); the parsed value is available via PageTimeout().
type FetchConfig struct {
	PerPage     int    `toml:"per_page"`
	MaxPages    int    `toml:"max_pages"`
	PageTimeout string `toml:"page_timeout"`

	pageTimeout time.Duration
}

// PageTimeoutDuration returns the parsed per-page request timeout.
func (f *FetchConfig) PageTimeoutDuration() time.Duration {
	return f.pageTimeout
}

// ExclusionsConfig carries the default excluded-author logins.
type ExclusionsConfig struct {
	Authors []string `toml:"authors"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	ListenAddr string `toml:"listen_addr"`
}

// StorageConfig holds the snapshot database location.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// DefaultConfig returns a Config with every optional field at its default.
// Repository.Owner and Repository.Name have no defaults and must come from
// the config file.
func DefaultConfig() *Config {
	return &Config{
		Fetch: FetchConfig{
			PerPage:     defaultPerPage,
			MaxPages:    defaultMaxPages,
			PageTimeout: "30s",
		},
		Exclusions: ExclusionsConfig{
			Authors: []string{},
		},
		Server: ServerConfig{
			ListenAddr: "127.0.0.1:8080",
		},
		Storage: StorageConfig{
			DBPath: "contribview.db",
		},
	}
}

// Load reads the TOML config file and environment overrides and returns a
// validated Config. The file path comes from CONTRIBVIEW_CONFIG, defaulting
// to contribview.toml in the working directory. CONTRIBVIEW_GITHUB_TOKEN is
// optional; without it requests go out unauthenticated at the lower rate limit.
func Load() (*Config, error) {
	path := defaultConfigPath
	if v, ok := os.LookupEnv("CONTRIBVIEW_CONFIG"); ok && v != "" {
		path = v
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.GitHubToken = os.Getenv("CONTRIBVIEW_GITHUB_TOKEN")

	if v, ok := os.LookupEnv("CONTRIBVIEW_LISTEN_ADDR"); ok && v != "" {
		cfg.Server.ListenAddr = v
	}
	if v, ok := os.LookupEnv("CONTRIBVIEW_DB_PATH"); ok && v != "" {
		cfg.Storage.DBPath = v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Repository.Owner == "" {
		return fmt.Errorf("repository.owner is required")
	}
	if c.Repository.Name == "" {
		return fmt.Errorf("repository.name is required")
	}
	if c.Fetch.PerPage < 1 {
		return fmt.Errorf("fetch.per_page must be positive, got %d", c.Fetch.PerPage)
	}
	if c.Fetch.PerPage > maxPerPage {
		c.Fetch.PerPage = maxPerPage
	}
	if c.Fetch.MaxPages < 1 {
		return fmt.Errorf("fetch.max_pages must be positive, got %d", c.Fetch.MaxPages)
	}
	d, err := time.ParseDuration(c.Fetch.PageTimeout)
	if err != nil {
		return fmt.Errorf("fetch.page_timeout has invalid duration %q: %w", c.Fetch.PageTimeout, err)
	}
	if d <= 0 {
		return fmt.Errorf("fetch.page_timeout must be positive, got %s", c.Fetch.PageTimeout)
	}
	c.Fetch.pageTimeout = d
	return nil
}
