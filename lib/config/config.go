// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the memory sync
// engine.
//
// Configuration is loaded from a single YAML file specified by:
//   - INFINITY_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable configuration with no hidden overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Destination kinds.
const (
	DestinationGitHub = "github"
	DestinationFile   = "file"
	DestinationNone   = "none"
)

// Config is the engine's configuration.
type Config struct {
	// App identifies the signing credential.
	App AppConfig `yaml:"app"`

	// Source locates the remote artifact.
	Source SourceConfig `yaml:"source"`

	// Cache configures the local cache.
	Cache CacheConfig `yaml:"cache"`

	// Destination configures where resolved snapshots are published.
	Destination DestinationConfig `yaml:"destination"`

	// Audit configures the decision ledger.
	Audit AuditConfig `yaml:"audit"`

	// BaseURL overrides the remote API endpoint. Default:
	// https://api.github.com. Must be HTTPS.
	BaseURL string `yaml:"base_url"`
}

// AppConfig identifies the App credential used for minting. When
// ClientID is empty the engine runs without a credential and can only
// serve from cache.
type AppConfig struct {
	// ClientID is the App's client identifier (the assertion issuer).
	ClientID string `yaml:"client_id"`

	// PrivateKeyPath is the PEM-encoded RSA signing key. Read into a
	// locked buffer at startup; never logged.
	PrivateKeyPath string `yaml:"private_key_path"`

	// InstallationID, when set, skips installation discovery.
	InstallationID int64 `yaml:"installation_id"`

	// Owner drives installation discovery when InstallationID is
	// unset.
	Owner string `yaml:"owner"`
}

// SourceConfig locates the remote artifact.
type SourceConfig struct {
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
	Path  string `yaml:"path"`

	// Ref selects a branch, tag, or commit; empty means the default
	// branch.
	Ref string `yaml:"ref"`
}

// CacheConfig configures the local cache.
type CacheConfig struct {
	// Path is the local cache file.
	Path string `yaml:"path"`

	// Freshness is the maximum cache age served without a remote
	// attempt, as a duration string. Default: 2h.
	Freshness string `yaml:"freshness"`

	// ArchiveDir, when set, collects compressed copies of every
	// remote refresh.
	ArchiveDir string `yaml:"archive_dir"`
}

// DestinationConfig configures the publish target.
type DestinationConfig struct {
	// Kind is one of github, file, none. Default: none.
	Kind string `yaml:"kind"`

	// GitHub destination fields.
	Owner   string `yaml:"owner"`
	Repo    string `yaml:"repo"`
	Path    string `yaml:"path"`
	Branch  string `yaml:"branch"`
	Message string `yaml:"message"`

	// File destination field.
	FilePath string `yaml:"file_path"`
}

// AuditConfig configures the decision ledger.
type AuditConfig struct {
	// LedgerPath is the JSONL file decisions are appended to. Empty
	// disables auditing.
	LedgerPath string `yaml:"ledger_path"`
}

// Default returns the default configuration. These defaults exist to
// give all fields sensible zero-values, not as a fallback - the config
// file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "infinity")

	return &Config{
		Cache: CacheConfig{
			Path:      filepath.Join(defaultRoot, "ACTIVE_MEMORY.md"),
			Freshness: "2h",
		},
		Destination: DestinationConfig{
			Kind:    DestinationNone,
			Message: "memory: refresh snapshot",
		},
		BaseURL: "https://api.github.com",
	}
}

// Load loads configuration from the INFINITY_CONFIG environment
// variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks - if INFINITY_CONFIG is not set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("INFINITY_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("INFINITY_CONFIG environment variable not set; " +
			"set it to the path of your infinity.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables
// do not override config values. The only expansion performed is
// ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.App.PrivateKeyPath = expandVars(c.App.PrivateKeyPath, vars)
	c.Cache.Path = expandVars(c.Cache.Path, vars)
	c.Cache.ArchiveDir = expandVars(c.Cache.ArchiveDir, vars)
	c.Destination.FilePath = expandVars(c.Destination.FilePath, vars)
	c.Audit.LedgerPath = expandVars(c.Audit.LedgerPath, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Freshness parses the configured freshness threshold.
func (c *Config) Freshness() (time.Duration, error) {
	if c.Cache.Freshness == "" {
		return 2 * time.Hour, nil
	}
	freshness, err := time.ParseDuration(c.Cache.Freshness)
	if err != nil {
		return 0, fmt.Errorf("cache.freshness: %w", err)
	}
	return freshness, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Cache.Path == "" {
		errs = append(errs, fmt.Errorf("cache.path is required"))
	}
	if _, err := c.Freshness(); err != nil {
		errs = append(errs, err)
	}

	credentialed := c.App.ClientID != "" || c.App.PrivateKeyPath != ""
	if credentialed {
		if c.App.ClientID == "" {
			errs = append(errs, fmt.Errorf("app.client_id is required when app.private_key_path is set"))
		}
		if c.App.PrivateKeyPath == "" {
			errs = append(errs, fmt.Errorf("app.private_key_path is required when app.client_id is set"))
		}
		if c.App.InstallationID == 0 && c.App.Owner == "" {
			errs = append(errs, fmt.Errorf("one of app.installation_id or app.owner is required"))
		}
		if c.Source.Owner == "" || c.Source.Repo == "" || c.Source.Path == "" {
			errs = append(errs, fmt.Errorf("source.owner, source.repo, and source.path are required when a credential is configured"))
		}
	}

	switch c.Destination.Kind {
	case DestinationNone:
	case DestinationFile:
		if c.Destination.FilePath == "" {
			errs = append(errs, fmt.Errorf("destination.file_path is required for a file destination"))
		}
	case DestinationGitHub:
		if !credentialed {
			errs = append(errs, fmt.Errorf("a github destination requires an app credential"))
		}
		if c.Destination.Owner == "" || c.Destination.Repo == "" || c.Destination.Path == "" {
			errs = append(errs, fmt.Errorf("destination.owner, destination.repo, and destination.path are required for a github destination"))
		}
		if c.Destination.Message == "" {
			errs = append(errs, fmt.Errorf("destination.message is required for a github destination"))
		}
	default:
		errs = append(errs, fmt.Errorf("destination.kind must be one of: github, file, none"))
	}

	if c.BaseURL == "" {
		errs = append(errs, fmt.Errorf("base_url is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
