// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "infinity.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
app:
  client_id: Iv1.example
  private_key_path: /etc/infinity/signing.pem
  installation_id: 42
source:
  owner: infinity-x-one
  repo: memory
  path: .infinity/ACTIVE_MEMORY.md
  ref: main
cache:
  path: /var/cache/infinity/ACTIVE_MEMORY.md
  freshness: 90m
destination:
  kind: github
  owner: infinity-x-one
  repo: published
  path: ACTIVE_MEMORY.md
  branch: main
audit:
  ledger_path: /var/log/infinity/decisions.jsonl
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.App.ClientID != "Iv1.example" {
		t.Errorf("client_id = %q", cfg.App.ClientID)
	}
	if cfg.App.InstallationID != 42 {
		t.Errorf("installation_id = %d", cfg.App.InstallationID)
	}
	if cfg.Source.Repo != "memory" {
		t.Errorf("source.repo = %q", cfg.Source.Repo)
	}
	freshness, err := cfg.Freshness()
	if err != nil {
		t.Fatalf("Freshness: %v", err)
	}
	if freshness != 90*time.Minute {
		t.Errorf("freshness = %v, want 90m", freshness)
	}
	// Defaults survive a partial file.
	if cfg.BaseURL != "https://api.github.com" {
		t.Errorf("base_url = %q", cfg.BaseURL)
	}
	if cfg.Destination.Message != "memory: refresh snapshot" {
		t.Errorf("destination.message = %q", cfg.Destination.Message)
	}
}

func TestLoadRequiresEnvironmentVariable(t *testing.T) {
	t.Setenv("INFINITY_CONFIG", "")
	if _, err := Load(); err == nil {
		t.Error("Load succeeded without INFINITY_CONFIG")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	path := writeConfig(t, "cache:\n  path: /var/cache/infinity/m.md\n")
	t.Setenv("INFINITY_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cache.Path != "/var/cache/infinity/m.md" {
		t.Errorf("cache.path = %q", cfg.Cache.Path)
	}
}

func TestExpandVariables(t *testing.T) {
	t.Setenv("HOME", "/home/orchestrator")
	path := writeConfig(t, `
cache:
  path: ${HOME}/.cache/infinity/ACTIVE_MEMORY.md
audit:
  ledger_path: ${INFINITY_LOGS:-/var/log/infinity}/decisions.jsonl
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Cache.Path != "/home/orchestrator/.cache/infinity/ACTIVE_MEMORY.md" {
		t.Errorf("cache.path = %q", cfg.Cache.Path)
	}
	if cfg.Audit.LedgerPath != "/var/log/infinity/decisions.jsonl" {
		t.Errorf("audit.ledger_path = %q (default expansion)", cfg.Audit.LedgerPath)
	}
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(cfg *Config)
		wantMsg string
	}{
		{
			name:    "missing cache path",
			mutate:  func(cfg *Config) { cfg.Cache.Path = "" },
			wantMsg: "cache.path",
		},
		{
			name:    "bad freshness",
			mutate:  func(cfg *Config) { cfg.Cache.Freshness = "soon" },
			wantMsg: "cache.freshness",
		},
		{
			name:    "client id without key",
			mutate:  func(cfg *Config) { cfg.App.ClientID = "Iv1.x"; cfg.App.Owner = "o" },
			wantMsg: "app.private_key_path",
		},
		{
			name: "credential without installation or owner",
			mutate: func(cfg *Config) {
				cfg.App.ClientID = "Iv1.x"
				cfg.App.PrivateKeyPath = "/k.pem"
				cfg.Source = SourceConfig{Owner: "o", Repo: "r", Path: "p"}
			},
			wantMsg: "app.installation_id or app.owner",
		},
		{
			name:    "unknown destination kind",
			mutate:  func(cfg *Config) { cfg.Destination.Kind = "s3" },
			wantMsg: "destination.kind",
		},
		{
			name:    "file destination without path",
			mutate:  func(cfg *Config) { cfg.Destination.Kind = DestinationFile },
			wantMsg: "destination.file_path",
		},
		{
			name:    "github destination without credential",
			mutate:  func(cfg *Config) { cfg.Destination.Kind = DestinationGitHub },
			wantMsg: "requires an app credential",
		},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			cfg := Default()
			testCase.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate succeeded, want error")
			}
			if !strings.Contains(err.Error(), testCase.wantMsg) {
				t.Errorf("error %q does not mention %q", err, testCase.wantMsg)
			}
		})
	}
}

func TestValidateDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}
