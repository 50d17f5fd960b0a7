// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

// infinity-memory-sync runs one mint → resolve → publish cycle for the
// active memory artifact: obtain a short-lived credential, return the
// freshest available snapshot (degrading through stale local data when
// the remote cannot serve), and publish it to the configured
// destination only when its content changed.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/audit"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/config"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/engine"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/github"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/memory"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/publish"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/secret"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/secretguard"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/version"
)

// Exit codes: 0 success (including degraded outcomes unless
// --require-fresh), 1 runtime failure, 2 configuration or usage error.
func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath   string
		requireFresh bool
		showVersion  bool
	)
	pflag.StringVar(&configPath, "config", "", "path to the engine config file (default: $INFINITY_CONFIG)")
	pflag.BoolVar(&requireFresh, "require-fresh", false, "exit non-zero when the run degrades to an empty snapshot")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		fmt.Printf("infinity-memory-sync %s\n", version.Info())
		return 0
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid configuration:\n%v\n", err)
		return 2
	}

	// One guard per run; the logger is built on top of it so no code
	// path can emit an unredacted credential.
	guard := secretguard.New()
	logger := slog.New(guard.Handler(slog.NewTextHandler(os.Stderr, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, cfg, guard, logger, requireFresh); err != nil {
		logger.Error("run failed", "error", err)
		return 1
	}
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func execute(ctx context.Context, cfg *config.Config, guard *secretguard.Guard, logger *slog.Logger, requireFresh bool) error {
	freshness, err := cfg.Freshness()
	if err != nil {
		return err
	}

	var ledger *audit.Ledger
	if cfg.Audit.LedgerPath != "" {
		ledger, err = audit.Open(audit.Config{
			Path:  cfg.Audit.LedgerPath,
			Guard: guard,
			RunID: os.Getenv("GITHUB_RUN_ID"),
		})
		if err != nil {
			return err
		}
	}

	engineConfig := engine.Config{
		CachePath:  cfg.Cache.Path,
		Freshness:  freshness,
		ArchiveDir: cfg.Cache.ArchiveDir,
		Guard:      guard,
		Ledger:     ledger,
		Logger:     logger,
	}

	var client *github.Client
	if cfg.App.ClientID != "" {
		client, err = github.NewClient(github.Config{
			BaseURL: cfg.BaseURL,
			Guard:   guard,
			Logger:  logger,
		})
		if err != nil {
			return err
		}

		// The signing key is held in guarded memory (mmap-backed,
		// mlock'd, excluded from core dumps, zeroed on close) for its
		// time in this process.
		keyBuffer, err := secret.ReadFromPath(cfg.App.PrivateKeyPath)
		if err != nil {
			return fmt.Errorf("reading signing key: %w", err)
		}
		defer keyBuffer.Close()

		identity, err := github.NewSigningIdentity(cfg.App.ClientID, keyBuffer.Bytes())
		if err != nil {
			return err
		}

		engineConfig.Client = client
		engineConfig.Identity = identity
		engineConfig.OwnerHint = cfg.App.Owner
		if cfg.App.InstallationID != 0 {
			engineConfig.Installation = &github.InstallationRef{InstallationID: cfg.App.InstallationID}
		}
		engineConfig.Source = engine.Source{
			Owner: cfg.Source.Owner,
			Repo:  cfg.Source.Repo,
			Path:  cfg.Source.Path,
			Ref:   cfg.Source.Ref,
		}
	}

	engineConfig.Destination = destinationFunc(cfg, client)

	eng, err := engine.New(engineConfig)
	if err != nil {
		return err
	}

	outcome, err := eng.Run(ctx)
	if err != nil {
		return err
	}

	snapshot := outcome.Snapshot
	logger.Info("run complete",
		"tier", snapshot.Tier,
		"bytes", len(snapshot.Content),
		"published", outcome.Publish != nil && outcome.Publish.Changed,
	)

	if requireFresh && snapshot.Tier == memory.DegradedEmpty {
		return fmt.Errorf("no content available and --require-fresh is set")
	}
	return nil
}

// destinationFunc maps the configured destination kind to a publish
// target constructor. Nil means resolve-only.
func destinationFunc(cfg *config.Config, client *github.Client) engine.DestinationFunc {
	switch cfg.Destination.Kind {
	case config.DestinationFile:
		return func(ctx context.Context, mint memory.MintFunc) (publish.Destination, error) {
			return publish.NewFileDestination(cfg.Destination.FilePath)
		}
	case config.DestinationGitHub:
		return func(ctx context.Context, mint memory.MintFunc) (publish.Destination, error) {
			token, err := mint(ctx)
			if err != nil {
				return nil, err
			}
			return publish.NewGitHubDestination(publish.GitHubDestinationConfig{
				Client:  client,
				Token:   token,
				Owner:   cfg.Destination.Owner,
				Repo:    cfg.Destination.Repo,
				Path:    cfg.Destination.Path,
				Branch:  cfg.Destination.Branch,
				Message: cfg.Destination.Message,
			})
		}
	default:
		return nil
	}
}
