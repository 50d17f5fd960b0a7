// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

// Package engine composes one run: mint a credential, resolve the
// freshest snapshot, publish it. The three steps execute strictly
// sequentially because each step's output is the next step's input.
// The run's access token is minted lazily, shared between the fetch
// and the publish, and discarded in a deferred cleanup on every exit
// path.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/audit"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/clock"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/fault"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/github"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/memory"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/publish"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/secretguard"
)

// DefaultFreshness is the freshness threshold applied when the caller
// does not set one: long enough to cover an hourly schedule plus an
// hour of slack.
const DefaultFreshness = 2 * time.Hour

// Source locates the remote artifact the resolver fetches.
type Source struct {
	Owner string
	Repo  string
	Path  string

	// Ref selects a branch, tag, or commit; empty means the
	// repository's default branch.
	Ref string
}

// DestinationFunc constructs the publish destination for one run. It
// receives the run's memoized mint function so a remote destination
// can obtain the shared access token; a local destination ignores it.
type DestinationFunc func(ctx context.Context, mint memory.MintFunc) (publish.Destination, error)

// Config assembles one engine's collaborators and targets.
type Config struct {
	// Client performs all remote API calls. Required when either a
	// signing identity or a remote destination is configured.
	Client *github.Client

	// Identity signs the run's assertion. Nil means no credential is
	// available: the resolver can still serve from cache and degrade.
	Identity *github.SigningIdentity

	// Installation, when known, skips discovery. Otherwise OwnerHint
	// drives discovery at mint time.
	Installation *github.InstallationRef
	OwnerHint    string

	// Source is the remote artifact location. Required when Identity
	// is set.
	Source Source

	// CachePath is the local cache file. Required.
	CachePath string

	// Freshness is the maximum cache age served without a remote
	// attempt. Zero means DefaultFreshness.
	Freshness time.Duration

	// ArchiveDir, when non-empty, collects compressed copies of every
	// remote refresh.
	ArchiveDir string

	// Destination builds the publish target. Nil runs resolve-only.
	Destination DestinationFunc

	// Guard is the run's secret redaction set. Required.
	Guard *secretguard.Guard

	// Ledger receives the run's decision records. Nil disables
	// auditing.
	Ledger *audit.Ledger

	// Logger defaults to slog.Default(); Clock to clock.Real().
	Logger *slog.Logger
	Clock  clock.Clock
}

// Outcome is the result of one run.
type Outcome struct {
	Snapshot *memory.Snapshot

	// Publish is nil when no publish was attempted (no destination
	// configured, or the snapshot degraded to empty).
	Publish *publish.Decision
}

// Engine executes runs. One Engine serves one configuration; runs are
// short-lived and do not overlap within a process.
type Engine struct {
	config Config
	logger *slog.Logger
	clock  clock.Clock
}

// New validates the configuration and constructs an Engine.
func New(config Config) (*Engine, error) {
	if config.CachePath == "" {
		return nil, fault.New(fault.Configuration, "cache path is required")
	}
	if config.Guard == nil {
		return nil, fault.New(fault.Configuration, "secret guard is required")
	}
	if config.Identity != nil {
		if config.Client == nil {
			return nil, fault.New(fault.Configuration, "client is required when a signing identity is configured")
		}
		if config.Source.Owner == "" || config.Source.Repo == "" || config.Source.Path == "" {
			return nil, fault.New(fault.Configuration, "source owner, repo, and path are required when a signing identity is configured")
		}
	}
	if config.Freshness == 0 {
		config.Freshness = DefaultFreshness
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &Engine{config: config, logger: logger, clock: clk}, nil
}

// Run executes one mint → resolve → publish sequence. Whatever the
// exit path, any token minted during the run is discarded before Run
// returns.
func (e *Engine) Run(ctx context.Context) (*Outcome, error) {
	tokens := &tokenSource{engine: e}
	defer tokens.discard()

	resolver := memory.New(memory.Config{
		Clock:      e.clock,
		Logger:     e.logger,
		Ledger:     e.config.Ledger,
		ArchiveDir: e.config.ArchiveDir,
	})

	var mint memory.MintFunc
	if e.config.Identity != nil {
		mint = tokens.token
	}

	snapshot, err := resolver.Resolve(ctx, e.config.CachePath, e.config.Freshness, e.fetch, mint)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{Snapshot: snapshot}

	if e.config.Destination == nil {
		return outcome, nil
	}
	if snapshot.Tier == memory.DegradedEmpty {
		// An empty snapshot would overwrite whatever the destination
		// already holds with nothing.
		e.logger.Warn("skipping publish of degraded empty snapshot")
		return outcome, nil
	}

	destination, err := e.config.Destination(ctx, tokens.token)
	if err != nil {
		return outcome, err
	}

	committer, err := publish.New(publish.Config{
		Guard:  e.config.Guard,
		Logger: e.logger,
		Ledger: e.config.Ledger,
	})
	if err != nil {
		return outcome, err
	}

	decision, err := committer.Publish(ctx, snapshot, destination)
	if err != nil {
		return outcome, err
	}
	outcome.Publish = decision
	return outcome, nil
}

// fetch retrieves the remote artifact body with the supplied token.
func (e *Engine) fetch(ctx context.Context, token *github.AccessToken) ([]byte, error) {
	source := e.config.Source
	file, err := e.config.Client.GetFile(ctx, token, source.Owner, source.Repo, source.Path, source.Ref)
	if err != nil {
		return nil, err
	}
	return file.Content, nil
}

// tokenSource memoizes the run's access token so the resolver's fetch
// and the publish destination share one credential, minted at most
// once per run.
type tokenSource struct {
	engine *Engine
	minted *github.AccessToken
}

func (s *tokenSource) token(ctx context.Context) (*github.AccessToken, error) {
	if s.minted != nil {
		return s.minted, nil
	}
	config := s.engine.config
	if config.Identity == nil {
		return nil, fault.New(fault.Configuration, "no signing identity configured")
	}
	token, err := config.Client.Mint(ctx, config.Identity, config.Installation, config.OwnerHint)
	if err != nil {
		return nil, err
	}
	s.minted = token
	return token, nil
}

func (s *tokenSource) discard() {
	s.minted.Discard()
}
