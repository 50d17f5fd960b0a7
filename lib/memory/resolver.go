// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/audit"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/clock"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/fault"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/github"
)

// resolveAction tags the resolver's audit records.
const resolveAction = "memory_resolve"

// FetchFunc retrieves the artifact body from the remote source using
// the supplied access token. An empty body is treated as a fetch
// failure: the remote artifact is never legitimately empty, so an
// empty response indicates truncation or corruption upstream.
type FetchFunc func(ctx context.Context, token *github.AccessToken) ([]byte, error)

// MintFunc produces an access token for the remote attempt. The
// resolver calls it lazily, only when the local cache cannot serve. A
// nil MintFunc means no credential is available this run. The resolver
// never discards the returned token; its lifecycle belongs to the
// caller, who typically shares one token between the fetch and the
// later publish.
type MintFunc func(ctx context.Context) (*github.AccessToken, error)

// Config holds the resolver's collaborators.
type Config struct {
	// Clock drives freshness math. Defaults to clock.Real().
	Clock clock.Clock

	// Logger receives progress and degradation warnings. Defaults to
	// slog.Default().
	Logger *slog.Logger

	// Ledger receives one decision record per resolution. Nil disables
	// auditing.
	Ledger *audit.Ledger

	// ArchiveDir, when non-empty, receives a compressed timestamped
	// copy of every remote refresh.
	ArchiveDir string
}

// Resolver walks the resolution state machine. Zero-value collaborators
// are defaulted; construct with New.
type Resolver struct {
	clock      clock.Clock
	logger     *slog.Logger
	ledger     *audit.Ledger
	archiveDir string
}

// New constructs a Resolver.
func New(config Config) *Resolver {
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		clock:      clk,
		logger:     logger,
		ledger:     config.Ledger,
		archiveDir: config.ArchiveDir,
	}
}

// Resolve returns the freshest available snapshot of the artifact at
// localPath, at most maxAge old when served from cache.
//
// The state machine runs in order, each state terminal once reached:
// the local cache serves directly when present, non-empty, and no
// older than maxAge (age equal to maxAge is fresh); otherwise a remote
// fetch is attempted, persisting on success; otherwise resolution
// falls back to stale local content, or to an empty degraded snapshot
// when none exists. Every combination of local state, credential
// availability, and remote outcome lands on one of the four tiers —
// after argument validation, Resolve does not fail.
func (r *Resolver) Resolve(ctx context.Context, localPath string, maxAge time.Duration, fetch FetchFunc, mint MintFunc) (*Snapshot, error) {
	if localPath == "" {
		return nil, fault.New(fault.Configuration, "local cache path is required")
	}
	if maxAge < 0 {
		return nil, fault.New(fault.Configuration, "freshness threshold must not be negative")
	}
	if fetch == nil {
		return nil, fault.New(fault.Configuration, "fetch function is required")
	}

	now := r.clock.Now()

	local, err := readLocal(localPath, now)
	if err != nil {
		// An unreadable cache is handled like a missing one so the
		// run can still try the remote.
		r.logger.Warn("local cache unreadable", "path", localPath, "error", err)
	}

	if local.usable() && local.age <= maxAge {
		r.audit(audit.Allowed, "local cache fresh (age %s, threshold %s)", local.age, maxAge)
		r.logger.Info("serving local cache", "path", localPath, "age", local.age)
		return r.snapshot(LocalFresh, local.content, &local.age, now), nil
	}

	reason := staleness(local)
	r.logger.Info("local cache cannot serve, attempting remote", "reason", reason, "path", localPath)

	content, remoteErr := r.attemptRemote(ctx, fetch, mint)
	if remoteErr == nil {
		if err := persist(localPath, content); err != nil {
			// The content is already in hand; the cache is an
			// optimization for the next run, not a requirement of
			// this one.
			r.logger.Warn("persisting refreshed cache failed", "path", localPath, "error", err)
		}
		if r.archiveDir != "" {
			if _, err := archive(r.archiveDir, content, now); err != nil {
				r.logger.Warn("archiving refreshed snapshot failed", "dir", r.archiveDir, "error", err)
			}
		}
		age := time.Duration(0)
		r.audit(audit.Allowed, "remote fetch succeeded (%d bytes, local cache was %s)", len(content), reason)
		r.logger.Info("refreshed from remote", "bytes", len(content), "path", localPath)
		return r.snapshot(Remote, content, &age, now), nil
	}

	if local.usable() {
		r.audit(audit.Degraded, "remote unavailable (%v), serving stale local cache (age %s, threshold %s)", remoteErr, local.age, maxAge)
		r.logger.Warn("serving stale local cache",
			"path", localPath,
			"age", local.age,
			"threshold", maxAge,
			"remote_error", remoteErr,
		)
		return r.snapshot(LocalStale, local.content, &local.age, now), nil
	}

	r.audit(audit.Degraded, "no local cache and remote unavailable (%v); returning empty snapshot", remoteErr)
	r.logger.Warn("no content available, degrading to empty snapshot",
		"path", localPath,
		"remote_error", remoteErr,
	)
	return r.snapshot(DegradedEmpty, nil, nil, now), nil
}

// attemptRemote mints a credential and runs the fetch. Every failure
// is returned for the fallback chain; nothing here is fatal to the
// resolution.
func (r *Resolver) attemptRemote(ctx context.Context, fetch FetchFunc, mint MintFunc) ([]byte, error) {
	if mint == nil {
		return nil, fault.New(fault.Configuration, "no credential available for remote fetch")
	}

	token, err := mint(ctx)
	if err != nil {
		return nil, err
	}

	content, err := fetch(ctx, token)
	if err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return nil, fault.New(fault.DataIntegrity, "remote fetch returned empty body")
	}
	return content, nil
}

func (r *Resolver) snapshot(tier Tier, content []byte, age *time.Duration, now time.Time) *Snapshot {
	return &Snapshot{
		Content:     content,
		Tier:        tier,
		Age:         age,
		RetrievedAt: now,
	}
}

func (r *Resolver) audit(decision audit.Decision, format string, args ...any) {
	justification := format
	if len(args) > 0 {
		justification = fmt.Sprintf(format, args...)
	}
	if err := r.ledger.Record(resolveAction, decision, justification); err != nil {
		r.logger.Warn("recording audit decision failed", "error", err)
	}
}

// staleness names why the local cache could not serve directly.
func staleness(local localState) string {
	switch {
	case !local.present:
		return "missing"
	case len(local.content) == 0:
		return "empty"
	default:
		return "stale"
	}
}
