// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

package publish

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/audit"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/fault"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/memory"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/secretguard"
)

// publishAction tags the committer's audit records.
const publishAction = "snapshot_publish"

// Decision is the outcome of one publish call.
type Decision struct {
	// Changed reports whether a write happened. When false, the run
	// was a no-op: nothing at the destination was touched.
	Changed bool

	// PriorDigest is the destination's digest before the call, empty
	// when nothing was published yet.
	PriorDigest string

	// NewDigest is the snapshot content's digest.
	NewDigest string
}

// Config holds the committer's collaborators.
type Config struct {
	// Guard screens content for registered secret material before any
	// write. Required.
	Guard *secretguard.Guard

	// Logger receives progress lines. Defaults to slog.Default().
	Logger *slog.Logger

	// Ledger receives one decision record per publish. Nil disables
	// auditing.
	Ledger *audit.Ledger
}

// Committer publishes snapshots idempotently.
type Committer struct {
	guard  *secretguard.Guard
	logger *slog.Logger
	ledger *audit.Ledger
}

// New constructs a Committer.
func New(config Config) (*Committer, error) {
	if config.Guard == nil {
		return nil, fault.New(fault.Configuration, "secret guard is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Committer{
		guard:  config.Guard,
		logger: logger,
		ledger: config.Ledger,
	}, nil
}

// Publish writes snapshot content to the destination when it differs
// from what is already there.
//
// Before anything touches the destination, the content is screened
// against the run's registered secrets: a snapshot that embeds a
// credential value is refused outright, recorded as a denied decision.
// Publishing a credential into a durable store would outlive every
// in-memory discard the rest of the engine performs.
//
// When the content digest equals the destination's current digest, no
// write of any kind occurs and the decision reports Changed == false.
func (c *Committer) Publish(ctx context.Context, snapshot *memory.Snapshot, destination Destination) (*Decision, error) {
	if snapshot == nil {
		return nil, fault.New(fault.Configuration, "snapshot is required")
	}
	if destination == nil {
		return nil, fault.New(fault.Configuration, "destination is required")
	}

	if c.guard.Contains(string(snapshot.Content)) {
		c.audit(audit.Denied, "snapshot content contains registered secret material; publish refused")
		return nil, fault.New(fault.DataIntegrity, "snapshot content contains secret material")
	}

	newDigest := Digest(snapshot.Content)

	priorDigest, err := destination.CurrentDigest(ctx)
	if err != nil {
		return nil, fmt.Errorf("probing destination state: %w", err)
	}

	if priorDigest == newDigest {
		c.audit(audit.Allowed, "content unchanged (digest %s); no write performed", shortDigest(newDigest))
		c.logger.Info("destination already current", "digest", shortDigest(newDigest))
		return &Decision{Changed: false, PriorDigest: priorDigest, NewDigest: newDigest}, nil
	}

	if err := destination.Write(ctx, snapshot.Content); err != nil {
		return nil, fmt.Errorf("writing destination: %w", err)
	}

	c.audit(audit.Allowed, "published %d bytes (digest %s -> %s)", len(snapshot.Content), shortDigest(priorDigest), shortDigest(newDigest))
	c.logger.Info("published snapshot",
		"bytes", len(snapshot.Content),
		"tier", snapshot.Tier,
		"prior_digest", shortDigest(priorDigest),
		"new_digest", shortDigest(newDigest),
	)
	return &Decision{Changed: true, PriorDigest: priorDigest, NewDigest: newDigest}, nil
}

func (c *Committer) audit(decision audit.Decision, format string, args ...any) {
	justification := format
	if len(args) > 0 {
		justification = fmt.Sprintf(format, args...)
	}
	if err := c.ledger.Record(publishAction, decision, justification); err != nil {
		c.logger.Warn("recording audit decision failed", "error", err)
	}
}

// shortDigest truncates a digest for log lines; "none" stands in for
// an absent prior state.
func shortDigest(digest string) string {
	if digest == "" {
		return "none"
	}
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
