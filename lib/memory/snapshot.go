// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

// Package memory resolves the freshest available copy of the active
// memory artifact. Resolution walks a fixed state machine: check the
// local cache, attempt a remote fetch when the cache cannot serve, and
// fall back to whatever local content exists when the remote cannot be
// reached. Every combination of local state, credential availability,
// and remote outcome maps to a snapshot tier; resolution never fails
// with an unhandled error.
package memory

import "time"

// Tier classifies where a snapshot's content came from, ordered from
// best to worst outcome.
type Tier string

const (
	// LocalFresh means the local cache satisfied the freshness
	// threshold and no remote call was made.
	LocalFresh Tier = "LOCAL_FRESH"

	// Remote means the content was fetched from the remote source this
	// run and persisted to the local cache.
	Remote Tier = "REMOTE"

	// LocalStale means the remote could not serve and the snapshot
	// carries local content older than the freshness threshold.
	LocalStale Tier = "LOCAL_STALE"

	// DegradedEmpty means neither the local cache nor the remote could
	// provide content. The snapshot is valid but empty; whether that is
	// fatal is the caller's policy.
	DegradedEmpty Tier = "DEGRADED_EMPTY"
)

func (t Tier) String() string { return string(t) }

// Degraded reports whether the tier represents a fallback outcome.
func (t Tier) Degraded() bool { return t == LocalStale || t == DegradedEmpty }

// Snapshot is the result of one resolution. Immutable after creation.
type Snapshot struct {
	// Content is the artifact body. Empty only for DegradedEmpty.
	Content []byte

	// Tier records which branch of the state machine produced the
	// content.
	Tier Tier

	// Age is the content's age at resolution time: zero for Remote,
	// the cache file's age for the local tiers, and nil for
	// DegradedEmpty where no content exists to have an age.
	Age *time.Duration

	// RetrievedAt is the clock reading when resolution completed.
	RetrievedAt time.Time
}
