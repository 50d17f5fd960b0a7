// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

// Package publish writes a resolved snapshot to a destination store,
// but only when the content actually differs from what is already
// published. The digest comparison makes repeated runs idempotent: an
// unchanged snapshot produces no write of any kind.
package publish

import (
	"context"
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Destination abstracts the store a snapshot is published to. The
// committer probes the current state first and writes only on a digest
// mismatch, so both methods are called at most once per run, in that
// order.
type Destination interface {
	// CurrentDigest returns the digest of the content currently at the
	// destination, or the empty string when nothing is published yet.
	CurrentDigest(ctx context.Context) (string, error)

	// Write replaces the destination content, attributed to the
	// store's fixed automation identity. Called only after
	// CurrentDigest, and only when the digests differ.
	Write(ctx context.Context, content []byte) error
}

// Digest returns the hex content digest used for publish comparisons.
func Digest(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}
