// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

package github

import "time"

// Account is the owner of an App installation (a user or an
// organization).
type Account struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
	Type  string `json:"type"`
}

// Installation is the remote system's binding between a signing
// identity and the resources it may act on.
type Installation struct {
	ID      int64   `json:"id"`
	Account Account `json:"account"`
}

// InstallationRef identifies one App installation. Supplied directly
// by the caller when known, otherwise discovered by listing the App's
// installations and matching the owner name. Discovery results are
// never cached beyond one run.
type InstallationRef struct {
	InstallationID int64
}

// CommitIdentity is the fixed, non-personal automation identity that
// published artifact changes are attributed to.
type CommitIdentity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// FileContent is one file read through the repository contents
// endpoint.
type FileContent struct {
	// Content is the decoded file content.
	Content []byte

	// SHA is the git blob SHA of the current content. Passing it back
	// on a write makes the write conditional: the remote rejects the
	// update if the file changed in between.
	SHA string
}

// ContentUpdate is the remote's acknowledgment of a contents write.
type ContentUpdate struct {
	// SHA is the new blob SHA.
	SHA string

	// CommitSHA is the commit that recorded the write.
	CommitSHA string
}

// AccessToken is the short-lived bearer credential obtained by
// exchanging an assertion. It exists only in process memory: the value
// is held in a private byte slice that Discard overwrites, and nothing
// in the engine ever serializes the token to a durable store.
type AccessToken struct {
	value     []byte
	discarded bool

	// ExpiresAt is the token's remote-imposed expiry instant.
	ExpiresAt time.Time
}

// Value returns the bearer value, or the empty string after Discard.
func (t *AccessToken) Value() string {
	if t == nil || t.discarded {
		return ""
	}
	return string(t.value)
}

// Discard overwrites the token value in place. Idempotent. Called in a
// deferred cleanup step on every engine exit path once the run's
// remote calls complete.
func (t *AccessToken) Discard() {
	if t == nil || t.discarded {
		return
	}
	for index := range t.value {
		t.value[index] = 0
	}
	t.value = nil
	t.discarded = true
}

// Discarded reports whether the token value has been destroyed.
func (t *AccessToken) Discarded() bool {
	return t == nil || t.discarded
}
