// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

// Package secretguard redacts registered secret values from every
// string the engine emits. One Guard is created per engine run and
// discarded with it — there is no process-wide singleton. Components
// register each credential (assertion, access token) the moment it is
// produced; from then on any log line, audit record, or error message
// that passes through the guard has the exact value replaced with a
// fixed placeholder.
package secretguard

import (
	"strings"
	"sync"
)

// Placeholder replaces every registered secret value in redacted text.
const Placeholder = "[REDACTED]"

// minimumSecretLength guards against registering values so short that
// redaction would mangle ordinary text. Real credentials (JWTs,
// installation tokens) are far longer.
const minimumSecretLength = 8

// Guard holds the redaction set for one engine run. The set is
// append-only: values cannot be unregistered, because a credential
// remains sensitive for the rest of the process lifetime even after
// it has been discarded.
//
// Guard is safe for concurrent use, though one engine run calls it
// from a single goroutine.
type Guard struct {
	mu      sync.Mutex
	secrets []string
}

// New returns an empty Guard for one engine run.
func New() *Guard {
	return &Guard{}
}

// Register adds a value to the redaction set. Empty and very short
// values are ignored. Registering the same value twice is harmless.
func (g *Guard) Register(value string) {
	if len(value) < minimumSecretLength {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, existing := range g.secrets {
		if existing == value {
			return
		}
	}
	g.secrets = append(g.secrets, value)
}

// Redact replaces every exact occurrence of a registered value in text
// with Placeholder. Longer secrets are replaced first so that a secret
// containing another registered secret as a substring does not leak
// its remainder.
func (g *Guard) Redact(text string) string {
	g.mu.Lock()
	ordered := make([]string, len(g.secrets))
	copy(ordered, g.secrets)
	g.mu.Unlock()

	// Insertion order is fine except when one secret contains another;
	// sort longest-first to handle that case.
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && len(ordered[j]) > len(ordered[j-1]); j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}

	for _, secretValue := range ordered {
		text = strings.ReplaceAll(text, secretValue, Placeholder)
	}
	return text
}

// Contains reports whether text contains any registered secret value.
// The committer uses this as a pre-flight check before writing content
// to a durable destination.
func (g *Guard) Contains(text string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, secretValue := range g.secrets {
		if strings.Contains(text, secretValue) {
			return true
		}
	}
	return false
}
