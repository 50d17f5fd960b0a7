// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

// Package fault defines the error kinds shared by the credential and
// memory resolution engine. Every fatal error surfaced to a caller
// carries exactly one Kind so that schedulers can distinguish
// misconfiguration (do not re-run) from transient failures (re-invoke
// the whole engine).
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error. The set is closed: callers switch on
// Kind to decide retry policy, so adding a kind is an API change.
type Kind string

const (
	// Configuration means a required input was absent or malformed.
	// Fatal, no partial effect, re-running without a config change
	// cannot succeed.
	Configuration Kind = "configuration"

	// Authentication means signing failed or the remote rejected our
	// credentials (401/403). Fatal, no internal retry.
	Authentication Kind = "authentication"

	// InstallationNotFound means installation discovery matched no
	// installation for the requested owner.
	InstallationNotFound Kind = "installation_not_found"

	// Transient means a network error, timeout, or remote 5xx. Fatal
	// to the current run; the caller may re-invoke the engine.
	Transient Kind = "transient"

	// DataIntegrity means the remote reported success but returned
	// empty or malformed content.
	DataIntegrity Kind = "data_integrity"
)

// Error is an engine error tagged with its Kind. The message is safe to
// emit: constructors never embed credential material, and the CLI passes
// all error text through the run's secret guard regardless.
type Error struct {
	Kind    Kind
	Message string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Wrapped }

// New creates an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind wrapping an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Wrapped: err}
}

// KindOf returns the Kind of err, or the empty string when err carries
// no engine classification.
func KindOf(err error) Kind {
	var engineError *Error
	if errors.As(err, &engineError) {
		return engineError.Kind
	}
	return ""
}

// IsKind reports whether err is an engine error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
