// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides a Clock interface over the time package with a
// real implementation for production and a deterministic fake for
// tests. Freshness thresholds and credential expiries are pure
// functions of an injected Clock, which keeps every timing property in
// the test suite exact rather than sleep-based.
package clock
