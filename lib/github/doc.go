// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

// Package github is a minimal GitHub REST client for the credential
// and memory resolution engine. It covers exactly the three remote
// interactions the engine needs: listing App installations
// (authenticated with a freshly signed assertion), exchanging an
// assertion for a short-lived installation access token, and reading
// and writing one artifact file through the repository contents
// endpoint (authenticated with that token).
//
// Unlike a general-purpose client there is no stored authenticator:
// credentials are minted once per run, threaded explicitly through
// each call, and discarded when the run's remote work completes. Every
// minted credential is registered with the run's secret guard before
// any other work happens, so no log line or audit record can carry its
// raw value.
package github
