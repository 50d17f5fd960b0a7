// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

package secretguard

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestRedactExactOccurrences(t *testing.T) {
	guard := New()
	guard.Register("ghs_installation_token_12345")

	input := "fetching with token ghs_installation_token_12345 twice: ghs_installation_token_12345"
	got := guard.Redact(input)

	if strings.Contains(got, "ghs_installation_token_12345") {
		t.Errorf("redacted text still contains the secret: %q", got)
	}
	if want := "fetching with token [REDACTED] twice: [REDACTED]"; got != want {
		t.Errorf("Redact = %q, want %q", got, want)
	}
}

func TestRedactUnregisteredTextUnchanged(t *testing.T) {
	guard := New()
	guard.Register("ghs_secret_value_here")

	input := "no secrets in this line"
	if got := guard.Redact(input); got != input {
		t.Errorf("Redact changed clean text: %q", got)
	}
}

func TestRegisterIgnoresShortValues(t *testing.T) {
	guard := New()
	guard.Register("")
	guard.Register("abc")

	if got := guard.Redact("abc is a common string"); got != "abc is a common string" {
		t.Errorf("short value was registered: %q", got)
	}
}

func TestRedactNestedSecrets(t *testing.T) {
	// A secret that is a substring of a longer secret must not leave
	// the longer secret's remainder exposed.
	guard := New()
	guard.Register("tokenpart")
	guard.Register("tokenpart-with-suffix")

	got := guard.Redact("value=tokenpart-with-suffix")
	if strings.Contains(got, "with-suffix") {
		t.Errorf("longer secret leaked its suffix: %q", got)
	}
}

func TestContains(t *testing.T) {
	guard := New()
	guard.Register("eyJhbGciOiJSUzI1NiJ9.payload.sig")

	if !guard.Contains("header eyJhbGciOiJSUzI1NiJ9.payload.sig trailer") {
		t.Error("Contains missed an embedded secret")
	}
	if guard.Contains("clean content") {
		t.Error("Contains reported a secret in clean content")
	}
}

func TestHandlerRedactsMessageAndAttrs(t *testing.T) {
	guard := New()
	guard.Register("ghs_token_abcdef123456")

	var buffer bytes.Buffer
	logger := slog.New(guard.Handler(slog.NewTextHandler(&buffer, nil)))

	logger.Info("exchanged ghs_token_abcdef123456",
		"token", "ghs_token_abcdef123456",
		"attempt", 1,
	)

	output := buffer.String()
	if strings.Contains(output, "ghs_token_abcdef123456") {
		t.Errorf("log output contains the secret: %q", output)
	}
	if !strings.Contains(output, Placeholder) {
		t.Errorf("log output missing placeholder: %q", output)
	}
	if !strings.Contains(output, "attempt=1") {
		t.Errorf("non-secret attribute mangled: %q", output)
	}
}

func TestHandlerWithAttrs(t *testing.T) {
	guard := New()
	guard.Register("assertion-secret-value")

	var buffer bytes.Buffer
	logger := slog.New(guard.Handler(slog.NewTextHandler(&buffer, nil)))
	logger = logger.With("credential", "assertion-secret-value")

	logger.Info("minting")

	if strings.Contains(buffer.String(), "assertion-secret-value") {
		t.Errorf("WithAttrs leaked the secret: %q", buffer.String())
	}
}
