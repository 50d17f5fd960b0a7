// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindSurvivesWrapping(t *testing.T) {
	underlying := errors.New("connection reset")
	err := Wrap(Transient, underlying, "fetching artifact")

	wrapped := fmt.Errorf("run failed: %w", err)

	if !IsKind(wrapped, Transient) {
		t.Errorf("kind lost through fmt.Errorf wrapping: %v", wrapped)
	}
	if KindOf(wrapped) != Transient {
		t.Errorf("KindOf = %q, want transient", KindOf(wrapped))
	}
	if !errors.Is(wrapped, underlying) {
		t.Error("underlying error lost through Wrap")
	}
}

func TestKindOfUnclassified(t *testing.T) {
	if kind := KindOf(errors.New("plain")); kind != "" {
		t.Errorf("KindOf(plain error) = %q, want empty", kind)
	}
	if IsKind(nil, Transient) {
		t.Error("IsKind(nil) = true")
	}
}

func TestErrorMessage(t *testing.T) {
	err := New(Configuration, "cache path is required")
	if got := err.Error(); got != "configuration: cache path is required" {
		t.Errorf("Error() = %q", got)
	}
}
