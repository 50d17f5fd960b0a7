// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

package secretguard

import (
	"context"
	"fmt"
	"log/slog"
)

// Handler wraps a slog.Handler and redacts registered secrets from the
// message and every attribute value before the record reaches the
// inner handler. Install it at logger construction so no code path can
// log an unredacted credential:
//
//	logger := slog.New(guard.Handler(slog.NewTextHandler(os.Stderr, nil)))
func (g *Guard) Handler(inner slog.Handler) slog.Handler {
	return &redactingHandler{guard: g, inner: inner}
}

type redactingHandler struct {
	guard *Guard
	inner slog.Handler
}

func (h *redactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *redactingHandler) Handle(ctx context.Context, record slog.Record) error {
	redacted := slog.NewRecord(record.Time, record.Level, h.guard.Redact(record.Message), record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		redacted.AddAttrs(h.redactAttr(attr))
		return true
	})
	return h.inner.Handle(ctx, redacted)
}

func (h *redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for index, attr := range attrs {
		redacted[index] = h.redactAttr(attr)
	}
	return &redactingHandler{guard: h.guard, inner: h.inner.WithAttrs(redacted)}
}

func (h *redactingHandler) WithGroup(name string) slog.Handler {
	return &redactingHandler{guard: h.guard, inner: h.inner.WithGroup(name)}
}

// redactAttr redacts an attribute value. Group attributes are walked
// recursively; every other kind is rendered to a string only when its
// text form contains a registered secret, preserving the original kind
// (Int, Duration, Time) in the common case.
func (h *redactingHandler) redactAttr(attr slog.Attr) slog.Attr {
	value := attr.Value.Resolve()

	if value.Kind() == slog.KindGroup {
		group := value.Group()
		redacted := make([]slog.Attr, len(group))
		for index, member := range group {
			redacted[index] = h.redactAttr(member)
		}
		return slog.Attr{Key: attr.Key, Value: slog.GroupValue(redacted...)}
	}

	if value.Kind() == slog.KindString {
		return slog.String(attr.Key, h.guard.Redact(value.String()))
	}

	if text := fmt.Sprintf("%v", value.Any()); h.guard.Contains(text) {
		return slog.String(attr.Key, h.guard.Redact(text))
	}
	return slog.Attr{Key: attr.Key, Value: value}
}
