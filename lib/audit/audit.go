// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

// Package audit appends structured decision records to a JSONL ledger.
// The resolver and the committer emit one record per terminal state
// they reach (which freshness tier was returned, whether a publish
// happened) so an external audit sink can reconstruct every run's
// decisions without parsing log output.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/clock"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/secretguard"
)

// Decision is the outcome classification of an audited action.
type Decision string

const (
	// Allowed means the action proceeded normally.
	Allowed Decision = "allowed"

	// Denied means the action was refused (for example, a publish
	// blocked because the content contained registered secret
	// material).
	Denied Decision = "denied"

	// Degraded means the action completed through a fallback path
	// (stale local data, empty snapshot).
	Degraded Decision = "degraded"
)

// Record is one entry in the decision ledger.
type Record struct {
	Timestamp     string   `json:"timestamp"`
	Action        string   `json:"action"`
	Decision      Decision `json:"decision"`
	Justification string   `json:"justification"`
	CorrelationID string   `json:"correlation_id"`
	RunID         string   `json:"run_id,omitempty"`
}

// Ledger appends decision records to a JSONL file. Every justification
// passes through the run's secret guard before touching disk. A nil
// *Ledger is valid and discards records, so callers do not need to
// branch on whether auditing is configured.
type Ledger struct {
	path  string
	guard *secretguard.Guard
	clock clock.Clock
	runID string
}

// Config holds the inputs for opening a Ledger.
type Config struct {
	// Path is the JSONL file to append to. The parent directory is
	// created if absent.
	Path string

	// Guard redacts justifications before they are written. Required.
	Guard *secretguard.Guard

	// Clock provides record timestamps. Defaults to clock.Real().
	Clock clock.Clock

	// RunID tags every record with the invoking scheduler's run
	// identifier. Optional; taken from GITHUB_RUN_ID by the CLI.
	RunID string
}

// Open creates a Ledger appending to the configured path.
func Open(config Config) (*Ledger, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("audit: ledger path is required")
	}
	if config.Guard == nil {
		return nil, fmt.Errorf("audit: secret guard is required")
	}

	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0o755); err != nil {
		return nil, fmt.Errorf("audit: creating ledger directory: %w", err)
	}

	return &Ledger{
		path:  config.Path,
		guard: config.Guard,
		clock: clk,
		runID: config.RunID,
	}, nil
}

// Record appends one decision record. Appends are line-atomic for
// records under the pipe buffer size, which these always are; two
// concurrent engine processes can share one ledger file.
func (l *Ledger) Record(action string, decision Decision, justification string) error {
	if l == nil {
		return nil
	}

	entry := Record{
		Timestamp:     l.clock.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Action:        action,
		Decision:      decision,
		Justification: l.guard.Redact(justification),
		CorrelationID: uuid.NewString(),
		RunID:         l.runID,
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit: encoding record: %w", err)
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("audit: opening ledger: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("audit: appending record: %w", err)
	}
	return nil
}
