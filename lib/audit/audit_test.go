// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/clock"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/secretguard"
)

func TestLedgerAppendsRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit", "decisions.jsonl")
	fake := clock.Fake(time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC))

	ledger, err := Open(Config{
		Path:  path,
		Guard: secretguard.New(),
		Clock: fake,
		RunID: "run-42",
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := ledger.Record("memory.resolve", Allowed, "local cache fresh (age 12m)"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := ledger.Record("memory.resolve", Degraded, "remote unavailable, serving stale"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	records := readLedger(t, path)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	first := records[0]
	if first.Action != "memory.resolve" || first.Decision != Allowed {
		t.Errorf("first record = %+v", first)
	}
	if first.RunID != "run-42" {
		t.Errorf("run_id = %q, want run-42", first.RunID)
	}
	if first.CorrelationID == "" {
		t.Error("correlation_id missing")
	}
	if !strings.HasPrefix(first.Timestamp, "2026-05-01T10:30:00") {
		t.Errorf("timestamp = %q", first.Timestamp)
	}
	if records[1].Decision != Degraded {
		t.Errorf("second decision = %q, want degraded", records[1].Decision)
	}
}

func TestLedgerRedactsJustification(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "decisions.jsonl")

	guard := secretguard.New()
	guard.Register("ghs_token_value_9876")

	ledger, err := Open(Config{Path: path, Guard: guard})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := ledger.Record("credential.mint", Allowed, "exchanged ghs_token_value_9876"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if strings.Contains(string(raw), "ghs_token_value_9876") {
		t.Errorf("ledger contains unredacted secret: %s", raw)
	}
	if !strings.Contains(string(raw), secretguard.Placeholder) {
		t.Errorf("ledger missing redaction placeholder: %s", raw)
	}
}

func TestNilLedgerDiscards(t *testing.T) {
	var ledger *Ledger
	if err := ledger.Record("anything", Allowed, "no-op"); err != nil {
		t.Errorf("nil ledger Record: %v", err)
	}
}

func TestOpenValidation(t *testing.T) {
	if _, err := Open(Config{Guard: secretguard.New()}); err == nil {
		t.Error("Open without path succeeded")
	}
	if _, err := Open(Config{Path: "/tmp/x.jsonl"}); err == nil {
		t.Error("Open without guard succeeded")
	}
}

func readLedger(t *testing.T, path string) []Record {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening ledger: %v", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record Record
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("parsing ledger line %q: %v", scanner.Text(), err)
		}
		records = append(records, record)
	}
	return records
}
