// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/audit"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/clock"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/fault"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/github"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/secretguard"
)

var resolveBase = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func writeCache(t *testing.T, path string, content []byte, modTime time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating cache directory: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("writing cache file: %v", err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("setting cache mtime: %v", err)
	}
}

func mintOK(ctx context.Context) (*github.AccessToken, error) {
	return &github.AccessToken{ExpiresAt: resolveBase.Add(time.Hour)}, nil
}

func mintFails(ctx context.Context) (*github.AccessToken, error) {
	return nil, fault.New(fault.Authentication, "bad credentials")
}

func fetchReturning(content []byte) FetchFunc {
	return func(ctx context.Context, token *github.AccessToken) ([]byte, error) {
		return content, nil
	}
}

func fetchFails(ctx context.Context, token *github.AccessToken) ([]byte, error) {
	return nil, fault.New(fault.Transient, "remote unreachable")
}

func TestResolveFreshnessBoundary(t *testing.T) {
	maxAge := 2 * time.Hour

	cases := []struct {
		name       string
		age        time.Duration
		wantTier   Tier
		wantRemote bool
	}{
		{"well within threshold", time.Minute, LocalFresh, false},
		{"age exactly at threshold", maxAge, LocalFresh, false},
		{"one second past threshold", maxAge + time.Second, Remote, true},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "ACTIVE_MEMORY.md")
			writeCache(t, path, []byte("cached"), resolveBase.Add(-testCase.age))

			fetched := false
			fetch := func(ctx context.Context, token *github.AccessToken) ([]byte, error) {
				fetched = true
				return []byte("remote"), nil
			}

			resolver := New(Config{Clock: clock.Fake(resolveBase)})
			snapshot, err := resolver.Resolve(context.Background(), path, maxAge, fetch, mintOK)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if snapshot.Tier != testCase.wantTier {
				t.Errorf("tier = %s, want %s", snapshot.Tier, testCase.wantTier)
			}
			if fetched != testCase.wantRemote {
				t.Errorf("remote consulted = %v, want %v", fetched, testCase.wantRemote)
			}
		})
	}
}

// TestResolveTotality drives every combination of local cache state,
// credential availability, and remote outcome through Resolve and
// checks that each lands on the expected tier without an error.
func TestResolveTotality(t *testing.T) {
	maxAge := time.Hour

	locals := []struct {
		name  string
		setup func(t *testing.T, path string)
	}{
		{"missing", func(t *testing.T, path string) {}},
		{"empty", func(t *testing.T, path string) {
			writeCache(t, path, nil, resolveBase.Add(-time.Minute))
		}},
		{"stale", func(t *testing.T, path string) {
			writeCache(t, path, []byte("stale content"), resolveBase.Add(-3*time.Hour))
		}},
		{"fresh", func(t *testing.T, path string) {
			writeCache(t, path, []byte("fresh content"), resolveBase.Add(-time.Minute))
		}},
	}

	mints := []struct {
		name string
		mint MintFunc
	}{
		{"credential present", mintOK},
		{"credential absent", nil},
		{"mint fails", mintFails},
	}

	remotes := []struct {
		name  string
		fetch FetchFunc
	}{
		{"fetch succeeds", fetchReturning([]byte("remote content"))},
		{"fetch fails", fetchFails},
		{"fetch empty body", fetchReturning(nil)},
	}

	// remoteServes reports whether a given mint/remote pairing can
	// complete a remote attempt.
	remoteServes := func(mintName, remoteName string) bool {
		return mintName == "credential present" && remoteName == "fetch succeeds"
	}

	for _, local := range locals {
		for _, mint := range mints {
			for _, remote := range remotes {
				name := local.name + "/" + mint.name + "/" + remote.name
				t.Run(name, func(t *testing.T) {
					path := filepath.Join(t.TempDir(), "artifact.md")
					local.setup(t, path)

					resolver := New(Config{Clock: clock.Fake(resolveBase)})
					snapshot, err := resolver.Resolve(context.Background(), path, maxAge, remote.fetch, mint.mint)
					if err != nil {
						t.Fatalf("Resolve: %v", err)
					}

					var want Tier
					switch {
					case local.name == "fresh":
						want = LocalFresh
					case remoteServes(mint.name, remote.name):
						want = Remote
					case local.name == "stale":
						want = LocalStale
					default:
						want = DegradedEmpty
					}
					if snapshot.Tier != want {
						t.Errorf("tier = %s, want %s", snapshot.Tier, want)
					}
					if snapshot.Tier == DegradedEmpty {
						if len(snapshot.Content) != 0 {
							t.Errorf("degraded snapshot carries content: %q", snapshot.Content)
						}
						if snapshot.Age != nil {
							t.Errorf("degraded snapshot has age %v, want nil", *snapshot.Age)
						}
					} else if snapshot.Age == nil {
						t.Error("non-degraded snapshot has nil age")
					}
				})
			}
		}
	}
}

func TestResolveAbsentLocalNoCredential(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.md")

	resolver := New(Config{Clock: clock.Fake(resolveBase)})
	snapshot, err := resolver.Resolve(context.Background(), path, time.Hour, fetchFails, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if snapshot.Tier != DegradedEmpty {
		t.Errorf("tier = %s, want DEGRADED_EMPTY", snapshot.Tier)
	}
	if len(snapshot.Content) != 0 {
		t.Errorf("content = %q, want empty", snapshot.Content)
	}
}

func TestResolveStaleRefreshPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.md")
	writeCache(t, path, []byte("old"), resolveBase.Add(-time.Hour-time.Second))

	remoteContent := []byte(strings.Repeat("x", 500))

	resolver := New(Config{Clock: clock.Fake(resolveBase)})
	snapshot, err := resolver.Resolve(context.Background(), path, time.Hour, fetchReturning(remoteContent), mintOK)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if snapshot.Tier != Remote {
		t.Fatalf("tier = %s, want REMOTE", snapshot.Tier)
	}
	if len(snapshot.Content) != 500 {
		t.Errorf("content length = %d, want 500", len(snapshot.Content))
	}

	persisted, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading refreshed cache: %v", err)
	}
	if string(persisted) != string(remoteContent) {
		t.Error("cache not refreshed with remote content")
	}
}

func TestResolveStaleRemoteFailureServesOriginal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.md")
	original := []byte("original stale content")
	writeCache(t, path, original, resolveBase.Add(-time.Hour-time.Second))

	resolver := New(Config{Clock: clock.Fake(resolveBase)})
	snapshot, err := resolver.Resolve(context.Background(), path, time.Hour, fetchFails, mintOK)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if snapshot.Tier != LocalStale {
		t.Fatalf("tier = %s, want LOCAL_STALE", snapshot.Tier)
	}
	if string(snapshot.Content) != string(original) {
		t.Errorf("content = %q, want original", snapshot.Content)
	}

	persisted, _ := os.ReadFile(path)
	if string(persisted) != string(original) {
		t.Error("cache modified despite failed refresh")
	}
}

func TestResolvePersistFailureStillRemote(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("writing blocker file: %v", err)
	}
	// The cache path's parent is a regular file, so persist cannot
	// succeed.
	path := filepath.Join(blocker, "artifact.md")

	resolver := New(Config{Clock: clock.Fake(resolveBase)})
	snapshot, err := resolver.Resolve(context.Background(), path, time.Hour, fetchReturning([]byte("remote")), mintOK)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if snapshot.Tier != Remote {
		t.Errorf("tier = %s, want REMOTE despite persist failure", snapshot.Tier)
	}
	if string(snapshot.Content) != "remote" {
		t.Errorf("content = %q", snapshot.Content)
	}
}

func TestResolveArchivesRemoteRefresh(t *testing.T) {
	cacheDir := t.TempDir()
	archiveDir := filepath.Join(cacheDir, "archive")
	path := filepath.Join(cacheDir, "artifact.md")

	content := []byte("archived remote content")
	resolver := New(Config{Clock: clock.Fake(resolveBase), ArchiveDir: archiveDir})
	snapshot, err := resolver.Resolve(context.Background(), path, time.Hour, fetchReturning(content), mintOK)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if snapshot.Tier != Remote {
		t.Fatalf("tier = %s, want REMOTE", snapshot.Tier)
	}

	entries, err := os.ReadDir(archiveDir)
	if err != nil {
		t.Fatalf("reading archive directory: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("archive entries = %d, want 1", len(entries))
	}
	if !strings.HasPrefix(entries[0].Name(), "snapshot-") || !strings.HasSuffix(entries[0].Name(), ".zst") {
		t.Errorf("unexpected archive entry name %q", entries[0].Name())
	}

	restored, err := readArchive(filepath.Join(archiveDir, entries[0].Name()))
	if err != nil {
		t.Fatalf("readArchive: %v", err)
	}
	if string(restored) != string(content) {
		t.Errorf("archive round trip = %q, want %q", restored, content)
	}
}

func TestResolveAuditsTerminalStates(t *testing.T) {
	cases := []struct {
		name         string
		setup        func(t *testing.T, path string)
		fetch        FetchFunc
		mint         MintFunc
		wantDecision audit.Decision
	}{
		{
			name: "fresh cache allowed",
			setup: func(t *testing.T, path string) {
				writeCache(t, path, []byte("fresh"), resolveBase.Add(-time.Minute))
			},
			fetch:        fetchFails,
			mint:         mintOK,
			wantDecision: audit.Allowed,
		},
		{
			name:         "remote refresh allowed",
			setup:        func(t *testing.T, path string) {},
			fetch:        fetchReturning([]byte("remote")),
			mint:         mintOK,
			wantDecision: audit.Allowed,
		},
		{
			name: "stale fallback degraded",
			setup: func(t *testing.T, path string) {
				writeCache(t, path, []byte("stale"), resolveBase.Add(-3*time.Hour))
			},
			fetch:        fetchFails,
			mint:         mintOK,
			wantDecision: audit.Degraded,
		},
		{
			name:         "empty degraded",
			setup:        func(t *testing.T, path string) {},
			fetch:        fetchFails,
			mint:         nil,
			wantDecision: audit.Degraded,
		},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "artifact.md")
			testCase.setup(t, path)

			ledgerPath := filepath.Join(dir, "decisions.jsonl")
			ledger, err := audit.Open(audit.Config{
				Path:  ledgerPath,
				Guard: secretguard.New(),
				Clock: clock.Fake(resolveBase),
			})
			if err != nil {
				t.Fatalf("audit.Open: %v", err)
			}

			resolver := New(Config{Clock: clock.Fake(resolveBase), Ledger: ledger})
			if _, err := resolver.Resolve(context.Background(), path, time.Hour, testCase.fetch, testCase.mint); err != nil {
				t.Fatalf("Resolve: %v", err)
			}

			records := readDecisions(t, ledgerPath)
			if len(records) != 1 {
				t.Fatalf("ledger records = %d, want 1", len(records))
			}
			if records[0].Action != "memory_resolve" {
				t.Errorf("action = %q", records[0].Action)
			}
			if records[0].Decision != testCase.wantDecision {
				t.Errorf("decision = %q, want %q", records[0].Decision, testCase.wantDecision)
			}
		})
	}
}

func TestResolveValidation(t *testing.T) {
	resolver := New(Config{Clock: clock.Fake(resolveBase)})

	if _, err := resolver.Resolve(context.Background(), "", time.Hour, fetchFails, nil); !fault.IsKind(err, fault.Configuration) {
		t.Errorf("empty path: kind = %q, want configuration", fault.KindOf(err))
	}
	if _, err := resolver.Resolve(context.Background(), "/tmp/x", -time.Second, fetchFails, nil); !fault.IsKind(err, fault.Configuration) {
		t.Errorf("negative threshold: kind = %q, want configuration", fault.KindOf(err))
	}
	if _, err := resolver.Resolve(context.Background(), "/tmp/x", time.Hour, nil, nil); !fault.IsKind(err, fault.Configuration) {
		t.Errorf("nil fetch: kind = %q, want configuration", fault.KindOf(err))
	}
}

func readDecisions(t *testing.T, path string) []audit.Record {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening ledger: %v", err)
	}
	defer file.Close()

	var records []audit.Record
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record audit.Record
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("parsing ledger line: %v", err)
		}
		records = append(records, record)
	}
	return records
}
