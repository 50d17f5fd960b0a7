// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
)

// archiveTimeFormat names archive entries by their UTC refresh
// instant. Lexical order equals chronological order.
const archiveTimeFormat = "20060102T150405Z"

// archive appends a compressed, timestamped copy of freshly fetched
// content under dir. The archive is a history of remote refreshes, not
// part of the resolution contract: a failed archive write degrades to
// a logged warning and never fails the run.
func archive(dir string, content []byte, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating archive directory %s: %w", dir, err)
	}

	name := fmt.Sprintf("snapshot-%s.zst", now.UTC().Format(archiveTimeFormat))
	path := filepath.Join(dir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating archive entry %s: %w", path, err)
	}
	defer file.Close()

	encoder, err := zstd.NewWriter(file)
	if err != nil {
		return "", fmt.Errorf("initializing archive compressor: %w", err)
	}
	if _, err := encoder.Write(content); err != nil {
		encoder.Close()
		return "", fmt.Errorf("writing archive entry %s: %w", path, err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("finishing archive entry %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("closing archive entry %s: %w", path, err)
	}
	return path, nil
}

// readArchive decompresses one archive entry. Used by tests and by
// operators recovering an older snapshot by hand.
func readArchive(path string) ([]byte, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading archive entry %s: %w", path, err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("initializing archive decompressor: %w", err)
	}
	defer decoder.Close()

	content, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing archive entry %s: %w", path, err)
	}
	return content, nil
}
