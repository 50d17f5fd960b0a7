// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// localState is the cache file's condition at the start of a
// resolution.
type localState struct {
	present bool
	content []byte
	age     time.Duration
}

// usable reports whether the cache holds content that could serve as a
// fallback (present and non-empty, at any age).
func (s localState) usable() bool {
	return s.present && len(s.content) > 0
}

// readLocal inspects the cache file. A missing file is a normal state,
// not an error; an unreadable file is treated as missing so resolution
// stays total, with the underlying error reported for logging.
func readLocal(path string, now time.Time) (localState, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return localState{}, nil
	}
	if err != nil {
		return localState{}, fmt.Errorf("inspecting cache file %s: %w", path, err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return localState{}, fmt.Errorf("reading cache file %s: %w", path, err)
	}

	age := now.Sub(info.ModTime())
	if age < 0 {
		age = 0
	}
	return localState{present: true, content: content, age: age}, nil
}

// persist writes content to the cache file atomically: a temporary
// file in the same directory, fsynced, then renamed over the target.
// Readers never observe a partial write.
func persist(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory %s: %w", dir, err)
	}

	temp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary cache file: %w", err)
	}
	tempName := temp.Name()
	defer os.Remove(tempName)

	if _, err := temp.Write(content); err != nil {
		temp.Close()
		return fmt.Errorf("writing temporary cache file: %w", err)
	}
	if err := temp.Sync(); err != nil {
		temp.Close()
		return fmt.Errorf("syncing temporary cache file: %w", err)
	}
	if err := temp.Chmod(0o644); err != nil {
		temp.Close()
		return fmt.Errorf("setting cache file mode: %w", err)
	}
	if err := temp.Close(); err != nil {
		return fmt.Errorf("closing temporary cache file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replacing cache file %s: %w", path, err)
	}
	return nil
}
