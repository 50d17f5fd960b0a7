// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

package publish

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/fault"
)

// FileDestination publishes to a local filesystem path. It serves
// degraded or offline operation, where the remote destination cannot
// be reached but the run's output should still land somewhere durable.
type FileDestination struct {
	path string
}

// NewFileDestination returns a destination writing to path.
func NewFileDestination(path string) (*FileDestination, error) {
	if path == "" {
		return nil, fault.New(fault.Configuration, "destination path is required")
	}
	return &FileDestination{path: path}, nil
}

// CurrentDigest hashes the file currently at the destination path. A
// missing file means nothing is published yet.
func (d *FileDestination) CurrentDigest(ctx context.Context) (string, error) {
	content, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading destination file %s: %w", d.path, err)
	}
	return Digest(content), nil
}

// Write replaces the destination file atomically.
func (d *FileDestination) Write(ctx context.Context, content []byte) error {
	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating destination directory %s: %w", dir, err)
	}

	temp, err := os.CreateTemp(dir, filepath.Base(d.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary destination file: %w", err)
	}
	tempName := temp.Name()
	defer os.Remove(tempName)

	if _, err := temp.Write(content); err != nil {
		temp.Close()
		return fmt.Errorf("writing temporary destination file: %w", err)
	}
	if err := temp.Sync(); err != nil {
		temp.Close()
		return fmt.Errorf("syncing temporary destination file: %w", err)
	}
	if err := temp.Chmod(0o644); err != nil {
		temp.Close()
		return fmt.Errorf("setting destination file mode: %w", err)
	}
	if err := temp.Close(); err != nil {
		return fmt.Errorf("closing temporary destination file: %w", err)
	}

	if err := os.Rename(tempName, d.path); err != nil {
		return fmt.Errorf("replacing destination file %s: %w", d.path, err)
	}
	return nil
}
