// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bytes"
	"fmt"
	"os"
)

// ReadFromPath reads a secret from a file path. The returned buffer is
// mmap-backed and must be closed by the caller. Leading and trailing
// whitespace is trimmed before storing; an empty secret after trimming
// is an error. The intermediate heap copy is zeroed before returning.
func ReadFromPath(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		Zero(data)
		return nil, fmt.Errorf("secret: %s is empty", path)
	}

	// NewFromBytes zeroes trimmed; zero the rest of the read buffer
	// (whitespace prefix and suffix) as well.
	buffer, err := NewFromBytes(trimmed)
	Zero(data)
	if err != nil {
		return nil, err
	}
	return buffer, nil
}
