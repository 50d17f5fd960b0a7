// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

package secret

// Zero overwrites every byte of data. Use on transient heap slices
// that held secret material (file read buffers, decoded tokens) as
// soon as the secret has been copied into a Buffer or is no longer
// needed.
func Zero(data []byte) {
	for index := range data {
		data[index] = 0
	}
}
