// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"errors"
	"fmt"

	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/fault"
)

// APIError represents a non-2xx response from the GitHub REST API.
// GitHub returns structured JSON error bodies with a message and an
// optional documentation URL.
type APIError struct {
	// StatusCode is the HTTP response status code.
	StatusCode int

	// Message is the top-level error description from GitHub.
	Message string

	// DocumentationURL points to the relevant API documentation.
	DocumentationURL string
}

func (err *APIError) Error() string {
	return fmt.Sprintf("github: HTTP %d: %s", err.StatusCode, err.Message)
}

// IsNotFound reports whether err is (or wraps) a GitHub 404 response.
func IsNotFound(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == 404
}

// IsConflict reports whether err is (or wraps) a GitHub 409 or 422
// response — the contents endpoint reports a lost conditional write
// as either, depending on whether the blob SHA or the branch head
// moved.
func IsConflict(err error) bool {
	var apiError *APIError
	if !errors.As(err, &apiError) {
		return false
	}
	return apiError.StatusCode == 409 || apiError.StatusCode == 422
}

// classify maps an APIError to the engine's error kinds. 401/403 are
// authentication failures, 5xx and conflicts are transient (the caller
// may re-invoke the whole engine), everything else passes through
// untagged for the caller to inspect.
func classify(apiError *APIError) error {
	switch {
	case apiError.StatusCode == 401 || apiError.StatusCode == 403:
		return fault.Wrap(fault.Authentication, apiError, "remote rejected credential")
	case apiError.StatusCode == 409 || apiError.StatusCode == 422:
		return fault.Wrap(fault.Transient, apiError, "remote rejected conditional write")
	case apiError.StatusCode >= 500:
		return fault.Wrap(fault.Transient, apiError, "remote server error")
	default:
		return apiError
	}
}
