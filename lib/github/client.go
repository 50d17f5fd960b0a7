// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/clock"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/fault"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/netutil"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/secretguard"
)

// apiVersion is the GitHub REST API version header. Pinning the
// version keeps behavior consistent as GitHub evolves the API.
const apiVersion = "2022-11-28"

// defaultBaseURL is the base URL for the public GitHub API.
const defaultBaseURL = "https://api.github.com"

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the root URL for API requests. Defaults to
	// "https://api.github.com". Must use HTTPS.
	BaseURL string

	// HTTPClient is used for all HTTP requests. Defaults to
	// http.DefaultClient. Request timeouts are the caller's
	// responsibility, via this client or per-call contexts.
	HTTPClient *http.Client

	// Clock provides time operations. Defaults to clock.Real().
	// Inject clock.Fake() in tests for deterministic behavior.
	Clock clock.Clock

	// Guard receives every credential the client mints, before the
	// credential is used. Required.
	Guard *secretguard.Guard

	// Logger is used for structured logging. Defaults to
	// slog.Default(). Install the guard's redacting handler on it.
	Logger *slog.Logger
}

// Client is a GitHub REST client carrying no credential state. Every
// authenticated call takes its bearer credential as an explicit
// argument; tokens live with the engine run, not with the client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	clock      clock.Clock
	guard      *secretguard.Guard
	logger     *slog.Logger
}

// NewClient creates a client from the given configuration. Returns a
// configuration fault if the base URL is not HTTPS or the secret
// guard is missing.
func NewClient(config Config) (*Client, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	if !strings.HasPrefix(baseURL, "https://") {
		return nil, fault.New(fault.Configuration, "API client requires HTTPS (got %q)", baseURL)
	}
	if config.Guard == nil {
		return nil, fault.New(fault.Configuration, "secret guard is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		clock:      clk,
		guard:      config.Guard,
		logger:     logger,
	}, nil
}

// do executes one authenticated API request and returns the response
// body and headers. The path is relative to the base URL. The bearer
// value (assertion or access token) goes into the Authorization header
// and nowhere else. Non-2xx responses come back as classified errors
// (authentication, transient, or a bare *APIError); network failures
// and timeouts are transient.
func (client *Client) do(ctx context.Context, method, path, bearer string, requestBody any) ([]byte, http.Header, error) {
	url := path
	if !strings.HasPrefix(url, "https://") {
		url = client.baseURL + path
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, nil, fmt.Errorf("github: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, nil, fmt.Errorf("github: creating request: %w", err)
	}

	request.Header.Set("Authorization", "Bearer "+bearer)
	request.Header.Set("Accept", "application/vnd.github+json")
	request.Header.Set("X-GitHub-Api-Version", apiVersion)
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		// Redact before embedding: URLs never carry credentials here,
		// but transport errors can echo request details.
		return nil, nil, fault.Wrap(fault.Transient, err, "%s %s", method, client.guard.Redact(url))
	}
	defer response.Body.Close()

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, nil, fault.Wrap(fault.Transient, err, "reading response body")
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, nil, classify(parseAPIError(response.StatusCode, body))
	}

	return body, response.Header, nil
}

// parseAPIError parses a GitHub API error body. Falls back to the raw
// body when the response is not the documented JSON shape.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiError := &APIError{StatusCode: statusCode}

	var wireError struct {
		Message          string `json:"message"`
		DocumentationURL string `json:"documentation_url"`
	}
	if json.Unmarshal(body, &wireError) == nil && wireError.Message != "" {
		apiError.Message = wireError.Message
		apiError.DocumentationURL = wireError.DocumentationURL
	} else {
		apiError.Message = string(body)
	}

	return apiError
}

// parseLinkNext extracts the URL with rel="next" from an RFC 5988 Link
// header. Returns empty string if no next link is present.
//
// Format: <https://api.github.com/...?page=2>; rel="next", <...>; rel="last"
func parseLinkNext(header string) string {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)

		segments := strings.SplitN(part, ";", 2)
		if len(segments) != 2 {
			continue
		}

		urlPart := strings.TrimSpace(segments[0])
		if !strings.Contains(segments[1], `rel="next"`) {
			continue
		}
		if strings.HasPrefix(urlPart, "<") && strings.HasSuffix(urlPart, ">") {
			return urlPart[1 : len(urlPart)-1]
		}
	}
	return ""
}
