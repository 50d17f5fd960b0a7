// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/fault"
)

// GetFile reads one file from a repository through the contents
// endpoint, authenticated with the given access token. ref selects a
// branch, tag, or commit; empty means the repository's default branch.
// A missing file returns an error satisfying IsNotFound.
func (client *Client) GetFile(ctx context.Context, token *AccessToken, owner, repo, path, ref string) (*FileContent, error) {
	if token.Discarded() {
		return nil, fault.New(fault.Authentication, "access token has been discarded")
	}

	requestPath := fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, escapePath(path))
	if ref != "" {
		requestPath += "?ref=" + url.QueryEscape(ref)
	}

	body, _, err := client.do(ctx, http.MethodGet, requestPath, token.Value(), nil)
	if err != nil {
		return nil, err
	}

	var wire struct {
		Type     string `json:"type"`
		Encoding string `json:"encoding"`
		Content  string `json:"content"`
		SHA      string `json:"sha"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fault.Wrap(fault.DataIntegrity, err, "decoding contents of %s", path)
	}
	if wire.Type != "file" {
		return nil, fault.New(fault.DataIntegrity, "%s is a %s, not a file", path, wire.Type)
	}
	if wire.Encoding != "base64" {
		return nil, fault.New(fault.DataIntegrity, "unexpected contents encoding %q for %s", wire.Encoding, path)
	}

	decoded, err := base64.StdEncoding.DecodeString(wire.Content)
	if err != nil {
		// The API wraps base64 at 60 columns; tolerate embedded newlines.
		decoded, err = base64.StdEncoding.DecodeString(stripNewlines(wire.Content))
		if err != nil {
			return nil, fault.Wrap(fault.DataIntegrity, err, "decoding base64 content of %s", path)
		}
	}

	return &FileContent{Content: decoded, SHA: wire.SHA}, nil
}

// PutFileRequest describes one conditional contents write.
type PutFileRequest struct {
	// Message is the commit message recorded for the write.
	Message string

	// Content is the new file content (raw; encoded on the wire).
	Content []byte

	// SHA is the blob SHA the write is conditional on. Empty creates
	// the file; non-empty updates it only if the remote still holds
	// that blob. A lost race surfaces as a transient fault satisfying
	// IsConflict.
	SHA string

	// Branch selects the target branch; empty means the default.
	Branch string

	// Committer is the automation identity the write is attributed
	// to.
	Committer CommitIdentity
}

// PutFile writes one file through the contents endpoint, authenticated
// with the given access token. The write is conditional on
// request.SHA; the destination's own revision check rejects the loser
// when two runs race.
func (client *Client) PutFile(ctx context.Context, token *AccessToken, owner, repo, path string, request PutFileRequest) (*ContentUpdate, error) {
	if token.Discarded() {
		return nil, fault.New(fault.Authentication, "access token has been discarded")
	}
	if request.Message == "" {
		return nil, fault.New(fault.Configuration, "commit message is required")
	}
	if request.Committer.Name == "" || request.Committer.Email == "" {
		return nil, fault.New(fault.Configuration, "committer identity is required")
	}

	wire := struct {
		Message   string         `json:"message"`
		Content   string         `json:"content"`
		SHA       string         `json:"sha,omitempty"`
		Branch    string         `json:"branch,omitempty"`
		Committer CommitIdentity `json:"committer"`
	}{
		Message:   request.Message,
		Content:   base64.StdEncoding.EncodeToString(request.Content),
		SHA:       request.SHA,
		Branch:    request.Branch,
		Committer: request.Committer,
	}

	requestPath := fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, escapePath(path))
	body, _, err := client.do(ctx, http.MethodPut, requestPath, token.Value(), wire)
	if err != nil {
		return nil, err
	}

	var response struct {
		Content struct {
			SHA string `json:"sha"`
		} `json:"content"`
		Commit struct {
			SHA string `json:"sha"`
		} `json:"commit"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fault.Wrap(fault.DataIntegrity, err, "decoding contents write response")
	}

	return &ContentUpdate{SHA: response.Content.SHA, CommitSHA: response.Commit.SHA}, nil
}

// escapePath escapes each segment of a repository file path while
// preserving the separators.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for index, segment := range segments {
		segments[index] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

func stripNewlines(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}
