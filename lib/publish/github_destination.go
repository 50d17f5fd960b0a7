// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

package publish

import (
	"context"

	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/fault"
	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/github"
)

// Fixed automation identity every published change is attributed to.
// Not a personal account; the .invalid email keeps the address
// undeliverable by construction.
var automationIdentity = github.CommitIdentity{
	Name:  "infinity-memory-sync[bot]",
	Email: "memory-sync@infinity-x-one.invalid",
}

// GitHubDestinationConfig locates the published artifact in a
// repository.
type GitHubDestinationConfig struct {
	// Client performs the contents API calls. Required.
	Client *github.Client

	// Token authenticates the calls. The destination borrows it for
	// the duration of one publish; the token's owner discards it in a
	// deferred cleanup step that runs on every exit path, write or no
	// write, success or error.
	Token *github.AccessToken

	Owner string
	Repo  string
	Path  string

	// Branch selects the target branch; empty means the repository
	// default.
	Branch string

	// Message is the commit message for a write. Required.
	Message string
}

// GitHubDestination publishes through the repository contents
// endpoint. Writes are conditional on the blob SHA observed by
// CurrentDigest, so a run racing another writer loses cleanly (the
// remote rejects the update) instead of clobbering it.
type GitHubDestination struct {
	config     GitHubDestinationConfig
	currentSHA string
	probed     bool
}

// NewGitHubDestination validates the target location.
func NewGitHubDestination(config GitHubDestinationConfig) (*GitHubDestination, error) {
	if config.Client == nil {
		return nil, fault.New(fault.Configuration, "client is required")
	}
	if config.Token == nil {
		return nil, fault.New(fault.Configuration, "access token is required")
	}
	if config.Owner == "" || config.Repo == "" || config.Path == "" {
		return nil, fault.New(fault.Configuration, "owner, repo, and path are required")
	}
	if config.Message == "" {
		return nil, fault.New(fault.Configuration, "commit message is required")
	}
	return &GitHubDestination{config: config}, nil
}

// CurrentDigest reads the published file and hashes its content,
// remembering the blob SHA for the conditional write. A missing file
// means nothing is published yet.
func (d *GitHubDestination) CurrentDigest(ctx context.Context) (string, error) {
	file, err := d.config.Client.GetFile(ctx, d.config.Token, d.config.Owner, d.config.Repo, d.config.Path, d.config.Branch)
	if github.IsNotFound(err) {
		d.probed = true
		return "", nil
	}
	if err != nil {
		return "", err
	}

	d.currentSHA = file.SHA
	d.probed = true
	return Digest(file.Content), nil
}

// Write pushes content through the contents endpoint, conditional on
// the SHA observed by CurrentDigest and attributed to the fixed
// automation identity.
func (d *GitHubDestination) Write(ctx context.Context, content []byte) error {
	if !d.probed {
		return fault.New(fault.Configuration, "destination written before probing its current state")
	}

	_, err := d.config.Client.PutFile(ctx, d.config.Token, d.config.Owner, d.config.Repo, d.config.Path, github.PutFileRequest{
		Message:   d.config.Message,
		Content:   content,
		SHA:       d.currentSHA,
		Branch:    d.config.Branch,
		Committer: automationIdentity,
	})
	return err
}
