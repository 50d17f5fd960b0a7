// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/fault"
)

// tokenLifetimeCeiling is the remote-imposed maximum lifetime of an
// installation access token. The remote controls the actual lifetime;
// the ceiling exists so a misbehaving response can never hand the rest
// of the engine a credential it believes is long-lived.
const tokenLifetimeCeiling = time.Hour

// Mint produces a fresh installation access token for one engine run.
//
// It signs a new assertion, discovers the installation when the caller
// did not supply one (matching ownerHint against each installation's
// account login, first observed match wins), and exchanges the
// assertion for a token. Both the assertion and the token are
// registered with the secret guard before Mint returns, so any later
// log line containing their exact value is redacted for the remainder
// of the process lifetime.
//
// The returned token is never written to durable state. The caller
// must Discard it once the run's remote calls complete, on every exit
// path.
func (client *Client) Mint(ctx context.Context, identity *SigningIdentity, installation *InstallationRef, ownerHint string) (*AccessToken, error) {
	if identity == nil {
		return nil, fault.New(fault.Configuration, "signing identity is required")
	}

	assertion, err := signAssertion(identity, client.clock.Now())
	if err != nil {
		return nil, fault.Wrap(fault.Authentication, err, "signing assertion for client %s", identity.ClientID)
	}
	client.guard.Register(assertion)

	if installation == nil {
		if ownerHint == "" {
			return nil, fault.New(fault.Configuration, "either an installation ID or an owner hint is required")
		}
		installation, err = client.discoverInstallation(ctx, assertion, ownerHint)
		if err != nil {
			return nil, err
		}
	}

	token, err := client.exchangeAssertion(ctx, assertion, installation.InstallationID)
	if err != nil {
		return nil, err
	}

	client.guard.Register(token.Value())
	client.logger.Info("minted installation token",
		"installation_id", installation.InstallationID,
		"expires_at", token.ExpiresAt,
	)
	return token, nil
}

// discoverInstallation lists the App's installations with the
// assertion as bearer credential and returns the one whose account
// login equals ownerHint. Zero matches is fatal. The remote does not
// define multiplicity for owner names; when more than one installation
// matches, the first observed (API return order) is used.
func (client *Client) discoverInstallation(ctx context.Context, assertion, ownerHint string) (*InstallationRef, error) {
	url := client.baseURL + "/app/installations"

	for url != "" {
		body, headers, err := client.do(ctx, http.MethodGet, url, assertion, nil)
		if err != nil {
			return nil, err
		}

		var page []Installation
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fault.Wrap(fault.DataIntegrity, err, "decoding installation list")
		}

		for _, candidate := range page {
			if candidate.Account.Login == ownerHint {
				return &InstallationRef{InstallationID: candidate.ID}, nil
			}
		}

		url = parseLinkNext(headers.Get("Link"))
	}

	return nil, fault.New(fault.InstallationNotFound, "no installation found for owner %q", ownerHint)
}

// exchangeAssertion trades a signed assertion for an installation
// access token. The token's expiry is clamped to tokenLifetimeCeiling
// past the current clock reading, regardless of what the remote
// claims.
func (client *Client) exchangeAssertion(ctx context.Context, assertion string, installationID int64) (*AccessToken, error) {
	path := "/app/installations/" + strconv.FormatInt(installationID, 10) + "/access_tokens"

	body, _, err := client.do(ctx, http.MethodPost, path, assertion, struct{}{})
	if err != nil {
		return nil, err
	}

	var result struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fault.Wrap(fault.DataIntegrity, err, "decoding token exchange response")
	}
	if result.Token == "" {
		return nil, fault.New(fault.DataIntegrity, "token exchange returned empty token")
	}

	expiresAt := result.ExpiresAt
	if ceiling := client.clock.Now().Add(tokenLifetimeCeiling); expiresAt.IsZero() || expiresAt.After(ceiling) {
		expiresAt = ceiling
	}

	return &AccessToken{
		value:     []byte(result.Token),
		ExpiresAt: expiresAt,
	}, nil
}
