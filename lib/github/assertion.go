// Copyright 2026 The Infinity Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"time"

	"github.com/Infinity-X-One-Systems/infinity-orchestrator/lib/fault"
)

// assertionBackdate is subtracted from the assertion's issued-at claim
// to tolerate clock skew between this process and the remote verifier.
const assertionBackdate = 60 * time.Second

// assertionLifetime is how long a signed assertion remains valid. The
// remote caps assertions at 10 minutes; the engine uses each assertion
// exactly once, immediately after signing.
const assertionLifetime = 10 * time.Minute

// SigningIdentity is the caller-supplied App identity: a client ID and
// the RSA key that signs assertions. The engine borrows the key
// material for the duration of one signing operation and never
// persists it.
type SigningIdentity struct {
	// ClientID is the App's client identifier, used as the assertion
	// issuer claim.
	ClientID string

	privateKey *rsa.PrivateKey
}

// NewSigningIdentity parses a PEM-encoded RSA private key. Both PKCS1
// (GitHub's documented format) and PKCS8 (produced by some key tools)
// are accepted. Malformed key material is an authentication fault: the
// run cannot sign, and retrying without new key material cannot
// succeed.
func NewSigningIdentity(clientID string, privateKeyPEM []byte) (*SigningIdentity, error) {
	if clientID == "" {
		return nil, fault.New(fault.Configuration, "client ID is required")
	}

	block, _ := pem.Decode(privateKeyPEM)
	if block == nil {
		return nil, fault.New(fault.Authentication, "signing key is not valid PEM")
	}

	privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		keyInterface, pkcs8Err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if pkcs8Err != nil {
			return nil, fault.Wrap(fault.Authentication, err, "parsing signing key (also tried PKCS8: %v)", pkcs8Err)
		}
		var ok bool
		privateKey, ok = keyInterface.(*rsa.PrivateKey)
		if !ok {
			return nil, fault.New(fault.Authentication, "signing key is not RSA")
		}
	}

	return &SigningIdentity{ClientID: clientID, privateKey: privateKey}, nil
}

// signAssertion creates a fresh RS256-signed assertion for the
// identity at time now: three dot-separated base64url segments
// (header.payload.signature). The issued-at claim is backdated by
// assertionBackdate; expiry is assertionLifetime from now. Each
// assertion is used for exactly one credential exchange and never
// reused.
func signAssertion(identity *SigningIdentity, now time.Time) (string, error) {
	header := base64URLEncode([]byte(`{"alg":"RS256","typ":"JWT"}`))

	claims := struct {
		IssuedAt  int64  `json:"iat"`
		ExpiresAt int64  `json:"exp"`
		Issuer    string `json:"iss"`
	}{
		IssuedAt:  now.Add(-assertionBackdate).Unix(),
		ExpiresAt: now.Add(assertionLifetime).Unix(),
		Issuer:    identity.ClientID,
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshaling claims: %w", err)
	}
	payload := base64URLEncode(claimsJSON)

	// Sign: RSASSA-PKCS1-v1_5 with SHA-256.
	signingInput := header + "." + payload
	hash := sha256.Sum256([]byte(signingInput))
	signature, err := rsa.SignPKCS1v15(rand.Reader, identity.privateKey, crypto.SHA256, hash[:])
	if err != nil {
		return "", fmt.Errorf("signing assertion: %w", err)
	}

	return signingInput + "." + base64URLEncode(signature), nil
}

// base64URLEncode encodes data as base64url without padding, per RFC 7515.
func base64URLEncode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}
