// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/samber/oops"
)

// Token sizes in bytes. Hex encoding doubles the length.
const (
	LoginTokenBytes        = 32 // magic links and sessions, 64 hex chars
	SubscriptionTokenBytes = 24 // confirm and unsubscribe links, 48 hex chars
)

// GenerateToken returns byteLength bytes from crypto/rand, hex encoded.
func GenerateToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		return "", oops.Code("TOKEN_INVALID_LENGTH").
			With("requested_bytes", byteLength).
			Errorf("token length must be positive")
	}
	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", oops.Code("TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", byteLength).
			Wrap(err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateLoginToken creates a 32-byte token and its digest.
// Returns (plaintext_token, sha256_hash, error).
// The plaintext goes to the subscriber; only the hash is persisted.
func GenerateLoginToken() (token, hash string, err error) {
	token, err = GenerateToken(LoginTokenBytes)
	if err != nil {
		return "", "", err
	}
	return token, HashToken(token), nil
}

// GenerateSubscriptionToken creates a 24-byte confirm or unsubscribe token.
func GenerateSubscriptionToken() (string, error) {
	return GenerateToken(SubscriptionTokenBytes)
}

// HashToken computes the hex SHA-256 digest of a token.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
