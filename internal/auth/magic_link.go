// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MagicLinkExpiry is the lifetime of a login link.
const MagicLinkExpiry = 15 * time.Minute

// MagicLink is a one-time login credential delivered by email.
type MagicLink struct {
	ID        ulid.ULID
	Email     string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
}

// NewMagicLink creates an unused MagicLink valid for MagicLinkExpiry from now.
func NewMagicLink(email, tokenHash string, now time.Time) (*MagicLink, error) {
	if email == "" {
		return nil, oops.Code("MAGIC_LINK_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if tokenHash == "" {
		return nil, oops.Code("MAGIC_LINK_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if now.IsZero() {
		return nil, oops.Code("MAGIC_LINK_INVALID_TIME").Errorf("creation time cannot be zero")
	}
	return &MagicLink{
		ID:        ulid.Make(),
		Email:     email,
		TokenHash: tokenHash,
		CreatedAt: now,
		ExpiresAt: now.Add(MagicLinkExpiry),
	}, nil
}

// IsExpiredAt reports whether the link expired strictly before t.
func (l *MagicLink) IsExpiredAt(t time.Time) bool {
	return l.ExpiresAt.Before(t)
}

// MagicLinkRepository manages magic link persistence.
type MagicLinkRepository interface {
	// Issue marks every unused link for the link's email as used and stores
	// the new link, atomically.
	Issue(ctx context.Context, link *MagicLink) error

	// GetByTokenHash retrieves a link by token digest.
	GetByTokenHash(ctx context.Context, tokenHash string) (*MagicLink, error)

	// MarkUsed flips used to true for an unused link.
	// Returns ErrNotFound if no unused link with the ID exists.
	MarkUsed(ctx context.Context, id ulid.ULID) error

	// DeleteExpired removes links whose expiry is before the cutoff and
	// returns the count of deleted records.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
