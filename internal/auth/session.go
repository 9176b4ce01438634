// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// SessionExpiry is the lifetime of a session, matching the cookie Max-Age.
const SessionExpiry = 30 * 24 * time.Hour

// Session represents a logged-in subscriber.
type Session struct {
	ID           ulid.ULID
	SubscriberID ulid.ULID
	TokenHash    string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// NewSession creates a validated Session valid for SessionExpiry from now.
func NewSession(subscriberID ulid.ULID, tokenHash string, now time.Time) (*Session, error) {
	if subscriberID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("SESSION_INVALID_SUBSCRIBER").Errorf("subscriber ID cannot be zero")
	}
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if now.IsZero() {
		return nil, oops.Code("SESSION_INVALID_TIME").Errorf("creation time cannot be zero")
	}
	return &Session{
		ID:           ulid.Make(),
		SubscriberID: subscriberID,
		TokenHash:    tokenHash,
		CreatedAt:    now,
		ExpiresAt:    now.Add(SessionExpiry),
	}, nil
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// GetSubscriberByTokenHash joins a live session to its subscriber.
	// Sessions with expires_at <= now are ignored.
	// Returns ErrNotFound when nothing matches.
	GetSubscriberByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*Subscriber, error)

	// DeleteByTokenHash removes a session. Deleting a missing session is not an error.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error

	// DeleteExpired removes sessions whose expiry is before the cutoff and
	// returns the count of deleted records.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
