// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/inkwell/inkwell/internal/auth"
	"github.com/inkwell/inkwell/internal/store"
)

// Compile-time check that SessionRepository implements auth.SessionRepository.
var _ auth.SessionRepository = (*SessionRepository)(nil)

// SessionRepository implements auth.SessionRepository using PostgreSQL.
type SessionRepository struct {
	pool Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, session *auth.Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sessions (id, subscriber_id, token_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		session.ID.String(),
		session.SubscriberID.String(),
		session.TokenHash,
		session.CreatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return oops.Code(auth.CodeTokenCollision).
				With("session_id", session.ID.String()).
				Wrap(err)
		}
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert session").
			With("subscriber_id", session.SubscriberID.String()).
			Wrap(err)
	}
	return nil
}

// GetSubscriberByTokenHash resolves a live session to its subscriber in one query.
func (r *SessionRepository) GetSubscriberByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*auth.Subscriber, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT s.id, s.email, COALESCE(s.name, ''), s.status, s.subscribed_at, s.confirm_token, s.unsubscribe_token
		FROM sessions se
		JOIN subscribers s ON s.id = se.subscriber_id
		WHERE se.token_hash = $1 AND se.expires_at > $2
	`, tokenHash, now)

	subscriber, err := scanSubscriber(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_BY_TOKEN_FAILED").
			With("operation", "get subscriber by session token hash").
			Wrap(err)
	}
	return subscriber, nil
}

// DeleteByTokenHash removes a session by token digest.
func (r *SessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM sessions WHERE token_hash = $1
	`, tokenHash)
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete session by token hash").
			Wrap(err)
	}
	// No ErrNotFound if no rows deleted - logout is idempotent
	return nil
}

// DeleteExpired removes sessions that expired before the cutoff.
func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM sessions WHERE expires_at < $1
	`, before)
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}
