// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/inkwell/inkwell/internal/auth"
	"github.com/inkwell/inkwell/internal/store"
)

// Compile-time check that SubscriberRepository implements auth.SubscriberRepository.
var _ auth.SubscriberRepository = (*SubscriberRepository)(nil)

const subscriberColumns = `id, email, COALESCE(name, ''), status, subscribed_at, confirm_token, unsubscribe_token`

// SubscriberRepository implements auth.SubscriberRepository using PostgreSQL.
type SubscriberRepository struct {
	pool Pool
}

// NewSubscriberRepository creates a new SubscriberRepository.
func NewSubscriberRepository(pool Pool) *SubscriberRepository {
	return &SubscriberRepository{pool: pool}
}

// Create stores a new subscriber.
func (r *SubscriberRepository) Create(ctx context.Context, s *auth.Subscriber) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO subscribers (id, email, name, status, subscribed_at, confirm_token, unsubscribe_token)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
	`,
		s.ID.String(),
		s.Email,
		s.Name,
		string(s.Status),
		s.SubscribedAt,
		s.ConfirmToken,
		s.UnsubscribeToken,
	)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return oops.Code("SUBSCRIBER_EXISTS").
				With("email", s.Email).
				Wrap(err)
		}
		return oops.Code("SUBSCRIBER_CREATE_FAILED").
			With("operation", "insert subscriber").
			Wrap(err)
	}
	return nil
}

// GetByEmail retrieves a subscriber by normalized email.
func (r *SubscriberRepository) GetByEmail(ctx context.Context, email string) (*auth.Subscriber, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+subscriberColumns+` FROM subscribers WHERE email = $1`, auth.NormalizeEmail(email))
	return r.get(row, "email", email)
}

// GetByConfirmToken retrieves a subscriber by confirm token.
func (r *SubscriberRepository) GetByConfirmToken(ctx context.Context, token string) (*auth.Subscriber, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+subscriberColumns+` FROM subscribers WHERE confirm_token = $1`, token)
	return r.get(row, "lookup", "confirm_token")
}

// GetByUnsubscribeToken retrieves a subscriber by unsubscribe token.
func (r *SubscriberRepository) GetByUnsubscribeToken(ctx context.Context, token string) (*auth.Subscriber, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+subscriberColumns+` FROM subscribers WHERE unsubscribe_token = $1`, token)
	return r.get(row, "lookup", "unsubscribe_token")
}

// Update persists mutable subscriber fields.
func (r *SubscriberRepository) Update(ctx context.Context, s *auth.Subscriber) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE subscribers
		SET name = NULLIF($2, ''), status = $3, subscribed_at = $4, confirm_token = $5, unsubscribe_token = $6
		WHERE id = $1
	`,
		s.ID.String(),
		s.Name,
		string(s.Status),
		s.SubscribedAt,
		s.ConfirmToken,
		s.UnsubscribeToken,
	)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return oops.Code(auth.CodeTokenCollision).
				With("subscriber_id", s.ID.String()).
				Wrap(err)
		}
		return oops.Code("SUBSCRIBER_UPDATE_FAILED").
			With("operation", "update subscriber").
			With("subscriber_id", s.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SUBSCRIBER_NOT_FOUND").
			With("subscriber_id", s.ID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

func (r *SubscriberRepository) get(row pgx.Row, key, value string) (*auth.Subscriber, error) {
	s, err := scanSubscriber(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SUBSCRIBER_NOT_FOUND").
			With(key, value).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SUBSCRIBER_GET_FAILED").
			With("operation", "get subscriber").
			With(key, value).
			Wrap(err)
	}
	return s, nil
}

// scanSubscriber scans subscriberColumns into a Subscriber.
// Callers are responsible for handling pgx.ErrNoRows.
func scanSubscriber(row pgx.Row) (*auth.Subscriber, error) {
	var (
		idStr            string
		email            string
		name             string
		status           string
		subscribedAt     time.Time
		confirmToken     *string
		unsubscribeToken string
	)
	if err := row.Scan(&idStr, &email, &name, &status, &subscribedAt, &confirmToken, &unsubscribeToken); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("SUBSCRIBER_SCAN_FAILED").
			With("operation", "scan subscriber").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("SUBSCRIBER_PARSE_ID_FAILED").
			With("id", idStr).
			Wrap(err)
	}
	st := auth.SubscriberStatus(status)
	if !st.Valid() {
		return nil, oops.Code("SUBSCRIBER_INVALID_STATUS").
			With("id", idStr).
			With("status", status).
			Errorf("unknown subscriber status %q", status)
	}

	return &auth.Subscriber{
		ID:               id,
		Email:            email,
		Name:             name,
		Status:           st,
		SubscribedAt:     subscribedAt,
		ConfirmToken:     confirmToken,
		UnsubscribeToken: unsubscribeToken,
	}, nil
}
