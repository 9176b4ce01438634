// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

// Package postgres implements the engagement repositories on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/inkwell/inkwell/internal/auth"
	"github.com/inkwell/inkwell/internal/engagement"
	"github.com/inkwell/inkwell/internal/store"
)

// LikeRepository stores likes in the likes table.
type LikeRepository struct {
	pool store.Pool
}

var _ engagement.LikeRepository = (*LikeRepository)(nil)

// NewLikeRepository creates a LikeRepository.
func NewLikeRepository(pool store.Pool) *LikeRepository {
	return &LikeRepository{pool: pool}
}

// NewsletterID returns the id of the sent newsletter with slug.
func (r *LikeRepository) NewsletterID(ctx context.Context, slug string) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM newsletters WHERE slug = $1 AND status = 'sent'`, slug).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", oops.Code("NEWSLETTER_NOT_FOUND").With("slug", slug).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return "", oops.With("operation", "get newsletter by slug").Wrap(err)
	}
	return id, nil
}

func (r *LikeRepository) Count(ctx context.Context, newsletterID string) (int, error) {
	return count(ctx, r.pool, newsletterID)
}

func (r *LikeRepository) HasLiked(ctx context.Context, newsletterID string, subscriberID ulid.ULID) (bool, error) {
	var liked bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM likes WHERE newsletter_id = $1 AND subscriber_id = $2)`,
		newsletterID, subscriberID.String()).Scan(&liked)
	if err != nil {
		return false, oops.With("operation", "check like").Wrap(err)
	}
	return liked, nil
}

// Toggle deletes an existing like or inserts one, then counts, in one
// transaction. A concurrent insert of the same pair counts as liked.
func (r *LikeRepository) Toggle(ctx context.Context, newsletterID string, subscriberID ulid.ULID) (bool, int, error) {
	var (
		liked bool
		n     int
	)
	err := store.InTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM likes WHERE newsletter_id = $1 AND subscriber_id = $2`,
			newsletterID, subscriberID.String())
		if err != nil {
			return oops.With("operation", "delete like").Wrap(err)
		}
		if tag.RowsAffected() == 0 {
			if _, err := tx.Exec(ctx,
				`INSERT INTO likes (newsletter_id, subscriber_id) VALUES ($1, $2)
				 ON CONFLICT (newsletter_id, subscriber_id) DO NOTHING`,
				newsletterID, subscriberID.String()); err != nil {
				return oops.With("operation", "insert like").Wrap(err)
			}
			liked = true
		}
		n, err = count(ctx, tx, newsletterID)
		return err
	})
	if err != nil {
		return false, 0, err
	}
	return liked, n, nil
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func count(ctx context.Context, q queryRower, newsletterID string) (int, error) {
	var n int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM likes WHERE newsletter_id = $1`, newsletterID).Scan(&n); err != nil {
		return 0, oops.With("operation", "count likes").Wrap(err)
	}
	return n, nil
}
