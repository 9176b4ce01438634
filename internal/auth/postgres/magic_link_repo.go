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

// Compile-time check that MagicLinkRepository implements auth.MagicLinkRepository.
var _ auth.MagicLinkRepository = (*MagicLinkRepository)(nil)

// MagicLinkRepository implements auth.MagicLinkRepository using PostgreSQL.
type MagicLinkRepository struct {
	pool Pool
}

// NewMagicLinkRepository creates a new MagicLinkRepository.
func NewMagicLinkRepository(pool Pool) *MagicLinkRepository {
	return &MagicLinkRepository{pool: pool}
}

// Issue invalidates outstanding links for the email and inserts link in one transaction.
func (r *MagicLinkRepository) Issue(ctx context.Context, link *auth.MagicLink) error {
	return store.InTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			UPDATE magic_links SET used = true
			WHERE email = $1 AND used = false
		`, link.Email); err != nil {
			return oops.Code("MAGIC_LINK_INVALIDATE_FAILED").
				With("operation", "invalidate unused magic links").
				Wrap(err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO magic_links (id, email, token_hash, created_at, expires_at, used)
			VALUES ($1, $2, $3, $4, $5, $6)
		`,
			link.ID.String(),
			link.Email,
			link.TokenHash,
			link.CreatedAt,
			link.ExpiresAt,
			link.Used,
		); err != nil {
			if store.IsUniqueViolation(err) {
				return oops.Code(auth.CodeTokenCollision).
					With("magic_link_id", link.ID.String()).
					Wrap(err)
			}
			return oops.Code("MAGIC_LINK_CREATE_FAILED").
				With("operation", "insert magic link").
				With("magic_link_id", link.ID.String()).
				Wrap(err)
		}
		return nil
	})
}

// GetByTokenHash retrieves a link by token digest.
func (r *MagicLinkRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.MagicLink, error) {
	var (
		idStr string
		link  auth.MagicLink
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, token_hash, created_at, expires_at, used
		FROM magic_links
		WHERE token_hash = $1
	`, tokenHash).Scan(&idStr, &link.Email, &link.TokenHash, &link.CreatedAt, &link.ExpiresAt, &link.Used)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("MAGIC_LINK_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("MAGIC_LINK_GET_FAILED").
			With("operation", "get magic link by token hash").
			Wrap(err)
	}

	link.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("MAGIC_LINK_PARSE_ID_FAILED").
			With("id", idStr).
			Wrap(err)
	}
	return &link, nil
}

// MarkUsed claims an unused link. Zero rows affected means another request
// already used it, reported as ErrNotFound.
func (r *MagicLinkRepository) MarkUsed(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE magic_links SET used = true
		WHERE id = $1 AND used = false
	`, id.String())
	if err != nil {
		return oops.Code("MAGIC_LINK_MARK_USED_FAILED").
			With("operation", "mark magic link used").
			With("magic_link_id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("MAGIC_LINK_NOT_CLAIMED").
			With("magic_link_id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// DeleteExpired removes links that expired before the cutoff.
func (r *MagicLinkRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM magic_links WHERE expires_at < $1
	`, before)
	if err != nil {
		return 0, oops.Code("MAGIC_LINK_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired magic links").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}
