// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel/attribute"
)

// SessionService manages the session token lifecycle.
type SessionService struct {
	sessions SessionRepository
	links    MagicLinkRepository
	logger   *slog.Logger
	now      func() time.Time
}

// NewSessionService creates a new SessionService.
// The magic link repository is only used by CleanupExpired.
func NewSessionService(sessions SessionRepository, links MagicLinkRepository, opts ...ServiceOption) (*SessionService, error) {
	if sessions == nil {
		return nil, oops.Code("SESSION_SERVICE_INVALID").Errorf("sessions repository is required")
	}
	if links == nil {
		return nil, oops.Code("SESSION_SERVICE_INVALID").Errorf("magic links repository is required")
	}
	cfg := newServiceConfig(opts)
	return &SessionService{
		sessions: sessions,
		links:    links,
		logger:   cfg.logger,
		now:      cfg.now,
	}, nil
}

// Create mints a session for a subscriber.
// Returns the session, plaintext token, and any error.
func (s *SessionService) Create(ctx context.Context, subscriberID ulid.ULID) (*Session, string, error) {
	token, hash, err := GenerateLoginToken()
	if err != nil {
		return nil, "", oops.Code("SESSION_CREATE_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	session, err := NewSession(subscriberID, hash, s.now())
	if err != nil {
		return nil, "", oops.Code("SESSION_CREATE_FAILED").
			With("operation", "new session").
			Wrap(err)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", oops.Code("SESSION_CREATE_FAILED").
			With("operation", "persist session").
			With("subscriber_id", subscriberID.String()).
			Wrap(err)
	}

	return session, token, nil
}

// ValidateSession resolves a session token to its subscriber.
// Returns (nil, nil) when the token was never issued, was logged out, or has
// expired. Only store failures produce an error.
func (s *SessionService) ValidateSession(ctx context.Context, token string) (_ *Subscriber, err error) {
	ctx, span := tracer.Start(ctx, "auth.validate_session")
	defer func() { endSpan(span, err) }()

	if token == "" {
		RecordSessionValidation(OutcomeInvalid)
		return nil, nil
	}

	subscriber, err := s.sessions.GetSubscriberByTokenHash(ctx, HashToken(token), s.now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			RecordSessionValidation(OutcomeInvalid)
			return nil, nil
		}
		RecordSessionValidation(OutcomeError)
		return nil, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get subscriber by token hash").
			Wrap(err)
	}

	span.SetAttributes(attribute.String("subscriber.id", subscriber.ID.String()))
	RecordSessionValidation(OutcomeValid)
	return subscriber, nil
}

// InvalidateSession deletes the session for a token. Unknown tokens are ignored.
func (s *SessionService) InvalidateSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteByTokenHash(ctx, HashToken(token)); err != nil {
		return oops.Code("SESSION_INVALIDATE_FAILED").
			With("operation", "delete session").
			Wrap(err)
	}
	return nil
}

// SweepResult reports the rows removed by CleanupExpired.
type SweepResult struct {
	Sessions   int64
	MagicLinks int64
}

// CleanupExpired deletes sessions and magic links that expired before now.
// Both deletes run even if the first one fails; the returned counts cover
// whichever succeeded.
func (s *SessionService) CleanupExpired(ctx context.Context) (_ SweepResult, err error) {
	ctx, span := tracer.Start(ctx, "auth.cleanup_expired")
	defer func() { endSpan(span, err) }()

	now := s.now()
	var result SweepResult
	var errs []error

	n, sessErr := s.sessions.DeleteExpired(ctx, now)
	if sessErr != nil {
		errs = append(errs, oops.Code("SWEEP_SESSIONS_FAILED").
			With("operation", "delete expired sessions").
			Wrap(sessErr))
	} else {
		result.Sessions = n
		RecordSwept("sessions", n)
	}

	n, linkErr := s.links.DeleteExpired(ctx, now)
	if linkErr != nil {
		errs = append(errs, oops.Code("SWEEP_MAGIC_LINKS_FAILED").
			With("operation", "delete expired magic links").
			Wrap(linkErr))
	} else {
		result.MagicLinks = n
		RecordSwept("magic_links", n)
	}

	span.SetAttributes(
		attribute.Int64("sweep.sessions", result.Sessions),
		attribute.Int64("sweep.magic_links", result.MagicLinks),
	)
	if len(errs) > 0 {
		return result, errors.Join(errs...)
	}

	s.logger.InfoContext(ctx, "expired credentials swept",
		"sessions", result.Sessions,
		"magic_links", result.MagicLinks,
	)
	return result, nil
}
