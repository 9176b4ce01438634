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

// MagicLinkSender delivers login links.
type MagicLinkSender interface {
	SendMagicLink(ctx context.Context, email, token, returnURL string) error
}

// SessionCreator mints sessions after a successful redemption.
type SessionCreator interface {
	Create(ctx context.Context, subscriberID ulid.ULID) (*Session, string, error)
}

// LoginResult is the outcome of a login link request.
type LoginResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Verification is the outcome of a successful redemption.
type Verification struct {
	SessionToken string
	Session      *Session
	Subscriber   *Subscriber
}

// MagicLinkService issues and redeems one-time login links.
type MagicLinkService struct {
	subscribers SubscriberRepository
	links       MagicLinkRepository
	sessions    SessionCreator
	mailer      MagicLinkSender
	logger      *slog.Logger
	now         func() time.Time
}

// NewMagicLinkService creates a new MagicLinkService.
func NewMagicLinkService(
	subscribers SubscriberRepository,
	links MagicLinkRepository,
	sessions SessionCreator,
	mailer MagicLinkSender,
	opts ...ServiceOption,
) (*MagicLinkService, error) {
	if subscribers == nil {
		return nil, oops.Code("MAGIC_LINK_SERVICE_INVALID").Errorf("subscribers repository is required")
	}
	if links == nil {
		return nil, oops.Code("MAGIC_LINK_SERVICE_INVALID").Errorf("magic links repository is required")
	}
	if sessions == nil {
		return nil, oops.Code("MAGIC_LINK_SERVICE_INVALID").Errorf("session creator is required")
	}
	if mailer == nil {
		return nil, oops.Code("MAGIC_LINK_SERVICE_INVALID").Errorf("mailer is required")
	}
	cfg := newServiceConfig(opts)
	return &MagicLinkService{
		subscribers: subscribers,
		links:       links,
		sessions:    sessions,
		mailer:      mailer,
		logger:      cfg.logger,
		now:         cfg.now,
	}, nil
}

// RequestMagicLink issues a login link and emails it.
// Unknown and inactive emails get the same result as a successful send so
// callers cannot probe which addresses have accounts.
func (s *MagicLinkService) RequestMagicLink(ctx context.Context, email, returnURL string) (_ LoginResult, err error) {
	ctx, span := tracer.Start(ctx, "auth.request_magic_link")
	defer func() { endSpan(span, err) }()

	email = NormalizeEmail(email)
	checkEmail := LoginResult{Success: true, Message: MessageCheckEmail}

	subscriber, err := s.subscribers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			RecordMagicLinkRequest(OutcomeSuppressed)
			return checkEmail, nil
		}
		RecordMagicLinkRequest(OutcomeError)
		return LoginResult{}, oops.Code("MAGIC_LINK_REQUEST_FAILED").
			With("operation", "get subscriber by email").
			Wrap(err)
	}
	if !subscriber.IsActive() {
		RecordMagicLinkRequest(OutcomeSuppressed)
		return checkEmail, nil
	}

	token, hash, err := GenerateLoginToken()
	if err != nil {
		RecordMagicLinkRequest(OutcomeError)
		return LoginResult{}, oops.Code("MAGIC_LINK_REQUEST_FAILED").
			With("operation", "generate login token").
			Wrap(err)
	}

	link, err := NewMagicLink(email, hash, s.now())
	if err != nil {
		RecordMagicLinkRequest(OutcomeError)
		return LoginResult{}, oops.Code("MAGIC_LINK_REQUEST_FAILED").
			With("operation", "new magic link").
			Wrap(err)
	}

	// Prior unused links are invalidated in the same transaction.
	if err = s.links.Issue(ctx, link); err != nil {
		RecordMagicLinkRequest(OutcomeError)
		return LoginResult{}, oops.Code("MAGIC_LINK_REQUEST_FAILED").
			With("operation", "issue magic link").
			Wrap(err)
	}

	span.SetAttributes(attribute.String("magic_link.id", link.ID.String()))

	if sendErr := s.mailer.SendMagicLink(ctx, email, token, returnURL); sendErr != nil {
		s.logger.ErrorContext(ctx, "failed to send magic link",
			"magic_link_id", link.ID.String(),
			"error", sendErr,
		)
		RecordMagicLinkRequest(OutcomeSendFailed)
		return LoginResult{Success: false, Message: MessageSendFailed}, nil
	}

	RecordMagicLinkRequest(OutcomeIssued)
	return checkEmail, nil
}

// VerifyMagicLink redeems a login link and creates a session.
// Checks run in order: existence, single use, expiry, then the atomic claim.
func (s *MagicLinkService) VerifyMagicLink(ctx context.Context, token string) (_ *Verification, err error) {
	ctx, span := tracer.Start(ctx, "auth.verify_magic_link")
	defer func() { endSpan(span, err) }()

	if token == "" {
		RecordMagicLinkVerification(OutcomeInvalid)
		return nil, verifyError(CodeMagicLinkInvalid)
	}

	link, err := s.links.GetByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			RecordMagicLinkVerification(OutcomeInvalid)
			return nil, verifyError(CodeMagicLinkInvalid)
		}
		RecordMagicLinkVerification(OutcomeError)
		return nil, oops.Code("MAGIC_LINK_VERIFY_FAILED").
			With("operation", "get magic link by token hash").
			Wrap(err)
	}
	span.SetAttributes(attribute.String("magic_link.id", link.ID.String()))

	if link.Used {
		RecordMagicLinkVerification(OutcomeUsed)
		return nil, verifyError(CodeMagicLinkUsed)
	}

	now := s.now()
	if link.IsExpiredAt(now) {
		RecordMagicLinkVerification(OutcomeExpired)
		return nil, verifyError(CodeMagicLinkExpired)
	}

	// A concurrent redeemer may have claimed the link since the read above.
	if err = s.links.MarkUsed(ctx, link.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			RecordMagicLinkVerification(OutcomeUsed)
			return nil, verifyError(CodeMagicLinkUsed)
		}
		RecordMagicLinkVerification(OutcomeError)
		return nil, oops.Code("MAGIC_LINK_VERIFY_FAILED").
			With("operation", "mark magic link used").
			With("magic_link_id", link.ID.String()).
			Wrap(err)
	}

	subscriber, err := s.subscribers.GetByEmail(ctx, link.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			RecordMagicLinkVerification(OutcomeNoAccount)
			return nil, verifyError(CodeAccountNotFound)
		}
		RecordMagicLinkVerification(OutcomeError)
		return nil, oops.Code("MAGIC_LINK_VERIFY_FAILED").
			With("operation", "get subscriber by email").
			Wrap(err)
	}

	session, sessionToken, err := s.sessions.Create(ctx, subscriber.ID)
	if err != nil {
		RecordMagicLinkVerification(OutcomeError)
		return nil, oops.Code("MAGIC_LINK_VERIFY_FAILED").
			With("operation", "create session").
			Wrap(err)
	}

	RecordMagicLinkVerification(OutcomeVerified)
	return &Verification{
		SessionToken: sessionToken,
		Session:      session,
		Subscriber:   subscriber,
	}, nil
}
