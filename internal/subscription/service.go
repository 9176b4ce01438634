// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

// Package subscription implements the double opt-in newsletter lifecycle:
// subscribe, confirm and unsubscribe.
package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/inkwell/inkwell/internal/auth"
	"github.com/inkwell/inkwell/pkg/errutil"
)

var tracer = otel.Tracer("inkwell/subscription")

// Error codes with client-safe messages.
const (
	CodeConfirmInvalid     = "CONFIRM_TOKEN_INVALID"
	CodeUnsubscribeInvalid = "UNSUBSCRIBE_TOKEN_INVALID"
)

// User-facing messages.
const (
	MessagePending             = "Almost there! Check your email to confirm."
	MessageAlreadySubscribed   = "You're already subscribed!"
	MessageWelcomeBack         = "Welcome back! Check your email to confirm."
	MessageConfirmed           = "Your subscription has been confirmed!"
	MessageAlreadyConfirmed    = "Your subscription is already confirmed!"
	MessageUnsubscribed        = "You've been unsubscribed successfully."
	MessageAlreadyUnsubscribed = "You're already unsubscribed."
)

var publicMessages = map[string]string{
	CodeConfirmInvalid:     "Invalid or expired confirmation link",
	CodeUnsubscribeInvalid: "Invalid unsubscribe link",
}

// PublicMessage returns the client-safe message for err, if it has one.
func PublicMessage(err error) (string, bool) {
	code := errutil.Code(err)
	msg, ok := publicMessages[code]
	return msg, ok
}

// Mailer sends the subscription emails.
type Mailer interface {
	SendConfirmation(ctx context.Context, email, token, name string) error
	SendUnsubscribeNotice(ctx context.Context, email string) error
}

// Result is the response body for every lifecycle operation.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func success(msg string) Result { return Result{Success: true, Message: msg} }

// Service runs subscription transitions against the subscriber store.
type Service struct {
	subscribers auth.SubscriberRepository
	mailer      Mailer
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger for mail failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a Service.
func NewService(subscribers auth.SubscriberRepository, mailer Mailer, opts ...Option) (*Service, error) {
	if subscribers == nil {
		return nil, oops.Errorf("subscribers repository is required")
	}
	if mailer == nil {
		return nil, oops.Errorf("mailer is required")
	}
	s := &Service{
		subscribers: subscribers,
		mailer:      mailer,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Subscribe registers email or nudges an existing subscriber along:
// pending gets the confirmation resent, unsubscribed returns to pending
// with fresh tokens, active is left alone.
func (s *Service) Subscribe(ctx context.Context, email, name string) (_ Result, err error) {
	email = auth.NormalizeEmail(email)
	ctx, span := tracer.Start(ctx, "subscription.Subscribe")
	defer func() { endSpan(span, err) }()

	existing, err := s.subscribers.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, auth.ErrNotFound):
		return s.create(ctx, email, name)
	case err != nil:
		return Result{}, oops.Code("SUBSCRIBE_FAILED").With("operation", "lookup").Wrap(err)
	}
	return s.nudge(ctx, existing, name)
}

func (s *Service) create(ctx context.Context, email, name string) (Result, error) {
	sub, err := auth.NewSubscriber(email, name, s.now())
	if err != nil {
		return Result{}, err
	}
	if err := s.subscribers.Create(ctx, sub); err != nil {
		if errutil.Code(err) == "SUBSCRIBER_EXISTS" {
			// Lost a race with a concurrent subscribe for the same address.
			existing, getErr := s.subscribers.GetByEmail(ctx, email)
			if getErr != nil {
				return Result{}, oops.Code("SUBSCRIBE_FAILED").With("operation", "lookup").Wrap(getErr)
			}
			return s.nudge(ctx, existing, name)
		}
		return Result{}, oops.Code("SUBSCRIBE_FAILED").With("operation", "create").Wrap(err)
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("subscriber.id", sub.ID.String()))
	s.sendConfirmation(ctx, sub, name)
	return success(MessagePending), nil
}

func (s *Service) nudge(ctx context.Context, sub *auth.Subscriber, name string) (Result, error) {
	switch sub.Status {
	case auth.StatusActive:
		return success(MessageAlreadySubscribed), nil

	case auth.StatusPending:
		if sub.ConfirmToken == nil {
			return Result{}, oops.Code("SUBSCRIBE_FAILED").
				With("subscriber_id", sub.ID.String()).
				Errorf("pending subscriber has no confirm token")
		}
		s.sendConfirmation(ctx, sub, name)
		return success(MessagePending), nil

	default:
		if err := sub.Resubscribe(name, s.now()); err != nil {
			return Result{}, err
		}
		if err := s.subscribers.Update(ctx, sub); err != nil {
			return Result{}, oops.Code("SUBSCRIBE_FAILED").With("operation", "resubscribe").Wrap(err)
		}
		s.sendConfirmation(ctx, sub, name)
		return success(MessageWelcomeBack), nil
	}
}

// sendConfirmation logs delivery failures; the subscriber row is already
// saved and subscribing again resends.
func (s *Service) sendConfirmation(ctx context.Context, sub *auth.Subscriber, name string) {
	if name == "" {
		name = sub.Name
	}
	if err := s.mailer.SendConfirmation(ctx, sub.Email, *sub.ConfirmToken, name); err != nil {
		errutil.LogErrorContext(ctx, s.logger.With("subscriber_id", sub.ID.String()), "failed to send confirmation email", err)
	}
}

// Confirm activates the pending subscriber holding token.
func (s *Service) Confirm(ctx context.Context, token string) (_ Result, err error) {
	ctx, span := tracer.Start(ctx, "subscription.Confirm")
	defer func() { endSpan(span, err) }()

	if token == "" {
		return Result{}, invalid(CodeConfirmInvalid)
	}
	sub, err := s.subscribers.GetByConfirmToken(ctx, token)
	if errors.Is(err, auth.ErrNotFound) {
		return Result{}, invalid(CodeConfirmInvalid)
	}
	if err != nil {
		return Result{}, oops.Code("CONFIRM_FAILED").With("operation", "lookup").Wrap(err)
	}

	switch sub.Status {
	case auth.StatusActive:
		return success(MessageAlreadyConfirmed), nil
	case auth.StatusUnsubscribed:
		// The token predates an unsubscribe; only a fresh subscribe may
		// reactivate the address.
		return Result{}, invalid(CodeConfirmInvalid)
	}

	if err := sub.Activate(); err != nil {
		return Result{}, err
	}
	if err := s.subscribers.Update(ctx, sub); err != nil {
		return Result{}, oops.Code("CONFIRM_FAILED").With("operation", "update").Wrap(err)
	}
	return success(MessageConfirmed), nil
}

// Unsubscribe opts out the subscriber holding token and sends a notice.
func (s *Service) Unsubscribe(ctx context.Context, token string) (_ Result, err error) {
	ctx, span := tracer.Start(ctx, "subscription.Unsubscribe")
	defer func() { endSpan(span, err) }()

	if token == "" {
		return Result{}, invalid(CodeUnsubscribeInvalid)
	}
	sub, err := s.subscribers.GetByUnsubscribeToken(ctx, token)
	if errors.Is(err, auth.ErrNotFound) {
		return Result{}, invalid(CodeUnsubscribeInvalid)
	}
	if err != nil {
		return Result{}, oops.Code("UNSUBSCRIBE_FAILED").With("operation", "lookup").Wrap(err)
	}

	if sub.Status == auth.StatusUnsubscribed {
		return success(MessageAlreadyUnsubscribed), nil
	}
	if err := sub.Unsubscribe(); err != nil {
		return Result{}, err
	}
	if err := s.subscribers.Update(ctx, sub); err != nil {
		return Result{}, oops.Code("UNSUBSCRIBE_FAILED").With("operation", "update").Wrap(err)
	}

	if err := s.mailer.SendUnsubscribeNotice(ctx, sub.Email); err != nil {
		errutil.LogErrorContext(ctx, s.logger.With("subscriber_id", sub.ID.String()), "failed to send unsubscribe notice", err)
	}
	return success(MessageUnsubscribed), nil
}

func invalid(code string) error {
	return oops.Code(code).Errorf("%s", publicMessages[code])
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
