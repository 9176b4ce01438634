// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

// Package engagement serves reader reactions to published newsletters.
package engagement

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/inkwell/inkwell/internal/auth"
	"github.com/inkwell/inkwell/pkg/errutil"
)

var tracer = otel.Tracer("inkwell/engagement")

// CodeNewsletterNotFound is returned when a slug matches no newsletter.
const CodeNewsletterNotFound = "NEWSLETTER_NOT_FOUND"

// PublicMessage returns the client-safe message for err, if it has one.
func PublicMessage(err error) (string, bool) {
	if errutil.Code(err) == CodeNewsletterNotFound {
		return "Newsletter not found", true
	}
	return "", false
}

// LikeRepository persists likes.
type LikeRepository interface {
	// NewsletterID resolves a slug. Returns auth.ErrNotFound when absent.
	NewsletterID(ctx context.Context, slug string) (string, error)

	// Count returns the number of likes on a newsletter.
	Count(ctx context.Context, newsletterID string) (int, error)

	// HasLiked reports whether the subscriber likes the newsletter.
	HasLiked(ctx context.Context, newsletterID string, subscriberID ulid.ULID) (bool, error)

	// Toggle flips the subscriber's like and returns the new state and count.
	Toggle(ctx context.Context, newsletterID string, subscriberID ulid.ULID) (liked bool, count int, err error)
}

// Summary is the like state shown to a reader.
type Summary struct {
	Count        int  `json:"count"`
	UserHasLiked bool `json:"userHasLiked"`
}

// ToggleResult is the state after a toggle.
type ToggleResult struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}

// Service reads and toggles likes.
type Service struct {
	likes LikeRepository
}

// NewService creates a Service.
func NewService(likes LikeRepository) (*Service, error) {
	if likes == nil {
		return nil, oops.Errorf("likes repository is required")
	}
	return &Service{likes: likes}, nil
}

func (s *Service) resolve(ctx context.Context, slug string) (string, error) {
	id, err := s.likes.NewsletterID(ctx, slug)
	if errors.Is(err, auth.ErrNotFound) {
		return "", oops.Code(CodeNewsletterNotFound).With("slug", slug).Errorf("newsletter not found")
	}
	if err != nil {
		return "", oops.Code("LIKES_FAILED").With("slug", slug).Wrap(err)
	}
	return id, nil
}

// Summary returns the like count and, when viewer is non-nil, whether the
// viewer has liked the newsletter.
func (s *Service) Summary(ctx context.Context, slug string, viewer *auth.Subscriber) (_ Summary, err error) {
	ctx, span := tracer.Start(ctx, "engagement.Summary")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("newsletter.slug", slug))

	id, err := s.resolve(ctx, slug)
	if err != nil {
		return Summary{}, err
	}
	count, err := s.likes.Count(ctx, id)
	if err != nil {
		return Summary{}, oops.Code("LIKES_FAILED").With("newsletter_id", id).Wrap(err)
	}

	out := Summary{Count: count}
	if viewer != nil {
		if out.UserHasLiked, err = s.likes.HasLiked(ctx, id, viewer.ID); err != nil {
			return Summary{}, oops.Code("LIKES_FAILED").With("newsletter_id", id).Wrap(err)
		}
	}
	return out, nil
}

// Toggle likes or unlikes the newsletter for subscriber.
func (s *Service) Toggle(ctx context.Context, slug string, subscriber *auth.Subscriber) (_ ToggleResult, err error) {
	ctx, span := tracer.Start(ctx, "engagement.Toggle")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if subscriber == nil {
		return ToggleResult{}, oops.Code("LIKES_UNAUTHENTICATED").Errorf("subscriber is required")
	}
	id, err := s.resolve(ctx, slug)
	if err != nil {
		return ToggleResult{}, err
	}
	liked, count, err := s.likes.Toggle(ctx, id, subscriber.ID)
	if err != nil {
		return ToggleResult{}, oops.Code("LIKES_FAILED").With("newsletter_id", id).Wrap(err)
	}
	return ToggleResult{Liked: liked, Count: count}, nil
}
