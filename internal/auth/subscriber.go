// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// SubscriberStatus is the lifecycle state of a subscriber.
type SubscriberStatus string

// Subscriber statuses. Only active subscribers can log in.
const (
	StatusPending      SubscriberStatus = "pending"
	StatusActive       SubscriberStatus = "active"
	StatusUnsubscribed SubscriberStatus = "unsubscribed"
)

// Valid reports whether s is a known status.
func (s SubscriberStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusUnsubscribed:
		return true
	}
	return false
}

// Subscriber represents a newsletter reader account.
type Subscriber struct {
	ID               ulid.ULID
	Email            string
	Name             string
	Status           SubscriberStatus
	SubscribedAt     time.Time
	ConfirmToken     *string // nil once confirmed
	UnsubscribeToken string
}

// SubscriberView is the client-safe projection of a Subscriber.
type SubscriberView struct {
	ID     string           `json:"id"`
	Email  string           `json:"email"`
	Name   *string          `json:"name"`
	Status SubscriberStatus `json:"status"`
}

// View strips tokens and internal fields.
func (s *Subscriber) View() SubscriberView {
	v := SubscriberView{
		ID:     s.ID.String(),
		Email:  s.Email,
		Status: s.Status,
	}
	if s.Name != "" {
		name := s.Name
		v.Name = &name
	}
	return v
}

// IsActive reports whether the subscriber may authenticate.
func (s *Subscriber) IsActive() bool {
	return s.Status == StatusActive
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewSubscriber creates a pending Subscriber with fresh subscription tokens.
func NewSubscriber(email, name string, now time.Time) (*Subscriber, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, oops.Code("SUBSCRIBER_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	confirm, unsubscribe, err := newSubscriptionTokens()
	if err != nil {
		return nil, err
	}
	return &Subscriber{
		ID:               ulid.Make(),
		Email:            email,
		Name:             strings.TrimSpace(name),
		Status:           StatusPending,
		SubscribedAt:     now,
		ConfirmToken:     &confirm,
		UnsubscribeToken: unsubscribe,
	}, nil
}

// Activate confirms a pending subscription.
func (s *Subscriber) Activate() error {
	if s.Status != StatusPending {
		return oops.Code("SUBSCRIBER_INVALID_TRANSITION").
			With("from", s.Status).
			With("to", StatusActive).
			Errorf("only pending subscribers can be activated")
	}
	s.Status = StatusActive
	s.ConfirmToken = nil
	return nil
}

// Unsubscribe moves a pending or active subscriber to unsubscribed.
func (s *Subscriber) Unsubscribe() error {
	if s.Status == StatusUnsubscribed {
		return oops.Code("SUBSCRIBER_INVALID_TRANSITION").
			With("from", s.Status).
			With("to", StatusUnsubscribed).
			Errorf("subscriber is already unsubscribed")
	}
	s.Status = StatusUnsubscribed
	return nil
}

// Resubscribe returns an unsubscribed subscriber to pending with rotated tokens.
// An empty name keeps the existing one.
func (s *Subscriber) Resubscribe(name string, now time.Time) error {
	if s.Status != StatusUnsubscribed {
		return oops.Code("SUBSCRIBER_INVALID_TRANSITION").
			With("from", s.Status).
			With("to", StatusPending).
			Errorf("only unsubscribed subscribers can resubscribe")
	}
	confirm, unsubscribe, err := newSubscriptionTokens()
	if err != nil {
		return err
	}
	if name = strings.TrimSpace(name); name != "" {
		s.Name = name
	}
	s.Status = StatusPending
	s.SubscribedAt = now
	s.ConfirmToken = &confirm
	s.UnsubscribeToken = unsubscribe
	return nil
}

func newSubscriptionTokens() (confirm, unsubscribe string, err error) {
	if confirm, err = GenerateSubscriptionToken(); err != nil {
		return "", "", err
	}
	if unsubscribe, err = GenerateSubscriptionToken(); err != nil {
		return "", "", err
	}
	return confirm, unsubscribe, nil
}

// SubscriberRepository manages subscriber persistence.
type SubscriberRepository interface {
	// Create stores a new subscriber.
	// Returns an error with code SUBSCRIBER_EXISTS if the email is taken.
	Create(ctx context.Context, subscriber *Subscriber) error

	// GetByEmail retrieves a subscriber by normalized email.
	// Returns ErrNotFound if no subscriber has the given email.
	GetByEmail(ctx context.Context, email string) (*Subscriber, error)

	// GetByConfirmToken retrieves a subscriber by pending confirm token.
	GetByConfirmToken(ctx context.Context, token string) (*Subscriber, error)

	// GetByUnsubscribeToken retrieves a subscriber by unsubscribe token.
	GetByUnsubscribeToken(ctx context.Context, token string) (*Subscriber, error)

	// Update persists name, status, subscription time and tokens.
	Update(ctx context.Context, subscriber *Subscriber) error
}
