// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

// Package mocks provides testify mocks for the auth repository and mailer interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/inkwell/inkwell/internal/auth"
)

// cleanupT is the part of *testing.T the constructors need.
type cleanupT interface {
	mock.TestingT
	Cleanup(func())
}

func errAt(args mock.Arguments, i int) error {
	if fn, ok := args.Get(i).(func() error); ok {
		return fn()
	}
	return args.Error(i)
}

// MockSubscriberRepository mocks auth.SubscriberRepository.
type MockSubscriberRepository struct {
	mock.Mock
}

var _ auth.SubscriberRepository = (*MockSubscriberRepository)(nil)

// NewMockSubscriberRepository creates a mock that asserts its expectations on cleanup.
func NewMockSubscriberRepository(t cleanupT) *MockSubscriberRepository {
	m := &MockSubscriberRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSubscriberRepository) subscriber(args mock.Arguments) (*auth.Subscriber, error) {
	s, _ := args.Get(0).(*auth.Subscriber)
	return s, errAt(args, 1)
}

func (m *MockSubscriberRepository) Create(ctx context.Context, s *auth.Subscriber) error {
	return errAt(m.Called(ctx, s), 0)
}

func (m *MockSubscriberRepository) GetByEmail(ctx context.Context, email string) (*auth.Subscriber, error) {
	return m.subscriber(m.Called(ctx, email))
}

func (m *MockSubscriberRepository) GetByConfirmToken(ctx context.Context, token string) (*auth.Subscriber, error) {
	return m.subscriber(m.Called(ctx, token))
}

func (m *MockSubscriberRepository) GetByUnsubscribeToken(ctx context.Context, token string) (*auth.Subscriber, error) {
	return m.subscriber(m.Called(ctx, token))
}

func (m *MockSubscriberRepository) Update(ctx context.Context, s *auth.Subscriber) error {
	return errAt(m.Called(ctx, s), 0)
}

// MockMagicLinkRepository mocks auth.MagicLinkRepository.
type MockMagicLinkRepository struct {
	mock.Mock
}

var _ auth.MagicLinkRepository = (*MockMagicLinkRepository)(nil)

// NewMockMagicLinkRepository creates a mock that asserts its expectations on cleanup.
func NewMockMagicLinkRepository(t cleanupT) *MockMagicLinkRepository {
	m := &MockMagicLinkRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockMagicLinkRepository) Issue(ctx context.Context, link *auth.MagicLink) error {
	return errAt(m.Called(ctx, link), 0)
}

func (m *MockMagicLinkRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.MagicLink, error) {
	args := m.Called(ctx, tokenHash)
	link, _ := args.Get(0).(*auth.MagicLink)
	return link, errAt(args, 1)
}

func (m *MockMagicLinkRepository) MarkUsed(ctx context.Context, id ulid.ULID) error {
	return errAt(m.Called(ctx, id), 0)
}

func (m *MockMagicLinkRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	n, _ := args.Get(0).(int64)
	return n, errAt(args, 1)
}

// MockSessionRepository mocks auth.SessionRepository.
type MockSessionRepository struct {
	mock.Mock
}

var _ auth.SessionRepository = (*MockSessionRepository)(nil)

// NewMockSessionRepository creates a mock that asserts its expectations on cleanup.
func NewMockSessionRepository(t cleanupT) *MockSessionRepository {
	m := &MockSessionRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSessionRepository) Create(ctx context.Context, session *auth.Session) error {
	return errAt(m.Called(ctx, session), 0)
}

func (m *MockSessionRepository) GetSubscriberByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*auth.Subscriber, error) {
	args := m.Called(ctx, tokenHash, now)
	s, _ := args.Get(0).(*auth.Subscriber)
	return s, errAt(args, 1)
}

func (m *MockSessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	return errAt(m.Called(ctx, tokenHash), 0)
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	n, _ := args.Get(0).(int64)
	return n, errAt(args, 1)
}

// MockMagicLinkSender mocks auth.MagicLinkSender.
type MockMagicLinkSender struct {
	mock.Mock
}

var _ auth.MagicLinkSender = (*MockMagicLinkSender)(nil)

// NewMockMagicLinkSender creates a mock that asserts its expectations on cleanup.
func NewMockMagicLinkSender(t cleanupT) *MockMagicLinkSender {
	m := &MockMagicLinkSender{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockMagicLinkSender) SendMagicLink(ctx context.Context, email, token, returnURL string) error {
	return errAt(m.Called(ctx, email, token, returnURL), 0)
}
