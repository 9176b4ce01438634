// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

// Package authtest provides in-memory auth repositories, a fake mailer and a
// controllable clock for tests.
package authtest

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/inkwell/inkwell/internal/auth"
)

// Store keeps subscribers, magic links and sessions in maps guarded by one mutex.
type Store struct {
	mu          sync.Mutex
	subscribers map[ulid.ULID]auth.Subscriber
	links       map[ulid.ULID]auth.MagicLink
	sessions    map[ulid.ULID]auth.Session
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		subscribers: make(map[ulid.ULID]auth.Subscriber),
		links:       make(map[ulid.ULID]auth.MagicLink),
		sessions:    make(map[ulid.ULID]auth.Session),
	}
}

// Subscribers returns the store as an auth.SubscriberRepository.
func (s *Store) Subscribers() *SubscriberRepo { return &SubscriberRepo{s} }

// MagicLinks returns the store as an auth.MagicLinkRepository.
func (s *Store) MagicLinks() *MagicLinkRepo { return &MagicLinkRepo{s} }

// Sessions returns the store as an auth.SessionRepository.
func (s *Store) Sessions() *SessionRepo { return &SessionRepo{s} }

// AddSubscriber inserts a subscriber with the given status and returns it.
func (s *Store) AddSubscriber(email string, status auth.SubscriberStatus) *auth.Subscriber {
	sub, err := auth.NewSubscriber(email, "", time.Now())
	if err != nil {
		panic(err)
	}
	sub.Status = status
	if status == auth.StatusActive {
		sub.ConfirmToken = nil
	}
	s.mu.Lock()
	s.subscribers[sub.ID] = *sub
	s.mu.Unlock()
	return sub
}

// LinksFor returns copies of every magic link issued to email.
func (s *Store) LinksFor(email string) []auth.MagicLink {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []auth.MagicLink
	for _, l := range s.links {
		if l.Email == email {
			out = append(out, l)
		}
	}
	return out
}

// SessionCount returns the number of stored sessions.
func (s *Store) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// LinkCount returns the number of stored magic links.
func (s *Store) LinkCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.links)
}

func notFound(code string) error {
	return oops.Code(code).Wrap(auth.ErrNotFound)
}

// SubscriberRepo implements auth.SubscriberRepository.
type SubscriberRepo struct{ s *Store }

var _ auth.SubscriberRepository = (*SubscriberRepo)(nil)

func (r *SubscriberRepo) Create(_ context.Context, sub *auth.Subscriber) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.subscribers {
		if existing.Email == sub.Email {
			return oops.Code("SUBSCRIBER_EXISTS").With("email", sub.Email).Errorf("email taken")
		}
	}
	r.s.subscribers[sub.ID] = *sub
	return nil
}

func (r *SubscriberRepo) find(match func(auth.Subscriber) bool) (*auth.Subscriber, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sub := range r.s.subscribers {
		if match(sub) {
			out := sub
			return &out, nil
		}
	}
	return nil, notFound("SUBSCRIBER_NOT_FOUND")
}

func (r *SubscriberRepo) GetByEmail(_ context.Context, email string) (*auth.Subscriber, error) {
	email = auth.NormalizeEmail(email)
	return r.find(func(s auth.Subscriber) bool { return s.Email == email })
}

func (r *SubscriberRepo) GetByConfirmToken(_ context.Context, token string) (*auth.Subscriber, error) {
	return r.find(func(s auth.Subscriber) bool { return s.ConfirmToken != nil && *s.ConfirmToken == token })
}

func (r *SubscriberRepo) GetByUnsubscribeToken(_ context.Context, token string) (*auth.Subscriber, error) {
	return r.find(func(s auth.Subscriber) bool { return s.UnsubscribeToken == token })
}

func (r *SubscriberRepo) Update(_ context.Context, sub *auth.Subscriber) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.subscribers[sub.ID]; !ok {
		return notFound("SUBSCRIBER_NOT_FOUND")
	}
	r.s.subscribers[sub.ID] = *sub
	return nil
}

// MagicLinkRepo implements auth.MagicLinkRepository.
type MagicLinkRepo struct{ s *Store }

var _ auth.MagicLinkRepository = (*MagicLinkRepo)(nil)

func (r *MagicLinkRepo) Issue(_ context.Context, link *auth.MagicLink) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, l := range r.s.links {
		if l.TokenHash == link.TokenHash {
			return oops.Code(auth.CodeTokenCollision).Errorf("duplicate token hash")
		}
		if l.Email == link.Email && !l.Used {
			l.Used = true
			r.s.links[id] = l
		}
	}
	r.s.links[link.ID] = *link
	return nil
}

func (r *MagicLinkRepo) GetByTokenHash(_ context.Context, tokenHash string) (*auth.MagicLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.links {
		if l.TokenHash == tokenHash {
			out := l
			return &out, nil
		}
	}
	return nil, notFound("MAGIC_LINK_NOT_FOUND")
}

func (r *MagicLinkRepo) MarkUsed(_ context.Context, id ulid.ULID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.links[id]
	if !ok || l.Used {
		return notFound("MAGIC_LINK_NOT_CLAIMED")
	}
	l.Used = true
	r.s.links[id] = l
	return nil
}

func (r *MagicLinkRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, l := range r.s.links {
		if l.ExpiresAt.Before(before) {
			delete(r.s.links, id)
			n++
		}
	}
	return n, nil
}

// SessionRepo implements auth.SessionRepository.
type SessionRepo struct{ s *Store }

var _ auth.SessionRepository = (*SessionRepo)(nil)

func (r *SessionRepo) Create(_ context.Context, session *auth.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.sessions {
		if existing.TokenHash == session.TokenHash {
			return oops.Code(auth.CodeTokenCollision).Errorf("duplicate token hash")
		}
	}
	r.s.sessions[session.ID] = *session
	return nil
}

func (r *SessionRepo) GetSubscriberByTokenHash(_ context.Context, tokenHash string, now time.Time) (*auth.Subscriber, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, session := range r.s.sessions {
		if session.TokenHash != tokenHash || !session.ExpiresAt.After(now) {
			continue
		}
		sub, ok := r.s.subscribers[session.SubscriberID]
		if !ok {
			break
		}
		return &sub, nil
	}
	return nil, notFound("SESSION_NOT_FOUND")
}

func (r *SessionRepo) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, session := range r.s.sessions {
		if session.TokenHash == tokenHash {
			delete(r.s.sessions, id)
		}
	}
	return nil
}

func (r *SessionRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, session := range r.s.sessions {
		if session.ExpiresAt.Before(before) {
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}
