// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

// Package engagementtest provides an in-memory engagement.LikeRepository.
package engagementtest

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/inkwell/inkwell/internal/auth"
	"github.com/inkwell/inkwell/internal/engagement"
)

type like struct {
	newsletter string
	subscriber ulid.ULID
}

// Likes is a mutex-guarded in-memory like store.
type Likes struct {
	mu          sync.Mutex
	newsletters map[string]string // slug -> id
	likes       map[like]struct{}
}

var _ engagement.LikeRepository = (*Likes)(nil)

// NewLikes creates an empty store.
func NewLikes() *Likes {
	return &Likes{
		newsletters: make(map[string]string),
		likes:       make(map[like]struct{}),
	}
}

// Publish makes slug resolvable and returns its id.
func (l *Likes) Publish(slug string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := ulid.Make().String()
	l.newsletters[slug] = id
	return id
}

func (l *Likes) NewsletterID(_ context.Context, slug string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id, ok := l.newsletters[slug]
	if !ok {
		return "", oops.Code("NEWSLETTER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return id, nil
}

func (l *Likes) count(newsletterID string) int {
	n := 0
	for k := range l.likes {
		if k.newsletter == newsletterID {
			n++
		}
	}
	return n
}

func (l *Likes) Count(_ context.Context, newsletterID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count(newsletterID), nil
}

func (l *Likes) HasLiked(_ context.Context, newsletterID string, subscriberID ulid.ULID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.likes[like{newsletterID, subscriberID}]
	return ok, nil
}

func (l *Likes) Toggle(_ context.Context, newsletterID string, subscriberID ulid.ULID) (bool, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := like{newsletterID, subscriberID}
	if _, ok := l.likes[k]; ok {
		delete(l.likes, k)
		return false, l.count(newsletterID), nil
	}
	l.likes[k] = struct{}{}
	return true, l.count(newsletterID), nil
}
