// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package authtest

import (
	"context"
	"sync"
	"time"
)

// Clock is a settable time source for auth.WithClock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a Clock at t.
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// SentLink is one captured magic link email.
type SentLink struct {
	Email     string
	Token     string
	ReturnURL string
}

// Outbox records magic links instead of sending them. Set Err to fail sends.
type Outbox struct {
	mu   sync.Mutex
	Err  error
	sent []SentLink
}

// SendMagicLink records the link or returns Err.
func (o *Outbox) SendMagicLink(_ context.Context, email, token, returnURL string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return o.Err
	}
	o.sent = append(o.sent, SentLink{Email: email, Token: token, ReturnURL: returnURL})
	return nil
}

// Sent returns a copy of every recorded link.
func (o *Outbox) Sent() []SentLink {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]SentLink(nil), o.sent...)
}

// Last returns the most recent link; ok is false when nothing was sent.
func (o *Outbox) Last() (SentLink, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		return SentLink{}, false
	}
	return o.sent[len(o.sent)-1], true
}
