// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package auth

import "context"

type subscriberKey struct{}

// WithSubscriber returns a copy of ctx carrying the authenticated subscriber.
func WithSubscriber(ctx context.Context, s *Subscriber) context.Context {
	return context.WithValue(ctx, subscriberKey{}, s)
}

// SubscriberFromContext returns the authenticated subscriber, or nil.
func SubscriberFromContext(ctx context.Context) *Subscriber {
	s, _ := ctx.Value(subscriberKey{}).(*Subscriber)
	return s
}
