// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell/inkwell/internal/auth"
	"github.com/inkwell/inkwell/pkg/errutil"
)

func TestNewMagicLink(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	link, err := auth.NewMagicLink("a@example.com", "digest", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(15*time.Minute), link.ExpiresAt)
	assert.False(t, link.Used)

	tests := []struct {
		name  string
		email string
		hash  string
		now   time.Time
		code  string
	}{
		{"empty email", "", "digest", now, "MAGIC_LINK_INVALID_EMAIL"},
		{"empty hash", "a@example.com", "", now, "MAGIC_LINK_INVALID_HASH"},
		{"zero time", "a@example.com", "digest", time.Time{}, "MAGIC_LINK_INVALID_TIME"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.NewMagicLink(tt.email, tt.hash, tt.now)
			errutil.AssertErrorCode(t, err, tt.code)
		})
	}
}

func TestMagicLink_IsExpiredAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	link, err := auth.NewMagicLink("a@example.com", "digest", now)
	require.NoError(t, err)

	assert.False(t, link.IsExpiredAt(now))
	assert.False(t, link.IsExpiredAt(link.ExpiresAt), "expiry instant is still redeemable")
	assert.True(t, link.IsExpiredAt(link.ExpiresAt.Add(time.Nanosecond)))
}

func TestNewSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s, err := auth.NewSession(ulid.Make(), "digest", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*24*time.Hour), s.ExpiresAt)

	_, err = auth.NewSession(ulid.ULID{}, "digest", now)
	errutil.AssertErrorCode(t, err, "SESSION_INVALID_SUBSCRIBER")
	_, err = auth.NewSession(ulid.Make(), "", now)
	errutil.AssertErrorCode(t, err, "SESSION_INVALID_HASH")
}

func TestSubscriberContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, auth.SubscriberFromContext(ctx))

	sub := &auth.Subscriber{ID: ulid.Make(), Email: "a@example.com"}
	ctx = auth.WithSubscriber(ctx, sub)
	assert.Same(t, sub, auth.SubscriberFromContext(ctx))
}

func TestPublicMessage(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{auth.CodeMagicLinkInvalid, "Invalid or expired link"},
		{auth.CodeMagicLinkUsed, "This link has already been used"},
		{auth.CodeMagicLinkExpired, "This link has expired"},
		{auth.CodeAccountNotFound, "Account not found"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			msg, ok := auth.PublicMessage(oopsCode(tt.code))
			require.True(t, ok)
			assert.Equal(t, tt.want, msg)
		})
	}

	_, ok := auth.PublicMessage(oopsCode("SESSION_VALIDATE_FAILED"))
	assert.False(t, ok, "internal codes have no public message")
}
