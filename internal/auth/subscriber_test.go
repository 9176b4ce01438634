// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell/inkwell/internal/auth"
	"github.com/inkwell/inkwell/pkg/errutil"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "reader@example.com", auth.NormalizeEmail("  Reader@Example.COM\t"))
}

func TestNewSubscriber(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	sub, err := auth.NewSubscriber(" Reader@Example.com ", " Ada ", now)
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", sub.Email)
	assert.Equal(t, "Ada", sub.Name)
	assert.Equal(t, auth.StatusPending, sub.Status)
	assert.Equal(t, now, sub.SubscribedAt)
	require.NotNil(t, sub.ConfirmToken)
	assert.Len(t, *sub.ConfirmToken, 48)
	assert.Len(t, sub.UnsubscribeToken, 48)
	assert.NotEqual(t, *sub.ConfirmToken, sub.UnsubscribeToken)

	_, err = auth.NewSubscriber("   ", "", now)
	errutil.AssertErrorCode(t, err, "SUBSCRIBER_INVALID_EMAIL")
}

func TestSubscriber_Transitions(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("pending to active clears confirm token", func(t *testing.T) {
		sub, err := auth.NewSubscriber("a@example.com", "", now)
		require.NoError(t, err)
		require.NoError(t, sub.Activate())
		assert.True(t, sub.IsActive())
		assert.Nil(t, sub.ConfirmToken)
	})

	t.Run("active cannot be activated again", func(t *testing.T) {
		sub, err := auth.NewSubscriber("a@example.com", "", now)
		require.NoError(t, err)
		require.NoError(t, sub.Activate())
		errutil.AssertErrorCode(t, sub.Activate(), "SUBSCRIBER_INVALID_TRANSITION")
	})

	t.Run("unsubscribed returns to pending with fresh tokens", func(t *testing.T) {
		sub, err := auth.NewSubscriber("a@example.com", "Old", now)
		require.NoError(t, err)
		require.NoError(t, sub.Activate())
		require.NoError(t, sub.Unsubscribe())
		oldUnsub := sub.UnsubscribeToken

		later := now.Add(24 * time.Hour)
		require.NoError(t, sub.Resubscribe("", later))
		assert.Equal(t, auth.StatusPending, sub.Status)
		assert.Equal(t, "Old", sub.Name, "empty name keeps existing")
		assert.Equal(t, later, sub.SubscribedAt)
		assert.NotEqual(t, oldUnsub, sub.UnsubscribeToken)
		assert.NotNil(t, sub.ConfirmToken)
	})

	t.Run("only unsubscribed can resubscribe", func(t *testing.T) {
		sub, err := auth.NewSubscriber("a@example.com", "", now)
		require.NoError(t, err)
		errutil.AssertErrorCode(t, sub.Resubscribe("", now), "SUBSCRIBER_INVALID_TRANSITION")
	})

	t.Run("unsubscribe twice fails", func(t *testing.T) {
		sub, err := auth.NewSubscriber("a@example.com", "", now)
		require.NoError(t, err)
		require.NoError(t, sub.Unsubscribe())
		errutil.AssertErrorCode(t, sub.Unsubscribe(), "SUBSCRIBER_INVALID_TRANSITION")
	})
}

func TestSubscriber_View(t *testing.T) {
	now := time.Now()
	sub, err := auth.NewSubscriber("a@example.com", "", now)
	require.NoError(t, err)

	v := sub.View()
	assert.Equal(t, sub.ID.String(), v.ID)
	assert.Nil(t, v.Name, "empty name is null")

	sub.Name = "Ada"
	v = sub.View()
	require.NotNil(t, v.Name)
	assert.Equal(t, "Ada", *v.Name)
}
