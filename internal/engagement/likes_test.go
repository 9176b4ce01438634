// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package engagement_test

import (
	"context"
	"errors"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inkwell/inkwell/internal/auth"
	"github.com/inkwell/inkwell/internal/engagement"
	"github.com/inkwell/inkwell/internal/engagement/engagementtest"
	"github.com/inkwell/inkwell/pkg/errutil"
)

type mockLikes struct {
	mock.Mock
}

func (m *mockLikes) NewsletterID(ctx context.Context, slug string) (string, error) {
	args := m.Called(ctx, slug)
	return args.String(0), args.Error(1)
}

func (m *mockLikes) Count(ctx context.Context, id string) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *mockLikes) HasLiked(ctx context.Context, id string, sub ulid.ULID) (bool, error) {
	args := m.Called(ctx, id, sub)
	return args.Bool(0), args.Error(1)
}

func (m *mockLikes) Toggle(ctx context.Context, id string, sub ulid.ULID) (bool, int, error) {
	args := m.Called(ctx, id, sub)
	return args.Bool(0), args.Int(1), args.Error(2)
}

func reader() *auth.Subscriber {
	return &auth.Subscriber{ID: ulid.Make(), Email: "reader@example.com", Status: auth.StatusActive}
}

func TestNewService_RequiresRepository(t *testing.T) {
	_, err := engagement.NewService(nil)
	require.Error(t, err)
}

func TestSummary(t *testing.T) {
	likes := engagementtest.NewLikes()
	id := likes.Publish("first-issue")
	svc, err := engagement.NewService(likes)
	require.NoError(t, err)

	fan, lurker := reader(), reader()
	_, _, err = likes.Toggle(context.Background(), id, fan.ID)
	require.NoError(t, err)

	tests := []struct {
		name   string
		viewer *auth.Subscriber
		want   engagement.Summary
	}{
		{name: "anonymous", viewer: nil, want: engagement.Summary{Count: 1}},
		{name: "liker", viewer: fan, want: engagement.Summary{Count: 1, UserHasLiked: true}},
		{name: "other reader", viewer: lurker, want: engagement.Summary{Count: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Summary(context.Background(), "first-issue", tt.viewer)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSummary_UnknownSlug(t *testing.T) {
	svc, err := engagement.NewService(engagementtest.NewLikes())
	require.NoError(t, err)

	_, err = svc.Summary(context.Background(), "missing", nil)

	errutil.AssertErrorCode(t, err, engagement.CodeNewsletterNotFound)
	msg, ok := engagement.PublicMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "Newsletter not found", msg)
}

func TestToggle(t *testing.T) {
	likes := engagementtest.NewLikes()
	likes.Publish("first-issue")
	svc, err := engagement.NewService(likes)
	require.NoError(t, err)
	sub := reader()

	first, err := svc.Toggle(context.Background(), "first-issue", sub)
	require.NoError(t, err)
	assert.Equal(t, engagement.ToggleResult{Liked: true, Count: 1}, first)

	second, err := svc.Toggle(context.Background(), "first-issue", sub)
	require.NoError(t, err)
	assert.Equal(t, engagement.ToggleResult{Liked: false, Count: 0}, second)
}

func TestToggle_RequiresSubscriber(t *testing.T) {
	svc, err := engagement.NewService(engagementtest.NewLikes())
	require.NoError(t, err)

	_, err = svc.Toggle(context.Background(), "first-issue", nil)

	errutil.AssertErrorCode(t, err, "LIKES_UNAUTHENTICATED")
}

func TestStoreFailuresAreNotPublic(t *testing.T) {
	repo := &mockLikes{}
	repo.On("NewsletterID", mock.Anything, "first-issue").Return("n1", nil)
	repo.On("Count", mock.Anything, "n1").Return(0, errors.New("timeout"))
	repo.On("Toggle", mock.Anything, "n1", mock.Anything).Return(false, 0, errors.New("deadlock"))
	svc, err := engagement.NewService(repo)
	require.NoError(t, err)

	_, err = svc.Summary(context.Background(), "first-issue", nil)
	errutil.AssertErrorCode(t, err, "LIKES_FAILED")
	_, public := engagement.PublicMessage(err)
	assert.False(t, public)

	_, err = svc.Toggle(context.Background(), "first-issue", reader())
	errutil.AssertErrorCode(t, err, "LIKES_FAILED")

	repo.AssertExpectations(t)
}

func TestResolveFailure(t *testing.T) {
	repo := &mockLikes{}
	repo.On("NewsletterID", mock.Anything, "first-issue").Return("", errors.New("conn refused"))
	svc, err := engagement.NewService(repo)
	require.NoError(t, err)

	_, err = svc.Summary(context.Background(), "first-issue", nil)

	errutil.AssertErrorCode(t, err, "LIKES_FAILED")
}
