package service

import (
	"context"
	"testing"
	"time"

	"circle/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncService_WatermarksAdvance(t *testing.T) {
	e := newEnv(t, 2)
	ctx := context.Background()
	a, b := e.users[0].ID, e.users[1].ID

	for i := 0; i < 3; i++ {
		_, err := e.messages.Send(ctx, SendMessageInput{SenderID: a, ReceiverID: b, Content: "msg"})
		require.NoError(t, err)
	}
	_, err := e.posts.Create(ctx, a, "post")
	require.NoError(t, err)

	first, err := e.sync.Sync(ctx, SyncInput{UserID: b, Limit: 10})
	require.NoError(t, err)
	require.Len(t, first.Notifications, 3)
	require.Len(t, first.Messages, 3)
	require.Len(t, first.Posts, 1)
	assert.Equal(t, first.Notifications[2].ID, first.Next.Notifications)
	assert.EqualValues(t, 3, first.UnreadNotifications)
	assert.EqualValues(t, 3, first.UnreadMessages)
	assert.Equal(t, 10, first.PollIntervals.Notifications)
	for i := 1; i < len(first.Messages); i++ {
		assert.Less(t, first.Messages[i-1].ID, first.Messages[i].ID)
	}

	second, err := e.sync.Sync(ctx, SyncInput{UserID: b, After: first.Next, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, second.Notifications)
	assert.Empty(t, second.Messages)
	assert.Empty(t, second.Posts)
	assert.Equal(t, first.Next, second.Next)

	_, err = e.messages.Send(ctx, SendMessageInput{SenderID: a, ReceiverID: b, Content: "later"})
	require.NoError(t, err)

	third, err := e.sync.Sync(ctx, SyncInput{UserID: b, After: second.Next, Limit: 10})
	require.NoError(t, err)
	require.Len(t, third.Messages, 1)
	assert.Equal(t, "later", third.Messages[0].Content)
	assert.Greater(t, third.Next.Messages, second.Next.Messages)
}

func TestSettledHoldsBackYoungRows(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-time.Second)
	rows := []models.Message{
		{ID: 1, CreatedAt: now.Add(-5 * time.Second)},
		{ID: 2, CreatedAt: now.Add(-500 * time.Millisecond)},
		{ID: 3, CreatedAt: now.Add(-5 * time.Second)},
	}

	got, next := settled(rows, func(m models.Message) time.Time { return m.CreatedAt }, cutoff, 0)
	require.Len(t, got, 1)
	assert.EqualValues(t, 1, next)

	got, next = settled(rows[:0], func(m models.Message) time.Time { return m.CreatedAt }, cutoff, 7)
	assert.Empty(t, got)
	assert.EqualValues(t, 7, next)
}

func TestSyncService_SettleWindow(t *testing.T) {
	e := newEnv(t, 2)
	ctx := context.Background()
	_, err := e.messages.Send(ctx, SendMessageInput{SenderID: e.users[0].ID, ReceiverID: e.users[1].ID, Content: "fresh"})
	require.NoError(t, err)

	e.sync.settle = time.Hour
	res, err := e.sync.Sync(ctx, SyncInput{UserID: e.users[1].ID})
	require.NoError(t, err)
	assert.Empty(t, res.Messages)
	assert.Zero(t, res.Next.Messages)
	// Unread counts are not held back.
	assert.EqualValues(t, 1, res.UnreadMessages)

	e.sync.now = fixedClock(time.Now().Add(2 * time.Hour))
	res, err = e.sync.Sync(ctx, SyncInput{UserID: e.users[1].ID})
	require.NoError(t, err)
	assert.Len(t, res.Messages, 1)
}

func TestSyncService_SelectedStreams(t *testing.T) {
	e := newEnv(t, 2)
	ctx := context.Background()
	a, b := e.users[0].ID, e.users[1].ID
	_, err := e.messages.Send(ctx, SendMessageInput{SenderID: a, ReceiverID: b, Content: "msg"})
	require.NoError(t, err)
	_, err = e.posts.Create(ctx, a, "post")
	require.NoError(t, err)

	res, err := e.sync.Sync(ctx, SyncInput{
		UserID:  b,
		After:   Watermarks{Notifications: 41, Messages: 0, Posts: 0},
		Streams: []string{StreamPosts},
	})
	require.NoError(t, err)
	assert.Len(t, res.Posts, 1)
	assert.Empty(t, res.Messages)
	assert.Empty(t, res.Notifications)
	assert.EqualValues(t, 41, res.Next.Notifications)
	assert.Zero(t, res.Next.Messages)
	assert.Equal(t, res.Posts[0].ID, res.Next.Posts)
	// Unread counts cover every stream regardless of the selection.
	assert.EqualValues(t, 1, res.UnreadMessages)

	_, err = e.sync.Sync(ctx, SyncInput{UserID: b, Streams: []string{"chat"}})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)
}
