package repository

import (
	"context"
	"fmt"
	"testing"

	"circle/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()
	users := createUsers(t, db, 2)
	owner, actor := users[0].ID, users[1].ID

	var ids []uint
	for i := 0; i < 5; i++ {
		n := &models.Notification{
			UserID:     owner,
			FromUserID: &actor,
			Type:       models.NotificationMessageSent,
			Message:    fmt.Sprintf("message %d", i),
		}
		require.NoError(t, repo.Create(ctx, n))
		ids = append(ids, n.ID)
	}

	t.Run("initial load is newest window ascending", func(t *testing.T) {
		rows, err := repo.ListForUser(ctx, owner, 0, 3)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, ids[2], rows[0].ID)
		assert.Equal(t, ids[4], rows[2].ID)
	})

	t.Run("after id returns strictly newer rows", func(t *testing.T) {
		rows, err := repo.ListForUser(ctx, owner, ids[1], 10)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, ids[2], rows[0].ID)

		rows, err = repo.ListForUser(ctx, owner, ids[4], 10)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("other users see nothing", func(t *testing.T) {
		rows, err := repo.ListForUser(ctx, actor, 0, 10)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("mark read is owner scoped and idempotent", func(t *testing.T) {
		n, err := repo.MarkRead(ctx, ids[0], actor)
		require.NoError(t, err)
		assert.Zero(t, n)

		n, err = repo.MarkRead(ctx, ids[0], owner)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		n, err = repo.MarkRead(ctx, ids[0], owner)
		require.NoError(t, err)
		assert.Zero(t, n)

		got, err := repo.GetByID(ctx, ids[0])
		require.NoError(t, err)
		assert.True(t, got.IsRead)
		assert.NotNil(t, got.ReadAt)

		count, err := repo.CountUnread(ctx, owner)
		require.NoError(t, err)
		assert.EqualValues(t, 4, count)
	})

	t.Run("mark all read", func(t *testing.T) {
		n, err := repo.MarkAllRead(ctx, owner)
		require.NoError(t, err)
		assert.EqualValues(t, 4, n)

		count, err := repo.CountUnread(ctx, owner)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestNotificationRepository_RejectsSelfAddressed(t *testing.T) {
	db := newTestDB(t)
	repo := NewNotificationRepository(db)
	users := createUsers(t, db, 1)
	self := users[0].ID

	err := repo.Create(context.Background(), &models.Notification{
		UserID:     self,
		FromUserID: &self,
		Type:       models.NotificationPostCommented,
		Message:    "x",
	})
	assert.Error(t, err)
}
