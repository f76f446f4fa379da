package service

import (
	"context"
	"errors"
	"testing"

	"circle/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService_NotifiesPostAuthor(t *testing.T) {
	e := newEnv(t, 2)
	ctx := context.Background()
	author, commenter := e.users[0].ID, e.users[1].ID

	post, err := e.posts.Create(ctx, author, "my post")
	require.NoError(t, err)

	comment, err := e.comments.Create(ctx, CreateCommentInput{UserID: commenter, PostID: post.ID, Content: "nice"})
	require.NoError(t, err)

	var notifs []models.Notification
	require.NoError(t, e.db.Where("user_id = ?", author).Find(&notifs).Error)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotificationPostCommented, notifs[0].Type)
	require.NotNil(t, notifs[0].PostID)
	require.NotNil(t, notifs[0].CommentID)
	assert.Equal(t, post.ID, *notifs[0].PostID)
	assert.Equal(t, comment.ID, *notifs[0].CommentID)
}

func TestCommentService_OwnPostYieldsNoNotification(t *testing.T) {
	e := newEnv(t, 1)
	ctx := context.Background()
	author := e.users[0].ID

	post, err := e.posts.Create(ctx, author, "my post")
	require.NoError(t, err)
	_, err = e.comments.Create(ctx, CreateCommentInput{UserID: author, PostID: post.ID, Content: "replying to myself"})
	require.NoError(t, err)

	assert.Zero(t, e.countWhere(t, &models.Notification{}, "1 = 1"))
}

func TestPostService_DeleteKeepsNotifications(t *testing.T) {
	e := newEnv(t, 2)
	ctx := context.Background()
	author, commenter := e.users[0].ID, e.users[1].ID

	post, err := e.posts.Create(ctx, author, "short lived")
	require.NoError(t, err)
	_, err = e.comments.Create(ctx, CreateCommentInput{UserID: commenter, PostID: post.ID, Content: "hi"})
	require.NoError(t, err)

	err = e.posts.Delete(ctx, commenter, post.ID)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeForbidden, appErr.Code)

	require.NoError(t, e.posts.Delete(ctx, author, post.ID))
	_, err = e.comments.ListByPost(ctx, post.ID, 0, 10)
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeNotFound, appErr.Code)

	assert.EqualValues(t, 1, e.countWhere(t, &models.Notification{}, "post_id = ?", post.ID))
}

func TestPostService_Validation(t *testing.T) {
	e := newEnv(t, 1)
	_, err := e.posts.Create(context.Background(), e.users[0].ID, "  ")
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeValidation, appErr.Code)

	_, err = e.comments.Create(context.Background(), CreateCommentInput{UserID: e.users[0].ID, PostID: 999, Content: "x"})
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}
