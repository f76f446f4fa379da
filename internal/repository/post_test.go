package repository

import (
	"context"
	"testing"

	"circle/internal/database"
	"circle/internal/models"
	"circle/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostAndCommentRepositories(t *testing.T) {
	db := newTestDB(t)
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()
	users := createUsers(t, db, 2)

	p1 := &models.Post{UserID: users[0].ID, Content: "first"}
	p2 := &models.Post{UserID: users[1].ID, Content: "second"}
	require.NoError(t, posts.Create(ctx, p1))
	require.NoError(t, posts.Create(ctx, p2))

	feed, err := posts.Feed(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, p1.ID, feed[0].ID)
	require.NotNil(t, feed[1].User)
	assert.Equal(t, users[1].Username, feed[1].User.Username)

	feed, err = posts.Feed(ctx, p1.ID, 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)

	c1 := &models.Comment{PostID: p1.ID, UserID: users[1].ID, Content: "nice"}
	require.NoError(t, comments.Create(ctx, c1))

	list, err := comments.ListByPost(ctx, p1.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, c1.ID, list[0].ID)

	require.NoError(t, posts.Delete(ctx, p1.ID))
	_, err = posts.GetByID(ctx, p1.ID)
	assert.Error(t, err)
	_, err = comments.GetByID(ctx, c1.ID)
	assert.Error(t, err)
}

func TestPostRepository_FeedIgnoresReplica(t *testing.T) {
	db := newTestDB(t)
	users := createUsers(t, db, 2)
	ctx := context.Background()

	// An empty replica stands in for one that has not caught up yet.
	database.SetReadDB(testutil.NewDB(t))
	t.Cleanup(func() { database.SetReadDB(nil) })

	post := &models.Post{UserID: users[0].ID, Content: "fresh"}
	require.NoError(t, NewPostRepository(db).Create(ctx, post))

	feed, err := NewPostRepository(db).Feed(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, post.ID, feed[0].ID)

	store := NewRelationshipStore(db)
	require.NoError(t, store.Follow(ctx, users[1].ID, users[0].ID))
	followers, err := store.ListFollowers(ctx, users[0].ID)
	require.NoError(t, err)
	assert.Empty(t, followers, "follower lists are still served by the replica")
}
