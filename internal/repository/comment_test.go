package repository

import (
	"context"
	"testing"
	"time"

	"positiveonly/internal/models"
	"positiveonly/internal/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_ThreadsAndComments(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	author := createUser(t, db, "positive_user1")
	viewer := createUser(t, db, "viewer_user1")
	blocker := createUser(t, db, "blocker_user")
	post := createPost(t, db, author, time.Now())

	thread, first := createThread(t, db, post, author, "so pretty")
	reply := &models.Comment{Identifier: security.NewIdentifier(), ThreadID: thread.ID, AuthorID: viewer.ID, Body: "agreed"}
	require.NoError(t, repo.CreateComment(ctx, reply))
	hiddenReply := &models.Comment{Identifier: security.NewIdentifier(), ThreadID: thread.ID, AuthorID: viewer.ID, Body: "later hidden"}
	require.NoError(t, repo.CreateComment(ctx, hiddenReply))
	require.NoError(t, db.Model(hiddenReply).Update("hidden", true).Error)

	blockedThread, _ := createThread(t, db, post, blocker, "from a blocker")
	require.NoError(t, db.Create(&models.Block{BlockerID: blocker.ID, BlockedID: viewer.ID}).Error)

	liked, err := repo.Like(ctx, viewer.ID, first.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	liked, err = repo.Like(ctx, viewer.ID, first.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	liked, err = repo.Like(ctx, author.ID, reply.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	_, err = repo.Like(ctx, author.ID, hiddenReply.ID)
	require.NoError(t, err)

	t.Run("Get Thread", func(t *testing.T) {
		got, err := repo.GetThread(ctx, post.ID, thread.Identifier)
		require.NoError(t, err)
		assert.Equal(t, thread.ID, got.ID)

		_, err = repo.GetThread(ctx, post.ID+100, thread.Identifier)
		assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	})

	t.Run("Get Comment", func(t *testing.T) {
		got, err := repo.GetComment(ctx, thread.ID, first.Identifier)
		require.NoError(t, err)
		assert.Equal(t, "positive_user1", got.AuthorUsername)
		assert.Equal(t, int64(1), got.LikesCount)
		assert.Equal(t, author.ID, got.AuthorID)
	})

	t.Run("Threads Visible To Viewer", func(t *testing.T) {
		threads, err := repo.ListVisibleThreads(ctx, post.ID, viewer.ID)
		require.NoError(t, err)
		require.Len(t, threads, 1)
		assert.Equal(t, thread.Identifier, threads[0].Identifier)
		assert.Equal(t, int64(2), threads[0].LikesCount, "hidden comment likes are not counted")
	})

	t.Run("Threads Visible To Author", func(t *testing.T) {
		threads, err := repo.ListVisibleThreads(ctx, post.ID, author.ID)
		require.NoError(t, err)
		ids := []string{}
		for _, th := range threads {
			ids = append(ids, th.Identifier)
		}
		assert.ElementsMatch(t, []string{thread.Identifier, blockedThread.Identifier}, ids)
	})

	t.Run("Comments Visible To Viewer", func(t *testing.T) {
		comments, err := repo.ListVisibleComments(ctx, thread.ID, viewer.ID)
		require.NoError(t, err)
		ids := []string{}
		for _, c := range comments {
			ids = append(ids, c.Identifier)
		}
		assert.ElementsMatch(t, []string{first.Identifier, reply.Identifier}, ids)
	})

	t.Run("Delete Comment", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, reply))
		_, err := repo.GetComment(ctx, thread.ID, reply.Identifier)
		assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

		var likes int64
		require.NoError(t, db.Model(&models.CommentLike{}).Where("comment_id = ?", reply.ID).Count(&likes).Error)
		assert.Zero(t, likes)
	})

	t.Run("Unlike", func(t *testing.T) {
		unliked, err := repo.Unlike(ctx, viewer.ID, first.ID)
		require.NoError(t, err)
		assert.True(t, unliked)
		unliked, err = repo.Unlike(ctx, viewer.ID, first.ID)
		require.NoError(t, err)
		assert.False(t, unliked)
	})
}

func TestCommentRepository_GetThreadByIdentifier(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommentRepository(db)
	author := createUser(t, db, "positive_user1")
	post := createPost(t, db, author, time.Now())
	thread, _ := createThread(t, db, post, author, "first")

	got, err := repo.GetThreadByIdentifier(context.Background(), thread.Identifier)
	require.NoError(t, err)
	assert.Equal(t, post.Identifier, got.Post.Identifier)
	assert.Equal(t, author.ID, got.Post.AuthorID)

	_, err = repo.GetThreadByIdentifier(context.Background(), post.Identifier)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}
