package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"positiveonly/internal/models"
	"positiveonly/internal/repository"
	"positiveonly/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postIdentifiers(posts []*models.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Identifier)
	}
	return out
}

func TestFeedService_GetPostsInFeed_HotOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	viewer := env.register(t, "positive_viewer")
	author := env.register(t, "positive_author")
	now := env.clock.Now()

	popular := env.post(t, author, now.Add(-time.Hour))
	env.like(t, popular, 10)
	fresh := env.post(t, author, now)
	stale := env.post(t, author, now.Add(-48*time.Hour))
	own := env.post(t, viewer, now)

	feed, err := env.feeds.GetPostsInFeed(ctx, viewer.token, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{popular.Identifier, fresh.Identifier, stale.Identifier}, postIdentifiers(feed))
	assert.NotContains(t, postIdentifiers(feed), own.Identifier)
	assert.Equal(t, int64(10), feed[0].LikesCount)
	assert.Equal(t, "positive_author", feed[0].AuthorUsername)
}

func TestFeedService_GetPostsInFeed_Batches(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	viewer := env.register(t, "positive_viewer")
	author := env.register(t, "positive_author")

	for i := 0; i < 25; i++ {
		env.post(t, author, env.clock.Now().Add(-time.Duration(i)*time.Hour))
	}

	seen := map[string]bool{}
	for batch, want := range []int{10, 10, 5, 0} {
		posts, err := env.feeds.GetPostsInFeed(ctx, viewer.token, batch)
		require.NoError(t, err)
		assert.Len(t, posts, want, "batch %d", batch)
		for _, p := range posts {
			assert.False(t, seen[p.Identifier], "batches do not overlap")
			seen[p.Identifier] = true
		}
	}
	assert.Len(t, seen, 25)

	_, err := env.feeds.GetPostsInFeed(ctx, viewer.token, -1)
	assertFields(t, err, validation.FieldBatch)
	_, err = env.feeds.GetPostsInFeed(ctx, "bad", -1)
	assertFields(t, err, validation.FieldBatch, validation.FieldSessionManagementToken)
}

func TestFeedService_GetPostsInFeed_HidesBlockedAndHidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	viewer := env.register(t, "positive_viewer")
	friend := env.register(t, "positive_friend")
	rude := env.register(t, "positive_rudeone")

	kept := env.post(t, friend, env.clock.Now())
	hidden := env.post(t, friend, env.clock.Now())
	require.NoError(t, env.db.Model(&models.Post{}).Where("id = ?", hidden.ID).Update("hidden", true).Error)
	env.post(t, rude, env.clock.Now())
	require.NoError(t, env.relationSvc.Block(ctx, rude.token, viewer.Username))

	feed, err := env.feeds.GetPostsInFeed(ctx, viewer.token, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{kept.Identifier}, postIdentifiers(feed))
}

func TestFeedService_GetPostsForUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	viewer := env.register(t, "positive_viewer")
	author := env.register(t, "positive_author")
	now := env.clock.Now()

	older := env.post(t, author, now.Add(-2*time.Hour))
	env.like(t, older, 50)
	newer := env.post(t, author, now.Add(-time.Hour))

	posts, err := env.feeds.GetPostsForUser(ctx, viewer.token, author.Username, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{newer.Identifier, older.Identifier}, postIdentifiers(posts), "newest first regardless of likes")

	own, err := env.feeds.GetPostsForUser(ctx, author.token, author.Username, 0)
	require.NoError(t, err)
	assert.Len(t, own, 2)

	_, err = env.feeds.GetPostsForUser(ctx, viewer.token, "nobody_here_at_all", 0)
	assertCode(t, models.CodeNotFound, err)

	require.NoError(t, env.relationSvc.Block(ctx, viewer.token, author.Username))
	posts, err = env.feeds.GetPostsForUser(ctx, viewer.token, author.Username, 0)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestFeedService_GetPostsForFollowedUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	viewer := env.register(t, "positive_viewer")
	followed := env.register(t, "positive_followed")
	stranger := env.register(t, "positive_stranger")

	env.post(t, stranger, env.clock.Now())
	posts, err := env.feeds.GetPostsForFollowedUsers(ctx, viewer.token, 0)
	require.NoError(t, err)
	assert.Empty(t, posts, "following nobody yields nothing")

	require.NoError(t, env.relationSvc.Follow(ctx, viewer.token, followed.Username))
	first := env.post(t, followed, env.clock.Now().Add(-time.Hour))
	second := env.post(t, followed, env.clock.Now())

	posts, err = env.feeds.GetPostsForFollowedUsers(ctx, viewer.token, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{second.Identifier, first.Identifier}, postIdentifiers(posts))
}

func TestFeedService_GetCommentThreadsForPost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	viewer := env.register(t, "positive_viewer")
	author := env.register(t, "positive_author")
	fan := env.register(t, "positive_fan")
	post := env.post(t, author, env.clock.Now())

	quiet, _, err := env.commentSvc.CommentOnPost(ctx, author.token, post.Identifier, "Thanks all")
	require.NoError(t, err)
	loud, loudComment, err := env.commentSvc.CommentOnPost(ctx, viewer.token, post.Identifier, "Lovely light")
	require.NoError(t, err)
	require.NoError(t, env.commentSvc.LikeComment(ctx, fan.token, CommentPath{
		PostIdentifier: post.Identifier, ThreadIdentifier: loud, CommentIdentifier: loudComment,
	}))
	require.NoError(t, env.commentSvc.LikeComment(ctx, author.token, CommentPath{
		PostIdentifier: post.Identifier, ThreadIdentifier: loud, CommentIdentifier: loudComment,
	}))

	threads, err := env.feeds.GetCommentThreadsForPost(ctx, fan.token, post.Identifier, 0)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, loud, threads[0].Identifier)
	assert.Equal(t, int64(2), threads[0].LikesCount)
	assert.Equal(t, quiet, threads[1].Identifier)

	require.NoError(t, env.db.Model(&models.Post{}).Where("id = ?", post.ID).Update("hidden", true).Error)
	_, err = env.feeds.GetCommentThreadsForPost(ctx, fan.token, post.Identifier, 0)
	assertCode(t, models.CodeNotFound, err)

	_, err = env.feeds.GetCommentThreadsForPost(ctx, fan.token, "not-an-identifier", -2)
	assertFields(t, err, validation.FieldPostIdentifier, validation.FieldBatch)
}

func TestFeedService_GetCommentsForThread(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	viewer := env.register(t, "positive_viewer")
	author := env.register(t, "positive_author")
	post := env.post(t, author, env.clock.Now())

	thread, _, err := env.commentSvc.CommentOnPost(ctx, author.token, post.Identifier, "First")
	require.NoError(t, err)
	for i := 0; i < 30; i++ {
		_, err := env.commentSvc.ReplyToCommentThread(ctx, viewer.token, post.Identifier, thread, fmt.Sprintf("Reply %d", i))
		require.NoError(t, err)
	}

	first, err := env.feeds.GetCommentsForThread(ctx, viewer.token, thread, 0)
	require.NoError(t, err)
	assert.Len(t, first, 30)
	second, err := env.feeds.GetCommentsForThread(ctx, viewer.token, thread, 1)
	require.NoError(t, err)
	assert.Len(t, second, 1)
	third, err := env.feeds.GetCommentsForThread(ctx, viewer.token, thread, 2)
	require.NoError(t, err)
	assert.Empty(t, third)

	_, err = env.feeds.GetCommentsForThread(ctx, viewer.token, "0123456789ab4def8123456789abcdef", 0)
	assertCode(t, models.CodeNotFound, err)

	require.NoError(t, env.relationSvc.Block(ctx, author.token, viewer.Username))
	_, err = env.feeds.GetCommentsForThread(ctx, viewer.token, thread, 0)
	assertCode(t, models.CodeNotFound, err)
}

type failingBlocks struct {
	repository.RelationshipRepository
}

func (failingBlocks) IsBlockedEitherWay(context.Context, uint, uint) (bool, error) {
	return false, models.NewInternalError(errors.New("connection refused"))
}

func TestFeedService_GetCommentsForThread_StorageError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	viewer := env.register(t, "positive_viewer")
	author := env.register(t, "positive_author")
	post := env.post(t, author, env.clock.Now())
	thread, _, err := env.commentSvc.CommentOnPost(ctx, author.token, post.Identifier, "First")
	require.NoError(t, err)

	feeds := NewFeedService(env.auth, env.users, env.posts, env.comments,
		failingBlocks{env.relationships}, env.clock.Now)
	_, err = feeds.GetCommentsForThread(ctx, viewer.token, thread, 0)
	assertCode(t, models.CodeInternal, err)
}
