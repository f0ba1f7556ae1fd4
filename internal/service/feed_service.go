package service

import (
	"context"
	"time"

	"positiveonly/internal/models"
	"positiveonly/internal/ranking"
	"positiveonly/internal/repository"
	"positiveonly/internal/validation"
)

// FeedService answers the ranked and chronological listing queries.
// Visibility filtering always happens before ranking and batching.
type FeedService struct {
	auth          Authenticator
	users         repository.UserRepository
	posts         repository.PostRepository
	comments      repository.CommentRepository
	relationships repository.RelationshipRepository
	now           func() time.Time
}

func NewFeedService(
	auth Authenticator,
	users repository.UserRepository,
	posts repository.PostRepository,
	comments repository.CommentRepository,
	relationships repository.RelationshipRepository,
	now func() time.Time,
) *FeedService {
	if now == nil {
		now = utcNow
	}
	return &FeedService{
		auth:          auth,
		users:         users,
		posts:         posts,
		comments:      comments,
		relationships: relationships,
		now:           now,
	}
}

// GetPostsInFeed returns other users' posts ranked by hot score.
func (s *FeedService) GetPostsInFeed(ctx context.Context, sessionToken string, batch int) ([]*models.Post, error) {
	viewer, err := authenticate(ctx, s.auth, sessionToken, (&validation.Fields{}).CheckBatch(batch))
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.ListVisible(ctx, repository.PostQuery{ViewerID: viewer.ID, ExcludeAuthorID: viewer.ID})
	if err != nil {
		return nil, err
	}
	ranking.SortHot(posts, s.now())
	return ranking.GetBatch(batch, ranking.PostBatchSize, posts), nil
}

// GetPostsForUser returns one user's posts, newest first.
func (s *FeedService) GetPostsForUser(ctx context.Context, sessionToken, username string, batch int) ([]*models.Post, error) {
	fields := (&validation.Fields{}).
		Check(validation.FieldUsername, username, validation.Alphanumeric).
		CheckBatch(batch)
	viewer, err := authenticate(ctx, s.auth, sessionToken, fields)
	if err != nil {
		return nil, err
	}
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	posts, err := s.posts.ListVisible(ctx, repository.PostQuery{ViewerID: viewer.ID, AuthorID: author.ID})
	if err != nil {
		return nil, err
	}
	ranking.SortRecent(posts)
	return ranking.GetBatch(batch, ranking.PostBatchSize, posts), nil
}

// GetPostsForFollowedUsers returns posts by followed users, newest first.
func (s *FeedService) GetPostsForFollowedUsers(ctx context.Context, sessionToken string, batch int) ([]*models.Post, error) {
	viewer, err := authenticate(ctx, s.auth, sessionToken, (&validation.Fields{}).CheckBatch(batch))
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.ListVisible(ctx, repository.PostQuery{ViewerID: viewer.ID, FollowedBy: viewer.ID})
	if err != nil {
		return nil, err
	}
	ranking.SortRecent(posts)
	return ranking.GetBatch(batch, ranking.PostBatchSize, posts), nil
}

// GetCommentThreadsForPost ranks a post's threads by the likes of their
// visible comments.
func (s *FeedService) GetCommentThreadsForPost(ctx context.Context, sessionToken, postIdentifier string, batch int) ([]*models.CommentThread, error) {
	fields := (&validation.Fields{}).
		Check(validation.FieldPostIdentifier, postIdentifier, validation.UUID4).
		CheckBatch(batch)
	viewer, err := authenticate(ctx, s.auth, sessionToken, fields)
	if err != nil {
		return nil, err
	}
	post, err := visiblePost(ctx, s.posts, s.relationships, viewer.ID, postIdentifier)
	if err != nil {
		return nil, err
	}
	threads, err := s.comments.ListVisibleThreads(ctx, post.ID, viewer.ID)
	if err != nil {
		return nil, err
	}
	ranking.SortHot(threads, s.now())
	return ranking.GetBatch(batch, ranking.CommentThreadBatchSize, threads), nil
}

// GetCommentsForThread ranks the visible comments of a thread.
func (s *FeedService) GetCommentsForThread(ctx context.Context, sessionToken, threadIdentifier string, batch int) ([]*models.Comment, error) {
	fields := (&validation.Fields{}).
		Check(validation.FieldCommentThreadIdentifier, threadIdentifier, validation.UUID4).
		CheckBatch(batch)
	viewer, err := authenticate(ctx, s.auth, sessionToken, fields)
	if err != nil {
		return nil, err
	}
	thread, err := s.comments.GetThreadByIdentifier(ctx, threadIdentifier)
	if err != nil {
		return nil, err
	}
	if err := checkVisible(ctx, s.relationships, viewer.ID, &thread.Post); err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return nil, models.NewNotFoundError("CommentThread", threadIdentifier)
		}
		return nil, err
	}
	comments, err := s.comments.ListVisibleComments(ctx, thread.ID, viewer.ID)
	if err != nil {
		return nil, err
	}
	ranking.SortHot(comments, s.now())
	return ranking.GetBatch(batch, ranking.CommentBatchSize, comments), nil
}
