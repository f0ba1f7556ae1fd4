package service

import (
	"context"

	"positiveonly/internal/classifier"
	"positiveonly/internal/models"
	"positiveonly/internal/notifications"
	"positiveonly/internal/observability"
	"positiveonly/internal/repository"
	"positiveonly/internal/security"
	"positiveonly/internal/validation"
)

type CommentService struct {
	auth          Authenticator
	posts         repository.PostRepository
	comments      repository.CommentRepository
	relationships repository.RelationshipRepository
	classify      *classifier.FailClosed
	notifier      notifications.Publisher
}

// CommentPath addresses one comment.
type CommentPath struct {
	PostIdentifier    string
	ThreadIdentifier  string
	CommentIdentifier string
}

func (p CommentPath) check(fields *validation.Fields) *validation.Fields {
	return fields.
		Check(validation.FieldPostIdentifier, p.PostIdentifier, validation.UUID4).
		Check(validation.FieldCommentThreadIdentifier, p.ThreadIdentifier, validation.UUID4).
		Check(validation.FieldCommentIdentifier, p.CommentIdentifier, validation.UUID4)
}

func NewCommentService(
	auth Authenticator,
	posts repository.PostRepository,
	comments repository.CommentRepository,
	relationships repository.RelationshipRepository,
	texts classifier.TextClassifier,
	notifier notifications.Publisher,
) *CommentService {
	return &CommentService{
		auth:          auth,
		posts:         posts,
		comments:      comments,
		relationships: relationships,
		classify:      classifier.NewFailClosed(nil, texts, 0),
		notifier:      notifier,
	}
}

func (s *CommentService) checkText(ctx context.Context, text string) error {
	if ok, _ := s.classify.IsTextPositive(ctx, text); !ok {
		observability.ClassifierRejections.WithLabelValues(classifier.KindText).Inc()
		return models.NewContentRejectedError("comment is not positive")
	}
	return nil
}

func (s *CommentService) notifyAuthor(ctx context.Context, eventType string, actor *models.User, recipientID uint, target string) {
	if recipientID == actor.ID {
		return
	}
	publishAsync(ctx, s.notifier, "notify."+eventType, func(ctx context.Context, p notifications.Publisher) error {
		return p.PublishUser(ctx, recipientID, notifications.Event{
			Type:          eventType,
			ActorUsername: actor.Username,
			Target:        target,
		})
	})
}

// CommentOnPost starts a new thread under a post. It returns the thread and
// comment identifiers.
func (s *CommentService) CommentOnPost(ctx context.Context, sessionToken, postIdentifier, text string) (string, string, error) {
	fields := (&validation.Fields{}).
		Check(validation.FieldPostIdentifier, postIdentifier, validation.UUID4).
		Check(validation.FieldCommentText, text, validation.FreeText)
	author, err := authenticate(ctx, s.auth, sessionToken, fields)
	if err != nil {
		return "", "", err
	}
	post, err := visiblePost(ctx, s.posts, s.relationships, author.ID, postIdentifier)
	if err != nil {
		return "", "", err
	}
	if err := s.checkText(ctx, text); err != nil {
		return "", "", err
	}

	thread := &models.CommentThread{Identifier: security.NewIdentifier(), PostID: post.ID}
	comment := &models.Comment{Identifier: security.NewIdentifier(), AuthorID: author.ID, Body: text}
	if err := s.comments.CreateThread(ctx, thread, comment); err != nil {
		return "", "", err
	}
	s.notifyAuthor(ctx, notifications.EventCommented, author, post.AuthorID, post.Identifier)
	return thread.Identifier, comment.Identifier, nil
}

// ReplyToCommentThread appends a comment to a thread of the given post.
func (s *CommentService) ReplyToCommentThread(ctx context.Context, sessionToken, postIdentifier, threadIdentifier, text string) (string, error) {
	fields := (&validation.Fields{}).
		Check(validation.FieldPostIdentifier, postIdentifier, validation.UUID4).
		Check(validation.FieldCommentThreadIdentifier, threadIdentifier, validation.UUID4).
		Check(validation.FieldCommentText, text, validation.FreeText)
	author, err := authenticate(ctx, s.auth, sessionToken, fields)
	if err != nil {
		return "", err
	}
	post, err := visiblePost(ctx, s.posts, s.relationships, author.ID, postIdentifier)
	if err != nil {
		return "", err
	}
	thread, err := s.comments.GetThread(ctx, post.ID, threadIdentifier)
	if err != nil {
		return "", err
	}
	if err := s.checkText(ctx, text); err != nil {
		return "", err
	}

	comment := &models.Comment{Identifier: security.NewIdentifier(), ThreadID: thread.ID, AuthorID: author.ID, Body: text}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return "", err
	}
	s.notifyAuthor(ctx, notifications.EventReplied, author, post.AuthorID, post.Identifier)
	return comment.Identifier, nil
}

// resolve walks the full identifier path to a comment.
func (s *CommentService) resolve(ctx context.Context, path CommentPath) (*models.Post, *models.Comment, error) {
	post, err := s.posts.GetByIdentifier(ctx, path.PostIdentifier)
	if err != nil {
		return nil, nil, err
	}
	thread, err := s.comments.GetThread(ctx, post.ID, path.ThreadIdentifier)
	if err != nil {
		return nil, nil, err
	}
	comment, err := s.comments.GetComment(ctx, thread.ID, path.CommentIdentifier)
	if err != nil {
		return nil, nil, err
	}
	return post, comment, nil
}

// visibleComment resolves a comment the viewer may interact with.
func (s *CommentService) visibleComment(ctx context.Context, viewerID uint, path CommentPath) (*models.Comment, error) {
	post, comment, err := s.resolve(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := checkVisible(ctx, s.relationships, viewerID, post); err != nil {
		return nil, err
	}
	if comment.Hidden {
		return nil, models.NewNotFoundError("Comment", path.CommentIdentifier)
	}
	blocked, err := s.relationships.IsBlockedEitherWay(ctx, viewerID, comment.AuthorID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, models.NewNotFoundError("Comment", path.CommentIdentifier)
	}
	return comment, nil
}

// DeleteComment removes one of the caller's comments.
func (s *CommentService) DeleteComment(ctx context.Context, sessionToken string, path CommentPath) error {
	author, err := authenticate(ctx, s.auth, sessionToken, path.check(&validation.Fields{}))
	if err != nil {
		return err
	}
	_, comment, err := s.resolve(ctx, path)
	if err != nil {
		return err
	}
	if comment.AuthorID != author.ID {
		return models.NewUnauthorizedError("only the author may delete a comment")
	}
	return s.comments.Delete(ctx, comment)
}

func (s *CommentService) LikeComment(ctx context.Context, sessionToken string, path CommentPath) error {
	liker, err := authenticate(ctx, s.auth, sessionToken, path.check(&validation.Fields{}))
	if err != nil {
		return err
	}
	comment, err := s.visibleComment(ctx, liker.ID, path)
	if err != nil {
		return err
	}
	if comment.AuthorID == liker.ID {
		return models.NewConflictError("cannot like your own comment")
	}
	liked, err := s.comments.Like(ctx, liker.ID, comment.ID)
	if err != nil {
		return err
	}
	if !liked {
		return models.NewConflictError("comment already liked")
	}
	s.notifyAuthor(ctx, notifications.EventCommentLiked, liker, comment.AuthorID, comment.Identifier)
	return nil
}

func (s *CommentService) UnlikeComment(ctx context.Context, sessionToken string, path CommentPath) error {
	liker, err := authenticate(ctx, s.auth, sessionToken, path.check(&validation.Fields{}))
	if err != nil {
		return err
	}
	comment, err := s.visibleComment(ctx, liker.ID, path)
	if err != nil {
		return err
	}
	if comment.AuthorID == liker.ID {
		return models.NewConflictError("cannot unlike your own comment")
	}
	removed, err := s.comments.Unlike(ctx, liker.ID, comment.ID)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewConflictError("comment not liked")
	}
	return nil
}
