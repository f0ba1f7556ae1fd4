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

type PostService struct {
	auth          Authenticator
	posts         repository.PostRepository
	relationships repository.RelationshipRepository
	classify      *classifier.FailClosed
	notifier      notifications.Publisher
}

func NewPostService(
	auth Authenticator,
	posts repository.PostRepository,
	relationships repository.RelationshipRepository,
	images classifier.ImageClassifier,
	texts classifier.TextClassifier,
	notifier notifications.Publisher,
) *PostService {
	return &PostService{
		auth:          auth,
		posts:         posts,
		relationships: relationships,
		classify:      classifier.NewFailClosed(images, texts, 0),
		notifier:      notifier,
	}
}

var errPostNotOwned = &models.AppError{
	Code:    models.CodeNotFound,
	Message: "no post with that identifier by that user",
}

// MakePost publishes an image with a caption once both pass the classifiers.
// It returns the new post identifier.
func (s *PostService) MakePost(ctx context.Context, sessionToken, imageURL, caption string) (string, error) {
	fields := (&validation.Fields{}).
		Check(validation.FieldImageURL, imageURL, validation.ImageURL).
		Check(validation.FieldCaption, caption, validation.FreeText)
	author, err := authenticate(ctx, s.auth, sessionToken, fields)
	if err != nil {
		return "", err
	}

	if ok, _ := s.classify.IsImagePositive(ctx, imageURL); !ok {
		observability.ClassifierRejections.WithLabelValues(classifier.KindImage).Inc()
		return "", models.NewContentRejectedError("image is not positive")
	}
	if ok, _ := s.classify.IsTextPositive(ctx, caption); !ok {
		observability.ClassifierRejections.WithLabelValues(classifier.KindText).Inc()
		return "", models.NewContentRejectedError("caption is not positive")
	}

	post := &models.Post{
		Identifier: security.NewIdentifier(),
		AuthorID:   author.ID,
		ImageURL:   imageURL,
		Caption:    caption,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return "", err
	}
	return post.Identifier, nil
}

// DeletePost removes one of the caller's posts with everything under it.
func (s *PostService) DeletePost(ctx context.Context, sessionToken, postIdentifier string) error {
	fields := (&validation.Fields{}).Check(validation.FieldPostIdentifier, postIdentifier, validation.UUID4)
	author, err := authenticate(ctx, s.auth, sessionToken, fields)
	if err != nil {
		return err
	}
	post, err := s.posts.GetByIdentifier(ctx, postIdentifier)
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return errPostNotOwned
		}
		return err
	}
	deleted, err := s.posts.DeleteByAuthor(ctx, post, author.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return errPostNotOwned
	}
	return nil
}

// GetPostDetails returns a visible post with its like count and author.
func (s *PostService) GetPostDetails(ctx context.Context, sessionToken, postIdentifier string) (*models.Post, error) {
	fields := (&validation.Fields{}).Check(validation.FieldPostIdentifier, postIdentifier, validation.UUID4)
	viewer, err := authenticate(ctx, s.auth, sessionToken, fields)
	if err != nil {
		return nil, err
	}
	return visiblePost(ctx, s.posts, s.relationships, viewer.ID, postIdentifier)
}

func (s *PostService) LikePost(ctx context.Context, sessionToken, postIdentifier string) error {
	fields := (&validation.Fields{}).Check(validation.FieldPostIdentifier, postIdentifier, validation.UUID4)
	liker, err := authenticate(ctx, s.auth, sessionToken, fields)
	if err != nil {
		return err
	}
	post, err := visiblePost(ctx, s.posts, s.relationships, liker.ID, postIdentifier)
	if err != nil {
		return err
	}
	if post.AuthorID == liker.ID {
		return models.NewConflictError("cannot like your own post")
	}
	liked, err := s.posts.Like(ctx, liker.ID, post)
	if err != nil {
		return err
	}
	if !liked {
		return models.NewConflictError("post already liked")
	}

	publishAsync(ctx, s.notifier, "notify.post_liked", func(ctx context.Context, p notifications.Publisher) error {
		return p.PublishUser(ctx, post.AuthorID, notifications.Event{
			Type:          notifications.EventPostLiked,
			ActorUsername: liker.Username,
			Target:        post.Identifier,
		})
	})
	return nil
}

func (s *PostService) UnlikePost(ctx context.Context, sessionToken, postIdentifier string) error {
	fields := (&validation.Fields{}).Check(validation.FieldPostIdentifier, postIdentifier, validation.UUID4)
	liker, err := authenticate(ctx, s.auth, sessionToken, fields)
	if err != nil {
		return err
	}
	post, err := visiblePost(ctx, s.posts, s.relationships, liker.ID, postIdentifier)
	if err != nil {
		return err
	}
	if post.AuthorID == liker.ID {
		return models.NewConflictError("cannot unlike your own post")
	}
	removed, err := s.posts.Unlike(ctx, liker.ID, post)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewConflictError("post not liked")
	}
	return nil
}
