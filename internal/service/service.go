// Package service implements the account, feed, content, moderation and
// relationship operations on top of the repositories.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"positiveonly/internal/models"
	"positiveonly/internal/notifications"
	"positiveonly/internal/observability"
	"positiveonly/internal/repository"
	"positiveonly/internal/validation"
)

// Authenticator resolves a bearer session token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, sessionToken string) (*models.User, error)
}

// Limiter reports whether another attempt on resource by id is allowed.
type Limiter func(ctx context.Context, resource, id string) (bool, error)

// AllowAll is a Limiter that never limits.
func AllowAll(context.Context, string, string) (bool, error) { return true, nil }

func utcNow() time.Time { return time.Now().UTC() }

// authenticate validates the token together with the caller's other fields so
// every invalid input is reported at once, then resolves the session.
func authenticate(ctx context.Context, auth Authenticator, token string, fields *validation.Fields) (*models.User, error) {
	fields.Check(validation.FieldSessionManagementToken, token, validation.Alphanumeric)
	if err := fields.Err(); err != nil {
		return nil, err
	}
	return auth.Authenticate(ctx, token)
}

// visiblePost loads a post the viewer may see. Hidden posts and posts across
// a block relation are reported as missing.
func visiblePost(ctx context.Context, posts repository.PostRepository, relationships repository.RelationshipRepository, viewerID uint, identifier string) (*models.Post, error) {
	post, err := posts.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if err := checkVisible(ctx, relationships, viewerID, post); err != nil {
		return nil, err
	}
	return post, nil
}

func checkVisible(ctx context.Context, relationships repository.RelationshipRepository, viewerID uint, post *models.Post) error {
	if post.Hidden {
		return models.NewNotFoundError("Post", post.Identifier)
	}
	blocked, err := relationships.IsBlockedEitherWay(ctx, viewerID, post.AuthorID)
	if err != nil {
		return err
	}
	if blocked {
		return models.NewNotFoundError("Post", post.Identifier)
	}
	return nil
}

// publishAsync delivers an event without blocking the request. Delivery
// errors are logged only.
func publishAsync(ctx context.Context, publisher notifications.Publisher, operation string, publish func(context.Context, notifications.Publisher) error) {
	if publisher == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.ErrorContext(ctx, "panic publishing notification",
					slog.String("operation", operation),
					slog.String("panic", fmt.Sprint(r)))
			}
		}()
		if err := publish(ctx, publisher); err != nil {
			observability.LogAsyncOperationError(ctx, operation, err, nil)
		}
	}()
}
