package service

import (
	"context"

	"positiveonly/internal/models"
	"positiveonly/internal/notifications"
	"positiveonly/internal/repository"
	"positiveonly/internal/validation"
)

// SearchLimit caps username search results.
const SearchLimit = 10

// RelationshipService manages follows, blocks and profile lookups.
type RelationshipService struct {
	auth          Authenticator
	users         repository.UserRepository
	relationships repository.RelationshipRepository
	notifier      notifications.Publisher
}

// ProfileDetails is the public view of a profile.
type ProfileDetails struct {
	Username       string `json:"username"`
	PostCount      int64  `json:"post_count"`
	FollowerCount  int64  `json:"follower_count"`
	FollowingCount int64  `json:"following_count"`
	IsFollowing    bool   `json:"is_following"`
}

func NewRelationshipService(
	auth Authenticator,
	users repository.UserRepository,
	relationships repository.RelationshipRepository,
	notifier notifications.Publisher,
) *RelationshipService {
	return &RelationshipService{
		auth:          auth,
		users:         users,
		relationships: relationships,
		notifier:      notifier,
	}
}

// target authenticates the caller and resolves another user by name.
func (s *RelationshipService) target(ctx context.Context, sessionToken, username string) (*models.User, *models.User, error) {
	fields := (&validation.Fields{}).Check(validation.FieldUsername, username, validation.Alphanumeric)
	actor, err := authenticate(ctx, s.auth, sessionToken, fields)
	if err != nil {
		return nil, nil, err
	}
	other, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	if other == nil {
		return nil, nil, models.NewNotFoundError("User", username)
	}
	return actor, other, nil
}

func (s *RelationshipService) Follow(ctx context.Context, sessionToken, username string) error {
	follower, followee, err := s.target(ctx, sessionToken, username)
	if err != nil {
		return err
	}
	if follower.ID == followee.ID {
		return models.NewConflictError("cannot follow yourself")
	}
	blocked, err := s.relationships.IsBlockedEitherWay(ctx, follower.ID, followee.ID)
	if err != nil {
		return err
	}
	if blocked {
		return models.NewConflictError("cannot follow a user you are blocking or blocked by")
	}
	created, err := s.relationships.Follow(ctx, follower.ID, followee.ID)
	if err != nil {
		return err
	}
	if !created {
		return models.NewConflictError("already following")
	}

	publishAsync(ctx, s.notifier, "notify.followed", func(ctx context.Context, p notifications.Publisher) error {
		return p.PublishUser(ctx, followee.ID, notifications.Event{
			Type:          notifications.EventFollowed,
			ActorUsername: follower.Username,
		})
	})
	return nil
}

func (s *RelationshipService) Unfollow(ctx context.Context, sessionToken, username string) error {
	follower, followee, err := s.target(ctx, sessionToken, username)
	if err != nil {
		return err
	}
	if follower.ID == followee.ID {
		return models.NewConflictError("cannot unfollow yourself")
	}
	removed, err := s.relationships.Unfollow(ctx, follower.ID, followee.ID)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewConflictError("not following")
	}
	return nil
}

// Block blocks a user and drops follows in both directions.
func (s *RelationshipService) Block(ctx context.Context, sessionToken, username string) error {
	blocker, blocked, err := s.target(ctx, sessionToken, username)
	if err != nil {
		return err
	}
	if blocker.ID == blocked.ID {
		return models.NewConflictError("cannot block yourself")
	}
	created, err := s.relationships.Block(ctx, blocker.ID, blocked.ID)
	if err != nil {
		return err
	}
	if !created {
		return models.NewConflictError("already blocked")
	}
	return nil
}

// Unblock removes a block. Follows removed by the block stay removed.
func (s *RelationshipService) Unblock(ctx context.Context, sessionToken, username string) error {
	blocker, blocked, err := s.target(ctx, sessionToken, username)
	if err != nil {
		return err
	}
	if blocker.ID == blocked.ID {
		return models.NewConflictError("cannot unblock yourself")
	}
	removed, err := s.relationships.Unblock(ctx, blocker.ID, blocked.ID)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewConflictError("not blocked")
	}
	return nil
}

// SearchUsers finds users whose name starts with fragment, ignoring case.
func (s *RelationshipService) SearchUsers(ctx context.Context, sessionToken, fragment string) ([]models.User, error) {
	fields := (&validation.Fields{}).Check(validation.FieldUsernameFragment, fragment, validation.ShortAlphanumeric)
	viewer, err := authenticate(ctx, s.auth, sessionToken, fields)
	if err != nil {
		return nil, err
	}
	return s.users.SearchByUsernamePrefix(ctx, fragment, viewer.ID, SearchLimit)
}

// GetProfileDetails returns counters for a profile outside any block relation.
func (s *RelationshipService) GetProfileDetails(ctx context.Context, sessionToken, username string) (*ProfileDetails, error) {
	viewer, profile, err := s.target(ctx, sessionToken, username)
	if err != nil {
		return nil, err
	}
	blocked, err := s.relationships.IsBlockedEitherWay(ctx, viewer.ID, profile.ID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, models.NewNotFoundError("User", username)
	}
	stats, err := s.users.GetProfileStats(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	following, err := s.relationships.IsFollowing(ctx, viewer.ID, profile.ID)
	if err != nil {
		return nil, err
	}
	return &ProfileDetails{
		Username:       profile.Username,
		PostCount:      stats.PostCount,
		FollowerCount:  stats.FollowerCount,
		FollowingCount: stats.FollowingCount,
		IsFollowing:    following,
	}, nil
}
