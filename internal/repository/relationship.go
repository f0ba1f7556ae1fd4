package repository

import (
	"context"

	"positiveonly/internal/models"
	"positiveonly/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RelationshipRepository persists follow and block edges.
type RelationshipRepository interface {
	// Follow reports false when the edge already existed.
	Follow(ctx context.Context, followerID, followeeID uint) (bool, error)
	// Unfollow reports false when there was no edge to remove.
	Unfollow(ctx context.Context, followerID, followeeID uint) (bool, error)
	IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error)
	// Block inserts the edge and removes follows in both directions in one
	// transaction. It reports false when the block already existed.
	Block(ctx context.Context, blockerID, blockedID uint) (bool, error)
	Unblock(ctx context.Context, blockerID, blockedID uint) (bool, error)
	// IsBlockedEitherWay reports a block edge in either direction.
	IsBlockedEitherWay(ctx context.Context, userA, userB uint) (bool, error)
}

type relationshipRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewRelationshipRepository creates a new relationship repository
func NewRelationshipRepository(db *gorm.DB) RelationshipRepository {
	return &relationshipRepository{db: db, log: observability.NewRepoLogger("relationships")}
}

func (r *relationshipRepository) Follow(ctx context.Context, followerID, followeeID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Follow{FollowerID: followerID, FolloweeID: followeeID})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *relationshipRepository) Unfollow(ctx context.Context, followerID, followeeID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *relationshipRepository) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *relationshipRepository) Block(ctx context.Context, blockerID, blockedID uint) (bool, error) {
	var created bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Block{BlockerID: blockerID, BlockedID: blockedID})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		created = true
		return tx.Where("(follower_id = ? AND followee_id = ?) OR (follower_id = ? AND followee_id = ?)",
			blockerID, blockedID, blockedID, blockerID).
			Delete(&models.Follow{}).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "block")
		return false, models.NewInternalError(err)
	}
	if created {
		r.log.LogCreate(ctx, map[string]any{"blocker_id": blockerID, "blocked_id": blockedID})
	}
	return created, nil
}

func (r *relationshipRepository) Unblock(ctx context.Context, blockerID, blockedID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.Block{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *relationshipRepository) IsBlockedEitherWay(ctx context.Context, userA, userB uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", userA, userB, userB, userA).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}
