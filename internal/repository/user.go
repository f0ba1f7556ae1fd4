package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"positiveonly/internal/cache"
	"positiveonly/internal/models"
	"positiveonly/internal/observability"

	"gorm.io/gorm"
)

// ProfileStats are the counters shown on a profile.
type ProfileStats struct {
	PostCount      int64
	FollowerCount  int64
	FollowingCount int64
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByIdentity resolves a username, falling back to email.
	GetByIdentity(ctx context.Context, usernameOrEmail string) (*models.User, error)
	GetByUsernameAndEmail(ctx context.Context, username, email string) (*models.User, error)
	// CreateAccount inserts the user, its first session and, when non-nil,
	// a login cookie in one transaction.
	CreateAccount(ctx context.Context, user *models.User, session *models.Session, cookie *models.LoginCookie) error
	SetResetCode(ctx context.Context, userID uint, code int, expiresAt time.Time) error
	// ConsumeResetCode swaps code for the sentinel and opens the verified
	// window. It reports false when the stored code no longer matches.
	ConsumeResetCode(ctx context.Context, userID uint, code int, verifiedUntil time.Time) (bool, error)
	// CompletePasswordReset stores the new hash, closes the verified window and
	// revokes every session and login cookie. It reports false when the
	// window was already consumed.
	CompletePasswordReset(ctx context.Context, userID uint, passwordHash string) (bool, error)
	// MarkIdentityVerified records a verified identity and its adult flag.
	// It reports false when the identity was already verified.
	MarkIdentityVerified(ctx context.Context, userID uint, isAdult bool) (bool, error)
	Delete(ctx context.Context, id uint) error
	SearchByUsernamePrefix(ctx context.Context, fragment string, viewerID uint, limit int) ([]models.User, error)
	GetProfileStats(ctx context.Context, userID uint) (*ProfileStats, error)
}

type userRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, log: observability.NewRepoLogger("users")}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := readDB(r.db).WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFoundOrInternal(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	if err := readDB(r.db).WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userRepository) GetByIdentity(ctx context.Context, usernameOrEmail string) (*models.User, error) {
	user, err := r.GetByUsername(ctx, usernameOrEmail)
	if err != nil || user != nil {
		return user, err
	}
	return r.GetByEmail(ctx, usernameOrEmail)
}

func (r *userRepository) GetByUsernameAndEmail(ctx context.Context, username, email string) (*models.User, error) {
	return r.findOne(ctx, "username = ? AND email = ?", username, email)
}

func (r *userRepository) CreateAccount(ctx context.Context, user *models.User, session *models.Session, cookie *models.LoginCookie) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		session.UserID = user.ID
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		if cookie != nil {
			cookie.UserID = user.ID
			if err := tx.Create(cookie).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return accountConflict(err)
		}
		r.log.LogError(ctx, err, "create_account")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{"user_id": user.ID, "remember_me": cookie != nil})
	return nil
}

// accountConflict names the colliding column when the driver reports it.
func accountConflict(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "username"):
		return models.NewConflictError("username already taken")
	case strings.Contains(msg, "email"):
		return models.NewConflictError("email already registered")
	default:
		return models.NewConflictError("account already exists")
	}
}

func (r *userRepository) SetResetCode(ctx context.Context, userID uint, code int, expiresAt time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"reset_code":            code,
			"reset_code_expires_at": expiresAt,
			"reset_verified_until":  nil,
		}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) ConsumeResetCode(ctx context.Context, userID uint, code int, verifiedUntil time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND reset_code = ? AND reset_code >= 0", userID, code).
		Updates(map[string]interface{}{
			"reset_code":            models.NoResetCode,
			"reset_code_expires_at": nil,
			"reset_verified_until":  verifiedUntil,
		})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *userRepository) MarkIdentityVerified(ctx context.Context, userID uint, isAdult bool) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND identity_is_verified = ?", userID, false).
		Updates(map[string]interface{}{
			"identity_is_verified": true,
			"is_adult":             isAdult,
		})
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "mark_identity_verified")
		return false, models.NewInternalError(result.Error)
	}
	if result.RowsAffected != 1 {
		return false, nil
	}
	r.log.LogUpdate(ctx, map[string]any{"user_id": userID, "field": "identity_is_verified"})
	return true, nil
}

func (r *userRepository) CompletePasswordReset(ctx context.Context, userID uint, passwordHash string) (bool, error) {
	var updated bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.User{}).
			Where("id = ? AND reset_verified_until IS NOT NULL", userID).
			Updates(map[string]interface{}{
				"password_hash":        passwordHash,
				"reset_verified_until": nil,
				"reset_code":           models.NoResetCode,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return nil
		}
		updated = true
		return revokeUserCredentials(tx, userID)
	})
	if err != nil {
		r.log.LogError(ctx, err, "complete_password_reset")
		return false, models.NewInternalError(err)
	}
	if updated {
		r.log.LogUpdate(ctx, map[string]any{"user_id": userID, "field": "password_hash"})
	}
	return updated, nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	var staleIdentifiers []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		staleIdentifiers, err = deleteUserCascade(tx, id)
		return err
	})
	if err != nil {
		r.log.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	for _, identifier := range staleIdentifiers {
		cache.InvalidatePost(ctx, identifier)
	}
	r.log.LogDelete(ctx, map[string]any{"user_id": id})
	return nil
}

func (r *userRepository) SearchByUsernamePrefix(ctx context.Context, fragment string, viewerID uint, limit int) ([]models.User, error) {
	if limit <= 0 {
		limit = 10
	}
	var users []models.User
	pattern := escapeLike(strings.ToLower(fragment)) + "%"
	query := readDB(r.db).WithContext(ctx).
		Where(`LOWER(username) LIKE ? ESCAPE '\'`, pattern).
		Where("id <> ?", viewerID)
	if err := visibleAuthors(query, "id", viewerID).
		Order("username ASC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) GetProfileStats(ctx context.Context, userID uint) (*ProfileStats, error) {
	db := readDB(r.db).WithContext(ctx)
	var stats ProfileStats
	if err := db.Model(&models.Post{}).Where("author_id = ? AND hidden = ?", userID, false).Count(&stats.PostCount).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := db.Model(&models.Follow{}).Where("followee_id = ?", userID).Count(&stats.FollowerCount).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := db.Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&stats.FollowingCount).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return &stats, nil
}
