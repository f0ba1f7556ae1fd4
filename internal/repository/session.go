package repository

import (
	"context"
	"errors"

	"positiveonly/internal/models"
	"positiveonly/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CookieRotation describes one successful remember-me login.
type CookieRotation struct {
	SeriesIdentifier string
	OldTokenHash     string
	NewTokenHash     string
	// NewSession is created for the cookie owner.
	NewSession *models.Session
	// RetireSessionID, when non-zero, is deleted in the same transaction.
	RetireSessionID uint
}

// SessionRepository persists bearer sessions and remember-me login cookies.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	// CreateLogin inserts a session and, when non-nil, a login cookie in one
	// transaction.
	CreateLogin(ctx context.Context, session *models.Session, cookie *models.LoginCookie) error
	// GetByTokenHash returns nil, nil when no session matches.
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)
	// DeleteByTokenHash reports whether a session was removed.
	DeleteByTokenHash(ctx context.Context, tokenHash string) (bool, error)
	CreateCookie(ctx context.Context, cookie *models.LoginCookie) error
	FindCookiesBySeries(ctx context.Context, seriesIdentifier string) ([]models.LoginCookie, error)
	// RotateCookie swaps the cookie token only if the stored hash still equals
	// OldTokenHash. It reports false, with nothing written, when it does not.
	RotateCookie(ctx context.Context, rotation CookieRotation) (bool, error)
	// RevokeSeries deletes the cookie series and every session of its owner.
	RevokeSeries(ctx context.Context, seriesIdentifier string, userID uint) error
}

type sessionRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db, log: observability.NewRepoLogger("sessions")}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	return nil
}

func (r *sessionRepository) CreateLogin(ctx context.Context, session *models.Session, cookie *models.LoginCookie) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(session).Error; err != nil {
			return err
		}
		if cookie == nil {
			return nil
		}
		cookie.UserID = session.UserID
		return tx.Create(cookie).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "create_login")
		return models.NewInternalError(err)
	}
	return nil
}

func (r *sessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	var session models.Session
	// Sessions are read from the primary so a revoke is visible immediately.
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("token_hash = ?", tokenHash).
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &session, nil
}

func (r *sessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) (bool, error) {
	result := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&models.Session{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *sessionRepository) CreateCookie(ctx context.Context, cookie *models.LoginCookie) error {
	if err := r.db.WithContext(ctx).Create(cookie).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("login cookie series already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *sessionRepository) FindCookiesBySeries(ctx context.Context, seriesIdentifier string) ([]models.LoginCookie, error) {
	var cookies []models.LoginCookie
	if err := r.db.WithContext(ctx).
		Where("series_identifier = ?", seriesIdentifier).
		Limit(2).
		Find(&cookies).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return cookies, nil
}

func (r *sessionRepository) RotateCookie(ctx context.Context, rotation CookieRotation) (bool, error) {
	var rotated bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.LoginCookie{}).
			Where("series_identifier = ? AND token_hash = ?", rotation.SeriesIdentifier, rotation.OldTokenHash).
			Update("token_hash", rotation.NewTokenHash)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return nil
		}
		if err := tx.Create(rotation.NewSession).Error; err != nil {
			return err
		}
		if rotation.RetireSessionID != 0 {
			if err := tx.Delete(&models.Session{}, rotation.RetireSessionID).Error; err != nil {
				return err
			}
		}
		rotated = true
		return nil
	})
	if err != nil {
		r.log.LogError(ctx, err, "rotate_cookie")
		return false, models.NewInternalError(err)
	}
	return rotated, nil
}

func (r *sessionRepository) RevokeSeries(ctx context.Context, seriesIdentifier string, userID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("series_identifier = ?", seriesIdentifier).Delete(&models.LoginCookie{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).Delete(&models.Session{}).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "revoke_series")
		return models.NewInternalError(err)
	}
	r.log.LogDelete(ctx, map[string]any{"user_id": userID, "reason": "series_revoked"})
	return nil
}
