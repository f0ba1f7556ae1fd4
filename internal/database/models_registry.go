package database

import (
	"fmt"

	"positiveonly/internal/models"

	"gorm.io/gorm"
)

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Order matters for AutoMigrate: referenced tables come first.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Session{},
		&models.LoginCookie{},
		&models.Post{},
		&models.CommentThread{},
		&models.Comment{},
		&models.PostLike{},
		&models.CommentLike{},
		&models.PostReport{},
		&models.CommentReport{},
		&models.Follow{},
		&models.Block{},
	}
}

// Migrate brings the schema of db up to date with PersistentModels.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
