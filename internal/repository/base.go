// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"
	"strings"

	"positiveonly/internal/database"
	"positiveonly/internal/models"

	"gorm.io/gorm"
)

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// notFoundOrInternal maps a lookup error to NOT_FOUND or INTERNAL_ERROR.
func notFoundOrInternal(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// visibleAuthors restricts column to authors with no block edge in either
// direction with viewerID.
func visibleAuthors(db *gorm.DB, column string, viewerID uint) *gorm.DB {
	return db.
		Where(column+" NOT IN (SELECT blocked_id FROM blocks WHERE blocker_id = ?)", viewerID).
		Where(column+" NOT IN (SELECT blocker_id FROM blocks WHERE blocked_id = ?)", viewerID)
}

// escapeLike escapes LIKE wildcards so a fragment matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
