package repository

import (
	"testing"
	"time"

	"positiveonly/internal/models"
	"positiveonly/internal/security"
	"positiveonly/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.NewSQLiteDB(t)
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Identifier:   security.NewIdentifier(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		ResetCode:    models.NoResetCode,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createPost(t *testing.T, db *gorm.DB, author *models.User, createdAt time.Time) *models.Post {
	t.Helper()
	post := &models.Post{
		Identifier: security.NewIdentifier(),
		AuthorID:   author.ID,
		ImageURL:   "https://cdn.example.com/sunrise.jpg",
		Caption:    "A lovely morning",
		CreatedAt:  createdAt,
	}
	require.NoError(t, db.Omit("Author").Create(post).Error)
	return post
}

func createThread(t *testing.T, db *gorm.DB, post *models.Post, author *models.User, body string) (*models.CommentThread, *models.Comment) {
	t.Helper()
	thread := &models.CommentThread{Identifier: security.NewIdentifier(), PostID: post.ID}
	comment := &models.Comment{Identifier: security.NewIdentifier(), AuthorID: author.ID, Body: body}
	require.NoError(t, NewCommentRepository(db).CreateThread(t.Context(), thread, comment))
	return thread, comment
}
