package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"positiveonly/internal/classifier"
	"positiveonly/internal/models"
	"positiveonly/internal/repository"
	"positiveonly/internal/security"
	"positiveonly/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testPassword = "Sunshine#2024"

const (
	eventuallyWait = 2 * time.Second
	eventuallyTick = 10 * time.Millisecond
)

type testEnv struct {
	db    *gorm.DB
	clock *testutil.Clock
	mail  *testutil.MailRecorder
	feed  *testutil.PublishRecorder

	users         repository.UserRepository
	sessions      repository.SessionRepository
	posts         repository.PostRepository
	comments      repository.CommentRepository
	relationships repository.RelationshipRepository
	reports       repository.ReportRepository

	auth        *AuthService
	feeds       *FeedService
	postService *PostService
	commentSvc  *CommentService
	moderation  *ModerationService
	relationSvc *RelationshipService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	env := &testEnv{
		db:            db,
		clock:         testutil.NewClock(time.Now()),
		mail:          testutil.NewMailRecorder(),
		feed:          testutil.NewPublishRecorder(),
		users:         repository.NewUserRepository(db),
		sessions:      repository.NewSessionRepository(db),
		posts:         repository.NewPostRepository(db),
		comments:      repository.NewCommentRepository(db),
		relationships: repository.NewRelationshipRepository(db),
		reports:       repository.NewReportRepository(db),
	}
	env.auth = NewAuthService(env.users, env.sessions, security.NewHasher(bcrypt.MinCost), env.mail, AuthConfig{
		ResetCodeTTL:     15 * time.Minute,
		ResetVerifiedTTL: 10 * time.Minute,
		Now:              env.clock.Now,
	})
	accept := classifier.NewStatic()
	env.feeds = NewFeedService(env.auth, env.users, env.posts, env.comments, env.relationships, env.clock.Now)
	env.postService = NewPostService(env.auth, env.posts, env.relationships, accept, accept, env.feed)
	env.commentSvc = NewCommentService(env.auth, env.posts, env.comments, env.relationships, accept, env.feed)
	env.moderation = NewModerationService(env.auth, env.posts, env.comments, env.relationships, env.reports, env.feed)
	env.relationSvc = NewRelationshipService(env.auth, env.users, env.relationships, env.feed)
	return env
}

// member is a registered user with a live session.
type member struct {
	*models.User
	token string
}

func (e *testEnv) register(t *testing.T, username string) member {
	t.Helper()
	creds, err := e.auth.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: testPassword,
		IP:       "127.0.0.1",
	})
	require.NoError(t, err)
	user, err := e.users.GetByUsername(context.Background(), username)
	require.NoError(t, err)
	require.NotNil(t, user)
	return member{User: user, token: creds.SessionToken}
}

func (e *testEnv) post(t *testing.T, author member, createdAt time.Time) *models.Post {
	t.Helper()
	ident, err := e.postService.MakePost(context.Background(), author.token, "https://cdn.example.com/sun.jpg", "Good vibes")
	require.NoError(t, err)
	require.NoError(t, e.db.Model(&models.Post{}).Where("identifier = ?", ident).Update("created_at", createdAt).Error)
	post, err := e.posts.GetByIdentifier(context.Background(), ident)
	require.NoError(t, err)
	return post
}

func (e *testEnv) like(t *testing.T, post *models.Post, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		fan := &models.User{
			Identifier:   security.NewIdentifier(),
			Username:     "fan_" + security.NewIdentifier()[:12],
			Email:        security.NewIdentifier() + "@fans.example.com",
			PasswordHash: "x",
			ResetCode:    models.NoResetCode,
		}
		require.NoError(t, e.db.Create(fan).Error)
		require.NoError(t, e.db.Create(&models.PostLike{UserID: fan.ID, PostID: post.ID}).Error)
	}
}

func assertCode(t *testing.T, code string, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}

func assertFields(t *testing.T, err error, fields ...string) {
	t.Helper()
	assertCode(t, models.CodeValidation, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, fields, appErr.Fields)
}
