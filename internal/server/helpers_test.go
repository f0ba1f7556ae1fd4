package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"positiveonly/internal/classifier"
	"positiveonly/internal/config"
	"positiveonly/internal/featureflags"
	"positiveonly/internal/mailer"
	"positiveonly/internal/models"
	"positiveonly/internal/repository"
	"positiveonly/internal/security"
	"positiveonly/internal/service"
	"positiveonly/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testPassword = "Sunshine#2024"

// MockSender is a mock of mailer.Sender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg mailer.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type harness struct {
	app  *fiber.App
	db   *gorm.DB
	mail *MockSender
}

func newHarness(t *testing.T, flags string) *harness {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	mail := new(MockSender)

	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	comments := repository.NewCommentRepository(db)
	relationships := repository.NewRelationshipRepository(db)
	notifier := testutil.NewPublishRecorder()
	accept := classifier.NewStatic()

	auth := service.NewAuthService(users, repository.NewSessionRepository(db),
		security.NewHasher(bcrypt.MinCost), mail, service.AuthConfig{})
	svc := Services{
		Auth:          auth,
		Feed:          service.NewFeedService(auth, users, posts, comments, relationships, nil),
		Posts:         service.NewPostService(auth, posts, relationships, accept, accept, notifier),
		Comments:      service.NewCommentService(auth, posts, comments, relationships, accept, notifier),
		Moderation:    service.NewModerationService(auth, posts, comments, relationships, repository.NewReportRepository(db), notifier),
		Relationships: service.NewRelationshipService(auth, users, relationships, notifier),
	}

	srv := NewServer(&config.Config{Port: "0"}, db, nil, svc, featureflags.NewManager(flags))
	return &harness{app: srv.App(), db: db, mail: mail}
}

// do sends a JSON request and decodes the response body into out when set.
func (h *harness) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func (h *harness) register(t *testing.T, username string) string {
	t.Helper()
	var creds credentialsResponse
	status := h.do(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": username,
		"email":    username + "@example.com",
		"password": testPassword,
	}, &creds)
	require.Equal(t, fiber.StatusCreated, status)
	require.NotEmpty(t, creds.SessionManagementToken)
	return creds.SessionManagementToken
}

func (h *harness) createPost(t *testing.T, token, caption string) string {
	t.Helper()
	var created struct {
		PostIdentifier string `json:"post_identifier"`
	}
	status := h.do(t, http.MethodPost, "/api/posts", token, fiber.Map{
		"image_url": "https://cdn.example.com/sun.jpg",
		"caption":   caption,
	}, &created)
	require.Equal(t, fiber.StatusCreated, status)
	return created.PostIdentifier
}

func TestBatchParam(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"batch": batchParam(c)})
	})

	tests := []struct {
		query string
		want  int
	}{
		{"", 0},
		{"?batch=3", 3},
		{"?batch=-2", -2},
		{"?batch=many", -1},
	}
	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))
		require.NoError(t, err)
		var body struct {
			Batch int `json:"batch"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		_ = resp.Body.Close()
		assert.Equal(t, tt.want, body.Batch, tt.query)
	}
}

func TestCodeForStatus(t *testing.T) {
	assert.Equal(t, models.CodeNotFound, codeForStatus(fiber.StatusNotFound))
	assert.Equal(t, models.CodeNotFound, codeForStatus(fiber.StatusMethodNotAllowed))
	assert.Equal(t, models.CodeValidation, codeForStatus(fiber.StatusBadRequest))
	assert.Equal(t, models.CodeRateLimited, codeForStatus(fiber.StatusTooManyRequests))
	assert.Equal(t, models.CodeUnauthorized, codeForStatus(fiber.StatusUnauthorized))
	assert.Equal(t, models.CodeInternal, codeForStatus(fiber.StatusBadGateway))
}

func TestNewCredentialsResponse(t *testing.T) {
	plain := newCredentialsResponse(&service.IssuedCredentials{SessionToken: "abc"})
	assert.Equal(t, "abc", plain.SessionManagementToken)
	assert.Nil(t, plain.RememberMe)

	withCookie := newCredentialsResponse(&service.IssuedCredentials{
		SessionToken: "abc",
		RememberMe:   service.RememberMeCookie{SeriesIdentifier: "series", CookieToken: "cookie"},
	})
	require.NotNil(t, withCookie.RememberMe)
	assert.Equal(t, "series", withCookie.RememberMe.SeriesIdentifier)
	assert.Equal(t, "cookie", withCookie.RememberMe.LoginCookieToken)
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	h := newHarness(t, "")

	var body models.ErrorResponse
	status := h.do(t, http.MethodGet, "/nowhere", "", nil, &body)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, models.CodeNotFound, body.Code)
}
