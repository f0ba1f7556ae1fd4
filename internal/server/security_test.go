package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"positiveonly/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityHeaders(t *testing.T) {
	h := newHarness(t, "")

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp, err := h.app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Frame-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func TestReadinessCheck(t *testing.T) {
	t.Run("degraded without redis", func(t *testing.T) {
		h := newHarness(t, "")
		var body readiness
		assert.Equal(t, fiber.StatusOK, h.do(t, http.MethodGet, "/health/ready", "", nil, &body))
		assert.Equal(t, "degraded", body.Status)
		assert.Equal(t, "healthy", body.Checks["database"])
		assert.Equal(t, "unavailable", body.Checks["redis"])
	})

	t.Run("healthy with redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })

		h := newHarness(t, "")
		srv := NewServer(&config.Config{}, h.db, rdb, Services{}, nil)
		app := fiber.New()
		app.Get("/health/ready", srv.ReadinessCheck)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("unhealthy without database", func(t *testing.T) {
		srv := NewServer(&config.Config{}, nil, nil, Services{}, nil)
		app := fiber.New()
		app.Get("/health/ready", srv.ReadinessCheck)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	})
}
