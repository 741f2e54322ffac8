package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"scribble/internal/featureflags"
	"scribble/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newGet(path string) *http.Request {
	return httptest.NewRequest(http.MethodGet, path, nil)
}

// setupMockDB creates a GORM *gorm.DB backed by sqlmock with ping monitoring.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)
	return gormDB, mock
}

func TestNewServerWithDeps_RequiresDB(t *testing.T) {
	_, err := NewServerWithDeps(testConfig(t), nil, nil)
	assert.Error(t, err)
}

func TestLivenessCheck(t *testing.T) {
	env := newTestEnv(t)
	resp := env.get(t, "/health/live", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "up", decodeBody(t, resp)["status"])
}

func TestReadinessCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		env := newTestEnv(t)
		resp := env.get(t, "/health/ready", "")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		checks := decodeBody(t, resp)["checks"].(map[string]any)
		assert.Equal(t, "healthy", checks["database"])
		assert.Equal(t, "healthy", checks["redis"])
	})

	t.Run("redis down", func(t *testing.T) {
		env := newTestEnv(t)
		env.mr.Close()
		resp := env.get(t, "/health/ready", "")
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("redis disabled", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectPing()
		cfg := testConfig(t)
		cfg.RedisURL = ""
		srv, err := NewServerWithDeps(cfg, db, nil)
		require.NoError(t, err)

		resp, err := srv.App().Test(newGet("/health/ready"))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "disabled", decodeBody(t, resp)["checks"].(map[string]any)["redis"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database down", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		cfg := testConfig(t)
		cfg.RedisURL = ""
		srv, err := NewServerWithDeps(cfg, db, nil)
		require.NoError(t, err)

		resp, err := srv.App().Test(newGet("/health/ready"))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "unhealthy", decodeBody(t, resp)["checks"].(map[string]any)["database"])
	})
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t)
	resp := env.get(t, "/", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Frame-Options"))
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	env := newTestEnv(t)
	resp := env.get(t, "/nope/", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(t, decodeBody(t, resp), "error")
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.get(t, "/", "")
	resp := env.get(t, "/metrics", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestWebsocketEndpoint(t *testing.T) {
	env := newTestEnv(t)

	t.Run("anonymous gets 401", func(t *testing.T) {
		resp := env.get(t, "/ws", "")
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, models.CodeUnauthorized, decodeBody(t, resp)["code"])
	})

	user := models.User{Username: "alice", Email: "alice@example.com", Password: "x"}
	require.NoError(t, env.db.Create(&user).Error)
	cookie := env.login(t, &user)

	t.Run("plain HTTP needs upgrade", func(t *testing.T) {
		resp := env.get(t, "/ws", cookie)
		assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
	})

	t.Run("switched off", func(t *testing.T) {
		env.srv.flags = featureflags.Parse("live_notifications=off")
		resp := env.get(t, "/ws", cookie)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestShutdown(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.srv.Shutdown(t.Context()))
}
