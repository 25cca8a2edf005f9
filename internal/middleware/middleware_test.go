package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ai-feedback-api/internal/models"
	"github.com/noah-isme/ai-feedback-api/internal/observability"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTProtectedExposesCallerName(t *testing.T) {
	app := fiber.New()
	app.Use(JWTProtected("secret"))
	app.Get("/me", func(c *fiber.Ctx) error {
		return c.SendString(fmt.Sprint(c.Locals(CallerNameLocal)))
	})

	token := signToken(t, "secret", jwt.MapClaims{"name": "grader", "exp": time.Now().Add(time.Hour).Unix()})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "grader", string(body))
}

func TestJWTProtectedRejectsBadTokens(t *testing.T) {
	app := fiber.New()
	app.Use(JWTProtected("secret"))
	app.Get("/me", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	cases := map[string]string{
		"missing":      "",
		"wrong scheme": "Basic abc",
		"wrong secret": "Bearer " + signToken(t, "other", jwt.MapClaims{"name": "x"}),
		"no name":      "Bearer " + signToken(t, "secret", jwt.MapClaims{"sub": "7"}),
		"expired":      "Bearer " + signToken(t, "secret", jwt.MapClaims{"name": "x", "exp": time.Now().Add(-time.Hour).Unix()}),
	}

	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err, name)
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, name)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload), name)
		require.Equal(t, "failed", payload["result"], name)
	}
}

func TestRateLimitReturnsTooManyRequests(t *testing.T) {
	app := fiber.New()
	app.Post("/submissions", RateLimit("submissions", 2, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/submissions", nil))
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
	}
	require.Equal(t, []int{fiber.StatusOK, fiber.StatusOK, fiber.StatusTooManyRequests}, statuses)
}

func TestCorrelationIDIsEchoed(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	var seen string
	app.Get("/", func(c *fiber.Ctx) error {
		seen = observability.CorrelationID(c.UserContext())
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CorrelationHeader, "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "abc-123", resp.Header.Get(CorrelationHeader))
	require.Equal(t, "abc-123", seen)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Header.Get(CorrelationHeader))
	require.Equal(t, resp.Header.Get(CorrelationHeader), seen)

	oversized := httptest.NewRequest(http.MethodGet, "/", nil)
	oversized.Header.Set(CorrelationHeader, strings.Repeat("x", 200))
	resp, err = app.Test(oversized)
	require.NoError(t, err)
	require.Len(t, resp.Header.Get(CorrelationHeader), 36)
}

type memoryRequestLogs struct {
	mu      sync.Mutex
	entries []models.RequestLog
}

func (m *memoryRequestLogs) Create(ctx context.Context, log *models.RequestLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *log)
	return nil
}

func TestRequestLogStoresAPIRequests(t *testing.T) {
	repo := &memoryRequestLogs{}
	app := fiber.New()
	app.Use(CorrelationID())
	app.Use(RequestLog(repo, zerolog.Nop()))
	app.Get("/api/v1/submissions/:id", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"result": "failed"})
	})
	app.Get("/metrics", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/submissions/9?x=1", nil)
	req.Header.Set("X-Correlation-ID", "corr-1")
	req.Header.Set("User-Agent", "tests")
	_, err := app.Test(req)
	require.NoError(t, err)
	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)

	require.Len(t, repo.entries, 1)
	entry := repo.entries[0]
	require.Equal(t, http.MethodGet, entry.Method)
	require.Equal(t, "/api/v1/submissions/9?x=1", entry.URI)
	require.Equal(t, fiber.StatusNotFound, entry.HTTPStatus)
	require.False(t, entry.IsSuccess)
	require.Equal(t, "corr-1", entry.CorrelationID)
	require.Equal(t, "tests", entry.UserAgent)
}
