package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"photoshare/internal/config"
	"photoshare/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func newTestSessions(t *testing.T) (*Sessions, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewSessions(&config.Config{JWTSecret: testSecret, SessionTTLHours: 1}, rdb), mr
}

func protectedApp(s *Sessions) *fiber.App {
	app := fiber.New()
	app.Get("/me", s.RequireAuth(), func(c *fiber.Ctx) error {
		id, _ := CurrentUserID(c)
		return c.JSON(fiber.Map{"userID": id})
	})
	app.Get("/maybe", s.OptionalAuth(), func(c *fiber.Ctx) error {
		id, ok := CurrentUserID(c)
		return c.JSON(fiber.Map{"userID": id, "authenticated": ok})
	})
	return app
}

func signed(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestRequireAuth(t *testing.T) {
	sessions, _ := newTestSessions(t)
	app := protectedApp(sessions)

	userID := models.NewID()
	valid, err := sessions.Issue(userID)
	require.NoError(t, err)

	baseClaims := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub": userID.String(),
			"iss": tokenIssuer,
			"aud": tokenAudience,
			"exp": time.Now().Add(time.Hour).Unix(),
		}
	}
	expired := baseClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()
	wrongAudience := baseClaims()
	wrongAudience["aud"] = "someone-else"
	badSubject := baseClaims()
	badSubject["sub"] = "42"

	tests := []struct {
		name           string
		authHeader     string
		cookie         string
		expectedStatus int
	}{
		{name: "Bearer token", authHeader: "Bearer " + valid, expectedStatus: http.StatusOK},
		{name: "Session cookie", cookie: valid, expectedStatus: http.StatusOK},
		{name: "Missing token", expectedStatus: http.StatusUnauthorized},
		{name: "Basic scheme", authHeader: "Basic dXNlcjpwYXNz", expectedStatus: http.StatusUnauthorized},
		{name: "Malformed token", authHeader: "Bearer malformed.token.here", expectedStatus: http.StatusUnauthorized},
		{name: "Expired token", authHeader: "Bearer " + signed(t, expired, testSecret), expectedStatus: http.StatusUnauthorized},
		{name: "Wrong audience", authHeader: "Bearer " + signed(t, wrongAudience, testSecret), expectedStatus: http.StatusUnauthorized},
		{name: "Wrong secret", authHeader: "Bearer " + signed(t, baseClaims(), "another-secret-another-secret-1234"), expectedStatus: http.StatusUnauthorized},
		{name: "Non-canonical subject", authHeader: "Bearer " + signed(t, badSubject, testSecret), expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.cookie})
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, userID.String(), body["userID"])
			} else {
				assert.Equal(t, models.CodeUnauthenticated, body["code"])
			}
		})
	}
}

func TestRevokedTokenIsRejected(t *testing.T) {
	sessions, mr := newTestSessions(t)
	app := protectedApp(sessions)

	token, err := sessions.Issue(models.NewID())
	require.NoError(t, err)

	claims, err := sessions.Parse(context.Background(), token)
	require.NoError(t, err)
	require.NoError(t, sessions.Revoke(context.Background(), claims))
	assert.True(t, mr.Exists("blacklist:"+claims.ID))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOptionalAuth(t *testing.T) {
	sessions, _ := newTestSessions(t)
	app := protectedApp(sessions)

	t.Run("anonymous", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/maybe", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, false, body["authenticated"])
	})

	t.Run("invalid token continues anonymously", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/maybe", nil)
		req.Header.Set("Authorization", "Bearer nope")
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("valid token", func(t *testing.T) {
		userID := models.NewID()
		token, err := sessions.Issue(userID)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/maybe", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, true, body["authenticated"])
		assert.Equal(t, userID.String(), body["userID"])
	})
}

func TestIssue_RequiresSecret(t *testing.T) {
	s := NewSessions(&config.Config{}, nil)
	_, err := s.Issue(models.NewID())
	assert.Error(t, err)
	assert.Equal(t, time.Hour, s.TTL())
}
