package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"quill/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims(userID uint) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"exp": now.Add(time.Hour).Unix(),
		"iat": now.Unix(),
	}
}

func TestParseSubject(t *testing.T) {
	t.Run("valid token yields user ID", func(t *testing.T) {
		token := signToken(t, testSecret, validClaims(42))
		userID, ok := ParseSubject(token, testSecret)
		assert.True(t, ok)
		assert.Equal(t, uint(42), userID)
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		token := signToken(t, "other-secret", validClaims(42))
		_, ok := ParseSubject(token, testSecret)
		assert.False(t, ok)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		claims := validClaims(42)
		claims["exp"] = time.Now().Add(-time.Hour).Unix()
		token := signToken(t, testSecret, claims)
		_, ok := ParseSubject(token, testSecret)
		assert.False(t, ok)
	})

	t.Run("non-string subject rejected", func(t *testing.T) {
		claims := validClaims(42)
		claims["sub"] = 42
		token := signToken(t, testSecret, claims)
		_, ok := ParseSubject(token, testSecret)
		assert.False(t, ok)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, ok := ParseSubject("not.a.token", testSecret)
		assert.False(t, ok)
	})
}

func TestAuthRequired(t *testing.T) {
	InitMiddleware(&config.Config{JWTSecret: testSecret})

	app := fiber.New()
	app.Get("/protected", AuthRequired, func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(uint)
		return c.JSON(fiber.Map{"userID": userID})
	})

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{"valid bearer token", "Bearer " + signToken(t, testSecret, validClaims(7)), http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "Token abc", http.StatusUnauthorized},
		{"invalid token", "Bearer garbage", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}
