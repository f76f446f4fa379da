package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthRequired(t *testing.T) {
	secret := "test-secret-key-12345678901234567890123456789012"
	app := fiber.New()
	app.Get("/test", AuthRequired(AuthConfig{JWTSecret: secret, TrustedHeader: "X-User-ID"}), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": c.Locals("userID")})
	})

	generateToken := func(sub string, exp time.Duration, key string) string {
		claims := jwt.MapClaims{
			"sub": sub,
			"exp": time.Now().Add(exp).Unix(),
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		s, _ := token.SignedString([]byte(key))
		return s
	}

	tests := []struct {
		name           string
		headers        map[string]string
		expectedStatus int
		expectedUserID uint
	}{
		{
			name:           "Bearer token",
			headers:        map[string]string{"Authorization": "Bearer " + generateToken(strconv.Itoa(123), time.Hour, secret)},
			expectedStatus: http.StatusOK,
			expectedUserID: 123,
		},
		{
			name:           "Trusted header",
			headers:        map[string]string{"X-User-ID": "42"},
			expectedStatus: http.StatusOK,
			expectedUserID: 42,
		},
		{
			name:           "Trusted header wins over token",
			headers:        map[string]string{"X-User-ID": "7", "Authorization": "Bearer " + generateToken("8", time.Hour, secret)},
			expectedStatus: http.StatusOK,
			expectedUserID: 7,
		},
		{
			name:           "Missing identity",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Garbage trusted header",
			headers:        map[string]string{"X-User-ID": "abc"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Basic auth",
			headers:        map[string]string{"Authorization": "Basic dXNlcjpwYXNz"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Expired token",
			headers:        map[string]string{"Authorization": "Bearer " + generateToken("5", -time.Hour, secret)},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Wrong key",
			headers:        map[string]string{"Authorization": "Bearer " + generateToken("5", time.Hour, "another-key")},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Zero subject",
			headers:        map[string]string{"Authorization": "Bearer " + generateToken("0", time.Hour, secret)},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]any
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, float64(tt.expectedUserID), body["userID"])
			}
		})
	}
}

func TestAuthRequiredWithoutTrustedHeaderIgnoresIt(t *testing.T) {
	app := fiber.New()
	app.Get("/test", AuthRequired(AuthConfig{JWTSecret: "s"}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-User-ID", "42")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
