package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRateLimiterAllow(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRateLimiter(rdb, "production")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "friend_request", "user:1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "hit %d should pass", i+1)
	}

	ok, err := l.Allow(ctx, "friend_request", "user:1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// other identities have their own window
	ok, err = l.Allow(ctx, "friend_request", "user:2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, time.Minute, mr.TTL("rl:friend_request:user:1"))

	mr.FastForward(time.Minute + time.Second)
	ok, err = l.Allow(ctx, "friend_request", "user:1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimiterBypassedOutsideProduction(t *testing.T) {
	for _, env := range []string{"", "test", "development", "stress"} {
		l := NewRateLimiter(nil, env)
		ok, err := l.Allow(context.Background(), "x", "y", 0, time.Minute)
		assert.NoError(t, err, env)
		assert.True(t, ok, env)
	}
}

func TestRateLimiterNilRedis(t *testing.T) {
	l := NewRateLimiter(nil, "production")
	ok, err := l.Allow(context.Background(), "x", "y", 1, time.Minute)
	assert.ErrorIs(t, err, errNoRedis)
	assert.False(t, ok)
}

func TestRateLimiterMiddleware(t *testing.T) {
	_, rdb := newTestRedis(t)
	l := NewRateLimiter(rdb, "production")

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", uint(9))
		return c.Next()
	})
	app.Post("/send", l.Limit(1, time.Minute, "send_message", FailOpen), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/send", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/send", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestRateLimiterFailPolicies(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	l := NewRateLimiter(rdb, "production")
	mr.Close()

	tests := []struct {
		name   string
		policy FailPolicy
		status int
	}{
		{"fail open", FailOpen, http.StatusOK},
		{"fail closed", FailClosed, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", l.Limit(1, time.Minute, "limited", tt.policy), func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
