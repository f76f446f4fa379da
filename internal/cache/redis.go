// Package cache provides the Redis client used for rate limiting and readiness checks.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"circle/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// errorCounter counts failed commands per command name. Cache misses are not failures.
type errorCounter struct{}

func (errorCounter) observe(name string, err error) {
	if err != nil && !errors.Is(err, redis.Nil) {
		middleware.RedisErrors.WithLabelValues(name).Inc()
	}
}

func (errorCounter) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h errorCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		h.observe(cmd.Name(), err)
		return err
	}
}

func (h errorCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		h.observe("pipeline", err)
		return err
	}
}

func parseOptions(addr string) (*redis.Options, error) {
	if !strings.Contains(addr, "://") {
		return &redis.Options{Addr: addr}, nil
	}
	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL %q: %w", addr, err)
	}
	return opts, nil
}

// NewClient accepts host:port or a redis:// URL, attaches the error counter
// and pings the server.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	opts, err := parseOptions(addr)
	if err != nil {
		return nil, err
	}

	c := redis.NewClient(opts)
	c.AddHook(errorCounter{})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// Connect is NewClient with a startup timeout. It returns nil when Redis is
// unreachable: the limiter then fails open and readiness reports "degraded".
func Connect(addr string) *redis.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := NewClient(ctx, addr)
	if err != nil {
		middleware.Logger.Warn("redis unavailable, continuing without rate limiting",
			slog.String("addr", addr),
			slog.String("error", err.Error()),
		)
		return nil
	}
	middleware.Logger.Info("redis connected", slog.String("addr", c.Options().Addr))
	return c
}
