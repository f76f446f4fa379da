package cache

import (
	"context"
	"testing"

	"circle/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewClient(context.Background(), mr.Addr())
	require.NoError(t, err)
	defer c.Close()
	assert.NoError(t, c.Set(context.Background(), "k", "v", 0).Err())

	c2, err := NewClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer c2.Close()
	v, err := c2.Get(context.Background(), "k").Result()
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestNewClientInvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), "redis://localhost:notaport")
	assert.Error(t, err)
}

func TestConnectUnreachableReturnsNil(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	assert.Nil(t, Connect(addr))

	mr2 := miniredis.RunT(t)
	c := Connect(mr2.Addr())
	require.NotNil(t, c)
	defer c.Close()
	assert.NoError(t, c.Ping(context.Background()).Err())
}

func TestErrorCounterIgnoresMisses(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := NewClient(context.Background(), mr.Addr())
	require.NoError(t, err)
	defer c.Close()

	before := testutil.ToFloat64(middleware.RedisErrors.WithLabelValues("get"))
	_, err = c.Get(context.Background(), "missing").Result()
	assert.ErrorIs(t, err, redis.Nil)
	assert.Equal(t, before, testutil.ToFloat64(middleware.RedisErrors.WithLabelValues("get")))

	mr.Close()
	_ = c.Get(context.Background(), "k").Err()
	assert.Greater(t, testutil.ToFloat64(middleware.RedisErrors.WithLabelValues("get")), before)
}
