package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client), mr
}

func TestRedisGetSetDelete(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "home_stats")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "home_stats", []byte(`{"total_mailings":3}`), 300*time.Second))
	assert.Equal(t, 300*time.Second, mr.TTL("home_stats"))

	val, ok, err := c.Get(ctx, "home_stats")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"total_mailings":3}`, string(val))

	require.NoError(t, c.Delete(ctx, "home_stats"))
	assert.False(t, mr.Exists("home_stats"))
	require.NoError(t, c.Delete(ctx, "home_stats"), "deleting a missing key is a no-op")
}

func TestRedisExpiry(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	client := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1})
	defer client.Close()

	_, _, err = NewRedis(client).Get(context.Background(), "k")
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()

	client, err := Connect(context.Background(), Options{Addr: addr})
	require.NoError(t, err)
	client.Close()

	mr.Close()
	_, err = Connect(context.Background(), Options{Addr: addr})
	assert.Error(t, err)
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	val, ok, _ := m.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "v", string(val))

	now = now.Add(time.Minute)
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok, "entry expires at its deadline")

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, m.Delete(ctx, "k"))
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)
}
