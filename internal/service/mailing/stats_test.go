package mailing_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/mailing-admin/internal/pkg/cache"
	"github.com/ignite/mailing-admin/internal/service/mailing"
	"github.com/ignite/mailing-admin/internal/service/stats"
)

// memCounter computes the home figures straight from the in-memory store.
type memCounter struct{ *memStore }

func (c memCounter) CountMailings(context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.mailings), nil
}

func (c memCounter) CountActiveMailings(_ context.Context, at time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.mailings {
		if m.IsActiveAt(at) {
			n++
		}
	}
	return n, nil
}

func (c memCounter) CountClients(context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clients), nil
}

func TestHomeStatsFollowMailingWrites(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	f := newFixture()
	home := stats.NewService(memCounter{f.store}, cache.NewRedis(client), 0, nil)
	svc := mailing.NewService(f.store, f.store, messageSource{f.store}, clientSource{f.store},
		mailing.WithClock(func() time.Time { return now }),
		mailing.WithInvalidator(home),
	)
	ctx := context.Background()

	st, err := home.Home(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.TotalMailings)
	assert.Equal(t, 2, st.UniqueClients)
	require.True(t, mr.Exists(stats.Key))
	assert.Equal(t, stats.DefaultTTL, mr.TTL(stats.Key))

	m, err := svc.Create(ctx, owner, f.input())
	require.NoError(t, err)
	assert.False(t, mr.Exists(stats.Key), "create drops the cached entry")

	st, err = home.Home(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalMailings)

	require.NoError(t, svc.Delete(ctx, owner, m.ID))
	st, err = home.Home(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.TotalMailings)
}
