package distlock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRedisLockExclusive(t *testing.T) {
	client, mr := setupRedis(t)
	ctx := context.Background()

	first := NewRedisLock(client, "mailing-dispatch:1", time.Minute)
	second := NewRedisLock(client, "mailing-dispatch:1", time.Minute)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("lock:mailing-dispatch:1"))

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be refused")

	assert.True(t, errors.Is(second.Release(ctx), ErrNotHeld), "non-owner cannot release")
	assert.True(t, mr.Exists("lock:mailing-dispatch:1"))

	require.NoError(t, first.Release(ctx))
	assert.False(t, mr.Exists("lock:mailing-dispatch:1"))

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockExpires(t *testing.T) {
	client, mr := setupRedis(t)
	ctx := context.Background()

	l := NewRedisLock(client, "k", time.Second)
	ok, err := l.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, l.Extend(ctx, time.Minute))
	assert.Equal(t, time.Minute, mr.TTL(l.Key()))

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, l.Extend(ctx, time.Minute), ErrNotHeld)

	other := NewRedisLock(client, "k", time.Second)
	ok, err = other.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "expired lock can be retaken")
}

func TestFactoryPrefersRedis(t *testing.T) {
	client, _ := setupRedis(t)
	f := NewFactory(client, nil, time.Minute)
	_, ok := f.Lock("x").(*RedisLock)
	assert.True(t, ok)
	assert.Equal(t, time.Minute, f.TTL())

	f = NewFactory(nil, nil, time.Minute)
	_, ok = f.Lock("x").(*PGAdvisoryLock)
	assert.True(t, ok)
}

func TestPGAdvisoryLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	l := NewPGAdvisoryLock(db, "mailing-dispatch:1")

	mock.ExpectQuery(`SELECT pg_try_advisory_lock\(\$1\)`).
		WithArgs(l.lockID).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectQuery(`SELECT pg_advisory_unlock\(\$1\)`).
		WithArgs(l.lockID).
		WillReturnRows(sqlmock.NewRows([]string{"pg_advisory_unlock"}).AddRow(true))

	ctx := context.Background()
	assert.ErrorIs(t, l.Extend(ctx, time.Minute), ErrNotHeld)

	ok, err := l.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, l.Extend(ctx, time.Minute))

	require.NoError(t, l.Release(ctx))
	assert.ErrorIs(t, l.Release(ctx), ErrNotHeld)
	assert.ErrorIs(t, l.Extend(ctx, time.Minute), ErrNotHeld)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGAdvisoryLockBusy(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	l := NewPGAdvisoryLock(db, "busy")
	mock.ExpectQuery(`SELECT pg_try_advisory_lock`).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(false))

	ok, err := l.Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
