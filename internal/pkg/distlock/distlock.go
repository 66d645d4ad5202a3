// Package distlock provides mutual exclusion across server processes, used
// to keep a mailing from being dispatched twice at the same time.
package distlock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotHeld is returned when releasing or extending a lock this instance
// does not own.
var ErrNotHeld = errors.New("lock not held")

// DistLock is a single named lock. An instance is meant for one
// acquire/release cycle on one goroutine.
type DistLock interface {
	// Acquire tries to take the lock without blocking. Returns true if taken.
	Acquire(ctx context.Context) (bool, error)
	// Release gives the lock up if this instance still owns it.
	Release(ctx context.Context) error
	// Extend pushes the expiry out to ttl from now. Returns ErrNotHeld when
	// the lock was lost.
	Extend(ctx context.Context, ttl time.Duration) error
}

// Factory mints locks on the best available backend: Redis when a client is
// configured, PostgreSQL advisory locks otherwise.
type Factory struct {
	redis *redis.Client
	db    *sql.DB
	ttl   time.Duration
}

// NewFactory creates a lock factory. ttl bounds how long a Redis lock
// survives a crashed holder; advisory locks end with their session.
func NewFactory(redisClient *redis.Client, db *sql.DB, ttl time.Duration) *Factory {
	return &Factory{redis: redisClient, db: db, ttl: ttl}
}

// TTL is the expiry given to Redis locks, and the interval holders should
// extend them by.
func (f *Factory) TTL() time.Duration { return f.ttl }

// Lock returns a fresh lock for key.
func (f *Factory) Lock(key string) DistLock {
	if f.redis != nil {
		return NewRedisLock(f.redis, key, f.ttl)
	}
	return NewPGAdvisoryLock(f.db, key)
}

// PGAdvisoryLock implements DistLock with pg_try_advisory_lock.
//
// Advisory locks belong to a database session, so the connection that took
// the lock is pinned until Release and then returned to the pool.
type PGAdvisoryLock struct {
	db     *sql.DB
	lockID int64

	mu   sync.Mutex
	conn *sql.Conn
}

// NewPGAdvisoryLock derives a stable 64-bit lock id from key.
func NewPGAdvisoryLock(db *sql.DB, key string) *PGAdvisoryLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &PGAdvisoryLock{db: db, lockID: int64(h.Sum64())}
}

func (l *PGAdvisoryLock) Acquire(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		return false, fmt.Errorf("advisory lock %d already acquired by this instance", l.lockID)
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("pin connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.lockID).Scan(&acquired); err != nil {
		conn.Close()
		return false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Close()
		return false, nil
	}
	l.conn = conn
	return true, nil
}

func (l *PGAdvisoryLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return ErrNotHeld
	}
	defer func() {
		l.conn.Close()
		l.conn = nil
	}()

	var released bool
	if err := l.conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockID).Scan(&released); err != nil {
		return fmt.Errorf("advisory unlock: %w", err)
	}
	if !released {
		return ErrNotHeld
	}
	return nil
}

// Extend only checks that the lock is still held: advisory locks have no
// expiry and live as long as the pinned session.
func (l *PGAdvisoryLock) Extend(context.Context, time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return ErrNotHeld
	}
	return nil
}
