package stats

import (
	"context"
	"time"
)

// Counter computes the raw figures from the store.
type Counter interface {
	CountMailings(ctx context.Context) (int, error)
	// CountActiveMailings counts mailings whose window contains now, bounds inclusive.
	CountActiveMailings(ctx context.Context, now time.Time) (int, error)
	CountClients(ctx context.Context) (int, error)
}

// Cache is the key/value port the statistics are stored behind.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
