package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ignite/mailing-admin/internal/domain"
)

const (
	// Key is the cache key the home statistics live under.
	Key = "home_stats"

	// DefaultTTL is how long computed statistics are served from cache.
	DefaultTTL = 300 * time.Second
)

// Service reads and invalidates the cached home statistics.
type Service struct {
	counter Counter
	cache   Cache
	ttl     time.Duration
	log     *zap.Logger
	clock   func() time.Time
}

// NewService creates a statistics service. A non-positive ttl uses DefaultTTL.
func NewService(counter Counter, cache Cache, ttl time.Duration, log *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{counter: counter, cache: cache, ttl: ttl, log: log.Named("stats"), clock: time.Now}
}

// Home returns the cached statistics, recomputing and storing them on a miss.
// Cache failures degrade to a recompute; only store failures are returned.
func (s *Service) Home(ctx context.Context) (*domain.HomeStats, error) {
	raw, ok, err := s.cache.Get(ctx, Key)
	if err != nil {
		s.log.Warn("stats cache read failed", zap.Error(err))
	}
	if ok {
		var st domain.HomeStats
		if err := json.Unmarshal(raw, &st); err == nil {
			return &st, nil
		}
		s.log.Warn("discarding undecodable stats entry")
	}

	st, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(st); err == nil {
		if err := s.cache.Set(ctx, Key, raw, s.ttl); err != nil {
			s.log.Warn("stats cache write failed", zap.Error(err))
		}
	}
	return st, nil
}

// Invalidate drops the cached statistics.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, Key)
}

func (s *Service) compute(ctx context.Context) (*domain.HomeStats, error) {
	total, err := s.counter.CountMailings(ctx)
	if err != nil {
		return nil, fmt.Errorf("count mailings: %w", err)
	}
	active, err := s.counter.CountActiveMailings(ctx, s.clock().UTC())
	if err != nil {
		return nil, fmt.Errorf("count active mailings: %w", err)
	}
	clients, err := s.counter.CountClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("count clients: %w", err)
	}
	return &domain.HomeStats{TotalMailings: total, ActiveMailings: active, UniqueClients: clients}, nil
}
