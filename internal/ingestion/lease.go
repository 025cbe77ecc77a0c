package ingestion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"call-analytics/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RedisLeaser backs the per-tenant ingestion lease with a Redis key.
type RedisLeaser struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLeaser(rdb *redis.Client, ttl time.Duration) *RedisLeaser {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisLeaser{rdb: rdb, ttl: ttl}
}

func (l *RedisLeaser) Acquire(ctx context.Context, tenantID string) (func(), bool, error) {
	lease, ok, err := utils.AcquireLease(ctx, l.rdb, "ingest:lease:"+tenantID, l.ttl)
	if err != nil || !ok {
		return nil, ok, err
	}
	release := func() {
		// Release uses a fresh context so a canceled ingest still frees the key.
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := utils.ReleaseLease(rctx, l.rdb, lease); err != nil {
			slog.Warn("lease release failed", "tenant_id", tenantID, "err", err)
		}
	}
	return release, true, nil
}

// MemoryLeaser is an in-process lease for tests and single-node setups.
type MemoryLeaser struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewMemoryLeaser() *MemoryLeaser {
	return &MemoryLeaser{held: make(map[string]bool)}
}

func (l *MemoryLeaser) Acquire(ctx context.Context, tenantID string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[tenantID] {
		return nil, false, nil
	}
	l.held[tenantID] = true
	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, tenantID)
	}
	return release, true, nil
}
