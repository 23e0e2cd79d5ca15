package jwt

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blacklist remembers revoked token ids.
type Blacklist interface {
	Add(ctx context.Context, jti string, ttl time.Duration) error
	Contains(ctx context.Context, jti string) (bool, error)
}

// MemoryBlacklist is a process local Blacklist. Expired entries are dropped
// lazily on lookup.
type MemoryBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{entries: make(map[string]time.Time)}
}

func (b *MemoryBlacklist) Add(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[jti] = time.Now().Add(ttl)
	return nil
}

func (b *MemoryBlacklist) Contains(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	until, ok := b.entries[jti]
	if !ok {
		return false, nil
	}
	if time.Now().After(until) {
		delete(b.entries, jti)
		return false, nil
	}
	return true, nil
}

// RedisBlacklist stores revoked ids as expiring keys.
type RedisBlacklist struct {
	client    redis.UniversalClient
	keyPrefix string
}

func NewRedisBlacklist(client redis.UniversalClient, keyPrefix string) *RedisBlacklist {
	if keyPrefix == "" {
		keyPrefix = "carelink:jwt:blacklist:"
	}
	return &RedisBlacklist{client: client, keyPrefix: keyPrefix}
}

func (b *RedisBlacklist) Add(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, b.keyPrefix+jti, "1", ttl).Err()
}

func (b *RedisBlacklist) Contains(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, b.keyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
