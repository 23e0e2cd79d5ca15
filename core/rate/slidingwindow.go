package rate

import (
	"context"
	_ "embed"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	//go:embed slidingwindow.lua
	slidingWindowLua       string
	slidingWindowLuaScript = redis.NewScript(slidingWindowLua)
)

// DefaultPrefix is used when NewSlidingWindow gets an empty prefix.
const DefaultPrefix = "carelink:rate:"

// SlidingWindowLimiter allows at most limit actions per key in any window,
// counted in Redis so several processes share the budget.
type SlidingWindowLimiter struct {
	client redis.UniversalClient
	prefix string
	window time.Duration
	limit  int
	script *redis.Script
}

var _ Limiter = (*SlidingWindowLimiter)(nil)

func NewSlidingWindowLimiter(client redis.UniversalClient, prefix string, window time.Duration, limit int) *SlidingWindowLimiter {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &SlidingWindowLimiter{
		client: client,
		prefix: prefix,
		window: window,
		limit:  limit,
		script: slidingWindowLuaScript,
	}
}

func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.AllowN(ctx, key, time.Now(), 1)
}

// AllowN reserves n actions at t, all or nothing.
func (l *SlidingWindowLimiter) AllowN(ctx context.Context, key string, t time.Time, n int) (bool, error) {
	if n > l.limit {
		return false, nil
	}
	result, err := l.script.Run(ctx, l.client, []string{l.prefix + key},
		l.window.Milliseconds(), l.limit, t.UnixMilli(), n, uuid.NewString()).Int64()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}
