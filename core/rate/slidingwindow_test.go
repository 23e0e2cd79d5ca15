package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, window time.Duration, limit int) (*SlidingWindowLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewSlidingWindowLimiter(rdb, "test:", window, limit), mr
}

func TestSlidingWindowAllow(t *testing.T) {
	l, mr := newLimiter(t, time.Minute, 3)
	ctx := context.Background()
	start := time.Now()

	for i := range 3 {
		ok, err := l.AllowN(ctx, "login:ana", start.Add(time.Duration(i)*time.Second), 1)
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i)
	}

	ok, err := l.AllowN(ctx, "login:ana", start.Add(10*time.Second), 1)
	require.NoError(t, err)
	assert.False(t, ok)

	// other keys have their own budget
	ok, err = l.AllowN(ctx, "login:ben", start.Add(10*time.Second), 1)
	require.NoError(t, err)
	assert.True(t, ok)

	// the first attempt leaves the window
	ok, err = l.AllowN(ctx, "login:ana", start.Add(time.Minute+500*time.Millisecond), 1)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.True(t, mr.Exists("test:login:ana"))
	assert.Greater(t, mr.TTL("test:login:ana"), time.Duration(0))
}

func TestSlidingWindowAllowNIsAllOrNothing(t *testing.T) {
	l, _ := newLimiter(t, time.Minute, 3)
	ctx := context.Background()
	now := time.Now()

	ok, err := l.AllowN(ctx, "k", now, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.AllowN(ctx, "k", now, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.AllowN(ctx, "k", now, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.AllowN(ctx, "other", now, 4)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSlidingWindowRedisDown(t *testing.T) {
	l, mr := newLimiter(t, time.Minute, 3)
	mr.Close()

	ok, err := l.Allow(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, ok)
}
