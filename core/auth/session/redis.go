package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kochabx/carelink/log"
)

var _ Store = (*RedisStore)(nil)

// DefaultKey is used when NewRedisStore gets an empty key.
const DefaultKey = "carelink:session:user"

// RedisStore keeps the user as JSON under a single key, so several
// processes acting for the same account share one session. Redis failures
// are logged; a failed read reports no user.
type RedisStore struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	logger *log.Logger
}

// NewRedisStore creates a store under key. A zero ttl keeps the user until
// it is cleared.
func NewRedisStore(client redis.UniversalClient, key string, ttl time.Duration) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{client: client, key: key, ttl: ttl, logger: log.G}
}

func (s *RedisStore) User(ctx context.Context) *User {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Str("key", s.key).Msg("failed to read session user")
		}
		return nil
	}

	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		s.logger.Warn().Err(err).Str("key", s.key).Msg("corrupt session user")
		return nil
	}
	return &u
}

func (s *RedisStore) SetUser(ctx context.Context, user *User) {
	if user == nil {
		s.ClearUser(ctx)
		return
	}

	data, err := json.Marshal(user)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode session user")
		return
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", s.key).Msg("failed to store session user")
	}
}

func (s *RedisStore) ClearUser(ctx context.Context) {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", s.key).Msg("failed to clear session user")
	}
}
