package redis

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kochabx/carelink/log"
)

type Option func(*clientOptions)

type clientOptions struct {
	hooks           []redis.Hook
	debug           bool
	slowQueryThresh time.Duration
	logger          *log.Logger
}

// WithHooks adds go-redis hooks to the client.
func WithHooks(hooks ...redis.Hook) Option {
	return func(o *clientOptions) {
		o.hooks = append(o.hooks, hooks...)
	}
}

// WithDebug logs every command. Commands slower than slowQueryThreshold are
// logged as warnings; zero disables slow query detection.
func WithDebug(slowQueryThreshold time.Duration) Option {
	return func(o *clientOptions) {
		o.debug = true
		o.slowQueryThresh = slowQueryThreshold
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}
