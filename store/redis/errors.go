package redis

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNil is returned for missing keys.
	ErrNil = redis.Nil

	ErrInvalidConfig  = errors.New("redis: invalid configuration")
	ErrEmptyAddrs     = errors.New("redis: addrs cannot be empty")
	ErrInvalidTimeout = errors.New("redis: invalid timeout value")
)
