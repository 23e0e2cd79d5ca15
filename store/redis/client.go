package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/kochabx/carelink/log"
)

// Client wraps a go-redis universal client.
type Client struct {
	client redis.UniversalClient
	config *Config
	logger *log.Logger
}

// New connects according to cfg and pings the server once.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &clientOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.logger == nil {
		o.logger = log.G
	}

	c := &Client{
		client: redis.NewUniversalClient(universalOptions(cfg)),
		config: cfg,
		logger: o.logger,
	}

	for _, hook := range o.hooks {
		c.client.AddHook(hook)
	}
	if o.debug {
		c.client.AddHook(NewDebugHook(c.logger, o.slowQueryThresh))
	}

	if err := c.Ping(ctx); err != nil {
		c.client.Close()
		return nil, err
	}

	c.logger.Debug().Str("mode", cfg.mode()).Strs("addrs", cfg.Addrs).Msg("redis client created")
	return c, nil
}

// NewFromClient wraps an existing go-redis client.
func NewFromClient(client redis.UniversalClient, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.G
	}
	return &Client{client: client, config: &Config{}, logger: logger}
}

func universalOptions(cfg *Config) *redis.UniversalOptions {
	return &redis.UniversalOptions{
		Addrs:      cfg.Addrs,
		MasterName: cfg.MasterName,
		Username:   cfg.Username,
		Password:   cfg.Password,
		DB:         cfg.DB,
		Protocol:   cfg.Protocol,

		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,

		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		ConnMaxIdleTime: cfg.MaxIdleTime,
		PoolTimeout:     cfg.PoolTimeout,

		MaxRetries: cfg.MaxRetries,
	}
}

// UniversalClient exposes the underlying client for commands.
func (c *Client) UniversalClient() redis.UniversalClient {
	return c.client
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Client) Close() error {
	err := c.client.Close()
	c.logger.Debug().Msg("redis client closed")
	return err
}
