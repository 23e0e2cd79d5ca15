package config

import (
	"sync"

	"github.com/spf13/viper"

	"github.com/kochabx/carelink/core/validator"
	"github.com/kochabx/carelink/log"
)

// Config loads a target struct and optionally keeps it current while the
// source changes.
type Config struct {
	mu       sync.RWMutex
	viper    *viper.Viper
	validate validator.Validator
	target   any
	loader   Loader
	watch    bool
	onChange []func()
}

// New creates a Config for target. Without WithLoader a FileLoader reading
// config.yaml from the working directory is used.
func New(target any, opts ...Option) *Config {
	c := &Config{
		viper:    viper.New(),
		validate: validator.Validate,
		target:   target,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.loader == nil {
		c.loader = NewFileLoader("config.yaml", []string{"."}, c.viper, c.validate)
	}

	return c
}

// Load reads the configuration into the target and starts watching when
// WithWatch(true) was given.
func (c *Config) Load() error {
	if err := c.Reload(); err != nil {
		return err
	}
	if c.watch {
		return c.Watch()
	}
	return nil
}

// Reload reads the configuration into the target again.
func (c *Config) Reload() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.loader.Load(c.target)
}

// Read runs fn while holding the read lock, so fn sees a consistent target
// even when a reload is in progress.
func (c *Config) Read(fn func()) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn()
}

// Watch reloads the target whenever the loader reports a change.
func (c *Config) Watch() error {
	return c.loader.Watch(func() {
		log.Info().Msg("config change detected")

		if err := c.Reload(); err != nil {
			log.Error().Err(err).Msg("failed to reload config after change")
			return
		}

		for _, fn := range c.onChange {
			fn()
		}
		log.Info().Msg("config reloaded")
	})
}

// Viper returns the underlying viper instance.
func (c *Config) Viper() *viper.Viper {
	return c.viper
}
