package config

import (
	"github.com/spf13/viper"

	"github.com/kochabx/carelink/core/validator"
)

type Option func(*Config)

// WithViper sets a custom viper instance. Apply it before WithFile.
func WithViper(v *viper.Viper) Option {
	return func(c *Config) {
		c.viper = v
	}
}

func WithValidator(v validator.Validator) Option {
	return func(c *Config) {
		c.validate = v
	}
}

func WithLoader(loader Loader) Option {
	return func(c *Config) {
		c.loader = loader
	}
}

// WithFile loads from an explicit file path instead of searching for
// config.yaml. A missing file is an error.
func WithFile(path string) Option {
	return func(c *Config) {
		c.loader = NewFileLoader(path, nil, c.viper, c.validate)
	}
}

// WithOptionalFile is WithFile, but a missing file leaves the target with
// its defaults and environment overrides.
func WithOptionalFile(path string) Option {
	return func(c *Config) {
		l := NewFileLoader(path, nil, c.viper, c.validate)
		l.optional = true
		c.loader = l
	}
}

// WithWatch makes Load start watching for changes.
func WithWatch(enable bool) Option {
	return func(c *Config) {
		c.watch = enable
	}
}

// WithOnChange registers fn to run after every successful reload.
func WithOnChange(fn func()) Option {
	return func(c *Config) {
		c.onChange = append(c.onChange, fn)
	}
}
