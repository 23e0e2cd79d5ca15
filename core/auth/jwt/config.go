package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kochabx/carelink/core/tag"
)

// Config controls signing and token lifetimes.
type Config struct {
	Secret        string        `json:"secret" validate:"required,min=16"`
	SigningMethod string        `json:"signing_method" default:"HS256" validate:"oneof=HS256 HS384 HS512"`
	AccessTTL     time.Duration `json:"access_ttl" default:"15m"`
	RefreshTTL    time.Duration `json:"refresh_ttl" default:"168h"`
	Issuer        string        `json:"issuer" default:"carelink"`
}

func (c *Config) init() error {
	if err := tag.ApplyDefaults(c); err != nil {
		return err
	}
	if c.Secret == "" {
		return ErrEmptySecret
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return ErrConfigInvalid
	}
	return nil
}

func (c *Config) signingMethod() jwt.SigningMethod {
	switch c.SigningMethod {
	case "HS384":
		return jwt.SigningMethodHS384
	case "HS512":
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}

func (c *Config) ttl(kind Kind) time.Duration {
	if kind == KindRefresh {
		return c.RefreshTTL
	}
	return c.AccessTTL
}
