package http

import (
	"time"

	"github.com/kochabx/carelink/core/tag"
)

// Config is the file/env form of the client settings.
type Config struct {
	BaseURL        string        `json:"base_url" default:"http://localhost:8080" validate:"required,url"`
	Timeout        time.Duration `json:"timeout" default:"30s"`
	RefreshTimeout time.Duration `json:"refresh_timeout" default:"10s"`
	Diagnostic     bool          `json:"diagnostic"`
}

// NewFromConfig creates a client from cfg; opts are applied after the
// config derived options.
func NewFromConfig(cfg Config, opts ...Option) (*Client, error) {
	if err := tag.ApplyDefaults(&cfg); err != nil {
		return nil, err
	}
	base := []Option{
		WithTimeout(cfg.Timeout),
		WithRefreshTimeout(cfg.RefreshTimeout),
		WithDiagnostic(cfg.Diagnostic),
	}
	return New(cfg.BaseURL, append(base, opts...)...)
}
