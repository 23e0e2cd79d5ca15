package http

import (
	"context"

	"github.com/kochabx/carelink/core/tag"
)

// Options are the optional routes added to a gin handler.
type Options struct {
	Metrics MetricsOption
	Health  HealthOption
}

type MetricsOption struct {
	Enabled                   bool   `json:"enabled"`
	Path                      string `json:"path" default:"/metrics"`
	EnabledGoCollector        bool   `json:"enabled_go_collector"`
	EnabledBuildInfoCollector bool   `json:"enabled_build_info_collector"`
}

func (m *MetricsOption) init() error {
	return tag.ApplyDefaults(m)
}

type HealthOption struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path" default:"/health"`
	// Check, when set, turns a failing dependency into a 503.
	Check func(ctx context.Context) error `json:"-"`
}

func (h *HealthOption) init() error {
	return tag.ApplyDefaults(h)
}
