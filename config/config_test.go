package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/carelink/errors"
)

type endpoint struct {
	BaseURL string        `json:"base_url" validate:"required,url"`
	Timeout time.Duration `json:"timeout" default:"30s"`
}

type mock struct {
	API     endpoint          `json:"api"`
	Enabled bool              `json:"enabled" default:"true"`
	Labels  map[string]string `json:"labels" default:"env: dev"`
	Workers int               `json:"workers" default:"4"`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "carelink.yaml", `
api:
  base_url: https://api.example.org
workers: 8
`)

	cfg := new(mock)
	require.NoError(t, New(cfg, WithFile(path)).Load())

	assert.Equal(t, "https://api.example.org", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 8, cfg.Workers)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, map[string]string{"env": "dev"}, cfg.Labels)
}

func TestEnvOverride(t *testing.T) {
	path := writeFile(t, "carelink.yaml", "api:\n  base_url: https://api.example.org\n")
	t.Setenv("CARELINK_API_BASE_URL", "https://staging.example.org")
	t.Setenv("CARELINK_API_TIMEOUT", "5s")

	cfg := new(mock)
	require.NoError(t, New(cfg, WithFile(path)).Load())

	assert.Equal(t, "https://staging.example.org", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
}

func TestOptionalFile(t *testing.T) {
	t.Setenv("CARELINK_API_BASE_URL", "https://env.example.org")

	cfg := new(mock)
	err := New(cfg, WithOptionalFile(filepath.Join(t.TempDir(), "missing.yaml"))).Load()
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.org", cfg.API.BaseURL)
	assert.Equal(t, 4, cfg.Workers)
}

func TestMissingFile(t *testing.T) {
	err := New(new(mock), WithFile(filepath.Join(t.TempDir(), "missing.yaml"))).Load()
	require.Error(t, err)
	assert.Equal(t, 404, errors.Code(err))
}

func TestValidationFailure(t *testing.T) {
	path := writeFile(t, "carelink.yaml", "api:\n  base_url: not a url\n")

	err := New(new(mock), WithFile(path)).Load()
	require.Error(t, err)
	assert.Equal(t, 400, errors.Code(err))
}

func TestWatchReload(t *testing.T) {
	path := writeFile(t, "carelink.yaml", "api:\n  base_url: https://a.example.org\n")

	var reloads atomic.Int32
	cfg := new(mock)
	c := New(cfg, WithFile(path), WithWatch(true), WithOnChange(func() { reloads.Add(1) }))
	require.NoError(t, c.Load())

	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: https://b.example.org\n"), 0o600))

	assert.Eventually(t, func() bool {
		var got string
		c.Read(func() { got = cfg.API.BaseURL })
		return got == "https://b.example.org"
	}, 5*time.Second, 20*time.Millisecond)
	assert.Positive(t, reloads.Load())
}
