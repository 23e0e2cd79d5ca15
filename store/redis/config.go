package redis

import (
	"time"

	"github.com/kochabx/carelink/core/tag"
)

// Config covers single node, cluster and sentinel deployments. One address
// without MasterName is a single node, several addresses without MasterName
// a cluster.
type Config struct {
	Addrs      []string `json:"addrs" default:"localhost:6379"`
	MasterName string   `json:"master_name"`
	Username   string   `json:"username"`
	Password   string   `json:"password"`
	DB         int      `json:"db"`
	Protocol   int      `json:"protocol" default:"3"`

	DialTimeout  time.Duration `json:"dial_timeout" default:"5s"`
	ReadTimeout  time.Duration `json:"read_timeout" default:"3s"`
	WriteTimeout time.Duration `json:"write_timeout" default:"3s"`

	// PoolSize 0 lets go-redis pick 10 per GOMAXPROCS.
	PoolSize     int           `json:"pool_size"`
	MinIdleConns int           `json:"min_idle_conns"`
	MaxIdleTime  time.Duration `json:"max_idle_time" default:"5m"`
	PoolTimeout  time.Duration `json:"pool_timeout" default:"4s"`

	MaxRetries int `json:"max_retries"`
}

func (c *Config) ApplyDefaults() error {
	return tag.ApplyDefaults(c)
}

// Single returns a config for one node.
func Single(addr string) *Config {
	return &Config{Addrs: []string{addr}}
}

func (c *Config) Validate() error {
	if len(c.Addrs) == 0 {
		return ErrEmptyAddrs
	}
	if c.DialTimeout < 0 || c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return ErrInvalidTimeout
	}
	return nil
}

func (c *Config) IsSentinel() bool {
	return c.MasterName != ""
}

func (c *Config) IsCluster() bool {
	return len(c.Addrs) > 1 && c.MasterName == ""
}

func (c *Config) mode() string {
	switch {
	case c.IsSentinel():
		return "sentinel"
	case c.IsCluster():
		return "cluster"
	default:
		return "single"
	}
}
