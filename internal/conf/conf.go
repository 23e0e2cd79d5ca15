// Package conf holds the configuration files of the carelink binaries.
// Both are loaded with the config package, so every key can be overridden
// from the environment as CARELINK_<SECTION>_<KEY>.
package conf

import (
	"os"
	"path/filepath"
	"time"

	"github.com/kochabx/carelink/config"
	chttp "github.com/kochabx/carelink/core/net/http"
	"github.com/kochabx/carelink/internal/devserver"
	"github.com/kochabx/carelink/log"
	"github.com/kochabx/carelink/store/redis"
	transport "github.com/kochabx/carelink/transport/http"
)

const (
	SessionFile   = "file"
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

// CLI is the configuration of the carelink command.
type CLI struct {
	API       chttp.Config `json:"api"`
	Predictor Predictor    `json:"predictor"`
	Session   Session      `json:"session"`
	Log       log.Config   `json:"log"`
	// CookieJar is where the session cookies are kept between runs. Empty
	// means cookies.json in the user config directory.
	CookieJar string `json:"cookie_jar"`
}

type Predictor struct {
	// BaseURL of the water-quality service; empty uses the API base URL.
	BaseURL string        `json:"base_url" validate:"omitempty,url"`
	Timeout time.Duration `json:"timeout" default:"30s"`
}

// Session selects where the signed in user is remembered.
type Session struct {
	Backend string `json:"backend" default:"file" validate:"oneof=file memory redis"`
	// File backend; empty means session.json next to the cookie jar.
	File  string        `json:"file"`
	Key   string        `json:"key" default:"carelink:session:user"`
	TTL   time.Duration `json:"ttl"`
	Redis redis.Config  `json:"redis"`
}

// Server is the configuration of the devserver command.
type Server struct {
	Server  devserver.Config        `json:"server"`
	Metrics transport.MetricsOption `json:"metrics"`
	Log     log.Config              `json:"log"`
}

// LoadCLI reads path into a CLI config. A missing file is fine: defaults
// and the environment still apply.
func LoadCLI(path string) (*CLI, error) {
	c := &CLI{}
	if err := load(c, path); err != nil {
		return nil, err
	}
	if c.Predictor.BaseURL == "" {
		c.Predictor.BaseURL = c.API.BaseURL
	}
	if c.CookieJar == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = os.TempDir()
		}
		c.CookieJar = filepath.Join(dir, "carelink", "cookies.json")
	}
	if c.Session.File == "" {
		c.Session.File = filepath.Join(filepath.Dir(c.CookieJar), "session.json")
	}
	return c, nil
}

// LoadServer reads path into a Server config.
func LoadServer(path string) (*Server, error) {
	c := &Server{Metrics: transport.MetricsOption{Enabled: true}}
	if err := load(c, path); err != nil {
		return nil, err
	}
	return c, nil
}

func load(target any, path string) error {
	var opt config.Option
	if path == "" {
		opt = config.WithOptionalFile("carelink.yaml")
	} else {
		opt = config.WithFile(path)
	}
	return config.New(target, opt).Load()
}
