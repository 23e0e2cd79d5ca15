package devserver

import (
	"time"

	"github.com/kochabx/carelink/core/auth/jwt"
	"github.com/kochabx/carelink/core/auth/session"
	"github.com/kochabx/carelink/store/redis"
)

const (
	RevocationMemory = "memory"
	RevocationRedis  = "redis"
)

// Config is the devserver section of the configuration file.
type Config struct {
	Addr          string        `json:"addr" default:":8080"`
	Secret        string        `json:"secret" validate:"required,min=16"`
	AccessTTL     time.Duration `json:"access_ttl" default:"5m"`
	RefreshTTL    time.Duration `json:"refresh_ttl" default:"168h"`
	SecureCookies bool          `json:"secure_cookies"`
	// Revocation selects where logged out refresh tokens are remembered.
	Revocation string       `json:"revocation" default:"memory" validate:"oneof=memory redis"`
	Redis      redis.Config `json:"redis"`
	// Login attempts per email and window; only enforced with Redis.
	LoginLimit  int           `json:"login_limit" default:"10"`
	LoginWindow time.Duration `json:"login_window" default:"1m"`
	DemoUser    DemoUser      `json:"demo_user"`
}

// DemoUser is created at startup so the CLI can log in right away.
type DemoUser struct {
	Name     string       `json:"name" default:"Demo Volunteer"`
	Email    string       `json:"email" default:"demo@carelink.test" validate:"omitempty,email"`
	Password string       `json:"password" default:"carelink-demo"`
	Role     session.Role `json:"role" default:"volunteer" validate:"omitempty,oneof=family volunteer admin"`
}

func (c *Config) jwtConfig() *jwt.Config {
	return &jwt.Config{
		Secret:     c.Secret,
		AccessTTL:  c.AccessTTL,
		RefreshTTL: c.RefreshTTL,
	}
}
