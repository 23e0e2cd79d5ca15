package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/carelink/core/auth/session"
	transport "github.com/kochabx/carelink/transport/http"
)

const userKey = "carelink.user"

type userContextKey struct{}

// AuthConfig configures Auth.
type AuthConfig struct {
	// SkipPaths are served without authentication, see NewPathMatcher.
	SkipPaths []string
	SkipFunc  func(*gin.Context) bool
	// Authenticate resolves the caller. An error answers 401 with the error
	// as body.
	Authenticate func(c *gin.Context) (*session.User, error)
}

// Auth rejects unauthenticated requests and stores the caller in the gin
// and request contexts.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	matcher := NewPathMatcher(cfg.SkipPaths)

	return func(c *gin.Context) {
		if cfg.Authenticate == nil || shouldSkip(c, matcher, cfg.SkipFunc) {
			c.Next()
			return
		}

		user, err := cfg.Authenticate(c)
		if err != nil {
			transport.AbortError(c, transport.StatusUnauthorized, err)
			return
		}

		c.Set(userKey, user)
		c.Request = c.Request.WithContext(WithUser(c.Request.Context(), user))
		c.Next()
	}
}

func WithUser(ctx context.Context, user *session.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFrom returns the user stored by Auth, or nil.
func UserFrom(ctx context.Context) *session.User {
	u, _ := ctx.Value(userContextKey{}).(*session.User)
	return u
}

// CurrentUser is UserFrom for gin handlers.
func CurrentUser(c *gin.Context) *session.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*session.User); ok {
			return u
		}
	}
	return UserFrom(c.Request.Context())
}

// RequireRole answers 403 unless the caller has one of roles.
func RequireRole(roles ...session.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			transport.AbortError(c, transport.StatusUnauthorized, nil)
			return
		}
		for _, r := range roles {
			if user.Role == r {
				c.Next()
				return
			}
		}
		transport.AbortError(c, transport.StatusForbidden, nil)
	}
}
