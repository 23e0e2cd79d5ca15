package devserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/carelink/core/auth/jwt"
	"github.com/kochabx/carelink/core/auth/session"
	"github.com/kochabx/carelink/core/validator"
	"github.com/kochabx/carelink/errors"
	middleware "github.com/kochabx/carelink/middleware/http"
	"github.com/kochabx/carelink/service/auth"
	transport "github.com/kochabx/carelink/transport/http"
)

const (
	AccessCookie  = "carelink_access"
	RefreshCookie = "carelink_refresh"

	// the refresh cookie is only sent to the auth endpoints
	refreshCookiePath = "/auth"
)

var (
	errMissingSession = errors.Unauthorized("not signed in")
	errInvalidSession = errors.Unauthorized("session expired")
	errAdminSignup    = errors.Forbidden("admin accounts cannot sign up")
	errTooManyLogins  = errors.TooManyRequests("too many login attempts, try again later")
)

type userBody struct {
	User *session.User `json:"user"`
}

func (s *Server) login(c *gin.Context) {
	var creds auth.Credentials
	if err := bind(c, &creds); err != nil {
		transport.Error(c, 0, err)
		return
	}

	if !s.allowLogin(c, creds.Email) {
		transport.Error(c, 0, errTooManyLogins)
		return
	}

	user, err := s.users.authenticate(creds.Email, creds.Password)
	if err != nil {
		transport.Error(c, 0, err)
		return
	}
	s.startSession(c, http.StatusOK, user)
}

func (s *Server) signup(c *gin.Context) {
	var reg auth.Registration
	if err := bind(c, &reg); err != nil {
		transport.Error(c, 0, err)
		return
	}
	switch reg.Role {
	case "":
		reg.Role = session.RoleFamily
	case session.RoleAdmin:
		transport.Error(c, 0, errAdminSignup)
		return
	}

	user, err := s.users.register(reg.Name, reg.Email, reg.Password, reg.Role)
	if err != nil {
		transport.Error(c, 0, err)
		return
	}
	s.startSession(c, http.StatusCreated, user)
}

// refresh rotates the refresh token. The old one is revoked, so each
// refresh cookie works once.
func (s *Server) refresh(c *gin.Context) {
	token, err := c.Cookie(RefreshCookie)
	if err != nil || token == "" {
		transport.Error(c, 0, errMissingSession)
		return
	}

	pair, user, err := s.issuer.Rotate(c.Request.Context(), token)
	if err != nil {
		s.clearCookies(c)
		transport.Error(c, 0, errInvalidSession.WithCause(err))
		return
	}

	s.setCookies(c, pair)
	transport.JSON(c, http.StatusOK, userBody{User: user})
}

// logout revokes whatever tokens the caller still holds and always
// succeeds.
func (s *Server) logout(c *gin.Context) {
	ctx := c.Request.Context()
	for _, name := range []string{AccessCookie, RefreshCookie} {
		token, err := c.Cookie(name)
		if err != nil || token == "" {
			continue
		}
		kind := jwt.KindAccess
		if name == RefreshCookie {
			kind = jwt.KindRefresh
		}
		if claims, err := s.issuer.Verify(ctx, token, kind); err == nil {
			if err := s.issuer.Revoke(ctx, claims); err != nil {
				s.logger.Warn().Err(err).Msg("failed to revoke token")
			}
		}
	}

	s.clearCookies(c)
	c.Status(http.StatusNoContent)
}

func (s *Server) me(c *gin.Context) {
	transport.JSON(c, http.StatusOK, userBody{User: middleware.CurrentUser(c)})
}

// allowLogin fails open when the limiter is unavailable.
func (s *Server) allowLogin(c *gin.Context, email string) bool {
	if s.limiter == nil {
		return true
	}
	ok, err := s.limiter.Allow(c.Request.Context(), "login:"+strings.ToLower(email))
	if err != nil {
		s.logger.Warn().Err(err).Msg("login limiter unavailable")
		return true
	}
	return ok
}

func (s *Server) startSession(c *gin.Context, status int, user *session.User) {
	pair, err := s.issuer.Issue(user)
	if err != nil {
		transport.Error(c, 0, err)
		return
	}
	s.setCookies(c, pair)
	transport.JSON(c, status, userBody{User: user})
}

func (s *Server) setCookies(c *gin.Context, pair *jwt.Pair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookie, pair.AccessToken, seconds(pair.AccessTTL), "/", "", s.config.SecureCookies, true)
	c.SetCookie(RefreshCookie, pair.RefreshToken, seconds(pair.RefreshTTL), refreshCookiePath, "", s.config.SecureCookies, true)
}

func (s *Server) clearCookies(c *gin.Context) {
	c.SetCookie(AccessCookie, "", -1, "/", "", s.config.SecureCookies, true)
	c.SetCookie(RefreshCookie, "", -1, refreshCookiePath, "", s.config.SecureCookies, true)
}

func seconds(d time.Duration) int {
	return max(int(d/time.Second), 1)
}

// bind decodes the JSON body into v and validates it.
func bind(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return errors.BadRequest("invalid request body").WithCause(err)
	}
	if err := validator.Validate.StructCtx(c.Request.Context(), v); err != nil {
		return errors.BadRequest("%s", err.Error()).WithCause(err)
	}
	return nil
}
