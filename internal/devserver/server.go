// Package devserver is a local backend speaking the carelink REST contract:
// cookie sessions with a short lived access token, /auth/refresh, generic
// record collections and a rule based water-quality predictor.
package devserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/kochabx/carelink/core/auth/jwt"
	"github.com/kochabx/carelink/core/auth/session"
	"github.com/kochabx/carelink/core/rate"
	"github.com/kochabx/carelink/core/tag"
	"github.com/kochabx/carelink/core/validator"
	"github.com/kochabx/carelink/log"
	"github.com/kochabx/carelink/metrics"
	middleware "github.com/kochabx/carelink/middleware/http"
	"github.com/kochabx/carelink/service/records"
)

// Collections served under their own path.
var Collections = []string{records.HealthReports, records.Observations, records.FamilyMembers}

type Server struct {
	config      *Config
	issuer      *jwt.Issuer
	users       *userStore
	collections map[string]*collection
	limiter     rate.Limiter
	engine      *gin.Engine
	logger      *log.Logger
}

type Option func(*options)

type options struct {
	logger     *log.Logger
	blacklist  jwt.Blacklist
	registerer prometheus.Registerer
	limiter    rate.Limiter
	bcryptCost int
}

func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithBlacklist stores revoked refresh tokens in b instead of memory.
func WithBlacklist(b jwt.Blacklist) Option {
	return func(o *options) {
		o.blacklist = b
	}
}

func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		if reg != nil {
			o.registerer = reg
		}
	}
}

// WithLoginLimiter throttles login attempts per email.
func WithLoginLimiter(l rate.Limiter) Option {
	return func(o *options) {
		o.limiter = l
	}
}

// WithBcryptCost lowers the hashing cost, for tests.
func WithBcryptCost(cost int) Option {
	return func(o *options) {
		o.bcryptCost = cost
	}
}

func New(cfg *Config, opts ...Option) (*Server, error) {
	o := &options{
		logger:     log.G,
		registerer: metrics.Prom.Registry(),
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(o)
	}

	if err := tag.ApplyDefaults(cfg); err != nil {
		return nil, err
	}
	if err := validator.Validate.Struct(cfg); err != nil {
		return nil, err
	}

	issuer, err := jwt.New(cfg.jwtConfig(), o.blacklist)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:      cfg,
		issuer:      issuer,
		users:       newUserStore(o.bcryptCost),
		collections: make(map[string]*collection, len(Collections)),
		limiter:     o.limiter,
		logger:      o.logger,
	}
	for _, name := range Collections {
		s.collections[name] = newCollection()
	}

	if d := cfg.DemoUser; d.Email != "" {
		if _, err := s.users.register(d.Name, d.Email, d.Password, d.Role); err != nil {
			return nil, err
		}
		s.logger.Info().Str("email", d.Email).Msg("demo user created")
	}

	s.engine = s.routes(metrics.NewHTTPServer(o.registerer, "devserver"))
	return s, nil
}

// Handler returns the gin engine.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Engine is Handler for callers that add routes, like transport/http.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) routes(m *metrics.HTTPServer) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.Recovery(middleware.RecoveryConfig{StackTrace: true, Logger: s.logger}),
		middleware.Logger(middleware.LoggerConfig{SkipPaths: []string{"/health", "/metrics"}, Logger: s.logger}),
		m.Middleware(),
	)

	authn := middleware.Auth(middleware.AuthConfig{Authenticate: s.authenticate})

	a := r.Group("/auth")
	a.POST("/login", s.login)
	a.POST("/signup", s.signup)
	a.POST("/refresh", s.refresh)
	a.POST("/logout", s.logout)
	a.GET("/me", authn, s.me)

	for _, name := range Collections {
		g := r.Group(name, authn)
		h := &collectionHandler{name: name, c: s.collections[name]}
		g.GET("", h.list)
		g.POST("", h.create)
		g.GET("/export", h.export)
		g.GET("/:id", h.get)
		g.PUT("/:id", h.update)
		g.DELETE("/:id", middleware.RequireRole(session.RoleVolunteer, session.RoleAdmin), h.delete)
	}

	api := r.Group("/api")
	api.GET("/health", predictorHealth)
	api.GET("/model-info", modelInfo)
	api.POST("/predict", predict)

	return r
}

func (s *Server) authenticate(c *gin.Context) (*session.User, error) {
	token, err := c.Cookie(AccessCookie)
	if err != nil || token == "" {
		return nil, errMissingSession
	}
	claims, err := s.issuer.Verify(c.Request.Context(), token, jwt.KindAccess)
	if err != nil {
		return nil, errInvalidSession.WithCause(err)
	}
	return claims.User(), nil
}
