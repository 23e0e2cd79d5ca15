package http

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/carelink/log"
	"github.com/kochabx/carelink/metrics"
	"github.com/kochabx/carelink/transport"
)

var _ transport.Server = (*Server)(nil)

const (
	defaultName = "http"
	defaultAddr = ":8080"
)

type Meta struct {
	Name string
}

type Server struct {
	meta    Meta
	options Options
	server  *http.Server

	mu       sync.Mutex
	listener net.Listener
	ready    chan struct{}
}

type Option func(*Server)

func WithMeta(meta Meta) Option {
	return func(s *Server) {
		s.meta = meta
	}
}

func WithMetricsOptions(opt MetricsOption) Option {
	return func(s *Server) {
		if err := opt.init(); err != nil {
			log.Error().Err(err).Send()
			return
		}
		s.options.Metrics = opt
	}
}

func WithHealthOptions(opt HealthOption) Option {
	return func(s *Server) {
		if err := opt.init(); err != nil {
			log.Error().Err(err).Send()
			return
		}
		s.options.Health = opt
	}
}

func NewServer(addr string, handler http.Handler, opts ...Option) *Server {
	s := &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: handler,
		},
		ready: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	if r, ok := handler.(*gin.Engine); ok {
		handleMetrics(s, r)
		handleHealth(s, r)
	}
	return s
}

func (s *Server) Run() error {
	if s.meta.Name == "" {
		s.meta.Name = defaultName
	}
	if !transport.ValidateAddress(s.server.Addr) {
		log.Warn().Msgf("invalid address %s, using default address: %s", s.server.Addr, defaultAddr)
		s.server.Addr = defaultAddr
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	close(s.ready)

	log.Info().Msgf("%s server listening on %s", s.meta.Name, ln.Addr())
	return s.server.Serve(ln)
}

// Ready is closed once the server is listening.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr is the bound address once Run is listening, the configured one
// before.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func handleMetrics(s *Server, r *gin.Engine) {
	if !s.options.Metrics.Enabled {
		return
	}
	if s.options.Metrics.EnabledGoCollector {
		metrics.Prom.WithGoCollectorRuntimeMetrics()
	}
	if s.options.Metrics.EnabledBuildInfoCollector {
		metrics.Prom.WithBuildInfoCollector()
	}
	r.GET(s.options.Metrics.Path, gin.WrapH(metrics.Prom.Handler()))
}

func handleHealth(s *Server, r *gin.Engine) {
	if !s.options.Health.Enabled {
		return
	}
	check := s.options.Health.Check
	r.GET(s.options.Health.Path, func(c *gin.Context) {
		if check != nil {
			if err := check(c.Request.Context()); err != nil {
				log.Warn().Err(err).Msg("health check failed")
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
