package middleware

import (
	"bytes"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/carelink/log"
)

// LoggerConfig configures Logger. Logged bodies pass through the logger's
// redaction rules.
type LoggerConfig struct {
	RequestBody  bool
	ResponseBody bool
	Header       bool
	HandlerName  bool
	SkipPaths    []string
	SkipFunc     func(*gin.Context) bool
	Logger       *log.Logger
}

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Logger logs one line per request.
func Logger(cfgs ...LoggerConfig) gin.HandlerFunc {
	var cfg LoggerConfig
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	}
	if cfg.Logger == nil {
		cfg.Logger = log.G
	}
	matcher := NewPathMatcher(cfg.SkipPaths)

	return func(c *gin.Context) {
		if shouldSkip(c, matcher, cfg.SkipFunc) {
			c.Next()
			return
		}

		start := time.Now()

		var requestBody []byte
		if cfg.RequestBody {
			if body, err := c.GetRawData(); err == nil {
				requestBody = body
				c.Request.Body = io.NopCloser(bytes.NewReader(body))
			}
		}

		var rw *responseWriter
		if cfg.ResponseBody {
			rw = &responseWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
			c.Writer = rw
		}

		c.Next()

		status := c.Writer.Status()
		event := cfg.Logger.Info()
		if status >= 500 {
			event = cfg.Logger.Error()
		}
		event = event.
			Int("status", status).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP())

		if query := c.Request.URL.RawQuery; query != "" {
			event = event.Str("query", query)
		}
		if id := c.Request.Header.Get("X-Request-Id"); id != "" {
			event = event.Str("request_id", id)
		}
		if role := c.Request.Header.Get("X-User-Role"); role != "" {
			event = event.Str("user_role", role)
		}
		if cfg.HandlerName {
			event = event.Str("handler", c.HandlerName())
		}
		if cfg.Header {
			event = event.Any("headers", c.Request.Header)
		}
		if len(requestBody) > 0 {
			event = event.Str("request_body", cfg.Logger.Redact(string(requestBody)))
		}
		if rw != nil && rw.body.Len() > 0 {
			event = event.Str("response_body", cfg.Logger.Redact(rw.body.String()))
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.ByType(gin.ErrorTypePrivate).String())
		}

		event.Msg("request")
	}
}
