package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/http/httputil"
	"os"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/carelink/log"
	transport "github.com/kochabx/carelink/transport/http"
)

type RecoveryConfig struct {
	StackTrace bool
	Logger     *log.Logger
}

// Recovery turns a panic into a 500 answer.
func Recovery(cfgs ...RecoveryConfig) gin.HandlerFunc {
	cfg := RecoveryConfig{StackTrace: true}
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	}
	if cfg.Logger == nil {
		cfg.Logger = log.G
	}

	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			request, _ := httputil.DumpRequest(c.Request, false)

			if isBrokenPipe(r) {
				cfg.Logger.Warn().
					Str("error", fmt.Sprint(r)).
					Str("request", cfg.Logger.Redact(string(request))).
					Msg("broken pipe")
				_ = c.Error(fmt.Errorf("%v", r))
				c.Abort()
				return
			}

			event := cfg.Logger.Error().
				Str("error", fmt.Sprint(r)).
				Str("request", cfg.Logger.Redact(string(request)))
			if cfg.StackTrace {
				event = event.Bytes("stack", debug.Stack())
			}
			event.Msg("panic recovered")

			transport.AbortError(c, transport.StatusInternalServerError, nil)
		}()
		c.Next()
	}
}

func isBrokenPipe(r any) bool {
	err, ok := r.(error)
	if !ok {
		return false
	}
	var ne *net.OpError
	if !errors.As(err, &ne) {
		return false
	}
	var se *os.SyscallError
	if !errors.As(ne.Err, &se) {
		return false
	}
	msg := strings.ToLower(se.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}
