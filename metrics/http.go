package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPServer counts and times requests served by a gin engine.
type HTTPServer struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPServer registers server metrics for the named server on reg.
func NewHTTPServer(reg prometheus.Registerer, server string) *HTTPServer {
	labels := prometheus.Labels{"server": server}
	return &HTTPServer{
		requests: Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   Namespace,
			Subsystem:   "http_server",
			Name:        "requests_total",
			Help:        "Requests handled, by route and status.",
			ConstLabels: labels,
		}, []string{"method", "route", "status"})),
		duration: Register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   Namespace,
			Subsystem:   "http_server",
			Name:        "request_duration_seconds",
			Help:        "Request latency, by route.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"})),
	}
}

// Middleware records every request. Unmatched routes are grouped under
// "unmatched" to keep label cardinality bounded.
func (m *HTTPServer) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.requests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
