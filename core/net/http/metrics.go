package http

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kochabx/carelink/metrics"
)

type clientMetrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	refreshes *prometheus.CounterVec
	waiting   prometheus.Gauge
}

func newClientMetrics(reg prometheus.Registerer) *clientMetrics {
	return &clientMetrics{
		requests: metrics.Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "http_client",
			Name:      "requests_total",
			Help:      "Request attempts by method and status; status is \"network\" when no response arrived.",
		}, []string{"method", "status"})),
		duration: metrics.Register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: "http_client",
			Name:      "request_duration_seconds",
			Help:      "Request attempt latency by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"})),
		refreshes: metrics.Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "http_client",
			Name:      "refresh_total",
			Help:      "Session refresh calls by result.",
		}, []string{"result"})),
		waiting: metrics.Register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: "http_client",
			Name:      "refresh_waiters",
			Help:      "Requests waiting for an in-flight refresh.",
		})),
	}
}

func (m *clientMetrics) observe(method string, status int, start time.Time) {
	code := "network"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(method, code).Inc()
	m.duration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

func (m *clientMetrics) refreshed(err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.refreshes.WithLabelValues(result).Inc()
}
