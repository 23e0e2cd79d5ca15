// Package metrics holds the prometheus registry shared by the client and the
// dev server.
package metrics

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every carelink metric.
const Namespace = "carelink"

// Prom is the process wide registry.
var Prom = New()

// Prometheus wraps a registry that starts empty; collectors are opted into.
type Prometheus struct {
	registry *prometheus.Registry
}

func New() *Prometheus {
	return &Prometheus{registry: prometheus.NewRegistry()}
}

func (p *Prometheus) WithGoCollectorRuntimeMetrics() *Prometheus {
	Register(p.registry, collectors.NewGoCollector(
		collectors.WithGoCollectorRuntimeMetrics(collectors.GoRuntimeMetricsRule{Matcher: regexp.MustCompile("/.*")}),
	))
	return p
}

func (p *Prometheus) WithProcessCollector() *Prometheus {
	Register(p.registry, collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return p
}

func (p *Prometheus) WithBuildInfoCollector() *Prometheus {
	Register(p.registry, collectors.NewBuildInfoCollector())
	return p
}

func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the OpenMetrics format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Register adds c to reg and returns it. If an equal collector is already
// registered the existing one is returned instead, so several clients can
// share one registry. Any other registration error panics.
func Register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}
