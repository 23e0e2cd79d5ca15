package http

import (
	"maps"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kochabx/carelink/core/auth/session"
	"github.com/kochabx/carelink/log"
)

// Option configures a Client.
type Option func(*Client)

// WithClient sets the underlying http.Client. Its Jar is replaced by the
// client's Jar.
func WithClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithTransport sets the round tripper of the underlying http.Client.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.client.Transport = rt
	}
}

// WithJar sets the cookie jar that carries the session credentials.
func WithJar(jar Jar) Option {
	return func(c *Client) {
		c.jar = jar
	}
}

// WithTimeout sets the per attempt timeout. Default 30s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRefreshTimeout sets the timeout of the refresh call. Default 10s.
func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.refreshTimeout = d
		}
	}
}

// WithSessionStore sets where the current user is kept.
func WithSessionStore(store session.Store) Option {
	return func(c *Client) {
		if store != nil {
			c.store = store
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(c *Client) {
		if n != nil {
			c.notifier = n
		}
	}
}

func WithNavigator(n Navigator) Option {
	return func(c *Client) {
		if n != nil {
			c.navigator = n
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDiagnostic logs method, path, headers and redacted bodies of every
// attempt.
func WithDiagnostic(enabled bool) Option {
	return func(c *Client) {
		c.diagnostic = enabled
	}
}

// WithRefreshDisabled turns 401 answers straight into ErrAuth, for
// backends that do not implement the refresh endpoint.
func WithRefreshDisabled() Option {
	return func(c *Client) {
		c.refreshDisabled = true
	}
}

// WithRegisterer sets where client metrics are registered. Default is the
// process wide metrics.Prom registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Client) {
		c.registerer = reg
	}
}

// RequestOption holds per request settings.
type RequestOption struct {
	header   map[string]string
	query    url.Values
	response any
	timeout  time.Duration
}

// WithHeader sets extra headers. They override the defaults.
func WithHeader(header map[string]string) func(*RequestOption) {
	return func(opt *RequestOption) {
		maps.Copy(opt.header, header)
	}
}

// WithQuery adds query parameters.
func WithQuery(query url.Values) func(*RequestOption) {
	return func(opt *RequestOption) {
		for k, vs := range query {
			for _, v := range vs {
				opt.query.Add(k, v)
			}
		}
	}
}

// WithResponse decodes a 2xx JSON body into response.
func WithResponse(response any) func(*RequestOption) {
	return func(opt *RequestOption) {
		opt.response = response
	}
}

// WithRequestTimeout overrides the client's per attempt timeout.
func WithRequestTimeout(d time.Duration) func(*RequestOption) {
	return func(opt *RequestOption) {
		opt.timeout = d
	}
}

func (opt *RequestOption) reset() {
	clear(opt.header)
	clear(opt.query)
	opt.response = nil
	opt.timeout = 0
}
