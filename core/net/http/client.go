package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kochabx/carelink/core/auth/session"
	"github.com/kochabx/carelink/errors"
	"github.com/kochabx/carelink/log"
	"github.com/kochabx/carelink/metrics"
)

const (
	DefaultTimeout        = 30 * time.Second
	DefaultRefreshTimeout = 10 * time.Second
)

// Client calls the REST backend on behalf of the signed-in user. Credentials
// travel as cookies; a 401 triggers a single shared session refresh after
// which the request is replayed once.
type Client struct {
	base   *URLBuilder
	client *http.Client
	jar    Jar

	store     session.Store
	notifier  Notifier
	navigator Navigator
	logger    *log.Logger

	timeout         time.Duration
	refreshTimeout  time.Duration
	diagnostic      bool
	refreshDisabled bool

	registerer prometheus.Registerer
	metrics    *clientMetrics
	refresher  *refresher

	requestOptPool sync.Pool
	now            func() time.Time
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := FromURL(baseURL)
	if err != nil {
		return nil, errors.BadRequest("invalid base url").WithCause(err)
	}

	c := &Client{
		base:           base,
		client:         &http.Client{},
		store:          session.NewMemoryStore(),
		notifier:       nopNotifier{},
		navigator:      nopNavigator{},
		logger:         log.G,
		timeout:        DefaultTimeout,
		refreshTimeout: DefaultRefreshTimeout,
		registerer:     metrics.Prom.Registry(),
		requestOptPool: sync.Pool{
			New: func() any {
				return &RequestOption{
					header: make(map[string]string, 4),
					query:  make(url.Values),
				}
			},
		},
		now: time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.jar == nil {
		c.jar = NewMemoryJar()
	}
	c.client.Jar = c.jar
	c.metrics = newClientMetrics(c.registerer)
	c.refresher = &refresher{
		refresh:  c.refresh,
		failed:   c.ClearSession,
		redirect: c.redirectToLogin,
		metrics:  c.metrics,
	}

	return c, nil
}

// call is one logical request. Its body is buffered so it can be sent again
// after a refresh.
type call struct {
	method  string
	path    string
	body    []byte
	opt     *RequestOption
	retried bool
}

// Request sends method to path below the base URL. body may be nil, []byte,
// string, io.Reader or any JSON encodable value. On success the response
// body is fully buffered and can be read after Request returns.
func (c *Client) Request(ctx context.Context, method, path string, body any, opts ...func(*RequestOption)) (*http.Response, error) {
	opt := c.getRequestOption()
	defer c.putRequestOption(opt)

	for _, o := range opts {
		o(opt)
	}

	payload, err := encodeBody(body)
	if err != nil {
		return nil, errors.BadRequest("invalid request body").WithMetadata(map[string]string{
			MetaMethod: method,
			MetaPath:   path,
		}).WithCause(err)
	}

	return c.do(ctx, &call{method: method, path: path, body: payload, opt: opt})
}

func (c *Client) do(ctx context.Context, cl *call) (*http.Response, error) {
	resp, data, err := c.attempt(ctx, cl)
	if err != nil {
		return nil, c.networkError(ctx, cl, err)
	}

	status := resp.StatusCode
	if status >= 200 && status < 300 {
		c.logger.Debug().Str(MetaMethod, cl.method).Str(MetaPath, cl.path).Int(MetaStatus, status).Msg("request succeeded")
		if cl.opt.response != nil && len(bytes.TrimSpace(data)) > 0 {
			if err := json.Unmarshal(data, cl.opt.response); err != nil {
				return nil, errors.Internal("invalid response body").WithMetadata(map[string]string{
					MetaMethod: cl.method,
					MetaPath:   cl.path,
				}).WithCause(err)
			}
		}
		return resp, nil
	}

	if status == http.StatusUnauthorized && !cl.retried && !c.refreshDisabled && !isAuthPath(cl.path) {
		cl.retried = true
		resp, err := c.refresher.coordinate(ctx, func(ctx context.Context) (*http.Response, error) {
			return c.do(ctx, cl)
		})
		if err != nil {
			var e *errors.Error
			if !errors.As(err, &e) {
				// waiter gave up before the refresh settled
				err = requestError(ErrNetwork, cl.method, cl.path, 0, err)
			}
			return nil, err
		}
		return resp, nil
	}

	return nil, c.statusError(ctx, cl, status, data)
}

// attempt sends cl once and buffers the response body.
func (c *Client) attempt(ctx context.Context, cl *call) (*http.Response, []byte, error) {
	timeout := c.timeout
	if cl.opt.timeout > 0 {
		timeout = cl.opt.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := c.newRequest(ctx, cl)
	if err != nil {
		return nil, nil, err
	}
	c.logRequest(req, cl)

	start := c.now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.observe(cl.method, 0, start)
		return nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	c.metrics.observe(cl.method, resp.StatusCode, start)
	if err != nil {
		return nil, nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))

	c.logResponse(resp, cl, data, start)
	return resp, data, nil
}

func (c *Client) newRequest(ctx context.Context, cl *call) (*http.Request, error) {
	var body io.Reader
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.url(cl.path, cl.opt.query), body)
	if err != nil {
		return nil, err
	}

	req.Header.Set(HeaderContentType, ContentTypeJSON)
	req.Header.Set(HeaderRequestTime, c.now().UTC().Format(RequestTimeFormat))
	req.Header.Set(HeaderRequestID, uuid.NewString())
	if user := c.store.User(ctx); user != nil && user.Role != "" {
		req.Header.Set(HeaderUserRole, string(user.Role))
	}
	for k, v := range cl.opt.header {
		req.Header.Set(k, v)
	}
	return req, nil
}

func (c *Client) url(path string, query url.Values) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		if b, err := FromURL(path); err == nil {
			return b.QueryValues(query).String()
		}
	}
	return c.base.Clone().AppendPath(path).QueryValues(query).String()
}

func (c *Client) networkError(ctx context.Context, cl *call, cause error) error {
	err := requestError(ErrNetwork, cl.method, cl.path, 0, cause)

	// the caller gave up; nothing to tell the user
	if ctx.Err() != nil {
		c.logger.Debug().Err(cause).Str(MetaMethod, cl.method).Str(MetaPath, cl.path).Msg("request cancelled")
		return err
	}

	c.logger.Error().Err(cause).Str(MetaMethod, cl.method).Str(MetaPath, cl.path).Msg("network error")
	c.notify(ctx, 0, err)
	return err
}

func (c *Client) statusError(ctx context.Context, cl *call, status int, body []byte) error {
	err := requestError(classify(status), cl.method, cl.path, status, nil)
	if d := detail(body); d != "" {
		err = err.WithMetadata(map[string]string{MetaDetail: d})
	}

	event := c.logger.Warn()
	if status >= http.StatusInternalServerError {
		event = c.logger.Error()
	}
	event.Str(MetaMethod, cl.method).Str(MetaPath, cl.path).Int(MetaStatus, status).Msg("request failed")

	c.notify(ctx, status, err)
	return err
}

func (c *Client) notify(ctx context.Context, status int, err error) {
	if n, ok := notificationFor(status); ok {
		n.Err = err
		c.notifier.Notify(ctx, n)
	}
}

// refresh asks the backend to renew the session cookies. It runs detached
// from the caller's cancellation; only the refresh timeout bounds it.
func (c *Client) refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
	defer cancel()

	fail := func(status int, cause error) error {
		err := requestError(ErrAuth, http.MethodPost, RefreshPath, status, cause)
		c.logger.Warn().Err(err).Msg("session refresh failed")
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(RefreshPath, nil), nil)
	if err != nil {
		return fail(0, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fail(resp.StatusCode, nil)
	}

	var payload struct {
		User *session.User `json:"user"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.User != nil {
		c.store.SetUser(ctx, payload.User)
	}
	c.logger.Debug().Msg("session refreshed")
	return nil
}

func (c *Client) redirectToLogin() {
	if strings.HasPrefix(c.navigator.CurrentPath(), authPrefix) {
		return
	}
	c.navigator.Redirect(LoginPath)
}

// ClearSession forgets the current user and drops every cookie.
func (c *Client) ClearSession(ctx context.Context) {
	c.store.ClearUser(ctx)
	c.jar.Reset()
}

// IsAuthenticated reports whether a user is signed in.
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	return c.store.User(ctx) != nil
}

// CurrentUser returns the signed-in user or nil.
func (c *Client) CurrentUser(ctx context.Context) *session.User {
	return c.store.User(ctx)
}

// Session returns the session store.
func (c *Client) Session() session.Store {
	return c.store
}

// Jar returns the cookie jar carrying the session.
func (c *Client) Jar() Jar {
	return c.jar
}

func (c *Client) getRequestOption() *RequestOption {
	opt := c.requestOptPool.Get().(*RequestOption)
	opt.reset()
	return opt
}

func (c *Client) putRequestOption(opt *RequestOption) {
	c.requestOptPool.Put(opt)
}

func encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case io.Reader:
		return io.ReadAll(v)
	default:
		return json.Marshal(v)
	}
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, opts ...func(*RequestOption)) (*http.Response, error) {
	return c.Request(ctx, http.MethodGet, path, nil, opts...)
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...func(*RequestOption)) (*http.Response, error) {
	return c.Request(ctx, http.MethodPost, path, body, opts...)
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body any, opts ...func(*RequestOption)) (*http.Response, error) {
	return c.Request(ctx, http.MethodPut, path, body, opts...)
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body any, opts ...func(*RequestOption)) (*http.Response, error) {
	return c.Request(ctx, http.MethodPatch, path, body, opts...)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts ...func(*RequestOption)) (*http.Response, error) {
	return c.Request(ctx, http.MethodDelete, path, nil, opts...)
}
