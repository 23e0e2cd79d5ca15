package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/carelink/core/auth/session"
	"github.com/kochabx/carelink/errors"
	"github.com/kochabx/carelink/log"
	"github.com/kochabx/carelink/log/desensitize"
)

type recordingNotifier struct {
	mu    sync.Mutex
	kinds []NotificationKind
}

func (n *recordingNotifier) Notify(_ context.Context, note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, note.Kind)
}

func (n *recordingNotifier) Kinds() []NotificationKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]NotificationKind(nil), n.kinds...)
}

type recordingNavigator struct {
	mu        sync.Mutex
	current   string
	redirects []string
}

func (n *recordingNavigator) CurrentPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *recordingNavigator) Redirect(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.redirects = append(n.redirects, path)
	n.current = path
}

func (n *recordingNavigator) Redirects() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.redirects...)
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithRegisterer(prometheus.NewRegistry()),
		WithLogger(log.NewWriter(io.Discard)),
	}
	c, err := New(baseURL, append(base, opts...)...)
	require.NoError(t, err)
	return c
}

func TestNewInvalidBaseURL(t *testing.T) {
	_, err := New("not a url")
	assert.Error(t, err)

	_, err = New("/relative/only")
	assert.Error(t, err)
}

func TestRequestHeaders(t *testing.T) {
	headers := make(chan http.Header, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	store := session.NewMemoryStore()
	c := newTestClient(t, srv.URL, WithSessionStore(store))
	ctx := context.Background()

	_, err := c.Get(ctx, "/observations")
	require.NoError(t, err)
	got := <-headers
	assert.Equal(t, ContentTypeJSON, got.Get(HeaderContentType))
	assert.Empty(t, got.Get(HeaderUserRole), "no role without a session")

	ts, err := time.Parse(RequestTimeFormat, got.Get(HeaderRequestTime))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, 5*time.Second)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`, got.Get(HeaderRequestTime))

	_, err = uuid.Parse(got.Get(HeaderRequestID))
	assert.NoError(t, err)

	store.SetUser(ctx, &session.User{ID: "u-1", Role: session.RoleVolunteer})
	_, err = c.Get(ctx, "/observations", WithHeader(map[string]string{"Accept": ContentTypeCSV}))
	require.NoError(t, err)
	got = <-headers
	assert.Equal(t, "volunteer", got.Get(HeaderUserRole))
	assert.Equal(t, ContentTypeCSV, got.Get(HeaderAccept))
}

func TestRequestBodyQueryAndResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		w.Header().Set(HeaderContentType, ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]any{
			"path":  r.URL.Path,
			"query": r.URL.Query().Get("status"),
			"title": in["title"],
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/api")

	var out struct {
		Path  string `json:"path"`
		Query string `json:"query"`
		Title string `json:"title"`
	}
	resp, err := c.Post(context.Background(), "/health-reports?status=open",
		map[string]string{"title": "fever cluster"},
		WithResponse(&out), WithQuery(url.Values{"page": {"1"}}))
	require.NoError(t, err)

	assert.Equal(t, "/api/health-reports", out.Path)
	assert.Equal(t, "open", out.Query)
	assert.Equal(t, "fever cluster", out.Title)

	// the body stays readable after the attempt context is gone
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "fever cluster")
}

func TestRequestBodyKinds(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(b))
		mu.Unlock()
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	_, err := c.Put(ctx, "/a", []byte(`{"a":1}`))
	require.NoError(t, err)
	_, err = c.Patch(ctx, "/a", bytes.NewBufferString(`{"b":2}`))
	require.NoError(t, err)
	_, err = c.Delete(ctx, "/a")
	require.NoError(t, err)

	mu.Lock()
	assert.Equal(t, []string{`{"a":1}`, `{"b":2}`, ``}, bodies)
	mu.Unlock()

	_, err = c.Post(ctx, "/a", make(chan int))
	assert.Error(t, err)
}

func TestStatusErrors(t *testing.T) {
	tests := []struct {
		status   int
		body     string
		sentinel *errors.Error
		notify   []NotificationKind
		detail   string
	}{
		{http.StatusBadRequest, `{"message":"title is required"}`, ErrRequest, nil, "title is required"},
		{http.StatusForbidden, ``, ErrForbidden, []NotificationKind{NotifyForbidden}, ""},
		{http.StatusNotFound, `{"error":"no such report"}`, ErrNotFound, nil, "no such report"},
		{http.StatusConflict, ``, ErrRequest, nil, ""},
		{http.StatusUnprocessableEntity, `not json`, ErrRequest, nil, ""},
		{http.StatusTooManyRequests, ``, ErrRateLimited, []NotificationKind{NotifyRateLimited}, ""},
		{http.StatusInternalServerError, ``, ErrServer, []NotificationKind{NotifyServer}, ""},
		{http.StatusBadGateway, ``, ErrServer, []NotificationKind{NotifyServer}, ""},
		{http.StatusServiceUnavailable, ``, ErrServer, []NotificationKind{NotifyServer}, ""},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			notifier := &recordingNotifier{}
			c := newTestClient(t, srv.URL, WithNotifier(notifier))

			resp, err := c.Get(context.Background(), "/health-reports")
			assert.Nil(t, resp)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.status, StatusCode(err))
			assert.Equal(t, tt.detail, Detail(err))
			assert.Equal(t, tt.notify, notifier.Kinds())

			var e *errors.Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, "GET", e.Metadata[MetaMethod])
			assert.Equal(t, "/health-reports", e.Metadata[MetaPath])
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	notifier := &recordingNotifier{}
	c := newTestClient(t, addr, WithNotifier(notifier))

	_, err := c.Get(context.Background(), "/observations")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, errors.NetworkCode, errors.Code(err))
	assert.Equal(t, 0, StatusCode(err))
	assert.Equal(t, []NotificationKind{NotifyNetwork}, notifier.Kinds())
}

func TestAttemptTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	notifier := &recordingNotifier{}
	c := newTestClient(t, srv.URL, WithNotifier(notifier), WithTimeout(time.Minute))

	_, err := c.Get(context.Background(), "/slow", WithRequestTimeout(50*time.Millisecond))
	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []NotificationKind{NotifyNetwork}, notifier.Kinds())
}

func TestCancelledRequestIsNotNotified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	notifier := &recordingNotifier{}
	c := newTestClient(t, srv.URL, WithNotifier(notifier))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Get(ctx, "/slow")
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Empty(t, notifier.Kinds())
}

func TestInvalidResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>")
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	var out map[string]any
	_, err := c.Get(context.Background(), "/x", WithResponse(&out))
	assert.Error(t, err)
	assert.Equal(t, 500, errors.Code(err))
}

func TestDiagnosticLoggingRedactsBodies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"user":{"id":"u-1"},"token":"server-secret"}`)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := log.NewWriter(&buf, log.WithDesensitize(desensitize.NewHook(desensitize.BuiltinRules()...)))
	c := newTestClient(t, srv.URL, WithLogger(logger), WithDiagnostic(true))

	_, err := c.Post(context.Background(), LoginPath, map[string]string{
		"email":    "ada@example.org",
		"password": "correct horse",
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"message":"http request"`)
	assert.Contains(t, out, `"message":"http response"`)
	assert.Contains(t, out, `"password":"******"`)
	assert.NotContains(t, out, "correct horse")
	assert.NotContains(t, out, "server-secret")
}

func TestNoDiagnosticLoggingByDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	var buf bytes.Buffer
	c := newTestClient(t, srv.URL, WithLogger(log.NewWriter(&buf)))

	_, err := c.Post(context.Background(), "/observations", map[string]string{"note": "hello"})
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "hello")
}

func TestAbsoluteURL(t *testing.T) {
	var hits atomic.Int32
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits.Add(1) }))
	defer other.Close()

	c := newTestClient(t, "http://127.0.0.1:1")
	_, err := c.Get(context.Background(), other.URL+"/api/health")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestNewFromConfig(t *testing.T) {
	c, err := NewFromConfig(Config{BaseURL: "https://api.example.org"}, WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, c.timeout)
	assert.Equal(t, DefaultRefreshTimeout, c.refreshTimeout)
	assert.False(t, c.diagnostic)
}

func TestSessionAccessors(t *testing.T) {
	c := newTestClient(t, "https://api.example.org")
	ctx := context.Background()

	assert.False(t, c.IsAuthenticated(ctx))
	c.Session().SetUser(ctx, &session.User{ID: "u-1"})
	assert.True(t, c.IsAuthenticated(ctx))
	assert.Equal(t, "u-1", c.CurrentUser(ctx).ID)

	u, _ := url.Parse("https://api.example.org/")
	c.Jar().SetCookies(u, []*http.Cookie{{Name: "access", Value: "x"}})
	require.Len(t, c.Jar().Cookies(u), 1)

	c.ClearSession(ctx)
	assert.False(t, c.IsAuthenticated(ctx))
	assert.Empty(t, c.Jar().Cookies(u))
}
