package http

import (
	"context"
	"net/http"
	"net/http/httptrace"
	"sync"

	"github.com/kochabx/carelink/errors"
)

// errRefreshAborted is what waiters receive if the refresh call panics.
var errRefreshAborted = ErrAuth.WithMetadata(map[string]string{
	MetaMethod: http.MethodPost,
	MetaPath:   RefreshPath,
}).WithCause(errors.New(errors.UnknownCode, "refresh aborted"))

// refresher runs at most one session refresh at a time. Requests that hit a
// 401 while a refresh is running queue up behind it and share its outcome.
type refresher struct {
	mu       sync.Mutex
	inflight bool
	queue    []*waiter

	// refresh performs the call. failed runs the session teardown and is
	// called before waiters are rejected; redirect runs after.
	refresh  func(ctx context.Context) error
	failed   func(ctx context.Context)
	redirect func()
	metrics  *clientMetrics
}

type waiter struct {
	ctx    context.Context
	result chan error
	// done is closed once the waiter's replay is on the wire (or returned
	// without being sent), releasing the next waiter in line.
	done chan struct{}
}

// coordinate refreshes the session, or joins the refresh already running,
// then replays the failed request. replay is never called when the refresh
// fails; the refresh error is returned instead.
func (r *refresher) coordinate(ctx context.Context, replay func(context.Context) (*http.Response, error)) (*http.Response, error) {
	r.mu.Lock()
	if r.inflight {
		w := &waiter{ctx: ctx, result: make(chan error, 1), done: make(chan struct{})}
		r.queue = append(r.queue, w)
		r.metrics.waiting.Inc()
		r.mu.Unlock()
		return r.wait(ctx, w, replay)
	}
	r.inflight = true
	r.mu.Unlock()

	if err := r.run(ctx); err != nil {
		return nil, err
	}
	return replay(ctx)
}

func (r *refresher) wait(ctx context.Context, w *waiter, replay func(context.Context) (*http.Response, error)) (*http.Response, error) {
	select {
	case err := <-w.result:
		if err != nil {
			return nil, err
		}
		sent := sync.OnceFunc(func() { close(w.done) })
		defer sent()
		trace := &httptrace.ClientTrace{
			WroteRequest: func(httptrace.WroteRequestInfo) { sent() },
		}
		return replay(httptrace.WithClientTrace(ctx, trace))
	case <-ctx.Done():
		// the release loop skips us through w.ctx
		return nil, ctx.Err()
	}
}

func (r *refresher) run(ctx context.Context) (err error) {
	err = errRefreshAborted
	defer func() {
		r.settle(ctx, err)
	}()

	err = r.refresh(ctx)
	return err
}

// settle clears the in-flight flag and hands the outcome to every waiter
// queued during this refresh. The teardown outlives the caller that started
// the refresh, like the refresh call itself.
func (r *refresher) settle(ctx context.Context, err error) {
	r.mu.Lock()
	queue := r.queue
	r.queue = nil
	r.inflight = false
	r.mu.Unlock()

	r.metrics.waiting.Sub(float64(len(queue)))
	r.metrics.refreshed(err)

	if err != nil {
		r.failed(context.WithoutCancel(ctx))
		for _, w := range queue {
			w.result <- err
		}
		r.redirect()
		return
	}

	if len(queue) > 0 {
		go release(queue)
	}
}

// release lets waiters replay in arrival order. The next waiter goes once
// the previous replay has been written, so a slow response does not hold
// up the rest of the queue.
func release(queue []*waiter) {
	for _, w := range queue {
		w.result <- nil
		select {
		case <-w.done:
		case <-w.ctx.Done():
		}
	}
}
