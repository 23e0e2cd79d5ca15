package app

import (
	"context"
	"errors"
	"io"
	"net"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/carelink/log"
	"github.com/kochabx/carelink/transport/http"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestApp(opts ...Option) *Application {
	return New(append([]Option{WithLogger(log.NewWriter(io.Discard))}, opts...)...)
}

func TestStartStopReleasesInReverseOrder(t *testing.T) {
	server := http.NewServer("127.0.0.1:0", gin.New())
	app := newTestApp(WithShutdownTimeout(5 * time.Second))
	if err := app.AddServer(server); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var order []string
	for _, name := range []string{"logger", "redis"} {
		app.OnClose(name, func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- app.Start() }()

	select {
	case <-server.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}
	app.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
	if !slices.Equal(order, []string{"redis", "logger"}) {
		t.Fatalf("unexpected release order %v", order)
	}

	if err := app.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
	if err := app.AddServer(http.NewServer("127.0.0.1:0", gin.New())); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestStartReturnsServerError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	app := newTestApp()
	app.AddServer(http.NewServer(ln.Addr().String(), gin.New()))

	var released bool
	app.OnClose("redis", func(context.Context) error {
		released = true
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- app.Start() }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected listen error")
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Start did not return")
	}
	if !released {
		t.Fatal("resources must be released after a failing server")
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	app := newTestApp(WithContext(ctx))
	app.AddServer(http.NewServer("127.0.0.1:0", gin.New()))

	done := make(chan error, 1)
	go func() { done <- app.Start() }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start should return quickly on a cancelled context")
	}
}

func TestRejectsNil(t *testing.T) {
	app := newTestApp()
	if err := app.AddServer(nil); err == nil {
		t.Fatal("expected error when adding nil server")
	}
	if err := app.OnClose("nil", nil); err == nil {
		t.Fatal("expected error when adding nil close function")
	}
}

func TestReleaseSurvivesPanicAndReportsErrors(t *testing.T) {
	app := newTestApp()

	var loggerClosed bool
	app.OnClose("logger", func(context.Context) error {
		loggerClosed = true
		return nil
	})
	app.OnClose("blacklist", func(context.Context) error {
		return errors.New("connection reset")
	})
	app.OnClose("limiter", func(context.Context) error {
		panic("boom")
	})

	err := app.release()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"limiter: panic: boom", "blacklist: connection reset"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("%q missing from %v", want, err)
		}
	}
	if !loggerClosed {
		t.Fatal("close functions after a panic must still run")
	}
}

func TestReleaseSharesOneDeadline(t *testing.T) {
	app := newTestApp(WithShutdownTimeout(100 * time.Millisecond))
	for _, name := range []string{"a", "b"} {
		app.OnClose(name, func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
	}

	start := time.Now()
	err := app.release()
	if d := time.Since(start); d > time.Second {
		t.Fatalf("release took too long: %v", d)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
