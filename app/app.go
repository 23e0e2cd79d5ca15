// Package app runs the devserver's listeners until a signal arrives, then
// shuts them down and releases what they used.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kochabx/carelink/log"
	"github.com/kochabx/carelink/transport"
)

const DefaultShutdownTimeout = 15 * time.Second

var ErrAlreadyStarted = errors.New("application already started")

type closer struct {
	name string
	fn   func(context.Context) error
}

// Application owns a set of servers and the resources behind them.
// Resources are released after every server stopped, in reverse order of
// registration: register the logger first and it is flushed last.
type Application struct {
	ctx     context.Context
	cancel  context.CancelFunc
	grace   time.Duration
	signals []os.Signal
	logger  *log.Logger

	mu      sync.Mutex
	servers []transport.Server
	closers []closer
	started bool
}

type Option func(*Application)

// WithContext sets the root context; cancelling it stops the application.
func WithContext(ctx context.Context) Option {
	return func(a *Application) {
		if ctx != nil {
			a.ctx, a.cancel = context.WithCancel(ctx)
		}
	}
}

// WithShutdownTimeout bounds server shutdown and, separately, the release
// of resources.
func WithShutdownTimeout(d time.Duration) Option {
	return func(a *Application) {
		if d > 0 {
			a.grace = d
		}
	}
}

func WithSignals(signals ...os.Signal) Option {
	return func(a *Application) {
		if len(signals) > 0 {
			a.signals = signals
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(a *Application) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func New(opts ...Option) *Application {
	a := &Application{
		grace:   DefaultShutdownTimeout,
		signals: []os.Signal{os.Interrupt, syscall.SIGTERM},
		logger:  log.G,
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())

	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Application) AddServer(server transport.Server) error {
	if server == nil {
		return errors.New("server cannot be nil")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return ErrAlreadyStarted
	}
	a.servers = append(a.servers, server)
	return nil
}

// OnClose registers fn to release a resource once the servers stopped.
func (a *Application) OnClose(name string, fn func(context.Context) error) error {
	if fn == nil {
		return errors.New("close function cannot be nil")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.closers = append(a.closers, closer{name: name, fn: fn})
	return nil
}

// Start runs every server and blocks until a signal, Stop, a cancelled root
// context or a failing server. Resources are released before it returns.
func (a *Application) Start() error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return ErrAlreadyStarted
	}
	a.started = true
	servers := append([]transport.Server(nil), a.servers...)
	a.mu.Unlock()

	ctx, stop := signal.NotifyContext(a.ctx, a.signals...)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		<-ctx.Done()
		a.logger.Info().Msg("shutting down")
		return nil
	})
	for i, server := range servers {
		eg.Go(func() error {
			if err := server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server %d: %w", i, err)
			}
			return nil
		})
		eg.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.grace)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	err := eg.Wait()
	if cerr := a.release(); cerr != nil {
		a.logger.Error().Err(cerr).Msg("failed to release resources")
	}
	return err
}

// Stop triggers a graceful shutdown.
func (a *Application) Stop() {
	a.cancel()
}

// release runs the close functions, last registered first, under one
// shared deadline. A panicking close function does not stop the others.
func (a *Application) release() error {
	a.mu.Lock()
	closers := append([]closer(nil), a.closers...)
	a.closers = nil
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), a.grace)
	defer cancel()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].call(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", closers[i].name, err))
		}
	}
	return errors.Join(errs...)
}

func (c closer) call(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return c.fn(ctx)
}
