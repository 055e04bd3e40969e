package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/teemow/taskcal/internal/app"
	"github.com/teemow/taskcal/internal/instrumentation"
	"github.com/teemow/taskcal/internal/logging"
)

// ServerContext holds the context for the MCP and HTTP servers
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	app      *app.App
	provider *instrumentation.Provider
	logger   *slog.Logger
	mu       sync.RWMutex
	shutdown bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithProvider attaches the instrumentation provider.
func WithProvider(p *instrumentation.Provider) Option {
	return func(sc *ServerContext) { sc.provider = p }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(sc *ServerContext) { sc.logger = logger }
}

// NewServerContext creates a new server context around a.
func NewServerContext(ctx context.Context, a *app.App, opts ...Option) (*ServerContext, error) {
	if a == nil {
		return nil, errors.New("application context is required")
	}
	shutdownCtx, cancel := context.WithCancel(ctx)
	sc := &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		app:    a,
	}
	for _, opt := range opts {
		opt(sc)
	}
	sc.logger = logging.OrDiscard(sc.logger)
	return sc, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// App returns the Application Context.
func (sc *ServerContext) App() *app.App {
	return sc.app
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Provider returns the instrumentation provider, nil when not configured.
func (sc *ServerContext) Provider() *instrumentation.Provider {
	return sc.provider
}

// Metrics returns the metric recorders. The result is nil-safe.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	if sc.provider == nil {
		return nil
	}
	return sc.provider.Metrics()
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context and waits for in-flight calendar syncs
// until ctx is done.
func (sc *ServerContext) Shutdown(ctx context.Context) error {
	sc.mu.Lock()
	if sc.shutdown {
		sc.mu.Unlock()
		return nil
	}
	sc.shutdown = true
	sc.mu.Unlock()

	sc.cancel()
	return sc.app.Wait(ctx)
}
