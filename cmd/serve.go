package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/taskcal/internal/app"
	"github.com/teemow/taskcal/internal/instrumentation"
	"github.com/teemow/taskcal/internal/logging"
	"github.com/teemow/taskcal/internal/resources"
	"github.com/teemow/taskcal/internal/server"
	"github.com/teemow/taskcal/internal/tools/calendar_tools"
	"github.com/teemow/taskcal/internal/tools/google_tools"
	"github.com/teemow/taskcal/internal/tools/todo_tools"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// serveOptions holds the serve command flags
type serveOptions struct {
	Transport        string
	HTTPAddr         string
	DisableStreaming bool

	// MetricsEnabled starts the metrics server (streamable-http only)
	MetricsEnabled bool
	MetricsAddr    string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the taskcal MCP server.

With the stdio transport the server talks MCP on stdin and stdout and logs to
stderr. With the streamable-http transport it serves the MCP endpoint at /mcp
next to the JSON API under /api and the health endpoints, and exposes
Prometheus metrics on a dedicated port.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.HTTPAddr, "http-addr", server.DefaultHTTPAddr, "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&opts.DisableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().BoolVar(&opts.MetricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address")

	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	switch opts.Transport {
	case transportStdio, transportStreamableHTTP:
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.Transport)
	}

	cfg, err := globals.load()
	if err != nil {
		return err
	}
	// stdout carries the protocol on stdio, so logs always go to stderr
	logger, err := logging.New(cfg.LogOptions())
	if err != nil {
		return err
	}

	provider, err := newProvider(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := provider.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	a, err := app.Open(ctx, cfg, app.Deps{
		Notifier: app.LogNotifier{Logger: logger},
		Logger:   logger,
		Metrics:  provider.Metrics(),
	})
	if err != nil {
		return err
	}

	serverContext, err := server.NewServerContext(ctx, a,
		server.WithProvider(provider),
		server.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), server.DefaultShutdownTimeout)
		defer cancel()
		if err := serverContext.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
		if err := a.Close(shutdownCtx); err != nil {
			logger.Warn("error while closing storage", logging.Err(err))
		}
	}()

	mcpSrv := mcpserver.NewMCPServer(cfg.AppName, version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)
	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return err
	}

	logger.Info("starting taskcal", slog.String("transport", opts.Transport),
		logging.Backend(a.Store().Backend().Name()),
		logging.State(a.Session().State()))

	if opts.Transport == transportStdio {
		return runStdioServer(mcpSrv)
	}
	return runStreamableHTTPServer(ctx, mcpSrv, serverContext, opts)
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Todo tools",
			register: func() error {
				return todo_tools.RegisterTodoTools(mcpSrv, sc)
			},
		},
		{
			name: "Calendar tools",
			register: func() error {
				return calendar_tools.RegisterCalendarTools(mcpSrv, sc)
			},
		},
		{
			name: "Google tools",
			register: func() error {
				return google_tools.RegisterGoogleTools(mcpSrv, sc)
			},
		},
		{
			name: "task resources",
			register: func() error {
				return resources.RegisterTaskResources(mcpSrv, sc)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, opts serveOptions) error {
	logger := sc.Logger()

	metricsServer, err := startMetricsServer(sc.Provider(), opts, logger)
	if err != nil {
		return err
	}
	if metricsServer != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	mcpHTTP := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath("/mcp"),
		mcpserver.WithDisableStreaming(opts.DisableStreaming),
	)

	health := server.NewHealthChecker(sc)
	health.SetReady(false)
	httpServer := server.NewHTTPServer(opts.HTTPAddr,
		server.NewRouter(sc, health, server.WithMCPHandler(mcpHTTP)),
		health, logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error during http server shutdown: %w", err)
	}
	return nil
}

// startMetricsServer starts the metrics server in the background. It returns
// nil when metrics are disabled or not exported through prometheus.
func startMetricsServer(provider *instrumentation.Provider, opts serveOptions, logger *slog.Logger) (*server.MetricsServer, error) {
	if !opts.MetricsEnabled || provider == nil || !provider.Enabled() || provider.Handler() == nil {
		return nil, nil
	}

	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    opts.MetricsAddr,
		InstrumentationProvider: provider,
		Logger:                  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	go func() {
		if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", logging.Err(err))
		}
	}()
	return metricsServer, nil
}
