package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchbridge"
	"github.com/kailas-cloud/searchbridge/internal/config"
	logpkg "github.com/kailas-cloud/searchbridge/internal/logger"
	"github.com/kailas-cloud/searchbridge/internal/metrics"
	chiTransport "github.com/kailas-cloud/searchbridge/internal/transport/chi"
	healthuc "github.com/kailas-cloud/searchbridge/internal/usecase/health"
	"github.com/kailas-cloud/searchbridge/internal/version"
)

// initRetryInterval is the pause between background Init attempts.
const initRetryInterval = 5 * time.Second

// ServeCmd runs the HTTP gateway.
type ServeCmd struct {
	Port int `help:"Listen port (overrides http.port)."`
}

// Run starts the server and blocks until SIGINT or SIGTERM.
func (s *ServeCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if s.Port != 0 {
		cfg.HTTP.Port = s.Port
	}

	logger, err := logpkg.NewLogger(cli.Env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting searchbridge gateway",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", cli.Env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("provider", cfg.Provider.Type),
		zap.Bool("auth_enabled", len(cfg.Auth.APIKeys) > 0),
	)

	client, err := searchbridge.New(cfg.Provider,
		searchbridge.WithLogger(logger),
		searchbridge.WithPrometheus(prometheus.DefaultRegisterer),
	)
	if err != nil {
		return fmt.Errorf("create search client: %w", err)
	}
	defer func() { _ = client.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The gateway serves /health with 503 until the backend comes up.
	go initWithRetry(ctx, client, cfg.HTTP, logger)

	handler, err := newHandler(cfg, client, logger)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// newHandler assembles the middleware chain and the gateway routes.
func newHandler(cfg config.Config, client *searchbridge.Client, logger *zap.Logger) (http.Handler, error) {
	httpMetrics, err := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("register http metrics: %w", err)
	}

	server := chiTransport.NewServer(client, healthuc.New(client), nil, logger)

	r := chi.NewRouter()
	r.Use(recoverPanic(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(requestLog(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(httpMetrics.Middleware())
	server.Routes(r)
	return r, nil
}

// initWithRetry keeps calling Init until it succeeds or ctx ends. Each
// attempt is bounded by the configured init timeout.
func initWithRetry(ctx context.Context, client *searchbridge.Client, cfg config.HTTPConfig, logger *zap.Logger) {
	timeout := time.Duration(cfg.InitTimeoutSec) * time.Second
	for attempt := 1; ; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		err := client.Init(attemptCtx)
		cancel()
		if err == nil {
			return
		}
		logger.Warn("Search backend not ready, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", initRetryInterval),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return
		case <-time.After(initRetryInterval):
		}
	}
}
