// Package main runs the HTTP server that bridges the legacy synchronous
// handler stack into the async runtime.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HomyeeKing/crates.io/internal/bridge"
	"github.com/HomyeeKing/crates.io/internal/conduit"
	"github.com/HomyeeKing/crates.io/internal/config"
	"github.com/HomyeeKing/crates.io/internal/middleware"
	"github.com/HomyeeKing/crates.io/internal/observability"
)

// Version information (set at build time).
var (
	version   = "dev"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		fmt.Printf("server version %s (%s)\n", version, gitCommit)
		return
	}

	cfg := loadConfig(flags)

	logger, err := observability.Init(observability.InitConfig{
		Log:         cfg.Log,
		SentryDSN:   cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
		Release:     version,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize observability: %v\n", err)
		os.Exit(1)
	}
	defer observability.Flush(logger, 2*time.Second)

	run(cfg, flags, logger)
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault("SERVER_CONFIG_PATH", ""),
		"Path to configuration file (optional)")
	logLevel := flag.String("log-level", getEnvOrDefault("SERVER_LOG_LEVEL", ""),
		"Log level override (debug, info, warn, error)")
	logFormat := flag.String("log-format", getEnvOrDefault("SERVER_LOG_FORMAT", ""),
		"Log format override (json, console)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	return cliFlags{
		configPath:  *configPath,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// loadConfig loads configuration from the file when one was given, then
// applies CLI overrides.
func loadConfig(flags cliFlags) *config.Config {
	cfg := config.Default()
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	return cfg
}

func run(cfg *config.Config, flags cliFlags, logger observability.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := bridge.NewPool(cfg.Bridge.Workers, cfg.Bridge.QueueSize,
		bridge.WithPoolLogger(logger))
	adaptor := bridge.NewAdaptor(legacyHandler(), pool,
		bridge.WithAdaptorLogger(logger))

	handler := buildHandler(adaptor, logger)

	if flags.configPath != "" {
		watcher := startConfigWatcher(ctx, flags.configPath, logger)
		if watcher != nil {
			defer func() { _ = watcher.Stop() }()
		}
	}

	server := &http.Server{
		Addr:         cfg.Server.ListenAddress,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			observability.String("address", cfg.Server.ListenAddress),
			observability.Int("bridge_workers", cfg.Bridge.Workers),
		)
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", observability.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("server failed", observability.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", observability.Error(err))
	}
	pool.Stop()
}

// buildHandler assembles the middleware chain around the router. The
// request logger sits inside path normalization so it sees both the
// original and the normalized URI, and outside recovery so contained
// panics are logged with their 500 status.
func buildHandler(adaptor *bridge.Adaptor, logger observability.Logger) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	bridge.Fallback(engine, adaptor)

	var handler http.Handler = engine
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.RequestLog(logger)(handler)
	handler = middleware.NormalizePath()(handler)
	handler = middleware.RequestID()(handler)
	return handler
}

// startConfigWatcher applies runtime-safe settings (log level) when the
// config file changes.
func startConfigWatcher(ctx context.Context, path string, logger observability.Logger) *config.Watcher {
	watcher, err := config.NewWatcher(path, func(cfg *config.Config) {
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			logger.Error("invalid log level in reloaded config", observability.Error(err))
		}
	}, config.WithWatcherLogger(logger))
	if err != nil {
		logger.Error("failed to create config watcher", observability.Error(err))
		return nil
	}
	if err := watcher.Start(ctx); err != nil {
		logger.Error("failed to start config watcher", observability.Error(err))
		return nil
	}
	return watcher
}

// legacyHandler is a stand-in for the application's synchronous handler
// stack. Deployments embed this binary's wiring with their own
// conduit.Handler.
func legacyHandler() conduit.Handler {
	return conduit.HandlerFunc(func(req *conduit.Request) (*conduit.Response, error) {
		resp := conduit.NewResponse(http.StatusNotFound, conduit.StaticBody("Not Found"))
		resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
		return resp, nil
	})
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
