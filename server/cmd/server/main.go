package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/obsidianstack/latency-analytics/server/internal/api"
	"github.com/obsidianstack/latency-analytics/server/internal/config"
	"github.com/obsidianstack/latency-analytics/server/internal/dataset"
	"github.com/obsidianstack/latency-analytics/server/internal/logging"
	"github.com/obsidianstack/latency-analytics/server/internal/metrics"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logging.Setup(os.Stdout, config.DefaultLogFormat, slog.LevelInfo)

	if err := run(*configPath); err != nil {
		slog.Error("latency-api exited", "err", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, watchConfig, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	level, _ := cfg.Log.SlogLevel() // validated by config.Load
	logLevel := logging.Setup(os.Stdout, cfg.Log.Format, level)

	slog.Info("latency-api starting",
		"config", configPath,
		"http_port", cfg.Server.HTTPPort,
		"dataset", cfg.Dataset.Path,
		"default_threshold_ms", cfg.Query.DefaultThresholdMs,
	)

	st := dataset.Open(cfg.Dataset.Path)
	m := metrics.New()

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      buildHandler(cfg, st, m),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("latency-api shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if watchConfig {
		g.Go(func() error {
			// Only the log level is applied live; other fields need a restart.
			return config.Watch(gctx, configPath, func(next *config.Config) {
				lvl, err := next.Log.SlogLevel()
				if err != nil {
					return
				}
				if lvl != logLevel.Level() {
					slog.Info("log level changed", "from", logLevel.Level(), "to", lvl)
					logLevel.Set(lvl)
				}
			})
		})
	}

	return g.Wait()
}

// loadConfig reads the config file, falling back to defaults when it does
// not exist. The bool reports whether the file should be watched.
func loadConfig(path string) (*config.Config, bool, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, true, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, err
	}

	slog.Warn("config file not found, using defaults", "path", path)
	cfg, err = config.LoadDefaults()
	if err != nil {
		return nil, false, err
	}
	return cfg, false, nil
}

// buildHandler assembles the API and its middleware chain, outermost first:
// recovery, access log, request id, CORS.
func buildHandler(cfg *config.Config, st *dataset.Store, m *metrics.Metrics) http.Handler {
	opts := api.Options{
		DefaultThresholdMs: cfg.Query.DefaultThresholdMs,
		MaxBodyBytes:       cfg.Server.MaxBodyBytes,
	}
	if cfg.Metrics.Enabled {
		opts.MetricsPath = cfg.Metrics.Path
	}

	var h http.Handler = api.New(st, m, opts)
	h = api.WithCORS(h, api.CORSOptions{
		AllowedOrigins:   cfg.Server.CORS.AllowedOrigins,
		AllowedMethods:   cfg.Server.CORS.AllowedMethods,
		AllowedHeaders:   cfg.Server.CORS.AllowedHeaders,
		AllowCredentials: cfg.Server.CORS.AllowCredentials,
	})
	h = api.WithRequestID(h)
	if cfg.Server.AccessLog {
		h = api.WithAccessLog(h, os.Stdout)
	}
	return api.WithRecovery(h)
}
