package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/okian/enso/internal/adapters/http/api"
	"github.com/okian/enso/internal/adapters/http/site"
	"github.com/okian/enso/internal/adapters/http/swagger"
	service "github.com/okian/enso/internal/app"
	"github.com/okian/enso/internal/config"
	"github.com/okian/enso/pkg/logger"
	"github.com/okian/enso/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// defaults -> optional file -> env
	cfg, err := config.Load(ctx)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "enso stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

// run serves the game until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	metrics.Configure(metricsOptions(cfg)...)
	if unwatch := watchConfig(ctx, os.Getenv(config.EnvConfigFile)); unwatch != nil {
		defer func() { _ = unwatch() }()
	}

	svc := newService(cfg)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Stop(stopCtx); err != nil {
			log.Error(ctx, "service stop failed", logger.Error(err))
		}
	}()

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

func newService(cfg *config.Config) *service.Service {
	return service.New(
		service.WithLogger(logger.Get().Named("service")),
		service.WithCanvas(cfg.CanvasWidth, cfg.CanvasHeight),
		service.WithReference(cfg.Reference()),
		service.WithMinPoints(cfg.MinPoints),
		service.WithMaxPathPoints(cfg.MaxPathPoints),
		service.WithSessionTTL(cfg.SessionTTL()),
		service.WithMaxSessions(cfg.MaxSessions),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithOverlaySize(cfg.OverlaySize),
	)
}

func metricsOptions(cfg *config.Config) []metrics.Option {
	return []metrics.Option{
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithCustomLabels(cfg.MetricsLabels),
		metrics.WithHistogramBuckets(cfg.MetricsLatencyBuckets),
		metrics.WithMetricsEnabled(cfg.MetricsRecordAttempts),
		metrics.WithRefreshInterval(cfg.MetricsRefresh()),
	}
}

// newHandler wires the API, the API reference and the game page.
func newHandler(ctx context.Context, cfg *config.Config, svc *service.Service) http.Handler {
	mux := http.NewServeMux()
	api.NewServer(svc, cfg.MaxLeaderboardLimit).Register(ctx, mux)
	swagger.Register(ctx, mux)
	site.Register(ctx, mux, site.WithCanvas(cfg.CanvasWidth, cfg.CanvasHeight))
	return mux
}

// watchConfig applies log_level changes from the config file, if any.
func watchConfig(ctx context.Context, path string) func() error {
	if path == "" {
		return nil
	}
	log := logger.Get().Named("config")
	unwatch, err := config.Watch(ctx, path,
		func(c *config.Config) {
			if err := logger.SetLevelString(c.LogLevel); err != nil {
				log.Warn(ctx, "ignoring log_level", logger.String("log_level", c.LogLevel), logger.Error(err))
				return
			}
			log.Info(ctx, "configuration reloaded", logger.String("log_level", c.LogLevel))
		},
		func(err error) { log.Warn(ctx, "configuration reload failed", logger.Error(err)) },
	)
	if err != nil {
		log.Warn(ctx, "config watch disabled", logger.String("path", path), logger.Error(err))
		return nil
	}
	return unwatch
}

// startSystemMetricsUpdater updates system metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		logger.Get().Warn(ctx, "process stats unavailable", logger.Error(err))
		proc = nil
	}
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		updateSystemMetrics(ctx, proc)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// updateSystemMetrics records resident memory, goroutines and GC pauses.
// Heap allocation stands in for RSS when proc is nil.
func updateSystemMetrics(ctx context.Context, proc *process.Process) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	mem := m.Alloc
	if proc != nil {
		if info, err := proc.MemoryInfoWithContext(ctx); err == nil {
			mem = info.RSS
		}
	}
	metrics.UpdateSystemMemoryUsage(mem)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
