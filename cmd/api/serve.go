package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"balance-monitor/config"
	"balance-monitor/docs/api"
	httpHandler "balance-monitor/internal/adapter/http/handler"
	redisStorage "balance-monitor/internal/adapter/storage/redis"
	"balance-monitor/internal/core/domain"
	"balance-monitor/internal/service"
	"balance-monitor/pkg/logger"
	"balance-monitor/pkg/tracing"

	"github.com/rs/zerolog"
)

func runServe(ctx context.Context, cfg *config.Config) error {
	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("source", cfg.Fetch.Source).
		Msg("Starting Balance Monitor")

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Error().Err(err).Msg("Failed to flush traces")
		}
	}()

	// Balance source
	src, err := openSource(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer src.close()
	checkers := src.checkers

	// Balance engine
	engine := service.NewBalanceEngine(src.fetcher, service.EngineOptions{FetchTimeout: cfg.Fetch.Timeout}, log)
	relay := service.NewLifecycleRelay(engine, log)

	runCtx, stopRun := context.WithCancel(ctx)
	defer stopRun()

	defer engine.Subscribe(service.LogObserver(log))()

	// Redis snapshot publisher
	if cfg.Publish.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			return fmt.Errorf("connect to Redis: %w", err)
		}
		defer rdb.Close()

		publisher := redisStorage.NewStatePublisher(rdb, cfg.Publish.Channel, cfg.Publish.Buffer, log)
		go publisher.Run(runCtx)
		defer engine.Subscribe(publisher.Observe)()
		checkers = append(checkers, redisStorage.NewHealthCheck(rdb))
	}

	// OS lifecycle signals
	go relay.Run(runCtx, watchLifecycleSignals(runCtx, log))

	if cfg.Fetch.RefreshOnStart {
		engine.Dispatch(domain.RefreshRequested())
	}

	if cfg.Fetch.Schedule != "" {
		scheduler, err := service.NewRefreshScheduler(engine, cfg.Fetch.Schedule, log)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		BalanceSvc:     engine,
		Lifecycle:      relay,
		HealthCheckers: checkers,
		OpenAPISpec:    api.OpenAPI,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return runCtx },
	}
	// Request contexts derive from runCtx so open SSE streams end on shutdown.
	srv.RegisterOnShutdown(stopRun)

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case err := <-serveErr:
		stopRun()
		engine.Close()
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	stopRun()
	engine.Close()

	log.Info().Msg("Server exited")
	return nil
}

// watchLifecycleSignals forwards SIGUSR1/SIGUSR2 as lifecycle signals until
// ctx is done.
func watchLifecycleSignals(ctx context.Context, log zerolog.Logger) <-chan domain.LifecycleSignal {
	out := make(chan domain.LifecycleSignal)
	if len(lifecycleSignals) == 0 {
		close(out)
		return out
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, lifecycleSignals...)

	go func() {
		defer close(out)
		defer signal.Stop(sigCh)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				lifecycle, ok := lifecycleFromOS(sig)
				if !ok {
					log.Warn().Str("signal", sig.String()).Msg("unmapped lifecycle signal ignored")
					continue
				}
				select {
				case out <- lifecycle:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
