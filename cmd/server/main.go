package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/aquagrid/approval-engine/internal/api"
	"github.com/aquagrid/approval-engine/internal/cache"
	"github.com/aquagrid/approval-engine/internal/config"
	"github.com/aquagrid/approval-engine/internal/db"
	"github.com/aquagrid/approval-engine/internal/metrics"
	"github.com/aquagrid/approval-engine/internal/ratelimiter"
	"github.com/aquagrid/approval-engine/internal/repository"
	"github.com/aquagrid/approval-engine/internal/service"
	"github.com/aquagrid/approval-engine/internal/upstream"
	"github.com/aquagrid/approval-engine/internal/worker"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- decision-log database ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	limiter := ratelimiter.New(cfg.RateLimit, upstream.Partitions())
	client := upstream.NewRESTClient(cfg.UpstreamBaseURL, cfg.UpstreamTimeout, limiter)

	// Shared collection cache: Redis when configured (multiple portal
	// replicas share one snapshot set), in-process otherwise.
	var store cache.Store
	if cfg.RedisURL != "" {
		redisStore, err := cache.NewRedisFromURL(cfg.RedisURL, client.FetchCollection, cfg.CacheTTL)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisStore.Close()
		store = redisStore
		logger.Info("using redis collection cache")
	} else {
		store = cache.NewMemory(client.FetchCollection, cfg.CacheTTL)
		logger.Info("using in-process collection cache")
	}

	decisions := repository.NewPgDecisionRepository(pool)
	queueSvc := service.NewQueueService(store, client, m, logger)
	decisionSvc := service.NewDecisionService(store, client, decisions, m, logger)

	// ---- background refresh ----
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	refreshW := worker.NewRefreshWorker(store, cfg.RefreshInterval, logger)
	go refreshW.Run(workerCtx)

	// ---- HTTP server ----
	router := api.NewRouter(queueSvc, decisionSvc, reg, cfg.CORSOrigins, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Stop the cache refresh loop.
	cancelWorkers()

	logger.Info("server stopped cleanly")
}
