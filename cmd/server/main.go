package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sheikh-saqib/money-management-ledger/internal/api"
	"github.com/sheikh-saqib/money-management-ledger/internal/cache"
	memcache "github.com/sheikh-saqib/money-management-ledger/internal/cache/memory"
	rediscache "github.com/sheikh-saqib/money-management-ledger/internal/cache/redis"
	"github.com/sheikh-saqib/money-management-ledger/internal/config"
	"github.com/sheikh-saqib/money-management-ledger/internal/dashboard"
	"github.com/sheikh-saqib/money-management-ledger/internal/events"
	"github.com/sheikh-saqib/money-management-ledger/internal/events/kafka"
	interfaces "github.com/sheikh-saqib/money-management-ledger/internal/interfaces"
	"github.com/sheikh-saqib/money-management-ledger/internal/ledger"
	"github.com/sheikh-saqib/money-management-ledger/internal/logging"
	"github.com/sheikh-saqib/money-management-ledger/internal/metrics"
	"github.com/sheikh-saqib/money-management-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/money-management-ledger/internal/storage/postgres"
	"go.uber.org/zap"
)

// backend is everything the server needs from a store.
type backend interface {
	interfaces.LedgerStore
	interfaces.AccountStore
	interfaces.TransactionReader
	interfaces.DashboardReader
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *logging.Logger) error {
	ctx := context.Background()
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Warn("close failed", zap.Error(err))
			}
		}
	}()

	store, closer, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	dashCache, err := openCache(cfg, logger)
	if err != nil {
		return err
	}
	closers = append(closers, dashCache)
	dash := dashboard.NewService(store, dashCache, cfg.DashboardCacheTTL, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheus("money_ledger")
	registry.MustRegister(recorder)

	sinks := events.Fanout{dash}
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewPublisher(cfg.KafkaBrokers)
		closers = append(closers, producer)
		sinks = append(sinks, events.NewBreaker(producer, events.DefaultBreakerConfig(), logger))
		logger.Info("publishing ledger events to kafka",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic),
		)
	}

	engine := ledger.NewLedger(store,
		ledger.WithPublisher(sinks, cfg.KafkaTopic),
		ledger.WithMetrics(recorder),
		ledger.WithLogger(logger),
	)

	server := api.NewServer(engine, store, dash,
		api.WithMetrics(recorder, promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
		api.WithLogger(logger),
	)
	srv := server.HTTPServer(cfg.HTTPAddr)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}

func openStore(ctx context.Context, cfg config.Config, logger *logging.Logger) (backend, io.Closer, error) {
	if cfg.Store != config.StorePostgres {
		logger.Warn("using in-memory store; data is lost on restart")
		return memory.NewMemoryLedgerStore(), nil, nil
	}

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(cfg.Postgres, logger); err != nil {
			return nil, nil, err
		}
	}

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connected to postgres",
		zap.String("host", cfg.Postgres.Host),
		zap.String("database", cfg.Postgres.Database),
	)
	return postgres.NewPostgresLedgerStore(db), db, nil
}

func openCache(cfg config.Config, logger *logging.Logger) (cache.Cache, error) {
	if cfg.RedisAddr == "" {
		return memcache.NewMemoryCache(cfg.DashboardCacheTTL), nil
	}

	rc := rediscache.DefaultConfig()
	rc.Addr = cfg.RedisAddr
	rc.DefaultTTL = cfg.DashboardCacheTTL
	c, err := rediscache.NewRedisCache(rc)
	if err != nil {
		return nil, err
	}
	logger.Info("dashboard cache on redis", zap.String("addr", cfg.RedisAddr))
	return c, nil
}
