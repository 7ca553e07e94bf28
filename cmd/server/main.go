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

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/club-store/config"
	"github.com/d60-Lab/club-store/internal/api"
	"github.com/d60-Lab/club-store/internal/api/handler"
	"github.com/d60-Lab/club-store/internal/cache"
	"github.com/d60-Lab/club-store/internal/event"
	"github.com/d60-Lab/club-store/internal/payment"
	"github.com/d60-Lab/club-store/internal/repository"
	"github.com/d60-Lab/club-store/internal/service"
	"github.com/d60-Lab/club-store/pkg/database"
	"github.com/d60-Lab/club-store/pkg/logger"
	"github.com/d60-Lab/club-store/pkg/tracing"
)

// @title Club Store API
// @version 1.0
// @description 校园社团商店：库存预占与订单生命周期
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 本地开发可用 .env，缺失时忽略
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Log); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx := context.Background()
	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	db, err := database.InitDB(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()
	if err := database.Migrate(db); err != nil {
		return err
	}

	rdb, err := database.InitRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	store := repository.NewStore(db, cfg.Order.CASRetries)
	orders := service.NewOrderService(store,
		newSequence(store, rdb, cfg.Order.NumberPrefix),
		service.NewPurchaseLimitGuard(store.Orders),
		service.OrderOptions{ReservationWindow: cfg.Order.ReservationWindow, Currency: cfg.Order.Currency},
	)
	var catalog service.CatalogService = service.NewCatalogService(store.Products, cfg.Order.CASRetries)
	if rdb != nil {
		catalog = cache.NewProductCache(catalog, rdb, cfg.Cache.ProductTTL)
	}
	// 真实网关接入前使用内置模拟网关
	payments := service.NewPaymentService(orders, payment.NewFakeGateway(), cfg.Order.Currency)

	expiryOpts := service.ExpiryOptions{
		Interval:  cfg.Expiry.Interval,
		BatchSize: cfg.Expiry.BatchSize,
		LockKey:   cfg.Expiry.LockKey,
		LockTTL:   cfg.Expiry.LockTTL,
	}
	var lockClient redis.Cmdable
	if rdb != nil {
		lockClient = rdb
	}
	expiry := service.NewExpiryWorker(store.Orders, orders, lockClient, expiryOpts)
	stopExpiry := expiry.Start()

	publisher := newPublisher(cfg.Kafka)
	defer publisher.Close()
	relay := service.NewOutboxRelay(store.Outbox, publisher, cfg.Outbox.BatchSize, cfg.Outbox.Interval)
	stopRelay := relay.Start()

	router := api.SetupRouter(cfg, handler.NewHandler(orders, catalog, payments, expiry))
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := stopExpiry(shutdownCtx); err != nil {
		logger.Warn("stop expiry worker", zap.Error(err))
	}
	if err := stopRelay(shutdownCtx); err != nil {
		logger.Warn("stop outbox relay", zap.Error(err))
	}
	return nil
}

// newSequence 有 redis 时用 INCR，否则用数据库计数器
func newSequence(store *repository.Store, rdb *redis.Client, prefix string) service.OrderSequence {
	if rdb != nil {
		return service.NewRedisSequence(rdb, prefix)
	}
	logger.Info("redis not configured, order numbers come from the counters table")
	return service.NewDBSequence(store.Counters, prefix)
}

func newPublisher(cfg config.KafkaConfig) event.Publisher {
	if len(cfg.Brokers) == 0 {
		logger.Warn("kafka brokers not configured, order events are only marked as relayed")
		return event.NoopPublisher{}
	}
	return event.NewKafkaPublisher(cfg.Brokers, cfg.Topic)
}
