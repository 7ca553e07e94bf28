package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/d60-Lab/club-store/config"
	"github.com/d60-Lab/club-store/internal/repository"
	"github.com/d60-Lab/club-store/internal/service"
	"github.com/d60-Lab/club-store/pkg/database"
	"github.com/d60-Lab/club-store/pkg/logger"
)

// 一次性执行预占过期清理与库存审计，供 cron 调度
func main() {
	audit := flag.Bool("audit", true, "report terminal orders whose stock was never restored")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline")
	flag.Parse()

	if err := run(*audit, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "sweeper: %v\n", err)
		os.Exit(1)
	}
}

func run(audit bool, timeout time.Duration) error {
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
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Sentry.Environment}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := database.InitDB(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()

	rdb, err := database.InitRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}

	store := repository.NewStore(db, cfg.Order.CASRetries)
	var sequence service.OrderSequence = service.NewDBSequence(store.Counters, cfg.Order.NumberPrefix)
	if rdb != nil {
		defer rdb.Close()
		sequence = service.NewRedisSequence(rdb, cfg.Order.NumberPrefix)
	}
	orders := service.NewOrderService(store, sequence, service.NewPurchaseLimitGuard(store.Orders),
		service.OrderOptions{ReservationWindow: cfg.Order.ReservationWindow, Currency: cfg.Order.Currency})
	// 单次执行不需要周期锁，重复清理不会重复归还
	worker := service.NewExpiryWorker(store.Orders, orders, nil, service.ExpiryOptions{
		Interval:  cfg.Expiry.Interval,
		BatchSize: cfg.Expiry.BatchSize,
	})

	report, err := worker.Sweep(ctx)
	if err != nil {
		return err
	}
	logger.Info("sweep done",
		zap.Int("scanned", report.Scanned),
		zap.Int("expired", report.Expired),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)

	if audit {
		findings, err := worker.Audit(ctx)
		if err != nil {
			return err
		}
		logger.Info("stock audit done", zap.Int("findings", len(findings)))
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d orders failed to expire", report.Failed)
	}
	return nil
}
