package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/d60-Lab/club-store/internal/model"
	"github.com/d60-Lab/club-store/internal/repository"
	"github.com/d60-Lab/club-store/pkg/logger"
)

const expiryNote = "reservation window elapsed"

// SweepReport 一次清理的结果
type SweepReport struct {
	Scanned int `json:"scanned"`
	Expired int `json:"expired"`
	// Skipped 其他参与者抢先改变了状态（如支付成功）
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// AuditFinding 已进入归还状态但 stock_restored 仍为 false，需人工核对
type AuditFinding struct {
	OrderID     string            `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	Status      model.OrderStatus `json:"status"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type ExpiryOptions struct {
	Interval  time.Duration
	BatchSize int
	// LockKey 非空且 redis 可用时，每个周期只有一个实例执行
	LockKey string
	LockTTL time.Duration
	Now     func() time.Time
}

// ExpiryWorker 预占过期清理
type ExpiryWorker struct {
	orders     repository.OrderRepository
	lifecycle  OrderService
	redis      redis.Cmdable
	interval   time.Duration
	batchSize  int
	lockKey    string
	lockTTL    time.Duration
	instanceID string
	now        func() time.Time
}

func NewExpiryWorker(orders repository.OrderRepository, lifecycle OrderService, rdb redis.Cmdable, opts ExpiryOptions) *ExpiryWorker {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = opts.Interval - opts.Interval/6
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &ExpiryWorker{
		orders:     orders,
		lifecycle:  lifecycle,
		redis:      rdb,
		interval:   opts.Interval,
		batchSize:  opts.BatchSize,
		lockKey:    opts.LockKey,
		lockTTL:    opts.LockTTL,
		instanceID: uuid.New().String(),
		now:        opts.Now,
	}
}

// Sweep 逐单独立处理，单个订单失败不影响其他订单；重复执行不会重复归还。
// 按游标分批扫描直到取尽，失败的订单留在游标之后不会挡住后面的订单
func (w *ExpiryWorker) Sweep(ctx context.Context) (SweepReport, error) {
	ctx, span := tracer.Start(ctx, "ExpiryWorker.Sweep")
	defer span.End()

	var report SweepReport
	now := w.now()
	var cursor *repository.ExpiryCursor
	for {
		if err := ctx.Err(); err != nil {
			recordSpanError(span, err)
			return report, err
		}
		due, err := w.orders.FindExpiredPending(ctx, now, cursor, w.batchSize)
		if err != nil {
			recordSpanError(span, err)
			return report, fmt.Errorf("find expired orders: %w", err)
		}
		report.Scanned += len(due)
		for _, o := range due {
			w.expire(ctx, o, &report)
		}
		if len(due) < w.batchSize {
			break
		}
		last := due[len(due)-1]
		cursor = &repository.ExpiryCursor{ReservedUntil: last.ReservedUntil, ID: last.ID}
	}

	span.SetAttributes(
		attribute.Int("sweep.scanned", report.Scanned),
		attribute.Int("sweep.expired", report.Expired),
		attribute.Int("sweep.skipped", report.Skipped),
		attribute.Int("sweep.failed", report.Failed),
	)
	if report.Scanned > 0 {
		logger.Info("reservation sweep finished",
			zap.Int("scanned", report.Scanned),
			zap.Int("expired", report.Expired),
			zap.Int("skipped", report.Skipped),
			zap.Int("failed", report.Failed),
		)
	}
	return report, nil
}

func (w *ExpiryWorker) expire(ctx context.Context, o *model.Order, report *SweepReport) {
	_, err := w.lifecycle.Transition(ctx, o.ID, model.OrderStatusExpired, ActorSystem, expiryNote)
	switch {
	case err == nil:
		report.Expired++
	case errors.Is(err, ErrInvalidTransition):
		report.Skipped++
		logger.Debug("expiry skipped, order moved on", zap.String("order_id", o.ID), zap.Error(err))
	default:
		report.Failed++
		logger.Error("expire order failed",
			zap.String("order_id", o.ID),
			zap.String("order_number", o.OrderNumber),
			zap.Error(err),
		)
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("order_id", o.ID)
			scope.SetTag("job", "reservation_expiry")
			sentry.CaptureException(err)
		})
	}
}

// Audit 只报告，不自动归还
func (w *ExpiryWorker) Audit(ctx context.Context) ([]AuditFinding, error) {
	orders, err := w.orders.FindUnrestored(ctx, w.batchSize)
	if err != nil {
		return nil, fmt.Errorf("find unrestored orders: %w", err)
	}
	findings := make([]AuditFinding, 0, len(orders))
	for _, o := range orders {
		findings = append(findings, AuditFinding{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			Status:      o.Status,
			UpdatedAt:   o.UpdatedAt,
		})
		logger.Warn("order needs stock audit",
			zap.String("order_id", o.ID),
			zap.String("order_number", o.OrderNumber),
			zap.String("status", string(o.Status)),
		)
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("order_id", o.ID)
			scope.SetLevel(sentry.LevelWarning)
			sentry.CaptureMessage(fmt.Sprintf("order %s is %s but its stock was never restored", o.OrderNumber, o.Status))
		})
	}
	return findings, nil
}

// Start 周期执行 Sweep；返回停止函数
func (w *ExpiryWorker) Start() func(context.Context) error {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				w.tick(context.Background())
			}
		}
	}()
	return func(ctx context.Context) error {
		close(stop)
		done := make(chan struct{})
		go func() { wg.Wait(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *ExpiryWorker) tick(ctx context.Context) {
	ok, err := w.acquire(ctx)
	if err != nil {
		logger.Warn("acquire sweep lock failed", zap.Error(err))
		return
	}
	if !ok {
		return
	}
	if _, err := w.Sweep(ctx); err != nil {
		logger.Error("reservation sweep failed", zap.Error(err))
		sentry.CaptureException(err)
	}
}

// acquire SET NX PX；锁随 TTL 自动释放，TTL 小于周期
func (w *ExpiryWorker) acquire(ctx context.Context) (bool, error) {
	if w.redis == nil || w.lockKey == "" {
		return true, nil
	}
	return w.redis.SetNX(ctx, w.lockKey, w.instanceID, w.lockTTL).Result()
}
