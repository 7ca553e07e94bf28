package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/club-store/internal/event"
	"github.com/d60-Lab/club-store/internal/repository"
	"github.com/d60-Lab/club-store/pkg/logger"
)

// OutboxRelay 从 outbox 拉取订单事件投递到消息队列（至少一次）
type OutboxRelay struct {
	outbox       repository.OutboxRepository
	publisher    event.Publisher
	batchSize    int
	pollInterval time.Duration
	staleAfter   time.Duration
	metricsCh    chan time.Duration // outbox->published latency
}

func NewOutboxRelay(outbox repository.OutboxRepository, publisher event.Publisher, batchSize int, pollInterval time.Duration) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 200
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &OutboxRelay{
		outbox:       outbox,
		publisher:    publisher,
		batchSize:    batchSize,
		pollInterval: pollInterval,
		staleAfter:   time.Minute,
		metricsCh:    make(chan time.Duration, 4096),
	}
}

func (r *OutboxRelay) Metrics() <-chan time.Duration { return r.metricsCh }

// Start 启动轮询；返回停止函数，等待当前批次处理完
func (r *OutboxRelay) Start() func(context.Context) error {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.loop(stop)
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

func (r *OutboxRelay) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := r.ProcessOnce(context.Background()); err != nil {
				logger.Warn("outbox relay batch failed", zap.Error(err))
			}
		}
	}
}

// ProcessOnce 领取一批事件并逐条投递，返回成功数
func (r *OutboxRelay) ProcessOnce(ctx context.Context) (int, error) {
	batch, err := r.outbox.Claim(ctx, r.batchSize, r.staleAfter)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, b := range batch {
		msg := event.Message{Key: b.AggregateID, Type: b.EventType, Payload: []byte(b.Payload)}
		if err := r.publisher.Publish(ctx, msg); err != nil {
			logger.Warn("publish order event failed",
				zap.String("event_id", b.ID),
				zap.String("type", b.EventType),
				zap.Int("attempts", b.Attempts+1),
				zap.Error(err),
			)
			if merr := r.outbox.MarkFailed(ctx, b.ID, err); merr != nil {
				return published, merr
			}
			continue
		}
		if err := r.outbox.MarkDone(ctx, b.ID); err != nil {
			return published, err
		}
		published++
		if !b.CreatedAt.IsZero() {
			select {
			case r.metricsCh <- time.Since(b.CreatedAt):
			default:
			}
		}
	}
	return published, nil
}
