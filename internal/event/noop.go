package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/d60-Lab/club-store/pkg/logger"
)

// NoopPublisher 未配置 kafka 时使用，仅打日志
type NoopPublisher struct{}

func (NoopPublisher) Publish(_ context.Context, msg Message) error {
	logger.Debug("event dropped (no broker configured)", zap.String("type", msg.Type), zap.String("key", msg.Key))
	return nil
}

func (NoopPublisher) Close() error { return nil }
