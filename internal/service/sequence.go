package service

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/club-store/internal/repository"
)

// OrderSequence 按年分配订单号；严格递增，允许空洞，不允许重复
type OrderSequence interface {
	Next(ctx context.Context, year int) (string, error)
}

// FormatOrderNumber PREFIX-YEAR-NNNNN，超过五位不截断
func FormatOrderNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%05d", prefix, year, seq)
}

// RedisSequence INCR order_seq:<year>
type RedisSequence struct {
	client redis.Cmdable
	prefix string
}

func NewRedisSequence(client redis.Cmdable, prefix string) *RedisSequence {
	return &RedisSequence{client: client, prefix: prefix}
}

func (s *RedisSequence) Next(ctx context.Context, year int) (string, error) {
	n, err := s.client.Incr(ctx, fmt.Sprintf("order_seq:%d", year)).Result()
	if err != nil {
		return "", fmt.Errorf("allocate order number: %w", err)
	}
	return FormatOrderNumber(s.prefix, year, n), nil
}

// DBSequence 数据库计数器行 orderSequence_<year>
type DBSequence struct {
	counters repository.CounterRepository
	prefix   string
}

func NewDBSequence(counters repository.CounterRepository, prefix string) *DBSequence {
	return &DBSequence{counters: counters, prefix: prefix}
}

func (s *DBSequence) Next(ctx context.Context, year int) (string, error) {
	n, err := s.counters.Next(ctx, fmt.Sprintf("orderSequence_%d", year))
	if err != nil {
		return "", fmt.Errorf("allocate order number: %w", err)
	}
	return FormatOrderNumber(s.prefix, year, n), nil
}
