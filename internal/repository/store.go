package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store 聚合各仓储，Tx 内的仓储共享同一个事务
type Store struct {
	db       *gorm.DB
	Products ProductRepository
	Orders   OrderRepository
	Counters CounterRepository
	Outbox   OutboxRepository
}

func NewStore(db *gorm.DB, casRetries int) *Store {
	return &Store{
		db:       db,
		Products: NewProductRepository(db, casRetries),
		Orders:   NewSingleDBOrderRepository(db),
		Counters: NewCounterRepository(db),
		Outbox:   NewOutboxRepository(db),
	}
}

func (s *Store) DB() *gorm.DB { return s.db }

// Tx 在一个数据库事务中执行 fn，fn 返回错误则整体回滚
func (s *Store) Tx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{
			db:       tx,
			Products: s.Products.WithTx(tx),
			Orders:   s.Orders.WithTx(tx),
			Counters: NewCounterRepository(tx),
			Outbox:   s.Outbox.WithTx(tx),
		})
	})
}
