package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/club-store/internal/model"
)

// OrderRepository 订单仓储接口
type OrderRepository interface {
	// Create 创建订单（连同明细）；幂等键冲突返回 ErrDuplicateKey
	Create(ctx context.Context, order *model.Order) error

	// GetByID 根据订单ID查询订单（含明细）
	GetByID(ctx context.Context, id string) (*model.Order, error)
	GetByOrderNumber(ctx context.Context, number string) (*model.Order, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*model.Order, error)

	// ListByBuyer 根据买家查询订单列表
	ListByBuyer(ctx context.Context, buyerID string, limit int) ([]*model.Order, error)
	ListByClub(ctx context.Context, clubID string, status model.OrderStatus, limit int) ([]*model.Order, error)

	// UpdateStatus 以 (status, version) 为条件写回状态相关字段；未命中返回 ErrVersionConflict
	UpdateStatus(ctx context.Context, order *model.Order, fromStatus model.OrderStatus, fromVersion int64) error
	// UpdatePayment 以 version 为条件写回支付子记录
	UpdatePayment(ctx context.Context, order *model.Order, fromVersion int64) error

	// ClaimStockRestore 抢占归还库存的资格，只有第一次调用返回 true
	ClaimStockRestore(ctx context.Context, orderID string) (bool, error)

	// FindExpiredPending 预占已过期且未归还库存的待支付订单，按 (reserved_until, id) 排序；
	// after 非空时只返回排在游标之后的订单
	FindExpiredPending(ctx context.Context, now time.Time, after *ExpiryCursor, limit int) ([]*model.Order, error)
	// FindUnrestored 已进入归还状态但 stock_restored 仍为 false 的订单（对账用）
	FindUnrestored(ctx context.Context, limit int) ([]*model.Order, error)

	// PurchasedQuantity 买家对某商品的有效购买数量
	PurchasedQuantity(ctx context.Context, buyerID, productID string) (int, error)

	// Count 统计订单数量
	Count(ctx context.Context) (int64, error)

	WithTx(tx *gorm.DB) OrderRepository
}

// ExpiryCursor 过期扫描的分页游标
type ExpiryCursor struct {
	ReservedUntil time.Time
	ID            string
}
