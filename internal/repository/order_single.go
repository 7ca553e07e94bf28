package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/club-store/internal/model"
)

// SingleDBOrderRepository 单库订单仓储实现
type SingleDBOrderRepository struct {
	db *gorm.DB
}

// NewSingleDBOrderRepository 创建单库订单仓储
func NewSingleDBOrderRepository(db *gorm.DB) OrderRepository {
	return &SingleDBOrderRepository{db: db}
}

func (r *SingleDBOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	return &SingleDBOrderRepository{db: tx}
}

// Create 创建订单
func (r *SingleDBOrderRepository) Create(ctx context.Context, order *model.Order) error {
	return translate(r.db.WithContext(ctx).Create(order).Error)
}

func (r *SingleDBOrderRepository) getBy(ctx context.Context, column string, value interface{}) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where(column+" = ?", value).
		First(&order).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// GetByID 根据订单ID查询订单
func (r *SingleDBOrderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	return r.getBy(ctx, "id", id)
}

func (r *SingleDBOrderRepository) GetByOrderNumber(ctx context.Context, number string) (*model.Order, error) {
	return r.getBy(ctx, "order_number", number)
}

func (r *SingleDBOrderRepository) GetByIdempotencyKey(ctx context.Context, key string) (*model.Order, error) {
	return r.getBy(ctx, "idempotency_key", key)
}

// ListByBuyer 根据买家查询订单列表
func (r *SingleDBOrderRepository) ListByBuyer(ctx context.Context, buyerID string, limit int) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *SingleDBOrderRepository) ListByClub(ctx context.Context, clubID string, status model.OrderStatus, limit int) ([]*model.Order, error) {
	q := r.db.WithContext(ctx).Preload("Items").Where("club_id = ?", clubID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var orders []*model.Order
	if err := q.Order("created_at DESC").Limit(limit).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus 更新订单状态（CAS），支付子记录随状态一起写回
func (r *SingleDBOrderRepository) UpdateStatus(ctx context.Context, order *model.Order, fromStatus model.OrderStatus, fromVersion int64) error {
	next := model.Order{
		Status:        order.Status,
		StatusHistory: order.StatusHistory,
		Payment:       order.Payment,
		CancelledAt:   order.CancelledAt,
		CancelledBy:   order.CancelledBy,
		CancelReason:  order.CancelReason,
		AdminNote:     order.AdminNote,
		Version:       fromVersion + 1,
		UpdatedAt:     order.UpdatedAt,
	}
	columns := append(paymentColumnNames(),
		"status", "status_history", "cancelled_at", "cancelled_by", "cancel_reason", "admin_note", "version", "updated_at")

	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status = ? AND version = ?", order.ID, fromStatus, fromVersion).
		Select(columns).
		Updates(&next)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	order.Version = fromVersion + 1
	return nil
}

func (r *SingleDBOrderRepository) UpdatePayment(ctx context.Context, order *model.Order, fromVersion int64) error {
	values := paymentColumns(order.Payment)
	values["version"] = fromVersion + 1
	values["updated_at"] = order.UpdatedAt

	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND version = ?", order.ID, fromVersion).
		Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	order.Version = fromVersion + 1
	return nil
}

func paymentColumnNames() []string {
	return []string{
		"payment_gateway_order_id",
		"payment_gateway_payment_id",
		"payment_signature",
		"payment_status",
		"payment_method",
		"payment_paid_at",
		"payment_refund_id",
		"payment_refunded_at",
	}
}

func paymentColumns(p model.Payment) map[string]interface{} {
	return map[string]interface{}{
		"payment_gateway_order_id":   p.GatewayOrderID,
		"payment_gateway_payment_id": p.GatewayPaymentID,
		"payment_signature":          p.Signature,
		"payment_status":             p.Status,
		"payment_method":             p.Method,
		"payment_paid_at":            p.PaidAt,
		"payment_refund_id":          p.RefundID,
		"payment_refunded_at":        p.RefundedAt,
	}
}

func (r *SingleDBOrderRepository) ClaimStockRestore(ctx context.Context, orderID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND stock_restored = ?", orderID, false).
		Update("stock_restored", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *SingleDBOrderRepository) FindExpiredPending(ctx context.Context, now time.Time, after *ExpiryCursor, limit int) ([]*model.Order, error) {
	q := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ? AND stock_restored = ? AND reserved_until < ?", model.OrderStatusPaymentPending, false, now)
	if after != nil {
		q = q.Where("(reserved_until > ? OR (reserved_until = ? AND id > ?))", after.ReservedUntil, after.ReservedUntil, after.ID)
	}
	var orders []*model.Order
	err := q.Order("reserved_until, id").Limit(limit).Find(&orders).Error
	return orders, err
}

func (r *SingleDBOrderRepository) FindUnrestored(ctx context.Context, limit int) ([]*model.Order, error) {
	restoring := []model.OrderStatus{}
	for _, s := range model.OrderStatuses {
		if s.RestoresStock() {
			restoring = append(restoring, s)
		}
	}
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status IN ? AND stock_restored = ?", restoring, false).
		Order("updated_at").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (r *SingleDBOrderRepository) PurchasedQuantity(ctx context.Context, buyerID, productID string) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.OrderItem{}).
		Select("COALESCE(SUM(order_items.quantity), 0)").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.buyer_id = ? AND order_items.product_id = ? AND orders.status NOT IN ?",
			buyerID, productID, model.ExcludedFromPurchaseLimit).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

// Count 统计订单数量
func (r *SingleDBOrderRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).Count(&count).Error
	return count, err
}
