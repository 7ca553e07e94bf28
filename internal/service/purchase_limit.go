package service

import (
	"context"

	"github.com/d60-Lab/club-store/internal/model"
	"github.com/d60-Lab/club-store/internal/repository"
)

// PurchaseLimitGuard 每人限购（软限制：检查与预占之间不加锁）
type PurchaseLimitGuard struct {
	orders repository.OrderRepository
}

func NewPurchaseLimitGuard(orders repository.OrderRepository) *PurchaseLimitGuard {
	return &PurchaseLimitGuard{orders: orders}
}

// PurchasedQuantity 不含 cancelled/payment_failed/expired/refunded 订单
func (g *PurchaseLimitGuard) PurchasedQuantity(ctx context.Context, buyerID, productID string) (int, error) {
	return g.orders.PurchasedQuantity(ctx, buyerID, productID)
}

func (g *PurchaseLimitGuard) Check(ctx context.Context, buyerID string, product *model.Product, requested int) error {
	limit := product.MaxPerStudent
	if limit <= 0 {
		limit = model.DefaultMaxPerStudent
	}
	purchased, err := g.PurchasedQuantity(ctx, buyerID, product.ID)
	if err != nil {
		return err
	}
	if purchased+requested > limit {
		return &PurchaseLimitError{
			ProductID: product.ID,
			Name:      product.Name,
			Limit:     limit,
			Purchased: purchased,
			Requested: requested,
		}
	}
	return nil
}
