package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/d60-Lab/club-store/internal/model"
	"github.com/d60-Lab/club-store/internal/payment"
	"github.com/d60-Lab/club-store/pkg/logger"
)

// PaymentService 网关建单与退款，结果回写订单生命周期
type PaymentService struct {
	orders   OrderService
	gateway  payment.Gateway
	currency string
}

func NewPaymentService(orders OrderService, gateway payment.Gateway, currency string) *PaymentService {
	if currency == "" {
		currency = "INR"
	}
	return &PaymentService{orders: orders, gateway: gateway, currency: currency}
}

// Initiate 为待支付订单创建网关订单；重复调用返回已有网关订单
func (p *PaymentService) Initiate(ctx context.Context, orderID, buyerID string) (*model.Order, error) {
	o, err := p.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.BuyerID != buyerID {
		return nil, ErrNotFound
	}
	if o.Payment.GatewayOrderID != "" {
		return o, nil
	}
	if o.Status != model.OrderStatusPaymentPending {
		return nil, invalid("status", "order is %s, payment can no longer be started", o.Status)
	}

	gatewayOrderID, err := p.gateway.CreateOrder(ctx, o.OrderNumber, o.TotalAmount, p.currency)
	if err != nil {
		return nil, fmt.Errorf("create gateway order: %w", err)
	}
	return p.orders.AttachGatewayOrder(ctx, o.ID, gatewayOrderID)
}

// Refund 先向网关退款再流转到 refunded；未经网关支付的订单直接流转
func (p *PaymentService) Refund(ctx context.Context, orderID, actor, note string) (*model.Order, error) {
	o, err := p.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransitionTo(model.OrderStatusRefunded) {
		return nil, &InvalidTransitionError{OrderID: o.ID, From: o.Status, To: model.OrderStatusRefunded}
	}

	refundID := ""
	if o.IsPaid() && o.Payment.GatewayPaymentID != "" {
		refundID, err = p.gateway.Refund(ctx, o.Payment.GatewayPaymentID, o.TotalAmount)
		if err != nil {
			return nil, fmt.Errorf("gateway refund: %w", err)
		}
		logger.Info("refund issued",
			zap.String("order_id", o.ID),
			zap.String("refund_id", refundID),
			zap.Int64("amount", o.TotalAmount),
		)
	}
	return p.orders.RecordRefund(ctx, o.ID, refundID, actor, note)
}
