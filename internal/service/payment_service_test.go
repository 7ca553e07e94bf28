package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/club-store/internal/model"
	"github.com/d60-Lab/club-store/internal/payment"
)

func TestPaymentService_InitiateAndRefund(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	gateway := payment.NewFakeGateway()
	payments := NewPaymentService(env.orders, gateway, "INR")
	p := env.createProduct(t, nil)

	o, err := env.orders.PlaceOrder(ctx, placeCmd("k-1", CartItem{ProductID: p.ID, Quantity: 2}))
	require.NoError(t, err)

	_, err = payments.Initiate(ctx, o.ID, "buyer-2")
	assert.ErrorIs(t, err, ErrNotFound)

	initiated, err := payments.Initiate(ctx, o.ID, "buyer-1")
	require.NoError(t, err)
	require.NotEmpty(t, initiated.Payment.GatewayOrderID)
	amount, ok := gateway.Amount(initiated.Payment.GatewayOrderID)
	require.True(t, ok)
	assert.Equal(t, o.TotalAmount, amount)

	again, err := payments.Initiate(ctx, o.ID, "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, initiated.Payment.GatewayOrderID, again.Payment.GatewayOrderID)

	_, err = payments.Refund(ctx, o.ID, "admin-1", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = env.orders.ConfirmPayment(ctx, o.ID, PaymentCapture{PaymentID: "pay_9", Amount: o.TotalAmount})
	require.NoError(t, err)

	refunded, err := payments.Refund(ctx, o.ID, "admin-1", "event cancelled")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusRefunded, refunded.Status)
	assert.NotEmpty(t, refunded.Payment.RefundID)
	// 已付款订单退款不归还库存
	assert.Equal(t, 8, env.stock(t, p.ID).TotalStock)
}

func TestPaymentService_GatewayFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	gateway := payment.NewFakeGateway()
	payments := NewPaymentService(env.orders, gateway, "")
	p := env.createProduct(t, nil)
	o, err := env.orders.PlaceOrder(ctx, placeCmd("k-1", CartItem{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	boom := errors.New("gateway down")
	gateway.FailNext = boom
	_, err = payments.Initiate(ctx, o.ID, "buyer-1")
	assert.ErrorIs(t, err, boom)

	stored, err := env.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Payment.GatewayOrderID)
	assert.Equal(t, model.PaymentStatusPending, stored.Payment.Status)
}
