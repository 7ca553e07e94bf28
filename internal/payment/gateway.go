package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var ErrInvalidAmount = errors.New("payment amount must be positive")

// Gateway 支付网关边界。签名校验由 webhook 调用方完成，这里只负责建单与退款
type Gateway interface {
	CreateOrder(ctx context.Context, receipt string, amount int64, currency string) (string, error)
	Refund(ctx context.Context, gatewayPaymentID string, amount int64) (string, error)
}

// FakeGateway 本地开发与测试使用，不发起任何网络请求
type FakeGateway struct {
	mu      sync.Mutex
	orders  map[string]int64
	refunds map[string]string
	// FailNext 非空时下一次调用返回该错误
	FailNext error
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{orders: make(map[string]int64), refunds: make(map[string]string)}
}

func (g *FakeGateway) CreateOrder(_ context.Context, receipt string, amount int64, currency string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.takeFailure(); err != nil {
		return "", err
	}
	if amount <= 0 {
		return "", ErrInvalidAmount
	}
	id := "order_" + uuid.New().String()[:14]
	g.orders[id] = amount
	return id, nil
}

func (g *FakeGateway) Refund(_ context.Context, gatewayPaymentID string, amount int64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.takeFailure(); err != nil {
		return "", err
	}
	if amount <= 0 {
		return "", ErrInvalidAmount
	}
	if gatewayPaymentID == "" {
		return "", fmt.Errorf("refund: missing payment id")
	}
	if id, ok := g.refunds[gatewayPaymentID]; ok {
		return id, nil
	}
	id := "rfnd_" + uuid.New().String()[:14]
	g.refunds[gatewayPaymentID] = id
	return id, nil
}

// Amount 返回网关订单金额，测试用
func (g *FakeGateway) Amount(gatewayOrderID string) (int64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	amount, ok := g.orders[gatewayOrderID]
	return amount, ok
}

func (g *FakeGateway) takeFailure() error {
	err := g.FailNext
	g.FailNext = nil
	return err
}
