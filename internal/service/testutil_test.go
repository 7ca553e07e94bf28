package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/club-store/config"
	"github.com/d60-Lab/club-store/internal/event"
	"github.com/d60-Lab/club-store/internal/model"
	"github.com/d60-Lab/club-store/internal/repository"
	"github.com/d60-Lab/club-store/pkg/database"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testEnv struct {
	store  *repository.Store
	orders OrderService
	clock  *fakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.InitDB(&config.Config{
		Server:   config.ServerConfig{Mode: "release"},
		Database: config.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:"},
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	store := repository.NewStore(db, 0)
	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	orders := NewOrderService(store,
		NewDBSequence(store.Counters, "CLB"),
		NewPurchaseLimitGuard(store.Orders),
		OrderOptions{ReservationWindow: 15 * time.Minute, Now: clock.Now},
	)
	return &testEnv{store: store, orders: orders, clock: clock}
}

func (e *testEnv) createProduct(t *testing.T, mutate func(p *model.Product)) *model.Product {
	t.Helper()
	p := &model.Product{
		ID:            uuid.New().String(),
		ClubID:        "club-ecell",
		Name:          "E-Cell Hoodie",
		Price:         79900,
		Images:        model.ProductImages{{URL: "https://img/back.png"}, {URL: "https://img/front.png", IsPrimary: true}},
		Category:      "merch",
		TotalStock:    10,
		Status:        model.ProductStatusActive,
		MaxPerStudent: model.DefaultMaxPerStudent,
		CreatedAt:     e.clock.Now(),
		UpdatedAt:     e.clock.Now(),
	}
	if mutate != nil {
		mutate(p)
	}
	p.SyncTotal()
	require.NoError(t, e.store.Products.Create(context.Background(), p))
	return p
}

func (e *testEnv) createTee(t *testing.T, small, large int) *model.Product {
	t.Helper()
	largePrice := int64(59900)
	return e.createProduct(t, func(p *model.Product) {
		p.Name = "Fest Tee"
		p.Price = 49900
		p.HasVariants = true
		p.Variants = model.VariantGroups{{
			ID:   "size",
			Name: "Size",
			Options: []model.VariantOption{
				{ID: "S", Label: "Small", Stock: small, IsAvailable: true},
				{ID: "L", Label: "Large", Stock: large, IsAvailable: true, Price: &largePrice},
			},
		}}
	})
}

func (e *testEnv) stock(t *testing.T, productID string) *model.Product {
	t.Helper()
	p, err := e.store.Products.Get(context.Background(), productID)
	require.NoError(t, err)
	return p
}

// seedOrder 直接落库一个处于指定状态的订单（预占已发生）
func (e *testEnv) seedOrder(t *testing.T, status model.OrderStatus, items ...model.OrderItem) *model.Order {
	t.Helper()
	now := e.clock.Now()
	id := uuid.New().String()
	var total int64
	for i := range items {
		items[i].ID = uuid.New().String()
		items[i].OrderID = id
		items[i].TotalPrice = items[i].UnitPrice * int64(items[i].Quantity)
		if items[i].SnapshotName == "" {
			items[i].SnapshotName = "seeded"
		}
		total += items[i].TotalPrice
	}
	o := &model.Order{
		ID:             id,
		OrderNumber:    "SEED-" + id[:8],
		ClubID:         "club-ecell",
		BuyerID:        "buyer-1",
		Items:          items,
		TotalAmount:    total,
		Payment:        model.Payment{Status: model.PaymentStatusPending, Amount: total, Currency: "INR"},
		IdempotencyKey: "seed-" + id,
		Status:         status,
		StatusHistory:  model.StatusHistory{{Status: status, ChangedAt: now}},
		ReservedUntil:  now.Add(15 * time.Minute),
		DeliveryType:   model.DeliveryPickup,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, e.store.Orders.Create(context.Background(), o))
	return o
}

func (e *testEnv) outboxCount(t *testing.T, eventType string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.store.DB().Model(&model.Outbox{}).Where("event_type = ?", eventType).Count(&n).Error)
	return n
}

func placeCmd(key string, items ...CartItem) PlaceOrderCommand {
	return PlaceOrderCommand{
		BuyerID:        "buyer-1",
		Items:          items,
		Delivery:       DeliveryInfo{Type: model.DeliveryPickup, PickupSlot: "Fri 5-6pm"},
		Buyer:          model.BuyerSnapshot{Name: "Asha", Email: "asha@example.edu"},
		IdempotencyKey: key,
	}
}

// recordingPublisher 记录投递的消息，可注入失败
type recordingPublisher struct {
	mu       sync.Mutex
	messages []event.Message
	failures int
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, msg event.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures > 0 {
		p.failures--
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }
