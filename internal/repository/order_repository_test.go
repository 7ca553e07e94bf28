package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/club-store/internal/model"
)

func newTestOrder(buyerID, productID string, qty int, status model.OrderStatus) *model.Order {
	now := time.Now().UTC()
	id := uuid.New().String()
	return &model.Order{
		ID:             id,
		OrderNumber:    "CLB-2026-" + id[:8],
		ClubID:         "club-1",
		BuyerID:        buyerID,
		IdempotencyKey: "idem-" + id,
		Status:         status,
		StatusHistory:  model.StatusHistory{{Status: status, ChangedAt: now}},
		ReservedUntil:  now.Add(15 * time.Minute),
		TotalAmount:    int64(qty) * 100,
		Payment:        model.Payment{Status: model.PaymentStatusPending, Amount: int64(qty) * 100, Currency: "INR"},
		Items: []model.OrderItem{{
			ID: uuid.New().String(), ProductID: productID, Quantity: qty,
			UnitPrice: 100, TotalPrice: int64(qty) * 100, SnapshotName: "Club Hoodie",
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	repo := NewSingleDBOrderRepository(setupTestDB(t))
	ctx := context.Background()
	o := newTestOrder("buyer-1", "p-1", 2, model.OrderStatusPaymentPending)
	require.NoError(t, repo.Create(ctx, o))

	byID, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, byID.Items, 1)
	assert.Equal(t, 2, byID.ItemCount())
	assert.Len(t, byID.StatusHistory, 1)

	byNumber, err := repo.GetByOrderNumber(ctx, o.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, o.ID, byNumber.ID)

	byKey, err := repo.GetByIdempotencyKey(ctx, o.IdempotencyKey)
	require.NoError(t, err)
	assert.Equal(t, o.ID, byKey.ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderRepository_DuplicateIdempotencyKey(t *testing.T) {
	repo := NewSingleDBOrderRepository(setupTestDB(t))
	ctx := context.Background()
	first := newTestOrder("buyer-1", "p-1", 1, model.OrderStatusPaymentPending)
	require.NoError(t, repo.Create(ctx, first))

	second := newTestOrder("buyer-1", "p-1", 1, model.OrderStatusPaymentPending)
	second.IdempotencyKey = first.IdempotencyKey
	err := repo.Create(ctx, second)
	assert.ErrorIs(t, err, ErrDuplicateKey)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestOrderRepository_UpdateStatusCAS(t *testing.T) {
	repo := NewSingleDBOrderRepository(setupTestDB(t))
	ctx := context.Background()
	o := newTestOrder("buyer-1", "p-1", 1, model.OrderStatusPaymentPending)
	require.NoError(t, repo.Create(ctx, o))

	o.Status = model.OrderStatusConfirmed
	o.StatusHistory = append(o.StatusHistory, model.StatusChange{Status: model.OrderStatusConfirmed, ChangedAt: time.Now().UTC(), ChangedBy: "gateway"})
	o.Payment.Status = model.PaymentStatusCaptured
	o.Payment.GatewayPaymentID = "pay_1"
	require.NoError(t, repo.UpdateStatus(ctx, o, model.OrderStatusPaymentPending, 0))
	assert.Equal(t, int64(1), o.Version)

	// 旧版本写回失败
	o.Status = model.OrderStatusCancelled
	err := repo.UpdateStatus(ctx, o, model.OrderStatusPaymentPending, 0)
	assert.ErrorIs(t, err, ErrVersionConflict)

	stored, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, stored.Status)
	require.Len(t, stored.StatusHistory, 2)
	assert.Equal(t, model.OrderStatusConfirmed, stored.StatusHistory[1].Status)
	assert.Equal(t, "gateway", stored.StatusHistory[1].ChangedBy)
	assert.Equal(t, model.PaymentStatusCaptured, stored.Payment.Status)
	assert.Equal(t, "pay_1", stored.Payment.GatewayPaymentID)
	assert.Len(t, stored.Items, 1)
}

func TestOrderRepository_ClaimStockRestoreOnce(t *testing.T) {
	repo := NewSingleDBOrderRepository(setupTestDB(t))
	ctx := context.Background()
	o := newTestOrder("buyer-1", "p-1", 1, model.OrderStatusCancelled)
	require.NoError(t, repo.Create(ctx, o))

	var wins int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.ClaimStockRestore(ctx, o.ID)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestOrderRepository_FindExpiredPendingAndUnrestored(t *testing.T) {
	repo := NewSingleDBOrderRepository(setupTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	expired := newTestOrder("buyer-1", "p-1", 1, model.OrderStatusPaymentPending)
	expired.ReservedUntil = now.Add(-time.Minute)
	fresh := newTestOrder("buyer-1", "p-1", 1, model.OrderStatusPaymentPending)
	confirmed := newTestOrder("buyer-1", "p-1", 1, model.OrderStatusConfirmed)
	confirmed.ReservedUntil = now.Add(-time.Hour)
	stuck := newTestOrder("buyer-2", "p-1", 1, model.OrderStatusCancelled)
	restored := newTestOrder("buyer-2", "p-1", 1, model.OrderStatusExpired)
	restored.StockRestored = true
	for _, o := range []*model.Order{expired, fresh, confirmed, stuck, restored} {
		require.NoError(t, repo.Create(ctx, o))
	}

	due, err := repo.FindExpiredPending(ctx, now, nil, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, expired.ID, due[0].ID)
	assert.Len(t, due[0].Items, 1)

	unrestored, err := repo.FindUnrestored(ctx, 10)
	require.NoError(t, err)
	require.Len(t, unrestored, 1)
	assert.Equal(t, stuck.ID, unrestored[0].ID)
}

func TestOrderRepository_FindExpiredPendingPagesByCursor(t *testing.T) {
	repo := NewSingleDBOrderRepository(setupTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	var want []string
	for i := 0; i < 5; i++ {
		o := newTestOrder("buyer-1", "p-1", 1, model.OrderStatusPaymentPending)
		o.ReservedUntil = now.Add(-time.Hour)
		if i >= 3 {
			o.ReservedUntil = now.Add(-time.Duration(5-i) * time.Minute)
		}
		require.NoError(t, repo.Create(ctx, o))
	}
	all, err := repo.FindExpiredPending(ctx, now, nil, 10)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for _, o := range all {
		want = append(want, o.ID)
	}

	var got []string
	var cursor *ExpiryCursor
	for {
		page, err := repo.FindExpiredPending(ctx, now, cursor, 2)
		require.NoError(t, err)
		for _, o := range page {
			got = append(got, o.ID)
		}
		if len(page) < 2 {
			break
		}
		last := page[len(page)-1]
		cursor = &ExpiryCursor{ReservedUntil: last.ReservedUntil, ID: last.ID}
	}
	assert.Equal(t, want, got)
}

func TestOrderRepository_PurchasedQuantityExcludesDeadOrders(t *testing.T) {
	repo := NewSingleDBOrderRepository(setupTestDB(t))
	ctx := context.Background()

	statuses := map[model.OrderStatus]int{
		model.OrderStatusPaymentPending: 1,
		model.OrderStatusConfirmed:      2,
		model.OrderStatusDelivered:      1,
		model.OrderStatusCancelled:      3,
		model.OrderStatusExpired:        3,
		model.OrderStatusPaymentFailed:  3,
		model.OrderStatusRefunded:       3,
	}
	for status, qty := range statuses {
		require.NoError(t, repo.Create(ctx, newTestOrder("buyer-1", "p-1", qty, status)))
	}
	require.NoError(t, repo.Create(ctx, newTestOrder("buyer-1", "p-2", 4, model.OrderStatusConfirmed)))
	require.NoError(t, repo.Create(ctx, newTestOrder("buyer-2", "p-1", 4, model.OrderStatusConfirmed)))

	n, err := repo.PurchasedQuantity(ctx, "buyer-1", "p-1")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = repo.PurchasedQuantity(ctx, "nobody", "p-1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestOrderRepository_ListByBuyerAndClub(t *testing.T) {
	repo := NewSingleDBOrderRepository(setupTestDB(t))
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		o := newTestOrder("buyer-1", "p-1", 1, model.OrderStatusPaymentPending)
		o.CreatedAt = o.CreatedAt.Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.Create(ctx, o))
	}
	other := newTestOrder("buyer-2", "p-1", 1, model.OrderStatusConfirmed)
	other.ClubID = "club-2"
	require.NoError(t, repo.Create(ctx, other))

	mine, err := repo.ListByBuyer(ctx, "buyer-1", 2)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.True(t, !mine[0].CreatedAt.Before(mine[1].CreatedAt))

	club, err := repo.ListByClub(ctx, "club-1", model.OrderStatusPaymentPending, 10)
	require.NoError(t, err)
	assert.Len(t, club, 3)

	club2, err := repo.ListByClub(ctx, "club-2", "", 10)
	require.NoError(t, err)
	assert.Len(t, club2, 1)
}

func TestCounterRepository_NextIsStrictlyIncreasing(t *testing.T) {
	repo := NewCounterRepository(setupTestDB(t))
	ctx := context.Background()

	seen := make(map[int64]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := repo.Next(ctx, "orderSequence_2026")
			assert.NoError(t, err)
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 20)

	n, err := repo.Next(ctx, "orderSequence_2026")
	require.NoError(t, err)
	assert.Equal(t, int64(21), n)

	n, err = repo.Next(ctx, "orderSequence_2027")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestOutboxRepository_ClaimAndAck(t *testing.T) {
	repo := NewOutboxRepository(setupTestDB(t))
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Minute)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Add(ctx, &model.Outbox{
			ID:          uuid.New().String(),
			AggregateID: fmt.Sprintf("order-%d", i),
			EventType:   "order.placed",
			Payload:     "{}",
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		}))
	}

	batch, err := repo.Claim(ctx, 2, time.Minute)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "order-0", batch[0].AggregateID)

	// 已领取的不会被重复领取
	rest, err := repo.Claim(ctx, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "order-2", rest[0].AggregateID)

	require.NoError(t, repo.MarkDone(ctx, batch[0].ID))
	require.NoError(t, repo.MarkFailed(ctx, batch[1].ID, errors.New("broker down")))

	pending, err := repo.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pending)

	retry, err := repo.Claim(ctx, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, retry, 1)
	assert.Equal(t, batch[1].ID, retry[0].ID)
	assert.Equal(t, 1, retry[0].Attempts)
	assert.Equal(t, "broker down", retry[0].LastError)

	// processing 超时视为领取者已退出
	stale, err := repo.Claim(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, stale, 2)
}

func TestStore_TxRollsBackAllRepositories(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db, 0)
	ctx := context.Background()
	p := mustCreateProduct(t, store.Products, newSimpleProduct(3))

	boom := errors.New("boom")
	err := store.Tx(ctx, func(tx *Store) error {
		if _, err := tx.Products.Reserve(ctx, p.ID, 2); err != nil {
			return err
		}
		if err := tx.Orders.Create(ctx, newTestOrder("buyer-1", p.ID, 2, model.OrderStatusPaymentPending)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := store.Products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.TotalStock)
	count, err := store.Orders.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
