package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/club-store/internal/event"
	"github.com/d60-Lab/club-store/internal/model"
)

func TestPlaceOrder_SnapshotsAndReserves(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	hoodie := env.createProduct(t, nil)
	tee := env.createTee(t, 5, 5)

	order, err := env.orders.PlaceOrder(ctx, placeCmd("k-1",
		CartItem{ProductID: hoodie.ID, Quantity: 2},
		CartItem{ProductID: tee.ID, VariantOptionID: "L", Quantity: 1},
	))
	require.NoError(t, err)

	assert.Equal(t, "CLB-2026-00001", order.OrderNumber)
	assert.Equal(t, model.OrderStatusPaymentPending, order.Status)
	assert.False(t, order.StockRestored)
	assert.Equal(t, env.clock.Now().Add(15*time.Minute), order.ReservedUntil)
	assert.Equal(t, int64(2*79900+59900), order.TotalAmount)
	assert.Equal(t, order.TotalAmount, order.Payment.Amount)
	assert.Equal(t, "INR", order.Payment.Currency)
	assert.Equal(t, "club-ecell", order.ClubID)
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, model.OrderStatusPaymentPending, order.StatusHistory[0].Status)

	require.Len(t, order.Items, 2)
	assert.Equal(t, "E-Cell Hoodie", order.Items[0].SnapshotName)
	assert.Equal(t, "https://img/front.png", order.Items[0].SnapshotImage)
	assert.Equal(t, int64(79900), order.Items[0].UnitPrice)
	assert.Equal(t, "Size: Large", order.Items[1].VariantLabel)
	assert.Equal(t, int64(59900), order.Items[1].UnitPrice)

	assert.Equal(t, 8, env.stock(t, hoodie.ID).TotalStock)
	storedTee := env.stock(t, tee.ID)
	assert.Equal(t, 9, storedTee.TotalStock)
	large, _ := storedTee.FindOption("L")
	assert.Equal(t, 4, large.Stock)

	assert.Equal(t, int64(1), env.outboxCount(t, event.TypeOrderPlaced))

	// 快照不随商品修改而变化
	hoodie = env.stock(t, hoodie.ID)
	hoodie.Name = "Renamed Hoodie"
	require.NoError(t, env.store.Products.Save(ctx, hoodie))
	stored, err := env.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "E-Cell Hoodie", stored.Items[0].SnapshotName)
}

func TestPlaceOrder_SequenceIsIncreasing(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProduct(t, func(p *model.Product) { p.MaxPerStudent = 50 })

	var numbers []string
	for i := 0; i < 3; i++ {
		o, err := env.orders.PlaceOrder(context.Background(), placeCmd(fmt.Sprintf("k-%d", i), CartItem{ProductID: p.ID, Quantity: 1}))
		require.NoError(t, err)
		numbers = append(numbers, o.OrderNumber)
	}
	assert.Equal(t, []string{"CLB-2026-00001", "CLB-2026-00002", "CLB-2026-00003"}, numbers)
}

func TestPlaceOrder_AllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.createProduct(t, func(p *model.Product) { p.TotalStock = 5 })
	second := env.createTee(t, 3, 0)
	third := env.createProduct(t, func(p *model.Product) { p.Name = "Sticker Pack"; p.TotalStock = 1 })

	_, err := env.orders.PlaceOrder(ctx, placeCmd("k-1",
		CartItem{ProductID: first.ID, Quantity: 2},
		CartItem{ProductID: second.ID, VariantOptionID: "S", Quantity: 2},
		CartItem{ProductID: third.ID, Quantity: 2},
	))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStockUnavailable)
	var stockErr *StockUnavailableError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, third.ID, stockErr.ProductID)
	assert.Contains(t, err.Error(), "Sticker Pack")

	assert.Equal(t, 5, env.stock(t, first.ID).TotalStock)
	assert.Equal(t, 0, env.stock(t, first.ID).OrderCount)
	tee := env.stock(t, second.ID)
	assert.Equal(t, 3, tee.TotalStock)
	small, _ := tee.FindOption("S")
	assert.Equal(t, 3, small.Stock)
	assert.Equal(t, 1, env.stock(t, third.ID).TotalStock)

	count, err := env.store.Orders.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestPlaceOrder_IdempotentRetry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.createProduct(t, nil)
	cmd := placeCmd("retry-key", CartItem{ProductID: p.ID, Quantity: 2})

	first, err := env.orders.PlaceOrder(ctx, cmd)
	require.NoError(t, err)
	second, err := env.orders.PlaceOrder(ctx, cmd)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 8, env.stock(t, p.ID).TotalStock)
	count, err := env.store.Orders.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	other := cmd
	other.BuyerID = "buyer-2"
	_, err = env.orders.PlaceOrder(ctx, other)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPlaceOrder_ConcurrentRetriesCreateOneOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.createProduct(t, nil)
	cmd := placeCmd("same-key", CartItem{ProductID: p.ID, Quantity: 1})

	ids := make([]string, 4)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			o, err := env.orders.PlaceOrder(ctx, cmd)
			if assert.NoError(t, err) {
				ids[i] = o.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids[1:] {
		assert.Equal(t, ids[0], id)
	}
	assert.Equal(t, 9, env.stock(t, p.ID).TotalStock)
}

func TestPlaceOrder_Validation(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProduct(t, nil)
	tee := env.createTee(t, 2, 2)
	otherClub := env.createProduct(t, func(p *model.Product) { p.ClubID = "club-music" })
	future := env.clock.Now().Add(24 * time.Hour)
	notYet := env.createProduct(t, func(p *model.Product) { p.SaleStartsAt = &future })

	hostelNoRoom := placeCmd("k", CartItem{ProductID: p.ID, Quantity: 1})
	hostelNoRoom.Delivery = DeliveryInfo{Type: model.DeliveryHostel, Hostel: "Gopad"}
	unknownHostel := placeCmd("k", CartItem{ProductID: p.ID, Quantity: 1})
	unknownHostel.Delivery = DeliveryInfo{Type: model.DeliveryHostel, Hostel: "Narmada", RoomNo: "101"}
	longNote := placeCmd("k", CartItem{ProductID: p.ID, Quantity: 1})
	longNote.BuyerNote = string(make([]byte, 501))

	tests := []struct {
		name  string
		cmd   PlaceOrderCommand
		field string
	}{
		{"empty cart", placeCmd("k"), "items"},
		{"zero quantity", placeCmd("k", CartItem{ProductID: p.ID, Quantity: 0}), "items[0].quantity"},
		{"missing key", placeCmd("", CartItem{ProductID: p.ID, Quantity: 1}), "idempotency_key"},
		{"hostel without room", hostelNoRoom, "delivery.room_no"},
		{"unknown hostel", unknownHostel, "delivery.hostel"},
		{"note too long", longNote, "buyer_note"},
		{"variant required", placeCmd("k", CartItem{ProductID: tee.ID, Quantity: 1}), "items[0].variant_option_id"},
		{"unknown variant", placeCmd("k", CartItem{ProductID: tee.ID, VariantOptionID: "XXL", Quantity: 1}), "items[0].variant_option_id"},
		{"variant on plain product", placeCmd("k", CartItem{ProductID: p.ID, VariantOptionID: "S", Quantity: 1}), "items[0].variant_option_id"},
		{"mixed clubs", placeCmd("k", CartItem{ProductID: p.ID, Quantity: 1}, CartItem{ProductID: otherClub.ID, Quantity: 1}), "items[1].product_id"},
		{"sale not started", placeCmd("k", CartItem{ProductID: notYet.ID, Quantity: 1}), "items[0].product_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.orders.PlaceOrder(context.Background(), tt.cmd)
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	// 校验失败不动库存
	assert.Equal(t, 10, env.stock(t, p.ID).TotalStock)
	assert.Equal(t, 4, env.stock(t, tee.ID).TotalStock)
}

func TestPlaceOrder_UnknownAndSoldoutProducts(t *testing.T) {
	env := newTestEnv(t)
	soldout := env.createProduct(t, func(p *model.Product) { p.TotalStock = 0; p.Status = model.ProductStatusSoldout })

	_, err := env.orders.PlaceOrder(context.Background(), placeCmd("k-1", CartItem{ProductID: "missing", Quantity: 1}))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.orders.PlaceOrder(context.Background(), placeCmd("k-2", CartItem{ProductID: soldout.ID, Quantity: 1}))
	assert.ErrorIs(t, err, ErrStockUnavailable)
}

func TestPlaceOrder_PurchaseLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.createProduct(t, func(p *model.Product) { p.MaxPerStudent = 3 })

	_, err := env.orders.PlaceOrder(ctx, placeCmd("k-1", CartItem{ProductID: p.ID, Quantity: 2}))
	require.NoError(t, err)

	// 同一商品多行合并计算
	_, err = env.orders.PlaceOrder(ctx, placeCmd("k-2",
		CartItem{ProductID: p.ID, Quantity: 1},
		CartItem{ProductID: p.ID, Quantity: 1},
	))
	require.ErrorIs(t, err, ErrPurchaseLimitExceeded)
	var limitErr *PurchaseLimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, 3, limitErr.Limit)
	assert.Equal(t, 2, limitErr.Purchased)
	assert.Equal(t, 2, limitErr.Requested)
	assert.Equal(t, 8, env.stock(t, p.ID).TotalStock)

	o, err := env.orders.PlaceOrder(ctx, placeCmd("k-3", CartItem{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	// 取消的订单不计入限购
	_, err = env.orders.Transition(ctx, o.ID, model.OrderStatusCancelled, "buyer-1", "changed my mind")
	require.NoError(t, err)
	_, err = env.orders.PlaceOrder(ctx, placeCmd("k-4", CartItem{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
}

func TestTransition_TableIsExact(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.createProduct(t, func(p *model.Product) { p.TotalStock = 1000 })

	for _, from := range model.OrderStatuses {
		for _, to := range model.OrderStatuses {
			from, to := from, to
			t.Run(fmt.Sprintf("%s->%s", from, to), func(t *testing.T) {
				o := env.seedOrder(t, from, model.OrderItem{ProductID: p.ID, Quantity: 1, UnitPrice: 100})
				got, err := env.orders.Transition(ctx, o.ID, to, "admin-1", "")
				if from.CanTransitionTo(to) {
					require.NoError(t, err)
					assert.Equal(t, to, got.Status)
					assert.Len(t, got.StatusHistory, 2)
					return
				}
				require.Error(t, err)
				var terr *InvalidTransitionError
				require.True(t, errors.As(err, &terr))
				assert.Equal(t, from, terr.From)
				assert.Equal(t, to, terr.To)
			})
		}
	}
}

func TestTransition_UnknownStatusAndOrder(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.orders.Transition(context.Background(), "missing", model.OrderStatusConfirmed, "admin", "")
	assert.ErrorIs(t, err, ErrNotFound)

	o := env.seedOrder(t, model.OrderStatusPaymentPending)
	_, err = env.orders.Transition(context.Background(), o.ID, model.OrderStatus("shipped"), "admin", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTransition_CancelRestoresStockOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	hoodie := env.createProduct(t, nil)
	tee := env.createTee(t, 2, 2)

	o, err := env.orders.PlaceOrder(ctx, placeCmd("k-1",
		CartItem{ProductID: hoodie.ID, Quantity: 3},
		CartItem{ProductID: tee.ID, VariantOptionID: "S", Quantity: 2},
	))
	require.NoError(t, err)
	assert.Equal(t, model.ProductStatusActive, env.stock(t, tee.ID).Status)

	cancelled, err := env.orders.Transition(ctx, o.ID, model.OrderStatusCancelled, "admin-1", "duplicate order")
	require.NoError(t, err)
	assert.True(t, cancelled.StockRestored)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, "admin-1", cancelled.CancelledBy)
	assert.Equal(t, "duplicate order", cancelled.CancelReason)

	assert.Equal(t, 10, env.stock(t, hoodie.ID).TotalStock)
	storedTee := env.stock(t, tee.ID)
	assert.Equal(t, 4, storedTee.TotalStock)
	small, _ := storedTee.FindOption("S")
	assert.Equal(t, 2, small.Stock)

	// 终态不可再流转
	_, err = env.orders.Transition(ctx, o.ID, model.OrderStatusCancelled, "admin-1", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 10, env.stock(t, hoodie.ID).TotalStock)
	assert.Equal(t, int64(1), env.outboxCount(t, event.TypeOrderStatusChanged))
}

func TestTransition_DeliveredToRefundedKeepsStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.createProduct(t, nil)
	o, err := env.orders.PlaceOrder(ctx, placeCmd("k-1", CartItem{ProductID: p.ID, Quantity: 2}))
	require.NoError(t, err)

	for _, to := range []model.OrderStatus{
		model.OrderStatusConfirmed, model.OrderStatusProcessing, model.OrderStatusReady, model.OrderStatusDelivered,
	} {
		_, err := env.orders.Transition(ctx, o.ID, to, "admin-1", "")
		require.NoError(t, err)
	}

	_, err = env.orders.Transition(ctx, o.ID, model.OrderStatusProcessing, "admin-1", "")
	var terr *InvalidTransitionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, model.OrderStatusDelivered, terr.From)

	refunded, err := env.orders.Transition(ctx, o.ID, model.OrderStatusRefunded, "admin-1", "damaged print")
	require.NoError(t, err)
	assert.False(t, refunded.StockRestored)
	assert.Equal(t, 8, env.stock(t, p.ID).TotalStock)
	assert.Len(t, refunded.StatusHistory, 6)
}

func TestTransition_ConcurrentCancelRestoresOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.createProduct(t, nil)
	o, err := env.orders.PlaceOrder(ctx, placeCmd("k-1", CartItem{ProductID: p.ID, Quantity: 4}))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = env.orders.Transition(ctx, o.ID, model.OrderStatusCancelled, "admin-1", "")
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, env.stock(t, p.ID).TotalStock)
}

func TestCancel_BuyerRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.createProduct(t, nil)
	o, err := env.orders.PlaceOrder(ctx, placeCmd("k-1", CartItem{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	_, err = env.orders.Cancel(ctx, o.ID, "someone-else", "")
	assert.ErrorIs(t, err, ErrNotFound)

	processing := env.seedOrder(t, model.OrderStatusProcessing, model.OrderItem{ProductID: p.ID, Quantity: 1, UnitPrice: 100})
	_, err = env.orders.Cancel(ctx, processing.ID, "buyer-1", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// 他人的订单无论状态都按不存在处理
	delivered := env.seedOrder(t, model.OrderStatusDelivered, model.OrderItem{ProductID: p.ID, Quantity: 1, UnitPrice: 100})
	_, err = env.orders.Cancel(ctx, delivered.ID, "someone-else", "")
	assert.ErrorIs(t, err, ErrNotFound)
	var transitionErr *InvalidTransitionError
	assert.False(t, errors.As(err, &transitionErr))
	_, err = env.orders.Cancel(ctx, "missing-order", "buyer-1", "")
	assert.ErrorIs(t, err, ErrNotFound)

	cancelled, err := env.orders.Cancel(ctx, o.ID, "buyer-1", "")
	require.NoError(t, err)
	assert.Equal(t, "cancelled by buyer", cancelled.CancelReason)
	assert.Equal(t, 10, env.stock(t, p.ID).TotalStock)
}

func TestPaymentCallbacks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.createProduct(t, nil)

	t.Run("confirm", func(t *testing.T) {
		o, err := env.orders.PlaceOrder(ctx, placeCmd("pay-1", CartItem{ProductID: p.ID, Quantity: 1}))
		require.NoError(t, err)

		o, err = env.orders.AttachGatewayOrder(ctx, o.ID, "order_abc")
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusCreated, o.Payment.Status)

		_, err = env.orders.ConfirmPayment(ctx, o.ID, PaymentCapture{PaymentID: "pay_1", Amount: o.TotalAmount - 1})
		assert.ErrorIs(t, err, ErrValidation)

		capture := PaymentCapture{PaymentID: "pay_1", Method: "upi", Amount: o.TotalAmount}
		confirmed, err := env.orders.ConfirmPayment(ctx, o.ID, capture)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusConfirmed, confirmed.Status)
		assert.True(t, confirmed.IsPaid())
		require.NotNil(t, confirmed.Payment.PaidAt)
		assert.Equal(t, "order_abc", confirmed.Payment.GatewayOrderID)

		again, err := env.orders.ConfirmPayment(ctx, o.ID, capture)
		require.NoError(t, err)
		assert.Len(t, again.StatusHistory, 2)

		stored, err := env.orders.GetByNumber(ctx, o.OrderNumber)
		require.NoError(t, err)
		assert.Equal(t, "pay_1", stored.Payment.GatewayPaymentID)
		assert.Equal(t, "upi", stored.Payment.Method)
	})

	t.Run("fail restores stock", func(t *testing.T) {
		before := env.stock(t, p.ID).TotalStock
		o, err := env.orders.PlaceOrder(ctx, placeCmd("pay-2", CartItem{ProductID: p.ID, Quantity: 2}))
		require.NoError(t, err)

		failed, err := env.orders.FailPayment(ctx, o.ID, "card declined")
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusPaymentFailed, failed.Status)
		assert.Equal(t, model.PaymentStatusFailed, failed.Payment.Status)
		assert.True(t, failed.StockRestored)
		assert.Equal(t, before, env.stock(t, p.ID).TotalStock)
	})

	t.Run("capture after expiry is rejected", func(t *testing.T) {
		o, err := env.orders.PlaceOrder(ctx, placeCmd("pay-3", CartItem{ProductID: p.ID, Quantity: 1}))
		require.NoError(t, err)
		_, err = env.orders.Transition(ctx, o.ID, model.OrderStatusExpired, ActorSystem, expiryNote)
		require.NoError(t, err)

		_, err = env.orders.ConfirmPayment(ctx, o.ID, PaymentCapture{PaymentID: "pay_3", Amount: o.TotalAmount})
		assert.ErrorIs(t, err, ErrInvalidTransition)
		_, err = env.orders.AttachGatewayOrder(ctx, o.ID, "order_late")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("refund", func(t *testing.T) {
		o := env.seedOrder(t, model.OrderStatusDelivered, model.OrderItem{ProductID: p.ID, Quantity: 1, UnitPrice: 100})
		refunded, err := env.orders.RecordRefund(ctx, o.ID, "rfnd_1", "admin-1", "size issue")
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusRefunded, refunded.Payment.Status)
		assert.Equal(t, "rfnd_1", refunded.Payment.RefundID)

		again, err := env.orders.RecordRefund(ctx, o.ID, "rfnd_1", "admin-1", "size issue")
		require.NoError(t, err)
		assert.Equal(t, refunded.Version, again.Version)
	})
}

func TestListQueries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.createProduct(t, nil)
	_, err := env.orders.PlaceOrder(ctx, placeCmd("k-1", CartItem{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	mine, err := env.orders.ListByBuyer(ctx, "buyer-1", 0)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	club, err := env.orders.ListByClub(ctx, "club-ecell", model.OrderStatusPaymentPending, 500)
	require.NoError(t, err)
	assert.Len(t, club, 1)

	_, err = env.orders.ListByClub(ctx, "club-ecell", model.OrderStatus("bogus"), 10)
	assert.ErrorIs(t, err, ErrValidation)
}
