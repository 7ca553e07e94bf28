package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/d60-Lab/club-store/internal/event"
	"github.com/d60-Lab/club-store/internal/model"
	"github.com/d60-Lab/club-store/internal/repository"
	"github.com/d60-Lab/club-store/pkg/logger"
)

const (
	ActorSystem  = "system"
	ActorGateway = "gateway"

	defaultReservationWindow = 15 * time.Minute
	defaultListLimit         = 20
	maxListLimit             = 100
)

// OrderService 订单生命周期：下单（全有或全无）与状态机
type OrderService interface {
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (*model.Order, error)
	Transition(ctx context.Context, orderID string, to model.OrderStatus, actor, note string) (*model.Order, error)
	// Cancel 买家取消，仅限 payment_pending / confirmed
	Cancel(ctx context.Context, orderID, buyerID, reason string) (*model.Order, error)

	AttachGatewayOrder(ctx context.Context, orderID, gatewayOrderID string) (*model.Order, error)
	ConfirmPayment(ctx context.Context, orderID string, capture PaymentCapture) (*model.Order, error)
	FailPayment(ctx context.Context, orderID, reason string) (*model.Order, error)
	RecordRefund(ctx context.Context, orderID, refundID, actor, note string) (*model.Order, error)

	Get(ctx context.Context, id string) (*model.Order, error)
	GetByNumber(ctx context.Context, number string) (*model.Order, error)
	ListByBuyer(ctx context.Context, buyerID string, limit int) ([]*model.Order, error)
	ListByClub(ctx context.Context, clubID string, status model.OrderStatus, limit int) ([]*model.Order, error)
}

type CartItem struct {
	ProductID       string `json:"product_id" validate:"required"`
	VariantOptionID string `json:"variant_option_id"`
	Quantity        int    `json:"quantity" validate:"gte=1"`
}

type DeliveryInfo struct {
	Type           model.DeliveryType `json:"type" validate:"omitempty,oneof=pickup hostel-delivery"`
	Hostel         string             `json:"hostel"`
	RoomNo         string             `json:"room_no" validate:"max=16"`
	PickupSlot     string             `json:"pickup_slot" validate:"max=64"`
	PickupLocation string             `json:"pickup_location" validate:"max=128"`
}

type PlaceOrderCommand struct {
	BuyerID        string              `json:"buyer_id" validate:"required"`
	Items          []CartItem          `json:"items" validate:"required,min=1,max=20,dive"`
	Delivery       DeliveryInfo        `json:"delivery"`
	BuyerNote      string              `json:"buyer_note" validate:"max=500"`
	Buyer          model.BuyerSnapshot `json:"buyer"`
	IdempotencyKey string              `json:"idempotency_key" validate:"required,max=128"`
}

// PaymentCapture 网关回调中已通过签名校验的支付结果
type PaymentCapture struct {
	PaymentID string    `json:"payment_id" validate:"required"`
	Signature string    `json:"signature"`
	Method    string    `json:"method"`
	Amount    int64     `json:"amount" validate:"gte=0"`
	PaidAt    time.Time `json:"paid_at"`
}

type OrderOptions struct {
	ReservationWindow time.Duration
	Currency          string
	Now               func() time.Time
}

type orderService struct {
	store    *repository.Store
	sequence OrderSequence
	limits   *PurchaseLimitGuard
	window   time.Duration
	currency string
	now      func() time.Time
}

func NewOrderService(store *repository.Store, sequence OrderSequence, limits *PurchaseLimitGuard, opts OrderOptions) OrderService {
	if opts.ReservationWindow <= 0 {
		opts.ReservationWindow = defaultReservationWindow
	}
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &orderService{
		store:    store,
		sequence: sequence,
		limits:   limits,
		window:   opts.ReservationWindow,
		currency: opts.Currency,
		now:      opts.Now,
	}
}

// reservation 本次下单已成功预占的一行
type reservation struct {
	productID string
	optionID  string
	quantity  int
}

type pricedLine struct {
	product *model.Product
	item    model.OrderItem
}

func (s *orderService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (*model.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.PlaceOrder", trace.WithAttributes(
		attribute.String("buyer.id", cmd.BuyerID),
		attribute.Int("cart.lines", len(cmd.Items)),
	))
	defer span.End()

	order, err := s.placeOrder(ctx, cmd)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("order.number", order.OrderNumber))
	return order, nil
}

func (s *orderService) placeOrder(ctx context.Context, cmd PlaceOrderCommand) (*model.Order, error) {
	if err := validatePlaceOrder(cmd); err != nil {
		return nil, err
	}

	// 客户端重试：返回已有订单，不再预占
	existing, err := s.store.Orders.GetByIdempotencyKey(ctx, cmd.IdempotencyKey)
	switch {
	case err == nil:
		if existing.BuyerID != cmd.BuyerID {
			return nil, invalid("idempotency_key", "already used by another order")
		}
		return existing, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	now := s.now()
	lines, err := s.priceLines(ctx, cmd.Items, now)
	if err != nil {
		return nil, err
	}
	if err := s.checkLimits(ctx, cmd.BuyerID, lines); err != nil {
		return nil, err
	}

	reserved, err := s.reserveAll(ctx, lines)
	if err != nil {
		return nil, err
	}

	order, err := s.persist(ctx, cmd, lines, now)
	if err != nil {
		s.rollback(ctx, reserved)
		if errors.Is(err, repository.ErrDuplicateKey) {
			// 并发重试抢先落库，归还自己的预占后返回胜者
			if winner, gerr := s.store.Orders.GetByIdempotencyKey(ctx, cmd.IdempotencyKey); gerr == nil {
				return winner, nil
			}
		}
		return nil, fmt.Errorf("persist order: %w", err)
	}

	logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("buyer_id", order.BuyerID),
		zap.Int64("total_amount", order.TotalAmount),
	)
	return order, nil
}

func validatePlaceOrder(cmd PlaceOrderCommand) error {
	if err := validate.Struct(cmd); err != nil {
		return fromValidator(err)
	}
	if cmd.Delivery.Type != model.DeliveryHostel {
		return nil
	}
	if cmd.Delivery.Hostel == "" {
		return invalid("delivery.hostel", "required for hostel delivery")
	}
	known := false
	for _, h := range model.Hostels {
		if h == cmd.Delivery.Hostel {
			known = true
			break
		}
	}
	if !known {
		return invalid("delivery.hostel", "must be one of %s", strings.Join(model.Hostels, ", "))
	}
	if strings.TrimSpace(cmd.Delivery.RoomNo) == "" {
		return invalid("delivery.room_no", "required for hostel delivery")
	}
	return nil
}

// priceLines 解析商品并冻结快照（名称、主图、规格、单价）
func (s *orderService) priceLines(ctx context.Context, items []CartItem, now time.Time) ([]pricedLine, error) {
	products := make(map[string]*model.Product, len(items))
	lines := make([]pricedLine, 0, len(items))
	clubID := ""

	for i, it := range items {
		field := fmt.Sprintf("items[%d]", i)
		p, ok := products[it.ProductID]
		if !ok {
			var err error
			p, err = s.store.Products.Get(ctx, it.ProductID)
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("product %s: %w", it.ProductID, ErrNotFound)
			}
			if err != nil {
				return nil, err
			}
			products[it.ProductID] = p
		}

		if p.Status == model.ProductStatusSoldout {
			return nil, &StockUnavailableError{ProductID: p.ID, Name: p.Name, OptionID: it.VariantOptionID}
		}
		if !p.IsOnSale(now) {
			return nil, invalid(field+".product_id", "%q is not on sale", p.Name)
		}
		if clubID == "" {
			clubID = p.ClubID
		} else if p.ClubID != clubID {
			return nil, invalid(field+".product_id", "all items must come from the same club store")
		}

		label := ""
		if p.HasVariants {
			if it.VariantOptionID == "" {
				return nil, invalid(field+".variant_option_id", "required for %q", p.Name)
			}
			if opt, _ := p.FindOption(it.VariantOptionID); opt == nil {
				return nil, invalid(field+".variant_option_id", "unknown option for %q", p.Name)
			}
			label = p.VariantLabel(it.VariantOptionID)
		} else if it.VariantOptionID != "" {
			return nil, invalid(field+".variant_option_id", "%q has no variants", p.Name)
		}

		unit := p.EffectivePrice(it.VariantOptionID)
		lines = append(lines, pricedLine{
			product: p,
			item: model.OrderItem{
				ID:              uuid.New().String(),
				ProductID:       p.ID,
				VariantOptionID: it.VariantOptionID,
				VariantLabel:    label,
				Quantity:        it.Quantity,
				UnitPrice:       unit,
				TotalPrice:      unit * int64(it.Quantity),
				SnapshotName:    p.Name,
				SnapshotImage:   p.PrimaryImage(),
			},
		})
	}
	return lines, nil
}

// checkLimits 同一商品的多行先合并数量再检查
func (s *orderService) checkLimits(ctx context.Context, buyerID string, lines []pricedLine) error {
	if s.limits == nil {
		return nil
	}
	totals := make(map[string]int)
	var order []*model.Product
	for _, ln := range lines {
		if _, seen := totals[ln.product.ID]; !seen {
			order = append(order, ln.product)
		}
		totals[ln.product.ID] += ln.item.Quantity
	}
	for _, p := range order {
		if err := s.limits.Check(ctx, buyerID, p, totals[p.ID]); err != nil {
			return err
		}
	}
	return nil
}

// reserveAll 逐行预占；任何一行失败都会先归还已预占的行
func (s *orderService) reserveAll(ctx context.Context, lines []pricedLine) ([]reservation, error) {
	reserved := make([]reservation, 0, len(lines))
	for _, ln := range lines {
		r := reservation{productID: ln.item.ProductID, optionID: ln.item.VariantOptionID, quantity: ln.item.Quantity}
		var err error
		if r.optionID != "" {
			_, err = s.store.Products.ReserveVariant(ctx, r.productID, r.optionID, r.quantity)
		} else {
			_, err = s.store.Products.Reserve(ctx, r.productID, r.quantity)
		}
		if err != nil {
			s.rollback(ctx, reserved)
			if errors.Is(err, repository.ErrStockUnavailable) {
				return nil, &StockUnavailableError{ProductID: r.productID, Name: ln.product.Name, OptionID: r.optionID}
			}
			return nil, fmt.Errorf("reserve %s: %w", r.productID, err)
		}
		reserved = append(reserved, r)
	}
	return reserved, nil
}

// rollback 逆序归还；请求被取消时也要执行完
func (s *orderService) rollback(ctx context.Context, reserved []reservation) {
	ctx = context.WithoutCancel(ctx)
	for i := len(reserved) - 1; i >= 0; i-- {
		r := reserved[i]
		if err := restoreLine(ctx, s.store.Products, r); err != nil {
			logger.Error("rollback reservation failed",
				zap.String("product_id", r.productID),
				zap.String("option_id", r.optionID),
				zap.Int("quantity", r.quantity),
				zap.Error(err),
			)
			sentry.CaptureException(fmt.Errorf("rollback reservation of %s x%d: %w", r.productID, r.quantity, err))
		}
	}
}

func restoreLine(ctx context.Context, products repository.ProductRepository, r reservation) error {
	if r.optionID != "" {
		_, err := products.RestoreVariant(ctx, r.productID, r.optionID, r.quantity)
		return err
	}
	_, err := products.Restore(ctx, r.productID, r.quantity)
	return err
}

func (s *orderService) persist(ctx context.Context, cmd PlaceOrderCommand, lines []pricedLine, now time.Time) (*model.Order, error) {
	number, err := s.sequence.Next(ctx, now.Year())
	if err != nil {
		return nil, err
	}

	orderID := uuid.New().String()
	items := make([]model.OrderItem, len(lines))
	var total int64
	for i, ln := range lines {
		items[i] = ln.item
		items[i].OrderID = orderID
		total += ln.item.TotalPrice
	}

	deliveryType := cmd.Delivery.Type
	if deliveryType == "" {
		deliveryType = model.DeliveryPickup
	}
	order := &model.Order{
		ID:             orderID,
		OrderNumber:    number,
		ClubID:         lines[0].product.ClubID,
		BuyerID:        cmd.BuyerID,
		Items:          items,
		TotalAmount:    total,
		Payment:        model.Payment{Status: model.PaymentStatusPending, Amount: total, Currency: s.currency},
		IdempotencyKey: cmd.IdempotencyKey,
		Status:         model.OrderStatusPaymentPending,
		StatusHistory: model.StatusHistory{{
			Status:    model.OrderStatusPaymentPending,
			ChangedAt: now,
			ChangedBy: cmd.BuyerID,
			Note:      "order placed",
		}},
		ReservedUntil: now.Add(s.window),
		DeliveryType:  deliveryType,
		Delivery: model.DeliveryDetails{
			Hostel:         cmd.Delivery.Hostel,
			RoomNo:         cmd.Delivery.RoomNo,
			PickupSlot:     cmd.Delivery.PickupSlot,
			PickupLocation: cmd.Delivery.PickupLocation,
		},
		Buyer:     cmd.Buyer,
		BuyerNote: cmd.BuyerNote,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.store.Tx(ctx, func(tx *repository.Store) error {
		if err := tx.Orders.Create(ctx, order); err != nil {
			return err
		}
		return addOrderEvent(ctx, tx.Outbox, order, event.TypeOrderPlaced, "", cmd.BuyerID)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// transitionHook 在状态写之前修改订单，返回错误则整个流转放弃
type transitionHook func(o *model.Order, from model.OrderStatus, now time.Time) error

func (s *orderService) Transition(ctx context.Context, orderID string, to model.OrderStatus, actor, note string) (*model.Order, error) {
	return s.transition(ctx, orderID, to, actor, note, nil)
}

func (s *orderService) transition(ctx context.Context, orderID string, to model.OrderStatus, actor, note string, hook transitionHook) (*model.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.Transition", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.to", string(to)),
		attribute.String("actor", actor),
	))
	defer span.End()

	if !to.Valid() {
		err := invalid("status", "unknown order status %q", to)
		recordSpanError(span, err)
		return nil, err
	}

	var (
		order *model.Order
		from  model.OrderStatus
		err   error
	)
	// CAS 失败后重读、重新校验一次
	for attempt := 0; attempt < 2; attempt++ {
		order, from, err = s.applyTransition(ctx, orderID, to, actor, note, hook)
		if !errors.Is(err, repository.ErrVersionConflict) {
			break
		}
	}
	if errors.Is(err, repository.ErrVersionConflict) {
		err = fmt.Errorf("transition order %s: %w", orderID, ErrConcurrentUpdate)
	}
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	logger.Info("order status changed",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor", actor),
		zap.Bool("stock_restored", order.StockRestored),
	)
	return order, nil
}

// applyTransition 状态 CAS、stock_restored 抢占、库存归还与事件写入同一事务提交
func (s *orderService) applyTransition(ctx context.Context, orderID string, to model.OrderStatus, actor, note string, hook transitionHook) (*model.Order, model.OrderStatus, error) {
	var (
		order *model.Order
		from  model.OrderStatus
	)
	err := s.store.Tx(ctx, func(tx *repository.Store) error {
		o, err := tx.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		from = o.Status
		if !from.CanTransitionTo(to) {
			return &InvalidTransitionError{OrderID: o.ID, From: from, To: to}
		}

		now := s.now()
		version := o.Version
		o.Status = to
		o.StatusHistory = append(o.StatusHistory, model.StatusChange{Status: to, ChangedAt: now, ChangedBy: actor, Note: note})
		o.UpdatedAt = now
		if to == model.OrderStatusCancelled {
			o.CancelledAt = &now
			o.CancelledBy = actor
			o.CancelReason = note
		}
		if hook != nil {
			if err := hook(o, from, now); err != nil {
				return err
			}
		}

		if err := tx.Orders.UpdateStatus(ctx, o, from, version); err != nil {
			return err
		}
		if to.RestoresStock() {
			if err := restoreOrderStock(ctx, tx, o); err != nil {
				return err
			}
		}
		if err := addOrderEvent(ctx, tx.Outbox, o, event.TypeOrderStatusChanged, from, actor); err != nil {
			return err
		}
		order = o
		return nil
	})
	return order, from, err
}

// restoreOrderStock 只有抢到 stock_restored 的一方归还库存
func restoreOrderStock(ctx context.Context, tx *repository.Store, o *model.Order) error {
	claimed, err := tx.Orders.ClaimStockRestore(ctx, o.ID)
	if err != nil {
		return err
	}
	if !claimed {
		logger.Warn("stock already restored", zap.String("order_id", o.ID))
		o.StockRestored = true
		return nil
	}
	for i := len(o.Items) - 1; i >= 0; i-- {
		it := o.Items[i]
		err := restoreLine(ctx, tx.Products, reservation{productID: it.ProductID, optionID: it.VariantOptionID, quantity: it.Quantity})
		if errors.Is(err, repository.ErrNotFound) {
			logger.Warn("restore skipped, product or option no longer exists",
				zap.String("order_id", o.ID),
				zap.String("product_id", it.ProductID),
				zap.String("option_id", it.VariantOptionID),
			)
			continue
		}
		if err != nil {
			return fmt.Errorf("restore %s: %w", it.ProductID, err)
		}
	}
	o.StockRestored = true
	return nil
}

func (s *orderService) Cancel(ctx context.Context, orderID, buyerID, reason string) (*model.Order, error) {
	if reason == "" {
		reason = "cancelled by buyer"
	}
	// 先校验归属：他人订单一律按不存在处理，不暴露其状态。buyer_id 创建后不变
	current, err := s.store.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if current.BuyerID != buyerID {
		return nil, ErrNotFound
	}
	return s.transition(ctx, orderID, model.OrderStatusCancelled, buyerID, reason,
		func(o *model.Order, from model.OrderStatus, _ time.Time) error {
			if from != model.OrderStatusPaymentPending && from != model.OrderStatusConfirmed {
				return &InvalidTransitionError{OrderID: o.ID, From: from, To: model.OrderStatusCancelled}
			}
			return nil
		})
}

func (s *orderService) AttachGatewayOrder(ctx context.Context, orderID, gatewayOrderID string) (*model.Order, error) {
	if gatewayOrderID == "" {
		return nil, invalid("gateway_order_id", "required")
	}
	o, err := s.store.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Payment.GatewayOrderID == gatewayOrderID {
		return o, nil
	}
	if o.Status != model.OrderStatusPaymentPending {
		return nil, invalid("status", "order is %s, payment can no longer be started", o.Status)
	}

	version := o.Version
	o.Payment.GatewayOrderID = gatewayOrderID
	o.Payment.Status = model.PaymentStatusCreated
	o.UpdatedAt = s.now()
	if err := s.store.Orders.UpdatePayment(ctx, o, version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, fmt.Errorf("attach gateway order to %s: %w", orderID, ErrConcurrentUpdate)
		}
		return nil, err
	}
	return o, nil
}

func (s *orderService) ConfirmPayment(ctx context.Context, orderID string, capture PaymentCapture) (*model.Order, error) {
	if err := validate.Struct(capture); err != nil {
		return nil, fromValidator(err)
	}
	o, err := s.store.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	// 网关重复回调
	if o.Payment.Status == model.PaymentStatusCaptured && o.Payment.GatewayPaymentID == capture.PaymentID {
		return o, nil
	}
	if capture.Amount != o.TotalAmount {
		return nil, invalid("amount", "captured %d does not match order total %d", capture.Amount, o.TotalAmount)
	}

	order, err := s.transition(ctx, orderID, model.OrderStatusConfirmed, ActorGateway, "payment captured",
		func(o *model.Order, _ model.OrderStatus, now time.Time) error {
			paidAt := capture.PaidAt.UTC()
			if capture.PaidAt.IsZero() {
				paidAt = now
			}
			o.Payment.GatewayPaymentID = capture.PaymentID
			o.Payment.Signature = capture.Signature
			o.Payment.Method = capture.Method
			o.Payment.Status = model.PaymentStatusCaptured
			o.Payment.PaidAt = &paidAt
			return nil
		})
	if errors.Is(err, ErrInvalidTransition) {
		// 预占已过期后才到账，需要人工退款
		logger.Warn("payment captured for order that can no longer be confirmed",
			zap.String("order_id", orderID),
			zap.String("payment_id", capture.PaymentID),
			zap.Error(err),
		)
	}
	return order, err
}

func (s *orderService) FailPayment(ctx context.Context, orderID, reason string) (*model.Order, error) {
	if reason == "" {
		reason = "payment failed"
	}
	return s.transition(ctx, orderID, model.OrderStatusPaymentFailed, ActorGateway, reason,
		func(o *model.Order, _ model.OrderStatus, _ time.Time) error {
			o.Payment.Status = model.PaymentStatusFailed
			return nil
		})
}

func (s *orderService) RecordRefund(ctx context.Context, orderID, refundID, actor, note string) (*model.Order, error) {
	o, err := s.store.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status == model.OrderStatusRefunded && refundID != "" && o.Payment.RefundID == refundID {
		return o, nil
	}
	return s.transition(ctx, orderID, model.OrderStatusRefunded, actor, note,
		func(o *model.Order, _ model.OrderStatus, now time.Time) error {
			o.Payment.RefundID = refundID
			o.Payment.Status = model.PaymentStatusRefunded
			o.Payment.RefundedAt = &now
			return nil
		})
}

func (s *orderService) Get(ctx context.Context, id string) (*model.Order, error) {
	return s.store.Orders.GetByID(ctx, id)
}

func (s *orderService) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	return s.store.Orders.GetByOrderNumber(ctx, number)
}

func (s *orderService) ListByBuyer(ctx context.Context, buyerID string, limit int) ([]*model.Order, error) {
	return s.store.Orders.ListByBuyer(ctx, buyerID, clampLimit(limit))
}

func (s *orderService) ListByClub(ctx context.Context, clubID string, status model.OrderStatus, limit int) ([]*model.Order, error) {
	if status != "" && !status.Valid() {
		return nil, invalid("status", "unknown order status %q", status)
	}
	return s.store.Orders.ListByClub(ctx, clubID, status, clampLimit(limit))
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
