package model

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusPaymentPending OrderStatus = "payment_pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusReady          OrderStatus = "ready"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusRefunded       OrderStatus = "refunded"
	OrderStatusPaymentFailed  OrderStatus = "payment_failed"
	OrderStatusExpired        OrderStatus = "expired"
)

// OrderStatuses 全部状态
var OrderStatuses = []OrderStatus{
	OrderStatusPaymentPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusReady,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
	OrderStatusPaymentFailed,
	OrderStatusExpired,
}

// transitions 允许的流转；空列表为终态
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPaymentPending: {OrderStatusConfirmed, OrderStatusPaymentFailed, OrderStatusExpired, OrderStatusCancelled},
	OrderStatusConfirmed:      {OrderStatusProcessing, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusProcessing:     {OrderStatusReady, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusReady:          {OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusDelivered:      {OrderStatusRefunded},
	OrderStatusCancelled:      {},
	OrderStatusRefunded:       {},
	OrderStatusPaymentFailed:  {},
	OrderStatusExpired:        {},
}

func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// AllowedTransitions 返回副本
func (s OrderStatus) AllowedTransitions() []OrderStatus {
	allowed := transitions[s]
	out := make([]OrderStatus, len(allowed))
	copy(out, allowed)
	return out
}

func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	allowed, ok := transitions[s]
	return ok && len(allowed) == 0
}

// RestoresStock 进入这些状态时归还预占库存（货物未离手）
func (s OrderStatus) RestoresStock() bool {
	switch s {
	case OrderStatusCancelled, OrderStatusPaymentFailed, OrderStatusExpired:
		return true
	}
	return false
}

// ExcludedFromPurchaseLimit 不计入限购数量的状态
var ExcludedFromPurchaseLimit = []OrderStatus{
	OrderStatusCancelled,
	OrderStatusPaymentFailed,
	OrderStatusExpired,
	OrderStatusRefunded,
}
